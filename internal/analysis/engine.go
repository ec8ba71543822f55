// Package analysis runs a complete analysis pass over a batch of survey responses.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/potencialpi/sentiment-cx/domain/core"
	"github.com/potencialpi/sentiment-cx/domain/survey"
	"github.com/potencialpi/sentiment-cx/internal/analysis/anova"
	"github.com/potencialpi/sentiment-cx/internal/analysis/clustering"
	"github.com/potencialpi/sentiment-cx/internal/analysis/correlation"
	"github.com/potencialpi/sentiment-cx/internal/analysis/descriptive"
	"github.com/potencialpi/sentiment-cx/internal/analysis/variables"
	"github.com/potencialpi/sentiment-cx/internal/metrics"
	"github.com/potencialpi/sentiment-cx/ports"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/potencialpi/sentiment-cx/internal/analysis"

// Request selects what the engine computes. Zero values pick the defaults.
type Request struct {
	// ClusterColumns are the numeric variables clustered on; empty means all of them
	ClusterColumns []string `json:"cluster_columns"`
	// Seed drives every random choice in the pass; 0 derives one from the clock
	Seed     int64 `json:"seed"`
	KMin     int   `json:"k_min" validate:"gte=0"`
	KMax     int   `json:"k_max" validate:"gte=0"`
	Restarts int   `json:"restarts" validate:"gte=0,lte=100"`
	// MaxANOVAGroups skips categorical variables with more categories than this
	MaxANOVAGroups   int     `json:"max_anova_groups" validate:"gte=0"`
	NumericThreshold float64 `json:"numeric_threshold" validate:"gte=0,lte=1"`
	// ExcludeSentiment leaves the synthetic sentiment_score variable out
	ExcludeSentiment bool `json:"exclude_sentiment"`
}

// Engine wires the analysis components together. It holds no per-call state and is
// safe for concurrent use.
type Engine struct {
	logger   *zap.Logger
	recorder *metrics.Recorder
	tracer   trace.Tracer
	streams  ports.RNGPort
	validate *validator.Validate
}

// Option configures an Engine
type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithRecorder(recorder *metrics.Recorder) Option {
	return func(e *Engine) { e.recorder = recorder }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		if tracer != nil {
			e.tracer = tracer
		}
	}
}

// WithStreams replaces how per-k random streams are derived from the seed
func WithStreams(streams ports.RNGPort) Option {
	return func(e *Engine) {
		if streams != nil {
			e.streams = streams
		}
	}
}

// NewEngine creates an engine. Without options it logs nothing, records no metrics
// and traces through the global provider.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(tracerName),
		streams:  clustering.SeededStreams{},
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Analyze runs extraction, descriptive statistics, correlation, ANOVA and the cluster
// sweep over records. Analyses without enough data are left out of the report. Errors
// are returned only for an invalid request or an unusable cluster column. ctx is used
// for tracing; a pass is not interrupted by cancellation.
func (e *Engine) Analyze(ctx context.Context, records []survey.ResponseRecord, req Request) (*survey.Report, error) {
	start := time.Now()

	if err := e.validateRequest(req); err != nil {
		return nil, err
	}

	seed := req.Seed
	if seed == 0 {
		seed = core.SeedFromClock()
	}

	report := &survey.Report{
		AnalysisID:       core.NewAnalysisID(),
		GeneratedAt:      core.Now(),
		InputFingerprint: Fingerprint(records),
		RecordCount:      len(records),
		Seed:             seed,
	}
	logger := e.logger.With(zap.String("analysis_id", report.AnalysisID.String()))

	ctx, span := e.tracer.Start(ctx, "analysis.Analyze", trace.WithAttributes(
		attribute.String("analysis.id", report.AnalysisID.String()),
		attribute.Int("analysis.records", len(records)),
		attribute.Int64("analysis.seed", seed),
	))
	defer span.End()

	vars := e.extract(ctx, records, req, logger)
	report.Variables = make([]survey.VariableInfo, len(vars))
	dropped := 0
	numeric := 0
	for i, v := range vars {
		report.Variables[i] = v.Info()
		dropped += v.Dropped
		if v.IsNumeric() {
			numeric++
		}
	}
	e.recorder.Dropped(dropped)

	report.Summaries = e.describe(ctx, vars, numeric, logger)
	report.Correlations = e.correlate(ctx, vars, numeric, logger)
	report.ANOVA = e.anova(ctx, vars, req.MaxANOVAGroups, logger)

	if err := e.cluster(ctx, vars, req, seed, report, logger); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	elapsed := time.Since(start)
	e.recorder.ObserveAnalysis(len(records), elapsed)
	span.SetStatus(codes.Ok, "")

	logger.Info("analysis complete",
		zap.Int("records", len(records)),
		zap.Int("variables", len(vars)),
		zap.Int("correlations", len(report.Correlations)),
		zap.Int("anova", len(report.ANOVA)),
		zap.Int("partitions", len(report.Clusters)),
		zap.Duration("elapsed", elapsed))

	return report, nil
}

func (e *Engine) validateRequest(req Request) error {
	if err := e.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}
	if req.KMax > 0 && req.KMin > req.KMax {
		return fmt.Errorf("%w: k_min %d exceeds k_max %d", core.ErrInvalidRequest, req.KMin, req.KMax)
	}
	return nil
}

func (e *Engine) extract(ctx context.Context, records []survey.ResponseRecord, req Request, logger *zap.Logger) []survey.Variable {
	_, span := e.tracer.Start(ctx, "analysis.extract")
	defer span.End()

	cfg := variables.DefaultConfig()
	if req.NumericThreshold > 0 {
		cfg.NumericThreshold = req.NumericThreshold
	}
	cfg.IncludeSentiment = !req.ExcludeSentiment

	vars := variables.NewExtractor(cfg, logger).Extract(records)
	span.SetAttributes(attribute.Int("analysis.variables", len(vars)))
	logger.Debug("variables extracted", zap.Int("count", len(vars)))
	return vars
}

func (e *Engine) describe(ctx context.Context, vars []survey.Variable, numeric int, logger *zap.Logger) map[string]survey.Summary {
	_, span := e.tracer.Start(ctx, "analysis.descriptive")
	defer span.End()

	summaries := descriptive.DescribeAll(vars)
	if skipped := numeric - len(summaries); skipped > 0 {
		e.recorder.Skipped(metrics.StageDescriptive, skipped)
		logger.Debug("summaries skipped", zap.Int("skipped", skipped))
	}
	return summaries
}

func (e *Engine) correlate(ctx context.Context, vars []survey.Variable, numeric int, logger *zap.Logger) []survey.CorrelationResult {
	_, span := e.tracer.Start(ctx, "analysis.correlation")
	defer span.End()

	results := correlation.AnalyzeAll(vars)
	pairs := numeric * (numeric - 1) / 2
	if skipped := pairs - len(results); skipped > 0 {
		e.recorder.Skipped(metrics.StageCorrelation, skipped)
		logger.Debug("correlation pairs skipped", zap.Int("pairs", pairs), zap.Int("skipped", skipped))
	}
	span.SetAttributes(attribute.Int("analysis.correlations", len(results)))
	return results
}

func (e *Engine) anova(ctx context.Context, vars []survey.Variable, maxGroups int, logger *zap.Logger) map[string]survey.ANOVAResult {
	_, span := e.tracer.Start(ctx, "analysis.anova")
	defer span.End()

	results := anova.AnalyzeAll(vars, maxGroups)
	span.SetAttributes(attribute.Int("analysis.anova", len(results)))
	logger.Debug("anova done", zap.Int("results", len(results)))
	return results
}

func (e *Engine) cluster(ctx context.Context, vars []survey.Variable, req Request, seed int64, report *survey.Report, logger *zap.Logger) error {
	_, span := e.tracer.Start(ctx, "analysis.clustering")
	defer span.End()

	matrix, err := variables.BuildMatrix(vars, req.ClusterColumns)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrInvalidRequest, err)
	}
	report.ClusterColumns = matrix.Columns
	report.ClusterRecordIDs = matrix.RecordIDs

	partitions, err := clustering.Sweep(matrix.Rows, seed, clustering.SweepOptions{
		KMin:    req.KMin,
		KMax:    req.KMax,
		KMeans:  clustering.Options{Restarts: req.Restarts, Logger: logger},
		Streams: e.streams,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	if len(partitions) == 0 {
		e.recorder.Skipped(metrics.StageClustering, 1)
		logger.Debug("cluster sweep produced no partitions", zap.Int("rows", matrix.Len()))
	}
	for _, p := range partitions {
		e.recorder.ObservePartition(p.K, p.Iterations, p.Converged, p.Silhouette)
	}

	span.SetAttributes(
		attribute.Int("analysis.cluster_rows", matrix.Len()),
		attribute.Int("analysis.partitions", len(partitions)))
	report.Clusters = partitions
	return nil
}

// Fingerprint hashes the records in order. Answer maps marshal with sorted keys, so
// equal inputs always give equal fingerprints.
func Fingerprint(records []survey.ResponseRecord) core.Hash {
	parts := make([]string, len(records))
	for i, rec := range records {
		b, err := json.Marshal(rec)
		if err != nil {
			parts[i] = fmt.Sprintf("%d:%v", i, err)
			continue
		}
		parts[i] = string(b)
	}
	return core.Fingerprint(parts)
}
