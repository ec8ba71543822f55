package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/potencialpi/sentiment-cx/adapters/excel"
	"github.com/potencialpi/sentiment-cx/adapters/jsonfile"
	"github.com/potencialpi/sentiment-cx/adapters/postgres"
	"github.com/potencialpi/sentiment-cx/domain/core"
	"github.com/potencialpi/sentiment-cx/domain/survey"
	"github.com/potencialpi/sentiment-cx/internal/analysis"
	"github.com/potencialpi/sentiment-cx/internal/config"
	apperrors "github.com/potencialpi/sentiment-cx/internal/errors"
	"github.com/potencialpi/sentiment-cx/internal/logging"
	"github.com/potencialpi/sentiment-cx/internal/metrics"
	"github.com/potencialpi/sentiment-cx/ports"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app is the state shared by every subcommand, built once in PersistentPreRunE
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	labels   config.Labels
	registry *prometheus.Registry
	engine   *analysis.Engine
}

type rootFlags struct {
	envFile     string
	seed        int64
	kMin        int
	kMax        int
	restarts    int
	vars        []string
	labels      string
	metricsFile string
	logLevel    string
	databaseURL string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "scx",
		Short:         "Survey analytics: descriptive statistics, correlation, ANOVA and k-means segments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, flags)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.envFile, "env-file", ".env", "Optional .env file loaded before reading the environment")
	pf.Int64Var(&flags.seed, "seed", 0, "Random seed for clustering (0 derives one from the clock)")
	pf.IntVar(&flags.kMin, "k-min", 2, "Smallest cluster count in the sweep")
	pf.IntVar(&flags.kMax, "k-max", 5, "Largest cluster count in the sweep")
	pf.IntVar(&flags.restarts, "restarts", 1, "K-means restarts per cluster count")
	pf.StringSliceVar(&flags.vars, "vars", nil, "Numeric variables to cluster on (default: all)")
	pf.StringVar(&flags.labels, "labels", "", "YAML file mapping variable keys to display names")
	pf.StringVar(&flags.metricsFile, "metrics-file", "", "Write prometheus metrics to this file on exit")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	pf.StringVar(&flags.databaseURL, "database-url", "", "Postgres URL for reading or storing surveys")

	rootCmd.AddCommand(
		newAnalyzeCmd(a),
		newSweepCmd(a),
		newGenerateCmd(a),
		newBatchCmd(a),
		newMigrateCmd(a),
	)
	return rootCmd
}

func (a *app) init(cmd *cobra.Command, flags *rootFlags) error {
	if flags.envFile != "" {
		if err := godotenv.Load(flags.envFile); err != nil && !os.IsNotExist(err) {
			return apperrors.WithCode(apperrors.CodeConfigInvalid, err, "failed to load env file")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cmd, flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return apperrors.WithCode(apperrors.CodeConfigInvalid, err, "failed to build logger")
	}

	labels, err := config.LoadLabels(cfg.Output.LabelsFile)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.labels = labels
	a.registry = prometheus.NewRegistry()
	a.engine = analysis.NewEngine(
		analysis.WithLogger(logger),
		analysis.WithRecorder(metrics.NewRecorder(a.registry)),
	)
	return nil
}

// applyFlags lets explicitly set flags override the environment
func applyFlags(cmd *cobra.Command, flags *rootFlags, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("seed") {
		cfg.Analysis.Seed = flags.seed
	}
	if changed("k-min") {
		cfg.Analysis.KMin = flags.kMin
	}
	if changed("k-max") {
		cfg.Analysis.KMax = flags.kMax
	}
	if changed("restarts") {
		cfg.Analysis.Restarts = flags.restarts
	}
	if changed("vars") {
		cfg.Analysis.ClusterVariables = flags.vars
	}
	if changed("labels") {
		cfg.Output.LabelsFile = flags.labels
	}
	if changed("metrics-file") {
		cfg.Output.MetricsFile = flags.metricsFile
	}
	if changed("log-level") {
		cfg.Logging.Level = strings.ToLower(flags.logLevel)
	}
	if changed("database-url") {
		cfg.Database.URL = flags.databaseURL
	}
}

func (a *app) close() error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.cfg != nil && a.cfg.Output.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(a.cfg.Output.MetricsFile, a.registry); err != nil {
			return apperrors.Wrap(err, "failed to write metrics file")
		}
	}
	return nil
}

// request turns the configuration into an engine request
func (a *app) request() analysis.Request {
	return analysis.Request{
		ClusterColumns:   a.cfg.Analysis.ClusterVariables,
		Seed:             a.cfg.Analysis.Seed,
		KMin:             a.cfg.Analysis.KMin,
		KMax:             a.cfg.Analysis.KMax,
		Restarts:         a.cfg.Analysis.Restarts,
		MaxANOVAGroups:   a.cfg.Analysis.MaxANOVAGroups,
		NumericThreshold: a.cfg.Analysis.NumericThreshold,
	}
}

// fileSource picks a record source by file extension
func (a *app) fileSource(path string) (ports.RecordSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return jsonfile.NewReader(path, "", jsonfile.DefaultFields(), a.logger), nil
	case ".xlsx", ".csv":
		return excel.NewDataReader(path, excel.DefaultConfig(), a.logger), nil
	default:
		return nil, apperrors.InvalidInput("unsupported file type: " + path)
	}
}

// openDB connects to the configured database
func (a *app) openDB(ctx context.Context) (*sqlx.DB, error) {
	if a.cfg.Database.URL == "" {
		return nil, apperrors.ConfigInvalid("a database URL is required (--database-url or DATABASE_URL)")
	}
	return postgres.Open(ctx, a.cfg.Database.URL)
}

// openRepository connects to the configured database and wraps it in a repository
func (a *app) openRepository(ctx context.Context) (*postgres.ResponseRepository, func(), error) {
	db, err := a.openDB(ctx)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewResponseRepository(db), func() { db.Close() }, nil
}

// loadRecords reads records from a file argument or from a stored survey
func (a *app) loadRecords(ctx context.Context, path, surveyID string) ([]survey.ResponseRecord, string, error) {
	if surveyID != "" {
		id, err := core.ParseSurveyID(surveyID)
		if err != nil {
			return nil, "", apperrors.WithCode(apperrors.CodeInvalidInput, err, "invalid survey id")
		}
		repo, closeDB, err := a.openRepository(ctx)
		if err != nil {
			return nil, "", err
		}
		defer closeDB()
		source := repo.Source(id)
		records, err := source.Records(ctx)
		return records, source.Name(), err
	}

	if path == "" {
		return nil, "", apperrors.InvalidInput("a file argument or --survey is required")
	}
	source, err := a.fileSource(path)
	if err != nil {
		return nil, "", err
	}
	records, err := source.Records(ctx)
	return records, source.Name(), err
}

func writeOut(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
