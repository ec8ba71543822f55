package analysis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/potencialpi/sentiment-cx/domain/core"
	"github.com/potencialpi/sentiment-cx/domain/survey"
	"github.com/potencialpi/sentiment-cx/internal/metrics"
	"github.com/potencialpi/sentiment-cx/internal/testkit"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"
)

func generated(t *testing.T, n int) []survey.ResponseRecord {
	t.Helper()
	config := testkit.DefaultSurveyConfig()
	config.RespondentCount = n
	return testkit.NewSurveyGenerator(config).Generate()
}

func TestEngine_FullPass(t *testing.T) {
	records := generated(t, 200)

	report, err := NewEngine().Analyze(context.Background(), records, Request{Seed: 42})
	require.NoError(t, err)

	assert.NotEmpty(t, report.AnalysisID)
	assert.Equal(t, 200, report.RecordCount)
	assert.Equal(t, int64(42), report.Seed)
	assert.False(t, report.InputFingerprint.IsEmpty())

	for _, name := range []string{testkit.QuestionNPS, testkit.QuestionSatisfaction, testkit.QuestionEffort, survey.SentimentVariable} {
		summary, ok := report.Summaries[name]
		require.True(t, ok, name)
		assert.Greater(t, summary.Count, 100)
	}
	_, ok := report.Summaries[testkit.QuestionPlan]
	assert.False(t, ok)

	// four numeric variables give six pairs
	assert.Len(t, report.Correlations, 6)
	strongest := 0.0
	for _, c := range report.Correlations {
		assert.GreaterOrEqual(t, c.Coefficient, -1.0)
		assert.LessOrEqual(t, c.Coefficient, 1.0)
		if c.Coefficient > strongest {
			strongest = c.Coefficient
		}
	}
	assert.Greater(t, strongest, 0.5)

	res, ok := report.ANOVA[survey.ANOVAKey(testkit.QuestionNPS, testkit.QuestionPlan)]
	require.True(t, ok)
	assert.Len(t, res.Groups, 3)
	assert.Greater(t, res.FStatistic, 10.0)
	assert.Less(t, res.ReferencePValue, 0.001)

	assert.Equal(t, []string{testkit.QuestionEffort, testkit.QuestionNPS, testkit.QuestionSatisfaction, survey.SentimentVariable}, report.ClusterColumns)
	require.Len(t, report.Clusters, 4)
	for i, p := range report.Clusters {
		assert.Equal(t, i+2, p.K)
		assert.Len(t, p.Assignments, len(report.ClusterRecordIDs))
		assert.GreaterOrEqual(t, p.Silhouette, -1.0)
		assert.LessOrEqual(t, p.Silhouette, 1.0)
	}
	_, ok = report.PartitionForK(3)
	assert.True(t, ok)
}

func TestEngine_ReproducibleForSeed(t *testing.T) {
	records := generated(t, 80)
	engine := NewEngine()
	req := Request{Seed: 7, ClusterColumns: []string{testkit.QuestionNPS, testkit.QuestionEffort}}

	a, err := engine.Analyze(context.Background(), records, req)
	require.NoError(t, err)
	b, err := engine.Analyze(context.Background(), records, req)
	require.NoError(t, err)

	assert.NotEqual(t, a.AnalysisID, b.AnalysisID)
	assert.Equal(t, a.InputFingerprint, b.InputFingerprint)
	assert.Equal(t, a.Clusters, b.Clusters)
	assert.Equal(t, a.Correlations, b.Correlations)
	assert.Equal(t, a.Summaries, b.Summaries)
}

func TestEngine_ZeroSeedDerivedFromClock(t *testing.T) {
	report, err := NewEngine().Analyze(context.Background(), generated(t, 10), Request{})
	require.NoError(t, err)
	assert.NotZero(t, report.Seed)
}

func TestEngine_SmallSurveyDegradesToEmptyResults(t *testing.T) {
	records := []survey.ResponseRecord{
		{ID: "a", Responses: map[string]survey.Answer{"nps": survey.NumberAnswer(9), "plan": survey.TextAnswer("pro")}},
		{ID: "b", Responses: map[string]survey.Answer{"nps": survey.NumberAnswer(4), "csat": survey.NumberAnswer(2)}},
	}

	report, err := NewEngine().Analyze(context.Background(), records, Request{Seed: 1})
	require.NoError(t, err)

	assert.Len(t, report.Summaries, 2)
	assert.Empty(t, report.Correlations)
	assert.Empty(t, report.ANOVA)
	assert.Empty(t, report.Clusters)
}

func TestEngine_EmptyInput(t *testing.T) {
	report, err := NewEngine().Analyze(context.Background(), nil, Request{Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, 0, report.RecordCount)
	assert.Empty(t, report.Variables)
	assert.Empty(t, report.Summaries)
	assert.Empty(t, report.Clusters)
}

func TestEngine_RejectsBadRequests(t *testing.T) {
	engine := NewEngine()
	records := generated(t, 20)

	_, err := engine.Analyze(context.Background(), records, Request{ClusterColumns: []string{"missing"}})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
	assert.ErrorIs(t, err, core.ErrUnknownVariable)

	_, err = engine.Analyze(context.Background(), records, Request{ClusterColumns: []string{testkit.QuestionPlan}})
	assert.ErrorIs(t, err, core.ErrNotNumeric)

	_, err = engine.Analyze(context.Background(), records, Request{KMin: 5, KMax: 3})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)

	_, err = engine.Analyze(context.Background(), records, Request{NumericThreshold: 1.5})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)

	_, err = engine.Analyze(context.Background(), records, Request{Restarts: -1})
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestEngine_ExcludeSentiment(t *testing.T) {
	report, err := NewEngine().Analyze(context.Background(), generated(t, 40), Request{Seed: 3, ExcludeSentiment: true})
	require.NoError(t, err)
	_, ok := report.Summaries[survey.SentimentVariable]
	assert.False(t, ok)
	assert.NotContains(t, report.ClusterColumns, survey.SentimentVariable)
}

func TestEngine_ReportSurvivesJSONRoundTrip(t *testing.T) {
	report, err := NewEngine().Analyze(context.Background(), generated(t, 60), Request{Seed: 11})
	require.NoError(t, err)

	first, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded survey.Report
	require.NoError(t, json.Unmarshal(first, &decoded))

	second, err := json.Marshal(&decoded)
	require.NoError(t, err)
	assert.JSONEq(t, string(first), string(second))
	assert.Equal(t, report.Clusters, decoded.Clusters)
	assert.Equal(t, report.Correlations, decoded.Correlations)
}

func TestEngine_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	engine := NewEngine(WithRecorder(metrics.NewRecorder(reg)))

	_, err := engine.Analyze(context.Background(), generated(t, 30), Request{Seed: 5})
	require.NoError(t, err)
	_, err = engine.Analyze(context.Background(), generated(t, 3), Request{Seed: 5})
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "sentiment_cx_analyses_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "sentiment_cx_analyses_total" {
			assert.Equal(t, 2.0, f.GetMetric()[0].GetCounter().GetValue())
		}
	}

	skipped, err := testutil.GatherAndCount(reg, "sentiment_cx_insufficient_data_total")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, skipped, 1)
}

func TestEngine_TracesStages(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	engine := NewEngine(WithTracer(provider.Tracer("test")))

	_, err := engine.Analyze(context.Background(), generated(t, 20), Request{Seed: 9})
	require.NoError(t, err)

	names := map[string]bool{}
	for _, span := range recorder.Ended() {
		names[span.Name()] = true
	}
	for _, want := range []string{"analysis.Analyze", "analysis.extract", "analysis.descriptive", "analysis.correlation", "analysis.anova", "analysis.clustering"} {
		assert.True(t, names[want], want)
	}
}

func TestEngine_LogsCompletion(t *testing.T) {
	observed, logs := observer.New(zapcore.InfoLevel)
	engine := NewEngine(WithLogger(zap.New(observed)))

	report, err := engine.Analyze(context.Background(), generated(t, 20), Request{Seed: 2})
	require.NoError(t, err)

	entries := logs.FilterMessage("analysis complete").All()
	require.Len(t, entries, 1)
	assert.Equal(t, report.AnalysisID.String(), entries[0].ContextMap()["analysis_id"])
}

func TestEngine_ConcurrentUse(t *testing.T) {
	engine := NewEngine()
	records := generated(t, 50)

	reports := make([]*survey.Report, 8)
	var g errgroup.Group
	for i := range reports {
		i := i
		g.Go(func() error {
			r, err := engine.Analyze(context.Background(), records, Request{Seed: 21})
			reports[i] = r
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, r := range reports[1:] {
		assert.Equal(t, reports[0].Clusters, r.Clusters)
	}
}

func TestFingerprint(t *testing.T) {
	a := generated(t, 10)
	b := generated(t, 10)
	assert.Equal(t, Fingerprint(a), Fingerprint(b))

	b[3].Responses["extra"] = survey.TextAnswer("x")
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}
