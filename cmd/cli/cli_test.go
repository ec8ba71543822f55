package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/potencialpi/sentiment-cx/domain/survey"
	apperrors "github.com/potencialpi/sentiment-cx/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SCX_LOG_LEVEL", "error")
	t.Setenv("DATABASE_URL", "")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env-file", ""}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func generateSurvey(t *testing.T, dir, name string, count string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	_, err := run(t, "generate", "--count", count, "--skip-rate", "0", "--seed", "7", "--out", path)
	require.NoError(t, err)
	return path
}

func TestGenerateToStdout(t *testing.T) {
	out, err := run(t, "generate", "--count", "5", "--seed", "3")
	require.NoError(t, err)

	var records []survey.ResponseRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	assert.Len(t, records, 5)
}

func TestGenerateRejectsNonPositiveCount(t *testing.T) {
	_, err := run(t, "generate", "--count", "0")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
}

func TestAnalyzeJSON(t *testing.T) {
	dir := t.TempDir()
	path := generateSurvey(t, dir, "survey.json", "120")

	out, err := run(t, "analyze", path, "--format", "json", "--seed", "11")
	require.NoError(t, err)

	var report survey.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 120, report.RecordCount)
	assert.Equal(t, int64(11), report.Seed)
	assert.Contains(t, report.Summaries, "nps")
	assert.NotEmpty(t, report.Correlations)
	assert.Len(t, report.Clusters, 4)
}

func TestAnalyzeIsReproducibleForSeed(t *testing.T) {
	dir := t.TempDir()
	path := generateSurvey(t, dir, "survey.json", "80")

	decode := func() survey.Report {
		out, err := run(t, "analyze", path, "--format", "json", "--seed", "5", "--vars", "nps,effort")
		require.NoError(t, err)
		var report survey.Report
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		return report
	}
	first, second := decode(), decode()

	assert.Equal(t, []string{"nps", "effort"}, first.ClusterColumns)
	assert.Equal(t, first.InputFingerprint, second.InputFingerprint)
	assert.Equal(t, first.Clusters, second.Clusters)
}

func TestAnalyzeTextUsesLabels(t *testing.T) {
	dir := t.TempDir()
	path := generateSurvey(t, dir, "survey.json", "60")
	labels := filepath.Join(dir, "labels.yaml")
	require.NoError(t, os.WriteFile(labels, []byte("labels:\n  nps: Net Promoter Score\n"), 0644))

	out, err := run(t, "analyze", path, "--seed", "1", "--labels", labels)
	require.NoError(t, err)
	assert.Contains(t, out, "Descriptive statistics")
	assert.Contains(t, out, "Net Promoter Score")
	assert.Contains(t, out, "Segments")
}

func TestAnalyzeErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "analyze")
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))

	_, err = run(t, "analyze", filepath.Join(dir, "survey.txt"))
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))

	path := generateSurvey(t, dir, "survey.json", "20")
	_, err = run(t, "analyze", path, "--format", "yaml")
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))

	_, err = run(t, "analyze", path, "--vars", "comment")
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))

	_, err = run(t, "analyze", path, "--k-min", "4", "--k-max", "3")
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))

	_, err = run(t, "analyze", "--survey", "s1")
	assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
}

func TestSweep(t *testing.T) {
	dir := t.TempDir()
	path := generateSurvey(t, dir, "survey.json", "50")

	out, err := run(t, "sweep", path, "--seed", "9", "--k-max", "3", "--vars", "nps,satisfaction,effort")
	require.NoError(t, err)
	assert.Contains(t, out, "K-means sweep over 50 rows (seed 9)")
	assert.Contains(t, out, "Silhouette")
}

func TestBatchWritesOneReportPerFile(t *testing.T) {
	dir := t.TempDir()
	a := generateSurvey(t, dir, "north.json", "40")
	b := generateSurvey(t, dir, "south.json", "40")
	outDir := filepath.Join(dir, "reports")

	out, err := run(t, "batch", a, b, "--out-dir", outDir, "--concurrency", "2", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(outDir, "north.report.json"))
	assert.Contains(t, out, filepath.Join(outDir, "south.report.json"))

	data, err := os.ReadFile(filepath.Join(outDir, "south.report.json"))
	require.NoError(t, err)
	var report survey.Report
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, 40, report.RecordCount)
}

func TestBatchFailsOnBadInput(t *testing.T) {
	dir := t.TempDir()
	good := generateSurvey(t, dir, "good.json", "30")

	_, err := run(t, "batch", good, filepath.Join(dir, "missing.json"), "--out-dir", filepath.Join(dir, "out"))
	require.Error(t, err)
}

func TestBatchRejectsCollidingReportNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "north"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "south"), 0755))
	a := generateSurvey(t, dir, filepath.Join("north", "survey.json"), "20")
	b := generateSurvey(t, dir, filepath.Join("south", "survey.json"), "20")
	outDir := filepath.Join(dir, "reports")

	_, err := run(t, "batch", a, b, "--out-dir", outDir)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInvalidInput, apperrors.GetCode(err))
	assert.NoDirExists(t, outDir)
}

func TestCheckReportNames(t *testing.T) {
	assert.NoError(t, checkReportNames([]batchJob{{path: "a/north.json"}, {path: "a/south.xlsx"}}))
	assert.Error(t, checkReportNames([]batchJob{{path: "a/survey.json"}, {path: "b/survey.csv"}}))
	assert.Error(t, checkReportNames([]batchJob{{surveyID: "q1"}, {path: "exports/q1.json"}}))
}
