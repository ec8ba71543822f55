package variables

import (
	"errors"
	"math"
	"testing"

	"github.com/potencialpi/sentiment-cx/domain/core"
	"github.com/potencialpi/sentiment-cx/domain/survey"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id string, responses map[string]survey.Answer) survey.ResponseRecord {
	return survey.ResponseRecord{ID: id, Responses: responses}
}

func find(t *testing.T, vars []survey.Variable, name string) survey.Variable {
	t.Helper()
	for _, v := range vars {
		if v.Name == name {
			return v
		}
	}
	t.Fatalf("variable %q not extracted", name)
	return survey.Variable{}
}

func TestExtract_ClassifiesNumericAndCategorical(t *testing.T) {
	records := []survey.ResponseRecord{
		record("a", map[string]survey.Answer{
			"nps":  survey.NumberAnswer(9),
			"age":  survey.TextAnswer(" 34 "),
			"plan": survey.TextAnswer("pro"),
		}),
		record("b", map[string]survey.Answer{
			"nps":  survey.TextAnswer("7.5"),
			"age":  survey.TextAnswer("41"),
			"plan": survey.TextAnswer("free"),
		}),
		record("c", map[string]survey.Answer{
			"nps":  survey.NumberAnswer(3),
			"plan": survey.TextAnswer("pro"),
		}),
	}

	vars := Extract(records)
	require.Len(t, vars, 3)

	nps := find(t, vars, "nps")
	assert.Equal(t, survey.KindNumeric, nps.Kind)
	assert.Equal(t, []float64{9, 7.5, 3}, nps.Values)
	assert.Equal(t, []string{"a", "b", "c"}, nps.RecordIDs)

	age := find(t, vars, "age")
	assert.Equal(t, survey.KindNumeric, age.Kind)
	assert.Equal(t, []float64{34, 41}, age.Values)
	assert.Equal(t, []string{"a", "b"}, age.RecordIDs)

	plan := find(t, vars, "plan")
	assert.Equal(t, survey.KindCategorical, plan.Kind)
	assert.Equal(t, []string{"pro", "free", "pro"}, plan.Categories)
	assert.Equal(t, map[string]int{"pro": 2, "free": 1}, plan.Counts)
	assert.Equal(t, []string{"pro", "free"}, plan.CategoryOrder)
}

func TestExtract_OneUnparsableValueMakesKeyCategorical(t *testing.T) {
	records := []survey.ResponseRecord{
		record("a", map[string]survey.Answer{"score": survey.TextAnswer("4")}),
		record("b", map[string]survey.Answer{"score": survey.TextAnswer("n/a")}),
		record("c", map[string]survey.Answer{"score": survey.TextAnswer("5")}),
	}

	score := find(t, Extract(records), "score")
	assert.Equal(t, survey.KindCategorical, score.Kind)
	assert.Equal(t, []string{"4", "n/a", "5"}, score.Categories)
}

func TestExtract_LoweredThresholdDropsFailuresInsteadOfZeroFilling(t *testing.T) {
	records := []survey.ResponseRecord{
		record("a", map[string]survey.Answer{"score": survey.TextAnswer("4")}),
		record("b", map[string]survey.Answer{"score": survey.TextAnswer("n/a")}),
		record("c", map[string]survey.Answer{"score": survey.TextAnswer("5")}),
		record("d", map[string]survey.Answer{"score": survey.TextAnswer("3")}),
	}

	cfg := Config{NumericThreshold: 0.75}
	score := find(t, NewExtractor(cfg, nil).Extract(records), "score")
	assert.Equal(t, survey.KindNumeric, score.Kind)
	assert.Equal(t, []float64{4, 5, 3}, score.Values)
	assert.Equal(t, []string{"a", "c", "d"}, score.RecordIDs)
	assert.Equal(t, 1, score.Dropped)
}

func TestExtract_NonFiniteNumbersAreDropped(t *testing.T) {
	records := []survey.ResponseRecord{
		record("a", map[string]survey.Answer{"x": survey.TextAnswer("1")}),
		record("b", map[string]survey.Answer{"x": survey.TextAnswer("NaN")}),
		record("c", map[string]survey.Answer{"x": survey.NumberAnswer(math.Inf(1))}),
		record("d", map[string]survey.Answer{"x": survey.TextAnswer("2")}),
	}

	x := find(t, Extract(records), "x")
	assert.Equal(t, survey.KindNumeric, x.Kind)
	assert.Equal(t, []float64{1, 2}, x.Values)
	assert.Equal(t, 2, x.Dropped)
	for _, v := range x.Values {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestExtract_NonFiniteTextOnlyStaysCategorical(t *testing.T) {
	records := []survey.ResponseRecord{
		record("a", map[string]survey.Answer{"x": survey.TextAnswer("NaN")}),
		record("b", map[string]survey.Answer{"x": survey.TextAnswer("Inf")}),
		record("c", map[string]survey.Answer{"x": survey.TextAnswer("infinity")}),
		record("d", map[string]survey.Answer{"x": survey.TextAnswer("NaN")}),
	}

	x := find(t, Extract(records), "x")
	assert.Equal(t, survey.KindCategorical, x.Kind)
	assert.Equal(t, []string{"NaN", "Inf", "infinity"}, x.CategoryOrder)
	assert.Equal(t, 2, x.Counts["NaN"])
	assert.Equal(t, 4, x.Len())
	assert.Zero(t, x.Dropped)
}

func TestExtract_BlankAnswersAreAbsent(t *testing.T) {
	records := []survey.ResponseRecord{
		record("a", map[string]survey.Answer{"x": survey.TextAnswer("1"), "y": survey.TextAnswer("  ")}),
		record("b", map[string]survey.Answer{"x": survey.TextAnswer(""), "y": survey.ChoicesAnswer()}),
	}

	vars := Extract(records)
	require.Len(t, vars, 1)
	assert.Equal(t, []float64{1}, vars[0].Values)
	assert.Equal(t, 0, vars[0].Dropped)
}

func TestExtract_ChoicesAreCategorical(t *testing.T) {
	records := []survey.ResponseRecord{
		record("a", map[string]survey.Answer{"channels": survey.ChoicesAnswer("email", "sms")}),
		record("b", map[string]survey.Answer{"channels": survey.ChoicesAnswer("email")}),
	}

	ch := find(t, Extract(records), "channels")
	assert.Equal(t, survey.KindCategorical, ch.Kind)
	assert.Equal(t, []string{"email, sms", "email"}, ch.Categories)
}

func TestExtract_SentimentScoreBecomesSyntheticVariable(t *testing.T) {
	records := []survey.ResponseRecord{
		{ID: "a", Responses: map[string]survey.Answer{"q": survey.TextAnswer("x")}, SentimentScore: survey.WithSentiment(0.8)},
		{ID: "b", Responses: map[string]survey.Answer{"q": survey.TextAnswer("y")}},
		{ID: "c", Responses: map[string]survey.Answer{"q": survey.TextAnswer("z")}, SentimentScore: survey.WithSentiment(-0.2)},
	}

	vars := Extract(records)
	require.Len(t, vars, 2)
	s := vars[len(vars)-1]
	assert.Equal(t, survey.SentimentVariable, s.Name)
	assert.Equal(t, survey.KindNumeric, s.Kind)
	assert.Equal(t, []float64{0.8, -0.2}, s.Values)
	assert.Equal(t, []string{"a", "c"}, s.RecordIDs)
}

func TestExtract_NoSentimentWhenNoRecordHasOne(t *testing.T) {
	records := []survey.ResponseRecord{
		record("a", map[string]survey.Answer{"q": survey.NumberAnswer(1)}),
	}
	for _, v := range Extract(records) {
		assert.NotEqual(t, survey.SentimentVariable, v.Name)
	}
}

func TestExtract_EmptyInput(t *testing.T) {
	assert.Empty(t, Extract(nil))
}

func TestRecordIDs(t *testing.T) {
	records := []survey.ResponseRecord{{ID: "x"}, {}, {ID: "x"}, {ID: " y "}}
	assert.Equal(t, []string{"x", "#1", "x#2", "y"}, RecordIDs(records))
}

func TestBuildMatrix_JoinsByRecordAndDropsIncompleteRows(t *testing.T) {
	records := []survey.ResponseRecord{
		record("a", map[string]survey.Answer{"x": survey.NumberAnswer(1), "y": survey.NumberAnswer(10)}),
		record("b", map[string]survey.Answer{"y": survey.NumberAnswer(20)}),
		record("c", map[string]survey.Answer{"x": survey.NumberAnswer(3), "y": survey.NumberAnswer(30)}),
		record("d", map[string]survey.Answer{"x": survey.NumberAnswer(4), "plan": survey.TextAnswer("pro")}),
	}
	vars := Extract(records)

	m, err := BuildMatrix(vars, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, m.Columns)
	assert.Equal(t, []string{"a", "c"}, m.RecordIDs)
	assert.Equal(t, [][]float64{{1, 10}, {3, 30}}, m.Rows)

	m, err = BuildMatrix(vars, []string{"y"})
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())

	_, err = BuildMatrix(vars, []string{"missing"})
	assert.True(t, errors.Is(err, core.ErrUnknownVariable))

	_, err = BuildMatrix(vars, []string{"plan"})
	assert.True(t, errors.Is(err, core.ErrNotNumeric))
}
