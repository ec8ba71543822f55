// Package testkit generates seeded synthetic survey data for tests and demos.
package testkit

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/potencialpi/sentiment-cx/domain/survey"
)

// Question keys produced by the generator
const (
	QuestionNPS          = "nps"
	QuestionSatisfaction = "satisfaction"
	QuestionEffort       = "effort"
	QuestionPlan         = "plan"
	QuestionChannels     = "channels"
	QuestionComment      = "comment"
)

// SurveyGeneratorConfig configures the synthetic survey generator
type SurveyGeneratorConfig struct {
	RespondentCount int       `json:"respondent_count"`
	SkipRate        float64   `json:"skip_rate"`
	SentimentRate   float64   `json:"sentiment_rate"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	Seed            int64     `json:"seed"`
}

// DefaultSurveyConfig returns a mid-sized survey with a few skipped answers
func DefaultSurveyConfig() SurveyGeneratorConfig {
	return SurveyGeneratorConfig{
		RespondentCount: 200,
		SkipRate:        0.05,
		SentimentRate:   0.9,
		StartDate:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC),
		Seed:            42,
	}
}

// segment is a latent respondent profile; answers are drawn around its centre
type segment struct {
	plan         string
	nps          float64
	satisfaction float64
	effort       float64
	sentiment    float64
}

var segments = []segment{
	{plan: "enterprise", nps: 9, satisfaction: 4.6, effort: 2, sentiment: 0.7},
	{plan: "pro", nps: 7, satisfaction: 3.6, effort: 3.5, sentiment: 0.2},
	{plan: "basic", nps: 3, satisfaction: 2.0, effort: 5.5, sentiment: -0.5},
}

var channels = []string{"email", "chat", "phone", "in-app"}

var comments = map[string][]string{
	"enterprise": {"Great support team", "Reliable and fast", "Exactly what we needed"},
	"pro":        {"Good overall", "Pricing could be clearer", "Works fine most days"},
	"basic":      {"Too slow", "Hard to reach anyone", "Missing basic features"},
}

// SurveyGenerator produces ResponseRecords from latent segments so that the numeric
// answers correlate and differ by plan
type SurveyGenerator struct {
	config SurveyGeneratorConfig
	rng    *rand.Rand
}

// NewSurveyGenerator creates a generator; equal configs yield equal surveys
func NewSurveyGenerator(config SurveyGeneratorConfig) *SurveyGenerator {
	return &SurveyGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate returns RespondentCount records
func (g *SurveyGenerator) Generate() []survey.ResponseRecord {
	records := make([]survey.ResponseRecord, 0, g.config.RespondentCount)
	for i := 0; i < g.config.RespondentCount; i++ {
		records = append(records, g.respondent(i))
	}
	return records
}

func (g *SurveyGenerator) respondent(i int) survey.ResponseRecord {
	seg := segments[g.rng.Intn(len(segments))]
	responses := make(map[string]survey.Answer)

	g.maybe(responses, QuestionNPS, survey.NumberAnswer(g.scale(seg.nps, 1.2, 0, 10)))
	// satisfaction arrives as text, the way form tools export it
	g.maybe(responses, QuestionSatisfaction,
		survey.TextAnswer(fmt.Sprintf("%.0f", g.scale(seg.satisfaction, 0.6, 1, 5))))
	g.maybe(responses, QuestionEffort, survey.NumberAnswer(g.scale(seg.effort, 0.8, 1, 7)))
	g.maybe(responses, QuestionPlan, survey.TextAnswer(seg.plan))
	g.maybe(responses, QuestionChannels, survey.ChoicesAnswer(g.pickChannels()...))
	pool := comments[seg.plan]
	g.maybe(responses, QuestionComment, survey.TextAnswer(pool[g.rng.Intn(len(pool))]))

	rec := survey.ResponseRecord{
		ID:        fmt.Sprintf("resp_%04d", i+1),
		Responses: responses,
	}
	if g.rng.Float64() < g.config.SentimentRate {
		score := math.Max(-1, math.Min(1, seg.sentiment+g.rng.NormFloat64()*0.2))
		rec.SentimentScore = survey.WithSentiment(math.Round(score*1000) / 1000)
	}
	if !g.config.StartDate.IsZero() && g.config.EndDate.After(g.config.StartDate) {
		created := g.randomTimeInRange(g.config.StartDate, g.config.EndDate)
		rec.CreatedAt = &created
	}
	return rec
}

func (g *SurveyGenerator) maybe(responses map[string]survey.Answer, key string, answer survey.Answer) {
	if g.rng.Float64() < g.config.SkipRate {
		return
	}
	responses[key] = answer
}

// scale draws a rounded normal value around centre, clamped to [lo, hi]
func (g *SurveyGenerator) scale(centre, spread, lo, hi float64) float64 {
	v := math.Round(centre + g.rng.NormFloat64()*spread)
	return math.Max(lo, math.Min(hi, v))
}

func (g *SurveyGenerator) pickChannels() []string {
	var picked []string
	for _, c := range channels {
		if g.rng.Float64() < 0.4 {
			picked = append(picked, c)
		}
	}
	if len(picked) == 0 {
		picked = append(picked, channels[g.rng.Intn(len(channels))])
	}
	return picked
}

func (g *SurveyGenerator) randomTimeInRange(start, end time.Time) time.Time {
	span := end.Sub(start)
	return start.Add(time.Duration(g.rng.Int63n(int64(span)))).UTC()
}

// WriteJSON generates the survey and writes it to path as a JSON array
func (g *SurveyGenerator) WriteJSON(path string) error {
	data, err := json.MarshalIndent(g.Generate(), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal survey: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write survey: %w", err)
	}
	return nil
}

// Line builds one-dimensional points, handy for clustering fixtures
func Line(values ...float64) [][]float64 {
	out := make([][]float64, len(values))
	for i, v := range values {
		out[i] = []float64{v}
	}
	return out
}
