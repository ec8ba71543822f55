// Package variables turns raw survey responses into typed per-question variables.
package variables

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/potencialpi/sentiment-cx/domain/core"
	"github.com/potencialpi/sentiment-cx/domain/survey"

	"go.uber.org/zap"
)

// Config controls how answer keys are classified
type Config struct {
	// NumericThreshold is the share of present answers that must parse as numbers
	// for the key to be numeric. 1.0 means every answer must parse.
	NumericThreshold float64 `json:"numeric_threshold" validate:"gt=0,lte=1"`
	// IncludeSentiment adds the synthetic sentiment_score variable when records carry scores.
	IncludeSentiment bool `json:"include_sentiment"`
}

// DefaultConfig classifies a key as numeric only when all of its answers parse
func DefaultConfig() Config {
	return Config{
		NumericThreshold: 1.0,
		IncludeSentiment: true,
	}
}

// Extractor builds Variables from ResponseRecords. It keeps no state between calls.
type Extractor struct {
	config Config
	logger *zap.Logger
}

// NewExtractor creates an extractor; a nil logger disables logging
func NewExtractor(config Config, logger *zap.Logger) *Extractor {
	if config.NumericThreshold <= 0 || config.NumericThreshold > 1 {
		config.NumericThreshold = 1.0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{config: config, logger: logger}
}

// Extract is a convenience wrapper using DefaultConfig
func Extract(records []survey.ResponseRecord) []survey.Variable {
	return NewExtractor(DefaultConfig(), nil).Extract(records)
}

type observation struct {
	recordID string
	answer   survey.Answer
}

// Extract collects every answer key across records and classifies it. Variables are
// returned sorted by name, with sentiment_score last when present.
func (e *Extractor) Extract(records []survey.ResponseRecord) []survey.Variable {
	ids := RecordIDs(records)

	collected := make(map[string][]observation)
	for i, rec := range records {
		for key, answer := range rec.Responses {
			if !isPresent(answer) {
				continue
			}
			collected[key] = append(collected[key], observation{recordID: ids[i], answer: answer})
		}
	}

	// Map iteration above scrambles order within a record; restore record order per key.
	position := make(map[string]int, len(ids))
	for i, id := range ids {
		position[id] = i
	}

	withSentiment := e.config.IncludeSentiment && hasSentiment(records)

	keys := make([]string, 0, len(collected))
	for key := range collected {
		if withSentiment && key == survey.SentimentVariable {
			e.logger.Warn("response key shadows synthetic sentiment variable, skipping it",
				zap.String("key", key))
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	vars := make([]survey.Variable, 0, len(keys)+1)
	for _, key := range keys {
		obs := collected[key]
		sort.SliceStable(obs, func(a, b int) bool {
			return position[obs[a].recordID] < position[obs[b].recordID]
		})
		vars = append(vars, e.classify(key, obs))
	}

	if withSentiment {
		vars = append(vars, sentimentVariable(records, ids))
	}

	e.logger.Debug("variables extracted",
		zap.Int("records", len(records)),
		zap.Int("variables", len(vars)))

	return vars
}

// classify decides the kind of a key from its finite numeric answers. Non-finite
// numbers are left out of the ratio, and a key needs at least one finite value to be numeric.
func (e *Extractor) classify(key string, obs []observation) survey.Variable {
	finite, nonFinite := 0, 0
	for _, o := range obs {
		f, ok := parseNumber(o.answer)
		switch {
		case !ok:
		case math.IsNaN(f) || math.IsInf(f, 0):
			nonFinite++
		default:
			finite++
		}
	}

	if finite == 0 {
		return categoricalVariable(key, obs)
	}
	ratio := float64(finite) / float64(len(obs)-nonFinite)
	if ratio >= e.config.NumericThreshold {
		return numericVariable(key, obs)
	}
	return categoricalVariable(key, obs)
}

func numericVariable(key string, obs []observation) survey.Variable {
	v := survey.Variable{
		Name:      key,
		Kind:      survey.KindNumeric,
		Values:    make([]float64, 0, len(obs)),
		RecordIDs: make([]string, 0, len(obs)),
	}
	for _, o := range obs {
		f, ok := parseNumber(o.answer)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			// dropped rather than zero-filled so it cannot bias the statistics
			v.Dropped++
			continue
		}
		v.Values = append(v.Values, f)
		v.RecordIDs = append(v.RecordIDs, o.recordID)
	}
	return v
}

func categoricalVariable(key string, obs []observation) survey.Variable {
	v := survey.Variable{
		Name:       key,
		Kind:       survey.KindCategorical,
		Categories: make([]string, 0, len(obs)),
		RecordIDs:  make([]string, 0, len(obs)),
		Counts:     make(map[string]int),
	}
	for _, o := range obs {
		label := strings.TrimSpace(o.answer.String())
		if _, seen := v.Counts[label]; !seen {
			v.CategoryOrder = append(v.CategoryOrder, label)
		}
		v.Counts[label]++
		v.Categories = append(v.Categories, label)
		v.RecordIDs = append(v.RecordIDs, o.recordID)
	}
	return v
}

func hasSentiment(records []survey.ResponseRecord) bool {
	for _, rec := range records {
		if rec.SentimentScore != nil {
			return true
		}
	}
	return false
}

func sentimentVariable(records []survey.ResponseRecord, ids []string) survey.Variable {
	v := survey.Variable{Name: survey.SentimentVariable, Kind: survey.KindNumeric}
	for i, rec := range records {
		if rec.SentimentScore == nil {
			continue
		}
		score := *rec.SentimentScore
		if math.IsNaN(score) || math.IsInf(score, 0) {
			v.Dropped++
			continue
		}
		v.Values = append(v.Values, score)
		v.RecordIDs = append(v.RecordIDs, ids[i])
	}
	return v
}

// RecordIDs returns the stable identifier of every record: its own ID, or a positional
// one when absent. Duplicate IDs are disambiguated with their position so joins stay 1:1.
func RecordIDs(records []survey.ResponseRecord) []string {
	ids := make([]string, len(records))
	seen := make(map[string]bool, len(records))
	for i, rec := range records {
		id := strings.TrimSpace(rec.ID)
		if id == "" {
			id = core.PositionalRecordID(i)
		}
		if seen[id] {
			id = fmt.Sprintf("%s%s", id, core.PositionalRecordID(i))
		}
		seen[id] = true
		ids[i] = id
	}
	return ids
}

// isPresent reports whether the respondent actually answered
func isPresent(a survey.Answer) bool {
	switch a.Kind() {
	case survey.AnswerNumber:
		return true
	case survey.AnswerChoices:
		return len(a.Choices()) > 0
	default:
		return strings.TrimSpace(a.Text()) != ""
	}
}

// parseNumber attempts a decimal parse. Non-finite results are returned as parsed;
// callers decide what to do with them.
func parseNumber(a survey.Answer) (float64, bool) {
	switch a.Kind() {
	case survey.AnswerNumber:
		return a.Number(), true
	case survey.AnswerText:
		f, err := strconv.ParseFloat(strings.TrimSpace(a.Text()), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
