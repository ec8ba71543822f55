// Package jsonfile reads survey responses from JSON exports.
package jsonfile

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/potencialpi/sentiment-cx/domain/survey"
	"github.com/potencialpi/sentiment-cx/internal/errors"
	"github.com/potencialpi/sentiment-cx/ports"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Fields names the JSON members of one record
type Fields struct {
	ID        string `json:"id"`
	Responses string `json:"responses"`
	Sentiment string `json:"sentiment"`
	CreatedAt string `json:"created_at"`
}

// DefaultFields matches the ResponseRecord JSON encoding
func DefaultFields() Fields {
	return Fields{
		ID:        "id",
		Responses: "responses",
		Sentiment: "sentimentScore",
		CreatedAt: "createdAt",
	}
}

// Reader loads records from a JSON file. The file holds an array of records, either at
// the root or at DataPath. A record without a responses object is read flat: every
// member other than the mapped fields is a question.
type Reader struct {
	path     string
	dataPath string
	fields   Fields
	logger   *zap.Logger
}

var _ ports.RecordSource = (*Reader)(nil)

// NewReader creates a reader. dataPath is a gjson path such as "data.responses";
// empty means the document root.
func NewReader(path, dataPath string, fields Fields, logger *zap.Logger) *Reader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{path: path, dataPath: dataPath, fields: fields, logger: logger}
}

func (r *Reader) Name() string {
	return r.path
}

// Records reads and parses the whole file
func (r *Reader) Records(ctx context.Context) ([]survey.ResponseRecord, error) {
	body, err := os.ReadFile(r.path)
	if err != nil {
		return nil, errors.SourceError(err, r.path)
	}
	records, err := Parse(body, r.dataPath, r.fields)
	if err != nil {
		return nil, errors.SourceError(err, r.path)
	}
	r.logger.Info("records loaded", zap.String("source", r.path), zap.Int("records", len(records)))
	return records, nil
}

// Parse converts a JSON document into records
func Parse(body []byte, dataPath string, fields Fields) ([]survey.ResponseRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("invalid JSON")
	}

	data := gjson.ParseBytes(body)
	if dataPath != "" {
		data = data.Get(dataPath)
		if !data.Exists() {
			return nil, fmt.Errorf("data path '%s' not found", dataPath)
		}
	}

	var items []gjson.Result
	switch {
	case data.IsArray():
		items = data.Array()
	case data.IsObject():
		items = []gjson.Result{data}
	default:
		return nil, fmt.Errorf("expected an array or object of records")
	}

	records := make([]survey.ResponseRecord, 0, len(items))
	for i, item := range items {
		if !item.IsObject() {
			return nil, fmt.Errorf("record %d is not an object", i)
		}
		rec, err := parseRecord(item, fields)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRecord(item gjson.Result, fields Fields) (survey.ResponseRecord, error) {
	rec := survey.ResponseRecord{}

	if id := item.Get(gjson.Escape(fields.ID)); id.Exists() && id.Type != gjson.Null {
		rec.ID = id.String()
	}

	if s := item.Get(gjson.Escape(fields.Sentiment)); s.Exists() && s.Type != gjson.Null {
		if s.Type != gjson.Number {
			return rec, fmt.Errorf("sentiment %s is not a number", s.Raw)
		}
		rec.SentimentScore = survey.WithSentiment(s.Float())
	}

	if c := item.Get(gjson.Escape(fields.CreatedAt)); c.Exists() && c.Type != gjson.Null {
		created, err := time.Parse(time.RFC3339, c.String())
		if err != nil {
			return rec, fmt.Errorf("createdAt: %w", err)
		}
		created = created.UTC()
		rec.CreatedAt = &created
	}

	responses := item.Get(gjson.Escape(fields.Responses))
	if responses.IsObject() {
		rec.Responses = ParseResponses(responses)
		return rec, nil
	}

	// flat record
	skip := map[string]bool{fields.ID: true, fields.Sentiment: true, fields.CreatedAt: true, fields.Responses: true}
	rec.Responses = make(map[string]survey.Answer)
	item.ForEach(func(key, value gjson.Result) bool {
		if !skip[key.String()] {
			if answer, ok := ToAnswer(value); ok {
				rec.Responses[key.String()] = answer
			}
		}
		return true
	})
	return rec, nil
}

// ParseResponses converts a JSON object of question/answer pairs. Null answers are
// left out.
func ParseResponses(obj gjson.Result) map[string]survey.Answer {
	out := make(map[string]survey.Answer)
	obj.ForEach(func(key, value gjson.Result) bool {
		if answer, ok := ToAnswer(value); ok {
			out[key.String()] = answer
		}
		return true
	})
	return out
}

// ToAnswer maps one JSON value onto an Answer: strings and booleans become text,
// numbers stay numbers, arrays become choices. Nested objects are kept as raw text.
func ToAnswer(value gjson.Result) (survey.Answer, bool) {
	switch value.Type {
	case gjson.Null:
		return survey.Answer{}, false
	case gjson.Number:
		return survey.NumberAnswer(value.Float()), true
	case gjson.True, gjson.False:
		return survey.TextAnswer(value.String()), true
	case gjson.String:
		return survey.TextAnswer(value.String()), true
	}

	if value.IsArray() {
		var choices []string
		for _, v := range value.Array() {
			if v.Type == gjson.Null {
				continue
			}
			if s := strings.TrimSpace(v.String()); s != "" {
				choices = append(choices, s)
			}
		}
		return survey.ChoicesAnswer(choices...), true
	}
	return survey.TextAnswer(value.Raw), true
}
