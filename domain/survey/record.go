package survey

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// AnswerKind tags which of the three answer shapes an Answer holds
type AnswerKind int

const (
	AnswerText AnswerKind = iota
	AnswerNumber
	AnswerChoices
)

func (k AnswerKind) String() string {
	switch k {
	case AnswerText:
		return "text"
	case AnswerNumber:
		return "number"
	case AnswerChoices:
		return "choices"
	default:
		return "unknown"
	}
}

// Answer is one respondent's answer to one question: a string, a number or a list of
// selected options. The zero value is an empty text answer.
type Answer struct {
	kind    AnswerKind
	text    string
	number  float64
	choices []string
}

func TextAnswer(s string) Answer    { return Answer{kind: AnswerText, text: s} }
func NumberAnswer(f float64) Answer { return Answer{kind: AnswerNumber, number: f} }
func ChoicesAnswer(c ...string) Answer {
	cp := make([]string, len(c))
	copy(cp, c)
	return Answer{kind: AnswerChoices, choices: cp}
}

func (a Answer) Kind() AnswerKind { return a.kind }
func (a Answer) Text() string     { return a.text }
func (a Answer) Number() float64  { return a.number }

// Choices returns a copy of the selected options
func (a Answer) Choices() []string {
	cp := make([]string, len(a.choices))
	copy(cp, a.choices)
	return cp
}

// String renders the answer the way a respondent would read it
func (a Answer) String() string {
	switch a.kind {
	case AnswerNumber:
		return strconv.FormatFloat(a.number, 'g', -1, 64)
	case AnswerChoices:
		return strings.Join(a.choices, ", ")
	default:
		return a.text
	}
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case AnswerNumber:
		return json.Marshal(a.number)
	case AnswerChoices:
		return json.Marshal(a.choices)
	default:
		return json.Marshal(a.text)
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*a = TextAnswer("")
	case string:
		*a = TextAnswer(v)
	case float64:
		*a = NumberAnswer(v)
	case bool:
		*a = TextAnswer(strconv.FormatBool(v))
	case []interface{}:
		choices := make([]string, 0, len(v))
		for _, item := range v {
			choices = append(choices, fmt.Sprint(item))
		}
		*a = ChoicesAnswer(choices...)
	default:
		return fmt.Errorf("unsupported answer value %s", string(data))
	}
	return nil
}

// ResponseRecord is one survey submission as delivered by the data-fetch layer.
// The engine only reads it.
type ResponseRecord struct {
	ID             string            `json:"id,omitempty"`
	Responses      map[string]Answer `json:"responses"`
	SentimentScore *float64          `json:"sentimentScore,omitempty"`
	CreatedAt      *time.Time        `json:"createdAt,omitempty"`
}

// WithSentiment returns a pointer suitable for ResponseRecord.SentimentScore
func WithSentiment(score float64) *float64 {
	return &score
}
