package survey

// VariableKind distinguishes numeric from categorical variables
type VariableKind string

const (
	KindNumeric     VariableKind = "numeric"
	KindCategorical VariableKind = "categorical"
)

// SentimentVariable is the name of the synthetic variable built from ResponseRecord.SentimentScore
const SentimentVariable = "sentiment_score"

// Variable is one answer key's values across all records, coerced to a single kind.
// RecordIDs is index-aligned with Values (numeric) or Categories (categorical) so that
// downstream analyses can join two variables by respondent instead of by position.
type Variable struct {
	Name          string         `json:"name"`
	Kind          VariableKind   `json:"kind"`
	Values        []float64      `json:"values,omitempty"`
	Categories    []string       `json:"categories,omitempty"`
	RecordIDs     []string       `json:"record_ids"`
	Counts        map[string]int `json:"counts,omitempty"`
	CategoryOrder []string       `json:"category_order,omitempty"`
	Dropped       int            `json:"dropped"`
}

// Len returns the number of observations
func (v Variable) Len() int {
	return len(v.RecordIDs)
}

func (v Variable) IsNumeric() bool     { return v.Kind == KindNumeric }
func (v Variable) IsCategorical() bool { return v.Kind == KindCategorical }

// NumericByRecord indexes a numeric variable by record ID
func (v Variable) NumericByRecord() map[string]float64 {
	out := make(map[string]float64, len(v.Values))
	for i, id := range v.RecordIDs {
		out[id] = v.Values[i]
	}
	return out
}

// CategoryByRecord indexes a categorical variable by record ID
func (v Variable) CategoryByRecord() map[string]string {
	out := make(map[string]string, len(v.Categories))
	for i, id := range v.RecordIDs {
		out[id] = v.Categories[i]
	}
	return out
}

// Info is the slim, report-friendly description of a variable
func (v Variable) Info() VariableInfo {
	return VariableInfo{
		Name:        v.Name,
		Kind:        v.Kind,
		Count:       v.Len(),
		Dropped:     v.Dropped,
		Cardinality: len(v.CategoryOrder),
	}
}

// VariableInfo summarizes a variable without its values
type VariableInfo struct {
	Name        string       `json:"name"`
	Kind        VariableKind `json:"kind"`
	Count       int          `json:"count"`
	Dropped     int          `json:"dropped"`
	Cardinality int          `json:"cardinality,omitempty"`
}
