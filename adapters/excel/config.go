package excel

// Config maps sheet columns onto ResponseRecord fields. Every column not named here
// becomes a question.
type Config struct {
	// IDColumn holds respondent IDs; empty means detect one
	IDColumn string `json:"id_column"`
	// SentimentColumn holds precomputed sentiment scores
	SentimentColumn string `json:"sentiment_column"`
	// CreatedAtColumn holds response timestamps (RFC 3339 or YYYY-MM-DD)
	CreatedAtColumn string `json:"created_at_column"`
	// ChoiceColumns are multi-select questions whose cells list options split by ChoiceSeparator
	ChoiceColumns   []string `json:"choice_columns"`
	ChoiceSeparator string   `json:"choice_separator"`
	// Sheet is the worksheet to read; empty means the first one
	Sheet string `json:"sheet"`
}

// DefaultConfig returns sensible defaults for survey exports
func DefaultConfig() Config {
	return Config{
		SentimentColumn: "sentiment_score",
		CreatedAtColumn: "created_at",
		ChoiceSeparator: ";",
	}
}
