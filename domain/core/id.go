package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// v7 reads the clock and crypto/rand; fall back to v4 if either fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	AnalysisID ID
	SurveyID   ID
)

func (id AnalysisID) String() string { return ID(id).String() }
func (id SurveyID) String() string   { return ID(id).String() }

// NewAnalysisID creates a fresh identifier for one analysis invocation
func NewAnalysisID() AnalysisID {
	return AnalysisID(NewID())
}

// ParseSurveyID parses a string into SurveyID
func ParseSurveyID(s string) (SurveyID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("survey ID cannot be empty")
	}
	return SurveyID(s), nil
}

// PositionalRecordID is the stable identifier assigned to a record that arrives without one.
func PositionalRecordID(index int) string {
	return fmt.Sprintf("#%d", index)
}
