package ports

import (
	"context"

	"github.com/potencialpi/sentiment-cx/domain/survey"
)

// RecordSource loads the response records of one survey. Implementations live in
// adapters/ and do all I/O; the analysis engine only sees the returned records.
type RecordSource interface {
	// Name identifies the source in logs and error messages
	Name() string

	// Records returns every response in source order
	Records(ctx context.Context) ([]survey.ResponseRecord, error)
}
