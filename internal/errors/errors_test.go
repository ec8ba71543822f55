package errors

import (
	stderrors "errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_KeepsCode(t *testing.T) {
	base := ConfigInvalid("k_min must be positive")
	err := Wrap(base, "load config")

	assert.Equal(t, CodeConfigInvalid, GetCode(err))
	assert.Equal(t, "load config: k_min must be positive", err.Error())
	assert.True(t, stderrors.Is(err, base))
}

func TestWrap_PlainErrorIsInternal(t *testing.T) {
	err := Wrapf(io.EOF, "reading %s", "survey.json")
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.ErrorIs(t, err, io.EOF)
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestSourceAndDatabaseErrors(t *testing.T) {
	err := SourceError(io.ErrUnexpectedEOF, "survey.xlsx")
	assert.True(t, HasCode(err, CodeSourceError))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "survey.xlsx")

	err = DatabaseError(io.EOF, "select responses")
	assert.True(t, HasCode(err, CodeDatabaseError))
	assert.False(t, HasCode(nil, CodeDatabaseError))
}

func TestNotFound(t *testing.T) {
	err := NotFound("survey 42")
	assert.Equal(t, CodeNotFound, err.Code)
	assert.Equal(t, "survey 42 not found", err.Error())
}
