package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaxonomyClassification(t *testing.T) {
	assert.True(t, ErrMalformedBody.IsFatal())
	assert.True(t, ErrMissingField.IsFatal())
	assert.True(t, ErrConfig.IsFatal())
	assert.True(t, ErrSinkWrite.IsRetryable())
	assert.False(t, ErrSinkWrite.IsFatal())
}

func TestWrapPreservesClassificationAndCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(cause, ErrSinkWrite)

	assert.True(t, err.IsRetryable())
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "SINK_WRITE")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWrapNilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrSinkWrite))
}

func TestWithDetailDoesNotMutateSentinel(t *testing.T) {
	err := ErrMissingField.WithDetail("field", "eventType")

	assert.Equal(t, "eventType", err.Details["field"])
	assert.Empty(t, ErrMissingField.Details)
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(ErrMalformedBody.WithCause(fmt.Errorf("bad json"))))
	assert.True(t, IsValidation(ErrMissingField))
	assert.False(t, IsValidation(ErrSinkWrite))
	assert.False(t, IsValidation(errors.New("plain")))
	assert.False(t, IsValidation(nil))
}

func TestValidationKind(t *testing.T) {
	assert.Equal(t, "MALFORMED_BODY", ValidationKind(ErrMalformedBody))
	assert.Equal(t, "MISSING_FIELD", ValidationKind(ErrMissingField.WithDetail("field", "eventVersion")))
	assert.Equal(t, "", ValidationKind(ErrSinkWrite))
	assert.Equal(t, "", ValidationKind(errors.New("plain")))
}

func TestIsSinkWrite(t *testing.T) {
	assert.True(t, IsSinkWrite(Wrap(fmt.Errorf("disk full"), ErrSinkWrite)))
	assert.False(t, IsSinkWrite(ErrInternal))
}

func TestRetryabilityInheritedFromCause(t *testing.T) {
	// INTERNAL_ERROR carries no explicit classification and defers to
	// its cause.
	fatal := ErrInternal.WithCause(ErrMissingField)
	assert.True(t, fatal.IsFatal())

	transient := ErrInternal.WithCause(ErrSinkWrite)
	assert.True(t, transient.IsRetryable())

	unclassified := ErrInternal.WithCause(errors.New("unknown"))
	assert.True(t, unclassified.IsRetryable(), "unclassified errors default to retryable")
}
