package errors

import (
	"errors"
	"fmt"
)

// Pipeline error taxonomy. Validation errors are dropped locally and never
// escalate; sink errors are retryable by default; config errors abort
// startup.
var (
	ErrMalformedBody = NewError("MALFORMED_BODY", "message body does not parse").AsFatal()
	ErrMissingField  = NewError("MISSING_FIELD", "required field missing or not a string").AsFatal()
	ErrSinkWrite     = NewError("SINK_WRITE", "sink write failed").AsRetryable()
	ErrConfig        = NewError("CONFIG_ERROR", "invalid configuration").AsFatal()
	ErrInternal      = NewError("INTERNAL_ERROR", "internal error")
)

type RetryableError interface {
	error
	IsRetryable() bool
}

type FatalError interface {
	error
	IsFatal() bool
}

type Error struct {
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	retryable *bool
}

func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) IsRetryable() bool {
	if e.retryable != nil {
		return *e.retryable
	}
	if e.Cause != nil {
		var retryableErr RetryableError
		if errors.As(e.Cause, &retryableErr) {
			return retryableErr.IsRetryable()
		}
		var fatalErr FatalError
		if errors.As(e.Cause, &fatalErr) {
			return !fatalErr.IsFatal()
		}
	}
	return true
}

func (e *Error) IsFatal() bool {
	return !e.IsRetryable()
}

func (e *Error) WithCause(cause error) *Error {
	err := *e
	err.Cause = cause
	return &err
}

func (e *Error) WithDetail(key string, value interface{}) *Error {
	err := *e
	if err.Details == nil {
		err.Details = make(map[string]interface{})
	}
	err.Details[key] = value
	return &err
}

func (e *Error) AsRetryable() *Error {
	err := *e
	retryable := true
	err.retryable = &retryable
	return &err
}

func (e *Error) AsFatal() *Error {
	err := *e
	retryable := false
	err.retryable = &retryable
	return &err
}

func Wrap(err error, appErr *Error) *Error {
	if err == nil {
		return nil
	}
	return appErr.WithCause(err)
}

// IsValidation reports whether err is a message-validation failure
// (malformed body or missing required field).
func IsValidation(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == ErrMalformedBody.Code || appErr.Code == ErrMissingField.Code
	}
	return false
}

func IsSinkWrite(err error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == ErrSinkWrite.Code
	}
	return false
}

// ValidationKind returns the taxonomy code for a validation error, or ""
// when err is not one.
func ValidationKind(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case ErrMalformedBody.Code, ErrMissingField.Code:
			return appErr.Code
		}
	}
	return ""
}
