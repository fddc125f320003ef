package transform

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/pregen/internal/group"
	"github.com/roach88/pregen/internal/pool"
)

// TransformError is a failure that aborts the whole transform. No output
// pool is produced when one is returned.
type TransformError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Path is the pool entry being processed, if any.
	Path string

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes transform errors.
type ErrorCode string

const (
	// ErrCodeGroupConflict: a record addressed as group host declares a
	// host of its own.
	ErrCodeGroupConflict ErrorCode = "GROUP_CONFLICT"

	// ErrCodeStagingMisuse: the staging buffer or the pending table was
	// used out of order. This is a driver defect, not bad input.
	ErrCodeStagingMisuse ErrorCode = "STAGING_MISUSE"

	// ErrCodeMalformedRecord: an input record could not be parsed or
	// re-encoded.
	ErrCodeMalformedRecord ErrorCode = "MALFORMED_RECORD"

	// ErrCodeEmitFailed: an entry could not be added to the output.
	ErrCodeEmitFailed ErrorCode = "EMIT_FAILED"

	// ErrCodeCanceled: the context ended before the transform finished.
	ErrCodeCanceled ErrorCode = "CANCELED"
)

// Error implements the error interface.
func (e *TransformError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// IsConflict returns true if the transform failed on a group conflict.
// Uses errors.As to handle wrapped errors.
func IsConflict(err error) bool {
	var te *TransformError
	if errors.As(err, &te) {
		return te.Code == ErrCodeGroupConflict
	}
	return group.IsConflict(err)
}

// IsStagingMisuse returns true if the error signals a driver defect in
// the use of the staging buffer or the pending table.
func IsStagingMisuse(err error) bool {
	var te *TransformError
	if errors.As(err, &te) && te.Code == ErrCodeStagingMisuse {
		return true
	}
	return errors.Is(err, pool.ErrAlreadyDrained) ||
		errors.Is(err, group.ErrFrozen) ||
		errors.Is(err, group.ErrAlreadyFrozen)
}

// IsCanceled returns true if the transform stopped because its context
// ended.
func IsCanceled(err error) bool {
	var te *TransformError
	if errors.As(err, &te) && te.Code == ErrCodeCanceled {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// NewConflictError wraps a group conflict found while processing path.
func NewConflictError(path string, err error) *TransformError {
	return &TransformError{
		Code:    ErrCodeGroupConflict,
		Message: "conflicting group declarations",
		Path:    path,
		Err:     err,
	}
}

// NewStagingError wraps a staging contract violation.
func NewStagingError(err error) *TransformError {
	return &TransformError{
		Code:    ErrCodeStagingMisuse,
		Message: "staging contract violated",
		Err:     err,
	}
}

// NewMalformedRecordError wraps a codec failure on an input record.
func NewMalformedRecordError(path string, err error) *TransformError {
	return &TransformError{
		Code:    ErrCodeMalformedRecord,
		Message: "record cannot be processed",
		Path:    path,
		Err:     err,
	}
}

// NewEmitError wraps a failure to add an entry to the output.
func NewEmitError(path string, err error) *TransformError {
	return &TransformError{
		Code:    ErrCodeEmitFailed,
		Message: "entry cannot be emitted",
		Path:    path,
		Err:     err,
	}
}

// NewCanceledError wraps a context error.
func NewCanceledError(err error) *TransformError {
	return &TransformError{
		Code:    ErrCodeCanceled,
		Message: "transform canceled",
		Err:     err,
	}
}
