package synth

import (
	"errors"
	"fmt"
)

// Reason classifies a synthesis failure.
type Reason string

const (
	// ReasonInvalidRequest: a required request field is missing or has the
	// wrong shape.
	ReasonInvalidRequest Reason = "invalid request"
	// ReasonUnsupportedHandle: the implementation handle is a field
	// accessor or an unknown kind.
	ReasonUnsupportedHandle Reason = "unsupported handle kind"
	// ReasonMalformedHandle: the implementation handle lacks an owner or
	// a name.
	ReasonMalformedHandle Reason = "malformed handle"
	// ReasonArityMismatch: captured plus dynamic parameters do not line up
	// with the implementation's parameters.
	ReasonArityMismatch Reason = "arity mismatch"
)

// SynthesisError reports a request the routine cannot turn into a record.
type SynthesisError struct {
	Reason Reason
	Detail string
}

func (e *SynthesisError) Error() string {
	if e.Detail == "" {
		return "synth: " + string(e.Reason)
	}
	return fmt.Sprintf("synth: %s: %s", e.Reason, e.Detail)
}

func newError(reason Reason, format string, args ...any) *SynthesisError {
	return &SynthesisError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// IsSynthesisError reports whether err is or wraps a *SynthesisError.
func IsSynthesisError(err error) bool {
	var se *SynthesisError
	return errors.As(err, &se)
}
