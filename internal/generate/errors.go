package generate

import (
	"errors"
	"fmt"

	"github.com/roach88/pregen/internal/scan"
)

// ErrUnsupportedVariant marks call sites bound to the variadic factory
// form, which is recognized but not yet supported.
var ErrUnsupportedVariant = errors.New("altMetafactory call sites are not yet supported")

// CallSiteErrorCode classifies per-call-site failures.
type CallSiteErrorCode string

const (
	// CodeMalformed: wrong bootstrap argument count or kinds.
	CodeMalformed CallSiteErrorCode = "malformed"
	// CodeSynthesis: the synthesis routine rejected the request.
	CodeSynthesis CallSiteErrorCode = "synthesis"
	// CodeUnsupported: the call site uses a variant that is not handled.
	CodeUnsupported CallSiteErrorCode = "unsupported"
)

// CallSiteError is a recoverable failure for one call site. The site is
// left as it was and the transform continues.
type CallSiteError struct {
	Code    CallSiteErrorCode
	Site    scan.CallSite
	Message string
	Err     error
}

func (e *CallSiteError) Error() string {
	msg := fmt.Sprintf("%s %s.%s@%d: %s", e.Code, e.Site.Record, e.Site.Method.Signature(), e.Site.Location.Position, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CallSiteError) Unwrap() error {
	return e.Err
}

func malformed(site scan.CallSite, format string, args ...any) *CallSiteError {
	return &CallSiteError{Code: CodeMalformed, Site: site, Message: fmt.Sprintf(format, args...)}
}

// IsCallSiteError reports whether err is or wraps a *CallSiteError.
func IsCallSiteError(err error) bool {
	var ce *CallSiteError
	return errors.As(err, &ce)
}
