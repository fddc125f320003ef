package group

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/pregen/internal/ir"
)

var (
	// ErrFrozen is returned by Stage after Freeze.
	ErrFrozen = errors.New("group: pending additions already frozen")
	// ErrAlreadyFrozen is returned by a second Freeze.
	ErrAlreadyFrozen = errors.New("group: freeze called twice")
)

// ConflictError reports a record that was addressed as a group host while
// declaring membership of another host.
type ConflictError struct {
	// Record is the record addressed as host.
	Record ir.TypeDesc
	// DeclaredHost is the host the record itself declares.
	DeclaredHost ir.TypeDesc
	// Existing is the record's current member list, if any.
	Existing []ir.TypeDesc
	// New are the members staged for it.
	New []ir.TypeDesc
}

func (e *ConflictError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "group attribute conflict: %s\n", e.Record)
	b.WriteString("-- host --\n")
	b.WriteString(string(e.DeclaredHost))
	b.WriteString("\n-- existing members --\n")
	b.WriteString(formatNames(e.Existing))
	fmt.Fprintf(&b, "\n-- new members (%d) --\n", len(e.New))
	b.WriteString(formatNames(e.New))
	b.WriteString("\n-- end --")
	return b.String()
}

func formatNames(names []ir.TypeDesc) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// IsConflict reports whether err is or wraps a *ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
