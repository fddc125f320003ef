package group

import (
	"slices"

	"github.com/roach88/pregen/internal/ir"
)

// HostOf returns the record's group host: the declared GroupHost, or the
// record itself when it declares none.
func HostOf(r *ir.Record) ir.TypeDesc {
	if gh, ok := r.GroupHost(); ok {
		return gh.Host
	}
	return r.Name
}

// IsSelfHosted reports whether r hosts its own group.
func IsSelfHosted(r *ir.Record) bool {
	_, ok := r.GroupHost()
	return !ok
}

// Merge appends additions to existing, keeping existing order and the
// order of first appearance in additions. Names already present are
// skipped. The inputs are not modified.
func Merge(existing, additions []ir.TypeDesc) []ir.TypeDesc {
	out := slices.Clone(existing)
	seen := make(map[ir.TypeDesc]bool, len(existing)+len(additions))
	for _, m := range existing {
		seen[m] = true
	}
	for _, m := range additions {
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// ExtendMembers returns a copy of r whose GroupMembers attribute lists the
// existing members followed by members. The attribute is created when
// absent. r is not modified.
func ExtendMembers(r *ir.Record, members []ir.TypeDesc) *ir.Record {
	var existing []ir.TypeDesc
	if gm, ok := r.GroupMembers(); ok {
		existing = gm.Members
	}
	return r.WithAttribute(ir.GroupMembers{Members: Merge(existing, members)})
}

// Reconcile applies staged additions to a record addressed as a host in
// the second pass. A record that declares a host of its own cannot be one
// and yields a *ConflictError.
func Reconcile(r *ir.Record, members []ir.TypeDesc) (*ir.Record, error) {
	if gh, ok := r.GroupHost(); ok {
		var existing []ir.TypeDesc
		if gm, ok := r.GroupMembers(); ok {
			existing = slices.Clone(gm.Members)
		}
		return nil, &ConflictError{
			Record:       r.Name,
			DeclaredHost: gh.Host,
			Existing:     existing,
			New:          slices.Clone(members),
		}
	}
	return ExtendMembers(r, members), nil
}
