// Package ir provides the typed record model for pregen.
//
// This package contains the record view (Record, Method, Field), symbolic
// descriptors (TypeDesc, MethodType, MethodHandle), the closed instruction
// set with its Visitor, attributes, and canonical JSON for fingerprints.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Records are immutable once parsed; transformations return copies
//   - Instruction and Constant variant sets are closed
//   - A record carries at most one attribute per name
//   - Canonical JSON (RFC 8785) is the only serialization used for hashing
package ir
