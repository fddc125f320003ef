// Package group keeps group membership consistent as records are added.
//
// A group is rooted at one host record. A record either declares its host
// with a GroupHost attribute or is its own host; a host lists the complete
// member set in GroupMembers. Generated records join the group of the
// record whose call site produced them.
//
// The first pass extends self-hosted records directly and stages the rest
// in a Pending table keyed by host. Freeze is the barrier between passes.
// The second pass takes each host's additions from the Frozen view and
// applies them with Reconcile, which fails with a *ConflictError when the
// addressed record declares a different host.
package group
