// Package transform is the two-pass driver that pregenerates factory call
// sites across a record set.
//
// Pass 1 runs in parallel, one task per input entry. Each record is
// scanned, a record is generated per recognized call site and emitted
// straight to the output, and the call sites are rewritten to direct
// calls. A record that hosts its own group gets the new members at once;
// any other record stages them under its host in a group.Pending table.
// Every pass-1 result goes to a staging pool.Holder.
//
// After all pass-1 tasks finish the table is frozen. Pass 2 drains the
// holder into the output, reconciling the member list of each record
// that has staged additions. A group conflict aborts the run: Transform
// returns no pool.
package transform
