// Package pool provides the record-set container used by the transform.
//
// A Pool is the ordered, read-only input or output set. A Builder collects
// output from concurrent workers and builds a path-ordered Pool. A Holder is
// the staging buffer between the two passes: entries go in during pass 1
// and come out exactly once through Drain.
package pool
