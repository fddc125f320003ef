// Package generate turns recognized factory call sites into records.
//
// Each call site becomes one record named <owner>$$Lambda$<n>, where n is
// the site's discovery index in its record. The record is emitted to the
// output sink as soon as it is built and joins the owner's group. Problems
// with an individual call site are reported as *CallSiteError and never
// abort the transform.
package generate
