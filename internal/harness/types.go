package harness

import (
	"github.com/roach88/pregen/internal/pool"
	"github.com/roach88/pregen/internal/transform"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expectations match.
	Pass bool

	Input  *pool.Pool
	Output *pool.Pool
	Report *transform.Report

	// Err is the transform error, if the transform failed.
	Err error

	// Errors contains expectation failures.
	// Empty if Pass is true.
	Errors []string
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
