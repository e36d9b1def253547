// Package merr provides a thin, project-wide convention for collecting
// multiple independent failures into one reportable error, built on
// top of github.com/hashicorp/go-multierror.
//
// It is used by the invariant checker, which may find more than one
// broken invariant in a single pass.
package merr

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Collector accumulates errors and reports whether any were collected.
type Collector struct {
	err *multierror.Error
}

// Add appends err to the collector if it is non-nil. It is safe to call
// with a nil error, which is a no-op.
func (c *Collector) Add(err error) {
	if err == nil {
		return
	}
	c.err = multierror.Append(c.err, err)
}

// Addf appends a formatted error, mirroring multierror.Append's usual
// call site shape for readability at the caller.
func (c *Collector) Addf(format string, args ...interface{}) {
	c.Add(fmt.Errorf(format, args...))
}

// Err returns the accumulated error, or nil if nothing was collected.
func (c *Collector) Err() error {
	return c.err.ErrorOrNil()
}

// Len returns the number of errors collected so far.
func (c *Collector) Len() int {
	if c.err == nil {
		return 0
	}
	return len(c.err.Errors)
}
