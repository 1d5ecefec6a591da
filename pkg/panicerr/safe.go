// Package panicerr turns panics into ordinary errors at goroutine and
// third-party call boundaries.
package panicerr

import (
	"context"

	"github.com/sourcegraph/conc/panics"
)

// Safe wraps fn so that a panic is returned as an error.
func Safe(fn func() error) func() error {
	return func() error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn()
		})
		if err != nil {
			return err
		}
		return catcher.Recovered().AsError()
	}
}

// SafeContext is Safe for functions taking a context.
func SafeContext(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		return Safe(func() error { return fn(ctx) })()
	}
}

// Call runs fn and returns its result, or the recovered panic as an error.
func Call[T any](fn func() (T, error)) (T, error) {
	var (
		catcher panics.Catcher
		out     T
		err     error
	)
	catcher.Try(func() {
		out, err = fn()
	})
	if rerr := catcher.Recovered().AsError(); rerr != nil {
		var zero T
		return zero, rerr
	}
	return out, err
}
