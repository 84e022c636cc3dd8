package services

import (
	"context"
	"errors"
)

// compensations undo already-applied writes, newest first, when a multi-step
// write fails without a session transaction.
type compensations []func(ctx context.Context) error

func (c *compensations) add(fn func(ctx context.Context) error) {
	*c = append(*c, fn)
}

func (c compensations) run(ctx context.Context) error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
