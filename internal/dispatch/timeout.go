package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Timeout bounds every send by a deadline. The wrapped sender runs on its
// own goroutine so the caller is released even if it ignores ctx.
type Timeout struct {
	next Sender
	d    time.Duration
}

// WithTimeout wraps next with a per-send deadline of d.
func WithTimeout(next Sender, d time.Duration) *Timeout {
	return &Timeout{next: next, d: d}
}

// Send implements Sender. Panics in the wrapped sender are returned as errors.
func (t *Timeout) Send(ctx context.Context, recipient, text string) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("send panicked: %v", r)
			}
		}()
		done <- t.next.Send(ctx, recipient, text)
	}()

	select {
	case err := <-done:
		if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeout, t.d)
		}
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeout, t.d)
		}
		return ctx.Err()
	}
}
