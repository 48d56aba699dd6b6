// Package channels holds small helpers for sending on channels that may be
// slow or already closed.
package channels

import (
	"context"
	"errors"
	"time"
)

var (
	ErrChannelClosed  = errors.New("channel closed")
	ErrChannelTimeout = errors.New("send timeout")
)

// Send delivers msg unless ctx is done first or timeout expires. A zero
// timeout waits on ctx alone. Sending on a closed channel returns
// ErrChannelClosed instead of panicking.
func Send[T any](ctx context.Context, ch chan<- T, msg T, timeout time.Duration) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = ErrChannelClosed
		}
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case ch <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-expired:
		return ErrChannelTimeout
	}
}
