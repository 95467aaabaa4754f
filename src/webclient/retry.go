package webclient

import (
	"context"
	"time"
)

// Backoff is a bounded exponential retry policy: delays start at Initial and
// double up to Max, for at most Attempts tries.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// Retry runs fn until it succeeds, returns a non-retryable error, the
// attempt budget runs out, or ctx is canceled. The last error is returned
// unmodified so callers can classify it.
func (b Backoff) Retry(ctx context.Context, retryable func(error) bool, fn func() error) error {
	attempts := b.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := b.Initial
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	maxDelay := b.Max
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		if serr := Sleep(ctx, delay); serr != nil {
			return serr
		}
		if delay < maxDelay {
			delay *= 2
			if delay > maxDelay {
				delay = maxDelay
			}
		}
	}
	return err
}

// Sleep waits for d or until ctx is done, whichever comes first. Timer-based,
// never a spin loop.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
