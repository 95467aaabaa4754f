package webclient_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chainpress/newsverify/src/webclient"
)

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	b := webclient.Backoff{Attempts: 3, Initial: time.Millisecond, Max: 4 * time.Millisecond}

	calls := 0
	err := b.Retry(context.Background(), nil, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRetryReturnsLastErrorAfterBudget(t *testing.T) {
	b := webclient.Backoff{Attempts: 3, Initial: time.Millisecond, Max: 4 * time.Millisecond}
	boom := errors.New("still down")

	calls := 0
	err := b.Retry(context.Background(), nil, func() error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 3, calls)
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	b := webclient.Backoff{Attempts: 5, Initial: time.Millisecond, Max: 4 * time.Millisecond}
	fatal := errors.New("bad request")

	calls := 0
	err := b.Retry(context.Background(), func(err error) bool {
		return !errors.Is(err, fatal)
	}, func() error {
		calls++
		return fatal
	})
	require.ErrorIs(t, err, fatal)
	require.Equal(t, 1, calls)
}

func TestRetryHonorsContext(t *testing.T) {
	b := webclient.Backoff{Attempts: 100, Initial: 50 * time.Millisecond, Max: time.Second}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := b.Retry(ctx, nil, func() error { return errors.New("transient") })
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)
}

func TestSleepReturnsEarlyOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, webclient.Sleep(ctx, time.Minute), context.Canceled)
}
