package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chainpress/newsverify/src/verification"
)

func lockCount(a *Anchor) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.locks)
}

func TestHashLocksReleasedAfterAnchor(t *testing.T) {
	client := NewMemoryClient(0)
	anchor := NewAnchor(client, AnchorConfig{
		SubmitAttempts: 1,
		SubmitBackoff:  time.Millisecond,
		ConfirmInitial: time.Millisecond,
		ConfirmMax:     time.Millisecond,
		ConfirmPolls:   1,
	}, nil)

	for _, seed := range []string{"one", "two", "three"} {
		_, err := anchor.Anchor(context.Background(), verification.ArticleHash(seed, seed), []byte("p"))
		require.NoError(t, err)
	}
	require.Equal(t, 0, lockCount(anchor))
}

func TestHashLocksReleasedAfterConcurrentDuplicates(t *testing.T) {
	client := NewMemoryClient(0)
	anchor := NewAnchor(client, AnchorConfig{
		SubmitAttempts: 1,
		SubmitBackoff:  time.Millisecond,
		ConfirmInitial: time.Millisecond,
		ConfirmMax:     time.Millisecond,
		ConfirmPolls:   1,
	}, nil)
	hash := verification.ArticleHash("shared", "shared body")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = anchor.Anchor(context.Background(), hash, []byte("p"))
		}()
	}
	wg.Wait()

	require.Equal(t, 1, client.WriteCount())
	require.Equal(t, 0, lockCount(anchor))
}

func TestHashLocksReleasedOnFailure(t *testing.T) {
	client := NewMemoryClient(0)
	client.FailSubmissions(1)
	anchor := NewAnchor(client, AnchorConfig{
		SubmitAttempts: 1,
		SubmitBackoff:  time.Millisecond,
		ConfirmInitial: time.Millisecond,
		ConfirmMax:     time.Millisecond,
		ConfirmPolls:   1,
	}, nil)

	_, err := anchor.Anchor(context.Background(), verification.ArticleHash("down", "down"), []byte("p"))
	require.ErrorIs(t, err, verification.ErrSubmissionFailed)
	require.Equal(t, 0, lockCount(anchor))
}
