package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chainpress/newsverify/src/ledger"
	"github.com/chainpress/newsverify/src/verification"
)

func TestMemoryClientLifecycle(t *testing.T) {
	client := ledger.NewMemoryClient(10 * time.Millisecond)
	ctx := context.Background()
	hash := testHash("lifecycle")

	_, err := client.GetProof(ctx, hash)
	require.ErrorIs(t, err, verification.ErrNotFound)

	_, err = client.GetVerificationState(ctx, hash)
	require.ErrorIs(t, err, verification.ErrNotFound)

	tx, err := client.CreateVerificationProof(ctx, hash, []byte("payload"))
	require.NoError(t, err)
	require.NotEmpty(t, tx)

	state, err := client.GetVerificationState(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, verification.ProofStatePending, state)

	ok, err := client.VerifyProof(ctx, hash)
	require.NoError(t, err)
	require.False(t, ok, "unconfirmed proof must not verify")

	time.Sleep(15 * time.Millisecond)

	state, err = client.GetVerificationState(ctx, hash)
	require.NoError(t, err)
	require.Equal(t, verification.ProofStateVerified, state)

	ok, err = client.VerifyProof(ctx, hash)
	require.NoError(t, err)
	require.True(t, ok)

	rec, err := client.ProofByTx(ctx, tx)
	require.NoError(t, err)
	require.Equal(t, tx, rec.TxHash)
	require.NotZero(t, rec.BlockNumber)
}

func TestMemoryClientRejectsDuplicates(t *testing.T) {
	client := ledger.NewMemoryClient(0)
	ctx := context.Background()
	hash := testHash("dup")

	_, err := client.CreateVerificationProof(ctx, hash, []byte("a"))
	require.NoError(t, err)

	_, err = client.CreateVerificationProof(ctx, hash, []byte("a"))
	require.ErrorIs(t, err, ledger.ErrAlreadyExists)
	require.Equal(t, 1, client.WriteCount())
}

func TestMemoryClientUnknownTx(t *testing.T) {
	client := ledger.NewMemoryClient(0)
	_, err := client.ProofByTx(context.Background(), "0xmissing")
	require.ErrorIs(t, err, verification.ErrNotFound)
}
