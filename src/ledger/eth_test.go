package ledger

import (
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/stretchr/testify/require"
)

func TestAttestationABI(t *testing.T) {
	parsed, err := abi.JSON(strings.NewReader(attestationABI))
	require.NoError(t, err)

	var hash [32]byte
	copy(hash[:], []byte("0123456789abcdef0123456789abcdef"))

	// 4-byte selector + two 32-byte words head + dynamic payload tail.
	data, err := parsed.Pack("createVerificationProof", hash, []byte(`{"score":0.85}`))
	require.NoError(t, err)
	require.Greater(t, len(data), 4+64)

	_, err = parsed.Pack("getVerificationState", hash)
	require.NoError(t, err)
	_, err = parsed.Pack("verifyProof", hash)
	require.NoError(t, err)

	require.NotEmpty(t, parsed.Events["ProofCreated"].ID)
}

func TestIsDuplicateRevert(t *testing.T) {
	require.True(t, isDuplicateRevert(errors.New("execution reverted: proof already exists")))
	require.True(t, isDuplicateRevert(errors.New("Duplicate proof for hash")))
	require.False(t, isDuplicateRevert(errors.New("connection refused")))
}
