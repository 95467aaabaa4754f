// Package ledger anchors verification attestations on an external
// append-only ledger and owns the retry, confirmation and idempotency
// policy around it.
package ledger

import (
	"context"
	"errors"

	"github.com/chainpress/newsverify/src/verification"
)

// ErrAlreadyExists is reported by a Client when the attestation contract
// refuses a duplicate write for an article hash. The anchor treats it as
// success and resolves the existing proof.
var ErrAlreadyExists = errors.New("proof already exists")

// Client is the narrow read/write contract against the attestation ledger.
// CreateVerificationProof, GetVerificationState and VerifyProof mirror the
// deployed contract's surface; GetProof and ProofByTx are the reads the
// idempotency and confirmation policies need. Implementations must be safe
// for concurrent use.
type Client interface {
	// CreateVerificationProof submits an attestation write and returns the
	// transaction reference. It does not wait for finality.
	CreateVerificationProof(ctx context.Context, articleHash [32]byte, payload []byte) (string, error)

	// GetVerificationState returns the ledger's state label for the hash,
	// or verification.ErrNotFound.
	GetVerificationState(ctx context.Context, articleHash [32]byte) (string, error)

	// VerifyProof reports whether a confirmed proof exists. Read-only.
	VerifyProof(ctx context.Context, articleHash [32]byte) (bool, error)

	// GetProof returns the full proof record for a hash, pending or
	// confirmed, or verification.ErrNotFound.
	GetProof(ctx context.Context, articleHash [32]byte) (verification.ProofRecord, error)

	// ProofByTx returns a non-blocking snapshot of the write identified by
	// txRef. State stays pending until the ledger reports finality.
	ProofByTx(ctx context.Context, txRef string) (verification.ProofRecord, error)
}
