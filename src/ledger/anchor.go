package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/chainpress/newsverify/src/verification"
	"github.com/chainpress/newsverify/src/webclient"
)

// AnchorConfig bounds the submission retries and the confirmation polling.
type AnchorConfig struct {
	SubmitAttempts int           // ledger write tries before ErrSubmissionFailed
	SubmitBackoff  time.Duration // initial submission retry delay
	ConfirmInitial time.Duration // first confirmation poll delay
	ConfirmMax     time.Duration // poll delay ceiling
	ConfirmPolls   int           // poll count cap inside the overall deadline
}

// DefaultAnchorConfig matches the service defaults.
var DefaultAnchorConfig = AnchorConfig{
	SubmitAttempts: 3,
	SubmitBackoff:  time.Second,
	ConfirmInitial: 500 * time.Millisecond,
	ConfirmMax:     8 * time.Second,
	ConfirmPolls:   10,
}

// Anchor implements the provenance policy over a ledger Client: idempotency
// at the article-hash level, bounded submission retries, and confirmation
// polling with exponential backoff. It satisfies verification.Anchorer.
type Anchor struct {
	client Client
	cfg    AnchorConfig
	log    *zap.Logger

	mu    sync.Mutex
	locks map[[32]byte]*hashLock
}

// hashLock serializes submissions for one article hash. Entries are
// refcounted and removed once the last waiter releases, so the map stays
// bounded by the number of in-flight hashes rather than growing for the
// life of the process.
type hashLock struct {
	mu   sync.Mutex
	refs int
}

func NewAnchor(client Client, cfg AnchorConfig, log *zap.Logger) *Anchor {
	if cfg.SubmitAttempts <= 0 {
		cfg.SubmitAttempts = DefaultAnchorConfig.SubmitAttempts
	}
	if cfg.SubmitBackoff <= 0 {
		cfg.SubmitBackoff = DefaultAnchorConfig.SubmitBackoff
	}
	if cfg.ConfirmInitial <= 0 {
		cfg.ConfirmInitial = DefaultAnchorConfig.ConfirmInitial
	}
	if cfg.ConfirmMax <= 0 {
		cfg.ConfirmMax = DefaultAnchorConfig.ConfirmMax
	}
	if cfg.ConfirmPolls <= 0 {
		cfg.ConfirmPolls = DefaultAnchorConfig.ConfirmPolls
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Anchor{
		client: client,
		cfg:    cfg,
		log:    log,
		locks:  make(map[[32]byte]*hashLock),
	}
}

// acquire blocks until the caller holds the per-hash lock that collapses
// concurrent duplicate submissions for the same article into a single
// ledger write.
func (a *Anchor) acquire(hash [32]byte) *hashLock {
	a.mu.Lock()
	lk, ok := a.locks[hash]
	if !ok {
		lk = &hashLock{}
		a.locks[hash] = lk
	}
	lk.refs++
	a.mu.Unlock()

	lk.mu.Lock()
	return lk
}

// release drops the per-hash lock and deletes the map entry when no other
// submission is waiting on it.
func (a *Anchor) release(hash [32]byte, lk *hashLock) {
	lk.mu.Unlock()

	a.mu.Lock()
	lk.refs--
	if lk.refs == 0 {
		delete(a.locks, hash)
	}
	a.mu.Unlock()
}

// Anchor records that articleHash was verified with payload. Idempotent: an
// existing proof (pending or confirmed) is returned without a second write,
// and a contract-level "already exists" refusal is accepted as success. A
// submission that still fails after the retry budget surfaces as
// ErrSubmissionFailed, never as a placeholder proof.
func (a *Anchor) Anchor(ctx context.Context, articleHash [32]byte, payload []byte) (verification.ProofRecord, error) {
	lk := a.acquire(articleHash)
	defer a.release(articleHash, lk)

	existing, err := a.client.GetProof(ctx, articleHash)
	switch {
	case err == nil:
		a.log.Debug("anchor hit existing proof",
			zap.String("article_hash", verification.HashHex(articleHash)),
			zap.String("tx_hash", existing.TxHash),
			zap.String("state", existing.State))
		return existing, nil
	case errors.Is(err, verification.ErrNotFound):
		// First write for this hash.
	default:
		// Existence check failed; the contract's own uniqueness guarantee
		// still protects against a duplicate, so submission proceeds.
		a.log.Warn("proof existence check failed", zap.Error(err))
	}

	var txRef string
	backoff := webclient.Backoff{
		Attempts: a.cfg.SubmitAttempts,
		Initial:  a.cfg.SubmitBackoff,
		Max:      a.cfg.ConfirmMax,
	}
	err = backoff.Retry(ctx, submissionRetryable, func() error {
		var serr error
		txRef, serr = a.client.CreateVerificationProof(ctx, articleHash, payload)
		return serr
	})
	if errors.Is(err, ErrAlreadyExists) {
		// Lost the race to another writer; the finalized proof is theirs.
		return a.client.GetProof(ctx, articleHash)
	}
	if err != nil {
		return verification.ProofRecord{}, fmt.Errorf("%w: %v", verification.ErrSubmissionFailed, err)
	}

	a.log.Info("attestation submitted",
		zap.String("article_hash", verification.HashHex(articleHash)),
		zap.String("tx_hash", txRef))
	return verification.ProofRecord{
		TxHash:    txRef,
		State:     verification.ProofStatePending,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Confirm polls the ledger until the write identified by txRef is final.
// Backoff starts at ConfirmInitial and doubles up to ConfirmMax; the loop
// stops on the poll cap or ctx deadline with ErrConfirmationTimeout.
func (a *Anchor) Confirm(ctx context.Context, txRef string) (verification.ProofRecord, error) {
	delay := a.cfg.ConfirmInitial
	last := verification.ProofRecord{TxHash: txRef, State: verification.ProofStatePending}

	for i := 0; i < a.cfg.ConfirmPolls; i++ {
		rec, err := a.client.ProofByTx(ctx, txRef)
		switch {
		case err == nil && rec.State == verification.ProofStateVerified:
			return rec, nil
		case err == nil:
			last = rec
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return last, fmt.Errorf("%w: tx %s", verification.ErrConfirmationTimeout, txRef)
		case errors.Is(err, verification.ErrSubmissionFailed):
			// The ledger reverted the write; polling further cannot help.
			return last, err
		default:
			// Transient read failure; the next poll decides.
			a.log.Debug("confirmation poll failed", zap.String("tx_hash", txRef), zap.Error(err))
		}

		if err := webclient.Sleep(ctx, delay); err != nil {
			return last, fmt.Errorf("%w: tx %s", verification.ErrConfirmationTimeout, txRef)
		}
		if delay < a.cfg.ConfirmMax {
			delay *= 2
			if delay > a.cfg.ConfirmMax {
				delay = a.cfg.ConfirmMax
			}
		}
	}
	return last, fmt.Errorf("%w: tx %s", verification.ErrConfirmationTimeout, txRef)
}

// Verify reports whether a confirmed proof exists for the hash. Read-only.
func (a *Anchor) Verify(ctx context.Context, articleHash [32]byte) (bool, error) {
	return a.client.VerifyProof(ctx, articleHash)
}

func submissionRetryable(err error) bool {
	if errors.Is(err, ErrAlreadyExists) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
