package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/chainpress/newsverify/src/verification"
)

// MemoryClient is an in-process ledger with the same uniqueness and
// finality semantics as the contract-backed client: one proof per article
// hash, writes confirm after a configurable delay. Used for tests and local
// runs without a chain endpoint.
type MemoryClient struct {
	mu     sync.Mutex
	byHash map[[32]byte]*memProof
	byTx   map[string]*memProof

	confirmDelay time.Duration
	nextBlock    uint64

	// failSubmits makes the next n CreateVerificationProof calls fail with
	// a transport-style error, for retry-path tests.
	failSubmits int
}

type memProof struct {
	hash        [32]byte
	txHash      string
	blockNumber uint64
	submittedAt time.Time
	confirmAt   time.Time
}

func NewMemoryClient(confirmDelay time.Duration) *MemoryClient {
	return &MemoryClient{
		byHash:       make(map[[32]byte]*memProof),
		byTx:         make(map[string]*memProof),
		confirmDelay: confirmDelay,
		nextBlock:    1,
	}
}

// FailSubmissions injects n consecutive submission failures.
func (m *MemoryClient) FailSubmissions(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSubmits = n
}

// WriteCount reports how many ledger writes were accepted.
func (m *MemoryClient) WriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byHash)
}

func (m *MemoryClient) CreateVerificationProof(_ context.Context, articleHash [32]byte, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failSubmits > 0 {
		m.failSubmits--
		return "", fmt.Errorf("ledger rpc: connection reset")
	}
	if _, ok := m.byHash[articleHash]; ok {
		return "", fmt.Errorf("%w: %s", ErrAlreadyExists, verification.HashHex(articleHash))
	}

	// Deterministic per (hash, payload) so duplicate submissions that slip
	// through still collapse to one reference.
	digest := sha256.Sum256(append(articleHash[:], payload...))
	now := time.Now()
	p := &memProof{
		hash:        articleHash,
		txHash:      "0x" + hex.EncodeToString(digest[:]),
		blockNumber: m.nextBlock,
		submittedAt: now,
		confirmAt:   now.Add(m.confirmDelay),
	}
	m.nextBlock++
	m.byHash[articleHash] = p
	m.byTx[p.txHash] = p
	return p.txHash, nil
}

func (m *MemoryClient) GetVerificationState(_ context.Context, articleHash [32]byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byHash[articleHash]
	if !ok {
		return "", fmt.Errorf("%w: no proof for %s", verification.ErrNotFound, verification.HashHex(articleHash))
	}
	return m.stateOf(p), nil
}

func (m *MemoryClient) VerifyProof(_ context.Context, articleHash [32]byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byHash[articleHash]
	return ok && m.stateOf(p) == verification.ProofStateVerified, nil
}

func (m *MemoryClient) GetProof(_ context.Context, articleHash [32]byte) (verification.ProofRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byHash[articleHash]
	if !ok {
		return verification.ProofRecord{}, fmt.Errorf("%w: no proof for %s", verification.ErrNotFound, verification.HashHex(articleHash))
	}
	return m.record(p), nil
}

func (m *MemoryClient) ProofByTx(_ context.Context, txRef string) (verification.ProofRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byTx[txRef]
	if !ok {
		return verification.ProofRecord{}, fmt.Errorf("%w: tx %s", verification.ErrNotFound, txRef)
	}
	return m.record(p), nil
}

func (m *MemoryClient) stateOf(p *memProof) string {
	if time.Now().Before(p.confirmAt) {
		return verification.ProofStatePending
	}
	return verification.ProofStateVerified
}

func (m *MemoryClient) record(p *memProof) verification.ProofRecord {
	state := m.stateOf(p)
	rec := verification.ProofRecord{
		TxHash:    p.txHash,
		State:     state,
		Timestamp: p.submittedAt.UTC(),
	}
	if state == verification.ProofStateVerified {
		rec.BlockNumber = p.blockNumber
		rec.Timestamp = p.confirmAt.UTC()
	}
	return rec
}
