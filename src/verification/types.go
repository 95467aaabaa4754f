package verification

import (
	"time"

	"github.com/google/uuid"
)

// Status is the verification state label owned by the article entity.
type Status string

const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusVerified    Status = "verified"
	StatusRejected    Status = "rejected"
)

// Article is the caller-owned entity submitted for verification. The
// pipeline reads ID, Title and Content; the remaining mutable fields are
// updated from the returned Result by whoever persists the article.
type Article struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	SourceURL        string    `json:"source_url"`
	Author           string    `json:"author"`
	PublishedAt      time.Time `json:"published_at"`
	Status           Status    `json:"verification_status"`
	CredibilityScore float64   `json:"credibility_score"`
	LedgerTxHash     string    `json:"ledger_tx_hash"`
	ContractAddress  string    `json:"contract_address"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AIAnalysis is the multi-dimensional output of one analysis pass.
// All four scores are clamped to [0,1] at the analyzer boundary; instances
// are immutable once created.
type AIAnalysis struct {
	FactCheckScore    float64            `json:"fact_check_score"`
	SourceReliability float64            `json:"source_reliability"`
	ContentQuality    float64            `json:"content_quality"`
	BiasDetection     float64            `json:"bias_detection"`
	DetectedEntities  []string           `json:"detected_entities"`
	ConfidenceScores  map[string]float64 `json:"confidence_scores"`
}

// Proof states as reported by the ledger.
const (
	ProofStateVerified = "verified"
	ProofStatePending  = "pending"
)

// ProofRecord is the ledger attestation for one article hash. Its contents
// are authoritative only once the confirmation policy has been satisfied;
// a record with State "pending" still carries the transaction reference so
// the write can be resolved later.
type ProofRecord struct {
	TxHash      string    `json:"transaction_hash"`
	BlockNumber uint64    `json:"block_number"`
	Timestamp   time.Time `json:"timestamp"`
	State       string    `json:"contract_state"`
}

// Result is the sole externally observable output of the pipeline.
type Result struct {
	ArticleID        uuid.UUID   `json:"article_id"`
	CredibilityScore float64     `json:"credibility_score"`
	Analysis         AIAnalysis  `json:"ai_analysis"`
	Proof            ProofRecord `json:"ledger_proof"`
	Status           Status      `json:"status"`
	VerifiedAt       time.Time   `json:"verification_timestamp"`
}
