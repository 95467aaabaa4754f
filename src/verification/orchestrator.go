package verification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AttemptState tracks one verification attempt through the pipeline.
type AttemptState string

const (
	StateStarted    AttemptState = "started"
	StateAnalyzing  AttemptState = "analyzing"
	StateScoring    AttemptState = "scoring"
	StateAnchoring  AttemptState = "anchoring"
	StateConfirming AttemptState = "confirming"
	StateCompleted  AttemptState = "completed"
	StateFailed     AttemptState = "failed"
)

// Transitions are one-directional. Failed is reachable from any non-terminal
// state; everything else advances along the fixed pipeline order.
var attemptOrder = map[AttemptState]AttemptState{
	StateStarted:    StateAnalyzing,
	StateAnalyzing:  StateScoring,
	StateScoring:    StateAnchoring,
	StateAnchoring:  StateConfirming,
	StateConfirming: StateCompleted,
}

type attempt struct {
	state AttemptState
	cause error
}

func newAttempt() *attempt {
	return &attempt{state: StateStarted}
}

func (a *attempt) advance(next AttemptState) error {
	if a.state == StateCompleted || a.state == StateFailed {
		return fmt.Errorf("attempt already terminal in %s", a.state)
	}
	if next == StateFailed {
		a.state = StateFailed
		return nil
	}
	if attemptOrder[a.state] != next {
		return fmt.Errorf("illegal transition %s -> %s", a.state, next)
	}
	a.state = next
	return nil
}

func (a *attempt) fail(err error) error {
	_ = a.advance(StateFailed)
	a.cause = err
	return err
}

// Analyzer is the content-analysis capability consumed by the orchestrator.
// Implementations must be safe for concurrent use and stateless per call.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*AIAnalysis, error)
}

// Anchorer is the provenance capability consumed by the orchestrator. Anchor
// owns idempotency and submission retries; Confirm owns the finality polling
// budget; Verify is a read-only existence check.
type Anchorer interface {
	Anchor(ctx context.Context, articleHash [32]byte, payload []byte) (ProofRecord, error)
	Confirm(ctx context.Context, txRef string) (ProofRecord, error)
	Verify(ctx context.Context, articleHash [32]byte) (bool, error)
}

// Thresholds select the final status from a confirmed credibility score.
type Thresholds struct {
	Verify float64 // >= Verify     -> verified
	Reject float64 // <  Reject     -> rejected, otherwise under_review
}

// DefaultThresholds are the service defaults; overridable from config.
var DefaultThresholds = Thresholds{Verify: 0.7, Reject: 0.4}

// Orchestrator sequences analyze -> score -> anchor -> confirm for one
// article and assembles the externally visible Result. It holds no
// per-attempt state; attempts for different articles run independently.
type Orchestrator struct {
	analyzer      Analyzer
	anchor        Anchorer
	thresholds    Thresholds
	confirmBudget time.Duration
	log           *zap.Logger
}

func NewOrchestrator(analyzer Analyzer, anchor Anchorer, thresholds Thresholds, confirmBudget time.Duration, log *zap.Logger) *Orchestrator {
	if confirmBudget <= 0 {
		confirmBudget = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		analyzer:      analyzer,
		anchor:        anchor,
		thresholds:    thresholds,
		confirmBudget: confirmBudget,
		log:           log,
	}
}

// anchorPayload is the content covered by the ledger attestation.
type anchorPayload struct {
	ArticleID        string     `json:"article_id"`
	Analysis         AIAnalysis `json:"analysis"`
	CredibilityScore float64    `json:"credibility_score"`
}

// Verify runs one verification attempt end to end. A confirmation timeout is
// not an error: the result comes back with status under_review and a pending
// proof carrying the transaction reference. All other failures return a
// taxonomy error and no result.
func (o *Orchestrator) Verify(ctx context.Context, article *Article) (*Result, error) {
	att := newAttempt()

	if err := validateArticle(article); err != nil {
		return nil, att.fail(err)
	}
	log := o.log.With(zap.String("article_id", article.ID.String()))

	if err := att.advance(StateAnalyzing); err != nil {
		return nil, err
	}
	analysis, err := o.analyzer.Analyze(ctx, article.Content)
	if err != nil {
		// Analysis responds to untrusted input; a failed pass is never
		// blindly retried.
		log.Warn("analysis failed", zap.Error(err))
		return nil, att.fail(err)
	}

	if err := att.advance(StateScoring); err != nil {
		return nil, err
	}
	score := Score(*analysis)

	hash := ArticleHash(article.Title, article.Content)
	payload, err := json.Marshal(anchorPayload{
		ArticleID:        article.ID.String(),
		Analysis:         *analysis,
		CredibilityScore: score,
	})
	if err != nil {
		return nil, att.fail(fmt.Errorf("encode anchor payload: %w", err))
	}

	// Last cancellation point: nothing has been submitted yet.
	if err := ctx.Err(); err != nil {
		return nil, att.fail(err)
	}

	if err := att.advance(StateAnchoring); err != nil {
		return nil, err
	}
	proof, err := o.anchor.Anchor(ctx, hash, payload)
	if err != nil {
		log.Error("anchoring failed", zap.String("article_hash", HashHex(hash)), zap.Error(err))
		return nil, att.fail(err)
	}

	if err := att.advance(StateConfirming); err != nil {
		return nil, err
	}
	status := o.statusFor(score)
	if proof.State != ProofStateVerified {
		// The write is on the wire; a client disconnect must not drop it.
		// Confirmation runs on a detached context with its own budget.
		confirmCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.confirmBudget)
		defer cancel()

		confirmed, err := o.anchor.Confirm(confirmCtx, proof.TxHash)
		switch {
		case errors.Is(err, ErrConfirmationTimeout):
			log.Info("confirmation pending past budget",
				zap.String("tx_hash", proof.TxHash))
			proof.State = ProofStatePending
			status = StatusUnderReview
		case err != nil:
			return nil, att.fail(err)
		default:
			proof = confirmed
		}
	}

	if err := att.advance(StateCompleted); err != nil {
		return nil, err
	}
	log.Info("verification completed",
		zap.Float64("credibility_score", score),
		zap.String("status", string(status)),
		zap.String("tx_hash", proof.TxHash))

	return &Result{
		ArticleID:        article.ID,
		CredibilityScore: score,
		Analysis:         *analysis,
		Proof:            proof,
		Status:           status,
		VerifiedAt:       time.Now().UTC(),
	}, nil
}

func (o *Orchestrator) statusFor(score float64) Status {
	switch {
	case score >= o.thresholds.Verify:
		return StatusVerified
	case score < o.thresholds.Reject:
		return StatusRejected
	default:
		return StatusUnderReview
	}
}

func validateArticle(a *Article) error {
	if a == nil {
		return fmt.Errorf("%w: missing article", ErrValidation)
	}
	if a.ID == uuid.Nil {
		return fmt.Errorf("%w: missing article id", ErrValidation)
	}
	if strings.TrimSpace(a.Content) == "" {
		return fmt.Errorf("%w: empty content", ErrValidation)
	}
	return nil
}
