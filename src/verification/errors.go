package verification

import "errors"

// Error taxonomy for the pipeline. Handlers map these to HTTP statuses and
// stable wire codes; everything else is an internal error.
var (
	// ErrValidation marks a malformed article. Caller-facing, never retried.
	ErrValidation = errors.New("invalid article")

	// ErrAnalysisUnavailable means the inference backend or its artifacts
	// could not be loaded or reached.
	ErrAnalysisUnavailable = errors.New("analysis unavailable")

	// ErrAnalysisFailed means inference rejected the input. Repeating the
	// same input will not succeed, so the attempt ends here.
	ErrAnalysisFailed = errors.New("analysis failed")

	// ErrSubmissionFailed is returned after the ledger write retry budget
	// is exhausted.
	ErrSubmissionFailed = errors.New("ledger submission failed")

	// ErrConfirmationTimeout means the write was accepted but finality was
	// not observed within the polling budget. Not a failure from the
	// caller's perspective; the attempt lands in under_review.
	ErrConfirmationTimeout = errors.New("ledger confirmation timeout")

	// ErrNotFound is returned for queries against ids or hashes that have
	// no record.
	ErrNotFound = errors.New("not found")
)

// ErrorCode returns the stable wire code for err, or "internal" when the
// error is outside the taxonomy.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrAnalysisUnavailable):
		return "analysis_unavailable"
	case errors.Is(err, ErrAnalysisFailed):
		return "analysis_failed"
	case errors.Is(err, ErrSubmissionFailed):
		return "submission_failed"
	case errors.Is(err, ErrConfirmationTimeout):
		return "confirmation_timeout"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
