package verification

// Credibility weights. Fixed policy: the four analysis dimensions are folded
// into one scalar, with bias inverted so heavier bias lowers the score. The
// weights sum to 1.0, so for clamped inputs the result is already in [0,1].
const (
	WeightFactCheck         = 0.4
	WeightSourceReliability = 0.3
	WeightContentQuality    = 0.2
	WeightBias              = 0.1
)

// Score folds an analysis into a single credibility scalar. Pure and
// deterministic; never fails.
func Score(a AIAnalysis) float64 {
	return WeightFactCheck*a.FactCheckScore +
		WeightSourceReliability*a.SourceReliability +
		WeightContentQuality*a.ContentQuality +
		WeightBias*(1.0-a.BiasDetection)
}
