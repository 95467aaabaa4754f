package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainpress/newsverify/src/verification"
)

func newTestLexicon(t *testing.T) verification.Analyzer {
	t.Helper()
	a, err := newLexicon(Config{})
	require.NoError(t, err)
	return a
}

func TestLexiconRejectsEmptyInput(t *testing.T) {
	a := newTestLexicon(t)
	for _, input := range []string{"", "   ", "\n\t"} {
		_, err := a.Analyze(context.Background(), input)
		require.ErrorIs(t, err, verification.ErrAnalysisFailed)
	}
}

func TestLexiconScoresInRange(t *testing.T) {
	a := newTestLexicon(t)
	texts := []string{
		"According to the ministry, the budget was confirmed by parliament on Tuesday.",
		"SHOCKING!!! You won't believe this EXPLOSIVE bombshell about the corrupt regime hoax!!!",
		"Plain short note.",
	}
	for _, text := range texts {
		analysis, err := a.Analyze(context.Background(), text)
		require.NoError(t, err)
		for name, v := range map[string]float64{
			"fact_check":         analysis.FactCheckScore,
			"source_reliability": analysis.SourceReliability,
			"content_quality":    analysis.ContentQuality,
			"bias":               analysis.BiasDetection,
		} {
			require.GreaterOrEqual(t, v, 0.0, name)
			require.LessOrEqual(t, v, 1.0, name)
		}
		for _, c := range analysis.ConfidenceScores {
			require.GreaterOrEqual(t, c, 0.0)
			require.LessOrEqual(t, c, 1.0)
		}
	}
}

func TestLexiconSensationalTextScoresWorse(t *testing.T) {
	a := newTestLexicon(t)

	sober, err := a.Analyze(context.Background(),
		"According to the central bank, inflation was confirmed by official figures released on Monday, reported by two independent agencies.")
	require.NoError(t, err)

	tabloid, err := a.Analyze(context.Background(),
		"SHOCKING bombshell! You won't believe the explosive miracle cure the corrupt regime is hiding, sources say!")
	require.NoError(t, err)

	require.Greater(t, verification.Score(*sober), verification.Score(*tabloid))
	require.Greater(t, tabloid.BiasDetection, sober.BiasDetection)
}

func TestLexiconEntityExtraction(t *testing.T) {
	a := newTestLexicon(t)
	analysis, err := a.Analyze(context.Background(),
		"Yesterday the European Commission met with Angela Merkel in Brussels. The European Commission later briefed Reuters.")
	require.NoError(t, err)

	require.Contains(t, analysis.DetectedEntities, "European Commission")
	require.Contains(t, analysis.DetectedEntities, "Angela Merkel")
	// Deduplicated, first-seen order preserved.
	count := 0
	for _, e := range analysis.DetectedEntities {
		if e == "European Commission" {
			count++
		}
	}
	require.Equal(t, 1, count)
	require.Less(t,
		indexOf(analysis.DetectedEntities, "European Commission"),
		indexOf(analysis.DetectedEntities, "Reuters"))
}

func TestLexiconNoEntitiesIsNotAnError(t *testing.T) {
	a := newTestLexicon(t)
	analysis, err := a.Analyze(context.Background(), "plain lowercase text about nothing in particular today")
	require.NoError(t, err)
	require.Empty(t, analysis.DetectedEntities)
}

func TestLexiconLoadsArtifacts(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	tokPath := filepath.Join(dir, "tokenizer.json")

	require.NoError(t, os.WriteFile(modelPath, []byte(`{
		"version": "test-1",
		"baselines": {"fact_check": 0.9, "source_reliability": 0.9, "content_quality": 0.9, "bias": 0.0},
		"markers": {"attribution": [], "hedging": [], "sensational": [], "loaded": []}
	}`), 0o600))
	require.NoError(t, os.WriteFile(tokPath, []byte(`{
		"version": "test-1",
		"stopwords": ["the"],
		"min_token_len": 2
	}`), 0o600))

	a, err := newLexicon(Config{ModelPath: modelPath, TokenizerPath: tokPath})
	require.NoError(t, err)

	analysis, err := a.Analyze(context.Background(), "the quiet afternoon report covered local matters")
	require.NoError(t, err)
	require.InDelta(t, 0.9, analysis.FactCheckScore, 1e-9)
}

func TestLexiconArtifactLoadFailureIsFatalToConstruction(t *testing.T) {
	_, err := newLexicon(Config{ModelPath: "/does/not/exist.json"})
	require.ErrorIs(t, err, verification.ErrAnalysisUnavailable)

	dir := t.TempDir()
	bad := filepath.Join(dir, "model.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o600))
	_, err = newLexicon(Config{ModelPath: bad})
	require.ErrorIs(t, err, verification.ErrAnalysisUnavailable)
}

func TestClamp(t *testing.T) {
	require.Equal(t, 0.0, clamp(-0.3))
	require.Equal(t, 1.0, clamp(1.7))
	require.Equal(t, 0.42, clamp(0.42))
}

func TestDedupeEntities(t *testing.T) {
	got := dedupeEntities([]string{"Reuters", "reuters", " ", "BBC", "Reuters", "bbc"})
	require.Equal(t, []string{"Reuters", "BBC"}, got)
}

func indexOf(list []string, want string) int {
	for i, v := range list {
		if v == want {
			return i
		}
	}
	return -1
}
