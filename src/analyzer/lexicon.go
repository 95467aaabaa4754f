package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"

	"github.com/chainpress/newsverify/src/verification"
)

func init() {
	Register("lexicon", newLexicon, "local", "rules")
}

// modelArtifact is the versioned weights file consumed by the lexicon
// backend. Marker lists drive the per-dimension adjustments applied on top
// of the baselines.
type modelArtifact struct {
	Version   string             `json:"version"`
	Baselines map[string]float64 `json:"baselines"`
	Markers   struct {
		Attribution []string `json:"attribution"`
		Hedging     []string `json:"hedging"`
		Sensational []string `json:"sensational"`
		Loaded      []string `json:"loaded"`
	} `json:"markers"`
}

// tokenizerArtifact is the paired preprocessing table.
type tokenizerArtifact struct {
	Version     string   `json:"version"`
	Stopwords   []string `json:"stopwords"`
	MinTokenLen int      `json:"min_token_len"`
}

// Lexicon is a rule-based analysis backend. Artifacts are loaded once at
// construction; failure to load is fatal to the constructor, never to a
// request. Calls hold no session state, so the backend is safe under
// concurrent orchestrations.
type Lexicon struct {
	model     modelArtifact
	stopwords map[string]struct{}
	minToken  int
	sem       chan struct{}
}

func newLexicon(cfg Config) (verification.Analyzer, error) {
	model := defaultModel
	if cfg.ModelPath != "" {
		if err := loadJSON(cfg.ModelPath, &model); err != nil {
			return nil, fmt.Errorf("%w: model artifact %s: %v", verification.ErrAnalysisUnavailable, cfg.ModelPath, err)
		}
	}

	tok := defaultTokenizer
	if cfg.TokenizerPath != "" {
		if err := loadJSON(cfg.TokenizerPath, &tok); err != nil {
			return nil, fmt.Errorf("%w: tokenizer artifact %s: %v", verification.ErrAnalysisUnavailable, cfg.TokenizerPath, err)
		}
	}

	stop := make(map[string]struct{}, len(tok.Stopwords))
	for _, w := range tok.Stopwords {
		stop[strings.ToLower(w)] = struct{}{}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	minToken := tok.MinTokenLen
	if minToken <= 0 {
		minToken = 2
	}

	return &Lexicon{
		model:     model,
		stopwords: stop,
		minToken:  minToken,
		sem:       make(chan struct{}, workers),
	}, nil
}

func loadJSON(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// Analyze scores the text against the marker lexicon. CPU-bound work passes
// through a bounded semaphore so a burst of attempts cannot starve the
// scheduler.
func (l *Lexicon) Analyze(ctx context.Context, text string) (*verification.AIAnalysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty content", verification.ErrAnalysisFailed)
	}

	select {
	case l.sem <- struct{}{}:
		defer func() { <-l.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	lower := strings.ToLower(text)
	tokens := l.tokenize(lower)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: no scorable tokens", verification.ErrAnalysisFailed)
	}
	total := float64(len(tokens))

	attribution := markerDensity(lower, l.model.Markers.Attribution, total)
	hedging := markerDensity(lower, l.model.Markers.Hedging, total)
	sensational := markerDensity(lower, l.model.Markers.Sensational, total)
	loaded := markerDensity(lower, l.model.Markers.Loaded, total)

	analysis := &verification.AIAnalysis{
		FactCheckScore:    l.baseline("fact_check") + 2.0*attribution - 3.0*hedging,
		SourceReliability: l.baseline("source_reliability") + attribution - 2.0*sensational,
		ContentQuality:    l.baseline("content_quality") + lengthBonus(len(tokens)) - sensational,
		BiasDetection:     l.baseline("bias") + 4.0*loaded + 2.0*sensational,
		DetectedEntities:  dedupeEntities(extractEntities(text, l.stopwords)),
		ConfidenceScores: map[string]float64{
			"fact_check":         confidence(len(tokens)),
			"source_reliability": confidence(len(tokens)),
			"content_quality":    confidence(len(tokens)),
			"bias":               confidence(len(tokens)),
		},
	}
	clampAnalysis(analysis)
	return analysis, nil
}

func (l *Lexicon) baseline(dim string) float64 {
	if v, ok := l.model.Baselines[dim]; ok {
		return v
	}
	return 0.5
}

func (l *Lexicon) tokenize(lower string) []string {
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) < l.minToken {
			continue
		}
		if _, skip := l.stopwords[f]; skip {
			continue
		}
		out = append(out, f)
	}
	return out
}

// markerDensity counts marker phrase occurrences per token.
func markerDensity(lower string, markers []string, tokens float64) float64 {
	count := 0
	for _, m := range markers {
		count += strings.Count(lower, strings.ToLower(m))
	}
	return float64(count) / tokens
}

// lengthBonus saturates around long-form article length.
func lengthBonus(tokens int) float64 {
	return 0.2 * math.Min(1.0, float64(tokens)/400.0)
}

func confidence(tokens int) float64 {
	return 0.3 + 0.7*math.Min(1.0, float64(tokens)/200.0)
}

// extractEntities pulls capitalized token runs as entity labels. Sentence
// leads are skipped unless the run continues past the first token.
func extractEntities(text string, stopwords map[string]struct{}) []string {
	words := strings.Fields(text)
	var entities []string
	var run []string
	runAtStart := false
	sentenceStart := true

	flush := func() {
		if len(run) == 0 {
			return
		}
		// A lone capitalized word opening a sentence is just casing.
		if !(len(run) == 1 && runAtStart) {
			entities = append(entities, strings.Join(run, " "))
		}
		run = nil
	}

	for _, w := range words {
		clean := strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		_, isStop := stopwords[strings.ToLower(clean)]
		if clean != "" && !isStop && startsUpper(clean) {
			if len(run) == 0 {
				runAtStart = sentenceStart
			}
			run = append(run, clean)
		} else {
			flush()
		}
		sentenceStart = strings.ContainsAny(w, ".!?")
		if sentenceStart {
			flush()
		}
	}
	flush()
	return entities
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

var defaultModel = modelArtifact{
	Version: "lexicon-2024.1",
	Baselines: map[string]float64{
		"fact_check":         0.55,
		"source_reliability": 0.55,
		"content_quality":    0.5,
		"bias":               0.2,
	},
	Markers: struct {
		Attribution []string `json:"attribution"`
		Hedging     []string `json:"hedging"`
		Sensational []string `json:"sensational"`
		Loaded      []string `json:"loaded"`
	}{
		Attribution: []string{"according to", "said in a statement", "reported by", "confirmed by", "told reporters", "cited"},
		Hedging:     []string{"allegedly", "reportedly", "rumored", "unconfirmed", "sources say", "some say"},
		Sensational: []string{"shocking", "you won't believe", "unbelievable", "bombshell", "explosive", "miracle"},
		Loaded:      []string{"radical", "disaster", "corrupt", "traitor", "hoax", "regime", "crooked"},
	},
}

var defaultTokenizer = tokenizerArtifact{
	Version:     "tokenizer-2024.1",
	MinTokenLen: 2,
	Stopwords: []string{
		"a", "an", "the", "to", "of", "in", "on", "for", "and", "or", "is",
		"are", "was", "were", "be", "been", "by", "with", "as", "at", "it",
		"its", "this", "that", "from", "but", "has", "have", "had",
	},
}
