// Package analyzer provides the content-analysis capability behind the
// verification pipeline. One interface, interchangeable backends selected by
// name at construction time.
package analyzer

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chainpress/newsverify/src/verification"
)

// Config captures construction-time inputs for any backend. Fields are
// optional per backend.
type Config struct {
	Backend string

	// Local inference artifacts.
	ModelPath     string
	TokenizerPath string
	Workers       int

	// Remote inference.
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
}

// Factory builds a backend-specific client.
type Factory func(Config) (verification.Analyzer, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under one or more names.
func Register(name string, factory Factory, aliases ...string) {
	mu.Lock()
	defer mu.Unlock()
	for _, n := range append([]string{name}, aliases...) {
		factories[strings.ToLower(n)] = factory
	}
}

// New returns the analyzer for cfg.Backend, defaulting to the local lexicon
// backend. Artifact load failures surface here, not per request.
func New(cfg Config) (verification.Analyzer, error) {
	name := strings.TrimSpace(strings.ToLower(cfg.Backend))
	if name == "" {
		name = "lexicon"
	}

	mu.RLock()
	factory := factories[name]
	mu.RUnlock()

	if factory == nil {
		return nil, fmt.Errorf("%w: backend %q not registered", verification.ErrAnalysisUnavailable, name)
	}
	return factory(cfg)
}

// clamp bounds an untrusted model score to [0,1]. Raw backend output may
// drift outside the range and is never trusted.
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampAnalysis(a *verification.AIAnalysis) {
	a.FactCheckScore = clamp(a.FactCheckScore)
	a.SourceReliability = clamp(a.SourceReliability)
	a.ContentQuality = clamp(a.ContentQuality)
	a.BiasDetection = clamp(a.BiasDetection)
	for k, v := range a.ConfidenceScores {
		a.ConfidenceScores[k] = clamp(v)
	}
}

// dedupeEntities removes duplicate labels preserving first-seen order.
func dedupeEntities(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		key := strings.ToLower(l)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}
