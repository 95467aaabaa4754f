package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chainpress/newsverify/src/analyzer"
	"github.com/chainpress/newsverify/src/verification"
)

var (
	backendsFlag  = flag.String("backends", "lexicon", "Comma-separated backend list or 'all'")
	modelFlag     = flag.String("model", "", "Model name for the remote backend")
	endpointFlag  = flag.String("endpoint", "", "Inference endpoint for the remote backend")
	apiKeyFlag    = flag.String("api-key", "", "API key for the remote backend")
	modelPathFlag = flag.String("model-path", "", "Lexicon model artifact path (empty = built-in)")
	tokPathFlag   = flag.String("tokenizer-path", "", "Lexicon tokenizer artifact path (empty = built-in)")
	titleFlag     = flag.String("title", defaultTitle, "Article title to analyze")
	contentFlag   = flag.String("content", defaultContent, "Article content to analyze")
	timeoutFlag   = flag.Duration("timeout", 45*time.Second, "Per-backend timeout")
	workersFlag   = flag.Int("workers", 2, "Concurrent inference slots for the lexicon backend")
)

var allBackends = []string{"lexicon", "remote"}

const defaultTitle = "Central bank holds rates steady"

const defaultContent = `The central bank announced on Tuesday that it would hold ` +
	`interest rates steady, according to a statement released after its ` +
	`two-day policy meeting. "We see inflation returning to target over the ` +
	`medium term," said the bank's chair. Analysts at Reuters and Bloomberg ` +
	`had widely expected the decision.`

func main() {
	log.SetFlags(0)
	flag.Parse()

	backends := resolveBackends(*backendsFlag)
	if len(backends) == 0 {
		log.Fatal("no backends specified")
	}

	article := verification.Article{
		ID:      uuid.New(),
		Title:   *titleFlag,
		Content: *contentFlag,
	}
	fmt.Printf("article %s hash %s\n", article.ID, verification.HashHex(verification.ArticleHash(article.Title, article.Content)))

	for _, backend := range backends {
		if err := runBackend(backend, article); err != nil {
			log.Printf("[%s] ERROR: %v", backend, err)
		}
	}
}

func runBackend(backend string, article verification.Article) error {
	cfg := analyzer.Config{
		Backend:       backend,
		ModelPath:     *modelPathFlag,
		TokenizerPath: *tokPathFlag,
		Workers:       *workersFlag,
		Endpoint:      *endpointFlag,
		APIKey:        *apiKeyFlag,
		Model:         *modelFlag,
		Timeout:       *timeoutFlag,
	}

	a, err := analyzer.New(cfg)
	if err != nil {
		return fmt.Errorf("analyzer init: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeoutFlag)
	defer cancel()

	fmt.Printf("=== %s ===\n", backend)
	start := time.Now()
	res, err := a.Analyze(ctx, article.Content)
	if err != nil {
		return err
	}

	fmt.Printf("analyze ok (%.1fs)\n", time.Since(start).Seconds())
	fmt.Printf("  fact_check_score:   %.3f\n", res.FactCheckScore)
	fmt.Printf("  source_reliability: %.3f\n", res.SourceReliability)
	fmt.Printf("  content_quality:    %.3f\n", res.ContentQuality)
	fmt.Printf("  bias_detection:     %.3f\n", res.BiasDetection)
	fmt.Printf("  credibility:        %.3f\n", verification.Score(*res))
	if len(res.DetectedEntities) > 0 {
		fmt.Printf("  entities:           %s\n", strings.Join(res.DetectedEntities, ", "))
	}
	for k, v := range res.ConfidenceScores {
		fmt.Printf("  confidence[%s]: %.3f\n", k, v)
	}
	return nil
}

func resolveBackends(raw string) []string {
	if strings.EqualFold(strings.TrimSpace(raw), "all") {
		return allBackends
	}
	var out []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			out = append(out, b)
		}
	}
	return out
}
