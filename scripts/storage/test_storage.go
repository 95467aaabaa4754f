// Smoke test for the MySQL and Redis storage layers. Needs a reachable
// database; run with MYSQL_DSN and REDIS_URL set.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/chainpress/newsverify/src/api/data"
	"github.com/chainpress/newsverify/src/verification"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	dsn := getenv("MYSQL_DSN", "newsverify:newsverify@tcp(127.0.0.1:3306)/newsverify?parseTime=true")
	redisURL := getenv("REDIS_URL", "redis://127.0.0.1:6379/0")

	ctx := context.Background()

	db := data.MustMySQL(dsn)
	data.Migrate(db)
	store := data.NewStore(db)

	article := &verification.Article{
		ID:      uuid.New(),
		Title:   "Storage smoke test",
		Content: "Body used only to exercise the persistence layer.",
	}
	res := &verification.Result{
		ArticleID:        article.ID,
		CredibilityScore: 0.85,
		Analysis: verification.AIAnalysis{
			FactCheckScore:    0.85,
			SourceReliability: 0.9,
			ContentQuality:    0.8,
			BiasDetection:     0.1,
			DetectedEntities:  []string{"Reuters"},
			ConfidenceScores:  map[string]float64{"fact_check": 0.9},
		},
		Proof: verification.ProofRecord{
			TxHash:      "0xsmoke",
			BlockNumber: 1,
			Timestamp:   time.Now().UTC(),
			State:       verification.ProofStateVerified,
		},
		Status:     verification.StatusVerified,
		VerifiedAt: time.Now().UTC(),
	}

	hash := verification.HashHex(verification.ArticleHash(article.Title, article.Content))
	if err := store.SaveResult(ctx, article, res, hash); err != nil {
		log.Fatalf("save result: %v", err)
	}
	// Upsert path: saving the same article twice must not error.
	if err := store.SaveResult(ctx, article, res, hash); err != nil {
		log.Fatalf("save result (upsert): %v", err)
	}

	got, err := store.Result(ctx, article.ID.String())
	if err != nil {
		log.Fatalf("read result: %v", err)
	}
	if got.Status != verification.StatusVerified || got.Proof.TxHash != "0xsmoke" {
		log.Fatalf("read result: unexpected row %+v", got)
	}

	proof, err := store.Proof(ctx, article.ID.String())
	if err != nil {
		log.Fatalf("read proof: %v", err)
	}
	if proof.BlockNumber != 1 {
		log.Fatalf("read proof: unexpected block %d", proof.BlockNumber)
	}

	cache := data.NewCache(data.MustRedis(redisURL))
	if err := cache.CacheResult(ctx, res); err != nil {
		log.Fatalf("cache write: %v", err)
	}
	cached, err := cache.CachedResult(ctx, article.ID.String())
	if err != nil {
		log.Fatalf("cache read: %v", err)
	}
	if cached.ArticleID != article.ID {
		log.Fatalf("cache read: id mismatch %s", cached.ArticleID)
	}

	log.Printf("storage smoke passed for article %s", article.ID)
}
