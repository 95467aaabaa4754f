package webserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chainpress/newsverify/src/verification"
)

// Verifier runs one verification attempt.
type Verifier interface {
	Verify(ctx context.Context, article *verification.Article) (*verification.Result, error)
}

// ResultStore persists and serves verification outcomes. Required; the
// status and proof endpoints have nothing to answer from without it.
type ResultStore interface {
	SaveResult(ctx context.Context, article *verification.Article, res *verification.Result, articleHash string) error
	Result(ctx context.Context, articleID string) (*verification.Result, error)
	Proof(ctx context.Context, articleID string) (*verification.ProofRecord, error)
}

// ResultCache fronts the store for status lookups. May be nil.
type ResultCache interface {
	CacheResult(ctx context.Context, res *verification.Result) error
	CachedResult(ctx context.Context, articleID string) (*verification.Result, error)
}

// Publisher emits completed attempts to the event stream. May be nil.
type Publisher interface {
	Publish(ctx context.Context, res *verification.Result)
}

type News struct {
	verifier Verifier
	store    ResultStore
	cache    ResultCache
	events   Publisher
	log      *zap.Logger
}

func NewNews(verifier Verifier, store ResultStore, cache ResultCache, events Publisher, log *zap.Logger) News {
	if log == nil {
		log = zap.NewNop()
	}
	return News{verifier: verifier, store: store, cache: cache, events: events, log: log}
}

// Verify handles POST /api/v1/news/verify.
func (n News) Verify(c *gin.Context) {
	var article verification.Article
	if err := c.ShouldBindJSON(&article); err != nil {
		c.JSON(http.StatusBadRequest, errPayload(verification.ErrValidation, err.Error()))
		return
	}

	res, err := n.verifier.Verify(c.Request.Context(), &article)
	if err != nil {
		c.JSON(statusFor(err), errPayload(err, err.Error()))
		return
	}

	hash := verification.ArticleHash(article.Title, article.Content)
	// The ledger already holds the authoritative proof; a history row
	// failure degrades status lookups, not the verification itself.
	if err := n.store.SaveResult(c.Request.Context(), &article, res, verification.HashHex(hash)); err != nil {
		n.log.Error("persist result", zap.String("article_id", article.ID.String()), zap.Error(err))
	}
	if n.cache != nil {
		if err := n.cache.CacheResult(c.Request.Context(), res); err != nil {
			n.log.Debug("cache result", zap.Error(err))
		}
	}
	if n.events != nil {
		n.events.Publish(c.Request.Context(), res)
	}

	c.JSON(http.StatusOK, res)
}

// Status handles GET /api/v1/news/status/:article_id.
func (n News) Status(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}

	if n.cache != nil {
		if res, err := n.cache.CachedResult(c.Request.Context(), id); err == nil {
			c.JSON(http.StatusOK, res)
			return
		}
	}

	res, err := n.store.Result(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFor(err), errPayload(err, err.Error()))
		return
	}
	c.JSON(http.StatusOK, res)
}

// Proof handles GET /api/v1/news/proof/:article_id.
func (n News) Proof(c *gin.Context) {
	id, ok := articleID(c)
	if !ok {
		return
	}

	if n.cache != nil {
		if res, err := n.cache.CachedResult(c.Request.Context(), id); err == nil && res.Proof.TxHash != "" {
			c.JSON(http.StatusOK, res.Proof)
			return
		}
	}

	proof, err := n.store.Proof(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFor(err), errPayload(err, err.Error()))
		return
	}
	c.JSON(http.StatusOK, proof)
}

func articleID(c *gin.Context) (string, bool) {
	raw := c.Param("article_id")
	if _, err := uuid.Parse(raw); err != nil {
		c.JSON(http.StatusBadRequest, errPayload(verification.ErrValidation, "bad article id"))
		return "", false
	}
	return raw, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, verification.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, verification.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func errPayload(err error, msg string) gin.H {
	return gin.H{"err": msg, "code": verification.ErrorCode(err)}
}
