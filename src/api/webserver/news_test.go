package webserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/chainpress/newsverify/src/api/config"
	"github.com/chainpress/newsverify/src/api/webserver"
	"github.com/chainpress/newsverify/src/verification"
)

type stubVerifier struct {
	result *verification.Result
	err    error
}

func (s *stubVerifier) Verify(_ context.Context, article *verification.Article) (*verification.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	res := *s.result
	res.ArticleID = article.ID
	return &res, nil
}

type stubStore struct {
	results map[string]*verification.Result
	saved   int
}

func newStubStore() *stubStore {
	return &stubStore{results: make(map[string]*verification.Result)}
}

func (s *stubStore) SaveResult(_ context.Context, _ *verification.Article, res *verification.Result, _ string) error {
	s.saved++
	s.results[res.ArticleID.String()] = res
	return nil
}

func (s *stubStore) Result(_ context.Context, articleID string) (*verification.Result, error) {
	res, ok := s.results[articleID]
	if !ok {
		return nil, fmt.Errorf("%w: article %s", verification.ErrNotFound, articleID)
	}
	return res, nil
}

func (s *stubStore) Proof(_ context.Context, articleID string) (*verification.ProofRecord, error) {
	res, err := s.Result(context.Background(), articleID)
	if err != nil {
		return nil, err
	}
	return &res.Proof, nil
}

func verifiedResult() *verification.Result {
	return &verification.Result{
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
			TxHash:      "0xfeed",
			BlockNumber: 42,
			Timestamp:   time.Now().UTC(),
			State:       verification.ProofStateVerified,
		},
		Status:     verification.StatusVerified,
		VerifiedAt: time.Now().UTC(),
	}
}

func newTestRouter(verifier webserver.Verifier, store webserver.ResultStore) http.Handler {
	newsH := webserver.NewNews(verifier, store, nil, nil, nil)
	return webserver.New(config.Config{RateLimit: 1000}, newsH, nil)
}

func articleBody(t *testing.T) []byte {
	t.Helper()
	raw, err := json.Marshal(verification.Article{
		ID:      uuid.New(),
		Title:   "Test Article",
		Content: "This is a test article content.",
	})
	require.NoError(t, err)
	return raw
}

func TestVerifyEndpoint(t *testing.T) {
	store := newStubStore()
	router := newTestRouter(&stubVerifier{result: verifiedResult()}, store)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/news/verify", bytes.NewReader(articleBody(t)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var res verification.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.Equal(t, verification.StatusVerified, res.Status)
	require.Equal(t, "0xfeed", res.Proof.TxHash)
	require.Equal(t, 1, store.saved)
}

func TestVerifyEndpointMalformedBody(t *testing.T) {
	router := newTestRouter(&stubVerifier{result: verifiedResult()}, newStubStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/news/verify", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "validation_error")
}

func TestVerifyEndpointErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
		code string
	}{
		{"validation", fmt.Errorf("%w: empty content", verification.ErrValidation), http.StatusBadRequest, "validation_error"},
		{"analysis failed", fmt.Errorf("%w: bad input", verification.ErrAnalysisFailed), http.StatusInternalServerError, "analysis_failed"},
		{"analysis unavailable", fmt.Errorf("%w: model gone", verification.ErrAnalysisUnavailable), http.StatusInternalServerError, "analysis_unavailable"},
		{"submission failed", fmt.Errorf("%w: rpc down", verification.ErrSubmissionFailed), http.StatusInternalServerError, "submission_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(&stubVerifier{err: tt.err}, newStubStore())

			req := httptest.NewRequest(http.MethodPost, "/api/v1/news/verify", bytes.NewReader(articleBody(t)))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.want, w.Code)
			require.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestStatusEndpoint(t *testing.T) {
	store := newStubStore()
	res := verifiedResult()
	res.ArticleID = uuid.New()
	store.results[res.ArticleID.String()] = res

	router := newTestRouter(&stubVerifier{}, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/news/status/"+res.ArticleID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var got verification.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Equal(t, res.ArticleID, got.ArticleID)
}

func TestStatusEndpointNotFound(t *testing.T) {
	router := newTestRouter(&stubVerifier{}, newStubStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/news/status/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "not_found")
}

func TestStatusEndpointBadID(t *testing.T) {
	router := newTestRouter(&stubVerifier{}, newStubStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/news/status/not-a-uuid", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProofEndpoint(t *testing.T) {
	store := newStubStore()
	res := verifiedResult()
	res.ArticleID = uuid.New()
	store.results[res.ArticleID.String()] = res

	router := newTestRouter(&stubVerifier{}, store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/news/proof/"+res.ArticleID.String(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var proof verification.ProofRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &proof))
	require.Equal(t, "0xfeed", proof.TxHash)
	require.Equal(t, uint64(42), proof.BlockNumber)
}

func TestProofEndpointNotFound(t *testing.T) {
	router := newTestRouter(&stubVerifier{}, newStubStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/news/proof/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(&stubVerifier{}, newStubStore())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())
}
