package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/chainpress/newsverify/src/verification"
	"github.com/chainpress/newsverify/src/webclient"
)

func init() {
	Register("remote", newRemote, "openai", "inference")
}

const remoteSystemPrompt = `You are a news credibility analysis model. ` +
	`Given an article body, respond with ONLY a JSON object: ` +
	`{"fact_check_score":0..1,"source_reliability":0..1,"content_quality":0..1,` +
	`"bias_detection":0..1,"detected_entities":["..."],"confidence_scores":{"fact_check":0..1}}`

// Remote runs analysis against an OpenAI-compatible chat-completions
// endpoint. Model output is untrusted: scores are clamped and entities
// deduplicated before anything downstream sees them.
type Remote struct {
	endpoint   string
	apiKey     string
	model      string
	httpClient *http.Client
}

func newRemote(cfg Config) (verification.Analyzer, error) {
	if cfg.Endpoint == "" || cfg.Model == "" {
		return nil, fmt.Errorf("%w: remote backend needs endpoint and model", verification.ErrAnalysisUnavailable)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Remote{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: webclient.NewDefault(timeout),
	}, nil
}

func (r *Remote) Analyze(ctx context.Context, text string) (*verification.AIAnalysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty content", verification.ErrAnalysisFailed)
	}

	reqBody, err := json.Marshal(map[string]any{
		"model": r.model,
		"messages": []map[string]string{
			{"role": "system", "content": remoteSystemPrompt},
			{"role": "user", "content": text},
		},
		"temperature": 0,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", verification.ErrAnalysisFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", verification.ErrAnalysisUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	// Inference is never retried: the input is untrusted and a second pass
	// over the same bad input will not succeed.
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", verification.ErrAnalysisUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", verification.ErrAnalysisUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: inference endpoint %s: %s", verification.ErrAnalysisUnavailable, resp.Status, strings.TrimSpace(string(body)))
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("%w: decode completion: %v", verification.ErrAnalysisFailed, err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", verification.ErrAnalysisFailed)
	}

	var analysis verification.AIAnalysis
	if err := json.Unmarshal([]byte(extractJSON(completion.Choices[0].Message.Content)), &analysis); err != nil {
		return nil, fmt.Errorf("%w: model returned non-JSON analysis: %v", verification.ErrAnalysisFailed, err)
	}

	analysis.DetectedEntities = dedupeEntities(analysis.DetectedEntities)
	if analysis.ConfidenceScores == nil {
		analysis.ConfidenceScores = map[string]float64{}
	}
	clampAnalysis(&analysis)
	return &analysis, nil
}

// extractJSON trims chat framing (code fences, prose) around the JSON body.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return s
	}
	return s[start : end+1]
}
