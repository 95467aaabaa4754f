// Minimal end‑to‑end integration test for the verification API.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/google/uuid"
)

var baseURL = getenv("API_URL", "http://localhost:8080")

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	id := uuid.New()

	status := submitArticle(id)
	checkStatus(id, status)
	checkProof(id)
	checkIdempotent(id)
	checkHealth()

	fmt.Println("✓ all endpoints passed")
}

// ----------------------------- verify

func submitArticle(id uuid.UUID) string {
	var resp struct {
		Status string `json:"status"`
		Proof  struct {
			TxHash string `json:"transaction_hash"`
		} `json:"ledger_proof"`
	}
	doJSON("POST", "/api/v1/news/verify", articlePayload(id), &resp, http.StatusOK)
	if resp.Status == "" {
		log.Fatal("verify: empty status")
	}
	if resp.Proof.TxHash == "" {
		log.Fatal("verify: empty transaction hash")
	}
	return resp.Status
}

func checkIdempotent(id uuid.UUID) {
	var first, second struct {
		Proof struct {
			TxHash string `json:"transaction_hash"`
		} `json:"ledger_proof"`
	}
	doJSON("POST", "/api/v1/news/verify", articlePayload(id), &first, http.StatusOK)
	doJSON("POST", "/api/v1/news/verify", articlePayload(id), &second, http.StatusOK)
	if first.Proof.TxHash != second.Proof.TxHash {
		log.Fatalf("idempotency: tx hash changed %s -> %s", first.Proof.TxHash, second.Proof.TxHash)
	}
}

// ----------------------------- status / proof

func checkStatus(id uuid.UUID, want string) {
	var resp struct {
		Status string `json:"status"`
	}
	doJSON("GET", "/api/v1/news/status/"+id.String(), nil, &resp, http.StatusOK)
	if resp.Status != want {
		log.Fatalf("status: want %q got %q", want, resp.Status)
	}
}

func checkProof(id uuid.UUID) {
	var resp struct {
		TxHash string `json:"transaction_hash"`
		State  string `json:"contract_state"`
	}
	doJSON("GET", "/api/v1/news/proof/"+id.String(), nil, &resp, http.StatusOK)
	if resp.TxHash == "" {
		log.Fatal("proof: empty transaction hash")
	}
	if resp.State != "verified" && resp.State != "pending" {
		log.Fatalf("proof: unexpected state %q", resp.State)
	}
}

func checkHealth() {
	res, err := http.Get(baseURL + "/health")
	if err != nil {
		log.Fatalf("health: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		log.Fatalf("health: got %d", res.StatusCode)
	}
}

// ----------------------------- helpers

func articlePayload(id uuid.UUID) map[string]any {
	return map[string]any{
		"id":    id.String(),
		"title": "Integration test article",
		"content": "The committee published its findings on Monday, according to a " +
			"statement from the ministry. Officials at Reuters confirmed the report.",
		"source_url":   "https://example.com/integration-test",
		"published_at": "2026-01-01T00:00:00Z",
	}
}

func doJSON(method, path string, body, out any, want int) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("%s %s encode: %v", method, path, err)
		}
	}
	req, _ := http.NewRequest(method, baseURL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != want {
		log.Fatalf("%s %s: want %d got %d", method, path, want, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("%s %s decode: %v", method, path, err)
		}
	}
}
