package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/msrch/mailindex/internal/config"
	"github.com/msrch/mailindex/internal/engine"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()

	idx := engine.New()
	idx.Add(engine.Input{
		ID:        "1",
		Subject:   "Q1 Budget Review",
		From:      "cfo@acme.com",
		Snippet:   "please review the numbers",
		Date:      time.Now().UnixMilli(),
		IsStarred: true,
	})
	idx.Add(engine.Input{
		ID:      "2",
		Subject: "Team lunch",
		From:    "events@acme.com",
		Date:    time.Now().AddDate(0, 0, -10).UnixMilli(),
		IsRead:  true,
	})

	return NewServer(config.Default(), idx, testLogger())
}

func doRequest(t *testing.T, srv *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(t, srv, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestHandleSearch(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(t, srv, "GET", "/search?q=budget", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 || resp.Results[0].Email.ID != "1" {
		t.Errorf("search returned %+v; want single hit on id 1", resp)
	}
}

func TestHandleSearchOperators(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(t, srv, "GET", "/search?q=is:read", nil)

	var resp SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 1 || resp.Results[0].Email.ID != "2" {
		t.Errorf("operator search returned %+v; want only id 2", resp)
	}
}

func TestHandleSearchNoMatches(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(t, srv, "GET", "/search?q=zzzzzzz&fuzzy=false", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 0 || resp.Results == nil {
		t.Errorf("empty search should return an empty, non-null list: %+v", resp)
	}
}

func TestHandleSuggest(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(t, srv, "GET", "/suggest?prefix=bud", nil)

	var resp SuggestResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Suggestions) != 1 || resp.Suggestions[0] != "budget" {
		t.Errorf("suggestions = %v; want [budget]", resp.Suggestions)
	}
}

func TestHandleStats(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(t, srv, "GET", "/stats", nil)

	var stats engine.Stats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.TotalIndexed != 2 {
		t.Errorf("totalIndexed = %d; want 2", stats.TotalIndexed)
	}
	if stats.IndexSizeBytes <= 0 {
		t.Errorf("indexSizeBytes = %d; want > 0", stats.IndexSizeBytes)
	}
}

func TestHandleUpsert(t *testing.T) {
	srv := newTestServer(t)

	body := []byte(`{"id":"3","subject":"Roadmap draft","from":"pm@acme.com"}`)
	w := doRequest(t, srv, "POST", "/emails", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp UpsertResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Indexed != 1 || resp.IDs[0] != "3" {
		t.Errorf("upsert response = %+v", resp)
	}

	w = doRequest(t, srv, "GET", "/search?q=roadmap", nil)
	var search SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&search); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if search.Total != 1 || search.Results[0].Email.ID != "3" {
		t.Errorf("upserted record not searchable: %+v", search)
	}
}

func TestHandleUpsertAssignsID(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, "POST", "/emails", []byte(`{"subject":"No id supplied"}`))
	var resp UpsertResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Indexed != 1 || len(resp.IDs) != 1 || resp.IDs[0] == "" {
		t.Errorf("expected a generated id, got %+v", resp)
	}
}

func TestHandleUpsertInvalidBody(t *testing.T) {
	srv := newTestServer(t)
	w := doRequest(t, srv, "POST", "/emails", []byte(`{not json`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleBulkUpsert(t *testing.T) {
	srv := newTestServer(t)

	body := []byte(`[{"id":"10","subject":"first"},{"id":"11","subject":"second"}]`)
	w := doRequest(t, srv, "POST", "/emails/bulk", body)

	var resp UpsertResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Indexed != 2 {
		t.Errorf("indexed = %d; want 2", resp.Indexed)
	}
}

func TestHandleRemove(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, "DELETE", "/emails/1", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}

	// idempotent: removing again is still 204
	w = doRequest(t, srv, "DELETE", "/emails/1", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("second delete status = %d, want %d", w.Code, http.StatusNoContent)
	}

	w = doRequest(t, srv, "GET", "/search?q=budget", nil)
	var search SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&search); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if search.Total != 0 {
		t.Errorf("removed record still searchable: %+v", search)
	}
}

func TestHandleSnapshotRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	w := doRequest(t, srv, "GET", "/snapshot", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	exported := w.Body.Bytes()

	// wipe through import of an empty snapshot, then restore
	w = doRequest(t, srv, "POST", "/snapshot", []byte(`{"emails":[]}`))
	if w.Code != http.StatusOK {
		t.Fatalf("empty import status = %d", w.Code)
	}
	var stats engine.Stats
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.TotalIndexed != 0 {
		t.Fatalf("totalIndexed after empty import = %d", stats.TotalIndexed)
	}

	w = doRequest(t, srv, "POST", "/snapshot", exported)
	if err := json.NewDecoder(w.Body).Decode(&stats); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if stats.TotalIndexed != 2 {
		t.Errorf("totalIndexed after restore = %d; want 2", stats.TotalIndexed)
	}
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := config.Default()
	cfg.Server.APIKey = "sekrit"
	srv := NewServer(cfg, engine.New(), testLogger())

	w := doRequest(t, srv, "GET", "/search?q=x", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing key status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	req := httptest.NewRequest("GET", "/search?q=x", nil)
	req.Header.Set("X-API-Key", "sekrit")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid key status = %d, want %d", rec.Code, http.StatusOK)
	}

	// health stays reachable without the key
	w = doRequest(t, srv, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("burst requests should be allowed")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("request beyond burst should be limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Error("limits must be tracked per client")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := config.Default()
	cfg.Server.RateLimitRPS = 1
	cfg.Server.RateLimitBurst = 3
	srv := NewServer(cfg, engine.New(), testLogger())

	var lastCode int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/health", nil)
		req.RemoteAddr = "192.0.2.7:1234"
		w := httptest.NewRecorder()
		srv.Router().ServeHTTP(w, req)
		lastCode = w.Code
	}
	if lastCode != http.StatusTooManyRequests {
		t.Errorf("status after exhausting burst = %d, want %d", lastCode, http.StatusTooManyRequests)
	}
}
