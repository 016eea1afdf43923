package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestCompleteReturnsFirstChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req groqRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "llama-3.3-70b-versatile" {
			t.Errorf("unexpected model %q", req.Model)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("unexpected messages %#v", req.Messages)
		}
		json.NewEncoder(w).Encode(groqResponse{
			Choices: []groqChoice{{Message: groqMessage{Role: "assistant", Content: "SELECT 1"}}},
		})
	}))
	defer srv.Close()

	cfg := DefaultConfig("test-key")
	cfg.BaseURL = srv.URL
	p := New(cfg)

	out, err := p.Complete(context.Background(), "generate a query")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "SELECT 1" {
		t.Fatalf("expected SELECT 1, got %q", out)
	}
}

func TestCompleteRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(groqResponse{
			Choices: []groqChoice{{Message: groqMessage{Content: "ok"}}},
		})
	}))
	defer srv.Close()

	cfg := DefaultConfig("test-key")
	cfg.BaseURL = srv.URL
	cfg.MaxRetries = 2
	p := New(cfg)

	out, err := p.Complete(context.Background(), "q")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "ok" {
		t.Fatalf("expected ok, got %q", out)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestCompleteDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := DefaultConfig("bad-key")
	cfg.BaseURL = srv.URL
	cfg.MaxRetries = 3
	p := New(cfg)

	if _, err := p.Complete(context.Background(), "q"); err == nil {
		t.Fatal("expected error for 401 response")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 call, got %d", calls.Load())
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	p := New(&Config{})
	if _, err := p.Complete(context.Background(), "q"); err == nil {
		t.Fatal("expected error without API key")
	}
}
