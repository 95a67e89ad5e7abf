package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEmbedOrdersVectorsByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("unexpected auth header %q", got)
		}

		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Input) != 2 {
			t.Fatalf("expected 2 inputs, got %d", len(req.Input))
		}

		// Deliberately out of order.
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 1, "embedding": []float32{2, 2}},
				{"index": 0, "embedding": []float32{1, 1}},
			},
		})
	}))
	defer server.Close()

	client, err := New(server.URL, "test-key", "test-model")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	vectors, err := client.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if vectors[0][0] != 1 || vectors[1][0] != 2 {
		t.Fatalf("vectors not reordered by index: %v", vectors)
	}
}

func TestEmbedEmptyInputSkipsRequest(t *testing.T) {
	client, err := New("http://localhost:1", "key", "model")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	vectors, err := client.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if vectors != nil {
		t.Fatalf("expected nil vectors for empty input")
	}
}

func TestEmbedReturnsStatusErrorWithBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer server.Close()

	client, err := New(server.URL, "bad-key", "test-model")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = client.Embed(context.Background(), []string{"text"})
	if err == nil {
		t.Fatalf("expected error")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", statusErr.StatusCode)
	}
	if statusErr.Body == "" {
		t.Fatalf("expected response body in error")
	}
}

func TestEmbedRejectsCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"index": 0, "embedding": []float32{1}},
			},
		})
	}))
	defer server.Close()

	client, err := New(server.URL, "key", "model")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = client.Embed(context.Background(), []string{"a", "b"})
	if err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestNewRequiresConfiguration(t *testing.T) {
	if _, err := New("", "key", "model"); err == nil {
		t.Fatalf("expected error for missing base URL")
	}
	if _, err := New("http://localhost", "", "model"); err == nil {
		t.Fatalf("expected error for missing API key")
	}
	if _, err := New("http://localhost", "key", ""); err == nil {
		t.Fatalf("expected error for missing model")
	}
}
