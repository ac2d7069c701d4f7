package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/careerforge/cvmatch/internal/core/domain"
	"github.com/careerforge/cvmatch/internal/infrastructure/resilience"
)

func testExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Policy{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
		Multiplier:     2,
		BreakerEnabled: false,
	}, nil)
}

func TestGenerateJSONUsesJSONMode(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":"{\"title\":\"Go Developer\"}"}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, GenModel: "gen", EmbedModel: "embed"}, testExecutor())
	out, err := client.GenerateJSON(context.Background(), "extract this")
	if err != nil {
		t.Fatalf("GenerateJSON() error = %v", err)
	}
	if !strings.Contains(out, "Go Developer") {
		t.Fatalf("unexpected output %q", out)
	}
	if captured["format"] != "json" {
		t.Fatalf("expected json format flag, got %v", captured["format"])
	}
	if captured["model"] != "gen" {
		t.Fatalf("expected generation model, got %v", captured["model"])
	}
	options, ok := captured["options"].(map[string]any)
	if !ok {
		t.Fatalf("expected options object, got %v", captured["options"])
	}
	if options["temperature"] != 0.2 {
		t.Fatalf("expected temperature 0.2, got %v", options["temperature"])
	}
}

func TestEmbedTextTruncatesInput(t *testing.T) {
	var captured struct {
		Input []string `json:"input"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2,0.3]]}`))
	}))
	defer server.Close()

	client := New(Config{
		BaseURL:       server.URL,
		EmbedModel:    "embed",
		EmbedMaxRunes: 10,
	}, testExecutor())

	vector, err := client.EmbedText(context.Background(), strings.Repeat("é", 40))
	if err != nil {
		t.Fatalf("EmbedText() error = %v", err)
	}
	if len(vector) != 3 {
		t.Fatalf("unexpected vector %v", vector)
	}
	if got := len([]rune(captured.Input[0])); got != 10 {
		t.Fatalf("expected 10-rune truncated input, got %d runes", got)
	}
}

func TestEmbedTextRejectsBlankInput(t *testing.T) {
	client := New(Config{BaseURL: "http://unused"}, testExecutor())

	_, err := client.EmbedText(context.Background(), "   \n ")
	if !domain.IsKind(err, domain.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestRetryableStatusRetriesThenWrapsTemporary(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, GenModel: "gen"}, testExecutor())
	_, err := client.GenerateJSON(context.Background(), "prompt")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
	if !strings.Contains(err.Error(), "overloaded") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestConnectionFailureBecomesModelUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client := New(Config{BaseURL: server.URL, GenModel: "gen"}, testExecutor())
	_, err := client.GenerateJSON(context.Background(), "prompt")
	if !domain.IsKind(err, domain.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestEmptyEmbeddingResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[]}`))
	}))
	defer server.Close()

	client := New(Config{BaseURL: server.URL, EmbedModel: "embed"}, testExecutor())
	_, err := client.EmbedText(context.Background(), "text")
	if !domain.IsKind(err, domain.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}
