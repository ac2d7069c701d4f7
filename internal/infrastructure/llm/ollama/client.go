// Package ollama implements generation and embedding against a local
// Ollama server. Every call goes through the shared resilience executor.
package ollama

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/careerforge/cvmatch/internal/core/domain"
	"github.com/careerforge/cvmatch/internal/infrastructure/resilience"
)

// defaultEmbedMaxRunes bounds embedding input. Truncation is rune-safe and
// identical at index and query time, so both sides embed the same text.
const defaultEmbedMaxRunes = 8000

// genTemperature keeps extraction output stable without pinning the model
// to a single completion. Ollama's default (0.8) is far too loose for
// schema-constrained output.
const genTemperature = 0.2

type Config struct {
	BaseURL       string
	GenModel      string
	EmbedModel    string
	EmbedMaxRunes int
	Timeout       time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(cfg Config, executor *resilience.Executor) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.EmbedMaxRunes <= 0 {
		cfg.EmbedMaxRunes = defaultEmbedMaxRunes
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		executor:   executor,
	}
}

// GenerateJSON asks the generation model for a JSON document using Ollama's
// JSON output mode.
func (c *Client) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	request := map[string]any{
		"model":  c.cfg.GenModel,
		"prompt": prompt,
		"stream": false,
		"format": "json",
		"options": map[string]any{
			"temperature": genTemperature,
		},
	}

	var response struct {
		Response string `json:"response"`
	}
	err := c.execute(ctx, "generate", func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/generate", request, &response, "generate")
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	text = truncateRunes(text, c.cfg.EmbedMaxRunes)
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrEmptyInput, "embed", errors.New("blank embedding input"))
	}

	request := map[string]any{
		"model": c.cfg.EmbedModel,
		"input": []string{text},
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	err := c.execute(ctx, "embed", func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/embed", request, &response, "embed")
	})
	if err != nil {
		return nil, err
	}
	if len(response.Embeddings) == 0 || len(response.Embeddings[0]) == 0 {
		return nil, domain.WrapError(domain.ErrEmptyResponse, "embed", errors.New("no embedding returned"))
	}
	return response.Embeddings[0], nil
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	err := c.executor.Execute(ctx, "ollama_"+operation, fn, classifyError)
	return wrapClientError(operation, err)
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
