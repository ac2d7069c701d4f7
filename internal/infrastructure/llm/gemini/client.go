// Package gemini implements generation and embedding against the Gemini
// API. It is the hosted alternative to the local ollama backend and serves
// the same Generator and Embedder contracts.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/careerforge/cvmatch/internal/core/domain"
	"github.com/careerforge/cvmatch/internal/infrastructure/resilience"
)

const (
	defaultGenModel   = "gemini-2.5-flash"
	defaultEmbedModel = "gemini-embedding-001"

	defaultEmbedMaxRunes = 8000
)

type Config struct {
	APIKey        string
	GenModel      string
	EmbedModel    string
	EmbedDim      int32
	EmbedMaxRunes int
}

type Client struct {
	client   *genai.Client
	cfg      Config
	executor *resilience.Executor
}

func New(ctx context.Context, cfg Config, executor *resilience.Executor) (*Client, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if cfg.GenModel = strings.TrimSpace(cfg.GenModel); cfg.GenModel == "" {
		cfg.GenModel = defaultGenModel
	}
	if cfg.EmbedModel = strings.TrimSpace(cfg.EmbedModel); cfg.EmbedModel == "" {
		cfg.EmbedModel = defaultEmbedModel
	}
	if cfg.EmbedMaxRunes <= 0 {
		cfg.EmbedMaxRunes = defaultEmbedMaxRunes
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{client: client, cfg: cfg, executor: executor}, nil
}

// GenerateJSON asks Gemini for a JSON document. The response MIME type pins
// the model to JSON output; low temperature keeps extraction stable.
func (c *Client) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "generate", errors.New("prompt must not be empty"))
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.2),
	}

	var out string
	err := c.execute(ctx, "generate", func(ctx context.Context) error {
		resp, err := c.client.Models.GenerateContent(ctx, c.cfg.GenModel, genai.Text(prompt), config)
		if err != nil {
			return fmt.Errorf("generate content: %w", err)
		}
		out = collectText(resp)
		return nil
	})
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", domain.WrapError(domain.ErrEmptyResponse, "generate", errors.New("gemini returned no text"))
	}
	return out, nil
}

func (c *Client) EmbedText(ctx context.Context, text string) ([]float32, error) {
	text = truncateRunes(text, c.cfg.EmbedMaxRunes)
	if strings.TrimSpace(text) == "" {
		return nil, domain.WrapError(domain.ErrEmptyInput, "embed", errors.New("blank embedding input"))
	}

	var config *genai.EmbedContentConfig
	if c.cfg.EmbedDim > 0 {
		config = &genai.EmbedContentConfig{OutputDimensionality: genai.Ptr(c.cfg.EmbedDim)}
	}

	var vector []float32
	err := c.execute(ctx, "embed", func(ctx context.Context) error {
		resp, err := c.client.Models.EmbedContent(ctx, c.cfg.EmbedModel, genai.Text(text), config)
		if err != nil {
			return fmt.Errorf("embed content: %w", err)
		}
		if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
			return domain.WrapError(domain.ErrEmptyResponse, "embed", errors.New("no embedding returned"))
		}
		vector = resp.Embeddings[0].Values
		return nil
	})
	if err != nil {
		return nil, err
	}
	return vector, nil
}

func (c *Client) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	err := c.executor.Execute(ctx, "gemini_"+operation, fn, classifyError)
	return wrapClientError(operation, err)
}

func collectText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(text)
		}
	}
	return strings.TrimSpace(b.String())
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
