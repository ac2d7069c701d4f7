// Package parser turns extracted document text into validated structured
// records via a JSON-mode language model. It is provider-agnostic; ollama
// and gemini plug in through the Generator interface.
package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/careerforge/cvmatch/internal/core/domain"
	"github.com/careerforge/cvmatch/internal/infrastructure/llm/schema"
)

// Generator produces a JSON document for a prompt. Implementations are
// expected to request the provider's JSON output mode.
type Generator interface {
	GenerateJSON(ctx context.Context, prompt string) (string, error)
}

type Parser struct {
	generator Generator
	logger    *slog.Logger
}

func New(generator Generator, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{generator: generator, logger: logger}
}

// Parse extracts a structured record of the given kind from document text.
// Schema-invalid output gets exactly one repair round-trip carrying the
// validation error; a second failure surfaces as ErrMalformedOutput.
func (p *Parser) Parse(ctx context.Context, text string, kind domain.RecordKind) (*domain.StructuredRecord, error) {
	raw, err := p.generate(ctx, buildPrompt(kind, text))
	if err != nil {
		return nil, err
	}

	structured, decodeErr := p.decode(kind, raw)
	if decodeErr == nil {
		return structured, nil
	}
	if !domain.IsKind(decodeErr, domain.ErrMalformedOutput) {
		return nil, decodeErr
	}

	p.logger.Warn("model_output_repair", "kind", kind, "error", decodeErr)
	raw, err = p.generate(ctx, buildRepairPrompt(kind, raw, decodeErr))
	if err != nil {
		return nil, err
	}
	structured, decodeErr = p.decode(kind, raw)
	if decodeErr != nil {
		return nil, decodeErr
	}
	return structured, nil
}

func (p *Parser) generate(ctx context.Context, prompt string) (string, error) {
	raw, err := p.generator.GenerateJSON(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate structured output: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", domain.WrapError(domain.ErrEmptyResponse, "generate structured output", errors.New("blank response"))
	}
	return raw, nil
}

func (p *Parser) decode(kind domain.RecordKind, raw string) (*domain.StructuredRecord, error) {
	candidate := extractJSONObject(stripFences(raw))
	value, err := schema.Decode(kind, []byte(candidate))
	if err != nil {
		return nil, err
	}

	// Round-trip through the validated generic form so the typed decode can
	// never diverge from what the schema accepted.
	normalized, err := json.Marshal(value)
	if err != nil {
		return nil, domain.WrapError(domain.ErrMalformedOutput, "decode model output", err)
	}

	if kind == domain.KindJob {
		var job domain.JobPosting
		if err := json.Unmarshal(normalized, &job); err != nil {
			return nil, domain.WrapError(domain.ErrMalformedOutput, "decode model output", err)
		}
		job.Normalize()
		if job.Title == "" {
			return nil, domain.WrapError(domain.ErrMalformedOutput, "decode model output", errors.New("job title is blank"))
		}
		return &domain.StructuredRecord{Job: &job}, nil
	}

	var cv domain.CVProfile
	if err := json.Unmarshal(normalized, &cv); err != nil {
		return nil, domain.WrapError(domain.ErrMalformedOutput, "decode model output", err)
	}
	cv.Normalize()
	return &domain.StructuredRecord{CV: &cv}, nil
}

// stripFences removes a markdown code fence wrapper if the model added one
// despite JSON mode.
func stripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
