package schema

import (
	"strings"
	"testing"

	"github.com/careerforge/cvmatch/internal/core/domain"
)

func TestValidateAcceptsMinimalCV(t *testing.T) {
	value := map[string]any{
		"personal": map[string]any{"name": "Ada Lovelace"},
		"summary":  "Engineer.",
	}
	if err := Validate(domain.KindCV, value); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateRejectsUnknownCVField(t *testing.T) {
	value := map[string]any{
		"personal":  map[string]any{"name": "Ada"},
		"horoscope": "libra",
	}
	err := Validate(domain.KindCV, value)
	if !domain.IsKind(err, domain.ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput, got %v", err)
	}
}

func TestValidateRequiresJobTitle(t *testing.T) {
	err := Validate(domain.KindJob, map[string]any{"company": "Acme"})
	if !domain.IsKind(err, domain.ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput for missing title, got %v", err)
	}
}

func TestValidateRejectsWrongTypes(t *testing.T) {
	value := map[string]any{
		"title":        "Go Developer",
		"requirements": "5 years of Go",
	}
	err := Validate(domain.KindJob, value)
	if !domain.IsKind(err, domain.ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput for non-array requirements, got %v", err)
	}
}

func TestDecodeRejectsInvalidJSON(t *testing.T) {
	_, err := Decode(domain.KindCV, []byte("{not json"))
	if !domain.IsKind(err, domain.ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput, got %v", err)
	}
}

func TestPromptSchemaSelectsByKind(t *testing.T) {
	if !strings.Contains(PromptSchema(domain.KindJob), "employment_type") {
		t.Fatalf("job schema missing expected field")
	}
	if !strings.Contains(PromptSchema(domain.KindCV), "experience") {
		t.Fatalf("cv schema missing expected field")
	}
}
