package parser

import (
	"fmt"

	"github.com/careerforge/cvmatch/internal/core/domain"
	"github.com/careerforge/cvmatch/internal/infrastructure/llm/schema"
)

// maxDocRunes caps the document snippet in the prompt. CVs and postings
// that matter fit well under this; the tail of anything longer is
// boilerplate.
const maxDocRunes = 16000

func buildPrompt(kind domain.RecordKind, text string) string {
	subject := "a candidate's CV"
	if kind == domain.KindJob {
		subject = "a job posting"
	}

	return fmt.Sprintf(`You extract structured data from %s.
Return a single strict JSON object conforming to this JSON Schema.
Extract ALL entries of every list; do not truncate or summarize them.
Omit any field the document does not state. Never invent values.
No markdown, no commentary, no extra keys.

Schema:
%s

Document:
%s`, subject, schema.PromptSchema(kind), truncateRunes(text, maxDocRunes))
}

func buildRepairPrompt(kind domain.RecordKind, previous string, validationErr error) string {
	return fmt.Sprintf(`Your previous JSON output was rejected by the schema validator.
Error: %v

Return a corrected single strict JSON object conforming to this JSON Schema.
No markdown, no commentary, no extra keys.

Schema:
%s

Previous output:
%s`, validationErr, schema.PromptSchema(kind), truncateRunes(previous, maxDocRunes))
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
