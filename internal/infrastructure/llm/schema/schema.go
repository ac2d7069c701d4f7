// Package schema holds the JSON Schemas that constrain model output for
// structured CV and job parsing. The same document is embedded into the
// prompt and used to validate what comes back.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/careerforge/cvmatch/internal/core/domain"
)

//go:embed cv_profile.json
var cvProfileJSON []byte

//go:embed job_posting.json
var jobPostingJSON []byte

var (
	cvSchema  *openapi3.Schema
	jobSchema *openapi3.Schema
)

func init() {
	cvSchema = mustParse(cvProfileJSON)
	jobSchema = mustParse(jobPostingJSON)
}

func mustParse(raw []byte) *openapi3.Schema {
	var s openapi3.Schema
	if err := s.UnmarshalJSON(raw); err != nil {
		panic(fmt.Sprintf("schema: embedded schema is invalid: %v", err))
	}
	return &s
}

// PromptSchema returns the raw schema document for inclusion in a prompt.
func PromptSchema(kind domain.RecordKind) string {
	if kind == domain.KindJob {
		return string(jobPostingJSON)
	}
	return string(cvProfileJSON)
}

// Validate checks decoded model output against the schema for the kind.
func Validate(kind domain.RecordKind, value any) error {
	s := cvSchema
	if kind == domain.KindJob {
		s = jobSchema
	}
	if err := s.VisitJSON(value); err != nil {
		return domain.WrapError(domain.ErrMalformedOutput, "validate model output", err)
	}
	return nil
}

// Decode unmarshals raw model JSON and validates it in one step. The
// returned value is the generic decoded form used for validation.
func Decode(kind domain.RecordKind, raw []byte) (any, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, domain.WrapError(domain.ErrMalformedOutput, "decode model output", err)
	}
	if err := Validate(kind, value); err != nil {
		return nil, err
	}
	return value, nil
}
