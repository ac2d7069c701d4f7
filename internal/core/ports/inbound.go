package ports

import (
	"context"
	"io"

	"github.com/careerforge/cvmatch/internal/core/domain"
)

// RecordIngestor is the inbound contract for document upload orchestration.
type RecordIngestor interface {
	Upload(ctx context.Context, ownerID string, kind domain.RecordKind, filename, mediaType string, body io.Reader) (*domain.Record, error)
}

// RecordProcessor runs the asynchronous extract→parse→embed→index pipeline.
// ReindexByID re-embeds and re-upserts from the persisted structured record;
// it is the repair path for the two-phase write and is idempotent per record.
type RecordProcessor interface {
	ProcessByID(ctx context.Context, recordID string) error
	ReindexByID(ctx context.Context, recordID string) error
}

// RecordMatcher ranks records of the opposite kind by semantic similarity.
// Score returns 0 when no indexed vector matches the target; absence of a
// match is a valid outcome, not an error.
type RecordMatcher interface {
	MatchCvToJobs(ctx context.Context, ownerID, cvID string, topK int) ([]domain.MatchResult, error)
	MatchJobToCvs(ctx context.Context, ownerID, jobID string, topK int) ([]domain.MatchResult, error)
	Score(ctx context.Context, ownerID, cvID, jobID string) (float64, error)
}

// RecordReader is the owner-scoped read model for record state.
type RecordReader interface {
	GetOwned(ctx context.Context, ownerID, recordID string) (*domain.Record, error)
}

// RecordDeleter removes a record together with its vector and stored file.
type RecordDeleter interface {
	Delete(ctx context.Context, ownerID, recordID string) error
}
