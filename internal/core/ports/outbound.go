package ports

import (
	"context"
	"io"

	"github.com/careerforge/cvmatch/internal/core/domain"
)

// RecordRepository persists record state. The structured payload lives here;
// the vector index is a secondary index, never the source of truth.
type RecordRepository interface {
	Create(ctx context.Context, rec *domain.Record) error
	GetByID(ctx context.Context, id string) (*domain.Record, error)
	SaveStructured(ctx context.Context, id string, structured *domain.StructuredRecord) error
	UpdateStatus(ctx context.Context, id string, status domain.RecordStatus, errMessage string) error
	Delete(ctx context.Context, id string) error
}

// ObjectStorage retains the original uploaded file.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// RecordEventHandler receives a pipeline event. reindex distinguishes a
// fresh ingest (full pipeline) from a re-index request (embed+upsert only).
type RecordEventHandler func(ctx context.Context, recordID string, reindex bool) error

// MessageQueue publishes and consumes pipeline events.
type MessageQueue interface {
	PublishRecordIngested(ctx context.Context, recordID string) error
	PublishReindexRequested(ctx context.Context, recordID string) error
	SubscribeRecordEvents(ctx context.Context, handler RecordEventHandler) error
}

// TextExtractor converts a stored document into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, rec *domain.Record) (domain.Extraction, error)
}

// RecordParser turns extracted text into a validated structured record of
// the requested kind. It never returns a partially-typed result.
type RecordParser interface {
	Parse(ctx context.Context, text string, kind domain.RecordKind) (*domain.StructuredRecord, error)
}

// Embedder builds a fixed-dimension vector for a text. Over-budget input is
// truncated deterministically, identically at index and query time.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex is the nearest-neighbor store. Upsert is idempotent per key.
type VectorIndex interface {
	Upsert(ctx context.Context, key string, vector []float32, meta domain.VectorMeta) error
	Query(ctx context.Context, vector []float32, filter domain.VectorFilter, topK int) ([]domain.VectorHit, error)
	Delete(ctx context.Context, key string) error
}

// MatchReportWriter renders ranked matches into a downloadable report.
type MatchReportWriter interface {
	WriteMatches(source *domain.Record, matches []domain.MatchResult) ([]byte, error)
}
