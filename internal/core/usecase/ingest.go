package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/careerforge/cvmatch/internal/core/domain"
	"github.com/careerforge/cvmatch/internal/core/ports"
)

// Media types accepted for upload. Dispatch is strict: anything else is
// rejected before touching storage.
const (
	MediaTypePDF  = "application/pdf"
	MediaTypeDOC  = "application/msword"
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

func SupportedMediaType(mediaType string) bool {
	switch NormalizeMediaType(mediaType) {
	case MediaTypePDF, MediaTypeDOC, MediaTypeDOCX:
		return true
	default:
		return false
	}
}

// NormalizeMediaType lowercases the declared media type and strips any
// parameters (charset, boundary).
func NormalizeMediaType(mediaType string) string {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

type IngestRecordUseCase struct {
	repo    ports.RecordRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
}

func NewIngestRecordUseCase(
	repo ports.RecordRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestRecordUseCase {
	return &IngestRecordUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
	}
}

func (uc *IngestRecordUseCase) Upload(
	ctx context.Context,
	ownerID string,
	kind domain.RecordKind,
	filename, mediaType string,
	body io.Reader,
) (*domain.Record, error) {
	if !kind.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", fmt.Errorf("unknown record kind %q", kind))
	}
	if !SupportedMediaType(mediaType) {
		return nil, domain.WrapError(domain.ErrUnsupportedFormat, "upload", fmt.Errorf("media type %q", mediaType))
	}
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload", errors.New("owner id is required"))
	}

	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	written, err := uc.storage.Save(ctx, storageKey, body)
	if err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}
	if written == 0 {
		_ = uc.storage.Remove(ctx, storageKey)
		return nil, domain.WrapError(domain.ErrEmptyInput, "upload", errors.New("zero-byte document"))
	}

	rec := &domain.Record{
		ID:          id,
		OwnerID:     ownerID,
		Kind:        kind,
		Filename:    filename,
		MediaType:   NormalizeMediaType(mediaType),
		StoragePath: storageKey,
		Status:      domain.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.Create(ctx, rec); err != nil {
		_ = uc.storage.Remove(ctx, storageKey)
		return nil, fmt.Errorf("create record: %w", err)
	}

	if err := uc.queue.PublishRecordIngested(ctx, rec.ID); err != nil {
		// Without the event the record would sit in uploaded forever, so
		// undo the whole upload rather than leave it half-ingested.
		_ = uc.repo.Delete(ctx, rec.ID)
		_ = uc.storage.Remove(ctx, storageKey)
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return rec, nil
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.bin"
	}
	return base
}
