package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/careerforge/cvmatch/internal/core/domain"
	"github.com/careerforge/cvmatch/internal/core/ports"
)

// ProcessRecordUseCase runs the ingestion pipeline for a single record in
// strict stage order: extract → parse → persist structured → embed → index.
// Stages for different records never interact; the use case is stateless.
type ProcessRecordUseCase struct {
	repo      ports.RecordRepository
	extractor ports.TextExtractor
	parser    ports.RecordParser
	embedder  ports.Embedder
	index     ports.VectorIndex
}

func NewProcessRecordUseCase(
	repo ports.RecordRepository,
	extractor ports.TextExtractor,
	parser ports.RecordParser,
	embedder ports.Embedder,
	index ports.VectorIndex,
) *ProcessRecordUseCase {
	return &ProcessRecordUseCase{
		repo:      repo,
		extractor: extractor,
		parser:    parser,
		embedder:  embedder,
		index:     index,
	}
}

func (uc *ProcessRecordUseCase) ProcessByID(ctx context.Context, recordID string) error {
	if err := uc.repo.UpdateStatus(ctx, recordID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	rec, err := uc.repo.GetByID(ctx, recordID)
	if err != nil {
		return fmt.Errorf("fetch record by id: %w", err)
	}

	structured, err := uc.extractAndParse(ctx, rec)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, recordID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SaveStructured(ctx, recordID, structured); err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, recordID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return fmt.Errorf("save structured record: %w", err)
	}
	rec.Structured = structured

	// From here on the structured record is durable. Embedding/indexing
	// failure leaves the record usable but unsearchable (status=parsed with
	// the error recorded); ReindexByID closes the gap later.
	if err := uc.embedAndIndex(ctx, rec); err != nil {
		if noteErr := uc.repo.UpdateStatus(ctx, recordID, domain.StatusParsed, err.Error()); noteErr != nil {
			return fmt.Errorf("%w; record index error: %v", err, noteErr)
		}
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, recordID, domain.StatusIndexed, ""); err != nil {
		return fmt.Errorf("set status=indexed: %w", err)
	}
	return nil
}

// ReindexByID re-derives, re-embeds and re-upserts a record's vector from
// its persisted structured payload. Safe to call any number of times.
func (uc *ProcessRecordUseCase) ReindexByID(ctx context.Context, recordID string) error {
	rec, err := uc.repo.GetByID(ctx, recordID)
	if err != nil {
		return fmt.Errorf("fetch record by id: %w", err)
	}
	if rec.Structured == nil {
		return domain.WrapError(domain.ErrInvalidInput, "reindex", errors.New("record has not been parsed"))
	}

	if err := uc.embedAndIndex(ctx, rec); err != nil {
		if noteErr := uc.repo.UpdateStatus(ctx, recordID, domain.StatusParsed, err.Error()); noteErr != nil {
			return fmt.Errorf("%w; record index error: %v", err, noteErr)
		}
		return err
	}
	if err := uc.repo.UpdateStatus(ctx, recordID, domain.StatusIndexed, ""); err != nil {
		return fmt.Errorf("set status=indexed: %w", err)
	}
	return nil
}

func (uc *ProcessRecordUseCase) extractAndParse(ctx context.Context, rec *domain.Record) (*domain.StructuredRecord, error) {
	extraction, err := uc.extractor.Extract(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	if extraction.Text == "" {
		return nil, domain.WrapError(domain.ErrExtractionFailed, "extract text", errors.New("empty extraction"))
	}

	structured, err := uc.parser.Parse(ctx, extraction.Text, rec.Kind)
	if err != nil {
		return nil, fmt.Errorf("parse structured record: %w", err)
	}
	if structured.Kind() != rec.Kind {
		return nil, domain.WrapError(domain.ErrMalformedOutput, "parse structured record",
			fmt.Errorf("parser returned %s variant for %s record", structured.Kind(), rec.Kind))
	}
	return structured, nil
}

func (uc *ProcessRecordUseCase) embedAndIndex(ctx context.Context, rec *domain.Record) error {
	text, err := DeriveText(rec)
	if err != nil {
		return err
	}

	vector, err := uc.embedder.EmbedText(ctx, text)
	if err != nil {
		return fmt.Errorf("embed record text: %w", err)
	}

	err = uc.index.Upsert(ctx, rec.VectorKey(), vector, domain.VectorMeta{
		RecordID: rec.ID,
		Kind:     rec.Kind,
	})
	if err != nil {
		return fmt.Errorf("upsert vector: %w", err)
	}
	return nil
}
