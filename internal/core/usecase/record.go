package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/careerforge/cvmatch/internal/core/domain"
	"github.com/careerforge/cvmatch/internal/core/ports"
)

// ReadRecordUseCase is the owner-scoped read model used by the API surface.
type ReadRecordUseCase struct {
	repo ports.RecordRepository
}

func NewReadRecordUseCase(repo ports.RecordRepository) *ReadRecordUseCase {
	return &ReadRecordUseCase{repo: repo}
}

func (uc *ReadRecordUseCase) GetOwned(ctx context.Context, ownerID, recordID string) (*domain.Record, error) {
	return getOwned(ctx, uc.repo, ownerID, recordID)
}

// DeleteRecordUseCase removes a record everywhere it lives. The vector is
// removed first: a failed index delete aborts the whole operation so a
// deleted record can never linger as a match candidate.
type DeleteRecordUseCase struct {
	repo    ports.RecordRepository
	storage ports.ObjectStorage
	index   ports.VectorIndex
}

func NewDeleteRecordUseCase(
	repo ports.RecordRepository,
	storage ports.ObjectStorage,
	index ports.VectorIndex,
) *DeleteRecordUseCase {
	return &DeleteRecordUseCase{
		repo:    repo,
		storage: storage,
		index:   index,
	}
}

func (uc *DeleteRecordUseCase) Delete(ctx context.Context, ownerID, recordID string) error {
	rec, err := getOwned(ctx, uc.repo, ownerID, recordID)
	if err != nil {
		return err
	}

	if err := uc.index.Delete(ctx, rec.VectorKey()); err != nil {
		return fmt.Errorf("delete vector: %w", err)
	}
	if err := uc.repo.Delete(ctx, rec.ID); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	// Original-file cleanup is best-effort; the record and vector are gone.
	_ = uc.storage.Remove(ctx, rec.StoragePath)
	return nil
}

// getOwned hides other owners' records behind not-found instead of leaking
// their existence.
func getOwned(ctx context.Context, repo ports.RecordRepository, ownerID, recordID string) (*domain.Record, error) {
	rec, err := repo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID != ownerID {
		return nil, domain.WrapError(domain.ErrRecordNotFound, "get record", errors.New("record belongs to another owner"))
	}
	return rec, nil
}
