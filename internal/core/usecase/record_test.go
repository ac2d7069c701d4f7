package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/careerforge/cvmatch/internal/core/domain"
)

type deleteRepoFake struct {
	matchRepoFake
	deleted []string
}

func (f *deleteRepoFake) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	delete(f.records, id)
	return nil
}

func TestDeleteRemovesVectorRecordAndFile(t *testing.T) {
	repo := &deleteRepoFake{matchRepoFake: matchRepoFake{records: map[string]*domain.Record{
		"cv-1": {ID: "cv-1", OwnerID: "owner-1", Kind: domain.KindCV, StoragePath: "cv-1_cv.pdf"},
	}}}
	storage := newStorageFake()
	index := &indexFake{}
	uc := NewDeleteRecordUseCase(repo, storage, index)

	if err := uc.Delete(context.Background(), "owner-1", "cv-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(index.deleted) != 1 || index.deleted[0] != "cv_cv-1" {
		t.Fatalf("unexpected vector deletes: %v", index.deleted)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "cv-1" {
		t.Fatalf("unexpected record deletes: %v", repo.deleted)
	}
	if len(storage.removed) != 1 || storage.removed[0] != "cv-1_cv.pdf" {
		t.Fatalf("unexpected file removals: %v", storage.removed)
	}
}

func TestDeleteAbortsWhenVectorDeleteFails(t *testing.T) {
	repo := &deleteRepoFake{matchRepoFake: matchRepoFake{records: map[string]*domain.Record{
		"cv-1": {ID: "cv-1", OwnerID: "owner-1", Kind: domain.KindCV, StoragePath: "cv-1_cv.pdf"},
	}}}
	index := &indexFake{deleteErr: errors.New("index down")}
	uc := NewDeleteRecordUseCase(repo, newStorageFake(), index)

	if err := uc.Delete(context.Background(), "owner-1", "cv-1"); err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.deleted) != 0 {
		t.Fatalf("record must survive a failed vector delete, got %v", repo.deleted)
	}
}

func TestDeleteHidesOtherOwnersRecords(t *testing.T) {
	repo := &deleteRepoFake{matchRepoFake: matchRepoFake{records: map[string]*domain.Record{
		"cv-1": {ID: "cv-1", OwnerID: "owner-1", Kind: domain.KindCV},
	}}}
	uc := NewDeleteRecordUseCase(repo, newStorageFake(), &indexFake{})

	err := uc.Delete(context.Background(), "owner-2", "cv-1")
	if !domain.IsKind(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestGetOwned(t *testing.T) {
	repo := &matchRepoFake{records: map[string]*domain.Record{
		"cv-1": {ID: "cv-1", OwnerID: "owner-1", Kind: domain.KindCV},
	}}
	uc := NewReadRecordUseCase(repo)

	rec, err := uc.GetOwned(context.Background(), "owner-1", "cv-1")
	if err != nil {
		t.Fatalf("GetOwned() error = %v", err)
	}
	if rec.ID != "cv-1" {
		t.Fatalf("unexpected record %+v", rec)
	}

	if _, err := uc.GetOwned(context.Background(), "owner-2", "cv-1"); !domain.IsKind(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for foreign owner, got %v", err)
	}
	if _, err := uc.GetOwned(context.Background(), "owner-1", "missing"); !domain.IsKind(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for missing id, got %v", err)
	}
}
