package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/careerforge/cvmatch/internal/core/domain"
)

type statusCall struct {
	status domain.RecordStatus
	errMsg string
}

type processRepoFake struct {
	rec         *domain.Record
	getErr      error
	saveErr     error
	statusCalls []statusCall
	savedID     string
	saved       *domain.StructuredRecord
}

func (f *processRepoFake) Create(context.Context, *domain.Record) error { return nil }

func (f *processRepoFake) GetByID(context.Context, string) (*domain.Record, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	cp := *f.rec
	return &cp, nil
}

func (f *processRepoFake) SaveStructured(_ context.Context, id string, structured *domain.StructuredRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedID = id
	f.saved = structured
	return nil
}

func (f *processRepoFake) UpdateStatus(_ context.Context, _ string, status domain.RecordStatus, errMessage string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	return nil
}

func (f *processRepoFake) Delete(context.Context, string) error { return nil }

type extractorFake struct {
	text string
	err  error
}

func (f *extractorFake) Extract(context.Context, *domain.Record) (domain.Extraction, error) {
	if f.err != nil {
		return domain.Extraction{}, f.err
	}
	return domain.Extraction{Text: f.text, Pages: 1}, nil
}

type parserFake struct {
	structured *domain.StructuredRecord
	err        error
}

func (f *parserFake) Parse(context.Context, string, domain.RecordKind) (*domain.StructuredRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.structured, nil
}

type embedderFake struct {
	vector []float32
	err    error
	texts  []string
}

func (f *embedderFake) EmbedText(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.texts = append(f.texts, text)
	return f.vector, nil
}

type upsertCall struct {
	key    string
	vector []float32
	meta   domain.VectorMeta
}

type indexFake struct {
	upsertErr error
	queryErr  error
	deleteErr error
	hits      []domain.VectorHit
	upserts   []upsertCall
	deleted   []string
}

func (f *indexFake) Upsert(_ context.Context, key string, vector []float32, meta domain.VectorMeta) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserts = append(f.upserts, upsertCall{key: key, vector: vector, meta: meta})
	return nil
}

func (f *indexFake) Query(context.Context, []float32, domain.VectorFilter, int) ([]domain.VectorHit, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.hits, nil
}

func (f *indexFake) Delete(_ context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func cvStructured(name string) *domain.StructuredRecord {
	return &domain.StructuredRecord{CV: &domain.CVProfile{
		Personal: domain.PersonalInfo{Name: name, Title: "Backend Engineer"},
		Skills:   &domain.SkillSet{Technical: []string{"Go", "PostgreSQL"}},
	}}
}

func TestProcessByIDSuccess(t *testing.T) {
	repo := &processRepoFake{rec: &domain.Record{ID: "rec-1", Kind: domain.KindCV}}
	index := &indexFake{}
	uc := NewProcessRecordUseCase(
		repo,
		&extractorFake{text: "resume text"},
		&parserFake{structured: cvStructured("Ada")},
		&embedderFake{vector: []float32{0.1, 0.2}},
		index,
	)

	if err := uc.ProcessByID(context.Background(), "rec-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	if repo.savedID != "rec-1" {
		t.Fatalf("expected structured save for rec-1, got %q", repo.savedID)
	}
	if len(repo.statusCalls) != 2 {
		t.Fatalf("expected 2 status calls, got %d", len(repo.statusCalls))
	}
	if repo.statusCalls[0].status != domain.StatusProcessing || repo.statusCalls[1].status != domain.StatusIndexed {
		t.Fatalf("unexpected status sequence: %+v", repo.statusCalls)
	}
	if len(index.upserts) != 1 || index.upserts[0].key != "cv_rec-1" {
		t.Fatalf("unexpected upserts: %+v", index.upserts)
	}
	if index.upserts[0].meta.RecordID != "rec-1" || index.upserts[0].meta.Kind != domain.KindCV {
		t.Fatalf("unexpected vector meta: %+v", index.upserts[0].meta)
	}
}

func TestProcessByIDMarksFailedOnExtractError(t *testing.T) {
	repo := &processRepoFake{rec: &domain.Record{ID: "rec-1", Kind: domain.KindCV}}
	uc := NewProcessRecordUseCase(
		repo,
		&extractorFake{err: errors.New("corrupt file")},
		&parserFake{structured: cvStructured("Ada")},
		&embedderFake{vector: []float32{1}},
		&indexFake{},
	)

	if err := uc.ProcessByID(context.Background(), "rec-1"); err == nil {
		t.Fatalf("expected error")
	}
	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.status != domain.StatusFailed || last.errMsg == "" {
		t.Fatalf("expected failed status with message, got %+v", last)
	}
}

func TestProcessByIDMarksFailedOnEmptyExtraction(t *testing.T) {
	repo := &processRepoFake{rec: &domain.Record{ID: "rec-1", Kind: domain.KindCV}}
	uc := NewProcessRecordUseCase(
		repo,
		&extractorFake{text: ""},
		&parserFake{structured: cvStructured("Ada")},
		&embedderFake{vector: []float32{1}},
		&indexFake{},
	)

	err := uc.ProcessByID(context.Background(), "rec-1")
	if !domain.IsKind(err, domain.ErrExtractionFailed) {
		t.Fatalf("expected ErrExtractionFailed, got %v", err)
	}
	if repo.statusCalls[len(repo.statusCalls)-1].status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %+v", repo.statusCalls)
	}
}

func TestProcessByIDMarksFailedOnKindMismatch(t *testing.T) {
	repo := &processRepoFake{rec: &domain.Record{ID: "rec-1", Kind: domain.KindJob}}
	uc := NewProcessRecordUseCase(
		repo,
		&extractorFake{text: "text"},
		&parserFake{structured: cvStructured("Ada")},
		&embedderFake{vector: []float32{1}},
		&indexFake{},
	)

	err := uc.ProcessByID(context.Background(), "rec-1")
	if !domain.IsKind(err, domain.ErrMalformedOutput) {
		t.Fatalf("expected ErrMalformedOutput, got %v", err)
	}
}

func TestProcessByIDKeepsParsedWhenIndexingFails(t *testing.T) {
	repo := &processRepoFake{rec: &domain.Record{ID: "rec-1", Kind: domain.KindCV}}
	uc := NewProcessRecordUseCase(
		repo,
		&extractorFake{text: "resume text"},
		&parserFake{structured: cvStructured("Ada")},
		&embedderFake{vector: []float32{1}},
		&indexFake{upsertErr: errors.New("index down")},
	)

	if err := uc.ProcessByID(context.Background(), "rec-1"); err == nil {
		t.Fatalf("expected error")
	}
	if repo.savedID != "rec-1" {
		t.Fatalf("structured record should be persisted before indexing, got savedID=%q", repo.savedID)
	}
	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.status != domain.StatusParsed {
		t.Fatalf("expected parsed status after index failure, got %+v", last)
	}
	if last.errMsg == "" {
		t.Fatalf("expected index error recorded on the record")
	}
}

func TestReindexByIDSuccess(t *testing.T) {
	rec := &domain.Record{ID: "rec-2", Kind: domain.KindCV, Status: domain.StatusParsed, Structured: cvStructured("Grace")}
	repo := &processRepoFake{rec: rec}
	index := &indexFake{}
	uc := NewProcessRecordUseCase(repo, &extractorFake{}, &parserFake{}, &embedderFake{vector: []float32{1}}, index)

	if err := uc.ReindexByID(context.Background(), "rec-2"); err != nil {
		t.Fatalf("ReindexByID() error = %v", err)
	}
	if len(index.upserts) != 1 || index.upserts[0].key != "cv_rec-2" {
		t.Fatalf("unexpected upserts: %+v", index.upserts)
	}
	if repo.statusCalls[len(repo.statusCalls)-1].status != domain.StatusIndexed {
		t.Fatalf("expected indexed status, got %+v", repo.statusCalls)
	}
}

func TestReindexByIDRejectsUnparsedRecord(t *testing.T) {
	repo := &processRepoFake{rec: &domain.Record{ID: "rec-3", Kind: domain.KindCV, Status: domain.StatusUploaded}}
	uc := NewProcessRecordUseCase(repo, &extractorFake{}, &parserFake{}, &embedderFake{}, &indexFake{})

	err := uc.ReindexByID(context.Background(), "rec-3")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
