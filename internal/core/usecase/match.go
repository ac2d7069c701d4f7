package usecase

import (
	"context"
	"fmt"

	"github.com/careerforge/cvmatch/internal/core/domain"
	"github.com/careerforge/cvmatch/internal/core/ports"
)

const defaultTopK = 10

// MatchRecordsUseCase ranks records of the opposite kind against a source
// record. The query embeds the record's canonical derived text, never its
// id. Stateless per call.
type MatchRecordsUseCase struct {
	repo     ports.RecordRepository
	embedder ports.Embedder
	index    ports.VectorIndex
}

func NewMatchRecordsUseCase(
	repo ports.RecordRepository,
	embedder ports.Embedder,
	index ports.VectorIndex,
) *MatchRecordsUseCase {
	return &MatchRecordsUseCase{
		repo:     repo,
		embedder: embedder,
		index:    index,
	}
}

func (uc *MatchRecordsUseCase) MatchCvToJobs(ctx context.Context, ownerID, cvID string, topK int) ([]domain.MatchResult, error) {
	return uc.match(ctx, ownerID, cvID, domain.KindCV, topK)
}

func (uc *MatchRecordsUseCase) MatchJobToCvs(ctx context.Context, ownerID, jobID string, topK int) ([]domain.MatchResult, error) {
	return uc.match(ctx, ownerID, jobID, domain.KindJob, topK)
}

// Score returns the similarity between one CV and one job. A missing vector
// on either side yields 0, not an error.
func (uc *MatchRecordsUseCase) Score(ctx context.Context, ownerID, cvID, jobID string) (float64, error) {
	vector, _, err := uc.sourceVector(ctx, ownerID, cvID, domain.KindCV)
	if err != nil {
		return 0, err
	}

	hits, err := uc.index.Query(ctx, vector, domain.VectorFilter{
		Kind:     domain.KindJob,
		RecordID: jobID,
	}, 1)
	if err != nil {
		return 0, fmt.Errorf("query vector index: %w", err)
	}
	if len(hits) == 0 {
		return 0, nil
	}
	return domain.ClampScore(hits[0].Score), nil
}

func (uc *MatchRecordsUseCase) match(ctx context.Context, ownerID, recordID string, kind domain.RecordKind, topK int) ([]domain.MatchResult, error) {
	if topK <= 0 {
		topK = defaultTopK
	}

	vector, _, err := uc.sourceVector(ctx, ownerID, recordID, kind)
	if err != nil {
		return nil, err
	}

	hits, err := uc.index.Query(ctx, vector, domain.VectorFilter{Kind: kind.Opposite()}, topK)
	if err != nil {
		return nil, fmt.Errorf("query vector index: %w", err)
	}

	results := make([]domain.MatchResult, 0, len(hits))
	for _, hit := range hits {
		// The vector index is a secondary index; the owning record may have
		// been deleted since the query started. Skip, never fail.
		other, err := uc.repo.GetByID(ctx, hit.RecordID)
		if err != nil {
			if domain.IsKind(err, domain.ErrRecordNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolve match %s: %w", hit.RecordID, err)
		}
		results = append(results, domain.MatchResult{
			RecordID: other.ID,
			Kind:     other.Kind,
			Title:    other.DisplayTitle(),
			Filename: other.Filename,
			Score:    domain.ClampScore(hit.Score),
		})
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

// sourceVector loads an owner-scoped record of the expected kind and embeds
// its derived text.
func (uc *MatchRecordsUseCase) sourceVector(ctx context.Context, ownerID, recordID string, kind domain.RecordKind) ([]float32, *domain.Record, error) {
	rec, err := getOwned(ctx, uc.repo, ownerID, recordID)
	if err != nil {
		return nil, nil, err
	}
	if rec.Kind != kind {
		return nil, nil, domain.WrapError(domain.ErrInvalidInput, "match",
			fmt.Errorf("record %s is a %s, expected %s", recordID, rec.Kind, kind))
	}

	text, err := DeriveText(rec)
	if err != nil {
		return nil, nil, err
	}
	vector, err := uc.embedder.EmbedText(ctx, text)
	if err != nil {
		return nil, nil, fmt.Errorf("embed query text: %w", err)
	}
	return vector, rec, nil
}
