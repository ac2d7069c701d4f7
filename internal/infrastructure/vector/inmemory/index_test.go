package inmemory

import (
	"context"
	"testing"

	"github.com/careerforge/cvmatch/internal/core/domain"
)

func TestQueryRanksBySimilarity(t *testing.T) {
	idx := New()
	ctx := context.Background()

	mustUpsert(t, idx, "job_j1", []float32{1, 0}, domain.VectorMeta{RecordID: "j1", Kind: domain.KindJob})
	mustUpsert(t, idx, "job_j2", []float32{0, 1}, domain.VectorMeta{RecordID: "j2", Kind: domain.KindJob})

	hits, err := idx.Query(ctx, []float32{1, 0.1}, domain.VectorFilter{Kind: domain.KindJob}, 10)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 2 || hits[0].RecordID != "j1" {
		t.Fatalf("unexpected ranking %+v", hits)
	}
	if hits[0].Score < 0.99 {
		t.Fatalf("near-identical vector should score close to 1, got %v", hits[0].Score)
	}
	if hits[0].Score <= hits[1].Score {
		t.Fatalf("scores not descending: %+v", hits)
	}
}

func TestQueryFiltersByKindAndRecordID(t *testing.T) {
	idx := New()
	ctx := context.Background()

	mustUpsert(t, idx, "cv_c1", []float32{1, 0}, domain.VectorMeta{RecordID: "c1", Kind: domain.KindCV})
	mustUpsert(t, idx, "job_j1", []float32{1, 0}, domain.VectorMeta{RecordID: "j1", Kind: domain.KindJob})

	hits, err := idx.Query(ctx, []float32{1, 0}, domain.VectorFilter{Kind: domain.KindJob}, 10)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Kind != domain.KindJob {
		t.Fatalf("kind filter failed: %+v", hits)
	}

	hits, err = idx.Query(ctx, []float32{1, 0}, domain.VectorFilter{Kind: domain.KindJob, RecordID: "j2"}, 10)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("record filter failed: %+v", hits)
	}
}

func TestQueryRespectsTopK(t *testing.T) {
	idx := New()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		mustUpsert(t, idx, "job_"+id, []float32{1, 0}, domain.VectorMeta{RecordID: id, Kind: domain.KindJob})
	}

	hits, err := idx.Query(ctx, []float32{1, 0}, domain.VectorFilter{Kind: domain.KindJob}, 2)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected topK bound, got %d hits", len(hits))
	}
	// Identical scores keep insertion order.
	if hits[0].RecordID != "a" || hits[1].RecordID != "b" {
		t.Fatalf("tie-break not stable: %+v", hits)
	}
}

func TestUpsertOverwritesByKey(t *testing.T) {
	idx := New()
	ctx := context.Background()

	mustUpsert(t, idx, "cv_c1", []float32{1, 0}, domain.VectorMeta{RecordID: "c1", Kind: domain.KindCV})
	mustUpsert(t, idx, "cv_c1", []float32{0, 1}, domain.VectorMeta{RecordID: "c1", Kind: domain.KindCV})

	hits, err := idx.Query(ctx, []float32{0, 1}, domain.VectorFilter{Kind: domain.KindCV}, 10)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 1 || hits[0].Score < 0.99 {
		t.Fatalf("upsert did not replace vector: %+v", hits)
	}
}

func TestReindexedKeySelfQueriesNearIdentity(t *testing.T) {
	idx := New()
	ctx := context.Background()
	vector := []float32{0.6, 0.8}
	meta := domain.VectorMeta{RecordID: "c1", Kind: domain.KindCV}

	mustUpsert(t, idx, "cv_c1", vector, meta)
	mustUpsert(t, idx, "cv_c1", vector, meta)
	mustUpsert(t, idx, "job_j1", []float32{0.8, -0.6}, domain.VectorMeta{RecordID: "j1", Kind: domain.KindJob})

	hits, err := idx.Query(ctx, vector, domain.VectorFilter{Kind: domain.KindCV}, 10)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("re-indexed key must stay a single entry, got %+v", hits)
	}
	if hits[0].Key != "cv_c1" || hits[0].Score < 0.99 {
		t.Fatalf("self-query should return the key near identity: %+v", hits[0])
	}
}

func TestDeleteRemovesEntry(t *testing.T) {
	idx := New()
	ctx := context.Background()

	mustUpsert(t, idx, "cv_c1", []float32{1, 0}, domain.VectorMeta{RecordID: "c1", Kind: domain.KindCV})
	if err := idx.Delete(ctx, "cv_c1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	hits, err := idx.Query(ctx, []float32{1, 0}, domain.VectorFilter{}, 10)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("entry survived delete: %+v", hits)
	}
}

func mustUpsert(t *testing.T, idx *Index, key string, vector []float32, meta domain.VectorMeta) {
	t.Helper()
	if err := idx.Upsert(context.Background(), key, vector, meta); err != nil {
		t.Fatalf("Upsert(%s) error = %v", key, err)
	}
}
