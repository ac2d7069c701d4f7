// Package inmemory is a process-local vector index for development and
// tests. It mirrors the qdrant client's contract: cosine similarity,
// idempotent upsert per key, payload filtering.
package inmemory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/careerforge/cvmatch/internal/core/domain"
)

var errEmptyVector = errors.New("empty vector")

type entry struct {
	key    string
	vector []float32
	meta   domain.VectorMeta
	seq    int
}

type Index struct {
	mu      sync.RWMutex
	entries map[string]*entry
	nextSeq int
}

func New() *Index {
	return &Index{entries: make(map[string]*entry)}
}

func (i *Index) Upsert(_ context.Context, key string, vector []float32, meta domain.VectorMeta) error {
	if len(vector) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "memory upsert", errEmptyVector)
	}
	cp := make([]float32, len(vector))
	copy(cp, vector)

	i.mu.Lock()
	defer i.mu.Unlock()
	if existing, ok := i.entries[key]; ok {
		existing.vector = cp
		existing.meta = meta
		return nil
	}
	i.entries[key] = &entry{key: key, vector: cp, meta: meta, seq: i.nextSeq}
	i.nextSeq++
	return nil
}

func (i *Index) Query(_ context.Context, vector []float32, filter domain.VectorFilter, topK int) ([]domain.VectorHit, error) {
	if topK <= 0 {
		return nil, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	hits := make([]domain.VectorHit, 0, len(i.entries))
	seqs := make(map[string]int, len(i.entries))
	for _, e := range i.entries {
		if filter.Kind != "" && e.meta.Kind != filter.Kind {
			continue
		}
		if filter.RecordID != "" && e.meta.RecordID != filter.RecordID {
			continue
		}
		hits = append(hits, domain.VectorHit{
			Key:      e.key,
			RecordID: e.meta.RecordID,
			Kind:     e.meta.Kind,
			Score:    cosine(vector, e.vector),
		})
		seqs[e.key] = e.seq
	}

	// Equal scores rank by insertion order so results are stable.
	sort.SliceStable(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return seqs[hits[a].Key] < seqs[hits[b].Key]
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

func (i *Index) Delete(_ context.Context, key string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.entries, key)
	return nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for idx := 0; idx < n; idx++ {
		dot += float64(a[idx]) * float64(b[idx])
		normA += float64(a[idx]) * float64(a[idx])
		normB += float64(b[idx]) * float64(b[idx])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
