package domain

// MatchResult is one ranked entry from a similarity query, joined back to
// its owning record. Computed on demand, never persisted.
type MatchResult struct {
	RecordID string     `json:"record_id"`
	Kind     RecordKind `json:"kind"`
	Title    string     `json:"title"`
	Filename string     `json:"filename,omitempty"`
	Score    float64    `json:"score"`
}

// VectorMeta is the minimal payload stored next to each vector. The record
// store stays the source of truth; the index only needs enough to join back.
type VectorMeta struct {
	RecordID string
	Kind     RecordKind
}

// VectorFilter constrains a similarity query. Kind is always set; RecordID
// narrows the query to a single target for point-to-point scoring.
type VectorFilter struct {
	Kind     RecordKind
	RecordID string
}

type VectorHit struct {
	Key      string
	RecordID string
	Kind     RecordKind
	Score    float64
}

// ClampScore maps raw index similarity into [0,1]. Negative cosine
// similarity carries no ranking value for this domain.
func ClampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
