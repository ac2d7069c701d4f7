package domain

import "time"

type RecordKind string

const (
	KindCV  RecordKind = "cv"
	KindJob RecordKind = "job"
)

func (k RecordKind) Valid() bool {
	return k == KindCV || k == KindJob
}

// Opposite returns the kind a record of this kind is matched against.
func (k RecordKind) Opposite() RecordKind {
	if k == KindCV {
		return KindJob
	}
	return KindCV
}

type RecordStatus string

const (
	StatusUploaded   RecordStatus = "uploaded"
	StatusProcessing RecordStatus = "processing"
	// StatusParsed means the structured record is persisted but its vector
	// is not (yet) in the index. Reachable both as a pipeline stage and as
	// the resting state when embedding/indexing failed.
	StatusParsed RecordStatus = "parsed"
	StatusIndexed RecordStatus = "indexed"
	StatusFailed  RecordStatus = "failed"
)

type Record struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"owner_id"`
	Kind        RecordKind        `json:"kind"`
	Filename    string            `json:"filename"`
	MediaType   string            `json:"media_type"`
	StoragePath string            `json:"storage_path"`
	Status      RecordStatus      `json:"status"`
	Error       string            `json:"error,omitempty"`
	Structured  *StructuredRecord `json:"structured,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// VectorKey is the primary key of a record's vector in the index.
// One vector per record; re-indexing overwrites it.
func (r *Record) VectorKey() string {
	return VectorKey(r.Kind, r.ID)
}

func VectorKey(kind RecordKind, recordID string) string {
	return string(kind) + "_" + recordID
}

// DisplayTitle is the short human-readable label used in match results
// and exported reports.
func (r *Record) DisplayTitle() string {
	if r.Structured == nil {
		return r.Filename
	}
	if cv := r.Structured.CV; cv != nil {
		switch {
		case cv.Personal.Name != "" && cv.Personal.Title != "":
			return cv.Personal.Name + " — " + cv.Personal.Title
		case cv.Personal.Name != "":
			return cv.Personal.Name
		}
	}
	if job := r.Structured.Job; job != nil {
		switch {
		case job.Title != "" && job.Company != "":
			return job.Title + " @ " + job.Company
		case job.Title != "":
			return job.Title
		}
	}
	return r.Filename
}

// Extraction is the output of the text-extraction stage. It is consumed
// immediately by the parser and never persisted.
type Extraction struct {
	Text  string
	Pages int
}
