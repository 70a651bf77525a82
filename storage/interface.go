package storage

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
)

type StoredEvaluation struct {
	Id     string `json:"id"`
	Digest string `json:"-"`
	// The request/response text is not stored, only its size. Operators can recompute digests
	// if they need to correlate an evaluation with a known pair.
	RequestLength   int     `json:"request_length"`
	ResponseLength  int     `json:"response_length"`
	HarmScore       float64 `json:"harm_score"`
	Verdict         string  `json:"verdict"`
	Strategy        string  `json:"strategy"`
	Backend         string  `json:"backend,omitempty"`
	CreatedAtMillis int64   `json:"created_at"`
}

type StoredDocument struct {
	Collection string    `json:"collection"`
	DocumentId string    `json:"document_id"`
	Content    string    `json:"content"`
	Embedding  Embedding `json:"embedding"`
}

// Embedding is stored as a JSON array in a jsonb column.
type Embedding []float32

func (e Embedding) Value() (driver.Value, error) {
	if e == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(e)
}

func (e *Embedding) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	case nil:
		*e = nil
		return nil
	default:
		return errors.New("unsupported type for embedding")
	}
	return json.Unmarshal(b, e)
}

type PersistentStorage interface {
	Close() error
	GetEvaluation(ctx context.Context, id string) (*StoredEvaluation, error)
	GetEvaluationByDigest(ctx context.Context, digest string) (*StoredEvaluation, error)
	UpsertEvaluation(ctx context.Context, evaluation *StoredEvaluation) error
	// PruneEvaluations deletes evaluations created before the given timestamp, returning the number deleted.
	PruneEvaluations(ctx context.Context, beforeMillis int64) (int64, error)
	UpsertDocuments(ctx context.Context, documents []*StoredDocument) error
	GetDocuments(ctx context.Context, collection string) ([]*StoredDocument, error)
	DeleteCollection(ctx context.Context, collection string) error
}
