// internal/history/store.go
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vibe-transmuter/internal/spec"
)

var (
	ErrRecordNotFound = errors.New("RECORD_NOT_FOUND")
	ErrStorageFailed  = errors.New("STORAGE_FAILED")
)

// Record is one completed transmutation.
type Record struct {
	ID        string             `json:"id"`
	RequestID string             `json:"requestId"`
	Vibe      string             `json:"vibe"`
	Model     string             `json:"model"`
	RawText   string             `json:"rawText"`
	Spec      spec.CanonicalSpec `json:"spec"`
	Attempts  int                `json:"attempts"`
	Repaired  bool               `json:"repaired"`
	CreatedAt time.Time          `json:"createdAt"`
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS vibe_transmutations (
	id          UUID PRIMARY KEY,
	request_id  TEXT NOT NULL,
	vibe        TEXT NOT NULL,
	model       TEXT NOT NULL DEFAULT '',
	raw_text    TEXT NOT NULL,
	spec        JSONB NOT NULL,
	score       INTEGER NOT NULL,
	attempts    INTEGER NOT NULL,
	repaired    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const insertSQL = `
INSERT INTO vibe_transmutations
	(id, request_id, vibe, model, raw_text, spec, score, attempts, repaired, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const selectByIDSQL = `
SELECT id, request_id, vibe, model, raw_text, spec, attempts, repaired, created_at
FROM vibe_transmutations
WHERE id = $1`

const selectRecentSQL = `
SELECT id, request_id, vibe, model, raw_text, spec, attempts, repaired, created_at
FROM vibe_transmutations
ORDER BY created_at DESC
LIMIT $1`

// Store persists transmutations in Postgres.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("%w: create table: %v", ErrStorageFailed, err)
	}
	return nil
}

// Save inserts rec, assigning an ID and timestamp when they are unset.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}

	specJSON, err := json.Marshal(rec.Spec)
	if err != nil {
		return fmt.Errorf("%w: encode spec: %v", ErrStorageFailed, err)
	}

	_, err = s.db.ExecContext(ctx, insertSQL,
		rec.ID, rec.RequestID, rec.Vibe, rec.Model, rec.RawText, specJSON,
		rec.Spec.Completeness.Score, rec.Attempts, rec.Repaired, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert: %v", ErrStorageFailed, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", ErrRecordNotFound, id)
	}

	rec, err := scanRecord(s.db.QueryRowContext(ctx, selectByIDSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return rec, nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, selectRecentSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailed, err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (*Record, error) {
	var rec Record
	var specJSON []byte
	if err := row.Scan(
		&rec.ID, &rec.RequestID, &rec.Vibe, &rec.Model, &rec.RawText,
		&specJSON, &rec.Attempts, &rec.Repaired, &rec.CreatedAt,
	); err != nil {
		return nil, err
	}

	// Stored specs are re-normalized so rows written by older schema
	// revisions still come back in the current shape.
	var raw interface{}
	if err := json.Unmarshal(specJSON, &raw); err != nil {
		return nil, fmt.Errorf("decode spec: %w", err)
	}
	rec.Spec = spec.Normalize(raw, spec.WithVibe(rec.Vibe))
	return &rec, nil
}
