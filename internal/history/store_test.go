// internal/history/store_test.go
package history

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibe-transmuter/internal/spec"
)

var recordColumns = []string{"id", "request_id", "vibe", "model", "raw_text", "spec", "attempts", "repaired", "created_at"}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func sampleRecord() *Record {
	s := spec.Normalize(map[string]interface{}{"summary": "Recipe box"}, spec.WithVibe("recipes"))
	return &Record{
		RequestID: "req-1",
		Vibe:      "recipes",
		Model:     "gemini-2.0-flash",
		RawText:   `{"summary":"Recipe box"}`,
		Spec:      s,
		Attempts:  1,
	}
}

func TestStore_Save(t *testing.T) {
	store, mock := newMockStore(t)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return fixed }

	rec := sampleRecord()
	mock.ExpectExec(regexp.QuoteMeta(insertSQL)).
		WithArgs(sqlmock.AnyArg(), "req-1", "recipes", "gemini-2.0-flash", `{"summary":"Recipe box"}`,
			sqlmock.AnyArg(), rec.Spec.Completeness.Score, 1, false, fixed).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(context.Background(), rec))

	_, err := uuid.Parse(rec.ID)
	assert.NoError(t, err)
	assert.Equal(t, fixed, rec.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SaveFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(insertSQL)).WillReturnError(errors.New("connection reset"))

	err := store.Save(context.Background(), sampleRecord())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorageFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Get(t *testing.T) {
	id := uuid.NewString()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		id        string
		mockQuery func(mock sqlmock.Sqlmock)
		wantErr   error
		check     func(t *testing.T, rec *Record)
	}{
		{
			name: "found",
			id:   id,
			mockQuery: func(mock sqlmock.Sqlmock) {
				specJSON, _ := json.Marshal(sampleRecord().Spec)
				mock.ExpectQuery(regexp.QuoteMeta(selectByIDSQL)).
					WithArgs(id).
					WillReturnRows(sqlmock.NewRows(recordColumns).
						AddRow(id, "req-1", "recipes", "gemini-2.0-flash", "{}", specJSON, 2, true, created))
			},
			check: func(t *testing.T, rec *Record) {
				assert.Equal(t, id, rec.ID)
				assert.Equal(t, "Recipe box", rec.Spec.Summary)
				assert.Equal(t, 2, rec.Attempts)
				assert.True(t, rec.Repaired)
				assert.Equal(t, created, rec.CreatedAt)
			},
		},
		{
			name: "legacy spec shape is normalized",
			id:   id,
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(selectByIDSQL)).
					WithArgs(id).
					WillReturnRows(sqlmock.NewRows(recordColumns).
						AddRow(id, "req-1", "recipes", "", "{}", []byte(`{"oneLineSummary": "Old", "userFlow": ["a"]}`), 1, false, created))
			},
			check: func(t *testing.T, rec *Record) {
				assert.Equal(t, "Old", rec.Spec.Summary)
				assert.Len(t, rec.Spec.FlowSteps, spec.FlowStepCount)
				assert.Equal(t, "recipes", rec.Spec.RequestConversion.Raw)
			},
		},
		{
			name: "not found",
			id:   id,
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(selectByIDSQL)).
					WithArgs(id).
					WillReturnRows(sqlmock.NewRows(recordColumns))
			},
			wantErr: ErrRecordNotFound,
		},
		{
			name:      "malformed id",
			id:        "not-a-uuid",
			mockQuery: func(mock sqlmock.Sqlmock) {},
			wantErr:   ErrRecordNotFound,
		},
		{
			name: "database error",
			id:   id,
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta(selectByIDSQL)).
					WithArgs(id).
					WillReturnError(errors.New("too many connections"))
			},
			wantErr: ErrStorageFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tt.mockQuery(mock)

			rec, err := store.Get(context.Background(), tt.id)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, rec)
			} else {
				require.NoError(t, err)
				tt.check(t, rec)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_Recent(t *testing.T) {
	store, mock := newMockStore(t)
	specJSON, _ := json.Marshal(sampleRecord().Spec)
	created := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(selectRecentSQL)).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow(uuid.NewString(), "req-2", "b", "", "{}", specJSON, 1, false, created).
			AddRow(uuid.NewString(), "req-1", "a", "", "{}", specJSON, 1, false, created.Add(-time.Minute)))

	records, err := store.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "req-2", records[0].RequestID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_EnsureSchema(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(createTableSQL)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
