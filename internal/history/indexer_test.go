// internal/history/indexer_test.go
package history

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibe-transmuter/internal/common/logger"
	"vibe-transmuter/internal/spec"
)

func newTestIndexer(t *testing.T, handler http.HandlerFunc) *Indexer {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return NewIndexer(client, "", logger.NewTestLogger(t))
}

func TestIndexer_Index(t *testing.T) {
	var gotPath, gotMethod string
	var doc Document
	indexer := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		require.NoError(t, json.NewDecoder(r.Body).Decode(&doc))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"result": "created"}`))
	})

	rec := sampleRecord()
	rec.ID = "3f1c5c8e-6a57-4a53-9a43-1f7f6c1b2d10"

	require.NoError(t, indexer.Index(context.Background(), rec))

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/"+DefaultIndex+"/_doc/"+rec.ID, gotPath)
	assert.Equal(t, "Recipe box", doc.Summary)
	assert.Equal(t, "recipes", doc.Vibe)
	assert.Equal(t, rec.Spec.Completeness.Score, doc.Score)
}

func TestIndexer_IndexError(t *testing.T) {
	indexer := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"type": "mapper_parsing_exception"}}`))
	})

	rec := sampleRecord()
	rec.ID = "id-1"
	err := indexer.Index(context.Background(), rec)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorageFailed))
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestIndexer_Search(t *testing.T) {
	var query map[string]interface{}
	indexer := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/"+DefaultIndex+"/_search", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("size"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&query))
		w.Write([]byte(`{
		  "hits": {
		    "total": {"value": 1, "relation": "eq"},
		    "hits": [{"_id": "a", "_source": {"id": "a", "summary": "Recipe box", "score": 40}}]
		  }
		}`))
	})

	docs, total, err := indexer.Search(context.Background(), "recipe", 5)
	require.NoError(t, err)

	assert.Equal(t, int64(1), total)
	require.Len(t, docs, 1)
	assert.Equal(t, "Recipe box", docs[0].Summary)
	assert.Equal(t, 40, docs[0].Score)

	multiMatch := query["query"].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "recipe", multiMatch["query"])
}

func TestNewDocument_SkipsUnnamedRoles(t *testing.T) {
	rec := sampleRecord()
	rec.Spec.Roles = []spec.Role{{Description: "Reviews recipes"}, {Role: "Chef"}}

	doc := NewDocument(rec)
	assert.Equal(t, []string{"Chef"}, doc.Roles)
	assert.Equal(t, "Recipe box", doc.Summary)
}

func TestIndexer_EnsureIndex(t *testing.T) {
	tests := []struct {
		name       string
		existsCode int
		createCode int
		createBody string
		wantCreate bool
		wantErr    bool
	}{
		{name: "already present", existsCode: http.StatusOK},
		{name: "created", existsCode: http.StatusNotFound, createCode: http.StatusOK, createBody: `{"acknowledged": true}`, wantCreate: true},
		{
			name:       "lost creation race",
			existsCode: http.StatusNotFound,
			createCode: http.StatusBadRequest,
			createBody: `{"error": {"type": "resource_already_exists_exception"}}`,
			wantCreate: true,
		},
		{
			name:       "create rejected",
			existsCode: http.StatusNotFound,
			createCode: http.StatusBadRequest,
			createBody: `{"error": {"type": "mapper_parsing_exception"}}`,
			wantCreate: true,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			created := false
			indexer := newTestIndexer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/"+DefaultIndex, r.URL.Path)
				switch r.Method {
				case http.MethodHead:
					w.WriteHeader(tt.existsCode)
				case http.MethodPut:
					created = true
					var mapping map[string]interface{}
					assert.NoError(t, json.NewDecoder(r.Body).Decode(&mapping))
					assert.Contains(t, mapping, "mappings")
					w.WriteHeader(tt.createCode)
					w.Write([]byte(tt.createBody))
				default:
					t.Errorf("unexpected method %s", r.Method)
				}
			})

			err := indexer.EnsureIndex(context.Background())
			assert.Equal(t, tt.wantCreate, created)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrStorageFailed)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
