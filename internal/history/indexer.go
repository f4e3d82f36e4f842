// internal/history/indexer.go
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"vibe-transmuter/internal/common/logger"
)

const DefaultIndex = "vibe-specs"

// Document is the searchable projection of a Record.
type Document struct {
	ID           string    `json:"id"`
	RequestID    string    `json:"requestId"`
	Vibe         string    `json:"vibe"`
	Summary      string    `json:"summary"`
	MustFeatures []string  `json:"mustFeatures"`
	Roles        []string  `json:"roles"`
	Score        int       `json:"score"`
	Warnings     []string  `json:"warnings"`
	CreatedAt    time.Time `json:"createdAt"`
}

func NewDocument(rec *Record) Document {
	roles := make([]string, 0, len(rec.Spec.Roles))
	for _, r := range rec.Spec.Roles {
		if r.Role != "" {
			roles = append(roles, r.Role)
		}
	}
	return Document{
		ID:           rec.ID,
		RequestID:    rec.RequestID,
		Vibe:         rec.Vibe,
		Summary:      rec.Spec.Summary,
		MustFeatures: rec.Spec.Features.Must,
		Roles:        roles,
		Score:        rec.Spec.Completeness.Score,
		Warnings:     rec.Spec.Completeness.Warnings,
		CreatedAt:    rec.CreatedAt,
	}
}

// Indexer writes spec summaries to Elasticsearch for search.
type Indexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewIndexer(client *elasticsearch.Client, index string, log logger.Logger) *Indexer {
	if index == "" {
		index = DefaultIndex
	}
	return &Indexer{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"index": index}),
	}
}

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":           {"type": "keyword"},
      "requestId":    {"type": "keyword"},
      "vibe":         {"type": "text"},
      "summary":      {"type": "text"},
      "mustFeatures": {"type": "text"},
      "roles":        {"type": "keyword"},
      "score":        {"type": "integer"},
      "warnings":     {"type": "keyword"},
      "createdAt":    {"type": "date"}
    }
  }
}`

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	exists, err := esapi.IndicesExistsRequest{Index: []string{i.index}}.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("%w: index exists: %v", ErrStorageFailed, err)
	}
	exists.Body.Close()
	if exists.StatusCode == 200 {
		return nil
	}

	res, err := esapi.IndicesCreateRequest{
		Index: i.index,
		Body:  strings.NewReader(indexMapping),
	}.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("%w: create index: %v", ErrStorageFailed, err)
	}
	defer res.Body.Close()

	// a concurrent creator wins the race; that is fine
	if res.IsError() && !strings.Contains(readError(res.Body, res.Status()), "resource_already_exists_exception") {
		return fmt.Errorf("%w: create index: %s", ErrStorageFailed, res.Status())
	}

	i.logger.Info("search index ready", nil)
	return nil
}

func (i *Indexer) Index(ctx context.Context, rec *Record) error {
	body, err := json.Marshal(NewDocument(rec))
	if err != nil {
		return fmt.Errorf("%w: encode document: %v", ErrStorageFailed, err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: rec.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("%w: index request: %v", ErrStorageFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: index error: %s", ErrStorageFailed, readError(res.Body, res.Status()))
	}

	i.logger.Debug("spec indexed", map[string]interface{}{"id": rec.ID})
	return nil
}

// Search runs a full-text query over summaries, features and vibes.
func (i *Indexer) Search(ctx context.Context, query string, size int) ([]Document, int64, error) {
	if size <= 0 {
		size = 10
	}

	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  query,
				"fields": []string{"summary^3", "mustFeatures^2", "vibe", "roles"},
				"type":   "best_fields",
			},
		},
		"sort": []interface{}{"_score", map[string]interface{}{"createdAt": "desc"}},
	}
	body, _ := json.Marshal(queryBody)

	req := esapi.SearchRequest{
		Index: []string{i.index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: search request: %v", ErrStorageFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, 0, fmt.Errorf("%w: search error: %s", ErrStorageFailed, readError(res.Body, res.Status()))
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, 0, fmt.Errorf("%w: decode search response: %v", ErrStorageFailed, err)
	}

	docs := make([]Document, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		docs = append(docs, h.Source)
	}
	return docs, parsed.Hits.Total.Value, nil
}

func readError(body io.Reader, status string) string {
	data, _ := io.ReadAll(io.LimitReader(body, 1024))
	if len(data) == 0 {
		return status
	}
	return fmt.Sprintf("%s: %s", status, strings.TrimSpace(string(data)))
}
