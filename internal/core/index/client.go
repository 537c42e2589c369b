package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/velasqa/manualsearch/internal/config"
	"github.com/velasqa/manualsearch/internal/core"
	"github.com/velasqa/manualsearch/internal/models"
)

// mapping mirrors the documents index schema: exact-match keyword fields for
// identity and filtering, analyzed text for content and summary. Part numbers
// are keyword at the top level so terms filters compare raw values, with a
// lowercased analyzed subfield for case-insensitive relevance matching.
const mapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "analysis": {
      "analyzer": {
        "part_number_analyzer": {
          "type": "custom",
          "tokenizer": "keyword",
          "filter": ["lowercase"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "document_id":   {"type": "keyword"},
      "filename":      {"type": "keyword"},
      "page":          {"type": "integer"},
      "content":       {"type": "text"},
      "summary":       {"type": "text"},
      "category":      {"type": "keyword"},
      "machine_model": {"type": "keyword"},
      "part_numbers":  {
        "type": "keyword",
        "fields": {
          "analyzed": {"type": "text", "analyzer": "part_number_analyzer"}
        }
      },
      "upload_date":   {"type": "date"},
      "indexed_at":    {"type": "date"},
      "file_size":     {"type": "long"},
      "file_path":     {"type": "keyword"}
    }
  }
}`

type Client struct {
	es     *elasticsearch.Client
	index  string
	logger *slog.Logger
}

func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:     []string{cfg.ElasticsearchURL},
		Username:      cfg.ElasticsearchUser,
		Password:      cfg.ElasticsearchPassword,
		MaxRetries:    3,
		RetryOnStatus: []int{502, 503, 504, 429},
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return &Client{es: es, index: cfg.IndexName, logger: logger}, nil
}

// EnsureIndex creates the documents index if missing.
func (c *Client) EnsureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("index exists check: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = c.es.Indices.Create(c.index,
		c.es.Indices.Create.WithBody(strings.NewReader(mapping)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index %q: %s", c.index, res.String())
	}
	c.logger.Info("created search index", "index", c.index)
	return nil
}

// BulkIndexPages writes all pages in one bulk request. Individual rejections
// are collected, not fatal: the caller reports a reduced indexed count.
func (c *Client) BulkIndexPages(ctx context.Context, pages []models.DocumentPage) (int, []string, error) {
	if len(pages) == 0 {
		return 0, nil, nil
	}

	var buf bytes.Buffer
	for i := range pages {
		p := &pages[i]
		meta := fmt.Sprintf(`{"index":{"_index":%q,"_id":%q}}`, c.index, p.IndexID())
		buf.WriteString(meta)
		buf.WriteByte('\n')
		src, err := json.Marshal(p)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal page %d: %w", p.Page, err)
		}
		buf.Write(src)
		buf.WriteByte('\n')
	}

	res, err := c.es.Bulk(bytes.NewReader(buf.Bytes()),
		c.es.Bulk.WithIndex(c.index),
		c.es.Bulk.WithContext(ctx),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("bulk index: %s", res.String())
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return 0, nil, fmt.Errorf("decode bulk response: %w", err)
	}

	indexed := 0
	var failures []string
	for _, item := range bulkResp.Items {
		for _, r := range item {
			if r.Status < 300 {
				indexed++
			} else if r.Error != nil {
				failures = append(failures, fmt.Sprintf("%s: %s", r.ID, r.Error.Reason))
			} else {
				failures = append(failures, fmt.Sprintf("%s: status %d", r.ID, r.Status))
			}
		}
	}
	return indexed, failures, nil
}

// UpdateSummary rewrites only the summary field of one indexed page.
func (c *Client) UpdateSummary(ctx context.Context, pageID, summary string) error {
	body := map[string]any{"doc": map[string]any{"summary": summary}}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	res, err := c.es.Update(c.index, pageID, bytes.NewReader(payload),
		c.es.Update.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("update summary: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode == 404 {
		return core.ErrNotFound
	}
	if res.IsError() {
		return fmt.Errorf("update summary for %s: %s", pageID, res.String())
	}
	return nil
}

// PagesByDocument fetches all indexed pages of one document, in page order.
func (c *Client) PagesByDocument(ctx context.Context, documentID string, limit int) ([]models.DocumentPage, error) {
	body := map[string]any{
		"query": map[string]any{
			"term": map[string]any{"document_id": documentID},
		},
		"sort": []any{map[string]any{"page": map[string]any{"order": "asc"}}},
	}
	result, err := c.Search(ctx, body, 0, limit)
	if err != nil {
		return nil, err
	}
	pages := make([]models.DocumentPage, 0, len(result.Hits))
	for _, hit := range result.Hits {
		pages = append(pages, hit.Source)
	}
	return pages, nil
}

// DeleteByDocument removes every page of a document. Zero matches is a valid
// outcome, not an error, so deletes stay idempotent.
func (c *Client) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	body := map[string]any{
		"query": map[string]any{
			"term": map[string]any{"document_id": documentID},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	res, err := c.es.DeleteByQuery([]string{c.index}, bytes.NewReader(payload),
		c.es.DeleteByQuery.WithContext(ctx),
	)
	if err != nil {
		return 0, fmt.Errorf("delete by query: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("delete pages for %s: %s", documentID, res.String())
	}

	var out struct {
		Deleted int `json:"deleted"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode delete response: %w", err)
	}
	return out.Deleted, nil
}

// Search runs a raw query body against the index.
func (c *Client) Search(ctx context.Context, body map[string]any, from, size int) (*core.IndexSearchResult, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(payload)),
		c.es.Search.WithFrom(from),
		c.es.Search.WithSize(size),
	)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("search: %s", res.String())
	}

	return decodeSearchResponse(res)
}

func decodeSearchResponse(res *esapi.Response) (*core.IndexSearchResult, error) {
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	var parsed struct {
		Took int `json:"took"`
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID        string              `json:"_id"`
				Score     float64             `json:"_score"`
				Source    models.DocumentPage `json:"_source"`
				Highlight map[string][]string `json:"highlight"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := &core.IndexSearchResult{
		TookMs: parsed.Took,
		Total:  parsed.Hits.Total.Value,
		Hits:   make([]core.IndexHit, 0, len(parsed.Hits.Hits)),
	}
	for _, h := range parsed.Hits.Hits {
		out.Hits = append(out.Hits, core.IndexHit{
			ID:         h.ID,
			Score:      h.Score,
			Source:     h.Source,
			Highlights: h.Highlight,
		})
	}
	return out, nil
}

var _ core.IndexClient = (*Client)(nil)
