package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/security_backend/internal/models"
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "long"},
      "name":        {"type": "text"},
      "description": {"type": "text"},
      "price":       {"type": "double"},
      "stock":       {"type": "integer"}
    }
  }
}`

// Index keeps product documents in one Elasticsearch index.
type Index struct {
	Client *elasticsearch.Client
	Name   string
}

func NewIndex(client *elasticsearch.Client, name string) *Index {
	return &Index{Client: client, Name: name}
}

func responseError(op string, res io.Reader, status string) error {
	body, _ := io.ReadAll(io.LimitReader(res, 4096))
	return fmt.Errorf("search: %s: %s: %s", op, status, body)
}

// EnsureIndex creates the index with the product mapping if it is missing.
func (ix *Index) EnsureIndex(ctx context.Context) error {
	res, err := ix.Client.Indices.Exists([]string{ix.Name}, ix.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("search: index exists: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = ix.Client.Indices.Create(ix.Name,
		ix.Client.Indices.Create.WithContext(ctx),
		ix.Client.Indices.Create.WithBody(bytes.NewReader([]byte(indexMapping))),
	)
	if err != nil {
		return fmt.Errorf("search: create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res.Body, res.Status())
	}
	return nil
}

func (ix *Index) IndexProduct(ctx context.Context, p *models.Product) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(p); err != nil {
		return fmt.Errorf("search: encode product: %w", err)
	}

	res, err := ix.Client.Index(ix.Name, &buf,
		ix.Client.Index.WithContext(ctx),
		ix.Client.Index.WithDocumentID(strconv.FormatUint(uint64(p.ID), 10)),
		ix.Client.Index.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("search: index product: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index product", res.Body, res.Status())
	}
	return nil
}

// DeleteProduct removes the document. A missing document is not an error.
func (ix *Index) DeleteProduct(ctx context.Context, id uint) error {
	res, err := ix.Client.Delete(ix.Name, strconv.FormatUint(uint64(id), 10),
		ix.Client.Delete.WithContext(ctx),
		ix.Client.Delete.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("search: delete product: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete product", res.Body, res.Status())
	}
	return nil
}

// Search runs a fuzzy match over name and description, name weighted double.
func (ix *Index) Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": size,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("search: encode query: %w", err)
	}

	res, err := ix.Client.Search(
		ix.Client.Search.WithContext(ctx),
		ix.Client.Search.WithIndex(ix.Name),
		ix.Client.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: query: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, responseError("query", res.Body, res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Product `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("search: decode response: %w", err)
	}

	prods := make([]models.Product, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		prods[i] = hit.Source
	}
	return r.Hits.Total.Value, prods, nil
}
