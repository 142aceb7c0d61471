package searchindex

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// osIndex talks to an OpenSearch-compatible REST endpoint. Only the small
// slice of the search API the concierge needs is implemented: exact-term
// query by cuisine plus per-document upsert and delete.
type osIndex struct {
	client    *resty.Client
	indexName string
}

// Config holds connection settings for the search index.
type Config struct {
	BaseURL   string
	IndexName string
	Username  string
	Password  string
}

// NewOpenSearchIndex constructs an Index backed by the REST endpoint at
// cfg.BaseURL.
func NewOpenSearchIndex(cfg Config) (Index, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("search index base URL is empty")
	}
	if cfg.IndexName == "" {
		return nil, fmt.Errorf("search index name is empty")
	}
	c := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Content-Type", "application/json").
		SetTimeout(10 * time.Second)
	if cfg.Username != "" {
		c.SetBasicAuth(cfg.Username, cfg.Password)
	}
	return &osIndex{client: c, indexName: cfg.IndexName}, nil
}

type termQuery struct {
	Query struct {
		Term struct {
			Cuisine struct {
				Value string `json:"value"`
			} `json:"Cuisine"`
		} `json:"term"`
	} `json:"query"`
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source struct {
				ID string `json:"id"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *osIndex) SearchByCuisine(ctx context.Context, cuisine string) ([]string, int, error) {
	var q termQuery
	q.Query.Term.Cuisine.Value = cuisine

	var out searchResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(q).
		SetResult(&out).
		Post(fmt.Sprintf("/%s/_search", s.indexName))
	if err != nil {
		return nil, 0, fmt.Errorf("search index query: %w", err)
	}
	if resp.IsError() {
		return nil, 0, fmt.Errorf("search index query: status %d: %s", resp.StatusCode(), resp.String())
	}

	ids := make([]string, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		ids = append(ids, h.Source.ID)
	}
	return ids, out.Hits.Total.Value, nil
}

func (s *osIndex) UpsertRestaurant(ctx context.Context, id, cuisine string) error {
	doc := map[string]string{"id": id, "Cuisine": cuisine}
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(doc).
		Put(fmt.Sprintf("/%s/_doc/%s", s.indexName, id))
	if err != nil {
		return fmt.Errorf("index upsert %s: %w", id, err)
	}
	if resp.IsError() {
		return fmt.Errorf("index upsert %s: status %d: %s", id, resp.StatusCode(), resp.String())
	}
	return nil
}

func (s *osIndex) DeleteRestaurant(ctx context.Context, id string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("/%s/_doc/%s", s.indexName, id))
	if err != nil {
		return fmt.Errorf("index delete %s: %w", id, err)
	}
	// 404 means the document is already gone; deletion is idempotent.
	if resp.IsError() && resp.StatusCode() != 404 {
		return fmt.Errorf("index delete %s: status %d: %s", id, resp.StatusCode(), resp.String())
	}
	return nil
}

// HealthPing probes the cluster root endpoint.
func (s *osIndex) HealthPing(ctx context.Context) error {
	resp, err := s.client.R().SetContext(ctx).Get("/")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("search index unhealthy: status %d", resp.StatusCode())
	}
	return nil
}
