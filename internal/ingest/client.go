// Package ingest pulls restaurants from a Yelp-style business search API
// and loads them into the restaurant store in fixed-size batches.
package ingest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
)

// pageLimit is the largest page the business search API serves per request.
const pageLimit = 50

// Business is one record from the business search API.
type Business struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
	Location    struct {
		DisplayAddress []string `json:"display_address"`
	} `json:"location"`
}

type searchResponse struct {
	Businesses []Business `json:"businesses"`
	Total      int        `json:"total"`
}

// ClientConfig holds the business search API endpoint and credentials.
type ClientConfig struct {
	BaseURL string
	APIKey  string
}

// Client is a paginated business search client.
type Client struct {
	http *resty.Client
}

// NewClient builds a Client with bearer-token auth on every request.
func NewClient(cfg ClientConfig) *Client {
	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Accept", "application/json").
		SetAuthToken(cfg.APIKey)
	return &Client{http: http}
}

// SearchBusinesses retrieves up to limit businesses matching the cuisine
// term in the given location, paging through the API's per-request cap.
func (c *Client) SearchBusinesses(ctx context.Context, location, cuisine string, limit int) ([]Business, error) {
	var out []Business
	for offset := 0; offset < limit; offset += pageLimit {
		page := limit - offset
		if page > pageLimit {
			page = pageLimit
		}
		var body searchResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"location": location,
				"term":     cuisine,
				"limit":    strconv.Itoa(page),
				"offset":   strconv.Itoa(offset),
			}).
			SetResult(&body).
			Get("businesses/search")
		if err != nil {
			return nil, fmt.Errorf("business search: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("business search: status %d: %s", resp.StatusCode(), resp.String())
		}
		out = append(out, body.Businesses...)
		// Short page or exhausted result set means we are done.
		if len(body.Businesses) < page || len(out) >= body.Total {
			break
		}
	}
	return out, nil
}
