package factory

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ab7289/dining-concierge/internal/config"
	"github.com/ab7289/dining-concierge/internal/searchindex"
)

// NewSearchIndex creates the search index client from config.
func NewSearchIndex(cfg *config.Config, log zerolog.Logger) (searchindex.Index, error) {
	if cfg.SearchIndexURL == "" {
		return nil, fmt.Errorf("search index URL not configured - required for service operation")
	}
	idx, err := searchindex.NewOpenSearchIndex(searchindex.Config{
		BaseURL:   cfg.SearchIndexURL,
		IndexName: cfg.SearchIndexName,
		Username:  cfg.SearchIndexUser,
		Password:  cfg.SearchIndexPassword,
	})
	if err != nil {
		return nil, err
	}
	log.Debug().Str("url", cfg.SearchIndexURL).Str("index", cfg.SearchIndexName).Msg("search index client ready")
	return idx, nil
}
