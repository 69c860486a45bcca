// Package search turns a product query into raw web hits for the
// lookup pipeline. The provider returns hits in engine order and never
// interprets them; filtering and offer extraction happen downstream.
package search

import (
	"context"
	"strings"

	"github.com/IvndxDB/upc-backend/internal/model"
	"github.com/IvndxDB/upc-backend/pkg/duckduckgo"
	"github.com/rotisserie/eris"
)

// defaultMaxHits bounds how many results a single lookup pulls.
const defaultMaxHits = 10

// Provider searches the web for product listings.
type Provider interface {
	Search(ctx context.Context, query, upc string) ([]model.RawHit, error)
}

// DuckDuckGo adapts the DuckDuckGo HTML client to the Provider
// interface.
type DuckDuckGo struct {
	client  duckduckgo.Client
	maxHits int
}

// NewDuckDuckGo creates a DuckDuckGo-backed provider.
func NewDuckDuckGo(client duckduckgo.Client) *DuckDuckGo {
	return &DuckDuckGo{client: client, maxHits: defaultMaxHits}
}

// Search runs a price-oriented query. The UPC is appended when present
// and "precio" steers the engine toward listing pages.
func (d *DuckDuckGo) Search(ctx context.Context, query, upc string) ([]model.RawHit, error) {
	results, err := d.client.Search(ctx, BuildQuery(query, upc), d.maxHits)
	if err != nil {
		return nil, eris.Wrap(err, "search: duckduckgo")
	}

	hits := make([]model.RawHit, 0, len(results))
	for _, r := range results {
		if r.Link == "" {
			continue
		}
		hits = append(hits, model.RawHit{
			Title:   r.Title,
			Link:    r.Link,
			Snippet: r.Snippet,
		})
	}
	return hits, nil
}

// BuildQuery assembles the search string sent to the engine.
func BuildQuery(query, upc string) string {
	parts := make([]string, 0, 3)
	if q := strings.TrimSpace(query); q != "" {
		parts = append(parts, q)
	}
	if u := strings.TrimSpace(upc); u != "" {
		parts = append(parts, u)
	}
	parts = append(parts, "precio")
	return strings.Join(parts, " ")
}
