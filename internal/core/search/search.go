// Package search defines the boundary to an external video search provider.
// Ranking and retrieval live entirely on the provider's side; consumers only
// see an ordered result list.
package search

import "context"

// Result is one search hit, in provider order.
type Result struct {
	VideoID  string
	Title    string
	URL      string
	Duration int // seconds, 0 when unknown
	Author   string
	Views    int64
}

// Searcher finds videos matching a free-text query. Implementations return
// at most limit results, best match first.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}
