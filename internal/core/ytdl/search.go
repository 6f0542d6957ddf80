package ytdl

import (
	"context"
	"errors"
	"fmt"

	"github.com/guiyumin/ytdl/internal/core/search"
)

// ErrNoSearcher is returned when SearchAndDownload is called on a client
// without an attached search provider.
var ErrNoSearcher = errors.New("no search provider configured")

// SearchAndDownload queries the attached search provider and downloads the
// top result. Returns the downloaded path and the result it came from.
func (c *Client) SearchAndDownload(ctx context.Context, query string, opts Options) (string, *search.Result, error) {
	if c.searcher == nil {
		return "", nil, ErrNoSearcher
	}

	results, err := c.searcher.Search(ctx, query, 1)
	if err != nil {
		return "", nil, fmt.Errorf("search %q: %w", query, err)
	}
	if len(results) == 0 {
		return "", nil, fmt.Errorf("no results for %q", query)
	}

	top := results[0]
	target := top.URL
	if target == "" {
		target = top.VideoID
	}
	path, err := c.Download(ctx, target, opts)
	if err != nil {
		return "", &top, err
	}
	return path, &top, nil
}
