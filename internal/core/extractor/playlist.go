package extractor

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/guiyumin/ytdl/internal/core/innertube"
)

const browseRetryAttempts = 2

// PlaylistEntry is one video reference inside a playlist page.
type PlaylistEntry struct {
	VideoID  string
	Title    string
	Duration int // seconds, 0 when unknown
	Index    int // 1-based playlist position, 0 when unknown
}

// PlaylistInfo holds all entries of a playlist in platform order. Duplicate
// video ids are preserved.
type PlaylistInfo struct {
	ID      string
	Title   string
	Entries []PlaylistEntry
}

// PlaylistExtractor walks a playlist's browse pages sequentially, following
// continuation tokens until a page ends without one.
type PlaylistExtractor struct {
	gateway *innertube.Gateway
	profile innertube.ClientProfile
}

func NewPlaylistExtractor() *PlaylistExtractor {
	return NewPlaylistExtractorWithGateway(innertube.NewGateway())
}

// NewPlaylistExtractorWithGateway uses the supplied gateway, letting tests
// point it at a local server.
func NewPlaylistExtractorWithGateway(g *innertube.Gateway) *PlaylistExtractor {
	// playlist browse responses only have the full tabbed shape on the web
	// surface
	profile, _ := innertube.Profile("web")
	return &PlaylistExtractor{gateway: g, profile: profile}
}

// Extract fetches every page of the playlist identified by id or URL.
// Cancellation is honored between pages; a partially-walked playlist is
// never returned.
func (p *PlaylistExtractor) Extract(ctx context.Context, idOrURL string) (*PlaylistInfo, error) {
	playlistID := idOrURL
	if id := ParsePlaylistID(idOrURL); id != "" {
		playlistID = id
	}
	browseID := playlistID
	if !strings.HasPrefix(browseID, "VL") {
		browseID = "VL" + browseID
	}

	resp, err := innertube.Retry(ctx, browseRetryAttempts, func() (*innertube.BrowseResponse, error) {
		return p.gateway.Browse(ctx, browseID, p.profile, innertube.BrowseOptions{})
	})
	if err != nil {
		return nil, &ExtractionError{Msg: "playlist browse failed for " + playlistID, Err: err}
	}

	info := &PlaylistInfo{ID: playlistID, Title: playlistTitle(resp)}
	items := firstPageItems(resp)

	for {
		entries, continuation := splitPage(items)
		info.Entries = append(info.Entries, entries...)
		if continuation == "" {
			return info, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, &ExtractionError{Msg: "playlist walk interrupted", Err: err}
		}

		next, err := innertube.Retry(ctx, browseRetryAttempts, func() (*innertube.BrowseResponse, error) {
			return p.gateway.Browse(ctx, browseID, p.profile, innertube.BrowseOptions{Continuation: continuation})
		})
		if err != nil {
			return nil, &ExtractionError{Msg: fmt.Sprintf("playlist continuation failed for %s", playlistID), Err: err}
		}
		items = continuationItems(next)
	}
}

func playlistTitle(resp *innertube.BrowseResponse) string {
	if t := resp.Metadata.PlaylistMetadataRenderer.Title; t != "" {
		return t
	}
	return resp.Header.PlaylistHeaderRenderer.Title.SimpleText
}

// firstPageItems digs the initial item list out of the tabbed browse shape.
func firstPageItems(resp *innertube.BrowseResponse) []innertube.PlaylistItem {
	for _, tab := range resp.Contents.TwoColumnBrowseResultsRenderer.Tabs {
		for _, section := range tab.TabRenderer.Content.SectionListRenderer.Contents {
			for _, item := range section.ItemSectionRenderer.Contents {
				if len(item.PlaylistVideoListRenderer.Contents) > 0 {
					return item.PlaylistVideoListRenderer.Contents
				}
			}
		}
	}
	return nil
}

func continuationItems(resp *innertube.BrowseResponse) []innertube.PlaylistItem {
	for _, action := range resp.OnResponseReceivedActions {
		if len(action.AppendContinuationItemsAction.ContinuationItems) > 0 {
			return action.AppendContinuationItemsAction.ContinuationItems
		}
	}
	return nil
}

// splitPage converts one page's items into entries and extracts the
// continuation token from the trailing sentinel item, if any. Items without
// a video id are skipped.
func splitPage(items []innertube.PlaylistItem) ([]PlaylistEntry, string) {
	var (
		entries      []PlaylistEntry
		continuation string
	)
	for _, item := range items {
		if c := item.ContinuationItemRenderer; c != nil {
			continuation = c.ContinuationEndpoint.ContinuationCommand.Token
			continue
		}
		v := item.PlaylistVideoRenderer
		if v == nil || v.VideoID == "" {
			continue
		}
		duration, _ := strconv.Atoi(v.LengthSeconds)
		index, _ := strconv.Atoi(v.Index.SimpleText)
		entries = append(entries, PlaylistEntry{
			VideoID:  v.VideoID,
			Title:    v.Title.Text(),
			Duration: duration,
			Index:    index,
		})
	}
	return entries, continuation
}
