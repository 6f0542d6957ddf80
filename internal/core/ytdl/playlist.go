package ytdl

import (
	"context"

	"github.com/guiyumin/ytdl/internal/core/extractor"
)

// EntryError records one playlist entry that failed to download.
type EntryError struct {
	VideoID string
	Title   string
	Err     error
}

// PlaylistResult summarizes a playlist download. Entries that fail leave the
// rest of the playlist unaffected, so Downloaded and Failed together cover
// every entry attempted.
type PlaylistResult struct {
	Playlist   *extractor.PlaylistInfo
	Downloaded []string
	Failed     []EntryError
}

// DownloadPlaylist walks the playlist and downloads its entries one by one.
// A per-entry failure is recorded and the walk continues; cancellation stops
// between entries and returns what completed so far along with the context
// error.
func (c *Client) DownloadPlaylist(ctx context.Context, url string, opts Options) (*PlaylistResult, error) {
	playlist, err := c.playlists.Extract(ctx, url)
	if err != nil {
		return nil, err
	}

	result := &PlaylistResult{Playlist: playlist}
	for _, entry := range playlist.Entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		// entry-specific output paths would collide, only the directory
		// carries over
		entryOpts := opts
		entryOpts.OutputPath = ""

		path, err := c.Download(ctx, entry.VideoID, entryOpts)
		if err != nil {
			result.Failed = append(result.Failed, EntryError{
				VideoID: entry.VideoID,
				Title:   entry.Title,
				Err:     err,
			})
			continue
		}
		result.Downloaded = append(result.Downloaded, path)
	}
	return result, nil
}
