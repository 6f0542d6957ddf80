// Package ytdl ties extraction, format selection, transfer and
// post-processing together behind one client.
package ytdl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/guiyumin/ytdl/internal/core/downloader"
	"github.com/guiyumin/ytdl/internal/core/extractor"
	"github.com/guiyumin/ytdl/internal/core/search"
)

// Options configures a download. The zero value means best combined video
// into the current directory.
type Options struct {
	// OutputDir receives the file when OutputPath is empty.
	OutputDir string
	// OutputPath is an explicit destination, overriding OutputDir and the
	// title-derived name.
	OutputPath string

	AudioOnly bool
	// BestAudio ranks audio by fidelity instead of download size.
	BestAudio bool
	// MP3Quality is the lame VBR level for audio conversion, 0 best to 9
	// smallest.
	MP3Quality int

	// ClientPriority overrides the extraction client fallback order.
	ClientPriority []string
}

type videoExtractor interface {
	Extract(ctx context.Context, url string) (*extractor.VideoInfo, error)
}

type playlistExtractor interface {
	Extract(ctx context.Context, idOrURL string) (*extractor.PlaylistInfo, error)
}

// Client is the top-level entry point for media extraction and download.
type Client struct {
	ext       videoExtractor
	playlists playlistExtractor
	dl        *downloader.Downloader
	searcher  search.Searcher
}

// New builds a Client. priority overrides the extraction client order; nil
// keeps the default chain.
func New(priority []string) *Client {
	return &Client{
		ext:       extractor.NewWithPriority(priority),
		playlists: extractor.NewPlaylistExtractor(),
		dl:        downloader.New(),
	}
}

// SetSearcher attaches an external search provider for SearchAndDownload.
func (c *Client) SetSearcher(s search.Searcher) { c.searcher = s }

// Progress exposes the event stream for UI subscription.
func (c *Client) Progress() *downloader.Broadcaster { return c.dl.Progress }

// GetInfo extracts metadata and formats without downloading anything.
func (c *Client) GetInfo(ctx context.Context, url string) (*extractor.VideoInfo, error) {
	return c.ext.Extract(ctx, url)
}

// GetURL resolves url and returns the direct media URL of the format the
// given options would download. For a merge pair it returns the video
// stream's URL.
func (c *Client) GetURL(ctx context.Context, url string, opts Options) (string, error) {
	info, err := c.ext.Extract(ctx, url)
	if err != nil {
		return "", err
	}
	sel, err := extractor.SelectFormat(info.Formats, selectOptions(opts))
	if err != nil {
		return "", err
	}
	if sel.Format != nil {
		return sel.Format.URL, nil
	}
	return sel.Video.URL, nil
}

// Download extracts url, selects a format per opts and transfers it to disk,
// merging or converting through ffmpeg where the selection demands it.
// Returns the final file path.
func (c *Client) Download(ctx context.Context, url string, opts Options) (string, error) {
	info, err := c.ext.Extract(ctx, url)
	if err != nil {
		return "", err
	}
	sel, err := extractor.SelectFormat(info.Formats, selectOptions(opts))
	if err != nil {
		return "", err
	}

	if opts.AudioOnly {
		return c.downloadAudio(ctx, info, sel.Format, opts)
	}
	if sel.NeedsMerge {
		return c.downloadAndMerge(ctx, info, sel, opts)
	}
	out := outputPath(info, sel.Format.Ext, opts)
	return c.dl.Download(ctx, sel.Format.URL, out)
}

func selectOptions(opts Options) extractor.SelectOptions {
	return extractor.SelectOptions{
		AudioOnly: opts.AudioOnly,
		Fast:      opts.AudioOnly && !opts.BestAudio,
	}
}

// downloadAudio fetches the audio stream, transcoding to mp3 on the fly when
// ffmpeg is present and keeping the native container otherwise.
func (c *Client) downloadAudio(ctx context.Context, info *extractor.VideoInfo, format *extractor.FormatDescriptor, opts Options) (string, error) {
	if !downloader.FFmpegAvailable() {
		out := outputPath(info, format.Ext, opts)
		return c.dl.Download(ctx, format.URL, out)
	}

	out := outputPath(info, "mp3", opts)
	stream, length, err := c.dl.DownloadToStream(ctx, format.URL)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	counted := &countingReader{r: stream, total: length, progress: c.dl.Progress, path: out, start: time.Now()}
	c.dl.Progress.Publish(downloader.ProgressEvent{
		Phase: downloader.PhaseDownloading, Status: downloader.StatusStarted,
		Total: length, Path: out,
	})
	if err := c.dl.ConvertStreamToMP3(ctx, counted, out, opts.MP3Quality); err != nil {
		return "", err
	}
	c.dl.Progress.Publish(downloader.ProgressEvent{
		Phase: downloader.PhaseDownloading, Status: downloader.StatusFinished,
		Bytes: counted.read, Total: length, Percent: 100, Path: out,
	})
	return out, nil
}

// downloadAndMerge transfers the video and audio streams concurrently into
// temporary files, then muxes them. A failure on either side cancels the
// other; temporaries never survive the call.
func (c *Client) downloadAndMerge(ctx context.Context, info *extractor.VideoInfo, sel extractor.SelectedFormat, opts Options) (string, error) {
	out := outputPath(info, "mp4", opts)

	// no audio counterpart, plain single-stream transfer
	if sel.Audio == nil {
		return c.dl.Download(ctx, sel.Video.URL, outputPath(info, sel.Video.Ext, opts))
	}

	dir := filepath.Dir(out)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	token := uuid.NewString()
	videoTmp := filepath.Join(dir, fmt.Sprintf(".%s.video.%s", token, sel.Video.Ext))
	audioTmp := filepath.Join(dir, fmt.Sprintf(".%s.audio.%s", token, sel.Audio.Ext))
	defer removeWithPartial(videoTmp)
	defer removeWithPartial(audioTmp)

	mergeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var videoErr, audioErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := c.dl.Download(mergeCtx, sel.Video.URL, videoTmp); err != nil {
			videoErr = err
			cancel()
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := c.dl.Download(mergeCtx, sel.Audio.URL, audioTmp); err != nil {
			audioErr = err
			cancel()
		}
	}()
	wg.Wait()

	// Whichever side failed first cancelled the other; surface the root
	// cause, not the peer's cancellation.
	if err := firstCause(videoErr, audioErr); err != nil {
		return "", err
	}

	if err := c.dl.MergeVideoAudio(ctx, videoTmp, audioTmp, out); err != nil {
		return "", err
	}
	return out, nil
}

// firstCause picks the more informative of two concurrent transfer errors,
// skipping a cancellation when the other side carries the real failure.
func firstCause(a, b error) error {
	if a == nil {
		return b
	}
	if b != nil && errors.Is(a, context.Canceled) && !errors.Is(b, context.Canceled) {
		return b
	}
	return a
}

func removeWithPartial(path string) {
	os.Remove(path)
	os.Remove(path + ".part")
}

func outputPath(info *extractor.VideoInfo, ext string, opts Options) string {
	if opts.OutputPath != "" {
		return opts.OutputPath
	}
	name := SanitizeFilename(info.Title)
	if name == "" {
		name = info.ID
	}
	return filepath.Join(opts.OutputDir, name+"."+ext)
}

// countingReader republishes byte progress for a stream that bypasses the
// file downloader on its way into ffmpeg.
type countingReader struct {
	r        io.Reader
	total    int64
	read     int64
	start    time.Time
	path     string
	progress *downloader.Broadcaster
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.read += int64(n)
		ev := downloader.ProgressEvent{
			Phase:  downloader.PhaseDownloading,
			Status: downloader.StatusDownloading,
			Bytes:  c.read,
			Total:  c.total,
			Path:   c.path,
		}
		if elapsed := time.Since(c.start).Seconds(); elapsed > 0 {
			ev.Speed = float64(c.read) / elapsed
		}
		if c.total > 0 {
			ev.Percent = float64(c.read) / float64(c.total) * 100
			if ev.Speed > 0 {
				ev.ETA = time.Duration(float64(c.total-c.read)/ev.Speed) * time.Second
			}
		}
		c.progress.Publish(ev)
	}
	return n, err
}
