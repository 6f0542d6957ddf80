package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// DefaultUserAgent is the User-Agent header sent with media requests.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// partSuffix marks an in-progress download next to its final path.
const partSuffix = ".part"

// DownloadError reports a failed media transfer. StatusCode is 0 when the
// failure happened below HTTP.
type DownloadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("download failed: %v", e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// Downloader transfers media streams to disk with resume support. Progress
// is observable through the Progress broadcaster; nothing depends on events
// being consumed.
type Downloader struct {
	client    *http.Client
	userAgent string

	Progress *Broadcaster
}

// New creates a Downloader. The HTTP client carries no overall timeout;
// media transfers are long-lived and bounded by context instead.
func New() *Downloader {
	return &Downloader{
		client: &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
			},
		},
		userAgent: DefaultUserAgent,
		Progress:  &Broadcaster{},
	}
}

// Download fetches url into outputPath, resuming from a leftover partial
// file when one exists. The transfer writes to a .part sibling and renames
// it into place only on completion, so a cancelled or failed run never
// leaves a corrupt file at the final path.
func (d *Downloader) Download(ctx context.Context, url, outputPath string) (string, error) {
	partPath := outputPath + partSuffix

	var offset int64
	if fi, err := os.Stat(partPath); err == nil {
		offset = fi.Size()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &DownloadError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", d.userAgent)
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", &DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	// The server saying our range starts at or past the end means the
	// partial file already holds the complete stream.
	if resp.StatusCode == http.StatusRequestedRangeNotSatisfiable && offset > 0 {
		if err := os.Rename(partPath, outputPath); err != nil {
			return "", &DownloadError{URL: url, Err: err}
		}
		d.Progress.Publish(ProgressEvent{
			Phase: PhaseDownloading, Status: StatusFinished,
			Total: offset, Percent: 100, Path: outputPath,
		})
		return outputPath, nil
	}
	if resp.StatusCode >= 400 {
		return "", &DownloadError{URL: url, StatusCode: resp.StatusCode}
	}

	// A 200 to a range request means the server ignored the range and is
	// sending the whole stream; start the partial file over.
	resuming := offset > 0 && resp.StatusCode == http.StatusPartialContent
	if !resuming {
		offset = 0
	}

	var total int64
	if resp.ContentLength >= 0 {
		total = offset + resp.ContentLength
	}

	flags := os.O_CREATE | os.O_WRONLY
	if resuming {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	file, err := os.OpenFile(partPath, flags, 0o644)
	if err != nil {
		return "", &DownloadError{URL: url, Err: err}
	}

	d.Progress.Publish(ProgressEvent{Phase: PhaseDownloading, Status: StatusStarted, Total: total, Path: outputPath})

	start := time.Now()
	buf := make([]byte, 32*1024)
	var session int64

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				file.Close()
				return "", &DownloadError{URL: url, Err: writeErr}
			}
			session += int64(n)
			d.Progress.Publish(d.chunkEvent(session, offset, total, start, outputPath))
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			// the .part file stays behind, resumable on the next attempt
			file.Close()
			return "", &DownloadError{URL: url, Err: readErr}
		}
	}

	if err := file.Close(); err != nil {
		return "", &DownloadError{URL: url, Err: err}
	}
	if err := os.Rename(partPath, outputPath); err != nil {
		return "", &DownloadError{URL: url, Err: err}
	}

	d.Progress.Publish(ProgressEvent{
		Phase: PhaseDownloading, Status: StatusFinished,
		Bytes: session, Total: total, Percent: 100, Path: outputPath,
	})
	return outputPath, nil
}

func (d *Downloader) chunkEvent(session, offset, total int64, start time.Time, path string) ProgressEvent {
	ev := ProgressEvent{
		Phase:  PhaseDownloading,
		Status: StatusDownloading,
		Bytes:  session,
		Total:  total,
		Path:   path,
	}
	if elapsed := time.Since(start).Seconds(); elapsed > 0 {
		ev.Speed = float64(session) / elapsed
	}
	if total > 0 {
		ev.Percent = float64(offset+session) / float64(total) * 100
		if ev.Speed > 0 {
			remaining := total - offset - session
			ev.ETA = time.Duration(float64(remaining)/ev.Speed) * time.Second
		}
	}
	return ev
}

// DownloadToStream opens url for reading without persisting anything,
// validating the response the same way Download does. Returns the body and
// the declared content length (-1 when unknown); the caller owns closing
// the body.
func (d *Downloader) DownloadToStream(ctx context.Context, url string) (io.ReadCloser, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, &DownloadError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, 0, &DownloadError{URL: url, Err: err}
	}
	if resp.StatusCode >= 400 {
		resp.Body.Close()
		return nil, 0, &DownloadError{URL: url, StatusCode: resp.StatusCode}
	}
	return resp.Body, resp.ContentLength, nil
}
