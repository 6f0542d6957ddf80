package innertube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const requestTimeout = 30 * time.Second

// StatusError reports an innertube HTTP response with status >= 400.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("innertube %s returned HTTP %d", e.Endpoint, e.Code)
}

// MalformedResponseError reports a response body that did not decode as the
// expected structure. Distinct from a well-formed response that carries an
// error status.
type MalformedResponseError struct {
	Endpoint string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("innertube %s: malformed response: %v", e.Endpoint, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// UnplayableError reports a well-formed player response whose playability
// status flags the video as unavailable to this client.
type UnplayableError struct {
	VideoID string
	Status  string
	Reason  string
}

func (e *UnplayableError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("video %s: %s", e.VideoID, e.Reason)
	}
	return fmt.Sprintf("video %s: %s", e.VideoID, e.Status)
}

// Gateway issues the two internal RPC calls (player and browse) against the
// platform's innertube API.
type Gateway struct {
	client *http.Client

	// baseURL overrides the per-profile host, for tests
	baseURL string
}

// NewGateway returns a Gateway with a default HTTP client.
func NewGateway() *Gateway {
	return &Gateway{
		client: &http.Client{
			Timeout: requestTimeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
			},
		},
	}
}

// NewGatewayWithBaseURL returns a Gateway that sends every call to base
// instead of the per-profile host. Intended for tests.
func NewGatewayWithBaseURL(base string) *Gateway {
	g := NewGateway()
	g.baseURL = base
	return g
}

// PlayerOptions carries optional parameters for a player request.
type PlayerOptions struct {
	// SignatureTimestamp is the player script's signature timestamp; sending
	// it makes cipher-protected responses decodable with that script
	SignatureTimestamp int
	Params             string
}

// BrowseOptions carries optional parameters for a browse request.
type BrowseOptions struct {
	Continuation string
	Params       string
}

// Player fetches media info for a video as seen by the given client profile.
func (g *Gateway) Player(ctx context.Context, videoID string, profile ClientProfile, opts PlayerOptions) (*PlayerResponse, error) {
	body := map[string]any{
		"context":        profile.context(),
		"videoId":        videoID,
		"contentCheckOk": true,
		"racyCheckOk":    true,
	}
	playback := map[string]any{"html5Preference": "HTML5_PREF_WANTS"}
	if opts.SignatureTimestamp > 0 {
		playback["signatureTimestamp"] = opts.SignatureTimestamp
	}
	body["playbackContext"] = map[string]any{"contentPlaybackContext": playback}
	if opts.Params != "" {
		body["params"] = opts.Params
	}

	var resp PlayerResponse
	if err := g.call(ctx, "player", profile, body, &resp); err != nil {
		return nil, err
	}
	if status := resp.PlayabilityStatus; status.Status == "ERROR" || status.Status == "LOGIN_REQUIRED" {
		reason := status.Reason
		if reason == "" && len(status.Messages) > 0 {
			reason = status.Messages[0]
		}
		return nil, &UnplayableError{VideoID: videoID, Status: status.Status, Reason: reason}
	}
	return &resp, nil
}

// Browse fetches one page of a browse listing (playlists, channels).
func (g *Gateway) Browse(ctx context.Context, browseID string, profile ClientProfile, opts BrowseOptions) (*BrowseResponse, error) {
	body := map[string]any{
		"context":  profile.context(),
		"browseId": browseID,
	}
	if opts.Continuation != "" {
		body["continuation"] = opts.Continuation
	}
	if opts.Params != "" {
		body["params"] = opts.Params
	}

	var resp BrowseResponse
	if err := g.call(ctx, "browse", profile, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *Gateway) call(ctx context.Context, endpoint string, profile ClientProfile, body map[string]any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", endpoint, err)
	}

	base := g.baseURL
	if base == "" {
		base = "https://" + profile.Host
	}
	url := fmt.Sprintf("%s/youtubei/v1/%s?prettyPrint=false", base, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-YouTube-Client-Name", fmt.Sprintf("%d", profile.ContextNameID))
	req.Header.Set("X-YouTube-Client-Version", profile.ClientVersion)
	req.Header.Set("Origin", "https://"+profile.Host)
	req.Header.Set("User-Agent", profile.UserAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("innertube %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Endpoint: endpoint, Code: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &MalformedResponseError{Endpoint: endpoint, Err: err}
	}
	return nil
}

// retryBaseDelay is the base backoff between transient request retries.
const retryBaseDelay = 500 * time.Millisecond

// Retry runs fn up to attempts times, doubling the delay after each failure.
// Unplayable responses are definitive and are not retried.
func Retry[T any](ctx context.Context, attempts int, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	delay := retryBaseDelay
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
			delay *= 2
		}
		v, err := fn()
		if err == nil {
			return v, nil
		}
		var unplayable *UnplayableError
		if errors.As(err, &unplayable) {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}
