package extractor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/guiyumin/ytdl/internal/core/innertube"
	"github.com/guiyumin/ytdl/internal/core/playerjs"
)

const playerRetryAttempts = 2

// Extractor turns a video URL or id into a VideoInfo with playable format
// URLs. It walks the client profile chain in order and returns the first
// profile's response that yields at least one usable format.
type Extractor struct {
	gateway  *innertube.Gateway
	resolver *playerjs.Resolver

	// profile tags to try, in order; empty means the default chain
	clientPriority []string
}

// New returns an Extractor using the default client chain.
func New() *Extractor {
	return &Extractor{
		gateway:  innertube.NewGateway(),
		resolver: playerjs.NewResolver(),
	}
}

// NewWithPriority overrides the client fallback order. Unknown tags are
// ignored; an all-unknown list falls back to the default chain.
func NewWithPriority(tags []string) *Extractor {
	e := New()
	e.clientPriority = tags
	return e
}

// NewWithGateway wires an explicit gateway and resolver. Intended for tests.
func NewWithGateway(g *innertube.Gateway, r *playerjs.Resolver) *Extractor {
	return &Extractor{gateway: g, resolver: r}
}

// Extract resolves url (any recognized watch/embed/short/live shape, or a
// bare id) into a VideoInfo. Profiles are tried strictly in order; the first
// one producing formats wins.
func (e *Extractor) Extract(ctx context.Context, url string) (*VideoInfo, error) {
	videoID := ParseVideoID(url)
	if videoID == "" {
		return nil, &ExtractionError{Msg: fmt.Sprintf("no video id in %q", url)}
	}

	var lastErr error
	for _, profile := range innertube.Profiles(e.clientPriority) {
		info, err := e.extractWith(ctx, videoID, profile)
		if err != nil {
			lastErr = err
			continue
		}
		if len(info.Formats) == 0 {
			lastErr = fmt.Errorf("client %s returned no formats", profile.Tag)
			continue
		}
		return info, nil
	}

	if lastErr != nil {
		return nil, &ExtractionError{Msg: "all clients failed for " + videoID, Err: lastErr}
	}
	return nil, &ExtractionError{Msg: "no formats for " + videoID}
}

func (e *Extractor) extractWith(ctx context.Context, videoID string, profile innertube.ClientProfile) (*VideoInfo, error) {
	var (
		frags *playerjs.Fragments
		opts  innertube.PlayerOptions
	)
	if profile.RequiresJSPlayer {
		script, err := e.resolver.FetchScript(ctx, videoID)
		if err != nil {
			return nil, err
		}
		frags = e.resolver.Fragments(script)
		opts.SignatureTimestamp = playerjs.SignatureTimestamp(script)
	}

	resp, err := innertube.Retry(ctx, playerRetryAttempts, func() (*innertube.PlayerResponse, error) {
		return e.gateway.Player(ctx, videoID, profile, opts)
	})
	if err != nil {
		return nil, err
	}

	info := videoInfoFrom(resp, profile.Tag)
	raw := append([]innertube.Format{}, resp.StreamingData.Formats...)
	raw = append(raw, resp.StreamingData.AdaptiveFormats...)

	for _, rf := range raw {
		url, urlFrags, err := e.resolveURL(ctx, videoID, rf, frags)
		if err != nil || url == "" {
			// sig-protected descriptor we cannot descramble: drop it
			continue
		}
		if urlFrags != nil {
			url = playerjs.TransformN(urlFrags, url)
		}
		if desc, ok := parseFormat(rf, url); ok {
			info.Formats = append(info.Formats, desc)
		}
	}
	return info, nil
}

// resolveURL produces the playable URL of one raw descriptor. Direct URLs
// pass through; cipher-protected ones require compiled script fragments,
// fetched on demand when a non-scripted profile still returned ciphers.
// The returned fragments include any fetched on demand, so the n transform
// runs on the resolved URL either way.
func (e *Extractor) resolveURL(ctx context.Context, videoID string, rf innertube.Format, frags *playerjs.Fragments) (string, *playerjs.Fragments, error) {
	if rf.URL != "" {
		return rf.URL, frags, nil
	}
	cipher := rf.SignatureCipher
	if cipher == "" {
		cipher = rf.Cipher
	}
	if cipher == "" {
		return "", frags, nil
	}
	if frags == nil {
		script, err := e.resolver.FetchScript(ctx, videoID)
		if err != nil {
			return "", nil, err
		}
		frags = e.resolver.Fragments(script)
	}
	url, err := playerjs.DecodeSignatureCipher(frags, cipher)
	return url, frags, err
}

func videoInfoFrom(resp *innertube.PlayerResponse, clientTag string) *VideoInfo {
	d := resp.VideoDetails
	duration, _ := strconv.Atoi(d.LengthSeconds)
	views, _ := strconv.ParseInt(d.ViewCount, 10, 64)

	title := d.Title
	if title == "" {
		title = resp.Microformat.PlayerMicroformatRenderer.Title.SimpleText
	}

	return &VideoInfo{
		ID:          d.VideoID,
		Title:       title,
		Description: d.ShortDescription,
		Duration:    duration,
		ViewCount:   views,
		Author:      d.Author,
		ChannelID:   d.ChannelID,
		IsLive:      d.IsLiveContent,
		Thumbnails:  d.Thumbnail.Thumbnails,
		Client:      clientTag,
	}
}
