package extractor

import (
	"strconv"
	"strings"

	"github.com/guiyumin/ytdl/internal/core/innertube"
)

// VideoInfo is the extraction result for one video. It is a value object:
// callers own it after return and no component keeps a mutable reference.
type VideoInfo struct {
	ID          string
	Title       string
	Description string
	Duration    int // seconds
	ViewCount   int64
	Author      string
	ChannelID   string
	IsLive      bool
	Thumbnails  []innertube.Thumbnail
	Formats     []FormatDescriptor

	// Client is the tag of the profile that produced this response
	Client string
}

// FormatDescriptor is one playable rendition. Exactly one of AudioOnly,
// VideoOnly or both-codecs-present holds; descriptors with neither codec are
// dropped during parsing.
type FormatDescriptor struct {
	Itag     int
	FormatID string
	URL      string
	Ext      string
	MimeType string

	VCodec string // codec tag or "none"
	ACodec string // codec tag or "none"

	Width   int
	Height  int
	FPS     int
	Bitrate int

	AudioBitrate    int // kbps, 0 when unknown
	AudioSampleRate int
	AudioChannels   int

	Filesize int64 // bytes, 0 when unknown

	Quality      string
	QualityLabel string
	AudioQuality string

	AudioOnly bool
	VideoOnly bool

	ApproxDurationMs int64
}

// Resolution returns a printable resolution label.
func (f *FormatDescriptor) Resolution() string {
	if f.AudioOnly {
		return "audio only"
	}
	if f.QualityLabel != "" {
		return f.QualityLabel
	}
	if f.Height > 0 {
		return strconv.Itoa(f.Height) + "p"
	}
	return "unknown"
}

var extByMime = map[string]string{
	"audio/mp4":             "m4a",
	"audio/webm":            "webm",
	"audio/ogg":             "ogg",
	"audio/mpeg":            "mp3",
	"video/mp4":             "mp4",
	"video/webm":            "webm",
	"video/3gpp":            "3gp",
	"application/x-mpegURL": "m3u8",
	"application/dash+xml":  "mpd",
}

// mimeTypeExt maps a mime type (with or without codec suffix) to a container
// extension.
func mimeTypeExt(mimeType string) string {
	base := strings.TrimSpace(strings.Split(mimeType, ";")[0])
	if ext, ok := extByMime[base]; ok {
		return ext
	}
	if i := strings.Index(base, "/"); i >= 0 && i+1 < len(base) {
		return base[i+1:]
	}
	return ""
}

var (
	videoCodecPrefixes = []string{"avc1", "vp9", "vp8", "av01", "hev1", "hvc1"}
	audioCodecPrefixes = []string{"mp4a", "opus", "vorbis", "ac-3", "ec-3", "flac"}
)

// parseCodecs classifies the codecs attribute of a mime type into a video
// and an audio codec tag, either of which may be "none".
func parseCodecs(mimeType string) (vcodec, acodec string) {
	vcodec, acodec = "none", "none"
	start := strings.Index(mimeType, `codecs="`)
	if start < 0 {
		return
	}
	rest := mimeType[start+len(`codecs="`):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return
	}
	for _, c := range strings.Split(rest[:end], ",") {
		c = strings.TrimSpace(c)
		prefix := strings.Split(c, ".")[0]
		switch {
		case contains(videoCodecPrefixes, prefix):
			vcodec = c
		case contains(audioCodecPrefixes, prefix):
			acodec = c
		}
	}
	return
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// parseFormat normalizes one raw stream descriptor. resolvedURL is the final
// playable URL (already descrambled when the response was cipher-protected).
// Returns false for descriptors that carry neither codec.
func parseFormat(raw innertube.Format, resolvedURL string) (FormatDescriptor, bool) {
	mimeType := raw.MimeType
	ext := mimeTypeExt(mimeType)
	vcodec, acodec := parseCodecs(mimeType)
	audioOnly := strings.HasPrefix(mimeType, "audio/")

	if audioOnly {
		vcodec = "none"
		if ext == "mp4" {
			ext = "m4a"
		}
	}
	if vcodec == "none" && acodec == "none" {
		return FormatDescriptor{}, false
	}

	desc := FormatDescriptor{
		Itag:          raw.Itag,
		FormatID:      strconv.Itoa(raw.Itag),
		URL:           resolvedURL,
		Ext:           ext,
		MimeType:      mimeType,
		VCodec:        vcodec,
		ACodec:        acodec,
		Width:         raw.Width,
		Height:        raw.Height,
		FPS:           raw.FPS,
		Bitrate:       raw.Bitrate,
		AudioChannels: raw.AudioChannels,
		Quality:       raw.Quality,
		QualityLabel:  raw.QualityLabel,
		AudioQuality:  raw.AudioQuality,
		AudioOnly:     audioOnly,
		VideoOnly:     !audioOnly && acodec == "none",
	}

	if audioOnly {
		if raw.AverageBitrate > 0 {
			desc.AudioBitrate = raw.AverageBitrate / 1000
		} else if raw.Bitrate > 0 {
			desc.AudioBitrate = raw.Bitrate / 1000
		}
	}
	if raw.AudioSampleRate != "" {
		desc.AudioSampleRate, _ = strconv.Atoi(raw.AudioSampleRate)
	}
	if raw.ContentLength != "" {
		desc.Filesize, _ = strconv.ParseInt(raw.ContentLength, 10, 64)
	}
	if raw.ApproxDurationMs != "" {
		desc.ApproxDurationMs, _ = strconv.ParseInt(raw.ApproxDurationMs, 10, 64)
	}
	return desc, true
}
