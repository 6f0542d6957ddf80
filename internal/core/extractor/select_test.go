package extractor

import (
	"errors"
	"testing"

	"github.com/guiyumin/ytdl/internal/core/innertube"
)

func rawFormat(itag int, mime string, avgBitrate int, contentLength string) innertube.Format {
	return innertube.Format{
		Itag:           itag,
		MimeType:       mime,
		AverageBitrate: avgBitrate,
		ContentLength:  contentLength,
	}
}

func audioFormat(itag int, quality string, kbps int, size int64) FormatDescriptor {
	return FormatDescriptor{
		Itag:         itag,
		MimeType:     `audio/mp4; codecs="mp4a.40.2"`,
		ACodec:       "mp4a.40.2",
		VCodec:       "none",
		AudioOnly:    true,
		AudioQuality: quality,
		AudioBitrate: kbps,
		Bitrate:      kbps * 1000,
		Filesize:     size,
	}
}

func TestSelectFormatAudio(t *testing.T) {
	medium := audioFormat(140, "AUDIO_QUALITY_MEDIUM", 64, 5<<20)
	high := audioFormat(141, "AUDIO_QUALITY_HIGH", 256, 20<<20)
	formats := []FormatDescriptor{high, medium}

	t.Run("fast picks the smaller medium stream", func(t *testing.T) {
		sel, err := SelectFormat(formats, SelectOptions{AudioOnly: true, Fast: true})
		if err != nil {
			t.Fatalf("SelectFormat: %v", err)
		}
		if sel.Format == nil || sel.Format.Itag != 140 {
			t.Errorf("got itag %+v, want 140", sel.Format)
		}
	})

	t.Run("best picks the high quality stream", func(t *testing.T) {
		sel, err := SelectFormat(formats, SelectOptions{AudioOnly: true})
		if err != nil {
			t.Fatalf("SelectFormat: %v", err)
		}
		if sel.Format == nil || sel.Format.Itag != 141 {
			t.Errorf("got itag %+v, want 141", sel.Format)
		}
	})

	t.Run("fast falls back to full set when nothing is small", func(t *testing.T) {
		sel, err := SelectFormat([]FormatDescriptor{high}, SelectOptions{AudioOnly: true, Fast: true})
		if err != nil {
			t.Fatalf("SelectFormat: %v", err)
		}
		if sel.Format == nil || sel.Format.Itag != 141 {
			t.Errorf("got itag %+v, want 141", sel.Format)
		}
	})

	t.Run("no audio format is a format error", func(t *testing.T) {
		video := FormatDescriptor{Itag: 22, VCodec: "avc1.64001F", ACodec: "mp4a.40.2", Height: 720}
		_, err := SelectFormat([]FormatDescriptor{video}, SelectOptions{AudioOnly: true})
		var fe *FormatError
		if !errors.As(err, &fe) {
			t.Errorf("got %v, want FormatError", err)
		}
	})
}

func TestSelectFormatVideo(t *testing.T) {
	combined720 := FormatDescriptor{Itag: 22, VCodec: "avc1.64001F", ACodec: "mp4a.40.2", Height: 720, Bitrate: 2_000_000}
	videoOnly1080 := FormatDescriptor{Itag: 137, VCodec: "avc1.640028", ACodec: "none", VideoOnly: true, Height: 1080, Bitrate: 4_000_000}
	combined1080 := FormatDescriptor{Itag: 37, VCodec: "avc1.640028", ACodec: "mp4a.40.2", Height: 1080, Bitrate: 3_500_000}
	audio := audioFormat(140, "AUDIO_QUALITY_MEDIUM", 128, 0)

	t.Run("higher video-only beats combined and pairs with best audio", func(t *testing.T) {
		sel, err := SelectFormat([]FormatDescriptor{combined720, videoOnly1080, audio}, SelectOptions{})
		if err != nil {
			t.Fatalf("SelectFormat: %v", err)
		}
		if !sel.NeedsMerge {
			t.Fatal("expected a merge pair")
		}
		if sel.Video == nil || sel.Video.Itag != 137 {
			t.Errorf("video = %+v, want itag 137", sel.Video)
		}
		if sel.Audio == nil || sel.Audio.Itag != 140 {
			t.Errorf("audio = %+v, want itag 140", sel.Audio)
		}
	})

	t.Run("equal-resolution combined wins without merge", func(t *testing.T) {
		sel, err := SelectFormat([]FormatDescriptor{combined720, videoOnly1080, combined1080, audio}, SelectOptions{})
		if err != nil {
			t.Fatalf("SelectFormat: %v", err)
		}
		if sel.NeedsMerge {
			t.Fatal("expected a direct stream")
		}
		if sel.Format == nil || sel.Format.Itag != 37 {
			t.Errorf("got %+v, want itag 37", sel.Format)
		}
	})

	t.Run("video-only without audio still selects", func(t *testing.T) {
		sel, err := SelectFormat([]FormatDescriptor{videoOnly1080}, SelectOptions{})
		if err != nil {
			t.Fatalf("SelectFormat: %v", err)
		}
		if !sel.NeedsMerge || sel.Video == nil || sel.Audio != nil {
			t.Errorf("got %+v, want video-only merge pair with no audio", sel)
		}
	})

	t.Run("audio-only list is a format error", func(t *testing.T) {
		_, err := SelectFormat([]FormatDescriptor{audio}, SelectOptions{})
		var fe *FormatError
		if !errors.As(err, &fe) {
			t.Errorf("got %v, want FormatError", err)
		}
	})
}

func TestParseFormat(t *testing.T) {
	t.Run("audio mp4 remaps to m4a", func(t *testing.T) {
		raw := rawFormat(140, `audio/mp4; codecs="mp4a.40.2"`, 130000, "5242880")
		desc, ok := parseFormat(raw, "https://example.com/a")
		if !ok {
			t.Fatal("descriptor dropped")
		}
		if desc.Ext != "m4a" {
			t.Errorf("Ext = %q, want m4a", desc.Ext)
		}
		if !desc.AudioOnly || desc.VCodec != "none" {
			t.Errorf("codec split wrong: %+v", desc)
		}
		if desc.AudioBitrate != 130 {
			t.Errorf("AudioBitrate = %d, want 130", desc.AudioBitrate)
		}
		if desc.Filesize != 5242880 {
			t.Errorf("Filesize = %d, want 5242880", desc.Filesize)
		}
	})

	t.Run("video-only webm", func(t *testing.T) {
		raw := rawFormat(248, `video/webm; codecs="vp9"`, 0, "")
		desc, ok := parseFormat(raw, "https://example.com/v")
		if !ok {
			t.Fatal("descriptor dropped")
		}
		if desc.Ext != "webm" || !desc.VideoOnly || desc.ACodec != "none" {
			t.Errorf("unexpected descriptor: %+v", desc)
		}
	})

	t.Run("codec-free descriptor is dropped", func(t *testing.T) {
		raw := rawFormat(0, `text/plain`, 0, "")
		if _, ok := parseFormat(raw, "https://example.com/x"); ok {
			t.Error("expected drop")
		}
	})
}
