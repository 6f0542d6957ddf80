package extractor

import "sort"

// fastAudioBitrateKbps caps the "fast" audio filter; streams at or above it
// are considered high-fidelity and skipped when optimizing for latency.
const fastAudioBitrateKbps = 200

// SelectOptions controls format selection. The zero value picks the best
// combined video stream.
type SelectOptions struct {
	AudioOnly bool
	// Fast trades fidelity for download size on the audio path.
	Fast bool
}

// SelectedFormat is either a single directly playable Format, or a
// Video+Audio pair that must be muxed (NeedsMerge). Audio may be nil on the
// merge path when the response carried no audio-only stream.
type SelectedFormat struct {
	Format *FormatDescriptor
	Video  *FormatDescriptor
	Audio  *FormatDescriptor

	NeedsMerge bool
}

var audioQualityRank = map[string]int{
	"AUDIO_QUALITY_HIGH":   3,
	"AUDIO_QUALITY_MEDIUM": 2,
	"AUDIO_QUALITY_LOW":    1,
}

// SelectFormat picks the format(s) to download from an extracted list.
func SelectFormat(formats []FormatDescriptor, opts SelectOptions) (SelectedFormat, error) {
	if opts.AudioOnly {
		return selectAudio(formats, opts.Fast)
	}
	return selectVideo(formats)
}

func selectAudio(formats []FormatDescriptor, fast bool) (SelectedFormat, error) {
	var audio []FormatDescriptor
	for _, f := range formats {
		if f.AudioOnly {
			audio = append(audio, f)
		}
	}
	if len(audio) == 0 {
		return SelectedFormat{}, &FormatError{Msg: "no audio-only format available"}
	}

	if fast {
		var small []FormatDescriptor
		for _, f := range audio {
			if f.AudioQuality == "AUDIO_QUALITY_MEDIUM" || (f.AudioBitrate > 0 && f.AudioBitrate < fastAudioBitrateKbps) {
				small = append(small, f)
			}
		}
		if len(small) == 0 {
			small = audio
		}
		sort.SliceStable(small, func(i, j int) bool {
			a, b := &small[i], &small[j]
			if a.Filesize > 0 && b.Filesize > 0 {
				return a.Filesize < b.Filesize
			}
			return a.Bitrate < b.Bitrate
		})
		return SelectedFormat{Format: &small[0]}, nil
	}

	sort.SliceStable(audio, func(i, j int) bool {
		a, b := &audio[i], &audio[j]
		ra, rb := audioQualityRank[a.AudioQuality], audioQualityRank[b.AudioQuality]
		if ra != rb {
			return ra > rb
		}
		return a.Bitrate > b.Bitrate
	})
	return SelectedFormat{Format: &audio[0]}, nil
}

func selectVideo(formats []FormatDescriptor) (SelectedFormat, error) {
	var combined, videoOnly, audioOnly []FormatDescriptor
	for _, f := range formats {
		switch {
		case f.AudioOnly:
			audioOnly = append(audioOnly, f)
		case f.VideoOnly:
			videoOnly = append(videoOnly, f)
		case f.VCodec != "none" && f.ACodec != "none":
			combined = append(combined, f)
		}
	}

	byQuality := func(list []FormatDescriptor) {
		sort.SliceStable(list, func(i, j int) bool {
			a, b := &list[i], &list[j]
			if a.Height != b.Height {
				return a.Height > b.Height
			}
			return a.Bitrate > b.Bitrate
		})
	}

	byQuality(combined)
	byQuality(videoOnly)

	// Prefer a combined stream only when no video-only stream beats it on
	// resolution; otherwise pair the better video with the best audio.
	if len(combined) > 0 && (len(videoOnly) == 0 || videoOnly[0].Height <= combined[0].Height) {
		return SelectedFormat{Format: &combined[0]}, nil
	}
	if len(videoOnly) == 0 {
		if len(combined) > 0 {
			return SelectedFormat{Format: &combined[0]}, nil
		}
		return SelectedFormat{}, &FormatError{Msg: "no video format available"}
	}

	sel := SelectedFormat{Video: &videoOnly[0], NeedsMerge: true}
	if len(audioOnly) > 0 {
		sort.SliceStable(audioOnly, func(i, j int) bool {
			return audioOnly[i].Bitrate > audioOnly[j].Bitrate
		})
		sel.Audio = &audioOnly[0]
	}
	return sel, nil
}
