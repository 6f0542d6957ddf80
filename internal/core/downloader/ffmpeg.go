package downloader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// maxStderr bounds how much ffmpeg output is carried inside an error.
const maxStderr = 2048

// PostProcessError reports a failed external ffmpeg invocation, carrying the
// tail of its stderr for diagnosis.
type PostProcessError struct {
	Op     string
	Stderr string
	Err    error
}

func (e *PostProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("ffmpeg %s failed: %v\n%s", e.Op, e.Err, e.Stderr)
	}
	return fmt.Sprintf("ffmpeg %s failed: %v", e.Op, e.Err)
}

func (e *PostProcessError) Unwrap() error { return e.Err }

// FFmpegAvailable reports whether ffmpeg is on PATH.
func FFmpegAvailable() bool {
	_, err := exec.LookPath("ffmpeg")
	return err == nil
}

// MergeVideoAudio muxes separate video and audio files into outputPath with
// stream copy, no re-encoding. The inputs are left in place; the caller
// decides their fate.
func (d *Downloader) MergeVideoAudio(ctx context.Context, videoPath, audioPath, outputPath string) error {
	if !FFmpegAvailable() {
		return &PostProcessError{Op: "merge", Err: fmt.Errorf("ffmpeg not found in PATH")}
	}

	args := []string{
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v",
		"-map", "1:a",
		"-c", "copy",
		"-y",
		outputPath,
	}
	return d.runFFmpeg(ctx, "merge", args, nil, outputPath)
}

// ConvertToMP3 transcodes inputPath to an mp3 at outputPath. quality is the
// lame VBR level, 0 (best) through 9 (smallest).
func (d *Downloader) ConvertToMP3(ctx context.Context, inputPath, outputPath string, quality int) error {
	if !FFmpegAvailable() {
		return &PostProcessError{Op: "convert", Err: fmt.Errorf("ffmpeg not found in PATH")}
	}

	args := []string{
		"-i", inputPath,
		"-vn",
		"-codec:a", "libmp3lame",
		"-q:a", fmt.Sprintf("%d", quality),
		"-y",
		outputPath,
	}
	return d.runFFmpeg(ctx, "convert", args, nil, outputPath)
}

// ConvertStreamToMP3 transcodes an audio stream to an mp3 at outputPath
// without an intermediate file, feeding ffmpeg through stdin.
func (d *Downloader) ConvertStreamToMP3(ctx context.Context, stream io.Reader, outputPath string, quality int) error {
	if !FFmpegAvailable() {
		return &PostProcessError{Op: "convert", Err: fmt.Errorf("ffmpeg not found in PATH")}
	}

	args := []string{
		"-i", "pipe:0",
		"-vn",
		"-codec:a", "libmp3lame",
		"-q:a", fmt.Sprintf("%d", quality),
		"-y",
		outputPath,
	}
	return d.runFFmpeg(ctx, "convert", args, stream, outputPath)
}

func (d *Downloader) runFFmpeg(ctx context.Context, op string, args []string, stdin io.Reader, outputPath string) error {
	d.Progress.Publish(ProgressEvent{Phase: PhaseConverting, Status: StatusStarted, Path: outputPath})

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stdin = stdin
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// a failed run must not leave a half-written output behind
		os.Remove(outputPath)
		tail := stderr.Bytes()
		if len(tail) > maxStderr {
			tail = tail[len(tail)-maxStderr:]
		}
		return &PostProcessError{Op: op, Stderr: string(tail), Err: err}
	}

	d.Progress.Publish(ProgressEvent{Phase: PhaseConverting, Status: StatusFinished, Path: outputPath})
	return nil
}
