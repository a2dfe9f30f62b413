// Package ffmpeg wraps the ffmpeg and ffprobe binaries for time-windowed
// clip extraction and container conversion. All invocations honor the
// caller's context and the configured timeout.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// FFmpeg wraps ffmpeg and ffprobe functionality
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	timeout     time.Duration
}

// New creates a new FFmpeg instance
func New(ffmpegPath, ffprobePath string, timeout time.Duration) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		timeout:     timeout,
	}
}

// ValidateBinaries checks if ffmpeg and ffprobe are available
func (f *FFmpeg) ValidateBinaries() error {
	if _, err := exec.LookPath(f.ffmpegPath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFmpegNotFound, f.ffmpegPath)
	}
	if _, err := exec.LookPath(f.ffprobePath); err != nil {
		return fmt.Errorf("%w: %s", ErrFFprobeNotFound, f.ffprobePath)
	}
	return nil
}

// ClampWindow clamps a requested [start, end) window to a file of the given
// duration. Negative starts clamp to 0, ends past the file clamp to the file
// duration. Returns ErrInvalidRange when no non-empty window remains.
func ClampWindow(start, end, duration float64) (float64, float64, error) {
	if start < 0 {
		start = 0
	}
	if duration > 0 && end > duration {
		end = duration
	}
	if end <= start {
		return 0, 0, ErrInvalidRange
	}
	return start, end, nil
}

// Clip extracts the [start, end) second window of src into a new 16 kHz mono
// WAV file next to src and returns its path. The window is clamped to the
// file's real duration first; src is never modified.
func (f *FFmpeg) Clip(ctx context.Context, src string, start, end float64) (string, error) {
	fileDuration, err := f.Duration(ctx, src)
	if err != nil {
		return "", err
	}

	start, end, err = ClampWindow(start, end, fileDuration)
	if err != nil {
		return "", err
	}

	out := strings.TrimSuffix(src, filepath.Ext(src)) + "_clip.wav"

	// -ss before -i seeks on the demuxer, which is much faster on long files
	args := []string{
		"-ss", fmt.Sprintf("%.3f", start),
		"-i", src,
		"-t", fmt.Sprintf("%.3f", end-start),
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-f", "wav",
		"-y",
		out,
	}

	if err := f.run(ctx, "clip_extraction", src, args); err != nil {
		return "", err
	}
	return out, nil
}

// ActivateAAX converts an Audible .aax container to m4a using the account's
// activation bytes. Stream copy only, no re-encode.
func (f *FFmpeg) ActivateAAX(ctx context.Context, src, activationBytes string) (string, error) {
	out := strings.TrimSuffix(src, filepath.Ext(src)) + ".m4a"

	args := []string{
		"-activation_bytes", activationBytes,
		"-i", src,
		"-c", "copy",
		"-y",
		out,
	}

	if err := f.run(ctx, "aax_activation", src, args); err != nil {
		return "", err
	}
	return out, nil
}

// run executes ffmpeg with the given arguments, treating non-zero exit as
// failure.
func (f *FFmpeg) run(ctx context.Context, operation, input string, args []string) error {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return NewProcessingError(operation, input, err, stderr.String())
	}
	return nil
}
