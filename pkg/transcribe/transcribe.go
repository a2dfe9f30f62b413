// Package transcribe converts audio clips to text by shelling out to a
// whisper.cpp binary. Speech recognition itself is an external capability;
// this wrapper only manages the subprocess contract.
package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var (
	// ErrBinaryNotFound indicates the whisper binary is not available
	ErrBinaryNotFound = errors.New("whisper binary not found")
	// ErrEmptyTranscript indicates the engine produced no usable text
	ErrEmptyTranscript = errors.New("transcription produced no text")
)

// Options configures the whisper invocation
type Options struct {
	BinaryPath string        // whisper-cli or whisper.cpp main binary
	ModelPath  string        // ggml model file
	Language   string        // e.g. "en"
	Threads    int
	Timeout    time.Duration
}

// DefaultOptions returns default transcriber options
func DefaultOptions() Options {
	return Options{
		BinaryPath: "whisper-cli",
		ModelPath:  "./models/ggml-base.en.bin",
		Language:   "en",
		Threads:    4,
		Timeout:    5 * time.Minute,
	}
}

// Transcriber runs speech-to-text over WAV clips
type Transcriber struct {
	options Options
}

// New creates a new transcriber
func New(options Options) *Transcriber {
	return &Transcriber{options: options}
}

// ValidateBinary checks that the whisper binary is on PATH
func (t *Transcriber) ValidateBinary() error {
	if _, err := exec.LookPath(t.options.BinaryPath); err != nil {
		return fmt.Errorf("%w: %s", ErrBinaryNotFound, t.options.BinaryPath)
	}
	return nil
}

// Transcribe converts a 16 kHz mono WAV clip to text. Non-zero exit or an
// empty transcript is a failure; the caller decides how to record it.
func (t *Transcriber) Transcribe(ctx context.Context, wavPath string) (string, error) {
	if t.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.options.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, t.options.BinaryPath,
		"-m", t.options.ModelPath,
		"-f", wavPath,
		"-l", t.options.Language,
		"-t", fmt.Sprintf("%d", t.options.Threads),
		"-nt", // no timestamps
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("whisper failed for %s: %w (stderr: %s)", wavPath, err, stderr.String())
	}

	text := strings.TrimSpace(stdout.String())
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}
