package ffmpeg

import (
	"errors"
	"fmt"
)

var (
	// ErrFFmpegNotFound indicates the ffmpeg binary is not available
	ErrFFmpegNotFound = errors.New("ffmpeg binary not found")
	// ErrFFprobeNotFound indicates the ffprobe binary is not available
	ErrFFprobeNotFound = errors.New("ffprobe binary not found")
	// ErrInvalidRange indicates clamping could not produce a non-empty window
	ErrInvalidRange = errors.New("clip range is empty after clamping")
	// ErrInvalidAudioFile indicates the input is not decodable audio
	ErrInvalidAudioFile = errors.New("invalid audio file")
)

// ProcessingError wraps an ffmpeg/ffprobe failure with the operation that
// produced it and the tool's stderr output.
type ProcessingError struct {
	Operation string
	Input     string
	Err       error
	Stderr    string
}

func (e *ProcessingError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed for %s: %v (stderr: %s)", e.Operation, e.Input, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s failed for %s: %v", e.Operation, e.Input, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// NewProcessingError creates a new processing error
func NewProcessingError(operation, input string, err error, stderr string) *ProcessingError {
	return &ProcessingError{
		Operation: operation,
		Input:     input,
		Err:       err,
		Stderr:    stderr,
	}
}
