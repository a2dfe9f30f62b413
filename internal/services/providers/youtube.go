package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/exec"
	"path/filepath"
	"time"
)

// YouTubeAdapter resolves videos through yt-dlp, extracting the audio
// track and the video's metadata in a single invocation.
type YouTubeAdapter struct {
	binaryPath string
	timeout    time.Duration
}

// NewYouTubeAdapter creates a yt-dlp backed adapter
func NewYouTubeAdapter(binaryPath string, timeout time.Duration) *YouTubeAdapter {
	if binaryPath == "" {
		binaryPath = "yt-dlp"
	}
	return &YouTubeAdapter{binaryPath: binaryPath, timeout: timeout}
}

// ytdlpInfo is the subset of yt-dlp's info JSON we care about
type ytdlpInfo struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

func (a *YouTubeAdapter) Resolve(ctx context.Context, req ResolveRequest) (*Resolution, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	outputTemplate := filepath.Join(req.WorkDir, "audio.%(ext)s")
	args := []string{
		"--no-playlist",
		"--no-progress",
		"--print-json",
		"-f", "bestaudio/best",
		"-o", outputTemplate,
		req.URL,
	}

	log.Printf("[DEBUG] Running yt-dlp for %s", req.URL)
	cmd := exec.CommandContext(ctx, a.binaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp failed for %s: %w (stderr: %s)", req.URL, err, stderr.String())
	}

	var info ytdlpInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(req.WorkDir, "audio.*"))
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("yt-dlp produced no audio file in %s", req.WorkDir)
	}

	return &Resolution{
		AudioPath:    matches[0],
		Title:        info.Title,
		ThumbnailURL: info.Thumbnail,
	}, nil
}
