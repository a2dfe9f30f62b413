// Package download fetches remote audio into temporary storage.
package download

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Options configures the download behavior
type Options struct {
	MaxSize   int64         // Maximum file size in bytes (0 = no limit)
	Timeout   time.Duration // Download timeout
	UserAgent string        // User agent string
}

// DefaultOptions returns default download options
func DefaultOptions() Options {
	return Options{
		MaxSize:   500 * 1024 * 1024, // 500MB
		Timeout:   5 * time.Minute,
		UserAgent: "SnippetsAPI/1.0",
	}
}

// Result contains information about a successful download
type Result struct {
	FilePath      string // Path to downloaded file
	ContentType   string // Content-Type from response
	ContentLength int64  // Bytes written
}

// Downloader fetches audio files into a caller-supplied directory
type Downloader struct {
	client  *http.Client
	options Options
}

// NewDownloader creates a new downloader with the given options
func NewDownloader(options Options) *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: options.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				DisableCompression:  true, // audio payloads are already compressed
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		options: options,
	}
}

// Fetch downloads a URL into dir, naming the file after the URL path. The
// directory must already exist.
func (d *Downloader) Fetch(ctx context.Context, url, dir string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", d.options.UserAgent)
	req.Header.Set("Accept", "audio/*,*/*")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if d.options.MaxSize > 0 && resp.ContentLength > d.options.MaxSize {
		return nil, fmt.Errorf("file too large: %d bytes (max %d)", resp.ContentLength, d.options.MaxSize)
	}

	filePath := filepath.Join(dir, filenameFromURL(url))
	out, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	var body io.Reader = resp.Body
	if d.options.MaxSize > 0 {
		body = &io.LimitedReader{R: resp.Body, N: d.options.MaxSize}
	}

	written, err := io.Copy(out, body)
	out.Close()
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("writing download: %w", err)
	}

	log.Printf("[DEBUG] Downloaded %d bytes to %s", written, filePath)

	return &Result{
		FilePath:      filePath,
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: written,
	}, nil
}

// filenameFromURL derives a usable local filename from the URL path.
func filenameFromURL(url string) string {
	name := path.Base(strings.SplitN(url, "?", 2)[0])
	if name == "" || name == "." || name == "/" {
		name = "download"
	}
	if filepath.Ext(name) == "" {
		name += ".mp3"
	}
	return name
}

// CleanupDir removes a per-item working directory, best effort.
func CleanupDir(dir string) {
	if dir == "" {
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		log.Printf("[ERROR] Failed to clean up temp dir %s: %v", dir, err)
	}
}

// CleanupOldDirs removes item directories older than maxAge under tempDir.
func CleanupOldDirs(tempDir string, maxAge time.Duration) error {
	entries, err := os.ReadDir(tempDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := time.Now().Add(-maxAge)
	var removed int

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.RemoveAll(filepath.Join(tempDir, entry.Name())); err == nil {
				removed++
			}
		}
	}

	if removed > 0 {
		log.Printf("[DEBUG] Cleaned up %d old temp entries", removed)
	}
	return nil
}
