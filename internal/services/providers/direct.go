package providers

import (
	"context"
	"fmt"
	"net/url"
	"path"

	"github.com/voxnote/snippets-api/pkg/download"
)

// DirectAdapter handles URLs that point straight at an audio file.
// There is no page to scrape, so the title falls back to the filename.
type DirectAdapter struct {
	downloader *download.Downloader
}

// NewDirectAdapter creates an adapter that fetches the URL as-is
func NewDirectAdapter(downloader *download.Downloader) *DirectAdapter {
	return &DirectAdapter{downloader: downloader}
}

func (a *DirectAdapter) Resolve(ctx context.Context, req ResolveRequest) (*Resolution, error) {
	result, err := a.downloader.Fetch(ctx, req.URL, req.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("failed to download audio: %w", err)
	}

	return &Resolution{
		AudioPath: result.FilePath,
		Title:     titleFromPath(req.URL),
	}, nil
}

func titleFromPath(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" {
		return ""
	}
	ext := path.Ext(name)
	return name[:len(name)-len(ext)]
}
