package providers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/voxnote/snippets-api/pkg/download"
)

// PodcastAdapter resolves episode pages on podcast hosting sites. The
// page is scraped for its direct audio link and Open Graph metadata,
// then the audio is fetched like any other file.
type PodcastAdapter struct {
	client     *http.Client
	downloader *download.Downloader
	userAgent  string
}

// NewPodcastAdapter creates a page-scraping adapter
func NewPodcastAdapter(downloader *download.Downloader, timeout time.Duration) *PodcastAdapter {
	return &PodcastAdapter{
		client:     &http.Client{Timeout: timeout},
		downloader: downloader,
		userAgent:  "SnippetsAPI/1.0",
	}
}

func (a *PodcastAdapter) Resolve(ctx context.Context, req ResolveRequest) (*Resolution, error) {
	audioURL, title, thumb, err := a.scrapePage(ctx, req.URL)
	if err != nil {
		return nil, err
	}

	log.Printf("[DEBUG] Podcast page %s resolved to audio %s", req.URL, audioURL)
	result, err := a.downloader.Fetch(ctx, audioURL, req.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("failed to download episode audio: %w", err)
	}

	return &Resolution{
		AudioPath:    result.FilePath,
		Title:        title,
		ThumbnailURL: thumb,
	}, nil
}

// scrapePage pulls the download link and OG metadata from an episode page
func (a *PodcastAdapter) scrapePage(ctx context.Context, pageURL string) (audioURL, title, thumb string, err error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", a.userAgent)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to fetch episode page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", "", fmt.Errorf("episode page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to parse episode page: %w", err)
	}

	href, ok := doc.Find("a.download-button").First().Attr("href")
	if !ok || href == "" {
		return "", "", "", fmt.Errorf("%w on %s", ErrNoDownloadLink, pageURL)
	}
	audioURL, err = resolveRelative(pageURL, href)
	if err != nil {
		return "", "", "", err
	}

	title, _ = doc.Find(`meta[property="og:title"]`).First().Attr("content")
	thumb, _ = doc.Find(`meta[property="og:image"]`).First().Attr("content")
	return audioURL, title, thumb, nil
}

func resolveRelative(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid page URL: %w", err)
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid download link: %w", err)
	}
	return baseURL.ResolveReference(refURL).String(), nil
}
