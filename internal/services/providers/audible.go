package providers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/voxnote/snippets-api/internal/services/credentials"
	"github.com/voxnote/snippets-api/pkg/ffmpeg"
)

var (
	// ErrNotAuthenticated is returned when the user has no Audible
	// credential on file
	ErrNotAuthenticated = errors.New("audible account not linked")
	// ErrBookNotInLibrary is returned when the referenced audiobook has
	// not been synced into the local library
	ErrBookNotInLibrary = errors.New("audiobook not found in library")
)

// Audible ASINs are ten alphanumeric characters, e.g. B002V5BP6C
var asinPattern = regexp.MustCompile(`\b([A-Z0-9]{10})\b`)

// AudibleAdapter resolves audiobook URLs against a locally synced
// library of AAX files, decrypting them with the user's activation
// bytes. The library itself is populated out of band.
type AudibleAdapter struct {
	credentials credentials.Store
	libraryDir  string
	ffmpeg      *ffmpeg.FFmpeg
}

// NewAudibleAdapter creates an adapter over a local AAX library
func NewAudibleAdapter(creds credentials.Store, libraryDir string, ff *ffmpeg.FFmpeg) *AudibleAdapter {
	return &AudibleAdapter{
		credentials: creds,
		libraryDir:  libraryDir,
		ffmpeg:      ff,
	}
}

func (a *AudibleAdapter) Resolve(ctx context.Context, req ResolveRequest) (*Resolution, error) {
	cred, err := a.credentials.Get(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, credentials.ErrNoCredential) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to load audible credential: %w", err)
	}

	asin, err := extractASIN(req.URL)
	if err != nil {
		return nil, err
	}

	aaxPath := filepath.Join(a.libraryDir, asin+".aax")
	if _, err := os.Stat(aaxPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrBookNotInLibrary, asin)
		}
		return nil, fmt.Errorf("failed to stat library file: %w", err)
	}

	audioPath, err := a.ffmpeg.ActivateAAX(ctx, aaxPath, cred.ActivationBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt audiobook %s: %w", asin, err)
	}

	return &Resolution{
		AudioPath: audioPath,
		Title:     titleFromURL(req.URL),
	}, nil
}

// extractASIN pulls the book identifier out of a product page URL like
// https://audible.com/pd/Some-Title-Audiobook/B002V5BP6C
func extractASIN(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid audible URL: %w", err)
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if asinPattern.MatchString(segments[i]) && len(segments[i]) == 10 {
			return segments[i], nil
		}
	}
	return "", fmt.Errorf("no ASIN in URL %s", rawURL)
}

// titleFromURL derives a readable title from the product slug
func titleFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	for _, segment := range segments {
		if strings.HasSuffix(segment, "-Audiobook") {
			slug := strings.TrimSuffix(segment, "-Audiobook")
			return strings.ReplaceAll(slug, "-", " ")
		}
	}
	return ""
}
