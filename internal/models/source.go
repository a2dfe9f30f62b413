package models

import (
	"net/url"

	"gorm.io/gorm"
)

// SourceProvider identifies how a source's media is resolved. It is chosen
// once when the source row is created and never re-derived from the URL.
type SourceProvider string

const (
	ProviderYouTube SourceProvider = "youtube"
	ProviderPodcast SourceProvider = "podcast"
	ProviderAudible SourceProvider = "audible"
	ProviderDirect  SourceProvider = "direct"
)

// DetectProvider maps a hostname to a provider. Only used at source creation;
// afterwards the stored provider tag is authoritative.
func DetectProvider(rawURL string) SourceProvider {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ProviderDirect
	}
	switch parsed.Hostname() {
	case "www.youtube.com", "youtu.be":
		return ProviderYouTube
	case "pca.st":
		return ProviderPodcast
	case "www.audible.com", "audible.com":
		return ProviderAudible
	default:
		return ProviderDirect
	}
}

// Source is a distinct piece of origin media, keyed by canonical URL
// (query parameters and fragments stripped). Shared across users.
type Source struct {
	gorm.Model
	URL          string         `json:"url" gorm:"uniqueIndex;not null;size:500"`
	Title        string         `json:"title"`
	ThumbURL     string         `json:"thumb_url"`
	Provider     SourceProvider `json:"provider" gorm:"not null;size:20"`
	Snippets     []Snippet      `json:"snippets,omitempty" gorm:"foreignKey:SourceID;constraint:OnDelete:CASCADE"`
}

// HasMetadata reports whether the source already carries provider metadata.
// Title and thumbnail are filled in after the first successful download.
func (s *Source) HasMetadata() bool {
	return s.Title != ""
}

// TableName specifies the table name for GORM
func (Source) TableName() string {
	return "sources"
}
