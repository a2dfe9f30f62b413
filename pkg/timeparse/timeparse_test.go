package timeparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips query parameters",
			input:    "https://www.youtube.com/watch?v=abc&t=30",
			expected: "https://www.youtube.com/watch",
		},
		{
			name:     "strips fragment",
			input:    "https://pca.st/episode/xyz#t=1m30s",
			expected: "https://pca.st/episode/xyz",
		},
		{
			name:     "plain url unchanged",
			input:    "https://example.com/audio.mp3",
			expected: "https://example.com/audio.mp3",
		},
		{
			name:     "query and fragment together",
			input:    "https://example.com/a/b?x=1&y=2#frag",
			expected: "https://example.com/a/b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Canonicalize(tt.input))
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	urls := []string{
		"https://www.youtube.com/watch?v=abc&t=30",
		"https://pca.st/episode/xyz#t=90s",
		"https://example.com/audio.mp3",
	}
	for _, u := range urls {
		once := Canonicalize(u)
		assert.Equal(t, once, Canonicalize(once))
	}
}

func TestExtractTimeMarker(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
		found    bool
	}{
		{"query param seconds", "https://x/v?t=95", 95, true},
		{"fragment minutes and seconds", "https://x/v#t=1m30s", 90, true},
		{"fragment bare seconds with suffix", "https://x/v#t=90s", 90, true},
		{"fragment bare number", "https://x/v#t=90", 90, true},
		{"no marker", "https://x/v", 0, false},
		{"non-numeric query param", "https://x/v?t=abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seconds, ok := ExtractTimeMarker(tt.input)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, seconds)
		})
	}
}

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		name  string
		input string
		start int
		end   int
		ok    bool
	}{
		{"valid range", "1:30-2:00", 90, 120, true},
		{"zero start", "0:00-1:00", 0, 60, true},
		{"empty string", "", 0, 0, false},
		{"garbage", "garbage", 0, 0, false},
		{"missing end", "1:30-", 0, 0, false},
		{"too many dashes", "1:30-2:00-3:00", 0, 0, false},
		{"non-numeric component", "a:30-2:00", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := ParseTimeRange(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestParseClock(t *testing.T) {
	seconds, ok := ParseClock("12:05")
	assert.True(t, ok)
	assert.Equal(t, 725, seconds)

	_, ok = ParseClock("1:2:3")
	assert.False(t, ok)
}
