// Package timeparse normalizes source URLs and parses the time notations
// that arrive with snippet requests. Malformed input never produces an
// error: callers get an "absent" result and supply their own fallback.
package timeparse

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// fragment time markers look like t=1m30s, t=90s or t=90
var fragmentTimeRe = regexp.MustCompile(`t=((?:\d+m)?\d+s?)`)

// Canonicalize strips all query parameters and fragments from a URL,
// returning scheme://host/path. It is idempotent: canonicalizing twice
// yields the same result. Unparseable input is returned unchanged.
func Canonicalize(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return fmt.Sprintf("%s://%s%s", parsed.Scheme, parsed.Host, parsed.Path)
}

// ExtractTimeMarker finds a playback position in a URL. A `t` query
// parameter holding integer seconds wins; otherwise the fragment is
// searched for a marker like 1m30s, 90s or 90. Returns (0, false) when
// neither is present.
func ExtractTimeMarker(rawURL string) (int, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return 0, false
	}

	if t := parsed.Query().Get("t"); t != "" {
		if seconds, err := strconv.Atoi(t); err == nil {
			return seconds, true
		}
	}

	match := fragmentTimeRe.FindStringSubmatch(parsed.Fragment)
	if match == nil {
		return 0, false
	}
	return markerToSeconds(match[1])
}

// markerToSeconds converts a 1m30s / 90s / 90 style marker to seconds.
func markerToSeconds(marker string) (int, bool) {
	minutes := 0
	seconds := marker
	if i := strings.Index(marker, "m"); i >= 0 {
		m, err := strconv.Atoi(marker[:i])
		if err != nil {
			return 0, false
		}
		minutes = m
		seconds = marker[i+1:]
	}
	seconds = strings.TrimSuffix(seconds, "s")
	s, err := strconv.Atoi(seconds)
	if err != nil {
		return 0, false
	}
	return minutes*60 + s, true
}

// ParseClock converts a "M:SS" clock string to seconds. Returns (0, false)
// on anything that is not exactly two colon-separated integers.
func ParseClock(clock string) (int, bool) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, false
	}
	minutes, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, false
	}
	return minutes*60 + seconds, true
}

// ParseTimeRange parses a "M:SS-M:SS" range into start and end seconds.
// Empty or malformed input returns ok=false; it never errors.
func ParseTimeRange(s string) (start, end int, ok bool) {
	if s == "" {
		return 0, 0, false
	}
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return 0, 0, false
	}
	start, ok = ParseClock(parts[0])
	if !ok {
		return 0, 0, false
	}
	end, ok = ParseClock(parts[1])
	if !ok {
		return 0, 0, false
	}
	return start, end, true
}
