package utils

import (
	"strings"

	"github.com/google/uuid"
)

// UUIDFromURL extracts the catalogue id from an app URL such as
// https://app.soundcharts.com/app/song/7d5a...-.../overview.
// A path segment that parses as a UUID wins; otherwise the first segment
// containing a dash is returned. Empty string when nothing matches.
func UUIDFromURL(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	parts := strings.Split(raw, "/")

	for _, p := range parts {
		if id, err := uuid.Parse(p); err == nil {
			return id.String()
		}
	}
	for _, p := range parts {
		if strings.Contains(p, "-") {
			return p
		}
	}
	return ""
}

// NewRunID returns a fresh identifier for one scrape run.
func NewRunID() string {
	return uuid.NewString()
}
