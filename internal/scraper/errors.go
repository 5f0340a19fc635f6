package scraper

import (
	"errors"
	"strings"
)

var (
	// ErrFieldMissing marks a field whose DOM region was absent, so the
	// extractor fell back to the field default.
	ErrFieldMissing = errors.New("field not present in post node")

	// ErrRateLimited signals that the site is throttling us.
	ErrRateLimited = errors.New("rate limited")

	// ErrTooManyErrors ends a session after the consecutive error ceiling.
	ErrTooManyErrors = errors.New("too many consecutive errors")

	// ErrSessionStarted is returned when Run is called on a used session.
	ErrSessionStarted = errors.New("session already started")
)

// isRateLimit reports whether err looks like a throttling response.
// Browser-side failures only reach us as text, so the status codes are
// matched inside the message as well.
func isRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "403")
}
