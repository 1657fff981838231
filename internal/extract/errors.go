package extract

import (
	"errors"
	"strings"
)

// Typed extraction failures. Handlers switch on these instead of matching
// yt-dlp's free-text output; the translation happens here and nowhere else.
var (
	ErrUnavailable   = errors.New("video unavailable")
	ErrPrivate       = errors.New("video is private")
	ErrAgeRestricted = errors.New("video is age-restricted")
	ErrGeoBlocked    = errors.New("video not available in this region")
	ErrNoFormat      = errors.New("requested format is not available")
	ErrTooLarge      = errors.New("file exceeds the size limit")
)

var signatures = []struct {
	needle string
	err    error
}{
	{"Private video", ErrPrivate},
	{"Sign in to confirm your age", ErrAgeRestricted},
	{"not available in your country", ErrGeoBlocked},
	{"This video is not available", ErrGeoBlocked},
	{"Requested format is not available", ErrNoFormat},
	{"File is larger than max-filesize", ErrTooLarge},
	{"Video unavailable", ErrUnavailable},
	{"This post is unavailable", ErrUnavailable},
	{"Unable to extract", ErrUnavailable},
}

// classifyStderr maps known upstream failure signatures to typed errors.
// Unrecognized output yields nil and the caller keeps the raw exec error.
func classifyStderr(stderr string) error {
	for _, s := range signatures {
		if strings.Contains(stderr, s.needle) {
			return s.err
		}
	}
	return nil
}
