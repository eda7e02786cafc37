package extract

import (
	"fmt"
	"regexp"
	"strings"

	errs "viewledger/pkg/errors"
)

// Recognized TikTok post URL shapes. Short share links (vm.tiktok.com)
// are deliberately not resolved here since that needs a network hop.
var patterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:www\.)?tiktok\.com/@[\w.\-]+/video/(\d+)`),
	regexp.MustCompile(`(?:www\.|m\.)?tiktok\.com/v/(\d+)(?:\.html)?`),
}

// PostID extracts the numeric post identifier from a TikTok post URL.
// Returns a KindInvalidIdentifier error for anything unrecognized.
func PostID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errs.New(errs.KindInvalidIdentifier, "empty cell", 0)
	}

	for _, p := range patterns {
		if m := p.FindStringSubmatch(trimmed); m != nil {
			return m[1], nil
		}
	}
	return "", errs.New(errs.KindInvalidIdentifier, fmt.Sprintf("not a recognized post URL: %q", trimmed), 0)
}
