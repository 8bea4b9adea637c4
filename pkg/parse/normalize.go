package parse

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/Sriram-PR/image-extractor/pkg/utils"
)

// DefaultScheme is prepended to page URLs supplied without one
const DefaultScheme = "https"

var hasScheme = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// NormalizePageURL prepares a caller-supplied page URL for fetching.
// Surrounding whitespace is trimmed, "https://" is added when no scheme is present
// (scheme-relative "//host/path" inputs get "https:"), and the scheme and host are lowercased.
// Only http and https URLs with a host are accepted.
// Returns the normalized string and the parsed URL.
func NormalizePageURL(raw string) (string, *url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil, fmt.Errorf("%w: empty URL", utils.ErrParsing)
	}

	switch {
	case strings.HasPrefix(trimmed, "//"):
		trimmed = DefaultScheme + ":" + trimmed
	case !hasScheme.MatchString(trimmed):
		trimmed = DefaultScheme + "://" + trimmed
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", nil, fmt.Errorf("%w: URL %q: %w", utils.ErrParsing, raw, err)
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", nil, fmt.Errorf("%w: URL %q has unsupported scheme %q", utils.ErrParsing, raw, parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", nil, fmt.Errorf("%w: URL %q has no host", utils.ErrParsing, raw)
	}

	return parsed.String(), parsed, nil
}

// ResolveReference resolves an attribute value (relative or absolute) against the page URL.
// Surrounding whitespace in ref is ignored.
func ResolveReference(base *url.URL, ref string) (string, error) {
	refURL, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", fmt.Errorf("%w: URL reference %q: %w", utils.ErrParsing, ref, err)
	}
	return base.ResolveReference(refURL).String(), nil
}

// FirstSrcsetURL returns the URL of the first entry of a srcset-style attribute value:
// the value is split on commas, the first entry taken, and its first whitespace-separated token returned.
// Returns "" when there is no such token.
func FirstSrcsetURL(srcset string) string {
	first, _, _ := strings.Cut(srcset, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
