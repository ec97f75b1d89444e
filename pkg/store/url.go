package store

import (
	"net/url"
	"strings"
)

// NormalizeURL reduces a product URL to its duplicate-detection form: scheme,
// host and path only, query and fragment stripped, trailing slash removed,
// lower-cased. Two listings that differ only in tracking parameters normalize
// to the same value.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil || u.Host == "" {
		// Not parseable as an absolute URL; fall back to string cleanup so
		// duplicate detection still has something stable to compare.
		base := trimmed
		if i := strings.IndexAny(base, "?#"); i >= 0 {
			base = base[:i]
		}
		return strings.ToLower(strings.TrimRight(base, "/"))
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	return strings.ToLower(u.String())
}
