// Package images normalizes, filters and de-duplicates product image URLs.
package images

import (
	"net/url"
	"regexp"
	"strings"
)

// Substrings that mark lazy-load sentinels and tracking pixels.
var placeholderMarkers = []string{
	"placeholder",
	"data:image",
	"blank.gif",
	"spacer",
	"loading.gif",
	"lazy-load",
}

// Spacer and pixel files are matched on the file name only; the same words
// show up in real product slugs.
var placeholderFile = regexp.MustCompile(`(?:^|/)(?:spacer|transparent|pixel|1x1)\.(?:gif|png|jpe?g|webp)(?:$|[?#])|[_-]1x1\.`)

// Upgrader rewrites a thumbnail URL to its full-size form.
type Upgrader func(string) string

var thumbnailSuffix = regexp.MustCompile(`(?i)(\.(?:jpe?g|png|webp|gif))_(?:\d+x\d+|Q\d+)[^/]*$`)

// StripThumbnailSuffix turns "a.jpg_50x50.jpg" or "a.jpg_220x220q75.jpg_.webp"
// into "a.jpg". The query string is kept.
func StripThumbnailSuffix(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Path = thumbnailSuffix.ReplaceAllString(u.Path, "$1")
	u.RawPath = ""
	return u.String()
}

// Normalize makes protocol-relative URLs absolute and rejects anything that
// is not an http(s) URL or looks like a placeholder.
func Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "//") {
		s = "https:" + s
	}
	if IsPlaceholder(s) {
		return "", false
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return s, true
}

// IsPlaceholder reports whether raw matches the placeholder blacklist.
func IsPlaceholder(raw string) bool {
	lower := strings.ToLower(raw)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return placeholderFile.MatchString(lower)
}

// Key is the duplicate-detection key: host and path, without scheme, query
// or fragment.
func Key(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexAny(raw, "?#"); i >= 0 {
			return raw[:i]
		}
		return raw
	}
	return strings.ToLower(u.Host) + u.EscapedPath()
}

// Collector accumulates image candidates from every strategy. Images
// referenced by variants are ordered ahead of generic product images.
type Collector struct {
	upgrade Upgrader
	variant []string
	product []string
}

// NewCollector returns a collector applying upgrade to every accepted URL.
// A nil upgrade keeps URLs as they are.
func NewCollector(upgrade Upgrader) *Collector {
	return &Collector{upgrade: upgrade}
}

// Add records generic product images.
func (c *Collector) Add(urls ...string) {
	c.product = append(c.product, urls...)
}

// AddVariant records images referenced by variants.
func (c *Collector) AddVariant(urls ...string) {
	c.variant = append(c.variant, urls...)
}

// Images returns the accepted, de-duplicated URLs. The first occurrence of
// each key wins and keeps its original query string.
func (c *Collector) Images() []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(c.variant)+len(c.product))

	for _, group := range [][]string{c.variant, c.product} {
		for _, raw := range group {
			u, ok := c.Clean(raw)
			if !ok {
				continue
			}
			key := Key(u)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, u)
		}
	}
	return out
}

// Clean normalizes and upgrades a single URL.
func (c *Collector) Clean(raw string) (string, bool) {
	u, ok := Normalize(raw)
	if !ok {
		return "", false
	}
	if c.upgrade != nil {
		u = c.upgrade(u)
	}
	return u, true
}
