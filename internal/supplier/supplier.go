// Package supplier classifies product page URLs by the wholesale supplier
// that serves them. It has no dependencies beyond the standard library so
// routing code can import it without pulling in any extractor.
package supplier

import (
	"net/url"
	"strings"
)

// Tag identifies a recognized supplier.
type Tag string

const (
	Alibaba    Tag = "alibaba"
	AliExpress Tag = "aliexpress"
	Temu       Tag = "temu"
)

type pattern struct {
	tag     Tag
	domains []string
}

// Order matters only if two suppliers ever share a domain fragment.
var patterns = []pattern{
	{tag: Alibaba, domains: []string{"alibaba.com", "1688.com"}},
	{tag: AliExpress, domains: []string{"aliexpress.com", "aliexpress.us", "aliexpress.ru"}},
	{tag: Temu, domains: []string{"temu.com"}},
}

// All returns every known supplier tag.
func All() []Tag {
	tags := make([]Tag, 0, len(patterns))
	for _, p := range patterns {
		tags = append(tags, p.tag)
	}
	return tags
}

// Identify returns the supplier for rawURL. Host matching is used when the
// URL parses; otherwise the raw text is searched for a known domain.
func Identify(rawURL string) (Tag, bool) {
	text := strings.ToLower(strings.TrimSpace(rawURL))
	if text == "" {
		return "", false
	}

	if host := hostOf(text); host != "" {
		for _, p := range patterns {
			for _, d := range p.domains {
				if host == d || strings.HasSuffix(host, "."+d) {
					return p.tag, true
				}
			}
		}
		return "", false
	}

	for _, p := range patterns {
		for _, d := range p.domains {
			if strings.Contains(text, d) {
				return p.tag, true
			}
		}
	}
	return "", false
}

// String implements fmt.Stringer.
func (t Tag) String() string {
	return string(t)
}

func hostOf(text string) string {
	if !strings.Contains(text, "://") {
		text = "https://" + text
	}
	u, err := url.Parse(text)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(u.Hostname(), ".")
}
