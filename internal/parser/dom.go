package parser

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var backgroundURL = regexp.MustCompile(`url\(\s*['"]?([^'")]+)['"]?\s*\)`)

// Attributes an <img> may carry its real source in, lazy loaders included.
var imageAttrs = []string{"src", "data-src", "data-lazy-src", "data-original", "data-zoom-image"}

// FirstText returns the first non-empty text matched by the selectors,
// tried in order.
func FirstText(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		var found string
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			found = CleanText(s.Text())
			return found == ""
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// MetaContent returns the content of a <meta> tag by property or name.
func MetaContent(doc *goquery.Document, key string) string {
	sel := doc.Find(`meta[property="` + key + `"], meta[name="` + key + `"]`).First()
	content, _ := sel.Attr("content")
	return CleanText(content)
}

// ImageSources collects image URLs from src-like attributes, the first entry
// of srcset, and inline style backgrounds of the matched elements.
func ImageSources(doc *goquery.Document, selectors []string) []string {
	var out []string
	for _, selector := range selectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			for _, attr := range imageAttrs {
				if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
					out = append(out, strings.TrimSpace(v))
				}
			}
			if srcset, ok := s.Attr("srcset"); ok {
				if first := strings.Fields(strings.Split(srcset, ",")[0]); len(first) > 0 {
					out = append(out, first[0])
				}
			}
			if style, ok := s.Attr("style"); ok {
				for _, m := range backgroundURL.FindAllStringSubmatch(style, -1) {
					out = append(out, m[1])
				}
			}
		})
	}
	return out
}

// SpecTable reads key/value pairs. Each row matched by rowSelector holds
// the key in keySelector and the value in valueSelector.
func SpecTable(doc *goquery.Document, rowSelector, keySelector, valueSelector string) map[string]string {
	specs := make(map[string]string)
	doc.Find(rowSelector).Each(func(_ int, row *goquery.Selection) {
		key := strings.TrimSuffix(CleanText(row.Find(keySelector).First().Text()), ":")
		value := CleanText(row.Find(valueSelector).First().Text())
		if key == "" || value == "" {
			return
		}
		if _, exists := specs[key]; !exists {
			specs[key] = value
		}
	})
	return specs
}
