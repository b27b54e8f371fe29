package parser

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	whitespace    = regexp.MustCompile(`\s+`)
	trailingIDs   = regexp.MustCompile(`(?i)(?:[-_]g[-_]\d+|[-_]?\d{6,})$`)
	fileExtension = regexp.MustCompile(`(?i)\.(html?|php|aspx?)$`)
)

// Segments that never carry a product name.
var genericSegments = map[string]bool{
	"item": true, "items": true, "product": true, "product-detail": true,
	"products": true, "offer": true, "goods": true, "detail": true,
	"p": true, "dp": true, "no": true, "en": true, "us": true, "nb": true,
}

// UTF-8 text decoded as Latin-1 somewhere upstream; common on Nordic titles.
var mojibake = strings.NewReplacer(
	"Ã¸", "ø", "Ã˜", "Ø",
	"Ã¥", "å", "Ã…", "Å",
	"Ã¦", "æ", "Ã†", "Æ",
	"Ã©", "é", "Ã¤", "ä",
	"Ã¶", "ö", "Ã¼", "ü",
)

// CleanText collapses whitespace and trims.
func CleanText(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// FixMojibake repairs double-encoded Nordic and German letters.
func FixMojibake(s string) string {
	return mojibake.Replace(s)
}

// SlugTitle derives a readable title from the URL path, or "" when the path
// holds nothing but identifiers.
func SlugTitle(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	segments := strings.Split(u.EscapedPath(), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := segments[i]
		if decoded, err := url.PathUnescape(seg); err == nil {
			seg = decoded
		}
		// Some suppliers double-encode the slug.
		if strings.Contains(seg, "%") {
			if decoded, err := url.PathUnescape(seg); err == nil {
				seg = decoded
			}
		}

		seg = fileExtension.ReplaceAllString(seg, "")
		if genericSegments[strings.ToLower(seg)] {
			continue
		}
		seg = trailingIDs.ReplaceAllString(seg, "")
		seg = strings.NewReplacer("-", " ", "_", " ", "+", " ").Replace(seg)
		seg = CleanText(FixMojibake(seg))

		if !hasLetter(seg) || genericSegments[strings.ToLower(seg)] {
			continue
		}
		return capitalize(seg)
	}
	return ""
}

// PathText returns the percent-decoded URL path with separators turned into
// spaces. The query and fragment are dropped since they carry tracking
// parameters, not product text.
func PathText(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	path := u.EscapedPath()
	for i := 0; i < 2 && strings.Contains(path, "%"); i++ {
		decoded, err := url.PathUnescape(path)
		if err != nil {
			break
		}
		path = decoded
	}
	path = strings.NewReplacer("/", " ", "-", " ", "_", " ", "+", " ", ".", " ").Replace(path)
	return CleanText(FixMojibake(path))
}

// Truncate shortens s to at most max runes on a word boundary.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)[:max]
	cut := strings.LastIndex(string(runes), " ")
	if cut <= 0 {
		return string(runes)
	}
	return strings.TrimSpace(string(runes)[:cut])
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
