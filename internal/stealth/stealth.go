// Package stealth holds the anti-detection policy shared by the static
// fetcher and the browser renderer: user agent rotation, locale headers,
// viewport and the init script that masks automation flags.
package stealth

import (
	"math/rand"
	"strings"
)

const (
	ViewportWidth  = 1920
	ViewportHeight = 1080
)

// DefaultUserAgents is the rotation pool used when none is configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// UserAgent picks a user agent from pool. With rotate=false the first entry
// is always returned so repeated runs look identical.
func UserAgent(pool []string, rotate bool) string {
	if len(pool) == 0 {
		pool = DefaultUserAgents
	}
	if !rotate || len(pool) == 1 {
		return pool[0]
	}
	return pool[rand.Intn(len(pool))]
}

// AcceptLanguage builds an Accept-Language header for a BCP 47 locale such as
// "nb-NO" or "en-US".
func AcceptLanguage(locale string) string {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		locale = "en-US"
	}
	lang := strings.ToLower(strings.SplitN(strings.ReplaceAll(locale, "_", "-"), "-", 2)[0])
	if lang == "en" {
		return locale + ",en;q=0.9"
	}
	return locale + "," + lang + ";q=0.9,en;q=0.8"
}

// Headers returns the request headers a regular browser would send.
func Headers(locale string) map[string]string {
	return map[string]string{
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
		"Accept-Language": AcceptLanguage(locale),
		"DNT":             "1",
	}
}

// InitScript runs before any page script and hides the usual automation
// fingerprints.
func InitScript(locale string) string {
	lang := strings.SplitN(AcceptLanguage(locale), ",", 2)[0]
	return `(() => {
	Object.defineProperty(navigator, 'webdriver', { get: () => undefined });
	Object.defineProperty(navigator, 'languages', { get: () => ['` + lang + `', 'en'] });
	Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
	window.chrome = window.chrome || { runtime: {} };
	const query = window.navigator.permissions && window.navigator.permissions.query;
	if (query) {
		window.navigator.permissions.query = (p) =>
			p && p.name === 'notifications'
				? Promise.resolve({ state: Notification.permission })
				: query(p);
	}
})();`
}

// LaunchArgs are the chromium flags used for every browser launch.
func LaunchArgs() []string {
	return []string{
		"--disable-blink-features=AutomationControlled",
		"--disable-dev-shm-usage",
		"--no-sandbox",
		"--disable-setuid-sandbox",
		"--window-size=1920,1080",
	}
}
