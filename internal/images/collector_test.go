package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		ok       bool
	}{
		{name: "Absolute https", raw: "https://img.example.com/a.jpg", expected: "https://img.example.com/a.jpg", ok: true},
		{name: "Protocol relative", raw: " //img.example.com/a.jpg ", expected: "https://img.example.com/a.jpg", ok: true},
		{name: "Relative path", raw: "/images/a.jpg", ok: false},
		{name: "Data URI", raw: "data:image/gif;base64,R0lGOD", ok: false},
		{name: "Placeholder", raw: "https://img.example.com/placeholder.png", ok: false},
		{name: "Tracking pixel", raw: "https://img.example.com/1x1.gif", ok: false},
		{name: "Spacer file", raw: "https://img.example.com/static/spacer.gif", ok: false},
		{name: "Transparent pixel", raw: "https://img.example.com/transparent.png?v=1", ok: false},
		{name: "Sized pixel", raw: "https://img.example.com/track_1x1.gif", ok: false},
		{name: "Transparent in slug", raw: "https://img.example.com/transparent-phone-case.jpg", expected: "https://img.example.com/transparent-phone-case.jpg", ok: true},
		{name: "Spacer in slug", raw: "https://img.example.com/wheel-spacer-kit.jpg", expected: "https://img.example.com/wheel-spacer-kit.jpg", ok: true},
		{name: "Lazy sentinel", raw: "https://img.example.com/Loading.gif", ok: false},
		{name: "FTP", raw: "ftp://img.example.com/a.jpg", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestStripThumbnailSuffix(t *testing.T) {
	assert.Equal(t, "https://s.alicdn.com/kf/H1.jpg", StripThumbnailSuffix("https://s.alicdn.com/kf/H1.jpg_50x50.jpg"))
	assert.Equal(t, "https://ae01.alicdn.com/kf/S2.png", StripThumbnailSuffix("https://ae01.alicdn.com/kf/S2.png_220x220q75.png_.webp"))
	assert.Equal(t, "https://img.example.com/a.jpg?v=2", StripThumbnailSuffix("https://img.example.com/a.jpg?v=2"))
}

func TestCollectorDedupAndOrder(t *testing.T) {
	c := NewCollector(nil)
	c.Add(
		"https://img.example.com/a.jpg?w=100",
		"https://img.example.com/b.jpg",
		"//img.example.com/a.jpg?w=800",
		"https://img.example.com/placeholder.jpg",
		"",
	)
	c.AddVariant("https://img.example.com/red.jpg", "https://img.example.com/b.jpg#zoom")

	assert.Equal(t, []string{
		"https://img.example.com/red.jpg",
		"https://img.example.com/b.jpg#zoom",
		"https://img.example.com/a.jpg?w=100",
	}, c.Images())
}

func TestCollectorAppliesUpgrade(t *testing.T) {
	c := NewCollector(StripThumbnailSuffix)
	c.Add("https://s.alicdn.com/kf/H1.jpg_50x50.jpg", "https://s.alicdn.com/kf/H1.jpg")

	assert.Equal(t, []string{"https://s.alicdn.com/kf/H1.jpg"}, c.Images())
}

func TestKey(t *testing.T) {
	assert.Equal(t, Key("https://IMG.example.com/a.jpg?x=1#f"), Key("http://img.example.com/a.jpg"))
	assert.NotEqual(t, Key("https://img.example.com/a.jpg"), Key("https://img.example.com/b.jpg"))
}
