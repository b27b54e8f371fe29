package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugTitle(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "Alibaba product detail",
			url:      "https://www.alibaba.com/product-detail/Hair-Clip-Extension_1600123456789.html",
			expected: "Hair Clip Extension",
		},
		{
			name:     "Temu goods slug",
			url:      "https://www.temu.com/no/hair-extension-g-601099512345678.html?refer_page_name=home",
			expected: "Hair extension",
		},
		{
			name:     "Percent encoded Norwegian",
			url:      "https://www.temu.com/h%C3%A5rspenne-r%C3%B8d-g-601.html",
			expected: "Hårspenne rød",
		},
		{
			name:     "Numeric item only",
			url:      "https://www.aliexpress.com/item/1005001234567890.html",
			expected: "",
		},
		{
			name:     "Temu goods page",
			url:      "https://www.temu.com/goods.html?goods_id=601099512345678",
			expected: "",
		},
		{
			name:     "Root",
			url:      "https://www.temu.com/",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SlugTitle(tt.url))
		})
	}
}

func TestFixMojibake(t *testing.T) {
	assert.Equal(t, "rød og blå", FixMojibake("rÃ¸d og blÃ¥"))
	assert.Equal(t, "Ærlig", FixMojibake("Ã†rlig"))
	assert.Equal(t, "plain", FixMojibake("plain"))
}

func TestCleanTextAndTruncate(t *testing.T) {
	assert.Equal(t, "a b c", CleanText("  a \n\t b   c "))
	assert.Equal(t, "hello", Truncate("hello world", 8))
	assert.Equal(t, "short", Truncate("short", 10))
}

func TestPathText(t *testing.T) {
	assert.Equal(t, "product detail Hair Clip 1600123456789 html",
		PathText("https://www.alibaba.com/product-detail/Hair-Clip_1600123456789.html?sort=price&spm=a2700"))
	assert.Equal(t, "hårspenne blå g 601 html", PathText("https://www.temu.com/h%C3%A5rspenne-bl%C3%A5-g-601.html"))
	assert.Equal(t, "", PathText("https://www.temu.com/?color=sort#red"))
}
