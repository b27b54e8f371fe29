package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const domPage = `<html><head>
<meta property="og:title" content="  OG   Title ">
<meta name="description" content="Meta description">
</head><body>
<h1 class="title"></h1>
<div class="product-title">  Clip-in   hair </div>
<div class="gallery">
  <img src="https://img.example.com/a.jpg">
  <img data-src="https://img.example.com/b.jpg">
  <img srcset="https://img.example.com/c.jpg 1x, https://img.example.com/c@2x.jpg 2x">
  <div class="thumb" style="background-image: url('https://img.example.com/d.jpg')"></div>
</div>
<table class="specs">
  <tr><th>Material:</th><td>Synthetic fibre</td></tr>
  <tr><th>Length</th><td>50 cm</td></tr>
  <tr><th>Material</th><td>Duplicate</td></tr>
  <tr><th></th><td>orphan</td></tr>
</table>
</body></html>`

func TestFirstTextFallsThroughEmptyMatches(t *testing.T) {
	doc := mustDoc(t, domPage)
	assert.Equal(t, "Clip-in hair", FirstText(doc, []string{"h1.title", ".product-title"}))
	assert.Equal(t, "", FirstText(doc, []string{".missing"}))
}

func TestMetaContent(t *testing.T) {
	doc := mustDoc(t, domPage)
	assert.Equal(t, "OG Title", MetaContent(doc, "og:title"))
	assert.Equal(t, "Meta description", MetaContent(doc, "description"))
	assert.Equal(t, "", MetaContent(doc, "og:image"))
}

func TestImageSources(t *testing.T) {
	doc := mustDoc(t, domPage)
	images := ImageSources(doc, []string{".gallery img", ".gallery .thumb"})
	assert.Equal(t, []string{
		"https://img.example.com/a.jpg",
		"https://img.example.com/b.jpg",
		"https://img.example.com/c.jpg",
		"https://img.example.com/d.jpg",
	}, images)
}

func TestSpecTable(t *testing.T) {
	doc := mustDoc(t, domPage)
	specs := SpecTable(doc, "table.specs tr", "th", "td")
	assert.Equal(t, map[string]string{
		"Material": "Synthetic fibre",
		"Length":   "50 cm",
	}, specs)
}
