package variants

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/supplier-extractor/internal/models"
)

var base = decimal.RequireFromString("9.99")

func TestResolveDefaultsToStandard(t *testing.T) {
	r := NewResolver(nil, "en-US", "")

	out := r.Resolve(Input{BasePrice: base, Text: "Plain hair clip"})
	require.Len(t, out, 1)
	assert.Equal(t, DefaultVariantName, out[0].Name)
	assert.True(t, base.Equal(out[0].Price))
	assert.Empty(t, out[0].Image)
	assert.NotNil(t, out[0].Attributes)
}

func TestResolveStandardGetsFirstImage(t *testing.T) {
	r := NewResolver(nil, "en-US", "")

	out := r.Resolve(Input{
		BasePrice: base,
		Images:    []string{"https://img.example.com/a.jpg", "https://img.example.com/b.jpg"},
	})
	require.Len(t, out, 1)
	assert.Equal(t, "https://img.example.com/a.jpg", out[0].Image)
}

func TestResolveNormalizesCandidates(t *testing.T) {
	r := NewResolver(nil, "en-US", "")

	out := r.Resolve(Input{
		BasePrice: base,
		Candidates: []models.VariantCandidate{
			{Name: "", Price: decimal.Zero},
			{Name: "Long", Price: decimal.RequireFromString("12.50"), Image: "//img.example.com/long.jpg"},
			{Name: "long", Price: decimal.RequireFromString("12.50")},
			{Name: "Short", Image: "https://img.example.com/placeholder.png"},
		},
	})

	require.Len(t, out, 3)
	assert.Equal(t, "Variant 1", out[0].Name)
	assert.True(t, base.Equal(out[0].Price))
	assert.Equal(t, "Long", out[1].Name)
	assert.Equal(t, "https://img.example.com/long.jpg", out[1].Image)
	assert.Equal(t, "Short", out[2].Name)
	assert.True(t, base.Equal(out[2].Price))
	assert.NotContains(t, out[2].Image, "placeholder")
}

func TestResolveSynthesizesColours(t *testing.T) {
	r := NewResolver(nil, "nb-NO", "")

	out := r.Resolve(Input{
		BasePrice: base,
		Text:      "Hårklype rød og svart https://www.temu.com/harklype-g-1.html",
		Images: []string{
			"https://img.example.com/main.jpg",
			"https://img.example.com/rod-klype.jpg",
			"https://img.example.com/svart_klype.jpg",
		},
	})

	require.Len(t, out, 2)
	assert.Equal(t, "Svart", out[0].Name)
	assert.Equal(t, "Svart", out[0].Attributes["color"])
	assert.Equal(t, "https://img.example.com/svart_klype.jpg", out[0].Image)
	assert.Equal(t, "Rød", out[1].Name)
	// "rod" is not a colour keyword, so red falls back to the unclaimed pool.
	assert.Equal(t, "https://img.example.com/rod-klype.jpg", out[1].Image)
}

func TestResolveSingleColourOverride(t *testing.T) {
	r := NewResolver(nil, "nb-NO", "Svart")

	out := r.Resolve(Input{BasePrice: base, Text: "Parykk blond, brun og rød"})
	require.Len(t, out, 1)
	assert.Equal(t, "Svart", out[0].Name)
	assert.Equal(t, map[string]string{"color": "Svart"}, out[0].Attributes)
}

func TestResolveOverrideIgnoredWithoutDetection(t *testing.T) {
	r := NewResolver(nil, "nb-NO", "Svart")

	out := r.Resolve(Input{BasePrice: base, Text: "Hårstrikk"})
	require.Len(t, out, 1)
	assert.Equal(t, DefaultVariantName, out[0].Name)
}

func TestAssignImagesKeywordThenCyclic(t *testing.T) {
	r := NewResolver(nil, "en-US", "")

	imgs := []string{
		"https://img.example.com/1.jpg",
		"https://img.example.com/blue-front.jpg",
		"https://img.example.com/2.jpg",
	}
	out := r.Resolve(Input{
		BasePrice: base,
		Images:    imgs,
		Candidates: []models.VariantCandidate{
			{Name: "A", Attributes: map[string]string{"color": "Blue"}},
			{Name: "B"},
			{Name: "C"},
			{Name: "D"},
		},
	})

	require.Len(t, out, 4)
	assert.Equal(t, imgs[1], out[0].Image)
	// Positional over the unclaimed images [1.jpg, 2.jpg], indexed by variant.
	assert.Equal(t, imgs[2], out[1].Image)
	assert.Equal(t, imgs[0], out[2].Image)
	assert.Equal(t, imgs[2], out[3].Image)
}

func TestAssignImagesAllClaimedFallsBackToFirst(t *testing.T) {
	r := NewResolver(nil, "en-US", "")

	out := r.Resolve(Input{
		BasePrice: base,
		Images:    []string{"https://img.example.com/red.jpg"},
		Candidates: []models.VariantCandidate{
			{Name: "Red"},
			{Name: "Green"},
		},
	})

	require.Len(t, out, 2)
	assert.Equal(t, "https://img.example.com/red.jpg", out[0].Image)
	assert.Equal(t, "https://img.example.com/red.jpg", out[1].Image)
}

func TestAssignImagesIgnoresSubstringDecoys(t *testing.T) {
	r := NewResolver(nil, "en-US", "")

	imgs := []string{
		"https://img.example.com/shared/1.jpg",
		"https://img.example.com/standard/2.jpg",
		"https://img.example.com/red/3.jpg",
	}
	out := r.Resolve(Input{
		BasePrice: base,
		Images:    imgs,
		Candidates: []models.VariantCandidate{
			{Name: "Tan"},
			{Name: "Red"},
		},
	})

	require.Len(t, out, 2)
	assert.Equal(t, imgs[2], out[1].Image)
	// No whole-word match for "tan", so it falls to the first unclaimed image.
	assert.Equal(t, imgs[0], out[0].Image)
}

func TestAssignImagesWordMatch(t *testing.T) {
	r := NewResolver(nil, "en-US", "")

	imgs := []string{
		"https://img.example.com/leopardess.jpg",
		"https://img.example.com/leopard-print/2.jpg",
	}
	out := r.Resolve(Input{
		BasePrice:  base,
		Images:     imgs,
		Candidates: []models.VariantCandidate{{Name: "Leopard Print"}},
	})

	require.Len(t, out, 1)
	assert.Equal(t, imgs[1], out[0].Image)
}
