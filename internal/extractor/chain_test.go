package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/maltedev/supplier-extractor/internal/models"
)

func TestMergeOnGap(t *testing.T) {
	var st State

	fields := st.merge(Partial{
		Title:  "First",
		Price:  d("5"),
		Images: []string{"https://img.example.com/a.jpg"},
		Specs:  map[string]string{"Material": "Metal"},
	})
	assert.ElementsMatch(t, []string{fieldTitle, fieldPrice, fieldImages, fieldSpecs}, fields)

	fields = st.merge(Partial{
		Title:       "Second",
		Description: "Described",
		Price:       d("9"),
		Currency:    "EUR",
		Images:      []string{"https://img.example.com/b.jpg"},
		Variants:    []models.VariantCandidate{{Name: "Red"}},
		Specs:       map[string]string{"Material": "Plastic", "Length": "5cm"},
	})
	assert.ElementsMatch(t, []string{fieldDescription, fieldImages, fieldVariants, fieldSpecs}, fields)

	assert.Equal(t, "First", st.Title)
	assert.True(t, d("5").Equal(st.Price))
	assert.Empty(t, st.Currency)
	assert.Equal(t, []string{"https://img.example.com/a.jpg", "https://img.example.com/b.jpg"}, st.Images)
	assert.Equal(t, map[string]string{"Material": "Metal", "Length": "5cm"}, st.Specs)

	fields = st.merge(Partial{Variants: []models.VariantCandidate{{Name: "Blue"}}})
	assert.Empty(t, fields)
	assert.Equal(t, "Red", st.Variants[0].Name)
}

func TestStateComplete(t *testing.T) {
	st := State{}
	assert.False(t, st.complete())

	st.Title = "x"
	st.Price = d("1")
	assert.False(t, st.complete())

	st.Images = []string{"https://img.example.com/a.jpg"}
	assert.True(t, st.complete())
}
