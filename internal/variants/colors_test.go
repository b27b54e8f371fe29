package variants

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectNorwegianAndEnglish(t *testing.T) {
	table := DefaultColorTable()

	tests := []struct {
		name     string
		text     string
		locale   string
		expected []Color
	}{
		{
			name:     "Norwegian colours",
			text:     "Hårstrikk i rød og svart",
			locale:   "nb-NO",
			expected: []Color{{Key: "black", Value: "Svart"}, {Key: "red", Value: "Rød"}},
		},
		{
			name:     "English colours under Norwegian locale",
			text:     "Hair clip Black / Red",
			locale:   "nb-NO",
			expected: []Color{{Key: "black", Value: "Black"}, {Key: "red", Value: "Red"}},
		},
		{
			name:     "Same key in two languages counted once",
			text:     "Black svart wig",
			locale:   "en-US",
			expected: []Color{{Key: "black", Value: "Black"}},
		},
		{
			name:     "Inflected Norwegian form",
			text:     "rødt hårbånd",
			locale:   "nb",
			expected: []Color{{Key: "red", Value: "Rød"}},
		},
		{
			name:     "Word boundary respected",
			text:     "Shredded bluetooth rosary",
			locale:   "en-US",
			expected: nil,
		},
		{
			name:     "Compound colour beats its suffix",
			text:     "Kjole marineblå",
			locale:   "nb-NO",
			expected: []Color{{Key: "navy", Value: "Marineblå"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, table.Detect(tt.text, tt.locale))
		})
	}
}

func TestMatchesAcrossLanguages(t *testing.T) {
	table := DefaultColorTable()
	assert.True(t, table.Matches("https://img.example.com/svart-parykk.jpg", "black"))
	assert.True(t, table.Matches("https://img.example.com/black_wig.jpg", "black"))
	assert.False(t, table.Matches("https://img.example.com/blackberry.jpg", "black"))
}

func TestLoadColorTableRejectsBadRules(t *testing.T) {
	_, err := LoadColorTable([]byte("en:\n  - {pattern: \"(\", value: X, key: x}\n"))
	require.Error(t, err)

	_, err = LoadColorTable([]byte("en:\n  - {pattern: \"teal\", value: Teal}\n"))
	require.Error(t, err)

	table, err := LoadColorTable([]byte("de:\n  - {pattern: \"schwarz\", value: Schwarz, key: black}\n"))
	require.NoError(t, err)
	assert.Equal(t, []Color{{Key: "black", Value: "Schwarz"}}, table.Detect("Perücke schwarz", "de-DE"))
}
