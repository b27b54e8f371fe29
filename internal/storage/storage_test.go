package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/supplier-extractor/internal/models"
)

func okResult(title string) *models.ExtractionResult {
	return &models.ExtractionResult{
		Success: true,
		Data: &models.ExtractedProduct{
			Title:    title,
			Price:    models.Price{Amount: decimal.NewFromInt(263), Currency: "NOK"},
			Variants: []models.Variant{{Name: "Standard"}},
		},
	}
}

func TestResultStorageLifecycle(t *testing.T) {
	file := filepath.Join(t.TempDir(), "results.json")
	rs, err := NewResultStorage(file)
	require.NoError(t, err)

	added, err := rs.AddPending([]string{"https://a.example/1", "https://a.example/2", ""}, func(string) string { return "temu" })
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, []string{"https://a.example/1", "https://a.example/2"}, rs.Pending())

	require.NoError(t, rs.MarkProcessing("https://a.example/1"))
	require.NoError(t, rs.Complete("https://a.example/1", okResult("Lamp"), false))
	require.NoError(t, rs.Fail("https://a.example/2", "boom"))

	e, ok := rs.Get("https://a.example/1")
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, e.Status)
	assert.Equal(t, "Lamp", e.Title)
	assert.Equal(t, "263 NOK", e.Price)
	assert.Equal(t, 1, e.Variants)
	assert.Equal(t, 1, e.Attempts)
	assert.Equal(t, "temu", e.Supplier)
	assert.Nil(t, e.Product)

	stats := rs.Stats()
	assert.Equal(t, 1, stats[StatusCompleted])
	assert.Equal(t, 1, stats[StatusFailed])
	assert.Empty(t, rs.Pending())
}

func TestResultStorageResumes(t *testing.T) {
	file := filepath.Join(t.TempDir(), "results.json")
	rs, err := NewResultStorage(file)
	require.NoError(t, err)

	_, err = rs.AddPending([]string{"https://a.example/1", "https://a.example/2"}, nil)
	require.NoError(t, err)
	require.NoError(t, rs.Complete("https://a.example/1", okResult("Lamp"), true))
	require.NoError(t, rs.MarkProcessing("https://a.example/2"))

	reopened, err := NewResultStorage(file)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Total())
	assert.Equal(t, []string{"https://a.example/2"}, reopened.Pending())

	e, ok := reopened.Get("https://a.example/1")
	require.True(t, ok)
	require.NotNil(t, e.Product)
	assert.Equal(t, "Lamp", e.Product.Title)

	added, err := reopened.AddPending([]string{"https://a.example/1", "https://a.example/3"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
}

func TestResultStorageFailedResult(t *testing.T) {
	rs, err := NewResultStorage("")
	require.NoError(t, err)

	_, err = rs.AddPending([]string{"u"}, nil)
	require.NoError(t, err)
	require.NoError(t, rs.Complete("u", models.Failed(errors.New("no document"), nil), false))

	e, _ := rs.Get("u")
	assert.Equal(t, StatusFailed, e.Status)
	assert.Equal(t, "no document", e.Error)

	assert.Error(t, rs.Fail("missing", "x"))
}
