package extractor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/supplier-extractor/internal/browser"
	"github.com/maltedev/supplier-extractor/internal/supplier"
)

type countingProvider struct {
	calls int
	err   error
}

func (p *countingProvider) provide() (browser.Renderer, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &fakeRenderer{}, nil
}

func TestFactoryUnsupportedDomain(t *testing.T) {
	provider := &countingProvider{}
	f, err := NewFactory(testDeps(&fakeFetcher{}, nil), provider.provide)
	require.NoError(t, err)

	e, ok := f.ForURL("https://www.unknown-shop.example/item/1")
	assert.False(t, ok)
	assert.Nil(t, e)
	assert.Zero(t, provider.calls)

	e, ok = GetExtractorForURL("https://www.unknown-shop.example/item/1")
	assert.False(t, ok)
	assert.Nil(t, e)
}

func TestFactoryLoadsRendererLazily(t *testing.T) {
	provider := &countingProvider{}
	f, err := NewFactory(testDeps(&fakeFetcher{}, nil), provider.provide)
	require.NoError(t, err)

	e, ok := f.ForURL("https://www.alibaba.com/product-detail/x_1600123456789.html")
	require.True(t, ok)
	assert.IsType(t, &AlibabaExtractor{}, e)

	e, ok = f.ForURL("https://detail.1688.com/offer/612345678901.html")
	require.True(t, ok)
	assert.IsType(t, &AlibabaExtractor{}, e)

	e, ok = f.ForURL("https://www.aliexpress.us/item/1005001234567890.html")
	require.True(t, ok)
	assert.IsType(t, &AliExpressExtractor{}, e)
	assert.Zero(t, provider.calls, "static suppliers must not build a renderer")

	e, ok = f.ForURL("https://www.temu.com/goods.html?goods_id=1")
	require.True(t, ok)
	temu, isTemu := e.(*TemuExtractor)
	require.True(t, isTemu)
	assert.Equal(t, 1, provider.calls)
	assert.NotNil(t, temu.deps.Renderer)
}

func TestFactoryStaticSuppliersIgnoreInjectedRenderer(t *testing.T) {
	f, err := NewFactory(testDeps(&fakeFetcher{}, &fakeRenderer{}), nil)
	require.NoError(t, err)

	e, ok := f.ForURL("https://www.aliexpress.com/item/1005001234567890.html")
	require.True(t, ok)
	assert.Nil(t, e.(*AliExpressExtractor).deps.Renderer)
}

func TestFactoryRendererFailureKeepsStaticChain(t *testing.T) {
	provider := &countingProvider{err: errors.New("playwright driver missing")}
	f, err := NewFactory(testDeps(&fakeFetcher{}, nil), provider.provide)
	require.NoError(t, err)

	e, ok := f.ForURL("https://www.temu.com/goods.html?goods_id=1")
	require.True(t, ok)
	assert.Nil(t, e.(*TemuExtractor).deps.Renderer)
}

func TestFactoryFor(t *testing.T) {
	f, err := NewFactory(testDeps(&fakeFetcher{}, nil), nil)
	require.NoError(t, err)

	for _, tag := range supplier.All() {
		e, err := f.For(tag)
		require.NoError(t, err)
		assert.Equal(t, tag, e.Supplier())
	}

	_, err = f.For(supplier.Tag("ebay"))
	assert.ErrorIs(t, err, ErrUnsupportedSupplier)
}

func TestNewFactoryValidatesOptions(t *testing.T) {
	deps := testDeps(&fakeFetcher{}, nil)
	deps.Options.Currency = "US"

	_, err := NewFactory(deps, nil)
	assert.Error(t, err)
}
