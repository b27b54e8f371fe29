package extractor

import (
	"regexp"

	"github.com/maltedev/supplier-extractor/internal/images"
	"github.com/maltedev/supplier-extractor/internal/supplier"
)

var aliexpressProfile = &profile{
	tag: supplier.AliExpress,

	idParams: []string{"productId"},
	pathID:   regexp.MustCompile(`/item/(?:[^/]+/)?(\d{6,})\.html`),

	hydrationVars:   []string{"runParams", "_init_data_"},
	titleKeys:       []string{"subject", "productTitle"},
	descriptionKeys: []string{"description"},
	specListKeys:    []string{"props", "productProps"},

	titleSelectors: []string{
		"h1[data-pl='product-title']",
		".product-title-text",
		"h1",
	},
	descriptionSelectors: []string{
		"#product-description",
		".product-description",
	},
	priceSelectors: []string{
		".product-price-current",
		".product-price-value",
		".uniform-banner-box-price",
		"[class*='price--current']",
	},
	imageSelectors: []string{
		".images-view-list img",
		".magnifier-image",
		"[class*='slider--img'] img",
		".image-view-magnifier-wrap img",
	},
	variantSelectors: []string{
		".sku-property-item",
		"[class*='sku-item--image']",
	},
	shippingSelectors: []string{
		".product-shipping-info",
		"[class*='dynamic-shipping']",
	},
	soldOutSelectors: []string{
		".product-quantity-tip-soldout",
	},
	specTables: []specTable{
		{row: ".product-specs-list li", key: ".property-title", value: ".property-desc"},
		{row: "[class*='specification--prop']", key: "[class*='specification--title']", value: "[class*='specification--desc']"},
	},

	upgrade: images.StripThumbnailSuffix,
}

// AliExpressExtractor handles aliexpress.com and its regional domains. The
// runParams blob in the static page carries price, SKUs and gallery.
type AliExpressExtractor struct {
	*base
}

func NewAliExpressExtractor(deps Deps) *AliExpressExtractor {
	deps.Renderer = nil
	return &AliExpressExtractor{base: newBase(aliexpressProfile, deps)}
}
