package extractor

import (
	"regexp"

	"github.com/maltedev/supplier-extractor/internal/images"
	"github.com/maltedev/supplier-extractor/internal/supplier"
)

var alibabaProfile = &profile{
	tag: supplier.Alibaba,

	pathID: regexp.MustCompile(`(?:_|/offer/)(\d{6,})\.html`),

	hydrationVars:   []string{"detailData", "__INIT_DATA", "iDetailData"},
	titleKeys:       []string{"subject", "productTitle", "offerTitle"},
	descriptionKeys: []string{"productDescription", "summary"},
	specListKeys:    []string{"productBasicProperties", "productKeyIndustryProperties", "featureAttributes"},

	titleSelectors: []string{
		".product-title-container h1",
		".module-pdp-title h1",
		"h1.product-title",
		".title-text",
		"h1",
	},
	descriptionSelectors: []string{
		".product-overview .description",
		".do-overview",
	},
	priceSelectors: []string{
		".product-price .price",
		".price-list .price",
		".promotion-price",
		".price-range",
	},
	imageSelectors: []string{
		".main-image img",
		".detail-gallery img",
		".image-view img",
		".slider-img img",
		".thumb-list img",
	},
	variantSelectors: []string{
		".sku-attr-list [title]",
		".sku-item",
	},
	shippingSelectors: []string{
		".logistics-info",
		".shipping-time",
	},
	soldOutSelectors: []string{
		".offline-tips",
	},
	specTables: []specTable{
		{row: ".do-entry-item", key: ".attr-name", value: ".attr-value"},
		{row: ".module-pdp-attributes tr", key: "td:first-child", value: "td:last-child"},
	},

	upgrade: images.StripThumbnailSuffix,
}

// AlibabaExtractor handles alibaba.com and 1688.com. Both serve their product
// data in the static page, so it never uses a browser.
type AlibabaExtractor struct {
	*base
}

func NewAlibabaExtractor(deps Deps) *AlibabaExtractor {
	deps.Renderer = nil
	return &AlibabaExtractor{base: newBase(alibabaProfile, deps)}
}
