package extractor

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/maltedev/supplier-extractor/internal/supplier"
)

var temuProfile = &profile{
	tag: supplier.Temu,

	galleryParams: []string{"top_gallery_url"},
	idParams:      []string{"goods_id"},
	pathID:        regexp.MustCompile(`-g-(\d+)\.html`),

	hydrationVars:   []string{"rawData"},
	titleKeys:       []string{"goodsName", "goodsTitle"},
	descriptionKeys: []string{"goodsDesc", "description"},
	specListKeys:    []string{"goodsProperty", "props"},

	titleSelectors: []string{
		"[class*='goodsName']",
		"[data-type='goods-name']",
		"h1",
	},
	descriptionSelectors: []string{
		"[class*='goodsDesc']",
	},
	priceSelectors: []string{
		"[data-type='price']",
		"[class*='goodsPrice']",
		"[class*='salePrice']",
	},
	imageSelectors: []string{
		"[class*='gallery'] img",
		"[class*='goods-img'] img",
		"[class*='mainImg'] img",
	},
	variantSelectors: []string{
		"[class*='sku'] [role='radio']",
		"[class*='spec-item']",
	},
	shippingSelectors: []string{
		"[class*='deliveryTime']",
		"[class*='shipping']",
	},
	soldOutSelectors: []string{
		"[class*='soldOut']",
	},
	specTables: []specTable{
		{row: "[class*='goodsProperty'] [class*='item']", key: "[class*='name']", value: "[class*='value']"},
	},

	upgrade: upgradeTemuImage,

	rendered:      true,
	readySelector: "[class*='goodsPrice'], h1",
}

// upgradeTemuImage drops the CDN resize directive ("?imageView2/2/w/180").
func upgradeTemuImage(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if strings.HasPrefix(u.RawQuery, "imageView2") || strings.HasPrefix(u.RawQuery, "imageMogr2") {
		u.RawQuery = ""
	}
	return u.String()
}

// TemuExtractor handles temu.com. Temu renders most of the page client-side,
// so the chain ends with a browser rendering when the static strategies
// leave gaps.
type TemuExtractor struct {
	*base
}

// NewTemuExtractor returns a Temu extractor. Without deps.Renderer the
// rendered strategy is left out of the chain.
func NewTemuExtractor(deps Deps) *TemuExtractor {
	e := &TemuExtractor{base: newBase(temuProfile, deps)}
	if e.deps.Renderer == nil {
		e.logger.Warn("no renderer configured, rendered strategy disabled")
	}
	return e
}
