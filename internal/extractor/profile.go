package extractor

import (
	"net/url"
	"regexp"

	"github.com/maltedev/supplier-extractor/internal/images"
	"github.com/maltedev/supplier-extractor/internal/supplier"
)

// profile is the data that distinguishes one supplier's pages from
// another's. The chain itself is shared.
type profile struct {
	tag supplier.Tag

	// URL mining.
	galleryParams []string
	idParams      []string
	pathID        *regexp.Regexp

	// Script mining.
	hydrationVars   []string
	titleKeys       []string
	descriptionKeys []string
	specListKeys    []string

	// DOM selectors, tried in order.
	titleSelectors       []string
	descriptionSelectors []string
	priceSelectors       []string
	imageSelectors       []string
	variantSelectors     []string
	shippingSelectors    []string
	soldOutSelectors     []string
	specTables           []specTable

	upgrade images.Upgrader

	// Browser rendering; only used when the extractor has a renderer.
	rendered      bool
	readySelector string
}

type specTable struct {
	row, key, value string
}

// itemID returns the supplier's product id from the URL, if present.
func (p *profile) itemID(u *url.URL) string {
	q := u.Query()
	for _, key := range p.idParams {
		if v := q.Get(key); v != "" {
			return v
		}
	}
	if p.pathID != nil {
		if m := p.pathID.FindStringSubmatch(u.Path); len(m) > 1 {
			return m[1]
		}
	}
	return ""
}
