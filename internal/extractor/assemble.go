package extractor

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/maltedev/supplier-extractor/internal/images"
	"github.com/maltedev/supplier-extractor/internal/models"
	"github.com/maltedev/supplier-extractor/internal/parser"
	"github.com/maltedev/supplier-extractor/internal/variants"
)

// UntitledProduct is the title of last resort.
const UntitledProduct = "Untitled product"

// assemble turns the accumulated state into the final record. Required
// fields are always populated.
func (b *base) assemble(c *call) *models.ExtractedProduct {
	st := c.state
	opts := b.deps.Options
	normalizer := b.deps.Pricing

	title := st.Title
	if title == "" {
		title = st.TitleHint
		if title != "" {
			c.trace.FieldSources[fieldTitle] = c.trace.FieldSources[fieldTitleHint]
		}
	}
	if title == "" {
		title = UntitledProduct
	}

	basePrice, currency := st.Price, st.Currency
	if !basePrice.IsPositive() {
		basePrice = normalizer.Policy().DefaultSourcePrice
		currency = opts.Currency
	}
	if currency == "" {
		currency = opts.Currency
	}

	collector := images.NewCollector(b.profile.upgrade)
	candidates := make([]models.VariantCandidate, len(st.Variants))
	for i, cand := range st.Variants {
		if cand.Image != "" {
			if cleaned, ok := collector.Clean(cand.Image); ok {
				cand.Image = cleaned
			} else {
				cand.Image = ""
			}
		}
		candidates[i] = cand
	}
	collector.AddVariant(st.VariantImages...)
	collector.Add(st.Images...)
	imgs := collector.Images()

	resolver := variants.NewResolver(b.deps.Colors, opts.Locale, opts.SingleVariantColorOverride)
	resolved := resolver.Resolve(variants.Input{
		Candidates: candidates,
		Images:     imgs,
		BasePrice:  basePrice,
		Text:       title + " " + parser.PathText(c.rawURL),
	})

	tiers := normalizer.Normalize(basePrice, currency)

	out := make([]models.Variant, 0, len(resolved))
	for _, v := range resolved {
		vt := normalizer.Normalize(v.Price, currency)
		supplierPrice, compareAt := vt.SupplierPrice, vt.CompareAtPrice
		out = append(out, models.Variant{
			Name:           v.Name,
			Price:          vt.SellingPrice,
			CompareAtPrice: &compareAt,
			SupplierPrice:  &supplierPrice,
			Image:          v.Image,
			Attributes:     v.Attributes,
			SKU:            v.SKU,
			Stock:          v.Stock,
		})
	}

	specs := st.Specs
	if specs == nil {
		specs = map[string]string{}
	}

	available := true
	if st.Availability != nil {
		available = *st.Availability
	}

	product := &models.ExtractedProduct{
		SourceURL:        c.rawURL,
		Supplier:         string(b.profile.tag),
		Title:            title,
		Description:      st.Description,
		Price:            models.Price{Amount: tiers.SellingPrice, Currency: tiers.Currency},
		SupplierPrice:    models.Price{Amount: tiers.SupplierPrice, Currency: tiers.Currency},
		CompareAtPrice:   models.Price{Amount: tiers.CompareAtPrice, Currency: tiers.Currency},
		Images:           imgs,
		Specs:            specs,
		ShippingEstimate: st.Shipping,
		Availability:     available,
		Variants:         out,
		ExtractedAt:      time.Now().UTC(),
	}

	if problems := product.Validate(); len(problems) > 0 {
		b.logger.Error("assembled product violates invariants, repairing", "url", c.rawURL, "problems", problems)
		repair(product)
	}
	return product
}

// repair restores the output invariants.
func repair(p *models.ExtractedProduct) {
	if p.Title == "" {
		p.Title = UntitledProduct
	}
	if !p.Price.Amount.IsPositive() {
		p.Price.Amount = decimal.NewFromInt(1)
	}
	if len(p.Variants) == 0 {
		p.Variants = []models.Variant{{
			Name:       variants.DefaultVariantName,
			Price:      p.Price.Amount,
			Attributes: map[string]string{},
		}}
	}
}
