package extractor

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/maltedev/supplier-extractor/internal/browser"
	"github.com/maltedev/supplier-extractor/internal/models"
	"github.com/maltedev/supplier-extractor/internal/parser"
	"github.com/maltedev/supplier-extractor/internal/ratelimit"
	"github.com/maltedev/supplier-extractor/internal/stealth"
)

// Strategy names as they appear in traces.
const (
	StrategyURLParams    = "url_params"
	StrategyScriptJSON   = "script_json"
	StrategyJSONLD       = "json_ld"
	StrategyDOMSelectors = "dom_selectors"
	StrategyRenderedDOM  = "rendered_dom"
)

const specItemID = "Supplier item ID"

func (c *call) strategies() []strategy {
	chain := []strategy{
		{name: StrategyURLParams, run: urlParams},
		{name: StrategyScriptJSON, run: scriptJSON},
		{name: StrategyJSONLD, run: jsonLD},
		{name: StrategyDOMSelectors, run: domSelectors},
	}
	if c.profile.rendered && c.deps.Renderer != nil {
		chain = append(chain, strategy{
			name: StrategyRenderedDOM,
			run:  renderedDOM,
			skip: func(c *call) bool { return c.state.complete() },
		})
	}
	return chain
}

// urlParams mines the URL alone: gallery image parameters, the item id and
// a slug title hint. It never fails.
func urlParams(_ context.Context, c *call) (Partial, error) {
	var p Partial

	q := c.url.Query()
	for _, key := range c.profile.galleryParams {
		v := q.Get(key)
		// Some links carry the gallery URL encoded twice.
		if strings.Contains(v, "%2F") || strings.Contains(v, "%3A") {
			if decoded, err := url.QueryUnescape(v); err == nil {
				v = decoded
			}
		}
		if v != "" {
			p.Images = append(p.Images, v)
		}
	}

	if id := c.profile.itemID(c.url); id != "" {
		p.Specs = map[string]string{specItemID: id}
	}

	p.TitleHint = parser.SlugTitle(c.rawURL)
	return p, nil
}

func scriptJSON(ctx context.Context, c *call) (Partial, error) {
	payloads, err := c.scripts(ctx)
	if err != nil {
		return Partial{}, err
	}
	if len(payloads.Hydration) == 0 {
		return Partial{}, fmt.Errorf("hydration data %w", errNotFound)
	}

	var p Partial
	for _, data := range payloads.Hydration {
		p.fill(c.hydrationPartial(data))
	}
	return p, nil
}

func (c *call) hydrationPartial(data interface{}) Partial {
	p := Partial{
		Title:       parser.CleanText(parser.FindString(data, c.profile.titleKeys...)),
		Description: parser.CleanText(parser.FindString(data, c.profile.descriptionKeys...)),
		Images:      parser.CollectImageURLs(data),
		Specs:       parser.FindPairs(data, c.profile.specListKeys...),
	}

	if amount, currency, ok := parser.FindPrice(data); ok {
		p.Price = amount
		p.Currency = c.currency(currency)
	}

	for _, m := range parser.FindSKUList(data) {
		cand := parser.CandidateFromMap(m)
		p.Variants = append(p.Variants, cand)
		if cand.Image != "" {
			p.VariantImages = append(p.VariantImages, cand.Image)
		}
	}
	return p
}

func jsonLD(ctx context.Context, c *call) (Partial, error) {
	payloads, err := c.scripts(ctx)
	if err != nil {
		return Partial{}, err
	}
	products := parser.LDProducts(payloads.LDJSON)
	if len(products) == 0 {
		return Partial{}, fmt.Errorf("JSON-LD product %w", errNotFound)
	}

	var p Partial
	for _, node := range products {
		p.fill(c.ldPartial(parser.ParseLDProduct(node)))
	}
	return p, nil
}

func (c *call) ldPartial(ld parser.LDProduct) Partial {
	p := Partial{
		Title:        ld.Title,
		Description:  ld.Description,
		Images:       ld.Images,
		Specs:        ld.Specs,
		Availability: ld.Availability,
		Variants:     ld.Variants,
	}
	if ld.Price.IsPositive() {
		p.Price = ld.Price
		p.Currency = c.currency(ld.Currency)
	}
	for _, v := range ld.Variants {
		if v.Image != "" {
			p.VariantImages = append(p.VariantImages, v.Image)
		}
	}
	return p
}

func domSelectors(ctx context.Context, c *call) (Partial, error) {
	doc, err := c.document(ctx)
	if err != nil {
		return Partial{}, err
	}
	return c.domPartial(doc), nil
}

func (c *call) domPartial(doc *goquery.Document) Partial {
	pr := c.profile

	p := Partial{
		Title:       parser.FirstText(doc, pr.titleSelectors),
		Description: parser.FirstText(doc, pr.descriptionSelectors),
		Images:      parser.ImageSources(doc, pr.imageSelectors),
		Shipping:    parser.FirstText(doc, pr.shippingSelectors),
	}
	if p.Title == "" {
		p.Title = parser.MetaContent(doc, "og:title")
	}
	if p.Description == "" {
		p.Description = parser.MetaContent(doc, "og:description")
	}
	if og := parser.MetaContent(doc, "og:image"); og != "" {
		p.Images = append(p.Images, og)
	}

	if text := parser.FirstText(doc, pr.priceSelectors); text != "" {
		if amount, ok := parser.ParsePriceText(text); ok {
			p.Price = amount
			p.Currency = c.currency(parser.DetectCurrency(text, ""))
		}
	}
	if !p.Price.IsPositive() {
		if amount, ok := parser.ParsePriceText(parser.MetaContent(doc, "product:price:amount")); ok {
			p.Price = amount
			p.Currency = c.currency(parser.MetaContent(doc, "product:price:currency"))
		}
	}

	for _, table := range pr.specTables {
		specs := parser.SpecTable(doc, table.row, table.key, table.value)
		if len(specs) == 0 {
			continue
		}
		if p.Specs == nil {
			p.Specs = specs
			continue
		}
		for k, v := range specs {
			if _, exists := p.Specs[k]; !exists {
				p.Specs[k] = v
			}
		}
	}

	for _, selector := range pr.variantSelectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			cand := domVariant(s)
			if cand.Name == "" && cand.Image == "" {
				return
			}
			p.Variants = append(p.Variants, cand)
			if cand.Image != "" {
				p.VariantImages = append(p.VariantImages, cand.Image)
			}
		})
		if len(p.Variants) > 0 {
			break
		}
	}

	for _, selector := range pr.soldOutSelectors {
		if doc.Find(selector).Length() > 0 {
			soldOut := false
			p.Availability = &soldOut
			break
		}
	}

	return p
}

// domVariant reads a variant option element: its label from title, alt or
// text, its image from a nested or own <img>.
func domVariant(s *goquery.Selection) models.VariantCandidate {
	cand := models.VariantCandidate{Attributes: map[string]string{}}

	for _, attr := range []string{"title", "aria-label", "data-name"} {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			cand.Name = parser.CleanText(v)
			break
		}
	}

	img := s.Find("img").First()
	if s.Is("img") {
		img = s
	}
	if cand.Name == "" {
		if alt, ok := img.Attr("alt"); ok {
			cand.Name = parser.CleanText(alt)
		}
	}
	if cand.Name == "" {
		cand.Name = parser.CleanText(s.Text())
	}

	for _, attr := range []string{"src", "data-src"} {
		if v, ok := img.Attr(attr); ok && v != "" {
			cand.Image = v
			break
		}
	}
	return cand
}

// renderedDOM loads the page in a browser and repeats structured and DOM
// extraction on the result.
func renderedDOM(ctx context.Context, c *call) (Partial, error) {
	opts := c.deps.Options
	if err := ratelimit.Sleep(ctx, opts.MinDelay, opts.MaxDelay); err != nil {
		return Partial{}, err
	}

	html, err := c.deps.Renderer.Render(ctx, c.rawURL, browser.RenderRequest{
		Locale:          opts.Locale,
		UserAgent:       stealth.UserAgent(opts.UserAgents, opts.UserAgentRotation),
		ReadySelector:   c.profile.readySelector,
		NavigateTimeout: opts.NavigateTimeout,
		SettleDelay:     opts.SettleDelay,
	})
	if err != nil {
		return Partial{}, fmt.Errorf("render: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Partial{}, fmt.Errorf("parse rendered page: %w", err)
	}
	if c.rawHTML == "" {
		c.rawHTML = html
	}

	p := c.domPartial(doc)
	payloads := parser.ScriptPayloads(doc, c.profile.hydrationVars)
	for _, data := range payloads.Hydration {
		p.fill(c.hydrationPartial(data))
	}
	for _, node := range parser.LDProducts(payloads.LDJSON) {
		p.fill(c.ldPartial(parser.ParseLDProduct(node)))
	}
	return p, nil
}

// currency falls back to the option currency.
func (c *call) currency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return c.deps.Options.Currency
	}
	return code
}
