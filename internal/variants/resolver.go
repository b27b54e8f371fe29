// Package variants reconciles variant candidates into the final,
// image-assigned variant list.
package variants

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/maltedev/supplier-extractor/internal/images"
	"github.com/maltedev/supplier-extractor/internal/models"
)

// DefaultVariantName names the synthetic variant used when nothing else is
// known.
const DefaultVariantName = "Standard"

// Input is everything the resolver reconciles.
type Input struct {
	Candidates []models.VariantCandidate
	Images     []string
	BasePrice  decimal.Decimal
	// Text is scanned for colour keywords when there are no candidates;
	// typically the title plus the decoded URL path.
	Text string
}

// Resolver turns candidates into a non-empty, de-duplicated variant list.
type Resolver struct {
	colors   *ColorTable
	locale   string
	override string
}

// NewResolver returns a resolver. A non-empty override collapses colour
// detection to a single variant of that colour.
func NewResolver(colors *ColorTable, locale, override string) *Resolver {
	if colors == nil {
		colors = DefaultColorTable()
	}
	return &Resolver{
		colors:   colors,
		locale:   locale,
		override: strings.TrimSpace(override),
	}
}

// Resolve always returns at least one variant.
func (r *Resolver) Resolve(in Input) []models.VariantCandidate {
	out := r.normalize(in.Candidates, in.BasePrice)
	if len(out) == 0 {
		out = r.synthesize(in.Text, in.BasePrice)
	}
	if len(out) == 0 {
		out = []models.VariantCandidate{{
			Name:       DefaultVariantName,
			Price:      in.BasePrice,
			Attributes: map[string]string{},
		}}
	}

	r.assignImages(out, in.Images)
	return out
}

func (r *Resolver) normalize(candidates []models.VariantCandidate, base decimal.Decimal) []models.VariantCandidate {
	seen := make(map[string]bool)
	out := make([]models.VariantCandidate, 0, len(candidates))

	for _, c := range candidates {
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			c.Name = fmt.Sprintf("Variant %d", len(out)+1)
		}
		if !c.Price.IsPositive() {
			c.Price = base
		}
		if c.Attributes == nil {
			c.Attributes = map[string]string{}
		}
		if img, ok := images.Normalize(c.Image); ok {
			c.Image = img
		} else {
			c.Image = ""
		}

		key := strings.ToLower(c.Name) + "\x00" + c.SKU
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func (r *Resolver) synthesize(text string, base decimal.Decimal) []models.VariantCandidate {
	detected := r.colors.Detect(text, r.locale)
	if len(detected) == 0 {
		return nil
	}

	if r.override != "" {
		return []models.VariantCandidate{{
			Name:       r.override,
			Price:      base,
			Attributes: map[string]string{"color": r.override},
		}}
	}

	out := make([]models.VariantCandidate, 0, len(detected))
	for _, c := range detected {
		out = append(out, models.VariantCandidate{
			Name:       c.Value,
			Price:      base,
			Attributes: map[string]string{"color": c.Value},
		})
	}
	return out
}

// assignImages fills missing variant images: keyword match first, then
// positional over the images no keyword claimed, then the first image.
func (r *Resolver) assignImages(vs []models.VariantCandidate, imgs []string) {
	if len(imgs) == 0 {
		return
	}

	claimed := make(map[string]bool)
	for _, v := range vs {
		if v.Image != "" {
			claimed[images.Key(v.Image)] = true
		}
	}

	for i := range vs {
		if vs[i].Image != "" {
			continue
		}
		if img, ok := r.keywordImage(vs[i], imgs); ok {
			vs[i].Image = img
			claimed[images.Key(img)] = true
		}
	}

	var pool []string
	for _, img := range imgs {
		if !claimed[images.Key(img)] {
			pool = append(pool, img)
		}
	}

	for i := range vs {
		if vs[i].Image != "" {
			continue
		}
		if len(pool) > 0 {
			vs[i].Image = pool[i%len(pool)]
		} else {
			vs[i].Image = imgs[0]
		}
	}
}

func (r *Resolver) keywordImage(v models.VariantCandidate, imgs []string) (string, bool) {
	var keys []string
	var words []*regexp.Regexp
	for _, value := range append([]string{v.Name}, attributeValues(v.Attributes)...) {
		if key, ok := r.colors.KeyOf(value, r.locale); ok {
			keys = append(keys, key)
		}
		w := strings.ToLower(strings.TrimSpace(value))
		if len([]rune(w)) < 3 {
			continue
		}
		fragment := regexp.QuoteMeta(w)
		if strings.Contains(w, " ") {
			fragment += "|" + regexp.QuoteMeta(strings.ReplaceAll(w, " ", "-"))
		}
		if re, err := boundaryPattern(fragment); err == nil {
			words = append(words, re)
		}
	}

	paths := make([]string, len(imgs))
	for i, img := range imgs {
		path := strings.ToLower(img)
		if unescaped, err := url.PathUnescape(path); err == nil {
			path = unescaped
		}
		paths[i] = path
	}

	// A colour match on any image beats a word match on an earlier one.
	for i, path := range paths {
		for _, key := range keys {
			if r.colors.Matches(path, key) {
				return imgs[i], true
			}
		}
	}
	for i, path := range paths {
		for _, re := range words {
			if re.MatchString(path) {
				return imgs[i], true
			}
		}
	}
	return "", false
}

func attributeValues(attrs map[string]string) []string {
	// Colour first; it is the attribute most often encoded in image names.
	var out []string
	if c, ok := attrs["color"]; ok {
		out = append(out, c)
	}
	for k, v := range attrs {
		if k != "color" {
			out = append(out, v)
		}
	}
	return out
}
