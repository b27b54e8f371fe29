package parser

import (
	"encoding/json"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"github.com/maltedev/supplier-extractor/internal/models"
)

// Payloads holds the decoded JSON found in a page's script tags.
type Payloads struct {
	Hydration []interface{}
	LDJSON    []interface{}
}

// Empty reports whether no script yielded JSON.
func (p Payloads) Empty() bool {
	return len(p.Hydration) == 0 && len(p.LDJSON) == 0
}

const maxDecodeAttempts = 20

// ScriptPayloads decodes JSON-LD blocks, JSON script tags and assignments to
// the given hydration variables (window.runParams = {...}).
func ScriptPayloads(doc *goquery.Document, hydrationVars []string) Payloads {
	var out Payloads

	var assign *regexp.Regexp
	if len(hydrationVars) > 0 {
		quoted := make([]string, len(hydrationVars))
		for i, v := range hydrationVars {
			quoted[i] = regexp.QuoteMeta(v)
		}
		assign = regexp.MustCompile(`(?:window\.)?(?:` + strings.Join(quoted, "|") + `)\s*=\s*`)
	}

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		body := strings.TrimSpace(s.Text())
		if body == "" {
			return
		}

		typ, _ := s.Attr("type")
		id, _ := s.Attr("id")

		switch {
		case strings.EqualFold(typ, "application/ld+json"):
			if v, ok := decodeLoose(body); ok {
				out.LDJSON = append(out.LDJSON, v)
			}
		case id == "__NEXT_DATA__" || strings.EqualFold(typ, "application/json"):
			if v, ok := decodeLoose(body); ok {
				out.Hydration = append(out.Hydration, v)
			}
		case assign != nil:
			for _, loc := range assign.FindAllStringIndex(body, -1) {
				if v, ok := decodeLoose(body[loc[1]:]); ok {
					out.Hydration = append(out.Hydration, v)
				}
			}
		}
	})

	return out
}

// decodeLoose decodes the first balanced JSON object in s. Object literals
// with unquoted keys are skipped in favour of the first nested object that
// is valid JSON.
func decodeLoose(s string) (interface{}, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		var arr []interface{}
		if err := json.Unmarshal([]byte(strings.TrimRight(s, "; \n")), &arr); err == nil {
			return arr, true
		}
	}

	offset := 0
	for attempt := 0; attempt < maxDecodeAttempts; attempt++ {
		idx := strings.IndexByte(s[offset:], '{')
		if idx < 0 {
			return nil, false
		}
		start := offset + idx
		obj, ok := balancedObject(s, start)
		if !ok {
			return nil, false
		}
		var v map[string]interface{}
		if err := json.Unmarshal([]byte(obj), &v); err == nil {
			return v, true
		}
		offset = start + 1
	}
	return nil, false
}

// balancedObject returns the {...} starting at s[start], honouring strings.
func balancedObject(s string, start int) (string, bool) {
	depth := 0
	var quote byte
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// LDProducts flattens JSON-LD payloads (arrays, @graph) and returns every
// Product or ProductGroup node.
func LDProducts(payloads []interface{}) []map[string]interface{} {
	var products []map[string]interface{}
	var walk func(v interface{})
	walk = func(v interface{}) {
		switch t := v.(type) {
		case []interface{}:
			for _, item := range t {
				walk(item)
			}
		case map[string]interface{}:
			if graph, ok := t["@graph"]; ok {
				walk(graph)
			}
			if hasLDType(t, "Product", "ProductGroup") {
				products = append(products, t)
			}
		}
	}
	for _, p := range payloads {
		walk(p)
	}
	return products
}

func hasLDType(m map[string]interface{}, types ...string) bool {
	matches := func(s string) bool {
		s = strings.TrimPrefix(s, "http://schema.org/")
		s = strings.TrimPrefix(s, "https://schema.org/")
		for _, t := range types {
			if s == t {
				return true
			}
		}
		return false
	}
	switch t := m["@type"].(type) {
	case string:
		return matches(t)
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok && matches(s) {
				return true
			}
		}
	}
	return false
}

// LDProduct is the subset of a JSON-LD Product the chain consumes.
type LDProduct struct {
	Title        string
	Description  string
	Images       []string
	Price        decimal.Decimal
	Currency     string
	Availability *bool
	Variants     []models.VariantCandidate
	Specs        map[string]string
}

// ParseLDProduct reads a Product or ProductGroup node.
func ParseLDProduct(node map[string]interface{}) LDProduct {
	p := LDProduct{
		Title:       CleanText(stringValue(node["name"])),
		Description: CleanText(stringValue(node["description"])),
		Images:      imageValues(node["image"]),
		Specs:       map[string]string{},
	}

	if brand := brandName(node["brand"]); brand != "" {
		p.Specs["Brand"] = brand
	}
	for _, key := range []string{"color", "material", "size"} {
		if v := stringValue(node[key]); v != "" {
			p.Specs[capitalize(key)] = v
		}
	}

	p.Price, p.Currency, p.Availability = ldOffer(node["offers"])

	if variants, ok := node["hasVariant"].([]interface{}); ok {
		for _, raw := range variants {
			vm, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			cand := models.VariantCandidate{
				Name:       CleanText(stringValue(vm["name"])),
				SKU:        stringValue(vm["sku"]),
				Attributes: map[string]string{},
			}
			if imgs := imageValues(vm["image"]); len(imgs) > 0 {
				cand.Image = imgs[0]
			}
			for _, key := range []string{"color", "size", "material", "pattern"} {
				if v := stringValue(vm[key]); v != "" {
					cand.Attributes[key] = v
				}
			}
			cand.Price, _, _ = ldOffer(vm["offers"])
			p.Variants = append(p.Variants, cand)
		}
	}

	return p
}

func ldOffer(v interface{}) (decimal.Decimal, string, *bool) {
	var offers []map[string]interface{}
	switch t := v.(type) {
	case map[string]interface{}:
		offers = append(offers, t)
	case []interface{}:
		for _, item := range t {
			if m, ok := item.(map[string]interface{}); ok {
				offers = append(offers, m)
			}
		}
	}

	var best decimal.Decimal
	var currency string
	var available *bool
	for _, offer := range offers {
		for _, key := range []string{"price", "lowPrice"} {
			if amount, ok := ParseAmount(offer[key]); ok {
				if best.IsZero() || amount.LessThan(best) {
					best = amount
				}
				break
			}
		}
		if c := stringValue(offer["priceCurrency"]); c != "" && currency == "" {
			currency = c
		}
		if a := stringValue(offer["availability"]); a != "" && available == nil {
			in := !strings.Contains(a, "OutOfStock") && !strings.Contains(a, "Discontinued")
			available = &in
		}
	}
	return best, currency, available
}

func brandName(v interface{}) string {
	if m, ok := v.(map[string]interface{}); ok {
		return stringValue(m["name"])
	}
	return stringValue(v)
}

func imageValues(v interface{}) []string {
	var out []string
	switch t := v.(type) {
	case string:
		out = append(out, t)
	case []interface{}:
		for _, item := range t {
			out = append(out, imageValues(item)...)
		}
	case map[string]interface{}:
		for _, key := range []string{"url", "contentUrl", "src"} {
			if s := stringValue(t[key]); s != "" {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// stringValue renders JSON scalars as strings.
func stringValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	}
	return ""
}

// FindString searches v breadth-first for the first non-empty string under
// any of keys. Shallower matches win.
func FindString(v interface{}, keys ...string) string {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[strings.ToLower(k)] = true
	}

	queue := []interface{}{v}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		switch t := cur.(type) {
		case map[string]interface{}:
			for _, k := range sortedKeys(t) {
				if want[strings.ToLower(k)] {
					if s, ok := t[k].(string); ok && strings.TrimSpace(s) != "" {
						return strings.TrimSpace(s)
					}
				}
			}
			for _, k := range sortedKeys(t) {
				queue = append(queue, t[k])
			}
		case []interface{}:
			queue = append(queue, t...)
		}
	}
	return ""
}

// FindSKUList walks v depth-first for the first array of objects held under
// a key containing "sku" or "variant".
func FindSKUList(v interface{}) []map[string]interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for _, k := range sortedKeys(t) {
			lk := strings.ToLower(k)
			if !strings.Contains(lk, "sku") && !strings.Contains(lk, "variant") {
				continue
			}
			if list := objectList(t[k]); len(list) > 0 && looksLikeSKUs(list) {
				return list
			}
		}
		for _, k := range sortedKeys(t) {
			if found := FindSKUList(t[k]); len(found) > 0 {
				return found
			}
		}
	case []interface{}:
		for _, item := range t {
			if found := FindSKUList(item); len(found) > 0 {
				return found
			}
		}
	}
	return nil
}

func objectList(v interface{}) []map[string]interface{} {
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var out []map[string]interface{}
	for _, item := range arr {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

func looksLikeSKUs(list []map[string]interface{}) bool {
	for _, m := range list {
		if _, ok := lookupNumber(m, priceKeys, 3); ok {
			return true
		}
		if variantName(m) != "" {
			return true
		}
	}
	return false
}

var (
	nameKeys  = []string{"name", "skuName", "title", "specName", "propertyValueDisplayName", "propertyValueName", "spec", "color"}
	priceKeys = []string{"price", "salePrice", "skuPrice", "actSkuCalPrice", "skuCalPrice", "skuAmount", "skuVal", "priceInfo", "amount", "value", "minPrice"}
	imageKeys = []string{"image", "imageUrl", "imgUrl", "img", "skuImage", "skuImageUrl", "thumbUrl", "skuPropertyImagePath", "pic"}
	skuKeys   = []string{"skuId", "skuIdStr", "sku", "id"}
	stockKeys = []string{"stock", "availQuantity", "inventory", "skuStock", "quantity"}
	attrKeys  = []string{"attributes", "attrs", "specs", "props", "skuAttributes", "specList"}
)

// CandidateFromMap converts one SKU-list entry into a variant candidate.
func CandidateFromMap(m map[string]interface{}) models.VariantCandidate {
	cand := models.VariantCandidate{
		Attributes: attributesOf(m),
	}

	cand.Name = variantName(m)
	if cand.Name == "" && len(cand.Attributes) > 0 {
		keys := make([]string, 0, len(cand.Attributes))
		for k := range cand.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, cand.Attributes[k])
		}
		cand.Name = strings.Join(parts, " / ")
	}

	if amount, ok := lookupNumber(m, priceKeys, 3); ok {
		cand.Price = amount
	}
	for _, k := range imageKeys {
		if s := stringValue(m[k]); s != "" {
			cand.Image = s
			break
		}
	}
	for _, k := range skuKeys {
		if s := stringValue(m[k]); s != "" {
			cand.SKU = s
			break
		}
	}
	for _, k := range stockKeys {
		if n, ok := m[k].(float64); ok {
			stock := int(n)
			cand.Stock = &stock
			break
		}
	}
	return cand
}

func variantName(m map[string]interface{}) string {
	for _, k := range nameKeys {
		if s := stringValue(m[k]); s != "" {
			return CleanText(s)
		}
	}
	// "14:193#Black;5:100014064#M" style property strings.
	if attr := stringValue(m["skuAttr"]); strings.Contains(attr, "#") {
		var labels []string
		for _, part := range strings.Split(attr, ";") {
			if i := strings.Index(part, "#"); i >= 0 && i+1 < len(part) {
				labels = append(labels, part[i+1:])
			}
		}
		return strings.Join(labels, " / ")
	}
	return ""
}

func attributesOf(m map[string]interface{}) map[string]string {
	attrs := map[string]string{}
	for _, k := range attrKeys {
		switch t := m[k].(type) {
		case map[string]interface{}:
			for ak, av := range t {
				if s := stringValue(av); s != "" {
					attrs[strings.ToLower(ak)] = s
				}
			}
		case []interface{}:
			for _, item := range t {
				entry, ok := item.(map[string]interface{})
				if !ok {
					continue
				}
				name := firstString(entry, "name", "key", "attrName", "specName")
				value := firstString(entry, "value", "valueName", "attrValue", "specValue")
				if name != "" && value != "" {
					attrs[strings.ToLower(name)] = value
				}
			}
		}
	}
	return attrs
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s := stringValue(m[k]); s != "" {
			return s
		}
	}
	return ""
}

// lookupNumber looks for a positive amount under keys, descending into
// nested objects up to depth levels.
func lookupNumber(m map[string]interface{}, keys []string, depth int) (decimal.Decimal, bool) {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		if amount, ok := ParseAmount(v); ok {
			return amount, true
		}
		if nested, ok := v.(map[string]interface{}); ok && depth > 0 {
			if amount, ok := lookupNumber(nested, keys, depth-1); ok {
				return amount, true
			}
		}
	}
	return decimal.Zero, false
}

// FindPrice returns the first positive amount under a price-like key, with
// the currency code stored alongside it when present.
func FindPrice(v interface{}) (decimal.Decimal, string, bool) {
	queue := []interface{}{v}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		switch t := cur.(type) {
		case map[string]interface{}:
			for _, k := range []string{"minPrice", "salePrice", "price", "minAmount", "formatedActivityPrice", "formatedPrice"} {
				raw, ok := t[k]
				if !ok {
					continue
				}
				if amount, ok := ParseAmount(raw); ok {
					currency := firstString(t, "currency", "currencyCode", "priceCurrency")
					switch r := raw.(type) {
					case map[string]interface{}:
						if c := firstString(r, "currency", "currencyCode"); c != "" {
							currency = c
						}
					case string:
						if currency == "" {
							currency = DetectCurrency(r, "")
						}
					}
					return amount, currency, true
				}
			}
			for _, k := range sortedKeys(t) {
				queue = append(queue, t[k])
			}
		case []interface{}:
			queue = append(queue, t...)
		}
	}
	return decimal.Zero, "", false
}

// CollectImageURLs gathers absolute or protocol-relative image URLs held
// under image-like keys anywhere in v.
func CollectImageURLs(v interface{}) []string {
	var out []string
	var walk func(v interface{}, imageKey bool)
	walk = func(v interface{}, imageKey bool) {
		switch t := v.(type) {
		case string:
			if imageKey && looksLikeURL(t) {
				out = append(out, t)
			}
		case []interface{}:
			for _, item := range t {
				walk(item, imageKey)
			}
		case map[string]interface{}:
			for _, k := range sortedKeys(t) {
				lk := strings.ToLower(k)
				isImage := isImageKey(lk) || (imageKey && (lk == "url" || lk == "src"))
				walk(t[k], isImage)
			}
		}
	}
	walk(v, false)
	return out
}

func isImageKey(lk string) bool {
	return strings.Contains(lk, "image") || strings.Contains(lk, "img") ||
		strings.Contains(lk, "gallery") || lk == "pic" || lk == "pics" ||
		strings.HasPrefix(lk, "picture")
}

func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "//")
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FindPairs returns name/value pairs from the first list held under one of
// keys, e.g. [{"attrName":"Material","attrValue":"Fibre"}].
func FindPairs(v interface{}, keys ...string) map[string]string {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		want[strings.ToLower(k)] = true
	}

	var found map[string]string
	var walk func(v interface{}) bool
	walk = func(v interface{}) bool {
		switch t := v.(type) {
		case map[string]interface{}:
			for _, k := range sortedKeys(t) {
				if !want[strings.ToLower(k)] {
					continue
				}
				pairs := make(map[string]string)
				for _, entry := range objectList(t[k]) {
					name := firstString(entry, "attrName", "name", "key", "label", "title")
					value := firstString(entry, "attrValue", "value", "valueName", "text")
					if name != "" && value != "" {
						pairs[name] = value
					}
				}
				if len(pairs) > 0 {
					found = pairs
					return true
				}
			}
			for _, k := range sortedKeys(t) {
				if walk(t[k]) {
					return true
				}
			}
		case []interface{}:
			for _, item := range t {
				if walk(item) {
					return true
				}
			}
		}
		return false
	}
	walk(v)
	return found
}
