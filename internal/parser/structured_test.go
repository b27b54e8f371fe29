package parser

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aliexpressPage = `<html><head>
<script>
window.runParams = {
  data: {"titleModule":{"subject":"Clip In Hair Extension"},
         "priceModule":{"minAmount":{"value":3.5,"currency":"USD"}},
         "imageModule":{"imagePathList":["https://ae01.example.com/kf/a.jpg","//ae01.example.com/kf/b.jpg"]},
         "skuModule":{"skuPriceList":[
           {"skuAttr":"14:193#Black","skuIdStr":"1201","skuVal":{"skuAmount":{"value":3.5},"availQuantity":12}},
           {"skuAttr":"14:194#Brown","skuIdStr":"1202","skuVal":{"skuAmount":{"value":4.25}}}
         ]}}
};
</script>
</head><body></body></html>`

const ldGroupPage = `<html><head>
<script type="application/ld+json">
{"@context":"https://schema.org","@graph":[
  {"@type":"BreadcrumbList","name":"crumbs"},
  {"@type":"ProductGroup","name":"Hair Clip","description":"Soft clip",
   "brand":{"@type":"Brand","name":"Acme"},
   "image":["https://img.example.com/1.jpg",{"url":"https://img.example.com/2.jpg"}],
   "offers":{"@type":"AggregateOffer","lowPrice":"12.90","priceCurrency":"EUR","availability":"https://schema.org/InStock"},
   "hasVariant":[
     {"@type":"Product","name":"Hair Clip Red","sku":"HC-R","color":"Red","image":"https://img.example.com/red.jpg","offers":{"price":"12.90"}},
     {"@type":"Product","name":"Hair Clip Blue","sku":"HC-B","color":"Blue","offers":{"price":"13.90"}}
   ]}
]}
</script>
</head><body></body></html>`

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestScriptPayloadsHydration(t *testing.T) {
	payloads := ScriptPayloads(mustDoc(t, aliexpressPage), []string{"runParams"})
	require.Len(t, payloads.Hydration, 1)
	assert.Empty(t, payloads.LDJSON)

	data := payloads.Hydration[0]
	assert.Equal(t, "Clip In Hair Extension", FindString(data, "subject"))

	amount, currency, ok := FindPrice(data)
	require.True(t, ok)
	assert.Equal(t, "3.5", amount.String())
	assert.Equal(t, "USD", currency)

	images := CollectImageURLs(data)
	assert.Equal(t, []string{"https://ae01.example.com/kf/a.jpg", "//ae01.example.com/kf/b.jpg"}, images)

	skus := FindSKUList(data)
	require.Len(t, skus, 2)

	first := CandidateFromMap(skus[0])
	assert.Equal(t, "Black", first.Name)
	assert.Equal(t, "3.5", first.Price.String())
	assert.Equal(t, "1201", first.SKU)

	second := CandidateFromMap(skus[1])
	assert.Equal(t, "Brown", second.Name)
	assert.Equal(t, "4.25", second.Price.String())
}

func TestScriptPayloadsNextData(t *testing.T) {
	html := `<script id="__NEXT_DATA__" type="application/json">{"props":{"pageProps":{"goods":{"goodsName":"Wig"}}}}</script>`
	payloads := ScriptPayloads(mustDoc(t, html), nil)
	require.Len(t, payloads.Hydration, 1)
	assert.Equal(t, "Wig", FindString(payloads.Hydration[0], "goodsName"))
}

func TestScriptPayloadsIgnoresBrokenJSON(t *testing.T) {
	html := `<script type="application/ld+json">{"@type": "Product", broken</script><script>var x = 1;</script>`
	payloads := ScriptPayloads(mustDoc(t, html), []string{"rawData"})
	assert.True(t, payloads.Empty())
}

func TestLDProductGroup(t *testing.T) {
	payloads := ScriptPayloads(mustDoc(t, ldGroupPage), nil)
	products := LDProducts(payloads.LDJSON)
	require.Len(t, products, 1)

	p := ParseLDProduct(products[0])
	assert.Equal(t, "Hair Clip", p.Title)
	assert.Equal(t, "Soft clip", p.Description)
	assert.Equal(t, []string{"https://img.example.com/1.jpg", "https://img.example.com/2.jpg"}, p.Images)
	assert.Equal(t, "12.9", p.Price.String())
	assert.Equal(t, "EUR", p.Currency)
	require.NotNil(t, p.Availability)
	assert.True(t, *p.Availability)
	assert.Equal(t, "Acme", p.Specs["Brand"])

	require.Len(t, p.Variants, 2)
	assert.Equal(t, "Hair Clip Red", p.Variants[0].Name)
	assert.Equal(t, "Red", p.Variants[0].Attributes["color"])
	assert.Equal(t, "https://img.example.com/red.jpg", p.Variants[0].Image)
	assert.Equal(t, "HC-B", p.Variants[1].SKU)
	assert.Equal(t, "13.9", p.Variants[1].Price.String())
}

func TestFindSKUListVariantKey(t *testing.T) {
	data := map[string]interface{}{
		"store": map[string]interface{}{
			"variantList": []interface{}{
				map[string]interface{}{
					"specs": []interface{}{
						map[string]interface{}{"name": "Color", "value": "Blonde"},
						map[string]interface{}{"name": "Length", "value": "50cm"},
					},
					"price": "NOK 129",
					"stock": 4.0,
				},
			},
		},
	}

	list := FindSKUList(data)
	require.Len(t, list, 1)

	cand := CandidateFromMap(list[0])
	assert.Equal(t, map[string]string{"color": "Blonde", "length": "50cm"}, cand.Attributes)
	assert.Equal(t, "Blonde / 50cm", cand.Name)
	assert.Equal(t, "129", cand.Price.String())
	require.NotNil(t, cand.Stock)
	assert.Equal(t, 4, *cand.Stock)
}

func TestBalancedObjectHonoursStrings(t *testing.T) {
	obj, ok := balancedObject(`x = {"a":"}{","b":{"c":1}}; rest`, 4)
	require.True(t, ok)
	assert.Equal(t, `{"a":"}{","b":{"c":1}}`, obj)

	_, ok = balancedObject(`{"a":1`, 0)
	assert.False(t, ok)
}

func TestFindPairs(t *testing.T) {
	data := map[string]interface{}{
		"productPropComponent": map[string]interface{}{
			"props": []interface{}{
				map[string]interface{}{"attrName": "Material", "attrValue": "Synthetic"},
				map[string]interface{}{"attrName": "Length", "attrValue": "50cm"},
				map[string]interface{}{"attrName": "Empty"},
			},
		},
	}

	assert.Equal(t, map[string]string{"Material": "Synthetic", "Length": "50cm"}, FindPairs(data, "props"))
	assert.Nil(t, FindPairs(data, "specs"))
}
