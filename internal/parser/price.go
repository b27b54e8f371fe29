package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	numberToken  = regexp.MustCompile(`\d{1,3}(?:[ \x{00A0}\x{202F}]\d{3})+(?:[.,]\d+)?|\d[\d.,]*`)
	rangeSplit   = regexp.MustCompile(`(?i)\s*(?:[-–—~]|\bto\b|\btil\b|\bbis\b)\s*`)
	percentToken = regexp.MustCompile(`\d+(?:[.,]\d+)?\s*%`)
)

type currencyRule struct {
	pattern *regexp.Regexp
	code    string
}

// Checked in order; the bare dollar sign goes last so "US $" and "CA $"
// style prefixes win.
var currencyRules = []currencyRule{
	{regexp.MustCompile(`US\s?\$|\bUSD\b`), "USD"},
	{regexp.MustCompile(`€|\bEUR\b`), "EUR"},
	{regexp.MustCompile(`£|\bGBP\b`), "GBP"},
	{regexp.MustCompile(`CN¥|¥|￥|\bCNY\b|\bRMB\b`), "CNY"},
	{regexp.MustCompile(`(?i)\bNOK\b|\bkr\b|,-`), "NOK"},
	{regexp.MustCompile(`\bSEK\b`), "SEK"},
	{regexp.MustCompile(`\bDKK\b`), "DKK"},
	{regexp.MustCompile(`\$`), "USD"},
}

// Currencies whose prices are written with '.' as the thousands separator.
var dotThousandsCurrencies = map[string]bool{"NOK": true, "EUR": true, "SEK": true, "DKK": true}

var anyCurrency = func() *regexp.Regexp {
	parts := make([]string, len(currencyRules))
	for i, rule := range currencyRules {
		parts[i] = "(?:" + rule.pattern.String() + ")"
	}
	return regexp.MustCompile(strings.Join(parts, "|"))
}()

// ParseNumber parses a single numeric token, guessing which of ',' and '.'
// is the decimal separator.
func ParseNumber(token string) (decimal.Decimal, bool) {
	return parseNumber(token, false)
}

// parseNumber treats a lone '.' followed by exactly three digits as a
// thousands separator when dotThousands is set.
func parseNumber(token string, dotThousands bool) (decimal.Decimal, bool) {
	s := strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(strings.TrimSpace(token))
	s = strings.TrimRight(s, ".,")
	if s == "" {
		return decimal.Zero, false
	}

	commas := strings.Count(s, ",")
	dots := strings.Count(s, ".")

	switch {
	case commas > 0 && dots > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case commas == 1:
		if len(s)-strings.LastIndex(s, ",")-1 == 3 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	case dots > 1:
		s = strings.ReplaceAll(s, ".", "")
	case dots == 1 && dotThousands:
		if len(s)-strings.LastIndex(s, ".")-1 == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParsePriceText extracts the amount from free price text. Ranges such as
// "$10.50 - $15" yield their minimum. Percentages are ignored. When a part
// carries a currency symbol, the number next to it wins over other numbers
// such as pack counts.
func ParsePriceText(text string) (decimal.Decimal, bool) {
	text = percentToken.ReplaceAllString(text, " ")
	dotThousands := dotThousandsCurrencies[DetectCurrency(text, "")] || strings.Contains(text, ",-")

	var best decimal.Decimal
	found := false
	for _, part := range rangeSplit.Split(text, -1) {
		token := priceToken(part)
		if token == "" {
			continue
		}
		amount, ok := parseNumber(token, dotThousands)
		if !ok || !amount.IsPositive() {
			continue
		}
		if !found || amount.LessThan(best) {
			best = amount
			found = true
		}
	}
	return best, found
}

// priceToken returns the number token closest to the first currency marker
// in part, or the first number token when there is none.
func priceToken(part string) string {
	tokens := numberToken.FindAllStringIndex(part, -1)
	if len(tokens) == 0 {
		return ""
	}
	marker := anyCurrency.FindStringIndex(part)
	if marker == nil || len(tokens) == 1 {
		return part[tokens[0][0]:tokens[0][1]]
	}

	best, bestDist := tokens[0], -1
	for _, tok := range tokens {
		var dist int
		switch {
		case tok[0] >= marker[1]:
			dist = tok[0] - marker[1]
		case tok[1] <= marker[0]:
			dist = marker[0] - tok[1]
		}
		if bestDist < 0 || dist < bestDist {
			best, bestDist = tok, dist
		}
	}
	return part[best[0]:best[1]]
}

// DetectCurrency returns the ISO code implied by symbols in text, or fallback.
func DetectCurrency(text, fallback string) string {
	for _, rule := range currencyRules {
		if rule.pattern.MatchString(text) {
			return rule.code
		}
	}
	return fallback
}

// ParseAmount converts a JSON scalar (number or string) to a decimal.
func ParseAmount(v interface{}) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case float64:
		if t <= 0 {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(t), true
	case string:
		return ParsePriceText(t)
	case map[string]interface{}:
		for _, key := range []string{"value", "amount", "price", "minAmount"} {
			if inner, ok := t[key]; ok {
				if d, ok := ParseAmount(inner); ok {
					return d, true
				}
			}
		}
	}
	return decimal.Zero, false
}
