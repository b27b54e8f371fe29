package variants

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed colors.yaml
var defaultColors []byte

// Rule maps a keyword pattern to a canonical colour.
type Rule struct {
	Pattern string `yaml:"pattern"`
	Value   string `yaml:"value"`
	Key     string `yaml:"key"`

	re *regexp.Regexp
}

// Color is a detected colour.
type Color struct {
	Key   string
	Value string
}

// ColorTable holds the ordered colour rules per language.
type ColorTable struct {
	locales map[string][]Rule
	order   []string
}

var (
	defaultTable     *ColorTable
	defaultTableOnce sync.Once
)

// DefaultColorTable returns the embedded table, parsed once.
func DefaultColorTable() *ColorTable {
	defaultTableOnce.Do(func() {
		table, err := LoadColorTable(defaultColors)
		if err != nil {
			panic(fmt.Sprintf("embedded colour table: %v", err))
		}
		defaultTable = table
	})
	return defaultTable
}

// LoadColorTable parses a YAML document of language → rules.
func LoadColorTable(data []byte) (*ColorTable, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing colour table: %w", err)
	}

	var raw map[string][]Rule
	if err := doc.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding colour table: %w", err)
	}

	table := &ColorTable{locales: make(map[string][]Rule, len(raw))}

	// Keep document order so lookups fall back deterministically.
	if len(doc.Content) > 0 {
		mapping := doc.Content[0]
		for i := 0; i+1 < len(mapping.Content); i += 2 {
			table.order = append(table.order, mapping.Content[i].Value)
		}
	}

	for lang, rules := range raw {
		for i := range rules {
			if rules[i].Key == "" || rules[i].Value == "" {
				return nil, fmt.Errorf("rule %q in %s: key and value are required", rules[i].Pattern, lang)
			}
			re, err := boundaryPattern(rules[i].Pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %q in %s: %w", rules[i].Pattern, lang, err)
			}
			rules[i].re = re
		}
		table.locales[lang] = rules
	}
	return table, nil
}

// boundaryPattern wraps a fragment in Unicode letter boundaries; RE2's \b
// only knows ASCII and would split "rød" after the "r".
func boundaryPattern(fragment string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)(?:^|[^\p{L}\p{N}])(?:` + fragment + `)(?:$|[^\p{L}\p{N}])`)
}

// Rules returns every rule, the locale's language first.
func (t *ColorTable) Rules(locale string) []Rule {
	lang := language(locale)

	var out []Rule
	out = append(out, t.locales[lang]...)
	for _, l := range t.order {
		if l != lang {
			out = append(out, t.locales[l]...)
		}
	}
	return out
}

// Detect returns the colours mentioned in text, de-duplicated by key, in
// rule order.
func (t *ColorTable) Detect(text, locale string) []Color {
	seen := make(map[string]bool)
	var out []Color
	for _, rule := range t.Rules(locale) {
		if seen[rule.Key] {
			continue
		}
		if rule.re.MatchString(text) {
			seen[rule.Key] = true
			out = append(out, Color{Key: rule.Key, Value: rule.Value})
		}
	}
	return out
}

// KeyOf returns the colour key text names, if any.
func (t *ColorTable) KeyOf(text, locale string) (string, bool) {
	if found := t.Detect(text, locale); len(found) > 0 {
		return found[0].Key, true
	}
	return "", false
}

// Matches reports whether text mentions the colour key in any language.
func (t *ColorTable) Matches(text, key string) bool {
	for _, l := range t.order {
		for _, rule := range t.locales[l] {
			if rule.Key == key && rule.re.MatchString(text) {
				return true
			}
		}
	}
	return false
}

func language(locale string) string {
	lang := strings.ToLower(locale)
	if i := strings.IndexAny(lang, "-_"); i >= 0 {
		lang = lang[:i]
	}
	// Nynorsk and generic Norwegian share the Bokmål table.
	if lang == "no" || lang == "nn" {
		lang = "nb"
	}
	return lang
}
