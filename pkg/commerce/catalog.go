package commerce

import (
	"log/slog"
	"sort"
	"strings"
)

// Sort orders accepted by Filter.SortBy. Each has a spoken alias.
const (
	SortPriceAsc   = "price_asc"
	SortPriceDesc  = "price_desc"
	SortRatingDesc = "rating_desc"
	SortNameAsc    = "name_asc"
	SortNameDesc   = "name_desc"
)

var sortAliases = map[string]string{
	SortPriceAsc:         SortPriceAsc,
	"price_low_to_high":  SortPriceAsc,
	SortPriceDesc:        SortPriceDesc,
	"price_high_to_low":  SortPriceDesc,
	SortRatingDesc:       SortRatingDesc,
	"rating_high_to_low": SortRatingDesc,
	SortNameAsc:          SortNameAsc,
	"name_a_to_z":        SortNameAsc,
	SortNameDesc:         SortNameDesc,
	"name_z_to_a":        SortNameDesc,
}

// keywordFamilies are brand and device words matched even when the query
// mentions them inside a longer phrase.
var keywordFamilies = [][]string{
	{"camera", "cam"},
	{"echo"},
	{"dot"},
	{"kindle"},
	{"fire"},
	{"doorbell"},
	{"plug"},
	{"blink"},
	{"ring"},
	{"wyze"},
}

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {},
}

type Filter struct {
	Category string   `mapstructure:"category"`
	MinPrice *float64 `mapstructure:"min_price"`
	MaxPrice *float64 `mapstructure:"max_price"`
	Search   string   `mapstructure:"search_term"`
	SortBy   string   `mapstructure:"sort_by"`
}

type Catalog struct {
	products []Product
	byID     map[string]Product
}

// NewCatalog keeps the valid products and logs the rest.
func NewCatalog(products []Product, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{byID: make(map[string]Product, len(products))}
	for _, p := range products {
		if err := p.Validate(); err != nil {
			logger.Warn("product_skipped", "product_id", p.ID, "error", err)
			continue
		}
		c.products = append(c.products, p)
		c.byID[p.ID] = p
	}
	return c
}

func DefaultCatalog() *Catalog {
	return NewCatalog(DefaultProducts(), nil)
}

func (c *Catalog) Get(id string) (Product, bool) {
	p, ok := c.byID[strings.TrimSpace(id)]
	return p, ok
}

// Categories lists the distinct categories in catalog order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range c.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// Products applies f and returns a fresh slice. An unknown sort order keeps
// catalog order.
func (c *Catalog) Products(f Filter) []Product {
	category := strings.ToLower(strings.TrimSpace(f.Category))
	term := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if category != "" && strings.ToLower(p.Category) != category {
			continue
		}
		if f.MaxPrice != nil && float64(p.Price) > *f.MaxPrice {
			continue
		}
		if f.MinPrice != nil && float64(p.Price) < *f.MinPrice {
			continue
		}
		if term != "" && !matchesSearch(p, term) {
			continue
		}
		out = append(out, p)
	}

	switch sortAliases[strings.ToLower(strings.TrimSpace(f.SortBy))] {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case SortRatingDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	case SortNameAsc:
		sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	case SortNameDesc:
		sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) > strings.ToLower(out[j].Name) })
	}
	return out
}

func matchesSearch(p Product, term string) bool {
	name := strings.ToLower(p.Name)
	desc := strings.ToLower(p.Description)
	category := strings.ToLower(p.Category)
	inText := func(s string) bool { return strings.Contains(name, s) || strings.Contains(desc, s) }

	if inText(term) {
		return true
	}
	for _, word := range strings.Fields(term) {
		if len(word) <= 2 {
			continue
		}
		if inText(word) || strings.Contains(category, word) {
			return true
		}
		if singular, ok := singularOf(word); ok && inText(singular) {
			return true
		}
	}
	if singular, ok := singularOf(term); ok && inText(singular) {
		return true
	}
	for _, family := range keywordFamilies {
		if !containsAny(term, family) {
			continue
		}
		if containsAny(name, family) || containsAny(desc, family) {
			return true
		}
	}
	return false
}

func singularOf(word string) (string, bool) {
	if len(word) > 3 && strings.HasSuffix(word, "s") {
		return word[:len(word)-1], true
	}
	return "", false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// FindByName resolves a spoken product name. It tries an exact name, then a
// name containing the query, then a product whose key words all appear in
// the query, then the product sharing the most (at least two) key words.
func (c *Catalog) FindByName(query string) (Product, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Product{}, false
	}
	for _, p := range c.products {
		if strings.ToLower(p.Name) == q {
			return p, true
		}
	}
	for _, p := range c.products {
		if strings.Contains(strings.ToLower(p.Name), q) {
			return p, true
		}
	}
	for _, p := range c.products {
		words := keyWords(p.Name)
		if len(words) == 0 {
			continue
		}
		all := true
		for _, w := range words {
			if !strings.Contains(q, w) {
				all = false
				break
			}
		}
		if all {
			return p, true
		}
	}

	queryWords := make(map[string]struct{})
	for _, w := range keyWords(q) {
		queryWords[w] = struct{}{}
	}
	var best Product
	bestScore := 0
	for _, p := range c.products {
		score := 0
		for _, w := range keyWords(p.Name) {
			if _, ok := queryWords[w]; ok {
				score++
			}
		}
		if score >= 2 && score > bestScore {
			best, bestScore = p, score
		}
	}
	return best, bestScore > 0
}

// keyWords lowercases name, drops parenthesised parts and stop words, and
// keeps words longer than two characters.
func keyWords(name string) []string {
	var out []string
	depth := 0
	var b strings.Builder
	flush := func() {
		w := strings.Trim(b.String(), ".,!?\"'")
		b.Reset()
		if len(w) <= 2 {
			return
		}
		if _, stop := stopWords[w]; stop {
			return
		}
		out = append(out, w)
	}
	for _, r := range strings.ToLower(name) {
		switch {
		case r == '(':
			flush()
			depth++
		case r == ')':
			if depth > 0 {
				depth--
			}
			b.Reset()
		case depth > 0:
		case r == ' ' || r == '\t':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return out
}
