// Package grocery implements the instamart day: a quick-commerce catalog with
// forgiving lookup, a per-session cart, and a simulated delivery lifecycle.
package grocery

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/harunnryd/voicedays/pkg/errorsx"
	"github.com/pmezard/go-difflib/difflib"
)

//go:embed data/catalog_instamart.json
var defaultCatalogJSON []byte

// FuzzyCutoff is the minimum similarity ratio accepted by the fuzzy tier.
const FuzzyCutoff = 0.6

type Item struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Price    float64  `json:"price"`
	Currency string   `json:"currency"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Unit     string   `json:"unit,omitempty"`
	Brand    string   `json:"brand,omitempty"`
}

// Tier names the lookup rule that resolved a query.
type Tier string

const (
	TierExact        Tier = "exact"
	TierAlias        Tier = "alias"
	TierSubstitution Tier = "substitution"
	TierFuzzy        Tier = "fuzzy"
)

type Match struct {
	Item    Item
	Tier    Tier
	Message string
}

// Substitution replaces an unavailable product mentioned by Phrase.
type Substitution struct {
	Phrase  string
	ItemID  string
	Message string
}

// Combo is an upsell attached to one item.
type Combo struct {
	Message string
	ItemIDs []string
}

func DefaultSubstitutions() []Substitution {
	return []Substitution{
		{
			Phrase:  "red lays",
			ItemID:  "inst_02",
			Message: "We're out of Red Lays, but I can get you the Magic Masala Blue pack. It's a crowd favourite.",
		},
	}
}

func DefaultCombos() map[string]Combo {
	return map[string]Combo{
		"inst_09": {
			Message: "Biryani rice pairs perfectly with chilled curd or a Thums Up. Should I add either?",
			ItemIDs: []string{"inst_10", "inst_12"},
		},
	}
}

type CatalogOption func(*Catalog)

// WithSubstitutions replaces the substitution table. Phrases are matched in order.
func WithSubstitutions(subs []Substitution) CatalogOption {
	return func(c *Catalog) {
		c.substitutions = append([]Substitution(nil), subs...)
	}
}

func WithCombos(combos map[string]Combo) CatalogOption {
	return func(c *Catalog) {
		c.combos = make(map[string]Combo, len(combos))
		for id, combo := range combos {
			c.combos[strings.ToLower(id)] = combo
		}
	}
}

// Catalog is a read-only item index. It is safe for concurrent use once built.
type Catalog struct {
	items         []Item
	byID          map[string]Item
	byName        map[string]Item
	names         []string
	aliases       map[string]string
	substitutions []Substitution
	combos        map[string]Combo
}

func NewCatalog(items []Item, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		items:   append([]Item(nil), items...),
		byID:    make(map[string]Item, len(items)),
		byName:  make(map[string]Item, len(items)),
		aliases: make(map[string]string),
	}
	WithSubstitutions(DefaultSubstitutions())(c)
	WithCombos(DefaultCombos())(c)
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	for _, item := range c.items {
		id := strings.ToLower(item.ID)
		name := strings.ToLower(item.Name)
		c.byID[id] = item
		if _, seen := c.byName[name]; !seen {
			c.names = append(c.names, name)
		}
		c.byName[name] = item
		c.aliases[id] = item.ID
		c.aliases[name] = item.ID
	}
	// tag aliases never shadow an id or name, and the first item wins a shared tag
	for _, item := range c.items {
		for _, tag := range item.Tags {
			key := strings.ToLower(tag + "-" + item.Category)
			if _, exists := c.aliases[key]; !exists {
				c.aliases[key] = item.ID
			}
		}
	}
	return c
}

// LoadCatalog reads a JSON array of items from path.
func LoadCatalog(path string, opts ...CatalogOption) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errorsx.Wrapf(err, errorsx.ReasonCatalogLoad, "read catalog %s", path)
	}
	c, err := parseCatalog(raw, opts...)
	if err != nil {
		return nil, errorsx.Wrapf(err, errorsx.ReasonCatalogLoad, "parse catalog %s", path)
	}
	return c, nil
}

// DefaultCatalog builds the catalog bundled with the binary.
func DefaultCatalog(opts ...CatalogOption) *Catalog {
	c, err := parseCatalog(defaultCatalogJSON, opts...)
	if err != nil {
		panic(fmt.Sprintf("grocery: embedded catalog: %v", err))
	}
	return c
}

func parseCatalog(raw []byte, opts ...CatalogOption) (*Catalog, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var items []Item
	if err := dec.Decode(&items); err != nil {
		return nil, err
	}
	for i, item := range items {
		if strings.TrimSpace(item.ID) == "" || strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("item %d: id and name are required", i)
		}
		if item.Price < 0 {
			return nil, fmt.Errorf("item %s: negative price", item.ID)
		}
	}
	return NewCatalog(items, opts...), nil
}

func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Catalog) Get(id string) (Item, bool) {
	item, ok := c.byID[strings.ToLower(strings.TrimSpace(id))]
	return item, ok
}

// Find resolves free text to an item. Exact id or name wins over the alias
// table, which wins over substitutions, which win over approximate matching.
func (c *Catalog) Find(query string) (Match, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return Match{}, false
	}

	if item, ok := c.byID[q]; ok {
		return Match{Item: item, Tier: TierExact}, true
	}
	if item, ok := c.byName[q]; ok {
		return Match{Item: item, Tier: TierExact}, true
	}

	if id, ok := c.aliases[q]; ok {
		if item, ok := c.Get(id); ok {
			return Match{Item: item, Tier: TierAlias}, true
		}
	}

	for _, sub := range c.substitutions {
		phrase := strings.ToLower(strings.TrimSpace(sub.Phrase))
		if phrase == "" || !strings.Contains(q, phrase) {
			continue
		}
		if item, ok := c.Get(sub.ItemID); ok {
			return Match{Item: item, Tier: TierSubstitution, Message: sub.Message}, true
		}
	}

	if name, ok := closestName(q, c.names, FuzzyCutoff); ok {
		item := c.byName[name]
		return Match{
			Item:    item,
			Tier:    TierFuzzy,
			Message: fmt.Sprintf("I matched that with %s.", item.Name),
		}, true
	}
	return Match{}, false
}

// ComboFor returns the upsell configured for itemID with the items that exist.
func (c *Catalog) ComboFor(itemID string) (string, []Item, bool) {
	combo, ok := c.combos[strings.ToLower(strings.TrimSpace(itemID))]
	if !ok {
		return "", nil, false
	}
	var items []Item
	for _, id := range combo.ItemIDs {
		if item, ok := c.Get(id); ok {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return "", nil, false
	}
	return combo.Message, items, true
}

// closestName returns the candidate with the highest character similarity to
// query, provided it reaches cutoff. Ties go to the lexically greater name.
func closestName(query string, candidates []string, cutoff float64) (string, bool) {
	m := difflib.NewMatcher(nil, strings.Split(query, ""))
	best, bestScore := "", -1.0
	for _, name := range candidates {
		m.SetSeq1(strings.Split(name, ""))
		if m.RealQuickRatio() < cutoff || m.QuickRatio() < cutoff {
			continue
		}
		score := m.Ratio()
		if score < cutoff {
			continue
		}
		if score > bestScore || (score == bestScore && name > best) {
			best, bestScore = name, score
		}
	}
	return best, bestScore >= 0
}
