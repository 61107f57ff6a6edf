package grocery

import (
	"errors"
	"strings"

	"github.com/harunnryd/voicedays/pkg/errorsx"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidQuantity = errorsx.New(errorsx.ReasonInvalidQuantity, "quantity must be positive")
	ErrItemNotFound    = errorsx.New(errorsx.ReasonItemNotFound, "no catalog item matches")
	ErrLineNotFound    = errorsx.New(errorsx.ReasonLineNotFound, "item is not in the cart")
	ErrCartEmpty       = errorsx.New(errorsx.ReasonCartEmpty, "cart is empty")
)

type Line struct {
	Item     Item
	Quantity int
	Note     string
}

// LineView is the serialisable form of a cart line, also stored on orders.
type LineView struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Quantity  int      `json:"quantity"`
	UnitPrice float64  `json:"unit_price"`
	LineTotal float64  `json:"line_total"`
	Currency  string   `json:"currency"`
	Notes     *string  `json:"notes"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags"`
}

func (l Line) View() LineView {
	var note *string
	if l.Note != "" {
		n := l.Note
		note = &n
	}
	return LineView{
		ID:        l.Item.ID,
		Name:      l.Item.Name,
		Quantity:  l.Quantity,
		UnitPrice: l.Item.Price,
		LineTotal: lineTotal(l.Item.Price, l.Quantity).Round(2).InexactFloat64(),
		Currency:  l.Item.Currency,
		Notes:     note,
		Category:  l.Item.Category,
		Tags:      append([]string(nil), l.Item.Tags...),
	}
}

func lineTotal(price float64, qty int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(qty)))
}

// Cart is a single session's ledger keyed by item id. It is not safe for
// concurrent use; each voice session owns one.
type Cart struct {
	catalog *Catalog
	order   []string
	lines   map[string]*Line
}

func NewCart(catalog *Catalog) *Cart {
	return &Cart{catalog: catalog, lines: make(map[string]*Line)}
}

// Add merges qty into the line for item. A non-empty note replaces the old one.
func (c *Cart) Add(item Item, qty int, note string) (Line, error) {
	if qty <= 0 {
		return Line{}, ErrInvalidQuantity
	}
	note = strings.TrimSpace(note)
	if line, ok := c.lines[item.ID]; ok {
		line.Quantity += qty
		if note != "" {
			line.Note = note
		}
		return *line, nil
	}
	line := &Line{Item: item, Quantity: qty, Note: note}
	c.lines[item.ID] = line
	c.order = append(c.order, item.ID)
	return *line, nil
}

// Remove drops the line that query resolves to through the catalog lookup.
func (c *Cart) Remove(query string) (Line, error) {
	id, err := c.resolve(query)
	if err != nil {
		return Line{}, err
	}
	line, ok := c.lines[id]
	if !ok {
		return Line{}, ErrLineNotFound
	}
	delete(c.lines, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return *line, nil
}

// UpdateQuantity sets the quantity of the line that query resolves to.
func (c *Cart) UpdateQuantity(query string, qty int) (Line, error) {
	if qty <= 0 {
		return Line{}, ErrInvalidQuantity
	}
	id, err := c.resolve(query)
	if err != nil {
		return Line{}, err
	}
	line, ok := c.lines[id]
	if !ok {
		return Line{}, ErrLineNotFound
	}
	line.Quantity = qty
	return *line, nil
}

func (c *Cart) resolve(query string) (string, error) {
	if c.catalog == nil {
		return "", errors.New("cart has no catalog")
	}
	match, ok := c.catalog.Find(query)
	if !ok {
		return "", ErrItemNotFound
	}
	return match.Item.ID, nil
}

func (c *Cart) Clear() {
	c.lines = make(map[string]*Line)
	c.order = nil
}

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Subtotal sums exact line totals and rounds once, to two decimals.
func (c *Cart) Subtotal() float64 {
	sum := decimal.Zero
	for _, line := range c.lines {
		sum = sum.Add(lineTotal(line.Item.Price, line.Quantity))
	}
	return sum.Round(2).InexactFloat64()
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, line := range c.lines {
		n += line.Quantity
	}
	return n
}

// Lines returns the cart in insertion order.
func (c *Cart) Lines() []LineView {
	out := make([]LineView, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.lines[id].View())
	}
	return out
}

func (c *Cart) Line(itemID string) (Line, bool) {
	line, ok := c.lines[itemID]
	if !ok {
		return Line{}, false
	}
	return *line, true
}
