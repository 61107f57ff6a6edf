package commerce

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/harunnryd/voicedays/pkg/errorsx"
	"github.com/harunnryd/voicedays/pkg/jsonstore"
)

var (
	ErrProductNotFound = errorsx.New(errorsx.ReasonItemNotFound, "product not found")
	ErrNotInCart       = errorsx.New(errorsx.ReasonLineNotFound, "product not found in cart")
	ErrInvalidQuantity = errorsx.New(errorsx.ReasonInvalidQuantity, "quantity must be at least 1")
	ErrCartEmpty       = errorsx.New(errorsx.ReasonCartEmpty, "cart is empty")
)

const OrderStatusConfirmed = "CONFIRMED"

type CartItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
	UnitAmount  int64  `json:"unit_amount"`
	Currency    string `json:"currency"`
}

func (i CartItem) LineTotal() int64 { return i.UnitAmount * int64(i.Quantity) }

type Order struct {
	ID        string     `json:"id"`
	Items     []CartItem `json:"items"`
	Total     int64      `json:"total"`
	Currency  string     `json:"currency"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
}

// Store keeps the shared merchant cart and order history.
type Store struct {
	catalog *Catalog
	cart    jsonstore.Store[CartItem]
	orders  jsonstore.Store[Order]
	now     func() time.Time
	newID   func() string
	logger  *slog.Logger
}

type StoreOption func(*Store)

func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the uuid order ids.
func WithIDGenerator(fn func() string) StoreOption {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewStore(catalog *Catalog, cart jsonstore.Store[CartItem], orders jsonstore.Store[Order], opts ...StoreOption) *Store {
	s := &Store{
		catalog: catalog,
		cart:    cart,
		orders:  orders,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.NewString() },
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) Catalog() *Catalog { return s.catalog }

func (s *Store) product(id string) (Product, error) {
	p, ok := s.catalog.Get(id)
	if !ok {
		return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	return p, nil
}

// AddToCart adds qty of a product, merging into an existing line.
func (s *Store) AddToCart(ctx context.Context, productID string, qty int) ([]CartItem, string, error) {
	if qty < 1 {
		return nil, "", ErrInvalidQuantity
	}
	p, err := s.product(productID)
	if err != nil {
		return nil, "", err
	}
	var out []CartItem
	var msg string
	err = s.cart.Update(ctx, func(items []CartItem) ([]CartItem, error) {
		for i := range items {
			if items[i].ProductID == p.ID {
				items[i].Quantity += qty
				msg = fmt.Sprintf("Updated quantity of %s in cart", p.Name)
				out = items
				return items, nil
			}
		}
		items = append(items, CartItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    qty,
			UnitAmount:  p.Price,
			Currency:    p.Currency,
		})
		msg = fmt.Sprintf("Added %dx %s to cart", qty, p.Name)
		out = items
		return items, nil
	})
	if err != nil {
		return nil, "", err
	}
	return out, msg, nil
}

func (s *Store) Cart(ctx context.Context) ([]CartItem, error) {
	return s.cart.Load(ctx)
}

// CartTotal sums the cart lines.
func CartTotal(items []CartItem) int64 {
	var total int64
	for _, item := range items {
		total += item.LineTotal()
	}
	return total
}

func (s *Store) UpdateCartQuantity(ctx context.Context, productID string, qty int) ([]CartItem, error) {
	if qty < 1 {
		return nil, ErrInvalidQuantity
	}
	var out []CartItem
	err := s.cart.Update(ctx, func(items []CartItem) ([]CartItem, error) {
		for i := range items {
			if items[i].ProductID == productID {
				items[i].Quantity = qty
				out = items
				return items, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrNotInCart, productID)
	})
	return out, err
}

// RemoveFromCart drops every line for productID. Removing an absent product
// is not an error.
func (s *Store) RemoveFromCart(ctx context.Context, productID string) ([]CartItem, error) {
	var out []CartItem
	err := s.cart.Update(ctx, func(items []CartItem) ([]CartItem, error) {
		kept := items[:0]
		for _, item := range items {
			if item.ProductID != productID {
				kept = append(kept, item)
			}
		}
		out = kept
		return kept, nil
	})
	return out, err
}

func (s *Store) ClearCart(ctx context.Context) error {
	return s.cart.Update(ctx, func([]CartItem) ([]CartItem, error) {
		return []CartItem{}, nil
	})
}

// Checkout turns the cart into a confirmed order and empties the cart. The
// cart is emptied before the order is stored and refilled if that fails, so a
// failed checkout never leaves an order behind.
func (s *Store) Checkout(ctx context.Context) (Order, error) {
	var order Order
	err := s.cart.Update(ctx, func(items []CartItem) ([]CartItem, error) {
		if len(items) == 0 {
			return nil, ErrCartEmpty
		}
		order = s.newOrder(items)
		return []CartItem{}, nil
	})
	if err != nil {
		return Order{}, err
	}
	if err := s.appendOrder(ctx, order); err != nil {
		// put the lines back so a retry starts from the same cart
		restore := func(current []CartItem) ([]CartItem, error) {
			return append(append([]CartItem(nil), order.Items...), current...), nil
		}
		if rerr := s.cart.Update(ctx, restore); rerr != nil {
			s.logger.ErrorContext(ctx, "commerce_cart_restore_failed", "order_id", order.ID, "error", rerr)
		}
		return Order{}, err
	}
	s.logger.InfoContext(ctx, "commerce_checkout", "order_id", order.ID, "items", len(order.Items), "total", order.Total)
	return order, nil
}

// CreateOrder places a single-product order without touching the cart.
func (s *Store) CreateOrder(ctx context.Context, productID string, qty int) (Order, error) {
	if qty < 1 {
		return Order{}, ErrInvalidQuantity
	}
	p, err := s.product(productID)
	if err != nil {
		return Order{}, err
	}
	order := s.newOrder([]CartItem{{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    qty,
		UnitAmount:  p.Price,
		Currency:    p.Currency,
	}})
	if err := s.appendOrder(ctx, order); err != nil {
		return Order{}, err
	}
	s.logger.InfoContext(ctx, "commerce_order_created", "order_id", order.ID, "product_id", p.ID, "total", order.Total)
	return order, nil
}

func (s *Store) newOrder(items []CartItem) Order {
	currency := "INR"
	if len(items) > 0 && items[0].Currency != "" {
		currency = items[0].Currency
	}
	return Order{
		ID:        s.newID(),
		Items:     append([]CartItem(nil), items...),
		Total:     CartTotal(items),
		Currency:  currency,
		Status:    OrderStatusConfirmed,
		CreatedAt: s.now().UTC(),
	}
}

func (s *Store) appendOrder(ctx context.Context, order Order) error {
	return s.orders.Update(ctx, func(orders []Order) ([]Order, error) {
		return append(orders, order), nil
	})
}

// LastOrder returns the most recently appended order.
func (s *Store) LastOrder(ctx context.Context) (Order, bool, error) {
	orders, err := s.orders.Load(ctx)
	if err != nil || len(orders) == 0 {
		return Order{}, false, err
	}
	return orders[len(orders)-1], true, nil
}

func (s *Store) Orders(ctx context.Context) ([]Order, error) {
	return s.orders.Load(ctx)
}
