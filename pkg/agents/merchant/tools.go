// Package merchant exposes the product catalog, shared cart and order
// history of the commerce day as tools.
package merchant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harunnryd/voicedays/pkg/commerce"
	"github.com/harunnryd/voicedays/pkg/configutil"
	"github.com/harunnryd/voicedays/pkg/llm"
)

const Instructions = `You are a helpful voice shopping assistant for an electronics store.
Use list_products to answer questions about what is available, with filters for category, price and sorting.
Products can be referred to by name; the tools resolve them. Confirm quantities before adding to the cart.
Read back the cart total before checkout. Prices are in Indian rupees.`

const maxListed = 8

type Registry struct {
	*llm.Registry
	store *commerce.Store
}

func NewRegistry(store *commerce.Store) *Registry {
	r := &Registry{Registry: llm.NewRegistry(), store: store}

	r.Register(llm.Tool{
		Name:        "list_products",
		Description: "List products with optional filters.",
		Schema: llm.Object(map[string]any{
			"category":    llm.Enum("Product category.", commerce.CategoryElectronics, commerce.CategoryHomeSecurity, commerce.CategorySmartHome),
			"min_price":   llm.Number("Lowest price in rupees."),
			"max_price":   llm.Number("Highest price in rupees."),
			"search_term": llm.String("Words to search in names and descriptions."),
			"sort_by":     llm.Enum("Sort order.", commerce.SortPriceAsc, commerce.SortPriceDesc, commerce.SortRatingDesc, commerce.SortNameAsc, commerce.SortNameDesc),
		}),
	}, r.listProducts)
	r.Register(llm.Tool{
		Name:        "add_to_cart",
		Description: "Add a product to the cart by id or spoken name.",
		Schema: llm.Object(map[string]any{
			"product":  llm.String("Product id or name."),
			"quantity": llm.Integer("How many, default 1."),
		}, "product"),
	}, r.addToCart)
	r.Register(llm.Tool{
		Name:        "view_cart",
		Description: "Read back the cart and its total.",
		Schema:      llm.Object(nil),
	}, r.viewCart)
	r.Register(llm.Tool{
		Name:        "update_cart_quantity",
		Description: "Change the quantity of a product in the cart.",
		Schema: llm.Object(map[string]any{
			"product":  llm.String("Product id or name."),
			"quantity": llm.Integer("New quantity, at least 1."),
		}, "product", "quantity"),
	}, r.updateQuantity)
	r.Register(llm.Tool{
		Name:        "remove_from_cart",
		Description: "Remove a product from the cart.",
		Schema:      llm.Object(map[string]any{"product": llm.String("Product id or name.")}, "product"),
	}, r.removeFromCart)
	r.Register(llm.Tool{
		Name:        "clear_cart",
		Description: "Empty the cart.",
		Schema:      llm.Object(nil),
	}, r.clearCart)
	r.Register(llm.Tool{
		Name:        "checkout",
		Description: "Turn the cart into a confirmed order.",
		Schema:      llm.Object(nil),
	}, r.checkout)
	r.Register(llm.Tool{
		Name:        "create_order",
		Description: "Order a single product directly without using the cart.",
		Schema: llm.Object(map[string]any{
			"product":  llm.String("Product id or name."),
			"quantity": llm.Integer("How many, default 1."),
		}, "product"),
	}, r.createOrder)
	r.Register(llm.Tool{
		Name:        "get_last_order",
		Description: "Describe the most recent order.",
		Schema:      llm.Object(nil),
	}, r.lastOrder)
	return r
}

func rupees(v int64) string { return fmt.Sprintf("₹%d", v) }

func (r *Registry) resolve(ref string) (commerce.Product, error) {
	catalog := r.store.Catalog()
	if p, ok := catalog.Get(ref); ok {
		return p, nil
	}
	if p, ok := catalog.FindByName(ref); ok {
		return p, nil
	}
	return commerce.Product{}, llm.UserError(commerce.ErrProductNotFound, "I couldn't find a product called %q.", ref)
}

func (r *Registry) listProducts(_ context.Context, raw map[string]any) (string, error) {
	var f commerce.Filter
	if err := configutil.DecodeArgs(raw, &f); err != nil {
		return "", err
	}
	products := r.store.Catalog().Products(f)
	if len(products) == 0 {
		return "No products match that.", nil
	}
	shown := products
	if len(shown) > maxListed {
		shown = shown[:maxListed]
	}
	parts := make([]string, 0, len(shown))
	for _, p := range shown {
		parts = append(parts, fmt.Sprintf("%s (%s) %s, rated %.1f", p.Name, p.ID, rupees(p.Price), p.Rating))
	}
	out := fmt.Sprintf("Found %d products: %s.", len(products), strings.Join(parts, "; "))
	if len(products) > len(shown) {
		out += fmt.Sprintf(" And %d more.", len(products)-len(shown))
	}
	return out, nil
}

type productArgs struct {
	Product  string `mapstructure:"product"`
	Quantity *int   `mapstructure:"quantity"`
}

func (r *Registry) addToCart(ctx context.Context, raw map[string]any) (string, error) {
	var args productArgs
	if err := configutil.DecodeArgs(raw, &args); err != nil {
		return "", err
	}
	p, err := r.resolve(args.Product)
	if err != nil {
		return "", err
	}
	items, msg, err := r.store.AddToCart(ctx, p.ID, configutil.IntValue(args.Quantity, 1))
	if err != nil {
		return "", storeError(err)
	}
	return fmt.Sprintf("%s. Cart total is %s.", msg, rupees(commerce.CartTotal(items))), nil
}

func (r *Registry) viewCart(ctx context.Context, _ map[string]any) (string, error) {
	items, err := r.store.Cart(ctx)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "Your cart is empty.", nil
	}
	return describeItems(items), nil
}

func describeItems(items []commerce.CartItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%d x %s (%s)", item.Quantity, item.ProductName, rupees(item.LineTotal())))
	}
	return fmt.Sprintf("%s. Total %s.", strings.Join(parts, "; "), rupees(commerce.CartTotal(items)))
}

func (r *Registry) updateQuantity(ctx context.Context, raw map[string]any) (string, error) {
	var args productArgs
	if err := configutil.DecodeArgs(raw, &args); err != nil {
		return "", err
	}
	p, err := r.resolve(args.Product)
	if err != nil {
		return "", err
	}
	items, err := r.store.UpdateCartQuantity(ctx, p.ID, configutil.IntValue(args.Quantity, 0))
	if err != nil {
		return "", storeError(err)
	}
	return "Updated. " + describeItems(items), nil
}

func (r *Registry) removeFromCart(ctx context.Context, raw map[string]any) (string, error) {
	var args productArgs
	if err := configutil.DecodeArgs(raw, &args); err != nil {
		return "", err
	}
	p, err := r.resolve(args.Product)
	if err != nil {
		return "", err
	}
	items, err := r.store.RemoveFromCart(ctx, p.ID)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return fmt.Sprintf("Removed %s. Your cart is now empty.", p.Name), nil
	}
	return fmt.Sprintf("Removed %s. %s", p.Name, describeItems(items)), nil
}

func (r *Registry) clearCart(ctx context.Context, _ map[string]any) (string, error) {
	if err := r.store.ClearCart(ctx); err != nil {
		return "", err
	}
	return "Your cart is now empty.", nil
}

func (r *Registry) checkout(ctx context.Context, _ map[string]any) (string, error) {
	order, err := r.store.Checkout(ctx)
	if err != nil {
		return "", storeError(err)
	}
	return fmt.Sprintf("Order %s confirmed for %s.", order.ID, rupees(order.Total)), nil
}

func (r *Registry) createOrder(ctx context.Context, raw map[string]any) (string, error) {
	var args productArgs
	if err := configutil.DecodeArgs(raw, &args); err != nil {
		return "", err
	}
	p, err := r.resolve(args.Product)
	if err != nil {
		return "", err
	}
	order, err := r.store.CreateOrder(ctx, p.ID, configutil.IntValue(args.Quantity, 1))
	if err != nil {
		return "", storeError(err)
	}
	return fmt.Sprintf("Order %s confirmed: %s for %s.", order.ID, p.Name, rupees(order.Total)), nil
}

func (r *Registry) lastOrder(ctx context.Context, _ map[string]any) (string, error) {
	order, ok, err := r.store.LastOrder(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "You haven't placed any orders yet.", nil
	}
	return fmt.Sprintf("Your last order %s is %s: %s",
		order.ID, strings.ToLower(order.Status), describeItems(order.Items)), nil
}

func storeError(err error) error {
	switch {
	case errors.Is(err, commerce.ErrInvalidQuantity):
		return llm.UserError(err, "The quantity needs to be at least one.")
	case errors.Is(err, commerce.ErrNotInCart):
		return llm.UserError(err, "That product isn't in your cart.")
	case errors.Is(err, commerce.ErrCartEmpty):
		return llm.UserError(err, "Your cart is empty.")
	}
	return err
}

var _ llm.ToolRegistry = (*Registry)(nil)
