// Package instamart exposes the grocery day to the voice platform as tools.
package instamart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/harunnryd/voicedays/pkg/configutil"
	"github.com/harunnryd/voicedays/pkg/grocery"
	"github.com/harunnryd/voicedays/pkg/llm"
	"github.com/shopspring/decimal"
)

const Instructions = `You are Nova, a friendly voice shopping assistant for an Instamart-style quick-commerce store.
Help the customer build a grocery cart by voice. Always use the tools: find_item before quoting prices,
add_to_cart / update_quantity / remove_from_cart to change the cart, view_cart to read it back.
If a tool tells you it substituted or approximately matched an item, say so plainly.
When a request mentions a meal or occasion (party, breakfast, pasta night, a peanut butter sandwich), use add_recipe.
Mention combo suggestions when a tool returns one, but do not add them without a yes.
Before placing an order, read back the cart and total and ask for the customer's name.
After checkout, use track_order to answer "where is my order" questions. Keep replies short and conversational.`

// Deps are shared across sessions; the cart is per registry.
type Deps struct {
	Catalog *grocery.Catalog
	Orders  *grocery.OrderStore
	Recipes []grocery.Recipe
	Logger  *slog.Logger
}

type Registry struct {
	*llm.Registry
	deps Deps
	cart *grocery.Cart
}

func NewRegistry(deps Deps) *Registry {
	if deps.Catalog == nil {
		deps.Catalog = grocery.DefaultCatalog()
	}
	if deps.Recipes == nil {
		deps.Recipes = grocery.DefaultRecipes()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	r := &Registry{
		Registry: llm.NewRegistry(),
		deps:     deps,
		cart:     grocery.NewCart(deps.Catalog),
	}

	r.Register(llm.Tool{
		Name:        "find_item",
		Description: "Look up a grocery item by name, brand or description and return its price.",
		Schema:      llm.Object(map[string]any{"query": llm.String("What the customer asked for.")}, "query"),
	}, r.findItem)
	r.Register(llm.Tool{
		Name:        "browse_catalog",
		Description: "List items, optionally in one category such as Dairy, Munchies or Beverages.",
		Schema:      llm.Object(map[string]any{"category": llm.String("Category name; empty lists categories.")}),
	}, r.browseCatalog)
	r.Register(llm.Tool{
		Name:        "add_to_cart",
		Description: "Add an item to the cart. Quantities merge with what is already there.",
		Schema: llm.Object(map[string]any{
			"item":     llm.String("Item name or id."),
			"quantity": llm.Integer("How many, at least 1."),
			"notes":    llm.String("Optional note such as 'ripe ones please'."),
		}, "item"),
	}, r.addToCart)
	r.Register(llm.Tool{
		Name:        "remove_from_cart",
		Description: "Remove an item from the cart.",
		Schema:      llm.Object(map[string]any{"item": llm.String("Item name or id.")}, "item"),
	}, r.removeFromCart)
	r.Register(llm.Tool{
		Name:        "update_quantity",
		Description: "Set the quantity of an item already in the cart.",
		Schema: llm.Object(map[string]any{
			"item":     llm.String("Item name or id."),
			"quantity": llm.Integer("New quantity, at least 1."),
		}, "item", "quantity"),
	}, r.updateQuantity)
	r.Register(llm.Tool{
		Name:        "view_cart",
		Description: "Read back the cart with subtotal and free delivery status.",
		Schema:      llm.Object(nil),
	}, r.viewCart)
	r.Register(llm.Tool{
		Name:        "clear_cart",
		Description: "Empty the cart.",
		Schema:      llm.Object(nil),
	}, r.clearCart)
	r.Register(llm.Tool{
		Name:        "add_recipe",
		Description: "Add the ingredients for a meal or occasion, like a party or pasta night.",
		Schema: llm.Object(map[string]any{
			"request":  llm.String("The customer's words about the meal or occasion."),
			"servings": llm.Integer("Multiplier for quantities, default 1."),
		}, "request"),
	}, r.addRecipe)
	r.Register(llm.Tool{
		Name:        "place_order",
		Description: "Check out the cart and place the order.",
		Schema: llm.Object(map[string]any{
			"customer_name": llm.String("Name for the order."),
			"delivery_note": llm.String("Optional delivery instruction."),
		}, "customer_name"),
	}, r.placeOrder)
	r.Register(llm.Tool{
		Name:        "track_order",
		Description: "Get the live status of an order, the latest one when no id is given.",
		Schema:      llm.Object(map[string]any{"order_id": llm.String("Order id like INST-20250101-120000.")}),
	}, r.trackOrder)
	r.Register(llm.Tool{
		Name:        "list_orders",
		Description: "List recent orders, newest first.",
		Schema:      llm.Object(map[string]any{"limit": llm.Integer("How many orders, default 5.")}),
	}, r.listOrders)
	return r
}

// Cart exposes the session cart for the bridge's cart view.
func (r *Registry) Cart() *grocery.Cart { return r.cart }

func money(v float64) string {
	return "₹" + decimal.NewFromFloat(v).Round(2).String()
}

func (r *Registry) find(query string) (grocery.Match, error) {
	m, ok := r.deps.Catalog.Find(query)
	if !ok {
		return grocery.Match{}, llm.UserError(grocery.ErrItemNotFound, "I couldn't find %q in the store. Could you describe it differently?", query)
	}
	return m, nil
}

type queryArgs struct {
	Query string `mapstructure:"query"`
}

func (r *Registry) findItem(_ context.Context, raw map[string]any) (string, error) {
	var args queryArgs
	if err := configutil.DecodeArgs(raw, &args); err != nil {
		return "", err
	}
	m, err := r.find(args.Query)
	if err != nil {
		return "", err
	}
	out := fmt.Sprintf("%s (%s) costs %s.", m.Item.Name, m.Item.ID, money(m.Item.Price))
	if m.Item.Unit != "" {
		out = fmt.Sprintf("%s (%s, %s) costs %s.", m.Item.Name, m.Item.ID, m.Item.Unit, money(m.Item.Price))
	}
	if m.Message != "" {
		out = m.Message + " " + out
	}
	return out, nil
}

type browseArgs struct {
	Category string `mapstructure:"category"`
}

func (r *Registry) browseCatalog(_ context.Context, raw map[string]any) (string, error) {
	var args browseArgs
	if err := configutil.DecodeArgs(raw, &args); err != nil {
		return "", err
	}
	items := r.deps.Catalog.Items()
	if strings.TrimSpace(args.Category) == "" {
		seen := map[string]bool{}
		var cats []string
		for _, item := range items {
			if !seen[item.Category] {
				seen[item.Category] = true
				cats = append(cats, item.Category)
			}
		}
		return "Categories: " + strings.Join(cats, ", ") + ".", nil
	}
	var names []string
	for _, item := range items {
		if strings.EqualFold(item.Category, strings.TrimSpace(args.Category)) {
			names = append(names, fmt.Sprintf("%s %s", item.Name, money(item.Price)))
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("There is nothing in %s right now.", args.Category), nil
	}
	return fmt.Sprintf("In %s: %s.", args.Category, strings.Join(names, "; ")), nil
}

type addArgs struct {
	Item     string `mapstructure:"item"`
	Quantity *int   `mapstructure:"quantity"`
	Notes    string `mapstructure:"notes"`
}

func (r *Registry) addToCart(ctx context.Context, raw map[string]any) (string, error) {
	var args addArgs
	if err := configutil.DecodeArgs(raw, &args); err != nil {
		return "", err
	}
	m, err := r.find(args.Item)
	if err != nil {
		return "", err
	}
	qty := configutil.IntValue(args.Quantity, 1)
	line, err := r.cart.Add(m.Item, qty, args.Notes)
	if err != nil {
		if errors.Is(err, grocery.ErrInvalidQuantity) {
			return "", llm.UserError(err, "The quantity needs to be at least one.")
		}
		return "", err
	}
	r.deps.Logger.DebugContext(ctx, "cart_item_added", "item_id", m.Item.ID, "quantity", qty, "tier", m.Tier)

	var b strings.Builder
	if m.Message != "" {
		b.WriteString(m.Message + " ")
	}
	fmt.Fprintf(&b, "Added %d x %s. You now have %d in the cart.", qty, m.Item.Name, line.Quantity)
	b.WriteString(" " + r.deliveryLine())
	if msg, combo, ok := r.deps.Catalog.ComboFor(m.Item.ID); ok {
		var names []string
		for _, item := range combo {
			names = append(names, fmt.Sprintf("%s (%s)", item.Name, money(item.Price)))
		}
		fmt.Fprintf(&b, " Suggestion: %s Options: %s.", msg, strings.Join(names, ", "))
	}
	return b.String(), nil
}

func (r *Registry) deliveryLine() string {
	snap := grocery.Snapshot(r.cart, r.policy())
	if snap.FreeDeliveryEligible {
		return fmt.Sprintf("Subtotal %s, and delivery is free.", money(snap.Subtotal))
	}
	return fmt.Sprintf("Subtotal %s. Add %s more for free delivery.", money(snap.Subtotal), money(snap.AmountToFreeDelivery))
}

func (r *Registry) policy() grocery.DeliveryPolicy {
	if r.deps.Orders != nil {
		return r.deps.Orders.Policy()
	}
	return grocery.DefaultDeliveryPolicy()
}

type itemArgs struct {
	Item     string `mapstructure:"item"`
	Quantity int    `mapstructure:"quantity"`
}

func (r *Registry) removeFromCart(_ context.Context, raw map[string]any) (string, error) {
	var args itemArgs
	if err := configutil.DecodeArgs(raw, &args); err != nil {
		return "", err
	}
	line, err := r.cart.Remove(args.Item)
	if err != nil {
		return "", cartError(err, args.Item)
	}
	return fmt.Sprintf("Removed %s. %s", line.Item.Name, r.deliveryLine()), nil
}

func (r *Registry) updateQuantity(_ context.Context, raw map[string]any) (string, error) {
	var args itemArgs
	if err := configutil.DecodeArgs(raw, &args); err != nil {
		return "", err
	}
	line, err := r.cart.UpdateQuantity(args.Item, args.Quantity)
	if err != nil {
		return "", cartError(err, args.Item)
	}
	return fmt.Sprintf("%s is now %d. %s", line.Item.Name, line.Quantity, r.deliveryLine()), nil
}

func cartError(err error, item string) error {
	switch {
	case errors.Is(err, grocery.ErrInvalidQuantity):
		return llm.UserError(err, "The quantity needs to be at least one. To drop an item, ask me to remove it.")
	case errors.Is(err, grocery.ErrItemNotFound):
		return llm.UserError(err, "I couldn't find %q in the store.", item)
	case errors.Is(err, grocery.ErrLineNotFound):
		return llm.UserError(err, "%s isn't in your cart.", item)
	}
	return err
}

func (r *Registry) viewCart(context.Context, map[string]any) (string, error) {
	if r.cart.IsEmpty() {
		return "Your cart is empty.", nil
	}
	snap := grocery.Snapshot(r.cart, r.policy())
	parts := make([]string, 0, len(snap.Items))
	for _, line := range snap.Items {
		part := fmt.Sprintf("%d x %s (%s)", line.Quantity, line.Name, money(line.LineTotal))
		if line.Notes != nil {
			part += ", note: " + *line.Notes
		}
		parts = append(parts, part)
	}
	return fmt.Sprintf("%d items: %s. %s", snap.ItemCount, strings.Join(parts, "; "), r.deliveryLine()), nil
}

func (r *Registry) clearCart(context.Context, map[string]any) (string, error) {
	r.cart.Clear()
	return "Your cart is now empty.", nil
}

type recipeArgs struct {
	Request  string `mapstructure:"request"`
	Servings int    `mapstructure:"servings"`
}

func (r *Registry) addRecipe(_ context.Context, raw map[string]any) (string, error) {
	var args recipeArgs
	if err := configutil.DecodeArgs(raw, &args); err != nil {
		return "", err
	}
	recipe, ok := grocery.ResolveRecipe(r.deps.Recipes, args.Request)
	if !ok {
		return "", llm.UserError(grocery.ErrItemNotFound, "I don't have a ready bundle for that. Tell me the items and I'll add them one by one.")
	}
	added, _, err := grocery.AddRecipe(r.cart, r.deps.Catalog, recipe, args.Servings)
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(added))
	for _, line := range added {
		names = append(names, line.Item.Name)
	}
	return fmt.Sprintf("Added the %s bundle: %s. %s", recipe.Name, strings.Join(names, ", "), r.deliveryLine()), nil
}

type orderArgs struct {
	CustomerName string `mapstructure:"customer_name"`
	DeliveryNote string `mapstructure:"delivery_note"`
	OrderID      string `mapstructure:"order_id"`
	Limit        int    `mapstructure:"limit"`
}

func (r *Registry) placeOrder(ctx context.Context, raw map[string]any) (string, error) {
	var args orderArgs
	if err := configutil.DecodeArgs(raw, &args); err != nil {
		return "", err
	}
	if r.deps.Orders == nil {
		return "", errors.New("order store is not configured")
	}
	order, err := r.deps.Orders.PlaceCart(ctx, r.cart, args.CustomerName, args.DeliveryNote)
	if err != nil {
		if errors.Is(err, grocery.ErrCartEmpty) {
			return "", llm.UserError(err, "Your cart is empty, so there's nothing to order yet.")
		}
		return "", llm.UserError(err, "I couldn't place the order just now. Please try again.")
	}
	r.cart.Clear()
	fee := "free delivery"
	if order.DeliveryFee > 0 {
		fee = "delivery fee " + money(order.DeliveryFee)
	}
	return fmt.Sprintf("Order %s placed. Subtotal %s, %s, total %s. %s",
		order.ID, money(order.Subtotal), fee, money(order.Total), order.StatusMessage()), nil
}

func (r *Registry) trackOrder(ctx context.Context, raw map[string]any) (string, error) {
	var args orderArgs
	if err := configutil.DecodeArgs(raw, &args); err != nil {
		return "", err
	}
	if r.deps.Orders == nil {
		return "", errors.New("order store is not configured")
	}
	if _, err := r.deps.Orders.Refresh(ctx); err != nil {
		return "", llm.UserError(err, "I couldn't check the order status just now.")
	}
	var (
		order grocery.Order
		ok    bool
		err   error
	)
	if strings.TrimSpace(args.OrderID) != "" {
		order, ok, err = r.deps.Orders.Get(ctx, args.OrderID)
	} else {
		order, ok, err = r.deps.Orders.Latest(ctx)
	}
	if err != nil {
		return "", err
	}
	if !ok {
		return "I couldn't find that order.", nil
	}
	return fmt.Sprintf("Order %s: %s", order.ID, order.StatusMessage()), nil
}

func (r *Registry) listOrders(ctx context.Context, raw map[string]any) (string, error) {
	var args orderArgs
	if err := configutil.DecodeArgs(raw, &args); err != nil {
		return "", err
	}
	if r.deps.Orders == nil {
		return "", errors.New("order store is not configured")
	}
	if _, err := r.deps.Orders.Refresh(ctx); err != nil {
		return "", err
	}
	orders, err := r.deps.Orders.ListRecent(ctx, args.Limit)
	if err != nil {
		return "", err
	}
	if len(orders) == 0 {
		return "You haven't placed any orders yet.", nil
	}
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		parts = append(parts, fmt.Sprintf("%s, %s, %s", o.ID, money(o.Total), strings.ReplaceAll(string(o.Status), "_", " ")))
	}
	return "Recent orders: " + strings.Join(parts, "; ") + ".", nil
}

var _ llm.ToolRegistry = (*Registry)(nil)
