package grocery

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/harunnryd/voicedays/pkg/errorsx"
	"github.com/harunnryd/voicedays/pkg/events"
	"github.com/harunnryd/voicedays/pkg/jsonstore"
	"github.com/harunnryd/voicedays/pkg/metrics"
)

type Status string

const (
	StatusReceived       Status = "received"
	StatusBeingPacked    Status = "being_packed"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
)

type statusStep struct {
	status  Status
	after   time.Duration
	message string
}

var statusSequence = []statusStep{
	{StatusReceived, 0, "Order received! Your order is being packed."},
	{StatusBeingPacked, 2 * time.Minute, "Your order is being packed."},
	{StatusOutForDelivery, 6 * time.Minute, "Valet is on the way! Reaching in roughly 4 minutes."},
	{StatusDelivered, 15 * time.Minute, "Delivered! Enjoy your Instamart goodies."},
}

// StatusForElapsed maps time since placement onto the delivery sequence.
func StatusForElapsed(elapsed time.Duration) Status {
	for i := len(statusSequence) - 1; i >= 0; i-- {
		if elapsed >= statusSequence[i].after {
			return statusSequence[i].status
		}
	}
	return StatusReceived
}

func StatusMessage(s Status) string {
	if i := statusIndex(s); i >= 0 {
		return statusSequence[i].message
	}
	return ""
}

// Statuses lists the lifecycle in order.
func Statuses() []Status {
	out := make([]Status, len(statusSequence))
	for i, step := range statusSequence {
		out[i] = step.status
	}
	return out
}

func statusIndex(s Status) int {
	for i, step := range statusSequence {
		if step.status == s {
			return i
		}
	}
	return -1
}

type StatusEntry struct {
	Status    Status    `json:"status"`
	Message   string    `json:"message"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Order struct {
	ID                  string        `json:"order_id"`
	PlacedAt            time.Time     `json:"placed_at"`
	Status              Status        `json:"status"`
	StatusHistory       []StatusEntry `json:"status_history"`
	Items               []LineView    `json:"items"`
	Subtotal            float64       `json:"subtotal"`
	DeliveryFee         float64       `json:"delivery_fee"`
	Total               float64       `json:"total"`
	Currency            string        `json:"currency"`
	CustomerName        string        `json:"customer_name"`
	DeliveryNote        *string       `json:"delivery_note"`
	FreeDeliveryApplied bool          `json:"free_delivery_applied"`
}

// StatusMessage is the spoken line for the order's current status.
func (o Order) StatusMessage() string { return StatusMessage(o.Status) }

// OrderRequest is everything needed to place an order.
type OrderRequest struct {
	Items        []LineView
	Subtotal     float64
	CustomerName string
	DeliveryNote string
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

type OrderOption func(*OrderStore)

func WithClock(c Clock) OrderOption {
	return func(s *OrderStore) {
		if c != nil {
			s.now = c
		}
	}
}

func WithDeliveryPolicy(p DeliveryPolicy) OrderOption {
	return func(s *OrderStore) { s.policy = p.withDefaults() }
}

func WithPublisher(p events.Publisher) OrderOption {
	return func(s *OrderStore) {
		if p != nil {
			s.publisher = p
		}
	}
}

func WithObserver(o metrics.Observer) OrderOption {
	return func(s *OrderStore) {
		if o != nil {
			s.observer = o
		}
	}
}

func WithLogger(l *slog.Logger) OrderOption {
	return func(s *OrderStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// OrderStore persists orders and advances their simulated delivery status.
// Status only moves when Refresh is called.
type OrderStore struct {
	store     jsonstore.Store[Order]
	now       Clock
	policy    DeliveryPolicy
	publisher events.Publisher
	observer  metrics.Observer
	logger    *slog.Logger

	// serialises Refresh so two refreshers never publish the same transition
	refreshMu sync.Mutex
}

func NewOrderStore(store jsonstore.Store[Order], opts ...OrderOption) *OrderStore {
	s := &OrderStore{
		store:     store,
		now:       func() time.Time { return time.Now().UTC() },
		policy:    DefaultDeliveryPolicy(),
		publisher: events.NoopPublisher{},
		observer:  metrics.NoopObserver{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *OrderStore) Policy() DeliveryPolicy { return s.policy }

// Create stores a new order in the received state.
func (s *OrderStore) Create(ctx context.Context, req OrderRequest) (Order, error) {
	if len(req.Items) == 0 {
		return Order{}, ErrCartEmpty
	}
	now := s.now().UTC()
	fee := s.policy.FeeFor(req.Subtotal)
	order := Order{
		PlacedAt: now,
		Status:   StatusReceived,
		StatusHistory: []StatusEntry{{
			Status:    StatusReceived,
			Message:   StatusMessage(StatusReceived),
			UpdatedAt: now,
		}},
		Items:               append([]LineView(nil), req.Items...),
		Subtotal:            req.Subtotal,
		DeliveryFee:         fee,
		Total:               s.policy.Total(req.Subtotal),
		Currency:            s.policy.Currency,
		CustomerName:        strings.TrimSpace(req.CustomerName),
		FreeDeliveryApplied: s.policy.FreeDelivery(req.Subtotal),
	}
	if note := strings.TrimSpace(req.DeliveryNote); note != "" {
		order.DeliveryNote = &note
	}

	err := s.store.Update(ctx, func(orders []Order) ([]Order, error) {
		order.ID = nextOrderID(orders, now)
		return append(orders, order), nil
	})
	if err != nil {
		return Order{}, err
	}

	s.observer.RecordEvent(metrics.MetricsEvent{
		Name:  metrics.EventOrderCreated,
		Time:  now,
		Value: order.Total,
		Tags:  map[string]string{"currency": order.Currency},
	})
	s.logger.InfoContext(ctx, "order_created",
		"order_id", order.ID,
		"subtotal", order.Subtotal,
		"delivery_fee", order.DeliveryFee,
		"total", order.Total,
	)
	return order, nil
}

// PlaceCart creates an order from the cart contents. The cart is left intact.
func (s *OrderStore) PlaceCart(ctx context.Context, cart *Cart, customer, note string) (Order, error) {
	if cart == nil || cart.IsEmpty() {
		return Order{}, ErrCartEmpty
	}
	return s.Create(ctx, OrderRequest{
		Items:        cart.Lines(),
		Subtotal:     cart.Subtotal(),
		CustomerName: customer,
		DeliveryNote: note,
	})
}

func nextOrderID(orders []Order, now time.Time) string {
	base := "INST-" + now.Format("20060102-150405")
	taken := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		taken[o.ID] = struct{}{}
	}
	id := base
	for n := 2; ; n++ {
		if _, ok := taken[id]; !ok {
			return id
		}
		id = fmt.Sprintf("%s-%d", base, n)
	}
}

// Refresh recomputes every order's status from elapsed time. When several
// thresholds passed since the last refresh, one history entry is appended per
// step, stamped at the moment the threshold was crossed. Status never moves
// backwards. The returned events are the transitions that were persisted; when
// there are none the store is not rewritten.
func (s *OrderStore) Refresh(ctx context.Context) ([]events.Event, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	now := s.now().UTC()
	var changes []events.Event
	err := s.store.Update(ctx, func(orders []Order) ([]Order, error) {
		changes = changes[:0]
		for i := range orders {
			changes = append(changes, advance(&orders[i], now)...)
		}
		if len(changes) == 0 {
			return nil, jsonstore.ErrNoChange
		}
		return orders, nil
	})
	if err != nil {
		return nil, err
	}

	for _, ev := range changes {
		s.observer.RecordEvent(metrics.MetricsEvent{
			Name:  metrics.EventOrderTransition,
			Time:  now,
			Value: 1,
			Tags:  map[string]string{"status": ev.Status},
		})
		s.logger.InfoContext(ctx, "order_status_advanced", "order_id", ev.OrderID, "status", ev.Status)
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.WarnContext(ctx, "order_event_publish_failed",
				"order_id", ev.OrderID,
				"status", ev.Status,
				"reason", errorsx.Reason(err),
				"error", err,
			)
		}
	}
	return changes, nil
}

func advance(o *Order, now time.Time) []events.Event {
	current := statusIndex(o.Status)
	if current < 0 {
		current = 0
	}
	target := statusIndex(StatusForElapsed(now.Sub(o.PlacedAt)))
	var out []events.Event
	for i := current + 1; i <= target; i++ {
		step := statusSequence[i]
		at := o.PlacedAt.Add(step.after)
		o.Status = step.status
		o.StatusHistory = append(o.StatusHistory, StatusEntry{
			Status:    step.status,
			Message:   step.message,
			UpdatedAt: at,
		})
		out = append(out, events.Event{
			Type:    events.TypeOrderStatus,
			OrderID: o.ID,
			Status:  string(step.status),
			Message: step.message,
			At:      at,
		})
	}
	return out
}

func (s *OrderStore) sorted(ctx context.Context) ([]Order, error) {
	orders, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].PlacedAt.After(orders[j].PlacedAt)
	})
	return orders, nil
}

// Latest returns the most recently placed order.
func (s *OrderStore) Latest(ctx context.Context) (Order, bool, error) {
	orders, err := s.sorted(ctx)
	if err != nil || len(orders) == 0 {
		return Order{}, false, err
	}
	return orders[0], true, nil
}

func (s *OrderStore) Get(ctx context.Context, id string) (Order, bool, error) {
	orders, err := s.store.Load(ctx)
	if err != nil {
		return Order{}, false, err
	}
	id = strings.TrimSpace(id)
	for _, o := range orders {
		if strings.EqualFold(o.ID, id) {
			return o, true, nil
		}
	}
	return Order{}, false, nil
}

// ListRecent returns up to limit orders, newest first. A non-positive limit
// defaults to five.
func (s *OrderStore) ListRecent(ctx context.Context, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 5
	}
	orders, err := s.sorted(ctx)
	if err != nil {
		return nil, err
	}
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}
