package bridge

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/harunnryd/voicedays/pkg/agents"
	"github.com/harunnryd/voicedays/pkg/commerce"
	"github.com/harunnryd/voicedays/pkg/grocery"
	"github.com/harunnryd/voicedays/pkg/jsonstore"
	"github.com/harunnryd/voicedays/pkg/logging"
	"github.com/harunnryd/voicedays/pkg/metrics"
)

func newTestServer(t *testing.T, day agents.Day) (*Server, *httptest.Server, *metrics.MemoryObserver) {
	t.Helper()
	dir := t.TempDir()
	logger := logging.Discard()
	obs := metrics.NewMemoryObserver()
	deps := agents.Deps{
		GroceryCatalog: grocery.DefaultCatalog(),
		Orders: grocery.NewOrderStore(
			jsonstore.NewFileStore[grocery.Order](filepath.Join(dir, "orders_instamart.json")),
			grocery.WithLogger(logger),
		),
		Commerce: commerce.NewStore(
			commerce.DefaultCatalog(),
			jsonstore.NewFileStore[commerce.CartItem](filepath.Join(dir, "cart.json")),
			jsonstore.NewFileStore[commerce.Order](filepath.Join(dir, "orders.json")),
			commerce.WithLogger(logger),
		),
		Logger: logger,
	}
	s := New(Config{}, Options{Day: day, Deps: deps, ToolTimeout: time.Second, Observer: obs, Logger: logger})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts, obs
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.ReadJSON(v); err != nil {
		t.Fatalf("read: %v", err)
	}
}

func TestSessionHandshakeAndToolCall(t *testing.T) {
	_, ts, obs := newTestServer(t, agents.DayGrocery)
	conn := dial(t, ts)

	var hello SessionMessage
	readJSON(t, conn, &hello)
	if hello.Type != TypeSession || hello.SessionID == "" || hello.Agent != agents.DayGrocery {
		t.Fatalf("unexpected session message %+v", hello)
	}
	if len(hello.Tools) == 0 || hello.Tools[0].Name != "find_item" || hello.Instructions == "" {
		t.Fatalf("expected grocery tools and instructions")
	}

	if err := conn.WriteJSON(Inbound{Type: TypeToolCall, ID: "c1", Name: "add_to_cart", Arguments: map[string]any{"item": "milk-dairy", "quantity": 2}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var res map[string]any
	readJSON(t, conn, &res)
	if res["type"] != TypeToolResult || res["id"] != "c1" || res["status"] != agents.StatusOK {
		t.Fatalf("unexpected tool result %+v", res)
	}
	if !strings.Contains(res["result"].(string), "Added 2 x Amul Taaza Toned Milk") {
		t.Fatalf("unexpected result text %v", res["result"])
	}
	if len(obs.Named(metrics.EventToolCall)) != 1 {
		t.Fatalf("expected tool metric")
	}
}

func TestToolErrorAndPing(t *testing.T) {
	_, ts, _ := newTestServer(t, agents.DayGrocery)
	conn := dial(t, ts)
	var hello SessionMessage
	readJSON(t, conn, &hello)

	_ = conn.WriteJSON(Inbound{Type: TypeTranscript, Role: "user", Text: "my card is 4111 1111 1111 1111"})
	_ = conn.WriteJSON(Inbound{Type: TypeToolCall, ID: "c2", Name: "teleport"})
	var res map[string]any
	readJSON(t, conn, &res)
	if res["id"] != "c2" || res["status"] != agents.StatusError || res["error"] == nil {
		t.Fatalf("unexpected error result %+v", res)
	}

	_ = conn.WriteJSON(Inbound{Type: TypePing})
	var pong map[string]string
	readJSON(t, conn, &pong)
	if pong["type"] != TypePong {
		t.Fatalf("expected pong, got %+v", pong)
	}

	_ = conn.WriteMessage(websocket.TextMessage, []byte("{not json"))
	var bad map[string]string
	readJSON(t, conn, &bad)
	if bad["type"] != TypeError {
		t.Fatalf("expected error message, got %+v", bad)
	}
}

func TestSessionsHaveSeparateState(t *testing.T) {
	_, ts, _ := newTestServer(t, agents.DayGrocery)
	a, b := dial(t, ts), dial(t, ts)
	var hello SessionMessage
	readJSON(t, a, &hello)
	readJSON(t, b, &hello)

	_ = a.WriteJSON(Inbound{Type: TypeToolCall, ID: "a1", Name: "add_to_cart", Arguments: map[string]any{"item": "bread-bakery"}})
	var res map[string]any
	readJSON(t, a, &res)

	_ = b.WriteJSON(Inbound{Type: TypeToolCall, ID: "b1", Name: "view_cart"})
	readJSON(t, b, &res)
	if res["result"] != "Your cart is empty." {
		t.Fatalf("expected separate carts, got %v", res["result"])
	}
}

func TestHealthAndCommerceAPI(t *testing.T) {
	_, ts, _ := newTestServer(t, agents.DayCommerce)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("health: %v %v", resp, err)
	}
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/orders")
	if err != nil {
		t.Fatalf("orders: %v", err)
	}
	var orders []commerce.Order
	_ = json.NewDecoder(resp.Body).Decode(&orders)
	resp.Body.Close()
	if orders == nil || len(orders) != 0 {
		t.Fatalf("expected empty array, got %v", orders)
	}

	body := bytes.NewBufferString(`{"product_id":"echo-dot-5","quantity":2}`)
	resp, err = http.Post(ts.URL+"/api/cart", "application/json", body)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("add cart: %v %v", resp, err)
	}
	resp.Body.Close()

	req, _ := http.NewRequest(http.MethodPatch, ts.URL+"/api/cart", bytes.NewBufferString(`{"product_id":"echo-dot-5","quantity":0}`))
	resp, err = http.DefaultClient.Do(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero quantity, got %v %v", resp, err)
	}
	resp.Body.Close()

	resp, err = http.Post(ts.URL+"/api/cart/checkout", "application/json", nil)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("checkout: %v %v", resp, err)
	}
	var order commerce.Order
	_ = json.NewDecoder(resp.Body).Decode(&order)
	resp.Body.Close()
	if order.Total != 8998 || order.Status != commerce.OrderStatusConfirmed {
		t.Fatalf("unexpected order %+v", order)
	}

	resp, err = http.Post(ts.URL+"/api/orders", "application/json", bytes.NewBufferString(`{"product_id":"nope"}`))
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown product, got %v %v", resp, err)
	}
	resp.Body.Close()
}

func TestGroceryOrdersAPI(t *testing.T) {
	s, ts, _ := newTestServer(t, agents.DayGrocery)
	cart := grocery.NewCart(s.opts.Deps.GroceryCatalog)
	item, _ := s.opts.Deps.GroceryCatalog.Get("inst_09")
	if _, err := cart.Add(item, 1, ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.opts.Deps.Orders.PlaceCart(t.Context(), cart, "Asha", ""); err != nil {
		t.Fatalf("place: %v", err)
	}

	resp, err := http.Get(ts.URL + "/api/instamart/orders?limit=1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var orders []grocery.Order
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(orders) != 1 || orders[0].CustomerName != "Asha" || orders[0].DeliveryFee != 25 {
		t.Fatalf("unexpected orders %+v", orders)
	}
}

func TestDrainRefusesNewSessions(t *testing.T) {
	s, ts, _ := newTestServer(t, agents.DayTutor)
	conn := dial(t, ts)
	var hello SessionMessage
	readJSON(t, conn, &hello)

	if err := s.Drain(t.Context()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if s.SessionCount() != 0 {
		t.Fatalf("expected sessions closed")
	}
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while draining, got %v", err)
	}
}
