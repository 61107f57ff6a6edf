package bridge

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/harunnryd/voicedays/pkg/commerce"
	"github.com/harunnryd/voicedays/pkg/errorsx"
	"github.com/harunnryd/voicedays/pkg/grocery"
)

// These routes back the demo frontends. Lists are plain JSON arrays so an
// empty store reads as [].

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"agent":    s.opts.Day,
		"sessions": s.SessionCount(),
	})
}

func (s *Server) commerce(w http.ResponseWriter) (*commerce.Store, bool) {
	if s.opts.Deps.Commerce == nil {
		writeError(w, http.StatusNotFound, "commerce store not configured")
		return nil, false
	}
	return s.opts.Deps.Commerce, true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func statusFor(err error) int {
	switch errorsx.Reason(err) {
	case errorsx.ReasonItemNotFound, errorsx.ReasonLineNotFound:
		return http.StatusNotFound
	case errorsx.ReasonInvalidQuantity, errorsx.ReasonInvalidArgument, errorsx.ReasonCartEmpty:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "api_request_failed", "path", r.URL.Path, "error", err)
	}
	writeError(w, status, err.Error())
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	store, ok := s.commerce(w)
	if !ok {
		return
	}
	q := r.URL.Query()
	f := commerce.Filter{
		Category: q.Get("category"),
		Search:   q.Get("search"),
		SortBy:   q.Get("sort_by"),
	}
	if v, err := strconv.ParseFloat(q.Get("min_price"), 64); err == nil {
		f.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(q.Get("max_price"), 64); err == nil {
		f.MaxPrice = &v
	}
	writeJSON(w, http.StatusOK, store.Catalog().Products(f))
}

func (s *Server) handleCommerceOrders(w http.ResponseWriter, r *http.Request) {
	store, ok := s.commerce(w)
	if !ok {
		return
	}
	orders, err := store.Orders(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if orders == nil {
		orders = []commerce.Order{}
	}
	writeJSON(w, http.StatusOK, orders)
}

type productRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

func decodeProductRequest(w http.ResponseWriter, r *http.Request, needQty bool) (productRequest, bool) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return req, false
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return req, false
	}
	if needQty && req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "quantity is required")
		return req, false
	}
	return req, true
}

func quantityOr(q *int, fallback int) int {
	if q == nil {
		return fallback
	}
	return *q
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	store, ok := s.commerce(w)
	if !ok {
		return
	}
	req, ok := decodeProductRequest(w, r, false)
	if !ok {
		return
	}
	order, err := store.CreateOrder(r.Context(), req.ProductID, quantityOr(req.Quantity, 1))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleCommerceCart(w http.ResponseWriter, r *http.Request) {
	store, ok := s.commerce(w)
	if !ok {
		return
	}
	items, err := store.Cart(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeCart(w, items)
}

func writeCart(w http.ResponseWriter, items []commerce.CartItem) {
	if items == nil {
		items = []commerce.CartItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	store, ok := s.commerce(w)
	if !ok {
		return
	}
	req, ok := decodeProductRequest(w, r, false)
	if !ok {
		return
	}
	items, _, err := store.AddToCart(r.Context(), req.ProductID, quantityOr(req.Quantity, 1))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeCart(w, items)
}

func (s *Server) handleUpdateCart(w http.ResponseWriter, r *http.Request) {
	store, ok := s.commerce(w)
	if !ok {
		return
	}
	req, ok := decodeProductRequest(w, r, true)
	if !ok {
		return
	}
	items, err := store.UpdateCartQuantity(r.Context(), req.ProductID, *req.Quantity)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeCart(w, items)
}

func (s *Server) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	store, ok := s.commerce(w)
	if !ok {
		return
	}
	id := r.URL.Query().Get("product_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}
	items, err := store.RemoveFromCart(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeCart(w, items)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	store, ok := s.commerce(w)
	if !ok {
		return
	}
	order, err := store.Checkout(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// handleGroceryOrders refreshes simulated statuses before listing, so the
// tracker page sees the same status a voice query would.
func (s *Server) handleGroceryOrders(w http.ResponseWriter, r *http.Request) {
	orders := s.opts.Deps.Orders
	if orders == nil {
		writeError(w, http.StatusNotFound, "grocery order store not configured")
		return
	}
	if _, err := orders.Refresh(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := orders.ListRecent(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []grocery.Order{}
	}
	writeJSON(w, http.StatusOK, list)
}
