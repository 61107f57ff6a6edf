// Package bridge connects the external voice platform to the tool registries.
// The platform opens one websocket per voice session, receives the agent's
// instructions and tool schemas, and sends tool calls back as JSON messages.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/harunnryd/voicedays/pkg/agents"
	"github.com/harunnryd/voicedays/pkg/metrics"
)

type Config struct {
	Addr           string   `mapstructure:"addr"`
	WebsocketPath  string   `mapstructure:"ws_path"`
	AllowAnyOrigin bool     `mapstructure:"allow_any_origin"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.WebsocketPath == "" {
		c.WebsocketPath = "/ws"
	}
	if !c.AllowAnyOrigin && len(c.AllowedOrigins) == 0 {
		c.AllowAnyOrigin = true
	}
	return c
}

type Options struct {
	Day         agents.Day
	Deps        agents.Deps
	ToolTimeout time.Duration
	Observer    metrics.Observer
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Routes are extra handlers keyed by mux pattern, such as the phone
	// voice webhook.
	Routes map[string]http.Handler
	Logger *slog.Logger
}

type Server struct {
	cfg      Config
	opts     Options
	upgrader websocket.Upgrader
	mux      *http.ServeMux
	server   *http.Server
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session

	draining atomic.Bool
}

func New(cfg Config, opts Options) *Server {
	cfg = cfg.withDefaults()
	if opts.Observer == nil {
		opts.Observer = metrics.NoopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	s := &Server{
		cfg:  cfg,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger:   opts.Logger,
		sessions: make(map[string]*session),
	}
	s.upgrader.CheckOrigin = s.checkOrigin

	mux := http.NewServeMux()
	mux.Handle(cfg.WebsocketPath, s)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/products", s.handleProducts)
	mux.HandleFunc("GET /api/orders", s.handleCommerceOrders)
	mux.HandleFunc("POST /api/orders", s.handleCreateOrder)
	mux.HandleFunc("GET /api/cart", s.handleCommerceCart)
	mux.HandleFunc("POST /api/cart", s.handleAddToCart)
	mux.HandleFunc("PATCH /api/cart", s.handleUpdateCart)
	mux.HandleFunc("DELETE /api/cart", s.handleRemoveFromCart)
	mux.HandleFunc("POST /api/cart/checkout", s.handleCheckout)
	mux.HandleFunc("GET /api/instamart/orders", s.handleGroceryOrders)
	if opts.Metrics != nil {
		mux.Handle("GET /metrics", opts.Metrics)
	}
	for pattern, h := range opts.Routes {
		mux.Handle(pattern, h)
	}
	s.mux = mux
	return s
}

// Handler exposes the routes without starting a listener.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) Addr() string { return s.cfg.Addr }

// Start listens in the background until ctx is done or Drain is called.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.cfg.Addr,
		ReadHeaderTimeout: 5 * time.Second,
		Handler:           s.mux,
	}
	go func() {
		<-ctx.Done()
		_ = s.server.Close()
	}()
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("bridge_server_error", "error", err)
		}
	}()
	s.logger.Info("bridge_listening", "addr", s.cfg.Addr, "ws_path", s.cfg.WebsocketPath, "agent", s.opts.Day)
	return nil
}

// Drain refuses new sessions, closes the open ones and shuts the listener.
func (s *Server) Drain(ctx context.Context) error {
	s.draining.Store(true)
	s.mu.Lock()
	for id, sess := range s.sessions {
		_ = sess.close()
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// SessionCount reports open voice sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if s.cfg.AllowAnyOrigin {
		return true
	}
	origin := strings.TrimRight(strings.TrimSpace(r.Header.Get("Origin")), "/")
	if origin == "" {
		return true
	}
	host := strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
	for _, allowed := range s.cfg.AllowedOrigins {
		a := strings.TrimRight(strings.TrimSpace(allowed), "/")
		if a == "" {
			continue
		}
		if strings.HasPrefix(a, "http://") || strings.HasPrefix(a, "https://") {
			if strings.EqualFold(a, origin) {
				return true
			}
			continue
		}
		if strings.EqualFold(a, host) {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
