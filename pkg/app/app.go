// Package app wires configuration into the stores, publishers, metrics and
// servers used by the voicedays commands.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harunnryd/voicedays/pkg/agents"
	"github.com/harunnryd/voicedays/pkg/bridge"
	"github.com/harunnryd/voicedays/pkg/commerce"
	"github.com/harunnryd/voicedays/pkg/configutil"
	"github.com/harunnryd/voicedays/pkg/events"
	"github.com/harunnryd/voicedays/pkg/fraud"
	"github.com/harunnryd/voicedays/pkg/grocery"
	"github.com/harunnryd/voicedays/pkg/jsonstore"
	"github.com/harunnryd/voicedays/pkg/logging"
	"github.com/harunnryd/voicedays/pkg/metrics"
	"github.com/harunnryd/voicedays/pkg/redact"
	"github.com/harunnryd/voicedays/pkg/runner"
	"github.com/harunnryd/voicedays/pkg/transports/twilio"
	"github.com/harunnryd/voicedays/pkg/tutor"
)

// Store names under data.dir.
const (
	GroceryOrdersStore  = "orders_instamart"
	CommerceCartStore   = "cart"
	CommerceOrdersStore = "orders"
	FraudCasesStore     = "fraud_cases"
)

type App struct {
	Config   Config
	Logger   *slog.Logger
	Deps     agents.Deps
	Observer metrics.Observer

	prometheus *metrics.PrometheusObserver
	closers    []io.Closer
}

// New opens every store named by cfg. Close releases them.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = logging.InitLogger(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	}
	redact.SetEnabled(cfg.Privacy.RedactPII)

	a := &App{Config: cfg, Logger: logger, Observer: metrics.NoopObserver{}}
	ok := false
	defer func() {
		if !ok {
			_ = a.Close()
		}
	}()

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return nil, err
	}
	if err := a.initObservers(); err != nil {
		return nil, err
	}

	publisher, err := a.newPublisher()
	if err != nil {
		return nil, err
	}

	catalog := grocery.DefaultCatalog()
	if cfg.Data.CatalogPath != "" {
		if catalog, err = grocery.LoadCatalog(cfg.Data.CatalogPath); err != nil {
			return nil, err
		}
	}
	library := tutor.DefaultLibrary()
	if cfg.Data.TutorContentPath != "" {
		if library, err = tutor.LoadLibrary(cfg.Data.TutorContentPath); err != nil {
			return nil, err
		}
	}

	orderStore, err := open[grocery.Order](a, GroceryOrdersStore)
	if err != nil {
		return nil, err
	}
	cartStore, err := open[commerce.CartItem](a, CommerceCartStore)
	if err != nil {
		return nil, err
	}
	commerceOrders, err := open[commerce.Order](a, CommerceOrdersStore)
	if err != nil {
		return nil, err
	}
	caseStore, err := open[fraud.Case](a, FraudCasesStore)
	if err != nil {
		return nil, err
	}

	fraudDB := fraud.NewDatabase(caseStore, a.Observer, logging.NewComponentLogger(logger, "fraud"))
	if cfg.Data.SeedFraudCases {
		if _, err := fraudDB.EnsureSampleData(ctx); err != nil {
			return nil, err
		}
	}

	a.Deps = agents.Deps{
		GroceryCatalog: catalog,
		Orders: grocery.NewOrderStore(orderStore,
			grocery.WithDeliveryPolicy(cfg.Grocery.Delivery),
			grocery.WithPublisher(publisher),
			grocery.WithObserver(a.Observer),
			grocery.WithLogger(logging.NewComponentLogger(logger, "grocery")),
		),
		Recipes: grocery.DefaultRecipes(),
		Commerce: commerce.NewStore(commerce.DefaultCatalog(), cartStore, commerceOrders,
			commerce.WithLogger(logging.NewComponentLogger(logger, "commerce")),
		),
		Fraud:     fraudDB,
		Tutor:     library,
		GameStyle: cfg.Agent.Style,
		Logger:    logger,
	}
	ok = true
	return a, nil
}

func open[T any](a *App, name string) (jsonstore.Store[T], error) {
	store, closer, err := jsonstore.Open[T](a.Config.Storage.Backend, a.Config.Data.Dir, name)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closer)
	return store, nil
}

func (a *App) initObservers() error {
	var list []metrics.Observer
	if a.Config.Metrics.Enabled {
		a.prometheus = metrics.NewPrometheusObserver()
		list = append(list, a.prometheus)
	}
	if name := a.Config.Metrics.AuditFile; name != "" {
		f, err := os.OpenFile(filepath.Join(a.Config.Data.Dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, f)
		list = append(list, metrics.NewJSONLObserver(f))
	}
	switch len(list) {
	case 0:
	case 1:
		a.Observer = list[0]
	default:
		a.Observer = metrics.NewMultiObserver(list...)
	}
	return nil
}

func (a *App) newPublisher() (events.Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(a.Config.Events.Provider)) {
	case "", EventsNone:
		return events.NoopPublisher{}, nil
	case EventsKafka:
		var kc events.KafkaConfig
		if err := configutil.DecodeSettings(a.Config.Events.Settings, &kc); err != nil {
			return nil, err
		}
		p, err := events.NewKafkaPublisher(kc)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, p)
		a.Logger.Info("events_kafka_enabled", "topic", kc.Topic)
		return p, nil
	default:
		return events.NewLogPublisher(logging.NewComponentLogger(a.Logger, "events")), nil
	}
}

// MetricsHandler serves the Prometheus registry, or nil when metrics are off.
func (a *App) MetricsHandler() http.Handler {
	if a.prometheus == nil {
		return nil
	}
	return a.prometheus.Handler()
}

// NewServer builds the bridge for the configured day.
func (a *App) NewServer() *bridge.Server {
	routes := map[string]http.Handler{}
	if a.Config.Twilio.Enabled() {
		voice := twilio.NewVoiceHandler(a.Config.Twilio, logging.NewComponentLogger(a.Logger, "twilio"))
		routes[voice.Path()] = voice
	}
	return bridge.New(a.Config.Server, bridge.Options{
		Day:         a.Config.Day(),
		Deps:        a.Deps,
		ToolTimeout: time.Duration(a.Config.Tools.TimeoutMS) * time.Millisecond,
		Observer:    a.Observer,
		Metrics:     a.MetricsHandler(),
		Routes:      routes,
		Logger:      logging.NewComponentLogger(a.Logger, "bridge"),
	})
}

// NewDialer builds the outbound phone dialer.
func (a *App) NewDialer() *twilio.Dialer {
	return twilio.NewDialer(a.Config.Twilio, logging.NewComponentLogger(a.Logger, "twilio"))
}

// Serve runs the bridge until ctx is cancelled, then drains it. When
// grocery.refresh_interval_ms is set, order status also advances in the
// background.
func (a *App) Serve(ctx context.Context, banner io.Writer) error {
	server := a.NewServer()
	hooks := runner.Hooks{
		OnStart: func(ctx context.Context) error {
			if ms := a.Config.Grocery.RefreshIntervalMS; ms > 0 {
				r := grocery.NewRefresher(a.Deps.Orders, time.Duration(ms)*time.Millisecond,
					logging.NewComponentLogger(a.Logger, "refresher"))
				go func() { _ = r.Run(ctx) }()
			}
			return server.Start(ctx)
		},
	}
	r := runner.NewLifecycleRunner(server, hooks, runner.Options{
		Banner: banner,
		Logger: a.Logger,
	})
	return r.Run(ctx)
}

// Close releases every opened store and publisher.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
