package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusObserver maps recorded events onto Prometheus collectors held in
// a private registry.
type PrometheusObserver struct {
	reg             *prometheus.Registry
	ToolCalls       *prometheus.CounterVec
	ToolLatency     *prometheus.HistogramVec
	OrdersCreated   prometheus.Counter
	OrderTransition *prometheus.CounterVec
	CaseUpdates     *prometheus.CounterVec
}

func NewPrometheusObserver() *PrometheusObserver {
	r := prometheus.NewRegistry()
	toolCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voicedays_tool_calls_total",
		Help: "Tool invocations by agent, tool and status.",
	}, []string{"agent", "tool", "status"})
	toolLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voicedays_tool_call_seconds",
		Help:    "Tool handler latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"agent", "tool"})
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "voicedays_orders_created_total",
		Help: "Grocery orders placed.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voicedays_order_transitions_total",
		Help: "Simulated order status transitions by target status.",
	}, []string{"status"})
	caseUpdates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "voicedays_fraud_case_updates_total",
		Help: "Fraud case status writes by resulting status.",
	}, []string{"status"})

	r.MustRegister(toolCalls, toolLatency, ordersCreated, transitions, caseUpdates)
	return &PrometheusObserver{
		reg:             r,
		ToolCalls:       toolCalls,
		ToolLatency:     toolLatency,
		OrdersCreated:   ordersCreated,
		OrderTransition: transitions,
		CaseUpdates:     caseUpdates,
	}
}

func (p *PrometheusObserver) RecordEvent(ev MetricsEvent) {
	switch ev.Name {
	case EventToolCall:
		agent, tool := ev.Tags["agent"], ev.Tags["tool"]
		p.ToolCalls.WithLabelValues(agent, tool, ev.Tags["status"]).Inc()
		p.ToolLatency.WithLabelValues(agent, tool).Observe(ev.Value)
	case EventOrderCreated:
		p.OrdersCreated.Inc()
	case EventOrderTransition:
		p.OrderTransition.WithLabelValues(ev.Tags["status"]).Inc()
	case EventCaseUpdated:
		p.CaseUpdates.WithLabelValues(ev.Tags["status"]).Inc()
	}
}

// Registry exposes the underlying registry for tests and custom handlers.
func (p *PrometheusObserver) Registry() *prometheus.Registry { return p.reg }

func (p *PrometheusObserver) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{})
}
