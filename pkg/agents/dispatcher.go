package agents

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/harunnryd/voicedays/pkg/errorsx"
	"github.com/harunnryd/voicedays/pkg/llm"
	"github.com/harunnryd/voicedays/pkg/metrics"
)

const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

const fallbackMessage = "Sorry, something went wrong with that request."

var ErrToolTimeout = errorsx.New(errorsx.ReasonToolTimeout, "tool timeout")

// Result is the outcome of one tool call. Result is always speakable; Error
// carries the underlying failure for logs and clients.
type Result struct {
	CallID string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

type DispatcherOptions struct {
	Timeout  time.Duration
	Observer metrics.Observer
	Logger   *slog.Logger
}

// Dispatcher runs tool calls for one session, one at a time. Calls are never
// retried.
type Dispatcher struct {
	agent    string
	registry llm.ToolRegistry
	opts     DispatcherOptions

	// held until a handler returns, even past its timeout, so session state
	// is never touched by two handlers at once
	mu sync.Mutex
}

func NewDispatcher(agent string, registry llm.ToolRegistry, opts DispatcherOptions) *Dispatcher {
	if opts.Observer == nil {
		opts.Observer = metrics.NoopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Dispatcher{agent: agent, registry: registry, opts: opts}
}

func (d *Dispatcher) Tools() []llm.Tool {
	if d.registry == nil {
		return nil
	}
	return d.registry.Tools()
}

func (d *Dispatcher) Dispatch(ctx context.Context, call llm.ToolCall) Result {
	start := time.Now()
	text, err := d.callWithTimeout(ctx, call)
	elapsed := time.Since(start)

	res := Result{CallID: call.ID, Name: call.Name, Status: StatusOK, Result: text}
	if err != nil {
		res.Status = StatusError
		if errors.Is(err, ErrToolTimeout) {
			res.Status = StatusTimeout
		}
		res.Result = llm.UserMessage(err, fallbackMessage)
		res.Error = err.Error()
		d.opts.Logger.WarnContext(ctx, "tool_call_failed",
			"agent", d.agent,
			"tool_name", call.Name,
			"call_id", call.ID,
			"status", res.Status,
			"reason", errorsx.Reason(err),
			"error", err,
		)
	} else {
		d.opts.Logger.DebugContext(ctx, "tool_call_completed",
			"agent", d.agent,
			"tool_name", call.Name,
			"call_id", call.ID,
			"elapsed", elapsed,
		)
	}
	d.opts.Observer.RecordEvent(metrics.MetricsEvent{
		Name:  metrics.EventToolCall,
		Time:  start,
		Value: elapsed.Seconds(),
		Tags:  map[string]string{"agent": d.agent, "tool": call.Name, "status": res.Status},
	})
	return res
}

func (d *Dispatcher) callWithTimeout(ctx context.Context, call llm.ToolCall) (string, error) {
	if d.registry == nil {
		return "", errors.New("missing registry")
	}
	d.mu.Lock()
	if d.opts.Timeout <= 0 {
		defer d.mu.Unlock()
		return d.handle(ctx, call)
	}

	callCtx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		defer d.mu.Unlock()
		defer cancel()
		text, err := d.handle(callCtx, call)
		ch <- result{text: text, err: err}
	}()
	select {
	case out := <-ch:
		return out.text, out.err
	case <-callCtx.Done():
		// cancel runs after the send, so a finished handler has already
		// delivered its result
		select {
		case out := <-ch:
			return out.text, out.err
		default:
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", ErrToolTimeout
	}
}

func (d *Dispatcher) handle(ctx context.Context, call llm.ToolCall) (string, error) {
	text, err := d.registry.HandleTool(ctx, call.Name, call.Arguments)
	if errors.Is(err, llm.ErrUnknownTool) {
		return "", errorsx.Wrap(err, errorsx.ReasonToolUnknown)
	}
	return text, err
}
