package agents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harunnryd/voicedays/pkg/errorsx"
	"github.com/harunnryd/voicedays/pkg/llm"
	"github.com/harunnryd/voicedays/pkg/logging"
	"github.com/harunnryd/voicedays/pkg/metrics"
)

func newTestDispatcher(timeout time.Duration) (*Dispatcher, *llm.Registry, *metrics.MemoryObserver) {
	reg := llm.NewRegistry()
	obs := metrics.NewMemoryObserver()
	d := NewDispatcher("test", reg, DispatcherOptions{
		Timeout:  timeout,
		Observer: obs,
		Logger:   logging.Discard(),
	})
	return d, reg, obs
}

func TestDispatchOK(t *testing.T) {
	d, reg, obs := newTestDispatcher(time.Second)
	reg.Register(llm.Tool{Name: "echo"}, func(_ context.Context, args map[string]any) (string, error) {
		return args["text"].(string), nil
	})
	res := d.Dispatch(context.Background(), llm.ToolCall{ID: "c1", Name: "echo", Arguments: map[string]any{"text": "hi"}})
	if res.Status != StatusOK || res.Result != "hi" || res.CallID != "c1" || res.Error != "" {
		t.Fatalf("unexpected result %+v", res)
	}
	events := obs.Named(metrics.EventToolCall)
	if len(events) != 1 {
		t.Fatalf("expected one tool metric, got %d", len(events))
	}
	tags := events[0].Tags
	if tags["agent"] != "test" || tags["tool"] != "echo" || tags["status"] != StatusOK {
		t.Fatalf("unexpected tags %+v", tags)
	}
}

func TestDispatchUserError(t *testing.T) {
	d, reg, _ := newTestDispatcher(time.Second)
	reg.Register(llm.Tool{Name: "fail"}, func(context.Context, map[string]any) (string, error) {
		return "", llm.UserError(errors.New("boom"), "That item is out of stock.")
	})
	reg.Register(llm.Tool{Name: "crash"}, func(context.Context, map[string]any) (string, error) {
		return "", errors.New("disk on fire")
	})
	res := d.Dispatch(context.Background(), llm.ToolCall{ID: "c1", Name: "fail"})
	if res.Status != StatusError || res.Result != "That item is out of stock." || res.Error == "" {
		t.Fatalf("unexpected result %+v", res)
	}
	res = d.Dispatch(context.Background(), llm.ToolCall{ID: "c2", Name: "crash"})
	if res.Result != fallbackMessage || res.Error != "disk on fire" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	d, _, obs := newTestDispatcher(0)
	res := d.Dispatch(context.Background(), llm.ToolCall{ID: "c1", Name: "teleport"})
	if res.Status != StatusError || res.Result != fallbackMessage {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := obs.Named(metrics.EventToolCall)[0].Tags["status"]; got != StatusError {
		t.Fatalf("expected error status metric, got %s", got)
	}
}

func TestDispatchTimeoutKeepsSessionSerialized(t *testing.T) {
	d, reg, _ := newTestDispatcher(20 * time.Millisecond)
	release := make(chan struct{})
	var order []string
	reg.Register(llm.Tool{Name: "slow"}, func(context.Context, map[string]any) (string, error) {
		<-release
		order = append(order, "slow")
		return "late", nil
	})
	reg.Register(llm.Tool{Name: "fast"}, func(context.Context, map[string]any) (string, error) {
		order = append(order, "fast")
		return "done", nil
	})

	res := d.Dispatch(context.Background(), llm.ToolCall{ID: "c1", Name: "slow"})
	if res.Status != StatusTimeout || !errorsx.HasReason(ErrToolTimeout, errorsx.ReasonToolTimeout) {
		t.Fatalf("expected timeout, got %+v", res)
	}

	done := make(chan Result, 1)
	go func() {
		done <- d.Dispatch(context.Background(), llm.ToolCall{ID: "c2", Name: "fast"})
	}()
	select {
	case <-done:
		t.Fatalf("fast call ran while slow handler still held the session")
	case <-time.After(10 * time.Millisecond):
	}
	close(release)
	res = <-done
	if res.Status != StatusOK || res.Result != "done" {
		t.Fatalf("unexpected fast result %+v", res)
	}
	if len(order) != 2 || order[0] != "slow" || order[1] != "fast" {
		t.Fatalf("unexpected order %v", order)
	}
}

func TestDispatchHonoursCallerCancel(t *testing.T) {
	d, reg, _ := newTestDispatcher(time.Second)
	reg.Register(llm.Tool{Name: "wait"}, func(ctx context.Context, _ map[string]any) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := d.Dispatch(ctx, llm.ToolCall{ID: "c1", Name: "wait"})
	if res.Status != StatusError {
		t.Fatalf("expected error for cancelled caller, got %+v", res)
	}
}
