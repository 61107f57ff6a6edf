package runner

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/harunnryd/voicedays/pkg/logging"
)

type fakeDrainer struct {
	calls int
	block chan struct{}
}

func (d *fakeDrainer) Drain(ctx context.Context) error {
	d.calls++
	if d.block != nil {
		select {
		case <-d.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func TestRunDrainsOnCancel(t *testing.T) {
	drainer := &fakeDrainer{}
	var started, stopped bool
	var out bytes.Buffer
	r := NewLifecycleRunner(drainer, Hooks{
		OnStart: func(context.Context) error { started = true; return nil },
		OnStop:  func(context.Context) { stopped = true },
	}, Options{Title: "TEST", Banner: &out, Logger: logging.Discard()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	deadline := time.Now().Add(time.Second)
	for r.State() != StateRunning && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if r.State() != StateRunning {
		t.Fatalf("expected running, got %s", r.State())
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if !started || !stopped || drainer.calls != 1 {
		t.Fatalf("hooks or drain not called: %v %v %d", started, stopped, drainer.calls)
	}
	if r.State() != StateStopped {
		t.Fatalf("expected stopped, got %s", r.State())
	}
	if !strings.Contains(out.String(), "Version: "+Version) {
		t.Fatalf("expected banner version line, got %q", out.String())
	}
	if err := r.Run(context.Background()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestStartHookErrorAbortsRun(t *testing.T) {
	boom := errors.New("boom")
	r := NewLifecycleRunner(nil, Hooks{OnStart: func(context.Context) error { return boom }}, Options{Logger: logging.Discard()})
	if err := r.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected start error, got %v", err)
	}
	if r.State() != StateStopped {
		t.Fatalf("expected stopped, got %s", r.State())
	}
}

func TestDrainTimeout(t *testing.T) {
	drainer := &fakeDrainer{block: make(chan struct{})}
	defer close(drainer.block)
	r := NewLifecycleRunner(drainer, Hooks{}, Options{DrainTimeout: 20 * time.Millisecond, Logger: logging.Discard()})
	if err := r.Stop(); !errors.Is(err, ErrDrainTimeout) {
		t.Fatalf("expected drain timeout, got %v", err)
	}
	if err := r.Stop(); !errors.Is(err, ErrDrainTimeout) {
		t.Fatalf("expected repeated stop to report the same error, got %v", err)
	}
}
