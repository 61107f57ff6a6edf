package runner

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harunnryd/voicedays/pkg/errorsx"
)

var (
	ErrInvalidTransition = errorsx.New(errorsx.ReasonLifecycle, "invalid state transition")
	ErrDrainTimeout      = errorsx.New(errorsx.ReasonDrainTimeout, "drain timeout")
)

type Options struct {
	Title        string
	Banner       io.Writer
	DrainTimeout time.Duration
	Logger       *slog.Logger
}

type LifecycleRunner struct {
	state    int32
	ctx      context.Context
	cancel   context.CancelFunc
	onceStop sync.Once
	hooks    Hooks
	drainer  Drainer
	stopErr  error
	opts     Options
	logger   *slog.Logger
}

func NewLifecycleRunner(drainer Drainer, hooks Hooks, opts Options) *LifecycleRunner {
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = 10 * time.Second
	}
	if opts.Title == "" {
		opts.Title = "VOICEDAYS"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &LifecycleRunner{
		state:   int32(StateNew),
		ctx:     ctx,
		cancel:  cancel,
		hooks:   hooks,
		drainer: drainer,
		opts:    opts,
		logger:  logger,
	}
}

// Run blocks until ctx is cancelled or Stop is called, then drains.
func (r *LifecycleRunner) Run(ctx context.Context) error {
	if !r.casState(StateNew, StateStarting) {
		return ErrInvalidTransition
	}
	PrintBanner(r.opts.Banner, r.opts.Title)
	if ctx != nil {
		r.ctx, r.cancel = context.WithCancel(ctx)
	}
	if r.hooks.OnStart != nil {
		if err := r.hooks.OnStart(r.ctx); err != nil {
			r.cancel()
			r.setState(StateStopped)
			return err
		}
	}
	r.setState(StateRunning)
	r.logger.Info("runner_started", "version", Version)
	<-r.ctx.Done()
	return r.stop()
}

func (r *LifecycleRunner) Stop() error {
	r.cancel()
	return r.stop()
}

func (r *LifecycleRunner) State() State {
	return State(atomic.LoadInt32(&r.state))
}

func (r *LifecycleRunner) stop() error {
	r.onceStop.Do(func() {
		r.setState(StateDraining)
		ctx, cancel := context.WithTimeout(context.Background(), r.opts.DrainTimeout)
		defer cancel()
		if r.drainer != nil {
			done := make(chan error, 1)
			go func() { done <- r.drainer.Drain(ctx) }()
			select {
			case err := <-done:
				if err != nil {
					r.logger.Warn("runner_drain_failed", "error", err)
				}
			case <-ctx.Done():
			}
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				r.stopErr = ErrDrainTimeout
				r.logger.Warn("runner_drain_timeout", "timeout", r.opts.DrainTimeout)
			}
		}
		if r.hooks.OnStop != nil {
			r.hooks.OnStop(ctx)
		}
		r.setState(StateStopped)
		r.logger.Info("runner_stopped")
	})
	return r.stopErr
}

func (r *LifecycleRunner) casState(from, to State) bool {
	return atomic.CompareAndSwapInt32(&r.state, int32(from), int32(to))
}

func (r *LifecycleRunner) setState(s State) {
	atomic.StoreInt32(&r.state, int32(s))
}
