package runner

import (
	"bytes"
	"context"
	"io"

	"github.com/dimiro1/banner"
)

type State int

const (
	StateNew State = iota
	StateStarting
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

type Runner interface {
	Run(ctx context.Context) error
	Stop() error
	State() State
}

// Hooks run around the serving period. OnStart receives the run context and
// may start background work bound to it; an error aborts Run.
type Hooks struct {
	OnStart func(ctx context.Context) error
	OnStop  func(ctx context.Context)
}

// Drainer stops accepting work and closes what is open before ctx expires.
type Drainer interface {
	Drain(ctx context.Context) error
}

// Version is stamped at build time with -ldflags.
var Version = "dev"

// PrintBanner writes the startup banner for title to w.
func PrintBanner(w io.Writer, title string) {
	if w == nil {
		return
	}
	tpl := "{{ .Title \"" + title + "\" \"\" 0 }}\nVersion: " + Version + "\n"
	banner.Init(w, true, false, bytes.NewBufferString(tpl))
}
