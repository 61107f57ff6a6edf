package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Tool describes a function the voice platform's LLM may call.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Schema      any    `json:"parameters"`
}

// ToolCall is one invocation requested by the LLM.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

type ToolRegistry interface {
	Tools() []Tool
	HandleTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// HandlerFunc runs one tool and returns the text spoken back into the conversation.
type HandlerFunc func(ctx context.Context, args map[string]any) (string, error)

var ErrUnknownTool = errors.New("unknown tool")

// ToolError carries a message meant for the caller rather than the logs.
type ToolError struct {
	Message string
	Err     error
}

func (e *ToolError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ToolError) Unwrap() error { return e.Err }

// UserError wraps err with a sentence that can be read to the user.
func UserError(err error, format string, args ...any) error {
	return &ToolError{Message: fmt.Sprintf(format, args...), Err: err}
}

// UserMessage returns the user-facing text of err, or fallback when err has none.
func UserMessage(err error, fallback string) string {
	var te *ToolError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	return fallback
}

// Registry is a map-backed ToolRegistry that keeps declaration order.
type Registry struct {
	tools    []Tool
	handlers map[string]HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register adds a tool; registering the same name twice replaces the handler.
func (r *Registry) Register(tool Tool, h HandlerFunc) {
	if _, exists := r.handlers[tool.Name]; !exists {
		r.tools = append(r.tools, tool)
	}
	r.handlers[tool.Name] = h
}

func (r *Registry) Tools() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Names returns the registered tool names sorted alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) HandleTool(ctx context.Context, name string, args map[string]any) (string, error) {
	h := r.handlers[name]
	if h == nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return h(ctx, args)
}

var _ ToolRegistry = (*Registry)(nil)
