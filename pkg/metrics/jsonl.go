package metrics

import (
	"context"
	"io"
	"log/slog"
)

// JSONLObserver writes every event as one JSON line, used as a tool-call
// audit trail next to the data files.
type JSONLObserver struct {
	logger *slog.Logger
}

func NewJSONLObserver(w io.Writer) *JSONLObserver {
	if w == nil {
		w = io.Discard
	}
	return &JSONLObserver{logger: slog.New(slog.NewJSONHandler(w, nil))}
}

func (o *JSONLObserver) RecordEvent(ev MetricsEvent) {
	tags := make([]any, 0, len(ev.Tags)*2)
	for k, v := range ev.Tags {
		tags = append(tags, k, v)
	}
	attrs := []slog.Attr{
		slog.Time("at", ev.Time),
		slog.Float64("value", ev.Value),
		slog.Group("tags", tags...),
	}
	if len(ev.Fields) > 0 {
		attrs = append(attrs, slog.Any("fields", ev.Fields))
	}
	o.logger.LogAttrs(context.Background(), slog.LevelInfo, ev.Name, attrs...)
}
