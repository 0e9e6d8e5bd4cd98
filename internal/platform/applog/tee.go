package applog

import (
	"context"
	"log/slog"
	"strings"
)

// TeeHandler forwards records to next and copies those at or above min into sink
// as server-sourced entries.
type TeeHandler struct {
	next   slog.Handler
	sink   Sink
	min    slog.Level
	attrs  []slog.Attr
	groups []string
}

// NewTeeHandler wraps next. Records carrying component=applog are never copied,
// so sink failures cannot feed back into the sink.
func NewTeeHandler(next slog.Handler, sink Sink, min slog.Level) *TeeHandler {
	return &TeeHandler{next: next, sink: sink, min: min}
}

func (h *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level) || (h.sink != nil && level >= h.min)
}

func (h *TeeHandler) Handle(ctx context.Context, r slog.Record) error {
	var err error
	if h.next.Enabled(ctx, r.Level) {
		err = h.next.Handle(ctx, r)
	}
	if h.sink == nil || r.Level < h.min {
		return err
	}
	fields := make(map[string]any, len(h.attrs)+r.NumAttrs())
	prefix := strings.Join(h.groups, ".")
	for _, a := range h.attrs {
		addAttr(fields, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(fields, prefix, a)
		return true
	})
	if fields["component"] == "applog" {
		return err
	}
	entry := Entry{
		Level:   levelFromSlog(r.Level),
		Message: truncate(r.Message, MaxMessageLength),
		Context: fields,
		Source:  SourceServer,
		Time:    r.Time,
	}
	if url, ok := fields["path"].(string); ok {
		entry.URL = url
	}
	_ = h.sink.Write(ctx, []Entry{entry})
	return err
}

func (h *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.next = h.next.WithAttrs(attrs)
	prefix := strings.Join(h.groups, ".")
	clone.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		if prefix != "" {
			a.Key = prefix + "." + a.Key
		}
		clone.attrs = append(clone.attrs, a)
	}
	return &clone
}

func (h *TeeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.next = h.next.WithGroup(name)
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func addAttr(fields map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, child := range a.Value.Group() {
			addAttr(fields, key, child)
		}
		return
	}
	fields[key] = a.Value.Any()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

var _ slog.Handler = (*TeeHandler)(nil)
