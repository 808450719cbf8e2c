package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
)

// jsonHandler emits one JSON object per record. Project, queue and
// correlation ids carried by the record's context are added unless the
// logger already has them bound.
type jsonHandler struct {
	inner slog.Handler
	bound map[string]struct{}
	group bool
}

func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	opts := slog.HandlerOptions{
		Level:     lvl,
		AddSource: addSource,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			if len(groups) > 0 {
				return attr
			}
			switch attr.Key {
			case slog.TimeKey:
				attr.Key = "ts"
				if attr.Value.Kind() == slog.KindTime {
					attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
				}
			case slog.LevelKey:
				attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			case slog.SourceKey:
				if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
					attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
				}
			}
			return attr
		},
	}

	return &jsonHandler{inner: slog.NewJSONHandler(w, &opts), bound: map[string]struct{}{}}
}

func (h *jsonHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *jsonHandler) Handle(ctx context.Context, record slog.Record) error {
	if !h.group {
		for _, attr := range ContextFields(ctx) {
			if _, ok := h.bound[attr.Key]; !ok {
				record.AddAttrs(attr)
			}
		}
	}
	return h.inner.Handle(ctx, record)
}

func (h *jsonHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := h.bound
	if !h.group {
		bound = make(map[string]struct{}, len(h.bound)+len(attrs))
		for k := range h.bound {
			bound[k] = struct{}{}
		}
		for _, attr := range attrs {
			bound[attr.Key] = struct{}{}
		}
	}
	return &jsonHandler{inner: h.inner.WithAttrs(attrs), bound: bound, group: h.group}
}

func (h *jsonHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &jsonHandler{inner: h.inner.WithGroup(name), bound: h.bound, group: true}
}
