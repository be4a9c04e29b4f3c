package sentry

import (
	"context"
	"log/slog"
	"strings"

	gosentry "github.com/getsentry/sentry-go"
)

// Handler wraps a slog.Handler and forwards records to Sentry.
// Errors become Sentry events; warnings and info become breadcrumbs.
// Records always reach the inner handler first.
type Handler struct {
	inner slog.Handler
	// attrs holds context from WithAttrs, keys already qualified by the
	// groups open at the time.
	attrs  []slog.Attr
	prefix string
}

// NewHandler returns a Handler that tees to inner.
func NewHandler(inner slog.Handler) *Handler {
	return &Handler{inner: inner}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	err := h.inner.Handle(ctx, record)

	if !enabled || record.Level < slog.LevelInfo {
		return err
	}

	msg := h.summarize(record)
	switch {
	case record.Level >= slog.LevelError:
		gosentry.CaptureMessage(msg)
	case record.Level >= slog.LevelWarn:
		gosentry.AddBreadcrumb(&gosentry.Breadcrumb{
			Level:    gosentry.LevelWarning,
			Category: "log",
			Message:  msg,
		})
	default:
		gosentry.AddBreadcrumb(&gosentry.Breadcrumb{
			Level:    gosentry.LevelInfo,
			Category: "log",
			Message:  msg,
		})
	}
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := h.clone()
	next.inner = h.inner.WithAttrs(attrs)
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return next
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.inner = h.inner.WithGroup(name)
	next.prefix = h.prefix + name + "."
	return next
}

func (h *Handler) clone() *Handler {
	return &Handler{
		inner:  h.inner,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		prefix: h.prefix,
	}
}

// summarize renders "message key=value ..." for the Sentry UI, context from
// With first.
func (h *Handler) summarize(record slog.Record) string {
	var b strings.Builder
	b.WriteString(record.Message)
	write := func(key string, v slog.Value) {
		b.WriteString(" ")
		b.WriteString(key)
		b.WriteString("=")
		b.WriteString(v.Resolve().String())
	}
	for _, a := range h.attrs {
		write(a.Key, a.Value)
	}
	record.Attrs(func(a slog.Attr) bool {
		write(h.prefix+a.Key, a.Value)
		return true
	})
	return b.String()
}
