package logging

import (
	"context"
	"log/slog"
)

// Request identifies the owner command a record was logged under.
type Request struct {
	Owner     string
	Command   string
	Structure string
}

type requestKey struct{}

// WithRequest returns a copy of ctx carrying r.
func WithRequest(ctx context.Context, r Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// WithStructure names the structure of the request in ctx once the
// arguments have been parsed.
func WithStructure(ctx context.Context, name string) context.Context {
	r, _ := RequestFrom(ctx)
	r.Structure = name
	return WithRequest(ctx, r)
}

// RequestFrom returns the request carried by ctx, if any.
func RequestFrom(ctx context.Context) (Request, bool) {
	if ctx == nil {
		return Request{}, false
	}
	r, ok := ctx.Value(requestKey{}).(Request)
	return r, ok
}

func (r Request) attrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, 3)
	if r.Owner != "" {
		attrs = append(attrs, slog.String("owner", r.Owner))
	}
	if r.Command != "" {
		attrs = append(attrs, slog.String("command", r.Command))
	}
	if r.Structure != "" {
		attrs = append(attrs, slog.String("structure", r.Structure))
	}
	return attrs
}

// ContextProvider returns session-wide attributes, evaluated per record.
type ContextProvider func() []slog.Attr

// ContextHandler stamps each record with the request found in its context
// and with the session attributes of provider.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

// NewContextHandler wraps inner. provider may be nil.
func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{inner: inner, provider: provider}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if req, ok := RequestFrom(ctx); ok {
		r.AddAttrs(req.attrs()...)
	}
	if h.provider != nil {
		r.AddAttrs(h.provider()...)
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), provider: h.provider}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name), provider: h.provider}
}
