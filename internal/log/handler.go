// Package log provides the slog handlers the server and the queue consumers log through.
package log

import (
	"context"
	"log/slog"

	"github.com/harryhq/mail-manager/internal/middleware"
	"github.com/harryhq/mail-manager/pkg/model"
)

// ContextHandler copies request scoped values from the [context.Context] onto every
// [slog.Record]. It uses the same attribute keys as [middleware.RequestLogger] so logs written
// by handlers and by the middleware line up. Values can be missing from the context, startup
// code and the queue consumers log without them.
type ContextHandler struct {
	slog.Handler
}

func New(handler slog.Handler) *ContextHandler {
	return &ContextHandler{
		Handler: handler,
	}
}

func (rh *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return rh.Handler.Enabled(ctx, level)
}

func (rh *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	// logs outside of an HTTP request or a queue consumer do not carry an id
	if id := middleware.GetRequestID(ctx); id != "" {
		r.AddAttrs(slog.String(middleware.RequestLoggerKeyRequestID, id))
	}

	// public HTTP routes do not have a user in the context
	if user, ok := model.GetUserFromContext(ctx); ok {
		r.AddAttrs(slog.Any(middleware.RequestLoggerKeyUser, user))
	}

	return rh.Handler.Handle(ctx, r)
}

func (rh *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return New(rh.Handler.WithAttrs(attrs))
}

func (rh *ContextHandler) WithGroup(name string) slog.Handler {
	return New(rh.Handler.WithGroup(name))
}
