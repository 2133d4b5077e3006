package mail

import (
	"context"
	"log/slog"
	"time"

	"firecms/internal/domain/service"
)

// HandlerFunc handles one dispatched envelope.
type HandlerFunc func(ctx context.Context, envelope *service.Envelope) error

// Middleware decorates a HandlerFunc.
type Middleware func(next HandlerFunc) HandlerFunc

// Bus dispatches envelopes synchronously through its middleware chain to a
// single handler. The first middleware is the outermost.
type Bus struct {
	handler HandlerFunc
}

// NewBus builds a bus around handler.
func NewBus(handler HandlerFunc, middlewares ...Middleware) *Bus {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	return &Bus{handler: handler}
}

// Dispatch runs the chain and returns the handler's error unchanged.
func (b *Bus) Dispatch(ctx context.Context, envelope *service.Envelope) error {
	return b.handler(ctx, envelope)
}

// LoggingMiddleware logs every dispatch and its outcome.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, envelope *service.Envelope) error {
			start := time.Now()
			err := next(ctx, envelope)

			attrs := []slog.Attr{
				slog.String("subject", envelope.Subject),
				slog.Int("recipients", len(envelope.Recipients())),
				slog.Duration("latency", time.Since(start)),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
				logger.LogAttrs(ctx, slog.LevelWarn, "Mail dispatch failed", attrs...)

				return err
			}

			logger.LogAttrs(ctx, slog.LevelInfo, "Mail dispatched", attrs...)

			return nil
		}
	}
}
