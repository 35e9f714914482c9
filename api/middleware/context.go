package middleware

import (
	"context"

	"github.com/ecofinds/ecofinds-core/internal/app"
)

type contextKey string

const (
	ctxRequestID contextKey = "request_id"
	ctxApp       contextKey = "client_app"
)

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxRequestID, id)
}

// RequestIDFromContext returns the id assigned by RequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRequestID).(string); ok {
		return v
	}
	return ""
}

// WithApp attaches the caller's App to the context.
func WithApp(ctx context.Context, a *app.App) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxApp, a)
}

// AppFromContext returns the App resolved by Client, or nil.
func AppFromContext(ctx context.Context) *app.App {
	if ctx == nil {
		return nil
	}
	a, _ := ctx.Value(ctxApp).(*app.App)
	return a
}
