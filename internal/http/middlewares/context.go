// Package middlewares contiene los middlewares HTTP del servicio: recover,
// request logging, autenticación de servicio y resolución de instancia.
package middlewares

import (
	"context"
	"net/http"
)

// Middleware es la firma estándar de middleware HTTP.
type Middleware func(http.Handler) http.Handler

type ctxKey string

const (
	ctxInstanceIDKey ctxKey = "instance_id"
	ctxRequestIDKey  ctxKey = "request_id"
	ctxServiceKey    ctxKey = "service"
)

// WithInstanceID inyecta la instancia (tenant) en el contexto.
func WithInstanceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxInstanceIDKey, id)
}

// InstanceID extrae la instancia del contexto; vacío si no hay.
func InstanceID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxInstanceIDKey).(string); ok {
		return v
	}
	return ""
}

// WithRequestID inyecta el request ID en el contexto.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, id)
}

// RequestID extrae el request ID del contexto; vacío si no hay.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(ctxRequestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithService inyecta el nombre del servicio autenticado.
func WithService(ctx context.Context, svc string) context.Context {
	return context.WithValue(ctx, ctxServiceKey, svc)
}

// Service extrae el nombre del servicio autenticado; vacío si no hay.
func Service(ctx context.Context) string {
	if v, ok := ctx.Value(ctxServiceKey).(string); ok {
		return v
	}
	return ""
}
