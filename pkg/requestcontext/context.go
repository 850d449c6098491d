// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them; services and the revision
// engine read them.
//
//	ctx = requestcontext.WithActorID(ctx, 42)
//	actor := requestcontext.ActorID(ctx)
package requestcontext

import (
	"context"
	"time"
)

type (
	actorIDKey     struct{}
	sessionIDKey   struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	localeKey      struct{}
	requestTimeKey struct{}
)

// ActorID returns the authenticated member id, or 0
func ActorID(ctx context.Context) uint64 {
	if v, ok := ctx.Value(actorIDKey{}).(uint64); ok {
		return v
	}
	return 0
}

// WithActorID injects the authenticated member id
func WithActorID(ctx context.Context, id uint64) context.Context {
	return context.WithValue(ctx, actorIDKey{}, id)
}

// SessionID returns the session identifier, or ""
func SessionID(ctx context.Context) string {
	return stringValue(ctx, sessionIDKey{})
}

// WithSessionID injects a session identifier
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey{}, id)
}

// ClientIP returns the client address, or ""
func ClientIP(ctx context.Context) string {
	return stringValue(ctx, clientIPKey{})
}

// WithClientIP injects the client address
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// UserAgent returns the User-Agent header, or ""
func UserAgent(ctx context.Context) string {
	return stringValue(ctx, userAgentKey{})
}

// WithUserAgent injects the User-Agent header
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, userAgentKey{}, ua)
}

// RequestID returns the request correlation id, or ""
func RequestID(ctx context.Context) string {
	return stringValue(ctx, requestIDKey{})
}

// WithRequestID injects the request correlation id
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// Locale returns the editing locale, or ""
func Locale(ctx context.Context) string {
	return stringValue(ctx, localeKey{})
}

// WithLocale injects the editing locale
func WithLocale(ctx context.Context, locale string) context.Context {
	return context.WithValue(ctx, localeKey{}, locale)
}

// Now returns the request time, falling back to time.Now
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins the request time, mainly for tests
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

func stringValue(ctx context.Context, key any) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
