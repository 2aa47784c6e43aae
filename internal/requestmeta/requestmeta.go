// Package requestmeta carries request-scoped client metadata (source address,
// user agent) from the HTTP layer to services that record security events.
package requestmeta

import "context"

type contextKey struct{}

// Meta describes the client behind a request. Zero values mean unknown.
type Meta struct {
	IPAddress string
	UserAgent string
}

// WithMeta attaches client metadata to the context.
func WithMeta(ctx context.Context, meta Meta) context.Context {
	return context.WithValue(ctx, contextKey{}, meta)
}

// FromContext returns the attached metadata, or a zero Meta.
func FromContext(ctx context.Context) Meta {
	if meta, ok := ctx.Value(contextKey{}).(Meta); ok {
		return meta
	}
	return Meta{}
}
