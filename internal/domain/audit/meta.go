// internal/domain/audit/meta.go
package audit

import (
	"context"
)

type metaKey struct{}

// Meta carries HTTP request metadata down to audit entries without the
// services having to know about the transport.
type Meta struct {
	Method    string
	Endpoint  string
	IPAddress string
	UserAgent string
}

// WithMeta attaches request metadata to the context
func WithMeta(ctx context.Context, m Meta) context.Context {
	return context.WithValue(ctx, metaKey{}, m)
}

// MetaFrom extracts request metadata, if any
func MetaFrom(ctx context.Context) (Meta, bool) {
	m, ok := ctx.Value(metaKey{}).(Meta)
	return m, ok
}

func (m Meta) apply(entry *Entry) {
	if entry.Method == "" {
		entry.Method = m.Method
	}
	if entry.Endpoint == "" {
		entry.Endpoint = m.Endpoint
	}
	if entry.IPAddress == "" {
		entry.IPAddress = m.IPAddress
	}
	if entry.UserAgent == "" {
		entry.UserAgent = m.UserAgent
	}
}
