package session

import (
	"context"

	"github.com/ateliercarvalho/atelier/internal/apiclient"
)

type contextKey struct{ domain string }

// WithManager attaches m to ctx under its domain.
func WithManager(ctx context.Context, m *Manager) context.Context {
	if m == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{m.domain.Name}, m)
}

// FromContext returns the manager for domain, or nil.
func FromContext(ctx context.Context, domain Domain) *Manager {
	m, _ := ctx.Value(contextKey{domain.Name}).(*Manager)
	return m
}

// detach hides the domain's manager from provider calls made by the manager
// itself, so the transport neither injects the current token nor expires the
// session on their 401s.
func detach(ctx context.Context, domain Domain) context.Context {
	return context.WithValue(ctx, contextKey{domain.Name}, (*Manager)(nil))
}

// Anonymous hides every session on ctx, for calls whose result is shared
// between requests.
func Anonymous(ctx context.Context) context.Context {
	return detach(detach(ctx, CustomerDomain), AdminDomain)
}

// ContextTokens reads the bearer token of the request's session for domain.
func ContextTokens(domain Domain) apiclient.TokenSource {
	return func(ctx context.Context) string {
		if m := FromContext(ctx, domain); m != nil {
			return m.Token()
		}
		return ""
	}
}

// ExpireFromContext clears the request's session for domain when the backend
// answers 401.
func ExpireFromContext(domain Domain) apiclient.UnauthorizedHandler {
	return func(ctx context.Context) {
		if m := FromContext(ctx, domain); m != nil && m.IsAuthenticated() {
			m.Expire(ctx)
		}
	}
}
