package ports

import (
	"context"
	"net/url"
)

// Request describes one backend call.
type Request struct {
	Method string
	// Path is the concrete request path, e.g. /user/wallets/BTC.
	Path string
	// Route is the templated path used as a metrics label, e.g.
	// /user/wallets/{currencyType}. Path is used when empty.
	Route string
	Query url.Values
	Body  any
}

// Transport performs authenticated JSON requests against the backend.
//
// Implementations attach the current bearer token, trigger session teardown
// on any 401 before returning, and report failures as *domain.APIError.
type Transport interface {
	Do(ctx context.Context, req Request, out any) error
}

// TokenSource yields the bearer token currently held by whichever storage
// scope has one, or "" when none.
type TokenSource interface {
	Token(ctx context.Context) string
}
