// Package kit holds the small transport toolkit shared by the HTTP and MCP
// control surfaces: the Endpoint abstraction, middleware chaining, and
// request-scoped context values.
package kit

import "context"

// Endpoint is a transport-agnostic request handler. Both the HTTP routes
// and the MCP tools decode into the same endpoints.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares left to right: the first listed runs outermost.
func Chain(mw ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mw) - 1; i >= 0; i-- {
			next = mw[i](next)
		}
		return next
	}
}
