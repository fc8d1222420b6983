// Package middleware provides HTTP middleware shared across service endpoints.
package middleware

import "net/http"

// Chain applies middleware to handler in declaration order: the first
// middleware in the list is the outermost wrapper.
func Chain(handler http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		handler = mws[i](handler)
	}
	return handler
}
