package humble

import (
	"context"
	"net/http"
)

// Interceptor runs after the request decoded and before the handler. It
// derives the per-request context value C handed to every handler of the
// service, typically the authenticated caller.
//
// Returning an error rejects the request. Wrap ErrAuthentication or
// ErrAuthorization to answer 401 or 403:
//
//	func auth(ctx context.Context, r *http.Request) (User, error) {
//	    u, ok := lookup(r.Header.Get("Authorization"))
//	    if !ok {
//	        return User{}, fmt.Errorf("%w: unknown token", humble.ErrAuthentication)
//	    }
//	    return u, nil
//	}
//
// Any other error is mapped by the error transformer, internal by default.
type Interceptor[C any] func(ctx context.Context, r *http.Request) (C, error)

// defaultInterceptor yields the zero context.
func defaultInterceptor[C any](context.Context, *http.Request) (C, error) {
	var zero C
	return zero, nil
}
