package humble

import (
	"context"
	"net/http"
)

type contextKey struct {
	name string
}

var (
	requestKey   = &contextKey{"request"}
	writerKey    = &contextKey{"writer"}
	endpointKey  = &contextKey{"endpoint"}
	requestIDKey = &contextKey{"request_id"}
)

// EndpointInfo identifies the route serving a request.
type EndpointInfo struct {
	Service string
	Route   string
	Method  string
	Path    string
}

// RequestFromContext returns the HTTP request from the context.
func RequestFromContext(ctx context.Context) *http.Request {
	if r, ok := ctx.Value(requestKey).(*http.Request); ok {
		return r
	}
	return nil
}

// SetHeader sets an HTTP response header.
// It requires that the handler was called by a Builder handler.
func SetHeader(ctx context.Context, key, value string) {
	if w, ok := ctx.Value(writerKey).(http.ResponseWriter); ok {
		w.Header().Set(key, value)
	}
}

// EndpointFromContext returns the matched service and route.
func EndpointFromContext(ctx context.Context) (EndpointInfo, bool) {
	info, ok := ctx.Value(endpointKey).(*EndpointInfo)
	if !ok {
		return EndpointInfo{}, false
	}
	return *info, true
}

// RequestIDFromContext returns the Request-ID assigned to the request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func withRequest(ctx context.Context, w http.ResponseWriter, r *http.Request, requestID string) context.Context {
	ctx = context.WithValue(ctx, writerKey, w)
	ctx = context.WithValue(ctx, requestKey, r)
	ctx = context.WithValue(ctx, requestIDKey, requestID)
	return ctx
}

func withEndpoint(ctx context.Context, info *EndpointInfo) context.Context {
	return context.WithValue(ctx, endpointKey, info)
}
