package humble

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"runtime/debug"
	"time"

	"github.com/broady/humble/humblegen/contract"
)

// dispatcher is the immutable dispatch table built by Builder.Handler.
//
// Matching runs in two tiers and each tier is exhaustive: every mounted
// service prefix is tried against the path, then every route of the single
// matching service against the method and the remaining suffix. Zero matches
// answer 404 and more than one answer 500, so overlapping mounts are reported
// instead of resolved by registration order.
type dispatcher struct {
	services           []*mountedService
	logger             *slog.Logger
	observer           Observer
	errorTransformer   ErrorTransformer
	maskInternalErrors bool
	maxRequestBodySize uint64
}

type mountedService struct {
	prefix  string
	pattern *regexp.Regexp
	svc     *boundService
}

func (d *dispatcher) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	requestID := newRequestID()
	w.Header().Set(RequestIDHeader, requestID)
	w.Header().Set("Content-Type", contentTypeJSON)

	logger := d.logger.With(slog.String("request_id", requestID))
	info := &EndpointInfo{Method: req.Method, Path: req.URL.Path}
	ctx := withEndpoint(withRequest(req.Context(), w, req, requestID), info)
	req = req.WithContext(ctx)

	result := ResultOK
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("PANIC recovered",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())))
			result = d.fail(w, NewError(CodeInternal, fmt.Sprintf("internal server error (panic): %v", rec)), logger)
		}
		d.observer.Request(info.Service, info.Route, result, time.Since(start))
	}()

	body, svcErr := d.serve(ctx, req, info, logger)
	if svcErr != nil {
		result = d.fail(w, svcErr, logger)
		return
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logger.Debug("failed to write response", slog.Any("error", err))
	}
}

// serve decodes the request, runs the interceptor and the handler, and
// returns the encoded response.
func (d *dispatcher) serve(ctx context.Context, req *http.Request, info *EndpointInfo, logger *slog.Logger) ([]byte, *Error) {
	svc, suffix, svcErr := d.matchService(req.URL.EscapedPath())
	if svcErr != nil {
		logger.Debug("no unique service", slog.String("path", req.URL.Path), slog.String("code", string(svcErr.Code)))
		return nil, svcErr
	}
	info.Service = svc.svc.def.Name
	logger = logger.With(slog.String("service", info.Service))
	logger.Debug("service matched", slog.String("prefix", svc.prefix), slog.String("suffix", suffix))

	br, captures, svcErr := svc.matchRoute(req.Method, suffix)
	if svcErr != nil {
		logger.Debug("no unique route", slog.String("method", req.Method), slog.String("code", string(svcErr.Code)))
		return nil, svcErr
	}
	route := br.route
	info.Route = route.Name
	logger = logger.With(slog.String("route", route.Name))
	logger.Debug("route matched", slog.String("pattern", route.Pattern))

	c := svc.svc.def.Contract()
	call := &Call{Route: route, Params: make(map[string]any, len(route.Params)), rawQuery: req.URL.Query()}

	// Path parameters decode before the query and the body are looked at.
	for _, p := range route.Params {
		raw := captures[route.Regexp.SubexpIndex(p.Name)]
		text, err := url.PathUnescape(raw)
		if err != nil {
			return nil, Errorf(CodeRouteParamInvalid, "path parameter %s: %v", p.Name, err).WithDetail("param", p.Name)
		}
		v, err := contract.ParseParam(p.Atom, text)
		if err != nil {
			return nil, Errorf(CodeRouteParamInvalid, "path parameter %s: %v", p.Name, err).WithDetail("param", p.Name)
		}
		call.Params[p.Name] = v
	}

	if q := route.Query; q != nil && req.URL.RawQuery != "" {
		var v any
		var err error
		switch q.Decoder {
		case contract.QueryPrimitive:
			v, err = c.DecodeQueryPrimitive(q.Type, req.URL.RawQuery)
		default:
			v, err = c.DecodeQuery(q.Type, req.URL.RawQuery)
		}
		if err != nil {
			return nil, Errorf(CodeQueryInvalid, "query: %v", err)
		}
		call.Query = v
	}

	if route.Body != nil {
		data, svcErr := d.readBody(req)
		if svcErr != nil {
			return nil, svcErr
		}
		v, err := c.Decode(route.Body, data)
		if err != nil {
			return nil, Errorf(CodePostBodyInvalid, "body: %v", err)
		}
		call.Body = v
		call.rawBody = data
	}

	cv, err := br.intercept(ctx, req)
	if err != nil {
		logger.Info("interceptor rejected request", slog.Any("error", err))
		return nil, d.transform(err)
	}

	if br.handle == nil {
		logger.Warn("request for route without handler")
		return nil, Errorf(CodeNotImplemented, "%s.%s is not implemented", info.Service, route.Name)
	}
	res, err := br.handle(ctx, cv, call)
	if err != nil {
		logger.Error("handler returned error", slog.Any("error", err))
		return nil, d.transform(err)
	}

	data, err := c.Encode(route.Return, res)
	if err != nil {
		logger.Error("cannot serialize handler response", slog.Any("error", err))
		return nil, NewError(CodeSerializeHandlerResponse, err.Error())
	}
	return data, nil
}

func (d *dispatcher) matchService(path string) (*mountedService, string, *Error) {
	var hit *mountedService
	var suffix string
	var names []string
	for _, s := range d.services {
		m := s.pattern.FindStringSubmatch(path)
		if m == nil {
			continue
		}
		hit, suffix = s, m[s.pattern.SubexpIndex("suffix")]
		names = append(names, s.svc.def.Name+"@"+s.prefix)
	}
	switch len(names) {
	case 0:
		return nil, "", Errorf(CodeNoServiceMounted, "no service mounted at %s", path)
	case 1:
		return hit, suffix, nil
	}
	return nil, "", Errorf(CodeServiceMountsAmbiguous, "%d services match %s", len(names), path).
		WithDetail("services", names)
}

func (s *mountedService) matchRoute(method, suffix string) (*boundRoute, []string, *Error) {
	var hit *boundRoute
	var captures []string
	var names []string
	for i := range s.svc.routes {
		br := &s.svc.routes[i]
		if string(br.route.Method) != method {
			continue
		}
		m := br.route.Regexp.FindStringSubmatch(suffix)
		if m == nil {
			continue
		}
		hit, captures = br, m
		names = append(names, br.route.Name)
	}
	switch len(names) {
	case 0:
		return nil, nil, Errorf(CodeNoRouteMountedInService, "service %s has no route %s %s", s.svc.def.Name, method, suffix)
	case 1:
		return hit, captures, nil
	}
	return nil, nil, Errorf(CodeRouteMountsAmbiguous, "%d routes of %s match %s %s", len(names), s.svc.def.Name, method, suffix).
		WithDetail("routes", names)
}

func (d *dispatcher) readBody(req *http.Request) ([]byte, *Error) {
	if req.Body == nil {
		return nil, NewError(CodePostBodyInvalid, "request has no body")
	}
	var r io.Reader = req.Body
	if d.maxRequestBodySize > 0 {
		r = io.LimitReader(req.Body, int64(d.maxRequestBodySize)+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Errorf(CodePostBodyInvalid, "reading body: %v", err)
	}
	if d.maxRequestBodySize > 0 && uint64(len(data)) > d.maxRequestBodySize {
		return nil, Errorf(CodePostBodyInvalid, "request body exceeds %d bytes", d.maxRequestBodySize).
			WithDetail("limit", d.maxRequestBodySize)
	}
	return data, nil
}

func (d *dispatcher) transform(err error) *Error {
	var svcErr *Error
	if d.errorTransformer != nil {
		svcErr = d.errorTransformer(err)
	}
	if svcErr == nil {
		svcErr = DefaultErrorTransformer(err)
	}
	return svcErr
}

// fail writes svcErr and returns its code as observer result.
func (d *dispatcher) fail(w http.ResponseWriter, svcErr *Error, logger *slog.Logger) string {
	if d.maskInternalErrors && svcErr.Code == CodeInternal {
		masked := *svcErr
		masked.Message = "internal server error"
		masked.Details = nil
		svcErr = &masked
	}
	writeError(w, svcErr, logger)
	return string(svcErr.Code)
}
