package humble

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
)

// Builder mounts services under path prefixes and produces the HTTP handler
// that dispatches requests to them.
//
//	points := humble.NewService[User](c.Service("Points")).
//	    WithInterceptor(auth).
//	    Handle("get_points_id", getPoint)
//	h := humble.NewBuilder().Add("/api", points).Handler()
type Builder struct {
	mounts             []mount
	errorTransformer   ErrorTransformer
	maskInternalErrors bool
	middlewares        []func(http.Handler) http.Handler
	logger             *slog.Logger
	observer           Observer
	maxRequestBodySize uint64

	once    sync.Once
	handler http.Handler
}

type mount struct {
	prefix  string
	pattern *regexp.Regexp
	svc     Mountable
}

func NewBuilder() *Builder {
	return &Builder{
		maxRequestBodySize: 1 << 20, // 1MB default
	}
}

// WithErrorTransformer adds a custom error transformer.
// It returns the builder for chaining.
func (b *Builder) WithErrorTransformer(fn ErrorTransformer) *Builder {
	b.errorTransformer = fn
	return b
}

// WithMaskInternalErrors enables masking of internal error messages.
// This is useful in production to avoid leaking sensitive information.
// The original error is still logged.
func (b *Builder) WithMaskInternalErrors() *Builder {
	b.maskInternalErrors = true
	return b
}

// WithMiddleware adds an HTTP middleware to wrap the handler.
// Middleware is applied in the order added (first added is outermost).
func (b *Builder) WithMiddleware(mw func(http.Handler) http.Handler) *Builder {
	b.middlewares = append(b.middlewares, mw)
	return b
}

// WithLogger sets a custom logger.
// If not set, slog.Default() will be used.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithObserver sets the observer notified after every request.
func (b *Builder) WithObserver(o Observer) *Builder {
	b.observer = o
	return b
}

// WithMaxRequestBodySize sets the maximum request body size.
// A value of 0 means no limit. Default is 1MB (1 << 20).
func (b *Builder) WithMaxRequestBodySize(size uint64) *Builder {
	b.maxRequestBodySize = size
	return b
}

// Add mounts svc under prefix. The prefix must start with "/" and must not
// end with "/"; the empty prefix mounts at the root. Add panics on an
// invalid prefix or when called after Handler.
func (b *Builder) Add(prefix string, svc Mountable) *Builder {
	if b.handler != nil {
		panic("humble: Add called after Handler")
	}
	if prefix != "" && (!strings.HasPrefix(prefix, "/") || strings.HasSuffix(prefix, "/")) {
		panic(fmt.Sprintf("humble: invalid mount prefix %q: must start with / and not end with /", prefix))
	}
	if svc == nil {
		panic("humble: Add called with nil service")
	}
	b.mounts = append(b.mounts, mount{
		prefix:  prefix,
		pattern: regexp.MustCompile(`^(?P<root>` + regexp.QuoteMeta(escapePrefix(prefix)) + `)(?P<suffix>/.*)$`),
		svc:     svc,
	})
	return b
}

// escapePrefix percent-encodes prefix the way URL.EscapedPath encodes request
// paths, which is what the mount pattern is matched against.
func escapePrefix(prefix string) string {
	return (&url.URL{Path: prefix}).EscapedPath()
}

// Handler returns an http.Handler for use with http.ListenAndServe or other
// HTTP servers. The returned handler includes all configured middleware.
// The dispatch table is built on the first call; later calls return the same
// handler.
func (b *Builder) Handler() http.Handler {
	b.once.Do(func() {
		d := b.newDispatcher()
		var h http.Handler = d
		// Apply middleware in reverse order so first added is outermost
		for i := len(b.middlewares) - 1; i >= 0; i-- {
			h = b.middlewares[i](h)
		}
		b.handler = h
	})
	return b.handler
}

func (b *Builder) newDispatcher() *dispatcher {
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := b.observer
	if observer == nil {
		observer = NoopObserver
	}
	d := &dispatcher{
		logger:             logger,
		observer:           observer,
		errorTransformer:   b.errorTransformer,
		maskInternalErrors: b.maskInternalErrors,
		maxRequestBodySize: b.maxRequestBodySize,
	}
	for _, m := range b.mounts {
		bs := m.svc.bind()
		for _, name := range bs.replaced {
			logger.Warn("duplicate handler registration",
				slog.String("service", bs.def.Name),
				slog.String("route", name))
		}
		for _, r := range bs.routes {
			if r.handle == nil {
				logger.Warn("route has no handler",
					slog.String("service", bs.def.Name),
					slog.String("route", r.route.Name),
					slog.String("prefix", m.prefix))
			}
		}
		d.services = append(d.services, &mountedService{
			prefix:  m.prefix,
			pattern: m.pattern,
			svc:     bs,
		})
	}
	return d
}
