package humble

import (
	"context"
	"fmt"
	"net/http"

	"github.com/broady/humble/humblegen/contract"
)

// HandlerFunc implements one route. c is the value produced by the service's
// Interceptor. The returned value is encoded with the route's return type.
type HandlerFunc[C any] func(ctx context.Context, c C, call *Call) (any, error)

// Mountable is a service that can be added to a Builder. Only *Service
// values implement it.
type Mountable interface {
	bind() *boundService
}

// Service binds handlers to the routes of a compiled service.
// Handlers are stored by route position, in the order the contract declares
// the routes.
type Service[C any] struct {
	def         *contract.Service
	handlers    []HandlerFunc[C]
	interceptor Interceptor[C]
	replaced    []string
}

// NewService returns a service for def with no handlers and the default
// interceptor, which yields the zero C.
func NewService[C any](def *contract.Service) *Service[C] {
	if def == nil {
		panic("humble: NewService called with nil service")
	}
	return &Service[C]{
		def:         def,
		handlers:    make([]HandlerFunc[C], len(def.Routes)),
		interceptor: defaultInterceptor[C],
	}
}

// Handle sets the handler for the route with the given name, such as
// "get_points_id". It panics if the service has no such route.
func (s *Service[C]) Handle(name string, fn HandlerFunc[C]) *Service[C] {
	if fn == nil {
		panic(fmt.Sprintf("humble: nil handler for %s.%s", s.def.Name, name))
	}
	for i, r := range s.def.Routes {
		if r.Name == name {
			if s.handlers[i] != nil {
				s.replaced = append(s.replaced, name)
			}
			s.handlers[i] = fn
			return s
		}
	}
	panic(fmt.Sprintf("humble: service %s has no route %q", s.def.Name, name))
}

// WithInterceptor sets the interceptor run before every handler of the service.
func (s *Service[C]) WithInterceptor(i Interceptor[C]) *Service[C] {
	if i == nil {
		i = defaultInterceptor[C]
	}
	s.interceptor = i
	return s
}

// boundService is a Service with its context type erased.
type boundService struct {
	def      *contract.Service
	routes   []boundRoute
	replaced []string
}

type boundRoute struct {
	route     *contract.Route
	intercept func(ctx context.Context, r *http.Request) (any, error)
	// handle is nil when no handler was registered.
	handle func(ctx context.Context, c any, call *Call) (any, error)
}

func (s *Service[C]) bind() *boundService {
	intercept := s.interceptor
	b := &boundService{def: s.def, replaced: append([]string(nil), s.replaced...)}
	for i, r := range s.def.Routes {
		br := boundRoute{
			route: r,
			intercept: func(ctx context.Context, req *http.Request) (any, error) {
				return intercept(ctx, req)
			},
		}
		if h := s.handlers[i]; h != nil {
			br.handle = func(ctx context.Context, c any, call *Call) (any, error) {
				cv, _ := c.(C)
				return h(ctx, cv, call)
			}
		}
		b.routes = append(b.routes, br)
	}
	return b
}
