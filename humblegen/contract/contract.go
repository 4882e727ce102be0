// Package contract compiles a resolved schema into routes and wire codecs.
//
// A Contract is the single source of truth the runtime dispatches against:
// every endpoint becomes a Route with an anchored path pattern, typed path
// parameters, an optional query decoder and the body and return types that
// the canonical JSON codec reads and writes.
package contract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/broady/humble/humblegen/ast"
)

// Contract is a compiled schema. It is immutable and safe for concurrent use.
type Contract struct {
	Spec     *ast.Spec
	Services []*Service

	structs map[string]*ast.StructDef
	enums   map[string]*ast.EnumDef
}

// Service returns the compiled service with the given name, or nil.
func (c *Contract) Service(name string) *Service {
	for _, s := range c.Services {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// Struct returns the struct definition with the given name, or nil.
func (c *Contract) Struct(name string) *ast.StructDef { return c.structs[name] }

// Enum returns the enum definition with the given name, or nil.
func (c *Contract) Enum(name string) *ast.EnumDef { return c.enums[name] }

// Service is a compiled service: its routes in declaration order.
type Service struct {
	Name   string
	Doc    string
	Routes []*Route

	contract *Contract
}

// Contract returns the contract the service was compiled from.
func (s *Service) Contract() *Contract { return s.contract }

// Route returns the route with the given handler name, or nil.
func (s *Service) Route(name string) *Route {
	for _, r := range s.Routes {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// Route is one compiled endpoint.
type Route struct {
	Service string

	// Name identifies the handler: lower-case method, "_", then the snake_case
	// path components joined by "_", e.g. "get_points_id".
	Name   string
	Doc    string
	Method ast.Method

	// Path is the route in schema notation, e.g. "/points/{id}".
	Path string

	// Pattern is the anchored regular expression matched against the path
	// suffix below the service prefix. Each parameter is a named group.
	Pattern string
	Regexp  *regexp.Regexp

	// Params are the path parameters in path order.
	Params []Param

	// Query is nil when the route takes no query.
	Query *Query

	// Body is nil for routes without a request body.
	Body   ast.TypeIdent
	Return ast.TypeIdent
}

// Param is a typed path parameter.
type Param struct {
	Name string
	Atom ast.AtomType
}

// QueryDecoder selects how the raw query string is decoded.
type QueryDecoder int

const (
	// QueryForm decodes key=value pairs into the fields of a struct.
	QueryForm QueryDecoder = iota
	// QueryPrimitive decodes the whole query string as a single value.
	QueryPrimitive
)

func (d QueryDecoder) String() string {
	if d == QueryPrimitive {
		return "primitive"
	}
	return "form"
}

// Query describes the query string of a route.
type Query struct {
	Type    ast.TypeIdent
	Decoder QueryDecoder
}

// Compile type-checks a resolved spec and compiles its services. All problems
// are reported together, joined with errors.Join.
func Compile(spec *ast.Spec) (*Contract, error) {
	c := &Contract{
		Spec:    spec,
		structs: make(map[string]*ast.StructDef),
		enums:   make(map[string]*ast.EnumDef),
	}
	for _, s := range spec.Structs() {
		if _, ok := c.structs[s.Name]; !ok {
			c.structs[s.Name] = s
		}
	}
	for _, e := range spec.Enums() {
		if _, ok := c.enums[e.Name]; !ok {
			c.enums[e.Name] = e
		}
	}

	if err := c.check(); err != nil {
		return nil, err
	}

	for _, def := range spec.Services() {
		svc := &Service{Name: def.Name, Doc: def.Doc, contract: c}
		for _, ep := range def.Endpoints {
			svc.Routes = append(svc.Routes, compileRoute(def.Name, ep))
		}
		c.Services = append(c.Services, svc)
	}
	return c, nil
}

func compileRoute(service string, ep ast.Endpoint) *Route {
	r := ep.Route
	route := &Route{
		Service: service,
		Name:    RouteName(r),
		Doc:     ep.Doc,
		Method:  r.Method,
		Path:    routePath(r),
		Pattern: RoutePattern(r),
		Body:    r.Body,
		Return:  r.Return,
	}
	route.Regexp = regexp.MustCompile(route.Pattern)
	for _, v := range r.Variables() {
		atom, _ := ast.Atom(v.Type)
		route.Params = append(route.Params, Param{Name: v.Name, Atom: atom})
	}
	if r.Query != nil {
		route.Query = &Query{Type: r.Query, Decoder: QueryForm}
	}
	return route
}

// RoutePattern returns the anchored regular expression for a route:
// "/literal" per literal component and "/(?P<name>[^/]+)" per variable.
// A route without components matches only "/".
func RoutePattern(r ast.ServiceRoute) string {
	if len(r.Components) == 0 {
		return "^/$"
	}
	var b strings.Builder
	b.WriteByte('^')
	for _, comp := range r.Components {
		b.WriteByte('/')
		if comp.IsVariable() {
			b.WriteString("(?P<" + comp.Var.Name + ">[^/]+)")
		} else {
			b.WriteString(regexp.QuoteMeta(comp.Literal))
		}
	}
	b.WriteByte('$')
	return b.String()
}

// RouteName returns the handler name of a route, e.g. "get_monsters_id".
// The route "/" is named after its method alone.
func RouteName(r ast.ServiceRoute) string {
	parts := make([]string, 0, len(r.Components))
	for _, comp := range r.Components {
		if comp.IsVariable() {
			parts = append(parts, comp.Var.Name)
		} else {
			parts = append(parts, comp.Literal)
		}
	}
	name := strings.ToLower(string(r.Method))
	if stem := snakeCase(strings.Join(parts, "_")); stem != "" {
		name += "_" + stem
	}
	return name
}

func routePath(r ast.ServiceRoute) string {
	if len(r.Components) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, comp := range r.Components {
		b.WriteByte('/')
		if comp.IsVariable() {
			b.WriteString("{" + comp.Var.Name + "}")
		} else {
			b.WriteString(comp.Literal)
		}
	}
	return b.String()
}

// snakeCase lower-cases s, splitting words at separators and at lower to
// upper case transitions: "monster-List" and "monsterList" both become
// "monster_list".
func snakeCase(s string) string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	var prev rune
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r):
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				flush()
			}
			cur = append(cur, unicode.ToLower(r))
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return strings.Join(words, "_")
}
