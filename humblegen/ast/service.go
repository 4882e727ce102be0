package ast

// Method is the HTTP method of a route.
type Method string

const (
	GET    Method = "GET"
	POST   Method = "POST"
	PUT    Method = "PUT"
	PATCH  Method = "PATCH"
	DELETE Method = "DELETE"
)

// HasBody reports whether routes with this method carry a request body.
func (m Method) HasBody() bool {
	return m == POST || m == PUT || m == PATCH
}

// ServiceDef represents a group of related endpoints.
//
//	/// Monster management service.
//	service MonsterApi {
//	    GET  /monsters -> list[Monster],
//	    POST /monsters -> MonsterData -> result[Monster][MonsterError],
//	}
type ServiceDef struct {
	Name      string
	Doc       string
	Endpoints []Endpoint
	Pos       Pos
}

func (d *ServiceDef) ItemName() string { return d.Name }
func (d *ServiceDef) Src() Pos         { return d.Pos }
func (*ServiceDef) sealed()            {}

func (d *ServiceDef) clone() *ServiceDef {
	out := &ServiceDef{Name: d.Name, Doc: d.Doc, Pos: d.Pos, Endpoints: make([]Endpoint, len(d.Endpoints))}
	for i, e := range d.Endpoints {
		r := e.Route
		comps := make([]Component, len(r.Components))
		for j, c := range r.Components {
			comps[j] = c
			if c.Var != nil {
				comps[j].Var = &FieldDefPair{Name: c.Var.Name, Type: CloneType(c.Var.Type)}
			}
		}
		out.Endpoints[i] = Endpoint{
			Doc: e.Doc,
			Pos: e.Pos,
			Route: ServiceRoute{
				Method:     r.Method,
				Components: comps,
				Query:      CloneType(r.Query),
				Body:       CloneType(r.Body),
				Return:     CloneType(r.Return),
			},
		}
	}
	return out
}

// Endpoint is one route of a service together with its documentation.
type Endpoint struct {
	Doc   string
	Route ServiceRoute
	Pos   Pos
}

// ServiceRoute describes method, path and type bindings of an endpoint.
//
//	GET  /monsters/{id: i32}?{MonsterQuery} -> Monster
//	POST /monsters -> MonsterData -> result[Monster][MonsterError]
type ServiceRoute struct {
	Method     Method
	Components []Component

	// Query is the query type, or nil if the route declares none.
	Query TypeIdent

	// Body is the request body type. Always nil for GET and DELETE.
	Body TypeIdent

	// Return is the response type.
	Return TypeIdent
}

// Variables returns the route variables in declaration order.
func (r *ServiceRoute) Variables() []FieldDefPair {
	var out []FieldDefPair
	for _, c := range r.Components {
		if c.Var != nil {
			out = append(out, *c.Var)
		}
	}
	return out
}

// Component is one path segment: a literal when Var is nil, otherwise a
// variable capturing a single segment.
type Component struct {
	Literal string
	Var     *FieldDefPair
}

// IsVariable reports whether the component captures a path segment.
func (c Component) IsVariable() bool {
	return c.Var != nil
}

// LiteralComponent returns a literal path segment.
func LiteralComponent(s string) Component {
	return Component{Literal: s}
}

// VariableComponent returns a capturing path segment.
func VariableComponent(name string, t TypeIdent) Component {
	return Component{Var: &FieldDefPair{Name: name, Type: t}}
}
