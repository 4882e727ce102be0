package contract

import (
	"errors"
	"fmt"

	"github.com/broady/humble/humblegen/ast"
)

// check validates the spec and returns every problem found, joined.
func (c *Contract) check() error {
	ck := &checker{c: c}
	ck.definitions()
	for _, s := range c.Spec.Structs() {
		ck.fields(s.Pos, "struct "+s.Name, s.Fields)
	}
	for _, e := range c.Spec.Enums() {
		ck.enum(e)
	}
	for _, s := range c.Spec.Services() {
		ck.service(s)
	}
	return errors.Join(ck.errs...)
}

type checker struct {
	c    *Contract
	errs []error
}

func (ck *checker) errorf(pos ast.Pos, sentinel error, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if !pos.IsZero() {
		msg = pos.String() + ": " + msg
	}
	ck.errs = append(ck.errs, fmt.Errorf("%w: %s", sentinel, msg))
}

// definitions reports type and service names declared more than once.
// Structs and enums share one namespace. This is an intentional tightening:
// the parser and embed resolver accept duplicate names, the compiler does not.
func (ck *checker) definitions() {
	types := make(map[string]bool)
	services := make(map[string]bool)
	for _, it := range ck.c.Spec.Items {
		seen := types
		if _, ok := it.(*ast.ServiceDef); ok {
			seen = services
		}
		if seen[it.ItemName()] {
			ck.errorf(it.Src(), ErrDuplicateDefinition, "%s is declared more than once", it.ItemName())
		}
		seen[it.ItemName()] = true
	}
}

func (ck *checker) fields(pos ast.Pos, owner string, fields []ast.Field) {
	for _, f := range fields {
		p := f.Pos
		if p.IsZero() {
			p = pos
		}
		if f.IsEmbed() {
			ck.errorf(p, ErrUnresolvedEmbed, "%s embeds %s", owner, f.Pair.Name)
			continue
		}
		ck.typ(p, owner+" field "+f.Pair.Name, f.Pair.Type)
	}
}

func (ck *checker) enum(e *ast.EnumDef) {
	seen := make(map[string]bool)
	for _, v := range e.Variants {
		where := "enum " + e.Name + " variant " + v.Name
		if seen[v.Name] {
			ck.errorf(v.Pos, ErrDuplicateDefinition, "%s is declared more than once", where)
		}
		seen[v.Name] = true
		switch vt := v.Type.(type) {
		case *ast.TupleVariant:
			ck.typ(v.Pos, where, vt.Tuple)
		case *ast.StructVariant:
			ck.fields(v.Pos, where, vt.Fields)
		case *ast.NewtypeVariant:
			ck.typ(v.Pos, where, vt.Type)
		}
	}
}

// typ checks every reference and map key inside t.
func (ck *checker) typ(pos ast.Pos, where string, t ast.TypeIdent) {
	ast.Walk(t, func(t ast.TypeIdent) bool {
		switch t := t.(type) {
		case *ast.UserDefined:
			if ck.c.structs[t.Name] == nil && ck.c.enums[t.Name] == nil {
				ck.errorf(pos, ErrUnresolvedTypeReference, "%s references unknown type %s", where, t.Name)
			}
		case *ast.Map:
			if atom, ok := ast.Atom(t.Key); !ok || !atom.IsStringLike() {
				ck.errorf(pos, ErrInvalidMapKey, "%s uses %s as map key, want str, uuid or bytes", where, t.Key)
			}
		}
		return true
	})
}

func (ck *checker) service(s *ast.ServiceDef) {
	names := make(map[string]bool)
	for _, ep := range s.Endpoints {
		r := ep.Route
		where := fmt.Sprintf("service %s route %s %s", s.Name, r.Method, routePath(r))

		if name := RouteName(r); names[name] {
			ck.errorf(ep.Pos, ErrDuplicateRouteName, "%s: handler name %s is already taken", where, name)
		} else {
			names[name] = true
		}

		params := make(map[string]bool)
		for _, v := range r.Variables() {
			if params[v.Name] {
				ck.errorf(ep.Pos, ErrDuplicateRouteParam, "%s captures %s twice", where, v.Name)
			}
			params[v.Name] = true
			if atom, ok := ast.Atom(v.Type); !ok || atom == ast.Empty {
				ck.errorf(ep.Pos, ErrInvalidRouteParam, "%s: parameter %s has type %s, want a non-empty atom", where, v.Name, v.Type)
			}
		}

		if r.Query != nil {
			ud, ok := r.Query.(*ast.UserDefined)
			switch {
			case !ok:
				ck.errorf(ep.Pos, ErrInvalidQueryType, "%s: query type %s is not a struct", where, r.Query)
			case ck.c.structs[ud.Name] == nil && ck.c.enums[ud.Name] == nil:
				ck.errorf(ep.Pos, ErrUnresolvedTypeReference, "%s query references unknown type %s", where, ud.Name)
			case ck.c.structs[ud.Name] == nil:
				ck.errorf(ep.Pos, ErrInvalidQueryType, "%s: query type %s is not a struct", where, ud.Name)
			}
		}
		if r.Body != nil {
			ck.typ(ep.Pos, where+" body", r.Body)
		}
		ck.typ(ep.Pos, where+" return", r.Return)
	}
}
