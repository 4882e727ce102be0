// Package parser turns humble schema source into an ast.Spec.
//
// Parsing is purely syntax directed: names are not resolved and embeds are
// left in place for the embed resolver.
package parser

import (
	"errors"
	"strings"

	"github.com/broady/humble/humblegen/ast"
)

// Parse parses a complete schema. The filename is only used in error positions.
// The returned error is a *Error.
func Parse(filename string, src []byte) (spec *ast.Spec, err error) {
	toks, err := newLexer(filename, src).all()
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			spec, err = nil, b.err
		}
	}()
	return p.parseSpec(), nil
}

// bailout carries a syntax error up to Parse.
type bailout struct{ err *Error }

type parser struct {
	toks []token
	i    int
}

func (p *parser) peek() token {
	return p.toks[p.i]
}

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) fail(pos Pos, format string, args ...any) {
	panic(bailout{errorf(pos, format, args...)})
}

func (p *parser) unexpected(t token, want string) {
	p.fail(t.pos, "expected %s, found %s", want, t.describe())
}

func (p *parser) expect(k tokenKind) token {
	t := p.next()
	if t.kind != k {
		p.unexpected(t, k.String())
	}
	return t
}

func (p *parser) accept(k tokenKind) bool {
	if p.peek().kind == k {
		p.next()
		return true
	}
	return false
}

func (p *parser) expectKeyword(kw string) token {
	t := p.next()
	if t.kind != tokWord || t.val != kw {
		p.unexpected(t, `"`+kw+`"`)
	}
	return t
}

// docs consumes consecutive doc comment lines.
func (p *parser) docs() string {
	var lines []string
	for p.peek().kind == tokDoc {
		lines = append(lines, p.next().val)
	}
	return strings.Join(lines, "\n")
}

// noDocs fails if a doc comment appears where none is allowed.
func (p *parser) noDocs() {
	if t := p.peek(); t.kind == tokDoc {
		p.fail(t.pos, "doc comment is not allowed here")
	}
}

func (p *parser) parseSpec() *ast.Spec {
	spec := &ast.Spec{}
	for {
		doc := p.docs()
		t := p.peek()
		if t.kind == tokEOF {
			if doc != "" {
				p.fail(t.pos, "doc comment is not attached to a definition")
			}
			return spec
		}
		if t.kind != tokWord {
			p.unexpected(t, `"struct", "enum" or "service"`)
		}
		switch t.val {
		case "struct":
			spec.Items = append(spec.Items, p.parseStruct(doc))
		case "enum":
			spec.Items = append(spec.Items, p.parseEnum(doc))
		case "service":
			spec.Items = append(spec.Items, p.parseService(doc))
		default:
			p.unexpected(t, `"struct", "enum" or "service"`)
		}
	}
}

func (p *parser) pascal(what string) token {
	t := p.next()
	if t.kind != tokWord || !isPascal(t.val) {
		p.unexpected(t, what+" name in PascalCase")
	}
	return t
}

func (p *parser) snake(what string) token {
	t := p.next()
	if t.kind != tokWord || !isSnake(t.val) {
		p.unexpected(t, what+" name in snake_case")
	}
	return t
}

func (p *parser) parseStruct(doc string) *ast.StructDef {
	kw := p.expectKeyword("struct")
	name := p.pascal("struct")
	p.expect(tokLBrace)
	fields := p.parseFields()
	return &ast.StructDef{Name: name.val, Fields: fields, Doc: doc, Pos: kw.pos.ast()}
}

// parseFields parses the body of a struct after "{" up to and including "}".
func (p *parser) parseFields() []ast.Field {
	fields := []ast.Field{}
	for {
		doc := p.docs()
		if p.peek().kind == tokRBrace {
			if doc != "" {
				p.fail(p.peek().pos, "doc comment is not attached to a field")
			}
			p.next()
			return fields
		}
		fields = append(fields, p.parseField(doc))
		if !p.accept(tokComma) {
			p.noDocs()
			p.expect(tokRBrace)
			return fields
		}
	}
}

func (p *parser) parseField(doc string) ast.Field {
	start := p.peek()
	if p.accept(tokDotDot) {
		target := p.pascal("embedded struct")
		f := ast.NewEmbed(target.val)
		f.Doc = doc
		f.Pos = start.pos.ast()
		return f
	}
	name := p.snake("field")
	p.expect(tokColon)
	typ := p.parseType()
	return ast.Field{
		Kind: ast.FieldNormal,
		Pair: ast.FieldDefPair{Name: name.val, Type: typ},
		Doc:  doc,
		Pos:  start.pos.ast(),
	}
}

func (p *parser) parseEnum(doc string) *ast.EnumDef {
	kw := p.expectKeyword("enum")
	name := p.pascal("enum")
	p.expect(tokLBrace)
	def := &ast.EnumDef{Name: name.val, Doc: doc, Pos: kw.pos.ast(), Variants: []ast.VariantDef{}}
	for {
		vdoc := p.docs()
		if p.peek().kind == tokRBrace {
			if vdoc != "" {
				p.fail(p.peek().pos, "doc comment is not attached to a variant")
			}
			p.next()
			return def
		}
		def.Variants = append(def.Variants, p.parseVariant(vdoc))
		if !p.accept(tokComma) {
			p.noDocs()
			p.expect(tokRBrace)
			return def
		}
	}
}

func (p *parser) parseVariant(doc string) ast.VariantDef {
	name := p.pascal("variant")
	v := ast.VariantDef{Name: name.val, Doc: doc, Pos: name.pos.ast(), Type: ast.SimpleVariant{}}
	switch p.peek().kind {
	case tokLBrace:
		p.next()
		v.Type = &ast.StructVariant{Fields: p.parseFields()}
	case tokLParen:
		p.next()
		elems, trailing := p.parseTypeList()
		if len(elems) == 1 && !trailing {
			v.Type = &ast.NewtypeVariant{Type: elems[0]}
		} else {
			v.Type = &ast.TupleVariant{Tuple: &ast.Tuple{Elems: elems}}
		}
	}
	return v
}

// parseTypeList parses "T1, T2, ... )" after an opening paren. It reports
// whether the list ended with a trailing comma.
func (p *parser) parseTypeList() (elems []ast.TypeIdent, trailing bool) {
	for {
		elems = append(elems, p.parseType())
		if !p.accept(tokComma) {
			p.expect(tokRParen)
			return elems, false
		}
		if p.accept(tokRParen) {
			return elems, true
		}
	}
}

func (p *parser) parseService(doc string) *ast.ServiceDef {
	kw := p.expectKeyword("service")
	name := p.pascal("service")
	p.expect(tokLBrace)
	def := &ast.ServiceDef{Name: name.val, Doc: doc, Pos: kw.pos.ast(), Endpoints: []ast.Endpoint{}}
	for {
		edoc := p.docs()
		if p.peek().kind == tokRBrace {
			if edoc != "" {
				p.fail(p.peek().pos, "doc comment is not attached to an endpoint")
			}
			p.next()
			return def
		}
		def.Endpoints = append(def.Endpoints, p.parseEndpoint(edoc))
		if !p.accept(tokComma) {
			p.noDocs()
			p.expect(tokRBrace)
			return def
		}
	}
}

func (p *parser) parseEndpoint(doc string) ast.Endpoint {
	t := p.next()
	var method ast.Method
	switch {
	case t.kind == tokWord && t.val == "GET":
		method = ast.GET
	case t.kind == tokWord && t.val == "POST":
		method = ast.POST
	case t.kind == tokWord && t.val == "PUT":
		method = ast.PUT
	case t.kind == tokWord && t.val == "PATCH":
		method = ast.PATCH
	case t.kind == tokWord && t.val == "DELETE":
		method = ast.DELETE
	default:
		p.unexpected(t, "HTTP method (GET, POST, PUT, PATCH or DELETE)")
	}

	route := ast.ServiceRoute{Method: method, Components: p.parseRoute()}
	if p.accept(tokQuestion) {
		p.expect(tokLBrace)
		route.Query = p.parseType()
		p.expect(tokRBrace)
	}
	p.expect(tokArrow)
	first := p.parseType()
	if method.HasBody() {
		p.expect(tokArrow)
		route.Body = first
		route.Return = p.parseType()
	} else {
		route.Return = first
	}
	return ast.Endpoint{Doc: doc, Route: route, Pos: t.pos.ast()}
}

// parseRoute parses "/" [ segment { "/" segment } ].
func (p *parser) parseRoute() []ast.Component {
	p.expect(tokSlash)
	comps := []ast.Component{}
	switch p.peek().kind {
	case tokWord, tokLBrace:
	default:
		return comps
	}
	for {
		comps = append(comps, p.parseSegment())
		if p.peek().kind != tokSlash {
			return comps
		}
		p.next()
	}
}

func (p *parser) parseSegment() ast.Component {
	t := p.next()
	switch t.kind {
	case tokWord:
		return ast.LiteralComponent(t.val)
	case tokLBrace:
		name := p.snake("route variable")
		p.expect(tokColon)
		typ := p.parseType()
		p.expect(tokRBrace)
		return ast.VariableComponent(name.val, typ)
	}
	p.unexpected(t, "route segment")
	return ast.Component{}
}

func (p *parser) parseType() ast.TypeIdent {
	t := p.next()
	switch t.kind {
	case tokUnit:
		return &ast.BuiltIn{Atom: ast.Empty}
	case tokLParen:
		elems, _ := p.parseTypeList()
		return &ast.Tuple{Elems: elems}
	case tokWord:
		switch t.val {
		case "list":
			return &ast.List{Elem: p.bracketed()}
		case "option":
			return &ast.Option{Elem: p.bracketed()}
		case "result":
			ok := p.bracketed()
			return &ast.Result{Ok: ok, Err: p.bracketed()}
		case "map":
			k := p.bracketed()
			return &ast.Map{Key: k, Value: p.bracketed()}
		}
		if atom, ok := ast.AtomByName(t.val); ok {
			return &ast.BuiltIn{Atom: atom}
		}
		if isPascal(t.val) {
			return &ast.UserDefined{Name: t.val}
		}
	}
	p.unexpected(t, "type")
	return nil
}

func (p *parser) bracketed() ast.TypeIdent {
	p.expect(tokLBracket)
	typ := p.parseType()
	p.expect(tokRBracket)
	return typ
}

func isPascal(s string) bool {
	if s == "" || s[0] < 'A' || s[0] > 'Z' {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

func isSnake(s string) bool {
	if s == "" || !(s[0] == '_' || s[0] >= 'a' && s[0] <= 'z') {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !(c == '_' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}

// AsError returns err as a *Error if it is one.
func AsError(err error) (*Error, bool) {
	var perr *Error
	ok := errors.As(err, &perr)
	return perr, ok
}
