// Package openapi exports a compiled contract as an OpenAPI 3.0 document.
//
// Structs and enums become component schemas, every route becomes one
// operation whose operationId is "<Service>.<route>". Enums follow the wire
// shape of the contract codec: simple variants are strings, the others are
// single-key objects. Results are {"Ok": v} or {"Err": e}.
package openapi

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/broady/humble/humblegen/ast"
	"github.com/broady/humble/humblegen/contract"
)

const schemaPrefix = "#/components/schemas/"

// errorSchemaName names the schema of the {"error": {...}} document.
const errorSchemaName = "ErrorResponse"

// Options configures the exported document.
type Options struct {
	Title   string
	Version string
	// Mounts maps service names to the prefix they are added under.
	// Unlisted services are documented at the root.
	Mounts map[string]string
}

// Build converts c into an OpenAPI document.
func Build(c *contract.Contract, opts Options) (*openapi3.T, error) {
	if opts.Title == "" {
		opts.Title = "humble API"
	}
	if opts.Version == "" {
		opts.Version = "0.0.0"
	}
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   opts.Title,
			Version: opts.Version,
		},
		Paths: openapi3.Paths{},
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{},
		},
	}

	b := &builder{c: c}
	for _, s := range c.Spec.Structs() {
		obj, err := b.object(s.Fields)
		if err != nil {
			return nil, fmt.Errorf("struct %s: %w", s.Name, err)
		}
		obj.Description = s.Doc
		doc.Components.Schemas[s.Name] = openapi3.NewSchemaRef("", obj)
	}
	for _, e := range c.Spec.Enums() {
		schema, err := b.enum(e)
		if err != nil {
			return nil, fmt.Errorf("enum %s: %w", e.Name, err)
		}
		doc.Components.Schemas[e.Name] = openapi3.NewSchemaRef("", schema)
	}
	doc.Components.Schemas[errorSchemaName] = openapi3.NewSchemaRef("", errorSchema())

	for _, svc := range c.Services {
		prefix := opts.Mounts[svc.Name]
		for _, r := range svc.Routes {
			op, err := b.operation(r)
			if err != nil {
				return nil, fmt.Errorf("route %s.%s: %w", svc.Name, r.Name, err)
			}
			doc.AddOperation(prefix+r.Path, string(r.Method), op)
		}
	}
	return doc, nil
}

// JSON renders doc as indented JSON.
func JSON(doc *openapi3.T) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// YAML renders doc as block-style YAML, keeping the key order of the JSON form.
func YAML(doc *openapi3.T) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	blockStyle(&node)
	return yaml.Marshal(&node)
}

// blockStyle drops the flow and quoting styles yaml.v3 keeps from JSON
// input. Strings that need quotes are still quoted by the encoder.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

type builder struct {
	c *contract.Contract
}

func (b *builder) operation(r *contract.Route) (*openapi3.Operation, error) {
	op := openapi3.NewOperation()
	op.OperationID = r.Service + "." + r.Name
	op.Tags = []string{r.Service}
	op.Description = r.Doc
	op.Responses = openapi3.Responses{}

	for _, p := range r.Params {
		schema, err := atomSchema(p.Atom)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		op.AddParameter(openapi3.NewPathParameter(p.Name).WithSchema(schema))
	}

	if r.Query != nil {
		params, err := b.queryParameters(r.Query.Type)
		if err != nil {
			return nil, err
		}
		for _, p := range params {
			op.AddParameter(p)
		}
	}

	if r.Body != nil {
		ref, err := b.schema(r.Body)
		if err != nil {
			return nil, fmt.Errorf("body: %w", err)
		}
		body := openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(ref)
		op.RequestBody = &openapi3.RequestBodyRef{Value: body}
	}

	ret, err := b.schema(r.Return)
	if err != nil {
		return nil, fmt.Errorf("return: %w", err)
	}
	op.AddResponse(http.StatusOK, openapi3.NewResponse().
		WithDescription("Success.").
		WithJSONSchemaRef(ret))
	errRef := openapi3.NewSchemaRef(schemaPrefix+errorSchemaName, nil)
	op.Responses["default"] = &openapi3.ResponseRef{Value: openapi3.NewResponse().
		WithDescription("Routing, request or service error.").
		WithJSONSchemaRef(errRef)}
	return op, nil
}

// queryParameters expands the query struct into one parameter per field.
func (b *builder) queryParameters(t ast.TypeIdent) ([]*openapi3.Parameter, error) {
	u, ok := t.(*ast.UserDefined)
	if !ok {
		return nil, fmt.Errorf("query type %s is not a struct", t)
	}
	s := b.c.Struct(u.Name)
	if s == nil {
		return nil, fmt.Errorf("query type %s is not a struct", t)
	}
	var out []*openapi3.Parameter
	for _, f := range s.Fields {
		ft := f.Pair.Type
		required := true
		if opt, isOpt := ft.(*ast.Option); isOpt {
			ft, required = opt.Elem, false
		}
		ref, err := b.schema(ft)
		if err != nil {
			return nil, fmt.Errorf("query field %s: %w", f.Pair.Name, err)
		}
		p := openapi3.NewQueryParameter(f.Pair.Name).WithRequired(required)
		// Non-atom fields travel as one JSON value.
		if atom, isAtom := ast.Atom(ft); isAtom && atom != ast.Empty {
			p.Schema = ref
		} else {
			p.Content = openapi3.NewContentWithJSONSchemaRef(ref)
		}
		p.Description = f.Doc
		out = append(out, p)
	}
	return out, nil
}

func (b *builder) schema(t ast.TypeIdent) (*openapi3.SchemaRef, error) {
	switch t := t.(type) {
	case *ast.BuiltIn:
		s, err := atomSchema(t.Atom)
		if err != nil {
			return nil, err
		}
		return s.NewRef(), nil
	case *ast.UserDefined:
		if b.c.Struct(t.Name) == nil && b.c.Enum(t.Name) == nil {
			return nil, fmt.Errorf("%w: %s", contract.ErrUnresolvedTypeReference, t.Name)
		}
		return openapi3.NewSchemaRef(schemaPrefix+t.Name, nil), nil
	case *ast.Option:
		elem, err := b.schema(t.Elem)
		if err != nil {
			return nil, err
		}
		s := &openapi3.Schema{Nullable: true}
		if elem.Ref != "" {
			s.AllOf = openapi3.SchemaRefs{elem}
		} else {
			cp := *elem.Value
			cp.Nullable = true
			s = &cp
		}
		return s.NewRef(), nil
	case *ast.List:
		elem, err := b.schema(t.Elem)
		if err != nil {
			return nil, err
		}
		s := openapi3.NewArraySchema()
		s.Items = elem
		return s.NewRef(), nil
	case *ast.Tuple:
		s := openapi3.NewArraySchema().
			WithMinItems(int64(len(t.Elems))).
			WithMaxItems(int64(len(t.Elems)))
		var elems openapi3.SchemaRefs
		for _, e := range t.Elems {
			ref, err := b.schema(e)
			if err != nil {
				return nil, err
			}
			elems = append(elems, ref)
		}
		if len(elems) == 1 {
			s.Items = elems[0]
		} else {
			s.Items = openapi3.NewOneOfSchema().NewRef()
			s.Items.Value.OneOf = elems
		}
		s.Description = "tuple " + t.String()
		return s.NewRef(), nil
	case *ast.Map:
		value, err := b.schema(t.Value)
		if err != nil {
			return nil, err
		}
		vs := value.Value
		if value.Ref != "" {
			vs = &openapi3.Schema{AllOf: openapi3.SchemaRefs{value}}
		}
		return openapi3.NewObjectSchema().WithAdditionalProperties(vs).NewRef(), nil
	case *ast.Result:
		ok, err := b.schema(t.Ok)
		if err != nil {
			return nil, err
		}
		bad, err := b.schema(t.Err)
		if err != nil {
			return nil, err
		}
		s := openapi3.NewOneOfSchema(tagged("Ok", ok), tagged("Err", bad))
		return s.NewRef(), nil
	}
	return nil, fmt.Errorf("unsupported type %v", t)
}

func (b *builder) object(fields []ast.Field) (*openapi3.Schema, error) {
	obj := openapi3.NewObjectSchema()
	for _, f := range fields {
		if f.IsEmbed() {
			return nil, fmt.Errorf("%w: %s", contract.ErrUnresolvedEmbed, f.Pair.Name)
		}
		ref, err := b.schema(f.Pair.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Pair.Name, err)
		}
		if f.Doc != "" && ref.Ref == "" {
			ref.Value.Description = f.Doc
		}
		obj.WithPropertyRef(f.Pair.Name, ref)
		if _, isOpt := f.Pair.Type.(*ast.Option); !isOpt {
			obj.Required = append(obj.Required, f.Pair.Name)
		}
	}
	return obj, nil
}

func (b *builder) enum(e *ast.EnumDef) (*openapi3.Schema, error) {
	var simple []any
	var shapes openapi3.SchemaRefs
	for _, v := range e.Variants {
		var payload *openapi3.SchemaRef
		switch vt := v.Type.(type) {
		case ast.SimpleVariant:
			simple = append(simple, v.Name)
			continue
		case *ast.NewtypeVariant:
			ref, err := b.schema(vt.Type)
			if err != nil {
				return nil, fmt.Errorf("variant %s: %w", v.Name, err)
			}
			payload = ref
		case *ast.TupleVariant:
			ref, err := b.schema(vt.Tuple)
			if err != nil {
				return nil, fmt.Errorf("variant %s: %w", v.Name, err)
			}
			payload = ref
		case *ast.StructVariant:
			obj, err := b.object(vt.Fields)
			if err != nil {
				return nil, fmt.Errorf("variant %s: %w", v.Name, err)
			}
			payload = obj.NewRef()
		}
		shape := tagged(v.Name, payload)
		shape.Description = v.Doc
		shapes = append(shapes, shape.NewRef())
	}
	if len(simple) > 0 {
		names := openapi3.NewStringSchema().WithEnum(simple...)
		if len(shapes) == 0 {
			names.Description = e.Doc
			return names, nil
		}
		shapes = append(openapi3.SchemaRefs{names.NewRef()}, shapes...)
	}
	s := &openapi3.Schema{OneOf: shapes, Description: e.Doc}
	return s, nil
}

// tagged is an object with exactly one required property.
func tagged(name string, value *openapi3.SchemaRef) *openapi3.Schema {
	obj := openapi3.NewObjectSchema().WithPropertyRef(name, value)
	obj.Required = []string{name}
	obj.WithoutAdditionalProperties()
	return obj
}

func atomSchema(a ast.AtomType) (*openapi3.Schema, error) {
	switch a {
	case ast.Str:
		return openapi3.NewStringSchema(), nil
	case ast.I32:
		return openapi3.NewInt32Schema(), nil
	case ast.U32:
		return openapi3.NewInt64Schema().WithMin(0).WithMax(math.MaxUint32), nil
	case ast.U8:
		return openapi3.NewIntegerSchema().WithMin(0).WithMax(math.MaxUint8), nil
	case ast.F64:
		return openapi3.NewFloat64Schema(), nil
	case ast.Bool:
		return openapi3.NewBoolSchema(), nil
	case ast.DateTime:
		return openapi3.NewDateTimeSchema(), nil
	case ast.Date:
		return openapi3.NewStringSchema().WithFormat("date"), nil
	case ast.Uuid:
		return openapi3.NewUUIDSchema(), nil
	case ast.Bytes:
		return openapi3.NewBytesSchema(), nil
	case ast.Empty:
		return &openapi3.Schema{Nullable: true, Description: "always null"}, nil
	}
	return nil, fmt.Errorf("unknown atom %v", a)
}

func errorSchema() *openapi3.Schema {
	inner := openapi3.NewObjectSchema().
		WithProperty("kind", openapi3.NewStringSchema().WithEnum("routing", "request", "service")).
		WithProperty("code", openapi3.NewStringSchema()).
		WithProperty("message", openapi3.NewStringSchema()).
		WithProperty("details", openapi3.NewObjectSchema())
	inner.Required = []string{"kind", "code", "message"}
	doc := openapi3.NewObjectSchema().WithProperty("error", inner)
	doc.Required = []string{"error"}
	return doc
}
