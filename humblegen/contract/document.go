package contract

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"

	"github.com/broady/humble/humblegen/ast"
)

// Document is a serializable description of a contract: every type with its
// wire shape and every route with its matching pattern.
type Document struct {
	Types    []TypeDoc    `json:"types" yaml:"types"`
	Services []ServiceDoc `json:"services" yaml:"services"`
}

// TypeDoc describes a struct or an enum.
type TypeDoc struct {
	Name     string       `json:"name" yaml:"name"`
	Kind     string       `json:"kind" yaml:"kind"`
	Doc      string       `json:"doc,omitempty" yaml:"doc,omitempty"`
	Fields   []FieldDoc   `json:"fields,omitempty" yaml:"fields,omitempty"`
	Variants []VariantDoc `json:"variants,omitempty" yaml:"variants,omitempty"`
}

type FieldDoc struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
	Doc  string `json:"doc,omitempty" yaml:"doc,omitempty"`
}

type VariantDoc struct {
	Name string `json:"name" yaml:"name"`
	Kind string `json:"kind" yaml:"kind"`
	// Type is the payload of newtype and tuple variants.
	Type   string     `json:"type,omitempty" yaml:"type,omitempty"`
	Fields []FieldDoc `json:"fields,omitempty" yaml:"fields,omitempty"`
	Doc    string     `json:"doc,omitempty" yaml:"doc,omitempty"`
}

type ServiceDoc struct {
	Name   string     `json:"name" yaml:"name"`
	Doc    string     `json:"doc,omitempty" yaml:"doc,omitempty"`
	Routes []RouteDoc `json:"routes" yaml:"routes"`
}

type RouteDoc struct {
	Name         string     `json:"name" yaml:"name"`
	Method       string     `json:"method" yaml:"method"`
	Path         string     `json:"path" yaml:"path"`
	Pattern      string     `json:"pattern" yaml:"pattern"`
	Params       []FieldDoc `json:"params,omitempty" yaml:"params,omitempty"`
	Query        string     `json:"query,omitempty" yaml:"query,omitempty"`
	QueryDecoder string     `json:"query_decoder,omitempty" yaml:"query_decoder,omitempty"`
	Body         string     `json:"body,omitempty" yaml:"body,omitempty"`
	Return       string     `json:"return" yaml:"return"`
	Doc          string     `json:"doc,omitempty" yaml:"doc,omitempty"`
}

// Document returns the description of c, in declaration order.
func (c *Contract) Document() *Document {
	doc := &Document{Types: []TypeDoc{}, Services: []ServiceDoc{}}
	for _, it := range c.Spec.Items {
		switch d := it.(type) {
		case *ast.StructDef:
			doc.Types = append(doc.Types, TypeDoc{Name: d.Name, Kind: "struct", Doc: d.Doc, Fields: fieldDocs(d.Fields)})
		case *ast.EnumDef:
			td := TypeDoc{Name: d.Name, Kind: "enum", Doc: d.Doc}
			for _, v := range d.Variants {
				vd := VariantDoc{Name: v.Name, Kind: v.Type.VariantKind().String(), Doc: v.Doc}
				switch vt := v.Type.(type) {
				case *ast.TupleVariant:
					vd.Type = vt.Tuple.String()
				case *ast.NewtypeVariant:
					vd.Type = vt.Type.String()
				case *ast.StructVariant:
					vd.Fields = fieldDocs(vt.Fields)
				}
				td.Variants = append(td.Variants, vd)
			}
			doc.Types = append(doc.Types, td)
		}
	}
	for _, s := range c.Services {
		sd := ServiceDoc{Name: s.Name, Doc: s.Doc, Routes: []RouteDoc{}}
		for _, r := range s.Routes {
			rd := RouteDoc{
				Name:    r.Name,
				Method:  string(r.Method),
				Path:    r.Path,
				Pattern: r.Pattern,
				Return:  r.Return.String(),
				Doc:     r.Doc,
			}
			for _, p := range r.Params {
				rd.Params = append(rd.Params, FieldDoc{Name: p.Name, Type: p.Atom.String()})
			}
			if r.Query != nil {
				rd.Query = r.Query.Type.String()
				rd.QueryDecoder = r.Query.Decoder.String()
			}
			if r.Body != nil {
				rd.Body = r.Body.String()
			}
			sd.Routes = append(sd.Routes, rd)
		}
		doc.Services = append(doc.Services, sd)
	}
	return doc
}

func fieldDocs(fields []ast.Field) []FieldDoc {
	out := make([]FieldDoc, 0, len(fields))
	for _, f := range fields {
		out = append(out, FieldDoc{Name: f.Pair.Name, Type: f.Pair.Type.String(), Doc: f.Doc})
	}
	return out
}

// JSON returns the document as indented JSON.
func (d *Document) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// YAML returns the document as YAML.
func (d *Document) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
