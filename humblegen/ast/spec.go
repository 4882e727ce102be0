package ast

import "fmt"

// Pos is a source location. Line and Column are 1-based.
type Pos struct {
	Line   int
	Column int
}

// IsZero returns true if the position is unset.
func (p Pos) IsZero() bool {
	return p.Line == 0 && p.Column == 0
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Spec is a complete schema: an ordered list of definitions.
// Order is irrelevant to name resolution but is kept for emitted output.
type Spec struct {
	Items []Item
}

// Item is a top-level definition: *StructDef, *EnumDef or *ServiceDef.
type Item interface {
	// ItemName returns the declared name.
	ItemName() string

	// Src returns the location of the declaration.
	Src() Pos

	sealed()
}

// Structs returns the struct definitions in declaration order.
func (s *Spec) Structs() []*StructDef {
	var out []*StructDef
	for _, it := range s.Items {
		if d, ok := it.(*StructDef); ok {
			out = append(out, d)
		}
	}
	return out
}

// Enums returns the enum definitions in declaration order.
func (s *Spec) Enums() []*EnumDef {
	var out []*EnumDef
	for _, it := range s.Items {
		if d, ok := it.(*EnumDef); ok {
			out = append(out, d)
		}
	}
	return out
}

// Services returns the service definitions in declaration order.
func (s *Spec) Services() []*ServiceDef {
	var out []*ServiceDef
	for _, it := range s.Items {
		if d, ok := it.(*ServiceDef); ok {
			out = append(out, d)
		}
	}
	return out
}

// FindStruct looks up a struct by name. Returns nil if not found.
func (s *Spec) FindStruct(name string) *StructDef {
	for _, it := range s.Items {
		if d, ok := it.(*StructDef); ok && d.Name == name {
			return d
		}
	}
	return nil
}

// FindEnum looks up an enum by name. Returns nil if not found.
func (s *Spec) FindEnum(name string) *EnumDef {
	for _, it := range s.Items {
		if d, ok := it.(*EnumDef); ok && d.Name == name {
			return d
		}
	}
	return nil
}

// FindService looks up a service by name. Returns nil if not found.
func (s *Spec) FindService(name string) *ServiceDef {
	for _, it := range s.Items {
		if d, ok := it.(*ServiceDef); ok && d.Name == name {
			return d
		}
	}
	return nil
}

// Clone returns a deep copy of the spec.
func (s *Spec) Clone() *Spec {
	out := &Spec{Items: make([]Item, len(s.Items))}
	for i, it := range s.Items {
		switch d := it.(type) {
		case *StructDef:
			out.Items[i] = &StructDef{Name: d.Name, Fields: CloneFields(d.Fields), Doc: d.Doc, Pos: d.Pos}
		case *EnumDef:
			out.Items[i] = d.clone()
		case *ServiceDef:
			out.Items[i] = d.clone()
		}
	}
	return out
}

// StructDef is a named struct definition.
type StructDef struct {
	Name   string
	Fields []Field
	Doc    string
	Pos    Pos
}

func (d *StructDef) ItemName() string { return d.Name }
func (d *StructDef) Src() Pos         { return d.Pos }
func (*StructDef) sealed()            {}

// FieldKind distinguishes ordinary fields from embeds.
type FieldKind int

const (
	FieldNormal FieldKind = iota
	// FieldEmbed splices the fields of the named struct in place.
	FieldEmbed
)

// Field is a struct field or an embed marker.
// For embeds, Pair.Name is the embedded struct's name and Pair.Type is a
// UserDefined reference to it.
type Field struct {
	Kind FieldKind
	Pair FieldDefPair
	Doc  string
	Pos  Pos
}

// IsEmbed reports whether the field is an embed marker.
func (f Field) IsEmbed() bool {
	return f.Kind == FieldEmbed
}

// NewEmbed returns an embed marker for the named struct.
func NewEmbed(target string) Field {
	return Field{
		Kind: FieldEmbed,
		Pair: FieldDefPair{Name: target, Type: &UserDefined{Name: target}},
	}
}

// FieldDefPair is a name and its type, used by fields and route variables.
type FieldDefPair struct {
	Name string
	Type TypeIdent
}

// CloneFields returns a deep copy of fields.
func CloneFields(fields []Field) []Field {
	if fields == nil {
		return nil
	}
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f
		out[i].Pair.Type = CloneType(f.Pair.Type)
	}
	return out
}
