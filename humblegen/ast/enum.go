package ast

// EnumDef is a tagged union of variants.
type EnumDef struct {
	Name     string
	Variants []VariantDef
	Doc      string
	Pos      Pos
}

func (d *EnumDef) ItemName() string { return d.Name }
func (d *EnumDef) Src() Pos         { return d.Pos }
func (*EnumDef) sealed()            {}

// FindVariant looks up a variant by name. Returns nil if not found.
func (d *EnumDef) FindVariant(name string) *VariantDef {
	for i := range d.Variants {
		if d.Variants[i].Name == name {
			return &d.Variants[i]
		}
	}
	return nil
}

func (d *EnumDef) clone() *EnumDef {
	out := &EnumDef{Name: d.Name, Doc: d.Doc, Pos: d.Pos, Variants: make([]VariantDef, len(d.Variants))}
	for i, v := range d.Variants {
		out.Variants[i] = VariantDef{Name: v.Name, Doc: v.Doc, Pos: v.Pos, Type: cloneVariantType(v.Type)}
	}
	return out
}

// VariantDef is one enum variant.
type VariantDef struct {
	Name string
	Type VariantType
	Doc  string
	Pos  Pos
}

// IsSimple reports whether the variant carries no payload.
func (v *VariantDef) IsSimple() bool {
	_, ok := v.Type.(SimpleVariant)
	return ok || v.Type == nil
}

// VariantKind identifies the payload shape of a variant.
type VariantKind int

const (
	VariantSimple VariantKind = iota
	VariantTuple
	VariantStruct
	VariantNewtype
)

func (k VariantKind) String() string {
	switch k {
	case VariantSimple:
		return "Simple"
	case VariantTuple:
		return "Tuple"
	case VariantStruct:
		return "Struct"
	case VariantNewtype:
		return "Newtype"
	default:
		return "Unknown"
	}
}

// VariantType is the payload of a variant.
type VariantType interface {
	VariantKind() VariantKind
	sealed()
}

// SimpleVariant has no payload.
type SimpleVariant struct{}

func (SimpleVariant) VariantKind() VariantKind { return VariantSimple }
func (SimpleVariant) sealed()                  {}

// TupleVariant carries positional values.
type TupleVariant struct {
	Tuple *Tuple
}

func (*TupleVariant) VariantKind() VariantKind { return VariantTuple }
func (*TupleVariant) sealed()                  {}

// StructVariant carries an anonymous struct.
type StructVariant struct {
	Fields []Field
}

func (*StructVariant) VariantKind() VariantKind { return VariantStruct }
func (*StructVariant) sealed()                  {}

// NewtypeVariant wraps exactly one value.
type NewtypeVariant struct {
	Type TypeIdent
}

func (*NewtypeVariant) VariantKind() VariantKind { return VariantNewtype }
func (*NewtypeVariant) sealed()                  {}

func cloneVariantType(vt VariantType) VariantType {
	switch vt := vt.(type) {
	case *TupleVariant:
		return &TupleVariant{Tuple: CloneType(vt.Tuple).(*Tuple)}
	case *StructVariant:
		return &StructVariant{Fields: CloneFields(vt.Fields)}
	case *NewtypeVariant:
		return &NewtypeVariant{Type: CloneType(vt.Type)}
	default:
		return SimpleVariant{}
	}
}
