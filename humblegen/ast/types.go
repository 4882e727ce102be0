// Package ast defines the abstract syntax tree of a humble schema.
// A Spec is produced by the parser, rewritten once by the embed resolver and
// then treated as immutable by every consumer.
package ast

import (
	"strings"
)

// TypeKind identifies the category of a type identifier.
type TypeKind int

const (
	KindBuiltIn     TypeKind = iota // Atomic built-in type
	KindList                        // list[T]
	KindOption                      // option[T]
	KindResult                      // result[T][E]
	KindMap                         // map[K][V]
	KindTuple                       // (T1, T2, ...)
	KindUserDefined                 // Reference to a struct or enum
)

// String returns the string representation of the type kind.
func (k TypeKind) String() string {
	switch k {
	case KindBuiltIn:
		return "BuiltIn"
	case KindList:
		return "List"
	case KindOption:
		return "Option"
	case KindResult:
		return "Result"
	case KindMap:
		return "Map"
	case KindTuple:
		return "Tuple"
	case KindUserDefined:
		return "UserDefined"
	default:
		return "Unknown"
	}
}

// TypeIdent is the recursive type algebra of the schema language.
type TypeIdent interface {
	// Kind returns the kind for type switching.
	Kind() TypeKind

	// String renders the type in schema syntax, e.g. "list[option[str]]".
	String() string

	// Ensure only types in this package can implement TypeIdent.
	sealed()
}

// AtomType enumerates the built-in atomic types.
type AtomType int

const (
	Empty AtomType = iota
	Str
	I32
	U32
	U8
	F64
	Bool
	DateTime
	Date
	Uuid
	Bytes
)

var atomNames = [...]string{
	Empty:    "()",
	Str:      "str",
	I32:      "i32",
	U32:      "u32",
	U8:       "u8",
	F64:      "f64",
	Bool:     "bool",
	DateTime: "datetime",
	Date:     "date",
	Uuid:     "uuid",
	Bytes:    "bytes",
}

// String returns the schema keyword of the atom.
func (a AtomType) String() string {
	if a < 0 || int(a) >= len(atomNames) {
		return "unknown"
	}
	return atomNames[a]
}

// AtomByName returns the atom for a schema keyword.
func AtomByName(name string) (AtomType, bool) {
	for i, n := range atomNames {
		if n == name {
			return AtomType(i), true
		}
	}
	return 0, false
}

// IsInteger reports whether the atom is one of the integer types.
func (a AtomType) IsInteger() bool {
	return a == I32 || a == U32 || a == U8
}

// IsStringLike reports whether values of the atom are carried as JSON strings
// that can key a map.
func (a AtomType) IsStringLike() bool {
	return a == Str || a == Uuid || a == Bytes
}

// BuiltIn is an atomic built-in type.
type BuiltIn struct {
	Atom AtomType
}

func (*BuiltIn) Kind() TypeKind   { return KindBuiltIn }
func (t *BuiltIn) String() string { return t.Atom.String() }
func (*BuiltIn) sealed()          {}

// List is an ordered sequence of Elem.
type List struct {
	Elem TypeIdent
}

func (*List) Kind() TypeKind   { return KindList }
func (t *List) String() string { return "list[" + t.Elem.String() + "]" }
func (*List) sealed()          {}

// Option is an optional Elem.
type Option struct {
	Elem TypeIdent
}

func (*Option) Kind() TypeKind   { return KindOption }
func (t *Option) String() string { return "option[" + t.Elem.String() + "]" }
func (*Option) sealed()          {}

// Result is either an Ok or an Err value.
type Result struct {
	Ok  TypeIdent
	Err TypeIdent
}

func (*Result) Kind() TypeKind { return KindResult }
func (t *Result) String() string {
	return "result[" + t.Ok.String() + "][" + t.Err.String() + "]"
}
func (*Result) sealed() {}

// Map maps Key to Value. Keys must be string-like, which is checked by the
// contract compiler rather than the parser.
type Map struct {
	Key   TypeIdent
	Value TypeIdent
}

func (*Map) Kind() TypeKind { return KindMap }
func (t *Map) String() string {
	return "map[" + t.Key.String() + "][" + t.Value.String() + "]"
}
func (*Map) sealed() {}

// Tuple is a positional, fixed-arity product. Arity is at least one.
type Tuple struct {
	Elems []TypeIdent
}

func (*Tuple) Kind() TypeKind { return KindTuple }
func (t *Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (*Tuple) sealed() {}

// UserDefined references a struct or enum declared in the same Spec.
type UserDefined struct {
	Name string
}

func (*UserDefined) Kind() TypeKind   { return KindUserDefined }
func (t *UserDefined) String() string { return t.Name }
func (*UserDefined) sealed()          {}

// Atom returns the atom of t and true if t is a built-in.
func Atom(t TypeIdent) (AtomType, bool) {
	if b, ok := t.(*BuiltIn); ok {
		return b.Atom, true
	}
	return 0, false
}

// Walk calls fn for t and every type nested inside it, depth first.
// Walking stops early when fn returns false.
func Walk(t TypeIdent, fn func(TypeIdent) bool) bool {
	if t == nil {
		return true
	}
	if !fn(t) {
		return false
	}
	switch t := t.(type) {
	case *List:
		return Walk(t.Elem, fn)
	case *Option:
		return Walk(t.Elem, fn)
	case *Result:
		return Walk(t.Ok, fn) && Walk(t.Err, fn)
	case *Map:
		return Walk(t.Key, fn) && Walk(t.Value, fn)
	case *Tuple:
		for _, e := range t.Elems {
			if !Walk(e, fn) {
				return false
			}
		}
	}
	return true
}

// CloneType returns a deep copy of t.
func CloneType(t TypeIdent) TypeIdent {
	switch t := t.(type) {
	case nil:
		return nil
	case *BuiltIn:
		return &BuiltIn{Atom: t.Atom}
	case *List:
		return &List{Elem: CloneType(t.Elem)}
	case *Option:
		return &Option{Elem: CloneType(t.Elem)}
	case *Result:
		return &Result{Ok: CloneType(t.Ok), Err: CloneType(t.Err)}
	case *Map:
		return &Map{Key: CloneType(t.Key), Value: CloneType(t.Value)}
	case *Tuple:
		elems := make([]TypeIdent, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = CloneType(e)
		}
		return &Tuple{Elems: elems}
	case *UserDefined:
		return &UserDefined{Name: t.Name}
	}
	panic("ast: unknown type ident")
}
