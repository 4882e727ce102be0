package contract

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"sort"

	"github.com/broady/humble/humblegen/ast"
)

// Encode writes v as canonical JSON of type t. Struct fields are written in
// declaration order and map keys sorted, so equal values encode to equal
// bytes. Errors are *EncodeError.
//
// Besides the value model (map[string]any for structs, Variant for enums,
// Result for results), struct and enum positions accept any Go value whose
// encoding/json form decodes as t.
func (c *Contract) Encode(t ast.TypeIdent, v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.encode(&buf, t, v, ""); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Contract) encode(buf *bytes.Buffer, t ast.TypeIdent, v any, path string) error {
	switch t := t.(type) {
	case *ast.BuiltIn:
		return encodeAtom(buf, t.Atom, v, path)
	case *ast.Option:
		if isNil(v) {
			buf.WriteString("null")
			return nil
		}
		return c.encode(buf, t.Elem, deref(v), path)
	case *ast.List:
		elems, ok := asSlice(deref(v))
		if !ok {
			return encodeErrorf(path, "cannot write %T as %s", v, t)
		}
		return c.encodeSeq(buf, func(i int) ast.TypeIdent { return t.Elem }, elems, path)
	case *ast.Tuple:
		elems, ok := asSlice(deref(v))
		if !ok {
			return encodeErrorf(path, "cannot write %T as %s", v, t)
		}
		if len(elems) != len(t.Elems) {
			return encodeErrorf(path, "tuple %s has %d elements, got %d", t, len(t.Elems), len(elems))
		}
		return c.encodeSeq(buf, func(i int) ast.TypeIdent { return t.Elems[i] }, elems, path)
	case *ast.Map:
		return c.encodeMap(buf, t, v, path)
	case *ast.Result:
		r, ok := deref(v).(Result)
		if !ok {
			return encodeErrorf(path, "cannot write %T as %s, want contract.Result", v, t)
		}
		if r.IsErr {
			buf.WriteString(`{"Err":`)
			if err := c.encode(buf, t.Err, r.Err, fieldPath(path, "Err")); err != nil {
				return err
			}
		} else {
			buf.WriteString(`{"Ok":`)
			if err := c.encode(buf, t.Ok, r.Ok, fieldPath(path, "Ok")); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case *ast.UserDefined:
		if s := c.structs[t.Name]; s != nil {
			fields, ok := asStringMap(deref(v))
			if !ok {
				return c.encodeForeign(buf, t, v, path)
			}
			return c.encodeFields(buf, s.Fields, fields, path)
		}
		if e := c.enums[t.Name]; e != nil {
			variant, ok := deref(v).(Variant)
			if !ok {
				return c.encodeForeign(buf, t, v, path)
			}
			return c.encodeVariant(buf, e, variant, path)
		}
		return encodeErrorf(path, "unknown type %s", t.Name)
	}
	return encodeErrorf(path, "unsupported type %v", t)
}

// encodeForeign normalizes a Go value through encoding/json and the decoder.
func (c *Contract) encodeForeign(buf *bytes.Buffer, t ast.TypeIdent, v any, path string) error {
	data, err := json.Marshal(v)
	if err != nil {
		return encodeErrorf(path, "cannot write %T as %s: %v", v, t, err)
	}
	normalized, err := c.Decode(t, data)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			return encodeErrorf(joinPath(path, de.Path), "%T does not match %s: %s", v, t, de.Msg)
		}
		return encodeErrorf(path, "%T does not match %s: %v", v, t, err)
	}
	return c.encode(buf, t, normalized, path)
}

func joinPath(parent, child string) string {
	switch {
	case parent == "":
		return child
	case child == "":
		return parent
	case child[0] == '[':
		return parent + child
	}
	return parent + "." + child
}

func (c *Contract) encodeSeq(buf *bytes.Buffer, elemType func(int) ast.TypeIdent, elems []any, path string) error {
	buf.WriteByte('[')
	for i, e := range elems {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := c.encode(buf, elemType(i), e, indexPath(path, i)); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func (c *Contract) encodeMap(buf *bytes.Buffer, t *ast.Map, v any, path string) error {
	entries, ok := asStringMap(deref(v))
	if !ok {
		return encodeErrorf(path, "cannot write %T as %s", v, t)
	}
	keyAtom, _ := ast.Atom(t.Key)
	keys := make([]string, 0, len(entries))
	for k := range entries {
		if err := checkMapKey(keyAtom, k); err != nil {
			return encodeErrorf(keyPath(path, k), "%s", err.Error())
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, k)
		buf.WriteByte(':')
		if err := c.encode(buf, t.Value, entries[k], keyPath(path, k)); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// checkMapKey validates a map key against its atom. Keys stay strings in the
// value model.
func checkMapKey(atom ast.AtomType, key string) error {
	switch atom {
	case ast.Uuid:
		_, err := parseUUID(key)
		return err
	case ast.Bytes:
		if _, err := base64.StdEncoding.DecodeString(key); err != nil {
			return decodeErrorf("", "map key is not base64")
		}
	}
	return nil
}

func (c *Contract) encodeFields(buf *bytes.Buffer, defs []ast.Field, fields map[string]any, path string) error {
	buf.WriteByte('{')
	for i, f := range defs {
		name := f.Pair.Name
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(buf, name)
		buf.WriteByte(':')
		v, present := fields[name]
		if !present {
			if _, optional := f.Pair.Type.(*ast.Option); !optional {
				return encodeErrorf(fieldPath(path, name), "missing field")
			}
		}
		if err := c.encode(buf, f.Pair.Type, v, fieldPath(path, name)); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func (c *Contract) encodeVariant(buf *bytes.Buffer, e *ast.EnumDef, v Variant, path string) error {
	def := e.FindVariant(v.Name)
	if def == nil {
		return encodeErrorf(path, "enum %s has no variant %q", e.Name, v.Name)
	}
	vpath := fieldPath(path, v.Name)
	switch vt := def.Type.(type) {
	case *ast.TupleVariant:
		buf.WriteByte('{')
		writeString(buf, v.Name)
		buf.WriteByte(':')
		if err := c.encode(buf, vt.Tuple, v.Value, vpath); err != nil {
			return err
		}
	case *ast.StructVariant:
		fields, ok := asStringMap(deref(v.Value))
		if !ok {
			return encodeErrorf(vpath, "struct variant needs map[string]any, got %T", v.Value)
		}
		buf.WriteByte('{')
		writeString(buf, v.Name)
		buf.WriteByte(':')
		if err := c.encodeFields(buf, vt.Fields, fields, vpath); err != nil {
			return err
		}
	case *ast.NewtypeVariant:
		buf.WriteByte('{')
		writeString(buf, v.Name)
		buf.WriteByte(':')
		if err := c.encode(buf, vt.Type, v.Value, vpath); err != nil {
			return err
		}
	default:
		if v.Value != nil {
			return encodeErrorf(vpath, "simple variant carries a value")
		}
		writeString(buf, v.Name)
		return nil
	}
	buf.WriteByte('}')
	return nil
}

func encodeAtom(buf *bytes.Buffer, atom ast.AtomType, v any, path string) error {
	if atom == ast.Empty {
		if v != nil {
			if _, ok := deref(v).(struct{}); !ok {
				return encodeErrorf(path, "cannot write %T as ()", v)
			}
		}
		buf.WriteString("null")
		return nil
	}
	s, err := FormatParam(atom, v)
	if err != nil {
		var ee *EncodeError
		if errors.As(err, &ee) {
			ee.Path = path
		}
		return err
	}
	switch atom {
	case ast.I32, ast.U32, ast.U8, ast.F64, ast.Bool:
		buf.WriteString(s)
	default:
		writeString(buf, s)
	}
	return nil
}

// writeString writes s as a JSON string without HTML escaping, so <, > and &
// appear as themselves.
func writeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	buf.Truncate(buf.Len() - 1) // Encode appends a newline
}

// Decode reads canonical JSON of type t into the value model. Unknown struct
// fields are ignored; missing fields are an error unless optional.
// Errors are *DecodeError.
func (c *Contract) Decode(t ast.TypeIdent, data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, decodeErrorf("", "invalid JSON: %v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, decodeErrorf("", "invalid JSON: trailing data")
	}
	return c.decode(t, raw, "")
}

// DecodeValue converts an already parsed JSON value (as produced by
// encoding/json with UseNumber) into the value model of t.
func (c *Contract) DecodeValue(t ast.TypeIdent, raw any) (any, error) {
	return c.decode(t, raw, "")
}

func (c *Contract) decode(t ast.TypeIdent, raw any, path string) (any, error) {
	switch t := t.(type) {
	case *ast.BuiltIn:
		return decodeAtom(t.Atom, raw, path)
	case *ast.Option:
		if raw == nil {
			return nil, nil
		}
		return c.decode(t.Elem, raw, path)
	case *ast.List:
		arr, ok := raw.([]any)
		if !ok {
			return nil, decodeErrorf(path, "expected array, got %s", jsonKind(raw))
		}
		out := make([]any, len(arr))
		for i, e := range arr {
			v, err := c.decode(t.Elem, e, indexPath(path, i))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case *ast.Tuple:
		arr, ok := raw.([]any)
		if !ok {
			return nil, decodeErrorf(path, "expected array, got %s", jsonKind(raw))
		}
		if len(arr) != len(t.Elems) {
			return nil, decodeErrorf(path, "expected %d tuple elements, got %d", len(t.Elems), len(arr))
		}
		out := make([]any, len(arr))
		for i, e := range arr {
			v, err := c.decode(t.Elems[i], e, indexPath(path, i))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case *ast.Map:
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, decodeErrorf(path, "expected object, got %s", jsonKind(raw))
		}
		keyAtom, _ := ast.Atom(t.Key)
		out := make(map[string]any, len(obj))
		for k, e := range obj {
			if err := checkMapKey(keyAtom, k); err != nil {
				return nil, decodeErrorf(keyPath(path, k), "invalid %s map key", keyAtom)
			}
			if keyAtom == ast.Uuid {
				k, _ = parseUUID(k)
			}
			v, err := c.decode(t.Value, e, keyPath(path, k))
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	case *ast.Result:
		obj, ok := raw.(map[string]any)
		if !ok || len(obj) != 1 {
			return nil, decodeErrorf(path, `expected {"Ok": ...} or {"Err": ...}`)
		}
		if v, ok := obj["Ok"]; ok {
			okv, err := c.decode(t.Ok, v, fieldPath(path, "Ok"))
			if err != nil {
				return nil, err
			}
			return Ok(okv), nil
		}
		if v, ok := obj["Err"]; ok {
			errv, err := c.decode(t.Err, v, fieldPath(path, "Err"))
			if err != nil {
				return nil, err
			}
			return Err(errv), nil
		}
		return nil, decodeErrorf(path, `expected {"Ok": ...} or {"Err": ...}`)
	case *ast.UserDefined:
		if s := c.structs[t.Name]; s != nil {
			obj, ok := raw.(map[string]any)
			if !ok {
				return nil, decodeErrorf(path, "expected %s object, got %s", t.Name, jsonKind(raw))
			}
			return c.decodeFields(s.Fields, obj, path)
		}
		if e := c.enums[t.Name]; e != nil {
			return c.decodeVariant(e, raw, path)
		}
		return nil, decodeErrorf(path, "unknown type %s", t.Name)
	}
	return nil, decodeErrorf(path, "unsupported type %v", t)
}

func (c *Contract) decodeFields(defs []ast.Field, obj map[string]any, path string) (map[string]any, error) {
	out := make(map[string]any, len(defs))
	for _, f := range defs {
		name := f.Pair.Name
		raw, present := obj[name]
		if !present {
			if _, optional := f.Pair.Type.(*ast.Option); optional {
				out[name] = nil
				continue
			}
			return nil, decodeErrorf(fieldPath(path, name), "missing field")
		}
		v, err := c.decode(f.Pair.Type, raw, fieldPath(path, name))
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// decodeVariant accepts "Name" for simple variants and {"Name": payload}
// for all others. Any other shape is rejected.
func (c *Contract) decodeVariant(e *ast.EnumDef, raw any, path string) (any, error) {
	switch raw := raw.(type) {
	case string:
		def := e.FindVariant(raw)
		if def == nil {
			return nil, decodeErrorf(path, "enum %s has no variant %q", e.Name, raw)
		}
		if !def.IsSimple() {
			return nil, decodeErrorf(path, "variant %s.%s carries a value", e.Name, raw)
		}
		return Variant{Name: raw}, nil
	case map[string]any:
		if len(raw) != 1 {
			return nil, decodeErrorf(path, "expected object with exactly one variant of %s, got %d keys", e.Name, len(raw))
		}
		var name string
		var payload any
		for k, p := range raw {
			name, payload = k, p
		}
		def := e.FindVariant(name)
		if def == nil {
			return nil, decodeErrorf(path, "enum %s has no variant %q", e.Name, name)
		}
		vpath := fieldPath(path, name)
		var v any
		var err error
		switch vt := def.Type.(type) {
		case *ast.TupleVariant:
			v, err = c.decode(vt.Tuple, payload, vpath)
		case *ast.StructVariant:
			obj, ok := payload.(map[string]any)
			if !ok {
				return nil, decodeErrorf(vpath, "expected object, got %s", jsonKind(payload))
			}
			v, err = c.decodeFields(vt.Fields, obj, vpath)
		case *ast.NewtypeVariant:
			v, err = c.decode(vt.Type, payload, vpath)
		default:
			return nil, decodeErrorf(path, "simple variant %s.%s must be a bare string", e.Name, name)
		}
		if err != nil {
			return nil, err
		}
		return Variant{Name: name, Value: v}, nil
	}
	return nil, decodeErrorf(path, "expected %s variant, got %s", e.Name, jsonKind(raw))
}

func decodeAtom(atom ast.AtomType, raw any, path string) (any, error) {
	switch atom {
	case ast.Empty:
		if raw != nil {
			return nil, decodeErrorf(path, "expected null, got %s", jsonKind(raw))
		}
		return nil, nil
	case ast.I32, ast.U32, ast.U8, ast.F64:
		n, ok := raw.(json.Number)
		if !ok {
			return nil, decodeErrorf(path, "expected %s, got %s", atom, jsonKind(raw))
		}
		v, err := ParseParam(atom, n.String())
		return v, atPath(err, path)
	case ast.Bool:
		b, ok := raw.(bool)
		if !ok {
			return nil, decodeErrorf(path, "expected bool, got %s", jsonKind(raw))
		}
		return b, nil
	default:
		s, ok := raw.(string)
		if !ok {
			return nil, decodeErrorf(path, "expected %s string, got %s", atom, jsonKind(raw))
		}
		v, err := ParseParam(atom, s)
		return v, atPath(err, path)
	}
}

// atPath sets the path of a *DecodeError returned by ParseParam.
func atPath(err error, path string) error {
	var de *DecodeError
	if errors.As(err, &de) {
		de.Path = path
	}
	return err
}

func jsonKind(raw any) string {
	switch raw.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case json.Number, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return "value"
}
