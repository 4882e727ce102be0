package contract

import (
	"errors"
	"net/url"

	"github.com/broady/humble/humblegen/ast"
)

// DecodeQuery decodes a form-encoded query string (without the leading "?")
// into the struct named by t. Atom fields are parsed like path parameters and
// any other field type from a single canonical JSON value, so a list is
// ids=[1,2]. Options are transparent: a missing key is None. Any other
// missing key is an error.
// Unknown keys are ignored. Errors are *DecodeError.
func (c *Contract) DecodeQuery(t ast.TypeIdent, raw string) (any, error) {
	s, err := c.queryStruct(t)
	if err != nil {
		return nil, err
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, decodeErrorf("", "malformed query string: %v", err)
	}
	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		v, err := c.decodeFormField(f.Pair.Type, values[f.Pair.Name], f.Pair.Name)
		if err != nil {
			return nil, err
		}
		out[f.Pair.Name] = v
	}
	return out, nil
}

func (c *Contract) decodeFormField(t ast.TypeIdent, vals []string, path string) (any, error) {
	if opt, ok := t.(*ast.Option); ok {
		if len(vals) == 0 {
			return nil, nil
		}
		return c.decodeFormField(opt.Elem, vals, path)
	}
	if len(vals) == 0 {
		return nil, decodeErrorf(path, "missing query parameter")
	}
	if len(vals) > 1 {
		return nil, decodeErrorf(path, "query parameter given %d times", len(vals))
	}
	if atom, ok := ast.Atom(t); ok && atom != ast.Empty {
		v, err := ParseParam(atom, vals[0])
		return v, atPath(err, path)
	}
	v, err := c.Decode(t, []byte(vals[0]))
	if err != nil {
		return nil, prefixPath(err, path)
	}
	return v, nil
}

// EncodeQuery is the inverse of DecodeQuery. None fields are omitted.
// Errors are *EncodeError.
func (c *Contract) EncodeQuery(t ast.TypeIdent, v any) (url.Values, error) {
	s, err := c.queryStruct(t)
	if err != nil {
		return nil, &EncodeError{Msg: err.(*DecodeError).Msg}
	}
	fields, ok := asStringMap(deref(v))
	if !ok {
		return nil, encodeErrorf("", "cannot write %T as query %s", v, t)
	}
	out := url.Values{}
	for _, f := range s.Fields {
		name := f.Pair.Name
		if err := c.encodeFormField(out, name, f.Pair.Type, fields[name]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (c *Contract) encodeFormField(out url.Values, name string, t ast.TypeIdent, v any) error {
	if opt, ok := t.(*ast.Option); ok {
		if isNil(v) {
			return nil
		}
		return c.encodeFormField(out, name, opt.Elem, deref(v))
	}
	if atom, ok := ast.Atom(t); ok && atom != ast.Empty {
		s, err := FormatParam(atom, v)
		if err != nil {
			return encodePath(err, name)
		}
		out.Set(name, s)
		return nil
	}
	data, err := c.Encode(t, v)
	if err != nil {
		var ee *EncodeError
		if errors.As(err, &ee) {
			ee.Path = joinPath(name, ee.Path)
		}
		return err
	}
	out.Set(name, string(data))
	return nil
}

// DecodeQueryPrimitive decodes a whole query string as one value of t.
// String-like atoms are taken verbatim, integers as decimal, anything else as
// canonical JSON. An option of an empty query is None.
func (c *Contract) DecodeQueryPrimitive(t ast.TypeIdent, raw string) (any, error) {
	text, err := url.QueryUnescape(raw)
	if err != nil {
		return nil, decodeErrorf("", "malformed query string: %v", err)
	}
	if opt, ok := t.(*ast.Option); ok {
		if text == "" {
			return nil, nil
		}
		t = opt.Elem
	}
	if atom, ok := ast.Atom(t); ok && (atom.IsStringLike() || atom.IsInteger()) {
		return ParseParam(atom, text)
	}
	return c.Decode(t, []byte(text))
}

func (c *Contract) queryStruct(t ast.TypeIdent) (*ast.StructDef, error) {
	ud, ok := t.(*ast.UserDefined)
	if !ok || c.structs[ud.Name] == nil {
		return nil, decodeErrorf("", "query type %s is not a struct", t)
	}
	return c.structs[ud.Name], nil
}

func prefixPath(err error, path string) error {
	var de *DecodeError
	if errors.As(err, &de) {
		de.Path = joinPath(path, de.Path)
	}
	return err
}

func encodePath(err error, path string) error {
	var ee *EncodeError
	if errors.As(err, &ee) {
		ee.Path = path
	}
	return err
}
