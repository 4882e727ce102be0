package contract

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broady/humble/humblegen/ast"
)

const querySchema = `
struct Filter {
    name: str,
    limit: option[u32],
    tags: list[str],
    active: option[bool],
    sort: option[Order],
}
enum Order { Asc, Desc }
`

func TestDecodeQuery(t *testing.T) {
	c := mustCompile(t, querySchema)
	filter := &ast.UserDefined{Name: "Filter"}

	v, err := c.DecodeQuery(filter, "name=a%20b&limit=10&tags=%5B%22x%22%2C%22y%22%5D&sort=%22Desc%22&unknown=1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":   "a b",
		"limit":  uint32(10),
		"tags":   []any{"x", "y"},
		"active": nil,
		"sort":   Variant{Name: "Desc"},
	}, v)
}

func TestDecodeQuery_Errors(t *testing.T) {
	c := mustCompile(t, querySchema)
	filter := &ast.UserDefined{Name: "Filter"}
	tests := []struct {
		name  string
		query string
		path  string
	}{
		{"missing required", "tags=[]", "name"},
		{"bad integer", "name=a&tags=[]&limit=ten", "limit"},
		{"bad bool", "name=a&tags=[]&active=yes", "active"},
		{"repeated atom", "name=a&name=b&tags=[]", "name"},
		{"bad enum", "name=a&tags=[]&sort=Up", "sort"},
		{"missing list", "name=a", "tags"},
		{"repeated list", "name=a&tags=x&tags=y", "tags"},
		{"list not json", "name=a&tags=x", "tags"},
		{"bad list element", "name=a&tags=[1]", "tags[0]"},
		{"malformed", "name=%zz", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.DecodeQuery(filter, tt.query)
			var de *DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.path, de.Path)
		})
	}

	_, err := c.DecodeQuery(filter, "name=a")
	assert.ErrorContains(t, err, "missing query parameter")

	_, err = c.DecodeQuery(&ast.BuiltIn{Atom: ast.Str}, "a=b")
	require.ErrorIs(t, err, ErrDeserialization)
}

func TestEncodeQuery_RoundTrip(t *testing.T) {
	c := mustCompile(t, querySchema)
	filter := &ast.UserDefined{Name: "Filter"}
	v := map[string]any{
		"name":  "a&b",
		"limit": uint32(3),
		"tags":  []any{"x", "y"},
		"sort":  Variant{Name: "Asc"},
	}
	values, err := c.EncodeQuery(filter, v)
	require.NoError(t, err)
	assert.Equal(t, url.Values{
		"name":  {"a&b"},
		"limit": {"3"},
		"tags":  {`["x","y"]`},
		"sort":  {`"Asc"`},
	}, values)
	assert.Equal(t, "limit=3&name=a%26b&sort=%22Asc%22&tags=%5B%22x%22%2C%22y%22%5D", values.Encode())

	back, err := c.DecodeQuery(filter, values.Encode())
	require.NoError(t, err)
	v["active"] = nil
	assert.Equal(t, v, back)
}

func TestDecodeQueryPrimitive(t *testing.T) {
	c := mustCompile(t, querySchema)
	tests := []struct {
		name string
		typ  ast.TypeIdent
		raw  string
		want any
	}{
		{"string raw", &ast.BuiltIn{Atom: ast.Str}, "hello%20world", "hello world"},
		{"integer", &ast.BuiltIn{Atom: ast.I32}, "-4", int32(-4)},
		{"json list", &ast.List{Elem: &ast.BuiltIn{Atom: ast.U8}}, "%5B1,2%5D", []any{uint8(1), uint8(2)}},
		{"json enum", &ast.UserDefined{Name: "Order"}, "%22Asc%22", Variant{Name: "Asc"}},
		{"option none", &ast.Option{Elem: &ast.BuiltIn{Atom: ast.Str}}, "", nil},
		{"option some", &ast.Option{Elem: &ast.BuiltIn{Atom: ast.U32}}, "7", uint32(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.DecodeQueryPrimitive(tt.typ, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseParam(t *testing.T) {
	tests := []struct {
		atom ast.AtomType
		raw  string
		want any
		ok   bool
	}{
		{ast.Str, "a b", "a b", true},
		{ast.I32, "42", int32(42), true},
		{ast.I32, "abc", nil, false},
		{ast.I32, "99999999999", nil, false},
		{ast.U32, "-1", nil, false},
		{ast.U8, "256", nil, false},
		{ast.F64, "2.5", 2.5, true},
		{ast.F64, "NaN", nil, false},
		{ast.Bool, "true", true, true},
		{ast.Bool, "1", nil, false},
		{ast.Uuid, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", true},
		{ast.Uuid, "6ba7b810", nil, false},
		{ast.Bytes, "AAE=", []byte{0, 1}, true},
		{ast.Empty, "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.atom.String()+"/"+tt.raw, func(t *testing.T) {
			got, err := ParseParam(tt.atom, tt.raw)
			if !tt.ok {
				require.ErrorIs(t, err, ErrDeserialization)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			s, err := FormatParam(tt.atom, got)
			require.NoError(t, err)
			assert.Equal(t, tt.raw, s)
		})
	}
}
