package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broady/humble/humblegen/ast"
)

const monsterSchema = `
// plain comments are ignored
/// A wandering monster
/// with two doc lines.
struct Monster {
    /// Monster ID.
    id: i32,
    ..MonsterData,
}

struct MonsterData {
    name: str,
    hp: i32,
    tags: list[str],
    owner: option[uuid],
    stats: map[str][f64],
    pos: (i32, i32),
}

/// Errors returned by the monster service.
enum MonsterError {
    TooWeak,
    TooStrong { max_strength: i32 },
    Pair(str, u8),
    Single(str,),
    Named(Monster),
}

/// Monster management.
service Godzilla {
    /// Lists monsters.
    GET /monsters?{MonsterQuery} -> list[Monster],
    GET /monsters/{id: i32} -> result[Monster][MonsterError],
    POST /monsters -> MonsterData -> result[Monster][MonsterError],
    PATCH /monster-list/{id: i32} -> MonsterData -> (),
    DELETE /monsters/{id: i32} -> (),
    GET / -> bytes,
}
`

func TestParse_Monster(t *testing.T) {
	spec, err := Parse("monster.humble", []byte(monsterSchema))
	require.NoError(t, err)
	require.Len(t, spec.Items, 4)

	monster := spec.FindStruct("Monster")
	require.NotNil(t, monster)
	assert.Equal(t, "A wandering monster\nwith two doc lines.", monster.Doc)
	require.Len(t, monster.Fields, 2)
	assert.Equal(t, "id", monster.Fields[0].Pair.Name)
	assert.Equal(t, "Monster ID.", monster.Fields[0].Doc)
	assert.False(t, monster.Fields[0].IsEmbed())
	assert.True(t, monster.Fields[1].IsEmbed())
	assert.Equal(t, "MonsterData", monster.Fields[1].Pair.Name)
	assert.Equal(t, &ast.UserDefined{Name: "MonsterData"}, monster.Fields[1].Pair.Type)

	data := spec.FindStruct("MonsterData")
	require.NotNil(t, data)
	types := make([]string, len(data.Fields))
	for i, f := range data.Fields {
		types[i] = f.Pair.Type.String()
	}
	assert.Equal(t, []string{"str", "i32", "list[str]", "option[uuid]", "map[str][f64]", "(i32, i32)"}, types)

	enum := spec.FindEnum("MonsterError")
	require.NotNil(t, enum)
	kinds := make([]ast.VariantKind, len(enum.Variants))
	for i, v := range enum.Variants {
		kinds[i] = v.Type.VariantKind()
	}
	assert.Equal(t, []ast.VariantKind{ast.VariantSimple, ast.VariantStruct, ast.VariantTuple, ast.VariantTuple, ast.VariantNewtype}, kinds)
	assert.Len(t, enum.FindVariant("Single").Type.(*ast.TupleVariant).Tuple.Elems, 1)

	svc := spec.FindService("Godzilla")
	require.NotNil(t, svc)
	assert.Equal(t, "Monster management.", svc.Doc)
	require.Len(t, svc.Endpoints, 6)

	list := svc.Endpoints[0]
	assert.Equal(t, "Lists monsters.", list.Doc)
	assert.Equal(t, ast.GET, list.Route.Method)
	assert.Equal(t, []ast.Component{ast.LiteralComponent("monsters")}, list.Route.Components)
	assert.Equal(t, &ast.UserDefined{Name: "MonsterQuery"}, list.Route.Query)
	assert.Nil(t, list.Route.Body)

	post := svc.Endpoints[2]
	assert.Equal(t, ast.POST, post.Route.Method)
	assert.Equal(t, "MonsterData", post.Route.Body.String())
	assert.Equal(t, "result[Monster][MonsterError]", post.Route.Return.String())

	patch := svc.Endpoints[3]
	assert.Equal(t, "monster-list", patch.Route.Components[0].Literal)
	assert.Equal(t, "id", patch.Route.Components[1].Var.Name)
	assert.Equal(t, "()", patch.Route.Return.String())

	root := svc.Endpoints[5]
	assert.Empty(t, root.Route.Components)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		line    int
		column  int
		message string
	}{
		{"unknown item", "table Foo {}", 1, 1, `expected "struct", "enum" or "service"`},
		{"lowercase struct", "struct foo {}", 1, 8, "struct name in PascalCase"},
		{"missing colon", "struct A {\n  x i32\n}", 2, 5, `expected ":"`},
		{"bad type", "struct A { x: int }", 1, 15, "expected type"},
		{"get with body", "service S { GET /a -> A -> B }", 1, 25, `expected "}"`},
		{"post without body", "service S { POST /a -> A }", 1, 26, `expected "->"`},
		{"bad method", "service S { FETCH /a -> A }", 1, 13, "HTTP method"},
		{"trailing slash", "service S { GET /a/ -> A }", 1, 21, "route segment"},
		{"dangling doc", "struct A {}\n/// orphan", 2, 11, "not attached"},
		{"bad character", "struct A { x: i32 }\n$", 2, 1, "unexpected character"},
		{"pascal field", "struct A { Name: str }", 1, 12, "field name in snake_case"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("", []byte(tt.src))
			require.Error(t, err)
			perr, ok := AsError(err)
			require.True(t, ok, "error %v is not a *parser.Error", err)
			assert.Equal(t, tt.line, perr.Pos.Line, "line of %v", err)
			assert.Equal(t, tt.column, perr.Pos.Column, "column of %v", err)
			assert.Contains(t, perr.Msg, tt.message)
		})
	}
}

func TestParse_ErrorIncludesFilename(t *testing.T) {
	_, err := Parse("api.humble", []byte("struct"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api.humble:1:7")
}

func TestParse_EmptyInput(t *testing.T) {
	spec, err := Parse("", []byte("  // nothing\n"))
	require.NoError(t, err)
	assert.Empty(t, spec.Items)
}

func TestParse_PointScenario(t *testing.T) {
	spec, err := Parse("", []byte(`
struct Point { x: i32, y: i32 }
service Points { GET /points/{id: i32} -> Point }
`))
	require.NoError(t, err)
	route := spec.FindService("Points").Endpoints[0].Route
	assert.Equal(t, ast.GET, route.Method)
	assert.Equal(t, []ast.FieldDefPair{{Name: "id", Type: &ast.BuiltIn{Atom: ast.I32}}}, route.Variables())
	assert.Equal(t, &ast.UserDefined{Name: "Point"}, route.Return)
}

func TestLexer_Words(t *testing.T) {
	toks, err := newLexer("", []byte("monster-list->x ..A ()")).all()
	require.NoError(t, err)
	var kinds []tokenKind
	var vals []string
	for _, tk := range toks {
		kinds = append(kinds, tk.kind)
		vals = append(vals, tk.val)
	}
	assert.Equal(t, []tokenKind{tokWord, tokArrow, tokWord, tokDotDot, tokWord, tokUnit, tokEOF}, kinds)
	assert.Equal(t, "monster-list", vals[0])
}
