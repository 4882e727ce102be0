package embed

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broady/humble/humblegen/ast"
	"github.com/broady/humble/humblegen/parser"
)

func parse(t *testing.T, src string) *ast.Spec {
	t.Helper()
	spec, err := parser.Parse("test.humble", []byte(src))
	require.NoError(t, err)
	return spec
}

func fieldNames(fields []ast.Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Pair.Name
		if f.IsEmbed() {
			names[i] = ".." + names[i]
		}
	}
	return names
}

func TestResolve_SplicesInOrder(t *testing.T) {
	spec := parse(t, `
struct Monster { id: i32, ..MonsterData, alive: bool }
struct MonsterData { name: str, ..Stats }
struct Stats { hp: i32, mp: i32 }
`)
	out, err := Resolve(spec)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "hp", "mp", "alive"}, fieldNames(out.FindStruct("Monster").Fields))
	assert.Equal(t, []string{"name", "hp", "mp"}, fieldNames(out.FindStruct("MonsterData").Fields))
	assert.Equal(t, []string{"hp", "mp"}, fieldNames(out.FindStruct("Stats").Fields))
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	spec := parse(t, `
struct A { ..B }
struct B { x: i32 }
enum E { V { ..B } }
`)
	_, err := Resolve(spec)
	require.NoError(t, err)

	assert.Equal(t, []string{"..B"}, fieldNames(spec.FindStruct("A").Fields))
	variant := spec.FindEnum("E").FindVariant("V").Type.(*ast.StructVariant)
	assert.Equal(t, []string{"..B"}, fieldNames(variant.Fields))
}

func TestResolve_StructVariants(t *testing.T) {
	spec := parse(t, `
struct Common { code: i32, ..Extra }
struct Extra { hint: option[str] }
enum Failure {
    Simple,
    Detailed { reason: str, ..Common },
    Wrapped(Common),
}
`)
	out, err := Resolve(spec)
	require.NoError(t, err)

	enum := out.FindEnum("Failure")
	detailed := enum.FindVariant("Detailed").Type.(*ast.StructVariant)
	assert.Equal(t, []string{"reason", "code", "hint"}, fieldNames(detailed.Fields))
	assert.Equal(t, ast.VariantNewtype, enum.FindVariant("Wrapped").Type.VariantKind())
}

func TestResolve_SplicedFieldsAreCopies(t *testing.T) {
	spec := parse(t, `
struct A { ..C }
struct B { ..C }
struct C { x: list[i32] }
`)
	out, err := Resolve(spec)
	require.NoError(t, err)

	a := out.FindStruct("A").Fields[0].Pair.Type
	b := out.FindStruct("B").Fields[0].Pair.Type
	assert.Equal(t, a, b)
	assert.NotSame(t, a, b)
}

func TestResolve_NoEmbeds(t *testing.T) {
	spec := parse(t, `
struct A { x: i32 }
service S { GET /a -> A }
`)
	out, err := Resolve(spec)
	require.NoError(t, err)
	assert.Equal(t, spec, out)
	assert.NotSame(t, spec, out)
}

func TestResolve_UnknownTarget(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"struct", "struct A { ..Missing }", `A embeds unknown struct "Missing"`},
		{"enum name", "enum E { X }\nstruct A { ..E }", `A embeds unknown struct "E"`},
		{"variant", "struct B { x: i32 }\nenum E { V { ..Nope } }", `E.V embeds unknown struct "Nope"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(parse(t, tt.src))
			require.ErrorIs(t, err, ErrUnresolvedEmbed)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestResolve_Cycles(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"self", "struct A { x: i32, ..A }"},
		{"two", "struct A { ..B }\nstruct B { ..A }"},
		{"three", "struct A { ..B }\nstruct B { ..C }\nstruct C { y: str, ..A }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(parse(t, tt.src))
			require.ErrorIs(t, err, ErrEmbedDepthExceeded)
		})
	}
}

// chain builds S0 { ..S1 }, S1 { ..S2 }, ... S<n> { leaf: i32 }.
func chain(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "struct S%d { ..S%d }\n", i, i+1)
	}
	fmt.Fprintf(&b, "struct S%d { leaf: i32 }\n", n)
	return b.String()
}

func TestResolve_DepthLimit(t *testing.T) {
	out, err := Resolve(parse(t, chain(MaxDepth)))
	require.NoError(t, err)
	assert.Equal(t, []string{"leaf"}, fieldNames(out.FindStruct("S0").Fields))

	_, err = Resolve(parse(t, chain(MaxDepth+1)))
	require.ErrorIs(t, err, ErrEmbedDepthExceeded)
}
