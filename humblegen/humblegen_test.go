package humblegen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/broady/humble/humblegen/contract"
	"github.com/broady/humble/humblegen/embed"
	"github.com/broady/humble/humblegen/parser"
)

func TestCompile(t *testing.T) {
	c, err := Compile("points.humble", []byte(`
struct Point { x: i32, ..Extra }
struct Extra { label: option[str] }
service Points { GET /points/{id: i32} -> Point }
`))
	require.NoError(t, err)
	assert.Len(t, c.Struct("Point").Fields, 2)
	assert.Equal(t, "get_points_id", c.Service("Points").Routes[0].Name)
}

func TestCompile_StageErrors(t *testing.T) {
	_, err := Compile("bad.humble", []byte("struct {"))
	_, ok := parser.AsError(err)
	assert.True(t, ok)
	assert.Contains(t, err.Error(), "bad.humble:1:8")

	_, err = Compile("", []byte("struct A { ..B }\nstruct B { ..A }"))
	assert.ErrorIs(t, err, embed.ErrEmbedDepthExceeded)

	_, err = Compile("", []byte("struct A { b: B }"))
	assert.ErrorIs(t, err, contract.ErrUnresolvedTypeReference)
}

func TestCompileFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "api.humble")
	require.NoError(t, os.WriteFile(path, []byte("struct A { x: i32 }"), 0o644))
	c, err := CompileFile(path)
	require.NoError(t, err)
	assert.NotNil(t, c.Struct("A"))

	_, err = CompileFile(filepath.Join(t.TempDir(), "missing.humble"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMustCompile_Panics(t *testing.T) {
	assert.Panics(t, func() { MustCompile("", []byte("nope")) })
}
