package contract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDocument(t *testing.T) {
	c := mustCompile(t, `
/// A point.
struct Point { x: i32, y: i32 }
enum Shape { Dot, Circle { r: f64 }, Poly(list[Point]) }
struct Filter { near: option[Point] }
/// Points API.
service Points {
    /// Fetch one point.
    GET /points/{id: i32}?{Filter} -> Point,
    PUT /points/{id: i32} -> Point -> (),
}
`)
	doc := c.Document()

	require.Len(t, doc.Types, 3)
	assert.Equal(t, TypeDoc{
		Name: "Point", Kind: "struct", Doc: "A point.",
		Fields: []FieldDoc{{Name: "x", Type: "i32"}, {Name: "y", Type: "i32"}},
	}, doc.Types[0])
	assert.Equal(t, []VariantDoc{
		{Name: "Dot", Kind: "Simple"},
		{Name: "Circle", Kind: "Struct", Fields: []FieldDoc{{Name: "r", Type: "f64"}}},
		{Name: "Poly", Kind: "Newtype", Type: "list[Point]"},
	}, doc.Types[1].Variants)

	require.Len(t, doc.Services, 1)
	svc := doc.Services[0]
	assert.Equal(t, "Points API.", svc.Doc)
	assert.Equal(t, RouteDoc{
		Name:         "get_points_id",
		Method:       "GET",
		Path:         "/points/{id}",
		Pattern:      "^/points/(?P<id>[^/]+)$",
		Params:       []FieldDoc{{Name: "id", Type: "i32"}},
		Query:        "Filter",
		QueryDecoder: "form",
		Return:       "Point",
		Doc:          "Fetch one point.",
	}, svc.Routes[0])
	assert.Equal(t, "Point", svc.Routes[1].Body)
	assert.Equal(t, "()", svc.Routes[1].Return)

	t.Run("json", func(t *testing.T) {
		data, err := doc.JSON()
		require.NoError(t, err)
		var back Document
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, *doc, back)
	})

	t.Run("yaml", func(t *testing.T) {
		data, err := doc.YAML()
		require.NoError(t, err)
		assert.Contains(t, string(data), "name: get_points_id")
		var back Document
		require.NoError(t, yaml.Unmarshal(data, &back))
		assert.Equal(t, *doc, back)
	})
}
