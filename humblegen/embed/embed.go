// Package embed splices "..Struct" embeds into the fields of the embedding
// struct or struct variant.
package embed

import (
	"errors"
	"fmt"
	"strings"

	"github.com/broady/humble/humblegen/ast"
)

// MaxDepth is the number of expansion rounds allowed before Resolve gives up.
// Cycles and chains deeper than MaxDepth are reported the same way.
const MaxDepth = 10

var (
	// ErrUnresolvedEmbed is returned when an embed names no struct.
	ErrUnresolvedEmbed = errors.New("unresolved embed")

	// ErrEmbedDepthExceeded is returned when embeds keep expanding after MaxDepth rounds.
	ErrEmbedDepthExceeded = errors.New("embed depth exceeded")
)

// Resolve returns a copy of spec with every embed replaced by the fields of the
// embedded struct, in place and in order. The input is not modified.
func Resolve(spec *ast.Spec) (*ast.Spec, error) {
	out := spec.Clone()
	targets := collectTargets(out)
	for round := 0; round <= MaxDepth; round++ {
		changed, err := expand(targets)
		if err != nil {
			return nil, err
		}
		if !changed {
			return out, nil
		}
	}
	return nil, fmt.Errorf("%w: still expanding after %d rounds (cycle or chain deeper than %d)",
		ErrEmbedDepthExceeded, MaxDepth, MaxDepth)
}

// target is a field list that embeds are spliced into.
type target struct {
	key    string // "Struct" or "Enum.Variant"
	fields *[]ast.Field
}

func collectTargets(spec *ast.Spec) []target {
	var out []target
	for _, it := range spec.Items {
		switch d := it.(type) {
		case *ast.StructDef:
			out = append(out, target{key: d.Name, fields: &d.Fields})
		case *ast.EnumDef:
			for i := range d.Variants {
				if sv, ok := d.Variants[i].Type.(*ast.StructVariant); ok {
					out = append(out, target{key: d.Name + "." + d.Variants[i].Name, fields: &sv.Fields})
				}
			}
		}
	}
	return out
}

// expand performs one round: each embed is replaced by the target's fields as
// they were at the start of the round, so every round resolves one level.
func expand(targets []target) (bool, error) {
	lookup := make(map[string][]ast.Field, len(targets))
	for _, t := range targets {
		lookup[t.key] = *t.fields
	}

	changed := false
	next := make([][]ast.Field, len(targets))
	for i, t := range targets {
		if !hasEmbed(*t.fields) {
			continue
		}
		fields := []ast.Field{}
		for _, f := range *t.fields {
			if !f.IsEmbed() {
				fields = append(fields, f)
				continue
			}
			name := f.Pair.Name
			src, ok := lookup[name]
			// Only top-level structs can be embedded; variant keys contain a dot.
			if !ok || strings.Contains(name, ".") {
				return false, fmt.Errorf("%w: %s embeds unknown struct %q", ErrUnresolvedEmbed, t.key, name)
			}
			fields = append(fields, ast.CloneFields(src)...)
			changed = true
		}
		next[i] = fields
	}
	for i, t := range targets {
		if next[i] != nil {
			*t.fields = next[i]
		}
	}
	return changed, nil
}

func hasEmbed(fields []ast.Field) bool {
	for _, f := range fields {
		if f.IsEmbed() {
			return true
		}
	}
	return false
}
