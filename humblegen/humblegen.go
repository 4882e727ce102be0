// Package humblegen compiles humble schema source into a contract.
//
// Compilation runs in three stages, each usable on its own:
//
//	parser.Parse     source -> *ast.Spec
//	embed.Resolve    splice "..Struct" embeds
//	contract.Compile type check, routes and codecs
package humblegen

import (
	"os"

	"github.com/broady/humble/humblegen/contract"
	"github.com/broady/humble/humblegen/embed"
	"github.com/broady/humble/humblegen/parser"
)

// Compile parses, resolves and compiles schema source. The filename is used
// in error positions only.
func Compile(filename string, src []byte) (*contract.Contract, error) {
	spec, err := parser.Parse(filename, src)
	if err != nil {
		return nil, err
	}
	resolved, err := embed.Resolve(spec)
	if err != nil {
		return nil, err
	}
	return contract.Compile(resolved)
}

// CompileFile reads and compiles a schema file.
func CompileFile(path string) (*contract.Contract, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(path, src)
}

// MustCompile is like Compile but panics on error. It is meant for schemas
// embedded in programs.
func MustCompile(filename string, src []byte) *contract.Contract {
	c, err := Compile(filename, src)
	if err != nil {
		panic("humblegen: " + err.Error())
	}
	return c
}
