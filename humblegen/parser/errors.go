package parser

import (
	"fmt"

	"github.com/broady/humble/humblegen/ast"
)

// Pos is a location in schema source.
type Pos struct {
	Filename string
	Line     int
	Column   int
}

func (p Pos) String() string {
	if p.Filename == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
}

func (p Pos) ast() ast.Pos {
	return ast.Pos{Line: p.Line, Column: p.Column}
}

// Error is a syntax error with the location of the offending token.
type Error struct {
	Pos Pos
	Msg string
}

func (e *Error) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

func errorf(pos Pos, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
