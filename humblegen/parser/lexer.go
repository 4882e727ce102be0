package parser

import (
	"strings"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord          // identifiers, keywords and route words
	tokDoc           // one "///" line, text in token value
	tokLBrace
	tokRBrace
	tokLBracket
	tokRBracket
	tokLParen
	tokRParen
	tokComma
	tokColon
	tokSlash
	tokQuestion
	tokArrow
	tokDotDot
	tokUnit // "()"
)

var tokenNames = map[tokenKind]string{
	tokEOF:      "end of input",
	tokWord:     "identifier",
	tokDoc:      "doc comment",
	tokLBrace:   `"{"`,
	tokRBrace:   `"}"`,
	tokLBracket: `"["`,
	tokRBracket: `"]"`,
	tokLParen:   `"("`,
	tokRParen:   `")"`,
	tokComma:    `","`,
	tokColon:    `":"`,
	tokSlash:    `"/"`,
	tokQuestion: `"?"`,
	tokArrow:    `"->"`,
	tokDotDot:   `".."`,
	tokUnit:     `"()"`,
}

func (k tokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	return "unknown token"
}

type token struct {
	kind tokenKind
	val  string
	pos  Pos
}

func (t token) describe() string {
	switch t.kind {
	case tokWord:
		return "identifier " + `"` + t.val + `"`
	default:
		return t.kind.String()
	}
}

// lexer splits schema source into tokens. Plain "//" comments and whitespace
// are dropped; "///" doc lines are kept as tokens.
type lexer struct {
	src  string
	file string
	off  int
	line int
	col  int
}

func newLexer(file string, src []byte) *lexer {
	return &lexer{src: string(src), file: file, line: 1, col: 1}
}

func (l *lexer) pos() Pos {
	return Pos{Filename: l.file, Line: l.line, Column: l.col}
}

func (l *lexer) peekByte(n int) byte {
	if l.off+n < len(l.src) {
		return l.src[l.off+n]
	}
	return 0
}

func (l *lexer) advance(n int) {
	for i := 0; i < n && l.off < len(l.src); i++ {
		r, size := utf8.DecodeRuneInString(l.src[l.off:])
		l.off += size
		if r == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
	}
}

// all tokenizes the whole input.
func (l *lexer) all() ([]token, error) {
	var toks []token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	for l.off < len(l.src) {
		c := l.src[l.off]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance(1)
		case c == '/' && l.peekByte(1) == '/':
			start := l.pos()
			isDoc := l.peekByte(2) == '/' && l.peekByte(3) != '/'
			end := strings.IndexByte(l.src[l.off:], '\n')
			var text string
			if end < 0 {
				text = l.src[l.off:]
			} else {
				text = l.src[l.off : l.off+end]
			}
			l.advance(utf8.RuneCountInString(text))
			if isDoc {
				text = strings.TrimPrefix(text[3:], " ")
				return token{kind: tokDoc, val: strings.TrimRight(text, "\r"), pos: start}, nil
			}
		default:
			return l.scan()
		}
	}
	return token{kind: tokEOF, pos: l.pos()}, nil
}

func (l *lexer) scan() (token, error) {
	start := l.pos()
	c := l.src[l.off]
	single := func(k tokenKind) (token, error) {
		l.advance(1)
		return token{kind: k, val: string(c), pos: start}, nil
	}
	switch c {
	case '{':
		return single(tokLBrace)
	case '}':
		return single(tokRBrace)
	case '[':
		return single(tokLBracket)
	case ']':
		return single(tokRBracket)
	case ')':
		return single(tokRParen)
	case ',':
		return single(tokComma)
	case ':':
		return single(tokColon)
	case '/':
		return single(tokSlash)
	case '?':
		return single(tokQuestion)
	case '(':
		// "()" is the empty atom; whitespace between the parens is not allowed.
		if l.peekByte(1) == ')' {
			l.advance(2)
			return token{kind: tokUnit, val: "()", pos: start}, nil
		}
		return single(tokLParen)
	case '-':
		if l.peekByte(1) == '>' {
			l.advance(2)
			return token{kind: tokArrow, val: "->", pos: start}, nil
		}
	case '.':
		if l.peekByte(1) == '.' {
			l.advance(2)
			return token{kind: tokDotDot, val: "..", pos: start}, nil
		}
	}
	if isWordByte(c) {
		end := l.off
		for end < len(l.src) {
			b := l.src[end]
			if isWordByte(b) {
				end++
				continue
			}
			// Inner hyphens belong to the word ("monster-list"), "->" does not.
			if b == '-' && end+1 < len(l.src) && isWordByte(l.src[end+1]) {
				end++
				continue
			}
			break
		}
		val := l.src[l.off:end]
		l.advance(end - l.off)
		return token{kind: tokWord, val: val, pos: start}, nil
	}
	r, _ := utf8.DecodeRuneInString(l.src[l.off:])
	return token{}, errorf(start, "unexpected character %q", r)
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
