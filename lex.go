package main

import (
	"io"
	"strconv"
	"strings"

	"github.com/jcorbin/lim/internal/runeio"
)

// tokKind discriminates the handful of lexical categories the grammar
// needs: identifiers/keywords (distinguished by the parser, not the
// lexer), integer and string literals, punctuation, and end of input.
type tokKind int

const (
	tEOF tokKind = iota
	tIdent
	tInt
	tString
	tSym
)

type token struct {
	Kind   tokKind
	Text   string // identifier name, keyword spelling, or symbol spelling
	IntVal int
	StrVal []byte
	Line   int
}

// keywords is the set of reserved identifiers the grammar assigns
// meaning to; every other identifier names a variable or procedure.
var keywords = map[string]bool{
	"var": true, "proc": true, "out": true, "inout": true, "in": true,
	"do": true, "od": true, "til": true, "or": true, "eval": true,
	"skip": true, "fail": true, "abort": true, "end": true,
}

func (t token) isKeyword(kw string) bool { return t.Kind == tIdent && t.Text == kw }
func (t token) isSym(s string) bool      { return t.Kind == tSym && t.Text == s }

// lexer tokenizes LIM source read rune-by-rune through a Core's tracked
// Input, so parse errors can cite a source line.
type lexer struct {
	core   *Core
	peek   rune
	havePk bool
	err    error
}

func newLexer(core *Core) *lexer { return &lexer{core: core} }

func (lx *lexer) readRune() (rune, bool) {
	if lx.havePk {
		lx.havePk = false
		return lx.peek, true
	}
	r, _, err := lx.core.ReadRune()
	if err != nil {
		if err != io.EOF {
			lx.err = err
		}
		return 0, false
	}
	return r, true
}

func (lx *lexer) unread(r rune) {
	lx.peek = r
	lx.havePk = true
}

func (lx *lexer) line() int { return lx.core.Scan.Line }

// next returns the next token, skipping whitespace and `#`-to-end-of-line
// comments.
func (lx *lexer) next() (token, error) {
	for {
		r, ok := lx.readRune()
		if !ok {
			if lx.err != nil {
				return token{}, lx.err
			}
			return token{Kind: tEOF, Line: lx.line()}, nil
		}
		switch {
		case r == '#':
			for {
				r, ok := lx.readRune()
				if !ok || r == '\n' {
					break
				}
			}
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			// skip
		case isIdentStart(r):
			return lx.lexIdent(r)
		case r >= '0' && r <= '9':
			return lx.lexInt(r)
		case r == '"':
			return lx.lexString()
		case r == '\'':
			return lx.lexChar()
		default:
			return lx.lexSym(r)
		}
	}
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentCont(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

func (lx *lexer) lexIdent(first rune) (token, error) {
	line := lx.line()
	var sb strings.Builder
	sb.WriteRune(first)
	for {
		r, ok := lx.readRune()
		if !ok {
			break
		}
		if !isIdentCont(r) {
			lx.unread(r)
			break
		}
		sb.WriteRune(r)
	}
	return token{Kind: tIdent, Text: sb.String(), Line: line}, nil
}

func (lx *lexer) lexInt(first rune) (token, error) {
	line := lx.line()
	var sb strings.Builder
	sb.WriteRune(first)
	for {
		r, ok := lx.readRune()
		if !ok {
			break
		}
		if r < '0' || r > '9' {
			lx.unread(r)
			break
		}
		sb.WriteRune(r)
	}
	v, err := strconv.Atoi(sb.String())
	if err != nil {
		return token{}, &compileError{Line: line, Msg: "malformed integer " + sb.String()}
	}
	return token{Kind: tInt, IntVal: v, Line: line}, nil
}

func (lx *lexer) lexString() (token, error) {
	line := lx.line()
	var buf []byte
	for {
		r, ok := lx.readRune()
		if !ok {
			return token{}, &compileError{Line: line, Msg: "unterminated string"}
		}
		if r == '"' {
			break
		}
		if r == '\\' {
			esc, ok := lx.readRune()
			if !ok {
				return token{}, &compileError{Line: line, Msg: "unterminated string escape"}
			}
			c, err := runeio.UnquoteRune(`'\` + string(esc) + `'`)
			if err != nil {
				buf = append(buf, byte(esc))
			} else {
				buf = append(buf, byte(c))
			}
			continue
		}
		buf = append(buf, byte(r))
	}
	return token{Kind: tString, StrVal: buf, Line: line}, nil
}

func (lx *lexer) lexChar() (token, error) {
	line := lx.line()
	var sb strings.Builder
	sb.WriteRune('\'')
	for {
		r, ok := lx.readRune()
		if !ok {
			return token{}, &compileError{Line: line, Msg: "unterminated char literal"}
		}
		sb.WriteRune(r)
		if r == '\'' && sb.Len() > 2 {
			break
		}
		if r == '\\' {
			esc, ok := lx.readRune()
			if !ok {
				return token{}, &compileError{Line: line, Msg: "unterminated char literal"}
			}
			sb.WriteRune(esc)
		}
	}
	r, err := runeio.UnquoteRune(sb.String())
	if err != nil {
		return token{}, &compileError{Line: line, Msg: "malformed char literal: " + err.Error()}
	}
	return token{Kind: tInt, IntVal: int(r), Line: line}, nil
}

// twoCharSyms are the multi-rune symbols the grammar uses; every other
// punctuation rune lexes as a single-rune symbol.
var twoCharSyms = map[string]bool{
	"->": true, ":=": true, "!=": true, "<=": true, ">=": true, "&&": true, "||": true,
}

func (lx *lexer) lexSym(first rune) (token, error) {
	line := lx.line()
	second, ok := lx.readRune()
	if ok {
		if twoCharSyms[string(first)+string(second)] {
			return token{Kind: tSym, Text: string(first) + string(second), Line: line}, nil
		}
		lx.unread(second)
	}
	return token{Kind: tSym, Text: string(first), Line: line}, nil
}
