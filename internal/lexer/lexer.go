package lexer

import (
	"strings"

	"c0lang/internal/source"
)

// Lex splits a C0 file into tokens. Identifiers are never classified as type
// names here: the parser owns the growing typedef set and decides per use.
//
// Annotation comments (`//@ ...` and `/*@ ... @*/`) are not comments: their
// contents are lexed as ordinary tokens, so `//@requires x > 0;` yields
// TokenAnno("requires") x > 0 ;.
func Lex(file *source.File) []Token {
	lx := &lexer{file: file, input: file.Input}
	for {
		if bad := lx.skipSpaceAndComments(); bad {
			lx.emit(TokenUnterminated, lx.input[lx.pos:], lx.pos, len(lx.input))
			lx.pos = len(lx.input)
		}
		start := lx.pos
		if lx.pos >= len(lx.input) {
			lx.emit(TokenEOF, "", start, start)
			break
		}
		ch := lx.peek()
		switch {
		case isIdentStart(ch):
			lx.lexIdentOrKeyword()
		case isDigit(ch):
			lx.lexNumber()
		case ch == '"' || ch == '\'':
			lx.lexQuoted(ch)
		case ch == '\\':
			lx.lexPrefixed(TokenSpecial)
		case ch == '@':
			lx.lexPrefixed(TokenAnno)
		case ch == '#':
			lx.lexDirective()
		default:
			lx.lexPunct()
		}
	}
	return lx.tokens
}

type lexer struct {
	file   *source.File
	input  string
	pos    int
	tokens []Token
	// inLineAnno is set inside `//@`; the annotation ends at the newline.
	inLineAnno bool
}

func (lx *lexer) peek() byte { return lx.input[lx.pos] }

func (lx *lexer) peekAt(n int) byte {
	if lx.pos+n >= len(lx.input) {
		return 0
	}
	return lx.input[lx.pos+n]
}

func (lx *lexer) emit(k Kind, lex string, start, end int) {
	lx.tokens = append(lx.tokens, Token{
		Kind:   k,
		Lexeme: lex,
		Span:   source.Span{File: lx.file, Start: start, End: end},
	})
}

// skipSpaceAndComments reports true when a block comment runs off the input.
func (lx *lexer) skipSpaceAndComments() bool {
	for lx.pos < len(lx.input) {
		ch := lx.input[lx.pos]
		switch {
		case ch == '\n':
			lx.inLineAnno = false
			lx.pos++
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\f' || ch == '\v':
			lx.pos++
		case ch == '@' && lx.peekAt(1) == '*' && lx.peekAt(2) == '/':
			lx.pos += 3
		case ch == '/' && lx.peekAt(1) == '/' && lx.peekAt(2) == '@' && !lx.inLineAnno:
			lx.pos += 2
			lx.inLineAnno = true
		case ch == '/' && lx.peekAt(1) == '*' && lx.peekAt(2) == '@':
			lx.pos += 2
		case ch == '/' && lx.peekAt(1) == '/':
			for lx.pos < len(lx.input) && lx.input[lx.pos] != '\n' {
				lx.pos++
			}
		case ch == '/' && lx.peekAt(1) == '*':
			if !lx.skipBlockComment() {
				return true
			}
		default:
			return false
		}
	}
	return false
}

// skipBlockComment consumes a possibly nested /* */ comment.
func (lx *lexer) skipBlockComment() bool {
	depth := 0
	for lx.pos < len(lx.input) {
		switch {
		case lx.input[lx.pos] == '/' && lx.peekAt(1) == '*':
			depth++
			lx.pos += 2
		case lx.input[lx.pos] == '*' && lx.peekAt(1) == '/':
			depth--
			lx.pos += 2
			if depth == 0 {
				return true
			}
		default:
			lx.pos++
		}
	}
	return false
}

func (lx *lexer) lexIdentOrKeyword() {
	start := lx.pos
	lx.pos++
	for lx.pos < len(lx.input) && isIdentContinue(lx.input[lx.pos]) {
		lx.pos++
	}
	lex := lx.input[start:lx.pos]
	if k, ok := keywords[lex]; ok {
		lx.emit(k, lex, start, lx.pos)
		return
	}
	lx.emit(TokenIdent, lex, start, lx.pos)
}

// lexNumber keeps the raw text; range and format checks happen during
// restriction so they can be reported as literal errors.
func (lx *lexer) lexNumber() {
	start := lx.pos
	for lx.pos < len(lx.input) && isIdentContinue(lx.input[lx.pos]) {
		lx.pos++
	}
	lx.emit(TokenInt, lx.input[start:lx.pos], start, lx.pos)
}

func (lx *lexer) lexQuoted(quote byte) {
	start := lx.pos
	kind := TokenString
	if quote == '\'' {
		kind = TokenChar
	}
	lx.pos++
	for lx.pos < len(lx.input) {
		ch := lx.input[lx.pos]
		lx.pos++
		switch {
		case ch == quote:
			lx.emit(kind, lx.input[start:lx.pos], start, lx.pos)
			return
		case ch == '\\' && lx.pos < len(lx.input):
			lx.pos++
		case ch == '\n':
			lx.emit(TokenBad, lx.input[start:lx.pos-1], start, lx.pos-1)
			return
		}
	}
	lx.emit(TokenUnterminated, lx.input[start:], start, lx.pos)
}

// lexPrefixed lexes `\name` and `@name`; the lexeme drops the prefix.
func (lx *lexer) lexPrefixed(kind Kind) {
	start := lx.pos
	lx.pos++
	for lx.pos < len(lx.input) && isIdentContinue(lx.input[lx.pos]) {
		lx.pos++
	}
	if lx.pos == start+1 {
		lx.emit(TokenBad, lx.input[start:lx.pos], start, lx.pos)
		return
	}
	lx.emit(kind, lx.input[start+1:lx.pos], start, lx.pos)
}

// lexDirective handles `#use <lib>` and `#use "file"`, which occupy a line.
func (lx *lexer) lexDirective() {
	start := lx.pos
	end := strings.IndexByte(lx.input[start:], '\n')
	if end < 0 {
		end = len(lx.input)
	} else {
		end += start
	}
	line := strings.TrimSpace(lx.input[start:end])
	lx.pos = end
	rest, ok := strings.CutPrefix(line, "#use")
	if !ok {
		lx.emit(TokenBad, line, start, end)
		return
	}
	rest = strings.TrimSpace(rest)
	switch {
	case len(rest) >= 2 && rest[0] == '<' && rest[len(rest)-1] == '>':
		lx.emit(TokenUse, rest[1:len(rest)-1], start, end)
	case len(rest) >= 2 && rest[0] == '"' && rest[len(rest)-1] == '"':
		lx.emit(TokenUseFile, rest[1:len(rest)-1], start, end)
	default:
		lx.emit(TokenBad, line, start, end)
	}
}

func (lx *lexer) lexPunct() {
	start := lx.pos
	for _, p := range puncts {
		if strings.HasPrefix(lx.input[lx.pos:], p.text) {
			lx.pos += len(p.text)
			lx.emit(p.kind, p.text, start, lx.pos)
			return
		}
	}
	lx.pos++
	lx.emit(TokenBad, lx.input[start:lx.pos], start, lx.pos)
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentContinue(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}
