package lexer

import (
	"testing"

	"github.com/nalgeon/be"

	"c0lang/internal/source"
)

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexBasic(t *testing.T) {
	f := source.NewFile("test.c0", `int main() { return 1 + 0x2F; }`)
	toks := Lex(f)
	be.Equal(t, kinds(toks), []Kind{
		TokenIntKw, TokenIdent, TokenLParen, TokenRParen, TokenLBrace,
		TokenReturn, TokenInt, TokenPlus, TokenInt, TokenSemicolon, TokenRBrace, TokenEOF,
	})
	be.Equal(t, toks[8].Lexeme, "0x2F")
}

func TestLexMaximalMunch(t *testing.T) {
	f := source.NewFile("test.c0", `x <<= 1; p->f++; a >>b; c&&d`)
	be.Equal(t, kinds(Lex(f)), []Kind{
		TokenIdent, TokenShlEq, TokenInt, TokenSemicolon,
		TokenIdent, TokenArrow, TokenIdent, TokenPlusPlus, TokenSemicolon,
		TokenIdent, TokenShr, TokenIdent, TokenSemicolon,
		TokenIdent, TokenAndAnd, TokenIdent, TokenEOF,
	})
}

func TestLexAnnotations(t *testing.T) {
	src := "int f(int x)\n//@requires x > 0;\n/*@ensures \\result >= 0; @*/\n{ /* plain */ // plain\n return x; }"
	toks := Lex(source.NewFile("test.c0", src))
	be.Equal(t, kinds(toks), []Kind{
		TokenIntKw, TokenIdent, TokenLParen, TokenIntKw, TokenIdent, TokenRParen,
		TokenAnno, TokenIdent, TokenGt, TokenInt, TokenSemicolon,
		TokenAnno, TokenSpecial, TokenGtEq, TokenInt, TokenSemicolon,
		TokenLBrace, TokenReturn, TokenIdent, TokenSemicolon, TokenRBrace, TokenEOF,
	})
	be.Equal(t, toks[6].Lexeme, "requires")
	be.Equal(t, toks[11].Lexeme, "ensures")
	be.Equal(t, toks[12].Lexeme, "result")
}

func TestLexLiterals(t *testing.T) {
	toks := Lex(source.NewFile("test.c0", `"a\"b" '\n' NULL alloc_array`))
	be.Equal(t, kinds(toks), []Kind{TokenString, TokenChar, TokenNull, TokenAllocArray, TokenEOF})
	be.Equal(t, toks[0].Lexeme, `"a\"b"`)
	be.Equal(t, toks[1].Lexeme, `'\n'`)
}

func TestLexUse(t *testing.T) {
	toks := Lex(source.NewFile("test.c0", "#use <conio>\n#use \"lib.c0\"\nint x;"))
	be.Equal(t, kinds(toks), []Kind{TokenUse, TokenUseFile, TokenIntKw, TokenIdent, TokenSemicolon, TokenEOF})
	be.Equal(t, toks[0].Lexeme, "conio")
	be.Equal(t, toks[1].Lexeme, "lib.c0")
}

func TestLexUnterminated(t *testing.T) {
	for _, src := range []string{`"abc`, `/* open`, `x = 'a`} {
		t.Run(src, func(t *testing.T) {
			toks := Lex(source.NewFile("test.c0", src))
			be.Equal(t, toks[len(toks)-2].Kind, TokenUnterminated)
			be.Equal(t, toks[len(toks)-1].Kind, TokenEOF)
		})
	}
}
