package lexer

import "c0lang/internal/source"

type Kind int

const (
	TokenEOF Kind = iota
	TokenBad
	// TokenUnterminated is a string, char or comment cut off by end of input.
	TokenUnterminated

	// Literals / identifiers
	TokenIdent
	TokenInt
	TokenString
	TokenChar
	TokenSpecial // \result, \length, \hastag
	TokenAnno    // @requires, @ensures, @loop_invariant, @assert
	TokenUse     // #use <lib>
	TokenUseFile // #use "file"

	// Keywords
	TokenIntKw
	TokenBoolKw
	TokenStringKw
	TokenCharKw
	TokenVoid
	TokenStruct
	TokenTypedef
	TokenIf
	TokenElse
	TokenWhile
	TokenFor
	TokenReturn
	TokenTrue
	TokenFalse
	TokenNull
	TokenAlloc
	TokenAllocArray
	TokenAssert
	TokenError
	TokenBreak
	TokenContinue

	// Punct
	TokenLParen
	TokenRParen
	TokenLBrace
	TokenRBrace
	TokenLBracket
	TokenRBracket
	TokenComma
	TokenSemicolon
	TokenDot
	TokenArrow
	TokenQuestion
	TokenColon

	// Operators
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenPercent
	TokenBang
	TokenTilde
	TokenAmp
	TokenPipe
	TokenCaret
	TokenShl
	TokenShr
	TokenAndAnd
	TokenOrOr
	TokenEqEq
	TokenBangEq
	TokenLt
	TokenLtEq
	TokenGt
	TokenGtEq
	TokenPlusPlus
	TokenMinusMinus

	// Assignment operators
	TokenEq
	TokenPlusEq
	TokenMinusEq
	TokenStarEq
	TokenSlashEq
	TokenPercentEq
	TokenAmpEq
	TokenPipeEq
	TokenCaretEq
	TokenShlEq
	TokenShrEq
)

var keywords = map[string]Kind{
	"int":         TokenIntKw,
	"bool":        TokenBoolKw,
	"string":      TokenStringKw,
	"char":        TokenCharKw,
	"void":        TokenVoid,
	"struct":      TokenStruct,
	"typedef":     TokenTypedef,
	"if":          TokenIf,
	"else":        TokenElse,
	"while":       TokenWhile,
	"for":         TokenFor,
	"return":      TokenReturn,
	"true":        TokenTrue,
	"false":       TokenFalse,
	"NULL":        TokenNull,
	"alloc":       TokenAlloc,
	"alloc_array": TokenAllocArray,
	"assert":      TokenAssert,
	"error":       TokenError,
	"break":       TokenBreak,
	"continue":    TokenContinue,
}

// puncts is ordered longest first so the lexer takes the maximal munch.
var puncts = []struct {
	text string
	kind Kind
}{
	{"<<=", TokenShlEq}, {">>=", TokenShrEq},
	{"->", TokenArrow}, {"++", TokenPlusPlus}, {"--", TokenMinusMinus},
	{"<<", TokenShl}, {">>", TokenShr}, {"&&", TokenAndAnd}, {"||", TokenOrOr},
	{"==", TokenEqEq}, {"!=", TokenBangEq}, {"<=", TokenLtEq}, {">=", TokenGtEq},
	{"+=", TokenPlusEq}, {"-=", TokenMinusEq}, {"*=", TokenStarEq}, {"/=", TokenSlashEq},
	{"%=", TokenPercentEq}, {"&=", TokenAmpEq}, {"|=", TokenPipeEq}, {"^=", TokenCaretEq},
	{"(", TokenLParen}, {")", TokenRParen}, {"{", TokenLBrace}, {"}", TokenRBrace},
	{"[", TokenLBracket}, {"]", TokenRBracket}, {",", TokenComma}, {";", TokenSemicolon},
	{".", TokenDot}, {"?", TokenQuestion}, {":", TokenColon},
	{"+", TokenPlus}, {"-", TokenMinus}, {"*", TokenStar}, {"/", TokenSlash},
	{"%", TokenPercent}, {"!", TokenBang}, {"~", TokenTilde}, {"&", TokenAmp},
	{"|", TokenPipe}, {"^", TokenCaret}, {"<", TokenLt}, {">", TokenGt}, {"=", TokenEq},
}

type Token struct {
	Kind   Kind
	Lexeme string
	Span   source.Span
}

func (t Token) Is(k Kind) bool { return t.Kind == k }

// IsAssignOp reports whether k is `=` or a compound assignment operator.
func (k Kind) IsAssignOp() bool { return k >= TokenEq && k <= TokenShrEq }

// StartsType reports whether k can only begin a type (typedef names aside).
func (k Kind) StartsType() bool {
	switch k {
	case TokenIntKw, TokenBoolKw, TokenStringKw, TokenCharKw, TokenVoid, TokenStruct:
		return true
	default:
		return false
	}
}
