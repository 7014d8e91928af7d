package parser

import (
	"github.com/hashicorp/go-set/v3"

	"c0lang/internal/diag"
	"c0lang/internal/lexer"
	"c0lang/internal/source"
	"c0lang/internal/syntax"
)

type Parser struct {
	file *source.File
	toks []lexer.Token
	pos  int
	// typeNames is the typedef-aware identifier classifier: an identifier in
	// this set starts a type. Parse inserts every typedef it completes.
	typeNames *set.Set[string]
}

// bailout carries the first error out of the recursive descent.
type bailout struct{ err *diag.Error }

// Parse parses a whole file into declarations. typeNames holds the type
// names already known (from libraries and earlier files) and is extended in
// place as typedefs are parsed.
//
// An input that ends before a declaration is complete fails with
// IncompleteParseError; any other syntax error is a ParseError.
func Parse(file *source.File, typeNames *set.Set[string]) (decls []syntax.Decl, err error) {
	if typeNames == nil {
		typeNames = set.New[string](0)
	}
	p := &Parser{file: file, toks: lexer.Lex(file), typeNames: typeNames}
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			decls, err = nil, b.err
		}
	}()
	for !p.at(lexer.TokenEOF) {
		decls = append(decls, p.parseDecl())
	}
	return decls, nil
}

// ParseExpr parses one expression, optionally followed by ';', that must
// make up the whole file.
func ParseExpr(file *source.File, typeNames *set.Set[string]) (e syntax.Expr, err error) {
	if typeNames == nil {
		typeNames = set.New[string](0)
	}
	p := &Parser{file: file, toks: lexer.Lex(file), typeNames: typeNames}
	defer func() {
		if r := recover(); r != nil {
			b, ok := r.(bailout)
			if !ok {
				panic(r)
			}
			e, err = nil, b.err
		}
	}()
	e = p.parseExpr()
	p.match(lexer.TokenSemicolon)
	if !p.at(lexer.TokenEOF) {
		p.fail("expected end of expression")
	}
	return e, nil
}

// IsIncomplete reports whether err means "more input might fix this".
func IsIncomplete(err error) bool {
	return diag.Is(err, diag.IncompleteParseError)
}

func (p *Parser) cur() lexer.Token { return p.toks[p.pos] }

func (p *Parser) peek(n int) lexer.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) prev() lexer.Token {
	if p.pos == 0 {
		return p.toks[0]
	}
	return p.toks[p.pos-1]
}

func (p *Parser) at(k lexer.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if t.Kind != lexer.TokenEOF {
		p.pos++
	}
	return t
}

func (p *Parser) match(k lexer.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expect(k lexer.Kind, what string) lexer.Token {
	if !p.at(k) {
		p.fail("expected %s", what)
	}
	return p.advance()
}

func (p *Parser) fail(format string, args ...any) {
	tok := p.cur()
	if tok.Kind == lexer.TokenEOF || tok.Kind == lexer.TokenUnterminated {
		panic(bailout{diag.At(diag.IncompleteParseError, tok.Span, "unexpected end of input: "+format, args...)})
	}
	e := diag.At(diag.ParseError, tok.Span, format, args...)
	if tok.Lexeme != "" {
		e.Msg += ", found '" + tok.Lexeme + "'"
	}
	panic(bailout{e})
}

func (p *Parser) spanFrom(start lexer.Token) source.Span {
	return start.Span.To(p.prev().Span)
}

func (p *Parser) isTypeStart(t lexer.Token) bool {
	return t.Kind.StartsType() || (t.Kind == lexer.TokenIdent && p.typeNames.Contains(t.Lexeme))
}

// Declarations

func (p *Parser) parseDecl() syntax.Decl {
	start := p.cur()
	switch start.Kind {
	case lexer.TokenUse, lexer.TokenUseFile:
		p.advance()
		return &syntax.Use{Name: start.Lexeme, Lib: start.Kind == lexer.TokenUse, S: start.Span}
	case lexer.TokenStruct:
		if p.peek(1).Kind == lexer.TokenIdent {
			switch p.peek(2).Kind {
			case lexer.TokenSemicolon:
				p.advance()
				name := p.advance()
				p.advance()
				return &syntax.StructDecl{Name: name.Lexeme, S: p.spanFrom(start)}
			case lexer.TokenLBrace:
				return p.parseStructDef()
			}
		}
	case lexer.TokenTypedef:
		return p.parseTypedef()
	}
	return p.parseFunc()
}

func (p *Parser) parseStructDef() *syntax.StructDecl {
	start := p.advance()
	name := p.advance()
	p.expect(lexer.TokenLBrace, "'{'")
	d := &syntax.StructDecl{Name: name.Lexeme, Defined: true, Fields: []*syntax.Field{}}
	for !p.at(lexer.TokenRBrace) {
		fstart := p.cur()
		ty := p.parseType()
		fname := p.expect(lexer.TokenIdent, "field name")
		p.expect(lexer.TokenSemicolon, "';' after field")
		d.Fields = append(d.Fields, &syntax.Field{Type: ty, Name: fname.Lexeme, S: p.spanFrom(fstart)})
	}
	p.advance()
	p.expect(lexer.TokenSemicolon, "';' after struct definition")
	d.S = p.spanFrom(start)
	return d
}

func (p *Parser) parseTypedef() syntax.Decl {
	start := p.advance()
	ty := p.parseType()
	name := p.expect(lexer.TokenIdent, "typedef name")
	if p.match(lexer.TokenLParen) {
		params := p.parseParams()
		annos := p.parseAnnos()
		p.expect(lexer.TokenSemicolon, "';' after function type definition")
		p.typeNames.Insert(name.Lexeme)
		return &syntax.FuncTypedef{Ret: ty, Name: name.Lexeme, Params: params, Annos: annos, S: p.spanFrom(start)}
	}
	p.expect(lexer.TokenSemicolon, "';' after typedef")
	p.typeNames.Insert(name.Lexeme)
	return &syntax.Typedef{Type: ty, Name: name.Lexeme, S: p.spanFrom(start)}
}

func (p *Parser) parseFunc() *syntax.FuncDecl {
	start := p.cur()
	if !p.isTypeStart(start) {
		p.fail("expected a declaration")
	}
	ret := p.parseType()
	name := p.expect(lexer.TokenIdent, "function name")
	p.expect(lexer.TokenLParen, "'('")
	fn := &syntax.FuncDecl{Ret: ret, Name: name.Lexeme, Params: p.parseParams()}
	fn.Annos = p.parseAnnos()
	if !p.match(lexer.TokenSemicolon) {
		if !p.at(lexer.TokenLBrace) {
			p.fail("expected ';' or function body")
		}
		fn.Body = p.parseBlock()
	}
	fn.S = p.spanFrom(start)
	return fn
}

// parseParams parses after '(' through ')'.
func (p *Parser) parseParams() []*syntax.Param {
	var params []*syntax.Param
	if p.match(lexer.TokenRParen) {
		return params
	}
	for {
		start := p.cur()
		ty := p.parseType()
		name := p.expect(lexer.TokenIdent, "parameter name")
		params = append(params, &syntax.Param{Type: ty, Name: name.Lexeme, S: p.spanFrom(start)})
		if p.match(lexer.TokenRParen) {
			return params
		}
		p.expect(lexer.TokenComma, "',' or ')'")
	}
}

func (p *Parser) parseAnnos() []*syntax.Anno {
	var annos []*syntax.Anno
	for p.at(lexer.TokenAnno) {
		start := p.advance()
		e := p.parseExpr()
		p.expect(lexer.TokenSemicolon, "';' after annotation")
		annos = append(annos, &syntax.Anno{Kind: start.Lexeme, Expr: e, S: p.spanFrom(start)})
	}
	return annos
}

// Types

func (p *Parser) parseType() syntax.Type {
	start := p.cur()
	var ty syntax.Type
	switch start.Kind {
	case lexer.TokenIntKw, lexer.TokenBoolKw, lexer.TokenStringKw, lexer.TokenCharKw, lexer.TokenVoid:
		p.advance()
		ty = &syntax.PrimType{Name: start.Lexeme, S: start.Span}
	case lexer.TokenStruct:
		p.advance()
		name := p.expect(lexer.TokenIdent, "struct name")
		ty = &syntax.StructType{Name: name.Lexeme, S: p.spanFrom(start)}
	case lexer.TokenIdent:
		if !p.typeNames.Contains(start.Lexeme) {
			p.fail("expected a type")
		}
		p.advance()
		ty = &syntax.NamedType{Name: start.Lexeme, S: start.Span}
	default:
		p.fail("expected a type")
	}
	for {
		switch {
		case p.match(lexer.TokenStar):
			ty = &syntax.PointerType{Elem: ty, S: p.spanFrom(start)}
		case p.at(lexer.TokenLBracket) && p.peek(1).Kind == lexer.TokenRBracket:
			p.advance()
			p.advance()
			ty = &syntax.ArrayType{Elem: ty, S: p.spanFrom(start)}
		default:
			return ty
		}
	}
}

// Statements

func (p *Parser) parseBlock() *syntax.Block {
	start := p.expect(lexer.TokenLBrace, "'{'")
	b := &syntax.Block{}
	for !p.at(lexer.TokenRBrace) {
		b.Stmts = append(b.Stmts, p.parseStmt())
	}
	p.advance()
	b.S = p.spanFrom(start)
	return b
}

func (p *Parser) parseStmt() syntax.Stmt {
	start := p.cur()
	switch start.Kind {
	case lexer.TokenLBrace:
		return p.parseBlock()
	case lexer.TokenIf:
		p.advance()
		p.expect(lexer.TokenLParen, "'(' after if")
		test := p.parseExpr()
		p.expect(lexer.TokenRParen, "')'")
		s := &syntax.If{Test: test, Then: p.parseStmt()}
		if p.match(lexer.TokenElse) {
			s.Else = p.parseStmt()
		}
		s.S = p.spanFrom(start)
		return s
	case lexer.TokenWhile:
		p.advance()
		p.expect(lexer.TokenLParen, "'(' after while")
		test := p.parseExpr()
		p.expect(lexer.TokenRParen, "')'")
		annos := p.parseAnnos()
		body := p.parseStmt()
		return &syntax.While{Test: test, Annos: annos, Body: body, S: p.spanFrom(start)}
	case lexer.TokenFor:
		return p.parseFor()
	case lexer.TokenReturn:
		p.advance()
		s := &syntax.Return{}
		if !p.at(lexer.TokenSemicolon) {
			s.X = p.parseExpr()
		}
		p.expect(lexer.TokenSemicolon, "';' after return")
		s.S = p.spanFrom(start)
		return s
	case lexer.TokenBreak:
		p.advance()
		p.expect(lexer.TokenSemicolon, "';' after break")
		return &syntax.Break{S: p.spanFrom(start)}
	case lexer.TokenContinue:
		p.advance()
		p.expect(lexer.TokenSemicolon, "';' after continue")
		return &syntax.Continue{S: p.spanFrom(start)}
	case lexer.TokenAnno:
		annos := p.parseAnnos()
		return &syntax.AnnoStmt{Annos: annos, S: p.spanFrom(start)}
	}
	s := p.parseSimple()
	p.expect(lexer.TokenSemicolon, "';'")
	return s
}

func (p *Parser) parseFor() *syntax.For {
	start := p.advance()
	p.expect(lexer.TokenLParen, "'(' after for")
	s := &syntax.For{}
	if !p.at(lexer.TokenSemicolon) {
		s.Init = p.parseSimple()
	}
	p.expect(lexer.TokenSemicolon, "';' in for")
	s.Test = p.parseExpr()
	p.expect(lexer.TokenSemicolon, "';' in for")
	if !p.at(lexer.TokenRParen) {
		s.Update = p.parseSimple()
	}
	p.expect(lexer.TokenRParen, "')'")
	s.Annos = p.parseAnnos()
	s.Body = p.parseStmt()
	s.S = p.spanFrom(start)
	return s
}

// parseSimple parses a declaration or an expression statement, without ';'.
func (p *Parser) parseSimple() syntax.Stmt {
	start := p.cur()
	if p.isTypeStart(start) {
		ty := p.parseType()
		name := p.expect(lexer.TokenIdent, "variable name")
		d := &syntax.VarDecl{Type: ty, Name: name.Lexeme}
		if p.match(lexer.TokenEq) {
			d.Init = p.parseExpr()
		}
		d.S = p.spanFrom(start)
		return d
	}
	x := p.parseExpr()
	return &syntax.ExprStmt{X: x, S: p.spanFrom(start)}
}

// Expressions

func (p *Parser) parseExpr() syntax.Expr {
	start := p.cur()
	lhs := p.parseTernary()
	if p.cur().Kind.IsAssignOp() {
		op := p.advance()
		rhs := p.parseExpr()
		return &syntax.Assign{Op: op.Lexeme, Left: lhs, Right: rhs, S: p.spanFrom(start)}
	}
	return lhs
}

func (p *Parser) parseTernary() syntax.Expr {
	start := p.cur()
	test := p.parseBinary(1)
	if !p.match(lexer.TokenQuestion) {
		return test
	}
	then := p.parseExpr()
	p.expect(lexer.TokenColon, "':' in conditional expression")
	els := p.parseTernary()
	return &syntax.Ternary{Test: test, Then: then, Else: els, S: p.spanFrom(start)}
}

var binaryPrec = map[lexer.Kind]int{
	lexer.TokenOrOr:    1,
	lexer.TokenAndAnd:  2,
	lexer.TokenPipe:    3,
	lexer.TokenCaret:   4,
	lexer.TokenAmp:     5,
	lexer.TokenEqEq:    6,
	lexer.TokenBangEq:  6,
	lexer.TokenLt:      7,
	lexer.TokenLtEq:    7,
	lexer.TokenGt:      7,
	lexer.TokenGtEq:    7,
	lexer.TokenShl:     8,
	lexer.TokenShr:     8,
	lexer.TokenPlus:    9,
	lexer.TokenMinus:   9,
	lexer.TokenStar:    10,
	lexer.TokenSlash:   10,
	lexer.TokenPercent: 10,
}

// parseBinary is precedence climbing over left-associative operators.
func (p *Parser) parseBinary(minPrec int) syntax.Expr {
	start := p.cur()
	lhs := p.parseUnary()
	for {
		prec, ok := binaryPrec[p.cur().Kind]
		if !ok || prec < minPrec {
			return lhs
		}
		op := p.advance()
		rhs := p.parseBinary(prec + 1)
		lhs = &syntax.Binary{Op: op.Lexeme, Left: lhs, Right: rhs, S: p.spanFrom(start)}
	}
}

func (p *Parser) parseUnary() syntax.Expr {
	start := p.cur()
	switch start.Kind {
	case lexer.TokenBang, lexer.TokenTilde, lexer.TokenMinus, lexer.TokenStar, lexer.TokenAmp:
		p.advance()
		x := p.parseUnary()
		return &syntax.Unary{Op: start.Lexeme, X: x, S: p.spanFrom(start)}
	case lexer.TokenLParen:
		if p.isTypeStart(p.peek(1)) {
			p.advance()
			ty := p.parseType()
			p.expect(lexer.TokenRParen, "')' after cast type")
			x := p.parseUnary()
			return &syntax.Cast{Type: ty, X: x, S: p.spanFrom(start)}
		}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() syntax.Expr {
	start := p.cur()
	x := p.parsePrimary()
	for {
		switch p.cur().Kind {
		case lexer.TokenLBracket:
			p.advance()
			idx := p.parseExpr()
			p.expect(lexer.TokenRBracket, "']'")
			x = &syntax.Index{X: x, Index: idx, S: p.spanFrom(start)}
		case lexer.TokenDot, lexer.TokenArrow:
			arrow := p.advance().Kind == lexer.TokenArrow
			field := p.expect(lexer.TokenIdent, "field name")
			x = &syntax.Member{X: x, Field: field.Lexeme, Arrow: arrow, S: p.spanFrom(start)}
		case lexer.TokenLParen:
			p.advance()
			args := p.parseArgs()
			x = &syntax.Call{Callee: x, Args: args, S: p.spanFrom(start)}
		case lexer.TokenPlusPlus, lexer.TokenMinusMinus:
			op := p.advance()
			x = &syntax.Update{Op: op.Lexeme, X: x, S: p.spanFrom(start)}
		default:
			return x
		}
	}
}

// parseArgs parses after '(' through ')'.
func (p *Parser) parseArgs() []syntax.Expr {
	var args []syntax.Expr
	if p.match(lexer.TokenRParen) {
		return args
	}
	for {
		args = append(args, p.parseExpr())
		if p.match(lexer.TokenRParen) {
			return args
		}
		p.expect(lexer.TokenComma, "',' or ')'")
	}
}

func (p *Parser) parsePrimary() syntax.Expr {
	tok := p.cur()
	switch tok.Kind {
	case lexer.TokenInt:
		p.advance()
		return &syntax.IntLit{Raw: tok.Lexeme, S: tok.Span}
	case lexer.TokenString:
		p.advance()
		return &syntax.StringLit{Raw: tok.Lexeme, S: tok.Span}
	case lexer.TokenChar:
		p.advance()
		return &syntax.CharLit{Raw: tok.Lexeme, S: tok.Span}
	case lexer.TokenTrue, lexer.TokenFalse:
		p.advance()
		return &syntax.BoolLit{Value: tok.Kind == lexer.TokenTrue, S: tok.Span}
	case lexer.TokenNull:
		p.advance()
		return &syntax.NullLit{S: tok.Span}
	case lexer.TokenIdent:
		if p.typeNames.Contains(tok.Lexeme) {
			p.fail("type name '%s' used as an expression", tok.Lexeme)
		}
		p.advance()
		return &syntax.Ident{Name: tok.Lexeme, S: tok.Span}
	case lexer.TokenLParen:
		p.advance()
		x := p.parseExpr()
		p.expect(lexer.TokenRParen, "')'")
		return x
	case lexer.TokenAlloc:
		p.advance()
		p.expect(lexer.TokenLParen, "'(' after alloc")
		ty := p.parseType()
		p.expect(lexer.TokenRParen, "')'")
		return &syntax.Alloc{Type: ty, S: p.spanFrom(tok)}
	case lexer.TokenAllocArray:
		p.advance()
		p.expect(lexer.TokenLParen, "'(' after alloc_array")
		ty := p.parseType()
		p.expect(lexer.TokenComma, "','")
		size := p.parseExpr()
		p.expect(lexer.TokenRParen, "')'")
		return &syntax.AllocArray{Type: ty, Size: size, S: p.spanFrom(tok)}
	case lexer.TokenAssert, lexer.TokenError:
		p.advance()
		p.expect(lexer.TokenLParen, "'('")
		arg := p.parseExpr()
		p.expect(lexer.TokenRParen, "')'")
		if tok.Kind == lexer.TokenAssert {
			return &syntax.AssertCall{Arg: arg, S: p.spanFrom(tok)}
		}
		return &syntax.ErrorCall{Arg: arg, S: p.spanFrom(tok)}
	case lexer.TokenSpecial:
		return p.parseSpecial()
	}
	p.fail("expected an expression")
	return nil
}

func (p *Parser) parseSpecial() syntax.Expr {
	tok := p.advance()
	sp := &syntax.Special{Name: tok.Lexeme}
	switch tok.Lexeme {
	case "result":
	case "length":
		p.expect(lexer.TokenLParen, "'(' after \\length")
		sp.Args = []syntax.Expr{p.parseExpr()}
		p.expect(lexer.TokenRParen, "')'")
	case "hastag":
		p.expect(lexer.TokenLParen, "'(' after \\hastag")
		sp.Type = p.parseType()
		p.expect(lexer.TokenComma, "','")
		sp.Args = []syntax.Expr{p.parseExpr()}
		p.expect(lexer.TokenRParen, "')'")
	default:
		p.pos--
		p.fail("unknown special form \\%s", tok.Lexeme)
	}
	sp.S = p.spanFrom(tok)
	return sp
}
