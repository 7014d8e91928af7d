// Package syntax is the tree built by the parser. It is deliberately loose:
// assignments, updates, assert and error are ordinary expressions here,
// annotations may appear on any statement, and literals keep their raw
// text. The restrict package turns it into an ast.Program or rejects it.
package syntax

import "c0lang/internal/source"

type Node interface {
	Span() source.Span
}

// Types

type Type interface {
	Node
	typeNode()
}

type PrimType struct {
	Name string // int, bool, string, char, void
	S    source.Span
}

type PointerType struct {
	Elem Type
	S    source.Span
}

type ArrayType struct {
	Elem Type
	S    source.Span
}

type StructType struct {
	Name string
	S    source.Span
}

type NamedType struct {
	Name string
	S    source.Span
}

func (*PrimType) typeNode()    {}
func (*PointerType) typeNode() {}
func (*ArrayType) typeNode()   {}
func (*StructType) typeNode()  {}
func (*NamedType) typeNode()   {}

func (t *PrimType) Span() source.Span    { return t.S }
func (t *PointerType) Span() source.Span { return t.S }
func (t *ArrayType) Span() source.Span   { return t.S }
func (t *StructType) Span() source.Span  { return t.S }
func (t *NamedType) Span() source.Span   { return t.S }

// Expressions

type Expr interface {
	Node
	exprNode()
}

type IntLit struct {
	Raw string
	S   source.Span
}

type StringLit struct {
	Raw string // including quotes
	S   source.Span
}

type CharLit struct {
	Raw string // including quotes
	S   source.Span
}

type BoolLit struct {
	Value bool
	S     source.Span
}

type NullLit struct {
	S source.Span
}

type Ident struct {
	Name string
	S    source.Span
}

// Special is \result, \length(e) or \hastag(ty, e).
type Special struct {
	Name string
	Type Type // \hastag only
	Args []Expr
	S    source.Span
}

type Unary struct {
	Op   string // ! ~ - * &
	X    Expr
	S    source.Span
}

type Binary struct {
	Op    string
	Left  Expr
	Right Expr
	S     source.Span
}

type Ternary struct {
	Test, Then, Else Expr
	S                source.Span
}

type Call struct {
	Callee Expr
	Args   []Expr
	S      source.Span
}

type Member struct {
	X     Expr
	Field string
	Arrow bool
	S     source.Span
}

type Index struct {
	X, Index Expr
	S        source.Span
}

type Cast struct {
	Type Type
	X    Expr
	S    source.Span
}

type Alloc struct {
	Type Type
	S    source.Span
}

type AllocArray struct {
	Type Type
	Size Expr
	S    source.Span
}

// Assign covers `=` and every compound assignment operator.
type Assign struct {
	Op          string
	Left, Right Expr
	S           source.Span
}

// Update is postfix ++ or --.
type Update struct {
	Op string
	X  Expr
	S  source.Span
}

type AssertCall struct {
	Arg Expr
	S   source.Span
}

type ErrorCall struct {
	Arg Expr
	S   source.Span
}

func (*IntLit) exprNode()     {}
func (*StringLit) exprNode()  {}
func (*CharLit) exprNode()    {}
func (*BoolLit) exprNode()    {}
func (*NullLit) exprNode()    {}
func (*Ident) exprNode()      {}
func (*Special) exprNode()    {}
func (*Unary) exprNode()      {}
func (*Binary) exprNode()     {}
func (*Ternary) exprNode()    {}
func (*Call) exprNode()       {}
func (*Member) exprNode()     {}
func (*Index) exprNode()      {}
func (*Cast) exprNode()       {}
func (*Alloc) exprNode()      {}
func (*AllocArray) exprNode() {}
func (*Assign) exprNode()     {}
func (*Update) exprNode()     {}
func (*AssertCall) exprNode() {}
func (*ErrorCall) exprNode()  {}

func (e *IntLit) Span() source.Span     { return e.S }
func (e *StringLit) Span() source.Span  { return e.S }
func (e *CharLit) Span() source.Span    { return e.S }
func (e *BoolLit) Span() source.Span    { return e.S }
func (e *NullLit) Span() source.Span    { return e.S }
func (e *Ident) Span() source.Span      { return e.S }
func (e *Special) Span() source.Span    { return e.S }
func (e *Unary) Span() source.Span      { return e.S }
func (e *Binary) Span() source.Span     { return e.S }
func (e *Ternary) Span() source.Span    { return e.S }
func (e *Call) Span() source.Span       { return e.S }
func (e *Member) Span() source.Span     { return e.S }
func (e *Index) Span() source.Span      { return e.S }
func (e *Cast) Span() source.Span       { return e.S }
func (e *Alloc) Span() source.Span      { return e.S }
func (e *AllocArray) Span() source.Span { return e.S }
func (e *Assign) Span() source.Span     { return e.S }
func (e *Update) Span() source.Span     { return e.S }
func (e *AssertCall) Span() source.Span { return e.S }
func (e *ErrorCall) Span() source.Span  { return e.S }

// Annotations

type Anno struct {
	Kind string // requires, ensures, loop_invariant, assert, or anything the user wrote
	Expr Expr
	S    source.Span
}

// Statements

type Stmt interface {
	Node
	stmtNode()
}

type VarDecl struct {
	Type Type
	Name string
	Init Expr // optional
	S    source.Span
}

type ExprStmt struct {
	X Expr
	S source.Span
}

type If struct {
	Test Expr
	Then Stmt
	Else Stmt // optional
	S    source.Span
}

type While struct {
	Test  Expr
	Annos []*Anno
	Body  Stmt
	S     source.Span
}

type For struct {
	Init   Stmt // optional; VarDecl or ExprStmt
	Test   Expr
	Update Stmt // optional
	Annos  []*Anno
	Body   Stmt
	S      source.Span
}

type Return struct {
	X Expr // optional
	S source.Span
}

type Block struct {
	Stmts []Stmt
	S     source.Span
}

type Break struct {
	S source.Span
}

type Continue struct {
	S source.Span
}

// AnnoStmt is a group of annotations in statement position.
type AnnoStmt struct {
	Annos []*Anno
	S     source.Span
}

func (*VarDecl) stmtNode()  {}
func (*ExprStmt) stmtNode() {}
func (*If) stmtNode()       {}
func (*While) stmtNode()    {}
func (*For) stmtNode()      {}
func (*Return) stmtNode()   {}
func (*Block) stmtNode()    {}
func (*Break) stmtNode()    {}
func (*Continue) stmtNode() {}
func (*AnnoStmt) stmtNode() {}

func (s *VarDecl) Span() source.Span  { return s.S }
func (s *ExprStmt) Span() source.Span { return s.S }
func (s *If) Span() source.Span       { return s.S }
func (s *While) Span() source.Span    { return s.S }
func (s *For) Span() source.Span      { return s.S }
func (s *Return) Span() source.Span   { return s.S }
func (s *Block) Span() source.Span    { return s.S }
func (s *Break) Span() source.Span    { return s.S }
func (s *Continue) Span() source.Span { return s.S }
func (s *AnnoStmt) Span() source.Span { return s.S }

// Declarations

type Decl interface {
	Node
	declNode()
}

type Param struct {
	Type Type
	Name string
	S    source.Span
}

type Field struct {
	Type Type
	Name string
	S    source.Span
}

// StructDecl has nil Fields for a forward declaration.
type StructDecl struct {
	Name    string
	Fields  []*Field
	Defined bool
	S       source.Span
}

// FuncDecl has a nil Body for a prototype.
type FuncDecl struct {
	Ret    Type
	Name   string
	Params []*Param
	Annos  []*Anno
	Body   *Block
	S      source.Span
}

type Typedef struct {
	Type Type
	Name string
	S    source.Span
}

// FuncTypedef is `typedef int f_t(int x) //@requires ...;`.
type FuncTypedef struct {
	Ret    Type
	Name   string
	Params []*Param
	Annos  []*Anno
	S      source.Span
}

// Use is `#use <lib>` (Lib) or `#use "file"`.
type Use struct {
	Name string
	Lib  bool
	S    source.Span
}

func (*StructDecl) declNode()  {}
func (*FuncDecl) declNode()    {}
func (*Typedef) declNode()     {}
func (*FuncTypedef) declNode() {}
func (*Use) declNode()         {}

func (d *StructDecl) Span() source.Span  { return d.S }
func (d *FuncDecl) Span() source.Span    { return d.S }
func (d *Typedef) Span() source.Span     { return d.S }
func (d *FuncTypedef) Span() source.Span { return d.S }
func (d *Use) Span() source.Span         { return d.S }
