// Package ast is the validated C0 tree. Every node here is legal for the
// dialect it was restricted under; statement-shaped forms (assignment,
// increment, assert, error) only appear as statements.
package ast

import "c0lang/internal/source"

type Program struct {
	Decls []Decl
}

// Type is a surface type. NamedType is an unresolved typedef or function
// type name; the checker expands it through the global environment.
type Type interface {
	typeNode()
	Span() source.Span
}

type IntType struct{ S source.Span }

func (*IntType) typeNode()           {}
func (t *IntType) Span() source.Span { return t.S }

type BoolType struct{ S source.Span }

func (*BoolType) typeNode()           {}
func (t *BoolType) Span() source.Span { return t.S }

type StringType struct{ S source.Span }

func (*StringType) typeNode()           {}
func (t *StringType) Span() source.Span { return t.S }

type CharType struct{ S source.Span }

func (*CharType) typeNode()           {}
func (t *CharType) Span() source.Span { return t.S }

type VoidType struct{ S source.Span }

func (*VoidType) typeNode()           {}
func (t *VoidType) Span() source.Span { return t.S }

type PointerType struct {
	Elem Type
	S    source.Span
}

func (*PointerType) typeNode()           {}
func (t *PointerType) Span() source.Span { return t.S }

type ArrayType struct {
	Elem Type
	S    source.Span
}

func (*ArrayType) typeNode()           {}
func (t *ArrayType) Span() source.Span { return t.S }

type StructType struct {
	Name string
	S    source.Span
}

func (*StructType) typeNode()           {}
func (t *StructType) Span() source.Span { return t.S }

type NamedType struct {
	Name string
	S    source.Span
}

func (*NamedType) typeNode()           {}
func (t *NamedType) Span() source.Span { return t.S }

// Expr
type Expr interface {
	exprNode()
	Span() source.Span
}

type IntLit struct {
	Value int32
	S     source.Span
}

func (*IntLit) exprNode()           {}
func (e *IntLit) Span() source.Span { return e.S }

type BoolLit struct {
	Value bool
	S     source.Span
}

func (*BoolLit) exprNode()           {}
func (e *BoolLit) Span() source.Span { return e.S }

type StringLit struct {
	Value string // decoded
	S     source.Span
}

func (*StringLit) exprNode()           {}
func (e *StringLit) Span() source.Span { return e.S }

type CharLit struct {
	Value byte
	S     source.Span
}

func (*CharLit) exprNode()           {}
func (e *CharLit) Span() source.Span { return e.S }

type NullLit struct{ S source.Span }

func (*NullLit) exprNode()           {}
func (e *NullLit) Span() source.Span { return e.S }

type IdentExpr struct {
	Name string
	S    source.Span
}

func (*IdentExpr) exprNode()           {}
func (e *IdentExpr) Span() source.Span { return e.S }

// UnaryExpr is `!`, `~` or unary `-`. Dereference and address-of have their
// own nodes.
type UnaryExpr struct {
	Op string
	X  Expr
	S  source.Span
}

func (*UnaryExpr) exprNode()           {}
func (e *UnaryExpr) Span() source.Span { return e.S }

// BinaryExpr covers arithmetic, bitwise, shift and comparison operators.
type BinaryExpr struct {
	Op    string
	Left  Expr
	Right Expr
	S     source.Span
}

func (*BinaryExpr) exprNode()           {}
func (e *BinaryExpr) Span() source.Span { return e.S }

// LogicalExpr is a short-circuit `&&` or `||`.
type LogicalExpr struct {
	Op    string
	Left  Expr
	Right Expr
	S     source.Span
}

func (*LogicalExpr) exprNode()           {}
func (e *LogicalExpr) Span() source.Span { return e.S }

type CondExpr struct {
	Test Expr
	Then Expr
	Else Expr
	S    source.Span
}

func (*CondExpr) exprNode()           {}
func (e *CondExpr) Span() source.Span { return e.S }

// CallExpr calls a function by name.
type CallExpr struct {
	Callee string
	Args   []Expr
	S      source.Span
}

func (*CallExpr) exprNode()           {}
func (e *CallExpr) Span() source.Span { return e.S }

// IndirectCallExpr is `(*fp)(args)`; Fn is the function pointer.
type IndirectCallExpr struct {
	Fn   Expr
	Args []Expr
	S    source.Span
}

func (*IndirectCallExpr) exprNode()           {}
func (e *IndirectCallExpr) Span() source.Span { return e.S }

// MemberExpr is `x.f`, or `x->f` when Deref is set.
type MemberExpr struct {
	X     Expr
	Field string
	Deref bool
	S     source.Span
}

func (*MemberExpr) exprNode()           {}
func (e *MemberExpr) Span() source.Span { return e.S }

type IndexExpr struct {
	X     Expr
	Index Expr
	S     source.Span
}

func (*IndexExpr) exprNode()           {}
func (e *IndexExpr) Span() source.Span { return e.S }

type DerefExpr struct {
	X Expr
	S source.Span
}

func (*DerefExpr) exprNode()           {}
func (e *DerefExpr) Span() source.Span { return e.S }

// AddrOfExpr is `&f`; only functions can have their address taken.
type AddrOfExpr struct {
	Func string
	S    source.Span
}

func (*AddrOfExpr) exprNode()           {}
func (e *AddrOfExpr) Span() source.Span { return e.S }

// CastExpr converts to and from void*.
type CastExpr struct {
	Type Type
	X    Expr
	S    source.Span
}

func (*CastExpr) exprNode()           {}
func (e *CastExpr) Span() source.Span { return e.S }

type AllocExpr struct {
	Type Type
	S    source.Span
}

func (*AllocExpr) exprNode()           {}
func (e *AllocExpr) Span() source.Span { return e.S }

type AllocArrayExpr struct {
	Type Type
	Size Expr
	S    source.Span
}

func (*AllocArrayExpr) exprNode()           {}
func (e *AllocArrayExpr) Span() source.Span { return e.S }

type ResultExpr struct{ S source.Span }

func (*ResultExpr) exprNode()           {}
func (e *ResultExpr) Span() source.Span { return e.S }

type LengthExpr struct {
	X Expr
	S source.Span
}

func (*LengthExpr) exprNode()           {}
func (e *LengthExpr) Span() source.Span { return e.S }

type HasTagExpr struct {
	Type Type
	X    Expr
	S    source.Span
}

func (*HasTagExpr) exprNode()           {}
func (e *HasTagExpr) Span() source.Span { return e.S }

// Stmt
type Stmt interface {
	stmtNode()
	Span() source.Span
}

// AssignStmt is `=` or a compound assignment; Op is the full operator.
type AssignStmt struct {
	Op    string
	Left  Expr
	Right Expr
	S     source.Span
}

func (*AssignStmt) stmtNode()           {}
func (s *AssignStmt) Span() source.Span { return s.S }

// UpdateStmt is `x++` or `x--`.
type UpdateStmt struct {
	Op string
	X  Expr
	S  source.Span
}

func (*UpdateStmt) stmtNode()           {}
func (s *UpdateStmt) Span() source.Span { return s.S }

type ExprStmt struct {
	X Expr
	S source.Span
}

func (*ExprStmt) stmtNode()           {}
func (s *ExprStmt) Span() source.Span { return s.S }

type VarDeclStmt struct {
	Type Type
	Name string
	Init Expr // optional
	S    source.Span
}

func (*VarDeclStmt) stmtNode()           {}
func (s *VarDeclStmt) Span() source.Span { return s.S }

type IfStmt struct {
	Test Expr
	Then Stmt
	Else Stmt // optional
	S    source.Span
}

func (*IfStmt) stmtNode()           {}
func (s *IfStmt) Span() source.Span { return s.S }

type WhileStmt struct {
	Test       Expr
	Invariants []Expr
	Body       Stmt
	S          source.Span
}

func (*WhileStmt) stmtNode()           {}
func (s *WhileStmt) Span() source.Span { return s.S }

type ForStmt struct {
	Init       Stmt // optional
	Test       Expr
	Update     Stmt // optional
	Invariants []Expr
	Body       Stmt
	S          source.Span
}

func (*ForStmt) stmtNode()           {}
func (s *ForStmt) Span() source.Span { return s.S }

type ReturnStmt struct {
	X Expr // optional
	S source.Span
}

func (*ReturnStmt) stmtNode()           {}
func (s *ReturnStmt) Span() source.Span { return s.S }

type BlockStmt struct {
	Stmts []Stmt
	S     source.Span
}

func (*BlockStmt) stmtNode()           {}
func (s *BlockStmt) Span() source.Span { return s.S }

// AssertStmt is the always-checked `assert(e);`.
type AssertStmt struct {
	X Expr
	S source.Span
}

func (*AssertStmt) stmtNode()           {}
func (s *AssertStmt) Span() source.Span { return s.S }

// ErrorStmt is `error(msg);`.
type ErrorStmt struct {
	X Expr
	S source.Span
}

func (*ErrorStmt) stmtNode()           {}
func (s *ErrorStmt) Span() source.Span { return s.S }

type BreakStmt struct{ S source.Span }

func (*BreakStmt) stmtNode()           {}
func (s *BreakStmt) Span() source.Span { return s.S }

type ContinueStmt struct{ S source.Span }

func (*ContinueStmt) stmtNode()           {}
func (s *ContinueStmt) Span() source.Span { return s.S }

// AnnoAssertStmt is `//@assert e;`, checked only with contracts enabled.
type AnnoAssertStmt struct {
	X Expr
	S source.Span
}

func (*AnnoAssertStmt) stmtNode()           {}
func (s *AnnoAssertStmt) Span() source.Span { return s.S }

// Decl
type Decl interface {
	declNode()
	Span() source.Span
	DeclName() string
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

// StructDecl is a definition when Defined, else a forward declaration.
type StructDecl struct {
	Name    string
	Fields  []Field
	Defined bool
	Lib     bool
	S       source.Span
}

func (*StructDecl) declNode()           {}
func (d *StructDecl) Span() source.Span { return d.S }
func (d *StructDecl) DeclName() string  { return d.Name }

// FuncDecl is a definition when Body is non-nil, else a prototype. Lib marks
// declarations that came from a library header.
type FuncDecl struct {
	Ret      Type
	Name     string
	Params   []Param
	Requires []Expr
	Ensures  []Expr
	Body     *BlockStmt
	Lib      bool
	S        source.Span
}

func (*FuncDecl) declNode()           {}
func (d *FuncDecl) Span() source.Span { return d.S }
func (d *FuncDecl) DeclName() string  { return d.Name }

type TypeDef struct {
	Type Type
	Name string
	S    source.Span
}

func (*TypeDef) declNode()           {}
func (d *TypeDef) Span() source.Span { return d.S }
func (d *TypeDef) DeclName() string  { return d.Name }

// FuncTypeDef names a function type: `typedef int cmp(int a, int b);`.
type FuncTypeDef struct {
	Ret      Type
	Name     string
	Params   []Param
	Requires []Expr
	Ensures  []Expr
	S        source.Span
}

func (*FuncTypeDef) declNode()           {}
func (d *FuncTypeDef) Span() source.Span { return d.S }
func (d *FuncTypeDef) DeclName() string  { return d.Name }

// UseDecl records a `#use`; the loader resolves it before checking.
type UseDecl struct {
	Name string
	Lib  bool
	S    source.Span
}

func (*UseDecl) declNode()           {}
func (d *UseDecl) Span() source.Span { return d.S }
func (d *UseDecl) DeclName() string  { return d.Name }
