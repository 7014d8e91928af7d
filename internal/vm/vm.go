// Package vm executes bytecode programs on a stack machine.
package vm

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"modernc.org/mathutil"

	"c0lang/internal/bytecode"
	"c0lang/internal/diag"
	"c0lang/internal/types"
)

// Config controls a Machine's I/O and instruction budget.
type Config struct {
	Out io.Writer
	In  io.Reader
	// Gas bounds the number of executed instructions; zero or less means
	// unlimited.
	Gas int
	// Trace, when set, receives one line per executed instruction.
	Trace io.Writer
}

// frame is one activation: the running function, its pc, operand stack
// and locals.
type frame struct {
	fn     *bytecode.Func
	pc     int
	stack  []Value
	locals map[string]Value
}

// Machine runs one bytecode program. It is not safe for concurrent use.
type Machine struct {
	prog    *bytecode.Program
	natives map[string]NativeFunc
	out     io.Writer
	in      *bufio.Reader
	trace   io.Writer
	gas     int

	cur   frame
	calls []frame
	// empty is the array every array-typed cell starts out as.
	empty *Base
}

// New prepares a machine for p. Every native p declares must have an
// implementation.
func New(p *bytecode.Program, cfg Config) (*Machine, error) {
	m := &Machine{
		prog:    p,
		natives: map[string]NativeFunc{},
		out:     cfg.Out,
		trace:   cfg.Trace,
		gas:     cfg.Gas,
		empty:   &Base{},
	}
	if m.out == nil {
		m.out = io.Discard
	}
	if cfg.In != nil {
		m.in = bufio.NewReader(cfg.In)
	}
	if m.gas <= 0 {
		m.gas = mathutil.MaxInt
	}
	for name, n := range p.Natives {
		impl, ok := builtins[name]
		if !ok {
			return nil, diag.Impossible("library function %s has no implementation", name)
		}
		if impl.arity != n.Arity {
			return nil, diag.Impossible("library function %s declared with %d arguments, implemented with %d", name, n.Arity, impl.arity)
		}
		m.natives[name] = impl.fn
	}
	return m, nil
}

// Run calls main and runs it to completion.
func Run(p *bytecode.Program, cfg Config) (Value, error) {
	m, err := New(p, cfg)
	if err != nil {
		return Value{}, err
	}
	return m.Call("main")
}

// Call runs the named function to completion.
func (m *Machine) Call(name string, args ...Value) (Value, error) {
	if err := m.Start(name, args...); err != nil {
		return Value{}, err
	}
	for {
		v, done, err := m.Step()
		if err != nil {
			return Value{}, err
		}
		if done {
			return v, nil
		}
	}
}

// Start sets up a call to name with an empty call stack.
func (m *Machine) Start(name string, args ...Value) error {
	fn, ok := m.prog.Funcs[name]
	if !ok {
		return diag.Impossible("no function %s", name)
	}
	if len(args) != len(fn.Params) {
		return diag.Impossible("%s expects %d arguments, got %d", name, len(fn.Params), len(args))
	}
	m.calls = nil
	m.cur = m.newFrame(fn, args)
	return nil
}

func (m *Machine) newFrame(fn *bytecode.Func, args []Value) frame {
	locals := make(map[string]Value, len(fn.Params))
	for i, p := range fn.Params {
		locals[p] = args[i]
	}
	return frame{fn: fn, locals: locals}
}

func (m *Machine) push(v Value) { m.cur.stack = append(m.cur.stack, v) }

func (m *Machine) pop() Value {
	n := len(m.cur.stack)
	if n == 0 {
		panic(diag.Impossible("%s: operand stack underflow at %d", m.cur.fn.Name, m.cur.pc))
	}
	v := m.cur.stack[n-1]
	m.cur.stack = m.cur.stack[:n-1]
	return v
}

func (m *Machine) popN(n int) []Value {
	args := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = m.pop()
	}
	return args
}

func (m *Machine) jump(label string) {
	m.cur.pc = m.cur.fn.Labels[label]
}

// Step executes one instruction. It returns done once the outermost call
// returns, with its value.
func (m *Machine) Step() (v Value, done bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(*diag.Error)
			if !ok {
				panic(r)
			}
			err = e
		}
	}()
	if m.gas <= 0 {
		return Value{}, false, diag.New(diag.NonterminationError, "instruction budget exhausted")
	}
	m.gas--
	if m.cur.pc >= len(m.cur.fn.Code) {
		return Value{}, false, diag.Impossible("%s: execution ran past the last instruction", m.cur.fn.Name)
	}
	ins := m.cur.fn.Code[m.cur.pc]
	if m.trace != nil {
		fmt.Fprintf(m.trace, "%s %d %s\n", m.cur.fn.Name, m.cur.pc, bytecode.String(ins))
	}
	m.cur.pc++
	return m.exec(ins)
}

func (m *Machine) exec(ins bytecode.Instr) (Value, bool, error) {
	switch ins := ins.(type) {
	case *bytecode.Label:
	case *bytecode.Pop:
		m.pop()
	case *bytecode.Dup:
		v := m.pop()
		m.push(v)
		m.push(v)
	case *bytecode.Swap:
		b, a := m.pop(), m.pop()
		m.push(b)
		m.push(a)
	case *bytecode.IConst:
		m.push(Int(ins.V))
	case *bytecode.BConst:
		m.push(Bool(ins.V))
	case *bytecode.CConst:
		m.push(Char(ins.V))
	case *bytecode.SConst:
		m.push(String(ins.V))
	case *bytecode.AConstNull:
		m.push(Null())
	case *bytecode.Arith:
		b, a := m.pop(), m.pop()
		r, err := arith(ins.Op, a.I, b.I)
		if err != nil {
			return Value{}, false, err
		}
		m.push(Int(r))
	case *bytecode.VLoad:
		v, ok := m.cur.locals[ins.Name]
		if !ok {
			return Value{}, false, diag.Impossible("%s: local %s read before assignment", m.cur.fn.Name, ins.Name)
		}
		m.push(v)
	case *bytecode.VStore:
		m.cur.locals[ins.Name] = m.pop()
	case *bytecode.Goto:
		m.jump(ins.Target)
	case *bytecode.If:
		if m.pop().B {
			m.jump(ins.Target)
		}
	case *bytecode.IfCmp:
		b, a := m.pop(), m.pop()
		ok, err := compare(ins.Family, ins.Op, a, b)
		if err != nil {
			return Value{}, false, err
		}
		if ok {
			m.jump(ins.Target)
		}
	case *bytecode.InvokeStatic:
		return Value{}, false, m.invoke(ins.Name, m.popN(ins.Argc))
	case *bytecode.InvokeNative:
		return Value{}, false, m.invoke(ins.Name, m.popN(ins.Argc))
	case *bytecode.InvokeDynamic:
		args := m.popN(ins.Argc)
		fp := m.pop()
		if fp.K != VFunc {
			return Value{}, false, diag.New(diag.MemoryError, "call through a NULL function pointer")
		}
		return Value{}, false, m.invoke(fp.S, args)
	case *bytecode.FuncPtr:
		m.push(Value{K: VFunc, S: ins.Name})
	case *bytecode.Return:
		var v Value
		if !ins.Void {
			v = m.pop()
		}
		if len(m.calls) == 0 {
			return v, true, nil
		}
		m.cur = m.calls[len(m.calls)-1]
		m.calls = m.calls[:len(m.calls)-1]
		if !ins.Void {
			m.push(v)
		}
	case *bytecode.New:
		b := &Base{Elem: ins.Type, Cells: []Value{m.zero(ins.Type)}}
		m.push(Value{K: VPointer, P: &Addr{Base: b}})
	case *bytecode.NewArray:
		n := m.pop().I
		if n < 0 {
			return Value{}, false, diag.New(diag.MemoryError, "invalid array size %d", n)
		}
		m.push(Value{K: VArray, A: &Base{Elem: ins.Elem, Cells: make([]Value, n)}})
	case *bytecode.ArrayLength:
		a := m.pop()
		m.push(Int(int32(len(a.A.Cells))))
	case *bytecode.AAddF:
		p := m.pop()
		if p.K != VPointer {
			return Value{}, false, diag.New(diag.MemoryError, "NULL pointer dereference")
		}
		m.push(Value{K: VPointer, P: p.P.field(ins.Field)})
	case *bytecode.AAddS:
		i, a := m.pop().I, m.pop()
		if i < 0 || int(i) >= len(a.A.Cells) {
			return Value{}, false, diag.New(diag.MemoryError, "out of bounds array access: index %d, length %d", i, len(a.A.Cells))
		}
		m.push(Value{K: VPointer, P: &Addr{Base: a.A, Index: int(i)}})
	case *bytecode.MLoad:
		p := m.pop()
		if p.K != VPointer {
			return Value{}, false, diag.New(diag.MemoryError, "NULL pointer dereference")
		}
		m.push(*m.cell(p.P))
	case *bytecode.MStore:
		v, p := m.pop(), m.pop()
		if p.K != VPointer {
			return Value{}, false, diag.New(diag.MemoryError, "NULL pointer dereference")
		}
		*m.cell(p.P) = v
	case *bytecode.AddTag:
		v := m.pop()
		if v.K == VNull {
			m.push(v)
			break
		}
		m.push(Value{K: VTagged, S: ins.Tag, T: &v})
	case *bytecode.CheckTag:
		v := m.pop()
		switch {
		case v.K == VNull:
			m.push(v)
		case v.K == VTagged && v.S == ins.Tag:
			m.push(*v.T)
		default:
			return Value{}, false, diag.New(diag.MemoryError, "cast of void* tagged %s to %s", v.S, ins.Tag)
		}
	case *bytecode.Untag:
		v := m.pop()
		if v.K == VTagged {
			v = *v.T
		}
		m.push(v)
	case *bytecode.IfHasTag:
		v := m.pop()
		if v.K == VNull || (v.K == VTagged && v.S == ins.Tag) {
			m.jump(ins.Target)
		}
	case *bytecode.Abort:
		return Value{}, false, diag.Abort(ins.Contract, m.pop().S)
	default:
		return Value{}, false, diag.Impossible("unknown instruction %T", ins)
	}
	return Value{}, false, nil
}

// invoke calls a native directly or enters a bytecode function.
func (m *Machine) invoke(name string, args []Value) error {
	if native, ok := m.natives[name]; ok {
		v, err := native(m, args)
		if err != nil {
			return err
		}
		if !m.prog.Natives[name].Void {
			m.push(v)
		}
		return nil
	}
	fn, ok := m.prog.Funcs[name]
	if !ok {
		return diag.Impossible("call of unknown function %s", name)
	}
	m.calls = append(m.calls, m.cur)
	m.cur = m.newFrame(fn, args)
	return nil
}

// cell resolves an address, initializing the base cell and every struct
// field along the path on first touch.
func (m *Machine) cell(a *Addr) *Value {
	c := &a.Base.Cells[a.Index]
	if c.K == VUndef {
		*c = m.zero(a.Base.Elem)
	}
	for _, name := range a.Path {
		if c.K != VStruct {
			panic(diag.Impossible("field %s of a non-struct value", name))
		}
		f, ok := c.M.Fields[name]
		if !ok {
			st := m.prog.Structs[c.M.Name]
			if st == nil {
				panic(diag.Impossible("struct %s has no layout", c.M.Name))
			}
			decl, ok := st.Field(name)
			if !ok {
				panic(diag.Impossible("struct %s has no field %s", c.M.Name, name))
			}
			v := m.zero(decl.Type)
			f = &v
			c.M.Fields[name] = f
		}
		c = f
	}
	return c
}

// zero is the default value of a cell of type t.
func (m *Machine) zero(t types.Type) Value {
	switch t.K {
	case types.TyInt:
		return Int(0)
	case types.TyBool:
		return Bool(false)
	case types.TyChar:
		return Char(0)
	case types.TyString:
		return String("")
	case types.TyArray:
		return Value{K: VArray, A: m.empty}
	case types.TyStruct:
		return Value{K: VStruct, M: &Struct{Name: t.Name, Fields: map[string]*Value{}}}
	default:
		return Null()
	}
}

func arith(op bytecode.ArithOp, a, b int32) (int32, error) {
	switch op {
	case bytecode.IAdd:
		return a + b, nil
	case bytecode.ISub:
		return a - b, nil
	case bytecode.IMul:
		return a * b, nil
	case bytecode.IDiv, bytecode.IRem:
		if b == 0 {
			return 0, diag.New(diag.ArithmeticError, "division by zero")
		}
		if a == math.MinInt32 && b == -1 {
			return 0, diag.New(diag.ArithmeticError, "division overflow")
		}
		if op == bytecode.IDiv {
			return a / b, nil
		}
		return a % b, nil
	case bytecode.IAnd:
		return a & b, nil
	case bytecode.IOr:
		return a | b, nil
	case bytecode.IXor:
		return a ^ b, nil
	case bytecode.IShl, bytecode.IShr:
		if b < 0 || b >= 32 {
			return 0, diag.New(diag.ArithmeticError, "shift by %d is out of range", b)
		}
		if op == bytecode.IShl {
			return a << uint(b), nil
		}
		return a >> uint(b), nil
	}
	return 0, diag.Impossible("unknown arithmetic op %s", op)
}

func compare(family bytecode.CmpFamily, op bytecode.CmpOp, a, b Value) (bool, error) {
	var x, y int64
	switch family {
	case bytecode.CmpInt:
		x, y = int64(a.I), int64(b.I)
	case bytecode.CmpChar:
		x, y = int64(a.C), int64(b.C)
	case bytecode.CmpBool:
		if op != bytecode.CmpEq && op != bytecode.CmpNe {
			return false, diag.Impossible("ordering comparison of booleans")
		}
		return (a.B == b.B) == (op == bytecode.CmpEq), nil
	case bytecode.CmpRef:
		if op != bytecode.CmpEq && op != bytecode.CmpNe {
			return false, diag.Impossible("ordering comparison of references")
		}
		return sameRef(a, b) == (op == bytecode.CmpEq), nil
	}
	switch op {
	case bytecode.CmpEq:
		return x == y, nil
	case bytecode.CmpNe:
		return x != y, nil
	case bytecode.CmpLt:
		return x < y, nil
	case bytecode.CmpLe:
		return x <= y, nil
	case bytecode.CmpGt:
		return x > y, nil
	case bytecode.CmpGe:
		return x >= y, nil
	}
	return false, diag.Impossible("unknown comparison %s", op)
}
