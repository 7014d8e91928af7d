package vm

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"modernc.org/mathutil"

	"c0lang/internal/diag"
	"c0lang/internal/types"
)

// NativeFunc implements a library function. Arguments arrive in call order.
type NativeFunc func(m *Machine, args []Value) (Value, error)

type native struct {
	arity int
	fn    NativeFunc
}

var builtins = map[string]native{}

func register(arity int, fns map[string]NativeFunc) {
	for name, fn := range fns {
		builtins[name] = native{arity: arity, fn: fn}
	}
}

// requires reports a violated library precondition.
func requires(name, cond string) error {
	return diag.Abort("requires", fmt.Sprintf("%s: @requires %s failed", name, cond))
}

func void() Value { return Value{} }

func init() {
	// conio
	register(0, map[string]NativeFunc{
		"flush":    nativeFlush,
		"eof":      nativeEOF,
		"readline": nativeReadline,
	})
	register(1, map[string]NativeFunc{
		"print": func(m *Machine, a []Value) (Value, error) {
			return void(), m.printf("%s", a[0].S)
		},
		"println": func(m *Machine, a []Value) (Value, error) {
			return void(), m.printf("%s\n", a[0].S)
		},
		"printint": func(m *Machine, a []Value) (Value, error) {
			return void(), m.printf("%d", a[0].I)
		},
		"printbool": func(m *Machine, a []Value) (Value, error) {
			return void(), m.printf("%t", a[0].B)
		},
		"printchar": func(m *Machine, a []Value) (Value, error) {
			return void(), m.printf("%c", a[0].C)
		},
	})

	// string
	register(1, map[string]NativeFunc{
		"string_length": func(_ *Machine, a []Value) (Value, error) {
			return Int(int32(len(a[0].S))), nil
		},
		"string_fromint": func(_ *Machine, a []Value) (Value, error) {
			return String(strconv.Itoa(int(a[0].I))), nil
		},
		"string_frombool": func(_ *Machine, a []Value) (Value, error) {
			return String(strconv.FormatBool(a[0].B)), nil
		},
		"string_fromchar": func(_ *Machine, a []Value) (Value, error) {
			if a[0].C == 0 {
				return Value{}, requires("string_fromchar", "c != '\\0'")
			}
			return String(string([]byte{a[0].C})), nil
		},
		"string_tolower": func(_ *Machine, a []Value) (Value, error) {
			return String(strings.ToLower(a[0].S)), nil
		},
		"string_to_chararray": func(_ *Machine, a []Value) (Value, error) {
			s := a[0].S
			cells := make([]Value, len(s)+1)
			for i := 0; i < len(s); i++ {
				cells[i] = Char(s[i])
			}
			cells[len(s)] = Char(0)
			return Value{K: VArray, A: &Base{Elem: types.Char, Cells: cells}}, nil
		},
		"string_from_chararray": func(_ *Machine, a []Value) (Value, error) {
			s, ok := terminated(a[0], len(a[0].A.Cells))
			if !ok {
				return Value{}, requires("string_from_chararray", "string_terminated(A, \\length(A))")
			}
			return String(s), nil
		},
		"char_ord": func(_ *Machine, a []Value) (Value, error) {
			return Int(int32(a[0].C)), nil
		},
		"char_chr": func(_ *Machine, a []Value) (Value, error) {
			if a[0].I < 0 || a[0].I > 127 {
				return Value{}, requires("char_chr", "0 <= n && n <= 127")
			}
			return Char(byte(a[0].I)), nil
		},
	})
	register(2, map[string]NativeFunc{
		"string_charat": func(_ *Machine, a []Value) (Value, error) {
			s, i := a[0].S, a[1].I
			if i < 0 || int(i) >= len(s) {
				return Value{}, requires("string_charat", "0 <= idx && idx < string_length(s)")
			}
			return Char(s[i]), nil
		},
		"string_join": func(_ *Machine, a []Value) (Value, error) {
			if _, ok := lengthSum(len(a[0].S), len(a[1].S)); !ok {
				return Value{}, diag.New(diag.MemoryError, "string_join: result longer than int_max()")
			}
			return String(a[0].S + a[1].S), nil
		},
		"string_equal": func(_ *Machine, a []Value) (Value, error) {
			return Bool(a[0].S == a[1].S), nil
		},
		"string_compare": func(_ *Machine, a []Value) (Value, error) {
			return Int(int32(strings.Compare(a[0].S, a[1].S))), nil
		},
		"string_terminated": func(_ *Machine, a []Value) (Value, error) {
			n := a[1].I
			if n < 0 || int(n) > len(a[0].A.Cells) {
				return Value{}, requires("string_terminated", "0 <= n && n <= \\length(A)")
			}
			_, ok := terminated(a[0], int(n))
			return Bool(ok), nil
		},
	})
	register(3, map[string]NativeFunc{
		"string_sub": func(_ *Machine, a []Value) (Value, error) {
			s, start, end := a[0].S, a[1].I, a[2].I
			if start < 0 || start > end || int(end) > len(s) {
				return Value{}, requires("string_sub", "0 <= start && start <= end && end <= string_length(a)")
			}
			return String(s[start:end]), nil
		},
	})

	// util
	register(0, map[string]NativeFunc{
		"int_max":  func(*Machine, []Value) (Value, error) { return Int(math.MaxInt32), nil },
		"int_min":  func(*Machine, []Value) (Value, error) { return Int(math.MinInt32), nil },
		"int_size": func(*Machine, []Value) (Value, error) { return Int(4), nil },
	})
	register(1, map[string]NativeFunc{
		"abs": func(_ *Machine, a []Value) (Value, error) {
			if a[0].I == math.MinInt32 {
				return Value{}, requires("abs", "x > int_min()")
			}
			if a[0].I < 0 {
				return Int(-a[0].I), nil
			}
			return a[0], nil
		},
		"int2hex": func(_ *Machine, a []Value) (Value, error) {
			return String(fmt.Sprintf("%08X", uint32(a[0].I))), nil
		},
	})
	register(2, map[string]NativeFunc{
		"max": func(_ *Machine, a []Value) (Value, error) { return Int(mathutil.MaxInt32(a[0].I, a[1].I)), nil },
		"min": func(_ *Machine, a []Value) (Value, error) { return Int(mathutil.MinInt32(a[0].I, a[1].I)), nil },
	})
}

// lengthSum adds two string lengths, reporting false when the sum does not
// fit a C0 int.
func lengthSum(a, b int) (int32, bool) {
	if a > math.MaxInt32 || b > math.MaxInt32 {
		return 0, false
	}
	n, ovf := mathutil.AddOverflowInt32(int32(a), int32(b))
	return n, !ovf
}

// terminated reads a char array up to its first '\0' within n cells.
func terminated(arr Value, n int) (string, bool) {
	var b strings.Builder
	for i := 0; i < n; i++ {
		c := arr.A.Cells[i].C
		if c == 0 {
			return b.String(), true
		}
		b.WriteByte(c)
	}
	return "", false
}

func (m *Machine) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(m.out, format, args...)
	return err
}

func nativeFlush(m *Machine, _ []Value) (Value, error) {
	if f, ok := m.out.(interface{ Flush() error }); ok {
		return void(), f.Flush()
	}
	return void(), nil
}

func nativeEOF(m *Machine, _ []Value) (Value, error) {
	if m.in == nil {
		return Bool(true), nil
	}
	_, err := m.in.Peek(1)
	return Bool(err != nil), nil
}

func nativeReadline(m *Machine, _ []Value) (Value, error) {
	if m.in == nil {
		return Value{}, requires("readline", "!eof()")
	}
	line, err := m.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return Value{}, requires("readline", "!eof()")
	}
	return String(strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")), nil
}
