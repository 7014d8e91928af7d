package vm

import (
	"math"

	"c0lang/internal/diag"
)

// The 15411 library represents a float as the int holding its IEEE-754
// bits. The dub library boxes a double behind an opaque pointer.

func fpt(v Value) float32 { return math.Float32frombits(uint32(v.I)) }

func fromFpt(f float32) Value { return Int(int32(math.Float32bits(f))) }

func fptOp(op func(a, b float32) float32) NativeFunc {
	return func(_ *Machine, a []Value) (Value, error) {
		return fromFpt(op(fpt(a[0]), fpt(a[1]))), nil
	}
}

// toInt truncates toward zero; values outside the int range trap like
// the hardware conversion.
func toInt(f float64) (int32, error) {
	if math.IsNaN(f) || f >= math.MaxInt32+1 || f < math.MinInt32 {
		return 0, diag.New(diag.ArithmeticError, "%g does not fit in an int", f)
	}
	return int32(f), nil
}

func dub(name string, v Value) (float64, error) {
	if v.K != VDouble {
		return 0, requires(name, "d != NULL")
	}
	return v.D, nil
}

func dubOp(name string, op func(a, b float64) float64) NativeFunc {
	return func(_ *Machine, a []Value) (Value, error) {
		x, err := dub(name, a[0])
		if err != nil {
			return Value{}, err
		}
		y, err := dub(name, a[1])
		if err != nil {
			return Value{}, err
		}
		return Double(op(x, y)), nil
	}
}

func init() {
	// 15411
	register(2, map[string]NativeFunc{
		"fadd": fptOp(func(a, b float32) float32 { return a + b }),
		"fsub": fptOp(func(a, b float32) float32 { return a - b }),
		"fmul": fptOp(func(a, b float32) float32 { return a * b }),
		"fdiv": fptOp(func(a, b float32) float32 { return a / b }),
		"fless": func(_ *Machine, a []Value) (Value, error) {
			return Bool(fpt(a[0]) < fpt(a[1])), nil
		},
	})
	register(1, map[string]NativeFunc{
		"itof": func(_ *Machine, a []Value) (Value, error) {
			return fromFpt(float32(a[0].I)), nil
		},
		"ftoi": func(_ *Machine, a []Value) (Value, error) {
			i, err := toInt(float64(fpt(a[0])))
			return Int(i), err
		},
		"print_fpt": func(m *Machine, a []Value) (Value, error) {
			return void(), m.printf("%f\n", fpt(a[0]))
		},
		"print_int": func(m *Machine, a []Value) (Value, error) {
			return void(), m.printf("%d\n", a[0].I)
		},
		"print_hex": func(m *Machine, a []Value) (Value, error) {
			return void(), m.printf("0x%08X\n", uint32(a[0].I))
		},
	})

	// dub
	register(2, map[string]NativeFunc{
		"dadd": dubOp("dadd", func(a, b float64) float64 { return a + b }),
		"dsub": dubOp("dsub", func(a, b float64) float64 { return a - b }),
		"dmul": dubOp("dmul", func(a, b float64) float64 { return a * b }),
		"ddiv": dubOp("ddiv", func(a, b float64) float64 { return a / b }),
		"dless": func(_ *Machine, a []Value) (Value, error) {
			x, err := dub("dless", a[0])
			if err != nil {
				return Value{}, err
			}
			y, err := dub("dless", a[1])
			if err != nil {
				return Value{}, err
			}
			return Bool(x < y), nil
		},
	})
	register(1, map[string]NativeFunc{
		"itod": func(_ *Machine, a []Value) (Value, error) {
			return Double(float64(a[0].I)), nil
		},
		"dtoi": func(_ *Machine, a []Value) (Value, error) {
			d, err := dub("dtoi", a[0])
			if err != nil {
				return Value{}, err
			}
			i, err := toInt(d)
			return Int(i), err
		},
		"print_dub": func(m *Machine, a []Value) (Value, error) {
			d, err := dub("print_dub", a[0])
			if err != nil {
				return Value{}, err
			}
			return void(), m.printf("%v\n", d)
		},
	})
}
