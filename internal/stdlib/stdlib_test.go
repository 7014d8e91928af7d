package stdlib

import (
	"testing"

	"github.com/hashicorp/go-set/v3"
	"github.com/nalgeon/be"

	"c0lang/internal/compile"
	"c0lang/internal/env"
	"c0lang/internal/lang"
	"c0lang/internal/parser"
	"c0lang/internal/restrict"
	"c0lang/internal/typecheck"
	"c0lang/internal/vm"
)

func TestNames(t *testing.T) {
	be.Equal(t, Names(), []string{"15411", "conio", "dub", "string", "util"})
	_, ok := Header("nope")
	be.True(t, !ok)
}

// Every header must check as a library and every function it declares
// must have a native implementation with the declared arity.
func TestHeadersHaveNatives(t *testing.T) {
	typeNames := set.New[string](0)
	e := env.New()
	c := typecheck.NewChecker(e)
	for _, name := range Names() {
		f, ok := Header(name)
		be.True(t, ok)
		be.True(t, f.Lib)
		decls, err := parser.Parse(f, typeNames)
		if err != nil {
			t.Fatalf("<%s>: %v", name, err)
		}
		prog, err := restrict.Program(lang.C1, decls, true)
		if err != nil {
			t.Fatalf("<%s>: %v", name, err)
		}
		for _, d := range prog.Decls {
			if err := c.Decl(d); err != nil {
				t.Fatalf("<%s>: %v", name, err)
			}
		}
	}
	be.True(t, typeNames.Contains("fpt"))
	be.True(t, typeNames.Contains("dub"))
	be.True(t, len(e.LibFunctions()) > 40)

	p, err := compile.Compile(c.Result(), compile.Options{})
	be.Err(t, err, nil)
	be.Equal(t, len(p.Funcs), 0)
	_, err = vm.New(p, vm.Config{})
	be.Err(t, err, nil)
}
