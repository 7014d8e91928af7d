package diag

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/nalgeon/be"

	"c0lang/internal/source"
)

func TestStageOfKinds(t *testing.T) {
	cases := []struct {
		kind Kind
		want StageKind
	}{
		{ParseError, StageParse},
		{IncompleteParseError, StageParse},
		{DialectError, StageParse},
		{MisplacedConstructError, StageParse},
		{UnknownTypeError, StageTypecheck},
		{NotSmallTypeError, StageTypecheck},
		{AnnotationOnlyError, StageTypecheck},
		{UseBeforeAssignError, StageStatic},
		{MissingReturnError, StageStatic},
		{ArithmeticError, StageRuntime},
		{NonterminationError, StageRuntime},
		{ImpossibleError, StageInternal},
	}
	for _, tc := range cases {
		t.Run(tc.kind.String(), func(t *testing.T) {
			be.Equal(t, Stage(tc.kind), tc.want)
		})
	}
}

func TestKindOfUnwraps(t *testing.T) {
	base := New(MemoryError, "NULL pointer dereference")
	wrapped := fmt.Errorf("running main: %w", base)
	be.Equal(t, KindOf(wrapped), MemoryError)
	be.True(t, Is(wrapped, MemoryError))
	be.True(t, !Is(nil, MemoryError))
	be.Equal(t, KindOf(fmt.Errorf("plain")), KindBad)
}

func TestPrintWithLocation(t *testing.T) {
	f := source.NewFile("main.c0", "int main() {\n  return y;\n}\n")
	err := At(UndeclaredVariableError, source.Span{File: f, Start: 22, End: 23}, "undeclared variable '%s'", "y")
	var buf bytes.Buffer
	Print(&buf, err)
	be.Equal(t, buf.String(), "main.c0:2:10: error: undeclared variable 'y'\n   2 |   return y;\n                ^\n")
	be.Equal(t, err.Error(), "main.c0:2:10: UndeclaredVariableError: undeclared variable 'y'")
}

func TestAbortCarriesContract(t *testing.T) {
	err := Abort("ensures", "@ensures annotation failed")
	be.Equal(t, err.Kind, AbortError)
	be.Equal(t, err.Contract, "ensures")
	be.Equal(t, err.Error(), "AbortError: @ensures annotation failed")
}
