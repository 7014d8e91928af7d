package loader

import (
	"errors"
	"testing"

	"github.com/nalgeon/be"

	"c0lang/internal/diag"
)

func TestOutcomeRoundTrip(t *testing.T) {
	for _, s := range []string{
		"return 0", "return -2147483648", "parse", "typecheck", "static",
		"error", "div-by-zero", "memerror", "abort", "infloop", "impossible",
	} {
		t.Run(s, func(t *testing.T) {
			o, err := ParseOutcome(s)
			be.Err(t, err, nil)
			be.Equal(t, o.String(), s)
		})
	}
}

func TestParseOutcomeErrors(t *testing.T) {
	for _, s := range []string{"", "return", "return x", "crash", "return 99999999999"} {
		_, err := ParseOutcome(s)
		if err == nil {
			t.Fatalf("ParseOutcome(%q): expected error", s)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want OutcomeKind
	}{
		{diag.New(diag.IncompleteParseError, "x"), OutParse},
		{diag.New(diag.DialectError, "x"), OutParse},
		{diag.New(diag.CyclicTypedefError, "x"), OutTypecheck},
		{diag.New(diag.AnnotationOnlyError, "x"), OutTypecheck},
		{diag.New(diag.MissingReturnError, "x"), OutStatic},
		{diag.New(diag.ArithmeticError, "x"), OutDivByZero},
		{diag.New(diag.MemoryError, "x"), OutMemError},
		{diag.Abort("error", "x"), OutError},
		{diag.Abort("requires", "x"), OutAbort},
		{diag.Abort("assert", "x"), OutAbort},
		{diag.New(diag.NonterminationError, "x"), OutInfloop},
		{diag.Impossible("x"), OutImpossible},
		{errors.New("plain"), OutImpossible},
	}
	for _, tc := range tests {
		t.Run(tc.err.Error(), func(t *testing.T) {
			be.Equal(t, Classify(0, tc.err).Kind, tc.want)
		})
	}
	o := Classify(7, nil)
	be.True(t, o.Matches(Outcome{Kind: OutReturn, Value: 7}))
	be.True(t, !o.Matches(Outcome{Kind: OutReturn, Value: 8}))
}
