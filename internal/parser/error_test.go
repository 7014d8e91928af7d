package parser

import (
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"c0lang/internal/diag"
	"c0lang/internal/source"
)

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		kind diag.Kind
		want string
	}{
		{name: "missing_semicolon", src: "int main() { return 0 }", kind: diag.ParseError, want: "expected ';' after return"},
		{name: "not_a_decl", src: "return 0;", kind: diag.ParseError, want: "expected a declaration"},
		{name: "unknown_special", src: "int main() { return \\foo; }", kind: diag.ParseError, want: "unknown special form"},
		{name: "eof_in_body", src: "int main() { return 0;", kind: diag.IncompleteParseError, want: "unexpected end of input"},
		{name: "eof_in_expr", src: "int main() { return 1 +", kind: diag.IncompleteParseError, want: "unexpected end of input"},
		{name: "open_string", src: "int main() { string s = \"abc", kind: diag.IncompleteParseError, want: "unexpected end of input"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(source.NewFile("test.c0", tc.src), nil)
			be.True(t, err != nil)
			be.Equal(t, diag.KindOf(err), tc.kind)
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %q", tc.want, err.Error())
			}
			be.Equal(t, IsIncomplete(err), tc.kind == diag.IncompleteParseError)
		})
	}
}

func TestParseErrorLocation(t *testing.T) {
	_, err := Parse(source.NewFile("test.c0", "int main() {\n  int x = ;\n}"), nil)
	var e *diag.Error
	be.True(t, err != nil)
	e = err.(*diag.Error)
	be.Equal(t, e.Loc.Line, 2)
	be.Equal(t, e.Loc.Col, 11)
}
