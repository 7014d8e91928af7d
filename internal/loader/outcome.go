package loader

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"c0lang/internal/diag"
)

// OutcomeKind is the observable result class of running a program, the
// vocabulary test expectations are written in.
type OutcomeKind int

const (
	OutReturn OutcomeKind = iota
	OutParse
	OutTypecheck
	OutStatic
	OutError
	OutDivByZero
	OutMemError
	OutAbort
	OutInfloop
	OutImpossible
)

var outcomeNames = [...]string{
	OutReturn:     "return",
	OutParse:      "parse",
	OutTypecheck:  "typecheck",
	OutStatic:     "static",
	OutError:      "error",
	OutDivByZero:  "div-by-zero",
	OutMemError:   "memerror",
	OutAbort:      "abort",
	OutInfloop:    "infloop",
	OutImpossible: "impossible",
}

func (k OutcomeKind) String() string {
	if k < 0 || int(k) >= len(outcomeNames) {
		return outcomeNames[OutImpossible]
	}
	return outcomeNames[k]
}

type Outcome struct {
	Kind  OutcomeKind
	Value int32 // OutReturn only
	Err   error
}

func (o Outcome) String() string {
	if o.Kind == OutReturn {
		return fmt.Sprintf("return %d", o.Value)
	}
	return o.Kind.String()
}

// Matches compares kinds, and values for returns. Err is ignored.
func (o Outcome) Matches(want Outcome) bool {
	return o.Kind == want.Kind && (o.Kind != OutReturn || o.Value == want.Value)
}

// ParseOutcome reads "return N" or one of the failure names.
func ParseOutcome(s string) (Outcome, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, "return "); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(rest), 0, 32)
		if err != nil {
			return Outcome{}, fmt.Errorf("invalid return value %q", rest)
		}
		return Outcome{Kind: OutReturn, Value: int32(n)}, nil
	}
	for k, name := range outcomeNames {
		if k != int(OutReturn) && name == s {
			return Outcome{Kind: OutcomeKind(k)}, nil
		}
	}
	return Outcome{}, fmt.Errorf("unknown outcome %q", s)
}

// Classify maps the result of running a program to its outcome.
func Classify(v int32, err error) Outcome {
	if err == nil {
		return Outcome{Kind: OutReturn, Value: v}
	}
	o := Outcome{Err: err}
	k := diag.KindOf(err)
	switch diag.Stage(k) {
	case diag.StageParse:
		o.Kind = OutParse
		return o
	case diag.StageTypecheck:
		o.Kind = OutTypecheck
		return o
	case diag.StageStatic:
		o.Kind = OutStatic
		return o
	}
	switch k {
	case diag.ArithmeticError:
		o.Kind = OutDivByZero
	case diag.MemoryError:
		o.Kind = OutMemError
	case diag.AbortError:
		o.Kind = OutAbort
		if contractOf(err) == "error" {
			o.Kind = OutError
		}
	case diag.NonterminationError:
		o.Kind = OutInfloop
	default:
		o.Kind = OutImpossible
	}
	return o
}

func contractOf(err error) string {
	var d *diag.Error
	if errors.As(err, &d) {
		return d.Contract
	}
	return ""
}
