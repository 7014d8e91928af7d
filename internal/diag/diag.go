package diag

import (
	"errors"
	"fmt"
	"io"

	"c0lang/internal/source"
)

type Kind int

const (
	KindBad Kind = iota

	// parse
	ParseError
	IncompleteParseError
	AmbiguousParseError

	// restriction
	DialectError
	LiteralFormatError
	MisplacedConstructError

	// declarations
	UnknownTypeError
	CyclicTypedefError
	DuplicateDeclarationError
	IncompatibleRedeclarationError

	// typecheck
	TypeError
	NotSmallTypeError
	IncomparableTypeError
	SubtypeMismatchError
	UndeclaredVariableError
	UndeclaredFunctionError
	ArityMismatchError
	ResultOutsideEnsuresError
	AnnotationOnlyError

	// flow
	UseBeforeAssignError
	ConstantReassignmentError
	MissingDefinitionError
	MissingReturnError

	// runtime
	ArithmeticError
	MemoryError
	AbortError
	NonterminationError

	ImpossibleError
)

var kindNames = [...]string{
	KindBad:                        "Error",
	ParseError:                     "ParseError",
	IncompleteParseError:           "IncompleteParseError",
	AmbiguousParseError:            "AmbiguousParseError",
	DialectError:                   "DialectError",
	LiteralFormatError:             "LiteralFormatError",
	MisplacedConstructError:        "MisplacedConstructError",
	UnknownTypeError:               "UnknownTypeError",
	CyclicTypedefError:             "CyclicTypedefError",
	DuplicateDeclarationError:      "DuplicateDeclarationError",
	IncompatibleRedeclarationError: "IncompatibleRedeclarationError",
	TypeError:                      "TypeError",
	NotSmallTypeError:              "NotSmallTypeError",
	IncomparableTypeError:          "IncomparableTypeError",
	SubtypeMismatchError:           "SubtypeMismatchError",
	UndeclaredVariableError:        "UndeclaredVariableError",
	UndeclaredFunctionError:        "UndeclaredFunctionError",
	ArityMismatchError:             "ArityMismatchError",
	ResultOutsideEnsuresError:      "ResultOutsideEnsuresError",
	AnnotationOnlyError:            "AnnotationOnlyError",
	UseBeforeAssignError:           "UseBeforeAssignError",
	ConstantReassignmentError:      "ConstantReassignmentError",
	MissingDefinitionError:         "MissingDefinitionError",
	MissingReturnError:             "MissingReturnError",
	ArithmeticError:                "ArithmeticError",
	MemoryError:                    "MemoryError",
	AbortError:                     "AbortError",
	NonterminationError:            "NonterminationError",
	ImpossibleError:                "ImpossibleError",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return kindNames[KindBad]
	}
	return kindNames[k]
}

// StageKind groups error kinds by the pipeline stage that reports them.
type StageKind int

const (
	StageParse StageKind = iota
	StageTypecheck
	StageStatic
	StageRuntime
	StageInternal
)

func (s StageKind) String() string {
	switch s {
	case StageParse:
		return "parse"
	case StageTypecheck:
		return "typecheck"
	case StageStatic:
		return "static"
	case StageRuntime:
		return "runtime"
	default:
		return "internal"
	}
}

// Stage reports which stage a kind belongs to. Restriction errors count as
// parse failures: they reject the program before any typing happens.
func Stage(k Kind) StageKind {
	switch {
	case k >= ParseError && k <= MisplacedConstructError:
		return StageParse
	case k >= UnknownTypeError && k <= AnnotationOnlyError:
		return StageTypecheck
	case k >= UseBeforeAssignError && k <= MissingReturnError:
		return StageStatic
	case k >= ArithmeticError && k <= NonterminationError:
		return StageRuntime
	default:
		return StageInternal
	}
}

type Loc struct {
	Filename string
	Line     int
	Col      int
}

func (l Loc) String() string {
	if l.Filename == "" && l.Line == 0 {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", l.Filename, l.Line, l.Col)
}

// Error is the single error type produced by every stage.
type Error struct {
	Kind Kind
	Loc  Loc
	Msg  string
	// Contract names the annotation kind for AbortError
	// ("requires", "ensures", "loop_invariant", "assert", "@assert", "error").
	Contract string
	// Snippet is the offending source line with a caret, when known.
	Snippet string
}

func (e *Error) Error() string {
	if e.Loc.Line == 0 {
		return e.Kind.String() + ": " + e.Msg
	}
	return fmt.Sprintf("%s: %s: %s", e.Loc, e.Kind, e.Msg)
}

// At builds an error located at the start of span.
func At(kind Kind, span source.Span, format string, args ...any) *Error {
	e := &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
	if span.Known() {
		fn, line, col := span.LocStart()
		e.Loc = Loc{Filename: fn, Line: line, Col: col}
		e.Snippet = span.Snippet()
	}
	return e
}

// New builds an error with no source location (runtime traps).
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Abort builds an AbortError for a failed contract or error() call.
func Abort(contract string, msg string) *Error {
	return &Error{Kind: AbortError, Contract: contract, Msg: msg}
}

// Impossible reports an internal invariant violation.
func Impossible(format string, args ...any) *Error {
	return New(ImpossibleError, format, args...)
}

// KindOf extracts the kind of err, or KindBad if err is not a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindBad
}

func Is(err error, k Kind) bool { return err != nil && KindOf(err) == k }

// Print writes err in file:line:col form followed by its snippet.
func Print(w io.Writer, err error) {
	if err == nil {
		return
	}
	var e *Error
	if !errors.As(err, &e) {
		fmt.Fprintf(w, "error: %v\n", err)
		return
	}
	if e.Loc.Line == 0 {
		fmt.Fprintf(w, "error: %s: %s\n", e.Kind, e.Msg)
		return
	}
	fmt.Fprintf(w, "%s:%d:%d: error: %s\n", e.Loc.Filename, e.Loc.Line, e.Loc.Col, e.Msg)
	if e.Snippet != "" {
		fmt.Fprintln(w, e.Snippet)
	}
}
