// Package loader runs the whole pipeline: parse and restrict a program with
// its libraries, check it, compile it and execute it.
package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-set/v3"

	"c0lang/internal/ast"
	"c0lang/internal/bytecode"
	"c0lang/internal/compile"
	"c0lang/internal/diag"
	"c0lang/internal/env"
	"c0lang/internal/flow"
	"c0lang/internal/lang"
	"c0lang/internal/lexer"
	"c0lang/internal/manifest"
	"c0lang/internal/parser"
	"c0lang/internal/restrict"
	"c0lang/internal/source"
	"c0lang/internal/stdlib"
	"c0lang/internal/typecheck"
	"c0lang/internal/vm"
)

type Config struct {
	Dialect   lang.Dialect
	Contracts bool
	// Gas is the instruction budget; zero means unlimited.
	Gas int
	// Libraries are loaded before the program as if it started with
	// `#use <name>` for each of them.
	Libraries []string

	Out   io.Writer
	In    io.Reader
	Trace io.Writer
	// ReadFile loads `#use "file"` includes; os.ReadFile when nil.
	ReadFile func(path string) ([]byte, error)
}

// FromManifest turns a project file into a configuration.
func FromManifest(m *manifest.Manifest) Config {
	return Config{
		Dialect:   m.Build.Dialect,
		Contracts: m.Build.Contracts,
		Gas:       m.Build.Gas,
		Libraries: m.Build.Libraries,
	}
}

// Build is a checked and compiled program.
type Build struct {
	Checked  *typecheck.CheckedProgram
	Bytecode *bytecode.Program
}

// BuildFile parses, checks and compiles file.
func BuildFile(cfg Config, file *source.File) (*Build, error) {
	prog, err := ParseProgram(cfg, file)
	if err != nil {
		return nil, err
	}
	checked, err := CheckProgram(prog)
	if err != nil {
		return nil, err
	}
	bc, err := compile.Compile(checked, compile.Options{Contracts: cfg.Contracts})
	if err != nil {
		return nil, err
	}
	return &Build{Checked: checked, Bytecode: bc}, nil
}

// RunFile builds file and runs its main function.
func RunFile(cfg Config, file *source.File) (int32, error) {
	b, err := BuildFile(cfg, file)
	if err != nil {
		return 0, err
	}
	return Execute(cfg, b.Bytecode)
}

// RunSource is RunFile on an in-memory program, classified as an outcome.
func RunSource(cfg Config, name, src string) Outcome {
	return Classify(RunFile(cfg, source.NewFile(name, src)))
}

// Execute runs main of a compiled program.
func Execute(cfg Config, p *bytecode.Program) (int32, error) {
	v, err := vm.Run(p, vm.Config{Out: cfg.Out, In: cfg.In, Gas: cfg.Gas, Trace: cfg.Trace})
	if err != nil {
		return 0, err
	}
	if v.K != vm.VInt {
		return 0, diag.Impossible("main returned %s", v)
	}
	return v.I, nil
}

// CheckProgram type checks prog in a fresh environment and runs the flow
// checker from main.
func CheckProgram(prog *ast.Program) (*typecheck.CheckedProgram, error) {
	e := env.New()
	checked, err := typecheck.Check(e, prog, typecheck.Options{RequireMain: true})
	if err != nil {
		return nil, err
	}
	if err := flow.Check(e, []string{"main"}); err != nil {
		return nil, err
	}
	return checked, nil
}

// ParseProgram parses and restricts file together with every library and
// file it uses. Libraries and included files come first, in the order
// they are first used, so their typedefs are known when file is parsed.
func ParseProgram(cfg Config, file *source.File) (*ast.Program, error) {
	l := newLoader(cfg)
	for _, name := range cfg.Libraries {
		if err := l.useLib(name, source.Span{}); err != nil {
			return nil, err
		}
	}
	if file.Name != "" {
		l.files.Insert(filepath.Clean(file.Name))
	}
	if err := l.load(file, cfg.Dialect, false); err != nil {
		return nil, err
	}
	return &ast.Program{Decls: l.decls}, nil
}

type loader struct {
	cfg       Config
	typeNames *set.Set[string]
	libs      *set.Set[string]
	files     *set.Set[string]
	decls     []ast.Decl
}

func newLoader(cfg Config) *loader {
	if cfg.ReadFile == nil {
		cfg.ReadFile = os.ReadFile
	}
	return &loader{
		cfg:       cfg,
		typeNames: set.New[string](0),
		libs:      set.New[string](0),
		files:     set.New[string](0),
	}
}

func (l *loader) load(file *source.File, d lang.Dialect, lib bool) error {
	for _, tok := range lexer.Lex(file) {
		var err error
		switch tok.Kind {
		case lexer.TokenUse:
			err = l.useLib(tok.Lexeme, tok.Span)
		case lexer.TokenUseFile:
			err = l.useFile(filepath.Join(filepath.Dir(file.Name), tok.Lexeme), tok.Span)
		}
		if err != nil {
			return err
		}
	}
	decls, err := parser.Parse(file, l.typeNames)
	if err != nil {
		return err
	}
	prog, err := restrict.Program(d, decls, lib)
	if err != nil {
		return err
	}
	l.decls = append(l.decls, prog.Decls...)
	return nil
}

func (l *loader) useLib(name string, span source.Span) error {
	if !l.libs.Insert(name) {
		return nil
	}
	f, ok := stdlib.Header(name)
	if !ok {
		return diag.At(diag.ParseError, span, "unknown library <%s>", name)
	}
	return l.load(f, lang.C1, true)
}

func (l *loader) useFile(path string, span source.Span) error {
	path = filepath.Clean(path)
	if !l.files.Insert(path) {
		return nil
	}
	b, err := l.cfg.ReadFile(path)
	if err != nil {
		return diag.At(diag.ParseError, span, "cannot read %s: %v", path, err)
	}
	return l.load(source.NewFile(path, string(b)), l.cfg.Dialect, false)
}

// LoadPackage builds the program of the project rooted at or above dir.
// Without a c0.toml, dir/main.c0 is built with the defaults.
func LoadPackage(dir string) (*manifest.Manifest, *source.File, error) {
	path, err := manifest.Find(dir)
	if err != nil {
		return nil, nil, err
	}
	m := manifest.Default()
	root := dir
	if path != "" {
		if m, err = manifest.Load(path); err != nil {
			return nil, nil, err
		}
		root = filepath.Dir(path)
	}
	mainPath := filepath.Join(root, m.Package.Main)
	b, err := os.ReadFile(mainPath)
	if err != nil {
		return nil, nil, fmt.Errorf("missing %s in %s", m.Package.Main, root)
	}
	return m, source.NewFile(mainPath, string(b)), nil
}
