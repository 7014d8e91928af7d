package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/peterh/liner"

	"c0lang/internal/diag"
	"c0lang/internal/lang"
	"c0lang/internal/loader"
	"c0lang/internal/source"
	"c0lang/internal/stdlib"
)

func usage() {
	fmt.Fprintln(os.Stderr, "c0 - C0 toolchain")
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  c0 run [flags] [file.c0|dir]")
	fmt.Fprintln(os.Stderr, "  c0 check [flags] [file.c0|dir]")
	fmt.Fprintln(os.Stderr, "  c0 bytecode [flags] [file.c0|dir]")
	fmt.Fprintln(os.Stderr, "  c0 test [flags] [dir]")
	fmt.Fprintln(os.Stderr, "  c0 repl [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "flags:")
	fmt.Fprintln(os.Stderr, "  --dialect=D, -d D   language level: L1, L2, L3, L4, C0, C1 (default: C1)")
	fmt.Fprintln(os.Stderr, "  --contracts         check contracts at run time")
	fmt.Fprintln(os.Stderr, "  --gas=N             stop after N instructions (default: unlimited)")
	fmt.Fprintln(os.Stderr, "  --lib=NAME          load a library as if by #use <NAME> (repeatable)")
	fmt.Fprintln(os.Stderr, "  --trace             log every executed instruction to stderr")
	fmt.Fprintln(os.Stderr, "test flags:")
	fmt.Fprintln(os.Stderr, "  --jobs=N, -j N      files tested in parallel (default: GOMAXPROCS)")
	fmt.Fprintf(os.Stderr, "libraries: %s\n", strings.Join(stdlib.Names(), ", "))
}

type options struct {
	dialect    lang.Dialect
	dialectSet bool
	contracts  bool
	gas        int
	gasSet     bool
	libs       []string
	trace      bool
	jobs       int
	target     string
}

// flagValue splits "--name=value" or takes the value from the next arg.
func flagValue(args []string, i *int, name string) (string, bool, error) {
	a := args[*i]
	if v, ok := strings.CutPrefix(a, name+"="); ok {
		return v, true, nil
	}
	if a != name {
		return "", false, nil
	}
	if *i+1 >= len(args) {
		return "", false, fmt.Errorf("missing value for %s", name)
	}
	*i++
	return args[*i], true, nil
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid positive integer: %q", s)
	}
	return n, nil
}

func parseOptions(args []string) (opts options, err error) {
	args = slices.Clone(args)
	opts.target = "."
	setTarget := false
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch a {
		case "--contracts":
			opts.contracts = true
			continue
		case "--trace":
			opts.trace = true
			continue
		}
		if a == "-d" {
			a = "--dialect"
		}
		if a == "-j" {
			a = "--jobs"
		}
		args[i] = a
		if v, ok, err := flagValue(args, &i, "--dialect"); err != nil {
			return options{}, err
		} else if ok {
			d, err := lang.ParseDialect(v)
			if err != nil {
				return options{}, err
			}
			opts.dialect, opts.dialectSet = d, true
			continue
		}
		if v, ok, err := flagValue(args, &i, "--gas"); err != nil {
			return options{}, err
		} else if ok {
			n, err := parsePositiveInt(v)
			if err != nil {
				return options{}, fmt.Errorf("invalid --gas value: %q", v)
			}
			opts.gas, opts.gasSet = n, true
			continue
		}
		if v, ok, err := flagValue(args, &i, "--lib"); err != nil {
			return options{}, err
		} else if ok {
			if _, found := stdlib.Header(v); !found {
				return options{}, fmt.Errorf("unknown library: %q", v)
			}
			opts.libs = append(opts.libs, v)
			continue
		}
		if v, ok, err := flagValue(args, &i, "--jobs"); err != nil {
			return options{}, err
		} else if ok {
			n, err := parsePositiveInt(v)
			if err != nil {
				return options{}, fmt.Errorf("invalid --jobs value: %q", v)
			}
			opts.jobs = n
			continue
		}
		if strings.HasPrefix(a, "-") {
			return options{}, fmt.Errorf("unknown flag: %s", a)
		}
		if setTarget {
			return options{}, fmt.Errorf("unexpected extra arg: %s", a)
		}
		opts.target = a
		setTarget = true
	}
	return opts, nil
}

// config applies command-line flags on top of base.
func (o options) config(base loader.Config) loader.Config {
	cfg := base
	if o.dialectSet {
		cfg.Dialect = o.dialect
	}
	if o.contracts {
		cfg.Contracts = true
	}
	if o.gasSet {
		cfg.Gas = o.gas
	}
	for _, l := range o.libs {
		if !slices.Contains(cfg.Libraries, l) {
			cfg.Libraries = append(cfg.Libraries, l)
		}
	}
	if o.trace {
		cfg.Trace = os.Stderr
	}
	return cfg
}

// load resolves the target: a single source file, or a project directory
// with an optional c0.toml.
func load(o options) (loader.Config, *source.File, error) {
	info, err := os.Stat(o.target)
	if err != nil {
		return loader.Config{}, nil, err
	}
	if !info.IsDir() {
		b, err := os.ReadFile(o.target)
		if err != nil {
			return loader.Config{}, nil, err
		}
		base := loader.Config{Dialect: lang.C1}
		if d, ok := dialectFromExt(o.target); ok {
			base.Dialect = d
		}
		return o.config(base), source.NewFile(o.target, string(b)), nil
	}
	m, file, err := loader.LoadPackage(o.target)
	if err != nil {
		return loader.Config{}, nil, err
	}
	return o.config(loader.FromManifest(m)), file, nil
}

// dialectFromExt reads the dialect off extensions like .l3 or .c0.
func dialectFromExt(path string) (lang.Dialect, bool) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	d, err := lang.ParseDialect(ext)
	return d, err == nil
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	opts, err := parseOptions(os.Args[2:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	var code int
	switch cmd {
	case "run":
		code = run(opts, os.Stdout)
	case "check":
		code = check(opts, os.Stdout)
	case "bytecode":
		code = dumpBytecode(opts, os.Stdout)
	case "test":
		code = test(opts, os.Stdout)
	case "repl":
		code = repl(opts)
	case "help", "-h", "--help":
		usage()
	default:
		usage()
		code = 1
	}
	os.Exit(code)
}

func fail(err error) int {
	diag.Print(os.Stderr, err)
	return 1
}

func run(opts options, out io.Writer) int {
	cfg, file, err := load(opts)
	if err != nil {
		return fail(err)
	}
	cfg.Out, cfg.In = out, os.Stdin
	v, err := loader.RunFile(cfg, file)
	if err != nil {
		return fail(err)
	}
	fmt.Fprintln(out, v)
	return 0
}

func check(opts options, out io.Writer) int {
	cfg, file, err := load(opts)
	if err != nil {
		return fail(err)
	}
	prog, err := loader.ParseProgram(cfg, file)
	if err != nil {
		return fail(err)
	}
	if _, err := loader.CheckProgram(prog); err != nil {
		return fail(err)
	}
	fmt.Fprintf(out, "%s: ok\n", file.Name)
	return 0
}

func dumpBytecode(opts options, out io.Writer) int {
	cfg, file, err := load(opts)
	if err != nil {
		return fail(err)
	}
	b, err := loader.BuildFile(cfg, file)
	if err != nil {
		return fail(err)
	}
	fmt.Fprint(out, b.Bytecode.Format())
	return 0
}

// testCase is a source file whose first line is `//test <outcome>`.
type testCase struct {
	path string
	want loader.Outcome
}

type testResult struct {
	got loader.Outcome
	err error
}

func discoverTests(dir string) ([]testCase, error) {
	var cases []testCase
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := dialectFromExt(path); !ok {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		first, _, _ := strings.Cut(string(b), "\n")
		spec, ok := strings.CutPrefix(strings.TrimSpace(first), "//test ")
		if !ok {
			return nil
		}
		want, err := loader.ParseOutcome(spec)
		if err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		cases = append(cases, testCase{path: path, want: want})
		return nil
	})
	return cases, err
}

func runTest(opts options, tc testCase) testResult {
	b, err := os.ReadFile(tc.path)
	if err != nil {
		return testResult{err: err}
	}
	d, _ := dialectFromExt(tc.path)
	cfg := opts.config(loader.Config{Dialect: d, Gas: 100000000})
	cfg.Trace = nil
	return testResult{got: loader.RunSource(cfg, tc.path, string(b))}
}

func test(opts options, out io.Writer) int {
	cases, err := discoverTests(opts.target)
	if err != nil {
		return fail(err)
	}
	jobs := opts.jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]testResult, len(cases))
	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(jobs, max(1, len(cases))); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				results[i] = runTest(opts, cases[i])
			}
		}()
	}
	for i := range cases {
		work <- i
	}
	close(work)
	wg.Wait()

	failed := 0
	for i, tc := range cases {
		r := results[i]
		switch {
		case r.err != nil:
			failed++
			fmt.Fprintf(out, "FAIL %s: %v\n", tc.path, r.err)
		case !r.got.Matches(tc.want):
			failed++
			fmt.Fprintf(out, "FAIL %s: got %s, want %s\n", tc.path, r.got, tc.want)
			if r.got.Err != nil {
				diag.Print(out, r.got.Err)
			}
		}
	}
	fmt.Fprintf(out, "%d passed, %d failed\n", len(cases)-failed, failed)
	if failed > 0 {
		return 1
	}
	return 0
}

const (
	promptMain = "c0> "
	promptCont = "... "
)

func repl(opts options) int {
	cfg := opts.config(loader.Config{Dialect: lang.C1})
	cfg.Out, cfg.In = os.Stdout, os.Stdin
	it, err := loader.NewInteractive(cfg)
	if err != nil {
		return fail(err)
	}
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	fmt.Printf("c0 %s repl; #use <lib> loads a library, :quit exits\n", cfg.Dialect)
	for {
		src, ok := readByParseProbe(ln, it)
		if !ok {
			fmt.Println()
			return 0
		}
		src = strings.TrimSpace(src)
		switch src {
		case "":
			continue
		case ":quit", ":q":
			return 0
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))
		v, err := it.Eval(src)
		if err != nil {
			diag.Print(os.Stderr, err)
			continue
		}
		if v != "" {
			fmt.Println(v)
		}
	}
}

func readByParseProbe(ln *liner.State, it *loader.Interactive) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !it.NeedsMore(b.String()) {
			return b.String(), true
		}
	}
}
