package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"c0lang/internal/lang"
	"c0lang/internal/loader"
)

func mustWrite(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"-d", "L3", "--contracts", "--gas=500", "--lib", "conio", "--lib=string", "-j", "4", "prog.l3"})
	if err != nil {
		t.Fatal(err)
	}
	if !opts.dialectSet || opts.dialect != lang.L3 {
		t.Fatalf("dialect = %v (set %v), want L3", opts.dialect, opts.dialectSet)
	}
	if !opts.contracts {
		t.Fatalf("contracts = false, want true")
	}
	if opts.gas != 500 {
		t.Fatalf("gas = %d, want 500", opts.gas)
	}
	if strings.Join(opts.libs, ",") != "conio,string" {
		t.Fatalf("libs = %v", opts.libs)
	}
	if opts.jobs != 4 {
		t.Fatalf("jobs = %d, want 4", opts.jobs)
	}
	if opts.target != "prog.l3" {
		t.Fatalf("target = %q", opts.target)
	}
}

func TestParseOptionsErrors(t *testing.T) {
	for _, args := range [][]string{
		{"--dialect"},
		{"--dialect=C2"},
		{"--gas=0"},
		{"--lib=nope"},
		{"--jobs", "x"},
		{"--bogus"},
		{"a", "b"},
	} {
		if _, err := parseOptions(args); err == nil {
			t.Fatalf("parseOptions(%v): expected error", args)
		}
	}
}

func TestConfigOverridesManifest(t *testing.T) {
	opts, err := parseOptions([]string{"--dialect=C0", "--lib=util"})
	if err != nil {
		t.Fatal(err)
	}
	cfg := opts.config(loader.Config{Dialect: lang.L4, Gas: 10, Libraries: []string{"util", "conio"}})
	if cfg.Dialect != lang.C0 {
		t.Fatalf("dialect = %v, want C0", cfg.Dialect)
	}
	if cfg.Gas != 10 {
		t.Fatalf("gas = %d, want 10", cfg.Gas)
	}
	if strings.Join(cfg.Libraries, ",") != "util,conio" {
		t.Fatalf("libraries = %v", cfg.Libraries)
	}
}

func TestDialectFromExt(t *testing.T) {
	for path, want := range map[string]lang.Dialect{"a.l1": lang.L1, "b/c.l4": lang.L4, "x.c0": lang.C0, "y.C1": lang.C1} {
		d, ok := dialectFromExt(path)
		if !ok || d != want {
			t.Fatalf("dialectFromExt(%q) = %v, %v; want %v", path, d, ok, want)
		}
	}
	if _, ok := dialectFromExt("notes.txt"); ok {
		t.Fatalf("notes.txt should have no dialect")
	}
}

func TestRunAndBytecode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sum.l2")
	mustWrite(t, path, `int main() { int s = 0; for (int i = 1; i <= 4; i++) s += i; return s; }`)

	var out bytes.Buffer
	if code := run(options{target: path}, &out); code != 0 {
		t.Fatalf("run exit code = %d", code)
	}
	if out.String() != "10\n" {
		t.Fatalf("run output = %q", out.String())
	}

	out.Reset()
	if code := dumpBytecode(options{target: path}, &out); code != 0 {
		t.Fatalf("bytecode exit code = %d", code)
	}
	if !strings.HasPrefix(out.String(), "bytecode v0\n") || !strings.Contains(out.String(), "fn main()") {
		t.Fatalf("unexpected bytecode:\n%s", out.String())
	}

	out.Reset()
	if code := check(options{target: path}, &out); code != 0 {
		t.Fatalf("check exit code = %d", code)
	}
}

func TestCheckProject(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "c0.toml"), "[build]\ndialect = \"L1\"\n")
	mustWrite(t, filepath.Join(dir, "main.c0"), `int main() { bool b = true; return 0; }`)
	var out bytes.Buffer
	if code := check(options{target: dir}, &out); code != 1 {
		t.Fatalf("check exit code = %d, want 1 for an L1 program using bool", code)
	}
}

func TestTestCommand(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "ok.l1"), "//test return 3\nint main() { return 1 + 2; }\n")
	mustWrite(t, filepath.Join(dir, "div.l1"), "//test div-by-zero\nint main() { return 1 / 0; }\n")
	mustWrite(t, filepath.Join(dir, "loop.l2"), "//test infloop\nint main() { while (true) {} return 0; }\n")
	mustWrite(t, filepath.Join(dir, "sub", "bad.c0"), "//test return 1\nint main() { return 2; }\n")
	mustWrite(t, filepath.Join(dir, "plain.c0"), "int main() { return 0; }\n")

	var out bytes.Buffer
	code := test(options{target: dir, gas: 10000, gasSet: true, jobs: 2}, &out)
	if code != 1 {
		t.Fatalf("exit code = %d, want 1\n%s", code, out.String())
	}
	if !strings.Contains(out.String(), "bad.c0: got return 2, want return 1") {
		t.Fatalf("missing failure report:\n%s", out.String())
	}
	if !strings.HasSuffix(out.String(), "3 passed, 1 failed\n") {
		t.Fatalf("unexpected summary:\n%s", out.String())
	}
}
