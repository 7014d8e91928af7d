package loader

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"c0lang/internal/diag"
	"c0lang/internal/lang"
	"c0lang/internal/source"
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

func TestRunOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		dialect lang.Dialect
		src     string
		want    string
	}{
		{"L1 arithmetic", lang.L1, `int main() { int x = 3; int y = 4; return x + y * 2; }`, "return 11"},
		{"wraparound", lang.L1, `int main() { return 0x7fffffff * 2; }`, "return -2"},
		{"hex is signed", lang.L1, `int main() { return 0xFFFFFFFF; }`, "return -1"},
		{"division truncates", lang.L1, `int main() { return -7 / 2 * 10 + -7 % 2; }`, "return -31"},
		{"div by zero", lang.L1, `int main() { return 5 / 0; }`, "div-by-zero"},
		{"min over minus one", lang.L1, `int main() { int x = 0x80000000; return x / -1; }`, "div-by-zero"},
		{"rem by zero", lang.L1, `int main() { return 7 % 0; }`, "div-by-zero"},
		{"shift out of range", lang.L1, `int main() { return 1 << 32; }`, "div-by-zero"},
		{"null dereference", lang.C0, `int main() { int* p = NULL; return *p; }`, "memerror"},
		{"index out of bounds", lang.C0, `int main() { int[] a = alloc_array(int, 3); return a[3]; }`, "memerror"},
		{"negative array size", lang.C0, `int main() { int[] a = alloc_array(int, -1); return 0; }`, "memerror"},
		{"lazy struct fields", lang.C0, `
struct s { int x; bool b; int* p; int[] a; };
int main() {
  struct s* p = alloc(struct s);
  if (p->b || p->p != NULL) return 1;
  return p->x;
}`, "return 0"},
		{"nested struct", lang.C0, `
struct in { int v; };
struct out { struct in i; int w; };
int main() {
  struct out* o = alloc(struct out);
  o->i.v = 5;
  o->w += o->i.v * 2;
  return o->w;
}`, "return 10"},
		{"array of structs", lang.C0, `
struct p { int x; };
int main() {
  struct p[] ps = alloc_array(struct p, 4);
  for (int i = 0; i < 4; i++) ps[i].x = i * i;
  return ps[3].x + ps[2].x;
}`, "return 13"},
		{"error call", lang.C0, `int main() { error("boom"); }`, "error"},
		{"assert", lang.C0, `int main() { assert(1 == 2); return 0; }`, "abort"},
		{"infinite loop", lang.L2, `int main() { while (true) {} return 0; }`, "infloop"},
		{"recursion", lang.L3, `
int fact(int n) { if (n <= 1) return 1; return n * fact(n - 1); }
int main() { return fact(10); }`, "return 3628800"},
		{"mutual recursion", lang.L3, `
bool odd(int n);
bool even(int n) { if (n == 0) return true; return odd(n - 1); }
bool odd(int n) { if (n == 0) return false; return even(n - 1); }
int main() { return even(10) ? 1 : 0; }`, "return 1"},
		{"break and continue", lang.C1, `
int main() {
  int sum = 0;
  for (int i = 0; i < 100; i++) {
    if (i % 2 == 0) continue;
    if (i > 10) break;
    sum += i;
  }
  return sum;
}`, "return 25"},
		{"function pointer", lang.C1, `
typedef int fn_t(int x);
int inc(int x) { return x + 1; }
int main() { fn_t* f = &inc; return (*f)(41); }`, "return 42"},
		{"null function pointer", lang.C1, `
typedef int fn_t(int x);
int main() { fn_t* f = NULL; return (*f)(1); }`, "memerror"},
		{"void pointer round trip", lang.C1, `
int main() {
  int* p = alloc(int);
  *p = 7;
  void* v = (void*)p;
  //@assert \hastag(int*, v);
  return *(int*)v;
}`, "return 7"},
		{"bad tag cast", lang.C1, `
int main() {
  int* p = alloc(int);
  void* v = (void*)p;
  bool* q = (bool*)v;
  return 0;
}`, "memerror"},
		{"pointer equality", lang.C0, `
int main() {
  int* p = alloc(int);
  int* q = p;
  int* r = alloc(int);
  return (p == q ? 1 : 0) + (p == r ? 10 : 0) + (NULL == r ? 100 : 0);
}`, "return 1"},
		{"strings", lang.C0, "#use <string>\nint main() { return string_length(string_join(\"ab\", \"cde\")); }", "return 5"},
		{"native requires", lang.C0, "#use <string>\nint main() { return string_charat(\"ab\", 5) == 'a' ? 1 : 0; }", "abort"},
		{"parse error", lang.L1, `int main() { return 1 }`, "parse"},
		{"dialect error", lang.L1, `int main() { bool b = true; return 0; }`, "parse"},
		{"type error", lang.L2, `int main() { return true; }`, "typecheck"},
		{"missing main", lang.L3, `int f() { return 1; }`, "typecheck"},
		{"use before assign", lang.L1, `int main() { int x; return x; }`, "static"},
		{"missing definition", lang.L3, `int f(int x); int main() { return f(1); }`, "static"},
		{"missing return", lang.L2, `int main() { if (true) return 1; }`, "static"},
		{"continue skips assign", lang.C0, `int main() { int x; int s = 0; for (int i = 0; i < 3; i += x) { if (i == 0) continue; x = 1; s++; } return s; }`, "static"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := RunSource(Config{Dialect: tc.dialect, Gas: 100000}, "test.c0", tc.src)
			if got.String() != tc.want {
				t.Fatalf("got %s (err %v), want %s", got, got.Err, tc.want)
			}
		})
	}
}

func TestShortCircuit(t *testing.T) {
	src := `#use <conio>
bool g() { print("g"); return true; }
int main() {
  if (false && g()) return 1;
  if (true || g()) return 0;
  return 2;
}`
	var out bytes.Buffer
	got := RunSource(Config{Dialect: lang.C0, Out: &out}, "test.c0", src)
	be.Equal(t, got.String(), "return 0")
	be.Equal(t, out.String(), "")
}

func TestOutput(t *testing.T) {
	src := `#use <conio>
int main() {
  printint(42);
  println("");
  print("hi ");
  printbool(true);
  printchar('!');
  return 0;
}`
	var out bytes.Buffer
	got := RunSource(Config{Dialect: lang.C0, Out: &out}, "test.c0", src)
	be.Equal(t, got.String(), "return 0")
	be.Equal(t, out.String(), "42\nhi true!")
}

func TestContracts(t *testing.T) {
	src := `
int f(int x)
//@requires x >= 0;
//@ensures \result > 0;
{ return -1; }
int main() { return f(1); }`

	on := RunSource(Config{Dialect: lang.C0, Contracts: true}, "test.c0", src)
	be.Equal(t, on.Kind, OutAbort)
	var d *diag.Error
	be.True(t, errors.As(on.Err, &d))
	be.Equal(t, d.Contract, "ensures")

	off := RunSource(Config{Dialect: lang.C0}, "test.c0", src)
	be.Equal(t, off.String(), "return -1")

	req := RunSource(Config{Dialect: lang.C0, Contracts: true}, "test.c0",
		strings.Replace(src, "f(1)", "f(-1)", 1))
	be.True(t, errors.As(req.Err, &d))
	be.Equal(t, d.Contract, "requires")
}

func TestLoopInvariant(t *testing.T) {
	src := `
int main() {
  int i = 0;
  while (i < 10)
  //@loop_invariant i <= 5;
  { i++; }
  return i;
}`
	be.Equal(t, RunSource(Config{Dialect: lang.C0, Contracts: true}, "test.c0", src).String(), "abort")
	be.Equal(t, RunSource(Config{Dialect: lang.C0}, "test.c0", src).String(), "return 10")
}

func TestDeterministic(t *testing.T) {
	src := `
struct pt { int x; int y; };
int dist(struct pt* p) { return p->x * p->x + p->y * p->y; }
int main() {
  struct pt* p = alloc(struct pt);
  p->x = 3; p->y = 4;
  return dist(p) > 20 && dist(p) < 30 ? dist(p) : 0;
}`
	build := func() (string, Outcome) {
		b, err := BuildFile(Config{Dialect: lang.C0, Contracts: true}, source.NewFile("test.c0", src))
		if err != nil {
			t.Fatal(err)
		}
		return b.Bytecode.Format(), Classify(Execute(Config{}, b.Bytecode))
	}
	text1, out1 := build()
	text2, out2 := build()
	be.Equal(t, text1, text2)
	be.Equal(t, out1.String(), "return 25")
	be.Equal(t, out2.String(), out1.String())
}

func TestUseFile(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "lib", "sq.c0"), `#use <util>
typedef int num;
num sq(num x) { return abs(x) * abs(x); }`)
	mustWrite(t, filepath.Join(dir, "main.c0"), `#use "lib/sq.c0"
#use "lib/sq.c0"
int main() { num n = -6; return sq(n); }`)

	b, err := os.ReadFile(filepath.Join(dir, "main.c0"))
	if err != nil {
		t.Fatal(err)
	}
	v, err := RunFile(Config{Dialect: lang.C0}, source.NewFile(filepath.Join(dir, "main.c0"), string(b)))
	be.Err(t, err, nil)
	be.Equal(t, v, int32(36))
}

func TestUseErrors(t *testing.T) {
	got := RunSource(Config{Dialect: lang.C0}, "test.c0", "#use <nope>\nint main() { return 0; }")
	be.Equal(t, got.Kind, OutParse)
	be.Err(t, got.Err, "unknown library <nope>")

	got = RunSource(Config{Dialect: lang.C0}, filepath.Join(t.TempDir(), "test.c0"), "#use \"missing.c0\"\nint main() { return 0; }")
	be.Equal(t, got.Kind, OutParse)
	be.Err(t, got.Err, "cannot read")
}

func TestLibrariesFromConfig(t *testing.T) {
	src := `int main() { return int_max() == 0x7fffffff ? string_length("abc") : 0; }`
	got := RunSource(Config{Dialect: lang.C0, Libraries: []string{"util", "string"}}, "test.c0", src)
	be.Equal(t, got.String(), "return 3")
}

func TestLoadPackage(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "c0.toml"), `[package]
name = "demo"
main = "src/prog.c0"

[build]
dialect = "L4"
contracts = true
gas = 500
libraries = ["util"]
`)
	mustWrite(t, filepath.Join(dir, "src", "prog.c0"), `int main() { return max(3, 9); }`)

	m, file, err := LoadPackage(filepath.Join(dir, "src"))
	if err != nil {
		t.Fatal(err)
	}
	cfg := FromManifest(m)
	be.Equal(t, cfg.Dialect, lang.L4)
	be.Equal(t, cfg.Gas, 500)
	be.True(t, cfg.Contracts)
	v, err := RunFile(cfg, file)
	be.Err(t, err, nil)
	be.Equal(t, v, int32(9))
}

func TestLoadPackageMissingMain(t *testing.T) {
	_, _, err := LoadPackage(t.TempDir())
	be.Err(t, err, "missing main.c0")
}
