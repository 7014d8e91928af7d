package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"c0lang/internal/lang"
)

func TestLoadBasic(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, FileName)
	if err := os.WriteFile(p, []byte(`
[package]
name = "lists"
main = "src/lists.c0" # entry point

[build]
dialect = "C0"
contracts = true
gas = 5000
libraries = ["conio", "string"]
`), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if m.Package.Name != "lists" {
		t.Fatalf("name: %q", m.Package.Name)
	}
	if m.Package.Main != "src/lists.c0" {
		t.Fatalf("main: %q", m.Package.Main)
	}
	if m.Build.Dialect != lang.C0 || !m.Build.Contracts || m.Build.Gas != 5000 {
		t.Fatalf("build: %+v", m.Build)
	}
	if len(m.Build.Libraries) != 2 || m.Build.Libraries[1] != "string" {
		t.Fatalf("libraries: %q", m.Build.Libraries)
	}
}

func TestDefaults(t *testing.T) {
	m, err := Parse("proj/c0.toml", "[build]\n")
	if err != nil {
		t.Fatal(err)
	}
	if m.Build.Dialect != lang.C1 || m.Build.Contracts || m.Build.Gas != 0 {
		t.Fatalf("build: %+v", m.Build)
	}
	if m.Package.Name != "proj" || m.Package.Main != "main.c0" {
		t.Fatalf("package: %+v", m.Package)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"dialect", "[build]\ndialect = \"C9\"\n"},
		{"contracts", "[build]\ncontracts = maybe\n"},
		{"gas", "[build]\ngas = -1\n"},
		{"libraries", "[build]\nlibraries = conio\n"},
		{"unknown_key", "[build]\noptimize = true\n"},
		{"no_value", "[build]\ngas\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse("c0.toml", tc.src); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, FileName)
	if err := os.WriteFile(want, []byte("[build]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Find(sub)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
