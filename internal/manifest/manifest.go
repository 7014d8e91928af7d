// Package manifest reads c0.toml, the project file that fixes how a program
// is checked and run.
package manifest

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"c0lang/internal/lang"
)

const FileName = "c0.toml"

type Manifest struct {
	Path    string
	Package Package
	Build   Build
}

type Package struct {
	Name string
	// Main is the program file, relative to the manifest.
	Main string
}

type Build struct {
	Dialect   lang.Dialect
	Contracts bool
	// Gas is the instruction budget; zero means unlimited.
	Gas       int
	Libraries []string
}

// Default is the configuration used when no c0.toml exists.
func Default() *Manifest {
	return &Manifest{Package: Package{Main: "main.c0"}, Build: Build{Dialect: lang.C1}}
}

func Load(path string) (*Manifest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, string(b))
}

// Parse reads the small TOML subset c0.toml uses: sections, string, bool
// and integer values, and arrays of strings.
func Parse(path, content string) (*Manifest, error) {
	m := Default()
	m.Path = path
	var section string
	sc := bufio.NewScanner(strings.NewReader(content))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := stripComment(sc.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}
		key, val, ok := cutKV(line)
		if !ok {
			return nil, fmt.Errorf("%s:%d: invalid line: %q", path, lineNo, line)
		}
		if err := m.set(section, key, val); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if m.Package.Name == "" && path != "" {
		m.Package.Name = filepath.Base(filepath.Dir(path))
	}
	return m, nil
}

func (m *Manifest) set(section, key, val string) error {
	switch section {
	case "package":
		switch key {
		case "name":
			m.Package.Name = unquote(val)
		case "main":
			m.Package.Main = unquote(val)
		}
	case "build":
		switch key {
		case "dialect":
			d, err := lang.ParseDialect(unquote(val))
			if err != nil {
				return err
			}
			m.Build.Dialect = d
		case "contracts":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("contracts must be true or false, found %s", val)
			}
			m.Build.Contracts = b
		case "gas":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return fmt.Errorf("gas must be a non-negative integer, found %s", val)
			}
			m.Build.Gas = n
		case "libraries":
			libs, err := parseStringArray(val)
			if err != nil {
				return err
			}
			m.Build.Libraries = libs
		default:
			return fmt.Errorf("unknown build key %q", key)
		}
	}
	return nil
}

// Find walks up from dir looking for c0.toml. It returns "" when there is
// none.
func Find(dir string) (string, error) {
	cur, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		p := filepath.Join(cur, FileName)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", nil
		}
		cur = parent
	}
}

func stripComment(line string) string {
	inStr := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inStr = !inStr
		case '#':
			if !inStr {
				return line[:i]
			}
		}
	}
	return line
}

func cutKV(line string) (key, val string, ok bool) {
	i := strings.IndexByte(line, '=')
	if i < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:i])
	val = strings.TrimSpace(line[i+1:])
	if key == "" || val == "" {
		return "", "", false
	}
	return key, val, true
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func parseStringArray(val string) ([]string, error) {
	if !strings.HasPrefix(val, "[") || !strings.HasSuffix(val, "]") {
		return nil, fmt.Errorf("expected an array of strings, found %s", val)
	}
	inner := strings.TrimSpace(val[1 : len(val)-1])
	if inner == "" {
		return nil, nil
	}
	var out []string
	for _, part := range strings.Split(inner, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if len(part) < 2 || part[0] != '"' || part[len(part)-1] != '"' {
			return nil, fmt.Errorf("expected a string, found %s", part)
		}
		out = append(out, unquote(part))
	}
	return out, nil
}
