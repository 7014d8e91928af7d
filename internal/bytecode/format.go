package bytecode

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"modernc.org/mathutil"

	"c0lang/internal/diag"
)

// Resolve builds the label table of every function and checks that each
// jump has a target.
func (p *Program) Resolve() error {
	for _, name := range sortedKeys(p.Funcs) {
		if err := p.Funcs[name].Resolve(); err != nil {
			return err
		}
	}
	return nil
}

func (f *Func) Resolve() error {
	f.Labels = map[string]int{}
	for pc, ins := range f.Code {
		l, ok := ins.(*Label)
		if !ok {
			continue
		}
		if _, dup := f.Labels[l.Name]; dup {
			return diag.Impossible("%s: label %s defined twice", f.Name, l.Name)
		}
		f.Labels[l.Name] = pc
	}
	for _, ins := range f.Code {
		if t := target(ins); t != "" {
			if _, ok := f.Labels[t]; !ok {
				return diag.Impossible("%s: jump to undefined label %s", f.Name, t)
			}
		}
	}
	return nil
}

func target(ins Instr) string {
	switch ins := ins.(type) {
	case *Goto:
		return ins.Target
	case *If:
		return ins.Target
	case *IfCmp:
		return ins.Target
	case *IfHasTag:
		return ins.Target
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Format renders the program as deterministic text: natives, struct
// layouts and functions, each sorted by name.
func (p *Program) Format() string {
	var sb strings.Builder
	sb.WriteString("bytecode v0\n")
	if p == nil {
		return sb.String()
	}
	for _, name := range sortedKeys(p.Natives) {
		n := p.Natives[name]
		fmt.Fprintf(&sb, "native %s/%d", name, n.Arity)
		if n.Void {
			sb.WriteString(" void")
		}
		sb.WriteByte('\n')
	}
	for _, name := range sortedKeys(p.Structs) {
		s := p.Structs[name]
		fmt.Fprintf(&sb, "struct %s\n", s.Name)
		for _, f := range s.Fields {
			fmt.Fprintf(&sb, "  %s %s\n", f.Name, f.Type)
		}
	}
	for _, name := range sortedKeys(p.Funcs) {
		p.Funcs[name].format(&sb)
	}
	return sb.String()
}

func (f *Func) format(sb *strings.Builder) {
	sb.WriteString("fn ")
	sb.WriteString(f.Name)
	sb.WriteByte('(')
	sb.WriteString(strings.Join(f.Params, ", "))
	sb.WriteByte(')')
	if f.Void {
		sb.WriteString(" void")
	}
	sb.WriteByte('\n')
	width := mathutil.Max(1, len(strconv.Itoa(len(f.Code)-1)))
	for pc, ins := range f.Code {
		if _, ok := ins.(*Label); ok {
			fmt.Fprintf(sb, "%*s %s\n", width, "", ins.fmtString())
			continue
		}
		fmt.Fprintf(sb, "%*d   %s\n", width, pc, ins.fmtString())
	}
}
