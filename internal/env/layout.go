package env

import (
	"c0lang/internal/diag"
	"c0lang/internal/source"
	"c0lang/internal/types"
)

type Field struct {
	Name   string
	Type   types.Type
	Offset int
}

// Layout is the resolved shape of a defined struct, fields in declaration
// order.
type Layout struct {
	Name   string
	Fields []Field
	index  map[string]int
}

func (l *Layout) Field(name string) (Field, bool) {
	i, ok := l.index[name]
	if !ok {
		return Field{}, false
	}
	return l.Fields[i], true
}

// Layout resolves struct name, memoized per environment generation.
func (e *Env) Layout(name string, span source.Span) (*Layout, error) {
	if e.layoutGen != e.gen {
		clear(e.layouts)
		e.layoutGen = e.gen
	}
	if l, ok := e.layouts[name]; ok {
		return l, nil
	}
	sd := e.Struct(name)
	if sd == nil || !sd.Defined {
		return nil, diag.At(diag.UnknownTypeError, span, "struct %s is not defined", name)
	}
	l := &Layout{Name: name, index: map[string]int{}}
	for i, f := range sd.Fields {
		ft, err := e.Resolve(f.Type)
		if err != nil {
			return nil, err
		}
		l.index[f.Name] = i
		l.Fields = append(l.Fields, Field{Name: f.Name, Type: ft, Offset: i})
	}
	e.layouts[name] = l
	return l, nil
}

// Layouts resolves every defined struct; used to build the program's
// struct pool.
func (e *Env) Layouts() (map[string]*Layout, error) {
	out := map[string]*Layout{}
	for _, d := range e.decls {
		name := d.DeclName()
		if sd := e.Struct(name); sd != nil && sd.Defined {
			if _, done := out[name]; done {
				continue
			}
			l, err := e.Layout(name, sd.S)
			if err != nil {
				return nil, err
			}
			out[name] = l
		}
	}
	return out, nil
}
