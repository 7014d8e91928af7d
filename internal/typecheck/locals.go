package typecheck

import "c0lang/internal/types"

// Locals is a persistent map from local variable names to types. Extending
// never changes the receiver, so a block's declarations vanish when the
// checker goes back to the environment it had before the block.
type Locals struct {
	parent *Locals
	name   string
	ty     types.Type
}

func (l *Locals) Extend(name string, ty types.Type) *Locals {
	return &Locals{parent: l, name: name, ty: ty}
}

func (l *Locals) Lookup(name string) (types.Type, bool) {
	for ; l != nil; l = l.parent {
		if l.name == name {
			return l.ty, true
		}
	}
	return types.Bad, false
}

// Names lists the locals from innermost to outermost.
func (l *Locals) Names() []string {
	var out []string
	for ; l != nil; l = l.parent {
		out = append(out, l.name)
	}
	return out
}
