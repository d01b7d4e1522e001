package passes

import (
	"undertow/internal/ir"
	"undertow/internal/pipeline"
)

// lowerTypeDefs replaces every type reference that resolves to an alias
// with the alias's underlying type and erases the alias declarations
// from the module.
type lowerTypeDefs struct{}

func (lowerTypeDefs) ID() pipeline.PassID { return "lower-typedefs" }
func (lowerTypeDefs) Name() string        { return "lower-typedefs" }

func (l lowerTypeDefs) Run(m *ir.Module) error {
	m.Walk(func(op *ir.Op) bool {
		op.Type = l.resolve(op.Type)
		for _, v := range op.Operands {
			v.Type = l.resolve(v.Type)
		}
		for _, r := range op.Regions {
			for _, b := range r.Blocks {
				for _, arg := range b.Args {
					arg.Type = l.resolve(arg.Type)
				}
			}
		}
		return true
	})

	kept := m.Top.Ops[:0]
	for _, op := range m.Top.Ops {
		if op.Kind != ir.OpTypeDef {
			kept = append(kept, op)
		}
	}
	m.Top.Ops = kept
	return nil
}

// resolve rewrites a type bottom-up, chasing alias chains to their
// underlying type.
func (l lowerTypeDefs) resolve(t *ir.Type) *ir.Type {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case ir.TyPointer:
		return ir.Pointer(l.resolve(t.Elem))
	case ir.TyArray:
		return ir.Array(l.resolve(t.Elem), t.Len)
	case ir.TyFunc:
		params := make([]*ir.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = l.resolve(p)
		}
		return ir.Func(l.resolve(t.Result), params...)
	case ir.TyNamed:
		if t.Sym != nil && t.Sym.Kind == ir.OpTypeDef {
			return l.resolve(t.Sym.Type)
		}
		return t
	default:
		return t
	}
}

// LowerTypeDefs schedules alias lowering for the whole module.
func LowerTypeDefs() pipeline.StepBuilder {
	return func() pipeline.Step {
		return pipeline.ForPass(lowerTypeDefs{})
	}
}
