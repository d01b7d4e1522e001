package ir

// Module is the root of one lowered compilation unit: a single top-level
// block holding symbol declarations in emission order.
type Module struct {
	Name string
	Top  *Block
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{
		Name: name,
		Top:  &Block{},
	}
}

// Find returns the first top-level symbol op with the given name, or nil.
func (m *Module) Find(name string) *Op {
	for _, op := range m.Top.Ops {
		if op.Name == name {
			return op
		}
	}
	return nil
}

// Funcs returns every top-level function op in emission order.
func (m *Module) Funcs() []*Op {
	var out []*Op
	for _, op := range m.Top.Ops {
		if op.Kind == OpFunc {
			out = append(out, op)
		}
	}
	return out
}

// Walk visits every op in the module in pre-order, descending into regions.
// Returning false from fn stops descent into that op's regions.
func (m *Module) Walk(fn func(*Op) bool) {
	walkBlock(m.Top, fn)
}

func walkBlock(b *Block, fn func(*Op) bool) {
	for _, op := range b.Ops {
		if !fn(op) {
			continue
		}
		for _, r := range op.Regions {
			for _, blk := range r.Blocks {
				walkBlock(blk, fn)
			}
		}
	}
}
