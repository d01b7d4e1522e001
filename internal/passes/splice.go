// Package passes holds the stock module transformations and the step
// builders that wire them, with their dependencies, into a pipeline.
package passes

import (
	"undertow/internal/ir"
	"undertow/internal/pipeline"
)

// spliceScopes inlines trailing scope ops into their parent block.
// Lowering wraps every compound statement in a scope, so a function
// body usually ends in a scope whose last op is the real terminator;
// splicing hoists those ops so the terminator belongs to the function
// block itself.
type spliceScopes struct{}

func (spliceScopes) ID() pipeline.PassID { return "splice-trailing-scopes" }
func (spliceScopes) Name() string        { return "splice-trailing-scopes" }

func (s spliceScopes) RunOnOp(fn *ir.Op) error {
	for _, r := range fn.Regions {
		for _, b := range r.Blocks {
			s.spliceBlock(b)
		}
	}
	return nil
}

func (s spliceScopes) spliceBlock(b *ir.Block) {
	for {
		last := b.LastOp()
		if last == nil || last.Kind != ir.OpScope {
			break
		}
		body := last.LastBlock()
		if body == nil || !last.Body().HasOneBlock() {
			break
		}
		b.Remove(b.Len() - 1)
		for _, op := range body.Ops {
			b.Append(op)
		}
		body.Ops = nil
	}
	for _, op := range b.Ops {
		for _, r := range op.Regions {
			for _, inner := range r.Blocks {
				s.spliceBlock(inner)
			}
		}
	}
}

// SpliceScopes schedules trailing-scope splicing on every function.
func SpliceScopes() pipeline.StepBuilder {
	return func() pipeline.Step {
		return pipeline.Nested(ir.OpFunc, spliceScopes{})
	}
}
