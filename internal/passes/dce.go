package passes

import (
	"undertow/internal/ir"
	"undertow/internal/pipeline"
)

// deadCode trims trivially unreachable ops: everything in a block after
// its first terminator. Splicing runs first so duplicated terminators
// end up adjacent in the same block.
type deadCode struct{}

func (deadCode) ID() pipeline.PassID { return "dead-code" }
func (deadCode) Name() string        { return "dead-code" }

func (d deadCode) RunOnOp(fn *ir.Op) error {
	for _, r := range fn.Regions {
		for _, b := range r.Blocks {
			d.trimBlock(b)
		}
	}
	return nil
}

func (d deadCode) trimBlock(b *ir.Block) {
	for i, op := range b.Ops {
		if op.IsTerminator() {
			b.Truncate(i + 1)
			break
		}
	}
	for _, op := range b.Ops {
		for _, r := range op.Regions {
			for _, inner := range r.Blocks {
				d.trimBlock(inner)
			}
		}
	}
}

// DCE schedules dead-code trimming on every function. Trimming wants
// spliced bodies, so the splice step is a dependency.
func DCE() pipeline.StepBuilder {
	return func() pipeline.Step {
		return pipeline.Nested(ir.OpFunc, deadCode{}).DependsOn(SpliceScopes())
	}
}
