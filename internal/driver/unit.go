package driver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"undertow/internal/ast"
	"undertow/internal/codegen"
	"undertow/internal/diag"
	"undertow/internal/ir"
	"undertow/internal/observ"
	"undertow/internal/pipeline"
	"undertow/internal/source"
)

// Options configure lowering of one or more units.
type Options struct {
	// MaxDiagnostics caps the bag per unit; zero means the default.
	MaxDiagnostics int
	// Steps is the transformation schedule applied after lowering.
	Steps []pipeline.StepBuilder
	// Sink receives progress events; nil disables them.
	Sink ProgressSink
	// Timings enables per-stage duration collection.
	Timings bool
}

const defaultMaxDiagnostics = 256

// UnitResult is the outcome of lowering one unit. Module is nil when
// the unit aborted.
type UnitResult struct {
	Path    string
	Module  *ir.Module
	Bag     *diag.Bag
	Timings Timings
	// Passes holds per-pass durations when Options.Timings is set.
	Passes *observ.Timer
	Err    error
}

// ErrUnitAborted wraps panics recovered at the unit boundary. One bad
// unit aborts only itself; the rest of the run continues.
var ErrUnitAborted = errors.New("unit aborted")

// LowerUnit reads, lowers, and transforms one unit. Diagnostics land in
// the result bag; only infrastructure failures and aborts surface as
// the result error.
func LowerUnit(ctx context.Context, file *source.File, opts Options) *UnitResult {
	maxDiags := opts.MaxDiagnostics
	if maxDiags <= 0 {
		maxDiags = defaultMaxDiagnostics
	}
	res := &UnitResult{
		Path: file.Path,
		Bag:  diag.NewBag(maxDiags),
	}
	reporter := diag.NewDedupReporter(diag.BagReporter{Bag: res.Bag})
	unit := filepath.Base(file.Path)

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	start := time.Now()
	notify(opts.Sink, Event{Unit: unit, Stage: StageRead, Status: StatusWorking})
	tu := NewReader(file, reporter).ReadUnit()
	res.Timings.Set(StageRead, time.Since(start))
	notify(opts.Sink, Event{Unit: unit, Stage: StageRead, Status: StatusDone, Elapsed: res.Timings.Duration(StageRead)})

	start = time.Now()
	notify(opts.Sink, Event{Unit: unit, Stage: StageLower, Status: StatusWorking})
	mod, err := lowerTree(unit, tu, reporter)
	res.Timings.Set(StageLower, time.Since(start))
	if err != nil {
		res.Err = err
		notify(opts.Sink, Event{Unit: unit, Stage: StageLower, Status: StatusError, Err: err})
		return res
	}
	notify(opts.Sink, Event{Unit: unit, Stage: StageLower, Status: StatusDone, Elapsed: res.Timings.Duration(StageLower)})

	start = time.Now()
	notify(opts.Sink, Event{Unit: unit, Stage: StagePasses, Status: StatusWorking})
	p := pipeline.New()
	if opts.Timings {
		res.Passes = observ.NewTimer()
		p.SetListener(res.Passes.Add)
	}
	p.Schedule(opts.Steps...)
	if err := p.Run(mod); err != nil {
		res.Err = fmt.Errorf("%s: %w", unit, err)
		notify(opts.Sink, Event{Unit: unit, Stage: StagePasses, Status: StatusError, Err: res.Err})
		return res
	}
	res.Timings.Set(StagePasses, time.Since(start))
	notify(opts.Sink, Event{Unit: unit, Stage: StagePasses, Status: StatusDone, Elapsed: res.Timings.Duration(StagePasses)})

	res.Module = mod
	return res
}

// lowerTree materializes a translation unit into a fresh module.
// Lowering panics are recovered here: unimplemented constructs and
// invariant violations abort the unit, not the process.
func lowerTree(unit string, tu *ast.Decl, reporter diag.Reporter) (mod *ir.Module, err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		mod = nil
		var unimpl *codegen.UnimplementedError
		switch v := r.(type) {
		case *codegen.UnimplementedError:
			unimpl = v
		case error:
			err = fmt.Errorf("%s: %w: %w", unit, ErrUnitAborted, v)
			return
		default:
			err = fmt.Errorf("%s: %w: %v", unit, ErrUnitAborted, v)
			return
		}
		err = fmt.Errorf("%s: %w: %w", unit, ErrUnitAborted, unimpl)
	}()

	cctx := codegen.NewContext(unit, reporter)
	visitor := codegen.NewVisitor(cctx)

	for _, d := range tu.Children {
		switch {
		case d.Kind == ast.DeclFunction && d.Complete && d.Storage == ast.StorageStatic:
			// Internal-linkage definitions are emitted only when some
			// use demands them.
			cctx.DeferDecl(d)
		case d.Kind == ast.DeclFunction && !d.Complete:
			// Prototypes materialize lazily on first reference.
		default:
			visitor.Visit(d)
		}
	}

	// Emitting a demanded definition may demand further ones; drain
	// until quiet. Whatever is still deferred was never used.
	for cctx.HasPendingToEmit() {
		for _, d := range cctx.TakeToEmit() {
			visitor.Visit(d)
		}
	}
	return cctx.Module, nil
}
