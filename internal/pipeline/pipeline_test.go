package pipeline

import (
	"errors"
	"testing"

	"undertow/internal/ir"
	"undertow/internal/source"
)

type recordPass struct {
	id  PassID
	log *[]string
	err error
}

func (p recordPass) ID() PassID   { return p.id }
func (p recordPass) Name() string { return string(p.id) }

func (p recordPass) Run(*ir.Module) error {
	*p.log = append(*p.log, string(p.id))
	return p.err
}

type recordOpPass struct {
	id  PassID
	log *[]string
}

func (p recordOpPass) ID() PassID   { return p.id }
func (p recordOpPass) Name() string { return string(p.id) }

func (p recordOpPass) RunOnOp(op *ir.Op) error {
	*p.log = append(*p.log, string(p.id)+":"+op.Name)
	return nil
}

func step(id PassID, log *[]string, deps ...StepBuilder) StepBuilder {
	return func() Step {
		return ForPass(recordPass{id: id, log: log}).DependsOn(deps...)
	}
}

func TestScheduleKeepsDeclarationOrder(t *testing.T) {
	var log []string
	p := New()
	p.Schedule(step("a", &log), step("b", &log), step("c", &log))

	if err := p.Run(ir.NewModule("m")); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(log) != len(want) {
		t.Fatalf("ran %v, want %v", log, want)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("ran %v, want %v", log, want)
		}
	}
}

func TestDuplicatePassScheduledOnce(t *testing.T) {
	var log []string
	p := New()
	p.Schedule(step("a", &log), step("a", &log))

	if p.Len() != 1 {
		t.Fatalf("expected the duplicate to be dropped, got %d passes", p.Len())
	}
	if err := p.Run(ir.NewModule("m")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(log) != 1 {
		t.Fatalf("pass ran %d times, want 1", len(log))
	}
}

func TestDependenciesRunFirst(t *testing.T) {
	var log []string
	p := New()
	p.Schedule(step("top", &log, step("dep", &log)))

	if err := p.Run(ir.NewModule("m")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(log) != 2 || log[0] != "dep" || log[1] != "top" {
		t.Fatalf("expected dep before top, got %v", log)
	}
}

func TestDroppedDuplicateStillSchedulesItsDependencies(t *testing.T) {
	var log []string
	p := New()
	p.Schedule(step("a", &log))
	// Same transformation again, this time with a dependency that has
	// not run yet. The step itself is dropped; the dependency is not.
	p.Schedule(step("a", &log, step("late-dep", &log)))

	if p.Len() != 2 {
		t.Fatalf("expected a and late-dep, got %d passes", p.Len())
	}
	if err := p.Run(ir.NewModule("m")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(log) != 2 || log[0] != "a" || log[1] != "late-dep" {
		t.Fatalf("unexpected order %v", log)
	}
}

func TestSharedDependencyScheduledOnce(t *testing.T) {
	var log []string
	shared := func() StepBuilder { return step("shared", &log) }
	p := New()
	p.Schedule(
		step("a", &log, shared()),
		step("b", &log, shared()),
	)

	if p.Len() != 3 {
		t.Fatalf("expected shared, a, b, got %d passes", p.Len())
	}
	if err := p.Run(ir.NewModule("m")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if log[0] != "shared" {
		t.Fatalf("shared dependency should run first, got %v", log)
	}
}

func TestCompoundStepIsTransparent(t *testing.T) {
	var log []string
	group := func() StepBuilder {
		return func() Step {
			return Compose("group", step("a", &log), step("b", &log))
		}
	}
	p := New()
	p.Schedule(group(), group())

	if p.Len() != 2 {
		t.Fatalf("the group holds no work and its members dedup, got %d passes", p.Len())
	}
	names := p.Names()
	if names[0] != "a" || names[1] != "b" {
		t.Fatalf("unexpected pass names %v", names)
	}
}

func TestNestedSharesTheDedupSet(t *testing.T) {
	var log []string
	p := New()
	p.Schedule(
		func() Step { return Nested(ir.OpFunc, recordOpPass{id: "x", log: &log}) },
		step("x", &log),
	)
	if p.Len() != 1 {
		t.Fatalf("module and nested steps must share dedup, got %d passes", p.Len())
	}
}

func TestNestedRunsOncePerAnchorOp(t *testing.T) {
	m := ir.NewModule("m")
	b := ir.NewBuilder(m)
	b.MakeFunc(source.Span{}, "f", ir.Func(ir.Void()), ir.LinkageExternal)
	b.MakeVarDecl(source.Span{}, "g", ir.Int(), false)
	b.MakeFunc(source.Span{}, "h", ir.Func(ir.Void()), ir.LinkageExternal)

	var log []string
	p := New()
	p.Schedule(func() Step { return Nested(ir.OpFunc, recordOpPass{id: "n", log: &log}) })

	if err := p.Run(m); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(log) != 2 || log[0] != "n:f" || log[1] != "n:h" {
		t.Fatalf("expected one run per function, got %v", log)
	}
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	p := New()
	p.Schedule(
		func() Step { return ForPass(recordPass{id: "bad", log: &log, err: boom}) },
		step("after", &log),
	)

	err := p.Run(ir.NewModule("m"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected the pass error, got %v", err)
	}
	if len(log) != 1 {
		t.Fatalf("passes after the failure must not run, got %v", log)
	}
}

func TestBuildersRunOncePerScheduling(t *testing.T) {
	var log []string
	built := 0
	counted := func() Step {
		built++
		return ForPass(recordPass{id: "c", log: &log})
	}
	p := New()
	p.Schedule(counted, counted)

	if built != 2 {
		t.Fatalf("builder should run once per scheduling, got %d", built)
	}
	if p.Len() != 1 {
		t.Fatalf("the second build is dropped by dedup, got %d passes", p.Len())
	}
}
