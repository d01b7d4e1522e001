package pipeline

import "undertow/internal/ir"

// Step is anything that can put work on a pipeline.
type Step interface {
	ScheduleOn(*Pipeline)
}

// StepBuilder produces a step on demand. Dependencies are expressed as
// builders so a step can be named before it is constructed; a builder
// runs once each time its step gets scheduled.
type StepBuilder func() Step

// PassStep schedules a module pass after its dependencies. Scheduling
// it when the pass already ran through another step is a no-op, but the
// dependencies are still scheduled.
type PassStep struct {
	pass Pass
	deps []StepBuilder
}

func ForPass(p Pass) *PassStep {
	return &PassStep{pass: p}
}

func (s *PassStep) DependsOn(deps ...StepBuilder) *PassStep {
	s.deps = append(s.deps, deps...)
	return s
}

func (s *PassStep) ScheduleOn(p *Pipeline) {
	p.Schedule(s.deps...)
	p.addPass(s.pass)
}

// NestedStep schedules an op pass anchored under a top-level op kind.
// It shares the dedup set with every other step kind.
type NestedStep struct {
	anchor ir.OpKind
	pass   OpPass
	deps   []StepBuilder
}

func Nested(anchor ir.OpKind, p OpPass) *NestedStep {
	return &NestedStep{anchor: anchor, pass: p}
}

func (s *NestedStep) DependsOn(deps ...StepBuilder) *NestedStep {
	s.deps = append(s.deps, deps...)
	return s
}

func (s *NestedStep) ScheduleOn(p *Pipeline) {
	p.Schedule(s.deps...)
	p.addNestedPass(s.anchor, s.pass)
}

// CompoundStep is a named group of steps. Scheduling it schedules its
// dependencies, then its sub-steps in order; the group itself holds no
// work and never appears in the pipeline.
type CompoundStep struct {
	name  string
	steps []StepBuilder
	deps  []StepBuilder
}

func Compose(name string, steps ...StepBuilder) *CompoundStep {
	return &CompoundStep{name: name, steps: steps}
}

func (s *CompoundStep) DependsOn(deps ...StepBuilder) *CompoundStep {
	s.deps = append(s.deps, deps...)
	return s
}

func (s *CompoundStep) Name() string { return s.name }

func (s *CompoundStep) ScheduleOn(p *Pipeline) {
	p.Schedule(s.deps...)
	p.Schedule(s.steps...)
}
