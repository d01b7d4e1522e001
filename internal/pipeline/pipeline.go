// Package pipeline schedules module transformations. Steps name their
// dependencies as builders; scheduling a step schedules its
// dependencies first, and a transformation that was already scheduled
// is dropped silently no matter which step asked for it.
package pipeline

import (
	"fmt"
	"time"

	"undertow/internal/ir"
)

// PassID identifies one transformation unit. Two passes with the same
// ID are considered the same work and run at most once per pipeline.
type PassID string

// Pass transforms a whole module.
type Pass interface {
	ID() PassID
	Name() string
	Run(*ir.Module) error
}

// OpPass transforms one top-level operation. It is scheduled nested
// under an anchor op kind and runs once per matching op.
type OpPass interface {
	ID() PassID
	Name() string
	RunOnOp(*ir.Op) error
}

// Listener observes pass completion, for timing reports.
type Listener func(name string, elapsed time.Duration)

type scheduled struct {
	pass   Pass
	opPass OpPass
	anchor ir.OpKind
}

// Pipeline accumulates scheduled passes and runs them in order.
type Pipeline struct {
	order    []scheduled
	seen     map[PassID]struct{}
	listener Listener
}

func New() *Pipeline {
	return &Pipeline{seen: make(map[PassID]struct{})}
}

// SetListener installs a completion listener. A nil listener disables
// reporting.
func (p *Pipeline) SetListener(l Listener) {
	p.listener = l
}

// Schedule materializes each step builder and schedules the resulting
// step. Builders run exactly once per Schedule call.
func (p *Pipeline) Schedule(builders ...StepBuilder) {
	for _, build := range builders {
		build().ScheduleOn(p)
	}
}

func (p *Pipeline) addPass(pass Pass) {
	if p.dedup(pass.ID()) {
		return
	}
	p.order = append(p.order, scheduled{pass: pass})
}

func (p *Pipeline) addNestedPass(anchor ir.OpKind, pass OpPass) {
	if p.dedup(pass.ID()) {
		return
	}
	p.order = append(p.order, scheduled{opPass: pass, anchor: anchor})
}

func (p *Pipeline) dedup(id PassID) bool {
	if _, dup := p.seen[id]; dup {
		return true
	}
	p.seen[id] = struct{}{}
	return false
}

// Len reports how many passes are scheduled.
func (p *Pipeline) Len() int {
	return len(p.order)
}

// Names returns the scheduled pass names in run order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.order))
	for i, s := range p.order {
		if s.pass != nil {
			names[i] = s.pass.Name()
		} else {
			names[i] = s.opPass.Name()
		}
	}
	return names
}

// Run executes the scheduled passes against the module in order. The
// first failing pass aborts the run.
func (p *Pipeline) Run(m *ir.Module) error {
	for _, s := range p.order {
		start := time.Now()
		if err := p.runOne(m, s); err != nil {
			return err
		}
		if p.listener != nil {
			name := ""
			if s.pass != nil {
				name = s.pass.Name()
			} else {
				name = s.opPass.Name()
			}
			p.listener(name, time.Since(start))
		}
	}
	return nil
}

func (p *Pipeline) runOne(m *ir.Module, s scheduled) error {
	if s.pass != nil {
		if err := s.pass.Run(m); err != nil {
			return fmt.Errorf("pass %s: %w", s.pass.Name(), err)
		}
		return nil
	}
	for _, op := range m.Top.Ops {
		if op.Kind != s.anchor {
			continue
		}
		if err := s.opPass.RunOnOp(op); err != nil {
			return fmt.Errorf("pass %s on %s: %w", s.opPass.Name(), op.Name, err)
		}
	}
	return nil
}
