package main

import (
	"fmt"

	"undertow/internal/passes"
	"undertow/internal/pipeline"
)

// stepGroups maps manifest and flag names to schedulable step groups.
var stepGroups = map[string]pipeline.StepBuilder{
	"splice":       passes.SpliceScopes(),
	"dce":          passes.DCE(),
	"typedefs":     passes.LowerTypeDefs(),
	"canonicalize": passes.Canonicalize(),
	"desugar":      passes.Desugar(),
	"simplify":     passes.Simplify(),
}

func resolveSteps(names []string) ([]pipeline.StepBuilder, error) {
	if len(names) == 0 {
		return []pipeline.StepBuilder{passes.Simplify()}, nil
	}
	steps := make([]pipeline.StepBuilder, 0, len(names))
	for _, name := range names {
		builder, ok := stepGroups[name]
		if !ok {
			return nil, fmt.Errorf("unknown step %q (known: splice, dce, typedefs, canonicalize, desugar, simplify)", name)
		}
		steps = append(steps, builder)
	}
	return steps, nil
}

// scheduledPassNames resolves a step list to the pass order it would run.
func scheduledPassNames(steps []pipeline.StepBuilder) []string {
	p := pipeline.New()
	p.Schedule(steps...)
	return p.Names()
}
