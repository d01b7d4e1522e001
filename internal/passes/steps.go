package passes

import "undertow/internal/pipeline"

// Canonicalize groups the structural cleanups that every later pass
// assumes: spliced bodies and no trivially dead ops. The group is
// transparent; scheduling it twice schedules each member once.
func Canonicalize() pipeline.StepBuilder {
	return func() pipeline.Step {
		return pipeline.Compose("canonicalize", SpliceScopes(), DCE())
	}
}

// Desugar lowers surface-level constructs that carry no semantics of
// their own, currently just type aliases. It wants canonical bodies
// first.
func Desugar() pipeline.StepBuilder {
	return func() pipeline.Step {
		return pipeline.Compose("desugar", LowerTypeDefs()).DependsOn(Canonicalize())
	}
}

// Simplify is the stock pipeline applied after lowering.
func Simplify() pipeline.StepBuilder {
	return func() pipeline.Step {
		return pipeline.Compose("simplify", Canonicalize(), Desugar())
	}
}
