package passes

import (
	"testing"

	"undertow/internal/ir"
	"undertow/internal/pipeline"
	"undertow/internal/source"
)

func emptySpan() source.Span { return source.Span{} }

// newFunc builds a function header with an empty entry block.
func newFunc(b *ir.Builder, name string) *ir.Op {
	fn := b.MakeFunc(emptySpan(), name, ir.Func(ir.Int()), ir.LinkageExternal)
	fn.AddEntryBlock(nil)
	return fn
}

func TestSpliceHoistsNestedTrailingScopes(t *testing.T) {
	m := ir.NewModule("m")
	b := ir.NewBuilder(m)
	fn := newFunc(b, "f")

	entry := fn.LastBlock()
	b.SetInsertionPointToStart(entry)
	outer := b.MakeScope(emptySpan())
	b.SetInsertionPointToStart(outer.LastBlock())
	inner := b.MakeScope(emptySpan())
	b.SetInsertionPointToStart(inner.LastBlock())
	ret := b.MakeReturn(emptySpan(), b.MakeConstant(emptySpan(), ir.Int(), 0).Result())

	if err := (spliceScopes{}).RunOnOp(fn); err != nil {
		t.Fatalf("splice: %v", err)
	}
	if entry.Len() != 2 {
		t.Fatalf("expected the constant and return hoisted into the entry block, got %d ops", entry.Len())
	}
	if entry.LastOp() != ret {
		t.Fatalf("the return should now terminate the entry block")
	}
}

func TestSpliceLeavesNonTrailingScopesInPlace(t *testing.T) {
	m := ir.NewModule("m")
	b := ir.NewBuilder(m)
	fn := newFunc(b, "f")

	entry := fn.LastBlock()
	b.SetInsertionPointToStart(entry)
	scope := b.MakeScope(emptySpan())
	b.MakeUnreachable(emptySpan())
	b.SetInsertionPointToStart(scope.LastBlock())
	b.MakeConstant(emptySpan(), ir.Int(), 1)

	if err := (spliceScopes{}).RunOnOp(fn); err != nil {
		t.Fatalf("splice: %v", err)
	}
	if entry.Len() != 2 || entry.Ops[0].Kind != ir.OpScope {
		t.Fatalf("a scope that is not the trailing op must stay, got %d ops", entry.Len())
	}
}

func TestDeadCodeTrimsPastTerminator(t *testing.T) {
	m := ir.NewModule("m")
	b := ir.NewBuilder(m)
	fn := newFunc(b, "f")

	entry := fn.LastBlock()
	b.SetInsertionPointToStart(entry)
	b.MakeReturn(emptySpan(), b.MakeConstant(emptySpan(), ir.Int(), 0).Result())
	b.MakeUnreachable(emptySpan())
	b.MakeConstant(emptySpan(), ir.Int(), 9)

	if err := (deadCode{}).RunOnOp(fn); err != nil {
		t.Fatalf("dce: %v", err)
	}
	if entry.Len() != 2 || entry.LastOp().Kind != ir.OpReturn {
		t.Fatalf("ops past the first terminator must go, got %d ops ending in %s",
			entry.Len(), entry.LastOp().Kind)
	}
}

func TestLowerTypeDefsRewritesAndErases(t *testing.T) {
	m := ir.NewModule("m")
	b := ir.NewBuilder(m)
	td := b.MakeTypeDef(emptySpan(), "word", ir.Int())
	alias := b.MakeTypeDef(emptySpan(), "word2", ir.Named("word", td))
	g := b.MakeVarDecl(emptySpan(), "g", ir.Pointer(ir.Named("word2", alias)), false)

	if err := (lowerTypeDefs{}).Run(m); err != nil {
		t.Fatalf("lower typedefs: %v", err)
	}
	if g.Type.Kind != ir.TyPointer || g.Type.Elem.Kind != ir.TyInt {
		t.Fatalf("alias chains should resolve to the underlying type, got %s", g.Type)
	}
	if m.Find("word") != nil || m.Find("word2") != nil {
		t.Fatalf("alias declarations should be erased from the module")
	}
	if len(m.Top.Ops) != 1 {
		t.Fatalf("only the variable should remain, got %d ops", len(m.Top.Ops))
	}
}

func TestSimplifyPipelineSchedulesEachPassOnce(t *testing.T) {
	p := pipeline.New()
	p.Schedule(Simplify())

	if p.Len() != 3 {
		t.Fatalf("expected splice, dead-code, and lower-typedefs, got %d: %v", p.Len(), p.Names())
	}
	names := p.Names()
	want := []string{"splice-trailing-scopes", "dead-code", "lower-typedefs"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("unexpected schedule %v, want %v", names, want)
		}
	}

	// Scheduling the stock pipeline again adds nothing.
	p.Schedule(Simplify())
	if p.Len() != 3 {
		t.Fatalf("rescheduling must not duplicate work, got %d passes", p.Len())
	}
}
