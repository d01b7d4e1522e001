package codegen

import (
	"testing"

	"undertow/internal/ast"
	"undertow/internal/diag"
	"undertow/internal/ir"
	"undertow/internal/source"
)

type testEnv struct {
	bag *diag.Bag
	ctx *Context
	v   *Visitor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	bag := diag.NewBag(64)
	ctx := NewContext("test", diag.BagReporter{Bag: bag})
	return &testEnv{bag: bag, ctx: ctx, v: NewVisitor(ctx)}
}

func sp(start, end uint32) source.Span {
	return source.Span{Start: start, End: end}
}

func funcDecl(name string, result *ast.Type, body *ast.Stmt, params ...*ast.Decl) *ast.Decl {
	var paramTys []*ast.Type
	for _, p := range params {
		paramTys = append(paramTys, p.Type)
	}
	return &ast.Decl{
		Kind:     ast.DeclFunction,
		Name:     name,
		Type:     ast.FuncType(result, paramTys...),
		Params:   params,
		Body:     body,
		Complete: body != nil,
	}
}

func param(name string, ty *ast.Type) *ast.Decl {
	return &ast.Decl{Kind: ast.DeclParam, Name: name, Type: ty}
}

func compound(stmts ...*ast.Stmt) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtCompound, Stmts: stmts}
}

func retStmt(e *ast.Expr) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtReturn, Expr: e}
}

func intLit(v int64) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprIntLit, Value: v}
}

func ref(d *ast.Decl) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprRef, Ref: d}
}

func call(fn *ast.Decl, args ...*ast.Expr) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprCall, Fn: ref(fn), Args: args}
}

func TestVisitFunctionIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	d := funcDecl("f", ast.IntType(), compound(retStmt(intLit(1))))

	first := env.v.Visit(d)
	second := env.v.Visit(d)

	if first == nil || first != second {
		t.Fatalf("expected both visits to return the same symbol, got %p and %p", first, second)
	}
	if env.bag.Len() != 0 {
		t.Fatalf("expected no diagnostics, got %d", env.bag.Len())
	}
	if got := len(env.ctx.Module.Top.Ops); got != 1 {
		t.Fatalf("expected one top-level op, got %d", got)
	}
}

func TestVisitDeclarationThenDefinitionSharesSymbol(t *testing.T) {
	env := newTestEnv(t)
	proto := funcDecl("f", ast.IntType(), nil)
	def := funcDecl("f", ast.IntType(), compound(retStmt(intLit(0))))
	def.Prev = proto

	headerOp := env.v.Visit(proto)
	if !headerOp.IsDeclaration() {
		t.Fatalf("prototype should lower to a bodyless header")
	}
	defOp := env.v.Visit(def)
	if defOp != headerOp {
		t.Fatalf("definition should reuse the prototype symbol")
	}
	if defOp.IsDeclaration() {
		t.Fatalf("definition visit should have emitted the body")
	}
}

func TestDuplicateDefinitionReportedOncePerName(t *testing.T) {
	env := newTestEnv(t)
	body := func() *ast.Stmt { return compound(retStmt(intLit(0))) }
	first := funcDecl("f", ast.IntType(), body())
	second := funcDecl("f", ast.IntType(), body())
	third := funcDecl("f", ast.IntType(), body())

	env.v.Visit(first)
	env.v.Visit(second)
	if env.bag.Len() != 1 {
		t.Fatalf("expected exactly one diagnostic after the clash, got %d", env.bag.Len())
	}
	d := env.bag.Items()[0]
	if d.Code != diag.LowDuplicateDefinition {
		t.Fatalf("unexpected code %s", d.Code)
	}
	if len(d.Notes) != 1 {
		t.Fatalf("expected a note pointing at the previous definition")
	}

	// Repeats of the same clash and further clashes against the same
	// name stay silent.
	env.v.Visit(second)
	env.v.Visit(third)
	if env.bag.Len() != 1 {
		t.Fatalf("expected duplicate reports to be suppressed, got %d", env.bag.Len())
	}
	if got := len(env.ctx.Module.Funcs()); got != 1 {
		t.Fatalf("expected a single function symbol, got %d", got)
	}
}

func TestSelfReferentialRecord(t *testing.T) {
	env := newTestEnv(t)
	node := &ast.Decl{Kind: ast.DeclRecord, Name: "Node", Complete: true}
	next := &ast.Decl{
		Kind: ast.DeclField,
		Name: "next",
		Type: ast.PointerTo(ast.NamedType("Node", node)),
	}
	node.Children = []*ast.Decl{next}

	op := env.v.Visit(node)
	if op == nil || op.Kind != ir.OpStructDecl {
		t.Fatalf("expected a struct symbol, got %v", op)
	}
	fields := op.LastBlock()
	if fields == nil || fields.Len() != 1 {
		t.Fatalf("expected one field op")
	}
	fieldTy := fields.Ops[0].Type
	if fieldTy.Kind != ir.TyPointer || fieldTy.Elem.Sym != op {
		t.Fatalf("field type should point back at the enclosing record symbol")
	}
	if env.bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %d", env.bag.Len())
	}
}

func TestForwardRecordPatchedInPlace(t *testing.T) {
	env := newTestEnv(t)
	fwd := &ast.Decl{Kind: ast.DeclRecord, Name: "Box"}
	def := &ast.Decl{Kind: ast.DeclRecord, Name: "Box", Complete: true, Prev: fwd}
	def.Children = []*ast.Decl{{Kind: ast.DeclField, Name: "v", Type: ast.IntType()}}

	placeholder := env.v.Visit(fwd)
	if placeholder.Kind != ir.OpTypeDecl {
		t.Fatalf("forward declaration should lower to a type placeholder")
	}
	// A type built against the placeholder while the record is still
	// incomplete.
	ptr := env.v.lowerType(ast.PointerTo(ast.NamedType("Box", fwd)))

	patched := env.v.Visit(def)
	if patched != placeholder {
		t.Fatalf("definition should patch the placeholder, not mint a new symbol")
	}
	if patched.Kind != ir.OpStructDecl {
		t.Fatalf("placeholder kind should flip to struct, got %s", patched.Kind)
	}
	if patched.LastBlock().Len() != 1 {
		t.Fatalf("patched symbol should carry the fields")
	}
	if ptr.Elem.Sym != patched {
		t.Fatalf("types built before the definition should now see the definition")
	}
	if env.v.Visit(def) != patched {
		t.Fatalf("revisiting the definition should stay memoized")
	}
}

func TestForwardEnumPatchedInPlace(t *testing.T) {
	env := newTestEnv(t)
	fwd := &ast.Decl{Kind: ast.DeclEnum, Name: "Color"}
	def := &ast.Decl{Kind: ast.DeclEnum, Name: "Color", Complete: true, Prev: fwd, Type: ast.IntType()}
	def.Children = []*ast.Decl{
		{Kind: ast.DeclEnumConstant, Name: "Red", Type: ast.NamedType("Color", def), Value: 0},
		{Kind: ast.DeclEnumConstant, Name: "Green", Type: ast.NamedType("Color", def), Value: 1},
	}

	placeholder := env.v.Visit(fwd)
	if placeholder.Type != nil || len(placeholder.Regions) != 0 {
		t.Fatalf("incomplete enum should have no underlying type and no constants")
	}
	patched := env.v.Visit(def)
	if patched != placeholder {
		t.Fatalf("definition should complete the forward symbol in place")
	}
	if patched.Type == nil || patched.Type.Kind != ir.TyInt {
		t.Fatalf("patched enum should carry its underlying type")
	}
	if patched.LastBlock().Len() != 2 {
		t.Fatalf("patched enum should carry both constants, got %d", patched.LastBlock().Len())
	}
}

func TestDeferredDefinitionMovesOnceOnDemand(t *testing.T) {
	env := newTestEnv(t)
	helper := funcDecl("helper", ast.IntType(), compound(retStmt(intLit(7))))
	helper.Storage = ast.StorageStatic
	env.ctx.DeferDecl(helper)

	if env.ctx.HasPendingToEmit() {
		t.Fatalf("queueing must not demand emission")
	}

	caller := funcDecl("caller", ast.IntType(), compound(retStmt(call(helper))))
	env.v.Visit(caller)

	if !env.ctx.HasPendingToEmit() {
		t.Fatalf("a call should move the deferred definition to the to-emit list")
	}
	batch := env.ctx.TakeToEmit()
	if len(batch) != 1 || batch[0] != helper {
		t.Fatalf("expected exactly the helper in the to-emit batch")
	}

	// A second demanding use finds the queue entry gone.
	caller2 := funcDecl("caller2", ast.IntType(), compound(retStmt(call(helper))))
	env.v.Visit(caller2)
	if env.ctx.HasPendingToEmit() {
		t.Fatalf("the deferred entry must move at most once")
	}
}

func TestUnusedDeferredDeclStaysQueued(t *testing.T) {
	env := newTestEnv(t)
	helper := funcDecl("helper", ast.IntType(), compound(retStmt(intLit(7))))
	helper.Storage = ast.StorageStatic
	env.ctx.DeferDecl(helper)

	other := funcDecl("other", ast.IntType(), compound(retStmt(intLit(1))))
	env.v.Visit(other)

	if env.ctx.HasPendingToEmit() {
		t.Fatalf("nothing demanded the helper, so nothing should be pending")
	}
	if env.ctx.Module.Find("helper") != nil {
		t.Fatalf("the unused helper should not have been materialized")
	}
}

func TestAddressOfDefersWithoutDemanding(t *testing.T) {
	env := newTestEnv(t)
	helper := funcDecl("helper", ast.IntType(), compound(retStmt(intLit(7))))

	taker := funcDecl("taker", ast.IntType(), compound(
		&ast.Stmt{Kind: ast.StmtExpr, Expr: &ast.Expr{Kind: ast.ExprAddrOf, Inner: ref(helper)}},
		retStmt(intLit(0)),
	))
	env.v.Visit(taker)

	fn := env.ctx.LookupFunction("helper")
	if fn == nil || !fn.IsDeclaration() {
		t.Fatalf("address-of should create a bodyless header")
	}
	if env.ctx.HasPendingToEmit() {
		t.Fatalf("address-of must not demand the definition")
	}

	// A call is a real use and demands it.
	caller := funcDecl("caller", ast.IntType(), compound(retStmt(call(helper))))
	env.v.Visit(caller)
	if !env.ctx.HasPendingToEmit() {
		t.Fatalf("the call should demand the deferred definition")
	}
}

func TestMissingParameterReportsAndContinues(t *testing.T) {
	env := newTestEnv(t)
	stray := param("x", ast.IntType())
	d := funcDecl("f", ast.IntType(), compound(retStmt(ref(stray))))

	fn := env.v.Visit(d)
	if fn == nil || fn.IsDeclaration() {
		t.Fatalf("the function should still be materialized with a body")
	}
	if env.bag.Len() != 1 {
		t.Fatalf("expected exactly one diagnostic, got %d", env.bag.Len())
	}
	if env.bag.Items()[0].Code != diag.LowMissingParameter {
		t.Fatalf("unexpected code %s", env.bag.Items()[0].Code)
	}
}

func TestBoundParameterResolvesToEntryBlockArg(t *testing.T) {
	env := newTestEnv(t)
	p := param("x", ast.IntType())
	d := funcDecl("id", ast.IntType(), compound(retStmt(ref(p))), p)

	fn := env.v.Visit(d)
	entry := fn.LastBlock()
	if len(entry.Args) != 1 {
		t.Fatalf("expected one entry block argument, got %d", len(entry.Args))
	}
	scope := entry.Ops[0]
	if scope.Kind != ir.OpScope {
		t.Fatalf("body should lower to a scope, got %s", scope.Kind)
	}
	ret := scope.LastBlock().LastOp()
	if ret.Kind != ir.OpReturn || len(ret.Operands) != 1 || ret.Operands[0] != entry.Args[0] {
		t.Fatalf("return should yield the entry block argument")
	}
	if env.bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %d", env.bag.Len())
	}
}

func terminatorOf(t *testing.T, fn *ir.Op) *ir.Op {
	t.Helper()
	blk := fn.LastBlock()
	if blk == nil {
		t.Fatalf("function has no body")
	}
	op := blk.LastOp()
	for op != nil && op.Kind == ir.OpScope {
		op = op.LastBlock().LastOp()
	}
	return op
}

func TestTerminatorSynthesis(t *testing.T) {
	t.Run("void gets implicit return", func(t *testing.T) {
		env := newTestEnv(t)
		fn := env.v.Visit(funcDecl("f", ast.VoidType(), compound()))
		if got := terminatorOf(t, fn); got == nil || got.Kind != ir.OpImplicitReturn {
			t.Fatalf("expected an implicit return, got %v", got)
		}
	})

	t.Run("entry point returns zero", func(t *testing.T) {
		env := newTestEnv(t)
		d := funcDecl("main", ast.IntType(), compound())
		d.Flags |= ast.DeclFlagMain
		fn := env.v.Visit(d)
		term := terminatorOf(t, fn)
		if term == nil || term.Kind != ir.OpReturn {
			t.Fatalf("expected a return, got %v", term)
		}
		if len(term.Operands) != 1 || term.Operands[0].Def.Value != 0 {
			t.Fatalf("entry point should return the constant zero")
		}
	})

	t.Run("non-void falls into unreachable", func(t *testing.T) {
		env := newTestEnv(t)
		fn := env.v.Visit(funcDecl("f", ast.IntType(), compound()))
		if got := terminatorOf(t, fn); got == nil || got.Kind != ir.OpUnreachable {
			t.Fatalf("expected unreachable, got %v", got)
		}
	})

	t.Run("explicit return in trailing scope suppresses synthesis", func(t *testing.T) {
		env := newTestEnv(t)
		fn := env.v.Visit(funcDecl("f", ast.IntType(), compound(retStmt(intLit(3)))))
		scope := fn.LastBlock().LastOp()
		if scope.Kind != ir.OpScope {
			t.Fatalf("body should be a single scope")
		}
		body := scope.LastBlock()
		if body.Len() != 1 || body.LastOp().Kind != ir.OpReturn {
			t.Fatalf("expected only the explicit return, got %d ops ending in %s",
				body.Len(), body.LastOp().Kind)
		}
	})

	t.Run("nested sole scopes are descended", func(t *testing.T) {
		env := newTestEnv(t)
		fn := env.v.Visit(funcDecl("f", ast.IntType(), compound(compound(retStmt(intLit(3))))))
		if got := terminatorOf(t, fn); got == nil || got.Kind != ir.OpReturn {
			t.Fatalf("expected the nested explicit return to satisfy the check, got %v", got)
		}
	})
}

func TestLabelsDeclaredBeforeBody(t *testing.T) {
	env := newTestEnv(t)
	lbl := &ast.Decl{Kind: ast.DeclLabel, Name: "out"}
	d := funcDecl("f", ast.IntType(), compound(
		&ast.Stmt{Kind: ast.StmtLabel, Decl: lbl, Sub: retStmt(intLit(0))},
	))

	fn := env.v.Visit(d)
	entry := fn.LastBlock()
	// The declaration op sits in the entry block ahead of the body scope.
	if entry.Ops[0].Kind != ir.OpLabelDecl || entry.Ops[0].Name != "out" {
		t.Fatalf("expected the label declaration first, got %s", entry.Ops[0].Kind)
	}
	scope := entry.Ops[1]
	if scope.Kind != ir.OpScope {
		t.Fatalf("body should lower to a scope, got %s", scope.Kind)
	}
	if scope.LastBlock().Ops[0].Kind != ir.OpLabel {
		t.Fatalf("label use should open the body scope")
	}
}

func TestAttributesTranslatedWithExclusions(t *testing.T) {
	env := newTestEnv(t)
	d := funcDecl("f", ast.IntType(), nil)
	d.Attrs = []ast.Attr{
		{Name: "section", Value: ".hot"},
		{Name: "always_inline"},
		{Name: "", Value: "traced"},
	}

	fn := env.v.Visit(d)
	if got, ok := fn.Attrs.Get("section"); !ok || got != ".hot" {
		t.Fatalf("section attribute should survive translation")
	}
	if _, ok := fn.Attrs.Get("always_inline"); ok {
		t.Fatalf("excluded attributes must not surface")
	}
	if got, ok := fn.Attrs.Get("annotate"); !ok || got != "traced" {
		t.Fatalf("unnamed attributes map to annotate")
	}

	// Re-applying the same value is fine.
	env.v.Visit(d)
	if env.bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %d", env.bag.Len())
	}
}

func TestConflictingAttributeValuesPanic(t *testing.T) {
	env := newTestEnv(t)
	proto := funcDecl("f", ast.IntType(), nil)
	proto.Attrs = []ast.Attr{{Name: "section", Value: ".hot"}}
	redecl := funcDecl("f", ast.IntType(), nil)
	redecl.Prev = proto
	redecl.Attrs = []ast.Attr{{Name: "section", Value: ".cold"}}

	env.v.Visit(proto)
	defer func() {
		if recover() == nil {
			t.Fatalf("conflicting attribute values should panic")
		}
	}()
	env.v.Visit(redecl)
}

func TestMultiversionedFunctionIsUnimplemented(t *testing.T) {
	env := newTestEnv(t)
	d := funcDecl("f", ast.IntType(), nil)
	d.Flags |= ast.DeclFlagMultiVersion

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected an unimplemented panic")
		}
		if _, ok := r.(*UnimplementedError); !ok {
			t.Fatalf("expected *UnimplementedError, got %T", r)
		}
	}()
	env.v.Visit(d)
}

func TestVarInitializerMayReferenceItself(t *testing.T) {
	env := newTestEnv(t)
	v := &ast.Decl{Kind: ast.DeclVar, Name: "g", Type: ast.IntType()}
	v.Init = ref(v)

	op := env.v.Visit(v)
	if op == nil || op.Kind != ir.OpVarDecl {
		t.Fatalf("expected a variable symbol")
	}
	init := op.LastBlock()
	if init == nil {
		t.Fatalf("initialized variable should carry an initializer region")
	}
	if env.bag.Len() != 0 {
		t.Fatalf("self-reference should resolve without diagnostics, got %d", env.bag.Len())
	}
}

func TestTranslationUnitVisitsChildrenAtModuleScope(t *testing.T) {
	env := newTestEnv(t)
	tu := &ast.Decl{Kind: ast.DeclTranslationUnit, Children: []*ast.Decl{
		funcDecl("a", ast.IntType(), compound(retStmt(intLit(1)))),
		{Kind: ast.DeclVar, Name: "g", Type: ast.IntType()},
		{Kind: ast.DeclEmpty, Span: sp(0, 1)},
	}}

	env.v.Visit(tu)
	if got := len(env.ctx.Module.Top.Ops); got != 3 {
		t.Fatalf("expected three top-level ops, got %d", got)
	}
	if env.ctx.Module.Find("a") == nil || env.ctx.Module.Find("g") == nil {
		t.Fatalf("top-level symbols missing")
	}
}
