package codegen

import (
	"fmt"

	"undertow/internal/ast"
	"undertow/internal/diag"
	"undertow/internal/ir"
)

func (v *Visitor) visitFunction(d *ast.Decl) *ir.Op {
	if fn, ok := v.ctx.funcSyms[d]; ok {
		return fn
	}
	mangled := v.ctx.Mangler.Mangle(d)
	ty := v.lowerFunctionType(d)

	emit := notForDefinition
	if d.Complete {
		emit = forDefinition
	}
	fn := v.ctx.GetOrCreateFunction(d.Span, mangled, ty, d, emit)
	v.ctx.funcSyms[d] = fn

	if !d.Complete {
		return fn
	}
	fn.Visibility = visibilityFor(fn.Linkage)
	if fn.IsDeclaration() {
		v.emitFunctionBody(d, fn)
	}
	return fn
}

func visibilityFor(l ir.Linkage) ir.Visibility {
	if l == ir.LinkageInternal {
		return ir.VisibilityPrivate
	}
	return ir.VisibilityPublic
}

// buildFunctionPrototype resolves a referenced function to its symbol,
// creating a bodyless header if none exists yet. The reference counts
// as a demanding use: a deferred definition under this name moves to
// the to-emit list.
func (v *Visitor) buildFunctionPrototype(d *ast.Decl) *ir.Op {
	mangled := v.ctx.Mangler.Mangle(d)
	return v.ctx.GetOrCreateFunction(d.Span, mangled, v.lowerFunctionType(d), d, deferredEmit)
}

// functionHeader is like buildFunctionPrototype but does not demand the
// definition. Taking a function's address names it without using it.
func (v *Visitor) functionHeader(d *ast.Decl) *ir.Op {
	mangled := v.ctx.Mangler.Mangle(d)
	return v.ctx.GetOrCreateFunction(d.Span, mangled, v.lowerFunctionType(d), d, notForDefinition)
}

// emitFunctionBody fills in a bodyless function header. The emission
// order is fixed: entry block with one argument per parameter, the
// parameters bound to those arguments, label declarations for the whole
// body, then the statements. Afterwards a terminator is synthesized if
// control can fall off the end.
func (v *Visitor) emitFunctionBody(d *ast.Decl, fn *ir.Op) {
	pop := v.ctx.PushFunctionScope()
	defer pop()
	restore := v.ctx.Builder.Guard()
	defer restore()

	entry := fn.AddEntryBlock(fn.Type.Params)
	v.ctx.Builder.SetInsertionPointToStart(entry)

	for i, p := range d.Params {
		if arg := entry.Arg(i); arg != nil {
			v.ctx.vars.Insert(p, arg)
		}
	}
	if d.Body != nil {
		// Labels are visible before their statement within a body.
		for _, lbl := range d.Body.CollectLabels(nil) {
			v.Visit(lbl)
		}
		v.visitStmt(d.Body)
	}

	last := fn.LastBlock()
	v.ctx.Builder.SetInsertionPointToEnd(last)
	lastOp := last.LastOp()

	// A body that is one big scope hides its real last operation one
	// region down. Descend through sole trailing scopes before deciding
	// whether a terminator is missing.
	for lastOp != nil && lastOp.Kind == ir.OpScope {
		lastOp = v.enterTrailingScope(lastOp)
	}
	if last.Len() == 0 || lastOp == nil || !lastOp.IsTerminator() {
		v.emitFunctionTerminator(d, fn)
	}
}

// enterTrailingScope descends into a scope that is the only operation
// of the only block of its parent region, moving the insertion point to
// the end of the scope body. Returns the scope body's last operation,
// or nil when the scope does not qualify.
func (v *Visitor) enterTrailingScope(scope *ir.Op) *ir.Op {
	parent := scope.ParentBlock()
	if parent == nil || !parent.Parent.HasOneBlock() || parent.Len() != 1 {
		return nil
	}
	body := scope.LastBlock()
	if body == nil {
		return nil
	}
	v.ctx.Builder.SetInsertionPointToEnd(body)
	return body.LastOp()
}

// emitFunctionTerminator synthesizes the fall-off-the-end terminator at
// the current insertion point. Void functions return implicitly, the
// program entry returns zero, and everything else is unreachable.
func (v *Visitor) emitFunctionTerminator(d *ast.Decl, fn *ir.Op) {
	b := v.ctx.Builder
	result := fn.Type.Result
	switch {
	case result.IsVoid():
		val := b.MakeConstant(fn.Span, ir.Void(), 0).Result()
		b.MakeImplicitReturn(fn.Span, val)
	case isEntryPoint(d):
		zero := b.MakeConstant(fn.Span, result, 0).Result()
		b.MakeReturn(fn.Span, zero)
	default:
		b.MakeUnreachable(fn.Span)
	}
}

func isEntryPoint(d *ast.Decl) bool {
	return d.Flags&ast.DeclFlagMain != 0 || d.Name == "main"
}

func (v *Visitor) visitVar(d *ast.Decl) *ir.Op {
	if val, ok := v.ctx.vars.Lookup(d); ok {
		return val.Def
	}
	op := v.ctx.Builder.MakeVarDecl(d.Span, d.Name, v.lowerType(d.Type), d.Init != nil)
	if d.Storage != ast.StorageNone && d.Storage != ast.StorageAuto {
		op.Storage = d.Storage.String()
	}
	v.ctx.vars.Insert(d, op.Result())
	// The initializer is lowered after the variable is declared so that
	// a self-referential initializer resolves.
	if d.Init != nil {
		restore := v.ctx.Builder.Guard()
		defer restore()
		v.ctx.Builder.SetInsertionPointToStart(op.LastBlock())
		v.lowerExpr(d.Init)
	}
	return op
}

func (v *Visitor) visitParam(d *ast.Decl) *ir.Op {
	if val, ok := v.ctx.vars.Lookup(d); ok {
		return val.Def
	}
	diag.ReportError(v.ctx.Reporter, diag.LowMissingParameter, d.Span,
		fmt.Sprintf("parameter %q has no binding in the current scope", d.Name)).Emit()
	return nil
}

func (v *Visitor) visitStmt(s *ast.Stmt) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtCompound:
		v.visitCompound(s)
	case ast.StmtReturn:
		v.ctx.Builder.MakeReturn(s.Span, v.lowerExpr(s.Expr))
	case ast.StmtExpr:
		v.lowerExpr(s.Expr)
	case ast.StmtDecl:
		v.Visit(s.Decl)
	case ast.StmtLabel:
		v.Visit(s.Decl)
		v.ctx.Builder.MakeLabel(s.Span, s.Decl.Name)
		v.visitStmt(s.Sub)
	default:
		panic(fmt.Sprintf("unknown statement kind %d", s.Kind))
	}
}

func (v *Visitor) visitCompound(s *ast.Stmt) {
	scope := v.ctx.Builder.MakeScope(s.Span)
	pop := v.ctx.PushBlockScope()
	defer pop()
	restore := v.ctx.Builder.Guard()
	defer restore()
	v.ctx.Builder.SetInsertionPointToStart(scope.LastBlock())
	for _, child := range s.Stmts {
		v.visitStmt(child)
	}
}

func (v *Visitor) lowerExpr(e *ast.Expr) *ir.Value {
	if e == nil {
		return nil
	}
	switch e.Kind {
	case ast.ExprIntLit:
		return v.ctx.Builder.MakeConstant(e.Span, ir.Int(), e.Value).Result()
	case ast.ExprRef:
		return v.lowerRef(e)
	case ast.ExprCall:
		return v.lowerCall(e)
	case ast.ExprAddrOf:
		return v.lowerAddrOf(e)
	default:
		panic(fmt.Sprintf("unknown expression kind %d", e.Kind))
	}
}

func (v *Visitor) lowerRef(e *ast.Expr) *ir.Value {
	d := e.Ref
	switch d.Kind {
	case ast.DeclParam:
		if val, ok := v.ctx.vars.Lookup(d); ok {
			return val
		}
		v.visitParam(d)
		return nil
	case ast.DeclVar:
		if val, ok := v.ctx.vars.Lookup(d); ok {
			return val
		}
		if op := v.Visit(d); op != nil {
			return op.Result()
		}
		return nil
	case ast.DeclEnumConstant:
		if op, ok := v.ctx.enumConsts.Lookup(d); ok {
			return op.Result()
		}
		return v.Visit(d).Result()
	case ast.DeclFunction:
		fn := v.buildFunctionPrototype(d)
		return v.ctx.Builder.MakeFuncRef(e.Span, fn).Result()
	default:
		panic(fmt.Sprintf("reference to a %s declaration", d.Kind))
	}
}

func (v *Visitor) lowerCall(e *ast.Expr) *ir.Value {
	callee := e.Fn
	if callee == nil || callee.Kind != ast.ExprRef || callee.Ref.Kind != ast.DeclFunction {
		unimplemented("indirect call")
	}
	fn := v.buildFunctionPrototype(callee.Ref)
	args := make([]*ir.Value, 0, len(e.Args))
	for _, a := range e.Args {
		args = append(args, v.lowerExpr(a))
	}
	return v.ctx.Builder.MakeCall(e.Span, fn.Name, fn.Type.Result, args...).Result()
}

// lowerAddrOf names a function without using it. The header is created
// but the definition is not demanded; if a definition exists and was
// not emitted yet it goes on the deferred queue instead.
func (v *Visitor) lowerAddrOf(e *ast.Expr) *ir.Value {
	inner := e.Inner
	if inner != nil && inner.Kind == ast.ExprRef && inner.Ref.Kind == ast.DeclFunction {
		d := inner.Ref
		fn := v.functionHeader(d)
		if def := d.Definition(); def != nil && fn.IsDeclaration() {
			v.ctx.DeferDecl(def)
		}
		return v.ctx.Builder.MakeFuncRef(e.Span, fn).Result()
	}
	return v.lowerExpr(inner)
}
