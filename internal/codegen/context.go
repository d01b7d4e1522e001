package codegen

import (
	"fmt"

	"undertow/internal/ast"
	"undertow/internal/diag"
	"undertow/internal/ir"
	"undertow/internal/source"
)

// Context carries all state shared by declaration lowering within one
// translation unit: the module under construction, the builder with its
// insertion point, scoped symbol tables keyed by declaration node, the
// deferred emission queues, and the diagnostics sink.
type Context struct {
	Module   *ir.Module
	Builder  *ir.Builder
	Reporter diag.Reporter
	Mangler  *Mangler

	// Module-lifetime symbols keyed by mangled name.
	functions map[string]*ir.Op

	// Function symbols keyed by declaration node. Repeat visits of the
	// same node short-circuit here before any definition bookkeeping.
	funcSyms map[*ast.Decl]*ir.Op

	// Declarations queued for possible later emission. A mangled name
	// sits in deferred until some use demands its definition, at which
	// point it moves to toEmit exactly once.
	deferred map[string]*ast.Decl
	toEmit   []*ast.Decl

	// Conflicting definitions already diagnosed, keyed by the
	// representative declaration of the clashing name.
	diagnosedConflicts map[*ast.Decl]struct{}

	// Named aggregate and enum declarations with a known type symbol,
	// keyed by canonical declaration.
	tagIndex map[*ast.Decl]*ir.Op

	vars       *scopedTable[*ast.Decl, *ir.Value]
	labels     *scopedTable[*ast.Decl, *ir.Op]
	typeDecls  *scopedTable[*ast.Decl, *ir.Op]
	typeDefs   *scopedTable[*ast.Decl, *ir.Op]
	enumDecls  *scopedTable[*ast.Decl, *ir.Op]
	enumConsts *scopedTable[*ast.Decl, *ir.Op]
}

// NewContext builds a lowering context around a fresh module. The base
// scope of every table is the module scope.
func NewContext(moduleName string, reporter diag.Reporter) *Context {
	mod := ir.NewModule(moduleName)
	return &Context{
		Module:             mod,
		Builder:            ir.NewBuilder(mod),
		Reporter:           reporter,
		Mangler:            NewMangler(),
		functions:          make(map[string]*ir.Op),
		funcSyms:           make(map[*ast.Decl]*ir.Op),
		deferred:           make(map[string]*ast.Decl),
		diagnosedConflicts: make(map[*ast.Decl]struct{}),
		tagIndex:           make(map[*ast.Decl]*ir.Op),
		vars:               newScopedTable[*ast.Decl, *ir.Value](),
		labels:             newScopedTable[*ast.Decl, *ir.Op](),
		typeDecls:          newScopedTable[*ast.Decl, *ir.Op](),
		typeDefs:           newScopedTable[*ast.Decl, *ir.Op](),
		enumDecls:          newScopedTable[*ast.Decl, *ir.Op](),
		enumConsts:         newScopedTable[*ast.Decl, *ir.Op](),
	}
}

// PushFunctionScope opens the scope of a function definition. Labels
// live here; they are visible in the whole body regardless of nesting.
func (c *Context) PushFunctionScope() func() {
	p := c.pushTables(c.enumDecls, c.typeDecls, c.typeDefs, c.vars, c.labels)
	return p.Pop
}

// PushBlockScope opens a compound-statement scope.
func (c *Context) PushBlockScope() func() {
	p := c.pushTables(c.enumDecls, c.typeDecls, c.typeDefs, c.vars)
	return p.Pop
}

// PushPrototypeScope opens the scope of a function declarator, where
// parameter names and tag types declared in the parameter list live.
func (c *Context) PushPrototypeScope() func() {
	p := c.pushTables(c.enumDecls, c.typeDecls, c.vars)
	return p.Pop
}

// PushMembersScope opens the scope of an aggregate body.
func (c *Context) PushMembersScope() func() {
	p := c.pushTables(c.enumConsts, c.vars)
	return p.Pop
}

type table interface {
	push()
	pop()
}

func (c *Context) pushTables(tables ...table) popper {
	var p popper
	for _, t := range tables {
		t.push()
		p = append(p, t.pop)
	}
	return p
}

// LookupFunction returns the function symbol registered under the given
// mangled name, if any.
func (c *Context) LookupFunction(mangled string) *ir.Op {
	return c.functions[mangled]
}

type emitKind struct {
	forDefinition bool
	deferred      bool
}

var (
	// A plain reference to the symbol. Never moves deferred work.
	notForDefinition = emitKind{}
	// The definition itself is being lowered right now.
	forDefinition = emitKind{forDefinition: true}
	// A use that demands the definition be emitted eventually.
	deferredEmit = emitKind{deferred: true}
)

// GetOrCreateFunction resolves a mangled name to its function symbol,
// creating a bodyless header on first sight. Materializing the same
// name twice returns the identical symbol.
//
// When emit asks for a definition and the existing symbol already has a
// body, the clash is reported once per clashing name and the existing
// symbol is returned unchanged. When emit is a demanding use, a queued
// deferred declaration for the name moves to the to-emit list.
func (c *Context) GetOrCreateFunction(span source.Span, mangled string, ty *ir.Type, d *ast.Decl, emit emitKind) *ir.Op {
	if d.Flags&ast.DeclFlagMultiVersion != 0 {
		unimplemented("multiversioned function %q", mangled)
	}
	if emit.deferred {
		defer c.demandDeferred(mangled)
	}

	if fn := c.functions[mangled]; fn != nil {
		if fn.Kind != ir.OpFunc {
			panic(fmt.Sprintf("symbol %q is not a function", mangled))
		}
		if emit.forDefinition && !fn.IsDeclaration() {
			c.reportConflict(mangled, d)
		}
		if !fn.Type.Equal(ty) {
			panic(fmt.Sprintf("conflicting types for function %q", mangled))
		}
		return fn
	}

	linkage := ir.LinkageExternal
	if d.Canonical().Storage == ast.StorageStatic {
		linkage = ir.LinkageInternal
	}
	fn := c.Builder.MakeFunc(span, mangled, ty, linkage)
	fn.Visibility = ir.VisibilityPrivate
	c.functions[mangled] = fn
	return fn
}

func (c *Context) reportConflict(mangled string, d *ast.Decl) {
	rep := c.Mangler.Representative(mangled)
	if rep == nil {
		rep = d.Canonical()
	}
	if _, done := c.diagnosedConflicts[rep]; done {
		return
	}
	c.diagnosedConflicts[rep] = struct{}{}
	diag.ReportError(c.Reporter, diag.LowDuplicateDefinition, d.Span,
		fmt.Sprintf("redefinition of %q", mangled)).
		WithNote(rep.Span, "previously defined here").
		Emit()
}

// DeferDecl queues a declaration for emission once some use demands it.
// Queueing the same name again keeps the first entry.
func (c *Context) DeferDecl(d *ast.Decl) {
	mangled := c.Mangler.Mangle(d)
	if _, ok := c.deferred[mangled]; !ok {
		c.deferred[mangled] = d
	}
}

func (c *Context) demandDeferred(mangled string) {
	if d, ok := c.deferred[mangled]; ok {
		c.toEmit = append(c.toEmit, d)
		delete(c.deferred, mangled)
	}
}

// TakeToEmit drains the to-emit list. Emitting its entries may demand
// further deferred declarations, so callers loop until it comes back
// empty. Whatever remains in the deferred queue at that point was never
// used and is dropped.
func (c *Context) TakeToEmit() []*ast.Decl {
	out := c.toEmit
	c.toEmit = nil
	return out
}

// HasPendingToEmit reports whether demanded declarations await emission.
func (c *Context) HasPendingToEmit() bool {
	return len(c.toEmit) > 0
}
