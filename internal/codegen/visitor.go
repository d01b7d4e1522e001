// Package codegen lowers declarations into the symbol ops of an IR
// module. Lowering is lazy and memoizing: every declaration node maps
// to at most one IR symbol, repeat visits return the cached symbol, and
// function bodies referenced only indirectly are held back until a real
// use demands them.
package codegen

import (
	"fmt"

	"undertow/internal/ast"
	"undertow/internal/ir"
)

// Visitor materializes declarations against a shared Context.
type Visitor struct {
	ctx *Context
}

func NewVisitor(ctx *Context) *Visitor {
	return &Visitor{ctx: ctx}
}

func (v *Visitor) Context() *Context { return v.ctx }

// Visit lowers one declaration and returns its IR symbol, or nil when
// the declaration produces none. Translated attributes are applied to
// the symbol after the kind-specific lowering ran.
func (v *Visitor) Visit(d *ast.Decl) *ir.Op {
	op := v.visit(d)
	if op != nil {
		v.applyDeclAttrs(d, op)
	}
	return op
}

func (v *Visitor) visit(d *ast.Decl) *ir.Op {
	switch d.Kind {
	case ast.DeclTranslationUnit:
		return v.visitTranslationUnit(d)
	case ast.DeclFunction:
		return v.visitFunction(d)
	case ast.DeclVar:
		return v.visitVar(d)
	case ast.DeclParam:
		return v.visitParam(d)
	case ast.DeclField:
		return v.visitField(d)
	case ast.DeclTypedef:
		return v.visitTypedef(d)
	case ast.DeclEnum:
		return v.visitEnum(d)
	case ast.DeclEnumConstant:
		return v.visitEnumConstant(d)
	case ast.DeclRecord:
		return v.visitRecord(d)
	case ast.DeclLabel:
		return v.visitLabel(d)
	case ast.DeclAccess:
		return v.visitAccess(d)
	case ast.DeclEmpty:
		return v.visitEmpty(d)
	default:
		panic(fmt.Sprintf("unknown declaration kind %d", d.Kind))
	}
}

func (v *Visitor) visitTranslationUnit(d *ast.Decl) *ir.Op {
	restore := v.ctx.Builder.Guard()
	defer restore()
	v.ctx.Builder.SetInsertionPointToModuleEnd()
	for _, child := range d.Children {
		v.Visit(child)
	}
	return nil
}

func (v *Visitor) visitLabel(d *ast.Decl) *ir.Op {
	if op, ok := v.ctx.labels.Lookup(d); ok {
		return op
	}
	op := v.ctx.Builder.MakeLabelDecl(d.Span, d.Name)
	v.ctx.labels.Insert(d, op)
	return op
}

func (v *Visitor) visitAccess(d *ast.Decl) *ir.Op {
	return v.ctx.Builder.MakeAccessSpec(d.Span, d.Access.String())
}

func (v *Visitor) visitEmpty(d *ast.Decl) *ir.Op {
	return v.ctx.Builder.MakeEmptyDecl(d.Span)
}

// Attributes whose effect is already folded into the symbol itself and
// must not surface as IR attributes.
var excludedAttrs = map[string]struct{}{
	"always_inline": {},
	"const":         {},
	"used":          {},
	"unused":        {},
	"no_throw":      {},
	"non_null":      {},
}

func (v *Visitor) applyDeclAttrs(d *ast.Decl, op *ir.Op) {
	for _, a := range d.Attrs {
		if _, skip := excludedAttrs[a.Name]; skip {
			continue
		}
		name := a.Name
		if name == "" {
			name = "annotate"
		}
		if prev, ok := op.Attrs.Get(name); ok {
			if prev != a.Value {
				panic(fmt.Sprintf("conflicting values for attribute %q on %q", name, d.Name))
			}
			continue
		}
		op.Attrs.Set(name, a.Value)
	}
}
