package codegen

import (
	"fmt"

	"undertow/internal/ast"
	"undertow/internal/ir"
)

// lowerType converts a declared type into its IR counterpart. Named
// references resolve against the tables; a name whose declaration was
// never seen before is materialized on the spot, which for aggregates
// yields an incomplete placeholder that a later definition patches.
func (v *Visitor) lowerType(t *ast.Type) *ir.Type {
	if t == nil {
		return ir.Void()
	}
	switch t.Kind {
	case ast.TypeVoid:
		return ir.Void()
	case ast.TypeInt:
		return ir.Int()
	case ast.TypeFloat:
		return ir.Float()
	case ast.TypeBool:
		return ir.Bool()
	case ast.TypePointer:
		return ir.Pointer(v.lowerType(t.Elem))
	case ast.TypeArray:
		return ir.Array(v.lowerType(t.Elem), t.Len)
	case ast.TypeFunc:
		params := make([]*ir.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = v.lowerType(p)
		}
		return ir.Func(v.lowerType(t.Result), params...)
	case ast.TypeNamed:
		return v.lowerNamedType(t)
	default:
		panic(fmt.Sprintf("unknown type kind %d", t.Kind))
	}
}

func (v *Visitor) lowerNamedType(t *ast.Type) *ir.Type {
	d := t.NamedDecl()
	if d == nil {
		// Unresolved reference; keep the name, lose the symbol.
		return ir.Named(t.Name, nil)
	}
	switch d.Kind {
	case ast.DeclRecord, ast.DeclEnum:
		if sym, ok := v.ctx.tagIndex[d.Canonical()]; ok {
			return ir.Named(t.Name, sym)
		}
		return ir.Named(t.Name, v.Visit(d))
	case ast.DeclTypedef:
		if sym, ok := v.ctx.typeDefs.Lookup(d); ok {
			return ir.Named(t.Name, sym)
		}
		return ir.Named(t.Name, v.Visit(d))
	default:
		panic(fmt.Sprintf("named type %q resolves to a %s declaration", t.Name, d.Kind))
	}
}

// lowerFunctionType lowers a function declarator's signature.
func (v *Visitor) lowerFunctionType(d *ast.Decl) *ir.Type {
	if d.Type == nil || d.Type.Kind != ast.TypeFunc {
		unimplemented("function %q with incomplete signature", d.Name)
	}
	pop := v.ctx.PushPrototypeScope()
	defer pop()
	return v.lowerType(d.Type)
}
