package codegen

import (
	"fmt"

	"undertow/internal/ast"
	"undertow/internal/ir"
)

func (v *Visitor) visitTypedef(d *ast.Decl) *ir.Op {
	if op, ok := v.ctx.typeDefs.Lookup(d); ok {
		return op
	}
	// A typedef of an aggregate defined inline carries the definition in
	// its underlying type; materialize the tag first so the alias can
	// point at its symbol.
	if tag := namedTagBehind(d.Type); tag != nil {
		if _, known := v.ctx.tagIndex[tag.Canonical()]; !known {
			v.Visit(tag)
		}
	}
	op := v.ctx.Builder.MakeTypeDef(d.Span, d.Name, v.lowerType(d.Type))
	v.ctx.typeDefs.Insert(d, op)
	return op
}

// namedTagBehind peels pointers and arrays off a type expression and
// returns the record or enum declaration it bottoms out at, if any.
func namedTagBehind(t *ast.Type) *ast.Decl {
	for t != nil {
		switch t.Kind {
		case ast.TypePointer, ast.TypeArray:
			t = t.Elem
		case ast.TypeNamed:
			d := t.NamedDecl()
			if d != nil && (d.Kind == ast.DeclRecord || d.Kind == ast.DeclEnum) {
				return d
			}
			return nil
		default:
			return nil
		}
	}
	return nil
}

func (v *Visitor) visitEnum(d *ast.Decl) *ir.Op {
	if !d.IsFirstDecl() {
		if op := v.completePriorEnum(d); op != nil {
			return op
		}
	}
	if op, ok := v.ctx.enumDecls.Lookup(d); ok {
		return op
	}
	if !d.Complete {
		op := v.ctx.Builder.MakeEnumDecl(d.Span, d.Name, nil, false)
		v.declareTag(d, op, v.ctx.enumDecls)
		return op
	}
	op := v.ctx.Builder.MakeEnumDecl(d.Span, d.Name, v.lowerType(d.Type), true)
	v.declareTag(d, op, v.ctx.enumDecls)
	v.fillEnumConstants(d, op)
	return op
}

// completePriorEnum resolves a redeclaration against the symbol of an
// earlier declaration in the chain. A complete redeclaration patches the
// incomplete placeholder in place: same op, now with an underlying type
// and a constants region.
func (v *Visitor) completePriorEnum(d *ast.Decl) *ir.Op {
	for p := d.Prev; p != nil; p = p.Prev {
		prevOp, ok := v.ctx.enumDecls.Lookup(p)
		if !ok {
			continue
		}
		if !d.Complete {
			return prevOp
		}
		if p.Complete {
			panic(fmt.Sprintf("enum %q completed twice", d.Name))
		}
		prevOp.Type = v.lowerType(d.Type)
		if len(prevOp.Regions) == 0 {
			prevOp.NewRegion().NewBlock()
		}
		v.ctx.enumDecls.Insert(d, prevOp)
		v.fillEnumConstants(d, prevOp)
		return prevOp
	}
	return nil
}

func (v *Visitor) fillEnumConstants(d *ast.Decl, op *ir.Op) {
	restore := v.ctx.Builder.Guard()
	defer restore()
	v.ctx.Builder.SetInsertionPointToStart(op.LastBlock())
	for _, con := range d.Children {
		v.Visit(con)
	}
}

func (v *Visitor) visitEnumConstant(d *ast.Decl) *ir.Op {
	if op, ok := v.ctx.enumConsts.Lookup(d); ok {
		return op
	}
	op := v.ctx.Builder.MakeEnumConstant(d.Span, d.Name, v.lowerType(d.Type), d.Value, d.Init != nil)
	v.ctx.enumConsts.Insert(d, op)
	if d.Init != nil {
		restore := v.ctx.Builder.Guard()
		defer restore()
		v.ctx.Builder.SetInsertionPointToStart(op.LastBlock())
		v.lowerExpr(d.Init)
	}
	return op
}

func recordOpKind(d *ast.Decl) ir.OpKind {
	if d.Tag == ast.TagUnion {
		return ir.OpUnionDecl
	}
	return ir.OpStructDecl
}

func (v *Visitor) visitRecord(d *ast.Decl) *ir.Op {
	if op, ok := v.ctx.typeDecls.Lookup(d); ok {
		return op
	}
	if !d.Complete {
		for p := d.Prev; p != nil; p = p.Prev {
			if op, ok := v.ctx.typeDecls.Lookup(p); ok {
				v.ctx.typeDecls.Insert(d, op)
				return op
			}
		}
		op := v.ctx.Builder.MakeTypeDecl(d.Span, d.Name)
		v.declareTag(d, op, v.ctx.typeDecls)
		return op
	}
	for p := d.Prev; p != nil; p = p.Prev {
		prevOp, ok := v.ctx.typeDecls.Lookup(p)
		if !ok {
			continue
		}
		if prevOp.Kind != ir.OpTypeDecl {
			// A definition already ran through this chain.
			v.ctx.typeDecls.Insert(d, prevOp)
			return prevOp
		}
		// Patch the placeholder in place so every type reference built
		// against it now sees the definition.
		prevOp.Kind = recordOpKind(d)
		if len(prevOp.Regions) == 0 {
			prevOp.NewRegion().NewBlock()
		}
		v.ctx.typeDecls.Insert(d, prevOp)
		v.ctx.tagIndex[d.Canonical()] = prevOp
		v.fillRecordMembers(d, prevOp)
		return prevOp
	}
	op := v.ctx.Builder.MakeRecordDecl(d.Span, recordOpKind(d), d.Name)
	v.declareTag(d, op, v.ctx.typeDecls)
	v.fillRecordMembers(d, op)
	return op
}

// declareTag registers a tag symbol in its scoped table and in the
// module-wide tag index. Registration happens before members are
// visited so self-referential member types resolve to the symbol under
// construction.
func (v *Visitor) declareTag(d *ast.Decl, op *ir.Op, tbl *scopedTable[*ast.Decl, *ir.Op]) {
	tbl.Insert(d, op)
	v.ctx.tagIndex[d.Canonical()] = op
}

func (v *Visitor) fillRecordMembers(d *ast.Decl, op *ir.Op) {
	restore := v.ctx.Builder.Guard()
	defer restore()
	v.ctx.Builder.SetInsertionPointToStart(op.LastBlock())
	pop := v.ctx.PushMembersScope()
	defer pop()
	for _, member := range d.Children {
		v.Visit(member)
	}
}

func (v *Visitor) visitField(d *ast.Decl) *ir.Op {
	// A field whose type defines a new tag inline owns that definition;
	// materialize the tag before the field so the field type can point
	// at it.
	if tag := namedTagBehind(d.Type); tag != nil && tag.Complete {
		if _, known := v.ctx.tagIndex[tag.Canonical()]; !known {
			v.Visit(tag)
		}
	}
	return v.ctx.Builder.MakeFieldDecl(d.Span, d.Name, v.lowerType(d.Type), d.BitWidth)
}
