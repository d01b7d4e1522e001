package ir

import (
	"undertow/internal/source"
)

// Builder appends ops at a movable insertion point. The insertion point is
// the one piece of shared cursor state in the lowering phase; every code
// path that moves it must capture Guard() first and restore on all exits:
//
//	restore := b.Guard()
//	defer restore()
type Builder struct {
	module *Module
	block  *Block
	index  int
}

// NewBuilder returns a builder inserting at the end of the module top block.
func NewBuilder(m *Module) *Builder {
	return &Builder{
		module: m,
		block:  m.Top,
		index:  len(m.Top.Ops),
	}
}

// Module returns the module being built.
func (b *Builder) Module() *Module {
	return b.module
}

// Guard captures the current insertion point and returns a restore func.
func (b *Builder) Guard() func() {
	block, index := b.block, b.index
	return func() {
		b.block = block
		b.index = index
	}
}

// SetInsertionPointToStart moves insertion to the beginning of blk.
func (b *Builder) SetInsertionPointToStart(blk *Block) {
	b.block = blk
	b.index = 0
}

// SetInsertionPointToEnd moves insertion past the last op of blk.
func (b *Builder) SetInsertionPointToEnd(blk *Block) {
	b.block = blk
	b.index = len(blk.Ops)
}

// SetInsertionPointToModuleEnd moves insertion to the end of the top block.
func (b *Builder) SetInsertionPointToModuleEnd() {
	b.SetInsertionPointToEnd(b.module.Top)
}

// InsertionBlock returns the block new ops are inserted into.
func (b *Builder) InsertionBlock() *Block {
	return b.block
}

// Insert places op at the insertion point and advances past it.
func (b *Builder) Insert(op *Op) *Op {
	if b.index > len(b.block.Ops) {
		b.index = len(b.block.Ops)
	}
	b.block.insert(b.index, op)
	b.index++
	return op
}

// MakeFunc builds a function header op with no body.
func (b *Builder) MakeFunc(span source.Span, name string, ty *Type, linkage Linkage) *Op {
	return b.Insert(&Op{
		Kind:    OpFunc,
		Name:    name,
		Span:    span,
		Type:    ty,
		Linkage: linkage,
	})
}

// MakeVarDecl builds a variable declaration. When hasInit is set the op gets
// an initializer region with one empty block; the region is filled after the
// op exists because the initializer may reference the variable itself.
func (b *Builder) MakeVarDecl(span source.Span, name string, ty *Type, hasInit bool) *Op {
	op := &Op{
		Kind: OpVarDecl,
		Name: name,
		Span: span,
		Type: ty,
	}
	if hasInit {
		op.NewRegion().NewBlock()
	}
	return b.Insert(op)
}

// MakeTypeDecl builds an incomplete type placeholder.
func (b *Builder) MakeTypeDecl(span source.Span, name string) *Op {
	return b.Insert(&Op{Kind: OpTypeDecl, Name: name, Span: span})
}

// MakeTypeDef builds a type alias.
func (b *Builder) MakeTypeDef(span source.Span, name string, ty *Type) *Op {
	return b.Insert(&Op{Kind: OpTypeDef, Name: name, Span: span, Type: ty})
}

// MakeEnumDecl builds an enum declaration. Complete enums get a constants
// region with one block; incomplete forward declarations get none.
func (b *Builder) MakeEnumDecl(span source.Span, name string, ty *Type, complete bool) *Op {
	op := &Op{Kind: OpEnumDecl, Name: name, Span: span, Type: ty}
	if complete {
		op.NewRegion().NewBlock()
	}
	return b.Insert(op)
}

// MakeEnumConstant builds an enum constant with an optional initializer
// region.
func (b *Builder) MakeEnumConstant(span source.Span, name string, ty *Type, value int64, hasInit bool) *Op {
	op := &Op{
		Kind:  OpEnumConstant,
		Name:  name,
		Span:  span,
		Type:  ty,
		Value: value,
	}
	if hasInit {
		op.NewRegion().NewBlock()
	}
	return b.Insert(op)
}

// MakeRecordDecl builds a struct or union definition with an empty fields
// region.
func (b *Builder) MakeRecordDecl(span source.Span, kind OpKind, name string) *Op {
	op := &Op{Kind: kind, Name: name, Span: span}
	op.NewRegion().NewBlock()
	return b.Insert(op)
}

// MakeFieldDecl builds a record field; bits is the bitfield width, zero for
// plain fields.
func (b *Builder) MakeFieldDecl(span source.Span, name string, ty *Type, bits uint32) *Op {
	op := &Op{Kind: OpFieldDecl, Name: name, Span: span, Type: ty}
	if bits > 0 {
		op.Value = int64(bits)
	}
	return b.Insert(op)
}

// MakeLabelDecl builds a label declaration.
func (b *Builder) MakeLabelDecl(span source.Span, name string) *Op {
	return b.Insert(&Op{Kind: OpLabelDecl, Name: name, Span: span})
}

// MakeLabel builds a label marker referencing a declared label.
func (b *Builder) MakeLabel(span source.Span, name string) *Op {
	return b.Insert(&Op{Kind: OpLabel, Name: name, Span: span})
}

// MakeAccessSpec builds an access specifier marker.
func (b *Builder) MakeAccessSpec(span source.Span, access string) *Op {
	return b.Insert(&Op{Kind: OpAccessSpec, Name: access, Span: span})
}

// MakeEmptyDecl builds an empty declaration marker.
func (b *Builder) MakeEmptyDecl(span source.Span) *Op {
	return b.Insert(&Op{Kind: OpEmptyDecl, Span: span})
}

// MakeScope builds a lexical scope op with one region and one block.
func (b *Builder) MakeScope(span source.Span) *Op {
	op := &Op{Kind: OpScope, Span: span}
	op.NewRegion().NewBlock()
	return b.Insert(op)
}

// MakeConstant builds an integer constant.
func (b *Builder) MakeConstant(span source.Span, ty *Type, value int64) *Op {
	return b.Insert(&Op{Kind: OpConstant, Span: span, Type: ty, Value: value})
}

// MakeCall builds a direct call by callee symbol name.
func (b *Builder) MakeCall(span source.Span, callee string, resultTy *Type, args ...*Value) *Op {
	return b.Insert(&Op{
		Kind:     OpCall,
		Name:     callee,
		Span:     span,
		Type:     resultTy,
		Operands: args,
	})
}

// MakeFuncRef builds a reference to a function symbol.
func (b *Builder) MakeFuncRef(span source.Span, fn *Op) *Op {
	return b.Insert(&Op{
		Kind: OpFuncRef,
		Name: fn.Name,
		Span: span,
		Type: Pointer(fn.Type),
	})
}

// MakeReturn builds an explicit return, with an optional operand.
func (b *Builder) MakeReturn(span source.Span, operand *Value) *Op {
	op := &Op{Kind: OpReturn, Span: span}
	if operand != nil {
		op.Operands = []*Value{operand}
	}
	return b.Insert(op)
}

// MakeImplicitReturn builds the implicit void return appended to functions
// falling off the end.
func (b *Builder) MakeImplicitReturn(span source.Span, operand *Value) *Op {
	op := &Op{Kind: OpImplicitReturn, Span: span}
	if operand != nil {
		op.Operands = []*Value{operand}
	}
	return b.Insert(op)
}

// MakeUnreachable builds an unreachable marker.
func (b *Builder) MakeUnreachable(span source.Span) *Op {
	return b.Insert(&Op{Kind: OpUnreachable, Span: span})
}
