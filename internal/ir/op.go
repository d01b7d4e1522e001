// Package ir defines the intermediate representation produced by the
// lowering phase: a module of typed operations organised into regions and
// blocks, plus the builder that maintains the current insertion point.
package ir

import (
	"undertow/internal/source"
)

// OpKind discriminates operations.
type OpKind uint8

const (
	OpInvalid OpKind = iota

	// Symbol-producing declarations.
	OpFunc
	OpVarDecl
	OpTypeDecl // incomplete type placeholder
	OpTypeDef
	OpEnumDecl
	OpEnumConstant
	OpStructDecl
	OpUnionDecl
	OpFieldDecl
	OpLabelDecl
	OpAccessSpec
	OpEmptyDecl

	// Body operations.
	OpScope
	OpLabel
	OpConstant
	OpCall
	OpFuncRef

	// Terminators.
	OpReturn
	OpImplicitReturn
	OpUnreachable
)

func (k OpKind) String() string {
	switch k {
	case OpFunc:
		return "func"
	case OpVarDecl:
		return "var"
	case OpTypeDecl:
		return "type.decl"
	case OpTypeDef:
		return "typedef"
	case OpEnumDecl:
		return "enum"
	case OpEnumConstant:
		return "enum.const"
	case OpStructDecl:
		return "struct"
	case OpUnionDecl:
		return "union"
	case OpFieldDecl:
		return "field"
	case OpLabelDecl:
		return "label.decl"
	case OpAccessSpec:
		return "access"
	case OpEmptyDecl:
		return "empty"
	case OpScope:
		return "scope"
	case OpLabel:
		return "label"
	case OpConstant:
		return "const"
	case OpCall:
		return "call"
	case OpFuncRef:
		return "funcref"
	case OpReturn:
		return "return"
	case OpImplicitReturn:
		return "implicit.return"
	case OpUnreachable:
		return "unreachable"
	default:
		return "invalid"
	}
}

// Linkage controls how a symbol participates in linking.
type Linkage uint8

const (
	LinkageExternal Linkage = iota
	LinkageInternal
)

func (l Linkage) String() string {
	if l == LinkageInternal {
		return "internal"
	}
	return "external"
}

// Visibility controls whether a symbol is visible outside its module.
type Visibility uint8

const (
	VisibilityPublic Visibility = iota
	VisibilityPrivate
)

func (v Visibility) String() string {
	if v == VisibilityPrivate {
		return "private"
	}
	return "public"
}

// Op is one IR operation. Declarations and body operations share the same
// node shape; unused fields stay zero.
type Op struct {
	Kind       OpKind
	Name       string
	Span       source.Span
	Type       *Type
	Value      int64
	Attrs      AttrList
	Linkage    Linkage
	Visibility Visibility
	Storage    string
	Regions    []*Region
	Operands   []*Value

	result *Value
	parent *Block
}

// Value is an SSA-ish value: either the result of an op or a block argument.
type Value struct {
	Def   *Op
	Block *Block
	Index int
	Type  *Type
}

// Region is an ordered list of blocks owned by an op.
type Region struct {
	Parent *Op
	Blocks []*Block
}

// Block holds arguments and an ordered list of ops.
type Block struct {
	Parent *Region
	Args   []*Value
	Ops    []*Op
}

// Result returns the op's result value, creating it on first use.
func (o *Op) Result() *Value {
	if o.result == nil {
		o.result = &Value{Def: o, Type: o.Type}
	}
	return o.result
}

// ParentBlock returns the block the op was inserted into.
func (o *Op) ParentBlock() *Block {
	return o.parent
}

// IsTerminator reports whether the op ends control flow in its block.
func (o *Op) IsTerminator() bool {
	switch o.Kind {
	case OpReturn, OpImplicitReturn, OpUnreachable:
		return true
	default:
		return false
	}
}

// IsDeclaration reports whether a symbol op has no body yet.
func (o *Op) IsDeclaration() bool {
	for _, r := range o.Regions {
		if len(r.Blocks) > 0 {
			return false
		}
	}
	return true
}

// NewRegion appends a fresh empty region to the op.
func (o *Op) NewRegion() *Region {
	r := &Region{Parent: o}
	o.Regions = append(o.Regions, r)
	return r
}

// Body returns the op's first region, or nil.
func (o *Op) Body() *Region {
	if len(o.Regions) == 0 {
		return nil
	}
	return o.Regions[0]
}

// AddEntryBlock creates the entry block of the op's first region with one
// argument per parameter type. The entry block of a function must carry the
// same argument list as the function type.
func (o *Op) AddEntryBlock(params []*Type) *Block {
	r := o.Body()
	if r == nil {
		r = o.NewRegion()
	}
	b := r.NewBlock()
	for _, ty := range params {
		b.AddArg(ty)
	}
	return b
}

// LastBlock returns the last block of the op's first region, or nil.
func (o *Op) LastBlock() *Block {
	r := o.Body()
	if r == nil || len(r.Blocks) == 0 {
		return nil
	}
	return r.Blocks[len(r.Blocks)-1]
}

// NewBlock appends an empty block to the region.
func (r *Region) NewBlock() *Block {
	b := &Block{Parent: r}
	r.Blocks = append(r.Blocks, b)
	return b
}

// HasOneBlock reports whether the region holds exactly one block.
func (r *Region) HasOneBlock() bool {
	return r != nil && len(r.Blocks) == 1
}

// AddArg appends a block argument of the given type.
func (b *Block) AddArg(ty *Type) *Value {
	v := &Value{Block: b, Index: len(b.Args), Type: ty}
	b.Args = append(b.Args, v)
	return v
}

// Arg returns the i-th block argument, or nil when out of range.
func (b *Block) Arg(i int) *Value {
	if i < 0 || i >= len(b.Args) {
		return nil
	}
	return b.Args[i]
}

// LastOp returns the final op of the block, or nil for an empty block.
func (b *Block) LastOp() *Op {
	if len(b.Ops) == 0 {
		return nil
	}
	return b.Ops[len(b.Ops)-1]
}

// Len returns the number of ops in the block.
func (b *Block) Len() int {
	return len(b.Ops)
}

// insert places op at index i, claiming ownership.
func (b *Block) insert(i int, op *Op) {
	op.parent = b
	b.Ops = append(b.Ops, nil)
	copy(b.Ops[i+1:], b.Ops[i:])
	b.Ops[i] = op
}

// Remove detaches the op at index i.
func (b *Block) Remove(i int) *Op {
	op := b.Ops[i]
	b.Ops = append(b.Ops[:i], b.Ops[i+1:]...)
	op.parent = nil
	return op
}

// Append moves op to the end of the block, claiming ownership.
func (b *Block) Append(op *Op) {
	op.parent = b
	b.Ops = append(b.Ops, op)
}

// Truncate drops every op past index n.
func (b *Block) Truncate(n int) {
	if n < 0 || n >= len(b.Ops) {
		return
	}
	for _, op := range b.Ops[n:] {
		op.parent = nil
	}
	b.Ops = b.Ops[:n]
}
