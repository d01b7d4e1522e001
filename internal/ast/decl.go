// Package ast models the declaration tree consumed by the lowering phase.
//
// The tree is produced by an external frontend (or by the driver's input
// reader); the lowering phase never mutates it. Every declaration carries its
// kind, name, storage class, a completeness flag, a link to the previous
// declaration of the same logical entity, and its child declarations.
package ast

import (
	"undertow/internal/source"
)

// DeclKind discriminates declaration nodes.
type DeclKind uint8

const (
	DeclInvalid DeclKind = iota
	DeclTranslationUnit
	DeclFunction
	DeclVar
	DeclParam
	DeclField
	DeclTypedef
	DeclEnum
	DeclEnumConstant
	DeclRecord
	DeclLabel
	DeclAccess
	DeclEmpty
)

func (k DeclKind) String() string {
	switch k {
	case DeclTranslationUnit:
		return "translation_unit"
	case DeclFunction:
		return "function"
	case DeclVar:
		return "var"
	case DeclParam:
		return "param"
	case DeclField:
		return "field"
	case DeclTypedef:
		return "typedef"
	case DeclEnum:
		return "enum"
	case DeclEnumConstant:
		return "enum_constant"
	case DeclRecord:
		return "record"
	case DeclLabel:
		return "label"
	case DeclAccess:
		return "access"
	case DeclEmpty:
		return "empty"
	default:
		return "invalid"
	}
}

// StorageClass mirrors the source-language storage specifiers.
type StorageClass uint8

const (
	StorageNone StorageClass = iota
	StorageAuto
	StorageStatic
	StorageExtern
	StorageRegister
)

func (s StorageClass) String() string {
	switch s {
	case StorageAuto:
		return "auto"
	case StorageStatic:
		return "static"
	case StorageExtern:
		return "extern"
	case StorageRegister:
		return "register"
	default:
		return "none"
	}
}

// RecordTag distinguishes struct-like from union-like records.
type RecordTag uint8

const (
	TagStruct RecordTag = iota
	TagUnion
)

// Access is the member access level introduced by an access declaration.
type Access uint8

const (
	AccessNone Access = iota
	AccessPublic
	AccessProtected
	AccessPrivate
)

func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessProtected:
		return "protected"
	case AccessPrivate:
		return "private"
	default:
		return "none"
	}
}

// DeclFlags encode misc declaration attributes for quick checks.
type DeclFlags uint16

const (
	// DeclFlagMain marks the designated program-entry function.
	DeclFlagMain DeclFlags = 1 << iota
	// DeclFlagMultiVersion marks a multiversioned function (unsupported).
	DeclFlagMultiVersion
	// DeclFlagVariadic marks a variadic function signature.
	DeclFlagVariadic
)

// Attr is one source-level attribute attached to a declaration.
type Attr struct {
	Name  string
	Value string
}

// Decl is one declaration node.
//
// Complete means different things per kind: for records and enums it marks a
// full definition (as opposed to a forward declaration); for functions it
// marks the declaration that carries the body.
type Decl struct {
	Kind    DeclKind
	Name    string
	Span    source.Span
	Storage StorageClass
	Tag     RecordTag
	Access  Access
	Flags   DeclFlags

	// Type is the declared type: the variable/parameter/field type, the
	// typedef underlying type, the enum integer type, or the function
	// signature (TypeFunc).
	Type *Type

	Complete bool

	// Prev links to the previous declaration of the same logical entity,
	// forming a chain back to the first declaration.
	Prev *Decl

	// Children holds members: record fields and nested declarations, enum
	// constants, or every top-level declaration for a translation unit.
	Children []*Decl

	// Params holds parameter declarations for functions.
	Params []*Decl

	// Body is the function body, nil for declarations without one.
	Body *Stmt

	// Init is the variable initializer or enum-constant initializer.
	Init *Expr

	// Value is the resolved enum-constant value.
	Value int64

	// BitWidth is the field bit width; zero means no bitfield.
	BitWidth uint32

	Attrs []Attr
}

// Canonical returns the first declaration in the previous-declaration chain.
func (d *Decl) Canonical() *Decl {
	c := d
	for c.Prev != nil {
		c = c.Prev
	}
	return c
}

// IsFirstDecl reports whether this node is the first declaration of its
// logical entity.
func (d *Decl) IsFirstDecl() bool {
	return d.Prev == nil
}

// Definition walks the declaration chain (newest first) looking for the node
// marked complete. Returns nil when the entity has no definition.
func (d *Decl) Definition() *Decl {
	if d.Complete {
		return d
	}
	for p := d.Prev; p != nil; p = p.Prev {
		if p.Complete {
			return p
		}
	}
	return nil
}
