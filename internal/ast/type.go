package ast

import "strconv"

// TypeKind discriminates type expressions.
type TypeKind uint8

const (
	TypeInvalid TypeKind = iota
	TypeVoid
	TypeInt
	TypeFloat
	TypeBool
	TypePointer
	TypeArray
	TypeFunc
	// TypeNamed references a record, enum, or typedef declaration by name.
	TypeNamed
)

// Type is a structural type expression attached to declarations.
type Type struct {
	Kind TypeKind

	// Elem is the pointee for TypePointer and the element for TypeArray.
	Elem *Type

	// Len is the element count for TypeArray.
	Len uint32

	// Params and Result describe TypeFunc signatures.
	Params []*Type
	Result *Type

	// Name and Decl identify the target of a TypeNamed reference. Decl may
	// be nil while the frontend has not resolved the name yet.
	Name string
	Decl *Decl
}

func VoidType() *Type           { return &Type{Kind: TypeVoid} }
func IntType() *Type            { return &Type{Kind: TypeInt} }
func FloatType() *Type          { return &Type{Kind: TypeFloat} }
func BoolType() *Type           { return &Type{Kind: TypeBool} }
func PointerTo(elem *Type) *Type { return &Type{Kind: TypePointer, Elem: elem} }

func ArrayOf(elem *Type, n uint32) *Type {
	return &Type{Kind: TypeArray, Elem: elem, Len: n}
}

func FuncType(result *Type, params ...*Type) *Type {
	return &Type{Kind: TypeFunc, Result: result, Params: params}
}

func NamedType(name string, decl *Decl) *Type {
	return &Type{Kind: TypeNamed, Name: name, Decl: decl}
}

// NamedDecl returns the declaration a named type points at, resolving
// against the most recent declaration in the chain first.
func (t *Type) NamedDecl() *Decl {
	if t == nil || t.Kind != TypeNamed {
		return nil
	}
	return t.Decl
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TypeVoid:
		return "void"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypePointer:
		return "ptr " + t.Elem.String()
	case TypeArray:
		return "[" + strconv.FormatUint(uint64(t.Len), 10) + "]" + t.Elem.String()
	case TypeFunc:
		s := "fn("
		for i, p := range t.Params {
			if i > 0 {
				s += ", "
			}
			s += p.String()
		}
		return s + ") " + t.Result.String()
	case TypeNamed:
		return t.Name
	default:
		return "invalid"
	}
}
