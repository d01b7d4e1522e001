package ir

import "strconv"

// TypeKind discriminates IR types.
type TypeKind uint8

const (
	TyInvalid TypeKind = iota
	TyVoid
	TyInt
	TyFloat
	TyBool
	TyPointer
	TyArray
	TyFunc
	// TyNamed references a type symbol (record, enum, or typedef) by name.
	TyNamed
)

// Type is a structural IR type. Named types carry a pointer to their
// defining symbol op so that every mention of a recursive type resolves to
// the same symbol.
type Type struct {
	Kind   TypeKind
	Elem   *Type
	Len    uint32
	Params []*Type
	Result *Type
	Name   string
	Sym    *Op // defining op for TyNamed
}

func Void() *Type  { return &Type{Kind: TyVoid} }
func Int() *Type   { return &Type{Kind: TyInt} }
func Float() *Type { return &Type{Kind: TyFloat} }
func Bool() *Type  { return &Type{Kind: TyBool} }

func Pointer(elem *Type) *Type { return &Type{Kind: TyPointer, Elem: elem} }

func Array(elem *Type, n uint32) *Type {
	return &Type{Kind: TyArray, Elem: elem, Len: n}
}

func Func(result *Type, params ...*Type) *Type {
	return &Type{Kind: TyFunc, Result: result, Params: params}
}

func Named(name string, sym *Op) *Type {
	return &Type{Kind: TyNamed, Name: name, Sym: sym}
}

// IsVoid reports whether the type is void.
func (t *Type) IsVoid() bool {
	return t != nil && t.Kind == TyVoid
}

// Equal compares types structurally; named types compare by symbol identity
// when both sides carry one, by name otherwise.
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case TyPointer:
		return t.Elem.Equal(other.Elem)
	case TyArray:
		return t.Len == other.Len && t.Elem.Equal(other.Elem)
	case TyFunc:
		if len(t.Params) != len(other.Params) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(other.Params[i]) {
				return false
			}
		}
		return t.Result.Equal(other.Result)
	case TyNamed:
		if t.Sym != nil && other.Sym != nil {
			return t.Sym == other.Sym
		}
		return t.Name == other.Name
	default:
		return true
	}
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case TyVoid:
		return "void"
	case TyInt:
		return "int"
	case TyFloat:
		return "float"
	case TyBool:
		return "bool"
	case TyPointer:
		return "ptr<" + t.Elem.String() + ">"
	case TyArray:
		return "array<" + t.Elem.String() + ", " + strconv.FormatUint(uint64(t.Len), 10) + ">"
	case TyFunc:
		s := "("
		for i, p := range t.Params {
			if i > 0 {
				s += ", "
			}
			s += p.String()
		}
		return s + ") -> " + t.Result.String()
	case TyNamed:
		return "!" + t.Name
	default:
		return "invalid"
	}
}
