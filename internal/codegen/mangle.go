package codegen

import (
	"undertow/internal/ast"
	"undertow/internal/source"
)

// Mangler assigns stable symbol names to declarations. Names are
// computed once per canonical declaration and cached, so every
// redeclaration of the same entity maps to the same symbol name.
// Mangled names are interned; SymbolID gives a compact identity for
// tables that would otherwise key by string.
//
// C linkage uses identity mangling. The mangler also remembers which
// declaration first claimed each name; that representative anchors
// duplicate-definition diagnostics and their dedup.
type Mangler struct {
	interner        *source.Interner
	names           map[*ast.Decl]source.StringID
	representatives map[source.StringID]*ast.Decl
}

func NewMangler() *Mangler {
	return &Mangler{
		interner:        source.NewInterner(),
		names:           make(map[*ast.Decl]source.StringID),
		representatives: make(map[source.StringID]*ast.Decl),
	}
}

func (m *Mangler) Mangle(d *ast.Decl) string {
	return m.interner.MustLookup(m.MangleID(d))
}

// MangleID mangles and returns the interned symbol identity.
func (m *Mangler) MangleID(d *ast.Decl) source.StringID {
	canon := d.Canonical()
	if id, ok := m.names[canon]; ok {
		return id
	}
	id := m.interner.Intern(canon.Name)
	m.names[canon] = id
	if _, ok := m.representatives[id]; !ok {
		m.representatives[id] = canon
	}
	return id
}

// Representative returns the declaration that first claimed the given
// symbol name, or nil if the name was never mangled.
func (m *Mangler) Representative(name string) *ast.Decl {
	if id, ok := m.interner.Find(name); ok {
		return m.representatives[id]
	}
	return nil
}
