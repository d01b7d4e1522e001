package ast

import (
	"undertow/internal/source"
)

// StmtKind discriminates statement nodes.
type StmtKind uint8

const (
	StmtInvalid StmtKind = iota
	// StmtCompound is a braced block of statements.
	StmtCompound
	// StmtReturn returns from the enclosing function, optionally with a value.
	StmtReturn
	// StmtExpr evaluates an expression for its side effects.
	StmtExpr
	// StmtDecl introduces a local declaration (variable or label use site).
	StmtDecl
	// StmtLabel marks a labelled statement; the label itself is a Decl.
	StmtLabel
)

// Stmt is one statement inside a function body.
type Stmt struct {
	Kind  StmtKind
	Span  source.Span
	Stmts []*Stmt // StmtCompound members
	Decl  *Decl   // StmtDecl local, StmtLabel label declaration
	Expr  *Expr   // StmtReturn value, StmtExpr expression
	Sub   *Stmt   // StmtLabel labelled statement
}

// CollectLabels appends every label declaration reachable in the statement
// tree to out. Labels are forward-referenceable within a function body, so
// the lowering phase declares them before visiting the body.
func (s *Stmt) CollectLabels(out []*Decl) []*Decl {
	if s == nil {
		return out
	}
	if s.Kind == StmtLabel && s.Decl != nil {
		out = append(out, s.Decl)
	}
	for _, child := range s.Stmts {
		out = child.CollectLabels(out)
	}
	out = s.Sub.CollectLabels(out)
	return out
}

// ExprKind discriminates expression nodes. The expression language is
// deliberately small: lowering only needs constants, references, calls, and
// address-of.
type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	ExprIntLit
	// ExprRef references a declaration: parameter, local, enum constant,
	// or function.
	ExprRef
	ExprCall
	ExprAddrOf
)

// Expr is one expression node.
type Expr struct {
	Kind  ExprKind
	Span  source.Span
	Value int64   // ExprIntLit
	Ref   *Decl   // ExprRef target
	Fn    *Expr   // ExprCall callee
	Args  []*Expr // ExprCall arguments
	Inner *Expr   // ExprAddrOf operand
}
