package driver

import (
	"testing"

	"undertow/internal/ast"
	"undertow/internal/diag"
	"undertow/internal/source"
)

func readScript(t *testing.T, script string) (*ast.Decl, *diag.Bag) {
	t.Helper()
	fset := source.NewFileSet()
	file := fset.Get(fset.AddVirtual("unit.uw", []byte(script)))
	bag := diag.NewBag(64)
	tu := NewReader(file, diag.BagReporter{Bag: bag}).ReadUnit()
	return tu, bag
}

func TestReadFunctionWithBody(t *testing.T) {
	tu, bag := readScript(t, `
# entry point
fn main() int
  ret 0
`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	if len(tu.Children) != 1 {
		t.Fatalf("expected one declaration, got %d", len(tu.Children))
	}
	d := tu.Children[0]
	if d.Kind != ast.DeclFunction || d.Name != "main" || !d.Complete {
		t.Fatalf("unexpected decl %+v", d)
	}
	if d.Flags&ast.DeclFlagMain == 0 {
		t.Fatalf("main should carry the entry-point flag")
	}
	if len(d.Body.Stmts) != 1 || d.Body.Stmts[0].Kind != ast.StmtReturn {
		t.Fatalf("body should hold the return statement")
	}
}

func TestReadParamsAndReferences(t *testing.T) {
	tu, bag := readScript(t, `
fn add(a int, b int) int
  ret a
`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	d := tu.Children[0]
	if len(d.Params) != 2 || d.Params[0].Name != "a" || d.Params[1].Name != "b" {
		t.Fatalf("params not read: %+v", d.Params)
	}
	ret := d.Body.Stmts[0]
	if ret.Expr.Kind != ast.ExprRef || ret.Expr.Ref != d.Params[0] {
		t.Fatalf("return should reference the first parameter")
	}
}

func TestReadRecordChainsForwardDeclarations(t *testing.T) {
	tu, bag := readScript(t, `
decl struct Node
struct Node
  field value int
  field next ptr Node
`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	fwd, def := tu.Children[0], tu.Children[1]
	if fwd.Complete || !def.Complete {
		t.Fatalf("expected a forward declaration then a definition")
	}
	if def.Prev != fwd {
		t.Fatalf("definition should chain onto the forward declaration")
	}
	next := def.Children[1]
	if next.Type.Kind != ast.TypePointer || next.Type.Elem.NamedDecl() != def {
		t.Fatalf("field type should reference the latest tag declaration")
	}
}

func TestReadEnumAutoNumbering(t *testing.T) {
	tu, bag := readScript(t, `
enum Color
  const Red
  const Green
  const Blue 10
  const Violet
`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	d := tu.Children[0]
	want := []int64{0, 1, 10, 11}
	for i, con := range d.Children {
		if con.Value != want[i] {
			t.Fatalf("constant %s = %d, want %d", con.Name, con.Value, want[i])
		}
	}
}

func TestReadCallsAndAddressOf(t *testing.T) {
	tu, bag := readScript(t, `
static fn helper() int
  ret 7
fn use() int
  do &helper
  ret helper()
`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	use := tu.Children[1]
	addr := use.Body.Stmts[0].Expr
	if addr.Kind != ast.ExprAddrOf || addr.Inner.Ref != tu.Children[0] {
		t.Fatalf("address-of should reference the helper declaration")
	}
	call := use.Body.Stmts[1].Expr
	if call.Kind != ast.ExprCall || call.Fn.Ref != tu.Children[0] {
		t.Fatalf("call should reference the helper declaration")
	}
}

func TestReadAttributes(t *testing.T) {
	tu, bag := readScript(t, `
fn hot() int @section=.text.hot @inline=
  ret 1
`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	attrs := tu.Children[0].Attrs
	if len(attrs) != 2 || attrs[0].Name != "section" || attrs[0].Value != ".text.hot" {
		t.Fatalf("attributes not read: %+v", attrs)
	}
}

func TestReadReportsUnknownNamesAndKinds(t *testing.T) {
	_, bag := readScript(t, `
wat main
fn f() int
  ret missing
`)
	if bag.Len() != 2 {
		t.Fatalf("expected two diagnostics, got %v", bag.Items())
	}
	codes := map[diag.Code]bool{}
	for _, d := range bag.Items() {
		codes[d.Code] = true
	}
	if !codes[diag.ReadUnknownKind] || !codes[diag.ReadMissingName] {
		t.Fatalf("unexpected codes: %v", bag.Items())
	}
}

func TestReadDuplicateLabel(t *testing.T) {
	_, bag := readScript(t, `
fn f()
  label out
    ret
  label out
    ret
`)
	if bag.Len() != 1 || bag.Items()[0].Code != diag.ReadDuplicateLabel {
		t.Fatalf("expected one duplicate-label diagnostic, got %v", bag.Items())
	}
}
