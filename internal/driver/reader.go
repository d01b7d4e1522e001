package driver

import (
	"fmt"
	"strconv"
	"strings"

	"undertow/internal/ast"
	"undertow/internal/diag"
	"undertow/internal/source"
)

// The driver consumes declaration scripts: one declaration per line,
// nesting by two-space indentation, '#' comments. The format exists so
// units can be described without a C frontend; it maps one-to-one onto
// the declaration tree the lowering phase consumes.
//
//	fn main() int
//	  ret 0
//	static fn helper() int @section=.text.cold
//	  ret 7
//	decl fn area(r int) int
//	var g int = 42
//	struct Node
//	  field value int
//	  field next ptr Node
//	decl struct Handle
//	enum Color int
//	  const Red 0
//	typedef word int

const indentWidth = 2

type scriptLine struct {
	text   string
	indent int
	span   source.Span
}

// Reader turns one declaration script into a translation-unit tree.
// Reader state is per-unit; name resolution is flat per namespace the
// way the declaration tree expects it (functions, tags, typedefs,
// globals, enum constants).
type Reader struct {
	file     *source.File
	reporter diag.Reporter

	lines []scriptLine
	pos   int

	funcs    map[string]*ast.Decl
	tags     map[string]*ast.Decl
	typedefs map[string]*ast.Decl
	globals  map[string]*ast.Decl
	consts   map[string]*ast.Decl

	// Innermost-last stack of local scopes while reading a body.
	locals []map[string]*ast.Decl
	labels map[string]*ast.Decl
}

func NewReader(file *source.File, reporter diag.Reporter) *Reader {
	return &Reader{
		file:     file,
		reporter: reporter,
		funcs:    make(map[string]*ast.Decl),
		tags:     make(map[string]*ast.Decl),
		typedefs: make(map[string]*ast.Decl),
		globals:  make(map[string]*ast.Decl),
		consts:   make(map[string]*ast.Decl),
	}
}

// ReadUnit parses the whole file and returns the translation unit.
// Malformed lines are reported and skipped; the reader never fails
// hard.
func (r *Reader) ReadUnit() *ast.Decl {
	r.scanLines()
	tu := &ast.Decl{Kind: ast.DeclTranslationUnit, Name: r.file.Path}
	for r.pos < len(r.lines) {
		ln := r.lines[r.pos]
		if ln.indent != 0 {
			r.errorf(diag.ReadBadIndent, ln.span, "top-level declaration must not be indented")
			r.pos++
			continue
		}
		if d := r.readDecl(ln); d != nil {
			tu.Children = append(tu.Children, d)
		}
	}
	return tu
}

func (r *Reader) scanLines() {
	content := r.file.Content
	offset := uint32(0)
	for _, raw := range strings.Split(string(content), "\n") {
		lineLen := uint32(len(raw))
		trimmed := strings.TrimRight(raw, " \t\r")
		stripped := strings.TrimLeft(trimmed, " ")
		if stripped != "" && !strings.HasPrefix(stripped, "#") {
			pad := len(trimmed) - len(stripped)
			r.lines = append(r.lines, scriptLine{
				text:   stripped,
				indent: pad / indentWidth,
				span: source.Span{
					File:  r.file.ID,
					Start: offset + uint32(pad),
					End:   offset + uint32(len(trimmed)),
				},
			})
		}
		offset += lineLen + 1
	}
}

func (r *Reader) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	diag.ReportError(r.reporter, code, sp, fmt.Sprintf(format, args...)).Emit()
}

// readDecl consumes the declaration starting at ln (already current)
// together with its indented children.
func (r *Reader) readDecl(ln scriptLine) *ast.Decl {
	r.pos++
	fields, attrs := splitAttrs(strings.Fields(ln.text))

	storage := ast.StorageNone
	complete := true
	for len(fields) > 0 {
		switch fields[0] {
		case "static":
			storage = ast.StorageStatic
		case "extern":
			storage = ast.StorageExtern
		case "decl":
			complete = false
		default:
			goto parsed
		}
		fields = fields[1:]
	}
parsed:
	if len(fields) == 0 {
		r.errorf(diag.ReadUnknownKind, ln.span, "empty declaration")
		return nil
	}

	var d *ast.Decl
	switch fields[0] {
	case "fn":
		d = r.readFunc(ln, fields[1:], storage, complete)
	case "var":
		d = r.readVar(ln, fields[1:], storage)
	case "struct", "union":
		d = r.readRecord(ln, fields, complete)
	case "enum":
		d = r.readEnum(ln, fields[1:], complete)
	case "typedef":
		d = r.readTypedef(ln, fields[1:])
	case "empty":
		d = &ast.Decl{Kind: ast.DeclEmpty, Span: ln.span}
	default:
		r.errorf(diag.ReadUnknownKind, ln.span, "unknown declaration kind %q", fields[0])
		r.skipChildren(ln.indent)
		return nil
	}
	if d != nil {
		d.Attrs = append(d.Attrs, attrs...)
	}
	return d
}

// splitAttrs peels trailing @name=value tokens off a declaration line.
func splitAttrs(fields []string) ([]string, []ast.Attr) {
	var attrs []ast.Attr
	for len(fields) > 0 && strings.HasPrefix(fields[len(fields)-1], "@") {
		tok := strings.TrimPrefix(fields[len(fields)-1], "@")
		fields = fields[:len(fields)-1]
		name, value, _ := strings.Cut(tok, "=")
		attrs = append([]ast.Attr{{Name: name, Value: value}}, attrs...)
	}
	return fields, attrs
}

func (r *Reader) skipChildren(indent int) {
	for r.pos < len(r.lines) && r.lines[r.pos].indent > indent {
		r.pos++
	}
}

// readFunc parses "name(param type, ...) result".
func (r *Reader) readFunc(ln scriptLine, fields []string, storage ast.StorageClass, complete bool) *ast.Decl {
	sig := strings.Join(fields, " ")
	open := strings.IndexByte(sig, '(')
	closing := strings.IndexByte(sig, ')')
	if open < 0 || closing < open {
		r.errorf(diag.ReadBadDirective, ln.span, "malformed function signature %q", sig)
		r.skipChildren(ln.indent)
		return nil
	}
	name := strings.TrimSpace(sig[:open])
	if name == "" {
		r.errorf(diag.ReadMissingName, ln.span, "function has no name")
		r.skipChildren(ln.indent)
		return nil
	}

	var params []*ast.Decl
	var paramTys []*ast.Type
	paramList := strings.TrimSpace(sig[open+1 : closing])
	if paramList != "" {
		for _, p := range strings.Split(paramList, ",") {
			parts := strings.Fields(p)
			if len(parts) < 2 {
				r.errorf(diag.ReadBadDirective, ln.span, "parameter %q needs a name and a type", strings.TrimSpace(p))
				continue
			}
			ty := r.parseType(parts[1:], ln.span)
			params = append(params, &ast.Decl{
				Kind: ast.DeclParam,
				Name: parts[0],
				Span: ln.span,
				Type: ty,
			})
			paramTys = append(paramTys, ty)
		}
	}

	result := ast.VoidType()
	if rest := strings.Fields(strings.TrimSpace(sig[closing+1:])); len(rest) > 0 {
		result = r.parseType(rest, ln.span)
	}

	d := &ast.Decl{
		Kind:    ast.DeclFunction,
		Name:    name,
		Span:    ln.span,
		Storage: storage,
		Type:    ast.FuncType(result, paramTys...),
		Params:  params,
		Prev:    r.funcs[name],
	}
	if name == "main" {
		d.Flags |= ast.DeclFlagMain
	}
	r.funcs[name] = d

	if complete {
		d.Complete = true
		r.labels = make(map[string]*ast.Decl)
		r.pushLocals()
		for _, p := range params {
			r.defineLocal(p)
		}
		d.Body = r.readBlock(ln.indent, ln.span)
		r.popLocals()
		r.labels = nil
	} else {
		r.skipChildren(ln.indent)
	}
	return d
}

// readBlock consumes statements indented deeper than parent and wraps
// them in a compound statement.
func (r *Reader) readBlock(parent int, sp source.Span) *ast.Stmt {
	blk := &ast.Stmt{Kind: ast.StmtCompound, Span: sp}
	for r.pos < len(r.lines) && r.lines[r.pos].indent > parent {
		ln := r.lines[r.pos]
		if ln.indent != parent+1 {
			r.errorf(diag.ReadBadIndent, ln.span, "statement indented too deep")
			r.pos++
			continue
		}
		if s := r.readStmt(ln); s != nil {
			blk.Stmts = append(blk.Stmts, s)
		}
	}
	return blk
}

func (r *Reader) readStmt(ln scriptLine) *ast.Stmt {
	r.pos++
	fields := strings.Fields(ln.text)
	switch fields[0] {
	case "ret":
		s := &ast.Stmt{Kind: ast.StmtReturn, Span: ln.span}
		if len(fields) > 1 {
			s.Expr = r.parseExpr(strings.Join(fields[1:], " "), ln.span)
		}
		return s
	case "do":
		return &ast.Stmt{
			Kind: ast.StmtExpr,
			Span: ln.span,
			Expr: r.parseExpr(strings.Join(fields[1:], " "), ln.span),
		}
	case "var":
		return r.readLocalVar(ln, fields[1:])
	case "block":
		r.pushLocals()
		s := r.readBlock(ln.indent, ln.span)
		r.popLocals()
		return s
	case "label":
		return r.readLabel(ln, fields[1:])
	default:
		r.errorf(diag.ReadUnknownKind, ln.span, "unknown statement %q", fields[0])
		r.skipChildren(ln.indent)
		return nil
	}
}

func (r *Reader) readLabel(ln scriptLine, fields []string) *ast.Stmt {
	if len(fields) == 0 {
		r.errorf(diag.ReadMissingName, ln.span, "label has no name")
		return nil
	}
	name := fields[0]
	if _, dup := r.labels[name]; dup {
		r.errorf(diag.ReadDuplicateLabel, ln.span, "label %q already declared in this body", name)
	}
	lbl := &ast.Decl{Kind: ast.DeclLabel, Name: name, Span: ln.span}
	r.labels[name] = lbl
	s := &ast.Stmt{Kind: ast.StmtLabel, Span: ln.span, Decl: lbl}
	if r.pos < len(r.lines) && r.lines[r.pos].indent > ln.indent {
		sub := r.readBlock(ln.indent, ln.span)
		if len(sub.Stmts) == 1 {
			s.Sub = sub.Stmts[0]
		} else {
			s.Sub = sub
		}
	}
	return s
}

func (r *Reader) readLocalVar(ln scriptLine, fields []string) *ast.Stmt {
	d := r.readVarParts(ln, fields, ast.StorageNone)
	if d == nil {
		return nil
	}
	r.defineLocal(d)
	return &ast.Stmt{Kind: ast.StmtDecl, Span: ln.span, Decl: d}
}

func (r *Reader) readVar(ln scriptLine, fields []string, storage ast.StorageClass) *ast.Decl {
	d := r.readVarParts(ln, fields, storage)
	if d != nil {
		r.globals[d.Name] = d
	}
	return d
}

// readVarParts parses "name type [= expr]".
func (r *Reader) readVarParts(ln scriptLine, fields []string, storage ast.StorageClass) *ast.Decl {
	if len(fields) < 2 {
		r.errorf(diag.ReadMissingName, ln.span, "variable needs a name and a type")
		return nil
	}
	name := fields[0]
	rest := fields[1:]
	var init *ast.Expr
	if eq := indexOf(rest, "="); eq >= 0 {
		init = r.parseExpr(strings.Join(rest[eq+1:], " "), ln.span)
		rest = rest[:eq]
	}
	d := &ast.Decl{
		Kind:    ast.DeclVar,
		Name:    name,
		Span:    ln.span,
		Storage: storage,
		Type:    r.parseType(rest, ln.span),
		Init:    init,
	}
	return d
}

func (r *Reader) readRecord(ln scriptLine, fields []string, complete bool) *ast.Decl {
	tag := ast.TagStruct
	if fields[0] == "union" {
		tag = ast.TagUnion
	}
	if len(fields) < 2 {
		r.errorf(diag.ReadMissingName, ln.span, "%s has no name", fields[0])
		r.skipChildren(ln.indent)
		return nil
	}
	name := fields[1]
	d := &ast.Decl{
		Kind: ast.DeclRecord,
		Name: name,
		Span: ln.span,
		Tag:  tag,
		Prev: r.tags[name],
	}
	r.tags[name] = d
	if !complete {
		r.skipChildren(ln.indent)
		return d
	}
	d.Complete = true
	for r.pos < len(r.lines) && r.lines[r.pos].indent > ln.indent {
		child := r.lines[r.pos]
		cf := strings.Fields(child.text)
		if cf[0] != "field" || len(cf) < 3 {
			r.errorf(diag.ReadOrphanChild, child.span, "records contain field declarations only")
			r.pos++
			continue
		}
		r.pos++
		f := &ast.Decl{
			Kind: ast.DeclField,
			Name: cf[1],
			Span: child.span,
		}
		tyFields := cf[2:]
		if last := tyFields[len(tyFields)-1]; strings.HasPrefix(last, ":") {
			if bits, err := strconv.ParseUint(last[1:], 10, 32); err == nil {
				f.BitWidth = uint32(bits)
			}
			tyFields = tyFields[:len(tyFields)-1]
		}
		f.Type = r.parseType(tyFields, child.span)
		d.Children = append(d.Children, f)
	}
	return d
}

func (r *Reader) readEnum(ln scriptLine, fields []string, complete bool) *ast.Decl {
	if len(fields) == 0 {
		r.errorf(diag.ReadMissingName, ln.span, "enum has no name")
		r.skipChildren(ln.indent)
		return nil
	}
	name := fields[0]
	d := &ast.Decl{
		Kind: ast.DeclEnum,
		Name: name,
		Span: ln.span,
		Prev: r.tags[name],
	}
	r.tags[name] = d
	if !complete {
		r.skipChildren(ln.indent)
		return d
	}
	d.Complete = true
	d.Type = ast.IntType()
	if len(fields) > 1 {
		d.Type = r.parseType(fields[1:], ln.span)
	}
	next := int64(0)
	for r.pos < len(r.lines) && r.lines[r.pos].indent > ln.indent {
		child := r.lines[r.pos]
		cf := strings.Fields(child.text)
		if cf[0] != "const" || len(cf) < 2 {
			r.errorf(diag.ReadOrphanChild, child.span, "enums contain constant declarations only")
			r.pos++
			continue
		}
		r.pos++
		con := &ast.Decl{
			Kind: ast.DeclEnumConstant,
			Name: cf[1],
			Span: child.span,
			Type: ast.NamedType(name, d),
		}
		if len(cf) > 2 {
			if val, err := strconv.ParseInt(cf[2], 10, 64); err == nil {
				con.Value = val
				con.Init = &ast.Expr{Kind: ast.ExprIntLit, Span: child.span, Value: val}
				next = val
			} else {
				r.errorf(diag.ReadBadDirective, child.span, "bad constant value %q", cf[2])
			}
		} else {
			con.Value = next
		}
		next++
		r.consts[con.Name] = con
		d.Children = append(d.Children, con)
	}
	return d
}

func (r *Reader) readTypedef(ln scriptLine, fields []string) *ast.Decl {
	if len(fields) < 2 {
		r.errorf(diag.ReadMissingName, ln.span, "typedef needs a name and a type")
		return nil
	}
	d := &ast.Decl{
		Kind: ast.DeclTypedef,
		Name: fields[0],
		Span: ln.span,
		Type: r.parseType(fields[1:], ln.span),
	}
	r.typedefs[d.Name] = d
	return d
}

// parseType consumes a prefix type expression: "int", "ptr T",
// "array N T", or a declared name.
func (r *Reader) parseType(fields []string, sp source.Span) *ast.Type {
	ty, rest := r.parseTypePrefix(fields, sp)
	if len(rest) > 0 {
		r.errorf(diag.ReadBadType, sp, "trailing tokens after type: %q", strings.Join(rest, " "))
	}
	return ty
}

func (r *Reader) parseTypePrefix(fields []string, sp source.Span) (*ast.Type, []string) {
	if len(fields) == 0 {
		r.errorf(diag.ReadBadType, sp, "missing type")
		return ast.VoidType(), nil
	}
	head, rest := fields[0], fields[1:]
	switch head {
	case "void":
		return ast.VoidType(), rest
	case "int":
		return ast.IntType(), rest
	case "float":
		return ast.FloatType(), rest
	case "bool":
		return ast.BoolType(), rest
	case "ptr":
		elem, rest := r.parseTypePrefix(rest, sp)
		return ast.PointerTo(elem), rest
	case "array":
		if len(rest) < 2 {
			r.errorf(diag.ReadBadType, sp, "array needs a length and an element type")
			return ast.VoidType(), nil
		}
		n, err := strconv.ParseUint(rest[0], 10, 32)
		if err != nil {
			r.errorf(diag.ReadBadType, sp, "bad array length %q", rest[0])
			n = 0
		}
		elem, rest := r.parseTypePrefix(rest[1:], sp)
		return ast.ArrayOf(elem, uint32(n)), rest
	default:
		if d, ok := r.tags[head]; ok {
			return ast.NamedType(head, d), rest
		}
		if d, ok := r.typedefs[head]; ok {
			return ast.NamedType(head, d), rest
		}
		// Forward use of a tag that has not been declared yet. Record
		// the implicit forward declaration so later definitions chain
		// onto it.
		fwd := &ast.Decl{Kind: ast.DeclRecord, Name: head, Span: sp}
		r.tags[head] = fwd
		return ast.NamedType(head, fwd), rest
	}
}

// parseExpr handles the expression forms statements need: integer
// literals, references, calls, and address-of.
func (r *Reader) parseExpr(text string, sp source.Span) *ast.Expr {
	text = strings.TrimSpace(text)
	if text == "" {
		r.errorf(diag.ReadBadDirective, sp, "missing expression")
		return nil
	}
	if val, err := strconv.ParseInt(text, 10, 64); err == nil {
		return &ast.Expr{Kind: ast.ExprIntLit, Span: sp, Value: val}
	}
	if rest, ok := strings.CutPrefix(text, "&"); ok {
		return &ast.Expr{Kind: ast.ExprAddrOf, Span: sp, Inner: r.parseExpr(rest, sp)}
	}
	if open := strings.IndexByte(text, '('); open >= 0 && strings.HasSuffix(text, ")") {
		callee := r.parseExpr(text[:open], sp)
		call := &ast.Expr{Kind: ast.ExprCall, Span: sp, Fn: callee}
		for _, arg := range strings.Split(text[open+1:len(text)-1], ",") {
			if strings.TrimSpace(arg) == "" {
				continue
			}
			call.Args = append(call.Args, r.parseExpr(arg, sp))
		}
		return call
	}
	if d := r.resolve(text); d != nil {
		return &ast.Expr{Kind: ast.ExprRef, Span: sp, Ref: d}
	}
	r.errorf(diag.ReadMissingName, sp, "unknown name %q", text)
	return nil
}

// resolve finds a referenced declaration: locals innermost-out, then
// globals, enum constants, and functions.
func (r *Reader) resolve(name string) *ast.Decl {
	for i := len(r.locals) - 1; i >= 0; i-- {
		if d, ok := r.locals[i][name]; ok {
			return d
		}
	}
	if d, ok := r.globals[name]; ok {
		return d
	}
	if d, ok := r.consts[name]; ok {
		return d
	}
	if d, ok := r.funcs[name]; ok {
		return d
	}
	return nil
}

func (r *Reader) pushLocals() {
	r.locals = append(r.locals, make(map[string]*ast.Decl))
}

func (r *Reader) popLocals() {
	r.locals = r.locals[:len(r.locals)-1]
}

func (r *Reader) defineLocal(d *ast.Decl) {
	r.locals[len(r.locals)-1][d.Name] = d
}

func indexOf(fields []string, tok string) int {
	for i, f := range fields {
		if f == tok {
			return i
		}
	}
	return -1
}
