package ir

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a readable textual rendering of the module. The format is for
// humans and tests; it is not a serialization format.
func Dump(w io.Writer, m *Module) error {
	p := &printer{w: w}
	p.printf("module %q {\n", m.Name)
	p.indent++
	for _, op := range m.Top.Ops {
		p.printOp(op)
	}
	p.indent--
	p.printf("}\n")
	return p.err
}

type printer struct {
	w      io.Writer
	indent int
	err    error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, "%s"+format, append([]any{strings.Repeat("  ", p.indent)}, args...)...)
}

func (p *printer) printOp(op *Op) {
	head := op.Kind.String()
	if op.Name != "" {
		head += " @" + op.Name
	}
	if op.Type != nil {
		head += " : " + op.Type.String()
	}
	switch op.Kind {
	case OpConstant, OpEnumConstant:
		head += fmt.Sprintf(" = %d", op.Value)
	case OpFunc:
		head += " linkage(" + op.Linkage.String() + ") " + op.Visibility.String()
	}
	if op.Storage != "" {
		head += " storage(" + op.Storage + ")"
	}
	for _, a := range op.Attrs {
		head += fmt.Sprintf(" #%s=%q", a.Name, a.Value)
	}
	if len(op.Operands) > 0 {
		head += fmt.Sprintf(" operands(%d)", len(op.Operands))
	}

	hasBody := false
	for _, r := range op.Regions {
		if len(r.Blocks) > 0 {
			hasBody = true
			break
		}
	}
	if !hasBody {
		p.printf("%s\n", head)
		return
	}

	p.printf("%s {\n", head)
	p.indent++
	for _, r := range op.Regions {
		for _, blk := range r.Blocks {
			if len(blk.Args) > 0 {
				p.printf("^args(%d)\n", len(blk.Args))
			}
			for _, child := range blk.Ops {
				p.printOp(child)
			}
		}
	}
	p.indent--
	p.printf("}\n")
}
