package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAddVirtualBuildsLineIndex(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("unit.uw", []byte("one\ntwo\nthree"))
	f := fs.Get(id)
	if f == nil || f.Flags&FileVirtual == 0 {
		t.Fatalf("virtual file not recorded")
	}
	if len(f.LineIdx) != 2 {
		t.Fatalf("line index = %v, want two newline offsets", f.LineIdx)
	}

	_, pos := fs.Position(Span{File: id, Start: 4, End: 7})
	if pos.Line != 2 || pos.Col != 1 {
		t.Fatalf("offset 4 resolved to %d:%d, want 2:1", pos.Line, pos.Col)
	}
	_, pos = fs.Position(Span{File: id, Start: 0, End: 3})
	if pos.Line != 1 || pos.Col != 1 {
		t.Fatalf("offset 0 resolved to %d:%d, want 1:1", pos.Line, pos.Col)
	}
}

func TestLoadNormalizesCRLF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.uw")
	if err := os.WriteFile(path, []byte("a\r\nb\r\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "a\nb\n" {
		t.Fatalf("content not normalized: %q", f.Content)
	}
	if f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("normalization flag missing")
	}
}

func TestGetByPathReturnsLatestVersion(t *testing.T) {
	fs := NewFileSet()
	fs.AddVirtual("unit.uw", []byte("old"))
	newID := fs.AddVirtual("unit.uw", []byte("new"))

	f, ok := fs.GetByPath("unit.uw")
	if !ok || f.ID != newID {
		t.Fatalf("index must point at the latest version")
	}
	if string(f.Content) != "new" {
		t.Fatalf("stale content: %q", f.Content)
	}
}

func TestSpanCoverAndContains(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	c := a.Cover(b)
	if c.Start != 2 || c.End != 8 {
		t.Fatalf("cover = %v", c)
	}
	other := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(other); got != a {
		t.Fatalf("cross-file cover must be a no-op")
	}
	if !c.Contains(7) || c.Contains(8) {
		t.Fatalf("contains must be half-open")
	}
}

func TestInternerDeduplicates(t *testing.T) {
	in := NewInterner()
	a := in.Intern("main")
	b := in.Intern("main")
	if a != b {
		t.Fatalf("same string interned twice: %d vs %d", a, b)
	}
	if got, ok := in.Find("main"); !ok || got != a {
		t.Fatalf("find missed an interned string")
	}
	if _, ok := in.Find("absent"); ok {
		t.Fatalf("find must not intern")
	}
	if s := in.MustLookup(a); s != "main" {
		t.Fatalf("lookup = %q", s)
	}
	if s, ok := in.Lookup(NoStringID); !ok || s != "" {
		t.Fatalf("NoStringID must resolve to the empty string")
	}
}
