package diag

import (
	"testing"

	"undertow/internal/source"
)

func sp(file source.FileID, start, end uint32) source.Span {
	return source.Span{File: file, Start: start, End: end}
}

func TestBagCapacityLimit(t *testing.T) {
	bag := NewBag(2)
	for i := 0; i < 3; i++ {
		added := bag.Add(Diagnostic{Severity: SevError, Code: ReadBadDirective, Primary: sp(0, uint32(i), uint32(i)+1)})
		if want := i < 2; added != want {
			t.Fatalf("add %d: added=%v, want %v", i, added, want)
		}
	}
	if bag.Len() != 2 {
		t.Fatalf("len = %d, want 2", bag.Len())
	}
}

func TestBagSortOrdersByPositionThenSeverity(t *testing.T) {
	bag := NewBag(8)
	bag.Add(Diagnostic{Severity: SevWarning, Code: ReadBadDirective, Primary: sp(0, 10, 12)})
	bag.Add(Diagnostic{Severity: SevError, Code: LowDuplicateDefinition, Primary: sp(0, 2, 4)})
	bag.Add(Diagnostic{Severity: SevError, Code: ReadMissingName, Primary: sp(0, 10, 12)})
	bag.Sort()

	items := bag.Items()
	if items[0].Code != LowDuplicateDefinition {
		t.Fatalf("earliest span first, got %s", items[0].Code)
	}
	// Same span: higher severity wins.
	if items[1].Code != ReadMissingName || items[2].Code != ReadBadDirective {
		t.Fatalf("severity tiebreak broken: %s, %s", items[1].Code, items[2].Code)
	}
}

func TestDedupReporterSuppressesRepeats(t *testing.T) {
	bag := NewBag(8)
	r := NewDedupReporter(BagReporter{Bag: bag})

	span := sp(0, 5, 9)
	r.Report(LowDuplicateDefinition, SevError, span, "duplicate definition of f", nil)
	r.Report(LowDuplicateDefinition, SevError, span, "duplicate definition of f", nil)
	r.Report(LowDuplicateDefinition, SevError, span, "duplicate definition of g", nil)

	if bag.Len() != 2 {
		t.Fatalf("expected the identical report suppressed, got %d", bag.Len())
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(8)
	b := ReportError(BagReporter{Bag: bag}, LowMissingParameter, sp(0, 0, 1), "unknown parameter")
	b.WithNote(sp(0, 3, 4), "declared here")
	b.Emit()
	b.Emit()

	if bag.Len() != 1 {
		t.Fatalf("emit must be idempotent, got %d diagnostics", bag.Len())
	}
	if len(bag.Items()[0].Notes) != 1 {
		t.Fatalf("note lost")
	}
}

func TestBagMergeGrowsCapacity(t *testing.T) {
	a := NewBag(1)
	a.Add(Diagnostic{Severity: SevError, Code: ReadBadDirective})
	b := NewBag(1)
	b.Add(Diagnostic{Severity: SevWarning, Code: ReadBadIndent})

	a.Merge(b)
	if a.Len() != 2 {
		t.Fatalf("merge dropped diagnostics: %d", a.Len())
	}
	if !a.HasErrors() {
		t.Fatalf("merged bag lost the error")
	}
}

func TestCodeStringPrefixes(t *testing.T) {
	cases := map[Code]string{
		ReadBadDirective:       "RDR1001",
		LowDuplicateDefinition: "LOW3001",
		DrvUnitFailed:          "DRV4003",
		UnknownCode:            "UNK0000",
	}
	for code, want := range cases {
		if got := code.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", code, got, want)
		}
	}
}
