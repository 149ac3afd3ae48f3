package models

import (
	"errors"
	"testing"
	"time"
)

// ============== DifferenceKind Tests ==============

func TestDifferenceKindCodes(t *testing.T) {
	tests := []struct {
		kind     DifferenceKind
		code     string
		name     string
		recovers bool
	}{
		{AttributeMissing, "ID2", "AttributeMissing", false},
		{AttributeValueDiffers, "ID3", "AttributeValueDiffers", false},
		{ElementNameDiffers, "ID10", "ElementNameDiffers", false},
		{AttributeCountDiffers, "ID11", "AttributeCountDiffers", true},
		{TextValueDiffers, "ID14", "TextValueDiffers", false},
		{NamespaceURIDiffers, "ID16", "NamespaceURIDiffers", false},
		{NodeTypeDiffers, "ID17", "NodeTypeDiffers", false},
		{ChildCountDiffers, "ID19", "ChildCountDiffers", true},
		{ElementMissing, "ID22", "ElementMissing", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.Code(); got != tt.code {
				t.Errorf("Code() = %s, want %s", got, tt.code)
			}
			if got := tt.kind.String(); got != tt.name {
				t.Errorf("String() = %s, want %s", got, tt.name)
			}
			if got := tt.kind.DefaultRecoverable(); got != tt.recovers {
				t.Errorf("DefaultRecoverable() = %v, want %v", got, tt.recovers)
			}
			if !tt.kind.Valid() {
				t.Error("Valid() should be true for a known kind")
			}
		})
	}

	if len(Kinds()) != len(tests) {
		t.Errorf("Kinds() length = %d, want %d", len(Kinds()), len(tests))
	}
}

func TestUnknownKind(t *testing.T) {
	k := DifferenceKind(99)
	if k.Valid() {
		t.Error("Valid() should be false for an unknown kind")
	}
	if k.String() != "Kind(99)" {
		t.Errorf("String() = %s, want Kind(99)", k.String())
	}
	if k.Code() != "ID99" {
		t.Errorf("Code() = %s, want ID99", k.Code())
	}
}

func TestParseKindCode(t *testing.T) {
	tests := []struct {
		input   string
		want    DifferenceKind
		wantErr bool
	}{
		{"ID3", AttributeValueDiffers, false},
		{"3", AttributeValueDiffers, false},
		{"id22", ElementMissing, false},
		{" ID19 ", ChildCountDiffers, false},
		{"IDx", 0, true},
		{"", 0, true},
		{"-1", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKindCode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKindCode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseKindCode(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDifferenceString(t *testing.T) {
	d := Difference{
		Kind:          AttributeValueDiffers,
		SourceLocator: "/ROOT/X[1]/@v",
		TargetLocator: "/ROOT/X[1]/@v",
		Source:        &NodeSnapshot{Type: NodeAttribute, Name: "v", Parent: "X", Value: "1"},
		Target:        &NodeSnapshot{Type: NodeAttribute, Name: "v", Parent: "X", Value: "2"},
	}

	want := `ID3 AttributeValueDiffers: /ROOT/X[1]/@v -> /ROOT/X[1]/@v ("1" -> "2")`
	if got := d.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}

	missing := Difference{
		Kind:          ElementMissing,
		SourceLocator: "/ROOT/Y[1]",
		Source:        &NodeSnapshot{Type: NodeElement, Name: "Y", Parent: "ROOT"},
	}
	want = "ID22 ElementMissing: /ROOT/Y[1] -> <none> (<Y> -> absent)"
	if got := missing.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}

// ============== FileResult Tests ==============

func TestFileResultAdd(t *testing.T) {
	d := Difference{Kind: AttributeValueDiffers, SourceLocator: "/A/@b", TargetLocator: "/A/@b"}

	t.Run("WithoutSuppressedDetail", func(t *testing.T) {
		r := &FileResult{RelativePath: "a.imdi"}
		r.Add(ClassifiedDifference{Difference: d, Classification: Divergent}, false)
		r.Add(ClassifiedDifference{Difference: d, Classification: Recoverable}, false)
		r.Add(ClassifiedDifference{Difference: d, Classification: Suppressed}, false)

		if len(r.Divergent) != 1 {
			t.Errorf("Divergent length = %d, want 1", len(r.Divergent))
		}
		if r.RecoverableCount != 1 {
			t.Errorf("RecoverableCount = %d, want 1", r.RecoverableCount)
		}
		if r.SuppressedCount != 1 {
			t.Errorf("SuppressedCount = %d, want 1", r.SuppressedCount)
		}
		if len(r.Suppressed) != 0 {
			t.Error("Suppressed details should not be retained")
		}
		if !r.HasDifferences() {
			t.Error("HasDifferences() should be true")
		}
	})

	t.Run("WithSuppressedDetail", func(t *testing.T) {
		r := &FileResult{RelativePath: "a.imdi"}
		r.Add(ClassifiedDifference{Difference: d, Classification: Suppressed}, true)

		if len(r.Suppressed) != 1 {
			t.Errorf("Suppressed length = %d, want 1", len(r.Suppressed))
		}
		if r.HasDifferences() {
			t.Error("HasDifferences() should be false without divergent differences")
		}
	})
}

// ============== Statistics Tests ==============

func TestStatisticsRecord(t *testing.T) {
	stats := &Statistics{}
	d := ClassifiedDifference{Difference: Difference{Kind: TextValueDiffers}, Classification: Divergent}

	withDiffs := &FileResult{Divergent: []ClassifiedDifference{d, d}, RecoverableCount: 3, SuppressedCount: 1}
	clean := &FileResult{RecoverableCount: 2}

	stats.Record(withDiffs)
	stats.Record(clean)

	snap := stats.Snapshot()
	if snap.FilesCompared != 2 {
		t.Errorf("FilesCompared = %d, want 2", snap.FilesCompared)
	}
	if snap.FilesWithDifferences != 1 {
		t.Errorf("FilesWithDifferences = %d, want 1", snap.FilesWithDifferences)
	}
	if snap.DivergentDifferences != 2 {
		t.Errorf("DivergentDifferences = %d, want 2", snap.DivergentDifferences)
	}
	if snap.RecoverableDifferences != 5 {
		t.Errorf("RecoverableDifferences = %d, want 5", snap.RecoverableDifferences)
	}
	if snap.SuppressedDifferences != 1 {
		t.Errorf("SuppressedDifferences = %d, want 1", snap.SuppressedDifferences)
	}
}

// ============== Report Tests ==============

func TestReportFinish(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		r := NewReport("run-1", "/src", "/dst")
		r.Finish(false)
		if r.Status != StatusSuccess {
			t.Errorf("Status = %s, want success", r.Status)
		}
		if r.EndTime.Before(r.StartTime) {
			t.Error("EndTime should not precede StartTime")
		}
	})

	t.Run("Partial", func(t *testing.T) {
		r := NewReport("run-2", "/src", "/dst")
		r.Errors = append(r.Errors, PairError{FilePath: "a.imdi", Stage: "parse", Error: "bad", Timestamp: time.Now()})
		r.Finish(false)
		if r.Status != StatusPartial {
			t.Errorf("Status = %s, want partial", r.Status)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		r := NewReport("run-3", "/src", "/dst")
		r.Errors = append(r.Errors, PairError{FilePath: "a.imdi"})
		r.Finish(true)
		if r.Status != StatusCancelled {
			t.Errorf("Status = %s, want cancelled", r.Status)
		}
	})
}

func TestReportHasDifferences(t *testing.T) {
	r := NewReport("run", "/src", "/dst")
	if r.HasDifferences() {
		t.Error("HasDifferences() should be false for a new report")
	}
	r.Stats.DivergentDifferences.Add(1)
	if !r.HasDifferences() {
		t.Error("HasDifferences() should be true after a divergent difference")
	}
}

// ============== CompareOperation Tests ==============

func TestCompareOperationValidate(t *testing.T) {
	valid := func() *CompareOperation {
		return &CompareOperation{
			SourceRoot: "/source",
			TargetRoot: "/target",
			Extensions: []string{".imdi"},
			Timeout:    time.Minute,
		}
	}

	t.Run("ValidOperation", func(t *testing.T) {
		if err := valid().Validate(); err != nil {
			t.Errorf("Validate() error = %v, want nil", err)
		}
	})

	tests := []struct {
		name  string
		edit  func(op *CompareOperation)
		field string
	}{
		{"EmptySourceRoot", func(op *CompareOperation) { op.SourceRoot = "" }, "SourceRoot"},
		{"EmptyTargetRoot", func(op *CompareOperation) { op.TargetRoot = "" }, "TargetRoot"},
		{"NoExtensions", func(op *CompareOperation) { op.Extensions = nil }, "Extensions"},
		{"ZeroTimeout", func(op *CompareOperation) { op.Timeout = 0 }, "Timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := valid()
			tt.edit(op)

			err := op.Validate()
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("ValidationError.Field = %s, want %s", ve.Field, tt.field)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:   "TestField",
		Message: "test message",
	}

	expected := "TestField: test message"
	if err.Error() != expected {
		t.Errorf("Error() = %s, want %s", err.Error(), expected)
	}
}

func TestFilePairHasTarget(t *testing.T) {
	p := &FilePair{RelativePath: "a/r.imdi", Source: &FileEntry{RelativePath: "a/r.imdi"}}
	if p.HasTarget() {
		t.Error("HasTarget() should be false without a target entry")
	}
	p.Target = &FileEntry{RelativePath: "a/r.imdi"}
	if !p.HasTarget() {
		t.Error("HasTarget() should be true with a target entry")
	}
}
