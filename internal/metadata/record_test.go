package metadata

import "testing"

func TestParseField(t *testing.T) {
	field, err := ParseField(" Series_Position ")
	if err != nil || field != FieldSeriesPosition {
		t.Fatalf("ParseField = %q, %v", field, err)
	}
	if _, err := ParseField("bitrate"); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestSetAndValue(t *testing.T) {
	var r Record
	if err := r.Set(FieldYear, " 2021 "); err != nil {
		t.Fatalf("Set year: %v", err)
	}
	if err := r.Set(FieldTitle, "Project Hail Mary"); err != nil {
		t.Fatalf("Set title: %v", err)
	}
	if v, ok := r.Value(FieldYear); !ok || v != "2021" {
		t.Fatalf("year = %q, %v", v, ok)
	}
	if n, ok := r.NumberValue(FieldYear); !ok || n != 2021 {
		t.Fatalf("NumberValue = %d, %v", n, ok)
	}
	if err := r.Set(FieldSeriesPosition, "two"); err == nil {
		t.Fatal("expected error for non-numeric position")
	}
	if err := r.Set(FieldTitle, "   "); err != nil {
		t.Fatalf("Set blank: %v", err)
	}
	if r.Title != nil {
		t.Fatalf("blank value should clear title, got %q", *r.Title)
	}
	r.Clear(FieldYear)
	if !r.IsZero() {
		t.Fatalf("expected empty record, got %+v", r)
	}
}

func TestCloneIsDeep(t *testing.T) {
	chapters := uint32(12)
	original := Record{Title: Text("Dune"), Year: Number(1965), ChapterCount: &chapters}
	clone := original.Clone()
	if !clone.Equal(original) {
		t.Fatal("clone should equal original")
	}
	*clone.Title = "Children of Dune"
	*clone.ChapterCount = 3
	if *original.Title != "Dune" || *original.ChapterCount != 12 {
		t.Fatalf("clone shares storage with original: %+v", original)
	}
	if clone.Equal(original) {
		t.Fatal("modified clone should differ")
	}
}

func TestEqualIgnoresReadOnlyDetails(t *testing.T) {
	a := Record{Title: Text("Dune"), CoverInfo: Text("jpeg 500x500")}
	b := Record{Title: Text("Dune")}
	if !a.Equal(b) {
		t.Fatal("cover info must not affect equality")
	}
}
