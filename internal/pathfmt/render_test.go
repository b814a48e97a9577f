package pathfmt

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"bookshelf/internal/metadata"
)

func sampleRecord() metadata.Record {
	return metadata.Record{
		Title:          metadata.Text("Project Hail Mary"),
		Author:         metadata.Text("Andy Weir"),
		Series:         metadata.Text("Standalone"),
		SeriesPosition: metadata.Number(1),
	}
}

func mustRender(t *testing.T, format string, md metadata.Record, filename string) string {
	t.Helper()
	tmpl, err := Parse(format)
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %v", format, err)
	}
	path, err := tmpl.Render(md, filename)
	if err != nil {
		t.Fatalf("Render(%q) returned error: %v", format, err)
	}
	return filepath.ToSlash(path)
}

func TestRenderBasic(t *testing.T) {
	got := mustRender(t, "{author}/{title}/{filename}", sampleRecord(), "book.m4b")
	if got != "Andy Weir/Project Hail Mary/book.m4b" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestRenderZeroPadding(t *testing.T) {
	got := mustRender(t, "{series}/{series_position:02}/{filename}", sampleRecord(), "book.m4b")
	if got != "Standalone/01/book.m4b" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestRenderSeriesTitle(t *testing.T) {
	md := sampleRecord()
	if got := mustRender(t, "{series_title}", md, "x.m4b"); got != "01 - Project Hail Mary" {
		t.Fatalf("unexpected series_title %q", got)
	}
	if got := mustRender(t, "{series_title:03}", md, "x.m4b"); got != "001 - Project Hail Mary" {
		t.Fatalf("unexpected padded series_title %q", got)
	}
	md.SeriesPosition = nil
	if got := mustRender(t, "{series_title}", md, "x.m4b"); got != "Project Hail Mary" {
		t.Fatalf("expected bare title without position, got %q", got)
	}
}

func TestRenderSeriesTitleRequiresTitle(t *testing.T) {
	tmpl, _ := Parse("{author}/{series_title}")
	md := sampleRecord()
	md.Title = nil
	_, err := tmpl.Render(md, "x.m4b")
	fields, ok := MissingFields(err)
	if !ok || !reflect.DeepEqual(fields, []string{"series_title"}) {
		t.Fatalf("expected missing [series_title], got %v (%v)", fields, err)
	}
}

func TestRenderSanitizesValues(t *testing.T) {
	md := metadata.Record{
		Author: metadata.Text("AC/DC"),
		Title:  metadata.Text("The Martian: A Novel"),
	}
	got := mustRender(t, "{author}/{title}", md, "x.m4b")
	if got != "AC_DC/The Martian - A Novel" {
		t.Fatalf("unexpected sanitized path %q", got)
	}
}

func TestRenderOptionalPlaceholderCompressesPath(t *testing.T) {
	md := sampleRecord()
	md.Series = nil
	got := mustRender(t, "{author}/{series?}/{title}/{filename}", md, "book.m4b")
	if got != "Andy Weir/Project Hail Mary/book.m4b" {
		t.Fatalf("expected compressed path, got %q", got)
	}
}

func TestRenderOptionalKeepsSurroundingLiteral(t *testing.T) {
	md := sampleRecord()
	md.Narrator = nil
	got := mustRender(t, "{title} [{narrator?}]", md, "book.m4b")
	if got != "Project Hail Mary []" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestRenderCollapsesEmptyComponents(t *testing.T) {
	got := mustRender(t, "/{author}//{title}/", sampleRecord(), "book.m4b")
	if got != "Andy Weir/Project Hail Mary" {
		t.Fatalf("expected empty components to collapse, got %q", got)
	}
}

func TestRenderMissingRequiredFields(t *testing.T) {
	tmpl, err := Parse("{author}/{narrator}/{year}/{narrator}/{filename}")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	path, err := tmpl.Render(sampleRecord(), "book.m4b")
	if path != "" {
		t.Fatalf("expected no path on failure, got %q", path)
	}
	var missing *MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingFieldsError, got %v", err)
	}
	if !reflect.DeepEqual(missing.Fields, []string{"narrator", "year"}) {
		t.Fatalf("expected deduplicated fields in appearance order, got %v", missing.Fields)
	}
}

func TestRenderFilenameAlwaysResolves(t *testing.T) {
	got := mustRender(t, "{filename}", metadata.Record{}, "My Book.m4b")
	if got != "My Book.m4b" {
		t.Fatalf("unexpected filename %q", got)
	}
}

func TestRenderNeverLeaksPlaceholderText(t *testing.T) {
	md := metadata.Record{
		Title:          metadata.Text("T"),
		Author:         metadata.Text("A"),
		Narrator:       metadata.Text("N"),
		Series:         metadata.Text("S"),
		SeriesPosition: metadata.Number(7),
		Year:           metadata.Number(2021),
		Genre:          metadata.Text("G"),
		Publisher:      metadata.Text("P"),
		ASIN:           metadata.Text("B08G9PRS1K"),
		ISBN:           metadata.Text("9780593135204"),
	}
	var b strings.Builder
	for _, name := range Names() {
		b.WriteString("{" + name + "}/")
	}
	got := mustRender(t, b.String(), md, "f.m4b")
	if strings.ContainsAny(got, "{}") {
		t.Fatalf("rendered path contains placeholder text: %q", got)
	}
	if strings.Count(got, "/") != len(Names())-1 {
		t.Fatalf("expected %d components, got %q", len(Names()), got)
	}
}

func TestRenderAllOptionalMissing(t *testing.T) {
	tmpl, _ := Parse("{series?}/{narrator?}")
	_, err := tmpl.Render(metadata.Record{}, "f.m4b")
	fields, ok := MissingFields(err)
	if !ok || !reflect.DeepEqual(fields, []string{"series", "narrator"}) {
		t.Fatalf("expected empty render to fail with field names, got %v", err)
	}
}

func TestRenderDotValuesCannotEscape(t *testing.T) {
	md := metadata.Record{Author: metadata.Text(".."), Title: metadata.Text("T")}
	got := mustRender(t, "{author}/{title}", md, "f.m4b")
	if got != "__/T" {
		t.Fatalf("expected dot component to be replaced, got %q", got)
	}
}

func TestRenderDropsWhitespaceOnlyComponents(t *testing.T) {
	md := metadata.Record{Author: metadata.Text("A"), Title: metadata.Text("T")}
	for _, format := range []string{"{author}/ {series?} /{title}", "{author}/ /{title}", "{author}/\t/{title}"} {
		if got := mustRender(t, format, md, "f.m4b"); got != "A/T" {
			t.Fatalf("Render(%q) = %q, want %q", format, got, "A/T")
		}
	}
}

func TestRenderLiteralOnlyEmptyPath(t *testing.T) {
	tmpl, err := Parse(" / ")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	_, err = tmpl.Render(sampleRecord(), "f.m4b")
	fields, ok := MissingFields(err)
	if !ok || len(fields) != 0 {
		t.Fatalf("expected MissingFieldsError without fields, got %v", err)
	}
	if err.Error() != "format renders an empty path" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
