package tagio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"bookshelf/internal/contenthash"
	"bookshelf/internal/media/ffprobe"
	"bookshelf/internal/metadata"
	"bookshelf/internal/services"
)

func TestRecordFromProbeMapsTags(t *testing.T) {
	result := ffprobe.Result{
		Streams: []ffprobe.Stream{
			{CodecType: "audio", CodecName: "aac"},
			{CodecType: "video", CodecName: "png", Width: 600, Height: 600, Disposition: ffprobe.Disposition{AttachedPic: 1}},
		},
		Chapters: []ffprobe.Chapter{{ID: 0}, {ID: 1}, {ID: 2}},
		Format: ffprobe.Format{
			Duration: "3600.9",
			Tags: map[string]string{
				"title":        "The Martian",
				"artist":       "Andy Weir",
				"composer":     "R.C. Bray",
				"show":         "Standalone",
				"episode_sort": "1",
				"date":         "2014-02-11",
				"comment":      "Stranded on Mars.",
				"genre":        "Science Fiction",
				"ASIN":         "B00B5HZGUG",
			},
		},
	}
	record := RecordFromProbe(result)
	want := map[metadata.Field]string{
		metadata.FieldTitle:          "The Martian",
		metadata.FieldAuthor:         "Andy Weir",
		metadata.FieldNarrator:       "R.C. Bray",
		metadata.FieldSeries:         "Standalone",
		metadata.FieldSeriesPosition: "1",
		metadata.FieldYear:           "2014",
		metadata.FieldDescription:    "Stranded on Mars.",
		metadata.FieldGenre:          "Science Fiction",
		metadata.FieldASIN:           "B00B5HZGUG",
	}
	for field, expected := range want {
		if got, ok := record.Value(field); !ok || got != expected {
			t.Fatalf("%s: expected %q, got %q (ok=%v)", field, expected, got, ok)
		}
	}
	if _, ok := record.Value(metadata.FieldPublisher); ok {
		t.Fatal("expected publisher to be absent")
	}
	if record.DurationSeconds == nil || *record.DurationSeconds != 3600 {
		t.Fatalf("unexpected duration %v", record.DurationSeconds)
	}
	if record.ChapterCount == nil || *record.ChapterCount != 3 {
		t.Fatalf("unexpected chapter count %v", record.ChapterCount)
	}
	if record.CoverInfo == nil || *record.CoverInfo != "embedded (PNG, 600x600)" {
		t.Fatalf("unexpected cover info %v", record.CoverInfo)
	}
}

func TestRecordFromProbeIgnoresNonNumericPositions(t *testing.T) {
	record := RecordFromProbe(ffprobe.Result{Format: ffprobe.Format{Tags: map[string]string{"episode_sort": "first"}}})
	if record.SeriesPosition != nil {
		t.Fatalf("expected no series position, got %d", *record.SeriesPosition)
	}
}

func TestFFprobeReaderMissingFile(t *testing.T) {
	reader := NewFFprobeReader("ffprobe")
	_, err := reader.Read(context.Background(), filepath.Join(t.TempDir(), "missing.m4b"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestFFprobeReaderWrapsProbeFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.m4b")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	reader := &FFprobeReader{probe: func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{}, errors.New("invalid data found")
	}}
	if _, err := reader.Read(context.Background(), path); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestBuildFFmpegArgs(t *testing.T) {
	record := metadata.Record{
		Title:          metadata.Text("The Martian"),
		SeriesPosition: metadata.Number(2),
	}
	args := BuildFFmpegArgs("in.m4b", "out.tmp", record)
	joined := strings.Join(args, " ")
	for _, fragment := range []string{
		"-i in.m4b",
		"-map_metadata 0",
		"-c copy",
		"-movflags use_metadata_tags",
		"-metadata title=The Martian",
		"-metadata episode_sort=2",
		"-metadata artist=",
		"-metadata album_artist=",
	} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in %q", fragment, joined)
		}
	}
	if slices.Contains(args, "series_position=") {
		t.Fatal("aliases of a set field should be left alone")
	}
	if args[len(args)-1] != "out.tmp" {
		t.Fatalf("expected output path last, got %q", args[len(args)-1])
	}
}

func TestFFmpegWriterReplacesFileAndDropsSidecar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.m4b")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := contenthash.Refresh(path); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	writer := NewFFmpegWriter("", nil)
	var gotName string
	writer.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		return os.WriteFile(args[len(args)-1], []byte("tagged"), 0o644)
	})
	if err := writer.Write(context.Background(), path, metadata.Record{Title: metadata.Text("New")}); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	if gotName != "ffmpeg" {
		t.Fatalf("expected ffmpeg binary, got %q", gotName)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "tagged" {
		t.Fatalf("expected replaced content, got %q (%v)", data, err)
	}
	if _, err := os.Stat(contenthash.SidecarPath(path)); !os.IsNotExist(err) {
		t.Fatalf("expected sidecar removal, stat err=%v", err)
	}
}

func TestFFmpegWriterCleansUpOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.m4b")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	writer := NewFFmpegWriter("ffmpeg", nil)
	writer.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		_ = os.WriteFile(args[len(args)-1], []byte("partial"), 0o644)
		return errors.New("exit status 1")
	})
	err := writer.Write(context.Background(), path, metadata.Record{})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected temp file cleanup, found %d entries", len(entries))
	}
	data, _ := os.ReadFile(path)
	if string(data) != "original" {
		t.Fatalf("original content changed: %q", data)
	}
}
