package ffprobe

import (
	"math"
	"testing"
)

const sampleOutput = `{
  "streams": [
    {"index": 0, "codec_name": "aac", "codec_type": "audio", "sample_rate": "44100", "channels": 2, "disposition": {"attached_pic": 0}},
    {"index": 1, "codec_name": "mjpeg", "codec_type": "video", "width": 500, "height": 500, "disposition": {"attached_pic": 1}}
  ],
  "chapters": [
    {"id": 0, "start_time": "0.000000", "end_time": "600.000000", "tags": {"title": "Chapter 1"}},
    {"id": 1, "start_time": "600.000000", "end_time": "1200.500000", "tags": {"title": "Chapter 2"}}
  ],
  "format": {
    "filename": "book.m4b",
    "nb_streams": 2,
    "duration": "1200.500000",
    "size": "9600000",
    "format_name": "mov,mp4,m4a,3gp,3g2,mj2",
    "tags": {"title": "Project Hail Mary", "ARTIST": "Andy Weir", "show": " "}
  }
}`

func TestParseAudiobookOutput(t *testing.T) {
	result, err := Parse([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected 1 audio stream, got %d", result.AudioStreamCount())
	}
	if result.ChapterCount() != 2 {
		t.Fatalf("expected 2 chapters, got %d", result.ChapterCount())
	}
	cover, ok := result.CoverArt()
	if !ok || cover.CodecName != "mjpeg" || cover.Width != 500 {
		t.Fatalf("unexpected cover art %+v (ok=%v)", cover, ok)
	}
	if result.DurationSeconds() != 1200.5 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 9600000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	if len(result.RawJSON()) == 0 {
		t.Fatal("expected raw JSON to be retained")
	}
}

func TestTagLookup(t *testing.T) {
	result, err := Parse([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got, ok := result.Tag("artist"); !ok || got != "Andy Weir" {
		t.Fatalf("expected case-insensitive artist, got %q (ok=%v)", got, ok)
	}
	if _, ok := result.Tag("show"); ok {
		t.Fatal("blank tag should be treated as missing")
	}
	if got, ok := result.Tag("album", "title"); !ok || got != "Project Hail Mary" {
		t.Fatalf("expected fallback key to match, got %q", got)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}
