package lookup

import "testing"

func TestExtractASIN(t *testing.T) {
	cases := []struct {
		name     string
		filename string
		want     string
		ok       bool
	}{
		{"prefix", "B08G9PRS1K_Project Hail Mary.m4b", "B08G9PRS1K", true},
		{"bracketed", "Project Hail Mary [B08G9PRS1K].m4b", "B08G9PRS1K", true},
		{"suffix", "Project Hail Mary-B08G9PRS1K.m4b", "B08G9PRS1K", true},
		{"directory ignored", "/books/B08G9PRS1K_x/plain.m4b", "", false},
		{"lowercase letters allowed", "[B0abcdefgh].m4b", "B0abcdefgh", true},
		{"wrong prefix", "A08G9PRS1K_book.m4b", "", false},
		{"too short", "[B08G9PRS1].m4b", "", false},
		{"punctuation", "[B08G9PR-1K].m4b", "", false},
		{"second bracket", "Book [2021] [B08G9PRS1K].m4b", "B08G9PRS1K", true},
		{"none", "The Martian.m4b", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractASIN(tc.filename)
			if got != tc.want || ok != tc.ok {
				t.Fatalf("ExtractASIN(%q) = %q, %v; want %q, %v", tc.filename, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestParseTrustedSource(t *testing.T) {
	got, err := ParseTrustedSource(" Audible ")
	if err != nil || got.Label() != SourceAudible || !got.IsSet() {
		t.Fatalf("ParseTrustedSource = %q, %v", got, err)
	}
	if got, err := ParseTrustedSource(""); err != nil || got.IsSet() {
		t.Fatalf("expected unset source, got %q, %v", got, err)
	}
	if _, err := ParseTrustedSource("goodreads"); err == nil {
		t.Fatal("expected error for unknown source")
	}
}
