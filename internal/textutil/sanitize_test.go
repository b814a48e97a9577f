package textutil

import "testing"

func TestSanitizePathComponent(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello: World", "Hello - World"},
		{"Ratio 1:2", "Ratio 1-2"},
		{"AC/DC", "AC_DC"},
		{`Back\slash`, "Back_slash"},
		{`What? "Why" <now> | *`, `What_ _Why_ _now_ _ _`},
		{"  padded  ", "padded"},
		{"Title:", "Title-"},
	}
	for _, tc := range cases {
		if got := SanitizePathComponent(tc.in); got != tc.want {
			t.Fatalf("SanitizePathComponent(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizePathComponentNormalizesToNFC(t *testing.T) {
	decomposed := "Cafe\u0301"
	composed := "Caf\u00e9"
	if got := SanitizePathComponent(decomposed); got != composed {
		t.Fatalf("expected NFC form %q, got %q", composed, got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := Truncate("a long description", 10); got != "a long ..." {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := Truncate("abcdef", 2); got != "ab" {
		t.Fatalf("unexpected truncation %q", got)
	}
}
