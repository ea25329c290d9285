package util

import "testing"

func TestSanitizeTextRemovesControlChars(t *testing.T) {
	in := "Hello\x00 World\x01\n\tOK"
	got := SanitizeText(in)
	if got != "Hello World\n\tOK" {
		t.Fatalf("unexpected sanitized text: %q", got)
	}
}

func TestSnippet(t *testing.T) {
	if got := Snippet("short", 10); got != "short" {
		t.Fatalf("unexpected snippet: %q", got)
	}
	got := Snippet("a much longer message", 6)
	if got != "a much…" {
		t.Fatalf("unexpected truncated snippet: %q", got)
	}
}
