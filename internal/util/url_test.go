package util

import "testing"

func TestNormalizeURLIdempotent(t *testing.T) {
	first, err := NormalizeURL("HTTPS://A.com/Path/")
	if err != nil {
		t.Fatal(err)
	}
	second, err := NormalizeURL(first)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("normalization not idempotent: %q vs %q", first, second)
	}
}

func TestNormalizeURLTrailingSlash(t *testing.T) {
	a, err := NormalizeURL("https://a.com")
	if err != nil {
		t.Fatal(err)
	}
	b, err := NormalizeURL("https://a.com/")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatalf("expected identical normal forms, got %q and %q", a, b)
	}
}

func TestNormalizeURLDOIForms(t *testing.T) {
	cases := map[string]string{
		"doi:10.1000/xyz123":          "https://doi.org/10.1000/xyz123",
		"doi.org/10.1000/xyz123":      "https://doi.org/10.1000/xyz123",
		"https://doi.org/10.1000/a.b": "https://doi.org/10.1000/a.b",
	}
	for in, want := range cases {
		got, err := NormalizeURL(in)
		if err != nil {
			t.Fatalf("NormalizeURL(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("NormalizeURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeURLTrimsTrailingPunctuation(t *testing.T) {
	got, err := NormalizeURL("https://example.com/paper.")
	if err != nil {
		t.Fatal(err)
	}
	if got != "https://example.com/paper" {
		t.Fatalf("unexpected normal form: %q", got)
	}
}

func TestNormalizeURLRejects(t *testing.T) {
	for _, in := range []string{"", "...", "ftp://host/file", "https://"} {
		if _, err := NormalizeURL(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestExtractURLs(t *testing.T) {
	text := "[1] Smith, J. See https://example.com/paper. Also doi:10.1000/xyz and https://example.com/paper"
	urls := ExtractURLs(text)
	if len(urls) != 2 {
		t.Fatalf("expected 2 urls, got %d: %v", len(urls), urls)
	}
	if urls[0] != "https://example.com/paper" {
		t.Fatalf("unexpected first url: %s", urls[0])
	}
	if urls[1] != "https://doi.org/10.1000/xyz" {
		t.Fatalf("unexpected second url: %s", urls[1])
	}
}

func TestExtractArxivURLs(t *testing.T) {
	urls := ExtractArxivURLs("Vaswani et al., Attention Is All You Need. arXiv:1706.03762.")
	if len(urls) != 1 {
		t.Fatalf("expected 1 url, got %v", urls)
	}
	if urls[0] != "https://arxiv.org/abs/1706.03762" {
		t.Fatalf("unexpected arxiv url: %s", urls[0])
	}
}
