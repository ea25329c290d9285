package providers

import "testing"

func TestTitleOverlap(t *testing.T) {
	citation := "Smith, J. and Lee, K. (2020). Deep Learning for Citation Analysis. Journal of Testing."
	if got := titleOverlap(citation, "Deep Learning for Citation Analysis"); got < 0.9 {
		t.Fatalf("expected near-full overlap, got %f", got)
	}
	if got := titleOverlap(citation, "Quantum Chromodynamics on Mars"); got > 0.3 {
		t.Fatalf("expected low overlap, got %f", got)
	}
	if got := titleOverlap(citation, ""); got != 0 {
		t.Fatalf("expected 0 for empty title, got %f", got)
	}
}
