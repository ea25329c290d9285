package models

import "testing"

func TestBestStatusTieBreaks(t *testing.T) {
	if got := BestStatus([]URLStatus{StatusNotWorking, StatusWorking}); got != StatusWorking {
		t.Fatalf("expected Working, got %s", got)
	}
	if got := BestStatus([]URLStatus{StatusTimeout, StatusBroken}); got != StatusTimeout {
		t.Fatalf("expected Timeout, got %s", got)
	}
	if got := BestStatus(nil); got != StatusUnknown {
		t.Fatalf("expected Unknown for empty input, got %s", got)
	}
}

func TestAggregateStatus(t *testing.T) {
	entry := ReferenceEntry{}
	if got := entry.AggregateStatus(); got != StatusUnknown {
		t.Fatalf("expected Unknown for no candidates, got %s", got)
	}

	code := 200
	entry = ReferenceEntry{URLCandidates: []URLCandidate{
		{URL: "https://a.com/x"},
		{URL: "https://b.com/y", Result: &VerificationResult{Status: StatusWorking, HTTPCode: &code}},
	}}
	if got := entry.AggregateStatus(); got != StatusWorking {
		t.Fatalf("expected Working, got %s", got)
	}
}

func TestParseCategoryFallsBackToUnknown(t *testing.T) {
	if got := ParseCategory("  research paper "); got != CategoryResearchPaper {
		t.Fatalf("unexpected category: %s", got)
	}
	if got := ParseCategory("Conference Talk"); got != CategoryUnknown {
		t.Fatalf("expected Unknown, got %s", got)
	}
}

func TestPhaseTransitions(t *testing.T) {
	if !PhaseReceived.CanAdvance(PhaseSectionLocated) {
		t.Fatal("expected forward transition to be allowed")
	}
	if PhaseParsed.CanAdvance(PhaseSectionLocated) {
		t.Fatal("expected backward transition to be rejected")
	}
	if !PhaseVerified.CanAdvance(PhaseFailed) {
		t.Fatal("expected Failed to be reachable from non-terminal state")
	}
	if PhaseCompleted.CanAdvance(PhaseFailed) {
		t.Fatal("expected terminal state to reject transitions")
	}
	if PhaseFailed.CanAdvance(PhaseCompleted) {
		t.Fatal("expected Failed to be terminal")
	}
}

func TestRecount(t *testing.T) {
	working := &VerificationResult{Status: StatusWorking}
	r := Report{References: []ReferenceEntry{
		{Ordinal: 0, URLCandidates: []URLCandidate{{URL: "https://a.com", Result: working}}},
		{Ordinal: 1},
	}}
	r.Recount()
	if r.TotalReferences != 2 {
		t.Fatalf("expected 2 references, got %d", r.TotalReferences)
	}
	if r.StatusCounts[StatusWorking] != 1 || r.StatusCounts[StatusUnknown] != 1 {
		t.Fatalf("unexpected status counts: %v", r.StatusCounts)
	}
}
