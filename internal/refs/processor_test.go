package refs

import (
	"context"
	"errors"
	"strings"
	"testing"

	"refcheck/internal/models"
	"refcheck/internal/providers"
)

type stubLLM struct {
	classifyText string
	classifyErr  error
	suggestText  string
	suggestErr   error
	calls        map[string]int
}

func (s *stubLLM) Generate(_ context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[req.Operation]++
	info := providers.ProviderInfo{Name: "stub", Model: "stub-v1"}
	switch {
	case strings.Contains(req.Operation, "classify"):
		return providers.GenerateResponse{Text: s.classifyText}, info, s.classifyErr
	case strings.Contains(req.Operation, "suggest"):
		return providers.GenerateResponse{Text: s.suggestText}, info, s.suggestErr
	default:
		return providers.GenerateResponse{}, info, nil
	}
}

type stubSearcher struct {
	results []providers.SearchResult
	err     error
	calls   int
}

func (s *stubSearcher) Search(_ context.Context, _ providers.SearchRequest) ([]providers.SearchResult, providers.ProviderInfo, error) {
	s.calls++
	return s.results, providers.ProviderInfo{Name: "stub-search"}, s.err
}

func TestProcessDocumentURL(t *testing.T) {
	searcher := &stubSearcher{}
	p := NewProcessor(&stubLLM{}, []providers.SearchProvider{searcher}, WithRetryBackoff(0))
	in := ParsedReference{
		OriginalText: "[1] Smith, J. See https://example.com/paper",
		URLs:         []string{"https://example.com/paper"},
		TypeLabel:    "General Web Reference",
	}
	entry, reason := p.Process(context.Background(), in, 0)
	if reason != "" {
		t.Fatalf("unexpected degradation: %s", reason)
	}
	if len(entry.URLCandidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(entry.URLCandidates))
	}
	c := entry.URLCandidates[0]
	if c.URL != "https://example.com/paper" || c.Provenance != models.ProvenanceDocument {
		t.Fatalf("unexpected candidate: %+v", c)
	}
	if entry.Category != models.CategoryGeneralWeb {
		t.Fatalf("unexpected category: %s", entry.Category)
	}
	if searcher.calls != 0 {
		t.Fatal("search must not run when a document url exists")
	}
}

func TestProcessArxivFallback(t *testing.T) {
	p := NewProcessor(&stubLLM{classifyText: "Research Paper"}, nil, WithRetryBackoff(0), WithSuggestions(false))
	in := ParsedReference{OriginalText: "[4] Vaswani et al. Attention Is All You Need. arXiv:1706.03762"}
	entry, _ := p.Process(context.Background(), in, 3)
	if len(entry.URLCandidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(entry.URLCandidates))
	}
	c := entry.URLCandidates[0]
	if c.URL != "https://arxiv.org/abs/1706.03762" || c.Provenance != models.ProvenanceResearch {
		t.Fatalf("unexpected candidate: %+v", c)
	}
}

func TestProcessClassifyDegradesToUnknown(t *testing.T) {
	llm := &stubLLM{classifyErr: errors.New("invalid api key")}
	p := NewProcessor(llm, nil, WithRetryBackoff(0), WithSuggestions(false))
	in := ParsedReference{OriginalText: "[2] Chen, W. Untyped entry. https://example.com/x"}
	entry, reason := p.Process(context.Background(), in, 1)
	if entry.Category != models.CategoryUnknown {
		t.Fatalf("expected Unknown, got %s", entry.Category)
	}
	if !strings.Contains(reason, "classification unavailable") {
		t.Fatalf("expected degradation reason, got %q", reason)
	}
	if llm.calls["classify_reference"] != 1 {
		t.Fatalf("permanent error must not be retried, got %d calls", llm.calls["classify_reference"])
	}
}

func TestProcessClassifyRetriesTransientOnce(t *testing.T) {
	llm := &stubLLM{classifyErr: errors.New("service temporarily unavailable")}
	p := NewProcessor(llm, nil, WithRetryBackoff(0), WithSuggestions(false))
	in := ParsedReference{OriginalText: "[2] Chen, W. Untyped entry."}
	_, reason := p.Process(context.Background(), in, 1)
	if llm.calls["classify_reference"] != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", llm.calls["classify_reference"])
	}
	if reason == "" {
		t.Fatal("expected degradation reason after exhausted retry")
	}
}

func TestProcessEnrichFromSearch(t *testing.T) {
	searcher := &stubSearcher{results: []providers.SearchResult{
		{Title: "Found Paper", URL: "https://doi.org/10.1000/found"},
	}}
	p := NewProcessor(&stubLLM{classifyText: "Research Paper"}, []providers.SearchProvider{searcher}, WithRetryBackoff(0))
	in := ParsedReference{OriginalText: "[3] Brown, A. A paper with no link."}
	entry, reason := p.Process(context.Background(), in, 2)
	if reason != "" {
		t.Fatalf("unexpected degradation: %s", reason)
	}
	if len(entry.URLCandidates) != 1 {
		t.Fatalf("expected exactly one enrichment candidate, got %d", len(entry.URLCandidates))
	}
	c := entry.URLCandidates[0]
	if c.URL != "https://doi.org/10.1000/found" || c.Provenance != models.ProvenanceResearch {
		t.Fatalf("unexpected candidate: %+v", c)
	}
}

func TestProcessEnrichFallsBackToSuggestion(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("invalid api key")}
	llm := &stubLLM{classifyText: "Unknown", suggestText: "https://example.org/suggested"}
	p := NewProcessor(llm, []providers.SearchProvider{searcher}, WithRetryBackoff(0))
	in := ParsedReference{OriginalText: "[5] Gray, B. Obscure manuscript."}
	entry, _ := p.Process(context.Background(), in, 4)
	if len(entry.URLCandidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(entry.URLCandidates))
	}
	c := entry.URLCandidates[0]
	if c.URL != "https://example.org/suggested" || c.Provenance != models.ProvenanceSuggested {
		t.Fatalf("unexpected candidate: %+v", c)
	}
}

func TestProcessNoURLAnywhere(t *testing.T) {
	p := NewProcessor(&stubLLM{classifyText: "Unknown"}, nil, WithRetryBackoff(0), WithSuggestions(false))
	in := ParsedReference{OriginalText: "[6] Anonymous. Lost manuscript."}
	entry, _ := p.Process(context.Background(), in, 5)
	if len(entry.URLCandidates) != 0 {
		t.Fatalf("expected no candidates, got %v", entry.URLCandidates)
	}
	if entry.AggregateStatus() != models.StatusUnknown {
		t.Fatalf("expected Unknown aggregate, got %s", entry.AggregateStatus())
	}
}
