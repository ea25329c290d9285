package refs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"refcheck/internal/models"
	"refcheck/internal/providers"
	"refcheck/internal/util"
)

// AuditFunc receives one record per external capability call. Optional.
type AuditFunc func(operation string, info providers.ProviderInfo, err error)

// Processor turns a parsed citation into a classified, URL-bearing reference
// entry. Capability failures degrade the entry instead of failing it: the
// category falls back to Unknown and the reason is reported to the caller.
type Processor struct {
	llm       providers.LLMProvider
	searchers []providers.SearchProvider
	suggest   bool
	backoff   time.Duration
	audit     AuditFunc
}

type ProcessorOption func(*Processor)

func WithSuggestions(enabled bool) ProcessorOption {
	return func(p *Processor) { p.suggest = enabled }
}

func WithRetryBackoff(d time.Duration) ProcessorOption {
	return func(p *Processor) { p.backoff = d }
}

func WithAudit(fn AuditFunc) ProcessorOption {
	return func(p *Processor) { p.audit = fn }
}

func NewProcessor(llm providers.LLMProvider, searchers []providers.SearchProvider, opts ...ProcessorOption) *Processor {
	p := &Processor{
		llm:       llm,
		searchers: searchers,
		suggest:   true,
		backoff:   500 * time.Millisecond,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process builds the reference entry for one parsed citation. The second
// return value is a degradation reason, empty when every capability call
// succeeded or was unnecessary.
func (p *Processor) Process(ctx context.Context, in ParsedReference, ordinal int) (models.ReferenceEntry, string) {
	entry := models.ReferenceEntry{
		OriginalText: in.OriginalText,
		Ordinal:      ordinal,
	}
	var reasons []string

	for _, u := range documentURLs(in) {
		entry.URLCandidates = append(entry.URLCandidates, models.URLCandidate{
			URL:        u,
			Provenance: models.ProvenanceDocument,
		})
	}
	if len(entry.URLCandidates) == 0 {
		for _, u := range util.ExtractArxivURLs(in.OriginalText) {
			entry.URLCandidates = append(entry.URLCandidates, models.URLCandidate{
				URL:        u,
				Provenance: models.ProvenanceResearch,
			})
		}
	}

	category, reason := p.classify(ctx, in)
	entry.Category = category
	if reason != "" {
		reasons = append(reasons, reason)
	}

	if len(entry.URLCandidates) == 0 {
		if cand, reason := p.enrich(ctx, in.OriginalText); cand != nil {
			entry.URLCandidates = append(entry.URLCandidates, *cand)
		} else if reason != "" {
			reasons = append(reasons, reason)
		}
	}

	return entry, strings.Join(reasons, "; ")
}

// documentURLs merges the parser's URL list with a direct scan of the
// citation text. The regex parser already extracts; the model sometimes
// misses URLs that are plainly present.
func documentURLs(in ParsedReference) []string {
	seen := make(map[string]bool, len(in.URLs))
	out := make([]string, 0, len(in.URLs))
	for _, u := range in.URLs {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	for _, u := range util.ExtractURLs(in.OriginalText) {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

func (p *Processor) classify(ctx context.Context, in ParsedReference) (models.Category, string) {
	if label := strings.TrimSpace(in.TypeLabel); label != "" {
		if c := models.ParseCategory(label); c != models.CategoryUnknown {
			return c, ""
		}
	}
	if p.llm == nil {
		return models.CategoryUnknown, ""
	}
	resp, err := p.generateWithRetry(ctx, providers.GenerateRequest{
		Operation: "classify_reference",
		Prompt:    BuildClassifyPrompt(in.OriginalText),
	})
	if err != nil {
		return models.CategoryUnknown, fmt.Sprintf("classification unavailable: %s", util.Snippet(err.Error(), 120))
	}
	return models.ParseCategory(strings.TrimSpace(resp.Text)), ""
}

// enrich finds one candidate URL for a citation that carried none: the search
// chain first, then a model suggestion. Returns nil with a reason when every
// avenue failed.
func (p *Processor) enrich(ctx context.Context, citation string) (*models.URLCandidate, string) {
	var searchErr error
	for _, s := range p.searchers {
		results, info, err := p.searchWithRetry(ctx, s, providers.SearchRequest{Query: citation, MaxResults: 3})
		if p.audit != nil {
			p.audit("discover_url", info, err)
		}
		if err != nil {
			searchErr = err
			continue
		}
		for _, r := range results {
			norm, nerr := util.NormalizeURL(r.URL)
			if nerr != nil {
				continue
			}
			return &models.URLCandidate{URL: norm, Provenance: models.ProvenanceResearch}, ""
		}
	}

	if p.suggest && p.llm != nil {
		resp, err := p.generateWithRetry(ctx, providers.GenerateRequest{
			Operation: "suggest_url",
			Prompt:    BuildSuggestURLPrompt(citation),
		})
		if err == nil {
			if urls := util.ExtractURLs(resp.Text); len(urls) > 0 {
				return &models.URLCandidate{URL: urls[0], Provenance: models.ProvenanceSuggested}, ""
			}
		}
	}

	if searchErr != nil {
		return nil, fmt.Sprintf("url discovery unavailable: %s", util.Snippet(searchErr.Error(), 120))
	}
	return nil, ""
}

// generateWithRetry retries a retryable failure exactly once after a backoff.
func (p *Processor) generateWithRetry(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, error) {
	resp, info, err := p.llm.Generate(ctx, req)
	if p.audit != nil {
		p.audit(req.Operation, info, err)
	}
	if err == nil || !providers.Retryable(providers.ClassifyError(err)) {
		return resp, err
	}
	if werr := p.wait(ctx); werr != nil {
		return resp, err
	}
	resp, info, err = p.llm.Generate(ctx, req)
	if p.audit != nil {
		p.audit(req.Operation, info, err)
	}
	return resp, err
}

func (p *Processor) searchWithRetry(ctx context.Context, s providers.SearchProvider, req providers.SearchRequest) ([]providers.SearchResult, providers.ProviderInfo, error) {
	results, info, err := s.Search(ctx, req)
	if err == nil || !providers.Retryable(providers.ClassifyError(err)) {
		return results, info, err
	}
	if werr := p.wait(ctx); werr != nil {
		return results, info, err
	}
	return s.Search(ctx, req)
}

func (p *Processor) wait(ctx context.Context) error {
	if p.backoff <= 0 {
		return nil
	}
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
