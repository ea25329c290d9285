package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const crossrefTitleThreshold = 0.6

// CrossrefProvider looks up DOI/URL candidates for a citation via the
// Crossref bibliographic query API. No key required; Crossref asks for a
// contact address in the User-Agent.
type CrossrefProvider struct {
	baseURL string
	client  *http.Client
}

func NewCrossrefProvider() *CrossrefProvider {
	return &CrossrefProvider{
		baseURL: "https://api.crossref.org/works",
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *CrossrefProvider) Search(ctx context.Context, req SearchRequest) ([]SearchResult, ProviderInfo, error) {
	info := ProviderInfo{Name: "crossref", Model: "works"}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, info, nil
	}
	if len(query) > 300 {
		query = query[:300]
	}
	rows := req.MaxResults
	if rows <= 0 {
		rows = 3
	}
	u := c.baseURL + "?rows=" + fmt.Sprint(rows) + "&query.bibliographic=" + url.QueryEscape(query)
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	httpReq.Header.Set("User-Agent", "refcheck/1.0 (mailto:refcheck@example.com)")
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, info, fmt.Errorf("crossref lookup failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, info, fmt.Errorf("crossref lookup error %d: %s", resp.StatusCode, string(body))
	}
	var parsed struct {
		Message struct {
			Items []struct {
				Title []string `json:"title"`
				DOI   string   `json:"DOI"`
				URL   string   `json:"URL"`
			} `json:"items"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, info, fmt.Errorf("decode crossref response: %w", err)
	}
	out := make([]SearchResult, 0, 1)
	for _, item := range parsed.Message.Items {
		title := ""
		if len(item.Title) > 0 {
			title = item.Title[0]
		}
		if title == "" {
			continue
		}
		// Accept only items whose title plausibly belongs to the citation.
		if titleOverlap(req.Query, title) < crossrefTitleThreshold {
			continue
		}
		link := item.URL
		if item.DOI != "" {
			link = "https://doi.org/" + item.DOI
		}
		if link == "" {
			continue
		}
		out = append(out, SearchResult{Title: title, URL: link})
	}
	return out, info, nil
}

// titleOverlap is the fraction of significant title tokens present in the
// citation text.
func titleOverlap(citation, title string) float64 {
	refTokens := map[string]bool{}
	for _, t := range strings.Fields(strings.ToLower(citation)) {
		refTokens[strings.Trim(t, ".,;:()[]\"'")] = true
	}
	total, hits := 0, 0
	for _, t := range strings.Fields(strings.ToLower(title)) {
		t = strings.Trim(t, ".,;:()[]\"'")
		if len(t) <= 2 {
			continue
		}
		total++
		if refTokens[t] {
			hits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}
