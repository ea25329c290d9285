package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// TavilyProvider wraps the Tavily web search API for URL discovery.
type TavilyProvider struct {
	keyName string
	apiKey  string
	client  *http.Client
}

func NewTavilyProvider(keyName string) *TavilyProvider {
	return &TavilyProvider{
		keyName: keyName,
		apiKey:  resolveTavilyKey(keyName),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (t *TavilyProvider) Search(ctx context.Context, req SearchRequest) ([]SearchResult, ProviderInfo, error) {
	info := ProviderInfo{Name: "tavily", Model: "search", Key: t.keyName}
	if t.apiKey == "" {
		return nil, info, fmt.Errorf("tavily key missing for alias %q", t.keyName)
	}
	if strings.TrimSpace(req.Query) == "" {
		return nil, info, nil
	}
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = 3
	}
	payload, _ := json.Marshal(map[string]any{
		"api_key":        t.apiKey,
		"query":          req.Query,
		"max_results":    maxResults,
		"include_answer": false,
		"include_images": false,
	})
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.tavily.com/search", bytes.NewReader(payload))
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, info, fmt.Errorf("tavily search request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, info, fmt.Errorf("tavily search error %d: %s", resp.StatusCode, string(body))
	}
	var parsed struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, info, fmt.Errorf("decode tavily response: %w", err)
	}
	out := make([]SearchResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if strings.TrimSpace(r.URL) == "" {
			continue
		}
		out = append(out, SearchResult{Title: r.Title, URL: r.URL, Content: r.Content})
	}
	return out, info, nil
}

func resolveTavilyKey(alias string) string {
	if alias != "" {
		if v := os.Getenv("REFCHECK_TAVILY_KEY_" + strings.ToUpper(alias)); v != "" {
			return v
		}
	}
	return os.Getenv("TAVILY_API_KEY")
}
