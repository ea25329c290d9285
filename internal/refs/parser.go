package refs

import (
	"encoding/json"
	"regexp"
	"strings"

	"refcheck/internal/models"
	"refcheck/internal/util"
)

// ParsedReference is one citation entry as produced by the parsing stage,
// before classification and enrichment.
type ParsedReference struct {
	OriginalText string   `json:"original_reference"`
	URLs         []string `json:"urls"`
	TypeLabel    string   `json:"type"`
}

var (
	jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

	entryMarkers = []*regexp.Regexp{
		regexp.MustCompile(`^\[\d+\]`),
		regexp.MustCompile(`^\d+\.`),
		regexp.MustCompile(`^\(\d+\)`),
	}
)

// ParseLLMReferences decodes the JSON array contract from a model response.
// Responses wrapped in code fences or prose are tolerated; anything that does
// not decode returns nil so the caller can fall back to the regex parser.
func ParseLLMReferences(raw string) []ParsedReference {
	raw = stripCodeFence(strings.TrimSpace(raw))
	if raw == "" {
		return nil
	}
	if m := jsonArrayPattern.FindString(raw); m != "" {
		raw = m
	}
	var entries []ParsedReference
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}
	out := make([]ParsedReference, 0, len(entries))
	for _, e := range entries {
		e.OriginalText = strings.TrimSpace(e.OriginalText)
		if e.OriginalText == "" {
			continue
		}
		urls := make([]string, 0, len(e.URLs))
		for _, u := range e.URLs {
			norm, err := util.NormalizeURL(u)
			if err != nil {
				continue
			}
			urls = append(urls, norm)
		}
		e.URLs = urls
		out = append(out, e)
	}
	return out
}

// FallbackParse splits a references section into entries by the common
// citation markers ([1], 1., (1)), collecting continuation lines until the
// next marker or a blank line. Used when the model returns nothing usable.
func FallbackParse(text string) []ParsedReference {
	text = TrimToReferenceStart(text)
	var out []ParsedReference
	var current []string

	flush := func() {
		if len(current) == 0 {
			return
		}
		refText := strings.TrimSpace(strings.Join(current, " "))
		current = nil
		if refText == "" {
			return
		}
		urls := util.ExtractURLs(refText)
		out = append(out, ParsedReference{
			OriginalText: refText,
			URLs:         urls,
			TypeLabel:    string(ClassifyByDomain(urls)),
		})
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		if isEntryStart(line) {
			flush()
		}
		current = append(current, line)
	}
	flush()
	return out
}

// TrimToReferenceStart drops leading narrative content before the first
// citation marker, if any marker exists.
func TrimToReferenceStart(text string) string {
	lines := strings.Split(text, "\n")
	start := 0
	for i, line := range lines {
		clean := strings.TrimSpace(line)
		if clean == "" {
			continue
		}
		if isEntryStart(clean) {
			start = i
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines[start:], "\n"))
}

func isEntryStart(line string) bool {
	for _, p := range entryMarkers {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

func stripCodeFence(s string) string {
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

// ClassifyByDomain assigns a category from URL domains alone; the
// deterministic complement to model classification.
func ClassifyByDomain(urls []string) models.Category {
	if len(urls) == 0 {
		return models.CategoryUnknown
	}
	for _, u := range urls {
		low := strings.ToLower(u)
		for _, d := range researchDomains {
			if strings.Contains(low, d) {
				return models.CategoryResearchPaper
			}
		}
		for _, d := range newsDomains {
			if strings.Contains(low, d) {
				return models.CategoryNewsArticle
			}
		}
		if strings.Contains(low, "youtube.com") || strings.Contains(low, "youtu.be") {
			return models.CategoryYouTubeVideo
		}
	}
	return models.CategoryGeneralWeb
}

var researchDomains = []string{
	"doi.org", "arxiv.org", "ieee.org", "acm.org",
	"springer.com", "nature.com", "wiley.com",
	"sciencedirect.com", "pubmed.ncbi.nlm.nih.gov",
}

var newsDomains = []string{
	"bbc.com", "bbc.co.uk", "cnn.com", "nytimes.com",
	"theguardian.com", "reuters.com", "timesofindia.indiatimes.com",
	"indianexpress.com", "thehindu.com",
}
