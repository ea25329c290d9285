package retriever

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"refcheck/internal/providers"
	"refcheck/internal/util"
	"refcheck/internal/vector"
)

// DefaultQuery is what the embedding fallback searches for when the caller
// does not override it.
const DefaultQuery = "Return only the References or Bibliography section of this research paper."

const minSectionChars = 50

var sectionHeadings = []string{"REFERENCES", "REFERENCE", "BIBLIOGRAPHY", "WORKS CITED"}

var sectionEndMarkers = []string{
	"APPENDIX",
	"ANNEX",
	"ACKNOWLEDGMENTS",
	"ACKNOWLEDGEMENTS",
	"AUTHOR",
	"BIOGRAPHY",
	"ABOUT",
	"SUPPLEMENTARY",
}

var headingPatterns = buildHeadingPatterns()

func buildHeadingPatterns() []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(sectionHeadings))
	end := strings.Join(sectionEndMarkers, "|")
	for _, h := range sectionHeadings {
		p := regexp.MustCompile(`(?is)(?:^|\n)\s*` + h + `\s*[\r\n]+([\s\S]+?)(?:\n\s*(?:` + end + `)\b|$)`)
		out = append(out, p)
	}
	return out
}

type Config struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
	MinScore     float64
	EmbedDim     int
}

// Retriever locates the bibliography section inside a full document. A cheap
// heading scan runs first; only when it misses does the retriever fall back
// to chunked embedding similarity search.
type Retriever struct {
	embedder providers.EmbeddingProvider
	cfg      Config
}

func New(embedder providers.EmbeddingProvider, cfg Config) *Retriever {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 1200
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 8
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 4
	}
	return &Retriever{embedder: embedder, cfg: cfg}
}

// Locate returns the references section of fullText, or
// util.ErrSectionNotFound when neither the heading scan nor similarity
// search clears the relevance bar. The fallback reorders selected chunks by
// document offset so entries stay in citation order for parsing.
func (r *Retriever) Locate(ctx context.Context, fullText, query string) (string, error) {
	if section, ok := scanHeadings(fullText); ok {
		return section, nil
	}
	if r.embedder == nil {
		return "", util.ErrSectionNotFound
	}
	if strings.TrimSpace(query) == "" {
		query = DefaultQuery
	}

	chunks := util.ChunkTextWithOffsets(fullText, r.cfg.ChunkSize, r.cfg.ChunkOverlap)
	if len(chunks) == 0 {
		return "", util.ErrSectionNotFound
	}
	inputs := make([]string, 0, len(chunks)+1)
	inputs = append(inputs, query)
	for _, c := range chunks {
		inputs = append(inputs, c.Text)
	}
	vectors, _, err := r.embedder.Embed(ctx, providers.EmbedRequest{
		Operation: "locate_references",
		Inputs:    inputs,
		Dimension: r.cfg.EmbedDim,
	})
	if err != nil {
		return "", fmt.Errorf("embed chunks for retrieval: %w", err)
	}
	if len(vectors) != len(inputs) {
		return "", fmt.Errorf("embedding provider returned %d vectors for %d inputs", len(vectors), len(inputs))
	}

	docs := make([]vector.Document, 0, len(chunks))
	for i, c := range chunks {
		docs = append(docs, vector.Document{Offset: c.Offset, Text: c.Text, Vector: vectors[i+1]})
	}
	matches := vector.TopK(docs, vectors[0], r.cfg.TopK)
	selected := matches[:0]
	for _, m := range matches {
		if m.Score >= r.cfg.MinScore {
			selected = append(selected, m)
		}
	}
	if len(selected) == 0 {
		return "", util.ErrSectionNotFound
	}

	// Score picks the chunks; document order decides how they read.
	sort.Slice(selected, func(i, j int) bool { return selected[i].Offset < selected[j].Offset })
	parts := make([]string, 0, len(selected))
	for _, m := range selected {
		parts = append(parts, m.Text)
	}
	combined := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if len(combined) < minSectionChars {
		return "", util.ErrSectionNotFound
	}
	return combined, nil
}

func scanHeadings(text string) (string, bool) {
	for _, p := range headingPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		section := strings.TrimSpace(m[1])
		if len(section) > minSectionChars {
			return section, true
		}
	}
	return "", false
}
