package util

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	urlPattern   = regexp.MustCompile(`(?i)(?:https?://|doi\.org/|doi:\s*)[^\s<>"{}|\\^` + "`" + `\[\]]+`)
	arxivPattern = regexp.MustCompile(`(?i)arXiv:\s*([a-zA-Z0-9./-]+)`)
)

// NormalizeURL produces the canonical form used as the deduplication key for
// verification. It removes embedded whitespace, strips trailing punctuation,
// defaults a missing scheme to https, lowercases the host and drops a bare
// trailing slash. Normalizing an already-normalized URL is a no-op.
func NormalizeURL(raw string) (string, error) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, raw)
	s = strings.TrimRight(s, ".,;:")
	if s == "" {
		return "", fmt.Errorf("empty url")
	}
	if low := strings.ToLower(s); strings.HasPrefix(low, "doi:") {
		s = "https://doi.org/" + strings.TrimSpace(s[4:])
	} else if strings.HasPrefix(low, "doi.org/") {
		s = "https://" + s
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url missing host")
	}
	u.Host = strings.ToLower(u.Host)
	if u.Path == "/" {
		u.Path = ""
	}
	u.Fragment = ""
	return u.String(), nil
}

// ExtractURLs returns the normalized literal URLs found in a citation text,
// first occurrence order, duplicates removed.
func ExtractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	seen := map[string]struct{}{}
	for _, m := range matches {
		norm, err := NormalizeURL(m)
		if err != nil {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}

// ExtractArxivURLs turns explicit arXiv identifiers in a citation text into
// abstract-page URLs.
func ExtractArxivURLs(text string) []string {
	matches := arxivPattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	seen := map[string]struct{}{}
	for _, m := range matches {
		id := strings.TrimRight(strings.TrimSpace(m[1]), ".,;:")
		if id == "" {
			continue
		}
		norm, err := NormalizeURL("https://arxiv.org/abs/" + id)
		if err != nil {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}
