package models

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryResearchPaper Category = "Research Paper"
	CategoryNewsArticle   Category = "News Article"
	CategoryYouTubeVideo  Category = "YouTube Video"
	CategoryGeneralWeb    Category = "General Web Reference"
	CategoryUnknown       Category = "Unknown"
)

// ParseCategory maps a free-form label (typically from an LLM response) onto
// the closed category set, falling back to Unknown rather than carrying
// unclassified strings through the pipeline.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "research paper", "researchpaper", "paper":
		return CategoryResearchPaper
	case "news article", "newsarticle", "news":
		return CategoryNewsArticle
	case "youtube video", "youtubevideo", "youtube":
		return CategoryYouTubeVideo
	case "general web reference", "generalwebreference", "web", "website":
		return CategoryGeneralWeb
	default:
		return CategoryUnknown
	}
}

// Provenance records how a URL candidate was obtained. The wire strings match
// the report consumers' expectations: a literal URL in the citation text,
// a research lookup (arXiv/Crossref/web search), or a model suggestion.
type Provenance string

const (
	ProvenanceDocument  Provenance = "pdf"
	ProvenanceResearch  Provenance = "research"
	ProvenanceSuggested Provenance = "suggested"
)

type URLStatus string

const (
	StatusWorking    URLStatus = "Working"
	StatusNotWorking URLStatus = "Not Working"
	StatusTimeout    URLStatus = "Timeout"
	StatusBroken     URLStatus = "Broken"
	StatusUnknown    URLStatus = "Unknown"
)

// DefaultStatusPrecedence orders statuses best-first for aggregating a
// reference with several URLs: a reference counts as reachable if any of its
// URLs work. The NotWorking/Broken ordering is a policy choice; callers that
// need a different one pass their own table to BestStatusWith.
var DefaultStatusPrecedence = []URLStatus{
	StatusWorking,
	StatusTimeout,
	StatusNotWorking,
	StatusBroken,
	StatusUnknown,
}

func BestStatus(statuses []URLStatus) URLStatus {
	return BestStatusWith(statuses, DefaultStatusPrecedence)
}

func BestStatusWith(statuses []URLStatus, precedence []URLStatus) URLStatus {
	if len(statuses) == 0 {
		return StatusUnknown
	}
	have := map[URLStatus]bool{}
	for _, s := range statuses {
		have[s] = true
	}
	for _, s := range precedence {
		if have[s] {
			return s
		}
	}
	return StatusUnknown
}

type VerificationResult struct {
	URL       string    `json:"url"`
	Status    URLStatus `json:"status"`
	HTTPCode  *int      `json:"http_code,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

type URLCandidate struct {
	URL        string              `json:"url"`
	Provenance Provenance          `json:"source"`
	Result     *VerificationResult `json:"verification_result,omitempty"`
}

type ReferenceEntry struct {
	OriginalText  string         `json:"original_reference"`
	Ordinal       int            `json:"ordinal"`
	Category      Category       `json:"type"`
	URLCandidates []URLCandidate `json:"url_details"`
}

// AggregateStatus derives the entry status from its candidates' verification
// results. It is never stored; a candidate without a result contributes
// Unknown, an entry without candidates is Unknown.
func (r ReferenceEntry) AggregateStatus() URLStatus {
	if len(r.URLCandidates) == 0 {
		return StatusUnknown
	}
	statuses := make([]URLStatus, 0, len(r.URLCandidates))
	for _, c := range r.URLCandidates {
		if c.Result == nil {
			statuses = append(statuses, StatusUnknown)
			continue
		}
		statuses = append(statuses, c.Result.Status)
	}
	return BestStatus(statuses)
}

// Phase is the pipeline state machine. Transitions are strictly forward;
// Failed is terminal and reachable from any non-terminal state.
type Phase string

const (
	PhaseReceived       Phase = "received"
	PhaseSectionLocated Phase = "section_located"
	PhaseParsed         Phase = "parsed"
	PhaseClassified     Phase = "classified"
	PhaseEnriched       Phase = "enriched"
	PhaseVerified       Phase = "verified"
	PhaseCompleted      Phase = "completed"
	PhaseFailed         Phase = "failed"
)

var phaseOrder = map[Phase]int{
	PhaseReceived:       0,
	PhaseSectionLocated: 1,
	PhaseParsed:         2,
	PhaseClassified:     3,
	PhaseEnriched:       4,
	PhaseVerified:       5,
	PhaseCompleted:      6,
}

func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseFailed
}

func (p Phase) CanAdvance(next Phase) bool {
	if p.Terminal() {
		return false
	}
	if next == PhaseFailed {
		return true
	}
	cur, ok := phaseOrder[p]
	if !ok {
		return false
	}
	nxt, ok := phaseOrder[next]
	if !ok {
		return false
	}
	return nxt > cur
}

// DegradedEntry marks a reference that completed with Unknown category or
// status because an external capability failed; the run itself still
// completes.
type DegradedEntry struct {
	Ordinal int    `json:"ordinal"`
	Reason  string `json:"reason"`
}

type Report struct {
	RunID           string              `json:"run_id"`
	Phase           Phase               `json:"phase"`
	References      []ReferenceEntry    `json:"references"`
	TotalReferences int                 `json:"total_references"`
	CheckedURLs     int                 `json:"checked_urls"`
	StatusCounts    map[URLStatus]int   `json:"status_counts"`
	Degraded        []DegradedEntry     `json:"degraded,omitempty"`
	StartedAt       time.Time           `json:"started_at"`
	FinishedAt      time.Time           `json:"finished_at"`
}

// Recount rebuilds the aggregate counters from the reference list.
func (r *Report) Recount() {
	r.TotalReferences = len(r.References)
	counts := map[URLStatus]int{}
	for _, ref := range r.References {
		counts[ref.AggregateStatus()]++
	}
	r.StatusCounts = counts
}
