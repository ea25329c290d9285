package workflows

import "refcheck/internal/models"

type RunInput struct {
	RunID        string
	DocumentPath string
	// Text bypasses PDF extraction when the caller already has plain text.
	Text        string
	Query       string
	MaxParallel int
}

type RunStatus struct {
	RunID               string       `json:"run_id"`
	Phase               models.Phase `json:"phase"`
	TotalReferences     int          `json:"total_references"`
	ProcessedReferences int          `json:"processed_references"`
	VerifiedURLs        int          `json:"verified_urls"`
	FailReason          string       `json:"fail_reason,omitempty"`
}
