package activities

import (
	"refcheck/internal/models"
	"refcheck/internal/refs"
)

type ExtractTextInput struct {
	DocumentPath string
}

type ExtractTextOutput struct {
	Text string
}

type LocateSectionInput struct {
	RunID string
	Text  string
	Query string
}

type LocateSectionOutput struct {
	Section string
}

type ParseReferencesInput struct {
	RunID   string
	Section string
}

type ParseReferencesOutput struct {
	References []refs.ParsedReference
}

type ProcessReferenceInput struct {
	RunID     string
	Reference refs.ParsedReference
	Ordinal   int
}

type ProcessReferenceOutput struct {
	Entry          models.ReferenceEntry
	DegradedReason string
}

type VerifyURLsInput struct {
	RunID string
	URLs  []string
}

type VerifyURLsOutput struct {
	Results map[string]models.VerificationResult
}

type WriteReportInput struct {
	Report models.Report
}

type WriteReportOutput struct {
	ReportPath string
}
