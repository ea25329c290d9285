package activities

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"refcheck/internal/config"
	"refcheck/internal/models"
	"refcheck/internal/util"
)

func testActivities(t *testing.T, cfg config.Config) *Activities {
	t.Helper()
	if cfg.LLMProviders == "" {
		cfg.LLMProviders = "mock"
	}
	if cfg.EmbedProviders == "" {
		cfg.EmbedProviders = "mock"
	}
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestParseReferencesActivityFallback(t *testing.T) {
	a := testActivities(t, config.Config{})
	out, err := a.ParseReferencesActivity(context.Background(), ParseReferencesInput{
		RunID:   "run-1",
		Section: "[1] Smith, J. See https://example.com/paper\n[2] Chen, W. No link here.",
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.References) != 2 {
		t.Fatalf("expected 2 references, got %d", len(out.References))
	}
	if out.References[0].URLs[0] != "https://example.com/paper" {
		t.Fatalf("unexpected url: %v", out.References[0].URLs)
	}
}

func TestParseReferencesActivityEmptySection(t *testing.T) {
	a := testActivities(t, config.Config{})
	_, err := a.ParseReferencesActivity(context.Background(), ParseReferencesInput{RunID: "run-1", Section: "   "})
	if !errors.Is(err, util.ErrNoReferences) {
		t.Fatalf("expected ErrNoReferences, got %v", err)
	}
}

func TestLocateSectionActivityHeadingScan(t *testing.T) {
	a := testActivities(t, config.Config{MinSectionScore: 0.99})
	out, err := a.LocateSectionActivity(context.Background(), LocateSectionInput{
		RunID: "run-1",
		Text: "Body of the paper.\n\nREFERENCES\n[1] Smith, J. A study of studies. https://example.com/paper\n" +
			"[2] Lee, K. Another paper worth citing at length.",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Section == "" {
		t.Fatal("expected a non-empty section")
	}
}

func TestLocateSectionActivityNotFound(t *testing.T) {
	a := testActivities(t, config.Config{MinSectionScore: 0.99})
	_, err := a.LocateSectionActivity(context.Background(), LocateSectionInput{
		RunID: "run-1",
		Text:  "A short narrative document with no citation section whatsoever, just prose from start to finish.",
	})
	if !errors.Is(err, util.ErrSectionNotFound) {
		t.Fatalf("expected ErrSectionNotFound, got %v", err)
	}
}

func TestWriteReportActivity(t *testing.T) {
	dir := t.TempDir()
	a := testActivities(t, config.Config{DataOutRoot: dir})
	report := models.Report{
		RunID:      "run-7",
		Phase:      models.PhaseCompleted,
		References: []models.ReferenceEntry{{OriginalText: "[1] X.", Ordinal: 0, Category: models.CategoryUnknown}},
	}
	report.Recount()
	out, err := a.WriteReportActivity(context.Background(), WriteReportInput{Report: report})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out.ReportPath); err != nil {
		t.Fatalf("report file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "run-7", "references.jsonl")); err != nil {
		t.Fatalf("references file missing: %v", err)
	}
}
