package workflows

import (
	"context"
	"testing"

	"refcheck/internal/activities"
	"refcheck/internal/models"
	"refcheck/internal/refs"
	"refcheck/internal/util"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
)

func registerActivityName[T any](env *testsuite.TestWorkflowEnvironment, name string, fn T) {
	env.RegisterActivityWithOptions(fn, activity.RegisterOptions{Name: name})
}

func TestReferenceCheckWorkflowSuccess(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ReferenceCheckWorkflow)

	parsed := []refs.ParsedReference{
		{OriginalText: "[1] Smith, J. See https://example.com/paper", URLs: []string{"https://example.com/paper"}, TypeLabel: "General Web Reference"},
		{OriginalText: "[2] Chen, W. No link here.", TypeLabel: "Unknown"},
		{OriginalText: "[3] Lee, K. Same link. https://example.com/paper", URLs: []string{"https://example.com/paper"}, TypeLabel: "General Web Reference"},
	}

	registerActivityName(env, "LocateSectionActivity", func(_ context.Context, in activities.LocateSectionInput) (activities.LocateSectionOutput, error) {
		return activities.LocateSectionOutput{Section: "[1] ...\n[2] ...\n[3] ..."}, nil
	})
	registerActivityName(env, "ParseReferencesActivity", func(_ context.Context, in activities.ParseReferencesInput) (activities.ParseReferencesOutput, error) {
		return activities.ParseReferencesOutput{References: parsed}, nil
	})
	registerActivityName(env, "ProcessReferenceActivity", func(_ context.Context, in activities.ProcessReferenceInput) (activities.ProcessReferenceOutput, error) {
		entry := models.ReferenceEntry{
			OriginalText: in.Reference.OriginalText,
			Ordinal:      in.Ordinal,
			Category:     models.ParseCategory(in.Reference.TypeLabel),
		}
		for _, u := range in.Reference.URLs {
			entry.URLCandidates = append(entry.URLCandidates, models.URLCandidate{URL: u, Provenance: models.ProvenanceDocument})
		}
		return activities.ProcessReferenceOutput{Entry: entry}, nil
	})
	var verifiedInput []string
	registerActivityName(env, "VerifyURLsActivity", func(_ context.Context, in activities.VerifyURLsInput) (activities.VerifyURLsOutput, error) {
		verifiedInput = in.URLs
		code := 200
		return activities.VerifyURLsOutput{Results: map[string]models.VerificationResult{
			"https://example.com/paper": {URL: "https://example.com/paper", Status: models.StatusWorking, HTTPCode: &code},
		}}, nil
	})
	registerActivityName(env, "WriteReportActivity", func(_ context.Context, in activities.WriteReportInput) (activities.WriteReportOutput, error) {
		return activities.WriteReportOutput{ReportPath: "/tmp/report.json"}, nil
	})

	env.ExecuteWorkflow(ReferenceCheckWorkflow, RunInput{RunID: "run-1", Text: "full document text", MaxParallel: 2})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var report models.Report
	require.NoError(t, env.GetWorkflowResult(&report))

	require.Equal(t, models.PhaseCompleted, report.Phase)
	require.Equal(t, 3, report.TotalReferences)
	require.Len(t, report.References, 3)
	for i, ref := range report.References {
		require.Equal(t, i, ref.Ordinal)
	}

	// Both citations of the shared URL read the same cached result.
	first := report.References[0].URLCandidates[0]
	third := report.References[2].URLCandidates[0]
	require.NotNil(t, first.Result)
	require.NotNil(t, third.Result)
	require.Equal(t, models.StatusWorking, first.Result.Status)
	require.Equal(t, *first.Result, *third.Result)

	require.Equal(t, models.StatusWorking, report.References[0].AggregateStatus())
	require.Equal(t, models.StatusUnknown, report.References[1].AggregateStatus())
	require.Equal(t, 1, report.CheckedURLs)
	require.Equal(t, 2, report.StatusCounts[models.StatusWorking])
	require.Equal(t, 1, report.StatusCounts[models.StatusUnknown])

	require.Len(t, verifiedInput, 2, "workflow hands the full candidate url list to the scheduler")
}

func TestReferenceCheckWorkflowSectionNotFound(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ReferenceCheckWorkflow)

	registerActivityName(env, "LocateSectionActivity", func(_ context.Context, in activities.LocateSectionInput) (activities.LocateSectionOutput, error) {
		return activities.LocateSectionOutput{}, util.ErrSectionNotFound
	})
	reportWritten := false
	registerActivityName(env, "WriteReportActivity", func(_ context.Context, in activities.WriteReportInput) (activities.WriteReportOutput, error) {
		reportWritten = true
		return activities.WriteReportOutput{}, nil
	})

	env.ExecuteWorkflow(ReferenceCheckWorkflow, RunInput{RunID: "run-2", Text: "document with no bibliography"})
	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	require.False(t, reportWritten)
}

func TestReferenceCheckWorkflowDegradedEntrySurvives(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(ReferenceCheckWorkflow)

	registerActivityName(env, "LocateSectionActivity", func(_ context.Context, in activities.LocateSectionInput) (activities.LocateSectionOutput, error) {
		return activities.LocateSectionOutput{Section: "[1] ..."}, nil
	})
	registerActivityName(env, "ParseReferencesActivity", func(_ context.Context, in activities.ParseReferencesInput) (activities.ParseReferencesOutput, error) {
		return activities.ParseReferencesOutput{References: []refs.ParsedReference{
			{OriginalText: "[1] Unclassifiable entry."},
		}}, nil
	})
	registerActivityName(env, "ProcessReferenceActivity", func(_ context.Context, in activities.ProcessReferenceInput) (activities.ProcessReferenceOutput, error) {
		return activities.ProcessReferenceOutput{
			Entry:          models.ReferenceEntry{OriginalText: in.Reference.OriginalText, Ordinal: in.Ordinal, Category: models.CategoryUnknown},
			DegradedReason: "classification unavailable: stub",
		}, nil
	})
	registerActivityName(env, "WriteReportActivity", func(_ context.Context, in activities.WriteReportInput) (activities.WriteReportOutput, error) {
		return activities.WriteReportOutput{}, nil
	})

	env.ExecuteWorkflow(ReferenceCheckWorkflow, RunInput{RunID: "run-3", Text: "full document text"})
	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var report models.Report
	require.NoError(t, env.GetWorkflowResult(&report))
	require.Equal(t, models.PhaseCompleted, report.Phase)
	require.Len(t, report.Degraded, 1)
	require.Equal(t, 0, report.Degraded[0].Ordinal)
	require.Equal(t, models.StatusUnknown, report.References[0].AggregateStatus())
}
