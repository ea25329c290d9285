package workflows

import (
	"strings"
	"time"

	"refcheck/internal/activities"
	"refcheck/internal/models"
	"refcheck/internal/util"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const QueryGetRunStatus = "GetRunStatus"

// ReferenceCheckWorkflow drives one document through the whole pipeline:
// extract, locate the bibliography, parse it into citations, classify and
// enrich each citation in parallel, verify the deduplicated URL union, merge
// and report. A missing references section fails the run; everything else
// degrades individual entries and the run still completes.
func ReferenceCheckWorkflow(ctx workflow.Context, input RunInput) (models.Report, error) {
	status := RunStatus{RunID: input.RunID, Phase: models.PhaseReceived}
	if err := workflow.SetQueryHandler(ctx, QueryGetRunStatus, func() (RunStatus, error) {
		return status, nil
	}); err != nil {
		return models.Report{}, err
	}

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    20 * time.Second,
			MaximumAttempts:    2,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)
	startedAt := workflow.Now(ctx)

	fail := func(reason string) {
		advance(&status, models.PhaseFailed)
		status.FailReason = reason
	}

	text := input.Text
	if strings.TrimSpace(text) == "" {
		var textOut activities.ExtractTextOutput
		if err := workflow.ExecuteActivity(ctx, "ExtractTextActivity", activities.ExtractTextInput{
			DocumentPath: input.DocumentPath,
		}).Get(ctx, &textOut); err != nil {
			fail("text extraction failed")
			return models.Report{}, err
		}
		text = textOut.Text
	}

	var locateOut activities.LocateSectionOutput
	if err := workflow.ExecuteActivity(ctx, "LocateSectionActivity", activities.LocateSectionInput{
		RunID: input.RunID,
		Text:  text,
		Query: input.Query,
	}).Get(ctx, &locateOut); err != nil {
		if isSectionNotFound(err) {
			fail("no references section found")
		} else {
			fail("section retrieval failed")
		}
		return models.Report{}, err
	}
	advance(&status, models.PhaseSectionLocated)

	var parseOut activities.ParseReferencesOutput
	if err := workflow.ExecuteActivity(ctx, "ParseReferencesActivity", activities.ParseReferencesInput{
		RunID:   input.RunID,
		Section: locateOut.Section,
	}).Get(ctx, &parseOut); err != nil {
		fail("no citation entries parsed")
		return models.Report{}, err
	}
	advance(&status, models.PhaseParsed)
	status.TotalReferences = len(parseOut.References)

	maxParallel := input.MaxParallel
	if maxParallel <= 0 {
		maxParallel = 5
	}

	entries := make([]models.ReferenceEntry, len(parseOut.References))
	var degraded []models.DegradedEntry
	for i := 0; i < len(parseOut.References); i += maxParallel {
		end := i + maxParallel
		if end > len(parseOut.References) {
			end = len(parseOut.References)
		}
		futures := make([]workflow.Future, 0, end-i)
		for j := i; j < end; j++ {
			futures = append(futures, workflow.ExecuteActivity(ctx, "ProcessReferenceActivity", activities.ProcessReferenceInput{
				RunID:     input.RunID,
				Reference: parseOut.References[j],
				Ordinal:   j,
			}))
		}
		for k, f := range futures {
			ordinal := i + k
			var out activities.ProcessReferenceOutput
			if err := f.Get(ctx, &out); err != nil {
				// One entry's fault never sinks the batch.
				entries[ordinal] = models.ReferenceEntry{
					OriginalText: parseOut.References[ordinal].OriginalText,
					Ordinal:      ordinal,
					Category:     models.CategoryUnknown,
				}
				degraded = append(degraded, models.DegradedEntry{Ordinal: ordinal, Reason: "reference processing failed"})
				status.ProcessedReferences++
				continue
			}
			entries[ordinal] = out.Entry
			if out.DegradedReason != "" {
				degraded = append(degraded, models.DegradedEntry{Ordinal: ordinal, Reason: out.DegradedReason})
			}
			status.ProcessedReferences++
		}
	}
	advance(&status, models.PhaseClassified)
	advance(&status, models.PhaseEnriched)

	urls := make([]string, 0)
	for _, e := range entries {
		for _, c := range e.URLCandidates {
			urls = append(urls, c.URL)
		}
	}

	results := map[string]models.VerificationResult{}
	if len(urls) > 0 {
		var verifyOut activities.VerifyURLsOutput
		if err := workflow.ExecuteActivity(ctx, "VerifyURLsActivity", activities.VerifyURLsInput{
			RunID: input.RunID,
			URLs:  urls,
		}).Get(ctx, &verifyOut); err != nil {
			for _, e := range entries {
				if len(e.URLCandidates) > 0 {
					degraded = append(degraded, models.DegradedEntry{Ordinal: e.Ordinal, Reason: "verification unavailable"})
				}
			}
		} else {
			results = verifyOut.Results
		}
	}
	advance(&status, models.PhaseVerified)
	status.VerifiedURLs = len(results)

	for i := range entries {
		for j := range entries[i].URLCandidates {
			key, err := util.NormalizeURL(entries[i].URLCandidates[j].URL)
			if err != nil {
				key = entries[i].URLCandidates[j].URL
			}
			if res, ok := results[key]; ok {
				r := res
				entries[i].URLCandidates[j].Result = &r
			}
		}
	}

	report := models.Report{
		RunID:       input.RunID,
		Phase:       models.PhaseCompleted,
		References:  entries,
		CheckedURLs: len(results),
		Degraded:    degraded,
		StartedAt:   startedAt,
		FinishedAt:  workflow.Now(ctx),
	}
	report.Recount()

	_ = workflow.ExecuteActivity(ctx, "WriteReportActivity", activities.WriteReportInput{
		Report: report,
	}).Get(ctx, nil)

	advance(&status, models.PhaseCompleted)
	return report, nil
}

func advance(status *RunStatus, next models.Phase) {
	if status.Phase.CanAdvance(next) {
		status.Phase = next
	}
}

func isSectionNotFound(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no references section")
}
