package activities

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"refcheck/internal/config"
	"refcheck/internal/providers"
	"refcheck/internal/refs"
	"refcheck/internal/retriever"
	"refcheck/internal/storage"
	"refcheck/internal/util"
	"refcheck/internal/verify"

	"github.com/ledongthuc/pdf"
)

type Activities struct {
	cfg       config.Config
	providers *providers.Manager
	auditRepo *storage.AuditRepo
}

func New(cfg config.Config, db *storage.DB) (*Activities, error) {
	pm, err := providers.NewManager(providers.ManagerConfig{
		LLMProviders:    cfg.LLMProviders,
		EmbedProviders:  cfg.EmbedProviders,
		SearchProviders: cfg.SearchProviders,
	})
	if err != nil {
		return nil, err
	}
	return &Activities{
		cfg:       cfg,
		providers: pm,
		auditRepo: storage.NewAuditRepo(db),
	}, nil
}

func (a *Activities) ExtractTextActivity(ctx context.Context, in ExtractTextInput) (ExtractTextOutput, error) {
	_ = ctx
	f, r, err := pdf.Open(in.DocumentPath)
	if err != nil {
		return ExtractTextOutput{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return ExtractTextOutput{}, fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return ExtractTextOutput{}, fmt.Errorf("read extracted text: %w", err)
	}
	text := util.SanitizeText(strings.TrimSpace(buf.String()))
	if text == "" {
		return ExtractTextOutput{}, util.ErrNoExtractableText
	}
	return ExtractTextOutput{Text: text}, nil
}

// LocateSectionActivity finds the bibliography section. Embedding providers
// fail over in configured order; ErrSectionNotFound is final and not retried
// against other providers since the heading scan already ran.
func (a *Activities) LocateSectionActivity(ctx context.Context, in LocateSectionInput) (LocateSectionOutput, error) {
	cfg := retriever.Config{
		ChunkSize:    a.cfg.ChunkSize,
		ChunkOverlap: a.cfg.ChunkOverlap,
		TopK:         a.cfg.RetrieveTopK,
		MinScore:     a.cfg.MinSectionScore,
	}
	var lastErr error
	for i := 0; i < a.providers.EmbedCount(); i++ {
		embedder, ref := a.providers.EmbedByIndex(i)
		section, err := retriever.New(embedder, cfg).Locate(ctx, in.Text, in.Query)
		if err == nil {
			return LocateSectionOutput{Section: section}, nil
		}
		if errors.Is(err, util.ErrSectionNotFound) {
			return LocateSectionOutput{}, err
		}
		a.logCall(ctx, in.RunID, "locate_references", providers.ProviderInfo{Name: ref.Name}, err)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = util.ErrSectionNotFound
	}
	return LocateSectionOutput{}, lastErr
}

// ParseReferencesActivity splits the located section into citation entries.
// The model path is attempted first; anything unusable falls back to the
// regex parser so a flaky model never sinks the run by itself.
func (a *Activities) ParseReferencesActivity(ctx context.Context, in ParseReferencesInput) (ParseReferencesOutput, error) {
	var parsed []refs.ParsedReference

	llm, ref := a.providers.LLMByIndex(0)
	resp, info, err := llm.Generate(ctx, providers.GenerateRequest{
		Operation: "parse_references",
		Prompt:    refs.BuildParsePrompt(in.Section),
	})
	if info.Name == "" {
		info.Name = ref.Name
	}
	a.logCall(ctx, in.RunID, "parse_references", info, err)
	if err == nil {
		parsed = refs.ParseLLMReferences(resp.Text)
	}
	if len(parsed) == 0 {
		parsed = refs.FallbackParse(in.Section)
	}
	if len(parsed) == 0 {
		return ParseReferencesOutput{}, util.ErrNoReferences
	}
	return ParseReferencesOutput{References: parsed}, nil
}

// ProcessReferenceActivity classifies and enriches one citation. Capability
// faults degrade the entry; the activity itself only fails on infrastructure
// errors so the workflow retry policy has something meaningful to retry.
func (a *Activities) ProcessReferenceActivity(ctx context.Context, in ProcessReferenceInput) (ProcessReferenceOutput, error) {
	llm, _ := a.providers.LLMByIndex(0)
	p := refs.NewProcessor(llm, a.providers.SearchChain(),
		refs.WithSuggestions(a.cfg.SuggestURLs),
		refs.WithAudit(func(operation string, info providers.ProviderInfo, err error) {
			a.logCall(ctx, in.RunID, operation, info, err)
		}),
	)
	entry, reason := p.Process(ctx, in.Reference, in.Ordinal)
	return ProcessReferenceOutput{Entry: entry, DegradedReason: reason}, nil
}

func (a *Activities) VerifyURLsActivity(ctx context.Context, in VerifyURLsInput) (VerifyURLsOutput, error) {
	prober := verify.NewProber(
		verify.WithCheckTimeout(time.Duration(a.cfg.ProbeTimeoutSecs)*time.Second),
		verify.WithAuthAsWorking(a.cfg.AuthAsWorking),
	)
	scheduler := verify.NewScheduler(prober,
		verify.WithWorkers(a.cfg.VerifyWorkers),
		verify.WithRateLimit(a.cfg.ProbeRatePerSec),
		verify.WithGlobalTimeout(time.Duration(a.cfg.VerifyTimeoutSecs)*time.Second),
	)
	return VerifyURLsOutput{Results: scheduler.VerifyAll(ctx, in.URLs)}, nil
}

func (a *Activities) WriteReportActivity(ctx context.Context, in WriteReportInput) (WriteReportOutput, error) {
	_ = ctx
	base := filepath.Join(a.cfg.DataOutRoot, in.Report.RunID)
	reportPath := filepath.Join(base, "report.json")
	if err := util.WriteJSONAtomic(reportPath, in.Report); err != nil {
		return WriteReportOutput{}, err
	}
	rows := make([]any, 0, len(in.Report.References))
	for _, ref := range in.Report.References {
		rows = append(rows, ref)
	}
	if err := util.WriteJSONLinesAtomic(filepath.Join(base, "references.jsonl"), rows); err != nil {
		return WriteReportOutput{}, err
	}
	return WriteReportOutput{ReportPath: reportPath}, nil
}

// logCall records one capability call, best effort. Runs fine with no
// database configured.
func (a *Activities) logCall(ctx context.Context, runID, operation string, info providers.ProviderInfo, callErr error) {
	status := "ok"
	errType := ""
	if callErr != nil {
		status = "error"
		errType = string(providers.ClassifyError(callErr))
	}
	err := a.auditRepo.Insert(ctx, storage.CallRecord{
		RunID:     runID,
		Operation: operation,
		Provider:  info.Name,
		Model:     info.Model,
		Status:    status,
		ErrorType: errType,
	})
	if err != nil {
		log.Printf("audit insert failed: %v", err)
	}
}
