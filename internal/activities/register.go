package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ExtractTextActivity)
	w.RegisterActivity(a.LocateSectionActivity)
	w.RegisterActivity(a.ParseReferencesActivity)
	w.RegisterActivity(a.ProcessReferenceActivity)
	w.RegisterActivity(a.VerifyURLsActivity)
	w.RegisterActivity(a.WriteReportActivity)
}
