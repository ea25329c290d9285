package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"refcheck/internal/config"
	"refcheck/internal/models"
	"refcheck/internal/util"
	"refcheck/internal/workflows"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

type Server struct {
	cfg      config.Config
	temporal tclient.Client
}

func NewServer(cfg config.Config) *Server {
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		panic(err)
	}
	return &Server{cfg: cfg, temporal: tc}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/runs", s.handleRuns)
	mux.HandleFunc("/runs/", s.handleRunScoped)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// handleRuns starts a pipeline run from either a multipart PDF upload or a
// JSON body carrying raw text.
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}

	runID := uuid.NewString()
	input := workflows.RunInput{RunID: runID, MaxParallel: s.cfg.EnrichWorkers}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(128 << 20); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
			return
		}
		fh, ok := firstSingleFile(r.MultipartForm.File)
		if !ok || !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("no pdf file provided"))
			return
		}
		path, err := saveUploadedFile(s.cfg.DataInRoot, fh)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		input.DocumentPath = path
		input.Query = r.FormValue("query")
	} else {
		var req struct {
			Text  string `json:"text"`
			Query string `json:"query"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("text is required"))
			return
		}
		input.Text = req.Text
		input.Query = req.Query
	}

	we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:        "refcheck-" + runID,
		TaskQueue: s.cfg.TemporalTaskQueue,
	}, workflows.ReferenceCheckWorkflow, input)
	if err != nil {
		writeErr(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"run_id":      runID,
		"workflow_id": we.GetID(),
	})
}

func (s *Server) handleRunScoped(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/runs/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		s.handleRunStatus(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "report":
		s.handleRunReport(w, r, parts[0])
	default:
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
	}
}

func (s *Server) handleRunStatus(w http.ResponseWriter, r *http.Request, runID string) {
	workflowID := "refcheck-" + runID
	desc, err := s.temporal.DescribeWorkflowExecution(r.Context(), workflowID, "")
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	wfStatus := desc.GetWorkflowExecutionInfo().GetStatus()

	resp, err := s.temporal.QueryWorkflow(r.Context(), workflowID, "", workflows.QueryGetRunStatus)
	if err != nil {
		// Terminal workflows may no longer answer queries; fall back to
		// the execution status alone.
		phase := models.PhaseFailed
		if wfStatus == enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED {
			phase = models.PhaseCompleted
		}
		writeJSON(w, http.StatusOK, workflows.RunStatus{RunID: runID, Phase: phase})
		return
	}
	var status workflows.RunStatus
	if err := resp.Get(&status); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request, runID string) {
	workflowID := "refcheck-" + runID
	desc, err := s.temporal.DescribeWorkflowExecution(r.Context(), workflowID, "")
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	switch desc.GetWorkflowExecutionInfo().GetStatus() {
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING:
		writeErr(w, http.StatusConflict, fmt.Errorf("run still in progress"))
		return
	default:
		writeErr(w, http.StatusConflict, fmt.Errorf("run did not complete"))
		return
	}
	var report models.Report
	if err := s.temporal.GetWorkflow(r.Context(), workflowID, "").Get(r.Context(), &report); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func firstSingleFile(files map[string][]*multipart.FileHeader) (*multipart.FileHeader, bool) {
	for _, fhs := range files {
		if len(fhs) > 0 {
			return fhs[0], true
		}
	}
	return nil, false
}

// saveUploadedFile stores the upload under a content-hash name, so resubmitting
// the same document reuses one file on disk.
func saveUploadedFile(dstDir string, fh *multipart.FileHeader) (string, error) {
	if err := util.EnsureDir(dstDir); err != nil {
		return "", err
	}
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(dstDir, "upload-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp upload: %w", err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("rewind upload: %w", err)
	}
	docID, err := util.SHA256HexFromReader(tmp)
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("hash upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	final := util.SafeJoin(dstDir, docID+".pdf")
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return final, nil
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func toAPIError(status int, err error) apiError {
	msg := "Request failed."
	code := "RC-API-4000"
	if status >= 500 {
		return apiError{Code: "RC-API-5000", Message: "Internal server error. Please retry or check service logs."}
	}
	switch status {
	case http.StatusBadRequest:
		code = "RC-API-4001"
		msg = "Invalid request. Check inputs and retry."
	case http.StatusNotFound:
		code = "RC-API-4004"
		msg = "Requested run was not found."
	case http.StatusConflict:
		code = "RC-API-4009"
		msg = "Run is not in a state that allows this operation."
	case http.StatusMethodNotAllowed:
		code = "RC-API-4005"
		msg = "This endpoint does not support the requested method."
	}
	if status >= 400 && status < 500 && err != nil {
		low := strings.ToLower(err.Error())
		switch {
		case strings.Contains(low, "text is required"):
			msg = "Request body must include document text."
		case strings.Contains(low, "no pdf file provided"):
			msg = "No PDF file was provided."
		case strings.Contains(low, "invalid json"):
			msg = "Malformed JSON request body."
		case strings.Contains(low, "still in progress"):
			msg = "Run is still in progress; poll status and retry."
		}
	}
	return apiError{Code: code, Message: msg}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	apiErr := toAPIError(code, err)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"message": apiErr.Message,
		},
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
