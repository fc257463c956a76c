package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/api"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/apply"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/ats"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/internal/config"
	"github.com/pooja-fusiongs/ai-interview-platform-sub000/pkg/log"
)

type jobResponse struct {
	api.Job
	HasApplied bool `json:"has_applied"`
}

type jobListResponse struct {
	Jobs  []jobResponse `json:"jobs"`
	Total int           `json:"total"`
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jobList, err := s.backend.ListJobs(r.Context())
	if err != nil {
		writeBackendError(w, err)
		return
	}

	query := r.URL.Query()
	filtered := filterJobs(jobList,
		query.Get("search"), query.Get("status"), query.Get("department"))

	ids := make([]int64, 0, len(filtered))
	for _, job := range filtered {
		ids = append(ids, job.ID)
	}
	applied, err := s.reconciler.Reconcile(r.Context(), ids, s.candidateEmail, s.candidateRole)
	if err != nil {
		writeBackendError(w, err)
		return
	}

	ret := make([]jobResponse, 0, len(filtered))
	for _, job := range filtered {
		ret = append(ret, jobResponse{Job: job, HasApplied: applied[job.ID]})
	}
	writeJSON(w, http.StatusOK, jobListResponse{Jobs: ret, Total: len(ret)})
}

// filterJobs applies the list-page filters: free-text search over
// title, company and location, plus exact status and department.
func filterJobs(jobList []api.Job, search, status, department string) []api.Job {
	search = strings.ToLower(strings.TrimSpace(search))
	ret := make([]api.Job, 0, len(jobList))
	for _, job := range jobList {
		if status != "" && string(job.Status) != status {
			continue
		}
		if department != "" && !strings.EqualFold(job.Department, department) {
			continue
		}
		if search != "" {
			haystack := strings.ToLower(job.Title + " " + job.Company + " " + job.Location)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		ret = append(ret, job)
	}
	return ret
}

func (s *Server) handleJobDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id, ok := parseIDPath(w, r.URL.Path, "/api/jobs/")
	if !ok {
		return
	}

	job, err := s.backend.GetJob(r.Context(), id)
	if err != nil {
		writeBackendError(w, err)
		return
	}

	applied, err := s.reconciler.Reconcile(r.Context(), []int64{id}, s.candidateEmail, s.candidateRole)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, jobResponse{Job: *job, HasApplied: applied[id]})
}

type submitApplicationRequest struct {
	JobID        int64                     `json:"job_id"`
	Personal     apply.PersonalInfo        `json:"personal_info"`
	Professional apply.ProfessionalDetails `json:"professional_details"`
	CoverLetter  string                    `json:"cover_letter"`
	ResumeName   string                    `json:"resume_name"`
	ResumeBase64 string                    `json:"resume_base64"`
}

type submitApplicationResponse struct {
	ApplicationID int64  `json:"application_id"`
	ResumeState   string `json:"resume_state"`
	ResumeStage   string `json:"resume_stage,omitempty"`
	ResumeError   string `json:"resume_error,omitempty"`
}

func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req submitApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if req.JobID <= 0 {
		writeError(w, http.StatusBadRequest, "job_id is required")
		return
	}

	var resumeContent []byte
	if req.ResumeBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.ResumeBase64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "resume_base64 is not valid base64")
			return
		}
		resumeContent = decoded
	}

	wizard := apply.NewWizard(req.JobID)
	if err := wizard.SetPersonalInfo(req.Personal); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := wizard.SetProfessionalDetails(req.Professional); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := wizard.SetDocuments(apply.Documents{
		ResumeName:  req.ResumeName,
		Resume:      resumeContent,
		CoverLetter: req.CoverLetter,
	}); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := s.submitter.Submit(r.Context(), wizard)
	if err != nil {
		writeBackendError(w, err)
		return
	}

	resp := submitApplicationResponse{
		ApplicationID: outcome.ApplicationID,
		ResumeState:   outcome.Resume.State.String(),
		ResumeStage:   outcome.Resume.Stage,
	}
	if outcome.Resume.Err != nil {
		resp.ResumeError = outcome.Resume.Err.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleResumeTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.queue.List())
}

func (s *Server) handleResumeTaskRetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// /api/resume/tasks/{id}/retry
	rest := strings.TrimPrefix(r.URL.Path, "/api/resume/tasks/")
	taskID := strings.TrimSuffix(rest, "/retry")
	if taskID == rest || taskID == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	task, err := s.queue.Retry(taskID)
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, task)
}

type providerResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ids := ats.Providers()
	ret := make([]providerResponse, 0, len(ids))
	for _, id := range ids {
		ret = append(ret, providerResponse{ID: id, DisplayName: ats.ProviderDisplayName(id)})
	}
	writeJSON(w, http.StatusOK, ret)
}

func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if s.connections.RefreshedAt().IsZero() || r.URL.Query().Get("refresh") == "true" {
			refreshed, err := s.connections.Refresh(r.Context())
			if err != nil {
				writeBackendError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, refreshed)
			return
		}
		writeJSON(w, http.StatusOK, s.connections.Connections())
	case http.MethodPost:
		var req api.ATSConnectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		created, err := s.connections.Create(r.Context(), req)
		if err != nil {
			if isBackendError(err) {
				writeBackendError(w, err)
			} else {
				writeError(w, http.StatusBadRequest, err.Error())
			}
			return
		}
		writeJSON(w, http.StatusCreated, created)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleConnectionDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/ats/connections/")
	idPart, action, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid connection id")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodPut:
		var req api.ATSConnectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		updated, err := s.connections.Update(r.Context(), id, req)
		if err != nil {
			if isBackendError(err) {
				writeBackendError(w, err)
			} else {
				writeError(w, http.StatusBadRequest, err.Error())
			}
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case action == "" && r.Method == http.MethodDelete:
		if err := s.connections.Delete(r.Context(), id); err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": true})

	case action == "test" && r.Method == http.MethodPost:
		result, err := s.connections.Test(r.Context(), id)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case action == "sync" && r.Method == http.MethodPost:
		var req struct {
			SyncType string `json:"sync_type"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := s.connections.Sync(r.Context(), id, req.SyncType); err != nil {
			if isBackendError(err) {
				writeBackendError(w, err)
			} else {
				writeError(w, http.StatusBadRequest, err.Error())
			}
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"triggered": true})

	case action == "sync-logs" && r.Method == http.MethodGet:
		logs, err := s.connections.SyncLogs(r.Context(), id)
		if err != nil {
			// Backend unavailable: fall back to the archived history.
			if s.history != nil {
				if archived, herr := s.history.RecentSyncLogs(r.Context(), id, 50); herr == nil {
					log.Warn("Serving archived sync logs for connection %d: %v", id, err)
					writeJSON(w, http.StatusOK, archived)
					return
				}
			}
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, logs)

	case action == "job-mappings" && r.Method == http.MethodGet:
		mappings, err := s.connections.JobMappings(r.Context(), id)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mappings)

	case action == "candidate-mappings" && r.Method == http.MethodGet:
		mappings, err := s.connections.CandidateMappings(r.Context(), id)
		if err != nil {
			writeBackendError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, mappings)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.monitor == nil {
		writeError(w, http.StatusNotImplemented, "sync monitor is not configured")
		return
	}
	info, err := s.monitor.TriggerInfo()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"expression": info.Expression,
		"next":       info.Next,
		"last":       info.Last,
		"last_run":   s.monitor.LastRunTime(),
	})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var filter api.FeedbackFilter
	query := r.URL.Query()
	if raw := query.Get("job_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid job_id")
			return
		}
		filter.JobID = id
	}
	if raw := query.Get("candidate_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid candidate_id")
			return
		}
		filter.CandidateID = id
	}

	feedback, err := s.backend.ListFeedback(r.Context(), filter)
	if err != nil {
		writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feedback)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	if s.session == nil {
		writeError(w, http.StatusNotImplemented, "session controller is not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"state":     s.session.State().String(),
			"signed_in": s.session.Token() != "",
		})
	case http.MethodPost:
		var req struct {
			Token string `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if strings.TrimSpace(req.Token) == "" {
			writeError(w, http.StatusBadRequest, "token is required")
			return
		}
		if err := s.session.SetToken(req.Token); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"state": s.session.State().String(),
		})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		writeError(w, http.StatusNotImplemented, "settings store is not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		settings, err := s.settings.GetRuntimeSettings()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, settings)
	case http.MethodPut:
		var req config.RuntimeSettings
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		saved, err := s.settings.UpdateRuntimeSettings(req)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if s.applier != nil {
			if err := s.applier(saved); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		writeJSON(w, http.StatusOK, saved)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

func parseIDPath(w http.ResponseWriter, urlPath, prefix string) (int64, bool) {
	raw := strings.TrimSuffix(strings.TrimPrefix(urlPath, prefix), "/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func isBackendError(err error) bool {
	var apiErr *api.APIError
	return errors.As(err, &apiErr) ||
		errors.Is(err, api.ErrUnauthorized) ||
		errors.Is(err, api.ErrNotFound) ||
		errors.Is(err, api.ErrRateLimited)
}

// writeBackendError translates backend client failures into gateway
// responses, preserving auth and not-found semantics.
func writeBackendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "session expired")
	case errors.Is(err, api.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, api.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, api.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
