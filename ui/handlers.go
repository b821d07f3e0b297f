package ui

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"questkit/app"
	"questkit/domain/core"
	"questkit/domain/quest"
	apperrors "questkit/internal/errors"
	"questkit/internal/report"
)

type createSessionRequest struct {
	Label  string       `json:"label"`
	Policy string       `json:"policy"`
	Params quest.Params `json:"params"`
}

type submitResponseRequest struct {
	Intensity float64 `json:"intensity"`
	Response  int     `json:"response"`
}

type recommendationResponse struct {
	SessionID string  `json:"session_id"`
	Policy    string  `json:"policy"`
	Intensity float64 `json:"intensity"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	session, err := a.sessions.CreateSession(r.Context(), req.Label, req.Params, quest.Policy(req.Policy))
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (a *App) handleListSessions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}
	sessions, err := a.sessions.ListSessions(r.Context(), limit)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (a *App) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	session, trials, err := a.sessions.Session(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"session": session,
		"trials":  trials,
	})
}

func (a *App) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	policy := quest.Policy(r.URL.Query().Get("policy"))
	intensity, err := a.sessions.Recommend(r.Context(), id, policy)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendationResponse{
		SessionID: id.String(),
		Policy:    string(policy),
		Intensity: intensity,
	})
}

func (a *App) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	var req submitResponseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	estimates, err := a.sessions.SubmitResponse(r.Context(), id, req.Intensity, req.Response)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, estimates)
}

func (a *App) handleEstimates(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	estimates, err := a.sessions.Estimates(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, estimates)
}

func (a *App) handleFinish(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	estimates, err := a.sessions.Finish(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, estimates)
}

func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	path, err := a.sessions.Export(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}

func (a *App) handleReport(w http.ResponseWriter, r *http.Request) {
	id, ok := a.sessionID(w, r)
	if !ok {
		return
	}
	session, trials, err := a.sessions.Session(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	estimates, err := a.sessions.Estimates(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	md := report.BuildMarkdown(session, trials, estimates)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(report.RenderHTML(md))
}

func (a *App) handleRunSweep(w http.ResponseWriter, r *http.Request) {
	var cfg app.SweepConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	result, err := a.sweeps.Run(r.Context(), cfg)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *App) sessionID(w http.ResponseWriter, r *http.Request) (core.SessionID, bool) {
	id, err := core.ParseSessionID(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return "", false
	}
	return id, true
}

// writeError maps domain errors onto HTTP status codes
func (a *App) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrSessionFinished):
		status = http.StatusConflict
	case core.IsInputError(err) || core.IsConfigError(err):
		status = http.StatusBadRequest
	case core.IsDegeneracyError(err):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed (code=%s): %v", apperrors.GetCode(err), err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
