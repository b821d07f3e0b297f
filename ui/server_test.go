package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questkit/adapters/memory"
	"questkit/app"
	"questkit/domain/quest"
	"questkit/models"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	store := memory.NewSessionStore()
	sessions := app.NewSessionService(store, store, nil, nil)
	sweeps := app.NewSweepService(nil)
	return NewApp(sessions, sweeps, nil)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, h http.Handler) models.ExperimentSession {
	t.Helper()
	params := quest.DefaultParams()
	params.PriorMean = 0.9
	rec := doJSON(t, h, http.MethodPost, "/api/sessions", createSessionRequest{
		Label:  "unit",
		Params: params,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var session models.ExperimentSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	return session
}

func TestHealth(t *testing.T) {
	h := newTestApp(t).Handler()
	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	h := newTestApp(t).Handler()
	session := createSession(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/sessions/"+session.ID.String()+"/recommendation", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var reco recommendationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reco))
	assert.InDelta(t, 0.9, reco.Intensity, 2.5, "with no trials the recommendation stays inside the prior grid")

	for i := 0; i < 10; i++ {
		rec = doJSON(t, h, http.MethodPost, "/api/sessions/"+session.ID.String()+"/responses",
			submitResponseRequest{Intensity: reco.Intensity, Response: 1})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodGet, "/api/sessions/"+session.ID.String()+"/estimates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var estimates models.SessionEstimates
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &estimates))
	assert.Equal(t, 10, estimates.TrialCount)
	assert.Greater(t, estimates.SD, 0.0)

	rec = doJSON(t, h, http.MethodGet, "/api/sessions/"+session.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"trials"`)

	rec = doJSON(t, h, http.MethodPost, "/api/sessions/"+session.ID.String()+"/finish", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/sessions/"+session.ID.String()+"/responses",
		submitResponseRequest{Intensity: 0.9, Response: 1})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateSessionRejectsBadParams(t *testing.T) {
	h := newTestApp(t).Handler()
	params := quest.DefaultParams()
	params.Range = -1
	rec := doJSON(t, h, http.MethodPost, "/api/sessions", createSessionRequest{Params: params})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidResponseValueReturns400(t *testing.T) {
	h := newTestApp(t).Handler()
	session := createSession(t, h)
	rec := doJSON(t, h, http.MethodPost, "/api/sessions/"+session.ID.String()+"/responses",
		submitResponseRequest{Intensity: 0.9, Response: 2})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownSessionReturns404(t *testing.T) {
	h := newTestApp(t).Handler()
	rec := doJSON(t, h, http.MethodGet, "/api/sessions/0198c0de-0000-7000-8000-000000000001/estimates", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMalformedSessionIDReturns400(t *testing.T) {
	h := newTestApp(t).Handler()
	rec := doJSON(t, h, http.MethodGet, "/api/sessions/not-a-uuid/estimates", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSessionsHonorsLimit(t *testing.T) {
	h := newTestApp(t).Handler()
	for i := 0; i < 3; i++ {
		createSession(t, h)
	}
	rec := doJSON(t, h, http.MethodGet, "/api/sessions?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sessions []models.ExperimentSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	assert.Len(t, sessions, 2)
}

func TestReportRendersHTML(t *testing.T) {
	h := newTestApp(t).Handler()
	session := createSession(t, h)
	doJSON(t, h, http.MethodPost, "/api/sessions/"+session.ID.String()+"/responses",
		submitResponseRequest{Intensity: 0.9, Response: 1})

	rec := doJSON(t, h, http.MethodGet, "/api/sessions/"+session.ID.String()+"/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), "<h1")
	assert.Contains(t, rec.Body.String(), "<table>")
}

func TestRunSweepOverHTTP(t *testing.T) {
	h := newTestApp(t).Handler()
	params := quest.DefaultParams()
	params.PriorMean = 0.9
	rec := doJSON(t, h, http.MethodPost, "/api/sweeps", app.SweepConfig{
		Params:        params,
		Runs:          2,
		TrialsPerRun:  15,
		ThresholdMean: 1.0,
		ThresholdSD:   0.2,
		Seed:          5,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result app.SweepResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Len(t, result.Results, 2)
	assert.Equal(t, 2, result.Summary.Runs)
}

func TestExportWithoutExporterFails(t *testing.T) {
	h := newTestApp(t).Handler()
	session := createSession(t, h)
	rec := doJSON(t, h, http.MethodPost, fmt.Sprintf("/api/sessions/%s/export", session.ID), nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
