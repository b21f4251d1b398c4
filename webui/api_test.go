package webui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"go_backend/alert"
	"go_backend/core"
	"go_backend/db"
	"go_backend/metrics"
)

// fakeController records calls and returns canned data.
type fakeController struct {
	startStatus    string
	stopStatus     string
	state          core.StateSnapshot
	settings       core.Settings
	alerts         []alert.Alert
	respondErr     error
	lastResponse   alert.Response
	lastAlertID    string
	triggered      alert.Kind
	triggeredLevel float64
	focusLevel     float64
	history        []metrics.FocusReading
	stats          metrics.AlertStats
	status         metrics.EngineStatus
	samples        []db.FocusSampleRecord
	alertRecords   []db.AlertRecord
	historyErr     error
}

func (f *fakeController) StartMonitoring() (string, error) { return f.startStatus, nil }
func (f *fakeController) StopMonitoring() (string, error)  { return f.stopStatus, nil }
func (f *fakeController) State() core.StateSnapshot        { return f.state }
func (f *fakeController) Settings() core.Settings          { return f.settings }

func (f *fakeController) UpdateSettings(update core.SettingsUpdate) core.Settings {
	if update.AutoStartEnabled != nil {
		f.settings.AutoStartEnabled = *update.AutoStartEnabled
	}
	if update.SnoozeFeatureEnabled != nil {
		f.settings.SnoozeFeatureEnabled = *update.SnoozeFeatureEnabled
	}
	return f.settings
}

func (f *fakeController) PendingAlerts() []alert.Alert { return f.alerts }

func (f *fakeController) RespondToAlert(alertID string, response alert.Response) (alert.Result, error) {
	if f.respondErr != nil {
		return alert.Result{}, f.respondErr
	}
	f.lastAlertID = alertID
	f.lastResponse = response
	return alert.Result{AlertID: alertID, Response: string(response) + "d"}, nil
}

func (f *fakeController) TriggerAlert(kind alert.Kind, focusLevel float64) (alert.Alert, error) {
	f.triggered = kind
	f.triggeredLevel = focusLevel
	return alert.Alert{ID: "test-alert", Kind: kind, Timestamp: time.Now()}, nil
}

func (f *fakeController) FocusLevel() float64 { return f.focusLevel }

func (f *fakeController) FocusHistory(limit int) []metrics.FocusReading {
	if limit < len(f.history) {
		return f.history[:limit]
	}
	return f.history
}

func (f *fakeController) AlertStats() metrics.AlertStats { return f.stats }

func (f *fakeController) Status() metrics.EngineStatus { return f.status }

func (f *fakeController) SampleHistory(ctx context.Context, limit int) ([]db.FocusSampleRecord, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	if limit < len(f.samples) {
		return f.samples[:limit], nil
	}
	return f.samples, nil
}

func (f *fakeController) AlertHistory(ctx context.Context, limit int) ([]db.AlertRecord, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	if limit < len(f.alertRecords) {
		return f.alertRecords[:limit], nil
	}
	return f.alertRecords, nil
}

func newTestServer(t *testing.T, ctrl Controller, password string) *Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{Password: password}, ctrl, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeController{}, "")

	rec := doRequest(t, srv, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var body map[string]string
	decodeBody(t, rec, &body)
	if body["status"] != "healthy" {
		t.Errorf("body = %v", body)
	}
}

func TestStartStopEndpoints(t *testing.T) {
	ctrl := &fakeController{startStatus: "started", stopStatus: "stopped"}
	srv := newTestServer(t, ctrl, "")

	rec := doRequest(t, srv, http.MethodPost, "/api/system/start", "")
	var body map[string]string
	decodeBody(t, rec, &body)
	if body["status"] != "started" {
		t.Errorf("start body = %v", body)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/system/stop", "")
	decodeBody(t, rec, &body)
	if body["status"] != "stopped" {
		t.Errorf("stop body = %v", body)
	}

	// GET on a POST route is rejected by the mux.
	rec = doRequest(t, srv, http.MethodGet, "/api/system/start", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET start status = %d, want 405", rec.Code)
	}
}

func TestStateEndpoint(t *testing.T) {
	ctrl := &fakeController{state: core.StateSnapshot{
		MonitoringActive: true,
		FocusLevel:       0.73,
	}}
	srv := newTestServer(t, ctrl, "")

	rec := doRequest(t, srv, http.MethodGet, "/api/system/state", "")
	var snap core.StateSnapshot
	decodeBody(t, rec, &snap)
	if !snap.MonitoringActive || snap.FocusLevel != 0.73 {
		t.Errorf("state = %+v", snap)
	}
}

func TestAlertsEndpointAlwaysReturnsArray(t *testing.T) {
	srv := newTestServer(t, &fakeController{}, "")

	rec := doRequest(t, srv, http.MethodGet, "/api/alerts", "")
	if !strings.Contains(rec.Body.String(), `"alerts":[]`) {
		t.Errorf("empty alert list not an array: %s", rec.Body.String())
	}
}

func TestAlertRespondEndpoint(t *testing.T) {
	ctrl := &fakeController{}
	srv := newTestServer(t, ctrl, "")

	rec := doRequest(t, srv, http.MethodPost, "/api/alerts/abc-123/respond",
		`{"response":"dismiss"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ctrl.lastAlertID != "abc-123" || ctrl.lastResponse != alert.ResponseDismiss {
		t.Errorf("controller saw %q %q", ctrl.lastAlertID, ctrl.lastResponse)
	}
}

func TestAlertRespondErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		respondErr error
		wantStatus int
	}{
		{"unknown alert", `{"response":"dismiss"}`, alert.ErrNotFound, http.StatusNotFound},
		{"invalid response value", `{"response":"explode"}`, nil, http.StatusBadRequest},
		{"malformed body", `{not json`, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeController{respondErr: tt.respondErr}, "")

			rec := doRequest(t, srv, http.MethodPost, "/api/alerts/x/respond", tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if !strings.Contains(rec.Body.String(), `"error"`) {
				t.Errorf("error body missing: %s", rec.Body.String())
			}
		})
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	ctrl := &fakeController{settings: core.Settings{SnoozeFeatureEnabled: true}}
	srv := newTestServer(t, ctrl, "")

	rec := doRequest(t, srv, http.MethodGet, "/api/settings", "")
	var settings core.Settings
	decodeBody(t, rec, &settings)
	if !settings.SnoozeFeatureEnabled {
		t.Errorf("settings = %+v", settings)
	}

	rec = doRequest(t, srv, http.MethodPut, "/api/settings",
		`{"auto_start_enabled":true}`)
	decodeBody(t, rec, &settings)
	if !settings.AutoStartEnabled {
		t.Errorf("updated settings = %+v", settings)
	}
	// Field absent from the update is untouched.
	if !settings.SnoozeFeatureEnabled {
		t.Errorf("partial update clobbered other field: %+v", settings)
	}
}

func TestSettingsRejectsUnknownField(t *testing.T) {
	srv := newTestServer(t, &fakeController{}, "")

	rec := doRequest(t, srv, http.MethodPut, "/api/settings",
		`{"auto_start":true}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestFocusDataEndpoints(t *testing.T) {
	ctrl := &fakeController{
		focusLevel: 0.42,
		history: []metrics.FocusReading{
			{Timestamp: time.Now(), Level: 0.42},
			{Timestamp: time.Now().Add(-5 * time.Second), Level: 0.55},
		},
		stats: metrics.AlertStats{TotalRaised: 7},
	}
	srv := newTestServer(t, ctrl, "")

	rec := doRequest(t, srv, http.MethodGet, "/api/data/focus-level", "")
	var level map[string]float64
	decodeBody(t, rec, &level)
	if level["focus_level"] != 0.42 {
		t.Errorf("focus level = %v", level)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/data/focus-history?limit=1", "")
	var history struct {
		Readings []metrics.FocusReading `json:"readings"`
	}
	decodeBody(t, rec, &history)
	if len(history.Readings) != 1 {
		t.Errorf("history = %v", history.Readings)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/data/alert-stats", "")
	var stats metrics.AlertStats
	decodeBody(t, rec, &stats)
	if stats.TotalRaised != 7 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestStatusEndpoint(t *testing.T) {
	ctrl := &fakeController{
		status: metrics.EngineStatus{
			StartTime:     time.Now().Add(-time.Hour),
			Uptime:        time.Hour,
			ReadingCount:  12,
			LatestReading: &metrics.FocusReading{Timestamp: time.Now(), Level: 0.42},
		},
	}
	srv := newTestServer(t, ctrl, "")

	rec := doRequest(t, srv, http.MethodGet, "/api/system/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var status metrics.EngineStatus
	decodeBody(t, rec, &status)
	if status.ReadingCount != 12 {
		t.Errorf("reading count = %d, want 12", status.ReadingCount)
	}
	if status.LatestReading == nil || status.LatestReading.Level != 0.42 {
		t.Errorf("latest reading = %+v", status.LatestReading)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	resolved := time.Now()
	ctrl := &fakeController{
		samples: []db.FocusSampleRecord{
			{ID: 2, Keystrokes: 40, Score: 0.7},
			{ID: 1, Keystrokes: 12, Score: -1},
		},
		alertRecords: []db.AlertRecord{
			{ID: 1, AlertID: "a-1", Kind: "focus_drop", Resolution: "dismissed", ResolvedAt: &resolved},
		},
	}
	srv := newTestServer(t, ctrl, "")

	rec := doRequest(t, srv, http.MethodGet, "/api/data/sample-history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var samplesBody struct {
		Samples []db.FocusSampleRecord `json:"samples"`
	}
	decodeBody(t, rec, &samplesBody)
	if len(samplesBody.Samples) != 2 || samplesBody.Samples[0].ID != 2 {
		t.Errorf("samples = %+v", samplesBody.Samples)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/data/sample-history?limit=1", "")
	decodeBody(t, rec, &samplesBody)
	if len(samplesBody.Samples) != 1 {
		t.Errorf("limited samples = %+v", samplesBody.Samples)
	}

	rec = doRequest(t, srv, http.MethodGet, "/api/data/alert-history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var alertsBody struct {
		Alerts []db.AlertRecord `json:"alerts"`
	}
	decodeBody(t, rec, &alertsBody)
	if len(alertsBody.Alerts) != 1 || alertsBody.Alerts[0].Resolution != "dismissed" {
		t.Errorf("alerts = %+v", alertsBody.Alerts)
	}
}

func TestHistoryEndpointsWithoutPersistence(t *testing.T) {
	srv := newTestServer(t, &fakeController{}, "")

	for _, path := range []string{"/api/data/sample-history", "/api/data/alert-history"} {
		rec := doRequest(t, srv, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, rec.Code)
		}
		if body := rec.Body.String(); strings.Contains(body, "null") {
			t.Errorf("%s body = %s, want empty array", path, body)
		}
	}
}

func TestHistoryEndpointsSurfaceQueryFailure(t *testing.T) {
	srv := newTestServer(t, &fakeController{historyErr: errors.New("disk gone")}, "")

	rec := doRequest(t, srv, http.MethodGet, "/api/data/sample-history", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("sample history status = %d, want 500", rec.Code)
	}
	rec = doRequest(t, srv, http.MethodGet, "/api/data/alert-history", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("alert history status = %d, want 500", rec.Code)
	}
}

func TestTriggerAlertEndpoint(t *testing.T) {
	ctrl := &fakeController{focusLevel: 0.72}
	srv := newTestServer(t, ctrl, "")

	// Empty body defaults to focus_drop at the live score.
	rec := doRequest(t, srv, http.MethodPost, "/api/wizard/trigger-alert", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if ctrl.triggered != alert.KindFocusDrop {
		t.Errorf("triggered = %q", ctrl.triggered)
	}
	if ctrl.triggeredLevel != 0.72 {
		t.Errorf("triggered level = %v, want live score", ctrl.triggeredLevel)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/wizard/trigger-alert",
		`{"type":"break_suggestion","focus_level":0.3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ctrl.triggered != alert.KindBreakSuggestion {
		t.Errorf("triggered = %q", ctrl.triggered)
	}
	if ctrl.triggeredLevel != 0.3 {
		t.Errorf("triggered level = %v, want 0.3", ctrl.triggeredLevel)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/wizard/trigger-alert",
		`{"type":"nonsense"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/wizard/trigger-alert",
		`{"focus_level":1.5}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("out-of-range level status = %d, want 400", rec.Code)
	}
}

func TestBasicAuthProtection(t *testing.T) {
	srv := newTestServer(t, &fakeController{}, "secret")

	// Health stays open.
	rec := doRequest(t, srv, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}

	// Everything else requires the password.
	rec = doRequest(t, srv, http.MethodGet, "/api/system/state", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/system/state", nil)
	req.SetBasicAuth("anyone", "secret")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/system/state", nil)
	req.SetBasicAuth("anyone", "wrong")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want 401", rec.Code)
	}
}
