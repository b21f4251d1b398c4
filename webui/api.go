// Package webui provides the ControlAPI: REST handlers over the engine.
package webui

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"go_backend/alert"
	"go_backend/core"
	"go_backend/db"
	"go_backend/metrics"
)

// Controller is the engine surface the API drives. Implemented by the
// monitoring engine; kept as an interface so the package has no
// dependency on the engine itself and tests can fake it.
type Controller interface {
	// StartMonitoring begins the evaluation loop. Returns "started" or
	// "already_running".
	StartMonitoring() (string, error)

	// StopMonitoring halts the evaluation loop. Returns "stopped" or
	// "not_running".
	StopMonitoring() (string, error)

	// State returns an atomic snapshot of the engine state.
	State() core.StateSnapshot

	// Settings returns the current settings.
	Settings() core.Settings

	// UpdateSettings applies a partial update and returns the result.
	UpdateSettings(update core.SettingsUpdate) core.Settings

	// PendingAlerts lists the currently active alerts.
	PendingAlerts() []alert.Alert

	// RespondToAlert applies a user response to an active alert.
	RespondToAlert(alertID string, response alert.Response) (alert.Result, error)

	// TriggerAlert raises an alert at the given focus level immediately,
	// bypassing thresholds and cooldown. Used by the setup wizard to test
	// the watch link.
	TriggerAlert(kind alert.Kind, focusLevel float64) (alert.Alert, error)

	// FocusLevel returns the most recent focus score.
	FocusLevel() float64

	// FocusHistory returns up to limit recent readings, newest first.
	FocusHistory(limit int) []metrics.FocusReading

	// AlertStats returns alert counters since startup.
	AlertStats() metrics.AlertStats

	// Status returns engine telemetry: uptime, retention counters and
	// the most recent reading.
	Status() metrics.EngineStatus

	// SampleHistory returns up to limit persisted interaction samples,
	// newest first. Nil when persistence is disabled.
	SampleHistory(ctx context.Context, limit int) ([]db.FocusSampleRecord, error)

	// AlertHistory returns up to limit persisted alert records, newest
	// first. Nil when persistence is disabled.
	AlertHistory(ctx context.Context, limit int) ([]db.AlertRecord, error)
}

// ControlAPI holds the REST handlers for the control surface.
//
// Endpoints:
//   - GET  /api/health               - liveness probe
//   - POST /api/system/start         - start monitoring
//   - POST /api/system/stop          - stop monitoring
//   - GET  /api/system/state         - engine state snapshot
//   - GET  /api/system/status        - uptime and telemetry summary
//   - GET  /api/alerts               - pending alerts
//   - POST /api/alerts/{id}/respond  - apply an alert response
//   - GET  /api/settings             - current settings
//   - PUT  /api/settings             - partial settings update
//   - GET  /api/data/focus-level     - latest focus score
//   - GET  /api/data/focus-history   - recent focus readings
//   - GET  /api/data/alert-stats     - alert counters
//   - GET  /api/data/sample-history  - persisted interaction samples
//   - GET  /api/data/alert-history   - persisted alert records
//   - POST /api/wizard/trigger-alert - raise a test alert
type ControlAPI struct {
	controller Controller
	logger     *zap.Logger
}

// NewControlAPI creates a ControlAPI over the given controller.
func NewControlAPI(controller Controller, logger *zap.Logger) *ControlAPI {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ControlAPI{controller: controller, logger: logger}
}

// HandleHealth handles GET /api/health.
func (api *ControlAPI) HandleHealth(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// HandleStart handles POST /api/system/start.
func (api *ControlAPI) HandleStart(w http.ResponseWriter, r *http.Request) {
	status, err := api.controller.StartMonitoring()
	if err != nil {
		api.logger.Error("start monitoring failed", zap.Error(err))
		api.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	api.writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// HandleStop handles POST /api/system/stop.
func (api *ControlAPI) HandleStop(w http.ResponseWriter, r *http.Request) {
	status, err := api.controller.StopMonitoring()
	if err != nil {
		api.logger.Error("stop monitoring failed", zap.Error(err))
		api.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	api.writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// HandleState handles GET /api/system/state.
func (api *ControlAPI) HandleState(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusOK, api.controller.State())
}

// HandleAlerts handles GET /api/alerts.
func (api *ControlAPI) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := api.controller.PendingAlerts()
	if alerts == nil {
		alerts = []alert.Alert{}
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

// respondRequest is the body of POST /api/alerts/{id}/respond.
type respondRequest struct {
	Response string `json:"response"`
}

// HandleAlertRespond handles POST /api/alerts/{id}/respond.
func (api *ControlAPI) HandleAlertRespond(w http.ResponseWriter, r *http.Request) {
	alertID := r.PathValue("id")
	if alertID == "" {
		api.writeError(w, http.StatusBadRequest, "missing alert id")
		return
	}

	var req respondRequest
	if err := decodeJSON(r, &req); err != nil {
		api.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	response, err := alert.ParseResponse(req.Response)
	if err != nil {
		api.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := api.controller.RespondToAlert(alertID, response)
	switch {
	case errors.Is(err, alert.ErrNotFound):
		api.writeError(w, http.StatusNotFound, "alert not found")
		return
	case errors.Is(err, alert.ErrInvalidResponse):
		api.writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		api.logger.Error("alert response failed",
			zap.String("alert_id", alertID),
			zap.Error(err),
		)
		api.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	api.writeJSON(w, http.StatusOK, result)
}

// HandleGetSettings handles GET /api/settings.
func (api *ControlAPI) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusOK, api.controller.Settings())
}

// HandlePutSettings handles PUT /api/settings. Unknown fields are
// rejected so typos fail loudly instead of silently changing nothing.
func (api *ControlAPI) HandlePutSettings(w http.ResponseWriter, r *http.Request) {
	var update core.SettingsUpdate
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&update); err != nil {
		api.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	api.writeJSON(w, http.StatusOK, api.controller.UpdateSettings(update))
}

// HandleFocusLevel handles GET /api/data/focus-level.
func (api *ControlAPI) HandleFocusLevel(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusOK, map[string]float64{
		"focus_level": api.controller.FocusLevel(),
	})
}

// HandleFocusHistory handles GET /api/data/focus-history.
func (api *ControlAPI) HandleFocusHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100, 500)
	readings := api.controller.FocusHistory(limit)
	if readings == nil {
		readings = []metrics.FocusReading{}
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"readings": readings})
}

// HandleAlertStats handles GET /api/data/alert-stats.
func (api *ControlAPI) HandleAlertStats(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusOK, api.controller.AlertStats())
}

// HandleStatus handles GET /api/system/status.
func (api *ControlAPI) HandleStatus(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(w, http.StatusOK, api.controller.Status())
}

// HandleSampleHistory handles GET /api/data/sample-history. Returns an
// empty list when persistence is disabled.
func (api *ControlAPI) HandleSampleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 100, 500)
	samples, err := api.controller.SampleHistory(r.Context(), limit)
	if err != nil {
		api.logger.Error("sample history query failed", zap.Error(err))
		api.writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if samples == nil {
		samples = []db.FocusSampleRecord{}
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"samples": samples})
}

// HandleAlertHistory handles GET /api/data/alert-history. Returns an
// empty list when persistence is disabled.
func (api *ControlAPI) HandleAlertHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, 50, 500)
	records, err := api.controller.AlertHistory(r.Context(), limit)
	if err != nil {
		api.logger.Error("alert history query failed", zap.Error(err))
		api.writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if records == nil {
		records = []db.AlertRecord{}
	}
	api.writeJSON(w, http.StatusOK, map[string]any{"alerts": records})
}

// triggerRequest is the body of POST /api/wizard/trigger-alert.
type triggerRequest struct {
	Type       string   `json:"type"`
	FocusLevel *float64 `json:"focus_level"`
}

// HandleTriggerAlert handles POST /api/wizard/trigger-alert. An empty
// body or type defaults to a focus-drop alert; an absent focus_level
// defaults to the live score.
func (api *ControlAPI) HandleTriggerAlert(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := decodeJSON(r, &req); err != nil && err != io.EOF {
		api.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kind := alert.KindFocusDrop
	if req.Type != "" {
		parsed, err := alert.ParseKind(req.Type)
		if err != nil {
			api.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		kind = parsed
	}

	level := api.controller.FocusLevel()
	if req.FocusLevel != nil {
		if *req.FocusLevel < 0 || *req.FocusLevel > 1 {
			api.writeError(w, http.StatusBadRequest, "focus_level must be in [0, 1]")
			return
		}
		level = *req.FocusLevel
	}

	a, err := api.controller.TriggerAlert(kind, level)
	if err != nil {
		api.logger.Error("trigger alert failed", zap.Error(err))
		api.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	api.writeJSON(w, http.StatusOK, map[string]any{"alert": a})
}

// writeJSON writes a JSON response with the given status.
func (api *ControlAPI) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		api.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError writes {"error": message} with the given status.
func (api *ControlAPI) writeError(w http.ResponseWriter, status int, message string) {
	api.writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a bounded request body into v. Returns io.EOF for
// an empty body so callers can treat it as "no fields".
func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(v)
}

// parseLimit reads the limit query parameter, clamped to [1, max].
func parseLimit(r *http.Request, def, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	limit := 0
	for _, c := range raw {
		if c < '0' || c > '9' {
			return def
		}
		limit = limit*10 + int(c-'0')
		if limit > max {
			return max
		}
	}
	if limit < 1 {
		return def
	}
	return limit
}
