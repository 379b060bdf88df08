package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/portoseguro/backend/internal/domain/entities"
)

const (
	defaultListedItems   = 10
	defaultSymptomsShown = 10
)

// AnalysisService defines the analysis operations used by the handlers.
type AnalysisService interface {
	Defaults() entities.AnalysisParams
	Triggers(ctx context.Context, params entities.AnalysisParams) (*entities.TriggerReport, error)
	Overview(ctx context.Context, symptomLimit int) (*entities.Overview, error)
}

// AnalysisHandler serves trigger reports and the diary overview.
type AnalysisHandler struct {
	service AnalysisService
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{service: service}
}

// TriggersResponse is the trigger report plus its two ranked views.
type TriggersResponse struct {
	Report   *entities.TriggerReport `json:"report"`
	Safest   []entities.TriggerStat  `json:"safest"`
	Suspects []entities.TriggerStat  `json:"suspects"`
}

// GetTriggers handles GET /api/analysis/triggers
func (h *AnalysisHandler) GetTriggers(w http.ResponseWriter, r *http.Request) {
	params, limit, err := h.parseTriggerQuery(r)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	report, err := h.service.Triggers(r.Context(), params)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, TriggersResponse{
		Report:   report,
		Safest:   report.Safest(limit),
		Suspects: report.Suspects(limit),
	})
}

func (h *AnalysisHandler) parseTriggerQuery(r *http.Request) (entities.AnalysisParams, int, error) {
	defaults := h.service.Defaults()
	var params entities.AnalysisParams
	var err error

	if params.EffectWindowDays, err = queryInt(r, "window_days", defaults.EffectWindowDays); err != nil {
		return params, 0, err
	}
	intensity, err := queryInt(r, "min_intensity", int(defaults.MinIntensity))
	if err != nil {
		return params, 0, err
	}
	params.MinIntensity = entities.Level(intensity)
	if params.MinExposureDays, err = queryInt(r, "min_days", defaults.MinExposureDays); err != nil {
		return params, 0, err
	}
	if params.CrisisThreshold, err = queryInt(r, "crisis_threshold", defaults.CrisisThreshold); err != nil {
		return params, 0, err
	}
	params.Crisis = defaults.Crisis
	if raw := strings.TrimSpace(r.URL.Query().Get("crisis")); raw != "" {
		params.Crisis = entities.CrisisMode(strings.ToLower(raw))
	}

	limit, err := queryInt(r, "limit", defaultListedItems)
	if err != nil {
		return params, 0, err
	}
	return params, limit, nil
}

// GetOverview handles GET /api/analysis/overview
func (h *AnalysisHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultSymptomsShown)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	overview, err := h.service.Overview(r.Context(), limit)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, overview)
}
