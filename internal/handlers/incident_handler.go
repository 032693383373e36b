package handlers

import (
	"fmt"
	"net/http"

	"malkhana-backend/internal/logger"
	"malkhana-backend/internal/models"
	"malkhana-backend/internal/services"
	"malkhana-backend/pkg/utils"
)

type IncidentHandler struct {
	Service *services.IncidentService
	log     *logger.Logger
}

func NewIncidentHandler(s *services.IncidentService, log *logger.Logger) *IncidentHandler {
	return &IncidentHandler{Service: s, log: log}
}

// Create handles POST /api/v1/incidents
func (h *IncidentHandler) Create(w http.ResponseWriter, r *http.Request) {
	officer, err := caller(r)
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	var req models.CreateIncidentRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, h.log, err)
		return
	}

	incident, err := h.Service.Create(r.Context(), &req, officer)
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	utils.Created(w, "Incident registered successfully", map[string]interface{}{"incident": incident})
}

// List handles GET /api/v1/incidents
func (h *IncidentHandler) List(w http.ResponseWriter, r *http.Request) {
	incidents, err := h.Service.List(r.Context())
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	utils.List(w, map[string]interface{}{"incidents": incidents}, len(incidents))
}

// Get handles GET /api/v1/incidents/{id}
func (h *IncidentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	incident, err := h.Service.Get(r.Context(), id)
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	utils.OK(w, map[string]interface{}{"incident": incident})
}

// Search handles GET /api/v1/incidents/search?station&firNumber&year&status&q
func (h *IncidentHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	incidents, err := h.Service.Search(r.Context(), models.IncidentQuery{
		Station:   q.Get("station"),
		FIRNumber: q.Get("firNumber"),
		Year:      q.Get("year"),
		Status:    q.Get("status"),
		Keyword:   q.Get("q"),
	})
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	utils.List(w, map[string]interface{}{"incidents": incidents}, len(incidents))
}

// Metrics handles GET /api/v1/incidents/metrics
func (h *IncidentHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.Service.Metrics(r.Context())
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	utils.OK(w, map[string]interface{}{"metrics": m})
}

// PendingAlerts handles GET /api/v1/incidents/alerts/pending?days=N
func (h *IncidentHandler) PendingAlerts(w http.ResponseWriter, r *http.Request) {
	days, err := services.ParseThresholdDays(r.URL.Query().Get("days"))
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	incidents, err := h.Service.ListLongPending(r.Context(), days)
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	utils.Success(w, http.StatusOK,
		fmt.Sprintf("Incidents pending more than %d days", days),
		map[string]interface{}{"incidents": incidents},
		map[string]int{"count": len(incidents), "thresholdDays": days},
	)
}

// Dashboard handles GET /api/v1/incidents/dashboard?days=N
func (h *IncidentHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	days, err := services.ParseThresholdDays(r.URL.Query().Get("days"))
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	d, err := h.Service.Dashboard(r.Context(), days)
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	utils.OK(w, d)
}
