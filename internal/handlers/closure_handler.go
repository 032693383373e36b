package handlers

import (
	"net/http"

	"malkhana-backend/internal/logger"
	"malkhana-backend/internal/models"
	"malkhana-backend/internal/services"
	"malkhana-backend/pkg/utils"
)

type ClosureHandler struct {
	Service *services.ClosureService
	log     *logger.Logger
}

func NewClosureHandler(s *services.ClosureService, log *logger.Logger) *ClosureHandler {
	return &ClosureHandler{Service: s, log: log}
}

// Close handles POST /api/v1/closures (ADMIN)
func (h *ClosureHandler) Close(w http.ResponseWriter, r *http.Request) {
	officer, err := caller(r)
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	var req models.CloseIncidentRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, h.log, err)
		return
	}

	closure, incident, err := h.Service.Close(r.Context(), &req, officer)
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	utils.Created(w, "Incident closed successfully", map[string]interface{}{
		"closure":  closure,
		"incident": incident,
	})
}

// GetByIncident handles GET /api/v1/closures/incident/{incidentId}
func (h *ClosureHandler) GetByIncident(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "incidentId")
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	closure, found, err := h.Service.GetByIncident(r.Context(), id)
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	if !found {
		utils.Fail(w, http.StatusNotFound, "No closure record found for this incident")
		return
	}
	utils.OK(w, map[string]interface{}{"closure": closure})
}
