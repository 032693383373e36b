package handlers

import (
	"context"
	"net/http"
	"time"

	"malkhana-backend/internal/logger"
	"malkhana-backend/internal/services"
	"malkhana-backend/pkg/utils"
)

type ReportHandler struct {
	Service *services.ReportService
	log     *logger.Logger
}

func NewReportHandler(service *services.ReportService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{Service: service, log: log}
}

// Overview handles GET /api/v1/reports/overview (ADMIN)
func (h *ReportHandler) Overview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	overview, err := h.Service.Overview(ctx)
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	utils.OK(w, overview)
}
