package handlers

import (
	"fmt"
	"net/http"

	"malkhana-backend/internal/logger"
	"malkhana-backend/internal/models"
	"malkhana-backend/internal/services"
	"malkhana-backend/pkg/utils"
)

type TransferHandler struct {
	Service *services.TransferService
	log     *logger.Logger
}

func NewTransferHandler(s *services.TransferService, log *logger.Logger) *TransferHandler {
	return &TransferHandler{Service: s, log: log}
}

// Record handles POST /api/v1/transfers
func (h *TransferHandler) Record(w http.ResponseWriter, r *http.Request) {
	officer, err := caller(r)
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	var req models.RecordTransferRequest
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, h.log, err)
		return
	}

	transfer, err := h.Service.Record(r.Context(), &req, officer)
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	utils.Created(w, "Custody transfer recorded successfully", map[string]interface{}{"transfer": transfer})
}

// History handles GET /api/v1/transfers/evidence/{evidenceId}
func (h *TransferHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "evidenceId")
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	transfers, err := h.Service.History(r.Context(), id)
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	utils.List(w, map[string]interface{}{"transfers": transfers}, len(transfers))
}

// CustodyReport handles GET /api/v1/transfers/evidence/{evidenceId}/report.pdf
func (h *TransferHandler) CustodyReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "evidenceId")
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	doc, err := h.Service.CustodyReportPDF(r.Context(), id)
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"custody_%s.pdf\"", id))
	w.Write(doc)
}
