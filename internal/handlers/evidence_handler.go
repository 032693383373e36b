package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"malkhana-backend/internal/apperr"
	"malkhana-backend/internal/logger"
	"malkhana-backend/internal/models"
	"malkhana-backend/internal/services"
	"malkhana-backend/pkg/utils"
)

const photoField = "photograph"

type EvidenceHandler struct {
	Service        *services.EvidenceService
	maxUploadBytes int64
	log            *logger.Logger
}

// NewEvidenceHandler caps request bodies at maxUploadMB (at least the photo limit).
func NewEvidenceHandler(s *services.EvidenceService, maxUploadMB int64, log *logger.Logger) *EvidenceHandler {
	limit := maxUploadMB << 20
	if limit < services.MaxPhotoBytes {
		limit = services.MaxPhotoBytes + 1<<20
	}
	return &EvidenceHandler{Service: s, maxUploadBytes: limit, log: log}
}

// Register handles POST /api/v1/evidence. Multipart requests may carry a photograph;
// JSON requests register without one.
func (h *EvidenceHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var (
		req   models.RegisterEvidenceRequest
		photo *models.Photo
		err   error
	)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		req, photo, err = h.parseMultipart(r)
	} else {
		err = decodeJSON(r, &req)
	}
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}

	item, err := h.Service.Register(r.Context(), &req, photo)
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	utils.Created(w, "Evidence item registered successfully", map[string]interface{}{"evidenceItem": item})
}

func (h *EvidenceHandler) parseMultipart(r *http.Request) (models.RegisterEvidenceRequest, *models.Photo, error) {
	var req models.RegisterEvidenceRequest
	if err := r.ParseMultipartForm(services.MaxPhotoBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, nil, apperr.BadRequest("File size exceeds the upload limit")
		}
		return req, nil, apperr.BadRequest("Invalid multipart form")
	}

	req = models.RegisterEvidenceRequest{
		IncidentRef:     r.FormValue("incidentRef"),
		ItemCategory:    r.FormValue("itemCategory"),
		AssociatedParty: r.FormValue("associatedParty"),
		ItemDescription: r.FormValue("itemDescription"),
		MeasurementUnit: r.FormValue("measurementUnit"),
		RoomNumber:      r.FormValue("roomNumber"),
		RackNumber:      r.FormValue("rackNumber"),
		CompartmentID:   r.FormValue("compartmentId"),
		Remarks:         r.FormValue("remarks"),
	}
	if raw := strings.TrimSpace(r.FormValue("quantity")); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil {
			return req, nil, apperr.BadRequest("quantity must be a whole number")
		}
		req.Quantity = &qty
	}

	file, _, err := r.FormFile(photoField)
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil, nil
	}
	if err != nil {
		return req, nil, apperr.BadRequest("Invalid photograph upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, services.MaxPhotoBytes+1))
	if err != nil {
		return req, nil, apperr.BadRequest("Invalid photograph upload")
	}
	if len(data) == 0 {
		return req, nil, nil
	}
	// Sniff the bytes; the client supplied part header is not trusted.
	return req, &models.Photo{Data: data, ContentType: http.DetectContentType(data)}, nil
}

// Get handles GET /api/v1/evidence/{id}
func (h *EvidenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	item, err := h.Service.Get(r.Context(), id)
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	utils.OK(w, map[string]interface{}{"evidenceItem": item})
}

// ListByIncident handles GET /api/v1/evidence/incident/{incidentId}
func (h *EvidenceHandler) ListByIncident(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "incidentId")
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	items, err := h.Service.ListByIncident(r.Context(), id)
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	utils.List(w, map[string]interface{}{"evidenceItems": items}, len(items))
}

// Search handles GET /api/v1/evidence/search?incidentId&category&party&q
func (h *EvidenceHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.Service.Search(r.Context(), models.EvidenceQuery{
		IncidentID: q.Get("incidentId"),
		Category:   q.Get("category"),
		Party:      q.Get("party"),
		Keyword:    q.Get("q"),
	})
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	utils.List(w, map[string]interface{}{"evidenceItems": items}, len(items))
}

// Track handles GET /api/v1/evidence/track?code=EVIDENCE:<id>
func (h *EvidenceHandler) Track(w http.ResponseWriter, r *http.Request) {
	item, err := h.Service.ResolveTrackingCode(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		utils.Error(w, h.log, err)
		return
	}
	utils.OK(w, map[string]interface{}{"evidenceItem": item})
}
