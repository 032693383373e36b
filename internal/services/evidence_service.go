package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"malkhana-backend/internal/apperr"
	"malkhana-backend/internal/logger"
	"malkhana-backend/internal/metrics"
	"malkhana-backend/internal/models"
	"malkhana-backend/internal/storage"
	"malkhana-backend/internal/tracking"
)

// MaxPhotoBytes caps an evidence photograph upload.
const MaxPhotoBytes = 10 << 20

var photoExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// PhotoExtension returns the file extension for an accepted photo content type.
func PhotoExtension(contentType string) (string, bool) {
	ext, ok := photoExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	return ext, ok
}

type EvidenceService struct {
	Repo   EvidenceStore
	Blobs  storage.BlobStore
	policy models.LifecyclePolicy
	cache  CacheInvalidator
	log    *logger.Logger
}

func NewEvidenceService(repo EvidenceStore, blobs storage.BlobStore, policy models.LifecyclePolicy, log *logger.Logger) *EvidenceService {
	return &EvidenceService{
		Repo:   repo,
		Blobs:  blobs,
		policy: policy,
		cache:  nopInvalidator{},
		log:    log,
	}
}

func (s *EvidenceService) SetCache(c CacheInvalidator) { s.cache = c }

// Register stores a new evidence item together with its QR tracking image.
// The item row and its tracking code are committed together. On any failure the
// uploaded blobs are deleted again.
func (s *EvidenceService) Register(ctx context.Context, req *models.RegisterEvidenceRequest, photo *models.Photo) (*models.EvidenceItem, error) {
	item, err := s.buildItem(req)
	if err != nil {
		return nil, err
	}

	var photoKey string
	if photo != nil && len(photo.Data) > 0 {
		ext, ok := PhotoExtension(photo.ContentType)
		if !ok {
			return nil, apperr.BadRequest("Only image files (JPEG, PNG, GIF, WEBP) are allowed")
		}
		if len(photo.Data) > MaxPhotoBytes {
			return nil, apperr.BadRequest("photograph exceeds the %d MB limit", MaxPhotoBytes>>20)
		}
		photoKey = storage.PhotoKey(item.ID.String(), ext)
		url, err := s.Blobs.Put(ctx, photoKey, photo.Data, photo.ContentType)
		if err != nil {
			metrics.BlobUploadFailures.WithLabelValues("photo").Inc()
			s.log.Error("photo upload failed", "evidence_id", item.ID, "error", err)
			return nil, apperr.Internal(err)
		}
		item.PhotographURL = &url
	}

	err = s.Repo.CreateWithTracking(ctx, item, s.policy.LockClosedIncidents, s.uploadTrackingCode)
	if err != nil {
		s.discardBlobs(context.WithoutCancel(ctx), photoKey, storage.QRKey(item.ID.String()))
		return nil, err
	}

	metrics.EvidenceRegistered.Inc()
	s.cache.InvalidateReportCaches(ctx)
	s.log.Info("evidence registered", "evidence_id", item.ID, "incident_id", item.IncidentRef)
	return item, nil
}

func (s *EvidenceService) discardBlobs(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.Blobs.Delete(ctx, key); err != nil {
			s.log.Warn("orphaned evidence blob", "key", key, "error", err)
		}
	}
}

// uploadTrackingCode renders the item's QR image and returns its URL.
func (s *EvidenceService) uploadTrackingCode(ctx context.Context, e *models.EvidenceItem) (string, error) {
	png, err := tracking.QRCodePNG(e.ID)
	if err != nil {
		return "", apperr.Internal(err)
	}
	url, err := s.Blobs.Put(ctx, storage.QRKey(e.ID.String()), png, "image/png")
	if err != nil {
		metrics.BlobUploadFailures.WithLabelValues("qr").Inc()
		s.log.Error("tracking code upload failed", "evidence_id", e.ID, "error", err)
		return "", apperr.Internal(err)
	}
	return url, nil
}

func (s *EvidenceService) buildItem(req *models.RegisterEvidenceRequest) (*models.EvidenceItem, error) {
	incidentID, err := parseID("incidentRef", req.IncidentRef)
	if err != nil {
		return nil, err
	}
	category, err := required("itemCategory", req.ItemCategory)
	if err != nil {
		return nil, err
	}
	description, err := required("itemDescription", req.ItemDescription)
	if err != nil {
		return nil, err
	}
	party := models.AssociatedParty(strings.ToUpper(strings.TrimSpace(req.AssociatedParty)))
	if !party.Valid() {
		return nil, apperr.BadRequest("associatedParty must be one of SUSPECT, VICTIM, UNIDENTIFIED")
	}
	if req.Quantity == nil {
		return nil, apperr.BadRequest("quantity is required")
	}
	if *req.Quantity < 0 {
		return nil, apperr.BadRequest("quantity must not be negative")
	}
	unit := strings.TrimSpace(req.MeasurementUnit)
	if unit == "" {
		unit = models.DefaultMeasurementUnit
	}
	location := models.StorageDetails{
		RoomNumber:    strings.TrimSpace(req.RoomNumber),
		RackNumber:    strings.TrimSpace(req.RackNumber),
		CompartmentID: strings.TrimSpace(req.CompartmentID),
	}
	if err := withinLimits(
		fieldLimit{"itemCategory", category, maxReferenceLength},
		fieldLimit{"measurementUnit", unit, maxLabelLength},
		fieldLimit{"roomNumber", location.RoomNumber, maxLabelLength},
		fieldLimit{"rackNumber", location.RackNumber, maxLabelLength},
		fieldLimit{"compartmentId", location.CompartmentID, maxLabelLength},
	); err != nil {
		return nil, err
	}

	return &models.EvidenceItem{
		ID:              uuid.New(),
		IncidentRef:     incidentID,
		ItemCategory:    category,
		AssociatedParty: party,
		ItemDescription: description,
		ItemQuantity:    models.Quantity{Amount: *req.Quantity, MeasurementUnit: unit},
		StorageDetails:  location,
		Remarks:         strings.TrimSpace(req.Remarks),
	}, nil
}

func (s *EvidenceService) Get(ctx context.Context, id uuid.UUID) (*models.EvidenceItem, error) {
	return s.Repo.Get(ctx, id)
}

func (s *EvidenceService) ListByIncident(ctx context.Context, incidentID uuid.UUID) ([]*models.EvidenceItem, error) {
	return s.Repo.ListByIncident(ctx, incidentID)
}

func (s *EvidenceService) Search(ctx context.Context, q models.EvidenceQuery) ([]*models.EvidenceItem, error) {
	f := models.EvidenceFilter{
		Category: strings.TrimSpace(q.Category),
		Keyword:  strings.TrimSpace(q.Keyword),
	}
	if strings.TrimSpace(q.IncidentID) != "" {
		id, err := parseID("incidentId", q.IncidentID)
		if err != nil {
			return nil, err
		}
		f.IncidentID = &id
	}
	if p := strings.TrimSpace(q.Party); p != "" {
		f.Party = models.AssociatedParty(strings.ToUpper(p))
		if !f.Party.Valid() {
			return nil, apperr.BadRequest("%s is not a valid associated party", q.Party)
		}
	}
	return s.Repo.Search(ctx, f)
}

// ResolveTrackingCode maps a scanned EVIDENCE:<id> payload back to its item.
func (s *EvidenceService) ResolveTrackingCode(ctx context.Context, payload string) (*models.EvidenceItem, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, apperr.BadRequest("code is required")
	}
	id, err := tracking.ParsePayload(payload)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindBadRequest, err, err.Error())
	}
	return s.Repo.Get(ctx, id)
}
