package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"malkhana-backend/internal/apperr"
	"malkhana-backend/internal/logger"
	"malkhana-backend/internal/metrics"
	"malkhana-backend/internal/models"
)

// ClosureService is the only path that moves an incident to CLOSED.
type ClosureService struct {
	Repo   ClosureStore
	policy models.LifecyclePolicy
	cache  CacheInvalidator
	log    *logger.Logger
}

func NewClosureService(repo ClosureStore, policy models.LifecyclePolicy, log *logger.Logger) *ClosureService {
	return &ClosureService{Repo: repo, policy: policy, cache: nopInvalidator{}, log: log}
}

func (s *ClosureService) SetCache(c CacheInvalidator) { s.cache = c }

// Close records the closure and flips the incident to CLOSED in one transaction.
func (s *ClosureService) Close(ctx context.Context, req *models.CloseIncidentRequest, closedBy models.OfficerSnapshot) (*models.CaseClosure, *models.Incident, error) {
	incidentID, err := parseID("incidentRef", req.IncidentRef)
	if err != nil {
		return nil, nil, err
	}
	method := models.DispositionMethod(strings.ToUpper(strings.TrimSpace(req.DispositionMethod)))
	if !method.Valid() {
		return nil, nil, apperr.BadRequest("dispositionMethod must be one of RETURNED_TO_OWNER, DESTROYED, SOLD_AT_AUCTION, COURT_RETENTION")
	}
	closureDate, err := parseDateField("closureDate", req.ClosureDate)
	if err != nil {
		return nil, nil, err
	}

	courtOrder := strings.TrimSpace(req.CourtOrderNumber)
	if err := withinLimits(fieldLimit{"courtOrderNumber", courtOrder, maxReferenceLength}); err != nil {
		return nil, nil, err
	}

	closure := &models.CaseClosure{
		ID:                uuid.New(),
		IncidentRef:       incidentID,
		DispositionMethod: method,
		CourtOrderNumber:  courtOrder,
		ClosureDate:       closureDate,
		ClosureRemarks:    strings.TrimSpace(req.ClosureRemarks),
		ClosedBy:          closedBy,
	}
	incident, err := s.Repo.CloseIncident(ctx, closure, s.policy.RejectDoubleClosure)
	if err != nil {
		return nil, nil, err
	}

	metrics.CaseClosures.WithLabelValues(string(method)).Inc()
	s.cache.InvalidateReportCaches(ctx)
	s.log.Info("incident closed", "incident_id", incidentID, "disposition", method, "closed_by", closedBy.BadgeNumber)
	return closure, incident, nil
}

// GetByIncident returns the current closure. found is false when the incident has none.
func (s *ClosureService) GetByIncident(ctx context.Context, incidentID uuid.UUID) (*models.CaseClosure, bool, error) {
	c, err := s.Repo.LatestByIncident(ctx, incidentID)
	if err != nil {
		return nil, false, err
	}
	return c, c != nil, nil
}
