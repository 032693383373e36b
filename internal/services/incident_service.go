package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"malkhana-backend/internal/apperr"
	"malkhana-backend/internal/logger"
	"malkhana-backend/internal/metrics"
	"malkhana-backend/internal/models"
	"malkhana-backend/internal/timeutil"
)

const (
	DefaultPendingThresholdDays = 90
	minRegistrationYear         = 1900

	// One hundred years.
	maxPendingThresholdDays = 36500
)

// IncidentService owns the ACTIVE -> CLOSED lifecycle. Closing is done by ClosureService.
type IncidentService struct {
	Repo   IncidentStore
	policy models.LifecyclePolicy
	cache  CacheInvalidator
	now    timeutil.Clock
	log    *logger.Logger
}

func NewIncidentService(repo IncidentStore, policy models.LifecyclePolicy, log *logger.Logger) *IncidentService {
	return &IncidentService{
		Repo:   repo,
		policy: policy,
		cache:  nopInvalidator{},
		now:    timeutil.Now,
		log:    log,
	}
}

func (s *IncidentService) SetCache(c CacheInvalidator) { s.cache = c }

func (s *IncidentService) SetClock(now timeutil.Clock) { s.now = now }

// Create registers a new incident. The caller becomes the assigned investigator.
func (s *IncidentService) Create(ctx context.Context, req *models.CreateIncidentRequest, investigator models.OfficerSnapshot) (*models.Incident, error) {
	station, err := required("registrationStation", req.RegistrationStation)
	if err != nil {
		return nil, err
	}
	fir, err := required("firNumber", req.FIRNumber)
	if err != nil {
		return nil, err
	}
	sections, err := required("applicableSections", req.ApplicableSections)
	if err != nil {
		return nil, err
	}
	if err := withinLimits(
		fieldLimit{"registrationStation", station, maxLocationLength},
		fieldLimit{"firNumber", fir, maxReferenceLength},
	); err != nil {
		return nil, err
	}
	maxYear := s.now().Year() + 1
	if req.RegistrationYear < minRegistrationYear || req.RegistrationYear > maxYear {
		return nil, apperr.BadRequest("registrationYear must be between %d and %d", minRegistrationYear, maxYear)
	}
	filed, err := parseDateField("firFilingDate", req.FIRFilingDate)
	if err != nil {
		return nil, err
	}
	seized, err := parseDateField("evidenceSeizureDate", req.EvidenceSeizureDate)
	if err != nil {
		return nil, err
	}

	incident := &models.Incident{
		ID:                   uuid.New(),
		RegistrationStation:  station,
		FIRNumber:            fir,
		RegistrationYear:     req.RegistrationYear,
		AssignedInvestigator: investigator,
		FIRFilingDate:        filed,
		EvidenceSeizureDate:  seized,
		ApplicableSections:   sections,
		CurrentStatus:        models.IncidentActive,
	}
	if err := s.Repo.Create(ctx, incident, s.policy.RejectDuplicateFIR); err != nil {
		return nil, err
	}

	metrics.IncidentsRegistered.Inc()
	s.cache.InvalidateReportCaches(ctx)
	s.log.Info("incident registered", "incident_id", incident.ID, "fir", incident.FIRNumber, "station", incident.RegistrationStation)
	return incident, nil
}

func (s *IncidentService) Get(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	return s.Repo.Get(ctx, id)
}

func (s *IncidentService) List(ctx context.Context) ([]*models.Incident, error) {
	return s.Repo.List(ctx)
}

// Search validates the raw query and runs it. No match is an empty slice.
func (s *IncidentService) Search(ctx context.Context, q models.IncidentQuery) ([]*models.Incident, error) {
	f := models.IncidentFilter{
		Station:   strings.TrimSpace(q.Station),
		FIRNumber: strings.TrimSpace(q.FIRNumber),
		Keyword:   strings.TrimSpace(q.Keyword),
	}
	if y := strings.TrimSpace(q.Year); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return nil, apperr.BadRequest("year must be a number")
		}
		f.Year = year
	}
	if st := strings.TrimSpace(q.Status); st != "" {
		f.Status = models.IncidentStatus(strings.ToUpper(st))
		if !f.Status.Valid() {
			return nil, apperr.BadRequest("%s is not a valid status", q.Status)
		}
	}
	return s.Repo.Search(ctx, f)
}

// ListLongPending returns ACTIVE incidents older than thresholdDays, oldest first.
func (s *IncidentService) ListLongPending(ctx context.Context, thresholdDays int) ([]*models.Incident, error) {
	if thresholdDays < 0 {
		return nil, apperr.BadRequest("days must not be negative")
	}
	cutoff := s.now().AddDate(0, 0, -thresholdDays)
	return s.Repo.ListActiveCreatedBefore(ctx, cutoff)
}

// Metrics runs three independent counts concurrently. They are not read in one
// transaction, so under concurrent writes Total may briefly differ from Active+Closed.
func (s *IncidentService) Metrics(ctx context.Context) (*models.IncidentMetrics, error) {
	var m models.IncidentMetrics
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		m.Total, err = s.Repo.CountAll(gctx)
		return err
	})
	g.Go(func() (err error) {
		m.Active, err = s.Repo.CountByStatus(gctx, models.IncidentActive)
		return err
	})
	g.Go(func() (err error) {
		m.Closed, err = s.Repo.CountByStatus(gctx, models.IncidentClosed)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal(err)
	}
	return &m, nil
}

// Dashboard fetches metrics and pending alerts concurrently.
func (s *IncidentService) Dashboard(ctx context.Context, thresholdDays int) (*models.IncidentDashboard, error) {
	if thresholdDays < 0 {
		return nil, apperr.BadRequest("days must not be negative")
	}
	d := &models.IncidentDashboard{ThresholdDays: thresholdDays}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.Metrics(gctx)
		if err != nil {
			return err
		}
		d.Metrics = *m
		return nil
	})
	g.Go(func() (err error) {
		d.PendingAlerts, err = s.ListLongPending(gctx, thresholdDays)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// ParseThresholdDays reads the ?days= parameter. Empty means the 90 day default.
func ParseThresholdDays(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultPendingThresholdDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		return 0, apperr.BadRequest("days must be a non-negative whole number")
	}
	if days > maxPendingThresholdDays {
		return 0, apperr.BadRequest("days cannot exceed %d", maxPendingThresholdDays)
	}
	return days, nil
}

func parseDateField(field, raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, apperr.BadRequest("%s is required", field)
	}
	t, err := timeutil.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperr.BadRequest("%s: %v", field, err)
	}
	return t, nil
}
