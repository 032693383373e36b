package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"malkhana-backend/internal/models"
)

// Persistence contracts. The pgx repositories and memstore both satisfy them.

type StaffStore interface {
	Create(ctx context.Context, s *models.StaffMember) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.StaffMember, error)
	GetByBadge(ctx context.Context, badge string) (*models.StaffMember, error)
	CountByDesignation(ctx context.Context, d models.Designation) (int64, error)
}

type IncidentStore interface {
	Create(ctx context.Context, i *models.Incident, rejectDuplicate bool) error
	Get(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	List(ctx context.Context) ([]*models.Incident, error)
	Search(ctx context.Context, f models.IncidentFilter) ([]*models.Incident, error)
	ListActiveCreatedBefore(ctx context.Context, cutoff time.Time) ([]*models.Incident, error)
	CountAll(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status models.IncidentStatus) (int64, error)
}

type EvidenceStore interface {
	// CreateWithTracking persists the item and the code returned by derive atomically.
	CreateWithTracking(ctx context.Context, e *models.EvidenceItem, rejectClosed bool,
		derive func(context.Context, *models.EvidenceItem) (string, error)) error
	Get(ctx context.Context, id uuid.UUID) (*models.EvidenceItem, error)
	ListByIncident(ctx context.Context, incidentID uuid.UUID) ([]*models.EvidenceItem, error)
	Search(ctx context.Context, f models.EvidenceFilter) ([]*models.EvidenceItem, error)
}

type TransferStore interface {
	Append(ctx context.Context, t *models.CustodyTransfer, guard models.TransferGuard) error
	History(ctx context.Context, evidenceID uuid.UUID) ([]*models.CustodyTransfer, error)
}

type ClosureStore interface {
	CloseIncident(ctx context.Context, c *models.CaseClosure, rejectIfClosed bool) (*models.Incident, error)
	// LatestByIncident returns nil, nil when the incident has no closure.
	LatestByIncident(ctx context.Context, incidentID uuid.UUID) (*models.CaseClosure, error)
}

type ReportStore interface {
	IncidentsPerMonth(ctx context.Context, since time.Time) ([]models.MonthCount, error)
	ClosuresPerMonth(ctx context.Context, since time.Time) ([]models.MonthCount, error)
	EvidenceByCategory(ctx context.Context, limit int) ([]models.LabelCount, error)
	WorkloadByInvestigator(ctx context.Context, limit int) ([]models.OfficerWorkload, error)
	TransfersByPurpose(ctx context.Context) ([]models.LabelCount, error)
}

// CacheInvalidator drops derived data after a write.
type CacheInvalidator interface {
	InvalidateReportCaches(ctx context.Context)
}

type nopInvalidator struct{}

func (nopInvalidator) InvalidateReportCaches(context.Context) {}
