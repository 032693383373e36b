package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"malkhana-backend/internal/apperr"
	"malkhana-backend/internal/models"
)

type ClosureRepository struct {
	DB *pgxpool.Pool
}

func NewClosureRepository(db *pgxpool.Pool) *ClosureRepository {
	return &ClosureRepository{DB: db}
}

// CloseIncident records the closure and flips the incident to CLOSED in one transaction.
// The incident row is locked for the duration so concurrent closes are serialized.
func (r *ClosureRepository) CloseIncident(ctx context.Context, c *models.CaseClosure, rejectIfClosed bool) (*models.Incident, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer tx.Rollback(ctx)

	incident, err := scanIncident(tx.QueryRow(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE id=$1 FOR UPDATE`, c.IncidentRef))
	if err != nil {
		return nil, apperr.FromDB(err, "Incident")
	}
	if rejectIfClosed && incident.IsClosed() {
		return nil, apperr.Conflict("Incident is already closed")
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO case_closures(id, incident_ref, disposition_method, court_order_number, closure_date,
		 closure_remarks, closed_by_name, closed_by_badge)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8)
         RETURNING created_at`,
		c.ID, c.IncidentRef, c.DispositionMethod, c.CourtOrderNumber, c.ClosureDate,
		c.ClosureRemarks, c.ClosedBy.Name, c.ClosedBy.BadgeNumber,
	).Scan(&c.CreatedAt)
	if err != nil {
		return nil, apperr.FromDB(err, "Case closure")
	}

	incident, err = scanIncident(tx.QueryRow(ctx,
		`UPDATE incidents SET current_status='CLOSED', closed_at=CURRENT_TIMESTAMP, updated_at=CURRENT_TIMESTAMP
         WHERE id=$1 RETURNING `+incidentColumns, c.IncidentRef))
	if err != nil {
		return nil, apperr.FromDB(err, "Incident")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, apperr.Internal(err)
	}
	return incident, nil
}

// LatestByIncident returns the current closure, or nil when the incident has none.
func (r *ClosureRepository) LatestByIncident(ctx context.Context, incidentID uuid.UUID) (*models.CaseClosure, error) {
	var c models.CaseClosure
	err := r.DB.QueryRow(ctx,
		`SELECT id, incident_ref, disposition_method, court_order_number, closure_date, closure_remarks,
		 closed_by_name, closed_by_badge, created_at
         FROM case_closures WHERE incident_ref=$1
         ORDER BY created_at DESC, id DESC LIMIT 1`, incidentID,
	).Scan(&c.ID, &c.IncidentRef, &c.DispositionMethod, &c.CourtOrderNumber, &c.ClosureDate,
		&c.ClosureRemarks, &c.ClosedBy.Name, &c.ClosedBy.BadgeNumber, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.FromDB(err, "Case closure")
	}
	return &c, nil
}
