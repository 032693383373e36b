package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"malkhana-backend/internal/apperr"
	"malkhana-backend/internal/models"
)

type EvidenceRepository struct {
	DB *pgxpool.Pool
}

func NewEvidenceRepository(db *pgxpool.Pool) *EvidenceRepository {
	return &EvidenceRepository{DB: db}
}

const evidenceColumns = `id, incident_ref, item_category, associated_party, item_description, quantity_amount,
	measurement_unit, room_number, rack_number, compartment_id, remarks, photograph_url, tracking_qr_code,
	created_at, updated_at`

func scanEvidence(row pgx.Row) (*models.EvidenceItem, error) {
	var e models.EvidenceItem
	err := row.Scan(&e.ID, &e.IncidentRef, &e.ItemCategory, &e.AssociatedParty, &e.ItemDescription,
		&e.ItemQuantity.Amount, &e.ItemQuantity.MeasurementUnit,
		&e.StorageDetails.RoomNumber, &e.StorageDetails.RackNumber, &e.StorageDetails.CompartmentID,
		&e.Remarks, &e.PhotographURL, &e.TrackingQRCode, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func collectEvidence(rows pgx.Rows) ([]*models.EvidenceItem, error) {
	defer rows.Close()
	items := []*models.EvidenceItem{}
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// CreateWithTracking inserts the item, calls derive with the persisted record and stores the
// returned tracking code, all in one transaction. The parent incident row is share-locked so a
// concurrent closure waits for the registration to finish.
func (r *EvidenceRepository) CreateWithTracking(
	ctx context.Context,
	e *models.EvidenceItem,
	rejectClosed bool,
	derive func(context.Context, *models.EvidenceItem) (string, error),
) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	defer tx.Rollback(ctx)

	var status models.IncidentStatus
	err = tx.QueryRow(ctx,
		`SELECT current_status FROM incidents WHERE id=$1 FOR SHARE`, e.IncidentRef).Scan(&status)
	if err != nil {
		return apperr.FromDB(err, "Incident")
	}
	if rejectClosed && status == models.IncidentClosed {
		return apperr.Conflict("Incident is closed; evidence can no longer be registered")
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO evidence_items(id, incident_ref, item_category, associated_party, item_description,
		 quantity_amount, measurement_unit, room_number, rack_number, compartment_id, remarks, photograph_url)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
         RETURNING created_at, updated_at`,
		e.ID, e.IncidentRef, e.ItemCategory, e.AssociatedParty, e.ItemDescription,
		e.ItemQuantity.Amount, e.ItemQuantity.MeasurementUnit,
		e.StorageDetails.RoomNumber, e.StorageDetails.RackNumber, e.StorageDetails.CompartmentID,
		e.Remarks, e.PhotographURL,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return apperr.FromDB(err, "Evidence item")
	}

	code, err := derive(ctx, e)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx,
		`UPDATE evidence_items SET tracking_qr_code=$1, updated_at=CURRENT_TIMESTAMP
         WHERE id=$2 RETURNING updated_at`, code, e.ID).Scan(&e.UpdatedAt)
	if err != nil {
		return apperr.FromDB(err, "Evidence item")
	}
	e.TrackingQRCode = &code

	if err := tx.Commit(ctx); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (r *EvidenceRepository) Get(ctx context.Context, id uuid.UUID) (*models.EvidenceItem, error) {
	e, err := scanEvidence(r.DB.QueryRow(ctx,
		`SELECT `+evidenceColumns+` FROM evidence_items WHERE id=$1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "Evidence item")
	}
	return e, nil
}

func (r *EvidenceRepository) ListByIncident(ctx context.Context, incidentID uuid.UUID) ([]*models.EvidenceItem, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+evidenceColumns+` FROM evidence_items WHERE incident_ref=$1 ORDER BY created_at DESC, id`, incidentID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return collectEvidence(rows)
}

func (r *EvidenceRepository) Search(ctx context.Context, f models.EvidenceFilter) ([]*models.EvidenceItem, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.IncidentID != nil {
		where = append(where, "incident_ref = "+arg(*f.IncidentID))
	}
	if f.Category != "" {
		where = append(where, "item_category ILIKE "+arg(containsPattern(f.Category))+` ESCAPE '\'`)
	}
	if f.Party != "" {
		where = append(where, "associated_party = "+arg(f.Party))
	}
	if f.Keyword != "" {
		p := arg(containsPattern(f.Keyword))
		where = append(where, fmt.Sprintf(
			`(item_category ILIKE %[1]s ESCAPE '\' OR item_description ILIKE %[1]s ESCAPE '\')`, p))
	}

	query := `SELECT ` + evidenceColumns + ` FROM evidence_items`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.FromDB(err, "Evidence item")
	}
	return collectEvidence(rows)
}
