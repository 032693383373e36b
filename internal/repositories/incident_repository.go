package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"malkhana-backend/internal/apperr"
	"malkhana-backend/internal/models"
)

type IncidentRepository struct {
	DB *pgxpool.Pool
}

func NewIncidentRepository(db *pgxpool.Pool) *IncidentRepository {
	return &IncidentRepository{DB: db}
}

const incidentColumns = `id, registration_station, fir_number, registration_year, investigator_name, investigator_badge,
	fir_filing_date, evidence_seizure_date, applicable_sections, current_status, closed_at, created_at, updated_at`

func scanIncident(row pgx.Row) (*models.Incident, error) {
	var i models.Incident
	err := row.Scan(&i.ID, &i.RegistrationStation, &i.FIRNumber, &i.RegistrationYear,
		&i.AssignedInvestigator.Name, &i.AssignedInvestigator.BadgeNumber,
		&i.FIRFilingDate, &i.EvidenceSeizureDate, &i.ApplicableSections,
		&i.CurrentStatus, &i.ClosedAt, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func collectIncidents(rows pgx.Rows) ([]*models.Incident, error) {
	defer rows.Close()
	incidents := []*models.Incident{}
	for rows.Next() {
		i, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, i)
	}
	return incidents, rows.Err()
}

// Create inserts an incident. With rejectDuplicate the (station, FIR, year) key is
// serialized through an advisory lock so two concurrent registrations cannot both pass.
func (r *IncidentRepository) Create(ctx context.Context, i *models.Incident, rejectDuplicate bool) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	defer tx.Rollback(ctx)

	if rejectDuplicate {
		key := fmt.Sprintf("%s|%s|%d", strings.ToLower(i.RegistrationStation), i.FIRNumber, i.RegistrationYear)
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return apperr.Internal(err)
		}
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM incidents
			 WHERE LOWER(registration_station)=LOWER($1) AND fir_number=$2 AND registration_year=$3)`,
			i.RegistrationStation, i.FIRNumber, i.RegistrationYear).Scan(&exists)
		if err != nil {
			return apperr.Internal(err)
		}
		if exists {
			return apperr.Conflict("FIR %s/%d is already registered at %s", i.FIRNumber, i.RegistrationYear, i.RegistrationStation)
		}
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO incidents(id, registration_station, fir_number, registration_year, investigator_name,
		 investigator_badge, fir_filing_date, evidence_seizure_date, applicable_sections, current_status)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
         RETURNING created_at, updated_at`,
		i.ID, i.RegistrationStation, i.FIRNumber, i.RegistrationYear, i.AssignedInvestigator.Name,
		i.AssignedInvestigator.BadgeNumber, i.FIRFilingDate, i.EvidenceSeizureDate, i.ApplicableSections,
		i.CurrentStatus,
	).Scan(&i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		return apperr.FromDB(err, "Incident")
	}
	return tx.Commit(ctx)
}

func (r *IncidentRepository) Get(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	i, err := scanIncident(r.DB.QueryRow(ctx,
		`SELECT `+incidentColumns+` FROM incidents WHERE id=$1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "Incident")
	}
	return i, nil
}

func (r *IncidentRepository) List(ctx context.Context) ([]*models.Incident, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+incidentColumns+` FROM incidents ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return collectIncidents(rows)
}

// Search applies every non-empty filter with AND; the keyword ORs across station, FIR and sections.
func (r *IncidentRepository) Search(ctx context.Context, f models.IncidentFilter) ([]*models.Incident, error) {
	var (
		where []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Station != "" {
		where = append(where, "registration_station ILIKE "+arg(containsPattern(f.Station))+` ESCAPE '\'`)
	}
	if f.FIRNumber != "" {
		where = append(where, "fir_number = "+arg(f.FIRNumber))
	}
	if f.Year != 0 {
		where = append(where, "registration_year = "+arg(f.Year))
	}
	if f.Status != "" {
		where = append(where, "current_status = "+arg(f.Status))
	}
	if f.Keyword != "" {
		p := arg(containsPattern(f.Keyword))
		where = append(where, fmt.Sprintf(
			`(registration_station ILIKE %[1]s ESCAPE '\' OR fir_number ILIKE %[1]s ESCAPE '\' OR applicable_sections ILIKE %[1]s ESCAPE '\')`, p))
	}

	query := `SELECT ` + incidentColumns + ` FROM incidents`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.FromDB(err, "Incident")
	}
	return collectIncidents(rows)
}

// ListActiveCreatedBefore returns ACTIVE incidents created at or before cutoff, oldest first.
func (r *IncidentRepository) ListActiveCreatedBefore(ctx context.Context, cutoff time.Time) ([]*models.Incident, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+incidentColumns+` FROM incidents
         WHERE current_status='ACTIVE' AND created_at <= $1
         ORDER BY created_at ASC, id`, cutoff)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return collectIncidents(rows)
}

func (r *IncidentRepository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM incidents`).Scan(&n)
	return n, err
}

func (r *IncidentRepository) CountByStatus(ctx context.Context, status models.IncidentStatus) (int64, error) {
	var n int64
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM incidents WHERE current_status=$1`, status).Scan(&n)
	return n, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns user text into a literal substring ILIKE pattern.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
