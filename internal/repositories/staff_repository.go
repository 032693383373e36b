package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"malkhana-backend/internal/apperr"
	"malkhana-backend/internal/models"
)

type StaffRepository struct {
	DB *pgxpool.Pool
}

func NewStaffRepository(db *pgxpool.Pool) *StaffRepository {
	return &StaffRepository{DB: db}
}

const staffColumns = `id, full_name, badge_number, designation, station_assignment, password_hash, created_at, updated_at`

func scanStaff(row pgx.Row) (*models.StaffMember, error) {
	var s models.StaffMember
	err := row.Scan(&s.ID, &s.FullName, &s.BadgeNumber, &s.Designation,
		&s.StationAssignment, &s.PasswordHash, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StaffRepository) Create(ctx context.Context, s *models.StaffMember) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO staff_members(id, full_name, badge_number, designation, station_assignment, password_hash)
         VALUES($1, $2, $3, $4, $5, $6)
         RETURNING created_at, updated_at`,
		s.ID, s.FullName, s.BadgeNumber, s.Designation, s.StationAssignment, s.PasswordHash,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return apperr.FromDB(err, "Staff member with this badge number")
}

func (r *StaffRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.StaffMember, error) {
	s, err := scanStaff(r.DB.QueryRow(ctx,
		`SELECT `+staffColumns+` FROM staff_members WHERE id=$1`, id))
	if err != nil {
		return nil, apperr.FromDB(err, "Staff member")
	}
	return s, nil
}

// GetByBadge looks up a badge case-insensitively.
func (r *StaffRepository) GetByBadge(ctx context.Context, badge string) (*models.StaffMember, error) {
	s, err := scanStaff(r.DB.QueryRow(ctx,
		`SELECT `+staffColumns+` FROM staff_members WHERE UPPER(badge_number)=UPPER($1)`, badge))
	if err != nil {
		return nil, apperr.FromDB(err, "Staff member")
	}
	return s, nil
}

func (r *StaffRepository) CountByDesignation(ctx context.Context, d models.Designation) (int64, error) {
	var n int64
	err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM staff_members WHERE designation=$1`, d).Scan(&n)
	return n, err
}
