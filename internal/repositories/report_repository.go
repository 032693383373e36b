package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"malkhana-backend/internal/models"
)

// reportTimeZone buckets timelines by Indian calendar month.
const reportTimeZone = "Asia/Kolkata"

// ReportRepository runs the read-only dashboard aggregations.
type ReportRepository struct {
	DB *pgxpool.Pool
}

func NewReportRepository(db *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{DB: db}
}

func (r *ReportRepository) IncidentsPerMonth(ctx context.Context, since time.Time) ([]models.MonthCount, error) {
	return r.monthly(ctx,
		`SELECT to_char(created_at AT TIME ZONE $2, 'YYYY-MM') AS month, COUNT(*)
         FROM incidents WHERE created_at >= $1
         GROUP BY month ORDER BY month`, since)
}

func (r *ReportRepository) ClosuresPerMonth(ctx context.Context, since time.Time) ([]models.MonthCount, error) {
	return r.monthly(ctx,
		`SELECT to_char(closed_at AT TIME ZONE $2, 'YYYY-MM') AS month, COUNT(*)
         FROM incidents WHERE current_status='CLOSED' AND closed_at >= $1
         GROUP BY month ORDER BY month`, since)
}

func (r *ReportRepository) monthly(ctx context.Context, query string, since time.Time) ([]models.MonthCount, error) {
	rows, err := r.DB.Query(ctx, query, since, reportTimeZone)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.MonthCount, error) {
		var m models.MonthCount
		err := row.Scan(&m.Month, &m.Count)
		return m, err
	})
}

func (r *ReportRepository) EvidenceByCategory(ctx context.Context, limit int) ([]models.LabelCount, error) {
	return r.labelled(ctx,
		`SELECT item_category, COUNT(*) AS n FROM evidence_items
         GROUP BY item_category ORDER BY n DESC, item_category LIMIT $1`, limit)
}

func (r *ReportRepository) TransfersByPurpose(ctx context.Context) ([]models.LabelCount, error) {
	return r.labelled(ctx,
		`SELECT transfer_purpose, COUNT(*) AS n FROM custody_transfers
         GROUP BY transfer_purpose ORDER BY n DESC, transfer_purpose LIMIT $1`, len(models.TransferPurposes))
}

func (r *ReportRepository) labelled(ctx context.Context, query string, limit int) ([]models.LabelCount, error) {
	rows, err := r.DB.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.LabelCount, error) {
		var l models.LabelCount
		err := row.Scan(&l.Label, &l.Count)
		return l, err
	})
}

func (r *ReportRepository) WorkloadByInvestigator(ctx context.Context, limit int) ([]models.OfficerWorkload, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT MAX(investigator_name), investigator_badge, COUNT(*) AS n FROM incidents
         WHERE investigator_badge <> ''
         GROUP BY investigator_badge ORDER BY n DESC, investigator_badge LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.OfficerWorkload, error) {
		var w models.OfficerWorkload
		err := row.Scan(&w.Name, &w.BadgeNumber, &w.CaseCount)
		return w, err
	})
}
