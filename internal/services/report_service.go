package services

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/errgroup"

	"malkhana-backend/internal/apperr"
	"malkhana-backend/internal/cache"
	"malkhana-backend/internal/logger"
	"malkhana-backend/internal/models"
	"malkhana-backend/internal/timeutil"
)

const (
	reportMonths = 12
	reportTopN   = 10
)

// ReportCache stores the serialized overview between writes. ReportsGeneration
// changes on every invalidation.
type ReportCache interface {
	GetCached(ctx context.Context, key string) ([]byte, bool)
	SetCached(ctx context.Context, key string, data []byte, ttl time.Duration)
	InvalidateKeys(ctx context.Context, keys ...string)
	ReportsGeneration(ctx context.Context) int64
}

type ReportService struct {
	Repo          ReportStore
	overviewCache ReportCache
	now           timeutil.Clock
	log           *logger.Logger
}

func NewReportService(repo ReportStore, log *logger.Logger) *ReportService {
	return &ReportService{Repo: repo, now: timeutil.Now, log: log}
}

func (s *ReportService) SetCache(c ReportCache) { s.overviewCache = c }

func (s *ReportService) SetClock(now timeutil.Clock) { s.now = now }

// Overview builds the admin dashboard aggregates. Timelines cover the last twelve
// months, oldest first, with empty months reported as zero.
func (s *ReportService) Overview(ctx context.Context) (*models.ReportsOverview, error) {
	if s.overviewCache != nil {
		if data, ok := s.overviewCache.GetCached(ctx, cache.ReportsOverviewKey); ok {
			var cached models.ReportsOverview
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	var generation int64
	if s.overviewCache != nil {
		generation = s.overviewCache.ReportsGeneration(ctx)
	}

	now := s.now()
	months := timeutil.LastMonths(now, reportMonths)
	since := timeutil.StartOfMonth(now).AddDate(0, -(reportMonths - 1), 0)

	var (
		out          models.ReportsOverview
		incidentsRaw []models.MonthCount
		closuresRaw  []models.MonthCount
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		incidentsRaw, err = s.Repo.IncidentsPerMonth(gctx, since)
		return err
	})
	g.Go(func() (err error) {
		closuresRaw, err = s.Repo.ClosuresPerMonth(gctx, since)
		return err
	})
	g.Go(func() (err error) {
		out.EvidenceDistribution, err = s.Repo.EvidenceByCategory(gctx, reportTopN)
		return err
	})
	g.Go(func() (err error) {
		out.OfficerWorkload, err = s.Repo.WorkloadByInvestigator(gctx, reportTopN)
		return err
	})
	g.Go(func() (err error) {
		out.TransferPurposeDistribution, err = s.Repo.TransfersByPurpose(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Internal(err)
	}

	out.IncidentsTimeline = fillMonths(months, incidentsRaw)
	out.ClosuresTimeline = fillMonths(months, closuresRaw)
	if out.EvidenceDistribution == nil {
		out.EvidenceDistribution = []models.LabelCount{}
	}
	if out.OfficerWorkload == nil {
		out.OfficerWorkload = []models.OfficerWorkload{}
	}
	if out.TransferPurposeDistribution == nil {
		out.TransferPurposeDistribution = []models.LabelCount{}
	}
	out.GeneratedAt = now.Format(time.RFC3339)

	s.storeOverview(ctx, &out, generation)
	return &out, nil
}

// storeOverview caches out unless a write invalidated the reports while it was
// being computed. A write racing the store itself is caught by the second check.
func (s *ReportService) storeOverview(ctx context.Context, out *models.ReportsOverview, generation int64) {
	if s.overviewCache == nil || s.overviewCache.ReportsGeneration(ctx) != generation {
		return
	}
	data, err := json.Marshal(out)
	if err != nil {
		return
	}
	s.overviewCache.SetCached(ctx, cache.ReportsOverviewKey, data, cache.ReportsTTL)
	if s.overviewCache.ReportsGeneration(ctx) != generation {
		s.overviewCache.InvalidateKeys(ctx, cache.ReportsOverviewKey)
	}
}

// fillMonths lays counts onto the month keys, zero where a month has no rows.
func fillMonths(months []string, counts []models.MonthCount) []models.MonthCount {
	byMonth := make(map[string]int64, len(counts))
	for _, c := range counts {
		byMonth[c.Month] = c.Count
	}
	out := make([]models.MonthCount, len(months))
	for i, m := range months {
		out[i] = models.MonthCount{Month: m, Count: byMonth[m]}
	}
	return out
}
