package services

import (
	"context"
	"testing"
	"time"

	"malkhana-backend/internal/cache"
	"malkhana-backend/internal/models"
)

func TestReportsOverview(t *testing.T) {
	f := newFixture(t, models.StrictPolicy())
	ctx := context.Background()
	today := f.now

	f.now = today.AddDate(0, -2, 0)
	old := f.createIncident(t, "1")
	f.now = today
	cur := f.createIncident(t, "2")
	f.registerEvidence(t, cur.ID.String(), "ELECTRONICS", "Phone")
	f.registerEvidence(t, cur.ID.String(), "ELECTRONICS", "Laptop")
	item := f.registerEvidence(t, old.ID.String(), "CASH", "Notes")
	if _, err := f.transfers.Record(ctx, &models.RecordTransferRequest{
		EvidenceRef: item.ID.String(), DestinationLocation: "Bank", TransferPurpose: "STORAGE",
	}, investigator); err != nil {
		t.Fatalf("record: %v", err)
	}
	f.close(t, old.ID.String())

	o, err := f.reports.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if len(o.IncidentsTimeline) != 12 || len(o.ClosuresTimeline) != 12 {
		t.Fatalf("timelines should cover 12 months, got %d and %d", len(o.IncidentsTimeline), len(o.ClosuresTimeline))
	}
	last := o.IncidentsTimeline[11]
	if last.Month != "2025-06" || last.Count != 1 {
		t.Fatalf("unexpected current month %+v", last)
	}
	if april := o.IncidentsTimeline[9]; april.Month != "2025-04" || april.Count != 1 {
		t.Fatalf("unexpected april point %+v", april)
	}
	if o.ClosuresTimeline[11].Count != 1 || o.ClosuresTimeline[9].Count != 0 {
		t.Fatalf("closures keyed on closing month, got %+v", o.ClosuresTimeline)
	}
	if len(o.EvidenceDistribution) != 2 || o.EvidenceDistribution[0].Label != "ELECTRONICS" || o.EvidenceDistribution[0].Count != 2 {
		t.Fatalf("unexpected distribution %+v", o.EvidenceDistribution)
	}
	if len(o.OfficerWorkload) != 1 || o.OfficerWorkload[0].CaseCount != 2 || o.OfficerWorkload[0].BadgeNumber != investigator.BadgeNumber {
		t.Fatalf("unexpected workload %+v", o.OfficerWorkload)
	}
	if len(o.TransferPurposeDistribution) != 1 || o.TransferPurposeDistribution[0].Label != "STORAGE" {
		t.Fatalf("unexpected purposes %+v", o.TransferPurposeDistribution)
	}
}

func TestReportsOverviewEmpty(t *testing.T) {
	f := newFixture(t, models.StrictPolicy())
	o, err := f.reports.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if o.EvidenceDistribution == nil || o.OfficerWorkload == nil || o.TransferPurposeDistribution == nil {
		t.Fatalf("empty aggregates should be empty slices")
	}
	for _, p := range o.IncidentsTimeline {
		if p.Count != 0 {
			t.Fatalf("expected zero counts, got %+v", p)
		}
	}
}

func TestReportsOverviewCachedUntilWrite(t *testing.T) {
	f := newFixture(t, models.StrictPolicy())
	ctx := context.Background()
	c := newMemCache()
	f.reports.SetCache(c)
	f.incidents.SetCache(c)

	f.createIncident(t, "1")
	first, err := f.reports.Overview(ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if first.IncidentsTimeline[11].Count != 1 {
		t.Fatalf("unexpected count %d", first.IncidentsTimeline[11].Count)
	}

	// Bypass the service so the cache is not invalidated.
	if err := f.db.Incidents().Create(ctx, &models.Incident{CurrentStatus: models.IncidentActive}, false); err != nil {
		t.Fatalf("direct create: %v", err)
	}
	cached, _ := f.reports.Overview(ctx)
	if cached.IncidentsTimeline[11].Count != 1 {
		t.Fatalf("expected cached overview, got count %d", cached.IncidentsTimeline[11].Count)
	}

	f.createIncident(t, "2")
	fresh, _ := f.reports.Overview(ctx)
	if fresh.IncidentsTimeline[11].Count != 3 {
		t.Fatalf("expected fresh overview after write, got count %d", fresh.IncidentsTimeline[11].Count)
	}
}

// invalidatingReports simulates a write landing while the overview is computed.
type invalidatingReports struct {
	ReportStore
	cache *memCache
}

func (r invalidatingReports) IncidentsPerMonth(ctx context.Context, since time.Time) ([]models.MonthCount, error) {
	r.cache.InvalidateReportCaches(ctx)
	return r.ReportStore.IncidentsPerMonth(ctx, since)
}

func TestReportsOverviewNotCachedWhenInvalidatedMidway(t *testing.T) {
	f := newFixture(t, models.StrictPolicy())
	ctx := context.Background()
	c := newMemCache()
	f.reports.Repo = invalidatingReports{ReportStore: f.db.Reports(), cache: c}
	f.reports.SetCache(c)

	if _, err := f.reports.Overview(ctx); err != nil {
		t.Fatalf("overview: %v", err)
	}
	if _, ok := c.GetCached(ctx, cache.ReportsOverviewKey); ok {
		t.Fatalf("overview computed across an invalidation was cached")
	}

	// Without a concurrent write the result is stored.
	f.reports.Repo = f.db.Reports()
	if _, err := f.reports.Overview(ctx); err != nil {
		t.Fatalf("overview: %v", err)
	}
	if _, ok := c.GetCached(ctx, cache.ReportsOverviewKey); !ok {
		t.Fatalf("expected overview to be cached")
	}
}
