package services

import (
	"context"
	"testing"
	"time"

	"malkhana-backend/internal/apperr"
	"malkhana-backend/internal/auth"
	"malkhana-backend/internal/logger"
	"malkhana-backend/internal/models"
	"malkhana-backend/internal/repositories/memstore"
	"malkhana-backend/internal/storage"
	"malkhana-backend/internal/timeutil"
)

var investigator = models.OfficerSnapshot{Name: "Inspector Rao", BadgeNumber: "KA1021"}

type fixture struct {
	now   time.Time
	db    *memstore.DB
	blobs *storage.MemoryStore

	staff     *StaffService
	incidents *IncidentService
	evidence  *EvidenceService
	transfers *TransferService
	closures  *ClosureService
	reports   *ReportService
}

func newFixture(t *testing.T, policy models.LifecyclePolicy) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2025, time.June, 15, 10, 0, 0, 0, timeutil.IST)}
	clock := func() time.Time { return f.now }
	log := logger.Nop()

	f.db = memstore.NewWithClock(clock)
	f.blobs = storage.NewMemoryStore("https://blobs.test")

	f.staff = NewStaffService(f.db.Staff(), auth.NewJWTManager("test-secret", "malkhana-test", 1), log)
	f.incidents = NewIncidentService(f.db.Incidents(), policy, log)
	f.incidents.SetClock(clock)
	f.evidence = NewEvidenceService(f.db.Evidence(), f.blobs, policy, log)
	f.transfers = NewTransferService(f.db.Transfers(), f.db.Evidence(), policy, log)
	f.transfers.SetClock(clock)
	f.closures = NewClosureService(f.db.Closures(), policy, log)
	f.reports = NewReportService(f.db.Reports(), log)
	f.reports.SetClock(clock)
	return f
}

func (f *fixture) createIncident(t *testing.T, fir string) *models.Incident {
	t.Helper()
	inc, err := f.incidents.Create(context.Background(), &models.CreateIncidentRequest{
		RegistrationStation: "Central",
		FIRNumber:           fir,
		RegistrationYear:    2025,
		FIRFilingDate:       "2025-06-01",
		EvidenceSeizureDate: "2025-06-02",
		ApplicableSections:  "IPC 379, 411",
	}, investigator)
	if err != nil {
		t.Fatalf("create incident %s: %v", fir, err)
	}
	return inc
}

func (f *fixture) registerEvidence(t *testing.T, incidentID, category, description string) *models.EvidenceItem {
	t.Helper()
	qty := 1
	item, err := f.evidence.Register(context.Background(), &models.RegisterEvidenceRequest{
		IncidentRef:     incidentID,
		ItemCategory:    category,
		AssociatedParty: "SUSPECT",
		ItemDescription: description,
		Quantity:        &qty,
	}, nil)
	if err != nil {
		t.Fatalf("register evidence: %v", err)
	}
	return item
}

func (f *fixture) close(t *testing.T, incidentID string) (*models.CaseClosure, *models.Incident) {
	t.Helper()
	c, inc, err := f.closures.Close(context.Background(), &models.CloseIncidentRequest{
		IncidentRef:       incidentID,
		DispositionMethod: "COURT_RETENTION",
		ClosureDate:       "2025-06-15",
	}, investigator)
	if err != nil {
		t.Fatalf("close incident: %v", err)
	}
	return c, inc
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%v)", kind, got, err)
	}
}

// memCache is an in-process ReportCache and CacheInvalidator.
type memCache struct {
	data        map[string][]byte
	invalidated int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) GetCached(ctx context.Context, key string) ([]byte, bool) {
	v, ok := c.data[key]
	return v, ok
}

func (c *memCache) SetCached(ctx context.Context, key string, data []byte, ttl time.Duration) {
	c.data[key] = data
}

func (c *memCache) InvalidateKeys(ctx context.Context, keys ...string) {
	for _, k := range keys {
		delete(c.data, k)
	}
}

func (c *memCache) InvalidateReportCaches(ctx context.Context) {
	c.invalidated++
	c.data = map[string][]byte{}
}

func (c *memCache) ReportsGeneration(ctx context.Context) int64 { return int64(c.invalidated) }
