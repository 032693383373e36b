// Package memstore is an in-memory implementation of the repository contracts.
// It backs the "memory" database driver and the service and handler tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"malkhana-backend/internal/apperr"
	"malkhana-backend/internal/models"
	"malkhana-backend/internal/timeutil"
)

// DB holds every table behind one lock. Records are stored by value and copied
// on the way in and out so callers never share memory with the store.
type DB struct {
	mu  sync.RWMutex
	now timeutil.Clock
	seq int64

	staff     map[uuid.UUID]staffRow
	incidents map[uuid.UUID]incidentRow
	evidence  map[uuid.UUID]evidenceRow
	transfers []transferRow
	closures  []closureRow
}

type staffRow struct {
	seq int64
	v   models.StaffMember
}

type incidentRow struct {
	seq int64
	v   models.Incident
}

type evidenceRow struct {
	seq int64
	v   models.EvidenceItem
}

type transferRow struct {
	seq int64
	v   models.CustodyTransfer
}

type closureRow struct {
	seq int64
	v   models.CaseClosure
}

func New() *DB {
	return NewWithClock(timeutil.Now)
}

// NewWithClock uses now for every created/updated timestamp.
func NewWithClock(now timeutil.Clock) *DB {
	return &DB{
		now:       now,
		staff:     map[uuid.UUID]staffRow{},
		incidents: map[uuid.UUID]incidentRow{},
		evidence:  map[uuid.UUID]evidenceRow{},
	}
}

func (db *DB) Staff() *StaffStore       { return &StaffStore{db: db} }
func (db *DB) Incidents() *IncidentStore { return &IncidentStore{db: db} }
func (db *DB) Evidence() *EvidenceStore  { return &EvidenceStore{db: db} }
func (db *DB) Transfers() *TransferStore { return &TransferStore{db: db} }
func (db *DB) Closures() *ClosureStore   { return &ClosureStore{db: db} }
func (db *DB) Reports() *ReportStore     { return &ReportStore{db: db} }

// Ping always succeeds.
func (db *DB) Ping(ctx context.Context) error { return ctx.Err() }

// nextSeq must be called with mu held for writing.
func (db *DB) nextSeq() int64 {
	db.seq++
	return db.seq
}

// ---- staff ----

type StaffStore struct{ db *DB }

func (s *StaffStore) Create(ctx context.Context, m *models.StaffMember) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, row := range s.db.staff {
		if strings.EqualFold(row.v.BadgeNumber, m.BadgeNumber) {
			return apperr.Conflict("Staff member with this badge number already exists")
		}
	}
	now := s.db.now()
	m.CreatedAt, m.UpdatedAt = now, now
	s.db.staff[m.ID] = staffRow{seq: s.db.nextSeq(), v: *m}
	return nil
}

func (s *StaffStore) GetByID(ctx context.Context, id uuid.UUID) (*models.StaffMember, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	row, ok := s.db.staff[id]
	if !ok {
		return nil, apperr.NotFound("Staff member not found")
	}
	v := row.v
	return &v, nil
}

func (s *StaffStore) GetByBadge(ctx context.Context, badge string) (*models.StaffMember, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	for _, row := range s.db.staff {
		if strings.EqualFold(row.v.BadgeNumber, badge) {
			v := row.v
			return &v, nil
		}
	}
	return nil, apperr.NotFound("Staff member not found")
}

func (s *StaffStore) CountByDesignation(ctx context.Context, d models.Designation) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var n int64
	for _, row := range s.db.staff {
		if row.v.Designation == d {
			n++
		}
	}
	return n, nil
}

// ---- incidents ----

type IncidentStore struct{ db *DB }

func (s *IncidentStore) Create(ctx context.Context, i *models.Incident, rejectDuplicate bool) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if rejectDuplicate {
		for _, row := range s.db.incidents {
			if strings.EqualFold(row.v.RegistrationStation, i.RegistrationStation) &&
				row.v.FIRNumber == i.FIRNumber && row.v.RegistrationYear == i.RegistrationYear {
				return apperr.Conflict("FIR %s/%d is already registered at %s", i.FIRNumber, i.RegistrationYear, i.RegistrationStation)
			}
		}
	}
	now := s.db.now()
	i.CreatedAt, i.UpdatedAt = now, now
	s.db.incidents[i.ID] = incidentRow{seq: s.db.nextSeq(), v: *i}
	return nil
}

func (s *IncidentStore) Get(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	row, ok := s.db.incidents[id]
	if !ok {
		return nil, apperr.NotFound("Incident not found")
	}
	v := row.v
	return &v, nil
}

func (s *IncidentStore) List(ctx context.Context) ([]*models.Incident, error) {
	return s.Search(ctx, models.IncidentFilter{})
}

func (s *IncidentStore) Search(ctx context.Context, f models.IncidentFilter) ([]*models.Incident, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var rows []incidentRow
	for _, row := range s.db.incidents {
		if matchIncident(row.v, f) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(a, b int) bool {
		if !rows[a].v.CreatedAt.Equal(rows[b].v.CreatedAt) {
			return rows[a].v.CreatedAt.After(rows[b].v.CreatedAt)
		}
		return rows[a].seq > rows[b].seq
	})
	return incidentsOut(rows), nil
}

func matchIncident(i models.Incident, f models.IncidentFilter) bool {
	if f.Station != "" && !containsFold(i.RegistrationStation, f.Station) {
		return false
	}
	if f.FIRNumber != "" && i.FIRNumber != f.FIRNumber {
		return false
	}
	if f.Year != 0 && i.RegistrationYear != f.Year {
		return false
	}
	if f.Status != "" && i.CurrentStatus != f.Status {
		return false
	}
	if f.Keyword != "" &&
		!containsFold(i.RegistrationStation, f.Keyword) &&
		!containsFold(i.FIRNumber, f.Keyword) &&
		!containsFold(i.ApplicableSections, f.Keyword) {
		return false
	}
	return true
}

func (s *IncidentStore) ListActiveCreatedBefore(ctx context.Context, cutoff time.Time) ([]*models.Incident, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var rows []incidentRow
	for _, row := range s.db.incidents {
		if row.v.CurrentStatus == models.IncidentActive && !row.v.CreatedAt.After(cutoff) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(a, b int) bool {
		if !rows[a].v.CreatedAt.Equal(rows[b].v.CreatedAt) {
			return rows[a].v.CreatedAt.Before(rows[b].v.CreatedAt)
		}
		return rows[a].seq < rows[b].seq
	})
	return incidentsOut(rows), nil
}

func (s *IncidentStore) CountAll(ctx context.Context) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	return int64(len(s.db.incidents)), nil
}

func (s *IncidentStore) CountByStatus(ctx context.Context, status models.IncidentStatus) (int64, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var n int64
	for _, row := range s.db.incidents {
		if row.v.CurrentStatus == status {
			n++
		}
	}
	return n, nil
}

func incidentsOut(rows []incidentRow) []*models.Incident {
	out := make([]*models.Incident, 0, len(rows))
	for _, row := range rows {
		v := row.v
		out = append(out, &v)
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
