package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"malkhana-backend/internal/apperr"
	"malkhana-backend/internal/models"
	"malkhana-backend/internal/timeutil"
)

// ---- evidence ----

type EvidenceStore struct{ db *DB }

// CreateWithTracking mirrors the transactional insert-derive-patch of the SQL store:
// if derive fails nothing is kept.
func (s *EvidenceStore) CreateWithTracking(
	ctx context.Context,
	e *models.EvidenceItem,
	rejectClosed bool,
	derive func(context.Context, *models.EvidenceItem) (string, error),
) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	inc, ok := s.db.incidents[e.IncidentRef]
	if !ok {
		return apperr.NotFound("Incident not found")
	}
	if rejectClosed && inc.v.IsClosed() {
		return apperr.Conflict("Incident is closed; evidence can no longer be registered")
	}

	now := s.db.now()
	e.CreatedAt, e.UpdatedAt = now, now

	code, err := derive(ctx, e)
	if err != nil {
		return err
	}
	e.TrackingQRCode = &code
	s.db.evidence[e.ID] = evidenceRow{seq: s.db.nextSeq(), v: *e}
	return nil
}

func (s *EvidenceStore) Get(ctx context.Context, id uuid.UUID) (*models.EvidenceItem, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	row, ok := s.db.evidence[id]
	if !ok {
		return nil, apperr.NotFound("Evidence item not found")
	}
	v := row.v
	return &v, nil
}

func (s *EvidenceStore) ListByIncident(ctx context.Context, incidentID uuid.UUID) ([]*models.EvidenceItem, error) {
	return s.Search(ctx, models.EvidenceFilter{IncidentID: &incidentID})
}

func (s *EvidenceStore) Search(ctx context.Context, f models.EvidenceFilter) ([]*models.EvidenceItem, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var rows []evidenceRow
	for _, row := range s.db.evidence {
		if matchEvidence(row.v, f) {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(a, b int) bool {
		if !rows[a].v.CreatedAt.Equal(rows[b].v.CreatedAt) {
			return rows[a].v.CreatedAt.After(rows[b].v.CreatedAt)
		}
		return rows[a].seq > rows[b].seq
	})
	out := make([]*models.EvidenceItem, 0, len(rows))
	for _, row := range rows {
		v := row.v
		out = append(out, &v)
	}
	return out, nil
}

func matchEvidence(e models.EvidenceItem, f models.EvidenceFilter) bool {
	if f.IncidentID != nil && e.IncidentRef != *f.IncidentID {
		return false
	}
	if f.Category != "" && !containsFold(e.ItemCategory, f.Category) {
		return false
	}
	if f.Party != "" && e.AssociatedParty != f.Party {
		return false
	}
	if f.Keyword != "" && !containsFold(e.ItemCategory, f.Keyword) && !containsFold(e.ItemDescription, f.Keyword) {
		return false
	}
	return true
}

// ---- custody transfers ----

// TransferStore only appends.
type TransferStore struct{ db *DB }

func (s *TransferStore) Append(ctx context.Context, t *models.CustodyTransfer, guard models.TransferGuard) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if guard.RequireEvidence || guard.RejectClosed {
		item, ok := s.db.evidence[t.EvidenceRef]
		switch {
		case !ok && guard.RequireEvidence:
			return apperr.NotFound("Evidence item not found")
		case ok && guard.RejectClosed:
			if inc, found := s.db.incidents[item.v.IncidentRef]; found && inc.v.IsClosed() {
				return apperr.Conflict("Incident is closed; custody transfers can no longer be recorded")
			}
		}
	}

	t.CreatedAt = s.db.now()
	s.db.transfers = append(s.db.transfers, transferRow{seq: s.db.nextSeq(), v: *t})
	return nil
}

func (s *TransferStore) History(ctx context.Context, evidenceID uuid.UUID) ([]*models.CustodyTransfer, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var rows []transferRow
	for _, row := range s.db.transfers {
		if row.v.EvidenceRef == evidenceID {
			rows = append(rows, row)
		}
	}
	sort.SliceStable(rows, func(a, b int) bool {
		ta, tb := rows[a].v.TransferTimestamp, rows[b].v.TransferTimestamp
		if !ta.Equal(tb) {
			return ta.Before(tb)
		}
		return rows[a].seq < rows[b].seq
	})
	out := make([]*models.CustodyTransfer, 0, len(rows))
	for _, row := range rows {
		v := row.v
		out = append(out, &v)
	}
	return out, nil
}

// ---- closures ----

type ClosureStore struct{ db *DB }

func (s *ClosureStore) CloseIncident(ctx context.Context, c *models.CaseClosure, rejectIfClosed bool) (*models.Incident, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	row, ok := s.db.incidents[c.IncidentRef]
	if !ok {
		return nil, apperr.NotFound("Incident not found")
	}
	if rejectIfClosed && row.v.IsClosed() {
		return nil, apperr.Conflict("Incident is already closed")
	}

	now := s.db.now()
	c.CreatedAt = now
	s.db.closures = append(s.db.closures, closureRow{seq: s.db.nextSeq(), v: *c})

	closedAt := now
	row.v.CurrentStatus = models.IncidentClosed
	row.v.ClosedAt = &closedAt
	row.v.UpdatedAt = now
	s.db.incidents[c.IncidentRef] = row

	v := row.v
	return &v, nil
}

func (s *ClosureStore) LatestByIncident(ctx context.Context, incidentID uuid.UUID) (*models.CaseClosure, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	var latest *closureRow
	for i := range s.db.closures {
		row := &s.db.closures[i]
		if row.v.IncidentRef == incidentID && (latest == nil || row.seq > latest.seq) {
			latest = row
		}
	}
	if latest == nil {
		return nil, nil
	}
	v := latest.v
	return &v, nil
}

// ---- reports ----

type ReportStore struct{ db *DB }

func (s *ReportStore) IncidentsPerMonth(ctx context.Context, since time.Time) ([]models.MonthCount, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	counts := map[string]int64{}
	for _, row := range s.db.incidents {
		if !row.v.CreatedAt.Before(since) {
			counts[monthKey(row.v.CreatedAt)]++
		}
	}
	return monthCounts(counts), nil
}

func (s *ReportStore) ClosuresPerMonth(ctx context.Context, since time.Time) ([]models.MonthCount, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	counts := map[string]int64{}
	for _, row := range s.db.incidents {
		if row.v.IsClosed() && row.v.ClosedAt != nil && !row.v.ClosedAt.Before(since) {
			counts[monthKey(*row.v.ClosedAt)]++
		}
	}
	return monthCounts(counts), nil
}

func (s *ReportStore) EvidenceByCategory(ctx context.Context, limit int) ([]models.LabelCount, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	counts := map[string]int64{}
	for _, row := range s.db.evidence {
		counts[row.v.ItemCategory]++
	}
	return topLabels(counts, limit), nil
}

func (s *ReportStore) TransfersByPurpose(ctx context.Context) ([]models.LabelCount, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	counts := map[string]int64{}
	for _, row := range s.db.transfers {
		counts[string(row.v.TransferPurpose)]++
	}
	return topLabels(counts, len(models.TransferPurposes)), nil
}

func (s *ReportStore) WorkloadByInvestigator(ctx context.Context, limit int) ([]models.OfficerWorkload, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	byBadge := map[string]*models.OfficerWorkload{}
	for _, row := range s.db.incidents {
		inv := row.v.AssignedInvestigator
		if inv.BadgeNumber == "" {
			continue
		}
		w, ok := byBadge[inv.BadgeNumber]
		if !ok {
			w = &models.OfficerWorkload{BadgeNumber: inv.BadgeNumber}
			byBadge[inv.BadgeNumber] = w
		}
		if inv.Name > w.Name {
			w.Name = inv.Name
		}
		w.CaseCount++
	}
	out := make([]models.OfficerWorkload, 0, len(byBadge))
	for _, w := range byBadge {
		out = append(out, *w)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CaseCount != out[b].CaseCount {
			return out[a].CaseCount > out[b].CaseCount
		}
		return out[a].BadgeNumber < out[b].BadgeNumber
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func monthKey(t time.Time) string {
	return timeutil.FormatIST(t, timeutil.MonthLayout)
}

func monthCounts(counts map[string]int64) []models.MonthCount {
	out := make([]models.MonthCount, 0, len(counts))
	for m, n := range counts {
		out = append(out, models.MonthCount{Month: m, Count: n})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Month < out[b].Month })
	return out
}

func topLabels(counts map[string]int64, limit int) []models.LabelCount {
	out := make([]models.LabelCount, 0, len(counts))
	for l, n := range counts {
		out = append(out, models.LabelCount{Label: l, Count: n})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Label < out[b].Label
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
