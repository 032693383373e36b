package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"malkhana-backend/internal/apperr"
	"malkhana-backend/internal/logger"
	"malkhana-backend/internal/metrics"
	"malkhana-backend/internal/models"
	"malkhana-backend/internal/timeutil"
)

// TransferService records custody movements. The ledger is append-only: there is
// no update or delete path.
type TransferService struct {
	Repo     TransferStore
	Evidence EvidenceStore
	policy   models.LifecyclePolicy
	cache    CacheInvalidator
	now      timeutil.Clock
	log      *logger.Logger
}

func NewTransferService(repo TransferStore, evidence EvidenceStore, policy models.LifecyclePolicy, log *logger.Logger) *TransferService {
	return &TransferService{
		Repo:     repo,
		Evidence: evidence,
		policy:   policy,
		cache:    nopInvalidator{},
		now:      timeutil.Now,
		log:      log,
	}
}

func (s *TransferService) SetCache(c CacheInvalidator) { s.cache = c }

func (s *TransferService) SetClock(now timeutil.Clock) { s.now = now }

// Record appends a transfer. The caller is stamped as the releasing officer.
func (s *TransferService) Record(ctx context.Context, req *models.RecordTransferRequest, releasing models.OfficerSnapshot) (*models.CustodyTransfer, error) {
	evidenceID, err := parseID("evidenceRef", req.EvidenceRef)
	if err != nil {
		return nil, err
	}
	destination, err := required("destinationLocation", req.DestinationLocation)
	if err != nil {
		return nil, err
	}
	purpose := models.TransferPurpose(strings.ToUpper(strings.TrimSpace(req.TransferPurpose)))
	if !purpose.Valid() {
		return nil, apperr.BadRequest("transferPurpose must be one of %s", joinPurposes())
	}

	at := s.now()
	if strings.TrimSpace(req.TransferTimestamp) != "" {
		at, err = timeutil.ParseDate(req.TransferTimestamp)
		if err != nil {
			return nil, apperr.BadRequest("transferTimestamp: %v", err)
		}
	}

	var receiving *models.OfficerSnapshot
	if req.ReceivingOfficer != nil {
		r := models.OfficerSnapshot{
			Name:        strings.TrimSpace(req.ReceivingOfficer.Name),
			BadgeNumber: NormalizeBadge(req.ReceivingOfficer.BadgeNumber),
		}
		if r.Name != "" || r.BadgeNumber != "" {
			receiving = &r
		}
	}

	source := strings.TrimSpace(req.SourceLocation)
	limits := []fieldLimit{
		{"sourceLocation", source, maxLocationLength},
		{"destinationLocation", destination, maxLocationLength},
	}
	if receiving != nil {
		limits = append(limits,
			fieldLimit{"receivingOfficer.name", receiving.Name, maxNameLength},
			fieldLimit{"receivingOfficer.badgeNumber", receiving.BadgeNumber, maxBadgeLength},
		)
	}
	if err := withinLimits(limits...); err != nil {
		return nil, err
	}

	t := &models.CustodyTransfer{
		ID:                  uuid.New(),
		EvidenceRef:         evidenceID,
		SourceLocation:      source,
		ReleasingOfficer:    releasing,
		DestinationLocation: destination,
		ReceivingOfficer:    receiving,
		TransferPurpose:     purpose,
		TransferTimestamp:   at,
		Notes:               strings.TrimSpace(req.Notes),
	}
	guard := models.TransferGuard{
		RequireEvidence: s.policy.RequireEvidenceExists,
		RejectClosed:    s.policy.LockClosedIncidents,
	}
	if err := s.Repo.Append(ctx, t, guard); err != nil {
		return nil, err
	}

	metrics.CustodyTransfers.WithLabelValues(string(purpose)).Inc()
	s.cache.InvalidateReportCaches(ctx)
	s.log.Info("custody transfer recorded", "transfer_id", t.ID, "evidence_id", t.EvidenceRef, "purpose", purpose)
	return t, nil
}

// History returns the chain of custody, oldest transfer first.
func (s *TransferService) History(ctx context.Context, evidenceID uuid.UUID) ([]*models.CustodyTransfer, error) {
	return s.Repo.History(ctx, evidenceID)
}

// CustodyReportPDF renders an item's chain of custody as a printable A4 document.
func (s *TransferService) CustodyReportPDF(ctx context.Context, evidenceID uuid.UUID) ([]byte, error) {
	item, err := s.Evidence.Get(ctx, evidenceID)
	if err != nil {
		return nil, err
	}
	chain, err := s.Repo.History(ctx, evidenceID)
	if err != nil {
		return nil, err
	}
	return renderCustodyPDF(item, chain, s.now())
}

func renderCustodyPDF(item *models.EvidenceItem, chain []*models.CustodyTransfer, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Malkhana - Chain of Custody", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", timeutil.FormatIST(generated, timeutil.DisplayLayout)), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, "Evidence Item", "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(95, 7, "Item ID: "+item.ID.String(), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Incident: "+item.IncidentRef.String(), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, tr("Category: "+item.ItemCategory), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, "Party: "+string(item.AssociatedParty), "RB", 1, "L", false, 0, "")
	pdf.CellFormat(95, 7, fmt.Sprintf("Quantity: %d %s", item.ItemQuantity.Amount, item.ItemQuantity.MeasurementUnit), "LB", 0, "L", false, 0, "")
	pdf.CellFormat(95, 7, tr("Location: "+storageLabel(item.StorageDetails)), "RB", 1, "L", false, 0, "")
	pdf.MultiCell(190, 7, tr("Description: "+item.ItemDescription), "1", "L", false)
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(190, 8, fmt.Sprintf("Custody Transfers (%d)", len(chain)), "1", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(8, 7, "#", "1", 0, "C", true, 0, "")
	pdf.CellFormat(34, 7, "Date", "1", 0, "C", true, 0, "")
	pdf.CellFormat(30, 7, "Purpose", "1", 0, "C", true, 0, "")
	pdf.CellFormat(34, 7, "From", "1", 0, "C", true, 0, "")
	pdf.CellFormat(34, 7, "To", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Released by", "1", 0, "C", true, 0, "")
	pdf.CellFormat(25, 7, "Received by", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 8)
	if len(chain) == 0 {
		pdf.CellFormat(190, 7, "No transfers recorded", "1", 1, "C", false, 0, "")
	}
	for i, t := range chain {
		received := "-"
		if t.ReceivingOfficer != nil {
			received = t.ReceivingOfficer.BadgeNumber
		}
		pdf.CellFormat(8, 6, fmt.Sprintf("%d", i+1), "1", 0, "C", false, 0, "")
		pdf.CellFormat(34, 6, timeutil.FormatIST(t.TransferTimestamp, timeutil.DateTimeLayout), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, string(t.TransferPurpose), "1", 0, "C", false, 0, "")
		pdf.CellFormat(34, 6, tr(truncate(orDash(t.SourceLocation), 22)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(34, 6, tr(truncate(t.DestinationLocation, 22)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, t.ReleasingOfficer.BadgeNumber, "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, received, "1", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperr.Internal(err)
	}
	return buf.Bytes(), nil
}

func storageLabel(d models.StorageDetails) string {
	var parts []string
	if d.RoomNumber != "" {
		parts = append(parts, "Room "+d.RoomNumber)
	}
	if d.RackNumber != "" {
		parts = append(parts, "Rack "+d.RackNumber)
	}
	if d.CompartmentID != "" {
		parts = append(parts, "Comp. "+d.CompartmentID)
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func joinPurposes() string {
	names := make([]string, len(models.TransferPurposes))
	for i, p := range models.TransferPurposes {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
