package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"malkhana-backend/internal/apperr"
	"malkhana-backend/internal/models"
)

// TransferRepository is the custody ledger. It only ever inserts; the table also
// carries a trigger that rejects UPDATE and DELETE.
type TransferRepository struct {
	DB *pgxpool.Pool
}

func NewTransferRepository(db *pgxpool.Pool) *TransferRepository {
	return &TransferRepository{DB: db}
}

func (r *TransferRepository) Append(ctx context.Context, t *models.CustodyTransfer, guard models.TransferGuard) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	defer tx.Rollback(ctx)

	if guard.RequireEvidence || guard.RejectClosed {
		var status models.IncidentStatus
		err := tx.QueryRow(ctx,
			`SELECT i.current_status FROM evidence_items e JOIN incidents i ON i.id = e.incident_ref
             WHERE e.id=$1 FOR SHARE OF i`, t.EvidenceRef).Scan(&status)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			if guard.RequireEvidence {
				return apperr.NotFound("Evidence item not found")
			}
		case err != nil:
			return apperr.Internal(err)
		case guard.RejectClosed && status == models.IncidentClosed:
			return apperr.Conflict("Incident is closed; custody transfers can no longer be recorded")
		}
	}

	var receivingName, receivingBadge *string
	if t.ReceivingOfficer != nil {
		receivingName = &t.ReceivingOfficer.Name
		receivingBadge = &t.ReceivingOfficer.BadgeNumber
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO custody_transfers(id, evidence_ref, source_location, releasing_officer_name,
		 releasing_officer_badge, destination_location, receiving_officer_name, receiving_officer_badge,
		 transfer_purpose, transfer_timestamp, notes)
         VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
         RETURNING created_at`,
		t.ID, t.EvidenceRef, t.SourceLocation, t.ReleasingOfficer.Name, t.ReleasingOfficer.BadgeNumber,
		t.DestinationLocation, receivingName, receivingBadge, t.TransferPurpose, t.TransferTimestamp, t.Notes,
	).Scan(&t.CreatedAt)
	if err != nil {
		return apperr.FromDB(err, "Custody transfer")
	}
	return tx.Commit(ctx)
}

// History returns the chain of custody oldest first.
func (r *TransferRepository) History(ctx context.Context, evidenceID uuid.UUID) ([]*models.CustodyTransfer, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, evidence_ref, source_location, releasing_officer_name, releasing_officer_badge,
		 destination_location, receiving_officer_name, receiving_officer_badge, transfer_purpose,
		 transfer_timestamp, notes, created_at
         FROM custody_transfers WHERE evidence_ref=$1
         ORDER BY transfer_timestamp ASC, created_at ASC, id ASC`, evidenceID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	transfers := []*models.CustodyTransfer{}
	for rows.Next() {
		var (
			t                              models.CustodyTransfer
			receivingName, receivingBadge *string
		)
		err := rows.Scan(&t.ID, &t.EvidenceRef, &t.SourceLocation, &t.ReleasingOfficer.Name,
			&t.ReleasingOfficer.BadgeNumber, &t.DestinationLocation, &receivingName, &receivingBadge,
			&t.TransferPurpose, &t.TransferTimestamp, &t.Notes, &t.CreatedAt)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if receivingName != nil || receivingBadge != nil {
			t.ReceivingOfficer = &models.OfficerSnapshot{}
			if receivingName != nil {
				t.ReceivingOfficer.Name = *receivingName
			}
			if receivingBadge != nil {
				t.ReceivingOfficer.BadgeNumber = *receivingBadge
			}
		}
		transfers = append(transfers, &t)
	}
	return transfers, rows.Err()
}
