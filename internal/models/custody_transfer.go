package models

import (
	"time"

	"github.com/google/uuid"
)

type TransferPurpose string

const (
	PurposeStorage         TransferPurpose = "STORAGE"
	PurposeCourtProduction TransferPurpose = "COURT_PRODUCTION"
	PurposeForensicLab     TransferPurpose = "FORENSIC_LAB"
	PurposeExamination     TransferPurpose = "EXAMINATION"
	PurposeRelocation      TransferPurpose = "RELOCATION"
)

var TransferPurposes = []TransferPurpose{
	PurposeStorage, PurposeCourtProduction, PurposeForensicLab, PurposeExamination, PurposeRelocation,
}

func (p TransferPurpose) Valid() bool {
	for _, v := range TransferPurposes {
		if p == v {
			return true
		}
	}
	return false
}

// CustodyTransfer is one entry of an append-only chain of custody.
type CustodyTransfer struct {
	ID                  uuid.UUID        `json:"id"`
	EvidenceRef         uuid.UUID        `json:"evidenceRef"`
	SourceLocation      string           `json:"sourceLocation,omitempty"`
	ReleasingOfficer    OfficerSnapshot  `json:"releasingOfficer"`
	DestinationLocation string           `json:"destinationLocation"`
	ReceivingOfficer    *OfficerSnapshot `json:"receivingOfficer,omitempty"`
	TransferPurpose     TransferPurpose  `json:"transferPurpose"`
	TransferTimestamp   time.Time        `json:"transferTimestamp"`
	Notes               string           `json:"notes,omitempty"`
	CreatedAt           time.Time        `json:"createdAt"`
}

type RecordTransferRequest struct {
	EvidenceRef         string           `json:"evidenceRef"`
	SourceLocation      string           `json:"sourceLocation"`
	DestinationLocation string           `json:"destinationLocation"`
	ReceivingOfficer    *OfficerSnapshot `json:"receivingOfficer"`
	TransferPurpose     string           `json:"transferPurpose"`
	TransferTimestamp   string           `json:"transferTimestamp"`
	Notes               string           `json:"notes"`
}

// TransferGuard selects the checks run before a transfer is appended.
type TransferGuard struct {
	RequireEvidence bool
	RejectClosed    bool
}
