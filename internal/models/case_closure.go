package models

import (
	"time"

	"github.com/google/uuid"
)

type DispositionMethod string

const (
	DispositionReturnedToOwner DispositionMethod = "RETURNED_TO_OWNER"
	DispositionDestroyed       DispositionMethod = "DESTROYED"
	DispositionSoldAtAuction   DispositionMethod = "SOLD_AT_AUCTION"
	DispositionCourtRetention  DispositionMethod = "COURT_RETENTION"
)

func (d DispositionMethod) Valid() bool {
	switch d {
	case DispositionReturnedToOwner, DispositionDestroyed, DispositionSoldAtAuction, DispositionCourtRetention:
		return true
	}
	return false
}

type CaseClosure struct {
	ID                uuid.UUID         `json:"id"`
	IncidentRef       uuid.UUID         `json:"incidentRef"`
	DispositionMethod DispositionMethod `json:"dispositionMethod"`
	CourtOrderNumber  string            `json:"courtOrderNumber,omitempty"`
	ClosureDate       time.Time         `json:"closureDate"`
	ClosureRemarks    string            `json:"closureRemarks,omitempty"`
	ClosedBy          OfficerSnapshot   `json:"closedBy"`
	CreatedAt         time.Time         `json:"createdAt"`
}

type CloseIncidentRequest struct {
	IncidentRef       string `json:"incidentRef"`
	DispositionMethod string `json:"dispositionMethod"`
	CourtOrderNumber  string `json:"courtOrderNumber"`
	ClosureDate       string `json:"closureDate"`
	ClosureRemarks    string `json:"closureRemarks"`
}
