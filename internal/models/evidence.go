package models

import (
	"time"

	"github.com/google/uuid"
)

type AssociatedParty string

const (
	PartySuspect      AssociatedParty = "SUSPECT"
	PartyVictim       AssociatedParty = "VICTIM"
	PartyUnidentified AssociatedParty = "UNIDENTIFIED"
)

func (p AssociatedParty) Valid() bool {
	switch p {
	case PartySuspect, PartyVictim, PartyUnidentified:
		return true
	}
	return false
}

const DefaultMeasurementUnit = "piece"

type Quantity struct {
	Amount          int    `json:"amount"`
	MeasurementUnit string `json:"measurementUnit"`
}

type StorageDetails struct {
	RoomNumber    string `json:"roomNumber,omitempty"`
	RackNumber    string `json:"rackNumber,omitempty"`
	CompartmentID string `json:"compartmentId,omitempty"`
}

type EvidenceItem struct {
	ID              uuid.UUID       `json:"id"`
	IncidentRef     uuid.UUID       `json:"incidentRef"`
	ItemCategory    string          `json:"itemCategory"`
	AssociatedParty AssociatedParty `json:"associatedParty"`
	ItemDescription string          `json:"itemDescription"`
	ItemQuantity    Quantity        `json:"itemQuantity"`
	StorageDetails  StorageDetails  `json:"storageDetails"`
	Remarks         string          `json:"remarks,omitempty"`
	PhotographURL   *string         `json:"photographUrl,omitempty"`
	TrackingQRCode  *string         `json:"trackingQrCode,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// RegisterEvidenceRequest mirrors the registration form. Quantity is a pointer so
// a missing value can be told apart from zero.
type RegisterEvidenceRequest struct {
	IncidentRef     string `json:"incidentRef"`
	ItemCategory    string `json:"itemCategory"`
	AssociatedParty string `json:"associatedParty"`
	ItemDescription string `json:"itemDescription"`
	Quantity        *int   `json:"quantity"`
	MeasurementUnit string `json:"measurementUnit"`
	RoomNumber      string `json:"roomNumber"`
	RackNumber      string `json:"rackNumber"`
	CompartmentID   string `json:"compartmentId"`
	Remarks         string `json:"remarks"`
}

// Photo is an uploaded evidence photograph.
type Photo struct {
	Data        []byte
	ContentType string
}

type EvidenceQuery struct {
	IncidentID string
	Category   string
	Party      string
	Keyword    string
}

type EvidenceFilter struct {
	IncidentID *uuid.UUID
	Category   string
	Party      AssociatedParty
	Keyword    string
}
