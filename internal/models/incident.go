package models

import (
	"time"

	"github.com/google/uuid"
)

type IncidentStatus string

const (
	IncidentActive IncidentStatus = "ACTIVE"
	IncidentClosed IncidentStatus = "CLOSED"
)

func (s IncidentStatus) Valid() bool {
	return s == IncidentActive || s == IncidentClosed
}

// Incident is a registered FIR. It starts ACTIVE and only a closure moves it to CLOSED.
type Incident struct {
	ID                   uuid.UUID       `json:"id"`
	RegistrationStation  string          `json:"registrationStation"`
	FIRNumber            string          `json:"firNumber"`
	RegistrationYear     int             `json:"registrationYear"`
	AssignedInvestigator OfficerSnapshot `json:"assignedInvestigator"`
	FIRFilingDate        time.Time       `json:"firFilingDate"`
	EvidenceSeizureDate  time.Time       `json:"evidenceSeizureDate"`
	ApplicableSections   string          `json:"applicableSections"`
	CurrentStatus        IncidentStatus  `json:"currentStatus"`
	ClosedAt             *time.Time      `json:"closedAt,omitempty"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

func (i *Incident) IsClosed() bool {
	return i.CurrentStatus == IncidentClosed
}

type CreateIncidentRequest struct {
	RegistrationStation string `json:"registrationStation"`
	FIRNumber           string `json:"firNumber"`
	RegistrationYear    int    `json:"registrationYear"`
	FIRFilingDate       string `json:"firFilingDate"`
	EvidenceSeizureDate string `json:"evidenceSeizureDate"`
	ApplicableSections  string `json:"applicableSections"`
}

// IncidentQuery holds raw search parameters as received from the client.
type IncidentQuery struct {
	Station   string
	FIRNumber string
	Year      string
	Status    string
	Keyword   string
}

// IncidentFilter is a validated IncidentQuery. Zero values mean "no filter".
type IncidentFilter struct {
	Station   string
	FIRNumber string
	Year      int
	Status    IncidentStatus
	Keyword   string
}

// IncidentMetrics counts are read independently and are not a consistent snapshot.
type IncidentMetrics struct {
	Total  int64 `json:"totalIncidents"`
	Active int64 `json:"activeIncidents"`
	Closed int64 `json:"closedIncidents"`
}

type IncidentDashboard struct {
	Metrics       IncidentMetrics `json:"metrics"`
	PendingAlerts []*Incident     `json:"pendingAlerts"`
	ThresholdDays int             `json:"thresholdDays"`
}
