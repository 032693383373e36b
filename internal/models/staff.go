package models

import (
	"time"

	"github.com/google/uuid"
)

type Designation string

const (
	DesignationOfficer Designation = "OFFICER"
	DesignationAdmin   Designation = "ADMIN"
)

func (d Designation) Valid() bool {
	return d == DesignationOfficer || d == DesignationAdmin
}

// StaffMember is a department user. PasswordHash never leaves the server.
type StaffMember struct {
	ID                uuid.UUID   `json:"id"`
	FullName          string      `json:"fullName"`
	BadgeNumber       string      `json:"badgeNumber"`
	Designation       Designation `json:"designation"`
	StationAssignment string      `json:"stationAssignment"`
	PasswordHash      string      `json:"-"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// Snapshot copies the name and badge for embedding in historical records.
func (s *StaffMember) Snapshot() OfficerSnapshot {
	return OfficerSnapshot{Name: s.FullName, BadgeNumber: s.BadgeNumber}
}

// OfficerSnapshot is an immutable name+badge copy taken at write time.
type OfficerSnapshot struct {
	Name        string `json:"name"`
	BadgeNumber string `json:"badgeNumber"`
}

type RegisterStaffRequest struct {
	FullName          string `json:"fullName"`
	BadgeNumber       string `json:"badgeNumber"`
	Password          string `json:"password"`
	Designation       string `json:"designation"`
	StationAssignment string `json:"stationAssignment"`
}

type LoginRequest struct {
	BadgeNumber string `json:"badgeNumber"`
	Password    string `json:"password"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Staff     *StaffMember `json:"staff"`
}
