package models

// MonthCount is one point of a monthly timeline keyed YYYY-MM.
type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

type OfficerWorkload struct {
	Name        string `json:"name"`
	BadgeNumber string `json:"badgeNumber"`
	CaseCount   int64  `json:"caseCount"`
}

type ReportsOverview struct {
	IncidentsTimeline           []MonthCount      `json:"incidentsTimeline"`
	ClosuresTimeline            []MonthCount      `json:"closuresTimeline"`
	EvidenceDistribution        []LabelCount      `json:"evidenceDistribution"`
	OfficerWorkload             []OfficerWorkload `json:"officerWorkload"`
	TransferPurposeDistribution []LabelCount      `json:"transferPurposeDistribution"`
	GeneratedAt                 string            `json:"generatedAt"`
}
