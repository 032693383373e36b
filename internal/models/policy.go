package models

// LifecyclePolicy switches the guards around the incident lifecycle.
// Legacy reproduces the permissive historical behaviour; Strict enables every guard.
type LifecyclePolicy struct {
	RejectDuplicateFIR    bool `json:"rejectDuplicateFir"`
	RejectDoubleClosure   bool `json:"rejectDoubleClosure"`
	LockClosedIncidents   bool `json:"lockClosedIncidents"`
	RequireEvidenceExists bool `json:"requireEvidenceExists"`
}

func LegacyPolicy() LifecyclePolicy {
	return LifecyclePolicy{}
}

func StrictPolicy() LifecyclePolicy {
	return LifecyclePolicy{
		RejectDuplicateFIR:    true,
		RejectDoubleClosure:   true,
		LockClosedIncidents:   true,
		RequireEvidenceExists: true,
	}
}
