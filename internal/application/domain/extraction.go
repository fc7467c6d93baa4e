package domain

import "time"

// Intent is the extractor's classification of why an email was sent.
type Intent string

const (
	IntentNewApplication   Intent = "NEW_APPLICATION"
	IntentApplicationEvent Intent = "APPLICATION_EVENT"
	IntentGeneral          Intent = "GENERAL"
)

const (
	UnknownCompany = "Unknown Company"
	UnknownRole    = "Unknown Role"
)

// ExtractionResult is the structured output of one extraction call.
// It is produced per email, consumed by reconciliation and then discarded.
type ExtractionResult struct {
	Company          string            `json:"company"`
	Role             string            `json:"role"`
	Status           ApplicationStatus `json:"status"`
	Intent           Intent            `json:"intent"`
	Location         *string           `json:"location,omitempty"`
	SalaryRange      *string           `json:"salary_range,omitempty"`
	Notes            *string           `json:"notes,omitempty"`
	EventType        *EventType        `json:"event_type,omitempty"`
	EventDescription *string           `json:"event_description,omitempty"`
	EventDate        *time.Time        `json:"event_date,omitempty"`
	ConfidenceScore  float64           `json:"confidence_score"`
}

// FallbackExtraction is returned when the model could not produce a usable result.
// It always routes as GENERAL so no application state is touched.
func FallbackExtraction(reason string) *ExtractionResult {
	return &ExtractionResult{
		Company:         UnknownCompany,
		Role:            UnknownRole,
		Status:          StatusApplied,
		Intent:          IntentGeneral,
		Notes:           &reason,
		ConfidenceScore: 0.0,
	}
}
