package domain

import (
	appdomain "jobtrack-backend/internal/application/domain"
)

// MessageRef points at one discovered message. It carries no content.
type MessageRef struct {
	MessageID string `json:"messageId"`
	ThreadID  string `json:"threadId,omitempty"`
	HistoryID string `json:"historyId,omitempty"`
}

// OutcomeStatus discriminates the result of ingesting one message.
type OutcomeStatus string

const (
	// OutcomeProcessed means the extraction was reconciled into application state.
	OutcomeProcessed OutcomeStatus = "processed"
	// OutcomeDuplicate means the message was already ingested; nothing was done.
	OutcomeDuplicate OutcomeStatus = "duplicate"
	// OutcomeSkipped means the mail was GENERAL; only the reference was stored.
	OutcomeSkipped OutcomeStatus = "skipped"
)

// Outcome is the result of ingesting one message reference.
type Outcome struct {
	Status                OutcomeStatus
	MessageID             string
	EmailID               string
	Forced                bool
	Extraction            *appdomain.ExtractionResult
	ApplicationID         string
	CreatedNewApplication bool
}

// PushNotification is what Gmail publishes on the watch topic.
type PushNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// BatchResult summarizes one push dispatch.
type BatchResult struct {
	UserID    string
	Refs      int
	Outcomes  []Outcome
	Failed    []RefError
	NewCursor string
}

// RefError records a per-message failure with enough context to replay it.
type RefError struct {
	MessageID string
	Err       error
}
