package domain

import "time"

// EmailReference records one processed source message. It exists for
// deduplication and cursor tracking; at most one row per (user, message).
type EmailReference struct {
	ID                string    `json:"email_id" gorm:"column:email_id;primaryKey"`
	UserID            string    `json:"user_id" gorm:"not null;uniqueIndex:idx_email_ref_user_message"`
	ExternalMessageID string    `json:"external_message_id" gorm:"not null;uniqueIndex:idx_email_ref_user_message"`
	ThreadID          *string   `json:"thread_id,omitempty"`
	HistoryCursor     *string   `json:"history_cursor,omitempty"`
	Sender            string    `json:"sender"`
	Subject           string    `json:"subject"`
	BodyText          *string   `json:"body_text,omitempty" gorm:"type:text"`
	BodyHTML          *string   `json:"body_html,omitempty" gorm:"type:text"`
	Intent            Intent    `json:"intent" gorm:"type:varchar(20)"`
	ConfidenceScore   float64   `json:"confidence_score"`
	ReceivedAt        time.Time `json:"received_at"`
	ParsedAt          time.Time `json:"parsed_at"`
	ApplicationID     *string   `json:"application_id,omitempty" gorm:"index"`
	CreatedAt         time.Time `json:"created_at"`
}

func (EmailReference) TableName() string {
	return "email_refs"
}
