package domain

import "time"

// EventType classifies a discrete occurrence on an application.
type EventType string

const (
	EventApplicationSubmitted EventType = "APPLICATION_SUBMITTED"
	EventApplicationViewed    EventType = "APPLICATION_VIEWED"
	EventApplicationReviewed  EventType = "APPLICATION_REVIEWED"
	EventAssessmentReceived   EventType = "ASSESSMENT_RECEIVED"
	EventAssessmentCompleted  EventType = "ASSESSMENT_COMPLETED"
	EventInterviewScheduled   EventType = "INTERVIEW_SCHEDULED"
	EventInterviewCompleted   EventType = "INTERVIEW_COMPLETED"
	EventReferenceRequested   EventType = "REFERENCE_REQUESTED"
	EventOfferReceived        EventType = "OFFER_RECEIVED"
	EventOfferAccepted        EventType = "OFFER_ACCEPTED"
	EventOfferDeclined        EventType = "OFFER_DECLINED"
	EventApplicationRejected  EventType = "APPLICATION_REJECTED"
	EventApplicationWithdrawn EventType = "APPLICATION_WITHDRAWN"

	// EventApplicationReceived is recorded when the extractor did not name a type.
	EventApplicationReceived EventType = "APPLICATION_RECEIVED"
)

// EventTypes lists the types the extractor may emit.
var EventTypes = []EventType{
	EventApplicationSubmitted,
	EventApplicationViewed,
	EventApplicationReviewed,
	EventAssessmentReceived,
	EventAssessmentCompleted,
	EventInterviewScheduled,
	EventInterviewCompleted,
	EventReferenceRequested,
	EventOfferReceived,
	EventOfferAccepted,
	EventOfferDeclined,
	EventApplicationRejected,
	EventApplicationWithdrawn,
}

// ApplicationEvent is append-only and always belongs to one JobApplication.
type ApplicationEvent struct {
	ID            string    `json:"event_id" gorm:"column:event_id;primaryKey"`
	ApplicationID string    `json:"application_id" gorm:"index;not null"`
	UserID        string    `json:"user_id" gorm:"index;not null"`
	EventType     EventType `json:"event_type" gorm:"type:varchar(40);not null"`
	Description   string    `json:"description" gorm:"type:text"`
	EventDate     time.Time `json:"event_date"`
	EmailID       *string   `json:"email_id,omitempty" gorm:"index"`
	CreatedAt     time.Time `json:"created_at"`
}

func (ApplicationEvent) TableName() string {
	return "application_events"
}
