package domain

import "time"

// ApplicationStatus is the lifecycle state of a tracked application.
// Any status may overwrite any other; ordering is not enforced.
type ApplicationStatus string

const (
	StatusApplied    ApplicationStatus = "APPLIED"
	StatusAssessment ApplicationStatus = "ASSESSMENT"
	StatusInterview  ApplicationStatus = "INTERVIEW"
	StatusRejected   ApplicationStatus = "REJECTED"
	StatusOffered    ApplicationStatus = "OFFERED"
	StatusAccepted   ApplicationStatus = "ACCEPTED"
	StatusWithdrawn  ApplicationStatus = "WITHDRAWN"
)

// ApplicationStatuses lists every valid status in declaration order.
var ApplicationStatuses = []ApplicationStatus{
	StatusApplied,
	StatusAssessment,
	StatusInterview,
	StatusRejected,
	StatusOffered,
	StatusAccepted,
	StatusWithdrawn,
}

func (s ApplicationStatus) Valid() bool {
	for _, v := range ApplicationStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// JobApplication is one application a user has submitted.
type JobApplication struct {
	ID                  string            `json:"application_id" gorm:"column:application_id;primaryKey"`
	UserID              string            `json:"user_id" gorm:"index:idx_app_user_company;not null"`
	Company             string            `json:"company" gorm:"index:idx_app_user_company;not null"`
	Role                string            `json:"role" gorm:"not null"`
	Status              ApplicationStatus `json:"status" gorm:"type:varchar(20);not null;default:'APPLIED'"`
	Location            *string           `json:"location,omitempty"`
	SalaryRange         *string           `json:"salary_range,omitempty"`
	Notes               *string           `json:"notes,omitempty" gorm:"type:text"`
	AppliedDate         time.Time         `json:"applied_date"`
	CreatedAt           time.Time         `json:"created_at"`
	LastUpdatedAt       time.Time         `json:"last_updated_at"`
	LastEmailReceivedAt time.Time         `json:"last_email_received_at"`
}

func (JobApplication) TableName() string {
	return "job_applications"
}

// ApplicationUpdate is a partial update. Nil fields leave the stored value untouched.
type ApplicationUpdate struct {
	Status              *ApplicationStatus
	Location            *string
	SalaryRange         *string
	Notes               *string
	LastUpdatedAt       time.Time
	LastEmailReceivedAt time.Time
}

// Fields returns the column names this update will write, in a stable order.
func (u ApplicationUpdate) Fields() []string {
	fields := []string{"last_updated_at", "last_email_received_at"}
	if u.Status != nil {
		fields = append(fields, "status")
	}
	if u.Location != nil {
		fields = append(fields, "location")
	}
	if u.SalaryRange != nil {
		fields = append(fields, "salary_range")
	}
	if u.Notes != nil {
		fields = append(fields, "notes")
	}
	return fields
}

// Columns maps the update to a gorm column map.
func (u ApplicationUpdate) Columns() map[string]interface{} {
	cols := map[string]interface{}{
		"last_updated_at":        u.LastUpdatedAt,
		"last_email_received_at": u.LastEmailReceivedAt,
	}
	if u.Status != nil {
		cols["status"] = *u.Status
	}
	if u.Location != nil {
		cols["location"] = *u.Location
	}
	if u.SalaryRange != nil {
		cols["salary_range"] = *u.SalaryRange
	}
	if u.Notes != nil {
		cols["notes"] = *u.Notes
	}
	return cols
}
