package repository

import (
	"context"
	"time"

	"jobtrack-backend/internal/application/domain"
)

// JobApplicationRepository defines the store operations on job_applications
type JobApplicationRepository interface {
	Create(ctx context.Context, app *domain.JobApplication) error
	FindByID(ctx context.Context, userID, applicationID string) (*domain.JobApplication, error)
	// FindExact matches company and role byte for byte. A nil location is not filtered on.
	FindExact(ctx context.Context, userID, company, role string, location *string) (*domain.JobApplication, error)
	// FindCaseInsensitive is FindExact ignoring case.
	FindCaseInsensitive(ctx context.Context, userID, company, role string, location *string) (*domain.JobApplication, error)
	// FindByCompanyOverlap returns applications whose company contains, or is contained
	// by, the given company (case-insensitive), oldest first.
	FindByCompanyOverlap(ctx context.Context, userID, company string) ([]domain.JobApplication, error)
	ApplyUpdate(ctx context.Context, applicationID string, update domain.ApplicationUpdate) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.JobApplication, int64, error)
}

// ApplicationEventRepository defines the store operations on application_events
type ApplicationEventRepository interface {
	Create(ctx context.Context, event *domain.ApplicationEvent) error
	ListByApplication(ctx context.Context, userID, applicationID string) ([]domain.ApplicationEvent, error)
}

// EmailReferenceRepository defines the store operations on email_refs
type EmailReferenceRepository interface {
	FindByMessageID(ctx context.Context, userID, externalMessageID string) (*domain.EmailReference, error)
	// Ensure inserts ref unless one already exists for (user, message).
	// It returns the stored row and whether this call created it.
	Ensure(ctx context.Context, ref *domain.EmailReference) (*domain.EmailReference, bool, error)
	LinkApplication(ctx context.Context, emailID, applicationID string) error
	// UpdateExtraction records the classification of a re-parsed email.
	UpdateExtraction(ctx context.Context, emailID string, intent domain.Intent, confidence float64, parsedAt time.Time) error
}
