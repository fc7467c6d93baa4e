package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"jobtrack-backend/internal/application/domain"
	"jobtrack-backend/internal/application/repository"
	"jobtrack-backend/pkg/fuzzy"
	"jobtrack-backend/pkg/keylock"
)

var (
	// ErrGeneralIntent is returned when GENERAL mail reaches the reconciler.
	ErrGeneralIntent = errors.New("general intent is not reconciled")
	// ErrMissingLinkage is returned when the extraction lacks company or role.
	ErrMissingLinkage = errors.New("extraction missing company or role")
)

// ReconcilerService implements Reconciler
type ReconcilerService struct {
	apps     repository.JobApplicationRepository
	events   repository.ApplicationEventRepository
	refs     repository.EmailReferenceRepository
	matcher  Matcher
	locks    *keylock.Locker
	notifier ChangeNotifier
	now      func() time.Time
}

// NewReconciler creates a reconciler. The match-then-write sequence runs under
// a lock keyed by (user, company, role) so concurrent pushes for the same
// application cannot both create it.
func NewReconciler(
	apps repository.JobApplicationRepository,
	events repository.ApplicationEventRepository,
	refs repository.EmailReferenceRepository,
	matcher Matcher,
) *ReconcilerService {
	return &ReconcilerService{
		apps:    apps,
		events:  events,
		refs:    refs,
		matcher: matcher,
		locks:   keylock.New(),
		now:     time.Now,
	}
}

// SetNotifier sets the notifier told about created applications and status changes
func (r *ReconcilerService) SetNotifier(n ChangeNotifier) {
	r.notifier = n
}

func (r *ReconcilerService) Reconcile(ctx context.Context, userID string, ex *domain.ExtractionResult, emailID string) (*ReconcileResult, error) {
	if ex == nil {
		return nil, errors.New("nil extraction")
	}
	if strings.TrimSpace(ex.Company) == "" || strings.TrimSpace(ex.Role) == "" {
		return nil, ErrMissingLinkage
	}

	unlock := r.locks.Lock(lockKey(userID, ex.Company, ex.Role))
	defer unlock()

	switch ex.Intent {
	case domain.IntentNewApplication:
		return r.newApplication(ctx, userID, ex, emailID)
	case domain.IntentApplicationEvent:
		return r.applicationEvent(ctx, userID, ex, emailID)
	case domain.IntentGeneral:
		return nil, ErrGeneralIntent
	default:
		return nil, fmt.Errorf("unknown intent %q", ex.Intent)
	}
}

func (r *ReconcilerService) newApplication(ctx context.Context, userID string, ex *domain.ExtractionResult, emailID string) (*ReconcileResult, error) {
	app, err := r.createApplication(ctx, userID, ex)
	if err != nil {
		return nil, err
	}
	if err := r.refs.LinkApplication(ctx, emailID, app.ID); err != nil {
		return nil, fmt.Errorf("link email %s to application %s: %w", emailID, app.ID, err)
	}

	log.Printf("[Reconciler] created application user=%s application=%s company=%q role=%q", userID, app.ID, app.Company, app.Role)
	r.notify(ctx, ApplicationChange{
		UserID:        userID,
		ApplicationID: app.ID,
		Company:       app.Company,
		Role:          app.Role,
		Status:        app.Status,
		Created:       true,
	})

	return &ReconcileResult{
		Intent:                domain.IntentNewApplication,
		ApplicationID:         app.ID,
		CreatedNewApplication: true,
	}, nil
}

func (r *ReconcilerService) applicationEvent(ctx context.Context, userID string, ex *domain.ExtractionResult, emailID string) (*ReconcileResult, error) {
	match, err := r.matcher.FindMatchingApplication(ctx, userID, ex.Company, ex.Role, ex.Location)
	if err != nil {
		return nil, fmt.Errorf("match application: %w", err)
	}

	var (
		applicationID  string
		created        bool
		previousStatus domain.ApplicationStatus
	)
	if match.IsSome() {
		applicationID = match.UnwrapOr(Match{}).ApplicationID
		if r.notifier != nil {
			if existing, err := r.apps.FindByID(ctx, userID, applicationID); err == nil && existing != nil {
				previousStatus = existing.Status
			}
		}
	} else {
		// No earlier "new application" mail was seen for this one
		app, err := r.createApplication(ctx, userID, ex)
		if err != nil {
			return nil, err
		}
		applicationID = app.ID
		created = true
		log.Printf("[Reconciler] no match, created application user=%s application=%s company=%q role=%q", userID, applicationID, ex.Company, ex.Role)
	}

	now := r.now()
	event := &domain.ApplicationEvent{
		ApplicationID: applicationID,
		UserID:        userID,
		EventType:     domain.EventApplicationReceived,
		Description:   fmt.Sprintf("Event from email: %s - %s", ex.Company, ex.Role),
		EventDate:     now,
	}
	if emailID != "" {
		event.EmailID = &emailID
	}
	if ex.EventType != nil && *ex.EventType != "" {
		event.EventType = *ex.EventType
	}
	if ex.EventDescription != nil && *ex.EventDescription != "" {
		event.Description = *ex.EventDescription
	}
	if ex.EventDate != nil && !ex.EventDate.IsZero() {
		event.EventDate = *ex.EventDate
	}
	if err := r.events.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("insert event for application %s: %w", applicationID, err)
	}

	update := MergeUpdate(ex, now)
	if err := r.apps.ApplyUpdate(ctx, applicationID, update); err != nil {
		return nil, fmt.Errorf("update application %s: %w", applicationID, err)
	}

	if err := r.refs.LinkApplication(ctx, emailID, applicationID); err != nil {
		return nil, fmt.Errorf("link email %s to application %s: %w", emailID, applicationID, err)
	}

	log.Printf("[Reconciler] recorded event user=%s application=%s type=%s fields=%v", userID, applicationID, event.EventType, update.Fields())

	status := previousStatus
	if update.Status != nil {
		status = *update.Status
	}
	if created || status != previousStatus {
		r.notify(ctx, ApplicationChange{
			UserID:         userID,
			ApplicationID:  applicationID,
			Company:        ex.Company,
			Role:           ex.Role,
			Status:         status,
			PreviousStatus: previousStatus,
			Created:        created,
			EventType:      event.EventType,
		})
	}

	return &ReconcileResult{
		Intent:                domain.IntentApplicationEvent,
		ApplicationID:         applicationID,
		Event:                 event,
		UpdatedFields:         update.Fields(),
		CreatedNewApplication: created,
	}, nil
}

func (r *ReconcilerService) createApplication(ctx context.Context, userID string, ex *domain.ExtractionResult) (*domain.JobApplication, error) {
	now := r.now()
	status := ex.Status
	if !status.Valid() {
		status = domain.StatusApplied
	}
	app := &domain.JobApplication{
		UserID:              userID,
		Company:             ex.Company,
		Role:                ex.Role,
		Status:              status,
		Location:            nonEmpty(ex.Location),
		SalaryRange:         nonEmpty(ex.SalaryRange),
		Notes:               nonEmpty(ex.Notes),
		AppliedDate:         now,
		CreatedAt:           now,
		LastUpdatedAt:       now,
		LastEmailReceivedAt: now,
	}
	if err := r.apps.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("insert application: %w", err)
	}
	return app, nil
}

func (r *ReconcilerService) notify(ctx context.Context, change ApplicationChange) {
	if r.notifier == nil {
		return
	}
	r.notifier.NotifyApplicationChange(ctx, change)
}

// MergeUpdate builds the partial update for an event email. Timestamps are
// always refreshed; other fields are written only when the extraction has them.
func MergeUpdate(ex *domain.ExtractionResult, now time.Time) domain.ApplicationUpdate {
	update := domain.ApplicationUpdate{
		LastUpdatedAt:       now,
		LastEmailReceivedAt: now,
		Location:            nonEmpty(ex.Location),
		SalaryRange:         nonEmpty(ex.SalaryRange),
		Notes:               nonEmpty(ex.Notes),
	}
	if ex.Status.Valid() {
		status := ex.Status
		update.Status = &status
	}
	return update
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := *s
	return &v
}

func lockKey(userID, company, role string) string {
	return userID + "\x00" + fuzzy.NormalizeCompany(company) + "\x00" + fuzzy.NormalizeRole(role)
}
