package usecase

import (
	"context"

	"jobtrack-backend/internal/application/domain"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// Matcher finds the existing application an event email refers to.
type Matcher interface {
	FindMatchingApplication(ctx context.Context, userID, company, role string, location *string) (fn.Option[Match], error)
}

// Reconciler turns one extraction into application and event writes.
type Reconciler interface {
	Reconcile(ctx context.Context, userID string, extraction *domain.ExtractionResult, emailID string) (*ReconcileResult, error)
}

// ChangeNotifier is told about applications that were created or whose
// status moved. Implementations must not block for long.
type ChangeNotifier interface {
	NotifyApplicationChange(ctx context.Context, change ApplicationChange)
}

// ApplicationUsecase backs the read API.
type ApplicationUsecase interface {
	ListApplications(ctx context.Context, userID string, limit, offset int) ([]domain.JobApplication, int64, error)
	GetApplication(ctx context.Context, userID, applicationID string) (*domain.JobApplication, error)
	ListEvents(ctx context.Context, userID, applicationID string) ([]domain.ApplicationEvent, error)
}

// MatchTier records which matcher stage produced a hit.
type MatchTier int

const (
	TierExact MatchTier = iota + 1
	TierCaseInsensitive
	TierContainment
	TierSimilarity
)

func (t MatchTier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierCaseInsensitive:
		return "case_insensitive"
	case TierContainment:
		return "containment"
	case TierSimilarity:
		return "similarity"
	default:
		return "unknown"
	}
}

type Match struct {
	ApplicationID string
	Tier          MatchTier
	Score         float64
}

// ReconcileResult describes the writes made for one email.
type ReconcileResult struct {
	Intent                domain.Intent
	ApplicationID         string
	Event                 *domain.ApplicationEvent
	UpdatedFields         []string
	CreatedNewApplication bool
}

type ApplicationChange struct {
	UserID         string
	ApplicationID  string
	Company        string
	Role           string
	Status         domain.ApplicationStatus
	PreviousStatus domain.ApplicationStatus
	Created        bool
	EventType      domain.EventType
}
