package usecase

import (
	"context"
	"fmt"
	"log"

	"jobtrack-backend/internal/application/repository"
	"jobtrack-backend/pkg/fuzzy"

	"github.com/lightningnetwork/lnd/fn/v2"
)

// SimilarityThreshold is the minimum role ratio accepted by the last tier.
const SimilarityThreshold = 0.70

type matcher struct {
	apps      repository.JobApplicationRepository
	threshold float64
}

func NewMatcher(apps repository.JobApplicationRepository) Matcher {
	return &matcher{
		apps:      apps,
		threshold: SimilarityThreshold,
	}
}

// FindMatchingApplication tries exact, then case-insensitive, then fuzzy
// role matching among applications at an overlapping company. No match is
// fn.None, not an error.
func (m *matcher) FindMatchingApplication(ctx context.Context, userID, company, role string, location *string) (fn.Option[Match], error) {
	none := fn.None[Match]()

	app, err := m.apps.FindExact(ctx, userID, company, role, location)
	if err != nil {
		return none, fmt.Errorf("exact match: %w", err)
	}
	if app != nil {
		return fn.Some(Match{ApplicationID: app.ID, Tier: TierExact, Score: 1.0}), nil
	}

	app, err = m.apps.FindCaseInsensitive(ctx, userID, company, role, location)
	if err != nil {
		return none, fmt.Errorf("case-insensitive match: %w", err)
	}
	if app != nil {
		return fn.Some(Match{ApplicationID: app.ID, Tier: TierCaseInsensitive, Score: 1.0}), nil
	}

	candidates, err := m.apps.FindByCompanyOverlap(ctx, userID, company)
	if err != nil {
		return none, fmt.Errorf("company candidates: %w", err)
	}
	if len(candidates) == 0 {
		return none, nil
	}

	target := fuzzy.NormalizeRole(role)
	bestID, bestScore := "", 0.0
	for _, c := range candidates {
		candidate := fuzzy.NormalizeRole(c.Role)
		if fuzzy.ContainsEither(target, candidate) {
			log.Printf("[Matcher] containment hit user=%s application=%s role=%q candidate=%q", userID, c.ID, role, c.Role)
			return fn.Some(Match{ApplicationID: c.ID, Tier: TierContainment, Score: 1.0}), nil
		}
		// strict > keeps the first maximum on ties
		if score := fuzzy.Ratio(target, candidate); score > bestScore {
			bestID, bestScore = c.ID, score
		}
	}

	if bestID != "" && bestScore >= m.threshold {
		log.Printf("[Matcher] similarity hit user=%s application=%s score=%.2f", userID, bestID, bestScore)
		return fn.Some(Match{ApplicationID: bestID, Tier: TierSimilarity, Score: bestScore}), nil
	}

	return none, nil
}
