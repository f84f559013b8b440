// Package trending computes engagement-weighted visibility for claims and
// ranks the topics that aggregate them.
package trending

import (
	"math"
	"time"

	claimModels "factgate/internal/claims/models"
)

// Scoring parameters. Scores are on a 0-100 scale; recency decays
// exponentially over the rolling window so stale claims fall off smoothly.
type ScoreConfig struct {
	// Window is the rolling activity window; claims older than this score
	// near zero.
	Window time.Duration

	// ClaimThreshold marks a claim trending once its score crosses it.
	ClaimThreshold float64

	// EngagementFloor is the minimum topic engagement before any of its
	// claims may surface as trending.
	EngagementFloor float64

	// Retention resolves topics with no activity for this long.
	Retention time.Duration
}

// DefaultScoreConfig returns the standard scoring parameters.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		Window:          24 * time.Hour,
		ClaimThreshold:  10,
		EngagementFloor: 30,
		Retention:       72 * time.Hour,
	}
}

// Score computes a claim's engagement score: monotonic in submission count
// and in recency. A claim resubmitted often and recently scores highest.
func Score(claim *claimModels.Claim, now time.Time, cfg ScoreConfig) float64 {
	if claim.SubmissionCount <= 0 {
		return 0
	}

	// Saturating volume component: each duplicate submission adds less than
	// the previous one, so a handful of coordinated resubmissions cannot
	// dominate organic interest.
	volume := 1 - math.Exp(-float64(claim.SubmissionCount)/5.0)

	age := now.Sub(claim.UpdatedAt)
	if age < 0 {
		age = 0
	}
	recency := math.Exp(-age.Hours() / cfg.Window.Hours())

	return 100 * volume * recency
}
