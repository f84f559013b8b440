package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"factgate/internal/claims/models"
)

// Store is the authoritative record of claim lifecycle transitions. Every
// status change is a single conditional update; implementations return
// sentinel.ErrConflict when the expected state no longer matches and
// sentinel.ErrNotFound for unknown ids.
type Store interface {
	Save(ctx context.Context, claim *models.Claim) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Claim, error)

	// Transition moves a claim from one status to another, failing with
	// ErrConflict if the current status is not `from`.
	Transition(ctx context.Context, id uuid.UUID, from, to models.Status) error

	// IncrementSubmission folds a duplicate submission into an existing claim
	// and returns the new count.
	IncrementSubmission(ctx context.Context, id uuid.UUID) (int, error)

	// AssignReviewer records the reviewer on an ai_reviewed claim. Fails with
	// ErrConflict when the claim is already assigned or not assignable.
	AssignReviewer(ctx context.Context, id uuid.UUID, reviewerID string) error

	// SetTrending updates the engagement-derived ranking fields.
	SetTrending(ctx context.Context, id uuid.UUID, score float64, trending bool) error

	// ListActiveSince returns non-rejected claims touched at or after the
	// cutoff, for trending recomputation.
	ListActiveSince(ctx context.Context, cutoff time.Time) ([]*models.Claim, error)
}
