package store

import (
	"context"

	"github.com/google/uuid"

	"factgate/internal/verdicts/models"
)

// EditFields lists the automated-verdict fields a reviewer may overwrite.
// Nil pointers leave the field untouched.
type EditFields struct {
	Label       *models.Label
	Confidence  *float64
	Explanation *string
	Sources     []string
}

// Store persists both verdict types. A claim never has more than one of each;
// implementations enforce the one-to-one constraint and return
// sentinel.ErrConflict on duplicate human verdicts.
type Store interface {
	// SaveAutomated upserts the claim's automated verdict. Rows already
	// amended by a human are left untouched: a later automated re-evaluation
	// never reverses the human-amended transition.
	SaveAutomated(ctx context.Context, verdict *models.AutomatedVerdict) error
	FindAutomatedByClaim(ctx context.Context, claimID uuid.UUID) (*models.AutomatedVerdict, error)
	FindAutomatedByID(ctx context.Context, id uuid.UUID) (*models.AutomatedVerdict, error)

	// ApplyHumanEdit overwrites the listed fields, sets is_edited_by_human,
	// records the editor and timestamp, and clears the disclaimer. One-way.
	ApplyHumanEdit(ctx context.Context, id uuid.UUID, editorID string, fields EditFields) (*models.AutomatedVerdict, error)

	// SaveHuman creates the claim's human verdict; ErrConflict if one exists.
	SaveHuman(ctx context.Context, verdict *models.HumanVerdict) error
	FindHumanByClaim(ctx context.Context, claimID uuid.UUID) (*models.HumanVerdict, error)
}
