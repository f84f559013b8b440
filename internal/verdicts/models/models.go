package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "factgate/pkg/domainerrors"
)

// Label is the closed enumeration of verification outcomes.
type Label string

const (
	LabelTrue         Label = "true"
	LabelFalse        Label = "false"
	LabelMisleading   Label = "misleading"
	LabelNeedsContext Label = "needs_context"
	LabelUnverifiable Label = "unverifiable"
)

// IsValid checks the label against the closed enumeration.
func (l Label) IsValid() bool {
	switch l {
	case LabelTrue, LabelFalse, LabelMisleading, LabelNeedsContext, LabelUnverifiable:
		return true
	}
	return false
}

// ParseLabel validates a raw label string.
func ParseLabel(s string) (Label, error) {
	l := Label(s)
	if !l.IsValid() {
		return "", dErrors.Newf(dErrors.CodeBadRequest, "invalid verdict label %q", s)
	}
	return l, nil
}

// DefaultDisclaimer accompanies every machine-generated verdict until a human
// amends it.
const DefaultDisclaimer = "This verdict was generated automatically and has not been reviewed by a human fact-checker."

// AutomatedVerdict is the machine-generated verification outcome, one per
// claim. A human edit is a one-way transition: the disclaimer is cleared and
// IsEditedByHuman is set, never reversed.
type AutomatedVerdict struct {
	ID              uuid.UUID  `json:"id"`
	ClaimID         uuid.UUID  `json:"claim_id"`
	Label           Label      `json:"verdict"`
	Confidence      float64    `json:"confidence"`
	Explanation     string     `json:"explanation"`
	Sources         []string   `json:"sources"`
	ModelVersion    string     `json:"model_version"`
	Disclaimer      string     `json:"disclaimer,omitempty"`
	IsEditedByHuman bool       `json:"is_edited_by_human"`
	EditedBy        string     `json:"edited_by,omitempty"`
	EditedAt        *time.Time `json:"edited_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ApprovalStatus reflects moderation review of a human verdict.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// HumanVerdict is the reviewer-authored outcome. Once present it permanently
// takes display precedence over the automated verdict.
type HumanVerdict struct {
	ID               uuid.UUID      `json:"id"`
	ClaimID          uuid.UUID      `json:"claim_id"`
	Label            Label          `json:"verdict"`
	Explanation      string         `json:"explanation"`
	Sources          []string       `json:"sources"`
	ReviewerID       string         `json:"reviewer_id"`
	ApprovalStatus   ApprovalStatus `json:"approval_status"`
	ReviewNotes      string         `json:"review_notes,omitempty"`
	TimeSpentSeconds int            `json:"time_spent_seconds"`
	CreatedAt        time.Time      `json:"created_at"`
}

// VerdictOrigin identifies which record a displayed verdict came from.
type VerdictOrigin string

const (
	OriginHuman     VerdictOrigin = "human"
	OriginAutomated VerdictOrigin = "automated"
)

// DisplayedVerdict is the single reconciled verdict shown to end users.
type DisplayedVerdict struct {
	ClaimID     uuid.UUID     `json:"claim_id"`
	Label       Label         `json:"verdict"`
	Explanation string        `json:"explanation"`
	Sources     []string      `json:"sources"`
	Origin      VerdictOrigin `json:"origin"`
	Confidence  *float64      `json:"confidence,omitempty"`
	Disclaimer  string        `json:"disclaimer,omitempty"`
	ReviewerID  string        `json:"reviewer_id,omitempty"`
}

// NewAutomatedVerdict creates an automated verdict with invariants enforced.
func NewAutomatedVerdict(claimID uuid.UUID, label Label, confidence float64, explanation string, sources []string, modelVersion string) (*AutomatedVerdict, error) {
	if !label.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid verdict label")
	}
	if confidence < 0 || confidence > 1 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "confidence must be within [0,1]")
	}
	if explanation == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "explanation is required")
	}
	return &AutomatedVerdict{
		ID:           uuid.New(),
		ClaimID:      claimID,
		Label:        label,
		Confidence:   confidence,
		Explanation:  explanation,
		Sources:      sources,
		ModelVersion: modelVersion,
		Disclaimer:   DefaultDisclaimer,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// NewHumanVerdict creates a human verdict with invariants enforced.
func NewHumanVerdict(claimID uuid.UUID, reviewerID string, label Label, explanation string, sources []string, notes string, timeSpentSeconds int) (*HumanVerdict, error) {
	if reviewerID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "reviewer identity is required")
	}
	if !label.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid verdict label")
	}
	if explanation == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "explanation is required")
	}
	return &HumanVerdict{
		ID:               uuid.New(),
		ClaimID:          claimID,
		Label:            label,
		Explanation:      explanation,
		Sources:          sources,
		ReviewerID:       reviewerID,
		ApprovalStatus:   ApprovalPending,
		ReviewNotes:      notes,
		TimeSpentSeconds: timeSpentSeconds,
		CreatedAt:        time.Now().UTC(),
	}, nil
}
