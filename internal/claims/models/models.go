package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "factgate/pkg/domainerrors"
)

// Status is a claim's position in the verification lifecycle.
type Status string

const (
	// StatusSubmitted: accepted by validation, not yet queued for reasoning.
	StatusSubmitted Status = "submitted"
	// StatusPendingAI: queued for or awaiting the automated reasoning call.
	StatusPendingAI Status = "pending_ai"
	// StatusAIReviewed: a validated automated verdict is recorded.
	StatusAIReviewed Status = "ai_reviewed"
	// StatusHumanReview: assigned to a reviewer.
	StatusHumanReview Status = "human_review"
	// StatusResolved: terminal; the claim stands on its displayed verdict.
	StatusResolved Status = "resolved"
	// StatusRejected: terminal; reachable from any pre-resolved state.
	StatusRejected Status = "rejected"
)

// IsValid checks the status against the closed enumeration.
func (s Status) IsValid() bool {
	switch s {
	case StatusSubmitted, StatusPendingAI, StatusAIReviewed, StatusHumanReview, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusRejected
}

// CanTransitionTo encodes the lifecycle state machine. Rejection is allowed
// from any non-terminal state.
func (s Status) CanTransitionTo(to Status) bool {
	if to == StatusRejected {
		return !s.IsTerminal()
	}
	switch s {
	case StatusSubmitted:
		return to == StatusPendingAI
	case StatusPendingAI:
		return to == StatusAIReviewed
	case StatusAIReviewed:
		// Direct resolution on the automated verdict alone is the common
		// resting state; human review is scarce.
		return to == StatusHumanReview || to == StatusResolved
	case StatusHumanReview:
		return to == StatusResolved
	}
	return false
}

// Claim is a user-submitted factual statement awaiting verification.
type Claim struct {
	ID          uuid.UUID `json:"id"`
	SubmitterID string    `json:"submitter_id"`
	SubmitterIP string    `json:"-"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	MediaRefs   []string  `json:"media_refs,omitempty"`
	Status      Status    `json:"status"`

	// SubmissionCount folds in semantically duplicate submissions; duplicate
	// detection itself is an external collaborator's call.
	SubmissionCount int `json:"submission_count"`

	IsTrending    bool    `json:"is_trending"`
	TrendingScore float64 `json:"trending_score"`

	AssignedReviewerID string `json:"assigned_reviewer_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewClaim creates a claim in the submitted state with domain invariants
// enforced.
func NewClaim(submitterID, submitterIP, title, description, category string, mediaRefs []string) (*Claim, error) {
	if submitterID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "submitter identity is required")
	}
	if title == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "claim title is required")
	}

	now := time.Now().UTC()
	return &Claim{
		ID:              uuid.New(),
		SubmitterID:     submitterID,
		SubmitterIP:     submitterIP,
		Title:           title,
		Description:     description,
		Category:        category,
		MediaRefs:       mediaRefs,
		Status:          StatusSubmitted,
		SubmissionCount: 1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
