package audit

import "time"

// Action identifies what kind of event was captured.
type Action string

const (
	ActionClaimSubmitted     Action = "claim_submitted"
	ActionClaimDuplicate     Action = "claim_duplicate"
	ActionVerdictRecorded    Action = "verdict_recorded"
	ActionVerdictEdited      Action = "verdict_edited"
	ActionVerdictFallback    Action = "verdict_fallback"
	ActionReviewerAssigned   Action = "reviewer_assigned"
	ActionRateLimitViolation Action = "rate_limit_violation"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    Action    `json:"action"`
	Resource  string    `json:"resource,omitempty"`
	Device    string    `json:"device,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}
