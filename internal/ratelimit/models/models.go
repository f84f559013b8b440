package models

import "time"

// RouteClass categorizes endpoints for differentiated rate limiting.
type RouteClass string

const (
	// ClassGeneral: default traffic, 15-minute window.
	ClassGeneral RouteClass = "general"
	// ClassAuth: authentication attempts, 15-minute window capped at 5.
	ClassAuth RouteClass = "auth"
	// ClassSubmit: claim submission, 1-hour window capped at 10.
	ClassSubmit RouteClass = "submit"
	// ClassSearch: search traffic, 1-minute window capped at 30.
	ClassSearch RouteClass = "search"
)

// IsValid checks the route class against the supported enum values.
func (c RouteClass) IsValid() bool {
	switch c {
	case ClassGeneral, ClassAuth, ClassSubmit, ClassSearch:
		return true
	}
	return false
}

// Result is the outcome of a rate limit check.
type Result struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// Violation is a recorded rate limit rejection for abuse monitoring.
type Violation struct {
	Identifier    string     `json:"identifier"` // anonymized for IPs
	RouteClass    RouteClass `json:"route_class"`
	Limit         int        `json:"limit"`
	WindowSeconds int        `json:"window_seconds"`
	OccurredAt    time.Time  `json:"occurred_at"`
}
