// Package requestval rejects malformed claim and verdict payloads before they
// reach business logic. Violations short-circuit the pipeline with no side
// effects: nothing is counted, nothing is cached.
package requestval

import (
	"strconv"
	"strings"

	verdictModels "factgate/internal/verdicts/models"
)

// Hard limits enforced at this layer, not deeper.
const (
	MaxClaimTextLen  = 1000
	MaxBatchClaims   = 10
	MaxTopicLen      = 200
	MaxSourceCount   = 20
	MaxMediaRefCount = 10
)

// FieldError is one field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is the structured list returned to callers.
type Errors []FieldError

func (e Errors) Any() bool { return len(e) > 0 }

// ClaimSubmission is the claim creation payload.
type ClaimSubmission struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	MediaRefs   []string `json:"media_refs,omitempty"`
}

// VerdictSubmission is the human verdict payload.
type VerdictSubmission struct {
	Verdict          string   `json:"verdict"`
	Explanation      string   `json:"explanation"`
	Sources          []string `json:"sources,omitempty"`
	ReviewNotes      string   `json:"review_notes,omitempty"`
	TimeSpentSeconds int      `json:"time_spent_seconds,omitempty"`
}

// ValidateClaimSubmission normalizes the payload in place and returns
// field-level errors.
func ValidateClaimSubmission(payload *ClaimSubmission) Errors {
	var errs Errors
	payload.Title = strings.TrimSpace(payload.Title)
	payload.Description = strings.TrimSpace(payload.Description)
	payload.Category = strings.TrimSpace(payload.Category)
	for i := range payload.MediaRefs {
		payload.MediaRefs[i] = strings.TrimSpace(payload.MediaRefs[i])
	}

	if payload.Title == "" {
		errs = append(errs, FieldError{Field: "title", Message: "title is required"})
	}
	if len(payload.Title) > MaxClaimTextLen {
		errs = append(errs, FieldError{Field: "title", Message: "title exceeds 1000 characters"})
	}
	if len(payload.Description) > MaxClaimTextLen {
		errs = append(errs, FieldError{Field: "description", Message: "description exceeds 1000 characters"})
	}
	if len(payload.Category) > MaxTopicLen {
		errs = append(errs, FieldError{Field: "category", Message: "category exceeds 200 characters"})
	}
	if len(payload.MediaRefs) > MaxMediaRefCount {
		errs = append(errs, FieldError{Field: "media_refs", Message: "too many media references"})
	}
	return errs
}

// ValidateBatchClaims validates a batch submission list.
func ValidateBatchClaims(payload []ClaimSubmission) Errors {
	var errs Errors
	if len(payload) == 0 {
		return Errors{{Field: "claims", Message: "at least one claim is required"}}
	}
	if len(payload) > MaxBatchClaims {
		return Errors{{Field: "claims", Message: "batch exceeds 10 claims"}}
	}
	for i := range payload {
		for _, fe := range ValidateClaimSubmission(&payload[i]) {
			errs = append(errs, FieldError{
				Field:   "claims[" + strconv.Itoa(i) + "]." + fe.Field,
				Message: fe.Message,
			})
		}
	}
	return errs
}

// ValidateVerdictSubmission normalizes and validates a human verdict payload.
func ValidateVerdictSubmission(payload *VerdictSubmission) Errors {
	var errs Errors
	payload.Verdict = strings.TrimSpace(payload.Verdict)
	payload.Explanation = strings.TrimSpace(payload.Explanation)

	if !verdictModels.Label(payload.Verdict).IsValid() {
		errs = append(errs, FieldError{Field: "verdict", Message: "verdict must be one of: true, false, misleading, needs_context, unverifiable"})
	}
	if payload.Explanation == "" {
		errs = append(errs, FieldError{Field: "explanation", Message: "explanation is required"})
	}
	if len(payload.Explanation) > MaxClaimTextLen {
		errs = append(errs, FieldError{Field: "explanation", Message: "explanation exceeds 1000 characters"})
	}
	if len(payload.Sources) > MaxSourceCount {
		errs = append(errs, FieldError{Field: "sources", Message: "too many sources"})
	}
	if payload.TimeSpentSeconds < 0 {
		errs = append(errs, FieldError{Field: "time_spent_seconds", Message: "time spent cannot be negative"})
	}
	return errs
}

// ValidateTopic checks a trending topic query string.
func ValidateTopic(topic string) Errors {
	topic = strings.TrimSpace(topic)
	if len(topic) > MaxTopicLen {
		return Errors{{Field: "topic", Message: "topic exceeds 200 characters"}}
	}
	return nil
}
