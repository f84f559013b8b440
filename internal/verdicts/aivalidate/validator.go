// Package aivalidate is the trust boundary for automated-reasoning output.
// The reasoning service is an external collaborator returning duck-typed JSON;
// nothing it produces reaches a user without passing this validator, and any
// failure is replaced by a fixed fallback that is shape-identical to a genuine
// verdict so downstream code needs no special-casing.
package aivalidate

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"factgate/internal/verdicts/models"
)

// RawOutput is the unvalidated wire shape from the reasoning service.
type RawOutput struct {
	Verdict     string   `json:"verdict"`
	Confidence  *float64 `json:"confidence"`
	Explanation string   `json:"explanation"`
	Sources     []string `json:"sources"`
}

// FallbackExplanation directs users to human review when the automated
// response could not be trusted.
const FallbackExplanation = "We could not verify this claim automatically. It has been flagged for human review."

// injectionPatterns match executable markup that must never appear in an
// explanation surfaced to browsers or app webviews.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<\s*script`),
	regexp.MustCompile(`(?i)<\s*iframe`),
	regexp.MustCompile(`(?i)<\s*object`),
	regexp.MustCompile(`(?i)<\s*embed`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)data\s*:\s*text/html`),
	regexp.MustCompile(`(?i)on(load|error|click|mouseover|focus)\s*=`),
}

// Validator checks reasoning-service output and substitutes the fallback on
// any failure.
type Validator struct {
	logger       *slog.Logger
	modelVersion string
}

func New(logger *slog.Logger, modelVersion string) *Validator {
	return &Validator{logger: logger, modelVersion: modelVersion}
}

// ValidateBytes parses and validates a raw JSON payload. The second return
// value reports whether the original output survived; false means the
// fallback was substituted.
func (v *Validator) ValidateBytes(claimID uuid.UUID, raw []byte) (*models.AutomatedVerdict, bool) {
	var out RawOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		v.logger.Warn("reasoner output is not a structured object",
			"claim_id", claimID,
			"error", err.Error(),
		)
		return v.Fallback(claimID), false
	}
	return v.Validate(claimID, out)
}

// Validate checks a decoded output against the contract: closed verdict
// enumeration, confidence in [0,1], non-empty injection-free explanation.
func (v *Validator) Validate(claimID uuid.UUID, out RawOutput) (*models.AutomatedVerdict, bool) {
	label := models.Label(out.Verdict)
	if !label.IsValid() {
		v.logger.Warn("reasoner returned unknown verdict label",
			"claim_id", claimID,
			"label", out.Verdict,
		)
		return v.Fallback(claimID), false
	}
	if out.Confidence == nil || *out.Confidence < 0 || *out.Confidence > 1 {
		v.logger.Warn("reasoner confidence out of range", "claim_id", claimID)
		return v.Fallback(claimID), false
	}
	explanation := strings.TrimSpace(out.Explanation)
	if explanation == "" {
		v.logger.Warn("reasoner explanation empty", "claim_id", claimID)
		return v.Fallback(claimID), false
	}
	if containsInjection(explanation) {
		v.logger.Warn("reasoner explanation contains executable markup", "claim_id", claimID)
		return v.Fallback(claimID), false
	}
	for _, src := range out.Sources {
		if containsInjection(src) {
			v.logger.Warn("reasoner source contains executable markup", "claim_id", claimID)
			return v.Fallback(claimID), false
		}
	}

	verdict, err := models.NewAutomatedVerdict(claimID, label, *out.Confidence, explanation, out.Sources, v.modelVersion)
	if err != nil {
		return v.Fallback(claimID), false
	}
	return verdict, true
}

// Fallback is the fixed safe substitute: needs_context at 0.5 confidence with
// a generic explanation and no sources.
func (v *Validator) Fallback(claimID uuid.UUID) *models.AutomatedVerdict {
	verdict, _ := models.NewAutomatedVerdict(
		claimID,
		models.LabelNeedsContext,
		0.5,
		FallbackExplanation,
		nil,
		v.modelVersion,
	)
	return verdict
}

func containsInjection(s string) bool {
	for _, p := range injectionPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
