package aivalidate

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"factgate/internal/verdicts/models"
)

// =============================================================================
// Automated Output Validator Test Suite
// =============================================================================
// Every rejection path must substitute a fallback that is shape-identical to
// a genuine verdict; these tests pin both the rejection triggers and the
// fallback's exact contents.

type ValidatorSuite struct {
	suite.Suite
	validator *Validator
	claimID   uuid.UUID
}

func TestValidatorSuite(t *testing.T) {
	suite.Run(t, new(ValidatorSuite))
}

func (s *ValidatorSuite) SetupTest() {
	s.validator = New(slog.New(slog.NewTextHandler(io.Discard, nil)), "model-v1")
	s.claimID = uuid.New()
}

func confidence(v float64) *float64 { return &v }

// =============================================================================
// Accept Path Tests
// =============================================================================

func (s *ValidatorSuite) TestValidOutput() {
	verdict, ok := s.validator.Validate(s.claimID, RawOutput{
		Verdict:     "misleading",
		Confidence:  confidence(0.82),
		Explanation: "The statistic is real but quoted out of context.",
		Sources:     []string{"https://example.org/report"},
	})

	s.True(ok)
	s.Equal(s.claimID, verdict.ClaimID)
	s.Equal(models.LabelMisleading, verdict.Label)
	s.InDelta(0.82, verdict.Confidence, 1e-9)
	s.Equal("model-v1", verdict.ModelVersion)
	s.False(verdict.IsEditedByHuman)
	s.NotEmpty(verdict.Disclaimer)
}

// =============================================================================
// Rejection Path Tests
// =============================================================================

func (s *ValidatorSuite) TestRejections() {
	cases := []struct {
		name string
		out  RawOutput
	}{
		{"unknown verdict label", RawOutput{
			Verdict: "probably", Confidence: confidence(0.9), Explanation: "ok",
		}},
		{"missing verdict", RawOutput{
			Confidence: confidence(0.9), Explanation: "ok",
		}},
		{"missing confidence", RawOutput{
			Verdict: "true", Explanation: "ok",
		}},
		{"confidence above one", RawOutput{
			Verdict: "true", Confidence: confidence(2.0), Explanation: "ok",
		}},
		{"negative confidence", RawOutput{
			Verdict: "true", Confidence: confidence(-0.1), Explanation: "ok",
		}},
		{"empty explanation", RawOutput{
			Verdict: "true", Confidence: confidence(0.9), Explanation: "   ",
		}},
		{"script tag in explanation", RawOutput{
			Verdict: "true", Confidence: confidence(0.9),
			Explanation: `Fine text <script>alert(1)</script> more text`,
		}},
		{"case-mangled markup", RawOutput{
			Verdict: "true", Confidence: confidence(0.9),
			Explanation: `<ScRiPt src="x">`,
		}},
		{"javascript scheme in source", RawOutput{
			Verdict: "true", Confidence: confidence(0.9), Explanation: "ok",
			Sources: []string{"javascript:alert(1)"},
		}},
		{"event handler in explanation", RawOutput{
			Verdict: "true", Confidence: confidence(0.9),
			Explanation: `<img onerror=alert(1)>`,
		}},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			verdict, ok := s.validator.Validate(s.claimID, tc.out)
			s.False(ok)
			s.assertFallback(verdict)
		})
	}
}

func (s *ValidatorSuite) TestValidateBytes() {
	s.Run("malformed JSON falls back", func() {
		verdict, ok := s.validator.ValidateBytes(s.claimID, []byte(`the claim is true, trust me`))
		s.False(ok)
		s.assertFallback(verdict)
	})

	s.Run("well-formed JSON passes through", func() {
		verdict, ok := s.validator.ValidateBytes(s.claimID, []byte(
			`{"verdict":"false","confidence":0.95,"explanation":"Contradicted by the primary source.","sources":[]}`))
		s.True(ok)
		s.Equal(models.LabelFalse, verdict.Label)
	})
}

// assertFallback pins the fixed substitute: needs_context at 0.5 with the
// generic explanation and no sources.
func (s *ValidatorSuite) assertFallback(verdict *models.AutomatedVerdict) {
	s.Require().NotNil(verdict)
	s.Equal(s.claimID, verdict.ClaimID)
	s.Equal(models.LabelNeedsContext, verdict.Label)
	s.InDelta(0.5, verdict.Confidence, 1e-9)
	s.Equal(FallbackExplanation, verdict.Explanation)
	s.Empty(verdict.Sources)
	s.Equal("model-v1", verdict.ModelVersion)
	s.NotEmpty(verdict.Disclaimer)
}
