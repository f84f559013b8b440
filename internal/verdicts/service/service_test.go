package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	claimModels "factgate/internal/claims/models"
	claimsService "factgate/internal/claims/service"
	claimsStore "factgate/internal/claims/store"
	"factgate/internal/verdicts/models"
	"factgate/internal/verdicts/store"
	dErrors "factgate/pkg/domainerrors"
)

// =============================================================================
// Verdict Reconciliation Test Suite
// =============================================================================
// Precedence and edit irreversibility are the two invariants everything else
// leans on; they get exercised here against real in-memory stores rather than
// mocks so store-level guards are covered too.

type VerdictServiceSuite struct {
	suite.Suite
	verdictStore *store.InMemoryStore
	claimStore   *claimsStore.InMemoryStore
	claims       *claimsService.Service
	service      *Service
}

func TestVerdictServiceSuite(t *testing.T) {
	suite.Run(t, new(VerdictServiceSuite))
}

func (s *VerdictServiceSuite) SetupTest() {
	s.verdictStore = store.NewInMemoryStore()
	s.claimStore = claimsStore.NewInMemoryStore()

	var err error
	s.claims, err = claimsService.New(s.claimStore)
	s.Require().NoError(err)
	s.service, err = New(s.verdictStore, s.claims)
	s.Require().NoError(err)
}

// submitClaim creates a claim already sitting in pending_ai.
func (s *VerdictServiceSuite) submitClaim() *claimModels.Claim {
	claim, err := claimModels.NewClaim("user-1", "203.0.113.1",
		"Drinking two liters of coffee daily cures migraines",
		"Seen in a viral post.", "health", nil)
	s.Require().NoError(err)
	claim, err = s.claims.Submit(context.Background(), claim)
	s.Require().NoError(err)
	return claim
}

func (s *VerdictServiceSuite) automatedVerdict(claimID uuid.UUID) *models.AutomatedVerdict {
	verdict, err := models.NewAutomatedVerdict(claimID, models.LabelMisleading, 0.7,
		"No clinical evidence supports caffeine as a migraine cure; it can trigger them.",
		[]string{"https://example.org/migraine-review"}, "model-v1")
	s.Require().NoError(err)
	return verdict
}

// =============================================================================
// Reconcile Precedence Tests
// =============================================================================

func (s *VerdictServiceSuite) TestReconcile() {
	claimID := uuid.New()
	auto := s.automatedVerdict(claimID)
	human, err := models.NewHumanVerdict(claimID, "reviewer-1", models.LabelFalse,
		"Clinical literature shows caffeine overuse worsens migraines.",
		[]string{"https://example.org/clinical-study"}, "", 900)
	s.Require().NoError(err)

	s.Run("no verdicts reconciles to nil", func() {
		s.Nil(Reconcile(claimID, nil, nil))
	})

	s.Run("automated only is displayed with confidence and disclaimer", func() {
		displayed := Reconcile(claimID, auto, nil)
		s.Require().NotNil(displayed)
		s.Equal(models.OriginAutomated, displayed.Origin)
		s.Equal(models.LabelMisleading, displayed.Label)
		s.Require().NotNil(displayed.Confidence)
		s.InDelta(0.7, *displayed.Confidence, 1e-9)
		s.NotEmpty(displayed.Disclaimer)
	})

	s.Run("human verdict always wins over automated", func() {
		displayed := Reconcile(claimID, auto, human)
		s.Require().NotNil(displayed)
		s.Equal(models.OriginHuman, displayed.Origin)
		s.Equal(models.LabelFalse, displayed.Label)
		s.Equal("reviewer-1", displayed.ReviewerID)
		s.Nil(displayed.Confidence)
		s.Empty(displayed.Disclaimer)
	})

	s.Run("human only is displayed", func() {
		displayed := Reconcile(claimID, nil, human)
		s.Require().NotNil(displayed)
		s.Equal(models.OriginHuman, displayed.Origin)
	})
}

// =============================================================================
// Automated Verdict Lifecycle Tests
// =============================================================================

func (s *VerdictServiceSuite) TestRecordAutomated() {
	ctx := context.Background()

	s.Run("recording moves the claim to ai_reviewed", func() {
		claim := s.submitClaim()
		s.Require().NoError(s.service.RecordAutomated(ctx, s.automatedVerdict(claim.ID)))

		updated, err := s.claims.Get(ctx, claim.ID)
		s.Require().NoError(err)
		s.Equal(claimModels.StatusAIReviewed, updated.Status)

		displayed, err := s.service.Displayed(ctx, claim.ID)
		s.Require().NoError(err)
		s.Require().NotNil(displayed)
		s.Equal(models.OriginAutomated, displayed.Origin)
	})

	s.Run("re-running never overwrites a human-edited verdict", func() {
		claim := s.submitClaim()
		first := s.automatedVerdict(claim.ID)
		s.Require().NoError(s.service.RecordAutomated(ctx, first))

		label := models.LabelFalse
		_, err := s.service.ApplyHumanEdit(ctx, first.ID, "reviewer-2", store.EditFields{Label: &label})
		s.Require().NoError(err)

		rerun := s.automatedVerdict(claim.ID)
		s.Require().NoError(s.verdictStore.SaveAutomated(ctx, rerun))

		kept, err := s.verdictStore.FindAutomatedByClaim(ctx, claim.ID)
		s.Require().NoError(err)
		s.True(kept.IsEditedByHuman)
		s.Equal(models.LabelFalse, kept.Label)
	})
}

// =============================================================================
// Human Edit Tests
// =============================================================================

func (s *VerdictServiceSuite) TestApplyHumanEdit() {
	ctx := context.Background()

	s.Run("edit marks the verdict human-attributed and clears the disclaimer", func() {
		claim := s.submitClaim()
		auto := s.automatedVerdict(claim.ID)
		s.Require().NoError(s.service.RecordAutomated(ctx, auto))

		label := models.LabelFalse
		explanation := "Corrected after checking the cited review."
		edited, err := s.service.ApplyHumanEdit(ctx, auto.ID, "reviewer-2", store.EditFields{
			Label:       &label,
			Explanation: &explanation,
		})
		s.Require().NoError(err)
		s.True(edited.IsEditedByHuman)
		s.Equal("reviewer-2", edited.EditedBy)
		s.NotNil(edited.EditedAt)
		s.Empty(edited.Disclaimer)
		s.Equal(models.LabelFalse, edited.Label)
		s.Equal(explanation, edited.Explanation)
		// Untouched fields survive.
		s.InDelta(0.7, edited.Confidence, 1e-9)
	})

	s.Run("missing editor identity is rejected", func() {
		_, err := s.service.ApplyHumanEdit(ctx, uuid.New(), "", store.EditFields{})
		s.Error(err)
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})

	s.Run("out-of-range confidence is rejected", func() {
		bad := 1.5
		_, err := s.service.ApplyHumanEdit(ctx, uuid.New(), "reviewer-2", store.EditFields{Confidence: &bad})
		s.Error(err)
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})

	s.Run("unknown verdict id is not found", func() {
		_, err := s.service.ApplyHumanEdit(ctx, uuid.New(), "reviewer-2", store.EditFields{})
		s.Error(err)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}

// =============================================================================
// Human Verdict Tests
// =============================================================================

func (s *VerdictServiceSuite) TestRecordHumanVerdict() {
	ctx := context.Background()

	s.Run("human verdict resolves the claim and takes display precedence", func() {
		claim := s.submitClaim()
		auto := s.automatedVerdict(claim.ID)
		s.Require().NoError(s.service.RecordAutomated(ctx, auto))

		human, err := models.NewHumanVerdict(claim.ID, "reviewer-3", models.LabelFalse,
			"The cited review concludes the opposite.", nil, "checked primary source", 600)
		s.Require().NoError(err)
		s.Require().NoError(s.service.RecordHumanVerdict(ctx, human))

		resolved, err := s.claims.Get(ctx, claim.ID)
		s.Require().NoError(err)
		s.Equal(claimModels.StatusResolved, resolved.Status)

		displayed, err := s.service.Displayed(ctx, claim.ID)
		s.Require().NoError(err)
		s.Require().NotNil(displayed)
		s.Equal(models.OriginHuman, displayed.Origin)
		s.Equal(models.LabelFalse, displayed.Label)

		// The automated record still exists, untouched.
		kept, err := s.verdictStore.FindAutomatedByClaim(ctx, claim.ID)
		s.Require().NoError(err)
		s.False(kept.IsEditedByHuman)
		s.Equal(models.LabelMisleading, kept.Label)
	})

	s.Run("claim not awaiting review conflicts", func() {
		claim := s.submitClaim() // still pending_ai

		human, err := models.NewHumanVerdict(claim.ID, "reviewer-3", models.LabelTrue,
			"Verified.", nil, "", 60)
		s.Require().NoError(err)
		err = s.service.RecordHumanVerdict(ctx, human)
		s.Error(err)
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})

	s.Run("second human verdict for the same claim conflicts", func() {
		claim := s.submitClaim()
		s.Require().NoError(s.service.RecordAutomated(ctx, s.automatedVerdict(claim.ID)))

		first, err := models.NewHumanVerdict(claim.ID, "reviewer-3", models.LabelFalse,
			"Checked.", nil, "", 60)
		s.Require().NoError(err)
		s.Require().NoError(s.service.RecordHumanVerdict(ctx, first))

		second, err := models.NewHumanVerdict(claim.ID, "reviewer-4", models.LabelTrue,
			"Disagree.", nil, "", 60)
		s.Require().NoError(err)
		err = s.service.RecordHumanVerdict(ctx, second)
		s.Error(err)
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})
}
