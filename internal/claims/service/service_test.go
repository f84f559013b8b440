package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"factgate/internal/claims/models"
	"factgate/internal/claims/store"
	dErrors "factgate/pkg/domainerrors"
)

// =============================================================================
// Claims Service Test Suite
// =============================================================================
// The lifecycle FSM and its conflict semantics are contract for every other
// component; these tests pin the legal transitions and the conflicting-update
// behavior against the in-memory store.

type ClaimsServiceSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	service *Service
}

func TestClaimsServiceSuite(t *testing.T) {
	suite.Run(t, new(ClaimsServiceSuite))
}

func (s *ClaimsServiceSuite) SetupTest() {
	s.store = store.NewInMemoryStore()

	var err error
	s.service, err = New(s.store)
	s.Require().NoError(err)
}

func (s *ClaimsServiceSuite) newClaim() *models.Claim {
	claim, err := models.NewClaim("user-1", "203.0.113.1",
		"The city banned all outdoor concerts", "", "local-news", nil)
	s.Require().NoError(err)
	return claim
}

// =============================================================================
// Submission Tests
// =============================================================================

func (s *ClaimsServiceSuite) TestSubmit() {
	ctx := context.Background()

	s.Run("submission lands in pending_ai with one submission counted", func() {
		claim, err := s.service.Submit(ctx, s.newClaim())
		s.Require().NoError(err)
		s.Equal(models.StatusPendingAI, claim.Status)
		s.Equal(1, claim.SubmissionCount)

		stored, err := s.service.Get(ctx, claim.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPendingAI, stored.Status)
	})

	s.Run("unknown claim id is not found", func() {
		_, err := s.service.Get(ctx, uuid.New())
		s.Error(err)
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})
}

func (s *ClaimsServiceSuite) TestFoldDuplicate() {
	ctx := context.Background()
	claim, err := s.service.Submit(ctx, s.newClaim())
	s.Require().NoError(err)

	count, err := s.service.FoldDuplicate(ctx, claim.ID)
	s.Require().NoError(err)
	s.Equal(2, count)

	count, err = s.service.FoldDuplicate(ctx, claim.ID)
	s.Require().NoError(err)
	s.Equal(3, count)
}

// =============================================================================
// Lifecycle Transition Tests
// =============================================================================

func (s *ClaimsServiceSuite) TestLifecycle() {
	ctx := context.Background()

	s.Run("full review path: pending_ai -> ai_reviewed -> human_review -> resolved", func() {
		claim, err := s.service.Submit(ctx, s.newClaim())
		s.Require().NoError(err)

		s.Require().NoError(s.service.MarkAIReviewed(ctx, claim.ID))
		s.Require().NoError(s.service.Assign(ctx, claim.ID, "reviewer-1"))

		assigned, err := s.service.Get(ctx, claim.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusHumanReview, assigned.Status)
		s.Equal("reviewer-1", assigned.AssignedReviewerID)

		s.Require().NoError(s.service.Resolve(ctx, claim.ID, models.StatusHumanReview))
		resolved, err := s.service.Get(ctx, claim.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusResolved, resolved.Status)
	})

	s.Run("direct resolution from ai_reviewed is legal", func() {
		claim, err := s.service.Submit(ctx, s.newClaim())
		s.Require().NoError(err)
		s.Require().NoError(s.service.MarkAIReviewed(ctx, claim.ID))
		s.Require().NoError(s.service.Resolve(ctx, claim.ID, models.StatusAIReviewed))
	})

	s.Run("marking an already reviewed claim conflicts", func() {
		claim, err := s.service.Submit(ctx, s.newClaim())
		s.Require().NoError(err)
		s.Require().NoError(s.service.MarkAIReviewed(ctx, claim.ID))

		err = s.service.MarkAIReviewed(ctx, claim.ID)
		s.Error(err)
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})

	s.Run("double assignment conflicts instead of silently reassigning", func() {
		claim, err := s.service.Submit(ctx, s.newClaim())
		s.Require().NoError(err)
		s.Require().NoError(s.service.MarkAIReviewed(ctx, claim.ID))
		s.Require().NoError(s.service.Assign(ctx, claim.ID, "reviewer-1"))

		err = s.service.Assign(ctx, claim.ID, "reviewer-2")
		s.Error(err)
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))

		kept, err := s.service.Get(ctx, claim.ID)
		s.Require().NoError(err)
		s.Equal("reviewer-1", kept.AssignedReviewerID)
	})

	s.Run("assignment requires a reviewer identity", func() {
		claim, err := s.service.Submit(ctx, s.newClaim())
		s.Require().NoError(err)
		err = s.service.Assign(ctx, claim.ID, "")
		s.Error(err)
		s.Equal(dErrors.CodeBadRequest, dErrors.CodeOf(err))
	})
}

// =============================================================================
// Rejection Tests
// =============================================================================

func (s *ClaimsServiceSuite) TestReject() {
	ctx := context.Background()

	s.Run("any non-terminal claim can be rejected", func() {
		claim, err := s.service.Submit(ctx, s.newClaim())
		s.Require().NoError(err)
		s.Require().NoError(s.service.Reject(ctx, claim.ID))

		rejected, err := s.service.Get(ctx, claim.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, rejected.Status)
	})

	s.Run("terminal claims cannot be rejected again", func() {
		claim, err := s.service.Submit(ctx, s.newClaim())
		s.Require().NoError(err)
		s.Require().NoError(s.service.Reject(ctx, claim.ID))

		err = s.service.Reject(ctx, claim.ID)
		s.Error(err)
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})

	s.Run("resolved claims stay resolved", func() {
		claim, err := s.service.Submit(ctx, s.newClaim())
		s.Require().NoError(err)
		s.Require().NoError(s.service.MarkAIReviewed(ctx, claim.ID))
		s.Require().NoError(s.service.Resolve(ctx, claim.ID, models.StatusAIReviewed))

		err = s.service.Reject(ctx, claim.ID)
		s.Error(err)
		s.Equal(dErrors.CodeConflict, dErrors.CodeOf(err))
	})
}
