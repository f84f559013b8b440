// Package service owns claim lifecycle operations. Each status change is one
// conditional store update; conflicting transitions surface as domain
// conflicts for the caller to re-fetch.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"factgate/internal/claims/models"
	"factgate/internal/claims/store"
	dErrors "factgate/pkg/domainerrors"
	"factgate/pkg/platform/sentinel"
)

type Service struct {
	claims store.Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(claims store.Store, opts ...Option) (*Service, error) {
	if claims == nil {
		return nil, fmt.Errorf("claims store is required")
	}
	svc := &Service{
		claims: claims,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Submit persists a validated claim and immediately queues it for automated
// reasoning (submitted -> pending_ai).
func (s *Service) Submit(ctx context.Context, claim *models.Claim) (*models.Claim, error) {
	if err := s.claims.Save(ctx, claim); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist claim")
	}
	if err := s.claims.Transition(ctx, claim.ID, models.StatusSubmitted, models.StatusPendingAI); err != nil {
		return nil, s.translate(err, "failed to queue claim for reasoning")
	}
	claim.Status = models.StatusPendingAI

	s.logger.InfoContext(ctx, "claim submitted",
		"claim_id", claim.ID,
		"category", claim.Category,
	)
	return claim, nil
}

// Get fetches a claim by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	claim, err := s.claims.FindByID(ctx, id)
	if err != nil {
		return nil, s.translate(err, "failed to load claim")
	}
	return claim, nil
}

// FoldDuplicate increments the submission count on an existing claim. The
// duplicate decision itself belongs to an external collaborator.
func (s *Service) FoldDuplicate(ctx context.Context, id uuid.UUID) (int, error) {
	count, err := s.claims.IncrementSubmission(ctx, id)
	if err != nil {
		return 0, s.translate(err, "failed to fold duplicate submission")
	}
	return count, nil
}

// MarkAIReviewed records receipt of a validated automated verdict.
func (s *Service) MarkAIReviewed(ctx context.Context, id uuid.UUID) error {
	if err := s.claims.Transition(ctx, id, models.StatusPendingAI, models.StatusAIReviewed); err != nil {
		return s.translate(err, "failed to mark claim ai_reviewed")
	}
	return nil
}

// Assign moves an ai_reviewed claim into human review for one reviewer.
// Double assignment is a conflict, not a silent overwrite.
func (s *Service) Assign(ctx context.Context, id uuid.UUID, reviewerID string) error {
	if reviewerID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "reviewer identity is required")
	}
	if err := s.claims.AssignReviewer(ctx, id, reviewerID); err != nil {
		return s.translate(err, "failed to assign reviewer")
	}
	s.logger.InfoContext(ctx, "claim assigned", "claim_id", id, "reviewer_id", reviewerID)
	return nil
}

// Resolve finishes a claim from either review path.
func (s *Service) Resolve(ctx context.Context, id uuid.UUID, from models.Status) error {
	if err := s.claims.Transition(ctx, id, from, models.StatusResolved); err != nil {
		return s.translate(err, "failed to resolve claim")
	}
	return nil
}

// Reject moves a claim to the rejected terminal state (safety failure, spam).
func (s *Service) Reject(ctx context.Context, id uuid.UUID) error {
	claim, err := s.claims.FindByID(ctx, id)
	if err != nil {
		return s.translate(err, "failed to load claim")
	}
	if claim.Status.IsTerminal() {
		return dErrors.New(dErrors.CodeConflict, "claim already in a terminal state")
	}
	if err := s.claims.Transition(ctx, id, claim.Status, models.StatusRejected); err != nil {
		return s.translate(err, "failed to reject claim")
	}
	s.logger.WarnContext(ctx, "claim rejected", "claim_id", id)
	return nil
}

func (s *Service) translate(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "claim not found")
	case errors.Is(err, sentinel.ErrConflict), errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeConflict, "claim state changed, re-fetch and retry")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
