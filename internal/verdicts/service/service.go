// Package service is the verdict reconciliation engine: it merges automated
// and human judgments into one authoritative displayed verdict, and owns the
// two human pathways (edit-in-place of the automated record, or a separate
// human verdict that takes display precedence).
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	claimModels "factgate/internal/claims/models"
	"factgate/internal/verdicts/models"
	"factgate/internal/verdicts/store"
	dErrors "factgate/pkg/domainerrors"
	"factgate/pkg/platform/sentinel"
)

// ClaimLifecycle is the slice of the claims service the reconciler needs.
type ClaimLifecycle interface {
	Get(ctx context.Context, id uuid.UUID) (*claimModels.Claim, error)
	MarkAIReviewed(ctx context.Context, id uuid.UUID) error
	Resolve(ctx context.Context, id uuid.UUID, from claimModels.Status) error
}

type Service struct {
	verdicts store.Store
	claims   ClaimLifecycle
	logger   *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(verdicts store.Store, claims ClaimLifecycle, opts ...Option) (*Service, error) {
	if verdicts == nil {
		return nil, fmt.Errorf("verdicts store is required")
	}
	if claims == nil {
		return nil, fmt.Errorf("claim lifecycle is required")
	}
	svc := &Service{
		verdicts: verdicts,
		claims:   claims,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Reconcile is the single precedence function: human verdict if present, else
// automated, else nil. All callers consume its output instead of re-deriving
// precedence.
func Reconcile(claimID uuid.UUID, auto *models.AutomatedVerdict, human *models.HumanVerdict) *models.DisplayedVerdict {
	if human != nil {
		return &models.DisplayedVerdict{
			ClaimID:     claimID,
			Label:       human.Label,
			Explanation: human.Explanation,
			Sources:     human.Sources,
			Origin:      models.OriginHuman,
			ReviewerID:  human.ReviewerID,
		}
	}
	if auto != nil {
		confidence := auto.Confidence
		return &models.DisplayedVerdict{
			ClaimID:     claimID,
			Label:       auto.Label,
			Explanation: auto.Explanation,
			Sources:     auto.Sources,
			Origin:      models.OriginAutomated,
			Confidence:  &confidence,
			Disclaimer:  auto.Disclaimer,
		}
	}
	return nil
}

// Displayed loads both verdict records and reconciles them. A nil result with
// nil error means the claim has no verdict yet.
func (s *Service) Displayed(ctx context.Context, claimID uuid.UUID) (*models.DisplayedVerdict, error) {
	human, err := s.verdicts.FindHumanByClaim(ctx, claimID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load human verdict")
	}
	auto, err := s.verdicts.FindAutomatedByClaim(ctx, claimID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load automated verdict")
	}
	return Reconcile(claimID, auto, human), nil
}

// RecordAutomated persists a validated automated verdict and moves the claim
// to ai_reviewed.
func (s *Service) RecordAutomated(ctx context.Context, verdict *models.AutomatedVerdict) error {
	if err := s.verdicts.SaveAutomated(ctx, verdict); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist automated verdict")
	}
	if err := s.claims.MarkAIReviewed(ctx, verdict.ClaimID); err != nil {
		return err
	}
	return nil
}

// ApplyHumanEdit overwrites the listed fields on an automated verdict. This is
// the only path by which an automated verdict becomes human-attributed without
// a separate human verdict row, and it is never reversed.
func (s *Service) ApplyHumanEdit(ctx context.Context, verdictID uuid.UUID, editorID string, fields store.EditFields) (*models.AutomatedVerdict, error) {
	if editorID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "editor identity is required")
	}
	if fields.Label != nil && !fields.Label.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid verdict label")
	}
	if fields.Confidence != nil && (*fields.Confidence < 0 || *fields.Confidence > 1) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "confidence must be within [0,1]")
	}

	verdict, err := s.verdicts.ApplyHumanEdit(ctx, verdictID, editorID, fields)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "automated verdict not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply human edit")
	}

	s.logger.InfoContext(ctx, "automated verdict amended by reviewer",
		"verdict_id", verdictID,
		"editor_id", editorID,
	)
	return verdict, nil
}

// RecordHumanVerdict creates the claim's human verdict and resolves the claim.
// An existing automated verdict is left untouched; it simply loses display
// precedence.
func (s *Service) RecordHumanVerdict(ctx context.Context, verdict *models.HumanVerdict) error {
	claim, err := s.claims.Get(ctx, verdict.ClaimID)
	if err != nil {
		return err
	}
	if claim.Status != claimModels.StatusHumanReview && claim.Status != claimModels.StatusAIReviewed {
		return dErrors.New(dErrors.CodeConflict, "claim is not awaiting human review")
	}

	if err := s.verdicts.SaveHuman(ctx, verdict); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "claim already has a human verdict")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist human verdict")
	}

	if err := s.claims.Resolve(ctx, verdict.ClaimID, claim.Status); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "human verdict recorded",
		"claim_id", verdict.ClaimID,
		"reviewer_id", verdict.ReviewerID,
		"label", verdict.Label,
	)
	return nil
}
