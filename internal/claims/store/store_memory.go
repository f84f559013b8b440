package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"factgate/internal/claims/models"
	"factgate/pkg/platform/sentinel"
)

// InMemoryStore keeps claims in a map guarded by a mutex. It mirrors the
// conditional-update semantics of the Postgres store so service tests exercise
// the same ConflictingState behavior.
type InMemoryStore struct {
	mu     sync.RWMutex
	claims map[uuid.UUID]*models.Claim
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{claims: make(map[uuid.UUID]*models.Claim)}
}

func (s *InMemoryStore) Save(_ context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *claim
	s.claims[claim.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if claim, ok := s.claims[id]; ok {
		cp := *claim
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Transition(_ context.Context, id uuid.UUID, from, to models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	claim, ok := s.claims[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if claim.Status != from {
		return sentinel.ErrConflict
	}
	if !from.CanTransitionTo(to) {
		return sentinel.ErrInvalidState
	}
	claim.Status = to
	claim.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryStore) IncrementSubmission(_ context.Context, id uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claim, ok := s.claims[id]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	claim.SubmissionCount++
	claim.UpdatedAt = time.Now().UTC()
	return claim.SubmissionCount, nil
}

func (s *InMemoryStore) AssignReviewer(_ context.Context, id uuid.UUID, reviewerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	claim, ok := s.claims[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if claim.Status != models.StatusAIReviewed || claim.AssignedReviewerID != "" {
		return sentinel.ErrConflict
	}
	claim.AssignedReviewerID = reviewerID
	claim.Status = models.StatusHumanReview
	claim.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *InMemoryStore) SetTrending(_ context.Context, id uuid.UUID, score float64, trending bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	claim, ok := s.claims[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	claim.TrendingScore = score
	claim.IsTrending = trending
	return nil
}

func (s *InMemoryStore) ListActiveSince(_ context.Context, cutoff time.Time) ([]*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Claim
	for _, claim := range s.claims {
		if claim.Status == models.StatusRejected {
			continue
		}
		if claim.UpdatedAt.Before(cutoff) {
			continue
		}
		cp := *claim
		out = append(out, &cp)
	}
	return out, nil
}
