package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"factgate/internal/verdicts/models"
	"factgate/pkg/platform/sentinel"
)

// InMemoryStore keeps verdicts keyed by claim id.
type InMemoryStore struct {
	mu        sync.RWMutex
	automated map[uuid.UUID]*models.AutomatedVerdict // by claim id
	human     map[uuid.UUID]*models.HumanVerdict     // by claim id
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		automated: make(map[uuid.UUID]*models.AutomatedVerdict),
		human:     make(map[uuid.UUID]*models.HumanVerdict),
	}
}

func (s *InMemoryStore) SaveAutomated(_ context.Context, verdict *models.AutomatedVerdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.automated[verdict.ClaimID]; ok && existing.IsEditedByHuman {
		// Human-amended rows are never overwritten by re-evaluation.
		return nil
	}
	cp := *verdict
	s.automated[verdict.ClaimID] = &cp
	return nil
}

func (s *InMemoryStore) FindAutomatedByClaim(_ context.Context, claimID uuid.UUID) (*models.AutomatedVerdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.automated[claimID]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindAutomatedByID(_ context.Context, id uuid.UUID) (*models.AutomatedVerdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.automated {
		if v.ID == id {
			cp := *v
			return &cp, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) ApplyHumanEdit(_ context.Context, id uuid.UUID, editorID string, fields EditFields) (*models.AutomatedVerdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.automated {
		if v.ID != id {
			continue
		}
		if fields.Label != nil {
			v.Label = *fields.Label
		}
		if fields.Confidence != nil {
			v.Confidence = *fields.Confidence
		}
		if fields.Explanation != nil {
			v.Explanation = *fields.Explanation
		}
		if fields.Sources != nil {
			v.Sources = fields.Sources
		}
		now := time.Now().UTC()
		v.IsEditedByHuman = true
		v.EditedBy = editorID
		v.EditedAt = &now
		v.Disclaimer = ""
		cp := *v
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) SaveHuman(_ context.Context, verdict *models.HumanVerdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.human[verdict.ClaimID]; ok {
		return sentinel.ErrConflict
	}
	cp := *verdict
	s.human[verdict.ClaimID] = &cp
	return nil
}

func (s *InMemoryStore) FindHumanByClaim(_ context.Context, claimID uuid.UUID) (*models.HumanVerdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.human[claimID]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}
