package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"factgate/internal/trending/models"
	"factgate/pkg/platform/sentinel"
)

// InMemoryTopicStore keeps topics keyed by label.
type InMemoryTopicStore struct {
	mu     sync.RWMutex
	topics map[string]*models.TrendingTopic
}

func NewInMemoryTopicStore() *InMemoryTopicStore {
	return &InMemoryTopicStore{topics: make(map[string]*models.TrendingTopic)}
}

func (s *InMemoryTopicStore) Upsert(_ context.Context, topic *models.TrendingTopic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *topic
	s.topics[topic.Label] = &cp
	return nil
}

func (s *InMemoryTopicStore) FindByLabel(_ context.Context, label string) (*models.TrendingTopic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topic, ok := s.topics[label]; ok {
		cp := *topic
		return &cp, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryTopicStore) ListActive(_ context.Context, limit int) ([]*models.TrendingTopic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.TrendingTopic
	for _, topic := range s.topics {
		if topic.Status != models.TopicActive {
			continue
		}
		cp := *topic
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].EngagementScore != out[j].EngagementScore {
			return out[i].EngagementScore > out[j].EngagementScore
		}
		if out[i].ClaimCount != out[j].ClaimCount {
			return out[i].ClaimCount > out[j].ClaimCount
		}
		return out[i].LastActivityAt.After(out[j].LastActivityAt)
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryTopicStore) ResolveStale(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resolved := 0
	for _, topic := range s.topics {
		if topic.Status == models.TopicActive && topic.LastActivityAt.Before(cutoff) {
			topic.Status = models.TopicResolved
			resolved++
		}
	}
	return resolved, nil
}
