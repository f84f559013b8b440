// Package service recomputes engagement scores over active claims, groups
// them into topics, and maintains the ranked trending listing.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	claimModels "factgate/internal/claims/models"
	"factgate/internal/trending"
	"factgate/internal/trending/metrics"
	"factgate/internal/trending/models"
	"factgate/internal/trending/store"
	dErrors "factgate/pkg/domainerrors"
	"factgate/pkg/platform/sentinel"
)

// ClaimSource is the slice of the claim store the trending sweep needs.
type ClaimSource interface {
	ListActiveSince(ctx context.Context, cutoff time.Time) ([]*claimModels.Claim, error)
	SetTrending(ctx context.Context, id uuid.UUID, score float64, trending bool) error
}

type Service struct {
	topics  store.TopicStore
	claims  ClaimSource
	config  trending.ScoreConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithScoreConfig(cfg trending.ScoreConfig) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(topics store.TopicStore, claims ClaimSource, opts ...Option) (*Service, error) {
	if topics == nil {
		return nil, fmt.Errorf("topic store is required")
	}
	if claims == nil {
		return nil, fmt.Errorf("claim source is required")
	}
	svc := &Service{
		topics: topics,
		claims: claims,
		config: trending.DefaultScoreConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Recompute rescoring sweep: scores every claim active inside the rolling
// window, aggregates per-category topics, flags claims trending when both
// the claim score and its topic's engagement clear their thresholds, and
// resolves topics below the engagement floor or idle past the retention
// cutoff.
func (s *Service) Recompute(ctx context.Context) error {
	now := s.now().UTC()
	start := time.Now()

	claims, err := s.claims.ListActiveSince(ctx, now.Add(-s.config.Window))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to list active claims")
	}

	type bucket struct {
		claims []*claimModels.Claim
		scores []float64
		total  float64
		latest time.Time
	}
	buckets := make(map[string]*bucket)
	for _, claim := range claims {
		score := trending.Score(claim, now, s.config)
		b, ok := buckets[claim.Category]
		if !ok {
			b = &bucket{}
			buckets[claim.Category] = b
		}
		b.claims = append(b.claims, claim)
		b.scores = append(b.scores, score)
		b.total += score
		if claim.UpdatedAt.After(b.latest) {
			b.latest = claim.UpdatedAt
		}
	}

	trendingClaims := 0
	activeTopics := 0
	for label, b := range buckets {
		if b.total >= s.config.EngagementFloor {
			activeTopics++
		}
		for i, claim := range b.claims {
			isTrending := b.scores[i] >= s.config.ClaimThreshold && b.total >= s.config.EngagementFloor
			if isTrending {
				trendingClaims++
			}
			if err := s.claims.SetTrending(ctx, claim.ID, b.scores[i], isTrending); err != nil {
				s.logger.WarnContext(ctx, "failed to update claim trending state",
					"claim_id", claim.ID, "error", err.Error())
			}
		}
		if err := s.upsertTopic(ctx, label, b.claims, b.total, b.latest, now); err != nil {
			s.logger.WarnContext(ctx, "failed to upsert topic", "label", label, "error", err.Error())
		}
	}

	resolved, err := s.topics.ResolveStale(ctx, now.Add(-s.config.Retention))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve stale topics")
	}
	if resolved > 0 {
		s.logger.InfoContext(ctx, "resolved stale topics", "count", resolved)
	}

	if s.metrics != nil {
		s.metrics.ActiveTopics.Set(float64(activeTopics))
		s.metrics.TrendingClaims.Set(float64(trendingClaims))
		s.metrics.RecomputeDuration.Observe(time.Since(start).Seconds())
	}
	return nil
}

// CurrentTrending returns the ranked active topics, most engaged first.
func (s *Service) CurrentTrending(ctx context.Context, limit int) ([]*models.TrendingTopic, error) {
	if limit <= 0 {
		limit = 10
	}
	topics, err := s.topics.ListActive(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list trending topics")
	}
	return topics, nil
}

func (s *Service) upsertTopic(ctx context.Context, label string, claims []*claimModels.Claim, total float64, latest, now time.Time) error {
	topic, err := s.topics.FindByLabel(ctx, label)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		topic = &models.TrendingTopic{
			ID:        uuid.New(),
			Label:     label,
			Category:  label,
			CreatedAt: now,
		}
	case err != nil:
		return err
	}

	topic.ClaimCount = len(claims)
	topic.EngagementScore = total
	topic.ClaimIDs = topic.ClaimIDs[:0]
	for _, claim := range claims {
		topic.ClaimIDs = append(topic.ClaimIDs, claim.ID)
	}
	// A topic below the engagement floor is resolved and excluded from the
	// ranked listing; fresh activity on a later sweep reactivates it.
	if total >= s.config.EngagementFloor {
		topic.Status = models.TopicActive
	} else {
		topic.Status = models.TopicResolved
	}
	topic.LastActivityAt = latest
	return s.topics.Upsert(ctx, topic)
}
