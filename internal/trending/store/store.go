package store

import (
	"context"
	"time"

	"factgate/internal/trending/models"
)

// TopicStore persists trending topics. ListActive returns the ranked listing:
// engagement desc, claim count desc, ties broken by most recent activity.
type TopicStore interface {
	Upsert(ctx context.Context, topic *models.TrendingTopic) error
	FindByLabel(ctx context.Context, label string) (*models.TrendingTopic, error)
	ListActive(ctx context.Context, limit int) ([]*models.TrendingTopic, error)

	// ResolveStale marks active topics idle since the cutoff as resolved and
	// returns how many were resolved.
	ResolveStale(ctx context.Context, cutoff time.Time) (int, error)
}
