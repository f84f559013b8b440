package models

import (
	"time"

	"github.com/google/uuid"
)

// TopicStatus tracks whether a topic is still surfacing.
type TopicStatus string

const (
	TopicActive   TopicStatus = "active"
	TopicResolved TopicStatus = "resolved"
)

// TrendingTopic aggregates related claims surfaced by engagement score.
// Topics drop out of the ranked listing once resolved.
type TrendingTopic struct {
	ID              uuid.UUID   `json:"id"`
	Label           string      `json:"label"`
	Category        string      `json:"category"`
	ClaimCount      int         `json:"claim_count"`
	EngagementScore float64     `json:"engagement_score"`
	ClaimIDs        []uuid.UUID `json:"claim_ids"`
	Status          TopicStatus `json:"status"`
	LastActivityAt  time.Time   `json:"last_activity_at"`
	CreatedAt       time.Time   `json:"created_at"`
}
