package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"factgate/internal/trending/models"
	"factgate/pkg/platform/sentinel"
)

// PostgresTopicStore persists trending topics in PostgreSQL, one row per
// label.
type PostgresTopicStore struct {
	pool *pgxpool.Pool
}

func NewPostgresTopicStore(pool *pgxpool.Pool) *PostgresTopicStore {
	return &PostgresTopicStore{pool: pool}
}

const topicColumns = `id, label, category, claim_count, engagement_score,
	claim_ids, status, last_activity_at, created_at`

func (s *PostgresTopicStore) Upsert(ctx context.Context, topic *models.TrendingTopic) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO trending_topics (`+topicColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (label) DO UPDATE SET
			claim_count = EXCLUDED.claim_count,
			engagement_score = EXCLUDED.engagement_score,
			claim_ids = EXCLUDED.claim_ids,
			status = EXCLUDED.status,
			last_activity_at = EXCLUDED.last_activity_at`,
		topic.ID, topic.Label, topic.Category, topic.ClaimCount, topic.EngagementScore,
		topic.ClaimIDs, topic.Status, topic.LastActivityAt, topic.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert topic: %w", err)
	}
	return nil
}

func (s *PostgresTopicStore) FindByLabel(ctx context.Context, label string) (*models.TrendingTopic, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+topicColumns+` FROM trending_topics WHERE label = $1`, label)
	topic, err := scanTopic(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find topic: %w", err)
	}
	return topic, nil
}

func (s *PostgresTopicStore) ListActive(ctx context.Context, limit int) ([]*models.TrendingTopic, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+topicColumns+` FROM trending_topics
		WHERE status = $1
		ORDER BY engagement_score DESC, claim_count DESC, last_activity_at DESC
		LIMIT $2`, models.TopicActive, limit)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	var out []*models.TrendingTopic
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		out = append(out, topic)
	}
	return out, rows.Err()
}

func (s *PostgresTopicStore) ResolveStale(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE trending_topics SET status = $1
		WHERE status = $2 AND last_activity_at < $3`,
		models.TopicResolved, models.TopicActive, cutoff)
	if err != nil {
		return 0, fmt.Errorf("resolve stale topics: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanTopic(row pgx.Row) (*models.TrendingTopic, error) {
	var topic models.TrendingTopic
	err := row.Scan(
		&topic.ID, &topic.Label, &topic.Category, &topic.ClaimCount,
		&topic.EngagementScore, &topic.ClaimIDs, &topic.Status,
		&topic.LastActivityAt, &topic.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &topic, nil
}
