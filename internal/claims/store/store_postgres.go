package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"factgate/internal/claims/models"
	"factgate/pkg/platform/sentinel"
)

// PostgresStore persists claims in PostgreSQL. Status changes rely on the
// row's single conditional update; no multi-row transactions are needed.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const claimColumns = `id, submitter_id, submitter_ip, title, description, category,
	media_refs, status, submission_count, is_trending, trending_score,
	assigned_reviewer_id, created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, claim *models.Claim) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO claims (`+claimColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			submission_count = EXCLUDED.submission_count,
			updated_at = EXCLUDED.updated_at`,
		claim.ID, claim.SubmitterID, claim.SubmitterIP, claim.Title, claim.Description,
		claim.Category, claim.MediaRefs, claim.Status, claim.SubmissionCount,
		claim.IsTrending, claim.TrendingScore, nullable(claim.AssignedReviewerID),
		claim.CreatedAt, claim.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save claim: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Claim, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+claimColumns+` FROM claims WHERE id = $1`, id)
	claim, err := scanClaim(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find claim: %w", err)
	}
	return claim, nil
}

func (s *PostgresStore) Transition(ctx context.Context, id uuid.UUID, from, to models.Status) error {
	if !from.CanTransitionTo(to) {
		return sentinel.ErrInvalidState
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE claims SET status = $1, updated_at = now()
		WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return fmt.Errorf("transition claim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either missing or the status moved under us; disambiguate for the
		// ConflictingState contract.
		if _, findErr := s.FindByID(ctx, id); findErr != nil {
			return findErr
		}
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) IncrementSubmission(ctx context.Context, id uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		UPDATE claims SET submission_count = submission_count + 1, updated_at = now()
		WHERE id = $1
		RETURNING submission_count`, id).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("increment submission: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) AssignReviewer(ctx context.Context, id uuid.UUID, reviewerID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE claims SET assigned_reviewer_id = $1, status = $2, updated_at = now()
		WHERE id = $3 AND status = $4 AND assigned_reviewer_id IS NULL`,
		reviewerID, models.StatusHumanReview, id, models.StatusAIReviewed)
	if err != nil {
		return fmt.Errorf("assign reviewer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, findErr := s.FindByID(ctx, id); findErr != nil {
			return findErr
		}
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) SetTrending(ctx context.Context, id uuid.UUID, score float64, trending bool) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE claims SET trending_score = $1, is_trending = $2 WHERE id = $3`,
		score, trending, id)
	if err != nil {
		return fmt.Errorf("set trending: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListActiveSince(ctx context.Context, cutoff time.Time) ([]*models.Claim, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+claimColumns+` FROM claims
		WHERE status <> $1 AND updated_at >= $2`, models.StatusRejected, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list active claims: %w", err)
	}
	defer rows.Close()

	var out []*models.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		out = append(out, claim)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClaim(row rowScanner) (*models.Claim, error) {
	var claim models.Claim
	var assigned *string
	err := row.Scan(
		&claim.ID, &claim.SubmitterID, &claim.SubmitterIP, &claim.Title,
		&claim.Description, &claim.Category, &claim.MediaRefs, &claim.Status,
		&claim.SubmissionCount, &claim.IsTrending, &claim.TrendingScore,
		&assigned, &claim.CreatedAt, &claim.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if assigned != nil {
		claim.AssignedReviewerID = *assigned
	}
	return &claim, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
