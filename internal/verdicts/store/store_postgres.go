package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"factgate/internal/verdicts/models"
	"factgate/pkg/platform/sentinel"
)

// PostgresStore persists verdicts in PostgreSQL. The one-to-one constraints
// ride on unique indexes over claim_id.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const automatedColumns = `id, claim_id, verdict, confidence, explanation, sources,
	model_version, disclaimer, is_edited_by_human, edited_by, edited_at, created_at`

func (s *PostgresStore) SaveAutomated(ctx context.Context, verdict *models.AutomatedVerdict) error {
	// The WHERE guard keeps human-amended rows untouched under automated
	// re-evaluation.
	_, err := s.pool.Exec(ctx, `
		INSERT INTO automated_verdicts (`+automatedColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (claim_id) DO UPDATE SET
			verdict = EXCLUDED.verdict,
			confidence = EXCLUDED.confidence,
			explanation = EXCLUDED.explanation,
			sources = EXCLUDED.sources,
			model_version = EXCLUDED.model_version,
			disclaimer = EXCLUDED.disclaimer
		WHERE automated_verdicts.is_edited_by_human = false`,
		verdict.ID, verdict.ClaimID, verdict.Label, verdict.Confidence,
		verdict.Explanation, verdict.Sources, verdict.ModelVersion,
		verdict.Disclaimer, verdict.IsEditedByHuman, nullable(verdict.EditedBy),
		verdict.EditedAt, verdict.CreatedAt)
	if err != nil {
		return fmt.Errorf("save automated verdict: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindAutomatedByClaim(ctx context.Context, claimID uuid.UUID) (*models.AutomatedVerdict, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+automatedColumns+` FROM automated_verdicts WHERE claim_id = $1`, claimID)
	return scanAutomated(row)
}

func (s *PostgresStore) FindAutomatedByID(ctx context.Context, id uuid.UUID) (*models.AutomatedVerdict, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+automatedColumns+` FROM automated_verdicts WHERE id = $1`, id)
	return scanAutomated(row)
}

func (s *PostgresStore) ApplyHumanEdit(ctx context.Context, id uuid.UUID, editorID string, fields EditFields) (*models.AutomatedVerdict, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE automated_verdicts SET
			verdict = COALESCE($1, verdict),
			confidence = COALESCE($2, confidence),
			explanation = COALESCE($3, explanation),
			sources = COALESCE($4, sources),
			is_edited_by_human = true,
			edited_by = $5,
			edited_at = now(),
			disclaimer = ''
		WHERE id = $6
		RETURNING `+automatedColumns,
		fields.Label, fields.Confidence, fields.Explanation, fields.Sources, editorID, id)
	return scanAutomated(row)
}

func (s *PostgresStore) SaveHuman(ctx context.Context, verdict *models.HumanVerdict) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO human_verdicts (id, claim_id, verdict, explanation, sources,
			reviewer_id, approval_status, review_notes, time_spent_seconds, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		verdict.ID, verdict.ClaimID, verdict.Label, verdict.Explanation,
		verdict.Sources, verdict.ReviewerID, verdict.ApprovalStatus,
		verdict.ReviewNotes, verdict.TimeSpentSeconds, verdict.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save human verdict: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindHumanByClaim(ctx context.Context, claimID uuid.UUID) (*models.HumanVerdict, error) {
	var v models.HumanVerdict
	err := s.pool.QueryRow(ctx, `
		SELECT id, claim_id, verdict, explanation, sources, reviewer_id,
			approval_status, review_notes, time_spent_seconds, created_at
		FROM human_verdicts WHERE claim_id = $1`, claimID).Scan(
		&v.ID, &v.ClaimID, &v.Label, &v.Explanation, &v.Sources, &v.ReviewerID,
		&v.ApprovalStatus, &v.ReviewNotes, &v.TimeSpentSeconds, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find human verdict: %w", err)
	}
	return &v, nil
}

func scanAutomated(row pgx.Row) (*models.AutomatedVerdict, error) {
	var v models.AutomatedVerdict
	var editedBy *string
	err := row.Scan(
		&v.ID, &v.ClaimID, &v.Label, &v.Confidence, &v.Explanation, &v.Sources,
		&v.ModelVersion, &v.Disclaimer, &v.IsEditedByHuman, &editedBy,
		&v.EditedAt, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan automated verdict: %w", err)
	}
	if editedBy != nil {
		v.EditedBy = *editedBy
	}
	return &v, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
