package repositories

import (
	"context"
	"database/sql"
	"time"

	"taskflow/internal/models"
)

type PasswordResetRepository interface {
	// Issue invalidates every unused token of the user and creates a fresh one
	// in a single transaction, so at most one valid token exists at any time.
	Issue(ctx context.Context, userID int64, token string, expiresAt time.Time) (*models.PasswordResetToken, error)
	GetByToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	// Consume sets the user's password and marks the token used atomically.
	Consume(ctx context.Context, tokenID, userID int64, passwordHash string) error
}

type passwordResetRepository struct {
	DB *sql.DB
}

func NewPasswordResetRepository(db *sql.DB) PasswordResetRepository {
	return &passwordResetRepository{DB: db}
}

func (r *passwordResetRepository) Issue(ctx context.Context, userID int64, token string, expiresAt time.Time) (*models.PasswordResetToken, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used=TRUE WHERE user_id=$1 AND used=FALSE`, userID); err != nil {
		return nil, err
	}

	pr := &models.PasswordResetToken{UserID: userID, Token: token, ExpiresAt: expiresAt}
	const q = `
		INSERT INTO password_reset_tokens (user_id, token, expires_at)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := tx.QueryRowContext(ctx, q, userID, token, expiresAt).Scan(&pr.ID, &pr.CreatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return pr, nil
}

func (r *passwordResetRepository) GetByToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	const q = `
		SELECT id, user_id, token, expires_at, used, created_at
		FROM password_reset_tokens
		WHERE token = $1
	`
	pr := &models.PasswordResetToken{}
	err := r.DB.QueryRowContext(ctx, q, token).Scan(
		&pr.ID, &pr.UserID, &pr.Token, &pr.ExpiresAt, &pr.Used, &pr.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return pr, nil
}

func (r *passwordResetRepository) Consume(ctx context.Context, tokenID, userID int64, passwordHash string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`, passwordHash, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE password_reset_tokens SET used=TRUE WHERE id=$1`, tokenID); err != nil {
		return err
	}
	return tx.Commit()
}
