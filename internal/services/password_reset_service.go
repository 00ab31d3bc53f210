package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskflow/internal/repositories"
	"taskflow/internal/utils"
)

type PasswordResetService interface {
	// RequestReset issues a token for the account behind email. It returns
	// ("", nil) when the email matches no active account so callers cannot
	// distinguish the two outcomes.
	RequestReset(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, token, newPassword, confirm string) error
}

type passwordResetService struct {
	userRepo repositories.UserRepository
	repo     repositories.PasswordResetRepository
	emails   EmailService
	auth     AuthService
	validity time.Duration
	log      *zap.Logger
}

func NewPasswordResetService(
	userRepo repositories.UserRepository,
	repo repositories.PasswordResetRepository,
	emails EmailService,
	auth AuthService,
	validity time.Duration,
	log *zap.Logger,
) PasswordResetService {
	return &passwordResetService{
		userRepo: userRepo,
		repo:     repo,
		emails:   emails,
		auth:     auth,
		validity: validity,
		log:      log,
	}
}

func (s *passwordResetService) RequestReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return "", NewValidationError("email", "This field may not be blank.")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// no account enumeration: report success either way
			s.log.Info("password reset requested for unknown email")
			return "", nil
		}
		return "", err
	}
	if !user.IsActive {
		s.log.Info("password reset requested for inactive account", zap.Int64("user_id", user.ID))
		return "", nil
	}

	token, err := utils.NewResetToken(32)
	if err != nil {
		return "", err
	}
	expires := time.Now().Add(s.validity)
	if _, err := s.repo.Issue(ctx, user.ID, token, expires); err != nil {
		return "", err
	}
	s.log.Info("password reset token issued", zap.Int64("user_id", user.ID))

	if s.emails != nil {
		if err := s.emails.SendPasswordResetEmail(user.Email, token); err != nil {
			s.log.Warn("failed to send password reset email", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}
	return token, nil
}

// ResetPassword checks lookup, used flag and expiry in that order, then sets
// the new password and consumes the token in one transaction. All rejections
// use the same generic message.
func (s *passwordResetService) ResetPassword(ctx context.Context, token, newPassword, confirm string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return NewValidationError("token", "Invalid or expired token.")
	}
	ve := &ValidationError{Fields: map[string][]string{}}
	validatePassword("new_password", newPassword, ve)
	if newPassword != confirm {
		ve.Add("new_password", "Password fields didn't match.")
	}
	if !ve.Empty() {
		return ve
	}

	pr, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NewValidationError("token", "Invalid or expired token.")
		}
		return err
	}
	if pr.Used {
		return NewValidationError("token", "Invalid or expired token.")
	}
	if !time.Now().Before(pr.ExpiresAt) {
		return NewValidationError("token", "Invalid or expired token.")
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.Consume(ctx, pr.ID, pr.UserID, hash); err != nil {
		return err
	}
	s.log.Info("password reset completed", zap.Int64("user_id", pr.UserID))
	return nil
}
