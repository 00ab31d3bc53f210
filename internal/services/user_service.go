package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"taskflow/internal/authz"
	"taskflow/internal/models"
	"taskflow/internal/repositories"
)

const passwordMinLen = 8

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
}

type ProfileUpdateInput struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
}

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, p authz.Principal, in ProfileUpdateInput) (*models.User, error)
	ChangePassword(ctx context.Context, p authz.Principal, oldPassword, newPassword, confirm string) error
	List(ctx context.Context, limit, offset int) ([]*models.User, error)
	Deactivate(ctx context.Context, p authz.Principal, targetID int64) error
}

type userService struct {
	repo   repositories.UserRepository
	auth   AuthService
	emails EmailService
	log    *zap.Logger
}

func NewUserService(repo repositories.UserRepository, auth AuthService, emails EmailService, log *zap.Logger) UserService {
	return &userService{repo: repo, auth: auth, emails: emails, log: log}
}

func validatePassword(field, password string, ve *ValidationError) {
	if len(password) < passwordMinLen {
		ve.Add(field, "This password is too short. It must contain at least 8 characters.")
	}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	ve := &ValidationError{Fields: map[string][]string{}}
	if in.Username == "" {
		ve.Add("username", "This field may not be blank.")
	}
	if in.Email == "" {
		ve.Add("email", "This field may not be blank.")
	}
	validatePassword("password", in.Password, ve)
	if in.Password != in.PasswordConfirm {
		ve.Add("password", "Password fields didn't match.")
	}
	if !ve.Empty() {
		return nil, ve
	}

	if taken, err := s.repo.UsernameTaken(ctx, in.Username, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, NewValidationError("username", "A user with that username already exists.")
	}
	if taken, err := s.repo.EmailTaken(ctx, in.Email, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, NewValidationError("email", "A user with that email already exists.")
	}

	hash, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user registered", zap.Int64("user_id", user.ID), zap.String("username", user.Username))

	if s.emails != nil {
		if err := s.emails.SendWelcomeEmail(user.Email, user.Username); err != nil {
			// warn but do not fail registration
			s.log.Warn("failed to send welcome email", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}
	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if !s.auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, p authz.Principal, in ProfileUpdateInput) (*models.User, error) {
	user, err := s.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username == "" {
			return nil, NewValidationError("username", "This field may not be blank.")
		}
		if taken, err := s.repo.UsernameTaken(ctx, username, user.ID); err != nil {
			return nil, err
		} else if taken {
			return nil, NewValidationError("username", "A user with that username already exists.")
		}
		user.Username = username
	}
	if in.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*in.Email))
		if email == "" {
			return nil, NewValidationError("email", "This field may not be blank.")
		}
		if taken, err := s.repo.EmailTaken(ctx, email, user.ID); err != nil {
			return nil, err
		} else if taken {
			return nil, NewValidationError("email", "A user with that email already exists.")
		}
		user.Email = email
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, p authz.Principal, oldPassword, newPassword, confirm string) error {
	user, err := s.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}

	if !s.auth.CheckPassword(user.PasswordHash, oldPassword) {
		return NewValidationError("old_password", "Old password is incorrect.")
	}
	ve := &ValidationError{Fields: map[string][]string{}}
	validatePassword("new_password", newPassword, ve)
	if newPassword != confirm {
		ve.Add("new_password", "Password fields didn't match.")
	}
	if !ve.Empty() {
		return ve
	}

	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	s.log.Info("password changed", zap.Int64("user_id", user.ID))
	return nil
}

func (s *userService) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return s.repo.List(ctx, limit, offset)
}

// Deactivate soft-deletes the target account. Existing task relations keep
// pointing at the deactivated user.
func (s *userService) Deactivate(ctx context.Context, p authz.Principal, targetID int64) error {
	if err := authz.CanDeleteUser(p, targetID); err != nil {
		if errors.Is(err, authz.ErrSelfDeletion) {
			return NewValidationError("detail", "You cannot delete your own account.")
		}
		return ErrForbidden
	}

	if _, err := s.GetByID(ctx, targetID); err != nil {
		return err
	}
	if err := s.repo.SoftDelete(ctx, targetID); err != nil {
		return err
	}
	s.log.Info("user deactivated", zap.Int64("user_id", targetID), zap.Int64("by", p.ID))
	return nil
}
