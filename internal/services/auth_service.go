package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"taskflow/internal/middleware"
	"taskflow/internal/models"
)

// TokenPair is the access/refresh pair handed out on register and login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type AuthService interface {
	HashPassword(plain string) (string, error)
	CheckPassword(hash, plain string) bool
	GeneratePair(user *models.User) (*TokenPair, error)
	RefreshAccess(ctx context.Context, refreshToken string) (string, error)
}

// userLookup is the slice of the user repository the auth service needs to
// re-check accounts at refresh time.
type userLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type authService struct {
	users      userLookup
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(users userLookup, secret []byte, accessTTL, refreshTTL time.Duration) AuthService {
	return &authService{users: users, secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

func (s *authService) HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (s *authService) CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

func (s *authService) sign(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	claims := &middleware.Claims{
		UserID:      user.ID,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
		TokenType:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *authService) GeneratePair(user *models.User) (*TokenPair, error) {
	access, err := s.sign(user, middleware.TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.sign(user, middleware.TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// RefreshAccess exchanges a valid refresh token for a new access token. The
// account is re-read from storage so a deactivated user cannot keep a session
// alive through refreshes; the new token also carries current staff flags.
func (s *authService) RefreshAccess(ctx context.Context, refreshToken string) (string, error) {
	claims, err := middleware.ParseToken(refreshToken, s.secret)
	if err != nil {
		return "", ErrInvalidCredentials
	}
	if claims.TokenType != middleware.TokenTypeRefresh {
		return "", ErrInvalidCredentials
	}
	if claims.ExpiresAt == nil || time.Now().After(claims.ExpiresAt.Time) {
		return "", ErrInvalidCredentials
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if !user.IsActive {
		return "", ErrInvalidCredentials
	}
	return s.sign(user, middleware.TokenTypeAccess, s.accessTTL)
}
