package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tranvm/luxora/internal/events"
	"github.com/tranvm/luxora/internal/hash"
	"github.com/tranvm/luxora/internal/logging"
	"github.com/tranvm/luxora/internal/models"
	"github.com/tranvm/luxora/internal/repo"
)

const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

type AuthService struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
	Events        Publisher
}

type TokenPair struct {
	Access  string
	Refresh string
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password required: %w", ErrValidation)
	}

	if _, err := s.Repo.UserByUsername(ctx, username); err == nil {
		return nil, fmt.Errorf("user already exists: %w", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{Username: username, PasswordHash: pwHash, Role: "user"}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, user.ID, map[string]any{
		"type": "user_registered", "user_id": user.ID, "username": user.Username,
	})
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, *TokenPair, error) {
	user, err := s.Repo.UserByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("invalid credentials: %w", ErrValidation)
	}
	if err != nil {
		return nil, nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return nil, nil, fmt.Errorf("invalid credentials: %w", ErrValidation)
	}

	pair, err := s.IssueTokens(ctx, user.ID, user.Role)
	if err != nil {
		return nil, nil, err
	}

	s.publish(ctx, user.ID, map[string]any{
		"type": "user_logged_in", "user_id": user.ID, "username": user.Username,
	})
	return user, pair, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.Repo.RevokeRefreshToken(ctx, refreshToken)
}

// IssueTokens signs a fresh access/refresh pair and records the refresh
// token for revocation checks.
func (s *AuthService) IssueTokens(ctx context.Context, userID uint, role string) (*TokenPair, error) {
	return s.issueTokens(ctx, s.Repo, userID, role)
}

func (s *AuthService) issueTokens(ctx context.Context, r *repo.GormRepo, userID uint, role string) (*TokenPair, error) {
	access, err := SignAccessToken(userID, role, s.JWTSecret)
	if err != nil {
		return nil, err
	}
	refresh, err := SignRefreshToken(userID, role, s.RefreshSecret)
	if err != nil {
		return nil, err
	}

	stored := &models.RefreshToken{
		Token:     refresh,
		UserID:    userID,
		ExpiresAt: time.Now().Add(RefreshTokenTTL).Unix(),
	}
	if err := r.SaveRefreshToken(ctx, stored); err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// Rotate validates a refresh token against the store and issues a new
// pair, revoking the old token. Revoke and issue commit together, a
// failed issue must not strand the user without any refresh token.
func (s *AuthService) Rotate(ctx context.Context, rawToken string) (*TokenPair, uint, string, error) {
	claims, err := s.validateRefresh(ctx, rawToken)
	if err != nil {
		return nil, 0, "", err
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return nil, 0, "", fmt.Errorf("invalid subject claim: %w", ErrValidation)
	}
	userID := uint(sub)
	role, _ := claims["role"].(string)

	var pair *TokenPair
	err = s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := tx.RevokeRefreshToken(ctx, rawToken); err != nil {
			return err
		}
		pair, err = s.issueTokens(ctx, tx, userID, role)
		return err
	})
	if err != nil {
		return nil, 0, "", err
	}
	return pair, userID, role, nil
}

func (s *AuthService) validateRefresh(ctx context.Context, rawToken string) (jwt.MapClaims, error) {
	t, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.RefreshSecret, nil
	})
	if err != nil || !t.Valid {
		return nil, fmt.Errorf("invalid refresh token: %w", ErrValidation)
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid refresh claims: %w", ErrValidation)
	}
	if typ, ok := claims["typ"]; !ok || typ != "refresh" {
		return nil, fmt.Errorf("not a refresh token: %w", ErrValidation)
	}

	stored, err := s.Repo.RefreshTokenByValue(ctx, rawToken)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("unknown refresh token: %w", ErrValidation)
	}
	if err != nil {
		return nil, err
	}
	if stored.Revoked {
		return nil, fmt.Errorf("refresh token revoked: %w", ErrValidation)
	}
	if time.Now().Unix() > stored.ExpiresAt {
		return nil, fmt.Errorf("refresh token expired: %w", ErrValidation)
	}
	return claims, nil
}

func SignAccessToken(userID uint, role string, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(AccessTokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func SignRefreshToken(userID uint, role string, secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(RefreshTokenTTL).Unix(),
		"typ":  "refresh",
		"jti":  uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseAccessToken validates an access token and returns (userID, role).
func ParseAccessToken(raw string, secret []byte) (uint, string, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return 0, "", err
	}
	if !t.Valid {
		return 0, "", errors.New("invalid token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errors.New("invalid claims")
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", errors.New("invalid subject claim")
	}
	role, _ := claims["role"].(string)
	return uint(sub), role, nil
}

func (s *AuthService) publish(ctx context.Context, userID uint, event map[string]any) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, events.TopicUser, fmt.Sprint(userID), event); err != nil {
		logging.FromContext(ctx).Error("event publish failed", "topic", events.TopicUser, "error", err)
	}
}
