package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tranvm/luxora/internal/models"
	"github.com/tranvm/luxora/internal/repo"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()
	return &AuthService{
		Repo:          newTestRepo(t),
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
}

func TestAuth_SignAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)

	token, err := SignAccessToken(42, "admin", svc.JWTSecret)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, role, err := ParseAccessToken(token, svc.JWTSecret)
	require.NoError(t, err)
	require.Equal(t, uint(42), userID)
	require.Equal(t, "admin", role)

	_, _, err = ParseAccessToken(token, []byte("wrong-secret"))
	require.Error(t, err)
}

func TestAuth_Register(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "jo", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "user", user.Role)
	require.NotEqual(t, "hunter2", user.PasswordHash)

	_, err = svc.Register(ctx, "jo", "other")
	require.ErrorIs(t, err, ErrConflict)

	_, err = svc.Register(ctx, "", "pw")
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.Register(ctx, "mai", "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestAuth_Login(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "jo", "hunter2")
	require.NoError(t, err)

	user, pair, err := svc.Login(ctx, "jo", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "jo", user.Username)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	userID, role, err := ParseAccessToken(pair.Access, svc.JWTSecret)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)
	require.Equal(t, "user", role)

	_, _, err = svc.Login(ctx, "jo", "wrong")
	require.ErrorIs(t, err, ErrValidation)
	_, _, err = svc.Login(ctx, "nobody", "hunter2")
	require.ErrorIs(t, err, ErrValidation)
}

func TestAuth_RotateRevokesOldToken(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "jo", "hunter2")
	require.NoError(t, err)
	pair, err := svc.IssueTokens(ctx, user.ID, user.Role)
	require.NoError(t, err)

	next, userID, role, err := svc.Rotate(ctx, pair.Refresh)
	require.NoError(t, err)
	require.Equal(t, user.ID, userID)
	require.Equal(t, "user", role)
	require.NotEqual(t, pair.Refresh, next.Refresh)

	// the old refresh token is burned
	_, _, _, err = svc.Rotate(ctx, pair.Refresh)
	require.ErrorIs(t, err, ErrValidation)
}

func TestAuth_RotateRevokeRollsBackWithIssue(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "jo", "hunter2")
	require.NoError(t, err)
	pair, err := svc.IssueTokens(ctx, user.ID, user.Role)
	require.NoError(t, err)

	// a failure after the revoke must roll the revoke back too
	boom := errors.New("boom")
	err = svc.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		require.NoError(t, tx.RevokeRefreshToken(ctx, pair.Refresh))
		return boom
	})
	require.ErrorIs(t, err, boom)

	stored, err := svc.Repo.RefreshTokenByValue(ctx, pair.Refresh)
	require.NoError(t, err)
	require.False(t, stored.Revoked)

	// the token still rotates normally afterwards
	_, _, _, err = svc.Rotate(ctx, pair.Refresh)
	require.NoError(t, err)
}

func TestAuth_RotateRejectsAccessToken(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	access, err := SignAccessToken(1, "user", svc.RefreshSecret)
	require.NoError(t, err)

	// signed with the right key but missing the refresh marker
	_, _, _, err = svc.Rotate(ctx, access)
	require.ErrorIs(t, err, ErrValidation)
}

func TestAuth_LogoutRevokesRefreshToken(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "jo", "hunter2")
	require.NoError(t, err)
	pair, err := svc.IssueTokens(ctx, user.ID, user.Role)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, pair.Refresh))

	var stored models.RefreshToken
	require.NoError(t, svc.Repo.DB.Where("token = ?", pair.Refresh).First(&stored).Error)
	require.True(t, stored.Revoked)

	_, _, _, err = svc.Rotate(ctx, pair.Refresh)
	require.ErrorIs(t, err, ErrValidation)
}
