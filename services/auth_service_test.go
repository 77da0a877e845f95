package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"clan-missions/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	db := newTestDB(t)
	return NewAuthService(db, NewTokenIssuer([]byte(testSecret), "clan-missions", 15*time.Minute), 7*24*time.Hour)
}

func TestLogin_SameAddressSameUser(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	first, user1, err := svc.Login(ctx, "0xABC")
	require.NoError(t, err)
	assert.NotEmpty(t, first.AccessToken)
	assert.Len(t, first.RefreshToken, 64)
	assert.Equal(t, "0x"+strings.Repeat("0", 61)+"abc", user1.WalletAddress)

	_, user2, err := svc.Login(ctx, "0x"+strings.Repeat("0", 61)+"ABC")
	require.NoError(t, err)
	assert.Equal(t, user1.ID, user2.ID)

	var users, tokens int64
	svc.DB.Model(&models.User{}).Count(&users)
	svc.DB.Model(&models.RefreshToken{}).Count(&tokens)
	assert.EqualValues(t, 1, users)
	assert.EqualValues(t, 1, tokens, "one refresh token row per user")
}

func TestLogin_InvalidAddress(t *testing.T) {
	svc := newAuthService(t)
	for _, addr := range []string{"", "abc", "0x", "0xzz", "0x" + strings.Repeat("1", 65)} {
		_, _, err := svc.Login(context.Background(), addr)
		assert.ErrorIs(t, err, ErrInvalidAddress, addr)
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	session, _, err := svc.Login(ctx, "0x1")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, session.RefreshToken, next.RefreshToken)

	_, err = svc.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "old value stops working")

	_, err = svc.Refresh(ctx, next.RefreshToken)
	assert.NoError(t, err)
}

func TestRefresh_Rejects(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Refresh(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = svc.Refresh(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	session, _, err := svc.Login(ctx, "0x2")
	require.NoError(t, err)
	svc.now = fixedClock(time.Now().Add(8 * 24 * time.Hour))
	_, err = svc.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenExpired)
}

func TestLogoutAndMe(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	session, user, err := svc.Login(ctx, "0x3")
	require.NoError(t, err)

	me, err := svc.Me(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.WalletAddress, me.WalletAddress)

	require.NoError(t, svc.Logout(ctx, user.ID))
	_, err = svc.Refresh(ctx, session.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = svc.Me(ctx, "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
