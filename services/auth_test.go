package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotmap/config"
	"spotmap/models"
)

type fakeGoogle struct {
	profile GoogleProfile
}

func (f *fakeGoogle) Exchange(_ context.Context, _ string) (*GoogleProfile, error) {
	p := f.profile
	return &p, nil
}

func newTestAuthService(t *testing.T) (*AuthService, *fakeGoogle) {
	t.Helper()
	gdb := openTestDB(t, t.Name())
	google := &fakeGoogle{profile: GoogleProfile{Email: "alice@example.com", Name: "alice"}}
	cfg := config.AuthConfig{
		JWTSecret:          "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: time.Hour,
		Issuer:             "spotmap",
	}
	return NewAuthService(gdb, google, cfg, zerolog.Nop()), google
}

func TestLoginWithGoogle_CreatesUserOnFirstSignIn(t *testing.T) {
	svc, _ := newTestAuthService(t)

	resp, err := svc.LoginWithGoogle(context.Background(), "auth-code")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.User.ID)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, 15*60, resp.ExpiresIn)

	// The access token carries the user id as its subject.
	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(resp.AccessToken, claims, func(_ *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims["sub"])
}

func TestLoginWithGoogle_UpsertsByEmail(t *testing.T) {
	svc, google := newTestAuthService(t)

	first, err := svc.LoginWithGoogle(context.Background(), "code-1")
	require.NoError(t, err)

	picture := "https://lh3.example.com/p.jpg"
	google.profile.Name = "Alice L."
	google.profile.Picture = &picture

	second, err := svc.LoginWithGoogle(context.Background(), "code-2")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID, "same email must map to the same user")
	assert.Equal(t, "Alice L.", second.User.Name)

	var count int64
	require.NoError(t, svc.db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc, _ := newTestAuthService(t)

	login, err := svc.LoginWithGoogle(context.Background(), "code")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(login.AccessToken, login.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, login.User.ID, refreshed.User.ID)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The old refresh token is spent.
	_, err = svc.Refresh(login.AccessToken, login.RefreshToken)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestRefresh_RejectsUnknownToken(t *testing.T) {
	svc, _ := newTestAuthService(t)

	login, err := svc.LoginWithGoogle(context.Background(), "code")
	require.NoError(t, err)

	_, err = svc.Refresh(login.AccessToken, "not-the-stored-token")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Refresh("garbage-access-token", login.RefreshToken)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestLogout_ClearsRefreshToken(t *testing.T) {
	svc, _ := newTestAuthService(t)

	login, err := svc.LoginWithGoogle(context.Background(), "code")
	require.NoError(t, err)

	ok, err := svc.Logout(login.User.ID, "wrong-token")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.Logout(login.User.ID, login.RefreshToken)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Refresh(login.AccessToken, login.RefreshToken)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestProfile(t *testing.T) {
	svc, _ := newTestAuthService(t)

	login, err := svc.LoginWithGoogle(context.Background(), "code")
	require.NoError(t, err)

	profile, err := svc.Profile(login.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", profile.Email)

	_, err = svc.Profile("no-such-user")
	assert.ErrorIs(t, err, ErrNotFound)
}
