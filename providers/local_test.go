package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/materials-storefront/models"
	"github.com/yashrajoria/materials-storefront/repository"
)

func newLocal() *LocalIdentityProvider {
	return NewLocalIdentityProvider("test-secret", repository.NewMemoryProfileRepository())
}

func TestLocalSignUpThenSignIn(t *testing.T) {
	ctx := context.Background()
	p := newLocal()

	res, err := p.SignUp(ctx, "jane@example.com", "secret1", "Jane")
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	assert.Equal(t, "jane@example.com", res.Session.User.Email)
	assert.NotEmpty(t, res.Session.RefreshToken)

	_, err = p.SignUp(ctx, "JANE@example.com", "another1", "Jane 2")
	assert.ErrorIs(t, err, ErrUserExists)

	session, err := p.SignInWithPassword(ctx, "jane@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, res.Session.User.ID, session.User.ID)

	_, err = p.SignInWithPassword(ctx, "jane@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = p.SignInWithPassword(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLocalGetSessionAndSignOut(t *testing.T) {
	ctx := context.Background()
	p := newLocal()

	res, err := p.SignUp(ctx, "sam@example.com", "secret1", "Sam")
	require.NoError(t, err)
	token := res.Session.AccessToken

	session, err := p.GetSession(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "Sam", session.User.Name)

	_, err = p.GetSession(ctx, res.Session.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidSession, "refresh token is not an access token")

	require.NoError(t, p.SignOut(ctx, token))
	_, err = p.GetSession(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.ErrorIs(t, p.SignOut(ctx, token), ErrInvalidSession)
}

func TestLocalExpiredToken(t *testing.T) {
	ctx := context.Background()
	p := newLocal()
	p.now = func() time.Time { return time.Now().Add(-time.Hour) }

	res, err := p.SignUp(ctx, "old@example.com", "secret1", "Old")
	require.NoError(t, err)

	_, err = p.GetSession(ctx, res.Session.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestLocalOAuthMockUser(t *testing.T) {
	ctx := context.Background()
	p := newLocal()

	first, err := p.SignInWithOAuth(ctx, models.ProviderGoogle)
	require.NoError(t, err)
	require.NotNil(t, first.Session)
	assert.Empty(t, first.RedirectURL)
	assert.Equal(t, "google-user@example.com", first.Session.User.Email)
	assert.Equal(t, "Google User", first.Session.User.Name)

	second, err := p.SignInWithOAuth(ctx, models.ProviderGoogle)
	require.NoError(t, err)
	assert.Equal(t, first.Session.User.ID, second.Session.User.ID)

	_, err = p.SignInWithOAuth(ctx, models.ProviderEmail)
	assert.ErrorIs(t, err, ErrUnsupportedOAuth)
}
