package providers

import (
	"context"
	"errors"

	"github.com/yashrajoria/materials-storefront/models"
)

var (
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	ErrUserExists         = errors.New("User already registered")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrUnsupportedOAuth   = errors.New("unsupported OAuth provider")
)

// AuthResult is the outcome of an OAuth sign-in or a sign-up. Exactly one
// of Session and RedirectURL is set, except for sign-ups awaiting email
// confirmation where both are empty.
type AuthResult struct {
	Session     *models.Session
	RedirectURL string
}

// IdentityProvider is the external authentication capability set the
// storefront depends on.
type IdentityProvider interface {
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignInWithOAuth(ctx context.Context, provider models.AuthProvider) (*AuthResult, error)
	SignUp(ctx context.Context, email, password, name string) (*AuthResult, error)
	SignOut(ctx context.Context, accessToken string) error
	GetSession(ctx context.Context, accessToken string) (*models.Session, error)
}
