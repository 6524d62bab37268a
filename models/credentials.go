package models

import "fmt"

// AuthProvider names a sign-in method.
type AuthProvider string

const (
	ProviderEmail    AuthProvider = "email"
	ProviderGoogle   AuthProvider = "google"
	ProviderFacebook AuthProvider = "facebook"
	ProviderTwitter  AuthProvider = "twitter"
)

// IsOAuth reports whether p is one of the supported OAuth providers.
func (p AuthProvider) IsOAuth() bool {
	switch p {
	case ProviderGoogle, ProviderFacebook, ProviderTwitter:
		return true
	}
	return false
}

// Credentials is either EmailCredentials or OAuthCredentials.
type Credentials interface {
	Provider() AuthProvider
	isCredentials()
}

type EmailCredentials struct {
	Email    string
	Password string
}

func (EmailCredentials) Provider() AuthProvider { return ProviderEmail }
func (EmailCredentials) isCredentials()         {}

type OAuthCredentials struct {
	With AuthProvider
}

func (c OAuthCredentials) Provider() AuthProvider { return c.With }
func (OAuthCredentials) isCredentials()           {}

// NewCredentials builds the credentials variant for provider.
func NewCredentials(provider AuthProvider, email, password string) (Credentials, error) {
	switch {
	case provider == ProviderEmail || provider == "":
		return EmailCredentials{Email: email, Password: password}, nil
	case provider.IsOAuth():
		return OAuthCredentials{With: provider}, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", provider)
	}
}
