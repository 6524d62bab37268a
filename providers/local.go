package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/yashrajoria/materials-storefront/models"
	"github.com/yashrajoria/materials-storefront/repository"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

// LocalIdentityProvider is an in-process identity provider. Passwords are
// bcrypt hashed, sessions are HS256 JWT pairs, users live in a
// ProfileRepository. OAuth sign-ins are mocked with a fixed user per
// provider.
type LocalIdentityProvider struct {
	secretKey []byte
	profiles  repository.ProfileRepository

	mu      sync.Mutex
	revoked map[string]time.Time // session id -> when the entry can be dropped
	now     func() time.Time
}

func NewLocalIdentityProvider(secret string, profiles repository.ProfileRepository) *LocalIdentityProvider {
	return &LocalIdentityProvider{
		secretKey: []byte(secret),
		profiles:  profiles,
		revoked:   make(map[string]time.Time),
		now:       time.Now,
	}
}

func (p *LocalIdentityProvider) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	profile, err := p.profiles.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if profile.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return p.issueSession(profile)
}

func (p *LocalIdentityProvider) SignInWithOAuth(ctx context.Context, provider models.AuthProvider) (*AuthResult, error) {
	if !provider.IsOAuth() {
		return nil, ErrUnsupportedOAuth
	}

	email := fmt.Sprintf("%s-user@example.com", provider)
	profile, err := p.profiles.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrProfileNotFound) {
		profile = &models.Profile{
			ID:       uuid.NewString(),
			Email:    email,
			Name:     strings.ToUpper(string(provider[:1])) + string(provider[1:]) + " User",
			Provider: string(provider),
		}
		if err := p.profiles.Create(ctx, profile); err != nil {
			return nil, fmt.Errorf("create oauth user: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	session, err := p.issueSession(profile)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Session: session}, nil
}

func (p *LocalIdentityProvider) SignUp(ctx context.Context, email, password, name string) (*AuthResult, error) {
	if _, err := p.profiles.FindByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, repository.ErrProfileNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	profile := &models.Profile{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hashed),
		Provider:     string(models.ProviderEmail),
	}
	if err := p.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrProfileExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	session, err := p.issueSession(profile)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Session: session}, nil
}

// SignOut revokes both tokens of the session the access token belongs to.
func (p *LocalIdentityProvider) SignOut(_ context.Context, accessToken string) error {
	claims, err := p.validate(accessToken, "access")
	if err != nil {
		return err
	}
	sid, _ := claims["sid"].(string)
	exp := p.now().Add(refreshTokenTTL)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked[sid] = exp
	for id, until := range p.revoked {
		if p.now().After(until) {
			delete(p.revoked, id)
		}
	}
	return nil
}

func (p *LocalIdentityProvider) GetSession(ctx context.Context, accessToken string) (*models.Session, error) {
	claims, err := p.validate(accessToken, "access")
	if err != nil {
		return nil, err
	}
	sub, _ := claims["sub"].(string)
	profile, err := p.profiles.FindByID(ctx, sub)
	if err != nil {
		return nil, ErrInvalidSession
	}

	var expiresAt time.Time
	if exp, ok := claims["exp"].(float64); ok {
		expiresAt = time.Unix(int64(exp), 0)
	}
	return &models.Session{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		User:        models.IdentityUser{ID: profile.ID, Email: profile.Email, Name: profile.Name},
	}, nil
}

func (p *LocalIdentityProvider) issueSession(profile *models.Profile) (*models.Session, error) {
	sid := uuid.NewString()
	now := p.now()
	access, err := p.generateToken(profile, "access", sid, now, accessTokenTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := p.generateToken(profile, "refresh", sid, now, refreshTokenTTL)
	if err != nil {
		return nil, err
	}
	return &models.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(accessTokenTTL),
		User:         models.IdentityUser{ID: profile.ID, Email: profile.Email, Name: profile.Name},
	}, nil
}

func (p *LocalIdentityProvider) generateToken(profile *models.Profile, tokenType, sid string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   profile.ID,
		"email": profile.Email,
		"typ":   tokenType,
		"sid":   sid,
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(p.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (p *LocalIdentityProvider) validate(tokenStr, expectedType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return p.secretKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidSession
	}
	if typ, ok := claims["typ"].(string); !ok || typ != expectedType {
		return nil, ErrInvalidSession
	}

	sid, _ := claims["sid"].(string)
	p.mu.Lock()
	_, revoked := p.revoked[sid]
	p.mu.Unlock()
	if revoked {
		return nil, ErrInvalidSession
	}
	return claims, nil
}
