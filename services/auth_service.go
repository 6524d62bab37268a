package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/yashrajoria/materials-storefront/logger"
	"github.com/yashrajoria/materials-storefront/models"
	"github.com/yashrajoria/materials-storefront/notifier"
	"github.com/yashrajoria/materials-storefront/providers"
	"github.com/yashrajoria/materials-storefront/repository"
	"go.uber.org/zap"
)

var (
	ErrInvalidSignup  = errors.New("invalid signup details")
	ErrNotLoggedIn    = errors.New("not logged in")
	ErrLoginInProcess = errors.New("another login is in progress")
)

// SignupInput carries the sign-up form fields.
type SignupInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
}

// LoginResult is either a signed-in user or, for OAuth providers that need
// a browser round trip, the URL to send the user to.
type LoginResult struct {
	User        *models.UserProfile `json:"user,omitempty"`
	RedirectURL string              `json:"redirect_url,omitempty"`
}

// AuthService holds one client's authentication state on top of an
// IdentityProvider.
type AuthService struct {
	provider providers.IdentityProvider
	profiles repository.ProfileRepository
	notifier notifier.Notifier
	validate *validator.Validate

	mu      sync.RWMutex
	user    *models.UserProfile
	session *models.Session
	loading bool
}

func NewAuthService(provider providers.IdentityProvider, profiles repository.ProfileRepository, n notifier.Notifier) *AuthService {
	if n == nil {
		n = notifier.Nop
	}
	return &AuthService{
		provider: provider,
		profiles: profiles,
		notifier: n,
		validate: validator.New(),
	}
}

// Login signs in with the given credentials. On failure the previous
// session is left untouched.
func (s *AuthService) Login(ctx context.Context, creds models.Credentials) (*LoginResult, error) {
	if !s.begin() {
		return nil, ErrLoginInProcess
	}
	defer s.end()

	var (
		session *models.Session
		err     error
	)
	switch c := creds.(type) {
	case models.EmailCredentials:
		session, err = s.provider.SignInWithPassword(ctx, c.Email, c.Password)
	case models.OAuthCredentials:
		var res *providers.AuthResult
		res, err = s.provider.SignInWithOAuth(ctx, c.With)
		if err == nil {
			if res.RedirectURL != "" {
				return &LoginResult{RedirectURL: res.RedirectURL}, nil
			}
			session = res.Session
		}
	default:
		err = fmt.Errorf("unsupported credentials %T", creds)
	}
	if err == nil && session == nil {
		err = providers.ErrInvalidSession
	}
	if err != nil {
		logger.Warn(ctx, "login failed", zap.String("provider", providerName(creds)), zap.Error(err))
		s.notifier.Notify(ctx, notifier.Error("auth.login_failed", "Login failed: "+err.Error()))
		return nil, err
	}

	user := s.resolveProfile(ctx, session.User)
	s.setSession(user, session)
	s.notifier.Notify(ctx, notifier.Success("auth.logged_in", "Successfully logged in"))
	return &LoginResult{User: user}, nil
}

// Signup registers a new account. When the provider hands back a session
// straight away the user is signed in as well.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.UserProfile, error) {
	if err := s.validate.Struct(in); err != nil {
		err = fmt.Errorf("%w: %s", ErrInvalidSignup, describeValidation(err))
		s.notifier.Notify(ctx, notifier.Error("auth.signup_failed", "Signup failed: "+err.Error()))
		return nil, err
	}
	if !s.begin() {
		return nil, ErrLoginInProcess
	}
	defer s.end()

	res, err := s.provider.SignUp(ctx, in.Email, in.Password, in.Name)
	if err != nil {
		logger.Warn(ctx, "signup failed", zap.Error(err))
		s.notifier.Notify(ctx, notifier.Error("auth.signup_failed", "Signup failed: "+err.Error()))
		return nil, err
	}

	var user *models.UserProfile
	if res.Session != nil {
		s.ensureProfile(ctx, res.Session.User, in.Name)
		user = s.resolveProfile(ctx, res.Session.User)
		s.setSession(user, res.Session)
	}
	s.notifier.Notify(ctx, notifier.Success("auth.signed_up", "Successfully signed up! Please check your email for verification."))
	return user, nil
}

// Logout clears local state and notifies before telling the provider, so
// the client is signed out even when the provider call fails.
func (s *AuthService) Logout(ctx context.Context) {
	s.mu.Lock()
	session := s.session
	s.user = nil
	s.session = nil
	s.mu.Unlock()

	s.notifier.Notify(ctx, notifier.Info("auth.logged_out", "You have been logged out"))

	if session == nil || session.AccessToken == "" {
		return
	}
	if err := s.provider.SignOut(ctx, session.AccessToken); err != nil {
		logger.Warn(ctx, "provider sign out failed", zap.Error(err))
	}
}

// Restore rebuilds the signed-in state from a previously issued access
// token.
func (s *AuthService) Restore(ctx context.Context, accessToken string) (*models.UserProfile, error) {
	if accessToken == "" {
		return nil, ErrNotLoggedIn
	}
	session, err := s.provider.GetSession(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	user := s.resolveProfile(ctx, session.User)
	s.setSession(user, session)
	return user, nil
}

func (s *AuthService) CurrentUser() *models.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *AuthService) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

func (s *AuthService) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *AuthService) Session() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return nil
	}
	sess := *s.session
	return &sess
}

func (s *AuthService) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return false
	}
	s.loading = true
	return true
}

func (s *AuthService) end() {
	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *AuthService) setSession(user *models.UserProfile, session *models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.session = session
}

// resolveProfile loads the stored profile for an identity. Missing or
// unreadable profiles fall back to the email's local part as the name.
func (s *AuthService) resolveProfile(ctx context.Context, id models.IdentityUser) *models.UserProfile {
	user := &models.UserProfile{ID: id.ID, Email: id.Email, Name: fallbackName(id.Email)}
	if s.profiles == nil {
		return user
	}
	profile, err := s.profiles.FindByID(ctx, id.ID)
	if err != nil {
		if !errors.Is(err, repository.ErrProfileNotFound) {
			logger.Error(ctx, "failed to fetch user profile", err, zap.String("user_id", id.ID))
		}
		return user
	}
	if profile.Name != "" {
		user.Name = profile.Name
	}
	user.Avatar = profile.AvatarURL
	return user
}

// ensureProfile creates the profile row for a freshly signed-up identity
// when the provider did not.
func (s *AuthService) ensureProfile(ctx context.Context, id models.IdentityUser, name string) {
	if s.profiles == nil {
		return
	}
	if _, err := s.profiles.FindByID(ctx, id.ID); err == nil || !errors.Is(err, repository.ErrProfileNotFound) {
		return
	}
	profile := &models.Profile{ID: id.ID, Email: id.Email, Name: name, Provider: string(models.ProviderEmail)}
	if err := s.profiles.Create(ctx, profile); err != nil {
		logger.Warn(ctx, "failed to create profile", zap.String("user_id", id.ID), zap.Error(err))
	}
}

func fallbackName(email string) string {
	if local, _, _ := strings.Cut(email, "@"); local != "" {
		return local
	}
	return "User"
}

func providerName(creds models.Credentials) string {
	if creds == nil {
		return ""
	}
	return string(creds.Provider())
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "email":
			msgs = append(msgs, "email must be a valid email address")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", strings.ToLower(fe.Field()), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field())))
		}
	}
	return strings.Join(msgs, "; ")
}
