package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yashrajoria/materials-storefront/models"
)

// GoTrueIdentityProvider talks to a hosted GoTrue-compatible auth service.
type GoTrueIdentityProvider struct {
	baseURL     string
	anonKey     string
	redirectURL string
	httpClient  *http.Client
}

func NewGoTrueIdentityProvider(baseURL, anonKey, redirectURL string) *GoTrueIdentityProvider {
	return &GoTrueIdentityProvider{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		anonKey:     anonKey,
		redirectURL: redirectURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// APIError is a non-2xx response from the auth service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// ---- GoTrue request/response structs ----

type gotrueUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
}

type gotrueSession struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int64      `json:"expires_in"`
	ExpiresAt    int64      `json:"expires_at"`
	User         gotrueUser `json:"user"`
}

// Sign-up answers with a session when auto-confirm is on and with the bare
// user otherwise.
type gotrueSignupResponse struct {
	gotrueSession
	ID    string `json:"id"`
	Email string `json:"email"`
}

type gotrueErrorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

// ---- IdentityProvider implementation ----

func (g *GoTrueIdentityProvider) SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error) {
	body := map[string]string{"email": email, "password": password}

	var resp gotrueSession
	if err := g.doRequest(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", "", body, &resp); err != nil {
		return nil, err
	}
	return resp.toSession(), nil
}

// SignInWithOAuth returns the provider's authorize URL. The session is
// established after the browser completes the redirect.
func (g *GoTrueIdentityProvider) SignInWithOAuth(_ context.Context, provider models.AuthProvider) (*AuthResult, error) {
	if !provider.IsOAuth() {
		return nil, ErrUnsupportedOAuth
	}
	q := url.Values{}
	q.Set("provider", string(provider))
	if g.redirectURL != "" {
		q.Set("redirect_to", g.redirectURL)
	}
	return &AuthResult{RedirectURL: g.baseURL + "/auth/v1/authorize?" + q.Encode()}, nil
}

func (g *GoTrueIdentityProvider) SignUp(ctx context.Context, email, password, name string) (*AuthResult, error) {
	body := map[string]interface{}{
		"email":    email,
		"password": password,
		"data":     map[string]string{"name": name},
	}

	var resp gotrueSignupResponse
	if err := g.doRequest(ctx, http.MethodPost, "/auth/v1/signup", "", body, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return &AuthResult{}, nil
	}
	return &AuthResult{Session: resp.toSession()}, nil
}

func (g *GoTrueIdentityProvider) SignOut(ctx context.Context, accessToken string) error {
	return g.doRequest(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil)
}

func (g *GoTrueIdentityProvider) GetSession(ctx context.Context, accessToken string) (*models.Session, error) {
	var user gotrueUser
	if err := g.doRequest(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, &user); err != nil {
		if apiErr, ok := err.(*APIError); ok && apiErr.Status == http.StatusUnauthorized {
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	return &models.Session{AccessToken: accessToken, User: user.toIdentity()}, nil
}

func (g *GoTrueIdentityProvider) doRequest(ctx context.Context, method, path, bearer string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if bearer == "" {
		bearer = g.anonKey
	}
	req.Header.Set("apikey", g.anonKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, respBytes)
	}

	if out != nil && len(respBytes) > 0 {
		if err := json.Unmarshal(respBytes, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func newAPIError(status int, body []byte) *APIError {
	var eb gotrueErrorBody
	_ = json.Unmarshal(body, &eb)
	msg := eb.ErrorDescription
	for _, candidate := range []string{eb.Msg, eb.Message, eb.Error} {
		if msg == "" {
			msg = candidate
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("auth service error (status %d)", status)
	}
	return &APIError{Status: status, Message: msg}
}

// ---- Conversion helpers ----

func (s gotrueSession) toSession() *models.Session {
	expiresAt := time.Unix(s.ExpiresAt, 0)
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		expiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return &models.Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresAt:    expiresAt,
		User:         s.User.toIdentity(),
	}
}

func (u gotrueUser) toIdentity() models.IdentityUser {
	name := u.UserMetadata.Name
	if name == "" {
		name = u.UserMetadata.FullName
	}
	return models.IdentityUser{ID: u.ID, Email: u.Email, Name: name}
}
