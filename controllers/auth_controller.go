package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/yashrajoria/materials-storefront/errors"
	"github.com/yashrajoria/materials-storefront/middleware"
	"github.com/yashrajoria/materials-storefront/models"
	"github.com/yashrajoria/materials-storefront/services"
)

type AuthController struct {
	validator *RequestValidator
}

func NewAuthController(rv *RequestValidator) *AuthController {
	return &AuthController{validator: rv}
}

// AuthResponse is returned by login and signup.
type AuthResponse struct {
	Message      string              `json:"message"`
	User         *models.UserProfile `json:"user,omitempty"`
	AccessToken  string              `json:"access_token,omitempty"`
	RefreshToken string              `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time          `json:"expires_at,omitempty"`
	RedirectURL  string              `json:"redirect_url,omitempty"`
}

// Login handles email and OAuth sign-in
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := ac.validator.BindJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	creds, err := ac.validator.Credentials(req)
	if err != nil {
		badRequest(c, err)
		return
	}

	ws := middleware.CurrentWorkspace(c)
	res, err := ws.Auth.Login(c.Request.Context(), creds)
	if err != nil {
		fail(c, err)
		return
	}
	if res.RedirectURL != "" {
		c.JSON(http.StatusOK, AuthResponse{Message: "Continue sign-in with " + string(creds.Provider()), RedirectURL: res.RedirectURL})
		return
	}
	c.JSON(http.StatusOK, withSession(AuthResponse{Message: "Successfully logged in", User: res.User}, ws.Auth.Session()))
}

// Signup registers a new account
func (ac *AuthController) Signup(c *gin.Context) {
	var in services.SignupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	ws := middleware.CurrentWorkspace(c)
	user, err := ws.Auth.Signup(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	resp := AuthResponse{Message: "Successfully signed up! Please check your email for verification.", User: user}
	if user != nil {
		resp = withSession(resp, ws.Auth.Session())
	}
	c.JSON(http.StatusCreated, resp)
}

func (ac *AuthController) Logout(c *gin.Context) {
	middleware.CurrentWorkspace(c).Auth.Logout(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "You have been logged out"})
}

// Me returns the signed-in user.
func (ac *AuthController) Me(c *gin.Context) {
	ws := middleware.CurrentWorkspace(c)
	user := ws.Auth.CurrentUser()
	if user == nil {
		_ = c.Error(apperrors.Wrap(apperrors.ErrUnauthorized, services.ErrNotLoggedIn))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "loading": ws.Auth.IsLoading()})
}

func withSession(resp AuthResponse, session *models.Session) AuthResponse {
	if session == nil {
		return resp
	}
	resp.AccessToken = session.AccessToken
	resp.RefreshToken = session.RefreshToken
	if !session.ExpiresAt.IsZero() {
		exp := session.ExpiresAt
		resp.ExpiresAt = &exp
	}
	return resp
}
