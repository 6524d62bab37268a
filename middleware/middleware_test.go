package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/yashrajoria/materials-storefront/errors"
	"github.com/yashrajoria/materials-storefront/metrics"
	"github.com/yashrajoria/materials-storefront/models"
	"github.com/yashrajoria/materials-storefront/providers"
	"github.com/yashrajoria/materials-storefront/repository"
	"github.com/yashrajoria/materials-storefront/services"
	"github.com/yashrajoria/materials-storefront/workspace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRegistry(t *testing.T) (*workspace.Registry, providers.IdentityProvider) {
	t.Helper()
	profiles := repository.NewMemoryProfileRepository()
	provider := providers.NewLocalIdentityProvider("secret", profiles)
	r := workspace.NewRegistry(workspace.Dependencies{
		Provider: provider,
		Profiles: profiles,
		Search:   services.NewSearchService(services.NewCatalogService("BuildPrice"), nil, 83),
	}, time.Hour)
	t.Cleanup(r.Close)
	return r, provider
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(rate.Every(time.Hour), 2, time.Minute)
	defer limiter.Close()

	r := gin.New()
	r.Use(RateLimitMiddleware(limiter))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterCleanup(t *testing.T) {
	limiter := NewRateLimiter(rate.Limit(1), 1, time.Minute)
	defer limiter.Close()

	limiter.GetLimiter("10.0.0.1")
	limiter.cleanup(time.Now().Add(2 * time.Minute))

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Empty(t, limiter.ips)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok?q=1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "q=1", entries[0].ContextMap()["query"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.EqualValues(t, http.StatusBadRequest, entries[1].ContextMap()["status"])
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	m := metrics.New()

	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/materials/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/materials/1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/materials/2", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `storefront_http_requests_total{method="GET",route="/materials/:id",status="200"} 2`)
}

func TestWorkspaceResolution(t *testing.T) {
	registry, _ := newRegistry(t)

	var seen *workspace.Workspace
	r := gin.New()
	r.Use(Workspace(registry))
	r.GET("/", func(c *gin.Context) {
		seen = CurrentWorkspace(c)
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	id := rec.Header().Get(WorkspaceHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	require.NotNil(t, seen)
	first := seen

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(WorkspaceHeader, id)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(WorkspaceHeader))
	assert.Same(t, first, seen)
	assert.Equal(t, 1, registry.Len())
}

func TestWorkspaceRestoresBearerSession(t *testing.T) {
	registry, provider := newRegistry(t)
	ctx := context.Background()

	res, err := provider.SignUp(ctx, "ada@example.com", "secret1", "Ada")
	require.NoError(t, err)
	require.NotNil(t, res.Session)

	var ws *workspace.Workspace
	r := gin.New()
	r.Use(Workspace(registry))
	r.GET("/", func(c *gin.Context) { ws = CurrentWorkspace(c) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+res.Session.AccessToken)
	r.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, ws)
	assert.True(t, ws.Auth.IsAuthenticated())
	assert.Equal(t, "ada@example.com", ws.Auth.CurrentUser().Email)
}

func TestRequireLogin(t *testing.T) {
	registry, _ := newRegistry(t)

	r := gin.New()
	r.Use(apperrors.ErrorMiddleware(), Workspace(registry))
	r.POST("/cart/items", RequireLogin(), func(c *gin.Context) { c.Status(http.StatusCreated) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/cart/items", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"code":401,"error":"Please login to add items to cart"}`, rec.Body.String())

	ws, ok := registry.Get(rec.Header().Get(WorkspaceHeader))
	require.True(t, ok)
	pending := ws.Feed.Drain()
	require.Len(t, pending, 1)
	assert.Equal(t, models.LevelError, pending[0].Level)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", bearerToken("Bearer abc"))
	assert.Equal(t, "abc", bearerToken("bearer abc"))
	assert.Empty(t, bearerToken("Basic abc"))
	assert.Empty(t, bearerToken("Bearer "))
}
