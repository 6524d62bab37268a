package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yashrajoria/materials-storefront/controllers"
	"github.com/yashrajoria/materials-storefront/metrics"
	"github.com/yashrajoria/materials-storefront/models"
	"github.com/yashrajoria/materials-storefront/providers"
	"github.com/yashrajoria/materials-storefront/repository"
	"github.com/yashrajoria/materials-storefront/services"
	"github.com/yashrajoria/materials-storefront/workspace"
	"go.uber.org/zap"
)

type testServer struct {
	router   *gin.Engine
	registry *workspace.Registry
	session  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	profiles := repository.NewMemoryProfileRepository()
	catalog := services.NewCatalogService("BuildPrice")
	online := services.NewOnlineSearchService(nil, nil, nil, nil, nil, services.OnlineSearchOptions{})
	m := metrics.New()
	registry := workspace.NewRegistry(workspace.Dependencies{
		Provider: providers.NewLocalIdentityProvider("secret", profiles),
		Profiles: profiles,
		Search:   services.NewSearchService(catalog, online, 83),
		Metrics:  m,
	}, time.Hour)
	t.Cleanup(registry.Close)

	router := NewRouter(Dependencies{
		Catalog:        catalog,
		Registry:       registry,
		Metrics:        m,
		Log:            zap.NewNop(),
		AllowedOrigins: []string{"http://localhost:3000"},
	})
	return &testServer{router: router, registry: registry}
}

// do sends a request in the server's workspace, adopting the workspace id
// the first response hands out.
func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if s.session != "" {
		req.Header.Set("X-Session-ID", s.session)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	if id := rec.Header().Get("X-Session-ID"); id != "" {
		s.session = id
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `storefront_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/materials", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t)

	company := decode[models.CompanyInfo](t, s.do(http.MethodGet, "/company", nil))
	assert.Equal(t, "BuildPrice", company.Name)

	categories := decode[map[string][]string](t, s.do(http.MethodGet, "/categories", nil))
	require.NotEmpty(t, categories["categories"])
	assert.Equal(t, "all", categories["categories"][0])

	rec := s.do(http.MethodGet, "/materials/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Portland Cement", decode[models.Material](t, rec).Name)

	rec = s.do(http.MethodGet, "/materials/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"code":404,"error":"Material not found"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/materials?category=Flooring&sort=price-asc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[models.SearchResult](t, rec)
	require.Len(t, result.Materials, 2)
	assert.Equal(t, "Ceramic Floor Tile", result.Materials[0].Name)

	rec = s.do(http.MethodGet, "/materials?sort=cheapest", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"code":400,"error":"Validation error","details":"invalid sort value"}`, rec.Body.String())
}

func TestOnlineSearchAndComparison(t *testing.T) {
	s := newTestServer(t)

	state := decode[controllers.SearchStateResponse](t, s.do(http.MethodGet, "/search/state", nil))
	assert.Equal(t, services.SearchIdle, state.State)

	rec := s.do(http.MethodGet, "/materials?search=cement&online=true&sort=price-asc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[models.SearchResult](t, rec)
	assert.Equal(t, models.SourceMock, result.Source)
	assert.Equal(t, 3, result.OnlineCount)
	require.Len(t, result.Materials, 4)
	assert.Equal(t, "1", result.Materials[0].ID)
	assert.Equal(t, "online-online-1", result.Materials[1].ID)

	state = decode[controllers.SearchStateResponse](t, s.do(http.MethodGet, "/search/state", nil))
	assert.Equal(t, controllers.SearchStateResponse{
		State:       services.SearchSucceeded,
		Query:       "cement",
		OnlineCount: 3,
		Source:      models.SourceMock,
	}, state)

	rec = s.do(http.MethodGet, "/materials/online-online-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.Material](t, rec).Online)

	rows := decode[map[string][]models.ComparisonRow](t, s.do(http.MethodGet, "/materials/comparison", nil))
	require.Len(t, rows["rows"], 4)
	assert.Equal(t, "Local", rows["rows"][0].Source)
	assert.Equal(t, "Online", rows["rows"][1].Source)

	feed := decode[map[string][]models.Notification](t, s.do(http.MethodGet, "/notifications", nil))
	var messages []string
	for _, n := range feed["notifications"] {
		messages = append(messages, n.Message)
	}
	assert.Equal(t, []string{"Searching online for products...", "Found 3 products online"}, messages)
}

func TestCartRequiresLogin(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/cart/items", map[string]any{"material_id": "1", "quantity": 2})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"code":401,"error":"Please login to add items to cart"}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSignupAndCartFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/auth/signup", map[string]string{"email": "ada@example.com", "password": "secret1", "name": "Ada"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, decode[map[string]any](t, rec)["access_token"])

	rec = s.do(http.MethodPost, "/cart/items", map[string]any{"material_id": "1", "quantity": 2})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(http.MethodPost, "/cart/items", map[string]any{"material_id": "1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	cart := decode[models.Cart](t, s.do(http.MethodGet, "/cart", nil))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.TotalItems)
	assert.InDelta(t, 38.97, cart.TotalPrice, 1e-9)

	rec = s.do(http.MethodPost, "/cart/items", map[string]any{"material_id": "1", "quantity": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/cart/items", map[string]any{"material_id": "1", "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 3, decode[models.Cart](t, s.do(http.MethodGet, "/cart", nil)).TotalItems)

	rec = s.do(http.MethodPost, "/cart/items", map[string]any{"material_id": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	cart = decode[models.Cart](t, s.do(http.MethodPut, "/cart/items/1", map[string]int{"quantity": 5}))
	assert.Equal(t, 5, cart.TotalItems)

	estimate := decode[models.Estimate](t, s.do(http.MethodGet, "/cart/estimate", nil))
	require.Len(t, estimate.Suppliers, 1)
	assert.Equal(t, "BuildWell Supplies", estimate.Suppliers[0].Name)

	cart = decode[models.Cart](t, s.do(http.MethodPut, "/cart/items/1", map[string]int{"quantity": 0}))
	assert.Empty(t, cart.Items)

	s.do(http.MethodPost, "/cart/items", map[string]any{"material_id": "2"})
	cart = decode[models.Cart](t, s.do(http.MethodDelete, "/cart", nil))
	assert.Zero(t, cart.TotalItems)

	feed := decode[map[string][]models.Notification](t, s.do(http.MethodGet, "/notifications", nil))
	var messages []string
	for _, n := range feed["notifications"] {
		messages = append(messages, n.Message)
	}
	assert.Contains(t, messages, "Added Portland Cement to cart")
	assert.Contains(t, messages, "Updated Portland Cement quantity in cart")
	assert.Contains(t, messages, "Estimate prepared for printing")
	assert.Contains(t, messages, "Cart cleared")
}

func TestLoginLogout(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodPost, "/auth/signup", map[string]string{"email": "bob@example.com", "password": "secret1", "name": "Bob"})
	s.do(http.MethodPost, "/auth/logout", nil)

	rec := s.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/auth/login", map[string]string{"email": "bob@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid login credentials")

	rec = s.do(http.MethodPost, "/auth/login", map[string]string{"email": "bob@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)

	me := decode[struct {
		User models.UserProfile `json:"user"`
	}](t, s.do(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, "Bob", me.User.Name)

	rec = s.do(http.MethodPost, "/auth/login", map[string]string{"provider": "myspace"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignupValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/auth/signup", map[string]string{"email": "not-an-email", "password": "123", "name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "invalid signup details"), rec.Body.String())

	body := map[string]string{"email": "dup@example.com", "password": "secret1", "name": "Dup"}
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/auth/signup", body).Code)
	rec = s.do(http.MethodPost, "/auth/signup", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User already registered", decode[map[string]any](t, rec)["error"])
}

func TestAPIKeyWithoutScraper(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/search/api-key", map[string]string{"api_key": "fc-123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/search/api-key", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
