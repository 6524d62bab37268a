package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsSentinelIntact(t *testing.T) {
	cause := fmt.Errorf("boom")
	wrapped := Wrap(ErrUpstream, cause)

	assert.Nil(t, ErrUpstream.Err)
	assert.Equal(t, cause, wrapped.Err)
	assert.True(t, stderrors.Is(wrapped, ErrUpstream))
	assert.True(t, stderrors.Is(fmt.Errorf("ctx: %w", wrapped), ErrUpstream))
	assert.False(t, stderrors.Is(wrapped, ErrMaterialNotFound))
}

func TestFromPlainError(t *testing.T) {
	appErr := From(fmt.Errorf("unexpected"))
	assert.Equal(t, http.StatusInternalServerError, appErr.Code)
	assert.EqualError(t, appErr, "Internal server error: unexpected")
}

func TestErrorMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(ErrorMiddleware())
	r.GET("/missing", func(c *gin.Context) {
		_ = c.Error(ErrMaterialNotFound)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"code":404,"error":"Material not found"}`, rec.Body.String())
}

func TestErrorMiddlewareDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(ErrorMiddleware())
	r.GET("/invalid", func(c *gin.Context) {
		_ = c.Error(Wrap(ErrValidation, fmt.Errorf("invalid sort value")))
	})
	r.GET("/broken", func(c *gin.Context) {
		_ = c.Error(fmt.Errorf("dial tcp: connection refused"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/invalid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"code":400,"error":"Validation error","details":"invalid sort value"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/broken", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"code":500,"error":"Internal server error"}`, rec.Body.String())
}
