package controllers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yashrajoria/materials-storefront/models"
	"github.com/yashrajoria/materials-storefront/services"
)

// AddItemRequest adds a catalog or online material to the cart. A missing
// quantity means one.
type AddItemRequest struct {
	MaterialID string `json:"material_id" validate:"required"`
	Quantity   *int   `json:"quantity"`
}

type UpdateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type LoginRequest struct {
	Provider string `json:"provider"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password"`
}

type APIKeyRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

// RequestValidator handles all input validation
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		validate: validator.New(),
	}
}

// BindJSON decodes the body into req and validates it.
func (rv *RequestValidator) BindJSON(c *gin.Context, req any) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := rv.validate.Struct(req); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// ParseSearchParams reads the listing filters from the query string.
func (rv *RequestValidator) ParseSearchParams(c *gin.Context) (services.SearchParams, error) {
	p := services.SearchParams{
		Category: strings.TrimSpace(c.DefaultQuery("category", services.AllCategories)),
		Query:    c.Query("search"),
		Sort:     models.SortNameAsc,
	}

	if sortParam := strings.ToLower(strings.TrimSpace(c.Query("sort"))); sortParam != "" {
		if !isSupportedSort(sortParam) {
			return services.SearchParams{}, errors.New("invalid sort value")
		}
		p.Sort = models.SortOption(sortParam)
	}

	if onlineStr := strings.TrimSpace(c.Query("online")); onlineStr != "" {
		online, err := strconv.ParseBool(onlineStr)
		if err != nil {
			return services.SearchParams{}, errors.New("invalid boolean value for 'online'")
		}
		p.Online = online
	}
	return p, nil
}

// Credentials turns a login request into the credentials variant for its
// provider.
func (rv *RequestValidator) Credentials(req LoginRequest) (models.Credentials, error) {
	provider := models.AuthProvider(strings.ToLower(strings.TrimSpace(req.Provider)))
	creds, err := models.NewCredentials(provider, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		return nil, err
	}
	if ec, ok := creds.(models.EmailCredentials); ok && (ec.Email == "" || ec.Password == "") {
		return nil, errors.New("email and password are required")
	}
	return creds, nil
}

func isSupportedSort(sortParam string) bool {
	switch models.SortOption(sortParam) {
	case models.SortNameAsc, models.SortNameDesc, models.SortPriceAsc, models.SortPriceDesc,
		models.SortPriceUSDAsc, models.SortPriceUSDDesc:
		return true
	default:
		return false
	}
}
