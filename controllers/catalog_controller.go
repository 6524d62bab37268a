package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/yashrajoria/materials-storefront/errors"
	"github.com/yashrajoria/materials-storefront/logger"
	"github.com/yashrajoria/materials-storefront/middleware"
	"github.com/yashrajoria/materials-storefront/services"
	"go.uber.org/zap"
)

type CatalogController struct {
	catalog   *services.CatalogService
	validator *RequestValidator
}

func NewCatalogController(catalog *services.CatalogService, rv *RequestValidator) *CatalogController {
	return &CatalogController{catalog: catalog, validator: rv}
}

// GetCompany returns the store's display information.
func (cc *CatalogController) GetCompany(c *gin.Context) {
	c.JSON(http.StatusOK, cc.catalog.Company())
}

// GetCategories returns the category filter options, "all" first.
func (cc *CatalogController) GetCategories(c *gin.Context) {
	categories := append([]string{services.AllCategories}, cc.catalog.Categories()...)
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// ListMaterials filters the catalog, optionally merges online listings,
// and sorts the result.
func (cc *CatalogController) ListMaterials(c *gin.Context) {
	params, err := cc.validator.ParseSearchParams(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	ws := middleware.CurrentWorkspace(c)
	result, err := ws.Search.Run(c.Request.Context(), params)
	if err != nil {
		logger.Warn(c, "listing search failed", zap.String("query", params.Query), zap.Error(err))
		fail(c, err)
		return
	}

	logger.Info(c, "materials listed",
		zap.String("category", params.Category),
		zap.String("query", params.Query),
		zap.Bool("online", params.Online),
		zap.Int("count", len(result.Materials)),
		zap.Int("online_count", result.OnlineCount),
	)
	c.JSON(http.StatusOK, result)
}

// GetMaterial returns a catalog material, or an online listing from the
// workspace's last search.
func (cc *CatalogController) GetMaterial(c *gin.Context) {
	id := c.Param("id")
	if m, ok := cc.catalog.ByID(id); ok {
		c.JSON(http.StatusOK, m)
		return
	}
	if m, ok := middleware.CurrentWorkspace(c).Search.Lookup(id); ok {
		c.JSON(http.StatusOK, m)
		return
	}
	_ = c.Error(apperrors.ErrMaterialNotFound)
}

// GetComparison returns the price comparison table for the last search.
func (cc *CatalogController) GetComparison(c *gin.Context) {
	rows := middleware.CurrentWorkspace(c).Search.ComparisonRows()
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}
