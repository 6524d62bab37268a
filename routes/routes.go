package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/materials-storefront/controllers"
	apperrors "github.com/yashrajoria/materials-storefront/errors"
	"github.com/yashrajoria/materials-storefront/logger"
	"github.com/yashrajoria/materials-storefront/metrics"
	"github.com/yashrajoria/materials-storefront/middleware"
	"github.com/yashrajoria/materials-storefront/services"
	"github.com/yashrajoria/materials-storefront/workspace"
	"go.uber.org/zap"
)

// Dependencies are what the router needs to serve the storefront API.
type Dependencies struct {
	Catalog        *services.CatalogService
	Registry       *workspace.Registry
	Metrics        *metrics.Metrics
	Limiter        *middleware.RateLimiter
	Log            *zap.Logger
	AllowedOrigins []string
}

// NewRouter builds the gin engine with global middleware and every route.
func NewRouter(d Dependencies) *gin.Engine {
	if d.Log == nil {
		d.Log = logger.Log
	}

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(logger.RequestID())
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.New(corsConfig(d.AllowedOrigins)))
	r.Use(apperrors.ErrorMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	rv := controllers.NewRequestValidator()
	catalog := controllers.NewCatalogController(d.Catalog, rv)
	cart := controllers.NewCartController(d.Catalog, rv)
	auth := controllers.NewAuthController(rv)
	search := controllers.NewSearchController(rv)

	// ===== PUBLIC ROUTES =====
	r.GET("/company", catalog.GetCompany)
	r.GET("/categories", catalog.GetCategories)

	// ===== WORKSPACE ROUTES =====
	api := r.Group("/")
	if d.Limiter != nil {
		api.Use(middleware.RateLimitMiddleware(d.Limiter))
	}
	api.Use(middleware.Workspace(d.Registry))
	{
		api.GET("/materials", catalog.ListMaterials)
		api.GET("/materials/comparison", catalog.GetComparison)
		api.GET("/materials/:id", catalog.GetMaterial)

		api.GET("/search/state", search.GetState)
		api.POST("/search/api-key", search.SaveAPIKey)
		api.DELETE("/search/api-key", search.ClearAPIKey)

		api.POST("/auth/login", auth.Login)
		api.POST("/auth/signup", auth.Signup)
		api.POST("/auth/logout", auth.Logout)
		api.GET("/auth/me", auth.Me)

		api.GET("/cart", cart.GetCart)
		api.GET("/cart/estimate", cart.GetEstimate)
		api.POST("/cart/items", middleware.RequireLogin(), cart.AddItem)
		api.PUT("/cart/items/:id", cart.UpdateItem)
		api.DELETE("/cart/items/:id", cart.RemoveItem)
		api.DELETE("/cart", cart.ClearCart)

		api.GET("/notifications", controllers.GetNotifications)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.WorkspaceHeader, "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", middleware.WorkspaceHeader, "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cfg
}
