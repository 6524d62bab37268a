package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/yashrajoria/materials-storefront/errors"
	"github.com/yashrajoria/materials-storefront/logger"
	"github.com/yashrajoria/materials-storefront/middleware"
	"github.com/yashrajoria/materials-storefront/models"
	"github.com/yashrajoria/materials-storefront/notifier"
	"github.com/yashrajoria/materials-storefront/services"
	"go.uber.org/zap"
)

type CartController struct {
	catalog   *services.CatalogService
	validator *RequestValidator
}

func NewCartController(catalog *services.CatalogService, rv *RequestValidator) *CartController {
	return &CartController{catalog: catalog, validator: rv}
}

// GetCart returns the lines and totals of the workspace cart
func (cc *CartController) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentWorkspace(c).Cart.Snapshot())
}

// GetEstimate returns the printable estimate for the cart.
func (cc *CartController) GetEstimate(c *gin.Context) {
	ws := middleware.CurrentWorkspace(c)
	estimate := ws.Cart.Estimate()
	ws.Notifier.Notify(c.Request.Context(), notifier.Info("cart.estimate", "Estimate prepared for printing"))
	c.JSON(http.StatusOK, estimate)
}

// AddItem adds a material to the cart, merging with an existing line
func (cc *CartController) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := cc.validator.BindJSON(c, &req); err != nil {
		logger.Warn(c, "invalid add-to-cart payload", zap.Error(err))
		badRequest(c, err)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	ws := middleware.CurrentWorkspace(c)
	material, ok := cc.resolve(ws.Search, req.MaterialID)
	if !ok {
		_ = c.Error(apperrors.ErrMaterialNotFound)
		return
	}

	if err := ws.Cart.Add(c.Request.Context(), material, quantity); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, ws.Cart.Snapshot())
}

// UpdateItem sets a line's quantity; zero or less removes the line.
func (cc *CartController) UpdateItem(c *gin.Context) {
	var req UpdateItemRequest
	if err := cc.validator.BindJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	ws := middleware.CurrentWorkspace(c)
	ws.Cart.UpdateQuantity(c.Request.Context(), c.Param("id"), *req.Quantity)
	c.JSON(http.StatusOK, ws.Cart.Snapshot())
}

// RemoveItem removes a specific item from the cart
func (cc *CartController) RemoveItem(c *gin.Context) {
	ws := middleware.CurrentWorkspace(c)
	ws.Cart.Remove(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, ws.Cart.Snapshot())
}

// ClearCart removes all items from the cart
func (cc *CartController) ClearCart(c *gin.Context) {
	ws := middleware.CurrentWorkspace(c)
	ws.Cart.Clear(c.Request.Context())
	c.JSON(http.StatusOK, ws.Cart.Snapshot())
}

func (cc *CartController) resolve(search *services.SearchSession, id string) (models.Material, bool) {
	if m, ok := cc.catalog.ByID(id); ok {
		return m, true
	}
	return search.Lookup(id)
}
