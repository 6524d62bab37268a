package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/materials-storefront/logger"
	"github.com/yashrajoria/materials-storefront/middleware"
	"github.com/yashrajoria/materials-storefront/models"
	"github.com/yashrajoria/materials-storefront/services"
	"go.uber.org/zap"
)

type SearchController struct {
	validator *RequestValidator
}

func NewSearchController(rv *RequestValidator) *SearchController {
	return &SearchController{validator: rv}
}

// SaveAPIKey validates the scrape token and stores it for the workspace.
func (sc *SearchController) SaveAPIKey(c *gin.Context) {
	var req APIKeyRequest
	if err := sc.validator.BindJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	ws := middleware.CurrentWorkspace(c)
	if err := ws.Search.SaveAPIKey(c.Request.Context(), req.APIKey); err != nil {
		logger.Warn(c, "scrape API key rejected", zap.Error(err))
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "API key saved successfully"})
}

func (sc *SearchController) ClearAPIKey(c *gin.Context) {
	if err := middleware.CurrentWorkspace(c).Search.ClearAPIKey(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SearchStateResponse describes the workspace's newest search.
type SearchStateResponse struct {
	State       services.SearchState `json:"state"`
	Query       string               `json:"query"`
	OnlineCount int                  `json:"online_count"`
	Source      models.SearchSource  `json:"source,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// GetState reports whether the newest search is still fetching and how the
// last completed one ended.
func (sc *SearchController) GetState(c *gin.Context) {
	ws := middleware.CurrentWorkspace(c)
	last, err := ws.Search.LastResult()
	resp := SearchStateResponse{
		State:       ws.Search.State(),
		Query:       last.Query,
		OnlineCount: last.OnlineCount,
		Source:      last.Source,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}
