package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/materials-storefront/middleware"
)

// GetNotifications drains the workspace's pending notifications.
func GetNotifications(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notifications": middleware.CurrentWorkspace(c).Feed.Drain()})
}
