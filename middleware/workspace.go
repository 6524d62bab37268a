package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/yashrajoria/materials-storefront/errors"
	"github.com/yashrajoria/materials-storefront/logger"
	"github.com/yashrajoria/materials-storefront/notifier"
	"github.com/yashrajoria/materials-storefront/workspace"
	"go.uber.org/zap"
)

const (
	WorkspaceHeader = "X-Session-ID"
	WorkspaceIDKey  = "workspace_id"
	workspaceKey    = "workspace"
)

// Workspace resolves the client's workspace from the X-Session-ID header,
// creating one when the header is missing or unknown, and echoes its id.
// A bearer token on a signed-out workspace restores the sign-in.
func Workspace(registry *workspace.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, created := registry.GetOrCreate(c.GetHeader(WorkspaceHeader))
		if created {
			logger.Debug(c, "created workspace", zap.String("workspace_id", ws.ID))
		}
		c.Set(workspaceKey, ws)
		c.Set(WorkspaceIDKey, ws.ID)
		c.Header(WorkspaceHeader, ws.ID)

		if token := bearerToken(c.GetHeader("Authorization")); token != "" && !ws.Auth.IsAuthenticated() {
			if _, err := ws.Auth.Restore(c.Request.Context(), token); err != nil {
				logger.Debug(c, "could not restore session from bearer token", zap.Error(err))
			}
		}
		c.Next()
	}
}

// CurrentWorkspace returns the workspace set by the Workspace middleware.
func CurrentWorkspace(c *gin.Context) *workspace.Workspace {
	v, ok := c.Get(workspaceKey)
	if !ok {
		return nil
	}
	ws, _ := v.(*workspace.Workspace)
	return ws
}

// RequireLogin aborts with 401 unless the workspace is signed in.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws := CurrentWorkspace(c)
		if ws == nil || !ws.Auth.IsAuthenticated() {
			if ws != nil {
				ws.Notifier.Notify(c.Request.Context(), notifier.Error("cart.login_required", apperrors.ErrLoginRequired.Message))
			}
			_ = c.Error(apperrors.ErrLoginRequired)
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
