package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"accessible-env-backend/internal/domain/services/container"
	"accessible-env-backend/internal/error/response"
	"accessible-env-backend/pkg/logger"
)

// socketServer upgrades a request into a push connection for a user
type socketServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, userID uint) error
}

// HandleRealtimeFunc serves the notification WebSocket. It must run after
// Authentication, which accepts the token as a query parameter.
// @Summary      Notification stream
// @Description  WebSocket pushing notification.created events to the caller
// @Tags         Notifications
// @Param        token query string true "bearer token"
// @Success      101
// @Failure      401  {object}  ErrorResponse
// @Router       /ws [get]
func HandleRealtimeFunc(container *container.ServiceContainer) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		actor, ok := currentActor(ctx)
		if !ok {
			return
		}
		server, ok := container.GetService("pusher").(socketServer)
		if !ok {
			response.NotFound(ctx, "realtime push is disabled")
			return
		}
		if err := server.ServeWS(ctx.Writer, ctx.Request, actor.ID); err != nil {
			// the upgrader has already written the HTTP error
			logger.Warning("websocket upgrade for user %d failed: %v", actor.ID, err)
		}
	}
}
