package controllers

import (
	"github.com/gin-gonic/gin"

	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/domain/services/container"
	"accessible-env-backend/internal/error/response"
)

// InterfaceNotificationController covers the caller's inbox
type InterfaceNotificationController interface {
	List()
	UnreadCount()
	MarkRead()
	MarkAllRead()
	Delete()
}

// NotificationController serves the caller's notifications
type NotificationController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewNotificationController creates a NotificationController
func NewNotificationController(ctx *gin.Context, container *container.ServiceContainer) *NotificationController {
	return &NotificationController{Ctx: ctx, Container: container}
}

// HandleNotificationFunc returns a gin handler dispatching to a NotificationController method
func HandleNotificationFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewNotificationController(ctx, container)

		switch method {
		case "list":
			controller.List()
		case "unreadCount":
			controller.UnreadCount()
		case "markRead":
			controller.MarkRead()
		case "markAllRead":
			controller.MarkAllRead()
		case "delete":
			controller.Delete()
		default:
			invalidMethod(ctx)
		}
	}
}

func (c *NotificationController) service() services.InterfaceNotificationService {
	return c.Container.GetService("notification").(services.InterfaceNotificationService)
}

// 1. List returns the caller's notifications, newest first
// @Summary      List notifications
// @Tags         Notifications
// @Produce      json
// @Security     BearerAuth
// @Param        unread    query bool false "only unread"
// @Param        page      query int  false "page number"
// @Param        page_size query int  false "page size"
// @Success      200  {object}  SuccessResponse{data=response.Page}
// @Router       /notifications [get]
func (c *NotificationController) List() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	page, ok := bindPage(c.Ctx)
	if !ok {
		return
	}
	unreadOnly := c.Ctx.Query("unread") == "true"
	items, total, err := c.service().List(c.Ctx.Request.Context(), actor, unreadOnly, page)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, response.NewPage(items, total, page.Page, page.PageSize))
}

// 2. UnreadCount counts unread notifications
// @Summary      Unread count
// @Tags         Notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  SuccessResponse
// @Router       /notifications/unread-count [get]
func (c *NotificationController) UnreadCount() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	n, err := c.service().UnreadCount(c.Ctx.Request.Context(), actor)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, gin.H{"unread": n})
}

// 3. MarkRead marks one notification read
// @Summary      Mark read
// @Tags         Notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "notification ID"
// @Success      200  {object}  SuccessResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /notifications/{id}/read [put]
func (c *NotificationController) MarkRead() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	if err := c.service().MarkRead(c.Ctx.Request.Context(), actor, id); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, nil)
}

// 4. MarkAllRead marks everything read
// @Summary      Mark all read
// @Tags         Notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  SuccessResponse
// @Router       /notifications/read-all [put]
func (c *NotificationController) MarkAllRead() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	n, err := c.service().MarkAllRead(c.Ctx.Request.Context(), actor)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, gin.H{"updated": n})
}

// 5. Delete removes a notification
// @Summary      Delete notification
// @Tags         Notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "notification ID"
// @Success      200  {object}  SuccessResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /notifications/{id} [delete]
func (c *NotificationController) Delete() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	if err := c.service().Delete(c.Ctx.Request.Context(), actor, id); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, nil)
}
