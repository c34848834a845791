package controllers

import (
	"github.com/gin-gonic/gin"

	"accessible-env-backend/internal/domain/repositories"
	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/domain/services/container"
	"accessible-env-backend/internal/error/response"
)

// InterfaceStatisticsController covers reports for admins
type InterfaceStatisticsController interface {
	Overview()
	AuditLogs()
}

// StatisticsController serves platform statistics and the audit trail
type StatisticsController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewStatisticsController creates a StatisticsController
func NewStatisticsController(ctx *gin.Context, container *container.ServiceContainer) *StatisticsController {
	return &StatisticsController{Ctx: ctx, Container: container}
}

// HandleStatisticsFunc returns a gin handler dispatching to a StatisticsController method
func HandleStatisticsFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewStatisticsController(ctx, container)

		switch method {
		case "overview":
			controller.Overview()
		case "auditLogs":
			controller.AuditLogs()
		default:
			invalidMethod(ctx)
		}
	}
}

// 1. Overview returns aggregate counts and scores
// @Summary      Statistics overview
// @Tags         Statistics
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  SuccessResponse{data=services.Overview}
// @Failure      403  {object}  ErrorResponse
// @Router       /statistics/overview [get]
func (c *StatisticsController) Overview() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	stats := c.Container.GetService("statistics").(services.InterfaceStatisticsService)
	overview, err := stats.Overview(c.Ctx.Request.Context(), actor)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, overview)
}

// 2. AuditLogs lists recorded administrative actions
// @Summary      Audit log
// @Tags         Statistics
// @Produce      json
// @Security     BearerAuth
// @Param        actor_id    query int    false "actor"
// @Param        action      query string false "action"
// @Param        entity_type query string false "entity type"
// @Param        entity_id   query int    false "entity ID"
// @Param        page        query int    false "page number"
// @Param        page_size   query int    false "page size"
// @Success      200  {object}  SuccessResponse{data=response.Page}
// @Failure      403  {object}  ErrorResponse
// @Router       /audit-logs [get]
func (c *StatisticsController) AuditLogs() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	var filter repositories.AuditFilter
	if err := c.Ctx.ShouldBindQuery(&filter); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	page, ok := bindPage(c.Ctx)
	if !ok {
		return
	}
	audit := c.Container.GetService("audit").(services.InterfaceAuditService)
	items, total, err := audit.List(c.Ctx.Request.Context(), actor, filter, page)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, response.NewPage(items, total, page.Page, page.PageSize))
}
