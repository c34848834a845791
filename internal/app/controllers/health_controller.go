package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/domain/services/container"
	"accessible-env-backend/internal/error/code"
	"accessible-env-backend/internal/error/response"
	"accessible-env-backend/internal/infrastructure/database"
)

// InterfaceHealthController covers liveness checks
type InterfaceHealthController interface {
	Ping()
	Status()
}

// HealthController reports liveness and dependency health
type HealthController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewHealthController creates a HealthController
func NewHealthController(ctx *gin.Context, container *container.ServiceContainer) *HealthController {
	return &HealthController{Ctx: ctx, Container: container}
}

// HandleHealthFunc returns a gin handler dispatching to a HealthController method
func HandleHealthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewHealthController(ctx, container)

		switch method {
		case "ping":
			controller.Ping()
		case "status":
			controller.Status()
		default:
			invalidMethod(ctx)
		}
	}
}

// 1. Ping answers when the process is up
// @Summary      Ping
// @Tags         Health
// @Produce      json
// @Success      200  {object}  SuccessResponse
// @Router       /ping [get]
func (c *HealthController) Ping() {
	response.Success(c.Ctx, gin.H{
		"status":  "healthy",
		"message": "pong",
	})
}

// 2. Status checks the database and the cache
// @Summary      Health status
// @Tags         Health
// @Produce      json
// @Success      200  {object}  SuccessResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /health/status [get]
func (c *HealthController) Status() {
	ctx := c.Ctx.Request.Context()
	db := c.Container.GetDB()
	healthy := true

	dbStatus := gin.H{"status": "up"}
	start := time.Now()
	if err := database.Ping(ctx, db); err != nil {
		healthy = false
		dbStatus["status"] = "down"
		dbStatus["error"] = err.Error()
	}
	dbStatus["latency"] = time.Since(start).String()
	if stats, err := database.Stats(db); err == nil {
		dbStatus["pool"] = stats
	}

	cacheStatus := gin.H{"status": "disabled"}
	if cache, ok := c.Container.GetService("redis").(services.InterfaceRedisService); ok && cache != nil {
		start = time.Now()
		if err := cache.Ping(ctx); err != nil {
			// the cache is optional, reads fall through to the database
			cacheStatus = gin.H{"status": "down", "error": err.Error()}
		} else {
			cacheStatus = gin.H{"status": "up", "latency": time.Since(start).String()}
		}
	}

	data := gin.H{
		"database":  dbStatus,
		"cache":     cacheStatus,
		"timestamp": time.Now().UTC(),
	}
	if !healthy {
		c.Ctx.JSON(http.StatusServiceUnavailable, response.Response{
			Code:    code.ErrDatabase,
			Message: code.GetMessage(code.ErrDatabase),
			Data:    data,
		})
		return
	}
	response.Success(c.Ctx, data)
}
