// Package controllers adapts HTTP requests to the domain services. Each
// controller is created per request and dispatched by name through a
// Handle*Func constructor.
package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"accessible-env-backend/internal/app/middleware"
	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/error/code"
	"accessible-env-backend/internal/error/response"
)

// ErrorResponse documents the error envelope
type ErrorResponse struct {
	Code    int         `json:"code" example:"100003"`
	Message string      `json:"message" example:"invalid request parameters"`
	Data    interface{} `json:"data"`
}

// SuccessResponse documents the success envelope
type SuccessResponse struct {
	Code    int         `json:"code" example:"100000"`
	Message string      `json:"message" example:"success"`
	Data    interface{} `json:"data"`
}

// RegisterValidators adds the custom binding tags. Safe to call more than once.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return rules.ValidatePasswordStrength(fl.Field().String()) == nil
	})
}

// parseID reads a positive numeric path parameter, writing a 400 otherwise
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.ParamError(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// currentActor returns the authenticated caller, writing a 401 otherwise
func currentActor(ctx *gin.Context) (rules.Actor, bool) {
	actor, ok := middleware.GetActor(ctx)
	if !ok {
		response.Unauthorized(ctx, "")
		return rules.Actor{}, false
	}
	return actor, true
}

// actorOrAnonymous returns the caller, or a plain user for anonymous
// requests to public endpoints
func actorOrAnonymous(ctx *gin.Context) rules.Actor {
	if actor, ok := middleware.GetActor(ctx); ok {
		return actor
	}
	return rules.Actor{Role: rules.RoleUser}
}

// bindPage reads page, page_size and desc from the query string
func bindPage(ctx *gin.Context) (*models.PaginationQuery, bool) {
	var page models.PaginationQuery
	if err := ctx.ShouldBindQuery(&page); err != nil {
		response.BindError(ctx, err)
		return nil, false
	}
	page.Normalize()
	return &page, true
}

func invalidMethod(ctx *gin.Context) {
	response.FailWithMessage(ctx, code.ErrBind, "invalid method", nil)
}

var (
	_ InterfaceAssessmentController   = (*AssessmentController)(nil)
	_ InterfaceAuthController         = (*AuthController)(nil)
	_ InterfaceCatalogController      = (*CatalogController)(nil)
	_ InterfaceCriteriaController     = (*CriteriaController)(nil)
	_ InterfaceHealthController       = (*HealthController)(nil)
	_ InterfaceImageController        = (*ImageController)(nil)
	_ InterfaceLocationController     = (*LocationController)(nil)
	_ InterfaceNotificationController = (*NotificationController)(nil)
	_ InterfaceStatisticsController   = (*StatisticsController)(nil)
	_ InterfaceUserController         = (*UserController)(nil)
)
