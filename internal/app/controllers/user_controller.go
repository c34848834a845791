package controllers

import (
	"context"

	"github.com/gin-gonic/gin"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/repositories"
	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/domain/services/container"
	"accessible-env-backend/internal/error/response"
)

// InterfaceUserController covers user administration
type InterfaceUserController interface {
	ListUsers()
	GetUser()
	ChangeRole()
	Ban()
	Unban()
	DeleteUser()
}

// UserController handles user administration
type UserController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewUserController creates a UserController
func NewUserController(ctx *gin.Context, container *container.ServiceContainer) *UserController {
	return &UserController{Ctx: ctx, Container: container}
}

// ChangeRoleRequest sets a new role
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=superadmin admin inspector user" example:"inspector"`
}

// HandleUserFunc returns a gin handler dispatching to a UserController method
func HandleUserFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewUserController(ctx, container)

		switch method {
		case "listUsers":
			controller.ListUsers()
		case "getUser":
			controller.GetUser()
		case "changeRole":
			controller.ChangeRole()
		case "ban":
			controller.Ban()
		case "unban":
			controller.Unban()
		case "deleteUser":
			controller.DeleteUser()
		default:
			invalidMethod(ctx)
		}
	}
}

func (c *UserController) service() services.InterfaceUserService {
	return c.Container.GetService("user").(services.InterfaceUserService)
}

// 1. ListUsers lists accounts
// @Summary      List users
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        role      query string false "role filter"
// @Param        status    query string false "status filter"
// @Param        search    query string false "username, email or name"
// @Param        page      query int    false "page number"
// @Param        page_size query int    false "page size"
// @Success      200  {object}  SuccessResponse{data=response.Page}
// @Failure      403  {object}  ErrorResponse
// @Router       /users [get]
func (c *UserController) ListUsers() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	page, ok := bindPage(c.Ctx)
	if !ok {
		return
	}
	filter := repositories.UserFilter{
		Role:   rules.Role(c.Ctx.Query("role")),
		Status: models.UserStatus(c.Ctx.Query("status")),
		Search: c.Ctx.Query("search"),
	}

	users, total, err := c.service().List(c.Ctx.Request.Context(), actor, filter, page)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, response.NewPage(users, total, page.Page, page.PageSize))
}

// 2. GetUser returns one account
// @Summary      Get user
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "user ID"
// @Success      200  {object}  SuccessResponse{data=models.User}
// @Failure      404  {object}  ErrorResponse
// @Router       /users/{id} [get]
func (c *UserController) GetUser() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	user, err := c.service().Get(c.Ctx.Request.Context(), actor, id)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, user)
}

// 3. ChangeRole assigns a new role
// @Summary      Change role
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path int               true "user ID"
// @Param        request body ChangeRoleRequest true "role"
// @Success      200  {object}  SuccessResponse{data=models.User}
// @Failure      403  {object}  ErrorResponse
// @Router       /users/{id}/role [put]
func (c *UserController) ChangeRole() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	var req ChangeRoleRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}

	user, err := c.service().ChangeRole(c.Ctx.Request.Context(), actor, id, rules.Role(req.Role))
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, user)
}

// 4. Ban blocks an account
// @Summary      Ban user
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "user ID"
// @Success      200  {object}  SuccessResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /users/{id}/ban [post]
func (c *UserController) Ban() {
	c.statusChange(c.service().Ban)
}

// 5. Unban restores a banned account
// @Summary      Unban user
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "user ID"
// @Success      200  {object}  SuccessResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /users/{id}/unban [post]
func (c *UserController) Unban() {
	c.statusChange(c.service().Unban)
}

// 6. DeleteUser soft deletes an account
// @Summary      Delete user
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "user ID"
// @Success      200  {object}  SuccessResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /users/{id} [delete]
func (c *UserController) DeleteUser() {
	c.statusChange(c.service().Delete)
}

func (c *UserController) statusChange(fn func(ctx context.Context, actor rules.Actor, id uint) error) {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	id, ok := parseID(c.Ctx, "id")
	if !ok {
		return
	}
	if err := fn(c.Ctx.Request.Context(), actor, id); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, nil)
}
