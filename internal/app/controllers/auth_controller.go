package controllers

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"

	"accessible-env-backend/internal/domain/models"
	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/domain/services/container"
	"accessible-env-backend/internal/error/response"
	"accessible-env-backend/internal/infrastructure/config"
	"accessible-env-backend/pkg/logger"
)

// InterfaceAuthController covers registration, login and the caller's profile
type InterfaceAuthController interface {
	Register()
	Login()
	Me()
	UpdateMe()
	ChangePassword()
	GoogleLogin()
	GoogleCallback()
}

// AuthController handles authentication requests
type AuthController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAuthController creates an AuthController
func NewAuthController(ctx *gin.Context, container *container.ServiceContainer) *AuthController {
	return &AuthController{Ctx: ctx, Container: container}
}

// RegisterRequest is the sign-up payload
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50" example:"jane"`
	Email    string `json:"email" binding:"required,email" example:"jane@example.com"`
	Password string `json:"password" binding:"required,strongpassword" example:"Secret123"`
	FullName string `json:"full_name" binding:"max=150" example:"Jane Doe"`
	Phone    string `json:"phone" binding:"max=30" example:"+77001234567"`
	Language string `json:"language" binding:"omitempty,oneof=en ru kk" example:"en"`
}

// LoginRequest accepts a username or an email
type LoginRequest struct {
	Login    string `json:"login" binding:"required" example:"jane"`
	Password string `json:"password" binding:"required" example:"Secret123"`
}

// ProfileRequest updates the caller's own profile
type ProfileRequest struct {
	FullName  *string `json:"full_name" binding:"omitempty,max=150"`
	Phone     *string `json:"phone" binding:"omitempty,max=30"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,url"`
	Language  *string `json:"language" binding:"omitempty,oneof=en ru kk"`
}

// ChangePasswordRequest replaces the caller's password
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,strongpassword"`
}

// LoginData is returned on successful login
type LoginData struct {
	Token     string       `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// HandleAuthFunc returns a gin handler dispatching to an AuthController method
func HandleAuthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAuthController(ctx, container)

		switch method {
		case "register":
			controller.Register()
		case "login":
			controller.Login()
		case "me":
			controller.Me()
		case "updateMe":
			controller.UpdateMe()
		case "changePassword":
			controller.ChangePassword()
		case "googleLogin":
			controller.GoogleLogin()
		case "googleCallback":
			controller.GoogleCallback()
		default:
			invalidMethod(ctx)
		}
	}
}

func (c *AuthController) users() services.InterfaceUserService {
	return c.Container.GetService("user").(services.InterfaceUserService)
}

func (c *AuthController) issue(user *models.User) (*LoginData, error) {
	jwtService := c.Container.GetService("jwt").(services.InterfaceJWTService)
	token, expiresAt, err := jwtService.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &LoginData{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// 1. Register creates an account
// @Summary      Register
// @Description  Create a user account with the user role
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "account"
// @Success      201  {object}  SuccessResponse{data=LoginData}
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /auth/register [post]
func (c *AuthController) Register() {
	var req RegisterRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}

	user, err := c.users().Register(c.Ctx.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Phone:    req.Phone,
		Language: req.Language,
	})
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}

	data, err := c.issue(user)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Created(c.Ctx, data)
}

// 2. Login authenticates with username or email
// @Summary      Login
// @Description  Exchange credentials for a bearer token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "credentials"
// @Success      200  {object}  SuccessResponse{data=LoginData}
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Router       /auth/login [post]
func (c *AuthController) Login() {
	var req LoginRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}

	user, err := c.users().Login(c.Ctx.Request.Context(), req.Login, req.Password)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	data, err := c.issue(user)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, data)
}

// 3. Me returns the caller's profile
// @Summary      Current user
// @Tags         Users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  SuccessResponse{data=models.User}
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me [get]
func (c *AuthController) Me() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	user, err := c.users().Get(c.Ctx.Request.Context(), actor, actor.ID)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, user)
}

// 4. UpdateMe changes the caller's profile
// @Summary      Update current user
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ProfileRequest true "profile fields"
// @Success      200  {object}  SuccessResponse{data=models.User}
// @Failure      400  {object}  ErrorResponse
// @Router       /users/me [put]
func (c *AuthController) UpdateMe() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	var req ProfileRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}

	user, err := c.users().UpdateProfile(c.Ctx.Request.Context(), actor, services.ProfileInput{
		FullName:  req.FullName,
		Phone:     req.Phone,
		AvatarURL: req.AvatarURL,
		Language:  req.Language,
	})
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, user)
}

// 5. ChangePassword replaces the caller's password
// @Summary      Change password
// @Tags         Users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body ChangePasswordRequest true "passwords"
// @Success      200  {object}  SuccessResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me/password [put]
func (c *AuthController) ChangePassword() {
	actor, ok := currentActor(c.Ctx)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		response.BindError(c.Ctx, err)
		return
	}
	if err := c.users().ChangePassword(c.Ctx.Request.Context(), actor, req.OldPassword, req.NewPassword); err != nil {
		response.Error(c.Ctx, err)
		return
	}
	response.Success(c.Ctx, nil)
}

// 6. GoogleLogin redirects to the Google consent page
// @Summary      Google login
// @Tags         Auth
// @Success      307
// @Failure      400  {object}  ErrorResponse
// @Router       /auth/google/login [get]
func (c *AuthController) GoogleLogin() {
	oauth := c.Container.GetService("oauth").(services.InterfaceOAuthService)
	loginURL, err := oauth.LoginURL(c.Ctx.Request.Context())
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	c.Ctx.Redirect(http.StatusTemporaryRedirect, loginURL)
}

// 7. GoogleCallback finishes the Google login and redirects to the frontend
// with the token in the fragment, or with an error query parameter
// @Summary      Google callback
// @Tags         Auth
// @Param        state query string true "state"
// @Param        code  query string true "authorization code"
// @Success      307
// @Router       /auth/google/callback [get]
func (c *AuthController) GoogleCallback() {
	cfg := c.Container.GetService("config").(*config.Config)
	oauth := c.Container.GetService("oauth").(services.InterfaceOAuthService)

	target := cfg.FrontendBaseURL + "/auth/callback"
	if e := c.Ctx.Query("error"); e != "" {
		c.Ctx.Redirect(http.StatusTemporaryRedirect, target+"?error="+url.QueryEscape(e))
		return
	}

	user, err := oauth.HandleCallback(c.Ctx.Request.Context(), c.Ctx.Query("state"), c.Ctx.Query("code"))
	if err != nil {
		logger.Warning("google callback failed: %v", err)
		c.Ctx.Redirect(http.StatusTemporaryRedirect, target+"?error=login_failed")
		return
	}
	data, err := c.issue(user)
	if err != nil {
		response.Error(c.Ctx, err)
		return
	}
	c.Ctx.Redirect(http.StatusTemporaryRedirect, target+"#token="+url.QueryEscape(data.Token))
}
