package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"accessible-env-backend/internal/domain/rules"
	"accessible-env-backend/internal/domain/services"
	"accessible-env-backend/internal/error/response"
)

// Context keys set by the authentication middleware
const (
	ContextClaims = "claims"
	ContextUserID = "userID"
	ContextRole   = "role"
)

// extractToken takes the token from "Authorization: Bearer <token>" or,
// for browser WebSocket clients that cannot set headers, the token query
// parameter
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Query("token")
}

func setClaims(c *gin.Context, claims *services.JWTClaims) {
	c.Set(ContextClaims, claims)
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextRole, claims.Role)
}

// Authentication requires a valid bearer token
func Authentication(jwtService services.InterfaceJWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "authorization header format must be Bearer {token}")
			c.Abort()
			return
		}

		claims, err := jwtService.ParseToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuthentication sets the claims when a valid token is present and
// lets anonymous requests through. A malformed or expired token is rejected
// rather than silently downgraded.
func OptionalAuthentication(jwtService services.InterfaceJWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}
		claims, err := jwtService.ParseToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// RequireRole lets through callers whose role ranks at least min. It must
// run after Authentication.
func RequireRole(min rules.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			response.Unauthorized(c, "")
			c.Abort()
			return
		}
		if !actor.Role.AtLeast(min) {
			response.Forbidden(c, "requires "+string(min)+" role")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequirePermission checks the caller's role against the permission table
func RequirePermission(perm rules.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			response.Unauthorized(c, "")
			c.Abort()
			return
		}
		if err := rules.RequirePermission(actor.Role, perm); err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetActor returns the authenticated caller
func GetActor(c *gin.Context) (rules.Actor, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return rules.Actor{}, false
	}
	claims, ok := v.(*services.JWTClaims)
	if !ok {
		return rules.Actor{}, false
	}
	return claims.Actor(), true
}

// GetOptionalActor returns a pointer to the caller, or nil for anonymous
// requests
func GetOptionalActor(c *gin.Context) *rules.Actor {
	actor, ok := GetActor(c)
	if !ok {
		return nil
	}
	return &actor
}

