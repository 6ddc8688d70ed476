package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kgr33n/kblog/models"
	"github.com/kgr33n/kblog/utils"
)

const (
	// ContextUserIDKey holds the authenticated user's id in gin context.
	ContextUserIDKey = "auth_user_id"
	// ContextUsernameKey holds the authenticated username.
	ContextUsernameKey = "auth_username"
	// ContextRoleKey holds the authenticated user's role name.
	ContextRoleKey = "auth_role"
)

// AuthRequired validates the bearer token, rejects blacklisted tokens, and
// publishes the caller's identity into the request context.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			utils.Error(c, http.StatusUnauthorized, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}
		tokenString := strings.TrimPrefix(header, "Bearer ")

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			utils.Error(c, http.StatusUnauthorized, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}
		if utils.IsTokenBlacklisted(tokenString) {
			utils.Error(c, http.StatusUnauthorized, http.StatusUnauthorized, "token has been revoked")
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Username)
		c.Set(ContextRoleKey, claims.Role)
		c.Set("raw_token", tokenString)
		c.Next()
	}
}

// AdminRequired gates a route to ADMIN accounts. Must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return requireRole(models.RoleAdmin)
}

// ModeratorRequired gates a route to MODERATOR and ADMIN accounts.
func ModeratorRequired() gin.HandlerFunc {
	return requireRole(models.RoleModerator, models.RoleAdmin)
}

func requireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextRoleKey)
		for _, want := range allowed {
			if role == want {
				c.Next()
				return
			}
		}
		utils.Error(c, http.StatusForbidden, http.StatusForbidden, "insufficient privileges")
		c.Abort()
	}
}

// CurrentUserID reads the authenticated user id set by AuthRequired.
func CurrentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
