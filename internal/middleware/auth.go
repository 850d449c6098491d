package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/damoang/angple-cms/internal/common"
	"github.com/damoang/angple-cms/pkg/jwt"
	"github.com/damoang/angple-cms/pkg/requestcontext"
	"github.com/gin-gonic/gin"
)

const (
	actorIDKey  = "actorID"
	usernameKey = "username"
	levelKey    = "level"
)

// JWTAuth verifies the Bearer token and records the actor on both the gin
// context and the request context. With optional set, requests without an
// Authorization header pass through anonymously; a bad token is always 401.
func JWTAuth(jwtManager *jwt.Manager, optional bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if optional {
				c.Next()
				return
			}
			common.ErrorResponse(c, http.StatusUnauthorized, "Missing authorization header", nil)
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			common.ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization header format", nil)
			c.Abort()
			return
		}

		claims, err := jwtManager.Verify(parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.ErrorResponse(c, http.StatusUnauthorized, "Token expired", err)
			} else {
				common.ErrorResponse(c, http.StatusUnauthorized, "Invalid token", err)
			}
			c.Abort()
			return
		}

		c.Set(actorIDKey, claims.MemberID)
		c.Set(usernameKey, claims.Username)
		c.Set(levelKey, claims.Level)
		c.Request = c.Request.WithContext(requestcontext.WithActorID(c.Request.Context(), claims.MemberID))

		c.Next()
	}
}

// RequireLevel rejects actors below min
func RequireLevel(min int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetActorID(c) == 0 {
			common.ErrorResponse(c, http.StatusUnauthorized, "Login required", common.ErrUnauthorized)
			c.Abort()
			return
		}
		if GetLevel(c) < min {
			common.ErrorResponse(c, http.StatusForbidden, "Insufficient level", common.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetActorID returns the authenticated member id, or 0
func GetActorID(c *gin.Context) uint64 {
	if v, ok := c.Get(actorIDKey); ok {
		if id, ok := v.(uint64); ok {
			return id
		}
	}
	return 0
}

// GetUsername extracts the username from context
func GetUsername(c *gin.Context) string {
	return c.GetString(usernameKey)
}

// GetLevel extracts the member level from context
func GetLevel(c *gin.Context) int {
	return c.GetInt(levelKey)
}
