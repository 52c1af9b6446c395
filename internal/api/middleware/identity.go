package middleware

import (
	"Linkboard/internal/pkg/response"
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	UserIDHeader = "X-User-ID"
	UserIDKey    = "user_id"
)

// IdentityMiddleware 读取网关注入的 X-User-ID，缺失或非法时拒绝
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserIDHeader)
		userID, err := strconv.ParseUint(raw, 10, 64)
		if raw == "" || err != nil || userID == 0 {
			response.Fail(c, response.Unauthorized, "missing or invalid "+UserIDHeader)
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		newCtx := context.WithValue(c.Request.Context(), UserIDKey, userID)
		c.Request = c.Request.WithContext(newCtx)

		c.Next()
	}
}
