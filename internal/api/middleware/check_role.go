package middleware

import (
	"Linkboard/internal/pkg/response"
	"Linkboard/internal/service"

	"github.com/gin-gonic/gin"
)

// RequireAdmin 当前用户必须在管理员白名单内，需在 IdentityMiddleware 之后使用
func RequireAdmin(admins *service.AdminList) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !admins.IsAdmin(c.GetUint64(UserIDKey)) {
			response.Fail(c, response.Forbidden, service.ErrUnauthorized.Error())
			c.Abort()
			return
		}

		c.Next()
	}
}
