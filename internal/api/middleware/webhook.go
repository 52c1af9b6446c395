package middleware

import (
	"Linkboard/internal/pkg/response"
	"crypto/subtle"

	"github.com/gin-gonic/gin"
)

// WebhookSecretHeader 聊天平台回调时携带的密钥头
const WebhookSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookSecretMiddleware 校验回调密钥，未配置密钥时拒绝所有回调
// 事件体里的 from_user_id 只有在来源可信时才能当作身份
func WebhookSecretMiddleware(secret string) gin.HandlerFunc {
	expected := []byte(secret)
	return func(c *gin.Context) {
		got := []byte(c.GetHeader(WebhookSecretHeader))
		if len(expected) == 0 || subtle.ConstantTimeCompare(got, expected) != 1 {
			response.Fail(c, response.Unauthorized, "invalid webhook secret")
			c.Abort()
			return
		}

		c.Next()
	}
}
