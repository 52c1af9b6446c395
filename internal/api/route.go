package api

import (
	"Linkboard/internal/api/middleware"
	"Linkboard/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.AuditMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"code":    200,
				"message": "pong",
				"data":    nil,
			})
		})

		apiGroup.POST("/bot/events", middleware.WebhookSecretMiddleware(group.WebhookSecret), group.BotHandler.HandleEvent)
		apiGroup.GET("/links", group.LinkHandler.ListLinks)

		// 需要 X-User-ID 且在管理员白名单内
		adminGroup := apiGroup.Group("/admin")
		adminGroup.Use(middleware.IdentityMiddleware(), middleware.RequireAdmin(group.Admins))
		{
			adminGroup.GET("/cleanup", group.AdminHandler.GetCleanupStatus)
			adminGroup.PUT("/cleanup", group.AdminHandler.UpdateCleanup)
			adminGroup.POST("/cleanup/run", group.AdminHandler.RunCleanup)
			adminGroup.DELETE("/links/:link_id", group.AdminHandler.DeleteLink)
		}
	}

	return r
}
