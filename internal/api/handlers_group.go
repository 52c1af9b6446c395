package api

import (
	"Linkboard/internal/api/handler"
	"Linkboard/internal/service"
)

// HandlersGroup 封装了所有已初始化的 Handler 实例
type HandlersGroup struct {
	BotHandler   *handler.BotHandler
	LinkHandler  *handler.LinkHandler
	AdminHandler *handler.AdminHandler
	Admins       *service.AdminList

	// WebhookSecret 为空时 webhook 入口关闭，只能经 Kafka 接收事件
	WebhookSecret string
}
