package handler

import (
	"Linkboard/internal/api/dto"
	"Linkboard/internal/bot"
	"Linkboard/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
)

type BotHandler struct {
	dispatcher *bot.Dispatcher
}

func NewBotHandler(dispatcher *bot.Dispatcher) *BotHandler {
	return &BotHandler{dispatcher: dispatcher}
}

// HandleEvent 聊天平台 webhook，业务错误也以 Reply 的形式返回
func (s *BotHandler) HandleEvent(c *gin.Context) {
	var req dto.BotEventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	var ev bot.Event
	if err := copier.Copy(&ev, &req); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, s.dispatcher.Dispatch(c.Request.Context(), ev))
}
