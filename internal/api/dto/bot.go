package dto

// BotEventReq 聊天平台推送的事件，Command 与 CallbackData 二选一
type BotEventReq struct {
	Command      string `json:"command"`
	CallbackData string `json:"callback_data"`
	FromUserID   uint64 `json:"from_user_id" validate:"required" binding:"required"`
	Text         string `json:"text" validate:"max=1024" binding:"max=1024"`
}
