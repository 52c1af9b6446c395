package response

import (
	"Linkboard/internal/api/dto"
	"Linkboard/internal/service"
	"errors"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

const (
	Ok                  = 200
	BadRequest          = 400
	Unauthorized        = 401
	PaymentRequired     = 402
	Forbidden           = 403
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
)

// Success 成功返回封装
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, dto.Response{
		Code:    Ok,
		Message: "success",
		Data:    data,
	})
}

// Fail 失败返回封装
func Fail(c *gin.Context, businessCode int, message string) {
	FailWithData(c, businessCode, message, nil)
}

// FailWithData 失败但需要携带额外信息，例如积分不足时的邀请链接
func FailWithData(c *gin.Context, businessCode int, message string, data interface{}) {
	c.JSON(http.StatusOK, dto.Response{
		Code:    businessCode,
		Message: message,
		Data:    data,
	})
}

// Error 处理错误
func Error(c *gin.Context, err error) {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		Fail(c, BadRequest, service.ErrParamInvalid.Error())
		return
	}

	var unmarshalTypeError *json.UnmarshalTypeError
	if errors.As(err, &unmarshalTypeError) {
		Fail(c, BadRequest, "malformed json")
		return
	}

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		Fail(c, BadRequest, validationErr.Reason)
		return
	}

	var denied *service.CreditDeniedError
	if errors.As(err, &denied) {
		FailWithData(c, PaymentRequired, service.ErrInsufficientCredits.Error(), denied.Prompt)
		return
	}

	code := service.CodeOf(err)
	if code == InternalServerError && !errors.Is(err, service.ErrStorage) {
		log.ErrorContext(c.Request.Context(), "Error", "err", err)
	}
	Fail(c, code, service.MessageOf(err))
}
