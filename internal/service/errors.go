package service

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	PaymentRequired     = 402
	Forbidden           = 403
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
)

var (
	ErrParamInvalid        = errors.New("invalid parameter")
	ErrTitleInvalid        = errors.New("invalid title")
	ErrLinkInvalid         = errors.New("invalid link")
	ErrLinkNotFound        = errors.New("link not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrAlreadyActed        = errors.New("already done")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrSelfReferral        = errors.New("cannot refer yourself")
	ErrNoPendingSubmission = errors.New("no submission in progress")
	ErrUnauthorized        = errors.New("permission denied")
	ErrStorage             = errors.New("something went wrong, please try again later")
)

var (
	ErrAlreadyVoted   error = &actedError{msg: "you have already voted on this link"}
	ErrAlreadyClicked error = &actedError{msg: "you have already opened this link"}
)

var ErrorMap = map[error]int{
	ErrParamInvalid:        BadRequest,
	ErrTitleInvalid:        BadRequest,
	ErrLinkInvalid:         BadRequest,
	ErrLinkNotFound:        NotFound,
	ErrUserNotFound:        NotFound,
	ErrAlreadyActed:        Conflict,
	ErrInsufficientCredits: PaymentRequired,
	ErrSelfReferral:        BadRequest,
	ErrNoPendingSubmission: BadRequest,
	ErrUnauthorized:        Forbidden,
	ErrStorage:             InternalServerError,
}

// actedError 重复投票/点击，errors.Is(err, ErrAlreadyActed) 成立
type actedError struct {
	msg string
}

func (e *actedError) Error() string {
	return e.msg
}

func (e *actedError) Is(target error) bool {
	return target == ErrAlreadyActed
}

// ValidationError 标题或链接未通过校验，Reason 可直接展示给用户
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func (e *ValidationError) Unwrap() error {
	if e.Field == "title" {
		return ErrTitleInvalid
	}
	return ErrLinkInvalid
}

// CodeOf 错误对应的业务码，未登记的错误一律 500
func CodeOf(err error) int {
	if err == nil {
		return 200
	}
	for target, code := range ErrorMap {
		if errors.Is(err, target) {
			return code
		}
	}
	return InternalServerError
}

// MessageOf 面向用户的错误文案，存储类错误不暴露细节
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrStorage) {
		return ErrStorage.Error()
	}
	if CodeOf(err) == InternalServerError {
		return ErrStorage.Error()
	}
	return err.Error()
}

func isDuplicateError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// storageError 记录失败上下文后返回通用错误
func storageError(ctx context.Context, op string, err error, attrs ...any) error {
	args := append([]any{"op", op, "err", err}, attrs...)
	log.ErrorContext(ctx, "storage failure", args...)
	return fmt.Errorf("%w: %s", ErrStorage, op)
}
