package service

import (
	"Linkboard/internal/api/dto"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sort"
	"strconv"
)

// AdminList 管理员白名单，同时也是免积分、免过期清理的特权用户集合
type AdminList struct {
	ids map[uint64]struct{}
}

func NewAdminList(ids []uint64) *AdminList {
	m := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return &AdminList{ids: m}
}

func (a *AdminList) IsAdmin(userID uint64) bool {
	if a == nil {
		return false
	}
	_, ok := a.ids[userID]
	return ok
}

// IsPrivileged 目前特权用户即管理员
func (a *AdminList) IsPrivileged(userID uint64) bool {
	return a.IsAdmin(userID)
}

func (a *AdminList) IDs() []uint64 {
	if a == nil {
		return nil
	}
	ids := make([]uint64, 0, len(a.ids))
	for id := range a.ids {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CreditDeniedError 积分不足，携带邀请引导信息
type CreditDeniedError struct {
	Balance int
	Prompt  *dto.ReferralPromptDTO
}

func (e *CreditDeniedError) Error() string {
	return fmt.Sprintf("%s: balance %d", ErrInsufficientCredits.Error(), e.Balance)
}

func (e *CreditDeniedError) Is(target error) bool {
	return target == ErrInsufficientCredits
}

type AccessService interface {
	ViewLink(ctx context.Context, userID, linkID uint64) (*dto.LinkViewDTO, error)
	ReferralPrompt(userID uint64) *dto.ReferralPromptDTO
	IsPrivileged(userID uint64) bool
}

type AccessServiceImpl struct {
	linkService   LinkService
	creditService CreditService
	admins        *AdminList
	viewCost      int
	referralBonus int
	botUsername   string
}

func NewAccessService(linkService LinkService, creditService CreditService, admins *AdminList, viewCost, referralBonus int, botUsername string) AccessService {
	if viewCost <= 0 {
		viewCost = 1
	}
	return &AccessServiceImpl{
		linkService:   linkService,
		creditService: creditService,
		admins:        admins,
		viewCost:      viewCost,
		referralBonus: referralBonus,
		botUsername:   botUsername,
	}
}

func (s *AccessServiceImpl) IsPrivileged(userID uint64) bool {
	return s.admins.IsPrivileged(userID)
}

// ViewLink 查看链接详情。特权用户不扣积分；普通用户余额 <= 0 时拒绝，否则先扣 viewCost 再记点击。
// 扣费后链接消失或存储失败会退回积分
func (s *AccessServiceImpl) ViewLink(ctx context.Context, userID, linkID uint64) (*dto.LinkViewDTO, error) {
	if _, err := s.linkService.GetLink(ctx, linkID); err != nil {
		return nil, err
	}

	if s.IsPrivileged(userID) {
		link, err := s.recordClick(ctx, userID, linkID)
		if err != nil {
			return nil, err
		}
		return &dto.LinkViewDTO{Link: link}, nil
	}

	user, _, err := s.creditService.EnsureUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Credits <= 0 {
		return nil, s.deny(user.Credits, userID)
	}

	ok, err := s.creditService.Debit(ctx, userID, s.viewCost)
	if err != nil {
		return nil, err
	}
	if !ok {
		// 并发扣减导致余额不足
		return nil, s.deny(user.Credits-s.viewCost, userID)
	}

	link, err := s.recordClick(ctx, userID, linkID)
	if err != nil {
		if refundErr := s.creditService.Credit(ctx, userID, s.viewCost); refundErr != nil {
			log.ErrorContext(ctx, "refund failed", "user_id", userID, "link_id", linkID, "err", refundErr)
		}
		return nil, err
	}

	view := &dto.LinkViewDTO{Link: link, Charged: true}
	if balance, err := s.creditService.GetBalance(ctx, userID); err == nil {
		view.RemainingCredits = &balance.Credits
	}
	return view, nil
}

// ReferralPrompt 邀请链接，新用户通过 /start <userID> 进入即为邀请人加积分
func (s *AccessServiceImpl) ReferralPrompt(userID uint64) *dto.ReferralPromptDTO {
	payload := strconv.FormatUint(userID, 10)
	prompt := &dto.ReferralPromptDTO{
		UserID:        userID,
		StartPayload:  "/start " + payload,
		ReferralBonus: s.referralBonus,
	}
	if s.botUsername != "" {
		prompt.DeepLink = "https://t.me/" + s.botUsername + "?start=" + payload
	}
	return prompt
}

func (s *AccessServiceImpl) deny(balance int, userID uint64) error {
	if balance < 0 {
		balance = 0
	}
	return &CreditDeniedError{Balance: balance, Prompt: s.ReferralPrompt(userID)}
}

// recordClick 同一用户重复查看不再计点击
func (s *AccessServiceImpl) recordClick(ctx context.Context, userID, linkID uint64) (*dto.LinkDTO, error) {
	link, err := s.linkService.Click(ctx, linkID, userID)
	if errors.Is(err, ErrAlreadyClicked) {
		return s.linkService.GetLink(ctx, linkID)
	}
	return link, err
}
