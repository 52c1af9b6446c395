package service

import (
	"Linkboard/internal/api/dto"
	"Linkboard/internal/model"
	"Linkboard/internal/repository"
	"context"
	"errors"
	log "log/slog"

	"gorm.io/gorm"
)

type CreditService interface {
	EnsureUser(ctx context.Context, userID uint64) (*model.User, bool, error)
	RegisterReferral(ctx context.Context, newUserID, referrerID uint64) (bool, error)
	Debit(ctx context.Context, userID uint64, amount int) (bool, error)
	Credit(ctx context.Context, userID uint64, amount int) error
	GetBalance(ctx context.Context, userID uint64) (*dto.CreditDTO, error)
}

type CreditServiceImpl struct {
	userRepo       repository.UserRepo
	initialCredits int
	referralBonus  int
}

func NewCreditService(userRepo repository.UserRepo, initialCredits, referralBonus int) CreditService {
	return &CreditServiceImpl{
		userRepo:       userRepo,
		initialCredits: initialCredits,
		referralBonus:  referralBonus,
	}
}

// EnsureUser 查询用户，不存在则按初始积分创建；并发首次访问时只有一方创建成功，另一方读取已有记录
func (s *CreditServiceImpl) EnsureUser(ctx context.Context, userID uint64) (*model.User, bool, error) {
	user, err := s.userRepo.GetUserById(ctx, userID)
	if err != nil {
		return nil, false, storageError(ctx, "get_user", err, "user_id", userID)
	}
	if user != nil {
		return user, false, nil
	}

	created, err := s.userRepo.CreateUserIfAbsent(ctx, &model.User{
		UserID:  userID,
		Credits: s.initialCredits,
	})
	if err != nil && !isDuplicateError(err) {
		return nil, false, storageError(ctx, "create_user", err, "user_id", userID)
	}

	user, err = s.userRepo.GetUserById(ctx, userID)
	if err != nil {
		return nil, false, storageError(ctx, "get_user", err, "user_id", userID)
	}
	if user == nil {
		return nil, false, ErrUserNotFound
	}
	if created {
		log.InfoContext(ctx, "user created", "user_id", userID, "credits", user.Credits)
	}
	return user, created, nil
}

// RegisterReferral 为新用户记录邀请人并给邀请人发放奖励，每个新用户最多生效一次
func (s *CreditServiceImpl) RegisterReferral(ctx context.Context, newUserID, referrerID uint64) (bool, error) {
	if newUserID == referrerID {
		return false, ErrSelfReferral
	}

	referrer, err := s.userRepo.GetUserById(ctx, referrerID)
	if err != nil {
		return false, storageError(ctx, "get_user", err, "user_id", referrerID)
	}
	if referrer == nil {
		return false, ErrUserNotFound
	}

	applied, err := s.userRepo.SetReferrer(ctx, newUserID, referrerID, s.referralBonus)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrUserNotFound
		}
		return false, storageError(ctx, "set_referrer", err, "user_id", newUserID, "referrer_id", referrerID)
	}
	if applied {
		log.InfoContext(ctx, "referral registered", "user_id", newUserID, "referrer_id", referrerID, "bonus", s.referralBonus)
	}
	return applied, nil
}

// Debit 余额充足时扣减，否则返回 false 且不做任何修改
func (s *CreditServiceImpl) Debit(ctx context.Context, userID uint64, amount int) (bool, error) {
	if amount <= 0 {
		return false, ErrParamInvalid
	}
	rows, err := s.userRepo.DeductCredits(ctx, userID, amount)
	if err != nil {
		return false, storageError(ctx, "debit", err, "user_id", userID)
	}
	return rows > 0, nil
}

func (s *CreditServiceImpl) Credit(ctx context.Context, userID uint64, amount int) error {
	if amount <= 0 {
		return ErrParamInvalid
	}
	rows, err := s.userRepo.AddCredits(ctx, userID, amount)
	if err != nil {
		return storageError(ctx, "credit", err, "user_id", userID)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *CreditServiceImpl) GetBalance(ctx context.Context, userID uint64) (*dto.CreditDTO, error) {
	user, _, err := s.EnsureUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.CreditDTO{
		UserID:     user.UserID,
		Credits:    user.Credits,
		ReferredBy: user.ReferredBy,
	}, nil
}
