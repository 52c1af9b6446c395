package repository

import (
	"Linkboard/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepo interface {
	GetUserById(ctx context.Context, id uint64) (*model.User, error)
	CreateUserIfAbsent(ctx context.Context, user *model.User) (bool, error)
	AddCredits(ctx context.Context, id uint64, amount int) (int64, error)
	DeductCredits(ctx context.Context, id uint64, amount int) (int64, error)
	SetReferrer(ctx context.Context, id, referrerID uint64, bonus int) (bool, error)
}

type UserRepoImpl struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepo {
	return &UserRepoImpl{db: db}
}

func (s *UserRepoImpl) GetUserById(ctx context.Context, id uint64) (*model.User, error) {
	user := &model.User{}
	result := s.db.WithContext(ctx).Where("user_id = ?", id).First(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return user, nil
}

// CreateUserIfAbsent 主键冲突时什么也不做，返回是否新建
func (s *UserRepoImpl) CreateUserIfAbsent(ctx context.Context, user *model.User) (bool, error) {
	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(user)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (s *UserRepoImpl) AddCredits(ctx context.Context, id uint64, amount int) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ?", id).
		Update("credits", gorm.Expr("credits + ?", amount))
	return result.RowsAffected, result.Error
}

// DeductCredits 条件扣减，余额不足时影响行数为 0
func (s *UserRepoImpl) DeductCredits(ctx context.Context, id uint64, amount int) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("user_id = ? AND credits >= ?", id, amount).
		Update("credits", gorm.Expr("credits - ?", amount))
	return result.RowsAffected, result.Error
}

// SetReferrer 仅当 referred_by 为空时写入邀请人并给邀请人加 bonus，两步在同一事务内。
// 邀请人不存在时回滚并返回 gorm.ErrRecordNotFound
func (s *UserRepoImpl) SetReferrer(ctx context.Context, id, referrerID uint64, bonus int) (bool, error) {
	var applied bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.User{}).
			Where("user_id = ? AND referred_by IS NULL", id).
			Update("referred_by", referrerID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		result = tx.Model(&model.User{}).
			Where("user_id = ?", referrerID).
			Update("credits", gorm.Expr("credits + ?", bonus))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}
