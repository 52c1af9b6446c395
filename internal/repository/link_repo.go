package repository

import (
	"Linkboard/internal/model"
	"Linkboard/internal/ranking"
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LinkRepo interface {
	CreateLink(ctx context.Context, link *model.Link) error
	GetLinkById(ctx context.Context, id uint64) (*model.Link, error)
	ListLinks(ctx context.Context, limit int) ([]*model.Link, error)
	ListLinksByUser(ctx context.Context, userID uint64) ([]*model.Link, error)
	ListLinksSubmittedBefore(ctx context.Context, cutoff time.Time) ([]*model.Link, error)
	DeleteLink(ctx context.Context, id uint64) (bool, error)

	Vote(ctx context.Context, linkID, voterID uint64, isUpvote bool) (*model.Link, error)
	Click(ctx context.Context, linkID, userID uint64) (*model.Link, error)
	GetVoterIDs(ctx context.Context, linkID uint64) ([]uint64, error)
	GetClickerIDs(ctx context.Context, linkID uint64) ([]uint64, error)
}

type LinkRepoImpl struct {
	db *gorm.DB
}

func NewLinkRepo(db *gorm.DB) LinkRepo {
	return &LinkRepoImpl{db: db}
}

func (s *LinkRepoImpl) CreateLink(ctx context.Context, link *model.Link) error {
	if link.SubmitDate.IsZero() {
		link.SubmitDate = time.Now().UTC()
	}
	link.Score = ranking.LinkScore(link)
	return s.db.WithContext(ctx).Create(link).Error
}

func (s *LinkRepoImpl) GetLinkById(ctx context.Context, id uint64) (*model.Link, error) {
	link := &model.Link{}
	result := s.db.WithContext(ctx).First(link, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return link, nil
}

// ListLinks 按分数降序、提交时间降序，limit <= 0 表示全部
func (s *LinkRepoImpl) ListLinks(ctx context.Context, limit int) ([]*model.Link, error) {
	links := make([]*model.Link, 0)
	query := s.db.WithContext(ctx).
		Order("score DESC").
		Order("submit_date DESC").
		Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

func (s *LinkRepoImpl) ListLinksByUser(ctx context.Context, userID uint64) ([]*model.Link, error) {
	links := make([]*model.Link, 0)
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("submit_date DESC").
		Find(&links).Error
	return links, err
}

func (s *LinkRepoImpl) ListLinksSubmittedBefore(ctx context.Context, cutoff time.Time) ([]*model.Link, error) {
	links := make([]*model.Link, 0)
	err := s.db.WithContext(ctx).
		Where("submit_date < ?", cutoff).
		Order("submit_date ASC").
		Find(&links).Error
	return links, err
}

// DeleteLink 删除链接及其投票、点击记录，返回是否真正删除了一行
func (s *LinkRepoImpl) DeleteLink(ctx context.Context, id uint64) (bool, error) {
	var deleted bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", id).Delete(&model.Link{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected > 0
		if !deleted {
			return nil
		}

		if err := tx.Where("link_id = ?", id).Delete(&model.LinkVote{}).Error; err != nil {
			return err
		}
		return tx.Where("link_id = ?", id).Delete(&model.LinkClick{}).Error
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

// Vote 在同一事务内锁定链接行、写入投票去重记录、递增计数并重算分数。
// 链接不存在返回 gorm.ErrRecordNotFound，重复投票返回 gorm.ErrDuplicatedKey
func (s *LinkRepoImpl) Vote(ctx context.Context, linkID, voterID uint64, isUpvote bool) (*model.Link, error) {
	return s.mutate(ctx, linkID, func(tx *gorm.DB, link *model.Link) error {
		exists, err := rowExists(tx, &model.LinkVote{}, linkID, voterID)
		if err != nil {
			return err
		}
		if exists {
			return gorm.ErrDuplicatedKey
		}

		vote := &model.LinkVote{LinkID: linkID, UserID: voterID, IsUpvote: isUpvote, CreatedAt: time.Now().UTC()}
		if err = tx.Create(vote).Error; err != nil {
			return err
		}

		if isUpvote {
			link.Upvotes++
		} else {
			link.Downvotes++
		}
		return nil
	})
}

// Click 与 Vote 同样的加锁与去重流程，只作用于点击数
func (s *LinkRepoImpl) Click(ctx context.Context, linkID, userID uint64) (*model.Link, error) {
	return s.mutate(ctx, linkID, func(tx *gorm.DB, link *model.Link) error {
		exists, err := rowExists(tx, &model.LinkClick{}, linkID, userID)
		if err != nil {
			return err
		}
		if exists {
			return gorm.ErrDuplicatedKey
		}

		click := &model.LinkClick{LinkID: linkID, UserID: userID, CreatedAt: time.Now().UTC()}
		if err = tx.Create(click).Error; err != nil {
			return err
		}

		link.Clicks++
		return nil
	})
}

func (s *LinkRepoImpl) GetVoterIDs(ctx context.Context, linkID uint64) ([]uint64, error) {
	var ids []uint64
	err := s.db.WithContext(ctx).Model(&model.LinkVote{}).
		Where("link_id = ?", linkID).
		Order("created_at ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (s *LinkRepoImpl) GetClickerIDs(ctx context.Context, linkID uint64) ([]uint64, error) {
	var ids []uint64
	err := s.db.WithContext(ctx).Model(&model.LinkClick{}).
		Where("link_id = ?", linkID).
		Order("created_at ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (s *LinkRepoImpl) mutate(ctx context.Context, linkID uint64, apply func(tx *gorm.DB, link *model.Link) error) (*model.Link, error) {
	link := &model.Link{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(link, linkID).Error; err != nil {
			return err
		}

		if err := apply(tx, link); err != nil {
			return err
		}

		link.Score = ranking.LinkScore(link)
		return tx.Model(&model.Link{}).
			Where("id = ?", link.ID).
			Updates(map[string]interface{}{
				"upvotes":   link.Upvotes,
				"downvotes": link.Downvotes,
				"clicks":    link.Clicks,
				"score":     link.Score,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

func rowExists(tx *gorm.DB, m interface{}, linkID, userID uint64) (bool, error) {
	var count int64
	err := tx.Model(m).
		Where("link_id = ? AND user_id = ?", linkID, userID).
		Count(&count).Error
	return count > 0, err
}
