package service

import (
	"Linkboard/internal/api/dto"
	"Linkboard/internal/model"
	"Linkboard/internal/pkg/consts"
	"Linkboard/internal/ranking"
	"Linkboard/internal/repository"
	"Linkboard/internal/validation"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

type LinkService interface {
	AddLink(ctx context.Context, ownerID uint64, title, rawURL string) (*dto.LinkDTO, error)
	GetLink(ctx context.Context, id uint64) (*dto.LinkDTO, error)
	ListLinks(ctx context.Context, limit int) ([]*dto.LinkDTO, error)
	ListTrending(ctx context.Context, limit int) ([]*dto.LinkDTO, error)
	ListUserLinks(ctx context.Context, userID uint64) ([]*dto.LinkDTO, error)
	Vote(ctx context.Context, linkID, voterID uint64, isUpvote bool) (*dto.LinkDTO, error)
	Click(ctx context.Context, linkID, userID uint64) (*dto.LinkDTO, error)
	DeleteLink(ctx context.Context, linkID uint64) (bool, error)
}

type LinkServiceImpl struct {
	linkRepo       repository.LinkRepo
	trendingWindow time.Duration
}

func NewLinkService(linkRepo repository.LinkRepo, trendingWindow time.Duration) LinkService {
	return &LinkServiceImpl{
		linkRepo:       linkRepo,
		trendingWindow: trendingWindow,
	}
}

func (s *LinkServiceImpl) AddLink(ctx context.Context, ownerID uint64, title, rawURL string) (*dto.LinkDTO, error) {
	title, err := checkTitle(title)
	if err != nil {
		return nil, err
	}
	normalized, err := checkGroupLink(rawURL)
	if err != nil {
		return nil, err
	}

	link := &model.Link{
		Title:  title,
		URL:    normalized,
		UserID: ownerID,
	}
	if err = s.linkRepo.CreateLink(ctx, link); err != nil {
		return nil, storageError(ctx, "create_link", err, "user_id", ownerID)
	}
	return toLinkDTO(link), nil
}

func (s *LinkServiceImpl) GetLink(ctx context.Context, id uint64) (*dto.LinkDTO, error) {
	link, err := s.linkRepo.GetLinkById(ctx, id)
	if err != nil {
		return nil, storageError(ctx, "get_link", err, "link_id", id)
	}
	if link == nil {
		return nil, ErrLinkNotFound
	}
	return toLinkDTO(link), nil
}

func (s *LinkServiceImpl) ListLinks(ctx context.Context, limit int) ([]*dto.LinkDTO, error) {
	links, err := s.linkRepo.ListLinks(ctx, limit)
	if err != nil {
		return nil, storageError(ctx, "list_links", err)
	}
	return toLinkDTOs(links), nil
}

// ListTrending 按热度分排序，只统计 trendingWindow 内提交的链接
func (s *LinkServiceImpl) ListTrending(ctx context.Context, limit int) ([]*dto.LinkDTO, error) {
	links, err := s.linkRepo.ListLinks(ctx, 0)
	if err != nil {
		return nil, storageError(ctx, "list_trending", err)
	}

	now := time.Now().UTC()
	trending := ranking.Trending(links, now, s.trendingWindow, limit)
	res := make([]*dto.LinkDTO, 0, len(trending))
	for _, link := range trending {
		d := toLinkDTO(link)
		score := ranking.TrendingScore(link, now)
		d.TrendingScore = &score
		res = append(res, d)
	}
	return res, nil
}

func (s *LinkServiceImpl) ListUserLinks(ctx context.Context, userID uint64) ([]*dto.LinkDTO, error) {
	links, err := s.linkRepo.ListLinksByUser(ctx, userID)
	if err != nil {
		return nil, storageError(ctx, "list_user_links", err, "user_id", userID)
	}
	return toLinkDTOs(links), nil
}

func (s *LinkServiceImpl) Vote(ctx context.Context, linkID, voterID uint64, isUpvote bool) (*dto.LinkDTO, error) {
	link, err := s.linkRepo.Vote(ctx, linkID, voterID, isUpvote)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrLinkNotFound
		case isDuplicateError(err):
			return nil, ErrAlreadyVoted
		}
		return nil, storageError(ctx, "vote", err, "link_id", linkID, "user_id", voterID)
	}
	return toLinkDTO(link), nil
}

func (s *LinkServiceImpl) Click(ctx context.Context, linkID, userID uint64) (*dto.LinkDTO, error) {
	link, err := s.linkRepo.Click(ctx, linkID, userID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, ErrLinkNotFound
		case isDuplicateError(err):
			return nil, ErrAlreadyClicked
		}
		return nil, storageError(ctx, "click", err, "link_id", linkID, "user_id", userID)
	}
	return toLinkDTO(link), nil
}

func (s *LinkServiceImpl) DeleteLink(ctx context.Context, linkID uint64) (bool, error) {
	deleted, err := s.linkRepo.DeleteLink(ctx, linkID)
	if err != nil {
		return false, storageError(ctx, "delete_link", err, "link_id", linkID)
	}
	return deleted, nil
}

// checkTitle 返回去掉首尾空白的标题
func checkTitle(text string) (string, error) {
	if ok, reason := validation.ValidateTitle(text); !ok {
		return "", &ValidationError{Field: "title", Reason: reason}
	}
	return strings.TrimSpace(text), nil
}

// checkGroupLink 返回规范化后的链接
func checkGroupLink(text string) (string, error) {
	if ok, reason := validation.ValidateGroupLink(text); !ok {
		return "", &ValidationError{Field: "url", Reason: reason}
	}
	return validation.NormalizeGroupLink(text), nil
}

var linkCopyOption = copier.Option{
	Converters: []copier.TypeConverter{
		{
			SrcType: time.Time{},
			DstType: copier.String,
			Fn: func(src interface{}) (interface{}, error) {
				t, ok := src.(time.Time)
				if !ok {
					return nil, errors.New("src type not matching")
				}
				return t.UTC().Format(consts.TimeLayout), nil
			},
		},
	},
}

func toLinkDTO(link *model.Link) *dto.LinkDTO {
	d := &dto.LinkDTO{}
	_ = copier.CopyWithOption(d, link, linkCopyOption)
	return d
}

func toLinkDTOs(links []*model.Link) []*dto.LinkDTO {
	res := make([]*dto.LinkDTO, 0, len(links))
	for _, link := range links {
		res = append(res, toLinkDTO(link))
	}
	return res
}
