package service

import (
	"Linkboard/internal/api/dto"
	"Linkboard/internal/pkg/consts"
	"Linkboard/internal/pkg/redis"
	"context"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

const (
	StageAwaitingTitle = "awaiting_title"
	StageAwaitingLink  = "awaiting_link"
	StageDone          = "done"
)

// PendingSubmission 分步提交链接的中间状态，按用户存在 Redis 中
type PendingSubmission struct {
	Stage     string `json:"stage"`
	Title     string `json:"title,omitempty"`
	StartedAt int64  `json:"started_at"`
}

// SubmissionStep 推进一步后的结果，Stage 为 StageDone 时 Link 为新建的链接
type SubmissionStep struct {
	Stage string
	Title string
	Link  *dto.LinkDTO
}

type SubmissionService interface {
	Begin(ctx context.Context, userID uint64) error
	Pending(ctx context.Context, userID uint64) (*PendingSubmission, error)
	Advance(ctx context.Context, userID uint64, text string) (*SubmissionStep, error)
	Cancel(ctx context.Context, userID uint64) (bool, error)
}

type SubmissionServiceImpl struct {
	linkService LinkService
	ttl         time.Duration
}

func NewSubmissionService(linkService LinkService, ttl time.Duration) SubmissionService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SubmissionServiceImpl{
		linkService: linkService,
		ttl:         ttl,
	}
}

func (s *SubmissionServiceImpl) Begin(ctx context.Context, userID uint64) error {
	return s.save(ctx, userID, &PendingSubmission{
		Stage:     StageAwaitingTitle,
		StartedAt: time.Now().UTC().Unix(),
	})
}

// Pending 没有进行中的提交时返回 nil
func (s *SubmissionServiceImpl) Pending(ctx context.Context, userID uint64) (*PendingSubmission, error) {
	value, err := redis.GetValue(ctx, pendingKey(userID))
	if err != nil {
		return nil, storageError(ctx, "get_pending", err, "user_id", userID)
	}
	if value == "" {
		return nil, nil
	}

	pending := &PendingSubmission{}
	if err = json.Unmarshal([]byte(value), pending); err != nil {
		// 损坏的状态直接丢弃
		_ = redis.DeleteKey(ctx, pendingKey(userID))
		return nil, nil
	}
	return pending, nil
}

// Advance 用一条文本推进提交流程。校验失败时保留当前阶段，用户可以重新输入
func (s *SubmissionServiceImpl) Advance(ctx context.Context, userID uint64, text string) (*SubmissionStep, error) {
	pending, err := s.Pending(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pending == nil {
		return nil, ErrNoPendingSubmission
	}

	switch pending.Stage {
	case StageAwaitingTitle:
		title, err := checkTitle(text)
		if err != nil {
			return nil, err
		}
		pending.Stage = StageAwaitingLink
		pending.Title = title
		if err = s.save(ctx, userID, pending); err != nil {
			return nil, err
		}
		return &SubmissionStep{Stage: StageAwaitingLink, Title: title}, nil

	case StageAwaitingLink:
		link, err := s.linkService.AddLink(ctx, userID, pending.Title, text)
		if err != nil {
			return nil, err
		}
		if _, err = s.Cancel(ctx, userID); err != nil {
			return nil, err
		}
		return &SubmissionStep{Stage: StageDone, Title: link.Title, Link: link}, nil
	}

	_, _ = s.Cancel(ctx, userID)
	return nil, ErrNoPendingSubmission
}

func (s *SubmissionServiceImpl) Cancel(ctx context.Context, userID uint64) (bool, error) {
	n, err := redis.Rdb.Del(ctx, pendingKey(userID)).Result()
	if err != nil {
		return false, storageError(ctx, "cancel_pending", err, "user_id", userID)
	}
	return n > 0, nil
}

func (s *SubmissionServiceImpl) save(ctx context.Context, userID uint64, pending *PendingSubmission) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	if err = redis.SetWithExpiration(ctx, pendingKey(userID), data, s.ttl); err != nil {
		return storageError(ctx, "save_pending", err, "user_id", userID)
	}
	return nil
}

func pendingKey(userID uint64) string {
	return consts.PendingSubmissionKey + strconv.FormatUint(userID, 10)
}
