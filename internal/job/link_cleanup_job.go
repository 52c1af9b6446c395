package job

import (
	"Linkboard/internal/model"
	"Linkboard/internal/pkg/consts"
	"Linkboard/internal/pkg/logger"
	"Linkboard/internal/pkg/redis"
	"Linkboard/internal/repository"
	"context"
	"errors"
	log "log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

var ErrCleanupRunning = errors.New("cleanup already running on another instance")

// PrivilegedChecker 判断链接所有者是否免清理
type PrivilegedChecker interface {
	IsPrivileged(userID uint64) bool
}

// CleanupReport 一次清理的统计
type CleanupReport struct {
	At        time.Time
	Scanned   int
	Removed   int
	Exempted  int
	Failed    int
	Cancelled bool
}

type LinkCleanupJob struct {
	linkRepo      repository.LinkRepo
	privileged    PrivilegedChecker
	retentionDays atomic.Int64
	lockTTL       time.Duration
	now           func() time.Time

	mu      sync.RWMutex
	lastRun *CleanupReport
}

func NewLinkCleanupJob(linkRepo repository.LinkRepo, privileged PrivilegedChecker, retentionDays int, lockTTL time.Duration) *LinkCleanupJob {
	j := &LinkCleanupJob{
		linkRepo:   linkRepo,
		privileged: privileged,
		lockTTL:    lockTTL,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
	j.SetRetentionDays(retentionDays)
	return j
}

// SetRetentionDays 小于 1 按 1 处理
func (s *LinkCleanupJob) SetRetentionDays(days int) {
	if days < 1 {
		days = 1
	}
	s.retentionDays.Store(int64(days))
}

func (s *LinkCleanupJob) RetentionDays() int {
	return int(s.retentionDays.Load())
}

// LastRun 最近一次完成的清理，没有运行过时为 nil
func (s *LinkCleanupJob) LastRun() *CleanupReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return nil
	}
	report := *s.lastRun
	return &report
}

// Cleanup 删除超过保留期且所有者非特权用户的链接。
// 单条删除失败只记录并继续；ctx 取消后不再开始新的删除，已开始的删除会执行完
func (s *LinkCleanupJob) Cleanup(ctx context.Context) (*CleanupReport, error) {
	ctx = logger.WithTraceID(ctx, "job-cleanup-")

	if redis.Rdb != nil {
		token := uuid.NewString()
		locked, err := redis.TryLock(ctx, consts.LinkCleanupLock, token, s.lockTTL, 0)
		switch {
		case err != nil:
			log.WarnContext(ctx, "cleanup lock unavailable, continuing without it", "err", err)
		case !locked:
			log.InfoContext(ctx, "cleanup skipped, lock held elsewhere")
			return nil, ErrCleanupRunning
		default:
			defer redis.UnLock(context.WithoutCancel(ctx), consts.LinkCleanupLock, token)
		}
	}

	retention := s.RetentionDays()
	now := s.now()
	report := &CleanupReport{At: now}

	cutoff := now.Add(-time.Duration(retention) * 24 * time.Hour)
	links, err := s.linkRepo.ListLinksSubmittedBefore(ctx, cutoff)
	if err != nil {
		log.ErrorContext(ctx, "list expired links failed", "op", "cleanup", "err", err)
		return nil, err
	}

	log.InfoContext(ctx, "LinkCleanupJob processing", "candidates", len(links), "retention_days", retention)

	for _, link := range links {
		if ctx.Err() != nil {
			report.Cancelled = true
			log.WarnContext(ctx, "cleanup cancelled", "remaining", len(links)-report.Scanned)
			break
		}
		report.Scanned++
		s.sweep(ctx, link, retention, now, report)
	}

	s.mu.Lock()
	s.lastRun = report
	s.mu.Unlock()

	log.InfoContext(ctx, "LinkCleanupJob finished",
		"removed", report.Removed,
		"exempted", report.Exempted,
		"failed", report.Failed,
	)
	return report, nil
}

func (s *LinkCleanupJob) sweep(ctx context.Context, link *model.Link, retention int, now time.Time, report *CleanupReport) {
	if !link.IsExpired(retention, now) {
		return
	}
	if s.privileged != nil && s.privileged.IsPrivileged(link.UserID) {
		report.Exempted++
		return
	}

	deleted, err := s.linkRepo.DeleteLink(context.WithoutCancel(ctx), link.ID)
	if err != nil {
		report.Failed++
		log.ErrorContext(ctx, "delete expired link failed", "op", "cleanup", "link_id", link.ID, "err", err)
		return
	}
	if deleted {
		report.Removed++
		log.InfoContext(ctx, "expired link removed", "link_id", link.ID, "user_id", link.UserID)
	}
}
