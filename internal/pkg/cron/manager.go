package cron

import (
	"Linkboard/internal/api/dto"
	"Linkboard/internal/job"
	"Linkboard/internal/pkg/consts"
	"context"
	"fmt"
	log "log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	MinRunsPerDay = 1
	MaxRunsPerDay = 24
)

type Manager struct {
	mu         sync.Mutex
	engine     *cron.Cron
	cleanupJob *job.LinkCleanupJob
	entryIDs   []cron.EntryID
	runsPerDay int
	running    bool

	runCtx context.Context
	cancel context.CancelFunc
}

func NewCronManager(cleanupJob *job.LinkCleanupJob, runsPerDay int) *Manager {
	return &Manager{
		engine: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(time.UTC),
			cron.WithLogger(slogAdapter{}),
			cron.WithChain(cron.SkipIfStillRunning(slogAdapter{})),
		),
		cleanupJob: cleanupJob,
		runsPerDay: ClampRunsPerDay(runsPerDay),
	}
}

// RegisterJobs 按当前计划注册清理任务
func (s *Manager) RegisterJobs() error {
	return s.Setup(s.runsPerDay, s.cleanupJob.RetentionDays())
}

// Setup 重新配置清理计划：参数先钳制到合法范围，撤销所有已注册的触发再按新计划注册
func (s *Manager) Setup(runsPerDay, retentionDays int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runsPerDay = ClampRunsPerDay(runsPerDay)
	retentionDays = ClampRetentionDays(retentionDays)

	for _, id := range s.entryIDs {
		s.engine.Remove(id)
	}
	s.entryIDs = s.entryIDs[:0]

	for _, hour := range RunHours(runsPerDay) {
		id, err := s.engine.AddFunc(fmt.Sprintf("0 0 %d * * *", hour), s.runCleanup)
		if err != nil {
			return err
		}
		s.entryIDs = append(s.entryIDs, id)
	}

	s.runsPerDay = runsPerDay
	s.cleanupJob.SetRetentionDays(retentionDays)

	log.Info("cleanup schedule updated", "runs_per_day", runsPerDay, "retention_days", retentionDays, "hours", RunHours(runsPerDay))
	return nil
}

// Start 重复调用无副作用
func (s *Manager) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	log.Info("Cron 定时任务引擎启动")
	s.runCtx, s.cancel = context.WithCancel(context.Background())
	s.engine.Start()
	s.running = true
}

// Stop 取消正在进行的清理并等待其退出，重复调用无副作用
func (s *Manager) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	log.Info("Cron 定时任务引擎停止")
	cancel()
	<-s.engine.Stop().Done()
}

func (s *Manager) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// RunNow 手动触发一次清理，使用调用方的 ctx
func (s *Manager) RunNow(ctx context.Context) (*dto.CleanupReportDTO, error) {
	report, err := s.cleanupJob.Cleanup(ctx)
	if err != nil {
		return nil, err
	}
	return toReportDTO(report), nil
}

// Status 调度器状态，未运行时下次执行时间按计划推算
func (s *Manager) Status() *dto.CleanupStatusDTO {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	next := make([]time.Time, 0, len(s.entryIDs))
	for _, id := range s.entryIDs {
		entry := s.engine.Entry(id)
		if !entry.Valid() {
			continue
		}
		if !entry.Next.IsZero() {
			next = append(next, entry.Next.UTC())
		} else {
			next = append(next, entry.Schedule.Next(now).UTC())
		}
	}
	sort.Slice(next, func(i, j int) bool { return next[i].Before(next[j]) })

	status := &dto.CleanupStatusDTO{
		Running:       s.running,
		RunsPerDay:    s.runsPerDay,
		RetentionDays: s.cleanupJob.RetentionDays(),
		NextRunTimes:  make([]string, 0, len(next)),
		LastRun:       toReportDTO(s.cleanupJob.LastRun()),
	}
	for _, t := range next {
		status.NextRunTimes = append(status.NextRunTimes, t.Format(consts.TimeLayout))
	}
	return status
}

func (s *Manager) runCleanup() {
	s.mu.Lock()
	ctx := s.runCtx
	s.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	_, _ = s.cleanupJob.Cleanup(ctx)
}

// RunHours 一天内均匀分布的 UTC 执行小时：i * (24 / runsPerDay)
func RunHours(runsPerDay int) []int {
	runsPerDay = ClampRunsPerDay(runsPerDay)
	step := 24 / runsPerDay
	hours := make([]int, 0, runsPerDay)
	for i := 0; i < runsPerDay; i++ {
		hours = append(hours, i*step)
	}
	return hours
}

func ClampRunsPerDay(n int) int {
	if n < MinRunsPerDay {
		return MinRunsPerDay
	}
	if n > MaxRunsPerDay {
		return MaxRunsPerDay
	}
	return n
}

func ClampRetentionDays(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func toReportDTO(report *job.CleanupReport) *dto.CleanupReportDTO {
	if report == nil {
		return nil
	}
	return &dto.CleanupReportDTO{
		At:       report.At.UTC().Format(consts.TimeLayout),
		Scanned:  report.Scanned,
		Removed:  report.Removed,
		Exempted: report.Exempted,
		Failed:   report.Failed,
	}
}

// slogAdapter 把 cron 的日志转到 slog
type slogAdapter struct{}

func (slogAdapter) Info(msg string, keysAndValues ...interface{}) {
	log.Debug("cron: "+msg, keysAndValues...)
}

func (slogAdapter) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}
