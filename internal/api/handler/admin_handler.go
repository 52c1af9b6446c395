package handler

import (
	"Linkboard/internal/api/dto"
	"Linkboard/internal/job"
	"Linkboard/internal/pkg/response"
	"Linkboard/internal/pkg/util"
	"Linkboard/internal/service"
	"context"
	"errors"
	log "log/slog"

	"github.com/gin-gonic/gin"
)

// CleanupScheduler 过期清理调度器
type CleanupScheduler interface {
	Setup(runsPerDay, retentionDays int) error
	Status() *dto.CleanupStatusDTO
	RunNow(ctx context.Context) (*dto.CleanupReportDTO, error)
}

type AdminHandler struct {
	linkSvc   service.LinkService
	scheduler CleanupScheduler
}

func NewAdminHandler(linkSvc service.LinkService, scheduler CleanupScheduler) *AdminHandler {
	return &AdminHandler{linkSvc: linkSvc, scheduler: scheduler}
}

func (s *AdminHandler) GetCleanupStatus(c *gin.Context) {
	response.Success(c, s.scheduler.Status())
}

func (s *AdminHandler) UpdateCleanup(c *gin.Context) {
	var req dto.CleanupScheduleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, err)
		return
	}

	if err := s.scheduler.Setup(req.RunsPerDay, req.RetentionDays); err != nil {
		response.Error(c, err)
		return
	}
	log.InfoContext(c.Request.Context(), "cleanup schedule changed", "admin_id", c.GetUint64("user_id"),
		"runs_per_day", req.RunsPerDay, "retention_days", req.RetentionDays)
	response.Success(c, s.scheduler.Status())
}

func (s *AdminHandler) RunCleanup(c *gin.Context) {
	report, err := s.scheduler.RunNow(c.Request.Context())
	if err != nil {
		if errors.Is(err, job.ErrCleanupRunning) {
			response.Fail(c, response.Conflict, err.Error())
			return
		}
		response.Error(c, err)
		return
	}
	response.Success(c, report)
}

func (s *AdminHandler) DeleteLink(c *gin.Context) {
	linkID, ok := util.ParseUint64(c.Param("link_id"))
	if !ok {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	deleted, err := s.linkSvc.DeleteLink(c.Request.Context(), linkID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !deleted {
		response.Error(c, service.ErrLinkNotFound)
		return
	}
	response.Success(c, nil)
}
