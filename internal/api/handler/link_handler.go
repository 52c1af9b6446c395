package handler

import (
	"Linkboard/internal/api/dto"
	"Linkboard/internal/pkg/response"
	"Linkboard/internal/service"

	"github.com/gin-gonic/gin"
)

type LinkHandler struct {
	linkSvc      service.LinkService
	defaultLimit int
}

func NewLinkHandler(linkSvc service.LinkService, defaultLimit int) *LinkHandler {
	return &LinkHandler{linkSvc: linkSvc, defaultLimit: defaultLimit}
}

// ListLinks sort=score（默认）按分数排序，sort=trending 按热度
func (s *LinkHandler) ListLinks(c *gin.Context) {
	var req dto.LinkListReq
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, err)
		return
	}
	if req.Limit == 0 {
		req.Limit = s.defaultLimit
	}

	var (
		links []*dto.LinkDTO
		err   error
	)
	if req.Sort == "trending" {
		links, err = s.linkSvc.ListTrending(c.Request.Context(), req.Limit)
	} else {
		links, err = s.linkSvc.ListLinks(c.Request.Context(), req.Limit)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, links)
}
