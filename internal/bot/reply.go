package bot

import (
	"Linkboard/internal/api/dto"
	"Linkboard/internal/pkg/consts"
)

type Kind string

const (
	KindWelcome             Kind = "welcome"
	KindPrompt              Kind = "prompt"
	KindLinkCreated         Kind = "link_created"
	KindLinkDetail          Kind = "link_detail"
	KindLinkList            Kind = "link_list"
	KindVoteRecorded        Kind = "vote_recorded"
	KindDeleted             Kind = "deleted"
	KindCredits             Kind = "credits"
	KindCancelled           Kind = "cancelled"
	KindCleanupStatus       Kind = "cleanup_status"
	KindValidationError     Kind = "validation_error"
	KindNotFound            Kind = "not_found"
	KindAlreadyActed        Kind = "already_acted"
	KindInsufficientCredits Kind = "insufficient_credits"
	KindUnauthorized        Kind = "unauthorized"
	KindUnknown             Kind = "unknown"
	KindError               Kind = "error"
)

// Button 内联按钮，Data 与 URL 二选一
type Button struct {
	Text string `json:"text"`
	Data string `json:"data,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Reply 交给传输层渲染的结构化结果，不含任何平台相关的标记
type Reply struct {
	Kind     Kind                   `json:"kind"`
	Text     string                 `json:"text"`
	Link     *dto.LinkDTO           `json:"link,omitempty"`
	Links    []*dto.LinkDTO         `json:"links,omitempty"`
	Buttons  [][]Button             `json:"buttons,omitempty"`
	Reason   string                 `json:"reason,omitempty"`
	Status   *dto.CleanupStatusDTO  `json:"status,omitempty"`
	Credits  *dto.CreditDTO         `json:"credits,omitempty"`
	Referral *dto.ReferralPromptDTO `json:"referral,omitempty"`
}

func voteButtons(link *dto.LinkDTO) []Button {
	return []Button{
		{Text: "👍 Upvote", Data: FormatAction(consts.ActionUpvote, link.ID)},
		{Text: "👎 Downvote", Data: FormatAction(consts.ActionDownvote, link.ID)},
	}
}

func detailButtons(link *dto.LinkDTO) [][]Button {
	return [][]Button{
		{{Text: "Open group", URL: link.URL}},
		voteButtons(link),
	}
}

func listButtons(links []*dto.LinkDTO, action, label string) [][]Button {
	rows := make([][]Button, 0, len(links))
	for _, link := range links {
		rows = append(rows, []Button{{
			Text: label + link.Title,
			Data: FormatAction(action, link.ID),
		}})
	}
	return rows
}
