// Package bot 把聊天事件分发到业务服务，并把结果整理为结构化回复
package bot

import (
	"Linkboard/internal/api/dto"
	"Linkboard/internal/pkg/consts"
	"Linkboard/internal/pkg/logger"
	"Linkboard/internal/service"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"runtime/debug"
	"strconv"
	"strings"
)

// Event 传输层送来的事件，CallbackData 不为空时按按钮回调处理
type Event struct {
	Command      string `json:"command"`
	CallbackData string `json:"callback_data"`
	FromUserID   uint64 `json:"from_user_id"`
	Text         string `json:"text"`
}

// Scheduler 过期清理调度器的管理接口
type Scheduler interface {
	Setup(runsPerDay, retentionDays int) error
	Status() *dto.CleanupStatusDTO
}

type Dispatcher struct {
	links       service.LinkService
	credits     service.CreditService
	access      service.AccessService
	submissions service.SubmissionService
	admins      *service.AdminList
	scheduler   Scheduler
	listLimit   int
}

func NewDispatcher(
	links service.LinkService,
	credits service.CreditService,
	access service.AccessService,
	submissions service.SubmissionService,
	admins *service.AdminList,
	scheduler Scheduler,
	listLimit int,
) *Dispatcher {
	if listLimit <= 0 {
		listLimit = 10
	}
	return &Dispatcher{
		links:       links,
		credits:     credits,
		access:      access,
		submissions: submissions,
		admins:      admins,
		scheduler:   scheduler,
		listLimit:   listLimit,
	}
}

// Dispatch 处理单个事件。任何 panic 都在这里兜住，保证进程存活
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (reply *Reply) {
	ctx = logger.WithTraceID(ctx, "bot-")
	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "dispatch panic", "user_id", ev.FromUserID, "panic", r, "stack", string(debug.Stack()))
			reply = &Reply{Kind: KindError, Text: service.ErrStorage.Error()}
		}
	}()

	if ev.CallbackData != "" {
		return d.handleCallback(ctx, ev.FromUserID, ev.CallbackData)
	}

	command, args := splitCommand(ev.Command, ev.Text)
	if command == "" {
		return d.handleText(ctx, ev.FromUserID, ev.Text)
	}
	return d.handleCommand(ctx, ev.FromUserID, command, args)
}

func (d *Dispatcher) handleCommand(ctx context.Context, userID uint64, command, args string) *Reply {
	switch command {
	case "start":
		return d.start(ctx, userID, args)
	case "add":
		return d.add(ctx, userID, args)
	case "links":
		return d.list(ctx, userID)
	case "mylinks":
		return d.listOwn(ctx, userID)
	case "credits":
		return d.showCredits(ctx, userID)
	case "cancel":
		return d.cancel(ctx, userID)
	case "del":
		return d.adminOnly(userID, func() *Reply { return d.deletePrompt(ctx) })
	case "cleanup_status":
		return d.adminOnly(userID, func() *Reply { return d.cleanupStatus() })
	case "set_cleanup":
		return d.adminOnly(userID, func() *Reply { return d.setCleanup(ctx, args) })
	}
	return unknownReply()
}

func (d *Dispatcher) handleCallback(ctx context.Context, userID uint64, data string) *Reply {
	action, err := ParseAction(data)
	if err != nil {
		return unknownReply()
	}

	switch action.Name {
	case consts.ActionUpvote, consts.ActionDownvote:
		link, err := d.links.Vote(ctx, action.LinkID, userID, action.Name == consts.ActionUpvote)
		if err != nil {
			return d.errorReply(ctx, err)
		}
		return &Reply{
			Kind:    KindVoteRecorded,
			Text:    "Thanks, your vote was recorded.",
			Link:    link,
			Buttons: detailButtons(link),
		}

	case consts.ActionViewLink:
		view, err := d.access.ViewLink(ctx, userID, action.LinkID)
		if err != nil {
			return d.errorReply(ctx, err)
		}
		reply := &Reply{
			Kind:    KindLinkDetail,
			Text:    view.Link.Title,
			Link:    view.Link,
			Buttons: detailButtons(view.Link),
		}
		if view.RemainingCredits != nil {
			reply.Credits = &dto.CreditDTO{UserID: userID, Credits: *view.RemainingCredits}
		}
		return reply

	case consts.ActionDelete:
		return d.adminOnly(userID, func() *Reply {
			deleted, err := d.links.DeleteLink(ctx, action.LinkID)
			if err != nil {
				return d.errorReply(ctx, err)
			}
			if !deleted {
				return d.errorReply(ctx, service.ErrLinkNotFound)
			}
			log.InfoContext(ctx, "link deleted by admin", "link_id", action.LinkID, "user_id", userID)
			return &Reply{Kind: KindDeleted, Text: fmt.Sprintf("Link %d deleted.", action.LinkID)}
		})
	}
	return unknownReply()
}

// handleText 普通文本只在有进行中的提交时有意义
func (d *Dispatcher) handleText(ctx context.Context, userID uint64, text string) *Reply {
	step, err := d.submissions.Advance(ctx, userID, text)
	if err != nil {
		if errors.Is(err, service.ErrNoPendingSubmission) {
			return unknownReply()
		}
		return d.errorReply(ctx, err)
	}
	return stepReply(step)
}

func (d *Dispatcher) start(ctx context.Context, userID uint64, args string) *Reply {
	user, created, err := d.credits.EnsureUser(ctx, userID)
	if err != nil {
		return d.errorReply(ctx, err)
	}

	if created && args != "" {
		if referrerID, err := strconv.ParseUint(strings.TrimSpace(args), 10, 64); err == nil {
			applied, err := d.credits.RegisterReferral(ctx, userID, referrerID)
			if err != nil {
				log.WarnContext(ctx, "referral ignored", "user_id", userID, "referrer_id", referrerID, "err", err)
			} else if applied {
				log.InfoContext(ctx, "referral applied", "user_id", userID, "referrer_id", referrerID)
			}
		}
	}

	return &Reply{
		Kind: KindWelcome,
		Text: "Welcome! Use /add to share a group or /links to browse the top links. /mylinks lists your submissions and /credits shows your balance.",
		Credits: &dto.CreditDTO{
			UserID:    user.UserID,
			Credits:   user.Credits,
			Unlimited: d.admins.IsPrivileged(userID),
		},
		Referral: d.access.ReferralPrompt(userID),
	}
}

// add 支持三种形式：/add；/add 标题；/add 标题 | 链接
func (d *Dispatcher) add(ctx context.Context, userID uint64, args string) *Reply {
	args = strings.TrimSpace(args)
	if title, rawURL, ok := strings.Cut(args, "|"); ok {
		link, err := d.links.AddLink(ctx, userID, title, strings.TrimSpace(rawURL))
		if err != nil {
			return d.errorReply(ctx, err)
		}
		_, _ = d.submissions.Cancel(ctx, userID)
		return createdReply(link)
	}

	if err := d.submissions.Begin(ctx, userID); err != nil {
		return d.errorReply(ctx, err)
	}
	if args == "" {
		return &Reply{Kind: KindPrompt, Text: "Send the title of the group (3-100 characters). Use /cancel to stop."}
	}
	return d.handleText(ctx, userID, args)
}

func (d *Dispatcher) list(ctx context.Context, userID uint64) *Reply {
	links, err := d.links.ListLinks(ctx, d.listLimit)
	if err != nil {
		return d.errorReply(ctx, err)
	}
	if len(links) == 0 {
		return &Reply{Kind: KindLinkList, Text: "No links yet. Be the first with /add."}
	}

	reply := &Reply{
		Kind:    KindLinkList,
		Text:    "Top links",
		Links:   links,
		Buttons: listButtons(links, consts.ActionViewLink, "🔗 "),
	}
	if d.admins.IsAdmin(userID) {
		reply.Buttons = append(reply.Buttons, listButtons(links, consts.ActionDelete, "🗑 ")...)
	}
	return reply
}

// listOwn 用户自己提交的链接，按提交时间倒序
func (d *Dispatcher) listOwn(ctx context.Context, userID uint64) *Reply {
	links, err := d.links.ListUserLinks(ctx, userID)
	if err != nil {
		return d.errorReply(ctx, err)
	}
	if len(links) == 0 {
		return &Reply{Kind: KindLinkList, Text: "You have not submitted any links yet. Use /add."}
	}
	return &Reply{
		Kind:    KindLinkList,
		Text:    fmt.Sprintf("Your links (%d)", len(links)),
		Links:   links,
		Buttons: listButtons(links, consts.ActionViewLink, "🔗 "),
	}
}

func (d *Dispatcher) showCredits(ctx context.Context, userID uint64) *Reply {
	if d.admins.IsPrivileged(userID) {
		return &Reply{
			Kind:    KindCredits,
			Text:    "You have unlimited credits.",
			Credits: &dto.CreditDTO{UserID: userID, Unlimited: true},
		}
	}

	balance, err := d.credits.GetBalance(ctx, userID)
	if err != nil {
		return d.errorReply(ctx, err)
	}
	return &Reply{
		Kind:     KindCredits,
		Text:     fmt.Sprintf("You have %d credits.", balance.Credits),
		Credits:  balance,
		Referral: d.access.ReferralPrompt(userID),
	}
}

func (d *Dispatcher) cancel(ctx context.Context, userID uint64) *Reply {
	cancelled, err := d.submissions.Cancel(ctx, userID)
	if err != nil {
		return d.errorReply(ctx, err)
	}
	if !cancelled {
		return &Reply{Kind: KindCancelled, Text: "Nothing to cancel."}
	}
	return &Reply{Kind: KindCancelled, Text: "Submission cancelled."}
}

func (d *Dispatcher) deletePrompt(ctx context.Context) *Reply {
	links, err := d.links.ListLinks(ctx, 0)
	if err != nil {
		return d.errorReply(ctx, err)
	}
	return &Reply{
		Kind:    KindLinkList,
		Text:    "Choose a link to delete",
		Links:   links,
		Buttons: listButtons(links, consts.ActionDelete, "🗑 "),
	}
}

func (d *Dispatcher) cleanupStatus() *Reply {
	return &Reply{
		Kind:   KindCleanupStatus,
		Text:   "Cleanup schedule",
		Status: d.scheduler.Status(),
	}
}

func (d *Dispatcher) setCleanup(ctx context.Context, args string) *Reply {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return setCleanupUsage()
	}
	runsPerDay, err1 := strconv.Atoi(fields[0])
	retentionDays, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return setCleanupUsage()
	}

	if err := d.scheduler.Setup(runsPerDay, retentionDays); err != nil {
		log.ErrorContext(ctx, "update cleanup schedule failed", "err", err)
		return d.errorReply(ctx, err)
	}
	reply := d.cleanupStatus()
	reply.Text = "Cleanup schedule updated"
	return reply
}

func (d *Dispatcher) adminOnly(userID uint64, fn func() *Reply) *Reply {
	if !d.admins.IsAdmin(userID) {
		return &Reply{Kind: KindUnauthorized, Text: service.ErrUnauthorized.Error()}
	}
	return fn()
}

// errorReply 把业务错误转换为中性的用户回复
func (d *Dispatcher) errorReply(ctx context.Context, err error) *Reply {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return &Reply{Kind: KindValidationError, Text: ve.Reason, Reason: ve.Reason}
	}

	var denied *service.CreditDeniedError
	if errors.As(err, &denied) {
		return &Reply{
			Kind:     KindInsufficientCredits,
			Text:     fmt.Sprintf("You are out of credits. Invite friends to earn %d credits each.", denied.Prompt.ReferralBonus),
			Reason:   service.ErrInsufficientCredits.Error(),
			Referral: denied.Prompt,
		}
	}

	switch {
	case errors.Is(err, service.ErrAlreadyActed):
		return &Reply{Kind: KindAlreadyActed, Text: err.Error(), Reason: err.Error()}
	case errors.Is(err, service.ErrLinkNotFound), errors.Is(err, service.ErrUserNotFound):
		return &Reply{Kind: KindNotFound, Text: "Link not found.", Reason: err.Error()}
	case errors.Is(err, service.ErrUnauthorized):
		return &Reply{Kind: KindUnauthorized, Text: err.Error()}
	}

	if !errors.Is(err, service.ErrStorage) {
		log.ErrorContext(ctx, "unexpected dispatch error", "err", err)
	}
	return &Reply{Kind: KindError, Text: service.MessageOf(err)}
}

func stepReply(step *service.SubmissionStep) *Reply {
	if step.Stage == service.StageDone {
		return createdReply(step.Link)
	}
	return &Reply{
		Kind: KindPrompt,
		Text: fmt.Sprintf("Title %q saved. Now send the group link (https://t.me/...).", step.Title),
	}
}

func createdReply(link *dto.LinkDTO) *Reply {
	return &Reply{
		Kind:    KindLinkCreated,
		Text:    "Link added: " + link.Title,
		Link:    link,
		Buttons: detailButtons(link),
	}
}

func unknownReply() *Reply {
	return &Reply{Kind: KindUnknown, Text: "Unknown action. Try /links or /add."}
}

func setCleanupUsage() *Reply {
	reason := "Usage: /set_cleanup <runs_per_day 1-24> <retention_days >= 1>"
	return &Reply{Kind: KindValidationError, Text: reason, Reason: reason}
}

// splitCommand 兼容 Command 单独传入或整条消息以 / 开头两种形式，去掉 @botname 后缀
// 两者都给出时 Text 可能带着同一个命令，需要去掉
func splitCommand(command, text string) (string, string) {
	trimmed := strings.TrimSpace(text)
	if command == "" {
		if !strings.HasPrefix(trimmed, "/") {
			return "", text
		}
		head, rest, _ := strings.Cut(trimmed, " ")
		return normalizeCommand(head), strings.TrimSpace(rest)
	}

	command = normalizeCommand(command)
	if strings.HasPrefix(trimmed, "/") {
		head, rest, _ := strings.Cut(trimmed, " ")
		if normalizeCommand(head) == command {
			return command, strings.TrimSpace(rest)
		}
	}
	return command, trimmed
}

func normalizeCommand(token string) string {
	token = strings.TrimPrefix(strings.TrimSpace(token), "/")
	if at := strings.Index(token, "@"); at >= 0 {
		token = token[:at]
	}
	return strings.ToLower(token)
}
