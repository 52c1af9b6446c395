package bot

import (
	"Linkboard/internal/api/dto"
	"Linkboard/internal/repository"
	"Linkboard/internal/service"
	"Linkboard/internal/testutil"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminID = 1

type fakeScheduler struct {
	runsPerDay    int
	retentionDays int
}

func (f *fakeScheduler) Setup(runsPerDay, retentionDays int) error {
	f.runsPerDay, f.retentionDays = runsPerDay, retentionDays
	return nil
}

func (f *fakeScheduler) Status() *dto.CleanupStatusDTO {
	return &dto.CleanupStatusDTO{RunsPerDay: f.runsPerDay, RetentionDays: f.retentionDays}
}

type fixture struct {
	d         *Dispatcher
	credits   service.CreditService
	scheduler *fakeScheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	testutil.NewTestRedis(t)

	admins := service.NewAdminList([]uint64{adminID})
	links := service.NewLinkService(repository.NewLinkRepo(db), 6*time.Hour)
	credits := service.NewCreditService(repository.NewUserRepo(db), 5, 3)
	access := service.NewAccessService(links, credits, admins, 1, 3, "")
	submissions := service.NewSubmissionService(links, time.Minute)
	scheduler := &fakeScheduler{runsPerDay: 4, retentionDays: 3}

	return &fixture{
		d:         NewDispatcher(links, credits, access, submissions, admins, scheduler, 10),
		credits:   credits,
		scheduler: scheduler,
	}
}

func (f *fixture) send(userID uint64, text string) *Reply {
	return f.d.Dispatch(context.Background(), Event{FromUserID: userID, Text: text})
}

func (f *fixture) press(userID uint64, data string) *Reply {
	return f.d.Dispatch(context.Background(), Event{FromUserID: userID, CallbackData: data})
}

func TestDispatcher_CreateAndVoteOnce(t *testing.T) {
	f := newFixture(t)

	created := f.send(10, "/add Go meetup | https://t.me/go_meetup")
	require.Equal(t, KindLinkCreated, created.Kind)
	require.NotNil(t, created.Link)
	id := created.Link.ID

	voted := f.press(10, FormatAction("upvote", id))
	require.Equal(t, KindVoteRecorded, voted.Kind)
	assert.Equal(t, 1, voted.Link.Upvotes)
	assert.InDelta(t, 3.5, voted.Link.Score, 1e-9)

	again := f.press(10, FormatAction("downvote", id))
	assert.Equal(t, KindAlreadyActed, again.Kind)

	list := f.send(11, "/links")
	require.Equal(t, KindLinkList, list.Kind)
	require.Len(t, list.Links, 1)
	assert.Equal(t, 1, list.Links[0].Upvotes)
	assert.Equal(t, 0, list.Links[0].Downvotes)
	assert.Equal(t, FormatAction("view_link", id), list.Buttons[0][0].Data)
}

func TestDispatcher_PendingSubmission(t *testing.T) {
	f := newFixture(t)

	prompt := f.send(20, "/add")
	assert.Equal(t, KindPrompt, prompt.Kind)

	invalid := f.send(20, "no")
	assert.Equal(t, KindValidationError, invalid.Kind)
	assert.Equal(t, "Title must be at least 3 characters long", invalid.Reason)

	next := f.send(20, "Python learners")
	assert.Equal(t, KindPrompt, next.Kind)

	created := f.send(20, "t.me/python_learners")
	require.Equal(t, KindLinkCreated, created.Kind)
	assert.Equal(t, "https://t.me/python_learners", created.Link.URL)

	assert.Equal(t, KindUnknown, f.send(20, "stray text").Kind)
}

func TestDispatcher_CancelSubmission(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, KindPrompt, f.send(21, "/add Kotlin club").Kind)
	cancelled := f.send(21, "/cancel")
	assert.Equal(t, "Submission cancelled.", cancelled.Text)
	assert.Equal(t, "Nothing to cancel.", f.send(21, "/cancel").Text)
}

func TestDispatcher_ViewLinkGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := f.send(adminID, "/add Gated | https://t.me/gated_group")
	require.Equal(t, KindLinkCreated, created.Kind)
	data := FormatAction("view_link", created.Link.ID)

	detail := f.press(30, data)
	require.Equal(t, KindLinkDetail, detail.Kind)
	require.NotNil(t, detail.Credits)
	assert.Equal(t, 4, detail.Credits.Credits)
	assert.Equal(t, "https://t.me/gated_group", detail.Buttons[0][0].URL)

	ok, err := f.credits.Debit(ctx, 30, 4)
	require.NoError(t, err)
	require.True(t, ok)

	denied := f.press(30, data)
	assert.Equal(t, KindInsufficientCredits, denied.Kind)
	require.NotNil(t, denied.Referral)
	assert.Equal(t, "/start 30", denied.Referral.StartPayload)

	admin := f.press(adminID, data)
	assert.Equal(t, KindLinkDetail, admin.Kind)
	assert.Nil(t, admin.Credits)

	assert.Equal(t, KindNotFound, f.press(30, "view_link_999").Kind)
}

func TestDispatcher_StartWithReferral(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	welcome := f.send(40, "/start")
	require.Equal(t, KindWelcome, welcome.Kind)
	assert.Equal(t, 5, welcome.Credits.Credits)

	f.send(41, "/start 40")
	f.send(41, "/start 40")
	f.send(42, "/start 42")

	balance, err := f.credits.GetBalance(ctx, 40)
	require.NoError(t, err)
	assert.Equal(t, 8, balance.Credits)

	self, err := f.credits.GetBalance(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 5, self.Credits)
	assert.Nil(t, self.ReferredBy)

	// 平台同时给出 command 与完整文本
	f.d.Dispatch(ctx, Event{FromUserID: 43, Command: "/start", Text: "/start 40"})
	balance, err = f.credits.GetBalance(ctx, 40)
	require.NoError(t, err)
	assert.Equal(t, 11, balance.Credits)
}

func TestDispatcher_AdminCommands(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, KindUnauthorized, f.send(50, "/set_cleanup 2 5").Kind)
	assert.Equal(t, KindUnauthorized, f.send(50, "/cleanup_status").Kind)
	assert.Equal(t, KindUnauthorized, f.press(50, "delete_1").Kind)

	updated := f.send(adminID, "/set_cleanup 2 5")
	require.Equal(t, KindCleanupStatus, updated.Kind)
	assert.Equal(t, 2, f.scheduler.runsPerDay)
	assert.Equal(t, 5, updated.Status.RetentionDays)

	assert.Equal(t, KindValidationError, f.send(adminID, "/set_cleanup two").Kind)

	created := f.send(50, "/add Doomed | https://t.me/doomed_group")
	require.Equal(t, KindLinkCreated, created.Kind)
	data := FormatAction("delete", created.Link.ID)

	assert.Equal(t, KindDeleted, f.press(adminID, data).Kind)
	assert.Equal(t, KindNotFound, f.press(adminID, data).Kind)
}

func TestDispatcher_UnknownInput(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, KindUnknown, f.press(1, "share_42").Kind)
	assert.Equal(t, KindUnknown, f.send(1, "/nonsense").Kind)
}

func TestDispatcher_MyLinks(t *testing.T) {
	f := newFixture(t)

	empty := f.send(60, "/mylinks")
	assert.Equal(t, KindLinkList, empty.Kind)
	assert.Empty(t, empty.Links)

	f.send(60, "/add First group | https://t.me/first_group")
	f.send(61, "/add Other group | https://t.me/other_group")
	f.send(60, "/add Second group | https://t.me/second_group")

	own := f.send(60, "/mylinks")
	require.Len(t, own.Links, 2)
	for _, link := range own.Links {
		assert.Equal(t, uint64(60), link.UserID)
	}
	assert.Len(t, own.Buttons, 2)
}
