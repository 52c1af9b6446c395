package api

import (
	"Linkboard/internal/api/dto"
	"Linkboard/internal/api/handler"
	"Linkboard/internal/api/middleware"
	"Linkboard/internal/bot"
	"Linkboard/internal/job"
	"Linkboard/internal/pkg/cron"
	"Linkboard/internal/repository"
	"Linkboard/internal/service"
	"Linkboard/internal/testutil"
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAdmin  = "1"
	testSecret = "webhook-secret"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.NewTestDB(t)
	testutil.NewTestRedis(t)

	linkRepo := repository.NewLinkRepo(db)
	admins := service.NewAdminList([]uint64{1})
	links := service.NewLinkService(linkRepo, 6*time.Hour)
	credits := service.NewCreditService(repository.NewUserRepo(db), 5, 3)
	access := service.NewAccessService(links, credits, admins, 1, 3, "")
	submissions := service.NewSubmissionService(links, time.Minute)

	cronMgr := cron.NewCronManager(job.NewLinkCleanupJob(linkRepo, admins, 3, time.Minute), 4)
	require.NoError(t, cronMgr.RegisterJobs())

	dispatcher := bot.NewDispatcher(links, credits, access, submissions, admins, cronMgr, 10)
	return SetupRouter(&HandlersGroup{
		BotHandler:   handler.NewBotHandler(dispatcher),
		LinkHandler:  handler.NewLinkHandler(links, 10),
		AdminHandler: handler.NewAdminHandler(links, cronMgr),
		Admins:       admins,

		WebhookSecret: testSecret,
	})
}

func do(t *testing.T, r *gin.Engine, method, path, userID string, body any) envelope {
	t.Helper()

	header := http.Header{}
	if userID != "" {
		header.Set(middleware.UserIDHeader, userID)
	}
	return doWithHeader(t, r, method, path, header, body)
}

// sendEvent 以平台回调的身份投递聊天事件
func sendEvent(t *testing.T, r *gin.Engine, body any) envelope {
	t.Helper()

	header := http.Header{}
	header.Set(middleware.WebhookSecretHeader, testSecret)
	return doWithHeader(t, r, http.MethodPost, "/api/bot/events", header, body)
}

func doWithHeader(t *testing.T, r *gin.Engine, method, path string, header http.Header, body any) envelope {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestBotEventsEndpoint(t *testing.T) {
	r := newTestRouter(t)

	env := sendEvent(t, r, dto.BotEventReq{
		Command:    "/add",
		FromUserID: 5,
		Text:       "Gopher chat | https://t.me/gopher_chat",
	})
	require.Equal(t, 200, env.Code)

	var reply bot.Reply
	require.NoError(t, json.Unmarshal(env.Data, &reply))
	assert.Equal(t, bot.KindLinkCreated, reply.Kind)
	require.NotNil(t, reply.Link)

	env = sendEvent(t, r, map[string]any{"command": "/links"})
	assert.Equal(t, 400, env.Code)

	env = do(t, r, http.MethodGet, "/api/links", "", nil)
	require.Equal(t, 200, env.Code)
	var links []*dto.LinkDTO
	require.NoError(t, json.Unmarshal(env.Data, &links))
	require.Len(t, links, 1)
	assert.Equal(t, "https://t.me/gopher_chat", links[0].URL)

	env = do(t, r, http.MethodGet, "/api/links?sort=trending", "", nil)
	require.Equal(t, 200, env.Code)
	require.NoError(t, json.Unmarshal(env.Data, &links))
	require.Len(t, links, 1)
	assert.NotNil(t, links[0].TrendingScore)

	env = do(t, r, http.MethodGet, "/api/links?sort=random", "", nil)
	assert.Equal(t, 400, env.Code)
}

func TestAdminEndpoints(t *testing.T) {
	r := newTestRouter(t)

	assert.Equal(t, 401, do(t, r, http.MethodGet, "/api/admin/cleanup", "", nil).Code)
	assert.Equal(t, 403, do(t, r, http.MethodGet, "/api/admin/cleanup", "2", nil).Code)

	env := do(t, r, http.MethodGet, "/api/admin/cleanup", testAdmin, nil)
	require.Equal(t, 200, env.Code)
	var status dto.CleanupStatusDTO
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, 4, status.RunsPerDay)
	assert.Len(t, status.NextRunTimes, 4)

	env = do(t, r, http.MethodPut, "/api/admin/cleanup", testAdmin, dto.CleanupScheduleReq{RunsPerDay: 25, RetentionDays: 2})
	assert.Equal(t, 400, env.Code)

	env = do(t, r, http.MethodPut, "/api/admin/cleanup", testAdmin, dto.CleanupScheduleReq{RunsPerDay: 3, RetentionDays: 2})
	require.Equal(t, 200, env.Code)
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, 3, status.RunsPerDay)
	assert.Equal(t, 2, status.RetentionDays)

	env = do(t, r, http.MethodPost, "/api/admin/cleanup/run", testAdmin, nil)
	require.Equal(t, 200, env.Code)
	var report dto.CleanupReportDTO
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 0, report.Removed)

	created := sendEvent(t, r, dto.BotEventReq{
		Command:    "/add",
		FromUserID: 5,
		Text:       "Removable | https://t.me/removable_group",
	})
	var reply bot.Reply
	require.NoError(t, json.Unmarshal(created.Data, &reply))
	require.NotNil(t, reply.Link)

	path := "/api/admin/links/" + strconv.FormatUint(reply.Link.ID, 10)
	assert.Equal(t, 200, do(t, r, http.MethodDelete, path, testAdmin, nil).Code)
	assert.Equal(t, 404, do(t, r, http.MethodDelete, path, testAdmin, nil).Code)
	assert.Equal(t, 400, do(t, r, http.MethodDelete, "/api/admin/links/abc", testAdmin, nil).Code)
}

func TestBotEventsRequireWebhookSecret(t *testing.T) {
	r := newTestRouter(t)

	created := sendEvent(t, r, dto.BotEventReq{
		Command:    "/add",
		FromUserID: 5,
		Text:       "Guarded | https://t.me/guarded_group",
	})
	var reply bot.Reply
	require.NoError(t, json.Unmarshal(created.Data, &reply))
	require.NotNil(t, reply.Link)

	// 冒充管理员删除链接
	forged := dto.BotEventReq{
		CallbackData: bot.FormatAction("delete", reply.Link.ID),
		FromUserID:   1,
	}
	assert.Equal(t, 401, do(t, r, http.MethodPost, "/api/bot/events", "", forged).Code)

	wrong := http.Header{}
	wrong.Set(middleware.WebhookSecretHeader, "guess")
	assert.Equal(t, 401, doWithHeader(t, r, http.MethodPost, "/api/bot/events", wrong, forged).Code)

	env := do(t, r, http.MethodGet, "/api/links", "", nil)
	var links []*dto.LinkDTO
	require.NoError(t, json.Unmarshal(env.Data, &links))
	assert.Len(t, links, 1)
}

func TestBotEventsClosedWithoutSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/events", middleware.WebhookSecretMiddleware(""), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodPost, "/events", nil)
	req.Header.Set(middleware.WebhookSecretHeader, "")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Body.String(), "invalid webhook secret")
}
