package wire

import (
	"Linkboard/internal/api"
	"Linkboard/internal/api/config"
	"Linkboard/internal/api/handler"
	"Linkboard/internal/bot"
	"Linkboard/internal/job"
	"Linkboard/internal/pkg/cron"
	"Linkboard/internal/pkg/kafka"
	"Linkboard/internal/repository"
	"Linkboard/internal/service"
	log "log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	Dispatcher   *bot.Dispatcher
	CronMgr      *cron.Manager
	KafkaManager *kafka.ConsumerManager
}

func BuildApplication(db *gorm.DB, cfg *config.Config) (*ApplicationContainer, error) {
	linkRepo := repository.NewLinkRepo(db)
	userRepo := repository.NewUserRepo(db)

	admins := service.NewAdminList(cfg.Bot.Admins)
	log.Info("admin allow-list loaded", "admins", admins.IDs())
	linkService := service.NewLinkService(linkRepo, time.Duration(cfg.Bot.TrendingWindowHr)*time.Hour)
	creditService := service.NewCreditService(userRepo, cfg.Bot.InitialCredits, cfg.Bot.ReferralBonus)
	accessService := service.NewAccessService(linkService, creditService, admins,
		cfg.Bot.ViewCost, cfg.Bot.ReferralBonus, cfg.Bot.BotUsername)
	submissionService := service.NewSubmissionService(linkService, time.Duration(cfg.Bot.PendingTTL)*time.Second)

	cleanupJob := job.NewLinkCleanupJob(linkRepo, admins, cfg.Cleanup.RetentionDays, time.Duration(cfg.Cleanup.LockTTL)*time.Second)
	cronMgr := cron.NewCronManager(cleanupJob, cfg.Cleanup.RunsPerDay)

	dispatcher := bot.NewDispatcher(linkService, creditService, accessService, submissionService,
		admins, cronMgr, cfg.Bot.ListLimit)

	handlers := &api.HandlersGroup{
		BotHandler:   handler.NewBotHandler(dispatcher),
		LinkHandler:  handler.NewLinkHandler(linkService, cfg.Bot.ListLimit),
		AdminHandler: handler.NewAdminHandler(linkService, cronMgr),
		Admins:       admins,

		WebhookSecret: cfg.Bot.WebhookSecret,
	}
	if cfg.Bot.WebhookSecret == "" {
		log.Warn("bot.webhook_secret is empty, POST /api/bot/events will reject every request")
	}

	router := api.SetupRouter(handlers)

	kafkaMgr, err := kafka.NewConsumerManager(cfg, dispatcher)
	if err != nil {
		return nil, err
	}

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		Dispatcher:   dispatcher,
		CronMgr:      cronMgr,
		KafkaManager: kafkaMgr,
	}, nil
}
