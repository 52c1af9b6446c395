package main

import (
	"Linkboard/internal/api/config"
	"Linkboard/internal/pkg/cron"
	"Linkboard/internal/pkg/database"
	"Linkboard/internal/pkg/logger"
	"Linkboard/internal/pkg/redis"
	"Linkboard/internal/wire"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		log.Error("Linkboard exited with error", "err", err)
		os.Exit(1)
	}
	log.Info("Linkboard exited")
}

func run() error {
	if err := config.LoadConfig(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := config.Cfg

	logger.InitLogger()

	db, err := database.NewGormDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if err = redis.InitRedis(cfg.Redis); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer func() { _ = redis.Close() }()

	app, err := wire.BuildApplication(db, cfg)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}

	// 收到信号即取消根 context，各组件据此退出
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	// 过期清理调度
	if err = cron.InitCron(app.CronMgr); err != nil {
		return fmt.Errorf("start cleanup schedule: %w", err)
	}
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Cleanup schedule stopping...")
		app.CronMgr.Stop()
		return nil
	})

	// 聊天事件消费
	g.Go(func() error {
		return app.KafkaManager.Start(ctx)
	})

	// webhook 与管理接口
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown failed", "err", err)
		}
		return nil
	})

	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
