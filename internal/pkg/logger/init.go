package logger

import (
	"Linkboard/internal/api/config"
	"io"
	log "log/slog"
	"net"
	"os"
	"time"
)

// LogWriter gin 访问日志的输出目标，连上 Logstash 后切换为远程连接
var LogWriter io.Writer = os.Stdout

func InitLogger() {
	cfg := config.Cfg.Logstash

	stdout := log.NewJSONHandler(os.Stdout, &log.HandlerOptions{Level: log.LevelInfo})

	var root log.Handler = stdout

	if cfg.Address != "" {
		conn, err := net.DialTimeout("tcp", cfg.Address, 3*time.Second)
		if err == nil {
			remote := log.NewJSONHandler(conn, &log.HandlerOptions{Level: log.LevelInfo}).
				WithAttrs([]log.Attr{
					log.String("service", "linkboard"),
					log.String("target_index", cfg.Index),
					log.String("log_token", cfg.Token),
				})

			root = newFanoutHandler(stdout, &shipFilterHandler{next: remote})
			LogWriter = conn
		} else {
			log.Warn("Logstash unreachable, logging to stdout only", "addr", cfg.Address, "err", err)
		}
	}

	log.SetDefault(log.New(&ContextHandler{root}))
}
