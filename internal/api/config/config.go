package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg
func LoadConfig() error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")

	v.SetEnvPrefix("LINKBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.max_idle", 10)
	v.SetDefault("database.max_open", 50)
	v.SetDefault("database.max_lifetime", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pool_size", 20)

	v.SetDefault("kafka.consumer.session_timeout", 30)
	v.SetDefault("kafka.consumer.heartbeat_interval", 3)
	v.SetDefault("kafka.consumer.rebalance_timeout", 60)
	v.SetDefault("kafka.consumer.max_processing_time", 5)
	v.SetDefault("kafka_event_consumer.topic", "linkboard.bot.events")
	v.SetDefault("kafka_event_consumer.group_id", "linkboard-bot")
	v.SetDefault("kafka_event_consumer.reply_topic", "linkboard.bot.replies")

	v.SetDefault("bot.initial_credits", 5)
	v.SetDefault("bot.referral_bonus", 3)
	v.SetDefault("bot.view_cost", 1)
	v.SetDefault("bot.pending_ttl", 300)
	v.SetDefault("bot.list_limit", 10)
	v.SetDefault("bot.trending_window_hours", 6)
	v.SetDefault("bot.webhook_secret", "")

	v.SetDefault("cleanup.runs_per_day", 4)
	v.SetDefault("cleanup.retention_days", 3)
	v.SetDefault("cleanup.lock_ttl", 600)

	v.SetDefault("logstash.index", "logstash-linkboard")
}
