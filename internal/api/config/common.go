package config

// Config 配置主体
type Config struct {
	Server             ServerConfig             `mapstructure:"server"`
	DB                 DBConfig                 `mapstructure:"database"`
	Redis              RedisConfig              `mapstructure:"redis"`
	Kafka              KafkaConfig              `mapstructure:"kafka"`
	KafkaEventConsumer KafkaEventConsumerConfig `mapstructure:"kafka_event_consumer"`
	Bot                BotConfig                `mapstructure:"bot"`
	Cleanup            CleanupConfig            `mapstructure:"cleanup"`
	Logstash           LogstashConfig           `mapstructure:"logstash"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	Driver      string `mapstructure:"driver"` // mysql | sqlite
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type KafkaConfig struct {
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

// KafkaEventConsumerConfig 聊天事件消费者，关闭时仅通过 HTTP webhook 接收事件
type KafkaEventConsumerConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Topic      string `mapstructure:"topic"`
	GroupID    string `mapstructure:"group_id"`
	ReplyTopic string `mapstructure:"reply_topic"`
}

// BotConfig 机器人业务配置
type BotConfig struct {
	Admins           []uint64 `mapstructure:"admins"`
	InitialCredits   int      `mapstructure:"initial_credits"`
	ReferralBonus    int      `mapstructure:"referral_bonus"`
	ViewCost         int      `mapstructure:"view_cost"`
	PendingTTL       int      `mapstructure:"pending_ttl"` // 秒
	ListLimit        int      `mapstructure:"list_limit"`
	BotUsername      string   `mapstructure:"bot_username"`
	WebhookSecret    string   `mapstructure:"webhook_secret"`
	TrendingWindowHr int      `mapstructure:"trending_window_hours"`
}

// CleanupConfig 过期清理默认计划
type CleanupConfig struct {
	RunsPerDay    int `mapstructure:"runs_per_day"`
	RetentionDays int `mapstructure:"retention_days"`
	LockTTL       int `mapstructure:"lock_ttl"` // 秒
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}
