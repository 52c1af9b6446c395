package kafka

import (
	"Linkboard/internal/api/config"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理聊天事件消费者与回复生产者，未启用时 Start 只等待退出
type ConsumerManager struct {
	enabled bool
	topic   string

	eventsConsumer sarama.ConsumerGroup
	eventsHandler  sarama.ConsumerGroupHandler
	replyProducer  sarama.SyncProducer
}

// NewConsumerManager 构造函数
func NewConsumerManager(cfg *config.Config, dispatcher EventDispatcher) (*ConsumerManager, error) {
	if !cfg.KafkaEventConsumer.Enabled {
		return &ConsumerManager{}, nil
	}

	saramaCfg := newSaramaConfig(cfg.Kafka)

	eventsConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaEventConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	var producer sarama.SyncProducer
	if cfg.KafkaEventConsumer.ReplyTopic != "" {
		producer, err = sarama.NewSyncProducer(cfg.Kafka.Brokers, saramaCfg)
		if err != nil {
			_ = eventsConsumer.Close()
			return nil, err
		}
	}

	return &ConsumerManager{
		enabled:        true,
		topic:          cfg.KafkaEventConsumer.Topic,
		eventsConsumer: eventsConsumer,
		eventsHandler:  NewBotEventHandler(dispatcher, producer, cfg.KafkaEventConsumer.ReplyTopic),
		replyProducer:  producer,
	}, nil
}

// Start 阻塞直到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context) error {
	if !m.enabled {
		log.Info("Kafka event consumer disabled")
		<-ctx.Done()
		return nil
	}

	go func() {
		log.Info("Bot event consumer started", "topic", m.topic)
		for {
			if err := m.eventsConsumer.Consume(ctx, []string{m.topic}, m.eventsHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	go func() {
		for err := range m.eventsConsumer.Errors() {
			log.Error("Kafka consumer group error", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.eventsConsumer.Close(); err != nil {
		log.Error("Failed to close bot event consumer", "err", err)
	}
	if m.replyProducer != nil {
		if err := m.replyProducer.Close(); err != nil {
			log.Error("Failed to close reply producer", "err", err)
		}
	}
	return nil
}
