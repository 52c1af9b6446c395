package kafka

import (
	"Linkboard/internal/bot"
	"Linkboard/internal/pkg/logger"
	"context"
	log "log/slog"
	"strconv"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// EventDispatcher 处理单个聊天事件
type EventDispatcher interface {
	Dispatch(ctx context.Context, ev bot.Event) *bot.Reply
}

// ReplyMessage 写回 reply topic 的消息体，key 为用户 ID
type ReplyMessage struct {
	UserID  uint64     `json:"user_id"`
	TraceID string     `json:"trace_id"`
	Reply   *bot.Reply `json:"reply"`
}

type BotEventHandler struct {
	dispatcher EventDispatcher
	producer   sarama.SyncProducer
	replyTopic string
}

func NewBotEventHandler(dispatcher EventDispatcher, producer sarama.SyncProducer, replyTopic string) *BotEventHandler {
	return &BotEventHandler{
		dispatcher: dispatcher,
		producer:   producer,
		replyTopic: replyTopic,
	}
}

func (s *BotEventHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("bot event consumer setup")
	return nil
}

func (s *BotEventHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("bot event consumer cleanup")
	return nil
}

func (s *BotEventHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("topic-bot-events consume claim", "partition", claim.Partition())
	err := pullMessageBatch(session, claim, s.logic)
	if err != nil {
		log.Error("topic-bot-events process batch error", "err", err)
		return err
	}
	return nil
}

// logic 事件只分发一次：无法解析的消息直接丢弃，回复发送失败只记录，避免重试导致重复扣费
func (s *BotEventHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	ctx = logger.WithTraceID(ctx, "kafka-")

	ev, err := ToBotEvent(msg)
	if err != nil {
		log.WarnContext(ctx, "drop malformed bot event", "offset", msg.Offset, "err", err)
		return nil
	}

	reply := s.dispatcher.Dispatch(ctx, *ev)
	if s.producer == nil || s.replyTopic == "" {
		return nil
	}

	payload, err := json.Marshal(&ReplyMessage{
		UserID:  ev.FromUserID,
		TraceID: logger.TraceID(ctx),
		Reply:   reply,
	})
	if err != nil {
		log.ErrorContext(ctx, "marshal bot reply failed", "user_id", ev.FromUserID, "err", err)
		return nil
	}

	_, _, err = s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.replyTopic,
		Key:   sarama.StringEncoder(strconv.FormatUint(ev.FromUserID, 10)),
		Value: sarama.ByteEncoder(payload),
	})
	if err != nil {
		log.ErrorContext(ctx, "publish bot reply failed", "user_id", ev.FromUserID, "kind", reply.Kind, "err", err)
	}
	return nil
}
