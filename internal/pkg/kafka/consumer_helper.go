package kafka

import (
	"Linkboard/internal/api/dto"
	"Linkboard/internal/bot"
	"Linkboard/internal/pkg/util"
	"context"
	log "log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/jinzhu/copier"
)

const (
	batchSize    = 32
	batchTimeout = 1 * time.Second
)

type LogicFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

// pullMessageBatch 攒批消费，满批或超时即处理一批
func pullMessageBatch(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, logic LogicFunc) error {
	batch := make([]*sarama.ConsumerMessage, 0, batchSize)
	ticker := time.NewTicker(batchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		processBatch(session, batch, logic)
		batch = make([]*sarama.ConsumerMessage, 0, batchSize)
	}

	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				flush()
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= batchSize {
				flush()
				ticker.Reset(batchTimeout)
			}
		case <-ticker.C:
			flush()
		case <-session.Context().Done():
			return nil
		}
	}
}

// processBatch 按消息 key（用户 ID）分组：同一用户的事件按 offset 顺序处理，不同用户并发
// 每条消息只处理一次，处理失败只记录不重试。
// 一批开始后即使会话结束（重平衡或停机）也处理完并提交整批，已分发的事件不会被重放
func processBatch(session sarama.ConsumerGroupSession, messages []*sarama.ConsumerMessage, logic LogicFunc) {
	if len(messages) == 0 {
		return
	}
	ctx := context.WithoutCancel(session.Context())
	var wg sync.WaitGroup

	for _, group := range groupByKey(messages) {
		wg.Add(1)
		go func(msgs []*sarama.ConsumerMessage) {
			defer wg.Done()
			for _, m := range msgs {
				if err := logic(ctx, m); err != nil {
					log.ErrorContext(ctx, "process message failed", "partition", m.Partition, "offset", m.Offset, "err", err)
				}
			}
		}(group)
	}
	wg.Wait()

	if session.Context().Err() != nil {
		log.Info("session ending, committing finished batch", "offset", messages[len(messages)-1].Offset, "count", len(messages))
	}
	session.MarkMessage(messages[len(messages)-1], "")
	session.Commit()
}

// groupByKey 保持每组内的原始顺序，组按首次出现的先后排列
func groupByKey(messages []*sarama.ConsumerMessage) [][]*sarama.ConsumerMessage {
	index := make(map[string]int)
	var groups [][]*sarama.ConsumerMessage
	for _, m := range messages {
		k := string(m.Key)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], m)
	}
	return groups
}

// ToBotEvent 将 kafka 消息解析为聊天事件
func ToBotEvent(msg *sarama.ConsumerMessage) (*bot.Event, error) {
	var req dto.BotEventReq
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		return nil, err
	}
	if err := util.ValidateDTO(&req); err != nil {
		return nil, err
	}

	ev := &bot.Event{}
	if err := copier.Copy(ev, &req); err != nil {
		return nil, err
	}
	return ev, nil
}
