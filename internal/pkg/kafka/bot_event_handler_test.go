package kafka

import (
	"Linkboard/internal/bot"
	"Linkboard/internal/pkg/logger"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	mu     sync.Mutex
	events []bot.Event
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, ev bot.Event) *bot.Reply {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
	return &bot.Reply{Kind: bot.KindLinkList, Text: "Top links", Reason: logger.TraceID(ctx)}
}

func TestBotEventHandler_DispatchesAndPublishesReply(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var msg ReplyMessage
		if err := json.Unmarshal(val, &msg); err != nil {
			return err
		}
		if msg.UserID != 7 || msg.Reply == nil || msg.Reply.Kind != bot.KindLinkList {
			return errors.New("unexpected reply payload")
		}
		if msg.TraceID == "" {
			return errors.New("missing trace id")
		}
		return nil
	})

	dispatcher := &recordingDispatcher{}
	h := NewBotEventHandler(dispatcher, producer, "linkboard.bot.replies")

	err := h.logic(context.Background(), &sarama.ConsumerMessage{
		Value: []byte(`{"command":"/links","from_user_id":7}`),
	})
	require.NoError(t, err)
	require.NoError(t, producer.Close())

	require.Len(t, dispatcher.events, 1)
	assert.Equal(t, "/links", dispatcher.events[0].Command)
	assert.Equal(t, uint64(7), dispatcher.events[0].FromUserID)
}

func TestBotEventHandler_DropsMalformedMessages(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	dispatcher := &recordingDispatcher{}
	h := NewBotEventHandler(dispatcher, producer, "linkboard.bot.replies")

	for _, raw := range []string{`not json`, `{"command":"/links"}`} {
		err := h.logic(context.Background(), &sarama.ConsumerMessage{Value: []byte(raw)})
		assert.NoError(t, err)
	}
	require.NoError(t, producer.Close())
	assert.Empty(t, dispatcher.events)
}

func TestBotEventHandler_PublishFailureIsNotRetried(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	dispatcher := &recordingDispatcher{}
	h := NewBotEventHandler(dispatcher, producer, "linkboard.bot.replies")

	err := h.logic(context.Background(), &sarama.ConsumerMessage{
		Value: []byte(`{"callback_data":"upvote_3","from_user_id":9}`),
	})
	assert.NoError(t, err)
	require.NoError(t, producer.Close())
	assert.Len(t, dispatcher.events, 1)
}

func TestToBotEvent(t *testing.T) {
	ev, err := ToBotEvent(&sarama.ConsumerMessage{Value: []byte(`{"text":"hello","from_user_id":3}`)})
	require.NoError(t, err)
	assert.Equal(t, "hello", ev.Text)
	assert.Equal(t, uint64(3), ev.FromUserID)

	_, err = ToBotEvent(&sarama.ConsumerMessage{Value: []byte(`{"text":"hello"}`)})
	assert.Error(t, err)
}

func TestGroupByKey_KeepsPerUserOrder(t *testing.T) {
	msg := func(key string, offset int64) *sarama.ConsumerMessage {
		return &sarama.ConsumerMessage{Key: []byte(key), Offset: offset}
	}
	groups := groupByKey([]*sarama.ConsumerMessage{
		msg("7", 1), msg("9", 2), msg("7", 3), msg("7", 4), msg("9", 5),
	})

	require.Len(t, groups, 2)
	offsets := func(g []*sarama.ConsumerMessage) []int64 {
		out := make([]int64, 0, len(g))
		for _, m := range g {
			out = append(out, m.Offset)
		}
		return out
	}
	assert.Equal(t, []int64{1, 3, 4}, offsets(groups[0]))
	assert.Equal(t, []int64{2, 5}, offsets(groups[1]))
}
