package kafka

import (
	"context"
	"sync"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSession 只记录 MarkMessage 与 Commit
type fakeSession struct {
	ctx       context.Context
	mu        sync.Mutex
	marked    []int64
	committed int
}

func (s *fakeSession) Claims() map[string][]int32              { return nil }
func (s *fakeSession) MemberID() string                         { return "member-1" }
func (s *fakeSession) GenerationID() int32                      { return 1 }
func (s *fakeSession) MarkOffset(string, int32, int64, string)  {}
func (s *fakeSession) ResetOffset(string, int32, int64, string) {}
func (s *fakeSession) Context() context.Context                 { return s.ctx }

func (s *fakeSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, msg.Offset)
}

func (s *fakeSession) Commit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed++
}

func batchOf(keys ...string) []*sarama.ConsumerMessage {
	msgs := make([]*sarama.ConsumerMessage, 0, len(keys))
	for i, k := range keys {
		msgs = append(msgs, &sarama.ConsumerMessage{Topic: "linkboard.bot.events", Key: []byte(k), Offset: int64(i + 1)})
	}
	return msgs
}

func TestProcessBatch_MarksLastOffset(t *testing.T) {
	session := &fakeSession{ctx: context.Background()}

	var mu sync.Mutex
	var handled []int64
	processBatch(session, batchOf("7", "9", "7"), func(ctx context.Context, msg *sarama.ConsumerMessage) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, msg.Offset)
		return nil
	})

	assert.ElementsMatch(t, []int64{1, 2, 3}, handled)
	assert.Equal(t, []int64{3}, session.marked)
	assert.Equal(t, 1, session.committed)
}

func TestProcessBatch_FinishesAndCommitsWhenSessionEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	session := &fakeSession{ctx: ctx}

	var handled []int64
	processBatch(session, batchOf("7", "7", "7"), func(ctx context.Context, msg *sarama.ConsumerMessage) error {
		if msg.Offset == 2 {
			// 处理中途发生重平衡
			cancel()
		}
		assert.NoError(t, ctx.Err())
		handled = append(handled, msg.Offset)
		return nil
	})

	require.Error(t, session.Context().Err())
	assert.Equal(t, []int64{1, 2, 3}, handled)
	assert.Equal(t, []int64{3}, session.marked)
	assert.Equal(t, 1, session.committed)
}

func TestProcessBatch_FailedMessageIsNotRetried(t *testing.T) {
	session := &fakeSession{ctx: context.Background()}

	calls := 0
	processBatch(session, batchOf("5"), func(context.Context, *sarama.ConsumerMessage) error {
		calls++
		return assert.AnError
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, []int64{1}, session.marked)
}
