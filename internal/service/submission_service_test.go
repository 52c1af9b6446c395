package service

import (
	"Linkboard/internal/testutil"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionService_Flow(t *testing.T) {
	s := newTestServices(t)
	testutil.NewTestRedis(t)
	ctx := context.Background()
	sub := NewSubmissionService(s.links, time.Minute)

	_, err := sub.Advance(ctx, 5, "anything")
	assert.ErrorIs(t, err, ErrNoPendingSubmission)

	require.NoError(t, sub.Begin(ctx, 5))
	pending, err := sub.Pending(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, StageAwaitingTitle, pending.Stage)

	_, err = sub.Advance(ctx, 5, "<b>")
	assert.ErrorIs(t, err, ErrTitleInvalid)
	pending, err = sub.Pending(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, StageAwaitingTitle, pending.Stage)

	step, err := sub.Advance(ctx, 5, "Rust learners")
	require.NoError(t, err)
	assert.Equal(t, StageAwaitingLink, step.Stage)

	_, err = sub.Advance(ctx, 5, "https://example.com/group")
	assert.ErrorIs(t, err, ErrLinkInvalid)

	step, err = sub.Advance(ctx, 5, "t.me/+abc123")
	require.NoError(t, err)
	assert.Equal(t, StageDone, step.Stage)
	require.NotNil(t, step.Link)
	assert.Equal(t, "Rust learners", step.Link.Title)
	assert.Equal(t, "https://t.me/+abc123", step.Link.URL)
	assert.Equal(t, uint64(5), step.Link.UserID)

	pending, err = sub.Pending(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, pending)
}

func TestSubmissionService_CancelAndExpire(t *testing.T) {
	s := newTestServices(t)
	mr := testutil.NewTestRedis(t)
	ctx := context.Background()
	sub := NewSubmissionService(s.links, time.Minute)

	require.NoError(t, sub.Begin(ctx, 6))
	cancelled, err := sub.Cancel(ctx, 6)
	require.NoError(t, err)
	assert.True(t, cancelled)

	cancelled, err = sub.Cancel(ctx, 6)
	require.NoError(t, err)
	assert.False(t, cancelled)

	require.NoError(t, sub.Begin(ctx, 6))
	mr.FastForward(2 * time.Minute)
	pending, err := sub.Pending(ctx, 6)
	require.NoError(t, err)
	assert.Nil(t, pending)
}
