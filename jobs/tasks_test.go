package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	grace   time.Duration
	deleted int64
	err     error
	calls   int
}

func (f *fakePurger) PurgeExpired(ctx context.Context, grace time.Duration) (int64, error) {
	f.calls++
	f.grace = grace
	return f.deleted, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPurgeHandlerPassesGrace(t *testing.T) {
	purger := &fakePurger{deleted: 3}
	handler := NewPurgeHandler(purger, discardLogger())

	task, err := NewSessionPurgeTask(SessionPurgePayload{GraceSeconds: 3600})
	require.NoError(t, err)

	require.NoError(t, handler.Handle(context.Background(), task))
	assert.Equal(t, 1, purger.calls)
	assert.Equal(t, time.Hour, purger.grace)
}

func TestPurgeHandlerClampsNegativeGrace(t *testing.T) {
	purger := &fakePurger{}
	handler := NewPurgeHandler(purger, discardLogger())

	task, err := NewSessionPurgeTask(SessionPurgePayload{GraceSeconds: -60})
	require.NoError(t, err)

	require.NoError(t, handler.Handle(context.Background(), task))
	assert.Equal(t, time.Duration(0), purger.grace)
}

func TestPurgeHandlerPropagatesStoreError(t *testing.T) {
	purger := &fakePurger{err: errors.New("db down")}
	handler := NewPurgeHandler(purger, discardLogger())

	task, err := NewSessionPurgeTask(SessionPurgePayload{})
	require.NoError(t, err)

	assert.Error(t, handler.Handle(context.Background(), task))
}

func TestPurgeHandlerSkipsRetryOnBadPayload(t *testing.T) {
	purger := &fakePurger{}
	handler := NewPurgeHandler(purger, discardLogger())

	task := asynq.NewTask(TaskSessionPurge, []byte("not json"))
	err := handler.Handle(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Zero(t, purger.calls)
}
