package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/inkpad-app/inkpad/internal/jobs"
	"github.com/inkpad-app/inkpad/internal/session"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionPurge removes expired session records from storage.
	TaskSessionPurge = "session:purge"
)

// SessionPurgePayload configures a purge run.
type SessionPurgePayload struct {
	// GraceSeconds keeps expired sessions around for this long before
	// deletion, so recently expired users can still be force-logged-out
	// against a live record.
	GraceSeconds int64 `json:"grace_seconds"`
}

// NewSessionPurgeTask constructs an Asynq task for purging expired sessions.
func NewSessionPurgeTask(payload SessionPurgePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionPurge, data), nil
}

// SessionPurger deletes expired session rows.
type SessionPurger interface {
	PurgeExpired(ctx context.Context, grace time.Duration) (int64, error)
}

// PurgeHandler processes TaskSessionPurge tasks.
type PurgeHandler struct {
	sessions SessionPurger
	logger   *slog.Logger
	metrics  *jobmetrics.Metrics
}

// NewPurgeHandler constructs a PurgeHandler.
func NewPurgeHandler(sessions SessionPurger, logger *slog.Logger) *PurgeHandler {
	return &PurgeHandler{sessions: sessions, logger: logger}
}

// SetMetrics attaches job run instrumentation.
func (h *PurgeHandler) SetMetrics(m *jobmetrics.Metrics) {
	h.metrics = m
}

// Handle implements the asynq handler contract for session purges.
func (h *PurgeHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SessionPurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := h.metrics.Track(TaskSessionPurge)
	grace := time.Duration(payload.GraceSeconds) * time.Second
	if grace < 0 {
		grace = 0
	}
	deleted, err := h.sessions.PurgeExpired(ctx, grace)
	if err != nil {
		return tracker.End(err)
	}
	h.logger.Info("purged expired sessions",
		slog.Int64("deleted", deleted),
		slog.Duration("grace", grace))
	return tracker.End(nil)
}

var _ SessionPurger = (*session.Service)(nil)
