package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// TaskAccountRollup rebuilds receivables snapshots from bills and payments.
const TaskAccountRollup = "accounts:rollup"

// AccountRollupPayload records why the run was triggered, for log context.
type AccountRollupPayload struct {
	Reason string `json:"reason"`
}

// RollupService rebuilds account snapshots.
type RollupService interface {
	Rebuild(ctx context.Context) (int, error)
}

// AccountRollupJob executes the rollup task.
type AccountRollupJob struct {
	Service RollupService
	Logger  *slog.Logger
	clock   func() time.Time
}

// NewAccountRollupJob constructs the job handler.
func NewAccountRollupJob(service RollupService, logger *slog.Logger) *AccountRollupJob {
	return &AccountRollupJob{
		Service: service,
		Logger:  logger,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// NewAccountRollupTask creates the asynq task.
func NewAccountRollupTask() (*asynq.Task, error) {
	body, err := json.Marshal(AccountRollupPayload{Reason: "scheduled"})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAccountRollup, body, asynq.Queue(QueueDefault)), nil
}

// Handle runs the rollup. The rebuild is idempotent, so a retried task is
// harmless.
func (j *AccountRollupJob) Handle(ctx context.Context, task *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("jobs: account rollup not configured")
	}
	var payload AccountRollupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	started := j.clock()
	count, err := j.Service.Rebuild(ctx)
	if err != nil {
		j.Logger.ErrorContext(ctx, "account rollup failed", "reason", payload.Reason, "error", err)
		return err
	}
	j.Logger.InfoContext(ctx, "account rollup done",
		"reason", payload.Reason, "accounts", count, "took", j.clock().Sub(started).String())
	return nil
}
