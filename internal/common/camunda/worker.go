// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"vibe-transmuter/internal/common/logger"
)

// JobHandler is implemented by every worker handler.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

// CompletionMargin is added to the handler timeout when activating jobs so a
// handler that runs out of time can still report back before the broker
// hands the job to another worker.
const CompletionMargin = 15 * time.Second

// CommandTimeout bounds complete, fail and throw-error commands.
const CommandTimeout = 10 * time.Second

type WorkerOptions struct {
	MaxJobsActive int
	// Timeout is the handler timeout, not the activation timeout.
	Timeout time.Duration
}

// ActivationTimeout returns how long a job stays locked to this worker.
func ActivationTimeout(handlerTimeout time.Duration) time.Duration {
	if handlerTimeout <= 0 {
		return 0
	}
	return handlerTimeout + CompletionMargin
}

// CommandContext detaches ctx from its deadline and cancellation and bounds
// it by CommandTimeout. Values such as the active span are kept.
func CommandContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), CommandTimeout)
}

// Worker is an open job subscription for one task type.
type Worker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// Subscribe opens a job worker for taskType on c.
func (c *Client) Subscribe(taskType string, opts WorkerOptions, handler JobHandler, log logger.Logger) *Worker {
	builder := c.client.NewJobWorker().
		JobType(taskType).
		Handler(handler.Handle).
		Name(fmt.Sprintf("%s-worker", taskType))

	if opts.MaxJobsActive > 0 {
		builder = builder.MaxJobsActive(opts.MaxJobsActive)
	}
	if opts.Timeout > 0 {
		builder = builder.Timeout(ActivationTimeout(opts.Timeout))
	}

	w := &Worker{
		worker:   builder.Open(),
		logger:   log,
		taskType: taskType,
	}
	log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": opts.MaxJobsActive,
		"timeout":       opts.Timeout.String(),
		"activation":    ActivationTimeout(opts.Timeout).String(),
	})
	return w
}

func (w *Worker) TaskType() string {
	return w.taskType
}

// Stop closes the subscription and waits for in-flight jobs.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
