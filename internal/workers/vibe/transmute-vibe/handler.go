// internal/workers/vibe/transmute-vibe/handler.go
package transmutevibe

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"vibe-transmuter/internal/common/camunda"
	"vibe-transmuter/internal/common/config"
	"vibe-transmuter/internal/common/errors"
	"vibe-transmuter/internal/common/logger"
	"vibe-transmuter/internal/common/metrics"
	"vibe-transmuter/internal/common/observability"
	"vibe-transmuter/internal/common/validation"
	"vibe-transmuter/internal/history"
	"vibe-transmuter/internal/transmute"
	"vibe-transmuter/pkg/registry"
)

const TaskType = "transmute-vibe"

type HistoryStore interface {
	Save(ctx context.Context, rec *history.Record) error
}

type SpecIndexer interface {
	Index(ctx context.Context, rec *history.Record) error
}

type ModelPicker interface {
	Pick(ctx context.Context, preferred ...string) string
}

type Handler struct {
	config       *Config
	transmuter   *transmute.Transmuter
	catalog      ModelPicker
	history      HistoryStore
	indexer      SpecIndexer
	inputSchema  map[string]interface{}
	obs          *observability.Observability
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

// HandlerOptions wires the handler. Catalog, History, Indexer, Registry and
// Observability are optional.
type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Transmuter    *transmute.Transmuter
	Catalog       ModelPicker
	History       HistoryStore
	Indexer       SpecIndexer
	Registry      *registry.ActivityRegistry
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Transmuter == nil {
		return nil, fmt.Errorf("%s requires a transmuter", TaskType)
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}
	loggerInstance = loggerInstance.With(map[string]interface{}{"worker": TaskType})

	inputSchema := GetInputSchema()
	if opts.Registry != nil {
		if activity, err := opts.Registry.FindByTaskType(TaskType); err == nil && len(activity.InputSchema) > 0 {
			inputSchema = activity.InputSchema
		}
	}

	h := &Handler{
		config:       workerConfig,
		transmuter:   opts.Transmuter,
		catalog:      opts.Catalog,
		history:      opts.History,
		indexer:      opts.Indexer,
		inputSchema:  inputSchema,
		obs:          opts.Observability,
		logger:       loggerInstance,
		errorHandler: errors.NewErrorHandler(loggerInstance),
	}
	// typed nil pointers would pass the nil checks below
	if s, ok := opts.History.(*history.Store); ok && s == nil {
		h.history = nil
	}
	if i, ok := opts.Indexer.(*history.Indexer); ok && i == nil {
		h.indexer = nil
	}
	return h, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	ctx, span := h.obs.StartSpan(ctx, "job."+TaskType,
		attribute.Int64("job.key", job.GetKey()),
		attribute.Int64("job.process_instance_key", job.GetProcessInstanceKey()),
	)
	defer span.End()

	h.logger.Info("Processing vibe transmutation", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := h.parseInput(job)
	if err == nil {
		var output *Output
		output, err = h.Execute(ctx, input)
		if err == nil {
			h.completeJob(ctx, client, job, output)
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
			h.obs.RecordJobProcessed(ctx, TaskType, "completed")
			h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), "completed")
			return
		}
	}

	stdErr := errors.Normalize(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, string(stdErr.Code))
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), "failed")
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("failed to parse job variables: %v", err))
	}

	result := validation.ValidateInput(variables, h.inputSchema)
	if !result.Valid {
		return nil, errors.NewValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}

	input := &Input{}
	input.Vibe, _ = variables["vibe"].(string)
	input.RequestID, _ = variables["requestId"].(string)
	input.Model, _ = variables["model"].(string)

	if strings.TrimSpace(input.Vibe) == "" {
		return nil, errors.NewInvalidInputError("vibe is blank")
	}
	if input.RequestID == "" {
		input.RequestID = uuid.NewString()
	}
	return input, nil
}

// Execute runs one transmutation. A failed transmutation is terminal for the
// job; history and index failures are logged and do not fail it.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	model := h.selectModel(ctx, input.Model)
	log := h.logger.With(map[string]interface{}{
		"requestId": input.RequestID,
		"model":     model,
	})

	result, err := h.transmuter.WithModel(model).Transmute(ctx, input.Vibe)
	if err != nil {
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.NewGenerationFailedError(err)
		}
		return nil, errors.NewTransmutationFailedError(err)
	}

	output := &Output{
		RequestID:    input.RequestID,
		Model:        model,
		Spec:         result.Spec,
		Artifacts:    result.Artifacts,
		Attempts:     result.Attempts,
		Repaired:     result.Repaired,
		SchemaIssues: result.SchemaIssues,
	}
	output.RecordID = h.persist(ctx, log, input, model, result)

	log.Info("Vibe transmuted", map[string]interface{}{
		"attempts":     result.Attempts,
		"repaired":     result.Repaired,
		"completeness": result.Spec.Completeness.Score,
		"recordId":     output.RecordID,
	})
	return output, nil
}

func (h *Handler) selectModel(ctx context.Context, requested string) string {
	if requested != "" {
		return requested
	}
	if h.catalog != nil {
		return h.catalog.Pick(ctx, h.config.PreferredModels...)
	}
	return h.config.DefaultModel
}

func (h *Handler) persist(ctx context.Context, log logger.Logger, input *Input, model string, result *transmute.Result) string {
	if h.history == nil {
		return ""
	}

	rec := &history.Record{
		RequestID: input.RequestID,
		Vibe:      input.Vibe,
		Model:     model,
		RawText:   result.RawText,
		Spec:      result.Spec,
		Attempts:  result.Attempts,
		Repaired:  result.Repaired,
	}
	if err := h.history.Save(ctx, rec); err != nil {
		log.Warn("Failed to save transmutation history", map[string]interface{}{"error": err.Error()})
		return ""
	}

	if h.indexer != nil {
		if err := h.indexer.Index(ctx, rec); err != nil {
			log.Warn("Failed to index spec", map[string]interface{}{
				"recordId": rec.ID,
				"error":    err.Error(),
			})
		}
	}
	return rec.ID
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	ctx, cancel := camunda.CommandContext(ctx)
	defer cancel()

	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err := request.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("Successfully completed vibe transmutation", map[string]interface{}{
		"jobKey":    job.GetKey(),
		"requestId": output.RequestID,
	})
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func (h *Handler) GetConfig() *Config {
	return h.config
}
