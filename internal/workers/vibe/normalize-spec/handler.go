// internal/workers/vibe/normalize-spec/handler.go
package normalizespec

import (
	"context"
	"encoding/json"
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

const TaskType = "normalize-spec"

type RecordLoader interface {
	Get(ctx context.Context, id string) (*history.Record, error)
}

type Handler struct {
	config       *Config
	records      RecordLoader
	inputSchema  map[string]interface{}
	obs          *observability.Observability
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig     *config.Config
	CustomConfig  *Config
	Records       RecordLoader
	Registry      *registry.ActivityRegistry
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
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

	records := opts.Records
	if s, ok := records.(*history.Store); ok && s == nil {
		records = nil
	}

	return &Handler{
		config:       workerConfig,
		records:      records,
		inputSchema:  inputSchema,
		obs:          opts.Observability,
		logger:       loggerInstance,
		errorHandler: errors.NewErrorHandler(loggerInstance),
	}, nil
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

	input := &Input{Payload: variables["payload"]}
	input.RequestID, _ = variables["requestId"].(string)
	input.RecordID, _ = variables["recordId"].(string)
	input.Vibe, _ = variables["vibe"].(string)

	if input.RequestID == "" {
		input.RequestID = uuid.NewString()
	}
	return input, nil
}

// Execute normalizes a payload without calling the model. A payload takes
// precedence over a record ID.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	parsed, vibe, err := h.resolvePayload(ctx, input)
	if err != nil {
		return nil, err
	}

	result := transmute.Render(parsed, vibe)

	h.logger.Info("Spec normalized", map[string]interface{}{
		"requestId":    input.RequestID,
		"recordId":     input.RecordID,
		"completeness": result.Spec.Completeness.Score,
		"schemaIssues": len(result.SchemaIssues),
	})

	return &Output{
		RequestID:    input.RequestID,
		RecordID:     input.RecordID,
		Spec:         result.Spec,
		Artifacts:    result.Artifacts,
		SchemaIssues: result.SchemaIssues,
	}, nil
}

func (h *Handler) resolvePayload(ctx context.Context, input *Input) (interface{}, string, error) {
	if input.Payload != nil {
		text, ok := input.Payload.(string)
		if !ok {
			return input.Payload, input.Vibe, nil
		}
		parsed, err := transmute.ParseRaw(text)
		if err != nil {
			return nil, "", errors.NewInvalidInputError(fmt.Sprintf("payload is not valid JSON: %v", err))
		}
		return parsed, input.Vibe, nil
	}

	if input.RecordID == "" {
		return nil, "", errors.NewInvalidInputError("either payload or recordId is required")
	}
	if h.records == nil {
		return nil, "", errors.NewBusinessRuleError("history is disabled", "recordId lookups need the history store")
	}

	rec, err := h.records.Get(ctx, input.RecordID)
	if err != nil {
		if stderrors.Is(err, history.ErrRecordNotFound) {
			return nil, "", errors.NewRecordNotFoundError(input.RecordID)
		}
		return nil, "", errors.NewStorageFailedError("load record", err)
	}

	vibe := input.Vibe
	if vibe == "" {
		vibe = rec.Vibe
	}

	if parsed, err := transmute.ParseRaw(rec.RawText); err == nil {
		return parsed, vibe, nil
	}

	// fall back to the stored canonical form
	data, err := json.Marshal(rec.Spec)
	if err != nil {
		return nil, "", errors.NewInternalError(err)
	}
	var parsed interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, "", errors.NewInternalError(err)
	}
	return parsed, vibe, nil
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

	h.logger.Info("Successfully completed spec normalization", map[string]interface{}{
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
