// cmd/tools/worker-generator/templates.go
package main

const configTemplate = `package {{ .PackageName }}

import (
	"fmt"
	"time"

	"{{ .Module }}/internal/common/config"
)

type Config struct {
	Enabled       bool          ` + "`mapstructure:\"enabled\"`" + `
	MaxJobsActive int           ` + "`mapstructure:\"max_jobs_active\"`" + `
	Timeout       time.Duration ` + "`mapstructure:\"timeout\"`" + `
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	return nil
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()
	if appConfig == nil {
		return cfg
	}

	if workerCfg, exists := appConfig.Workers[TaskType]; exists {
		cfg.Enabled = workerCfg.Enabled
		if workerCfg.MaxJobsActive > 0 {
			cfg.MaxJobsActive = workerCfg.MaxJobsActive
		}
		if workerCfg.Timeout > 0 {
			cfg.Timeout = config.GetDuration(workerCfg.Timeout)
		}
	}
	return cfg
}
`

const modelsTemplate = `package {{ .PackageName }}

// Input represents the input variables for the '{{ .Name }}' worker.
type Input struct {
{{ generateStructFields (parseSchema .InputSchema) (requiredFields .InputSchema) }}
}

// Output represents the output variables for the '{{ .Name }}' worker.
type Output struct {
{{ generateStructFields (parseSchema .OutputSchema) (requiredFields .OutputSchema) }}
}
`

const handlerTemplate = `package {{ .PackageName }}

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"{{ .Module }}/internal/common/camunda"
	"{{ .Module }}/internal/common/config"
	"{{ .Module }}/internal/common/errors"
	"{{ .Module }}/internal/common/logger"
	"{{ .Module }}/internal/common/metrics"
	"{{ .Module }}/internal/common/validation"
	"{{ .Module }}/pkg/registry"
)

const TaskType = "{{ .TaskType }}"

type Handler struct {
	config       *Config
	inputSchema  map[string]interface{}
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Registry     *registry.ActivityRegistry
	Logger       logger.Logger
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

	inputSchema := map[string]interface{}{"type": "object"}
	if opts.Registry != nil {
		if activity, err := opts.Registry.FindByTaskType(TaskType); err == nil && len(activity.InputSchema) > 0 {
			inputSchema = activity.InputSchema
		}
	}

	return &Handler{
		config:       workerConfig,
		inputSchema:  inputSchema,
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

	input, err := h.parseInput(job)
	if err == nil {
		var output *Output
		output, err = h.Execute(ctx, input)
		if err == nil {
			h.completeJob(ctx, client, job, output)
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
			return
		}
	}

	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
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

	var input Input
	if err := json.Unmarshal([]byte(job.GetVariables()), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("failed to decode input: %v", err))
	}
	return &input, nil
}

// Execute performs the work of the {{ .Name }} task.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	// TODO: implement {{ .TaskType }}
	return nil, errors.NewBusinessRuleError("not implemented", TaskType)
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
	}
}

func (h *Handler) GetTaskType() string {
	return TaskType
}
`

const testTemplate = `package {{ .PackageName }}

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"{{ .Module }}/internal/common/logger"
)

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:       key,
		Type:      TaskType,
		Retries:   3,
		Variables: string(variablesJSON),
	}}
}

func TestNewHandler(t *testing.T) {
	h, err := NewHandler(HandlerOptions{
		CustomConfig: &Config{Enabled: true, MaxJobsActive: 1, Timeout: time.Second},
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	assert.Equal(t, TaskType, h.GetTaskType())
}

func TestParseInput(t *testing.T) {
	h, err := NewHandler(HandlerOptions{Logger: logger.NewTestLogger(t)})
	require.NoError(t, err)

	_, err = h.parseInput(createMockJob(1, map[string]interface{}{}))
	assert.NoError(t, err)
}
`

const readmeTemplate = `# {{ .Name }} Worker

{{ .Description }}

- **Task type**: ` + "`{{ .TaskType }}`" + `
- **Category**: {{ .Category }}
- **Status**: {{ .ImplementationStatus }}
- **Timeout**: {{ .Timeout }}
- **Retries**: {{ .Retries }}

## Input
{{ range $prop, $details := parseSchema .InputSchema }}
- **{{ $prop }}** ({{ goTypeFromJSONType (lookup $details "type") }}){{ with lookup $details "description" }}: {{ . }}{{ end }}
{{- else }}
No input schema defined in registry.
{{- end }}

## Output
{{ range $prop, $details := parseSchema .OutputSchema }}
- **{{ $prop }}** ({{ goTypeFromJSONType (lookup $details "type") }}){{ with lookup $details "description" }}: {{ . }}{{ end }}
{{- else }}
No output schema defined in registry.
{{- end }}

## Error Codes
{{ range .ErrorCodes }}
- {{ . }}
{{- else }}
No specific error codes defined.
{{- end }}

## Configuration

` + "```yaml" + `
workers:
  {{ .TaskType }}:
    enabled: true
    max_jobs_active: 5
    timeout: 30000
` + "```" + `
`
