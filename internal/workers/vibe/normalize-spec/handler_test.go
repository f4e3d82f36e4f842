// internal/workers/vibe/normalize-spec/handler_test.go
package normalizespec

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vibe-transmuter/internal/common/camunda/camundatest"
	"vibe-transmuter/internal/common/config"
	"vibe-transmuter/internal/common/errors"
	"vibe-transmuter/internal/common/logger"
	"vibe-transmuter/internal/history"
	"vibe-transmuter/internal/spec"
)

// ==========================
// Mock Record Loader
// ==========================

type MockRecordLoader struct {
	mock.Mock
}

func (m *MockRecordLoader) Get(ctx context.Context, id string) (*history.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*history.Record), args.Error(1)
}

// ==========================
// Mock Job Helper
// ==========================

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	activatedJob := &pb.ActivatedJob{
		Key:                      key,
		Type:                     TaskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "vibe-process",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_NormalizeSpec",
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Deadline:                 0,
		Variables:                string(variablesJSON),
	}

	return entities.Job{ActivatedJob: activatedJob}
}

func newTestHandler(t *testing.T, records RecordLoader) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		CustomConfig: &Config{Enabled: true, MaxJobsActive: 1, Timeout: time.Second},
		Records:      records,
		Logger:       logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

// ==========================
// Input Parsing
// ==========================

func TestParseInput(t *testing.T) {
	h := newTestHandler(t, nil)

	tests := []struct {
		name      string
		variables map[string]interface{}
		wantErr   bool
		check     func(t *testing.T, in *Input)
	}{
		{
			name:      "string payload",
			variables: map[string]interface{}{"payload": `{"summary":"x"}`, "requestId": "req-1"},
			check: func(t *testing.T, in *Input) {
				assert.Equal(t, `{"summary":"x"}`, in.Payload)
				assert.Equal(t, "req-1", in.RequestID)
			},
		},
		{
			name:      "object payload",
			variables: map[string]interface{}{"payload": map[string]interface{}{"summary": "x"}},
			check: func(t *testing.T, in *Input) {
				assert.Equal(t, map[string]interface{}{"summary": "x"}, in.Payload)
				assert.NotEmpty(t, in.RequestID)
			},
		},
		{
			name:      "record id",
			variables: map[string]interface{}{"recordId": "rec-9", "vibe": "todo"},
			check: func(t *testing.T, in *Input) {
				assert.Nil(t, in.Payload)
				assert.Equal(t, "rec-9", in.RecordID)
				assert.Equal(t, "todo", in.Vibe)
			},
		},
		{
			name:      "neither payload nor record id",
			variables: map[string]interface{}{"vibe": "todo"},
			wantErr:   true,
		},
		{
			name:      "empty record id",
			variables: map[string]interface{}{"recordId": ""},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := h.parseInput(createMockJob(1, tt.variables))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeValidationFailed, errors.Normalize(err).Code)
				return
			}
			require.NoError(t, err)
			tt.check(t, in)
		})
	}
}

// ==========================
// Payload Normalization
// ==========================

func TestExecute_Payload(t *testing.T) {
	h := newTestHandler(t, nil)

	t.Run("fenced json string", func(t *testing.T) {
		out, err := h.Execute(context.Background(), &Input{
			RequestID: "req-1",
			Payload:   "```json\n{\"summary\":\"Team calendar\",\"overview\":\"ignored\"}\n```",
			Vibe:      "calendar",
		})
		require.NoError(t, err)
		assert.Equal(t, "req-1", out.RequestID)
		assert.Equal(t, "Team calendar", out.Spec.Summary)
		assert.Equal(t, "calendar", out.Spec.RequestConversion.Raw)
		assert.Len(t, out.Spec.FlowSteps, spec.FlowStepCount)
		assert.NotEmpty(t, out.Artifacts.DevReport)
	})

	t.Run("decoded object", func(t *testing.T) {
		out, err := h.Execute(context.Background(), &Input{
			Payload: map[string]interface{}{"oneLineSummary": "Legacy summary"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Legacy summary", out.Spec.Summary)
		assert.NotEmpty(t, out.SchemaIssues)
	})

	t.Run("non-object value still normalizes", func(t *testing.T) {
		out, err := h.Execute(context.Background(), &Input{Payload: []interface{}{"a"}})
		require.NoError(t, err)
		assert.NotEmpty(t, out.Spec.Summary)
	})

	t.Run("invalid json string", func(t *testing.T) {
		_, err := h.Execute(context.Background(), &Input{Payload: "{not json"})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeInvalidInput, errors.Normalize(err).Code)
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := h.Execute(context.Background(), &Input{})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeInvalidInput, errors.Normalize(err).Code)
	})
}

// ==========================
// Record Normalization
// ==========================

func TestExecute_Record(t *testing.T) {
	t.Run("re-normalizes raw text and inherits vibe", func(t *testing.T) {
		records := &MockRecordLoader{}
		records.On("Get", mock.Anything, "rec-1").Return(&history.Record{
			ID:      "rec-1",
			Vibe:    "book club",
			RawText: `{"summary":"Book club planner"}`,
		}, nil)

		out, err := newTestHandler(t, records).Execute(context.Background(), &Input{RequestID: "r", RecordID: "rec-1"})
		require.NoError(t, err)
		assert.Equal(t, "rec-1", out.RecordID)
		assert.Equal(t, "Book club planner", out.Spec.Summary)
		assert.Equal(t, "book club", out.Spec.RequestConversion.Raw)
		records.AssertExpectations(t)
	})

	t.Run("falls back to stored spec", func(t *testing.T) {
		stored := spec.Normalize(map[string]interface{}{"summary": "Stored"}, spec.WithVibe("v"))
		records := &MockRecordLoader{}
		records.On("Get", mock.Anything, "rec-2").Return(&history.Record{
			ID:      "rec-2",
			Vibe:    "v",
			RawText: "garbage",
			Spec:    stored,
		}, nil)

		out, err := newTestHandler(t, records).Execute(context.Background(), &Input{RecordID: "rec-2", Vibe: "override"})
		require.NoError(t, err)
		assert.Equal(t, "Stored", out.Spec.Summary)
		assert.Empty(t, out.SchemaIssues)
	})

	t.Run("record not found", func(t *testing.T) {
		records := &MockRecordLoader{}
		records.On("Get", mock.Anything, "missing").Return(nil, fmt.Errorf("%w: missing", history.ErrRecordNotFound))

		_, err := newTestHandler(t, records).Execute(context.Background(), &Input{RecordID: "missing"})
		require.Error(t, err)
		stdErr := errors.Normalize(err)
		assert.Equal(t, errors.ErrCodeRecordNotFound, stdErr.Code)
		assert.False(t, stdErr.Retryable)
	})

	t.Run("storage failure is retryable", func(t *testing.T) {
		records := &MockRecordLoader{}
		records.On("Get", mock.Anything, "rec-3").Return(nil, stderrors.New("connection refused"))

		_, err := newTestHandler(t, records).Execute(context.Background(), &Input{RecordID: "rec-3"})
		require.Error(t, err)
		stdErr := errors.Normalize(err)
		assert.Equal(t, errors.ErrCodeStorageFailed, stdErr.Code)
		assert.True(t, stdErr.Retryable)
	})

	t.Run("history disabled", func(t *testing.T) {
		var store *history.Store
		_, err := newTestHandler(t, store).Execute(context.Background(), &Input{RecordID: "rec-4"})
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeBusinessRule, errors.Normalize(err).Code)
	})
}

// ==========================
// Job Handling
// ==========================

func TestHandle(t *testing.T) {
	t.Run("completes the job with the normalized spec", func(t *testing.T) {
		client := camundatest.NewJobClient()

		newTestHandler(t, nil).Handle(client, createMockJob(7, map[string]interface{}{
			"payload": `{"summary":"Team calendar"}`,
		}))

		completes := client.Gateway.Completes()
		require.Len(t, completes, 1)
		assert.Equal(t, int64(7), completes[0].JobKey)
		assert.NoError(t, completes[0].CtxErr)
		assert.Contains(t, completes[0].Variables, "Team calendar")
	})

	t.Run("missing record throws RECORD_NOT_FOUND", func(t *testing.T) {
		records := &MockRecordLoader{}
		records.On("Get", mock.Anything, "missing").Return(nil, fmt.Errorf("%w: missing", history.ErrRecordNotFound))
		client := camundatest.NewJobClient()

		newTestHandler(t, records).Handle(client, createMockJob(8, map[string]interface{}{"recordId": "missing"}))

		throws := client.Gateway.Throws()
		require.Len(t, throws, 1)
		assert.Equal(t, "RECORD_NOT_FOUND", throws[0].ErrorCode)
		assert.Empty(t, client.Gateway.Fails())
	})

	t.Run("timed out record load is still failed with retries", func(t *testing.T) {
		records := &MockRecordLoader{}
		records.On("Get", mock.Anything, "slow").
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return(nil, context.DeadlineExceeded)
		h, err := NewHandler(HandlerOptions{
			CustomConfig: &Config{Enabled: true, MaxJobsActive: 1, Timeout: 50 * time.Millisecond},
			Records:      records,
			Logger:       logger.NewTestLogger(t),
		})
		require.NoError(t, err)
		client := camundatest.NewJobClient()

		h.Handle(client, createMockJob(9, map[string]interface{}{"recordId": "slow"}))

		fails := client.Gateway.Fails()
		require.Len(t, fails, 1)
		assert.NoError(t, fails[0].CtxErr)
		assert.Equal(t, int32(2), fails[0].Retries)
		assert.Contains(t, fails[0].Variables, string(errors.ErrCodeStorageFailed))
	})
}

// ==========================
// Configuration
// ==========================

func TestCreateConfigFromAppConfig(t *testing.T) {
	appCfg := &config.Config{
		Workers: map[string]config.WorkerConfig{
			TaskType: {Enabled: true, MaxJobsActive: 3, Timeout: 2500},
		},
	}

	cfg := createConfigFromAppConfig(appCfg, nil)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 3, cfg.MaxJobsActive)
	assert.Equal(t, 2500*time.Millisecond, cfg.Timeout)

	assert.Equal(t, DefaultConfig(), createConfigFromAppConfig(&config.Config{}, nil))

	_, err := NewHandler(HandlerOptions{CustomConfig: &Config{Timeout: time.Second}})
	require.Error(t, err)
}
