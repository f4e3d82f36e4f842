// internal/common/errors/errors_test.go
package errors

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibe-transmuter/internal/common/camunda/camundatest"
)

// ==========================
// Constructors
// ==========================

func TestConstructors(t *testing.T) {
	tests := []struct {
		name      string
		err       *StandardError
		code      ErrorCode
		retryable bool
		category  string
	}{
		{"invalid input", NewInvalidInputError("vibe is blank"), ErrCodeInvalidInput, false, "VALIDATION"},
		{"validation", NewValidationFailedError("vibe: required"), ErrCodeValidationFailed, false, "VALIDATION"},
		{"transmutation", NewTransmutationFailedError(stderrors.New("bad json twice")), ErrCodeTransmutationFailed, false, "AI"},
		{"generation", NewGenerationFailedError(stderrors.New("deadline")), ErrCodeGenerationFailed, true, "AI"},
		{"storage", NewStorageFailedError("save", stderrors.New("conn reset")), ErrCodeStorageFailed, true, "DATABASE"},
		{"not found", NewRecordNotFoundError("abc"), ErrCodeRecordNotFound, false, "DATABASE"},
		{"index", NewIndexFailedError(stderrors.New("503")), ErrCodeIndexFailed, true, "SEARCH"},
		{"internal", NewInternalError(nil), ErrCodeInternal, false, "OTHER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.retryable, tt.err.Retryable)
			assert.Equal(t, tt.category, GetErrorCategory(tt.err.Code))
			assert.False(t, tt.err.Timestamp.IsZero())
			assert.Contains(t, tt.err.Error(), string(tt.code))
		})
	}
}

// ==========================
// BPMN Conversion
// ==========================

func TestConvertToBPMNError(t *testing.T) {
	t.Run("validation collapses to INVALID_INPUT", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewValidationFailedError("vibe: required"))
		assert.Equal(t, "INVALID_INPUT", bpmn.Code)
		assert.Equal(t, 0, bpmn.Retries)
		assert.False(t, bpmn.Retryable)
	})

	t.Run("transmutation is thrown without retries", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewTransmutationFailedError(stderrors.New("x")))
		assert.Equal(t, "TRANSMUTATION_FAILED", bpmn.Code)
		assert.Equal(t, 0, bpmn.Retries)

		vars := bpmn.ToErrorVariables()
		assert.Equal(t, "TRANSMUTATION_FAILED", vars["originalErrorCode"])
		assert.Equal(t, "x", vars["errorDetails"])
		assert.Equal(t, false, vars["retryable"])
	})

	t.Run("generation timeout shares the boundary code", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewGenerationFailedError(stderrors.New("deadline")))
		assert.Equal(t, "TRANSMUTATION_FAILED", bpmn.Code)
		assert.Equal(t, 2, bpmn.Retries)
		assert.Equal(t, "GENERATION_FAILED", bpmn.ToErrorVariables()["originalErrorCode"])
	})

	t.Run("unmapped code passes through", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewExternalServiceError("zeebe", stderrors.New("unavailable")))
		assert.Equal(t, "EXTERNAL_SERVICE_ERROR", bpmn.Code)
		assert.Equal(t, 3, bpmn.Retries)
	})

	t.Run("retryable flag off drops retries", func(t *testing.T) {
		stdErr := NewStorageFailedError("save", stderrors.New("x"))
		stdErr.Retryable = false
		assert.Equal(t, 0, ConvertToBPMNError(stdErr).Retries)
	})
}

// ==========================
// Handler Helpers
// ==========================

func TestNormalize(t *testing.T) {
	stdErr := NewRecordNotFoundError("abc")
	assert.Same(t, stdErr, Normalize(stdErr))

	plain := Normalize(stderrors.New("boom"))
	require.NotNil(t, plain)
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
}

func TestRemainingRetries(t *testing.T) {
	job := func(retries int32) entities.Job {
		return entities.Job{ActivatedJob: &pb.ActivatedJob{Retries: retries}}
	}
	storage := ConvertToBPMNError(NewStorageFailedError("save", nil))

	assert.Equal(t, int32(3), RemainingRetries(job(5), storage))
	assert.Equal(t, int32(1), RemainingRetries(job(2), storage))
	assert.Equal(t, int32(0), RemainingRetries(job(1), storage))
	assert.Equal(t, int32(3), RemainingRetries(job(0), storage))
}

type recordingLogger struct {
	messages []string
}

func (l *recordingLogger) Error(msg string, fields map[string]interface{}) {
	l.messages = append(l.messages, msg)
}

func TestHandleJobError(t *testing.T) {
	job := func(key int64, retries int32) entities.Job {
		return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: key, Retries: retries, Type: "transmute-vibe"}}
	}
	expired := func() context.Context {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()
		return ctx
	}

	t.Run("retryable error fails the job even when ctx expired", func(t *testing.T) {
		log := &recordingLogger{}
		client := camundatest.NewJobClient()

		NewErrorHandler(log).HandleJobError(expired(), client, job(1, 3), NewGenerationFailedError(context.DeadlineExceeded))

		fails := client.Gateway.Fails()
		require.Len(t, fails, 1)
		assert.NoError(t, fails[0].CtxErr)
		assert.Equal(t, int32(2), fails[0].Retries)
		assert.Equal(t, []string{"Job failed"}, log.messages)
	})

	t.Run("business error throws even when ctx cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		client := camundatest.NewJobClient()

		NewErrorHandler(&recordingLogger{}).HandleJobError(ctx, client, job(2, 3), NewValidationFailedError("vibe: required"))

		throws := client.Gateway.Throws()
		require.Len(t, throws, 1)
		assert.NoError(t, throws[0].CtxErr)
		assert.Equal(t, "INVALID_INPUT", throws[0].ErrorCode)
		assert.Empty(t, client.Gateway.Fails())
	})

	t.Run("job without retries throws", func(t *testing.T) {
		client := camundatest.NewJobClient()

		NewErrorHandler(&recordingLogger{}).HandleJobError(context.Background(), client, job(3, 0), NewStorageFailedError("save", nil))

		throws := client.Gateway.Throws()
		require.Len(t, throws, 1)
		assert.Equal(t, "STORAGE_FAILED", throws[0].ErrorCode)
	})
}
