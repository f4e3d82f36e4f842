// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	ErrCodeTransmutationFailed ErrorCode = "TRANSMUTATION_FAILED"
	ErrCodeGenerationFailed    ErrorCode = "GENERATION_FAILED"

	ErrCodeStorageFailed  ErrorCode = "STORAGE_FAILED"
	ErrCodeRecordNotFound ErrorCode = "RECORD_NOT_FOUND"
	ErrCodeIndexFailed    ErrorCode = "INDEX_FAILED"

	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout         ErrorCode = "TIMEOUT"
	ErrCodeNotFound        ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeBusinessRule    ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrCodeAuthentication  ErrorCode = "AUTHENTICATION_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func newError(code ErrorCode, message, details string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: IsRetryableErrorCode(code),
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInvalidInputError reports job variables that cannot be used, such as a
// missing or blank vibe.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details)
}

func NewValidationFailedError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Input validation failed", details)
}

// NewTransmutationFailedError wraps a failed generate/repair cycle.
func NewTransmutationFailedError(err error) *StandardError {
	return newError(ErrCodeTransmutationFailed, "Vibe transmutation failed", errDetails(err))
}

// NewGenerationFailedError reports a model call that did not finish, such as
// a job deadline expiring mid-request.
func NewGenerationFailedError(err error) *StandardError {
	return newError(ErrCodeGenerationFailed, "Model did not respond in time", errDetails(err))
}

func NewStorageFailedError(operation string, err error) *StandardError {
	e := newError(ErrCodeStorageFailed, "History storage failed", errDetails(err))
	e.Metadata = map[string]interface{}{"operation": operation}
	return e
}

func NewRecordNotFoundError(id string) *StandardError {
	e := newError(ErrCodeRecordNotFound, "Transmutation record not found", "id="+id)
	e.Metadata = map[string]interface{}{"recordId": id}
	return e
}

func NewIndexFailedError(err error) *StandardError {
	return newError(ErrCodeIndexFailed, "Search indexing failed", errDetails(err))
}

func NewExternalServiceError(service string, err error) *StandardError {
	e := newError(ErrCodeExternalService, fmt.Sprintf("%s call failed", service), errDetails(err))
	e.Metadata = map[string]interface{}{"service": service}
	return e
}

func NewTimeoutError(service string, err error) *StandardError {
	e := newError(ErrCodeTimeout, fmt.Sprintf("%s call timed out", service), errDetails(err))
	e.Metadata = map[string]interface{}{"service": service}
	return e
}

func NewResourceNotFoundError(service, details string) *StandardError {
	e := newError(ErrCodeNotFound, fmt.Sprintf("%s resource not found", service), details)
	e.Metadata = map[string]interface{}{"service": service}
	return e
}

func NewBusinessRuleError(message, details string) *StandardError {
	return newError(ErrCodeBusinessRule, message, details)
}

func NewAuthenticationError(details string) *StandardError {
	return newError(ErrCodeAuthentication, "Authentication failed", details)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", errDetails(err))
}

func errDetails(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the error codes caught by
// boundary events in the process models.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:        "INVALID_INPUT",
	ErrCodeValidationFailed:    "INVALID_INPUT",
	ErrCodeTransmutationFailed: "TRANSMUTATION_FAILED",
	ErrCodeGenerationFailed:    "TRANSMUTATION_FAILED",
	ErrCodeStorageFailed:       "STORAGE_FAILED",
	ErrCodeRecordNotFound:      "RECORD_NOT_FOUND",
	ErrCodeIndexFailed:         "STORAGE_FAILED",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStorageFailed,
		ErrCodeIndexFailed,
		ErrCodeExternalService:
		return 3 // Retryable technical errors

	case ErrCodeTimeout,
		ErrCodeGenerationFailed:
		return 2 // Partial retry for timeouts

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TRANSMUTATION") || strings.Contains(codeStr, "GENERATION"):
		return "AI"
	case strings.Contains(codeStr, "STORAGE") || strings.Contains(codeStr, "RECORD"):
		return "DATABASE"
	case strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "AUTHENTICATION"):
		return "AUTH"
	default:
		return "OTHER"
	}
}
