// internal/workers/vibe/transmute-vibe/models.go
package transmutevibe

import (
	"vibe-transmuter/internal/artifacts"
	"vibe-transmuter/internal/spec"
)

type Input struct {
	RequestID string `json:"requestId,omitempty"`
	Vibe      string `json:"vibe"`
	Model     string `json:"model,omitempty"`
}

type Output struct {
	RequestID    string             `json:"requestId"`
	RecordID     string             `json:"recordId,omitempty"`
	Model        string             `json:"model,omitempty"`
	Spec         spec.CanonicalSpec `json:"spec"`
	Artifacts    artifacts.Bundle   `json:"artifacts"`
	Attempts     int                `json:"attempts"`
	Repaired     bool               `json:"repaired"`
	SchemaIssues []string           `json:"schemaIssues"`
}

// GetInputSchema is used when the activity registry does not declare one.
// Jobs carry every process variable, so unknown properties are allowed.
func GetInputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"vibe"},
		"properties": map[string]interface{}{
			"requestId": map[string]interface{}{"type": "string"},
			"vibe":      map[string]interface{}{"type": "string", "minLength": 1},
			"model":     map[string]interface{}{"type": "string"},
		},
	}
}
