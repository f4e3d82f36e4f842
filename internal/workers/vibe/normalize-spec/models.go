// internal/workers/vibe/normalize-spec/models.go
package normalizespec

import (
	"vibe-transmuter/internal/artifacts"
	"vibe-transmuter/internal/spec"
)

// Input carries either a model payload (a JSON string or an already decoded
// value) or the ID of a stored transmutation to re-normalize.
type Input struct {
	RequestID string      `json:"requestId,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	RecordID  string      `json:"recordId,omitempty"`
	Vibe      string      `json:"vibe,omitempty"`
}

type Output struct {
	RequestID    string             `json:"requestId"`
	RecordID     string             `json:"recordId,omitempty"`
	Spec         spec.CanonicalSpec `json:"spec"`
	Artifacts    artifacts.Bundle   `json:"artifacts"`
	SchemaIssues []string           `json:"schemaIssues"`
}

func GetInputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"anyOf": []interface{}{
			map[string]interface{}{"required": []interface{}{"payload"}},
			map[string]interface{}{"required": []interface{}{"recordId"}},
		},
		"properties": map[string]interface{}{
			"requestId": map[string]interface{}{"type": "string"},
			"recordId":  map[string]interface{}{"type": "string", "minLength": 1},
			"vibe":      map[string]interface{}{"type": "string"},
		},
	}
}
