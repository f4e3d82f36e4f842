// internal/spec/schema.go
package spec

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

func stringArray(min, max int) map[string]interface{} {
	s := map[string]interface{}{
		"type":  "array",
		"items": map[string]interface{}{"type": "string"},
	}
	if min > 0 {
		s["minItems"] = min
	}
	if max > 0 {
		s["maxItems"] = max
	}
	return s
}

func object(required []string, props map[string]interface{}) map[string]interface{} {
	req := make([]interface{}, len(required))
	for i, r := range required {
		req[i] = r
	}
	return map[string]interface{}{
		"type":       "object",
		"required":   req,
		"properties": props,
	}
}

func stringProps(keys ...string) map[string]interface{} {
	props := make(map[string]interface{}, len(keys))
	for _, k := range keys {
		props[k] = map[string]interface{}{"type": "string"}
	}
	return props
}

// Schema returns the JSON Schema of the canonical document. Model output is
// checked against it to report drift; a normalized spec always satisfies it.
func Schema() map[string]interface{} {
	ruleProps := stringProps("role", "notes")
	for _, k := range []string{"canRead", "canCreate", "canUpdate", "canDelete"} {
		ruleProps[k] = map[string]interface{}{"type": "boolean"}
	}

	return object(
		[]string{
			"summary", "problemFrame", "interviewQuestions", "roles", "features", "flowSteps",
			"inputFields", "permissionRules", "ambiguities", "risks", "testScenarios", "todayTasks",
			"requestConversion", "impactPreview", "layerGuide", "completeness",
		},
		map[string]interface{}{
			"summary": map[string]interface{}{"type": "string", "minLength": 1},
			"problemFrame": object(
				[]string{"who", "when", "what", "why", "successCriteria"},
				stringProps("who", "when", "what", "why", "successCriteria"),
			),
			"interviewQuestions": stringArray(InterviewQuestionCount, InterviewQuestionCount),
			"roles": map[string]interface{}{
				"type":  "array",
				"items": object([]string{"role"}, stringProps("role", "description")),
			},
			"features": object([]string{"must", "niceToHave"}, map[string]interface{}{
				"must":       stringArray(0, 0),
				"niceToHave": stringArray(0, 0),
			}),
			"flowSteps": stringArray(FlowStepCount, FlowStepCount),
			"inputFields": map[string]interface{}{
				"type":  "array",
				"items": object([]string{"name"}, stringProps("name", "type", "example")),
			},
			"permissionRules": map[string]interface{}{
				"type":  "array",
				"items": object([]string{"role", "canRead", "canCreate", "canUpdate", "canDelete"}, ruleProps),
			},
			"ambiguities": object([]string{"missingInfo", "confirmQuestions"}, map[string]interface{}{
				"missingInfo":      stringArray(0, 0),
				"confirmQuestions": stringArray(ConfirmQuestionCount, ConfirmQuestionCount),
			}),
			"risks":         stringArray(RiskCount, RiskCount),
			"testScenarios": stringArray(TestScenarioCount, TestScenarioCount),
			"todayTasks":    stringArray(TodayTaskCount, TodayTaskCount),
			"requestConversion": object(
				[]string{"raw", "short", "standard", "detailed"},
				stringProps("raw", "short", "standard", "detailed"),
			),
			"impactPreview": object([]string{"screens", "permissions", "tests"}, map[string]interface{}{
				"screens":     stringArray(0, 0),
				"permissions": stringArray(0, 0),
				"tests":       stringArray(0, 0),
			}),
			"layerGuide": map[string]interface{}{
				"type":     "array",
				"minItems": LayerGuideCount,
				"maxItems": LayerGuideCount,
				"items": object(
					[]string{"layer", "goal", "output"},
					stringProps("layer", "goal", "output"),
				),
			},
			"completeness": object([]string{"score", "warnings"}, map[string]interface{}{
				"score":    map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 100},
				"warnings": stringArray(0, 0),
			}),
		},
	)
}

// Validate checks doc against Schema and returns one line per violation.
// doc may be a decoded JSON value or any Go value that marshals to one.
func Validate(doc interface{}) ([]string, error) {
	schemaLoader := gojsonschema.NewGoLoader(Schema())
	documentLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return issues, nil
}
