// internal/transmute/prompt.go
package transmute

import (
	"fmt"
	"strings"

	"vibe-transmuter/internal/spec"
)

// SchemaSkeleton is the literal shape the model is asked to fill in.
const SchemaSkeleton = `{
  "summary": "string",
  "problemFrame": {"who": "string", "when": "string", "what": "string", "why": "string", "successCriteria": "string"},
  "interviewQuestions": ["string", "string", "string"],
  "roles": [{"role": "string", "description": "string"}],
  "features": {"must": ["string"], "niceToHave": ["string"]},
  "flowSteps": ["string", "string", "string", "string", "string"],
  "inputFields": [{"name": "string", "type": "string", "example": "string"}],
  "permissionRules": [{"role": "string", "canRead": true, "canCreate": false, "canUpdate": false, "canDelete": false, "notes": "string"}],
  "ambiguities": {"missingInfo": ["string"], "confirmQuestions": ["string", "string", "string"]},
  "risks": ["string", "string", "string"],
  "testScenarios": ["string", "string", "string"],
  "todayTasks": ["string", "string", "string"],
  "requestConversion": {"raw": "string", "short": "string", "standard": "string", "detailed": "string"},
  "impactPreview": {"screens": ["string"], "permissions": ["string"], "tests": ["string"]},
  "layerGuide": [{"layer": "string", "goal": "string", "output": "string"}],
  "completeness": {"score": 0, "warnings": ["string"]}
}`

const repairInstruction = "Your previous response was invalid JSON. Return JSON only, following the schema exactly. " +
	"Do not add explanations or code fences."

func generationRules() []string {
	return []string{
		"You turn a loose feature idea (a \"vibe\") into a structured product spec for beginners.",
		"Rules:",
		"1. Respond with a single JSON object and nothing else. No markdown, no code fences.",
		"2. Use exactly the keys of the schema below. Do not add or rename keys.",
		fmt.Sprintf("3. flowSteps must have exactly %d entries; layerGuide must have exactly %d entries.",
			spec.FlowStepCount, spec.LayerGuideCount),
		fmt.Sprintf("4. interviewQuestions, ambiguities.confirmQuestions, risks, testScenarios and todayTasks must each have exactly %d entries.",
			spec.InterviewQuestionCount),
		"5. permissionRules must use realistic booleans per role: not every role may delete, guests rarely create.",
		"6. completeness.score is an integer from 0 to 100 describing how complete the idea is.",
		"7. Write in the same language as the user's text.",
	}
}

// BuildGenerationPrompt assembles the first-attempt prompt for a vibe.
func BuildGenerationPrompt(vibe string) string {
	parts := generationRules()
	parts = append(parts, "\nSchema:")
	parts = append(parts, SchemaSkeleton)
	parts = append(parts, "\nUser text:")
	parts = append(parts, strings.TrimSpace(vibe))
	return strings.Join(parts, "\n")
}

// BuildRepairPrompt asks the model to fix its own previous output.
func BuildRepairPrompt(previous string) string {
	parts := []string{
		repairInstruction,
		"\nSchema:",
		SchemaSkeleton,
		"\nPrevious response:",
		previous,
	}
	return strings.Join(parts, "\n")
}
