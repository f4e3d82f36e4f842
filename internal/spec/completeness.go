// internal/spec/completeness.go
package spec

import "math"

// ChecklistSize is the number of predicates behind the completeness score.
const ChecklistSize = 10

type checkItem struct {
	passed  bool
	warning string
}

// evaluateChecklist runs the fixed, ordered completeness checklist against a
// partially normalized spec.
func evaluateChecklist(s *CanonicalSpec, facts sourceFacts) [ChecklistSize]checkItem {
	return [ChecklistSize]checkItem{
		{s.Summary != SummaryPlaceholder, WarnSummaryMissing},
		{s.ProblemFrame.Who != FramePlaceholder, WarnWhoMissing},
		{s.ProblemFrame.What != FramePlaceholder, WarnWhatMissing},
		{s.ProblemFrame.SuccessCriteria != FramePlaceholder, WarnSuccessMissing},
		{len(s.Roles) > 0, WarnRolesMissing},
		{len(s.Features.Must) > 0, WarnMustFeaturesMissing},
		{facts.flowSteps >= FlowStepCount, WarnFlowIncomplete},
		{len(s.InputFields) > 0, WarnInputFieldsMissing},
		{len(s.PermissionRules) > 0, WarnPermissionsMissing},
		{facts.testScenarios >= TestScenarioCount, WarnTestsIncomplete},
	}
}

func scoreChecklist(checks [ChecklistSize]checkItem) int {
	passed := 0
	for _, c := range checks {
		if c.passed {
			passed++
		}
	}
	return int(math.Round(100 * float64(passed) / float64(ChecklistSize)))
}

func deriveWarnings(checks [ChecklistSize]checkItem, facts sourceFacts) []string {
	warnings := []string{}
	for _, c := range checks {
		if !c.passed {
			warnings = append(warnings, c.warning)
		}
	}
	if !facts.standardProvided {
		warnings = append(warnings, WarnStandardRequestGone)
	}
	return warnings
}
