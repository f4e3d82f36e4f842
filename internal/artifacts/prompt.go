// internal/artifacts/prompt.go
package artifacts

import (
	"strings"

	"vibe-transmuter/internal/spec"
)

// MasterPrompt renders a single prompt a user can paste into a coding
// assistant to build the feature.
func MasterPrompt(s spec.CanonicalSpec) string {
	var d doc

	d.heading(1, "Master prompt")
	d.line("You are a senior developer. Build the feature described below in small, reviewable steps.")
	d.line("Ask before guessing whenever something in \"Open questions\" blocks you.")

	d.heading(2, "Goal")
	d.line("%s", s.Summary)
	d.line("")
	d.line("Users: %s. Situation: %s. Problem: %s. Why it matters: %s.",
		trimPeriod(s.ProblemFrame.Who), trimPeriod(s.ProblemFrame.When),
		trimPeriod(s.ProblemFrame.What), trimPeriod(s.ProblemFrame.Why))
	d.line("The work is done when: %s", s.ProblemFrame.SuccessCriteria)

	d.heading(2, "Roles")
	d.bullets(roleLines(s.Roles), "Single anonymous user")

	d.heading(2, "Required features")
	d.bullets(s.Features.Must, "Derive them from the goal")
	if len(s.Features.NiceToHave) > 0 {
		d.line("")
		d.line("Only if time allows:")
		d.bullets(s.Features.NiceToHave, "")
	}

	d.heading(2, "Flow")
	d.numbered(s.FlowSteps)

	d.heading(2, "Data")
	d.bullets(fieldLines(s.InputFields), "No stored fields defined")

	d.heading(2, "Permissions")
	d.bullets(s.ImpactPreview.Permissions, "Everyone can do everything")

	d.heading(2, "Acceptance tests")
	d.numbered(s.TestScenarios)

	d.heading(2, "Open questions")
	d.numbered(s.Ambiguities.ConfirmQuestions)

	d.heading(2, "Start with")
	d.numbered(s.TodayTasks)

	return d.String()
}

func fieldLines(fields []spec.InputField) []string {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		line := "`" + orDash(f.Name) + "`"
		if f.Type != "" {
			line += " " + f.Type
		}
		if f.Example != "" {
			line += " (example: " + f.Example + ")"
		}
		lines = append(lines, line)
	}
	return lines
}

func trimPeriod(s string) string {
	return strings.TrimRight(s, ".")
}
