// internal/artifacts/reports.go
package artifacts

import "vibe-transmuter/internal/spec"

const nothingYet = "Nothing listed yet."

// NonDevReport renders the spec for a reader who will not write the code.
func NonDevReport(s spec.CanonicalSpec) string {
	var d doc

	d.heading(1, s.Summary)

	d.heading(2, "The problem in five lines")
	d.line("- **Who**: %s", s.ProblemFrame.Who)
	d.line("- **When**: %s", s.ProblemFrame.When)
	d.line("- **What**: %s", s.ProblemFrame.What)
	d.line("- **Why**: %s", s.ProblemFrame.Why)
	d.line("- **Done when**: %s", s.ProblemFrame.SuccessCriteria)

	d.heading(2, "Who uses it")
	d.bullets(roleLines(s.Roles), nothingYet)

	d.heading(2, "What it has to do")
	d.bullets(s.Features.Must, nothingYet)
	d.heading(3, "Nice to have")
	d.bullets(s.Features.NiceToHave, nothingYet)

	d.heading(2, "How it flows")
	d.numbered(s.FlowSteps)

	d.heading(2, "How we'll know it works")
	d.numbered(s.TestScenarios)

	d.heading(2, "Questions to answer first")
	d.numbered(s.InterviewQuestions)

	d.heading(2, "Still unclear")
	d.bullets(s.Ambiguities.MissingInfo, nothingYet)
	d.heading(3, "Confirm before building")
	d.numbered(s.Ambiguities.ConfirmQuestions)

	d.heading(2, "Risks")
	d.bullets(s.Risks, nothingYet)

	d.heading(2, "Start today")
	d.numbered(s.TodayTasks)

	d.heading(2, "How complete is this?")
	d.line("Score: **%d / 100**", s.Completeness.Score)
	if len(s.Completeness.Warnings) > 0 {
		d.line("")
		d.bullets(s.Completeness.Warnings, "")
	}

	return d.String()
}

// DevReport renders the spec as an implementation brief.
func DevReport(s spec.CanonicalSpec) string {
	var d doc

	d.heading(1, "Developer spec: "+s.Summary)

	d.heading(2, "Problem frame")
	d.table([]string{"Slot", "Value"}, [][]string{
		{"who", s.ProblemFrame.Who},
		{"when", s.ProblemFrame.When},
		{"what", s.ProblemFrame.What},
		{"why", s.ProblemFrame.Why},
		{"successCriteria", s.ProblemFrame.SuccessCriteria},
	})

	d.heading(2, "Roles")
	rows := make([][]string, 0, len(s.Roles))
	for _, r := range s.Roles {
		rows = append(rows, []string{orDash(r.Role), orDash(r.Description)})
	}
	d.table([]string{"Role", "Description"}, rows)

	d.heading(2, "Features")
	d.heading(3, "Must")
	d.bullets(s.Features.Must, "(none)")
	d.heading(3, "Nice to have")
	d.bullets(s.Features.NiceToHave, "(none)")

	d.heading(2, "User flow")
	d.numbered(s.FlowSteps)

	d.heading(2, "Input fields")
	rows = make([][]string, 0, len(s.InputFields))
	for _, f := range s.InputFields {
		rows = append(rows, []string{orDash(f.Name), orDash(f.Type), orDash(f.Example)})
	}
	d.table([]string{"Name", "Type", "Example"}, rows)

	d.heading(2, "Permission matrix")
	rows = make([][]string, 0, len(s.PermissionRules))
	for _, r := range s.PermissionRules {
		rows = append(rows, []string{
			orDash(r.Role), yesNo(r.CanRead), yesNo(r.CanCreate), yesNo(r.CanUpdate), yesNo(r.CanDelete), orDash(r.Notes),
		})
	}
	d.table([]string{"Role", "Read", "Create", "Update", "Delete", "Notes"}, rows)

	d.heading(2, "Test scenarios")
	d.numbered(s.TestScenarios)

	d.heading(2, "Impact preview")
	d.heading(3, "Screens")
	d.bullets(s.ImpactPreview.Screens, "(none)")
	d.heading(3, "Permissions")
	d.bullets(s.ImpactPreview.Permissions, "(none)")
	d.heading(3, "Tests")
	d.bullets(s.ImpactPreview.Tests, "(none)")

	d.heading(2, "Open items")
	d.bullets(s.Ambiguities.MissingInfo, "(none)")
	d.numbered(s.Ambiguities.ConfirmQuestions)

	d.heading(2, "Risks")
	d.bullets(s.Risks, "(none)")

	d.heading(2, "Standard request")
	d.line("```text")
	d.line("%s", s.RequestConversion.Standard)
	d.line("```")

	d.heading(2, "Completeness")
	d.line("score=%d warnings=%d", s.Completeness.Score, len(s.Completeness.Warnings))
	if len(s.Completeness.Warnings) > 0 {
		d.line("")
		d.bullets(s.Completeness.Warnings, "")
	}

	return d.String()
}
