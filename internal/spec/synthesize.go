// internal/spec/synthesize.go
package spec

import (
	"fmt"
	"strings"
)

const noneListed = "- (none listed)"

// Actions lists the granted operations of a rule in read/create/update/delete
// order.
func (r PermissionRule) Actions() []string {
	var actions []string
	if r.CanRead {
		actions = append(actions, "read")
	}
	if r.CanCreate {
		actions = append(actions, "create")
	}
	if r.CanUpdate {
		actions = append(actions, "update")
	}
	if r.CanDelete {
		actions = append(actions, "delete")
	}
	return actions
}

// synthesizeRequestConversion fills each empty request template from the
// already normalized summary, features and tests. Supplied templates are
// never touched.
func synthesizeRequestConversion(s *CanonicalSpec) {
	rc := &s.RequestConversion

	if rc.Short == "" {
		rc.Short = s.Summary
		if len(s.Features.Must) > 0 {
			rc.Short = fmt.Sprintf("%s Must-have: %s.", s.Summary, strings.Join(s.Features.Must, ", "))
		}
	}

	standard := standardRequest(s)
	if rc.Standard == "" {
		rc.Standard = standard
	}

	if rc.Detailed == "" {
		parts := []string{
			standard,
			"Nice-to-have features:",
			bulletList(s.Features.NiceToHave),
			"User flow:",
			numberedList(s.FlowSteps),
			"Input fields:",
			bulletList(inputFieldLines(s.InputFields)),
			"Permissions:",
			bulletList(permissionLines(s.PermissionRules)),
			"Risks to watch:",
			bulletList(s.Risks),
		}
		rc.Detailed = strings.Join(parts, "\n")
	}
}

func standardRequest(s *CanonicalSpec) string {
	parts := []string{
		fmt.Sprintf("Build the following feature: %s", s.Summary),
		"Must-have features:",
		bulletList(s.Features.Must),
		"Acceptance tests:",
		bulletList(s.TestScenarios),
	}
	return strings.Join(parts, "\n")
}

// synthesizeImpactPreview derives each empty preview list from flow steps,
// permission rules and test scenarios.
func synthesizeImpactPreview(s *CanonicalSpec) {
	ip := &s.ImpactPreview

	if len(ip.Screens) == 0 {
		ip.Screens = make([]string, 0, len(s.FlowSteps))
		for i, step := range s.FlowSteps {
			ip.Screens = append(ip.Screens, fmt.Sprintf("Screen for step %d: %s", i+1, step))
		}
	}

	if len(ip.Permissions) == 0 {
		ip.Permissions = permissionLines(s.PermissionRules)
	}

	if len(ip.Tests) == 0 {
		ip.Tests = make([]string, 0, len(s.TestScenarios))
		for _, scenario := range s.TestScenarios {
			ip.Tests = append(ip.Tests, "Verify: "+scenario)
		}
	}
}

func permissionLines(rules []PermissionRule) []string {
	lines := make([]string, 0, len(rules))
	for _, r := range rules {
		role := firstNonEmpty(r.Role, "Unnamed role")
		actions := r.Actions()
		if len(actions) == 0 {
			lines = append(lines, role+": no access")
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", role, strings.Join(actions, ", ")))
	}
	return lines
}

func inputFieldLines(fields []InputField) []string {
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		line := firstNonEmpty(f.Name, "unnamed")
		if f.Type != "" {
			line += " (" + f.Type + ")"
		}
		if f.Example != "" {
			line += ", e.g. " + f.Example
		}
		lines = append(lines, line)
	}
	return lines
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return noneListed
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}

func numberedList(items []string) string {
	if len(items) == 0 {
		return noneListed
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, item)
	}
	return strings.Join(lines, "\n")
}
