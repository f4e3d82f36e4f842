// internal/artifacts/trace.go
package artifacts

import (
	"fmt"

	"vibe-transmuter/internal/spec"
)

// ThinkingTrace walks the layer guide and shows, per layer, which parts of
// the spec answer it.
func ThinkingTrace(s spec.CanonicalSpec) string {
	var d doc

	d.heading(1, "Thinking trace")
	d.line("Raw request: %s", orDash(s.RequestConversion.Raw))
	d.line("Short form: %s", s.RequestConversion.Short)

	for i, layer := range s.LayerGuide {
		d.heading(2, fmt.Sprintf("%d. %s", i+1, layer.Layer))
		d.line("- Goal: %s", layer.Goal)
		d.line("- Expected output: %s", layer.Output)
		d.line("")
		d.line("Evidence:")
		d.bullets(layerEvidence(s, i), nothingYet)
	}

	d.heading(2, "Gaps")
	d.bullets(s.Completeness.Warnings, "None. Every checklist item is covered.")

	return d.String()
}

// layerEvidence maps the five layer slots onto spec fields by position.
func layerEvidence(s spec.CanonicalSpec, index int) []string {
	switch index {
	case 0:
		return []string{
			"Who: " + s.ProblemFrame.Who,
			"What: " + s.ProblemFrame.What,
			"Why: " + s.ProblemFrame.Why,
		}
	case 1:
		return roleLines(s.Roles)
	case 2:
		return s.ImpactPreview.Screens
	case 3:
		out := fieldLines(s.InputFields)
		return append(out, s.ImpactPreview.Permissions...)
	case 4:
		return append(append([]string{}, s.TestScenarios...), "Success: "+s.ProblemFrame.SuccessCriteria)
	default:
		return nil
	}
}
