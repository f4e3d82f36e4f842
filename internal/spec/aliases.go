// internal/spec/aliases.go
package spec

import "strings"

// Field names a logical slot of the canonical document.
type Field string

// Top-level fields, resolved against the payload root.
const (
	FieldSummary            Field = "summary"
	FieldProblemFrame       Field = "problemFrame"
	FieldInterviewQuestions Field = "interviewQuestions"
	FieldRoles              Field = "roles"
	FieldMustFeatures       Field = "features.must"
	FieldNiceFeatures       Field = "features.niceToHave"
	FieldFlowSteps          Field = "flowSteps"
	FieldInputFields        Field = "inputFields"
	FieldPermissionRules    Field = "permissionRules"
	FieldMissingInfo        Field = "ambiguities.missingInfo"
	FieldConfirmQuestions   Field = "ambiguities.confirmQuestions"
	FieldRisks              Field = "risks"
	FieldTestScenarios      Field = "testScenarios"
	FieldTodayTasks         Field = "todayTasks"
	FieldRequestConversion  Field = "requestConversion"
	FieldImpactPreview      Field = "impactPreview"
	FieldLayerGuide         Field = "layerGuide"
	FieldCompletenessScore  Field = "completeness.score"
	FieldCompletenessWarns  Field = "completeness.warnings"
)

// Nested fields, resolved against the object that owns them.
const (
	FieldFrameWho             Field = "problemFrame.who"
	FieldFrameWhen            Field = "problemFrame.when"
	FieldFrameWhat            Field = "problemFrame.what"
	FieldFrameWhy             Field = "problemFrame.why"
	FieldFrameSuccessCriteria Field = "problemFrame.successCriteria"

	FieldRoleName        Field = "roles[].role"
	FieldRoleDescription Field = "roles[].description"

	FieldInputName    Field = "inputFields[].name"
	FieldInputType    Field = "inputFields[].type"
	FieldInputExample Field = "inputFields[].example"

	FieldRuleRole   Field = "permissionRules[].role"
	FieldRuleRead   Field = "permissionRules[].canRead"
	FieldRuleCreate Field = "permissionRules[].canCreate"
	FieldRuleUpdate Field = "permissionRules[].canUpdate"
	FieldRuleDelete Field = "permissionRules[].canDelete"
	FieldRuleNotes  Field = "permissionRules[].notes"

	FieldRequestRaw      Field = "requestConversion.raw"
	FieldRequestShort    Field = "requestConversion.short"
	FieldRequestStandard Field = "requestConversion.standard"
	FieldRequestDetailed Field = "requestConversion.detailed"

	FieldImpactScreens     Field = "impactPreview.screens"
	FieldImpactPermissions Field = "impactPreview.permissions"
	FieldImpactTests       Field = "impactPreview.tests"

	FieldLayerName   Field = "layerGuide[].layer"
	FieldLayerGoal   Field = "layerGuide[].goal"
	FieldLayerOutput Field = "layerGuide[].output"
)

// Aliases lists, per field, the candidate key paths in priority order. The
// first path is the current key; the rest are keys emitted by earlier
// revisions of the prompt schema. Paths are dot separated.
var Aliases = map[Field][]string{
	FieldSummary:            {"summary", "oneLineSummary", "overview"},
	FieldProblemFrame:       {"problemFrame", "problem_frame", "problemDefinition", "problem"},
	FieldInterviewQuestions: {"interviewQuestions", "interview_questions", "questions"},
	FieldRoles:              {"roles", "userRoles", "actors"},
	FieldMustFeatures:       {"features.must", "features.mustHave", "features.must_have", "mustFeatures", "coreFeatures"},
	FieldNiceFeatures:       {"features.niceToHave", "features.nice", "features.nice_to_have", "features.optional", "niceFeatures", "niceToHaveFeatures"},
	FieldFlowSteps:          {"flowSteps", "flow_steps", "userFlow", "flow"},
	FieldInputFields:        {"inputFields", "input_fields", "dataFields", "fields"},
	FieldPermissionRules:    {"permissionRules", "permission_rules", "permissions", "permissionMatrix"},
	FieldMissingInfo:        {"ambiguities.missingInfo", "ambiguities.missing", "ambiguities.missing_info", "missingInfo"},
	FieldConfirmQuestions:   {"ambiguities.confirmQuestions", "ambiguities.questions", "ambiguities.confirm_questions", "confirmQuestions"},
	FieldRisks:              {"risks", "riskList", "risk"},
	FieldTestScenarios:      {"testScenarios", "test_scenarios", "tests", "testCases"},
	FieldTodayTasks:         {"todayTasks", "today_tasks", "nextActions", "today"},
	FieldRequestConversion:  {"requestConversion", "request_conversion", "requestTemplates"},
	FieldImpactPreview:      {"impactPreview", "impact_preview", "impact"},
	FieldLayerGuide:         {"layerGuide", "layer_guide", "layers"},
	FieldCompletenessScore:  {"completeness.score", "completenessScore", "score"},
	FieldCompletenessWarns:  {"completeness.warnings", "completenessWarnings", "warnings"},

	FieldFrameWho:             {"who", "target", "user"},
	FieldFrameWhen:            {"when", "situation", "context"},
	FieldFrameWhat:            {"what", "problem", "task"},
	FieldFrameWhy:             {"why", "reason", "motivation"},
	FieldFrameSuccessCriteria: {"successCriteria", "success_criteria", "success", "done"},

	FieldRoleName:        {"role", "name", "title"},
	FieldRoleDescription: {"description", "desc", "responsibility"},

	FieldInputName:    {"name", "field", "label"},
	FieldInputType:    {"type", "dataType", "data_type"},
	FieldInputExample: {"example", "sample", "exampleValue"},

	FieldRuleRole:   {"role", "actor", "name"},
	FieldRuleRead:   {"canRead", "read", "can_read", "view"},
	FieldRuleCreate: {"canCreate", "create", "can_create", "write"},
	FieldRuleUpdate: {"canUpdate", "update", "can_update", "edit"},
	FieldRuleDelete: {"canDelete", "delete", "can_delete", "remove"},
	FieldRuleNotes:  {"notes", "note", "memo", "condition"},

	FieldRequestRaw:      {"raw", "original"},
	FieldRequestShort:    {"short", "brief"},
	FieldRequestStandard: {"standard", "normal"},
	FieldRequestDetailed: {"detailed", "detail", "full"},

	FieldImpactScreens:     {"screens", "screen", "pages"},
	FieldImpactPermissions: {"permissions", "permission", "roles"},
	FieldImpactTests:       {"tests", "test", "testScenarios"},

	FieldLayerName:   {"layer", "name", "title"},
	FieldLayerGoal:   {"goal", "purpose"},
	FieldLayerOutput: {"output", "deliverable", "result"},
}

// Resolve returns the first meaningful value found under any alias of field,
// searched in priority order from obj.
func Resolve(obj interface{}, field Field) (interface{}, bool) {
	for _, path := range Aliases[field] {
		if v, ok := lookupPath(obj, path); ok && meaningful(v) {
			return v, true
		}
	}
	return nil, false
}

// ResolveOr is Resolve returning nil when no alias matches.
func ResolveOr(obj interface{}, field Field) interface{} {
	v, _ := Resolve(obj, field)
	return v
}

func lookupPath(obj interface{}, path string) (interface{}, bool) {
	current := obj
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		val, exists := m[part]
		if !exists {
			return nil, false
		}
		current = val
	}
	return current, true
}

// meaningful treats nil, blank strings and empty containers as absent so that
// an empty current key falls through to a populated legacy key.
func meaningful(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(val) != ""
	case []interface{}:
		return len(val) > 0
	case map[string]interface{}:
		return len(val) > 0
	default:
		return true
	}
}
