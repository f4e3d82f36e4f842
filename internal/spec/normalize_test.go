// internal/spec/normalize_test.go
package spec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Fixtures
// ==========================

func decode(t *testing.T, raw string) interface{} {
	t.Helper()
	var v interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

const currentKeysPayload = `{
  "summary": "A booking page for a small yoga studio",
  "problemFrame": {
    "who": "Studio owner",
    "when": "Every Monday when the weekly schedule opens",
    "what": "Members book classes over chat and slots get double booked",
    "why": "Double bookings cost refunds",
    "successCriteria": "No double bookings for a month"
  },
  "interviewQuestions": ["How many classes a week?", "Do members pay upfront?", "Who cancels classes?"],
  "roles": [
    {"role": "Owner", "description": "Creates classes"},
    {"role": "Member", "description": "Books classes"}
  ],
  "features": {"must": ["Class list", "Booking"], "niceToHave": ["Waitlist"]},
  "flowSteps": ["Open schedule", "Pick class", "Confirm seat", "Receive email", "Attend"],
  "inputFields": [{"name": "className", "type": "text", "example": "Morning flow"}],
  "permissionRules": [
    {"role": "Owner", "canRead": true, "canCreate": true, "canUpdate": true, "canDelete": true, "notes": "Full control"},
    {"role": "Member", "canRead": true, "canCreate": "yes", "canUpdate": false, "canDelete": 0, "notes": "Own bookings only"}
  ],
  "ambiguities": {"missingInfo": ["Payment provider"], "confirmQuestions": ["Refund policy?"]},
  "risks": ["Overbooking"],
  "testScenarios": ["Book a free seat", "Book a full class", "Cancel a booking"],
  "todayTasks": ["Sketch the schedule screen"],
  "requestConversion": {"standard": "Build a yoga class booking page."},
  "impactPreview": {"screens": ["Schedule"]},
  "layerGuide": [{"layer": "Problem", "goal": "Stop double bookings", "output": "One sentence"}]
}`

const legacyKeysPayload = `{
  "oneLineSummary": "A booking page for a small yoga studio",
  "problem_frame": {
    "target": "Studio owner",
    "situation": "Every Monday when the weekly schedule opens",
    "problem": "Members book classes over chat and slots get double booked",
    "reason": "Double bookings cost refunds",
    "success": "No double bookings for a month"
  },
  "questions": ["How many classes a week?", "Do members pay upfront?", "Who cancels classes?"],
  "actors": [
    {"name": "Owner", "desc": "Creates classes"},
    {"title": "Member", "responsibility": "Books classes"}
  ],
  "mustFeatures": ["Class list", "Booking"],
  "niceFeatures": ["Waitlist"],
  "userFlow": ["Open schedule", "Pick class", "Confirm seat", "Receive email", "Attend"],
  "dataFields": [{"field": "className", "dataType": "text", "sample": "Morning flow"}],
  "permissionMatrix": [
    {"actor": "Owner", "view": "허용", "write": "o", "edit": 1, "remove": "allow", "memo": "Full control"},
    {"actor": "Member", "view": "예", "write": "가능", "edit": "금지", "remove": "no", "condition": "Own bookings only"}
  ],
  "missingInfo": ["Payment provider"],
  "confirmQuestions": ["Refund policy?"],
  "riskList": ["Overbooking"],
  "testCases": ["Book a free seat", "Book a full class", "Cancel a booking"],
  "nextActions": ["Sketch the schedule screen"],
  "request_conversion": {"normal": "Build a yoga class booking page."},
  "impact": {"pages": ["Schedule"]},
  "layers": [{"title": "Problem", "purpose": "Stop double bookings", "deliverable": "One sentence"}]
}`

func assertFixedLengths(t *testing.T, s CanonicalSpec) {
	t.Helper()
	assert.Len(t, s.FlowSteps, FlowStepCount)
	assert.Len(t, s.InterviewQuestions, InterviewQuestionCount)
	assert.Len(t, s.Ambiguities.ConfirmQuestions, ConfirmQuestionCount)
	assert.Len(t, s.Risks, RiskCount)
	assert.Len(t, s.TestScenarios, TestScenarioCount)
	assert.Len(t, s.TodayTasks, TodayTaskCount)
	assert.Len(t, s.LayerGuide, LayerGuideCount)
	assert.GreaterOrEqual(t, s.Completeness.Score, 0)
	assert.LessOrEqual(t, s.Completeness.Score, 100)
}

// ==========================
// Example Scenarios
// ==========================

func TestNormalize_EmptyObject(t *testing.T) {
	s := Normalize(map[string]interface{}{})

	assert.Equal(t, SummaryPlaceholder, s.Summary)
	assert.Equal(t, FramePlaceholder, s.ProblemFrame.Who)
	assert.Equal(t, FramePlaceholder, s.ProblemFrame.SuccessCriteria)
	assert.Equal(t, []string{"Interview question 1", "Interview question 2", "Interview question 3"}, s.InterviewQuestions)
	assert.Equal(t, []string{"Confirm question 1", "Confirm question 2", "Confirm question 3"}, s.Ambiguities.ConfirmQuestions)
	assert.Equal(t, []string{"Risk 1", "Risk 2", "Risk 3"}, s.Risks)
	assert.Equal(t, []string{"Test scenario 1", "Test scenario 2", "Test scenario 3"}, s.TestScenarios)
	assert.Equal(t, []string{"Today task 1", "Today task 2", "Today task 3"}, s.TodayTasks)
	assert.Empty(t, s.Roles)
	assert.Empty(t, s.PermissionRules)
	assert.Equal(t, DefaultLayerGuide[:], s.LayerGuide)

	assert.LessOrEqual(t, s.Completeness.Score, 20)
	assert.Equal(t, 0, s.Completeness.Score)
	assert.Len(t, s.Completeness.Warnings, ChecklistSize+1)
	assert.Equal(t, WarnSummaryMissing, s.Completeness.Warnings[0])
	assert.Equal(t, WarnStandardRequestGone, s.Completeness.Warnings[ChecklistSize])
	assertFixedLengths(t, s)
}

func TestNormalize_ShortFlowIsPadded(t *testing.T) {
	s := Normalize(decode(t, `{"flowSteps": ["a", "b"]}`))

	assert.Equal(t, []string{"a", "b", "Flow step 3", "Flow step 4", "Flow step 5"}, s.FlowSteps)
	assert.Contains(t, s.Completeness.Warnings, WarnFlowIncomplete)
}

func TestNormalize_PermissionTokens(t *testing.T) {
	s := Normalize(decode(t, `{"permissionRules": [{"role": "Admin", "read": "허용", "delete": "금지"}]}`))

	require.Len(t, s.PermissionRules, 1)
	rule := s.PermissionRules[0]
	assert.Equal(t, "Admin", rule.Role)
	assert.True(t, rule.CanRead)
	assert.False(t, rule.CanCreate)
	assert.False(t, rule.CanUpdate)
	assert.False(t, rule.CanDelete)
}

func TestNormalize_ProvidedScoreIsClamped(t *testing.T) {
	s := Normalize(decode(t, `{"completeness": {"score": 150}}`))
	assert.Equal(t, 100, s.Completeness.Score)

	s = Normalize(decode(t, `{"completeness": {"score": -3}}`))
	assert.Equal(t, 0, s.Completeness.Score)

	s = Normalize(decode(t, `{"completeness": {"score": 1e20}}`))
	assert.Equal(t, 100, s.Completeness.Score)

	s = Normalize(decode(t, `{"completeness": {"score": "not a number"}}`))
	assert.Equal(t, 0, s.Completeness.Score)
}

func TestNormalize_ProvidedScoreKeptDespiteWarnings(t *testing.T) {
	s := Normalize(decode(t, `{"completeness": {"score": 90}}`))

	assert.Equal(t, 90, s.Completeness.Score)
	assert.Len(t, s.Completeness.Warnings, ChecklistSize+1)
}

func TestNormalize_ProvidedWarningsWin(t *testing.T) {
	s := Normalize(decode(t, `{"completeness": {"warnings": ["Only one thing is missing"]}}`))

	assert.Equal(t, []string{"Only one thing is missing"}, s.Completeness.Warnings)
	assert.Equal(t, 0, s.Completeness.Score)
}

// ==========================
// Properties
// ==========================

func TestNormalize_TotalOnGarbage(t *testing.T) {
	inputs := []interface{}{
		nil,
		"just text",
		42.0,
		true,
		[]interface{}{"summary", 1.0, nil},
		map[string]interface{}{
			"summary":           []interface{}{"not", "a", "string"},
			"problemFrame":      "flat string",
			"roles":             map[string]interface{}{"role": "Admin"},
			"features":          []interface{}{"must"},
			"flowSteps":         []interface{}{map[string]interface{}{"step": 1}, []interface{}{}, 3.0},
			"inputFields":       []interface{}{nil, 1.0, map[string]interface{}{}},
			"permissionRules":   []interface{}{"Admin", nil, map[string]interface{}{"canRead": "yes"}},
			"layerGuide":        []interface{}{nil, 7.0, map[string]interface{}{"goal": []interface{}{}}},
			"completeness":      map[string]interface{}{"score": map[string]interface{}{}, "warnings": "none"},
			"requestConversion": []interface{}{"short"},
			"impactPreview":     map[string]interface{}{"screens": "home"},
		},
	}

	for _, in := range inputs {
		var s CanonicalSpec
		assert.NotPanics(t, func() { s = Normalize(in) }, "input %#v", in)
		assertFixedLengths(t, s)
		assert.NotEmpty(t, s.Summary)
	}
}

func TestNormalize_GarbageEntriesAreDropped(t *testing.T) {
	s := Normalize(decode(t, `{
	  "roles": ["Admin", {"role": "", "description": ""}, {"description": "Reviews posts"}, 5],
	  "inputFields": [{}, "email", {"name": "", "type": "", "example": 0}],
	  "permissionRules": ["Admin", {"role": "", "notes": ""}, {"notes": "Guests may read"}],
	  "flowSteps": [{"step": 1}, 3, "Finish"]
	}`))

	assert.Equal(t, []Role{{Role: "Admin"}, {Description: "Reviews posts"}, {Role: "5"}}, s.Roles)
	assert.Equal(t, []InputField{{Name: "email"}, {Example: "0"}}, s.InputFields)
	require.Len(t, s.PermissionRules, 1)
	assert.Equal(t, "Guests may read", s.PermissionRules[0].Notes)
	assert.Equal(t, []string{"3", "Finish", "Flow step 3", "Flow step 4", "Flow step 5"}, s.FlowSteps)
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := map[string]interface{}{
		"empty":            map[string]interface{}{},
		"garbage":          []interface{}{1.0, "x"},
		"current":          decode(t, currentKeysPayload),
		"legacy":           decode(t, legacyKeysPayload),
		"partial":          decode(t, `{"summary": "Todo app", "flowSteps": ["a"], "completeness": {"score": 150}}`),
		"colliding labels": decode(t, `{"interviewQuestions": ["Interview question 2", "Interview question 2"]}`),
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			first := Normalize(in, WithVibe("I want something"))

			data, err := json.Marshal(first)
			require.NoError(t, err)
			var roundTripped interface{}
			require.NoError(t, json.Unmarshal(data, &roundTripped))

			second := Normalize(roundTripped)
			assert.Equal(t, first, second)
		})
	}
}

func TestNormalize_AliasEquivalence(t *testing.T) {
	current := Normalize(decode(t, currentKeysPayload))
	legacy := Normalize(decode(t, legacyKeysPayload))

	assert.Equal(t, current, legacy)
}

func TestNormalize_FullPayload(t *testing.T) {
	s := Normalize(decode(t, currentKeysPayload), WithVibe("yoga booking"))

	assert.Equal(t, 100, s.Completeness.Score)
	assert.Empty(t, s.Completeness.Warnings)
	assert.Equal(t, "yoga booking", s.RequestConversion.Raw)
	assert.Equal(t, "Build a yoga class booking page.", s.RequestConversion.Standard)
	assert.Equal(t, []string{"Overbooking", "Risk 2", "Risk 3"}, s.Risks)

	member := s.PermissionRules[1]
	assert.True(t, member.CanRead)
	assert.True(t, member.CanCreate)
	assert.False(t, member.CanUpdate)
	assert.False(t, member.CanDelete)

	assert.Equal(t, LayerStep{Layer: "Problem", Goal: "Stop double bookings", Output: "One sentence"}, s.LayerGuide[0])
	assert.Equal(t, DefaultLayerGuide[1], s.LayerGuide[1])
}

func TestNormalize_DuplicateQuestionsAreRemoved(t *testing.T) {
	s := Normalize(decode(t, `{"interviewQuestions": ["Why?", "Why?", "When?"]}`))
	assert.Equal(t, []string{"Why?", "When?", "Interview question 3"}, s.InterviewQuestions)
}

// ==========================
// Derived Fields
// ==========================

func TestNormalize_SynthesizesRequestConversion(t *testing.T) {
	s := Normalize(decode(t, `{
	  "summary": "Todo app",
	  "features": {"must": ["Add task", "Done toggle"]},
	  "testScenarios": ["Add a task"]
	}`), WithVibe("make me a todo app"))

	rc := s.RequestConversion
	assert.Equal(t, "make me a todo app", rc.Raw)
	assert.Equal(t, "Todo app Must-have: Add task, Done toggle.", rc.Short)
	assert.Equal(t, "Build the following feature: Todo app\nMust-have features:\n- Add task\n- Done toggle\nAcceptance tests:\n- Add a task\n- Test scenario 2\n- Test scenario 3", rc.Standard)
	assert.Contains(t, rc.Detailed, rc.Standard)
	assert.Contains(t, rc.Detailed, "Nice-to-have features:\n- (none listed)")
	assert.Contains(t, rc.Detailed, "1. Flow step 1")
	assert.Contains(t, s.Completeness.Warnings, WarnStandardRequestGone)
}

func TestNormalize_SuppliedRequestTemplatesKept(t *testing.T) {
	s := Normalize(decode(t, `{"summary": "Todo app", "requestConversion": {"short": "S", "standard": "STD", "detailed": "D"}}`))

	assert.Equal(t, RequestConversion{Short: "S", Standard: "STD", Detailed: "D"}, s.RequestConversion)
	assert.NotContains(t, s.Completeness.Warnings, WarnStandardRequestGone)
}

func TestNormalize_SynthesizesImpactPreview(t *testing.T) {
	s := Normalize(decode(t, `{
	  "flowSteps": ["Login", "Browse", "Buy", "Pay", "Receipt"],
	  "permissionRules": [
	    {"role": "Admin", "canRead": true, "canDelete": true},
	    {"role": "Guest", "notes": "Nothing yet"}
	  ],
	  "testScenarios": ["Pay with card", "Pay twice", "Refund"],
	  "impactPreview": {"tests": ["Custom test"]}
	}`))

	assert.Equal(t, "Screen for step 1: Login", s.ImpactPreview.Screens[0])
	assert.Len(t, s.ImpactPreview.Screens, FlowStepCount)
	assert.Equal(t, []string{"Admin: read, delete", "Guest: no access"}, s.ImpactPreview.Permissions)
	assert.Equal(t, []string{"Custom test"}, s.ImpactPreview.Tests)
}

func TestPermissionRuleActions(t *testing.T) {
	assert.Nil(t, PermissionRule{}.Actions())
	assert.Equal(t, []string{"read", "create", "update", "delete"},
		PermissionRule{CanRead: true, CanCreate: true, CanUpdate: true, CanDelete: true}.Actions())
	assert.Equal(t, []string{"update"}, PermissionRule{CanUpdate: true}.Actions())
}

func TestNormalize_ChecklistScoring(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"nothing", `{}`, 0},
		{"summary only", `{"summary": "x"}`, 10},
		{"summary and roles", `{"summary": "x", "roles": ["Admin"]}`, 20},
		{"four flow steps do not count", `{"flowSteps": ["a", "b", "c", "d"]}`, 0},
		{"five flow steps count", `{"flowSteps": ["a", "b", "c", "d", "e"]}`, 10},
		{"extra flow steps count", `{"flowSteps": ["a", "b", "c", "d", "e", "f"]}`, 10},
		{"two tests do not count", `{"testScenarios": ["a", "b"]}`, 0},
		{"frame", `{"problemFrame": {"who": "a", "what": "b", "successCriteria": "c", "why": "d"}}`, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Normalize(decode(t, tt.input))
			assert.Equal(t, tt.want, s.Completeness.Score)
		})
	}
}

// ==========================
// Schema
// ==========================

func TestValidate_NormalizedSpecAlwaysValid(t *testing.T) {
	for _, raw := range []string{`{}`, `null`, currentKeysPayload, legacyKeysPayload} {
		s := Normalize(decode(t, raw))
		issues, err := Validate(s)
		require.NoError(t, err)
		assert.Empty(t, issues, "payload %s", raw)
	}
}

func TestValidate_ReportsDrift(t *testing.T) {
	issues, err := Validate(decode(t, `{"summary": "x", "flowSteps": ["a"]}`))
	require.NoError(t, err)
	assert.NotEmpty(t, issues)

	issues, err = Validate(decode(t, legacyKeysPayload))
	require.NoError(t, err)
	assert.NotEmpty(t, issues)
}
