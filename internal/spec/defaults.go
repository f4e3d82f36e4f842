// internal/spec/defaults.go
package spec

const (
	SummaryPlaceholder = "No summary was provided."
	FramePlaceholder   = "Not specified yet"
)

// Labels used to pad fixed-length lists.
const (
	InterviewQuestionLabel = "Interview question"
	FlowStepLabel          = "Flow step"
	ConfirmQuestionLabel   = "Confirm question"
	RiskLabel              = "Risk"
	TestScenarioLabel      = "Test scenario"
	TodayTaskLabel         = "Today task"
)

// DefaultLayerGuide fills any layer slot the payload leaves empty.
var DefaultLayerGuide = [LayerGuideCount]LayerStep{
	{
		Layer:  "Problem",
		Goal:   "Say in one sentence who is stuck and why it matters.",
		Output: "A problem statement everyone on the team agrees with.",
	},
	{
		Layer:  "Users & Roles",
		Goal:   "List who touches the feature and what each of them may do.",
		Output: "A role list with one responsibility per role.",
	},
	{
		Layer:  "Flow & Screens",
		Goal:   "Walk the main path from the first screen to the finished result.",
		Output: "Five ordered flow steps that map to screens.",
	},
	{
		Layer:  "Data & Permissions",
		Goal:   "Name the inputs the feature stores and who can read or change them.",
		Output: "An input-field table and a read/create/update/delete matrix.",
	},
	{
		Layer:  "Verification",
		Goal:   "Decide how you will know the feature works before shipping it.",
		Output: "Three test scenarios and today's first tasks.",
	},
}

// Warning messages, in checklist order. The last one has no matching score
// predicate.
const (
	WarnSummaryMissing      = "Summary is empty."
	WarnWhoMissing          = "Problem frame does not say who the users are."
	WarnWhatMissing         = "Problem frame does not say what problem is being solved."
	WarnSuccessMissing      = "Problem frame has no success criteria."
	WarnRolesMissing        = "No roles were defined."
	WarnMustFeaturesMissing = "No must-have features were listed."
	WarnFlowIncomplete      = "The user flow does not have 5 steps."
	WarnInputFieldsMissing  = "No input fields were defined."
	WarnPermissionsMissing  = "No permission rules were defined."
	WarnTestsIncomplete     = "Fewer than 3 test scenarios were provided."
	WarnStandardRequestGone = "The standard request was missing and had to be generated."
)
