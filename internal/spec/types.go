// internal/spec/types.go
package spec

// CanonicalSpec is the fully populated document produced by Normalize.
// Every list that has a fixed cardinality is always at that length.
type CanonicalSpec struct {
	Summary            string            `json:"summary"`
	ProblemFrame       ProblemFrame      `json:"problemFrame"`
	InterviewQuestions []string          `json:"interviewQuestions"`
	Roles              []Role            `json:"roles"`
	Features           Features          `json:"features"`
	FlowSteps          []string          `json:"flowSteps"`
	InputFields        []InputField      `json:"inputFields"`
	PermissionRules    []PermissionRule  `json:"permissionRules"`
	Ambiguities        Ambiguities       `json:"ambiguities"`
	Risks              []string          `json:"risks"`
	TestScenarios      []string          `json:"testScenarios"`
	TodayTasks         []string          `json:"todayTasks"`
	RequestConversion  RequestConversion `json:"requestConversion"`
	ImpactPreview      ImpactPreview     `json:"impactPreview"`
	LayerGuide         []LayerStep       `json:"layerGuide"`
	Completeness       Completeness      `json:"completeness"`
}

type ProblemFrame struct {
	Who             string `json:"who"`
	When            string `json:"when"`
	What            string `json:"what"`
	Why             string `json:"why"`
	SuccessCriteria string `json:"successCriteria"`
}

type Role struct {
	Role        string `json:"role"`
	Description string `json:"description"`
}

type Features struct {
	Must       []string `json:"must"`
	NiceToHave []string `json:"niceToHave"`
}

type InputField struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Example string `json:"example"`
}

type PermissionRule struct {
	Role      string `json:"role"`
	CanRead   bool   `json:"canRead"`
	CanCreate bool   `json:"canCreate"`
	CanUpdate bool   `json:"canUpdate"`
	CanDelete bool   `json:"canDelete"`
	Notes     string `json:"notes"`
}

type Ambiguities struct {
	MissingInfo      []string `json:"missingInfo"`
	ConfirmQuestions []string `json:"confirmQuestions"`
}

// RequestConversion holds the same request phrased at several levels of detail.
type RequestConversion struct {
	Raw      string `json:"raw"`
	Short    string `json:"short"`
	Standard string `json:"standard"`
	Detailed string `json:"detailed"`
}

type ImpactPreview struct {
	Screens     []string `json:"screens"`
	Permissions []string `json:"permissions"`
	Tests       []string `json:"tests"`
}

type LayerStep struct {
	Layer  string `json:"layer"`
	Goal   string `json:"goal"`
	Output string `json:"output"`
}

type Completeness struct {
	Score    int      `json:"score"`
	Warnings []string `json:"warnings"`
}

// Fixed cardinalities of the canonical document.
const (
	FlowStepCount          = 5
	InterviewQuestionCount = 3
	ConfirmQuestionCount   = 3
	RiskCount              = 3
	TestScenarioCount      = 3
	TodayTaskCount         = 3
	LayerGuideCount        = 5
)
