// internal/spec/normalize.go
package spec

// Option adjusts a single Normalize call.
type Option func(*options)

type options struct {
	vibe string
}

// WithVibe supplies the user's original text, used for requestConversion.raw
// when the payload does not carry it.
func WithVibe(vibe string) Option {
	return func(o *options) {
		o.vibe = vibe
	}
}

// sourceFacts records what the payload itself supplied, before padding and
// synthesis. The completeness checklist reads these.
type sourceFacts struct {
	flowSteps        int
	testScenarios    int
	standardProvided bool
}

// Normalize converts an arbitrary decoded JSON value into a CanonicalSpec.
// It never fails: missing or malformed parts are replaced with defaults.
func Normalize(raw interface{}, opts ...Option) CanonicalSpec {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	root, ok := asMap(raw)
	if !ok {
		root = map[string]interface{}{}
	}

	var s CanonicalSpec
	var facts sourceFacts

	s.Summary = String(ResolveOr(root, FieldSummary), SummaryPlaceholder)
	s.ProblemFrame = normalizeFrame(ResolveOr(root, FieldProblemFrame))

	questions := StringList(ResolveOr(root, FieldInterviewQuestions))
	s.InterviewQuestions = padDistinct(questions, InterviewQuestionCount, InterviewQuestionLabel)

	s.Roles = normalizeRoles(ResolveOr(root, FieldRoles))
	s.Features = Features{
		Must:       StringList(ResolveOr(root, FieldMustFeatures)),
		NiceToHave: StringList(ResolveOr(root, FieldNiceFeatures)),
	}

	flow := StringList(ResolveOr(root, FieldFlowSteps))
	facts.flowSteps = len(flow)
	s.FlowSteps = padList(flow, FlowStepCount, FlowStepLabel)

	s.InputFields = normalizeInputFields(ResolveOr(root, FieldInputFields))
	s.PermissionRules = normalizePermissionRules(ResolveOr(root, FieldPermissionRules))

	s.Ambiguities = Ambiguities{
		MissingInfo:      StringList(ResolveOr(root, FieldMissingInfo)),
		ConfirmQuestions: FixedList(ResolveOr(root, FieldConfirmQuestions), ConfirmQuestionCount, ConfirmQuestionLabel),
	}

	s.Risks = FixedList(ResolveOr(root, FieldRisks), RiskCount, RiskLabel)

	tests := StringList(ResolveOr(root, FieldTestScenarios))
	facts.testScenarios = len(tests)
	s.TestScenarios = padList(tests, TestScenarioCount, TestScenarioLabel)

	s.TodayTasks = FixedList(ResolveOr(root, FieldTodayTasks), TodayTaskCount, TodayTaskLabel)

	s.RequestConversion = normalizeRequestConversion(ResolveOr(root, FieldRequestConversion))
	facts.standardProvided = s.RequestConversion.Standard != ""
	if s.RequestConversion.Raw == "" {
		s.RequestConversion.Raw = String(o.vibe, "")
	}

	s.ImpactPreview = normalizeImpactPreview(ResolveOr(root, FieldImpactPreview))
	s.LayerGuide = normalizeLayerGuide(ResolveOr(root, FieldLayerGuide))

	synthesizeRequestConversion(&s)
	synthesizeImpactPreview(&s)

	s.Completeness = normalizeCompleteness(root, &s, facts)
	return s
}

func normalizeFrame(v interface{}) ProblemFrame {
	return ProblemFrame{
		Who:             String(ResolveOr(v, FieldFrameWho), FramePlaceholder),
		When:            String(ResolveOr(v, FieldFrameWhen), FramePlaceholder),
		What:            String(ResolveOr(v, FieldFrameWhat), FramePlaceholder),
		Why:             String(ResolveOr(v, FieldFrameWhy), FramePlaceholder),
		SuccessCriteria: String(ResolveOr(v, FieldFrameSuccessCriteria), FramePlaceholder),
	}
}

func normalizeRoles(v interface{}) []Role {
	out := []Role{}
	for _, item := range asSlice(v) {
		var r Role
		if name := scalarText(item); name != "" {
			r.Role = name
		} else {
			r = Role{
				Role:        String(ResolveOr(item, FieldRoleName), ""),
				Description: String(ResolveOr(item, FieldRoleDescription), ""),
			}
		}
		if r.Role == "" && r.Description == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

func normalizeInputFields(v interface{}) []InputField {
	out := []InputField{}
	for _, item := range asSlice(v) {
		var f InputField
		if name := scalarText(item); name != "" {
			f.Name = name
		} else {
			f = InputField{
				Name:    String(ResolveOr(item, FieldInputName), ""),
				Type:    String(ResolveOr(item, FieldInputType), ""),
				Example: scalarText(ResolveOr(item, FieldInputExample)),
			}
		}
		if f.Name == "" && f.Type == "" && f.Example == "" {
			continue
		}
		out = append(out, f)
	}
	return out
}

func normalizePermissionRules(v interface{}) []PermissionRule {
	out := []PermissionRule{}
	for _, item := range asSlice(v) {
		if _, ok := asMap(item); !ok {
			continue
		}
		r := PermissionRule{
			Role:      String(ResolveOr(item, FieldRuleRole), ""),
			CanRead:   Bool(ResolveOr(item, FieldRuleRead)),
			CanCreate: Bool(ResolveOr(item, FieldRuleCreate)),
			CanUpdate: Bool(ResolveOr(item, FieldRuleUpdate)),
			CanDelete: Bool(ResolveOr(item, FieldRuleDelete)),
			Notes:     String(ResolveOr(item, FieldRuleNotes), ""),
		}
		if r.Role == "" && r.Notes == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}

func normalizeRequestConversion(v interface{}) RequestConversion {
	return RequestConversion{
		Raw:      String(ResolveOr(v, FieldRequestRaw), ""),
		Short:    String(ResolveOr(v, FieldRequestShort), ""),
		Standard: String(ResolveOr(v, FieldRequestStandard), ""),
		Detailed: String(ResolveOr(v, FieldRequestDetailed), ""),
	}
}

func normalizeImpactPreview(v interface{}) ImpactPreview {
	return ImpactPreview{
		Screens:     StringList(ResolveOr(v, FieldImpactScreens)),
		Permissions: StringList(ResolveOr(v, FieldImpactPermissions)),
		Tests:       StringList(ResolveOr(v, FieldImpactTests)),
	}
}

func normalizeLayerGuide(v interface{}) []LayerStep {
	var supplied []LayerStep
	for _, item := range asSlice(v) {
		if len(supplied) == LayerGuideCount {
			break
		}
		var step LayerStep
		if name := scalarText(item); name != "" {
			step.Layer = name
		} else {
			step = LayerStep{
				Layer:  String(ResolveOr(item, FieldLayerName), ""),
				Goal:   String(ResolveOr(item, FieldLayerGoal), ""),
				Output: String(ResolveOr(item, FieldLayerOutput), ""),
			}
		}
		if step.Layer == "" && step.Goal == "" && step.Output == "" {
			continue
		}
		supplied = append(supplied, step)
	}

	out := make([]LayerStep, LayerGuideCount)
	for i := range out {
		def := DefaultLayerGuide[i]
		if i < len(supplied) {
			out[i] = LayerStep{
				Layer:  firstNonEmpty(supplied[i].Layer, def.Layer),
				Goal:   firstNonEmpty(supplied[i].Goal, def.Goal),
				Output: firstNonEmpty(supplied[i].Output, def.Output),
			}
			continue
		}
		out[i] = def
	}
	return out
}

func normalizeCompleteness(root map[string]interface{}, s *CanonicalSpec, facts sourceFacts) Completeness {
	checks := evaluateChecklist(s, facts)

	score, ok := BoundedInt(ResolveOr(root, FieldCompletenessScore), 0, 100)
	if !ok {
		score = scoreChecklist(checks)
	}

	warnings := StringList(ResolveOr(root, FieldCompletenessWarns))
	if len(warnings) == 0 {
		warnings = deriveWarnings(checks, facts)
	}

	return Completeness{Score: score, Warnings: warnings}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
