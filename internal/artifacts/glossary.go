// internal/artifacts/glossary.go
package artifacts

import (
	"fmt"
	"strings"

	"vibe-transmuter/internal/spec"
)

// Stage is the pipeline step a glossary term belongs to.
type Stage string

const (
	StageDefine Stage = "define"
	StageDesign Stage = "design"
	StageBuild  Stage = "build"
	StageVerify Stage = "verify"

	// FallbackStage is used for unknown or missing stage tags.
	FallbackStage = StageDesign

	// MaxFieldTerms caps the glossary entries derived from input fields.
	MaxFieldTerms = 8
)

var stageAliases = map[string]Stage{
	"define": StageDefine,
	"plan":   StageDefine,
	"idea":   StageDefine,
	"design": StageDesign,
	"ui":     StageDesign,
	"screen": StageDesign,
	"build":  StageBuild,
	"code":   StageBuild,
	"data":   StageBuild,
	"api":    StageBuild,
	"verify": StageVerify,
	"test":   StageVerify,
	"qa":     StageVerify,
}

// NormalizeStage maps a free-form tag onto the stage enumeration.
func NormalizeStage(tag string) Stage {
	if stage, ok := stageAliases[strings.ToLower(strings.TrimSpace(tag))]; ok {
		return stage
	}
	return FallbackStage
}

type GlossaryEntry struct {
	Term            string `json:"term"`
	Explanation     string `json:"explanation"`
	RequestTemplate string `json:"requestTemplate"`
	Stage           Stage  `json:"stage"`
}

type coreTerm struct {
	term, explanation, template, tag string
}

var coreTerms = []coreTerm{
	{
		"Vibe",
		"The loose, everyday description of what you want built.",
		"Here is my vibe: <one or two sentences>. Turn it into a spec.",
		"idea",
	},
	{
		"Problem frame",
		"Five short answers: who is stuck, when, with what, why it matters and how you know it is solved.",
		"Fill in who/when/what/why/success criteria for this feature before proposing a solution.",
		"define",
	},
	{
		"Role",
		"A kind of user with its own responsibilities and permissions.",
		"List every role that touches this feature and what each one is responsible for.",
		"plan",
	},
	{
		"User flow",
		"The ordered steps a user takes from opening the feature to finishing the task.",
		"Write the main user flow as exactly five numbered steps.",
		"screen",
	},
	{
		"Input field",
		"A piece of data the feature asks for and stores.",
		"For each input field give a name, a type and a realistic example value.",
		"data",
	},
	{
		"Permission rule",
		"Which role may read, create, update or delete the feature's data.",
		"Build a read/create/update/delete matrix per role and explain any exception.",
		"api",
	},
	{
		"Test scenario",
		"A concrete situation you can try to prove the feature works.",
		"Give three test scenarios: the happy path, one edge case and one failure.",
		"qa",
	},
	{
		"Completeness score",
		"A 0 to 100 number counting how many of ten basic questions the spec answers.",
		"Tell me which checklist items are still missing and ask me about them.",
		"verify",
	},
}

// Glossary returns the core terms followed by one entry per input field, up
// to MaxFieldTerms.
func Glossary(s spec.CanonicalSpec) []GlossaryEntry {
	entries := make([]GlossaryEntry, 0, len(coreTerms)+MaxFieldTerms)
	for _, t := range coreTerms {
		entries = append(entries, GlossaryEntry{
			Term:            t.term,
			Explanation:     t.explanation,
			RequestTemplate: t.template,
			Stage:           NormalizeStage(t.tag),
		})
	}

	for i, f := range s.InputFields {
		if i == MaxFieldTerms {
			break
		}
		entries = append(entries, fieldTerm(f))
	}
	return entries
}

func fieldTerm(f spec.InputField) GlossaryEntry {
	name := f.Name
	if name == "" {
		name = "Unnamed field"
	}
	typ := f.Type
	if typ == "" {
		typ = "text"
	}

	explanation := fmt.Sprintf("%s is a %s value the user provides.", name, typ)
	if f.Example != "" {
		explanation += fmt.Sprintf(" Example: %s.", trimPeriod(f.Example))
	}

	return GlossaryEntry{
		Term:            name,
		Explanation:     explanation,
		RequestTemplate: fmt.Sprintf("Add a required %s field \"%s\" to the form and validate it before saving.", typ, name),
		Stage:           NormalizeStage("data"),
	}
}
