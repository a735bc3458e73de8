package models

// ExperienceLevel pairs a source code with its display label.
type ExperienceLevel struct {
	Code  string
	Label string
}

// ExperienceLevels is the fixed code set in display order.
var ExperienceLevels = []ExperienceLevel{
	{Code: "EN", Label: "Entry-level"},
	{Code: "MI", Label: "Mid-level"},
	{Code: "SE", Label: "Senior-level"},
	{Code: "EX", Label: "Executive-level"},
}

var (
	labelByCode = make(map[string]string, len(ExperienceLevels))
	codeByLabel = make(map[string]string, len(ExperienceLevels))
)

func init() {
	for _, lvl := range ExperienceLevels {
		labelByCode[lvl.Code] = lvl.Label
		codeByLabel[lvl.Label] = lvl.Code
	}
}

// ExperienceLabel maps a code to its label. Codes outside the set are
// returned unchanged.
func ExperienceLabel(code string) string {
	if label, ok := labelByCode[code]; ok {
		return label
	}
	return code
}

// ExperienceCode is the inverse of ExperienceLabel for the fixed set.
func ExperienceCode(label string) (string, bool) {
	code, ok := codeByLabel[label]
	return code, ok
}

func ExperienceLabels() []string {
	labels := make([]string, len(ExperienceLevels))
	for i, lvl := range ExperienceLevels {
		labels[i] = lvl.Label
	}
	return labels
}
