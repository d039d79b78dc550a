package extract

// SectionKind identifies one of the target sections extracted from a
// project page.
type SectionKind string

const (
	SectionGeneralDescription SectionKind = "general_description"
	SectionObjectives         SectionKind = "objectives"
	SectionBeneficiaries      SectionKind = "beneficiaries"
)

// AllSections lists the target sections in output column order.
var AllSections = []SectionKind{
	SectionGeneralDescription,
	SectionObjectives,
	SectionBeneficiaries,
}

// Label returns the human-readable name used in notes ("general
// description", "objectives", "beneficiaries").
func (k SectionKind) Label() string {
	switch k {
	case SectionGeneralDescription:
		return "general description"
	case SectionObjectives:
		return "objectives"
	case SectionBeneficiaries:
		return "beneficiaries"
	default:
		return string(k)
	}
}

// AliasSet holds the heading texts that mark a section, split by
// locale. English aliases are always tried before French ones.
type AliasSet struct {
	EN []string
	FR []string
}

// sectionAliases mirrors the heading variants observed on the MapAfrica
// project pages. Matching is case-insensitive on normalized text.
var sectionAliases = map[SectionKind]AliasSet{
	SectionGeneralDescription: {
		EN: []string{
			"Project General Description",
			"General Description",
			"Project Description",
		},
		FR: []string{
			"Description générale du projet",
			"Description du projet",
		},
	},
	SectionObjectives: {
		EN: []string{
			"Project Objectives",
			"Objectives",
		},
		FR: []string{
			"Objectifs du projet",
			"Objectifs",
		},
	},
	SectionBeneficiaries: {
		EN: []string{
			"Beneficiaries",
			"Target Beneficiaries",
		},
		FR: []string{
			"Bénéficiaires",
			"Bénéficiaires cibles",
		},
	},
}

// Aliases returns the alias set for a section kind.
func Aliases(kind SectionKind) AliasSet {
	return sectionAliases[kind]
}
