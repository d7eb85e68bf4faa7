package types

import "strings"

// SectionRole names the semantic role of a summary section. Sections from
// different chunks are merged by role, then emitted in canonical order.
type SectionRole string

const (
	SectionIdentity      SectionRole = "identity"
	SectionMechanics     SectionRole = "mechanics"
	SectionProvisions    SectionRole = "provisions"
	SectionDistributions SectionRole = "distributions"
)

// CanonicalSectionOrder is the fixed output order of merged sections,
// independent of chunk arrival order.
var CanonicalSectionOrder = []SectionRole{
	SectionIdentity,
	SectionMechanics,
	SectionProvisions,
	SectionDistributions,
}

// sectionRoleAliases maps the section labels the summarization capability
// emits onto canonical roles.
var sectionRoleAliases = map[string]SectionRole{
	"identity":              SectionIdentity,
	"essential_information": SectionIdentity,
	"parties":               SectionIdentity,
	"mechanics":             SectionMechanics,
	"trust_mechanics":       SectionMechanics,
	"powers":                SectionMechanics,
	"administration":        SectionMechanics,
	"provisions":            SectionProvisions,
	"key_provisions":        SectionProvisions,
	"tax":                   SectionProvisions,
	"distributions":         SectionDistributions,
	"distribution_rules":    SectionDistributions,
	"beneficiaries":         SectionDistributions,
}

// ParseSectionRole maps a raw section label to a canonical role. Unmappable
// labels land in provisions, the broadest role.
func ParseSectionRole(raw string) SectionRole {
	if role, ok := sectionRoleAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return role
	}
	return SectionProvisions
}

// Section is one named block of summary text with embedded citation tokens
// in the form {{cite:NNN}}.
type Section struct {
	Role    SectionRole `json:"role"`
	Title   string      `json:"title"`
	Content string      `json:"content"`
}

// PartialSummary is the per-chunk output of the summarization capability,
// before merging.
type PartialSummary struct {
	ChunkIndex int       `json:"chunk_index"`
	Executive  string    `json:"executive"`
	Sections   []Section `json:"sections"`
}

// Summary is the merged, document-level narrative.
type Summary struct {
	Executive string    `json:"executive"`
	Sections  []Section `json:"sections"`
}
