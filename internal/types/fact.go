package types

import "strings"

// FactType categorizes an extracted fact. The set is closed: the extraction
// boundary rejects anything it cannot map onto one of these.
type FactType string

const (
	FactCreation         FactType = "creation"
	FactPartyIdentity    FactType = "party_identity"
	FactPower            FactType = "power"
	FactBeneficiaryRight FactType = "beneficiary_right"
	FactDistributionRule FactType = "distribution_rule"
	FactTaxProvision     FactType = "tax_provision"
	FactAdministrative   FactType = "administrative"
	FactOther            FactType = "other"
)

// factTypeAliases maps the looser labels the extraction capability tends to
// emit onto the closed enum.
var factTypeAliases = map[string]FactType{
	"trust_creation": FactCreation,
	"grantor":        FactPartyIdentity,
	"trustee":        FactPartyIdentity,
	"beneficiary":    FactPartyIdentity,
	"parties":        FactPartyIdentity,
	"distribution":   FactDistributionRule,
	"tax":            FactTaxProvision,
	"provision":      FactOther,
	"general":        FactOther,
}

// ParseFactType maps a raw label to a FactType. The second return is false
// for labels that cannot be mapped; callers must drop such facts rather
// than pass them through.
func ParseFactType(raw string) (FactType, bool) {
	label := strings.ToLower(strings.TrimSpace(raw))
	switch FactType(label) {
	case FactCreation, FactPartyIdentity, FactPower, FactBeneficiaryRight,
		FactDistributionRule, FactTaxProvision, FactAdministrative, FactOther:
		return FactType(label), true
	}
	if t, ok := factTypeAliases[label]; ok {
		return t, true
	}
	return "", false
}

// Fact is an atomic extracted statement with a supporting exact quote and
// page provenance. Facts are immutable after extraction.
type Fact struct {
	Statement  string   `json:"statement"`
	ExactText  string   `json:"exact_text"`
	Page       int      `json:"page"`
	PageEnd    int      `json:"page_end,omitempty"` // zero when the fact sits on a single page
	Type       FactType `json:"type"`
	Confidence float64  `json:"confidence"`
	ChunkIndex int      `json:"chunk_index"`
}

// LastPage returns the upper bound of the fact's page range.
func (f *Fact) LastPage() int {
	if f.PageEnd > f.Page {
		return f.PageEnd
	}
	return f.Page
}

// importanceWeights biases fact ranking by type: who created the trust and
// who holds which role matters more to a summary than boilerplate.
var importanceWeights = map[FactType]float64{
	FactCreation:         1.0,
	FactPartyIdentity:    0.9,
	FactBeneficiaryRight: 0.9,
	FactDistributionRule: 0.85,
	FactPower:            0.8,
	FactTaxProvision:     0.75,
	FactAdministrative:   0.6,
	FactOther:            0.5,
}

// Weight returns the type's importance weight, 0.5 for unknown types.
func (t FactType) Weight() float64 {
	if w, ok := importanceWeights[t]; ok {
		return w
	}
	return 0.5
}

// Importance scores the fact by its extraction confidence scaled by its
// type weight. Used to order facts when presenting them for summarization.
func (f *Fact) Importance() float64 {
	return f.Confidence * f.Type.Weight()
}
