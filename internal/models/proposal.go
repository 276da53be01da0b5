package models

// EvidenceItem is a short excerpt taken from retrieved KM text.
type EvidenceItem struct {
	SourceHint string `json:"source_hint"`
	Snippet    string `json:"snippet"`
}

// ProposalDraft is the structured proposal outline produced by the model.
type ProposalDraft struct {
	ExecutiveSummary   []string       `json:"executive_summary"`
	BusinessChallenges []string       `json:"business_challenges"`
	ProposedSolution   []string       `json:"proposed_solution"`
	ArchitectureNotes  []string       `json:"architecture_notes"`
	DeliveryPlan       []string       `json:"delivery_plan"`
	Assumptions        []string       `json:"assumptions"`
	Risks              []string       `json:"risks"`
	Timeline           []string       `json:"timeline"`
	Evidence           []EvidenceItem `json:"evidence"`
}

const ProposalDraftSchemaName = "ProposalDraft"

var proposalSections = []string{
	"executive_summary",
	"business_challenges",
	"proposed_solution",
	"architecture_notes",
	"delivery_plan",
	"assumptions",
	"risks",
	"timeline",
}

// ProposalDraftSchema returns the JSON Schema for ProposalDraft.
func ProposalDraftSchema() map[string]interface{} {
	properties := map[string]interface{}{
		"evidence": map[string]interface{}{
			"type":  "array",
			"items": evidenceItemSchema(),
		},
	}
	required := []interface{}{}
	for _, name := range proposalSections {
		properties[name] = stringListSchema()
		required = append(required, name)
	}
	required = append(required, "evidence")

	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func evidenceItemSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"source_hint": map[string]interface{}{"type": "string"},
			"snippet": map[string]interface{}{
				"type":        "string",
				"description": "<=40 words, copied from the KM raw text",
			},
		},
		"required": []interface{}{"source_hint", "snippet"},
	}
}

func stringListSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":  "array",
		"items": map[string]interface{}{"type": "string"},
	}
}
