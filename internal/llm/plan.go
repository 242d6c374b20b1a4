package llm

import (
	"encoding/json"
	"strings"
)

// PlanOrigin says how much of the model's plan response survived
// decoding.
type PlanOrigin int

const (
	// PlanParsed means the response was valid JSON as-is.
	PlanParsed PlanOrigin = iota
	// PlanRecovered means JSON was salvaged from a brace-delimited
	// substring of an otherwise chatty response.
	PlanRecovered
	// PlanUnstructured means no JSON was found; only Analysis is
	// populated, with the raw text.
	PlanUnstructured
)

func (o PlanOrigin) String() string {
	switch o {
	case PlanParsed:
		return "parsed"
	case PlanRecovered:
		return "recovered"
	case PlanUnstructured:
		return "unstructured"
	}
	return "unknown"
}

// ProposedChange is one file-level edit named by the plan.
type ProposedChange struct {
	File   string `json:"file"`
	Change string `json:"change"`
}

// Plan is the model's structured fix plan. Origin records how it was
// decoded; consumers should only rely on ProposedChanges and Tests when
// Origin is not PlanUnstructured.
type Plan struct {
	Analysis        string           `json:"analysis"`
	ProposedChanges []ProposedChange `json:"proposed_changes"`
	Tests           string           `json:"tests"`

	Origin PlanOrigin `json:"-"`
	Raw    string     `json:"-"`
}

// DecodePlan turns a model response into a Plan: strict JSON first, then
// the largest brace-delimited substring, then the raw text as the
// analysis.
func DecodePlan(raw string) Plan {
	var plan Plan
	if err := json.Unmarshal([]byte(raw), &plan); err == nil {
		plan.Origin = PlanParsed
		plan.Raw = raw
		return plan
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		var recovered Plan
		if err := json.Unmarshal([]byte(raw[start:end+1]), &recovered); err == nil {
			recovered.Origin = PlanRecovered
			recovered.Raw = raw
			return recovered
		}
	}

	return Plan{
		Analysis: strings.TrimSpace(raw),
		Origin:   PlanUnstructured,
		Raw:      raw,
	}
}

// PromptJSON renders the plan as indented JSON for inclusion in
// follow-up prompts.
func (p Plan) PromptJSON() string {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return p.Analysis
	}
	return string(data)
}
