package analysis

import (
	"context"
	"fmt"
)

// Vulnerability is one weakness identified in a document, scored 1-10.
type Vulnerability struct {
	Description string `json:"description"`
	Criticality int    `json:"criticality"`
	Reasoning   string `json:"reasoning"`
	Mitigation  string `json:"mitigation"`
}

// KeyFindings is a nested category -> sub-category -> field map. Field values
// are strings or lists of strings depending on what the model reports.
type KeyFindings map[string]map[string]map[string]any

const vulnerabilitiesPrompt = `Identify the vulnerabilities described in the following security audit document. Respond with ONLY a raw JSON object of this exact shape, no markdown fences, no commentary:
{"vulnerabilities": [{"description": "...", "criticality": 7, "reasoning": "...", "mitigation": "..."}]}
"criticality" is an integer 1-10 where 10 is most critical. Order from most to least critical. If the document describes no vulnerabilities, return {"vulnerabilities": []}.

Document:
%s`

// Vulnerabilities extracts the document's vulnerabilities ranked by
// criticality.
func (a *Analyst) Vulnerabilities(ctx context.Context, docText string) ([]Vulnerability, error) {
	var out struct {
		Vulnerabilities []Vulnerability `json:"vulnerabilities"`
	}
	prompt := fmt.Sprintf(vulnerabilitiesPrompt, clampText(docText))
	if err := a.generateJSON(ctx, prompt, &out); err != nil {
		return nil, err
	}
	if out.Vulnerabilities == nil {
		out.Vulnerabilities = []Vulnerability{}
	}
	return out.Vulnerabilities, nil
}

const keyFindingsPrompt = `Extract the key findings from the following security audit document. Group them as a two-level hierarchy: top-level categories (e.g. "Access Control", "Network Security"), each containing sub-categories, each containing named fields whose values are short strings or lists of strings. Respond with ONLY a raw JSON object of this exact shape, no markdown fences, no commentary:
{"findings": {"Category": {"Sub-category": {"detail": "...", "items": ["..."]}}}}

Document:
%s`

// KeyFindings extracts the document's findings hierarchy.
func (a *Analyst) KeyFindings(ctx context.Context, docText string) (KeyFindings, error) {
	var out struct {
		Findings KeyFindings `json:"findings"`
	}
	prompt := fmt.Sprintf(keyFindingsPrompt, clampText(docText))
	if err := a.generateJSON(ctx, prompt, &out); err != nil {
		return nil, err
	}
	if out.Findings == nil {
		out.Findings = KeyFindings{}
	}
	return out.Findings, nil
}
