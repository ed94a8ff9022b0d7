package analysis

import (
	"context"
	"fmt"
	"strings"
)

// Categories are the fixed audit types documents are bucketed into. The
// response always carries all of them, empty or not, so chart consumers can
// index without existence checks.
var Categories = []string{
	"Compliance Audit",
	"Vulnerability Assessment",
	"Penetration Testing",
	"API Security Audit",
	"Incident Response Audit",
	"Security Policy Review",
	"Network Security Audit",
}

// DocumentText pairs a document id with (an excerpt of) its extracted text.
type DocumentText struct {
	ID   string
	Text string
}

// excerptChars is how much of each document goes into the categorization
// prompt; classification needs far less context than question answering.
const excerptChars = 4000

const categorizePromptHeader = `Classify each of the following security audit documents into exactly one of these categories:
%s
Respond with ONLY a raw JSON object mapping every category to a list of document ids (empty list if none), no markdown fences, no commentary:
{"categories": {"Compliance Audit": ["id1"], "Vulnerability Assessment": [], ...}}

Documents:
`

// Categorize buckets the given documents into the fixed category set. Every
// category is present in the result; ids the model drops or invents are
// discarded or left uncategorized respectively.
func (a *Analyst) Categorize(ctx context.Context, docs []DocumentText) (map[string][]string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, categorizePromptHeader, "- "+strings.Join(Categories, "\n- "))
	for _, d := range docs {
		text := d.Text
		if len(text) > excerptChars {
			text = text[:excerptChars]
		}
		fmt.Fprintf(&sb, "\n--- document id: %s ---\n%s\n", d.ID, text)
	}

	var out struct {
		Categories map[string][]string `json:"categories"`
	}
	if err := a.generateJSON(ctx, sb.String(), &out); err != nil {
		return nil, err
	}

	known := make(map[string]bool, len(docs))
	for _, d := range docs {
		known[d.ID] = true
	}

	result := make(map[string][]string, len(Categories))
	for _, cat := range Categories {
		ids := []string{}
		for _, id := range out.Categories[cat] {
			if known[id] {
				ids = append(ids, id)
			}
		}
		result[cat] = ids
	}
	return result, nil
}
