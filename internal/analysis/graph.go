package analysis

import (
	"context"
	"fmt"
)

// GraphNode is one entity extracted from a document.
type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// GraphEdge is a directed relation between two nodes.
type GraphEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// Graph is the knowledge-graph view of a document: systems, actors, findings
// and how they relate.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

const graphPrompt = `Extract a knowledge graph from the following security audit document. Nodes are the concrete entities mentioned (systems, hosts, services, teams, vulnerabilities, controls); "type" is one of "system", "actor", "vulnerability", "control", "other". Edges connect node ids with a short relation label (e.g. "affects", "owns", "mitigates"). Respond with ONLY a raw JSON object of this exact shape, no markdown fences, no commentary:
{"nodes": [{"id": "n1", "label": "...", "type": "..."}], "edges": [{"source": "n1", "target": "n2", "label": "..."}]}
Limit the graph to the 25 most important nodes.

Document:
%s`

// Graph extracts an entity/relation graph from the document.
func (a *Analyst) Graph(ctx context.Context, docText string) (*Graph, error) {
	var out Graph
	prompt := fmt.Sprintf(graphPrompt, clampText(docText))
	if err := a.generateJSON(ctx, prompt, &out); err != nil {
		return nil, err
	}
	if out.Nodes == nil {
		out.Nodes = []GraphNode{}
	}
	if out.Edges == nil {
		out.Edges = []GraphEdge{}
	}

	// Drop edges that reference nodes the model never declared.
	ids := make(map[string]bool, len(out.Nodes))
	for _, n := range out.Nodes {
		ids[n.ID] = true
	}
	edges := out.Edges[:0]
	for _, e := range out.Edges {
		if ids[e.Source] && ids[e.Target] {
			edges = append(edges, e)
		}
	}
	out.Edges = edges
	return &out, nil
}
