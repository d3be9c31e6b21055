// Package graph builds the union of taxid lineages as a node/link graph and
// renders it as a terminal tree.
package graph

import (
	"time"

	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/taxonomy"
)

// LinkParent is the only link type: child -> parent
const LinkParent = "parent"

// Graph represents the complete graph structure for visualization
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
	Meta  Meta   `json:"meta"`
}

// Node is one taxon
type Node struct {
	ID      taxonomy.Taxid `json:"id"`
	Label   string         `json:"label"` // scientific name
	Type    string         `json:"type"`  // rank
	Queried bool           `json:"queried,omitempty"`
}

// Link points from a child to its parent
type Link struct {
	Source taxonomy.Taxid `json:"source"`
	Target taxonomy.Taxid `json:"target"`
	Type   string         `json:"type"`
}

// Meta contains metadata about the graph
type Meta struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Query       []taxonomy.Taxid `json:"query"`
	Stats       Stats            `json:"stats"`
}

// Stats provides graph statistics
type Stats struct {
	TotalNodes int `json:"total_nodes"`
	TotalEdges int `json:"total_edges"`
}

// Build merges the lineages of ids into one graph. Nodes appear root first,
// in the order lineages are walked; shared ancestors appear once.
func Build(e *taxonomy.Engine, ids ...taxonomy.Taxid) (*Graph, error) {
	if len(ids) == 0 {
		return nil, errors.NewInvalidRequestError("graph needs at least one taxid")
	}

	g := &Graph{
		Nodes: []Node{},
		Links: []Link{},
		Meta: Meta{
			GeneratedAt: time.Now().UTC(),
			Query:       ids,
		},
	}
	index := make(map[taxonomy.Taxid]int)
	linked := make(map[taxonomy.Taxid]bool)

	for _, id := range ids {
		lineage, err := e.Lineage(id)
		if err != nil {
			return nil, errors.Wrapf(err, "graph lineage of %d", id)
		}
		// lineage runs from id to the root; walk it root first
		for i := len(lineage) - 1; i >= 0; i-- {
			rec := lineage[i]
			if _, ok := index[rec.Taxid]; !ok {
				index[rec.Taxid] = len(g.Nodes)
				g.Nodes = append(g.Nodes, Node{ID: rec.Taxid, Label: rec.Name, Type: rec.Rank})
			}
			if i+1 < len(lineage) && !linked[rec.Taxid] {
				g.Links = append(g.Links, Link{Source: rec.Taxid, Target: lineage[i+1].Taxid, Type: LinkParent})
				linked[rec.Taxid] = true
			}
		}
		g.Nodes[index[id]].Queried = true
	}

	g.Meta.Stats = Stats{TotalNodes: len(g.Nodes), TotalEdges: len(g.Links)}
	return g, nil
}
