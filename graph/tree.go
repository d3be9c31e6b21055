package graph

import (
	"fmt"
	"io"
	"sort"

	"github.com/pterm/pterm"

	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/taxonomy"
)

// RenderTree writes g as an indented tree, root first. Queried taxa are
// highlighted.
func RenderTree(w io.Writer, g *Graph) error {
	if g == nil || len(g.Nodes) == 0 {
		return errors.NewInvalidRequestError("nothing to render")
	}

	nodes := make(map[taxonomy.Taxid]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes[n.ID] = n
	}
	children := make(map[taxonomy.Taxid][]taxonomy.Taxid)
	hasParent := make(map[taxonomy.Taxid]bool)
	for _, l := range g.Links {
		children[l.Target] = append(children[l.Target], l.Source)
		hasParent[l.Source] = true
	}

	var roots []pterm.TreeNode
	for _, n := range g.Nodes {
		if !hasParent[n.ID] {
			roots = append(roots, treeNode(n.ID, nodes, children))
		}
	}

	out, err := pterm.DefaultTree.WithRoot(pterm.TreeNode{Children: roots}).Srender()
	if err != nil {
		return errors.Wrap(err, "render tree")
	}
	if _, err := io.WriteString(w, out); err != nil {
		return errors.Wrap(err, "write tree")
	}
	return nil
}

func treeNode(id taxonomy.Taxid, nodes map[taxonomy.Taxid]Node, children map[taxonomy.Taxid][]taxonomy.Taxid) pterm.TreeNode {
	n := nodes[id]
	text := fmt.Sprintf("%s (%d, %s)", n.Label, n.ID, n.Type)
	if n.Queried {
		text = pterm.LightGreen(text)
	}

	kids := children[id]
	sort.Slice(kids, func(i, j int) bool {
		return nodes[kids[i]].Label < nodes[kids[j]].Label
	})

	tn := pterm.TreeNode{Text: text}
	for _, kid := range kids {
		tn.Children = append(tn.Children, treeNode(kid, nodes, children))
	}
	return tn
}
