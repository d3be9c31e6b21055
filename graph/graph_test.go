package graph_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/graph"
	"github.com/teranos/taxa/taxonomy"
	tt "github.com/teranos/taxa/taxonomy/taxonomytest"
)

func TestBuild_SingleLineage(t *testing.T) {
	e := tt.Engine(t)

	g, err := graph.Build(e, tt.EColi)
	require.NoError(t, err)

	require.Len(t, g.Nodes, 10)
	assert.Equal(t, tt.Root, g.Nodes[0].ID, "root comes first")
	assert.Equal(t, tt.EColi, g.Nodes[len(g.Nodes)-1].ID)
	assert.Equal(t, "Escherichia coli", g.Nodes[len(g.Nodes)-1].Label)
	assert.Equal(t, "species", g.Nodes[len(g.Nodes)-1].Type)

	assert.Len(t, g.Links, 9)
	for _, l := range g.Links {
		assert.NotEqual(t, l.Source, l.Target, "no self loops")
		assert.Equal(t, graph.LinkParent, l.Type)
	}
	assert.Equal(t, graph.Stats{TotalNodes: 10, TotalEdges: 9}, g.Meta.Stats)
	assert.Equal(t, []taxonomy.Taxid{tt.EColi}, g.Meta.Query)
}

func TestBuild_SharedAncestors(t *testing.T) {
	e := tt.Engine(t)

	g, err := graph.Build(e, tt.EColi, tt.ShigellaFlexneri)
	require.NoError(t, err)

	// Shigella flexneri adds its species and genus only
	assert.Len(t, g.Nodes, 12)
	assert.Len(t, g.Links, 11)

	seen := make(map[taxonomy.Taxid]int)
	var queried []taxonomy.Taxid
	for _, n := range g.Nodes {
		seen[n.ID]++
		if n.Queried {
			queried = append(queried, n.ID)
		}
	}
	assert.Equal(t, 1, seen[tt.Enterobacteriaceae])
	assert.ElementsMatch(t, []taxonomy.Taxid{tt.EColi, tt.ShigellaFlexneri}, queried)

	parents := make(map[taxonomy.Taxid]taxonomy.Taxid)
	for _, l := range g.Links {
		parents[l.Source] = l.Target
	}
	assert.Equal(t, tt.Enterobacteriaceae, parents[tt.Escherichia])
	assert.Equal(t, tt.Enterobacteriaceae, parents[tt.Shigella])
}

func TestBuild_Root(t *testing.T) {
	e := tt.Engine(t)

	g, err := graph.Build(e, tt.Root)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 1)
	assert.Empty(t, g.Links)
	assert.True(t, g.Nodes[0].Queried)
}

func TestBuild_Errors(t *testing.T) {
	e := tt.Engine(t)

	_, err := graph.Build(e)
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = graph.Build(e, tt.EColi, tt.Absent)
	assert.ErrorIs(t, err, taxonomy.ErrUnknownTaxid)

	_, err = graph.Build(e, tt.MergedOld)
	assert.ErrorIs(t, err, taxonomy.ErrUnknownTaxid)
}

func TestGraph_JSON(t *testing.T) {
	e := tt.Engine(t)

	g, err := graph.Build(e, tt.Escherichia)
	require.NoError(t, err)

	data, err := json.Marshal(g)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "nodes")
	assert.Contains(t, decoded, "links")
	meta := decoded["meta"].(map[string]interface{})
	assert.Contains(t, meta, "generated_at")
	assert.Equal(t, float64(len(g.Nodes)), meta["stats"].(map[string]interface{})["total_nodes"])
}

func TestRenderTree(t *testing.T) {
	e := tt.Engine(t)

	g, err := graph.Build(e, tt.EColi, tt.ShigellaFlexneri, tt.CanisLupus)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, graph.RenderTree(&buf, g))
	out := pterm.RemoveColorFromString(buf.String())

	assert.Contains(t, out, "root (1, no rank)")
	assert.Contains(t, out, "Escherichia coli (562, species)")
	assert.Contains(t, out, "Shigella flexneri (623, species)")
	assert.Contains(t, out, "Canis lupus (9612, species)")
	assert.Equal(t, 1, strings.Count(out, "Enterobacteriaceae"))

	// children sorted by name: Escherichia before Shigella, root first
	assert.Less(t, strings.Index(out, "root (1"), strings.Index(out, "cellular organisms"))
	assert.Less(t, strings.Index(out, "Escherichia (561"), strings.Index(out, "Shigella (620"))
	// Bacteria before Eukaryota
	assert.Less(t, strings.Index(out, "Bacteria (2,"), strings.Index(out, "Eukaryota (2759"))
}

func TestRenderTree_Empty(t *testing.T) {
	var buf bytes.Buffer
	err := graph.RenderTree(&buf, nil)
	assert.True(t, errors.IsInvalidRequestError(err))

	err = graph.RenderTree(&buf, &graph.Graph{})
	assert.True(t, errors.IsInvalidRequestError(err))
}
