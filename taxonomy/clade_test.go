package taxonomy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/taxonomy"
	tt "github.com/teranos/taxa/taxonomy/taxonomytest"
)

func TestIsClade(t *testing.T) {
	e := tt.Engine(t)

	tests := []struct {
		id    taxonomy.Taxid
		clade string
		want  bool
	}{
		{tt.AloeVera, "virus", false},
		{tt.AloeVera, "eukaryote", true},
		{tt.ShigellaFlexneri, "archaea", false},
		{tt.MSmithii, "archaea", true},
		{tt.EColi, "bacteria", true},
		{tt.CanisLupus, "bacteria", false},
		{tt.BowserPhage, "phage", true},
		{tt.BowserPhage, "virus", true},
		{tt.Viruses, "phage", false},
		{tt.Caudoviricetes, "phage", true},
		{tt.Root, "eukaryote", false},
		{tt.EColi, "Bacteria", true},
		{tt.EColi, " BACTERIA ", true},
	}
	for _, tc := range tests {
		got, err := e.IsClade(tc.id, tc.clade)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "IsClade(%d, %q)", tc.id, tc.clade)
	}
}

func TestIsClade_Errors(t *testing.T) {
	e := tt.Engine(t)

	_, err := e.IsClade(tt.EColi, "fungus")
	require.Error(t, err)
	assert.True(t, errors.Is(err, taxonomy.ErrUnknownClade))
	assert.Contains(t, errors.FlattenHints(err), "archaea, bacteria, eukaryote, phage, virus")

	_, err = e.IsClade(tt.MergedOld, "bacteria")
	assert.True(t, errors.Is(err, taxonomy.ErrUnknownTaxid))
}

func TestCladesOf(t *testing.T) {
	e := tt.Engine(t)

	clades, err := e.CladesOf(tt.BowserPhage)
	require.NoError(t, err)
	assert.Equal(t, []string{"phage", "virus"}, clades)

	clades, err = e.CladesOf(tt.EColi)
	require.NoError(t, err)
	assert.Equal(t, []string{"bacteria"}, clades)

	clades, err = e.CladesOf(tt.Root)
	require.NoError(t, err)
	assert.Equal(t, []string{}, clades)
}

func TestWithClades(t *testing.T) {
	e := tt.Engine(t, taxonomy.WithClades(taxonomy.CladeTable{"Canids": 9608}))

	ok, err := e.IsClade(tt.CanisLupus, "canids")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = e.IsClade(tt.CanisLupus, "bacteria")
	assert.True(t, errors.Is(err, taxonomy.ErrUnknownClade))

	clades := e.Clades()
	clades["mutated"] = 1
	assert.NotContains(t, e.Clades(), "mutated")
}

func TestWithClades_Invalid(t *testing.T) {
	_, err := taxonomy.New(tt.Snapshot(), taxonomy.WithClades(taxonomy.CladeTable{" ": 2}))
	assert.True(t, errors.IsInvalidRequestError(err))

	_, err = taxonomy.New(tt.Snapshot(), taxonomy.WithClades(taxonomy.CladeTable{"bad": -1}))
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestWithClades_StaleAnchor(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	e := tt.Engine(t,
		taxonomy.WithClades(taxonomy.CladeTable{"gone": tt.Deleted, "bacteria": 2}),
		taxonomy.WithLogger(zap.New(core).Sugar()),
	)

	assert.Equal(t, 1, logs.FilterMessageSnippet("Clade anchor").Len())

	ok, err := e.IsClade(tt.EColi, "gone")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGenusOf(t *testing.T) {
	e := tt.Engine(t)

	for id, want := range map[taxonomy.Taxid]taxonomy.Taxid{
		tt.EColi:             tt.Escherichia,
		tt.EColiK12:          tt.Escherichia,
		tt.Escherichia:       tt.Escherichia,
		tt.Streptosporangium: tt.Streptosporangium,
		tt.CanisLupus:        tt.Canis,
		tt.BowserPhage:       tt.Bowservirus,
	} {
		got, err := e.GenusOf(id)
		require.NoError(t, err, "taxid %d", id)
		assert.Equal(t, want, got, "taxid %d", id)
	}

	for _, id := range []taxonomy.Taxid{tt.UnculturedBacterium, tt.Enterobacteriaceae, tt.Root} {
		_, err := e.GenusOf(id)
		require.Error(t, err)
		assert.True(t, errors.Is(err, taxonomy.ErrNoGenusInLineage), "taxid %d", id)
		assert.True(t, errors.Is(err, taxonomy.ErrNoRankInLineage), "taxid %d", id)
	}

	_, err := e.GenusOf(tt.Deleted)
	assert.True(t, errors.Is(err, taxonomy.ErrUnknownTaxid))
	assert.False(t, errors.Is(err, taxonomy.ErrNoGenusInLineage))
}

func TestSpeciesOf(t *testing.T) {
	e := tt.Engine(t)

	got, err := e.SpeciesOf(tt.EColiK12)
	require.NoError(t, err)
	assert.Equal(t, tt.EColi, got)

	_, err = e.SpeciesOf(tt.Enterobacteriaceae)
	assert.True(t, errors.Is(err, taxonomy.ErrNoRankInLineage))
	assert.False(t, errors.Is(err, taxonomy.ErrNoGenusInLineage))
}

func TestSuperkingdomOf(t *testing.T) {
	e := tt.Engine(t)

	for id, want := range map[taxonomy.Taxid]taxonomy.Taxid{
		tt.EColi:       tt.Bacteria, // "domain"
		tt.CanisLupus:  tt.Eukaryota,
		tt.MSmithii:    tt.Archaea,
		tt.BowserPhage: tt.Viruses,
	} {
		got, err := e.SuperkingdomOf(id)
		require.NoError(t, err, "taxid %d", id)
		assert.Equal(t, want, got, "taxid %d", id)
	}

	_, err := e.SuperkingdomOf(tt.CellularOrganisms)
	assert.True(t, errors.Is(err, taxonomy.ErrNoRankInLineage))
}
