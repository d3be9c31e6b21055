// Package taxonomytest provides a small taxonomy snapshot built from real
// NCBI lineages, plus helpers that write it out as dump files.
package taxonomytest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teranos/taxa/taxonomy"
)

// Taxids used across tests.
const (
	Root                 taxonomy.Taxid = 1
	CellularOrganisms    taxonomy.Taxid = 131567
	Bacteria             taxonomy.Taxid = 2
	Enterobacteriaceae   taxonomy.Taxid = 543
	Escherichia          taxonomy.Taxid = 561
	EColi                taxonomy.Taxid = 562
	EColiK12             taxonomy.Taxid = 83333
	Shigella             taxonomy.Taxid = 620
	ShigellaFlexneri     taxonomy.Taxid = 623
	Photobacterium       taxonomy.Taxid = 657
	PProfundum           taxonomy.Taxid = 74109
	Streptosporangium    taxonomy.Taxid = 2000
	Streptosporangiaceae taxonomy.Taxid = 2004
	Streptosporangiales  taxonomy.Taxid = 85012
	UnclassifiedBacteria taxonomy.Taxid = 2323
	UnculturedBacterium  taxonomy.Taxid = 77133
	Archaea              taxonomy.Taxid = 2157
	Methanobrevibacter   taxonomy.Taxid = 2172
	MSmithii             taxonomy.Taxid = 2173
	Eukaryota            taxonomy.Taxid = 2759
	Canis                taxonomy.Taxid = 9611
	CanisLupus           taxonomy.Taxid = 9612
	Aloe                 taxonomy.Taxid = 4685
	AloeVera             taxonomy.Taxid = 34199
	Viruses              taxonomy.Taxid = 10239
	Caudoviricetes       taxonomy.Taxid = 2731619
	Bowservirus          taxonomy.Taxid = 2560486
	BowserPhage          taxonomy.Taxid = 2560487

	// MergedOld was folded into PProfundum.
	MergedOld taxonomy.Taxid = 12
	// Deleted and DeletedToo were withdrawn without replacement.
	Deleted    taxonomy.Taxid = 3400745
	DeletedToo taxonomy.Taxid = 3467805
	// Absent is in none of the tables.
	Absent taxonomy.Taxid = 999999999
)

// records lists taxid, name, rank, parent. Bacteria carries the newer
// "domain" rank, Archaea and Eukaryota the older "superkingdom".
var records = []taxonomy.Record{
	{Taxid: 1, Name: "root", Rank: "no rank", ParentTaxid: 1},
	{Taxid: 131567, Name: "cellular organisms", Rank: "no rank", ParentTaxid: 1},

	{Taxid: 2, Name: "Bacteria", Rank: "domain", ParentTaxid: 131567},
	{Taxid: 3379134, Name: "Pseudomonadati", Rank: "kingdom", ParentTaxid: 2},
	{Taxid: 1224, Name: "Pseudomonadota", Rank: "phylum", ParentTaxid: 3379134},
	{Taxid: 1236, Name: "Gammaproteobacteria", Rank: "class", ParentTaxid: 1224},
	{Taxid: 91347, Name: "Enterobacterales", Rank: "order", ParentTaxid: 1236},
	{Taxid: 543, Name: "Enterobacteriaceae", Rank: "family", ParentTaxid: 91347},
	{Taxid: 561, Name: "Escherichia", Rank: "genus", ParentTaxid: 543},
	{Taxid: 562, Name: "Escherichia coli", Rank: "species", ParentTaxid: 561},
	{Taxid: 83333, Name: "Escherichia coli K-12", Rank: "strain", ParentTaxid: 562},
	{Taxid: 620, Name: "Shigella", Rank: "genus", ParentTaxid: 543},
	{Taxid: 623, Name: "Shigella flexneri", Rank: "species", ParentTaxid: 620},
	{Taxid: 135623, Name: "Vibrionales", Rank: "order", ParentTaxid: 1236},
	{Taxid: 641, Name: "Vibrionaceae", Rank: "family", ParentTaxid: 135623},
	{Taxid: 657, Name: "Photobacterium", Rank: "genus", ParentTaxid: 641},
	{Taxid: 74109, Name: "Photobacterium profundum", Rank: "species", ParentTaxid: 657},
	{Taxid: 1783272, Name: "Bacillati", Rank: "kingdom", ParentTaxid: 2},
	{Taxid: 201174, Name: "Actinomycetota", Rank: "phylum", ParentTaxid: 1783272},
	{Taxid: 1760, Name: "Actinomycetes", Rank: "class", ParentTaxid: 201174},
	{Taxid: 85012, Name: "Streptosporangiales", Rank: "order", ParentTaxid: 1760},
	{Taxid: 2004, Name: "Streptosporangiaceae", Rank: "family", ParentTaxid: 85012},
	{Taxid: 2000, Name: "Streptosporangium", Rank: "genus", ParentTaxid: 2004},
	{Taxid: 2323, Name: "unclassified Bacteria", Rank: "no rank", ParentTaxid: 2},
	{Taxid: 77133, Name: "uncultured bacterium", Rank: "species", ParentTaxid: 2323},

	{Taxid: 2157, Name: "Archaea", Rank: "superkingdom", ParentTaxid: 131567},
	{Taxid: 28890, Name: "Methanobacteriota", Rank: "phylum", ParentTaxid: 2157},
	{Taxid: 183925, Name: "Methanobacteria", Rank: "class", ParentTaxid: 28890},
	{Taxid: 2158, Name: "Methanobacteriales", Rank: "order", ParentTaxid: 183925},
	{Taxid: 2159, Name: "Methanobacteriaceae", Rank: "family", ParentTaxid: 2158},
	{Taxid: 2172, Name: "Methanobrevibacter", Rank: "genus", ParentTaxid: 2159},
	{Taxid: 2173, Name: "Methanobrevibacter smithii", Rank: "species", ParentTaxid: 2172},

	{Taxid: 2759, Name: "Eukaryota", Rank: "superkingdom", ParentTaxid: 131567},
	{Taxid: 33154, Name: "Opisthokonta", Rank: "clade", ParentTaxid: 2759},
	{Taxid: 33208, Name: "Metazoa", Rank: "kingdom", ParentTaxid: 33154},
	{Taxid: 6072, Name: "Eumetazoa", Rank: "clade", ParentTaxid: 33208},
	{Taxid: 33213, Name: "Bilateria", Rank: "clade", ParentTaxid: 6072},
	{Taxid: 33511, Name: "Deuterostomia", Rank: "clade", ParentTaxid: 33213},
	{Taxid: 7711, Name: "Chordata", Rank: "phylum", ParentTaxid: 33511},
	{Taxid: 89593, Name: "Craniata", Rank: "subphylum", ParentTaxid: 7711},
	{Taxid: 7742, Name: "Vertebrata", Rank: "clade", ParentTaxid: 89593},
	{Taxid: 7776, Name: "Gnathostomata", Rank: "clade", ParentTaxid: 7742},
	{Taxid: 117570, Name: "Teleostomi", Rank: "clade", ParentTaxid: 7776},
	{Taxid: 117571, Name: "Euteleostomi", Rank: "clade", ParentTaxid: 117570},
	{Taxid: 8287, Name: "Sarcopterygii", Rank: "superclass", ParentTaxid: 117571},
	{Taxid: 1338369, Name: "Dipnotetrapodomorpha", Rank: "clade", ParentTaxid: 8287},
	{Taxid: 32523, Name: "Tetrapoda", Rank: "clade", ParentTaxid: 1338369},
	{Taxid: 32524, Name: "Amniota", Rank: "clade", ParentTaxid: 32523},
	{Taxid: 40674, Name: "Mammalia", Rank: "class", ParentTaxid: 32524},
	{Taxid: 32525, Name: "Theria", Rank: "clade", ParentTaxid: 40674},
	{Taxid: 9347, Name: "Eutheria", Rank: "clade", ParentTaxid: 32525},
	{Taxid: 1437010, Name: "Boreoeutheria", Rank: "clade", ParentTaxid: 9347},
	{Taxid: 314145, Name: "Laurasiatheria", Rank: "superorder", ParentTaxid: 1437010},
	{Taxid: 33554, Name: "Carnivora", Rank: "order", ParentTaxid: 314145},
	{Taxid: 379584, Name: "Caniformia", Rank: "suborder", ParentTaxid: 33554},
	{Taxid: 9608, Name: "Canidae", Rank: "family", ParentTaxid: 379584},
	{Taxid: 9611, Name: "Canis", Rank: "genus", ParentTaxid: 9608},
	{Taxid: 9612, Name: "Canis lupus", Rank: "species", ParentTaxid: 9611},
	{Taxid: 33090, Name: "Viridiplantae", Rank: "kingdom", ParentTaxid: 2759},
	{Taxid: 35493, Name: "Streptophyta", Rank: "phylum", ParentTaxid: 33090},
	{Taxid: 131221, Name: "Streptophytina", Rank: "subphylum", ParentTaxid: 35493},
	{Taxid: 3193, Name: "Embryophyta", Rank: "clade", ParentTaxid: 131221},
	{Taxid: 58023, Name: "Tracheophyta", Rank: "clade", ParentTaxid: 3193},
	{Taxid: 78536, Name: "Euphyllophyta", Rank: "clade", ParentTaxid: 58023},
	{Taxid: 58024, Name: "Spermatophyta", Rank: "clade", ParentTaxid: 78536},
	{Taxid: 3398, Name: "Magnoliopsida", Rank: "class", ParentTaxid: 58024},
	{Taxid: 1437183, Name: "Mesangiospermae", Rank: "clade", ParentTaxid: 3398},
	{Taxid: 4447, Name: "Liliopsida", Rank: "clade", ParentTaxid: 1437183},
	{Taxid: 1437197, Name: "Petrosaviidae", Rank: "subclass", ParentTaxid: 4447},
	{Taxid: 73496, Name: "Asparagales", Rank: "order", ParentTaxid: 1437197},
	{Taxid: 4686, Name: "Asphodelaceae", Rank: "family", ParentTaxid: 73496},
	{Taxid: 4685, Name: "Aloe", Rank: "genus", ParentTaxid: 4686},
	{Taxid: 34199, Name: "Aloe vera", Rank: "species", ParentTaxid: 4685},

	{Taxid: 10239, Name: "Viruses", Rank: "superkingdom", ParentTaxid: 1},
	{Taxid: 2731341, Name: "Duplodnaviria", Rank: "realm", ParentTaxid: 10239},
	{Taxid: 2731360, Name: "Heunggongvirae", Rank: "kingdom", ParentTaxid: 2731341},
	{Taxid: 2731618, Name: "Uroviricota", Rank: "phylum", ParentTaxid: 2731360},
	{Taxid: 2731619, Name: "Caudoviricetes", Rank: "class", ParentTaxid: 2731618},
	{Taxid: 2560486, Name: "Bowservirus", Rank: "genus", ParentTaxid: 2731619},
	{Taxid: 2560487, Name: "Bowservirus bowser", Rank: "species", ParentTaxid: 2560486},
}

// Snapshot returns a fresh copy of the fixture.
func Snapshot() taxonomy.Snapshot {
	recs := make([]taxonomy.Record, len(records))
	copy(recs, records)
	return taxonomy.Snapshot{
		Records: recs,
		Merged:  []taxonomy.Merge{{Old: MergedOld, New: PProfundum}},
		Deleted: []taxonomy.Taxid{Deleted, DeletedToo},
	}
}

// Engine builds an engine over the fixture, failing the test on error.
func Engine(t testing.TB, opts ...taxonomy.Option) *taxonomy.Engine {
	t.Helper()
	e, err := taxonomy.New(Snapshot(), opts...)
	require.NoError(t, err)
	return e
}

// DumpFile names written by WriteDump.
const (
	NodesFile           = "nodes.dmp"
	FullNameLineageFile = "fullnamelineage.dmp"
	NamesFile           = "names.dmp"
	MergedFile          = "merged.dmp"
	DelNodesFile        = "delnodes.dmp"
)

// WriteDump writes snap into dir in NCBI new_taxdump layout: nodes.dmp,
// fullnamelineage.dmp, merged.dmp and delnodes.dmp.
func WriteDump(t testing.TB, dir string, snap taxonomy.Snapshot) {
	t.Helper()

	byID := make(map[taxonomy.Taxid]taxonomy.Record, len(snap.Records))
	for _, r := range snap.Records {
		byID[r.Taxid] = r
	}

	var nodes, lineages strings.Builder
	for _, r := range snap.Records {
		fmt.Fprintf(&nodes, "%d\t|\t%d\t|\t%s\t|\t\t|\t11\t|\n", r.Taxid, r.ParentTaxid, r.Rank)
		fmt.Fprintf(&lineages, "%d\t|\t%s\t|\t%s\t|\n", r.Taxid, r.Name, lineageOf(byID, r))
	}

	var merged strings.Builder
	for _, m := range snap.Merged {
		fmt.Fprintf(&merged, "%d\t|\t%d\t|\n", m.Old, m.New)
	}

	var deleted strings.Builder
	for _, id := range snap.Deleted {
		fmt.Fprintf(&deleted, "%d\t|\n", id)
	}

	writeFile(t, dir, NodesFile, nodes.String())
	writeFile(t, dir, FullNameLineageFile, lineages.String())
	writeFile(t, dir, MergedFile, merged.String())
	writeFile(t, dir, DelNodesFile, deleted.String())
}

// WriteNamesDump writes a names.dmp with one scientific name and one
// synonym per record, for loaders that fall back from fullnamelineage.dmp.
func WriteNamesDump(t testing.TB, dir string, snap taxonomy.Snapshot) {
	t.Helper()
	var names strings.Builder
	for _, r := range snap.Records {
		fmt.Fprintf(&names, "%d\t|\t%s synonym\t|\t\t|\tsynonym\t|\n", r.Taxid, r.Name)
		fmt.Fprintf(&names, "%d\t|\t%s\t|\t\t|\tscientific name\t|\n", r.Taxid, r.Name)
	}
	writeFile(t, dir, NamesFile, names.String())
}

// lineageOf renders the ancestor names root-first without the root,
// each followed by "; ", the way fullnamelineage.dmp does.
func lineageOf(byID map[taxonomy.Taxid]taxonomy.Record, r taxonomy.Record) string {
	var names []string
	for cur, ok := byID[r.ParentTaxid]; ok && !r.IsRoot(); cur, ok = byID[cur.ParentTaxid] {
		if cur.IsRoot() || len(names) > len(byID) {
			break
		}
		names = append([]string{cur.Name}, names...)
	}
	if len(names) == 0 {
		return ""
	}
	return strings.Join(names, "; ") + "; "
}

func writeFile(t testing.TB, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
