package taxonomy

import (
	"sort"
	"strings"
	"time"

	"github.com/teranos/taxa/errors"
)

// CladeTable maps a clade name to the taxid that anchors it. A taxon
// belongs to a clade when the anchor is on its ancestry path.
type CladeTable map[string]Taxid

// DefaultClades returns the built-in anchors.
func DefaultClades() CladeTable {
	return CladeTable{
		"virus":     10239,   // Viruses
		"archaea":   2157,    // Archaea
		"bacteria":  2,       // Bacteria
		"eukaryote": 2759,    // Eukaryota
		"phage":     2731619, // Caudoviricetes
	}
}

// Names returns the clade names in sorted order.
func (c CladeTable) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// normalize lower-cases names and rejects empty names or non-positive anchors.
func (c CladeTable) normalize() (CladeTable, error) {
	out := make(CladeTable, len(c))
	for name, anchor := range c {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			return nil, errors.NewInvalidRequestError("clade with empty name")
		}
		if anchor <= 0 {
			return nil, errors.NewInvalidRequestError("clade %q has non-positive anchor %d", name, anchor)
		}
		out[key] = anchor
	}
	return out, nil
}

// IsClade reports whether id belongs to the named clade. Unconfigured
// names fail with ErrUnknownClade, non-current ids with ErrUnknownTaxid.
func (e *Engine) IsClade(id Taxid, clade string) (ok bool, err error) {
	defer func(start time.Time) { e.metrics.observe(opIsClade, start, err) }(time.Now())

	anchor, found := e.clades[strings.ToLower(strings.TrimSpace(clade))]
	if !found {
		return false, errors.WithHintf(
			errors.Wrapf(ErrUnknownClade, "clade %q", clade),
			"configured clades: %s", strings.Join(e.clades.Names(), ", "),
		)
	}
	path, err := e.path(id)
	if err != nil {
		return false, err
	}
	return contains(path, anchor), nil
}

// CladesOf lists every configured clade containing id, sorted by name.
func (e *Engine) CladesOf(id Taxid) ([]string, error) {
	path, err := e.path(id)
	if err != nil {
		return nil, err
	}
	matched := []string{}
	for _, name := range e.clades.Names() {
		if contains(path, e.clades[name]) {
			matched = append(matched, name)
		}
	}
	return matched, nil
}

// RankOf walks from id toward the root and returns the first taxid whose
// rank is one of ranks. id itself is checked first.
func (e *Engine) RankOf(id Taxid, ranks ...string) (found Taxid, err error) {
	defer func(start time.Time) { e.metrics.observe(opRank, start, err) }(time.Now())

	path, err := e.path(id)
	if err != nil {
		return 0, err
	}
	for _, t := range path {
		rank := e.store.records[t].Rank
		for _, want := range ranks {
			if rank == want {
				return t, nil
			}
		}
	}
	return 0, errors.Wrapf(ErrNoRankInLineage, "taxid %d has no %s in its lineage", id, strings.Join(ranks, "/"))
}

// GenusOf returns the nearest genus at or above id.
func (e *Engine) GenusOf(id Taxid) (Taxid, error) {
	genus, err := e.RankOf(id, RankGenus)
	if errors.Is(err, ErrNoRankInLineage) {
		return 0, errors.Mark(errors.Wrapf(ErrNoGenusInLineage, "taxid %d", id), ErrNoRankInLineage)
	}
	return genus, err
}

// SpeciesOf returns the nearest species at or above id, e.g. for a strain.
func (e *Engine) SpeciesOf(id Taxid) (Taxid, error) {
	return e.RankOf(id, RankSpecies)
}

// SuperkingdomOf returns the top-level domain of id under either the old
// "superkingdom" or the current "domain" rank label.
func (e *Engine) SuperkingdomOf(id Taxid) (Taxid, error) {
	return e.RankOf(id, RankSuperkingdom, RankDomain)
}
