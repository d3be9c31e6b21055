package taxonomy

import "time"

// Ancestry is the result of a lowest-common-ancestor query. Distances count
// parent hops (edges), so a taxon that is itself the LCA has distance 0.
type Ancestry struct {
	LCA       Taxid `json:"lca"`
	DistanceA int   `json:"distance_a"`
	DistanceB int   `json:"distance_b"`
}

// Total is the number of edges on the tree path between the two taxa.
func (a Ancestry) Total() int {
	return a.DistanceA + a.DistanceB
}

// Levels is the levels-between report.
//
// Left counts the hops climbed from the right-hand taxon before it meets
// the left-hand lineage, and Right the hops climbed from the left-hand
// taxon. Consumers of the original taxaplease output read the fields this
// way, so (562, 9612) reports Left 26 and Right 8.
type Levels struct {
	Left  int `json:"left_levels_to_common_parent"`
	Right int `json:"right_levels_to_common_parent"`
	Total int `json:"total_levels_between_taxa"`
}

// CommonAncestor returns the lowest common ancestor of a and b and the hop
// distance from each. Any two current taxids share at least the root, so
// the only failure is ErrUnknownTaxid.
func (e *Engine) CommonAncestor(a, b Taxid) (anc Ancestry, err error) {
	defer func(start time.Time) { e.metrics.observe(opCommonAncestor, start, err) }(time.Now())

	pa, err := e.path(a)
	if err != nil {
		return Ancestry{}, err
	}
	pb, err := e.path(b)
	if err != nil {
		return Ancestry{}, err
	}
	return commonAncestor(pa, pb), nil
}

// commonAncestor walks both paths root-first in lockstep; the last position
// where they agree is the LCA. Both paths end at the same root.
func commonAncestor(pa, pb []Taxid) Ancestry {
	i, j := len(pa)-1, len(pb)-1
	for i > 0 && j > 0 && pa[i-1] == pb[j-1] {
		i--
		j--
	}
	// pa[i] is the LCA and i is its index counted from a, i.e. a's hop count.
	return Ancestry{LCA: pa[i], DistanceA: i, DistanceB: j}
}

// CommonAncestorRecord returns the record of the lowest common ancestor.
func (e *Engine) CommonAncestorRecord(a, b Taxid) (Record, error) {
	anc, err := e.CommonAncestor(a, b)
	if err != nil {
		return Record{}, err
	}
	return e.store.Record(anc.LCA)
}

// LevelsBetween reports how far apart two taxa sit in the tree.
func (e *Engine) LevelsBetween(left, right Taxid) (Levels, error) {
	anc, err := e.CommonAncestor(left, right)
	if err != nil {
		return Levels{}, err
	}
	return Levels{
		Left:  anc.DistanceB,
		Right: anc.DistanceA,
		Total: anc.Total(),
	}, nil
}

// IsAncestor reports whether candidate lies on id's ancestry path,
// counting id itself. Both taxids must be current.
func (e *Engine) IsAncestor(candidate, id Taxid) (ok bool, err error) {
	defer func(start time.Time) { e.metrics.observe(opIsAncestor, start, err) }(time.Now())

	if !e.store.Contains(candidate) {
		return false, e.store.unknown(candidate)
	}
	path, err := e.path(id)
	if err != nil {
		return false, err
	}
	return contains(path, candidate), nil
}
