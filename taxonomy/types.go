package taxonomy

import (
	"strconv"
	"strings"

	"github.com/teranos/taxa/errors"
)

// Taxid is an NCBI taxonomy identifier.
type Taxid int64

// RootTaxid is the identifier NCBI assigns to the root of the tree.
const RootTaxid Taxid = 1

// Well-known rank labels.
const (
	RankNoRank       = "no rank"
	RankSpecies      = "species"
	RankGenus        = "genus"
	RankFamily       = "family"
	RankSuperkingdom = "superkingdom"
	// RankDomain replaced "superkingdom" in the 2025 NCBI dumps.
	RankDomain = "domain"
)

func (t Taxid) String() string {
	return strconv.FormatInt(int64(t), 10)
}

// ParseTaxid parses a user-supplied identifier. Only positive integers are taxids.
func ParseTaxid(s string) (Taxid, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errors.NewInvalidRequestError("taxid %q is not an integer", s)
	}
	if n <= 0 {
		return 0, errors.NewInvalidRequestError("taxid %d must be positive", n)
	}
	return Taxid(n), nil
}

// ParseTaxids parses several identifiers, failing on the first bad one.
func ParseTaxids(args []string) ([]Taxid, error) {
	ids := make([]Taxid, 0, len(args))
	for _, arg := range args {
		id, err := ParseTaxid(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Record is one current taxon.
type Record struct {
	Taxid       Taxid  `json:"taxid"`
	Name        string `json:"name"`
	Rank        string `json:"rank"`
	ParentTaxid Taxid  `json:"parent_taxid"`
}

// IsRoot reports whether the record is the self-parented root.
func (r Record) IsRoot() bool {
	return r.Taxid == r.ParentTaxid
}

// Merge maps a retired taxid to the taxid it was folded into.
type Merge struct {
	Old Taxid `json:"old_taxid"`
	New Taxid `json:"new_taxid"`
}

// Snapshot is a fully parsed taxonomy release: the only input an Engine needs.
type Snapshot struct {
	Records []Record
	Merged  []Merge
	Deleted []Taxid
}
