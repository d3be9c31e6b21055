package taxonomy

import "github.com/teranos/taxa/errors"

// Query and construction failures. Returned errors wrap one of these;
// test with errors.Is.
var (
	// ErrUnknownTaxid: the taxid is not current. Merged and deleted ids
	// also fail with this for current-only operations, with a hint naming
	// their status.
	ErrUnknownTaxid = errors.New("unknown taxid")

	// ErrUnknownClade: the clade name has no configured anchor.
	ErrUnknownClade = errors.New("unknown clade")

	// ErrNoRankInLineage: no ancestor carries the requested rank.
	ErrNoRankInLineage = errors.New("no matching rank in lineage")

	// ErrNoGenusInLineage is the genus case of ErrNoRankInLineage.
	// Errors returned by GenusOf satisfy errors.Is for both.
	ErrNoGenusInLineage = errors.New("no genus in lineage")

	// ErrInvariantViolation: the snapshot is not a single rooted tree, or
	// its state tables overlap. Only returned at construction.
	ErrInvariantViolation = errors.New("taxonomy invariant violated")
)

const corruptHint = "the taxonomy dump looks corrupt or truncated; rebuild it with 'taxa taxonomy set'"

func violationf(format string, args ...interface{}) error {
	return errors.WithHint(errors.Wrapf(ErrInvariantViolation, format, args...), corruptHint)
}
