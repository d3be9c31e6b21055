package taxonomy

import (
	"encoding/json"
	"time"

	"github.com/teranos/taxa/errors"
)

// StatusKind is the lifecycle state of a taxid.
type StatusKind int

const (
	StatusCurrent StatusKind = iota
	StatusMerged
	StatusDeleted
)

func (k StatusKind) String() string {
	switch k {
	case StatusCurrent:
		return "current"
	case StatusMerged:
		return "merged"
	case StatusDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Status is the resolved lifecycle of one taxid. MergedInto is set only
// when Kind is StatusMerged.
type Status struct {
	Taxid      Taxid
	Kind       StatusKind
	MergedInto Taxid
}

// MergeTarget renders as JSON false when zero and as the taxid otherwise.
type MergeTarget Taxid

// MarshalJSON implements json.Marshaler.
func (m MergeTarget) MarshalJSON() ([]byte, error) {
	if m == 0 {
		return []byte("false"), nil
	}
	return json.Marshal(int64(m))
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *MergeTarget) UnmarshalJSON(data []byte) error {
	if string(data) == "false" {
		*m = 0
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return errors.Wrap(err, "isMerged must be false or a taxid")
	}
	*m = MergeTarget(id)
	return nil
}

// StatusReport is the flat three-field view of a Status.
type StatusReport struct {
	IsCurrent bool        `json:"isCurrent"`
	IsDeleted bool        `json:"isDeleted"`
	IsMerged  MergeTarget `json:"isMerged"`
}

// Report flattens the status. Exactly one of the three fields is set.
func (s Status) Report() StatusReport {
	return StatusReport{
		IsCurrent: s.Kind == StatusCurrent,
		IsDeleted: s.Kind == StatusDeleted,
		IsMerged:  MergeTarget(s.MergedInto),
	}
}

// ResolveStatus classifies id as merged, deleted or current, in that order.
// An id in none of the three tables fails with ErrUnknownTaxid.
func (e *Engine) ResolveStatus(id Taxid) (st Status, err error) {
	defer func(start time.Time) { e.metrics.observe(opStatus, start, err) }(time.Now())

	if newID, ok := e.store.MergedInto(id); ok {
		return Status{Taxid: id, Kind: StatusMerged, MergedInto: newID}, nil
	}
	if e.store.IsDeleted(id) {
		return Status{Taxid: id, Kind: StatusDeleted}, nil
	}
	if e.store.Contains(id) {
		return Status{Taxid: id, Kind: StatusCurrent}, nil
	}
	return Status{}, errors.WithHint(
		errors.Wrapf(ErrUnknownTaxid, "taxid %d", id),
		"the id is not current, merged or deleted in this taxonomy release",
	)
}

// Current maps id to the taxid queries should use: itself when current,
// its replacement when merged. This is the only place merges are followed;
// every other query requires a current id. Deleted ids, and merges whose
// target is not current, fail with ErrUnknownTaxid.
func (e *Engine) Current(id Taxid) (Taxid, error) {
	st, err := e.ResolveStatus(id)
	if err != nil {
		return 0, err
	}
	switch st.Kind {
	case StatusMerged:
		if !e.store.Contains(st.MergedInto) {
			return 0, errors.WithHintf(
				errors.Wrapf(ErrUnknownTaxid, "taxid %d merged into %d", id, st.MergedInto),
				"merge target %d is not current in this release", st.MergedInto,
			)
		}
		return st.MergedInto, nil
	case StatusDeleted:
		return 0, e.store.unknown(id)
	default:
		return id, nil
	}
}
