package taxonomy

import (
	"sort"

	"github.com/teranos/taxa/errors"
)

// Store holds one immutable record per current taxid plus the merge and
// deletion tables. A Store is validated once in NewStore and never written
// afterwards, so it is safe for concurrent readers without locking.
type Store struct {
	records map[Taxid]Record
	merged  map[Taxid]Taxid
	deleted map[Taxid]struct{}
	root    Taxid
}

// NewStore builds and validates a store from a parsed snapshot.
//
// Validation is eager: duplicate or non-positive taxids, a missing or
// second root, dangling parents, parent cycles, and taxids appearing in
// more than one of the three state tables all fail with
// ErrInvariantViolation. Every later traversal relies on this and runs
// without cycle checks.
func NewStore(snap Snapshot) (*Store, error) {
	s := &Store{
		records: make(map[Taxid]Record, len(snap.Records)),
		merged:  make(map[Taxid]Taxid, len(snap.Merged)),
		deleted: make(map[Taxid]struct{}, len(snap.Deleted)),
	}

	for _, r := range snap.Records {
		if r.Taxid <= 0 {
			return nil, violationf("record with non-positive taxid %d", r.Taxid)
		}
		if _, dup := s.records[r.Taxid]; dup {
			return nil, violationf("taxid %d appears twice", r.Taxid)
		}
		if r.IsRoot() {
			if s.root != 0 {
				return nil, violationf("two roots: %d and %d", s.root, r.Taxid)
			}
			s.root = r.Taxid
		}
		s.records[r.Taxid] = r
	}
	if len(s.records) == 0 {
		return nil, violationf("snapshot has no records")
	}
	if s.root == 0 {
		return nil, violationf("no self-parented root record")
	}

	for _, m := range snap.Merged {
		if m.Old <= 0 || m.New <= 0 {
			return nil, violationf("merge %d -> %d has a non-positive taxid", m.Old, m.New)
		}
		if _, current := s.records[m.Old]; current {
			return nil, violationf("merged taxid %d is also current", m.Old)
		}
		if _, dup := s.merged[m.Old]; dup {
			return nil, violationf("taxid %d merged twice", m.Old)
		}
		s.merged[m.Old] = m.New
	}

	for _, id := range snap.Deleted {
		if id <= 0 {
			return nil, violationf("deleted taxid %d is not positive", id)
		}
		if _, current := s.records[id]; current {
			return nil, violationf("deleted taxid %d is also current", id)
		}
		if _, merged := s.merged[id]; merged {
			return nil, violationf("deleted taxid %d is also merged", id)
		}
		s.deleted[id] = struct{}{}
	}

	if err := s.validateTree(snap.Records); err != nil {
		return nil, err
	}
	return s, nil
}

// validateTree proves every record reaches the root. Each record is walked
// upward until it meets the root or a node already proven; nodes on the
// current walk are marked so a revisit is a cycle. Total work is O(n).
func (s *Store) validateTree(order []Record) error {
	const (
		unvisited = iota
		walking
		proven
	)

	state := make(map[Taxid]uint8, len(s.records))
	state[s.root] = proven

	var walk []Taxid
	for _, start := range order {
		walk = walk[:0]
		cur := start.Taxid
		for state[cur] == unvisited {
			state[cur] = walking
			walk = append(walk, cur)

			parent := s.records[cur].ParentTaxid
			if _, ok := s.records[parent]; !ok {
				return violationf("taxid %d has dangling parent %d", cur, parent)
			}
			if state[parent] == walking {
				return violationf("parent cycle through taxid %d", parent)
			}
			cur = parent
		}
		for _, id := range walk {
			state[id] = proven
		}
	}
	return nil
}

// Record returns the record for a current taxid.
func (s *Store) Record(id Taxid) (Record, error) {
	r, ok := s.records[id]
	if !ok {
		return Record{}, s.unknown(id)
	}
	return r, nil
}

// Parent returns the immediate parent. The root is its own parent.
func (s *Store) Parent(id Taxid) (Taxid, error) {
	r, err := s.Record(id)
	if err != nil {
		return 0, err
	}
	return r.ParentTaxid, nil
}

// unknown builds the ErrUnknownTaxid failure, hinting at the real status of
// ids that are merged or deleted rather than absent.
func (s *Store) unknown(id Taxid) error {
	err := errors.Wrapf(ErrUnknownTaxid, "taxid %d", id)
	if newID, ok := s.merged[id]; ok {
		return errors.WithHintf(err, "taxid %d was merged into %d; query %d instead", id, newID, newID)
	}
	if _, ok := s.deleted[id]; ok {
		return errors.WithHintf(err, "taxid %d was deleted from the taxonomy", id)
	}
	return err
}

// Root returns the root taxid.
func (s *Store) Root() Taxid { return s.root }

// Len returns the number of current records.
func (s *Store) Len() int { return len(s.records) }

// Contains reports whether id is current.
func (s *Store) Contains(id Taxid) bool {
	_, ok := s.records[id]
	return ok
}

// MergedInto returns the replacement for a merged taxid.
func (s *Store) MergedInto(id Taxid) (Taxid, bool) {
	newID, ok := s.merged[id]
	return newID, ok
}

// IsDeleted reports whether id was withdrawn without replacement.
func (s *Store) IsDeleted(id Taxid) bool {
	_, ok := s.deleted[id]
	return ok
}

// MergedCount returns the size of the merge table.
func (s *Store) MergedCount() int { return len(s.merged) }

// DeletedCount returns the size of the deleted set.
func (s *Store) DeletedCount() int { return len(s.deleted) }

// Taxids returns every current taxid in ascending order.
func (s *Store) Taxids() []Taxid {
	ids := make([]Taxid, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Ranks counts current records per rank label.
func (s *Store) Ranks() map[string]int {
	ranks := make(map[string]int)
	for _, r := range s.records {
		ranks[r.Rank]++
	}
	return ranks
}
