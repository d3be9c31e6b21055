package taxonomy

import "time"

// typical NCBI depth is 30-40
const pathCapacity = 48

// AncestryPath returns the taxids from id up to and including the root.
// The first element is id, the last is the root, and every taxid appears
// once. Merged and deleted ids fail with ErrUnknownTaxid.
func (e *Engine) AncestryPath(id Taxid) (path []Taxid, err error) {
	defer func(start time.Time) { e.metrics.observe(opAncestry, start, err) }(time.Now())

	shared, err := e.path(id)
	if err != nil {
		return nil, err
	}
	path = make([]Taxid, len(shared))
	copy(path, shared)
	return path, nil
}

// Parents returns the ancestry path without id itself, most specific first.
// The root has no parents.
func (e *Engine) Parents(id Taxid) ([]Taxid, error) {
	path, err := e.AncestryPath(id)
	if err != nil {
		return nil, err
	}
	return path[1:], nil
}

// Lineage returns the records along the ancestry path, id first.
func (e *Engine) Lineage(id Taxid) ([]Record, error) {
	path, err := e.path(id)
	if err != nil {
		return nil, err
	}
	lineage := make([]Record, len(path))
	for i, t := range path {
		lineage[i] = e.store.records[t]
	}
	return lineage, nil
}

// path computes or recalls the ancestry path. The returned slice may be
// shared with the cache and must not be modified.
func (e *Engine) path(id Taxid) ([]Taxid, error) {
	if e.paths != nil {
		if cached, ok := e.paths.Get(id); ok {
			e.metrics.observeCache(true)
			return cached, nil
		}
		e.metrics.observeCache(false)
	}

	rec, err := e.store.Record(id)
	if err != nil {
		return nil, err
	}

	path := make([]Taxid, 0, pathCapacity)
	path = append(path, rec.Taxid)
	for !rec.IsRoot() {
		rec = e.store.records[rec.ParentTaxid]
		path = append(path, rec.Taxid)
	}
	e.metrics.observePath(len(path))

	if e.paths != nil {
		e.paths.ContainsOrAdd(id, path)
	}
	return path, nil
}

func contains(path []Taxid, id Taxid) bool {
	for _, t := range path {
		if t == id {
			return true
		}
	}
	return false
}
