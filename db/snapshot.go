package db

import (
	"context"
	"database/sql"

	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/taxonomy"
)

// cacheTables are cleared, in order, before a snapshot is written.
var cacheTables = []string{"taxa", "merged_taxa", "deleted_taxa", "metadata"}

const (
	insertTaxon   = "INSERT INTO taxa (taxid, name, rank, parent_taxid) VALUES (?, ?, ?, ?)"
	insertMerge   = "INSERT INTO merged_taxa (old_taxid, new_taxid) VALUES (?, ?)"
	insertDeleted = "INSERT INTO deleted_taxa (taxid) VALUES (?)"
	insertMeta    = "INSERT INTO metadata (key, value) VALUES (?, ?)"
)

// WriteSnapshot replaces the cache contents with snap and meta in a single
// transaction. On any failure the previous contents are left untouched.
func WriteSnapshot(ctx context.Context, db *sql.DB, snap taxonomy.Snapshot, meta Metadata) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin snapshot write")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, table := range cacheTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "clear %s", table)
		}
	}

	if err := insertRows(ctx, tx, insertTaxon, len(snap.Records), func(i int) []interface{} {
		r := snap.Records[i]
		return []interface{}{int64(r.Taxid), r.Name, r.Rank, int64(r.ParentTaxid)}
	}); err != nil {
		return errors.Wrap(err, "write taxa")
	}
	if err := insertRows(ctx, tx, insertMerge, len(snap.Merged), func(i int) []interface{} {
		m := snap.Merged[i]
		return []interface{}{int64(m.Old), int64(m.New)}
	}); err != nil {
		return errors.Wrap(err, "write merged_taxa")
	}
	if err := insertRows(ctx, tx, insertDeleted, len(snap.Deleted), func(i int) []interface{} {
		return []interface{}{int64(snap.Deleted[i])}
	}); err != nil {
		return errors.Wrap(err, "write deleted_taxa")
	}

	pairs := meta.pairs()
	if err := insertRows(ctx, tx, insertMeta, len(pairs), func(i int) []interface{} {
		return []interface{}{pairs[i][0], pairs[i][1]}
	}); err != nil {
		return errors.Wrap(err, "write metadata")
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit snapshot")
	}
	return nil
}

// insertRows runs one prepared statement n times.
func insertRows(ctx context.Context, tx *sql.Tx, query string, n int, args func(i int) []interface{}) error {
	if n == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return errors.Wrap(err, "prepare insert")
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return errors.Wrapf(err, "row %d", i)
		}
	}
	return nil
}

// ReadSnapshot loads the cached snapshot with records in taxid order. An
// empty cache fails with ErrEmptyCache.
func ReadSnapshot(ctx context.Context, db *sql.DB) (taxonomy.Snapshot, error) {
	var snap taxonomy.Snapshot

	rows, err := db.QueryContext(ctx, "SELECT taxid, name, rank, parent_taxid FROM taxa ORDER BY taxid")
	if err != nil {
		return snap, errors.Wrap(err, "query taxa")
	}
	for rows.Next() {
		var r taxonomy.Record
		if err := rows.Scan(&r.Taxid, &r.Name, &r.Rank, &r.ParentTaxid); err != nil {
			rows.Close()
			return snap, errors.Wrap(err, "scan taxa")
		}
		snap.Records = append(snap.Records, r)
	}
	if err := closeRows(rows, "taxa"); err != nil {
		return snap, err
	}
	if len(snap.Records) == 0 {
		return snap, errors.WithHint(ErrEmptyCache, rebuildHint)
	}

	rows, err = db.QueryContext(ctx, "SELECT old_taxid, new_taxid FROM merged_taxa")
	if err != nil {
		return snap, errors.Wrap(err, "query merged_taxa")
	}
	for rows.Next() {
		var m taxonomy.Merge
		if err := rows.Scan(&m.Old, &m.New); err != nil {
			rows.Close()
			return snap, errors.Wrap(err, "scan merged_taxa")
		}
		snap.Merged = append(snap.Merged, m)
	}
	if err := closeRows(rows, "merged_taxa"); err != nil {
		return snap, err
	}

	rows, err = db.QueryContext(ctx, "SELECT taxid FROM deleted_taxa")
	if err != nil {
		return snap, errors.Wrap(err, "query deleted_taxa")
	}
	for rows.Next() {
		var id taxonomy.Taxid
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return snap, errors.Wrap(err, "scan deleted_taxa")
		}
		snap.Deleted = append(snap.Deleted, id)
	}
	if err := closeRows(rows, "deleted_taxa"); err != nil {
		return snap, err
	}

	return snap, nil
}

func closeRows(rows *sql.Rows, table string) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return errors.Wrapf(err, "iterate %s", table)
	}
	return rows.Close()
}
