package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/taxa/errors"
)

// SchemaVersion is the cache layout this build writes. Caches with a
// different major version must be rebuilt.
const SchemaVersion = "1.0.0"

// Metadata keys.
const (
	KeySourceURL     = "source_url"
	KeyBuiltAt       = "built_at"
	KeySchemaVersion = "schema_version"
)

// Metadata describes where a cached snapshot came from.
type Metadata struct {
	SourceURL     string    `json:"source_url" yaml:"source_url"`
	BuiltAt       time.Time `json:"built_at" yaml:"built_at"`
	SchemaVersion string    `json:"schema_version" yaml:"schema_version"`
}

// NewMetadata stamps a snapshot built now from source.
func NewMetadata(source string) Metadata {
	return Metadata{
		SourceURL:     source,
		BuiltAt:       time.Now().UTC().Truncate(time.Second),
		SchemaVersion: SchemaVersion,
	}
}

func (m Metadata) pairs() [][2]string {
	return [][2]string{
		{KeySourceURL, m.SourceURL},
		{KeyBuiltAt, m.BuiltAt.UTC().Format(time.RFC3339)},
		{KeySchemaVersion, m.SchemaVersion},
	}
}

// ReadMetadata loads the metadata table. Unknown keys are ignored. A cache
// with no metadata fails with ErrEmptyCache.
func ReadMetadata(ctx context.Context, db *sql.DB) (Metadata, error) {
	rows, err := db.QueryContext(ctx, "SELECT key, value FROM metadata")
	if err != nil {
		return Metadata{}, errors.Wrap(err, "query metadata")
	}
	defer rows.Close()

	var meta Metadata
	found := 0
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return Metadata{}, errors.Wrap(err, "scan metadata")
		}
		found++
		switch key {
		case KeySourceURL:
			meta.SourceURL = value
		case KeySchemaVersion:
			meta.SchemaVersion = value
		case KeyBuiltAt:
			builtAt, err := time.Parse(time.RFC3339, value)
			if err != nil {
				return Metadata{}, errors.Wrapf(err, "metadata %s", KeyBuiltAt)
			}
			meta.BuiltAt = builtAt
		}
	}
	if err := rows.Err(); err != nil {
		return Metadata{}, errors.Wrap(err, "iterate metadata")
	}
	if found == 0 {
		return Metadata{}, errors.WithHint(ErrEmptyCache, rebuildHint)
	}
	return meta, nil
}

// CheckSchema rejects metadata written under a different major schema.
func CheckSchema(meta Metadata) error {
	current := semver.MustParse(SchemaVersion)
	got, err := semver.NewVersion(meta.SchemaVersion)
	if err != nil {
		return errors.WithHint(
			errors.Wrapf(ErrSchemaMismatch, "schema version %q is not semver", meta.SchemaVersion),
			rebuildHint,
		)
	}
	if got.Major() != current.Major() {
		return errors.WithHint(
			errors.Wrapf(ErrSchemaMismatch, "cache schema %s, this build reads %d.x", got, current.Major()),
			rebuildHint,
		)
	}
	return nil
}

// Stats are row counts and on-disk size of the cache.
type Stats struct {
	Taxa      int64 `json:"taxa"`
	Merged    int64 `json:"merged"`
	Deleted   int64 `json:"deleted"`
	SizeBytes int64 `json:"size_bytes"`
}

// ReadStats counts cache rows.
func ReadStats(ctx context.Context, db *sql.DB) (Stats, error) {
	var s Stats
	counts := []struct {
		table string
		dst   *int64
	}{
		{"taxa", &s.Taxa},
		{"merged_taxa", &s.Merged},
		{"deleted_taxa", &s.Deleted},
	}
	for _, c := range counts {
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dst); err != nil {
			return Stats{}, errors.Wrapf(err, "count %s", c.table)
		}
	}

	var pages, pageSize int64
	if err := db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pages); err != nil {
		return Stats{}, errors.Wrap(err, "page_count")
	}
	if err := db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err != nil {
		return Stats{}, errors.Wrap(err, "page_size")
	}
	s.SizeBytes = pages * pageSize
	return s, nil
}
