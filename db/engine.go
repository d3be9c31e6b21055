package db

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/sym"
	"github.com/teranos/taxa/taxonomy"
)

// LoadEngine reads the cache at path and builds an engine over it. A
// missing or empty cache fails with ErrEmptyCache, an incompatible one with
// ErrSchemaMismatch.
func LoadEngine(ctx context.Context, path string, logger *zap.SugaredLogger, opts ...taxonomy.Option) (*taxonomy.Engine, Metadata, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, Metadata{}, errors.WithHint(errors.Wrapf(ErrEmptyCache, "no cache at %s", path), rebuildHint)
		}
		return nil, Metadata{}, errors.Wrapf(err, "stat %s", path)
	}

	start := time.Now()
	conn, err := OpenWithMigrations(path, logger)
	if err != nil {
		return nil, Metadata{}, err
	}
	defer conn.Close()

	meta, err := ReadMetadata(ctx, conn)
	if err != nil {
		return nil, Metadata{}, err
	}
	if err := CheckSchema(meta); err != nil {
		return nil, meta, err
	}

	snap, err := ReadSnapshot(ctx, conn)
	if err != nil {
		return nil, meta, err
	}

	if logger != nil {
		logger.Infow("Loaded taxonomy snapshot from cache",
			"symbol", sym.DB,
			"path", path,
			"records", len(snap.Records),
			"merged", len(snap.Merged),
			"deleted", len(snap.Deleted),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		opts = append(opts, taxonomy.WithLogger(logger))
	}

	e, err := taxonomy.New(snap, opts...)
	if err != nil {
		return nil, meta, errors.Wrapf(err, "cache %s", path)
	}
	return e, meta, nil
}
