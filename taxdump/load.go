package taxdump

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/taxonomy"
)

const notDumpHint = "point at the directory holding nodes.dmp, merged.dmp and delnodes.dmp from an NCBI taxdump"

// Load parses the dump files in dir concurrently and joins nodes with their
// scientific names. Names come from fullnamelineage.dmp when present and
// from names.dmp otherwise. A node without a name fails the load.
//
// The returned snapshot is not validated; taxonomy.New does that.
func Load(ctx context.Context, dir string, logger *zap.SugaredLogger) (taxonomy.Snapshot, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	start := time.Now()

	namesFile, parseNames := FullNameLineageFile, ParseLineageNames
	if _, err := os.Stat(filepath.Join(dir, FullNameLineageFile)); err != nil {
		logger.Debugw("fullnamelineage.dmp not found, reading names.dmp", "dir", dir)
		namesFile, parseNames = NamesFile, ParseNames
	}

	var (
		nodes   []Node
		names   map[taxonomy.Taxid]string
		merged  []taxonomy.Merge
		deleted []taxonomy.Taxid
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		return readFile(gctx, dir, NodesFile, func(r io.Reader) error {
			nodes, err = ParseNodes(r)
			return err
		})
	})
	g.Go(func() (err error) {
		return readFile(gctx, dir, namesFile, func(r io.Reader) error {
			names, err = parseNames(r)
			return err
		})
	})
	g.Go(func() (err error) {
		return readFile(gctx, dir, MergedFile, func(r io.Reader) error {
			merged, err = ParseMerged(r)
			return err
		})
	})
	g.Go(func() (err error) {
		return readFile(gctx, dir, DelNodesFile, func(r io.Reader) error {
			deleted, err = ParseDeleted(r)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return taxonomy.Snapshot{}, err
	}

	records := make([]taxonomy.Record, len(nodes))
	for i, n := range nodes {
		name, ok := names[n.Taxid]
		if !ok {
			return taxonomy.Snapshot{}, errors.WithHintf(
				errors.NewInvalidRequestError("taxid %d in %s has no name in %s", n.Taxid, NodesFile, namesFile),
				"the dump files come from different releases or %s is truncated", namesFile,
			)
		}
		records[i] = taxonomy.Record{Taxid: n.Taxid, Name: name, Rank: n.Rank, ParentTaxid: n.Parent}
	}
	if extra := len(names) - len(records); extra > 0 {
		logger.Debugw("Names without nodes ignored", "count", extra, "file", namesFile)
	}

	logger.Infow("Parsed taxonomy dump",
		"dir", dir,
		"records", len(records),
		"merged", len(merged),
		"deleted", len(deleted),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return taxonomy.Snapshot{Records: records, Merged: merged, Deleted: deleted}, nil
}

func readFile(ctx context.Context, dir, name string, parse func(io.Reader) error) error {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return errors.WithHint(errors.Wrapf(err, "open %s", name), notDumpHint)
	}
	defer f.Close()

	if err := parse(&ctxReader{ctx: ctx, r: f}); err != nil {
		return errors.Wrapf(err, "parse %s", name)
	}
	return nil
}

// ctxReader stops a parse once ctx is done, e.g. when a sibling file failed.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
