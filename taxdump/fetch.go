package taxdump

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-getter"
	"go.uber.org/zap"

	"github.com/teranos/taxa/errors"
)

type fetchOptions struct {
	progress getter.ProgressTracker
	pwd      string
}

// FetchOption configures Fetch.
type FetchOption func(*fetchOptions)

// WithProgress reports download progress to tracker.
func WithProgress(tracker getter.ProgressTracker) FetchOption {
	return func(o *fetchOptions) {
		o.progress = tracker
	}
}

// WithWorkingDir resolves relative sources against pwd instead of the
// process working directory.
func WithWorkingDir(pwd string) FetchOption {
	return func(o *fetchOptions) {
		o.pwd = pwd
	}
}

// Fetch downloads the dump archive at src and unpacks it under dir.
// src is anything go-getter understands: an https URL, a local path, and
// so on. .tar.gz and .zip archives are unpacked by extension.
//
// Returns the directory that holds nodes.dmp, which may be nested below dir.
func Fetch(ctx context.Context, src, dir string, logger *zap.SugaredLogger, opts ...FetchOption) (string, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	o := fetchOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.pwd == "" {
		pwd, err := os.Getwd()
		if err != nil {
			pwd = "."
		}
		o.pwd = pwd
	}

	dst := filepath.Join(dir, "taxdump")
	client := &getter.Client{
		Ctx:              ctx,
		Src:              src,
		Dst:              dst,
		Pwd:              o.pwd,
		Mode:             getter.ClientModeDir,
		Getters:          getter.Getters,
		ProgressListener: o.progress,
	}

	logger.Infow("Fetching taxonomy dump", "source", src, "destination", dst)
	start := time.Now()
	if err := client.Get(); err != nil {
		return "", errors.WithHint(
			errors.Wrapf(err, "fetch %s", src),
			"run 'taxa taxonomy get' to list the dump archives NCBI currently serves",
		)
	}

	found, err := findDumpDir(dst)
	if err != nil {
		return "", err
	}
	logger.Infow("Fetched taxonomy dump",
		"source", src,
		"dir", found,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return found, nil
}

// findDumpDir returns the first directory under root, in lexical walk
// order, holding nodes.dmp.
func findDumpDir(root string) (string, error) {
	found := ""
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == NodesFile {
			found = filepath.Dir(path)
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", errors.Wrapf(err, "scan %s", root)
	}
	if found == "" {
		return "", errors.WithHint(
			errors.Newf("no %s in fetched archive", NodesFile),
			"the archive is not an NCBI taxdump; taxa expects new_taxdump.tar.gz or a taxdump_archive zip",
		)
	}
	return found, nil
}
