package commands

import (
	"io"
	"os"
	"path"
	"sync"

	"github.com/hashicorp/go-getter"
	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
)

// downloadProgress renders go-getter downloads as a pterm progress bar on
// stderr, or a spinner when the server sends no length
type downloadProgress struct {
	w io.Writer
}

// newDownloadProgress returns nil when stderr is not a terminal
func newDownloadProgress() getter.ProgressTracker {
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return nil
	}
	return &downloadProgress{w: os.Stderr}
}

func (p *downloadProgress) TrackProgress(src string, currentSize, totalSize int64, stream io.ReadCloser) io.ReadCloser {
	title := path.Base(src)
	if totalSize <= 0 {
		spinner, err := pterm.DefaultSpinner.WithWriter(p.w).Start("Downloading " + title)
		if err != nil {
			return stream
		}
		return &progressReader{ReadCloser: stream, done: func() {
			spinner.Success("Downloaded " + title)
		}}
	}

	bar, err := pterm.DefaultProgressbar.
		WithWriter(p.w).
		WithTitle(title).
		WithTotal(int(totalSize)).
		Start()
	if err != nil {
		return stream
	}
	if currentSize > 0 {
		bar.Add(int(currentSize))
	}
	return &progressReader{
		ReadCloser: stream,
		add:        func(n int) { bar.Add(n) },
		done:       func() { bar.Stop() },
	}
}

type progressReader struct {
	io.ReadCloser
	add  func(n int)
	done func()
	once sync.Once
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if n > 0 && r.add != nil {
		r.add(n)
	}
	return n, err
}

func (r *progressReader) Close() error {
	r.once.Do(r.done)
	return r.ReadCloser.Close()
}
