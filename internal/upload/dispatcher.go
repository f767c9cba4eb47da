// Package upload turns claimed archive entries into store objects. The
// dispatcher uploads one entry at a time per scanner, recovers from
// missing-parent failures by creating the directory through a
// deduplicated maker, and retries the upload exactly once.
package upload

import (
	"context"
	"path"
	"sync/atomic"

	"github.com/tarput-io/tarput/internal/archive"
	"github.com/tarput-io/tarput/internal/logging"
	"github.com/tarput-io/tarput/internal/storage"
)

// Options configures a dispatcher for one upload session.
type Options struct {
	// Prefix is the destination directory all entry paths are joined to.
	Prefix string

	// Copies is the replica count requested per object (0 = store default).
	Copies int

	// Headers are extra headers applied to every upload.
	Headers map[string]string

	// DryRun reports entries as uploaded without touching the store.
	DryRun bool
}

// Result is the terminal outcome of one entry.
type Result struct {
	// Path is the full destination path.
	Path string

	// Size is the entry payload size in bytes.
	Size int64

	// Err is nil on success.
	Err error
}

// Summary aggregates a session's outcomes.
type Summary struct {
	Uploaded int64
	Failed   int64
	Bytes    int64
}

// Dispatcher uploads claimed entries to a store.
type Dispatcher struct {
	client   storage.Client
	dirs     *DirMaker
	opts     Options
	log      logging.Logger
	onResult func(Result)

	uploaded atomic.Int64
	failed   atomic.Int64
	bytes    atomic.Int64
}

// NewDispatcher builds a dispatcher. onResult, if non-nil, is invoked
// once per entry with its terminal outcome; it may be called from
// multiple goroutines.
func NewDispatcher(client storage.Client, opts Options, log logging.Logger, onResult func(Result)) *Dispatcher {
	if log == nil {
		log = logging.NewDiscardLogger()
	}
	return &Dispatcher{
		client:   client,
		dirs:     NewDirMaker(client, log),
		opts:     opts,
		log:      log,
		onResult: onResult,
	}
}

// Upload stores one entry and returns its terminal outcome.
//
// A missing-parent failure is not terminal: the parent directory is
// created (deduplicated across concurrent discoverers) and the upload
// retried once. The retry's outcome is final, as is any other failure.
func (d *Dispatcher) Upload(ctx context.Context, e *archive.Entry) error {
	dst := path.Join("/", d.opts.Prefix, e.Path)

	if d.opts.DryRun {
		d.log.Info(ctx, "would upload", "path", dst, "size", e.Size)
		return d.finish(dst, e.Size, nil)
	}

	body, cleanup, err := spoolBody(e)
	if err != nil {
		return d.finish(dst, e.Size, err)
	}
	defer cleanup()

	opts := storage.PutOptions{
		Size:    e.Size,
		Copies:  d.opts.Copies,
		Headers: d.opts.Headers,
	}

	err = d.client.Put(ctx, dst, body, opts)
	if storage.IsMissingParent(err) {
		parent := path.Dir(dst)
		d.log.Debug(ctx, "parent missing, creating", "path", dst, "parent", parent)

		if derr := d.dirs.Ensure(ctx, parent); derr != nil {
			// Creation failed: final for this entry (and, via the
			// maker, for everyone else waiting on the same parent).
			err = derr
		} else if err = rewind(body); err == nil {
			err = d.client.Put(ctx, dst, body, opts)
		}
	}

	return d.finish(dst, e.Size, err)
}

// Summary returns the session totals so far. Safe to call concurrently
// with uploads; call after the distributor finishes for final numbers.
func (d *Dispatcher) Summary() Summary {
	return Summary{
		Uploaded: d.uploaded.Load(),
		Failed:   d.failed.Load(),
		Bytes:    d.bytes.Load(),
	}
}

func (d *Dispatcher) finish(dst string, size int64, err error) error {
	if err != nil {
		d.failed.Add(1)
	} else {
		d.uploaded.Add(1)
		d.bytes.Add(size)
	}
	if d.onResult != nil {
		d.onResult(Result{Path: dst, Size: size, Err: err})
	}
	return err
}
