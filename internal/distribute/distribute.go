// Package distribute fans an archive out over concurrent scanners.
//
// Every scanner decodes the whole archive independently and races the
// others for each entry through a shared claim counter: the first
// scanner to reach an entry's position uploads it, everyone else skips
// it. There is no central dispatcher and no queue; the counter is the
// only shared state.
package distribute

import (
	"context"
	"errors"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/tarput-io/tarput/internal/archive"
	"github.com/tarput-io/tarput/internal/logging"
)

// Scan is one pass over the archive, in archive order.
type Scan interface {
	Next() (*archive.Entry, error)
	Close() error
}

// Dispatcher handles a claimed entry. The returned error is the entry's
// terminal outcome; the distributor logs it and moves on, it never stops
// the run for an individual entry.
type Dispatcher interface {
	Upload(ctx context.Context, e *archive.Entry) error
}

// Distributor runs the scanner group for one session.
type Distributor struct {
	openScan    func() (Scan, error)
	dispatcher  Dispatcher
	parallelism int
	log         logging.Logger

	counter Counter
}

func New(openScan func() (Scan, error), d Dispatcher, parallelism int, log logging.Logger) *Distributor {
	if parallelism < 1 {
		parallelism = 1
	}
	if log == nil {
		log = logging.NewDiscardLogger()
	}
	return &Distributor{
		openScan:    openScan,
		dispatcher:  d,
		parallelism: parallelism,
		log:         log,
	}
}

// Run executes the session: parallelism scanners, each claiming entries
// through the shared counter. It blocks until every scanner finishes and
// returns the first scan-level failure (open or decode error), if any.
// One scanner failing does not interrupt the others, and per-entry
// upload failures are not scan-level failures.
func (d *Distributor) Run(ctx context.Context) error {
	var g errgroup.Group
	for i := 0; i < d.parallelism; i++ {
		id := i
		g.Go(func() error {
			return d.scan(ctx, id)
		})
	}
	return g.Wait()
}

// Claimed returns the number of entries claimed so far.
func (d *Distributor) Claimed() uint64 {
	return d.counter.Claimed()
}

func (d *Distributor) scan(ctx context.Context, id int) error {
	log := d.log.With("scanner", id)

	sc, err := d.openScan()
	if err != nil {
		log.Error(ctx, "scan failed to open", "err", err)
		return err
	}
	defer sc.Close()

	var local uint64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		e, err := sc.Next()
		if errors.Is(err, io.EOF) {
			log.Debug(ctx, "scan finished", "seen", local)
			return nil
		}
		if err != nil {
			// Malformed archive: fatal to this scan only.
			log.Error(ctx, "scan aborted", "err", err)
			return err
		}

		idx := local
		local++
		if !d.counter.TryClaim(idx) {
			// A faster scanner owns this entry; the decoder skips the
			// body without reading it.
			continue
		}

		log.Debug(ctx, "claimed entry", "index", idx, "path", e.Path, "size", e.Size)

		// The upload reads the entry body straight from this scan's
		// stream position, so the decode cannot race ahead of the
		// in-flight upload. The outcome is terminal per entry.
		if err := d.dispatcher.Upload(ctx, e); err != nil {
			log.Debug(ctx, "entry failed", "index", idx, "path", e.Path, "err", err)
		}
	}
}
