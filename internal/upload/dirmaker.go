package upload

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/tarput-io/tarput/internal/logging"
	"github.com/tarput-io/tarput/internal/storage"
)

// DirMaker creates remote directories with at most one in-flight
// creation request per path. Concurrent uploads that trip over the same
// missing parent coalesce onto a single Mkdirp call and all receive its
// outcome; once the call resolves the path is forgotten, so a later
// discovery starts a fresh request.
type DirMaker struct {
	client storage.Client
	log    logging.Logger
	group  singleflight.Group
}

func NewDirMaker(client storage.Client, log logging.Logger) *DirMaker {
	if log == nil {
		log = logging.NewDiscardLogger()
	}
	return &DirMaker{client: client, log: log}
}

// Ensure recursively creates dir. Callers arriving while a request for
// the same dir is in flight wait for that request instead of issuing
// their own.
func (m *DirMaker) Ensure(ctx context.Context, dir string) error {
	_, err, shared := m.group.Do(dir, func() (any, error) {
		m.log.Debug(ctx, "mkdirp", "dir", dir)
		return nil, m.client.Mkdirp(ctx, dir)
	})
	if shared {
		m.log.Debug(ctx, "mkdirp coalesced", "dir", dir)
	}
	return err
}
