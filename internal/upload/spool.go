package upload

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/tarput-io/tarput/internal/archive"
)

// spoolMemoryLimit is the largest entry kept in memory; bigger payloads
// spill to a temp file.
const spoolMemoryLimit = 8 << 20

// spoolBody materializes an entry's body into a rewindable reader. The
// body reads straight off the scanner's tar position, which is gone the
// moment it is consumed, so a failed upload attempt could not otherwise
// be retried.
func spoolBody(e *archive.Entry) (io.ReadSeeker, func(), error) {
	if e.Size <= spoolMemoryLimit {
		buf := make([]byte, e.Size)
		if _, err := io.ReadFull(e.Body, buf); err != nil {
			return nil, nil, fmt.Errorf("read entry %s: %w", e.Path, err)
		}
		return bytes.NewReader(buf), func() {}, nil
	}

	f, err := os.CreateTemp("", "tarput-spool-*")
	if err != nil {
		return nil, nil, fmt.Errorf("spool entry %s: %w", e.Path, err)
	}
	cleanup := func() {
		f.Close()
		os.Remove(f.Name())
	}

	if _, err := io.CopyN(f, e.Body, e.Size); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("spool entry %s: %w", e.Path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("spool entry %s: %w", e.Path, err)
	}

	return f, cleanup, nil
}

func rewind(r io.ReadSeeker) error {
	_, err := r.Seek(0, io.SeekStart)
	return err
}
