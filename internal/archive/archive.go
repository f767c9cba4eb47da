// Package archive is the entry source for an upload run. A Source wraps a
// tar archive on disk (optionally gzip- or zstd-compressed) and hands out
// independent scans; every scan decodes the archive from the beginning
// with its own file handle, so concurrent scanners never share decoder
// state.
package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Entry is one payload blob inside the archive. Body is only valid until
// the scanner that produced the entry advances; it reads directly from
// the scan's stream position.
type Entry struct {
	// Path is the entry name, cleaned and relative (no leading "/" or "./").
	Path string

	// Size is the exact payload length in bytes. Always positive:
	// zero-size entries are directory markers and never surface.
	Size int64

	// Body yields exactly Size bytes.
	Body io.Reader
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Source identifies an archive on disk.
type Source struct {
	location string
}

func NewSource(location string) *Source {
	return &Source{location: location}
}

// NewScan opens a fresh pass over the archive. Each scan owns one file
// handle, released by Close or when Next returns a terminal error.
func (s *Source) NewScan() (*Scanner, error) {
	f, err := os.Open(s.location)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	br := bufio.NewReader(f)
	dec, closeDec, err := wrapDecompressor(br)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open archive %s: %w", s.location, err)
	}

	return &Scanner{
		f:        f,
		closeDec: closeDec,
		tr:       tar.NewReader(dec),
	}, nil
}

// wrapDecompressor sniffs the stream's magic bytes and wraps it in the
// matching decompressor. Plain tar streams pass through untouched.
func wrapDecompressor(br *bufio.Reader) (io.Reader, func(), error) {
	magic, err := br.Peek(4)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return zr, func() { zr.Close() }, nil
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return zr, zr.Close, nil
	default:
		return br, func() {}, nil
	}
}

// Scanner is a single pass over the archive.
type Scanner struct {
	f        *os.File
	closeDec func()
	tr       *tar.Reader
	closed   bool
}

// Next returns the next payload entry in archive order. Zero-size
// entries and non-regular-file headers (directories, links, devices) are
// skipped: they carry no payload and the store materializes their paths
// as a side effect of uploading real files underneath them.
//
// Next returns io.EOF at the end of the archive and a decode error if
// the archive is malformed; either way the scan is finished.
func (s *Scanner) Next() (*Entry, error) {
	for {
		hdr, err := s.tr.Next()
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if err != nil {
			return nil, fmt.Errorf("decode archive: %w", err)
		}

		if hdr.Typeflag != tar.TypeReg || hdr.Size == 0 {
			continue
		}

		name := cleanName(hdr.Name)
		if name == "" {
			continue
		}

		return &Entry{
			Path: name,
			Size: hdr.Size,
			Body: io.LimitReader(s.tr, hdr.Size),
		}, nil
	}
}

// Close releases the scan's file handle. Safe to call more than once.
func (s *Scanner) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.closeDec()
	return s.f.Close()
}

// cleanName normalizes a tar member name to a clean relative path.
// Names that escape the archive root ("..") collapse to empty and are
// dropped by the caller.
func cleanName(name string) string {
	name = path.Clean(strings.TrimPrefix(name, "/"))
	if name == "." || name == ".." || strings.HasPrefix(name, "../") {
		return ""
	}
	return name
}
