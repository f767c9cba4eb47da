package archive

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

type member struct {
	name     string
	body     string
	typeflag byte
}

func buildTar(t *testing.T, members []member) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, m := range members {
		tf := m.typeflag
		if tf == 0 {
			tf = tar.TypeReg
		}
		hdr := &tar.Header{
			Name:     m.name,
			Mode:     0o644,
			Size:     int64(len(m.body)),
			Typeflag: tf,
		}
		require.NoError(t, tw.WriteHeader(hdr))
		if tf == tar.TypeReg && len(m.body) > 0 {
			_, err := tw.Write([]byte(m.body))
			require.NoError(t, err)
		}
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func writeArchive(t *testing.T, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "test.tar")
	require.NoError(t, os.WriteFile(p, data, 0o600))
	return p
}

func collect(t *testing.T, sc *Scanner) []Entry {
	t.Helper()
	var out []Entry
	for {
		e, err := sc.Next()
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
		body, err := io.ReadAll(e.Body)
		require.NoError(t, err)
		out = append(out, Entry{Path: e.Path, Size: e.Size, Body: bytes.NewReader(body)})
	}
}

func TestScanner_YieldsPayloadEntriesInOrder(t *testing.T) {
	data := buildTar(t, []member{
		{name: "a/b.txt", body: "0123456789"},
		{name: "a/c.txt", body: "01234"},
	})
	src := NewSource(writeArchive(t, data))

	sc, err := src.NewScan()
	require.NoError(t, err)
	defer sc.Close()

	entries := collect(t, sc)
	require.Len(t, entries, 2)
	require.Equal(t, "a/b.txt", entries[0].Path)
	require.Equal(t, int64(10), entries[0].Size)
	require.Equal(t, "a/c.txt", entries[1].Path)
	require.Equal(t, int64(5), entries[1].Size)
}

func TestScanner_SkipsDirectoriesAndEmptyFiles(t *testing.T) {
	data := buildTar(t, []member{
		{name: "dir/", typeflag: tar.TypeDir},
		{name: "dir/empty.txt", body: ""},
		{name: "dir/real.txt", body: "payload"},
		{name: "link", typeflag: tar.TypeSymlink},
	})
	src := NewSource(writeArchive(t, data))

	sc, err := src.NewScan()
	require.NoError(t, err)
	defer sc.Close()

	entries := collect(t, sc)
	require.Len(t, entries, 1)
	require.Equal(t, "dir/real.txt", entries[0].Path)
}

func TestScanner_NormalizesNames(t *testing.T) {
	data := buildTar(t, []member{
		{name: "./a/b.txt", body: "x"},
		{name: "/abs.txt", body: "y"},
		{name: "../escape.txt", body: "z"},
	})
	src := NewSource(writeArchive(t, data))

	sc, err := src.NewScan()
	require.NoError(t, err)
	defer sc.Close()

	entries := collect(t, sc)
	require.Len(t, entries, 2)
	require.Equal(t, "a/b.txt", entries[0].Path)
	require.Equal(t, "abs.txt", entries[1].Path)
}

func TestSource_ScansAreIndependent(t *testing.T) {
	data := buildTar(t, []member{
		{name: "one.txt", body: "first"},
		{name: "two.txt", body: "second"},
	})
	src := NewSource(writeArchive(t, data))

	s1, err := src.NewScan()
	require.NoError(t, err)
	defer s1.Close()
	s2, err := src.NewScan()
	require.NoError(t, err)
	defer s2.Close()

	// Advance s1 to the end; s2 must still see everything from the start.
	require.Len(t, collect(t, s1), 2)

	e, err := s2.Next()
	require.NoError(t, err)
	require.Equal(t, "one.txt", e.Path)
	body, err := io.ReadAll(e.Body)
	require.NoError(t, err)
	require.Equal(t, "first", string(body))
}

func TestSource_GzipArchive(t *testing.T) {
	plain := buildTar(t, []member{{name: "a.txt", body: "hello"}})
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(plain)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	src := NewSource(writeArchive(t, buf.Bytes()))
	sc, err := src.NewScan()
	require.NoError(t, err)
	defer sc.Close()

	entries := collect(t, sc)
	require.Len(t, entries, 1)
	require.Equal(t, "a.txt", entries[0].Path)
}

func TestSource_ZstdArchive(t *testing.T) {
	plain := buildTar(t, []member{{name: "a.txt", body: "hello"}})
	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = zw.Write(plain)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	src := NewSource(writeArchive(t, buf.Bytes()))
	sc, err := src.NewScan()
	require.NoError(t, err)
	defer sc.Close()

	entries := collect(t, sc)
	require.Len(t, entries, 1)
	require.Equal(t, "a.txt", entries[0].Path)
}

func TestScanner_MalformedArchiveReturnsDecodeError(t *testing.T) {
	src := NewSource(writeArchive(t, []byte("this is not a tar archive, definitely not 512 bytes of header")))

	sc, err := src.NewScan()
	require.NoError(t, err)
	defer sc.Close()

	_, err = sc.Next()
	require.Error(t, err)
	require.NotErrorIs(t, err, io.EOF)
	require.Contains(t, err.Error(), "decode archive")
}

func TestSource_MissingFile(t *testing.T) {
	src := NewSource(filepath.Join(t.TempDir(), "nope.tar"))
	_, err := src.NewScan()
	require.Error(t, err)
}

func TestScanner_CloseIsIdempotent(t *testing.T) {
	data := buildTar(t, []member{{name: "a.txt", body: "x"}})
	src := NewSource(writeArchive(t, data))

	sc, err := src.NewScan()
	require.NoError(t, err)
	require.NoError(t, sc.Close())
	require.NoError(t, sc.Close())
}
