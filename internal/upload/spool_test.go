package upload

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tarput-io/tarput/internal/archive"
)

func TestSpoolBody_SmallEntryRewinds(t *testing.T) {
	e := entry("a.txt", "payload")
	body, cleanup, err := spoolBody(e)
	require.NoError(t, err)
	defer cleanup()

	first, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, "payload", string(first))

	require.NoError(t, rewind(body))
	second, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, "payload", string(second))
}

func TestSpoolBody_LargeEntrySpillsToDiskAndRewinds(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789abcdef"), (spoolMemoryLimit/16)+1)
	e := &archive.Entry{Path: "big.bin", Size: int64(len(payload)), Body: bytes.NewReader(payload)}
	require.Greater(t, e.Size, int64(spoolMemoryLimit))

	body, cleanup, err := spoolBody(e)
	require.NoError(t, err)
	defer cleanup()

	first, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, payload, first)

	require.NoError(t, rewind(body))
	second, err := io.ReadAll(body)
	require.NoError(t, err)
	require.Equal(t, payload, second)
}

func TestSpoolBody_TruncatedBodyFails(t *testing.T) {
	e := &archive.Entry{Path: "short.txt", Size: 10, Body: strings.NewReader("abc")}
	_, _, err := spoolBody(e)
	require.Error(t, err)
	require.ErrorContains(t, err, "short.txt")
}
