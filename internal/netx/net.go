// Package netx holds shared HTTP plumbing for the store backends.
package netx

import (
	"io"
	"net/http"
	"time"
)

// errorBodyLimit caps how much of an error response body is read back
// for diagnostics.
const errorBodyLimit = 4 * 1024

// NewHTTPClient returns an HTTP client with the given overall request
// timeout. A zero timeout means no limit, leaving cancellation to the
// request context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// ReadErrorBody reads up to a few KB of resp's body for inclusion in an
// error message, then drains and closes the body so the connection can
// be reused.
func ReadErrorBody(resp *http.Response) []byte {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
	DrainAndClose(resp.Body)
	return b
}

// DrainAndClose discards any unread portion of body and closes it.
func DrainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, errorBodyLimit))
	_ = body.Close()
}
