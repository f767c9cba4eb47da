// Package storage defines the backend-neutral object-store client used by
// the upload pipeline, together with the error taxonomy the pipeline
// relies on to distinguish recoverable missing-parent failures from
// terminal ones.
package storage

import (
	"context"
	"io"
)

// PutOptions carries the per-object parameters of an upload.
type PutOptions struct {
	// Size is the exact body length in bytes. Backends send it as the
	// request content length; it must match what body yields.
	Size int64

	// Copies requests the number of replicas the store should keep.
	// Zero means the backend default.
	Copies int

	// ContentType overrides the default application/octet-stream.
	ContentType string

	// Headers are extra request headers passed through verbatim.
	Headers map[string]string
}

// Client is a hierarchical object-store client.
//
// Put uploads one object. When the object's parent directory does not
// exist, backends that have real directory semantics return an error for
// which IsMissingParent reports true; the caller may then create the
// parent via Mkdirp and retry.
//
// Mkdirp recursively creates a directory path and is idempotent when the
// path already exists.
type Client interface {
	Put(ctx context.Context, path string, body io.Reader, opts PutOptions) error
	Mkdirp(ctx context.Context, path string) error
}
