package storage

import (
	"errors"
	"fmt"
)

// Kind classifies a store failure for the upload pipeline.
type Kind int

const (
	// KindOther is any failure that is terminal for the entry.
	KindOther Kind = iota

	// KindMissingParent means the object's parent directory does not
	// exist or is not a directory; the upload can be retried after the
	// parent is created.
	KindMissingParent
)

// Error is a typed store failure.
type Error struct {
	Kind Kind

	// Op is the operation that failed: "put" or "mkdirp".
	Op string

	// Path is the remote path the operation targeted.
	Path string

	// StatusCode is the HTTP status, when the backend speaks HTTP.
	StatusCode int

	// Code and Message carry the store's own error identifier and text,
	// when the response included them.
	Code    string
	Message string

	// Err is the underlying transport error, if any.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	case e.Code != "":
		return fmt.Sprintf("%s %s: %s: %s", e.Op, e.Path, e.Code, e.Message)
	default:
		return fmt.Sprintf("%s %s: status %d", e.Op, e.Path, e.StatusCode)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// IsMissingParent reports whether err is a store failure caused by a
// missing or non-directory parent.
func IsMissingParent(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == KindMissingParent
}
