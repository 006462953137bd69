// Package scfserr centralizes the error taxonomy used across the metadata
// store, scanner, handle table, read engine and directory lister. Kinds are
// represented as syscall.Errno, the same representation jacobsa/fuse (and the
// read-only loopback sample built on it) uses to answer a FUSE callback, so
// that the fs package's callback shell can propagate them to the kernel
// without a translation step.
package scfserr

import (
	"errors"
	"fmt"
	"syscall"
)

// NotFound is returned when an inode or (parent, name) pair is absent from
// the metadata store. The FUSE shell maps it to ENOENT on the single failing
// call.
var NotFound = syscall.ENOENT

// IoError is returned when a host read fails or hits a premature EOF within
// a chunk's logical extent. The FUSE shell maps it to EIO.
var IoError = syscall.EIO

// Unsupported is returned for any write path: create, rename, unlink,
// truncate, fsync, xattrs. The FUSE shell maps it to EROFS.
var Unsupported = syscall.EROFS

// ScanFatal indicates the one-shot scan could not build a usable metadata
// index: an I/O error walking the mirror, or (CatFS) no chunked subtree
// anywhere in the mirror. It aborts the mount before FUSE registration, so it
// is a plain error rather than an errno.
type ScanFatal struct {
	Op  string
	Err error
}

func (e *ScanFatal) Error() string {
	return fmt.Sprintf("scan fatal: %s: %v", e.Op, e.Err)
}

func (e *ScanFatal) Unwrap() error { return e.Err }

// NewScanFatal wraps err with the operation that surfaced it.
func NewScanFatal(op string, err error) error {
	return &ScanFatal{Op: op, Err: err}
}

// IsIoError reports whether err is (or wraps) IoError.
func IsIoError(err error) bool {
	return errors.Is(err, IoError)
}

// IsNotFound reports whether err is (or wraps) NotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, NotFound)
}

// Wrapf wraps err with a message while preserving errors.Is matching against
// the sentinel errnos above.
func Wrapf(err error, format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, err)...)
}
