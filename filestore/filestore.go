// Package filestore keeps raw event payloads in a local directory or an S3
// bucket.
package filestore

import (
	"context"
	"io"
	"io/fs"
	"time"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("sentrytypes/filestore")

// ErrNotFound is returned when a file does not exist.
var ErrNotFound = fs.ErrNotExist

// File describes a stored file.
type File struct {
	// Modified is the last modification time.
	Modified time.Time
	// Path is relative to the root of the store and always uses '/'.
	Path string
	// Size is the number of bytes in the file.
	Size int64
	// URL is where the file can be fetched from, if the store has one.
	URL string
}

// Interface is implemented by every file store. Paths are relative to the
// root of the store and use '/' as separator.
type Interface interface {
	// Delete removes a file. Deleting a missing file is not an error.
	Delete(ctx context.Context, path string) error
	// Get opens a file. It returns ErrNotFound if there is no such file.
	Get(ctx context.Context, path string) (*File, io.ReadCloser, error)
	// Head describes a file. It returns ErrNotFound if there is no such file.
	Head(ctx context.Context, path string) (*File, error)
	// List sends the files under path on the first channel, which is closed
	// when done. A failure is sent on the second channel.
	List(ctx context.Context, path string, recursive bool) (<-chan *File, <-chan error)
	// Put writes a file. A nil reader writes an empty file.
	Put(ctx context.Context, path string, reader io.Reader) (*File, error)
	// Type names the kind of store.
	Type() string
}
