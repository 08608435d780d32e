package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrTooLarge is returned when the data being written is larger than expected.
var ErrTooLarge = errors.New("payload too large")

// ErrTooSmall is returned when the data being written is smaller than expected.
var ErrTooSmall = errors.New("payload too small")

type Object interface {
	// Size returns the total size of the object in bytes.
	Size() int64
	// Body opens the object for reading. The caller must close it.
	Body() (io.ReadCloser, error)
}

// Blobstore holds attachment bytes addressed by an opaque key (the to-do id).
type Blobstore interface {
	// Put stores exactly size bytes read from body under the key, replacing any
	// existing object.
	Put(ctx context.Context, key string, size uint64, body io.Reader) error
	// Get retrieves the object stored under the key. Returns nil and
	// [store.ErrNotFound] if the object does not exist.
	Get(ctx context.Context, key string) (Object, error)
}
