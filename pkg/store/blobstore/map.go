package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/storacha/todos/pkg/store"
)

type MapObject struct {
	bytes []byte
}

func (o MapObject) Size() int64 {
	return int64(len(o.bytes))
}

func (o MapObject) Body() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(o.bytes)), nil
}

type MapBlobstore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func (mb *MapBlobstore) Get(ctx context.Context, key string) (Object, error) {
	mb.mu.RLock()
	defer mb.mu.RUnlock()

	b, ok := mb.data[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	return MapObject{bytes: b}, nil
}

func (mb *MapBlobstore) Put(ctx context.Context, key string, size uint64, body io.Reader) error {
	b, err := io.ReadAll(io.LimitReader(body, int64(size)+1))
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}
	if len(b) > int(size) {
		return ErrTooLarge
	}
	if len(b) < int(size) {
		return ErrTooSmall
	}

	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.data[key] = b
	return nil
}

var _ Blobstore = (*MapBlobstore)(nil)

// NewMapBlobstore creates a [Blobstore] backed by an in-memory map.
func NewMapBlobstore() (*MapBlobstore, error) {
	return &MapBlobstore{data: map[string][]byte{}}, nil
}
