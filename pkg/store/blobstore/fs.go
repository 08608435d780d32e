package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"

	"github.com/multiformats/go-multibase"

	"github.com/storacha/todos/pkg/store"
)

type FileObject struct {
	name string
	size int64
}

func (o FileObject) Size() int64 {
	return o.size
}

func (o FileObject) Body() (io.ReadCloser, error) {
	f, err := os.Open(o.name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("opening file: %w", err)
	}
	return f, nil
}

// toPath shards keys into two character directories so no single directory
// grows unbounded.
func toPath(key string) string {
	str, _ := multibase.Encode(multibase.Base32, []byte(key))
	var parts []string
	for i := 0; i < len(str); i += 2 {
		end := i + 2
		if end > len(str) {
			end = len(str)
		}
		parts = append(parts, str[i:end])
	}
	return path.Join(parts...)
}

type FsBlobstore struct {
	rootdir string
}

func (b *FsBlobstore) Get(ctx context.Context, key string) (Object, error) {
	n := path.Join(b.rootdir, toPath(key))
	inf, err := os.Stat(n)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("stat file: %w", err)
	}
	return FileObject{name: n, size: inf.Size()}, nil
}

func (b *FsBlobstore) Put(ctx context.Context, key string, size uint64, body io.Reader) error {
	n := path.Join(b.rootdir, toPath(key))
	err := os.MkdirAll(path.Dir(n), 0755)
	if err != nil {
		return fmt.Errorf("creating intermediate directories: %w", err)
	}

	f, err := os.CreateTemp(path.Dir(n), ".upload-*")
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	written, err := io.Copy(f, io.LimitReader(body, int64(size)+1))
	if err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	if written > int64(size) {
		return ErrTooLarge
	}
	if written < int64(size) {
		return ErrTooSmall
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing file: %w", err)
	}

	// rename so readers never observe a partially written object
	if err := os.Rename(f.Name(), n); err != nil {
		return fmt.Errorf("moving file into place: %w", err)
	}
	return nil
}

var _ Blobstore = (*FsBlobstore)(nil)

func NewFsBlobstore(rootdir string) (*FsBlobstore, error) {
	err := os.MkdirAll(rootdir, 0755)
	if err != nil {
		return nil, fmt.Errorf("root directory not writable: %w", err)
	}
	return &FsBlobstore{rootdir}, nil
}
