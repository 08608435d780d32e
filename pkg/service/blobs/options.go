package blobs

import (
	"net/url"

	logging "github.com/ipfs/go-log/v2"

	"github.com/storacha/todos/pkg/presigner"
	"github.com/storacha/todos/pkg/store/blobstore"
)

// DefaultMaxUploadSize is the largest attachment accepted when not configured.
const DefaultMaxUploadSize = 32 << 20

type options struct {
	blobStore     blobstore.Blobstore
	presigner     presigner.RequestPresigner
	maxUploadSize uint64
}

type Option func(*options) error

// WithLogLevel changes the log level for the blobs subsystem.
func WithLogLevel(level string) Option {
	return func(o *options) error {
		return logging.SetLogLevel("blobs", level)
	}
}

func WithBlobstore(bs blobstore.Blobstore) Option {
	return func(o *options) error {
		o.blobStore = bs
		return nil
	}
}

// WithFsBlobstore stores attachments on disk under rootdir.
func WithFsBlobstore(rootdir string) Option {
	return func(o *options) error {
		bs, err := blobstore.NewFsBlobstore(rootdir)
		if err != nil {
			return err
		}
		o.blobStore = bs
		return nil
	}
}

func WithPresigner(presigner presigner.RequestPresigner) Option {
	return func(o *options) error {
		o.presigner = presigner
		return nil
	}
}

// WithPublicURLPresigner signs upload URLs of the form
// {publicURL}/blob/{key} with the passed credentials.
func WithPublicURLPresigner(accessKeyID string, secretAccessKey string, publicURL url.URL) Option {
	return func(o *options) error {
		presigner, err := presigner.NewS3RequestPresigner(accessKeyID, secretAccessKey, publicURL, "blob")
		if err != nil {
			return err
		}
		o.presigner = presigner
		return nil
	}
}

// WithMaxUploadSize limits the size in bytes of uploaded attachments.
func WithMaxUploadSize(size uint64) Option {
	return func(o *options) error {
		o.maxUploadSize = size
		return nil
	}
}
