package blobs

import (
	"errors"

	"github.com/storacha/todos/pkg/presigner"
	"github.com/storacha/todos/pkg/store/blobstore"
)

type BlobService struct {
	blobStore     blobstore.Blobstore
	presigner     presigner.RequestPresigner
	maxUploadSize uint64
}

func (b *BlobService) Presigner() presigner.RequestPresigner {
	return b.presigner
}

func (b *BlobService) Store() blobstore.Blobstore {
	return b.blobStore
}

// MaxUploadSize is the largest attachment in bytes the service accepts.
func (b *BlobService) MaxUploadSize() uint64 {
	return b.maxUploadSize
}

var _ Blobs = (*BlobService)(nil)

// New creates a blob service. A presigner is required. Attachments are kept
// in memory unless a blobstore is configured.
func New(opts ...Option) (*BlobService, error) {
	o := &options{maxUploadSize: DefaultMaxUploadSize}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	if o.presigner == nil {
		return nil, errors.New("presigner is required")
	}

	if o.blobStore == nil {
		log.Warn("no blobstore configured, attachments will be stored in memory")
		bs, err := blobstore.NewMapBlobstore()
		if err != nil {
			return nil, err
		}
		o.blobStore = bs
	}

	return &BlobService{o.blobStore, o.presigner, o.maxUploadSize}, nil
}
