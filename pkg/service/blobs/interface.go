package blobs

import (
	"github.com/storacha/todos/pkg/presigner"
	"github.com/storacha/todos/pkg/store/blobstore"
)

// Blobs is the local stand-in for the attachment bucket.
type Blobs interface {
	// Store is the storage interface for attachments.
	Store() blobstore.Blobstore
	// Presigner signs upload URLs for the local endpoint and verifies them when
	// the upload arrives.
	Presigner() presigner.RequestPresigner
}
