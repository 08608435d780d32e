package todos

import (
	"fmt"
	"net/url"
	"time"

	"github.com/ipfs/go-datastore"
	logging "github.com/ipfs/go-log/v2"

	"github.com/storacha/todos/pkg/access"
	"github.com/storacha/todos/pkg/presigner"
	"github.com/storacha/todos/pkg/store/todostore"
)

// DefaultURLExpiration is the number of seconds a signed upload URL is valid
// for when not configured.
const DefaultURLExpiration = 300

type options struct {
	access         access.Access
	todoStore      todostore.TodoStore
	signer         presigner.UploadSigner
	urlExpiration  uint64
	checkOwnership bool
	now            func() time.Time
}

type Option func(*options) error

// WithLogLevel changes the log level for the todos subsystem.
func WithLogLevel(level string) Option {
	return func(o *options) error {
		return logging.SetLogLevel("todos", level)
	}
}

func WithTodoStore(store todostore.TodoStore) Option {
	return func(o *options) error {
		o.todoStore = store
		return nil
	}
}

// WithDSTodoStore stores items in the passed datastore.
func WithDSTodoStore(ds datastore.Datastore) Option {
	return func(o *options) error {
		store, err := todostore.NewDsTodoStore(ds)
		if err != nil {
			return err
		}
		o.todoStore = store
		return nil
	}
}

func WithAccess(access access.Access) Option {
	return func(o *options) error {
		o.access = access
		return nil
	}
}

// WithPublicURLAccess serves attachments from {publicURL}/blob/{key}.
func WithPublicURLAccess(publicURL url.URL) Option {
	return func(o *options) error {
		accessURL := publicURL
		accessURL.Path = "/blob"
		access, err := access.NewPatternAccess(fmt.Sprintf("%s/{key}", accessURL.String()))
		if err != nil {
			return err
		}
		o.access = access
		return nil
	}
}

func WithUploadSigner(signer presigner.UploadSigner) Option {
	return func(o *options) error {
		o.signer = signer
		return nil
	}
}

// WithURLExpiration sets the number of seconds signed upload URLs are valid.
func WithURLExpiration(seconds uint64) Option {
	return func(o *options) error {
		if seconds == 0 {
			return fmt.Errorf("signed URL expiration must be greater than zero")
		}
		o.urlExpiration = seconds
		return nil
	}
}

// WithoutOwnershipCheck issues upload URLs for any item id, without checking
// the item belongs to the caller.
func WithoutOwnershipCheck() Option {
	return func(o *options) error {
		o.checkOwnership = false
		return nil
	}
}

// WithClock sets the source of creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		o.now = now
		return nil
	}
}
