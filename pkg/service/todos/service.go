package todos

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"

	"github.com/storacha/todos/pkg/access"
	"github.com/storacha/todos/pkg/presigner"
	"github.com/storacha/todos/pkg/store"
	"github.com/storacha/todos/pkg/store/todostore"
	"github.com/storacha/todos/pkg/store/todostore/todo"
)

var log = logging.Logger("todos")

// TimestampFormat is the ISO-8601 layout of item creation times.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

type TodoService struct {
	access         access.Access
	todoStore      todostore.TodoStore
	signer         presigner.UploadSigner
	urlExpiration  uint64
	checkOwnership bool
	now            func() time.Time
}

func (s *TodoService) List(ctx context.Context, userID string) ([]todo.Item, error) {
	if userID == "" {
		return nil, store.ErrMissingUserID
	}
	items, err := s.todoStore.List(ctx, userID)
	if err != nil {
		return nil, storageError("listing todos", err)
	}
	return items, nil
}

func (s *TodoService) Create(ctx context.Context, userID string, req CreateRequest) (todo.Item, error) {
	if userID == "" {
		return todo.Item{}, store.ErrMissingUserID
	}
	if strings.TrimSpace(req.Name) == "" {
		return todo.Item{}, fmt.Errorf("%w: name is required", ErrBadRequest)
	}

	todoID := uuid.NewString()
	attachmentURL, err := s.access.GetDownloadURL(todoID)
	if err != nil {
		return todo.Item{}, fmt.Errorf("%w: building attachment URL: %w", ErrBlobStoreUnavailable, err)
	}

	item := todo.Item{
		UserID:        userID,
		TodoID:        todoID,
		CreatedAt:     s.now().UTC().Format(TimestampFormat),
		Name:          req.Name,
		DueDate:       req.DueDate,
		Done:          false,
		AttachmentURL: attachmentURL.String(),
	}
	if err := s.todoStore.Put(ctx, item); err != nil {
		return todo.Item{}, storageError("storing todo", err)
	}

	log.Infow("created todo", "user", userID, "todo", todoID)
	return item, nil
}

func (s *TodoService) Update(ctx context.Context, userID string, todoID string, req UpdateRequest) error {
	if userID == "" {
		return store.ErrMissingUserID
	}
	if todoID == "" {
		return fmt.Errorf("%w: todo id is required", ErrBadRequest)
	}
	if req.Name == nil || req.DueDate == nil || req.Done == nil {
		return fmt.Errorf("%w: name, dueDate and done are required", ErrBadRequest)
	}
	if strings.TrimSpace(*req.Name) == "" {
		return fmt.Errorf("%w: name must not be blank", ErrBadRequest)
	}

	update := todo.Update{Name: *req.Name, DueDate: *req.DueDate, Done: *req.Done}
	if err := s.todoStore.Update(ctx, userID, todoID, update); err != nil {
		return storageError("updating todo", err)
	}

	log.Infow("updated todo", "user", userID, "todo", todoID)
	return nil
}

func (s *TodoService) Delete(ctx context.Context, userID string, todoID string) error {
	if userID == "" {
		return store.ErrMissingUserID
	}
	if todoID == "" {
		return fmt.Errorf("%w: todo id is required", ErrBadRequest)
	}

	if err := s.todoStore.Delete(ctx, userID, todoID); err != nil {
		return storageError("deleting todo", err)
	}

	log.Infow("deleted todo", "user", userID, "todo", todoID)
	return nil
}

func (s *TodoService) IssueUploadURL(ctx context.Context, userID string, todoID string) (url.URL, error) {
	if userID == "" {
		return url.URL{}, store.ErrMissingUserID
	}
	if todoID == "" {
		return url.URL{}, fmt.Errorf("%w: todo id is required", ErrBadRequest)
	}

	if s.checkOwnership {
		if _, err := s.todoStore.Get(ctx, userID, todoID); err != nil {
			return url.URL{}, storageError("checking todo ownership", err)
		}
	}

	u, _, err := s.signer.SignUploadURL(ctx, todoID, s.urlExpiration)
	if err != nil {
		return url.URL{}, fmt.Errorf("%w: %w", ErrBlobStoreUnavailable, err)
	}

	log.Infow("issued upload URL", "user", userID, "todo", todoID, "expires", s.urlExpiration)
	return u, nil
}

var _ Todos = (*TodoService)(nil)

// storageError passes through conditions the caller can act on and marks
// everything else as a store outage.
func storageError(action string, err error) error {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrMissingUserID) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, action, err)
}

// New creates a to-do service. A store, an access and an upload signer are
// required.
func New(opts ...Option) (*TodoService, error) {
	o := &options{
		urlExpiration:  DefaultURLExpiration,
		checkOwnership: true,
		now:            time.Now,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	if o.todoStore == nil {
		return nil, errors.New("todo store is required")
	}
	if o.access == nil {
		return nil, errors.New("attachment access is required")
	}
	if o.signer == nil {
		return nil, errors.New("upload signer is required")
	}

	return &TodoService{
		access:         o.access,
		todoStore:      o.todoStore,
		signer:         o.signer,
		urlExpiration:  o.urlExpiration,
		checkOwnership: o.checkOwnership,
		now:            o.now,
	}, nil
}
