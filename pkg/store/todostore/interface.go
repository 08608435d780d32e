package todostore

import (
	"context"

	"github.com/storacha/todos/pkg/store/todostore/todo"
)

// TodoStore persists to-do items keyed by (userID, todoID) with an index on
// the owner.
type TodoStore interface {
	// List retrieves all items owned by the user. It returns an empty slice when
	// the user has none.
	List(ctx context.Context, userID string) ([]todo.Item, error)
	// Get retrieves a single item. Returns [store.ErrNotFound] if the item does
	// not exist.
	Get(ctx context.Context, userID string, todoID string) (todo.Item, error)
	// Put adds or replaces an item in the store.
	Put(ctx context.Context, item todo.Item) error
	// Update rewrites the mutable fields of an existing item. Returns
	// [store.ErrNotFound] if the item does not exist and
	// [store.ErrMissingUserID] if userID is empty.
	Update(ctx context.Context, userID string, todoID string, update todo.Update) error
	// Delete removes an item. Deleting an item that does not exist is not an
	// error. Returns [store.ErrMissingUserID] if userID is empty.
	Delete(ctx context.Context, userID string, todoID string) error
}
