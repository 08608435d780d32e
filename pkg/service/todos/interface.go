package todos

import (
	"context"
	"net/url"

	"github.com/storacha/todos/pkg/store/todostore/todo"
)

// CreateRequest holds the caller supplied fields of a new item.
type CreateRequest struct {
	Name    string `json:"name" validate:"required,notblank"`
	DueDate string `json:"dueDate"`
}

// UpdateRequest holds the replacement values of the mutable fields of an item.
// Partial updates are not supported, every field must be present.
type UpdateRequest struct {
	Name    *string `json:"name" validate:"required,notblank"`
	DueDate *string `json:"dueDate" validate:"required"`
	Done    *bool   `json:"done" validate:"required"`
}

type Todos interface {
	// List returns all items owned by the user.
	List(ctx context.Context, userID string) ([]todo.Item, error)
	// Create mints a new item for the user and stores it.
	Create(ctx context.Context, userID string, req CreateRequest) (todo.Item, error)
	// Update replaces the mutable fields of an existing item.
	Update(ctx context.Context, userID string, todoID string, req UpdateRequest) error
	// Delete removes an item. Deleting an item that does not exist succeeds.
	Delete(ctx context.Context, userID string, todoID string) error
	// IssueUploadURL returns a short lived URL that accepts a PUT of the
	// attachment for an item.
	IssueUploadURL(ctx context.Context, userID string, todoID string) (url.URL, error)
}
