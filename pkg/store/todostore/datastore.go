package todostore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"
	"github.com/multiformats/go-multibase"

	"github.com/storacha/todos/pkg/store"
	"github.com/storacha/todos/pkg/store/todostore/todo"
)

// DsTodoStore is a [TodoStore] backed by an IPFS datastore. Items are keyed by
// /{user}/{todo} so a prefix query on the user is the owner index.
type DsTodoStore struct {
	data datastore.Datastore
}

func (d *DsTodoStore) List(ctx context.Context, userID string) ([]todo.Item, error) {
	if userID == "" {
		return nil, store.ErrMissingUserID
	}

	results, err := d.data.Query(ctx, query.Query{Prefix: ownerKey(userID).String() + "/"})
	if err != nil {
		return nil, fmt.Errorf("querying datastore: %w", err)
	}
	defer results.Close()

	items := []todo.Item{}
	for entry := range results.Next() {
		if entry.Error != nil {
			return nil, fmt.Errorf("iterating query results: %w", entry.Error)
		}
		var item todo.Item
		if err := json.Unmarshal(entry.Value, &item); err != nil {
			return nil, fmt.Errorf("decoding data: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (d *DsTodoStore) Get(ctx context.Context, userID string, todoID string) (todo.Item, error) {
	if userID == "" {
		return todo.Item{}, store.ErrMissingUserID
	}

	b, err := d.data.Get(ctx, itemKey(userID, todoID))
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			return todo.Item{}, store.ErrNotFound
		}
		return todo.Item{}, fmt.Errorf("reading from datastore: %w", err)
	}

	var item todo.Item
	if err := json.Unmarshal(b, &item); err != nil {
		return todo.Item{}, fmt.Errorf("decoding data: %w", err)
	}
	return item, nil
}

func (d *DsTodoStore) Put(ctx context.Context, item todo.Item) error {
	if item.UserID == "" {
		return store.ErrMissingUserID
	}

	b, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encoding data: %w", err)
	}

	err = d.data.Put(ctx, itemKey(item.UserID, item.TodoID), b)
	if err != nil {
		return fmt.Errorf("writing to datastore: %w", err)
	}
	return nil
}

func (d *DsTodoStore) Update(ctx context.Context, userID string, todoID string, update todo.Update) error {
	item, err := d.Get(ctx, userID, todoID)
	if err != nil {
		return err
	}
	return d.Put(ctx, update.Apply(item))
}

func (d *DsTodoStore) Delete(ctx context.Context, userID string, todoID string) error {
	if userID == "" {
		return store.ErrMissingUserID
	}

	err := d.data.Delete(ctx, itemKey(userID, todoID))
	if err != nil && !errors.Is(err, datastore.ErrNotFound) {
		return fmt.Errorf("deleting from datastore: %w", err)
	}
	return nil
}

var _ TodoStore = (*DsTodoStore)(nil)

// NewDsTodoStore creates a [TodoStore] backed by an IPFS datastore.
func NewDsTodoStore(ds datastore.Datastore) (*DsTodoStore, error) {
	return &DsTodoStore{ds}, nil
}

// encodeSegment makes arbitrary identifiers safe to use as a single key
// segment (user ids from identity providers commonly contain "|" or "/").
func encodeSegment(s string) string {
	str, _ := multibase.Encode(multibase.Base32, []byte(s))
	return str
}

func ownerKey(userID string) datastore.Key {
	return datastore.NewKey(encodeSegment(userID))
}

func itemKey(userID string, todoID string) datastore.Key {
	return ownerKey(userID).ChildString(encodeSegment(todoID))
}
