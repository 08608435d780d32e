package todostore

import (
	"context"
	"testing"

	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/stretchr/testify/require"

	"github.com/storacha/todos/pkg/internal/testutil"
	"github.com/storacha/todos/pkg/store"
	"github.com/storacha/todos/pkg/store/todostore/todo"
)

func newStore(t *testing.T) *DsTodoStore {
	t.Helper()
	s, err := NewDsTodoStore(dssync.MutexWrap(datastore.NewMapDatastore()))
	require.NoError(t, err)
	return s
}

func TestDsTodoStore(t *testing.T) {
	t.Run("roundtrip", func(t *testing.T) {
		s := newStore(t)
		item := testutil.RandomItem(testutil.RandomUserID())

		err := s.Put(context.Background(), item)
		require.NoError(t, err)

		got, err := s.Get(context.Background(), item.UserID, item.TodoID)
		require.NoError(t, err)
		require.Equal(t, item, got)

		items, err := s.List(context.Background(), item.UserID)
		require.NoError(t, err)
		require.Equal(t, []todo.Item{item}, items)
	})

	t.Run("list empty", func(t *testing.T) {
		s := newStore(t)
		items, err := s.List(context.Background(), testutil.RandomUserID())
		require.NoError(t, err)
		require.NotNil(t, items)
		require.Empty(t, items)
	})

	t.Run("list isolates owners", func(t *testing.T) {
		s := newStore(t)
		// "ab" is a string prefix of "abc"; the owner index must not leak.
		owner0 := todo.Item{UserID: "ab", TodoID: testutil.RandomTodoID(), Name: "a"}
		owner1 := todo.Item{UserID: "abc", TodoID: testutil.RandomTodoID(), Name: "b"}
		require.NoError(t, s.Put(context.Background(), owner0))
		require.NoError(t, s.Put(context.Background(), owner1))

		items, err := s.List(context.Background(), "ab")
		require.NoError(t, err)
		require.Equal(t, []todo.Item{owner0}, items)
	})

	t.Run("user ids with separators", func(t *testing.T) {
		s := newStore(t)
		item := testutil.RandomItem("auth0|tenant/user")
		require.NoError(t, s.Put(context.Background(), item))

		items, err := s.List(context.Background(), "auth0|tenant")
		require.NoError(t, err)
		require.Empty(t, items)

		items, err = s.List(context.Background(), "auth0|tenant/user")
		require.NoError(t, err)
		require.Len(t, items, 1)
	})

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), testutil.RandomUserID(), testutil.RandomTodoID())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		s := newStore(t)
		item := testutil.RandomItem(testutil.RandomUserID())
		require.NoError(t, s.Put(context.Background(), item))

		err := s.Update(context.Background(), item.UserID, item.TodoID, todo.Update{Name: "X", DueDate: "Y", Done: true})
		require.NoError(t, err)

		got, err := s.Get(context.Background(), item.UserID, item.TodoID)
		require.NoError(t, err)
		require.Equal(t, "X", got.Name)
		require.Equal(t, "Y", got.DueDate)
		require.True(t, got.Done)
		require.Equal(t, item.UserID, got.UserID)
		require.Equal(t, item.TodoID, got.TodoID)
		require.Equal(t, item.CreatedAt, got.CreatedAt)
		require.Equal(t, item.AttachmentURL, got.AttachmentURL)
	})

	t.Run("update missing", func(t *testing.T) {
		s := newStore(t)
		err := s.Update(context.Background(), testutil.RandomUserID(), testutil.RandomTodoID(), todo.Update{Name: "X"})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("update another owners item", func(t *testing.T) {
		s := newStore(t)
		item := testutil.RandomItem(testutil.RandomUserID())
		require.NoError(t, s.Put(context.Background(), item))

		err := s.Update(context.Background(), testutil.RandomUserID(), item.TodoID, todo.Update{Name: "X"})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := newStore(t)
		item := testutil.RandomItem(testutil.RandomUserID())
		require.NoError(t, s.Put(context.Background(), item))

		require.NoError(t, s.Delete(context.Background(), item.UserID, item.TodoID))
		require.NoError(t, s.Delete(context.Background(), item.UserID, item.TodoID))

		items, err := s.List(context.Background(), item.UserID)
		require.NoError(t, err)
		require.Empty(t, items)
	})

	t.Run("missing user id", func(t *testing.T) {
		s := newStore(t)
		_, err := s.List(context.Background(), "")
		require.ErrorIs(t, err, store.ErrMissingUserID)
		err = s.Update(context.Background(), "", testutil.RandomTodoID(), todo.Update{})
		require.ErrorIs(t, err, store.ErrMissingUserID)
		err = s.Delete(context.Background(), "", testutil.RandomTodoID())
		require.ErrorIs(t, err, store.ErrMissingUserID)
	})
}
