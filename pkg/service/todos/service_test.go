package todos

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/stretchr/testify/require"

	"github.com/storacha/todos/pkg/internal/testutil"
	"github.com/storacha/todos/pkg/presigner"
	"github.com/storacha/todos/pkg/store"
	"github.com/storacha/todos/pkg/store/todostore/todo"
)

func newService(t *testing.T, opts ...Option) *TodoService {
	t.Helper()
	publicURL := testutil.RandomLocalURL(t)
	signer := testutil.Must(presigner.NewS3RequestPresigner("access", "secret", publicURL, ""))(t)
	opts = append([]Option{
		WithDSTodoStore(dssync.MutexWrap(datastore.NewMapDatastore())),
		WithPublicURLAccess(publicURL),
		WithUploadSigner(signer),
	}, opts...)
	return testutil.Must(New(opts...))(t)
}

func ptr[T any](v T) *T {
	return &v
}

func TestTodoService(t *testing.T) {
	ctx := context.Background()

	t.Run("create then list", func(t *testing.T) {
		svc := newService(t)
		userID := testutil.RandomUserID()

		item, err := svc.Create(ctx, userID, CreateRequest{Name: "buy milk", DueDate: "2025-01-01"})
		require.NoError(t, err)
		require.Equal(t, userID, item.UserID)
		require.Equal(t, "buy milk", item.Name)
		require.Equal(t, "2025-01-01", item.DueDate)
		require.False(t, item.Done)

		_, err = uuid.Parse(item.TodoID)
		require.NoError(t, err)
		_, err = time.Parse(TimestampFormat, item.CreatedAt)
		require.NoError(t, err)

		attachmentURL, err := url.Parse(item.AttachmentURL)
		require.NoError(t, err)
		require.Equal(t, "/blob/"+item.TodoID, attachmentURL.Path)

		items, err := svc.List(ctx, userID)
		require.NoError(t, err)
		if diff := cmp.Diff([]todo.Item{item}, items); diff != "" {
			t.Fatalf("listed items mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("list for user without items", func(t *testing.T) {
		svc := newService(t)
		items, err := svc.List(ctx, testutil.RandomUserID())
		require.NoError(t, err)
		require.NotNil(t, items)
		require.Empty(t, items)
	})

	t.Run("items are only listed for their owner", func(t *testing.T) {
		svc := newService(t)
		alice := testutil.RandomUserID()
		bob := testutil.RandomUserID()

		_, err := svc.Create(ctx, alice, CreateRequest{Name: "alice"})
		require.NoError(t, err)
		_, err = svc.Create(ctx, bob, CreateRequest{Name: "bob"})
		require.NoError(t, err)

		items, err := svc.List(ctx, alice)
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.Equal(t, "alice", items[0].Name)
	})

	t.Run("created at uses clock", func(t *testing.T) {
		now := time.Date(2024, 3, 9, 14, 7, 1, 123456789, time.FixedZone("X", 3600))
		svc := newService(t, WithClock(func() time.Time { return now }))

		item, err := svc.Create(ctx, testutil.RandomUserID(), CreateRequest{Name: "n"})
		require.NoError(t, err)
		require.Equal(t, "2024-03-09T13:07:01.123Z", item.CreatedAt)
	})

	t.Run("create mints a fresh id every call", func(t *testing.T) {
		svc := newService(t)
		userID := testutil.RandomUserID()

		ids := map[string]struct{}{}
		for range 10 {
			item, err := svc.Create(ctx, userID, CreateRequest{Name: "n"})
			require.NoError(t, err)
			require.NotContains(t, ids, item.TodoID)
			ids[item.TodoID] = struct{}{}

			createdAt, err := time.Parse(TimestampFormat, item.CreatedAt)
			require.NoError(t, err)
			require.False(t, createdAt.After(time.Now()), "created at %s is in the future", item.CreatedAt)
		}

		items, err := svc.List(ctx, userID)
		require.NoError(t, err)
		require.Len(t, items, len(ids))
	})

	t.Run("create requires a name", func(t *testing.T) {
		svc := newService(t)
		_, err := svc.Create(ctx, testutil.RandomUserID(), CreateRequest{})
		require.ErrorIs(t, err, ErrBadRequest)

		_, err = svc.Create(ctx, testutil.RandomUserID(), CreateRequest{Name: " \t\n"})
		require.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("update replaces mutable fields", func(t *testing.T) {
		svc := newService(t)
		userID := testutil.RandomUserID()
		item, err := svc.Create(ctx, userID, CreateRequest{Name: "before", DueDate: "2025-01-01"})
		require.NoError(t, err)

		err = svc.Update(ctx, userID, item.TodoID, UpdateRequest{
			Name:    ptr("after"),
			DueDate: ptr("2025-02-02"),
			Done:    ptr(true),
		})
		require.NoError(t, err)

		items, err := svc.List(ctx, userID)
		require.NoError(t, err)
		want := item
		want.Name = "after"
		want.DueDate = "2025-02-02"
		want.Done = true
		if diff := cmp.Diff([]todo.Item{want}, items); diff != "" {
			t.Fatalf("updated item mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("update of missing item", func(t *testing.T) {
		svc := newService(t)
		err := svc.Update(ctx, testutil.RandomUserID(), testutil.RandomTodoID(), UpdateRequest{
			Name:    ptr("n"),
			DueDate: ptr(""),
			Done:    ptr(false),
		})
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("update of another user's item", func(t *testing.T) {
		svc := newService(t)
		owner := testutil.RandomUserID()
		item, err := svc.Create(ctx, owner, CreateRequest{Name: "mine"})
		require.NoError(t, err)

		err = svc.Update(ctx, testutil.RandomUserID(), item.TodoID, UpdateRequest{
			Name:    ptr("stolen"),
			DueDate: ptr(""),
			Done:    ptr(true),
		})
		require.ErrorIs(t, err, store.ErrNotFound)

		items, err := svc.List(ctx, owner)
		require.NoError(t, err)
		require.Equal(t, "mine", items[0].Name)
	})

	t.Run("update requires every field", func(t *testing.T) {
		svc := newService(t)
		err := svc.Update(ctx, testutil.RandomUserID(), testutil.RandomTodoID(), UpdateRequest{Name: ptr("n")})
		require.ErrorIs(t, err, ErrBadRequest)

		err = svc.Update(ctx, testutil.RandomUserID(), testutil.RandomTodoID(), UpdateRequest{
			Name:    ptr("  "),
			DueDate: ptr(""),
			Done:    ptr(false),
		})
		require.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		svc := newService(t)
		userID := testutil.RandomUserID()
		item, err := svc.Create(ctx, userID, CreateRequest{Name: "n"})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, userID, item.TodoID))
		require.NoError(t, svc.Delete(ctx, userID, item.TodoID))

		items, err := svc.List(ctx, userID)
		require.NoError(t, err)
		require.Empty(t, items)
	})

	t.Run("upload URL for owned item", func(t *testing.T) {
		svc := newService(t)
		userID := testutil.RandomUserID()
		item, err := svc.Create(ctx, userID, CreateRequest{Name: "n"})
		require.NoError(t, err)

		first, err := svc.IssueUploadURL(ctx, userID, item.TodoID)
		require.NoError(t, err)
		second, err := svc.IssueUploadURL(ctx, userID, item.TodoID)
		require.NoError(t, err)

		require.Equal(t, "/blob/"+item.TodoID, first.Path)
		require.Equal(t, "300", first.Query().Get("X-Amz-Expires"))
		require.NotEqual(t, first.String(), second.String())
	})

	t.Run("upload URL expiration", func(t *testing.T) {
		svc := newService(t, WithURLExpiration(60))
		userID := testutil.RandomUserID()
		item, err := svc.Create(ctx, userID, CreateRequest{Name: "n"})
		require.NoError(t, err)

		u, err := svc.IssueUploadURL(ctx, userID, item.TodoID)
		require.NoError(t, err)
		require.Equal(t, "60", u.Query().Get("X-Amz-Expires"))
	})

	t.Run("upload URL for item of another user", func(t *testing.T) {
		svc := newService(t)
		item, err := svc.Create(ctx, testutil.RandomUserID(), CreateRequest{Name: "n"})
		require.NoError(t, err)

		_, err = svc.IssueUploadURL(ctx, testutil.RandomUserID(), item.TodoID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("upload URL without ownership check", func(t *testing.T) {
		svc := newService(t, WithoutOwnershipCheck())
		todoID := testutil.RandomTodoID()
		u, err := svc.IssueUploadURL(ctx, testutil.RandomUserID(), todoID)
		require.NoError(t, err)
		require.Equal(t, "/blob/"+todoID, u.Path)
	})

	t.Run("missing user id", func(t *testing.T) {
		svc := newService(t)
		_, err := svc.List(ctx, "")
		require.ErrorIs(t, err, store.ErrMissingUserID)
		_, err = svc.Create(ctx, "", CreateRequest{Name: "n"})
		require.ErrorIs(t, err, store.ErrMissingUserID)
		err = svc.Delete(ctx, "", testutil.RandomTodoID())
		require.ErrorIs(t, err, store.ErrMissingUserID)
		_, err = svc.IssueUploadURL(ctx, "", testutil.RandomTodoID())
		require.ErrorIs(t, err, store.ErrMissingUserID)
	})

	t.Run("store failure", func(t *testing.T) {
		svc := newService(t, WithTodoStore(failingStore{errors.New("connection refused")}))
		_, err := svc.List(ctx, testutil.RandomUserID())
		require.ErrorIs(t, err, ErrStorageUnavailable)
		_, err = svc.Create(ctx, testutil.RandomUserID(), CreateRequest{Name: "n"})
		require.ErrorIs(t, err, ErrStorageUnavailable)
		err = svc.Delete(ctx, testutil.RandomUserID(), testutil.RandomTodoID())
		require.ErrorIs(t, err, ErrStorageUnavailable)
	})

	t.Run("signer failure", func(t *testing.T) {
		svc := newService(t, WithoutOwnershipCheck(), WithUploadSigner(failingSigner{}))
		_, err := svc.IssueUploadURL(ctx, testutil.RandomUserID(), testutil.RandomTodoID())
		require.ErrorIs(t, err, ErrBlobStoreUnavailable)
	})

	t.Run("requires dependencies", func(t *testing.T) {
		_, err := New()
		require.Error(t, err)
		_, err = New(WithURLExpiration(0))
		require.Error(t, err)
	})
}

type failingStore struct {
	err error
}

func (f failingStore) List(context.Context, string) ([]todo.Item, error) {
	return nil, f.err
}

func (f failingStore) Get(context.Context, string, string) (todo.Item, error) {
	return todo.Item{}, f.err
}

func (f failingStore) Put(context.Context, todo.Item) error {
	return f.err
}

func (f failingStore) Update(context.Context, string, string, todo.Update) error {
	return f.err
}

func (f failingStore) Delete(context.Context, string, string) error {
	return f.err
}

type failingSigner struct{}

func (failingSigner) SignUploadURL(context.Context, string, uint64) (url.URL, http.Header, error) {
	return url.URL{}, nil, errors.New("no credentials")
}
