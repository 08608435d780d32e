package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	"github.com/stretchr/testify/require"

	"github.com/storacha/todos/pkg/auth"
	"github.com/storacha/todos/pkg/internal/testutil"
	"github.com/storacha/todos/pkg/service/blobs"
	"github.com/storacha/todos/pkg/service/todos"
	"github.com/storacha/todos/pkg/store/todostore/todo"
)

type client struct {
	t       *testing.T
	baseURL string
	token   string
}

func (c client) do(method, path string, body any) *http.Response {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.baseURL+path, r)
	require.NoError(c.t, err)
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { res.Body.Close() })
	return res
}

func decode[T any](t *testing.T, res *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(res.Body).Decode(&v))
	return v
}

// TestScenario walks a user through the whole lifecycle of an item against a
// server with local storage.
func TestScenario(t *testing.T) {
	mux := http.NewServeMux()
	httpsrv := httptest.NewServer(mux)
	t.Cleanup(httpsrv.Close)
	publicURL := testutil.Must(url.Parse(httpsrv.URL))(t)

	blobService, err := blobs.New(blobs.WithPublicURLPresigner("todos", "secret", *publicURL))
	require.NoError(t, err)
	todoService, err := todos.New(
		todos.WithDSTodoStore(dssync.MutexWrap(datastore.NewMapDatastore())),
		todos.WithPublicURLAccess(*publicURL),
		todos.WithUploadSigner(blobService.Presigner()),
	)
	require.NoError(t, err)

	handler, err := NewServer(WithTodos(todoService), WithBlobs(blobService))
	require.NoError(t, err)
	mux.Handle("/", handler)

	alice := client{t, httpsrv.URL, testutil.Must(auth.NewToken("alice", []byte("k"), time.Hour))(t)}
	bob := client{t, httpsrv.URL, testutil.Must(auth.NewToken("bob", []byte("k"), time.Hour))(t)}

	res := alice.do(http.MethodPost, "/todos", todos.CreateRequest{Name: "buy milk", DueDate: "2024-06-01"})
	require.Equal(t, http.StatusCreated, res.StatusCode)
	item := decode[todo.Item](t, res)
	require.Equal(t, "alice", item.UserID)
	require.False(t, item.Done)

	res = alice.do(http.MethodGet, "/todos", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, []todo.Item{item}, decode[[]todo.Item](t, res))

	res = bob.do(http.MethodGet, "/todos", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Empty(t, decode[[]todo.Item](t, res))

	done := true
	name := "buy oat milk"
	dueDate := "2024-06-02"
	res = alice.do(http.MethodPatch, "/todos/"+item.TodoID, todos.UpdateRequest{Name: &name, DueDate: &dueDate, Done: &done})
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = alice.do(http.MethodGet, "/todos", nil)
	updated := decode[[]todo.Item](t, res)
	require.Len(t, updated, 1)
	require.Equal(t, name, updated[0].Name)
	require.True(t, updated[0].Done)
	require.Equal(t, item.CreatedAt, updated[0].CreatedAt)

	res = bob.do(http.MethodPost, "/todos/"+item.TodoID+"/attachment", nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	res = alice.do(http.MethodPost, "/todos/"+item.TodoID+"/attachment", nil)
	require.Equal(t, http.StatusCreated, res.StatusCode)
	uploadURL := decode[todos.UploadURLResponse](t, res).UploadURL

	data := testutil.RandomBytes(128)
	req, err := http.NewRequest(http.MethodPut, uploadURL, bytes.NewReader(data))
	require.NoError(t, err)
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, err = http.Get(item.AttachmentURL)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	got, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.Equal(t, data, got)

	for range 2 {
		res = alice.do(http.MethodDelete, "/todos/"+item.TodoID, nil)
		require.Equal(t, http.StatusAccepted, res.StatusCode)
	}

	res = alice.do(http.MethodGet, "/todos", nil)
	require.Empty(t, decode[[]todo.Item](t, res))

	res = alice.do(http.MethodPatch, "/todos/"+item.TodoID, todos.UpdateRequest{Name: &name, DueDate: &dueDate, Done: &done})
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestRoot(t *testing.T) {
	signer, err := blobs.New(blobs.WithPublicURLPresigner("todos", "secret", testutil.RandomLocalURL(t)))
	require.NoError(t, err)
	todoService, err := todos.New(
		todos.WithDSTodoStore(datastore.NewMapDatastore()),
		todos.WithPublicURLAccess(testutil.RandomLocalURL(t)),
		todos.WithUploadSigner(signer.Presigner()),
	)
	require.NoError(t, err)

	handler, err := NewServer(WithTodos(todoService))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.HasPrefix(rec.Body.String(), "todos "))

	_, err = NewServer()
	require.Error(t, err)
}
