package testutil

import (
	crand "crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/storacha/todos/pkg/store/todostore/todo"
)

func RandomBytes(size int) []byte {
	bytes := make([]byte, size)
	_, _ = crand.Read(bytes)
	return bytes
}

// RandomUserID returns a user identifier shaped like the subject claim of an
// OAuth identity provider, e.g. "google-oauth2|1f2e...".
func RandomUserID() string {
	return "google-oauth2|" + hex.EncodeToString(RandomBytes(12))
}

func RandomTodoID() string {
	return uuid.NewString()
}

// RandomItem creates a fully populated item owned by the passed user.
func RandomItem(userID string) todo.Item {
	id := RandomTodoID()
	return todo.Item{
		UserID:        userID,
		TodoID:        id,
		CreatedAt:     time.Now().UTC().Format(time.RFC3339Nano),
		Name:          "todo " + hex.EncodeToString(RandomBytes(4)),
		DueDate:       time.Now().Add(24 * time.Hour).UTC().Format(time.DateOnly),
		Done:          false,
		AttachmentURL: fmt.Sprintf("http://localhost/blob/%s", id),
	}
}

// RandomLocalURL returns a URL on localhost with a port that is currently
// free.
func RandomLocalURL(t testing.TB) url.URL {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())
	u, err := url.Parse(fmt.Sprintf("http://127.0.0.1:%d", port))
	require.NoError(t, err)
	return *u
}
