package access

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/storacha/todos/pkg/internal/testutil"
)

func TestPatternAccess(t *testing.T) {
	t.Run("gets URL", func(t *testing.T) {
		prefix := "http://localhost/blob/"
		access, err := NewPatternAccess(prefix + "{key}")
		require.NoError(t, err)

		key := testutil.RandomTodoID()
		url, err := access.GetDownloadURL(key)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(url.String(), prefix))
		require.Equal(t, prefix+key, url.String())
	})

	t.Run("deterministic", func(t *testing.T) {
		access, err := NewPatternAccess("http://localhost/blob/{key}")
		require.NoError(t, err)

		key := testutil.RandomTodoID()
		u0 := testutil.Must(access.GetDownloadURL(key))(t)
		u1 := testutil.Must(access.GetDownloadURL(key))(t)
		require.Equal(t, u0, u1)
	})

	t.Run("bucket", func(t *testing.T) {
		access, err := NewBucketAccess("attachments")
		require.NoError(t, err)

		url, err := access.GetDownloadURL("abc")
		require.NoError(t, err)
		require.Equal(t, "https://attachments.s3.amazonaws.com/abc", url.String())
	})

	t.Run("missing pattern", func(t *testing.T) {
		_, err := NewPatternAccess("http://localhost/blob")
		require.Error(t, err)
		require.Contains(t, err.Error(), "URL string does not contain required pattern")
	})

	t.Run("invalid url", func(t *testing.T) {
		access, err := NewPatternAccess("://localhost/{key}")
		require.NoError(t, err)

		_, err = access.GetDownloadURL(testutil.RandomTodoID())
		require.Error(t, err)
		require.Contains(t, err.Error(), "missing protocol scheme")
	})
}
