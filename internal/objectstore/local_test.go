package objectstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocal_PutGetDeleteExists(t *testing.T) {
	ctx := context.Background()
	l := NewLocal(t.TempDir())

	ok, err := l.Exists(ctx, "cvs/abc.pdf")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, l.Put(ctx, "cvs/abc.pdf", []byte("hello"), "application/pdf"))

	ok, err = l.Exists(ctx, "cvs/abc.pdf")
	require.NoError(t, err)
	require.True(t, ok)

	data, err := l.Get(ctx, "cvs/abc.pdf")
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	require.NoError(t, l.Delete(ctx, "cvs/abc.pdf"))
	ok, err = l.Exists(ctx, "cvs/abc.pdf")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLocal_RejectsTraversal(t *testing.T) {
	l := NewLocal(t.TempDir())
	// ".." is cleaned to the store root rather than escaping it, so this
	// reads as a plain not-found, never a traversal outside basePath.
	_, err := l.Get(context.Background(), "../../etc/passwd")
	require.Error(t, err)
}

func TestLocal_SignedURLUnsupported(t *testing.T) {
	l := NewLocal(t.TempDir())
	_, err := l.SignedURL(context.Background(), "x", 0)
	require.ErrorIs(t, err, ErrNotSupported)
}
