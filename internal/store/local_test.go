package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(t.TempDir(), 16)
	require.NoError(t, err)
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Put(ctx, Object{Type: "blob", Content: []byte("hello, world\n")})
	require.NoError(t, err)
	// Matches `git hash-object` for the same content.
	require.Equal(t, "4b5fa63702dd96796042e92787f464e28f09f17d", id)

	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "blob", got.Type)
	require.Equal(t, []byte("hello, world\n"), got.Content)
}

func TestGetFromDiskAfterCacheEvict(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Put(ctx, Object{Type: "blob", Content: []byte("evicted")})
	require.NoError(t, err)

	// Drop the cached frame so Get has to inflate the file on disk.
	s.Evict(id)
	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []byte("evicted"), got.Content)
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "0000000000000000000000000000000000000000")
	require.ErrorContains(t, err, "object not found")
}

func TestPutIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	obj := Object{Type: "blob", Content: []byte("same bytes")}

	id1, err := s.Put(ctx, obj)
	require.NoError(t, err)
	id2, err := s.Put(ctx, obj)
	require.NoError(t, err)
	require.Equal(t, id1, id2)
}

func TestObjectPathSharding(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Put(ctx, Object{Type: "blob", Content: []byte("hello, world\n")})
	require.NoError(t, err)

	path := filepath.Join(s.basePath, id[:2], id[2:])
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.False(t, info.IsDir())
}

func TestHasAndHasAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Put(ctx, Object{Type: "blob", Content: []byte("present")})
	require.NoError(t, err)

	ok, err := s.Has(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Has(ctx, "ffffffffffffffffffffffffffffffffffffffff")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.HasAll(ctx, []string{id})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.HasAll(ctx, []string{id, "ffffffffffffffffffffffffffffffffffffffff"})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPutMultiPreservesOrder(t *testing.T) {
	s := newTestStore(t)
	s.SetConcurrency(8)
	ctx := context.Background()

	objs := make([]Object, 50)
	want := make([]string, len(objs))
	for i := range objs {
		objs[i] = Object{Type: "blob", Content: []byte(fmt.Sprintf("object %d\n", i))}
	}

	ids, err := s.PutMulti(ctx, objs)
	require.NoError(t, err)
	require.Len(t, ids, len(objs))

	// Ids must line up with the input order regardless of goroutine
	// scheduling.
	for i, obj := range objs {
		id, err := s.Put(ctx, obj)
		require.NoError(t, err)
		want[i] = id
	}
	require.Equal(t, want, ids)

	ok, err := s.HasAll(ctx, ids)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestGetMulti(t *testing.T) {
	s := newTestStore(t)
	s.SetConcurrency(8)
	ctx := context.Background()

	objs := make([]Object, 20)
	for i := range objs {
		objs[i] = Object{Type: "blob", Content: []byte(fmt.Sprintf("object %d\n", i))}
	}
	ids, err := s.PutMulti(ctx, objs)
	require.NoError(t, err)

	got, err := s.GetMulti(ctx, ids)
	require.NoError(t, err)
	require.Len(t, got, len(ids))
	for i, id := range ids {
		require.Equal(t, objs[i], got[id])
	}
}

func TestGetMultiMissingObject(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Put(ctx, Object{Type: "blob", Content: []byte("present")})
	require.NoError(t, err)

	_, err = s.GetMulti(ctx, []string{id, "ffffffffffffffffffffffffffffffffffffffff"})
	require.ErrorContains(t, err, "object not found")
}

func TestClearDropsCacheNotDisk(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Put(ctx, Object{Type: "tree", Content: nil})
	require.NoError(t, err)

	s.Clear()
	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "tree", got.Type)
	require.Empty(t, got.Content)
}

func TestBoundedCache(t *testing.T) {
	c := newBoundedCache(2)
	c.Add("a", []byte("1"))
	c.Add("b", []byte("2"))
	c.Add("c", []byte("3"))

	// One of the earlier frames was dropped to stay within bounds.
	count := 0
	for _, id := range []string{"a", "b", "c"} {
		if c.Has(id) {
			count++
		}
	}
	require.Equal(t, 2, count)

	c.Remove("c")
	require.False(t, c.Has("c"))
	c.Clear()
	require.False(t, c.Has("a"))
	require.False(t, c.Has("b"))
}
