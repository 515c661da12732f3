package dircache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func mustID(t *testing.T, hexID string) ObjectID {
	t.Helper()
	id, err := ParseObjectID(hexID)
	require.NoError(t, err)
	return id
}

func blobEntry(t *testing.T, name, hexID string) Entry {
	t.Helper()
	return Entry{Name: name, ID: mustID(t, hexID), Mode: ModeRegular, Stage: StageMerged}
}

func TestCompareTreeEntriesDirectorySuffix(t *testing.T) {
	id := mustID(t, "4b5fa63702dd96796042e92787f464e28f09f17d")
	file := TreeEntry{Name: "foo", ID: id, Mode: ModeRegular}
	dir := TreeEntry{Name: "foo", ID: id, Mode: ModeTree}
	after := TreeEntry{Name: "foo0", ID: id, Mode: ModeRegular}

	// A file sorts before a directory of the same name ("foo" < "foo/"),
	// and the directory still sorts before "foo0" ('/' < '0').
	require.Negative(t, compareTreeEntries(file, dir))
	require.Negative(t, compareTreeEntries(dir, after))
	require.Negative(t, compareTreeEntries(file, after))
}

func TestTreeObjectsEmptyCache(t *testing.T) {
	root, trees, err := Empty().TreeObjects("")
	require.NoError(t, err)
	require.Len(t, trees, 1)
	require.Equal(t, "", root.Path)
	require.Empty(t, root.Entries)
	require.Equal(t, "4b825dc642cb6eb9a060e54bf8d69288fbee4904", root.ID.String())
}

func TestTreeObjectsSingleBlob(t *testing.T) {
	dc := mustAdd(t, Empty(),
		blobEntry(t, "hello.txt", "18832d35117ef2f013c4009f5b2128dfaeff354f"))

	root, trees, err := dc.TreeObjects("")
	require.NoError(t, err)
	require.Len(t, trees, 1)
	require.Equal(t, "deaec688e84302d4a0b98a1b78a434be1b22ca02", root.ID.String())
	require.Equal(t, []TreeEntry{{
		Name: "hello.txt",
		ID:   mustID(t, "18832d35117ef2f013c4009f5b2128dfaeff354f"),
		Mode: ModeRegular,
	}}, root.Entries)
}

// scenarioEntries are five distinct blobs verified against git: each
// blob's content is its own path plus a newline.
func scenarioEntries(t *testing.T) []Entry {
	t.Helper()
	return []Entry{
		blobEntry(t, "a/a/b", "dc3a2e0e1e48fc6d14bb7ced484f2144dd80dbc3"),
		blobEntry(t, "a/b/c", "b3279a87cff002e464d11e4c758809fc04edf974"),
		blobEntry(t, "a/b/d", "a5de78b96eac4e870493f4fddcf5d60b891eccf3"),
		blobEntry(t, "a/c/x", "a6b73cee2f8192a208af828765ff29e2eda6e02d"),
		blobEntry(t, "other.txt", "7a7039401d7b84322494713b03bc1334f16c7150"),
	}
}

func TestTreeObjectsHierarchy(t *testing.T) {
	dc := mustAdd(t, Empty(), scenarioEntries(t)...)

	root, trees, err := dc.TreeObjects("")
	require.NoError(t, err)
	require.Len(t, trees, 5)

	byPath := make(map[string]*Tree, len(trees))
	for _, tr := range trees {
		byPath[tr.Path] = tr
	}

	// Ids captured from `git write-tree` over the same staged paths.
	require.Equal(t, "2f9b9f9c5ae7c7b3f1a668345d238da23f9ee76d", byPath[""].ID.String())
	require.Equal(t, "16fac8a948bfa7231b16a0aa1e4fa8b2e543d274", byPath["a"].ID.String())
	require.Equal(t, "dcb221466d04ea12a972d04a317c358d7bf3dbc6", byPath["a/a"].ID.String())
	require.Equal(t, "a167cf38c16192b6af9dd7d4a8e488178ad8a26d", byPath["a/b"].ID.String())
	require.Equal(t, "3be386d8a1589741dbe0a3af8f22d9d07c77b92f", byPath["a/c"].ID.String())
	require.Same(t, byPath[""], root)

	// Each level holds exactly the entries that belong to it.
	require.Equal(t, []TreeEntry{
		{Name: "a", ID: byPath["a"].ID, Mode: ModeTree},
		{Name: "other.txt", ID: mustID(t, "7a7039401d7b84322494713b03bc1334f16c7150"), Mode: ModeRegular},
	}, byPath[""].Entries)
	require.Equal(t, []TreeEntry{
		{Name: "a", ID: byPath["a/a"].ID, Mode: ModeTree},
		{Name: "b", ID: byPath["a/b"].ID, Mode: ModeTree},
		{Name: "c", ID: byPath["a/c"].ID, Mode: ModeTree},
	}, byPath["a"].Entries)
	require.Len(t, byPath["a/b"].Entries, 2)
}

func TestTreeObjectsPrefix(t *testing.T) {
	dc := mustAdd(t, Empty(), scenarioEntries(t)...)

	sub, _, err := dc.TreeObjects("a/b")
	require.NoError(t, err)
	require.Equal(t, "a167cf38c16192b6af9dd7d4a8e488178ad8a26d", sub.ID.String())

	// A trailing separator names the same directory.
	sub2, _, err := dc.TreeObjects("a/b/")
	require.NoError(t, err)
	require.Equal(t, sub.ID, sub2.ID)

	_, _, err = dc.TreeObjects("a/missing")
	require.ErrorIs(t, err, ErrPrefixNotFound)

	// A file path is not a directory.
	_, _, err = dc.TreeObjects("other.txt")
	require.ErrorIs(t, err, ErrPrefixNotFound)
}

func TestTreeObjectsDeterministic(t *testing.T) {
	entries := scenarioEntries(t)

	forward := mustAdd(t, Empty(), entries...)

	reversed := make([]Entry, len(entries))
	for i, e := range entries {
		reversed[len(entries)-1-i] = e
	}
	backward := mustAdd(t, Empty(), reversed[:2]...)
	backward = mustAdd(t, backward, reversed[2:]...)

	_, ft, err := forward.TreeObjects("")
	require.NoError(t, err)
	_, bt, err := backward.TreeObjects("")
	require.NoError(t, err)

	fids := make(map[string]bool)
	for _, tr := range ft {
		fids[tr.ID.String()] = true
	}
	bids := make(map[string]bool)
	for _, tr := range bt {
		bids[tr.ID.String()] = true
	}
	require.Equal(t, fids, bids)
}

func TestTreeObjectsRejectsUnmerged(t *testing.T) {
	dc := mustAdd(t, Empty(), testEntry("conflict.txt", StageOurs))
	_, _, err := dc.TreeObjects("")
	require.ErrorIs(t, err, ErrUnmergedEntries)
}

func TestStoreTrees(t *testing.T) {
	dc := mustAdd(t, Empty(), scenarioEntries(t)...)
	_, trees, err := dc.TreeObjects("")
	require.NoError(t, err)

	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, StoreTrees(context.Background(), s, trees))

	ids := make([]string, len(trees))
	for i, tr := range trees {
		ids[i] = tr.ID.String()
	}
	ok, err := s.HasAll(context.Background(), ids)
	require.NoError(t, err)
	require.True(t, ok)

	obj, err := s.Get(context.Background(), "a167cf38c16192b6af9dd7d4a8e488178ad8a26d")
	require.NoError(t, err)
	require.Equal(t, "tree", obj.Type)
}
