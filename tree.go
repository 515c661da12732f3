package dircache

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// TreeEntry is one line of a tree object: a name within the directory,
// the id of the blob or subtree it points at, and its mode.
type TreeEntry struct {
	Name string
	ID   ObjectID
	Mode Mode
}

// Tree is a single directory level of the staged hierarchy. Path is the
// directory's full path within the cache ("" for the root). ID is the
// object id of the canonical encoding; it depends only on the sorted
// (mode, name, id) triples.
type Tree struct {
	Path    string
	Entries []TreeEntry
	ID      ObjectID
}

// compareTreeEntries orders entries the way git sorts tree content: by
// name, except that a directory compares as though its name carried a
// trailing separator. A file "foo" therefore sorts before a directory
// "foo" and after a file "fon", and this order fixes the bytes that get
// hashed into the tree id.
func compareTreeEntries(a, b TreeEntry) int {
	na, nb := a.Name, b.Name
	if a.Mode == ModeTree {
		na += "/"
	}
	if b.Mode == ModeTree {
		nb += "/"
	}
	return strings.Compare(na, nb)
}

// Encode returns the canonical tree object content: for each entry in
// order, "<octal mode> <name>\0" followed by the raw 20-byte id.
func (t *Tree) Encode() []byte {
	var buf bytes.Buffer
	for _, e := range t.Entries {
		buf.WriteString(e.Mode.String())
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(e.ID[:])
	}
	return buf.Bytes()
}

// TreeObjects converts the flat, sorted entry list into one Tree per
// directory level, including the root, and returns the tree whose path
// equals prefix alongside the full set. Every tree is hashed, so the
// result is ready for an object store. The cache must be valid and fully
// merged; conversion never modifies it.
func (dc *DirCache) TreeObjects(prefix string) (*Tree, []*Tree, error) {
	if err := dc.validate(); err != nil {
		return nil, nil, err
	}
	if !dc.FullyMerged() {
		return nil, nil, ErrUnmergedEntries
	}

	var trees []*Tree
	if _, err := buildTrees(dc.entries, "", &trees); err != nil {
		return nil, nil, err
	}

	want := strings.TrimSuffix(prefix, "/")
	for _, t := range trees {
		if t.Path == want {
			return t, trees, nil
		}
	}
	return nil, nil, fmt.Errorf("prefix %q: %w", prefix, ErrPrefixNotFound)
}

// buildTrees builds the tree for the directory dir ("" for the root, or
// a path with a trailing separator) from the entries below it, recursing
// into each child directory. Entries are lexicographically sorted by full
// path, so every subdirectory occupies one contiguous block.
func buildTrees(entries []Entry, dir string, out *[]*Tree) (*Tree, error) {
	tes := make([]TreeEntry, 0, len(entries))
	for i := 0; i < len(entries); {
		rest := entries[i].Name[len(dir):]
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			seg := rest[:j]
			subdir := dir + seg + "/"
			k := i + 1
			for k < len(entries) && strings.HasPrefix(entries[k].Name, subdir) {
				k++
			}
			sub, err := buildTrees(entries[i:k], subdir, out)
			if err != nil {
				return nil, err
			}
			tes = append(tes, TreeEntry{Name: seg, ID: sub.ID, Mode: ModeTree})
			i = k
		} else {
			tes = append(tes, TreeEntry{Name: rest, ID: entries[i].ID, Mode: entries[i].Mode})
			i++
		}
	}

	sort.Slice(tes, func(i, j int) bool {
		return compareTreeEntries(tes[i], tes[j]) < 0
	})

	t := &Tree{Path: strings.TrimSuffix(dir, "/"), Entries: tes}
	id, err := CalculateID(BytesSource(t.Encode()), TypeTree)
	if err != nil {
		return nil, err
	}
	t.ID = id
	*out = append(*out, t)
	return t, nil
}
