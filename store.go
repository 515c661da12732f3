package dircache

import (
	"context"
	"fmt"

	"github.com/aweris/dircache/internal/store"
)

// Store is the object store collaborator consumed by callers that
// persist the trees produced here. Re-exported from internal/store for
// convenience.
type Store = store.Store

// StoreObject is a typed payload for a Store.
type StoreObject = store.Object

const defaultStoreCacheSize = 256

// NewLocalStore opens a loose-object store rooted at dir (typically
// <git-dir>/objects).
func NewLocalStore(dir string) (Store, error) {
	return store.NewLocalStore(dir, defaultStoreCacheSize)
}

// StoreTrees writes every tree to s and checks that the ids minted by the
// store agree with the ids the trees were hashed under.
func StoreTrees(ctx context.Context, s Store, trees []*Tree) error {
	objs := make([]StoreObject, len(trees))
	for i, t := range trees {
		objs[i] = StoreObject{Type: string(TypeTree), Content: t.Encode()}
	}
	ids, err := s.PutMulti(ctx, objs)
	if err != nil {
		return fmt.Errorf("store trees: %w", err)
	}
	for i, t := range trees {
		if ids[i] != t.ID.String() {
			return fmt.Errorf("tree %q stored as %s, hashed as %s: %w",
				t.Path, ids[i], t.ID, ErrHashMismatch)
		}
	}
	return nil
}
