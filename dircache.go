package dircache

import (
	"fmt"
	"sort"
	"strings"
)

// Version is the only index format version this package reads or writes.
const Version = 2

// MaxEntries caps how many entries a single cache may hold. The bound
// exists to keep a malformed or hostile index file from driving unbounded
// memory use; real repositories stay far below it.
const MaxEntries = 100_000

// DirCache is an immutable snapshot of the staging area: a list of
// entries kept strictly increasing by (name, stage). Operations return a
// new DirCache and never modify the receiver, so distinct values can be
// used from separate goroutines without locking.
type DirCache struct {
	entries []Entry
}

// Empty returns the canonical zero-entry cache.
func Empty() *DirCache {
	return &DirCache{}
}

// Len returns the number of entries.
func (dc *DirCache) Len() int { return len(dc.entries) }

// Entries returns the sorted entry list. Callers must treat the returned
// slice as read-only.
func (dc *DirCache) Entries() []Entry { return dc.entries }

// Valid reports whether every invariant holds: each entry well-formed,
// entries strictly increasing by (name, stage), and no entry's name a
// directory prefix of another's.
func (dc *DirCache) Valid() bool { return dc.validate() == nil }

func (dc *DirCache) validate() error {
	for i := range dc.entries {
		e := &dc.entries[i]
		if !e.Valid() {
			return fmt.Errorf("entry %q: %w", e.Name, ErrInvalidEntries)
		}
		if i > 0 && compareEntries(&dc.entries[i-1], e) >= 0 {
			return fmt.Errorf("entry %q out of order: %w", e.Name, ErrInvalidDirCache)
		}
	}

	// A file and a directory may not share a logical path. Entries are
	// sorted, so any path below name/ starts the block found by search.
	for i := range dc.entries {
		dir := dc.entries[i].Name + "/"
		j := sort.Search(len(dc.entries), func(k int) bool {
			return dc.entries[k].Name >= dir
		})
		if j < len(dc.entries) && strings.HasPrefix(dc.entries[j].Name, dir) {
			return fmt.Errorf("%q is both a file and a directory: %w",
				dc.entries[i].Name, ErrInvalidDirCache)
		}
	}
	return nil
}

// FullyMerged reports whether every entry is at stage 0.
func (dc *DirCache) FullyMerged() bool {
	for i := range dc.entries {
		if dc.entries[i].Stage != StageMerged {
			return false
		}
	}
	return true
}

// AddEntries merges add into the cache and returns the result. Incoming
// entries are sorted by (name, stage); an incoming entry replaces an
// existing entry with the same name and stage. Two incoming entries
// sharing (name, stage) are rejected with ErrDuplicateEntries. The
// receiver is validated first and never modified.
func (dc *DirCache) AddEntries(add []Entry) (*DirCache, error) {
	if err := dc.validate(); err != nil {
		return nil, err
	}
	for i := range add {
		if !add[i].Valid() {
			return nil, fmt.Errorf("entry %q: %w", add[i].Name, ErrInvalidEntries)
		}
	}

	incoming := make([]Entry, len(add))
	copy(incoming, add)
	sort.SliceStable(incoming, func(i, j int) bool {
		return compareEntries(&incoming[i], &incoming[j]) < 0
	})
	for i := 1; i < len(incoming); i++ {
		if compareEntries(&incoming[i-1], &incoming[i]) == 0 {
			return nil, fmt.Errorf("entry %q stage %d: %w",
				incoming[i].Name, incoming[i].Stage, ErrDuplicateEntries)
		}
	}

	merged := make([]Entry, 0, len(dc.entries)+len(incoming))
	i, j := 0, 0
	for i < len(dc.entries) && j < len(incoming) {
		switch c := compareEntries(&dc.entries[i], &incoming[j]); {
		case c < 0:
			merged = append(merged, dc.entries[i])
			i++
		case c > 0:
			merged = append(merged, incoming[j])
			j++
		default:
			// Same (name, stage): the incoming entry wins.
			merged = append(merged, incoming[j])
			i++
			j++
		}
	}
	merged = append(merged, dc.entries[i:]...)
	merged = append(merged, incoming[j:]...)

	return &DirCache{entries: merged}, nil
}

// Removal names a path to drop from the cache. Stage selects one exact
// (path, stage) pair; StageAll drops every stage of the path.
type Removal struct {
	Path  string
	Stage Stage
}

// RemoveEntries drops every entry matched by removals and returns the
// result. Removing a path that is not present is not an error. The
// receiver is validated first and never modified.
func (dc *DirCache) RemoveEntries(removals []Removal) (*DirCache, error) {
	if err := dc.validate(); err != nil {
		return nil, err
	}
	for _, r := range removals {
		if !validName(r.Path) || (r.Stage != StageAll && !r.Stage.Valid()) {
			return nil, fmt.Errorf("removal %q: %w", r.Path, ErrInvalidEntries)
		}
	}

	rs := make([]Removal, len(removals))
	copy(rs, removals)
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Path != rs[j].Path {
			return rs[i].Path < rs[j].Path
		}
		return rs[i].Stage < rs[j].Stage
	})

	kept := make([]Entry, 0, len(dc.entries))
	r := 0
	for i := range dc.entries {
		e := &dc.entries[i]
		for r < len(rs) && rs[r].Path < e.Name {
			r++
		}
		drop := false
		for k := r; k < len(rs) && rs[k].Path == e.Name; k++ {
			if rs[k].Stage == StageAll || rs[k].Stage == e.Stage {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, *e)
		}
	}

	return &DirCache{entries: kept}, nil
}
