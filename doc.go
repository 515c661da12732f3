// Package dircache implements git's directory cache (the "index" staging
// area), its version 2 on-disk codec, and the conversion of staged paths
// into canonical tree objects.
//
// A DirCache is an immutable, sorted list of entries. Mutations return a
// new value, so the only way to change a cache is to build the next one:
//
//	dc := dircache.Empty()
//
//	// Stage a file
//	dc, _ = dc.AddEntries([]dircache.Entry{{
//	    Name: "src/main.go",
//	    Mode: dircache.ModeRegular,
//	    ID:   id,
//	}})
//
//	// Unstage every conflict side of a path
//	dc, _ = dc.RemoveEntries([]dircache.Removal{{Path: "src/main.go", Stage: dircache.StageAll}})
//
//	// Convert the staged paths into tree objects
//	root, trees, _ := dc.TreeObjects("")
//
// The binary codec streams through a trailing-hash wrapper so that the
// SHA-1 checksum at the end of the file is checked against everything that
// came before it:
//
//	hr := dircache.NewHashReader(f)
//	dc, err := dircache.Parse(hr)
//
//	hw := dircache.NewHashWriter(f)
//	err = dircache.Serialize(dc, hw)
//
// Object ids are minted with CalculateID, which reproduces git's
// "<type> <length>\0" framing exactly, so blobs and trees hashed here are
// byte-for-byte identical to the ones git itself produces.
//
// Loose object storage is an external concern; the Store interface and its
// local implementation live in internal/store and are re-exported here for
// callers that want to persist tree sets with StoreTrees.
package dircache
