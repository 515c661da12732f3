package dircache

import (
	"errors"

	"github.com/aweris/dircache/internal/hashio"
)

var (
	// Codec errors.
	ErrInvalidFormat        = errors.New("dircache: invalid index format")
	ErrUnsupportedVersion   = errors.New("dircache: unsupported index version")
	ErrTooManyEntries       = errors.New("dircache: too many index entries")
	ErrUnsupportedExtension = errors.New("dircache: unsupported index extension")
	ErrNotHashStream        = errors.New("dircache: stream is not a trailing-hash stream")

	// Integrity errors, surfaced by the trailing-hash stream.
	ErrHashMismatch   = hashio.ErrHashMismatch
	ErrMissingTrailer = hashio.ErrMissingTrailer

	// Mutation precondition errors.
	ErrInvalidDirCache  = errors.New("dircache: invalid dir cache")
	ErrInvalidEntries   = errors.New("dircache: invalid entries")
	ErrDuplicateEntries = errors.New("dircache: duplicate entries")

	// Tree conversion errors.
	ErrUnmergedEntries = errors.New("dircache: unmerged entries")
	ErrPrefixNotFound  = errors.New("dircache: prefix not found")
)
