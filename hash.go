package dircache

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ObjectID is the raw 20-byte SHA-1 identifier of a git object. The zero
// value never names a real object and is rejected wherever an id is
// required.
type ObjectID [20]byte

// String returns the canonical 40-character lowercase hex form.
func (id ObjectID) String() string { return hex.EncodeToString(id[:]) }

// IsZero reports whether the id is the all-zero sentinel.
func (id ObjectID) IsZero() bool { return id == ObjectID{} }

// ParseObjectID converts the 40-character hex form back into an ObjectID.
func ParseObjectID(s string) (ObjectID, error) {
	var id ObjectID
	if len(s) != 2*len(id) {
		return id, fmt.Errorf("object id %q: wrong length: %w", s, ErrInvalidFormat)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("object id %q: %w", s, ErrInvalidFormat)
	}
	copy(id[:], b)
	return id, nil
}

// ObjectType names a git object kind for id calculation.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
	TypeTag    ObjectType = "tag"
)

// Valid reports whether t is one of the four git object types.
func (t ObjectType) Valid() bool {
	switch t {
	case TypeBlob, TypeTree, TypeCommit, TypeTag:
		return true
	}
	return false
}

// ContentSource is a restartable byte sequence with a known length. Open
// may be called more than once; each call yields the same bytes from the
// start.
type ContentSource interface {
	Length() int64
	Open() (io.ReadCloser, error)
}

// CalculateID streams src through SHA-1 using git's canonical
// "<type> <length>\0" framing and returns the resulting object id. The
// content is never held in memory as a whole.
func CalculateID(src ContentSource, typ ObjectType) (ObjectID, error) {
	var id ObjectID
	if !typ.Valid() {
		return id, fmt.Errorf("object type %q: %w", typ, ErrInvalidFormat)
	}

	h := sha1.New()
	h.Write([]byte(typ))
	h.Write([]byte(" "))
	h.Write([]byte(strconv.FormatInt(src.Length(), 10)))
	h.Write([]byte{0})

	r, err := src.Open()
	if err != nil {
		return id, fmt.Errorf("open content: %w", err)
	}
	_, err = io.Copy(h, r)
	if cerr := r.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return id, fmt.Errorf("hash content: %w", err)
	}

	copy(id[:], h.Sum(nil))
	return id, nil
}

type bytesSource struct {
	data []byte
}

func (s bytesSource) Length() int64 { return int64(len(s.data)) }

func (s bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

// BytesSource exposes an in-memory byte slice as a ContentSource.
func BytesSource(data []byte) ContentSource { return bytesSource{data: data} }

type fileSource struct {
	path string
	size int64
}

func (s fileSource) Length() int64 { return s.size }

func (s fileSource) Open() (io.ReadCloser, error) { return os.Open(s.path) }

// FileSource exposes a file on disk as a ContentSource. The length is
// captured once; callers must not modify the file while hashing.
func FileSource(path string) (ContentSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return fileSource{path: path, size: info.Size()}, nil
}
