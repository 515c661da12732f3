// Package hashio wraps byte streams with a running SHA-1 digest so that
// index files can carry a trailing 20-byte checksum over everything that
// precedes it.
//
// A Reader never exposes the final 20 bytes of the underlying stream as
// logical data; they are held back as the expected digest and compared
// against the running digest by Verify. A Writer accumulates the digest of
// every byte written and appends it on Finish.
//
// A handle owns mutable hash state and must have a single logical owner;
// sharing one handle across goroutines is not supported.
package hashio

import (
	"crypto/sha1"
	"errors"
	"hash"
	"io"
)

// TrailerSize is the length of the trailing SHA-1 digest.
const TrailerSize = sha1.Size

var (
	ErrHashMismatch   = errors.New("hashio: trailing hash mismatch")
	ErrMissingTrailer = errors.New("hashio: stream shorter than trailing hash")
)

// Reader reads from an underlying stream while updating a running SHA-1
// digest, withholding the final TrailerSize bytes from callers.
type Reader struct {
	src    io.Reader
	digest hash.Hash

	// pending holds bytes read from src but not yet released. Until EOF
	// at least TrailerSize bytes are kept back, so the trailer can never
	// leak into the logical stream regardless of read chunk sizes.
	pending []byte
	eof     bool
}

// NewReader wraps src in a trailing-hash reader.
func NewReader(src io.Reader) *Reader {
	return &Reader{src: src, digest: sha1.New()}
}

func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	var scratch [8192]byte
	for !r.eof && len(r.pending) <= TrailerSize {
		n, err := r.src.Read(scratch[:])
		r.pending = append(r.pending, scratch[:n]...)
		if err == io.EOF {
			r.eof = true
			break
		}
		if err != nil {
			return 0, err
		}
	}

	avail := len(r.pending) - TrailerSize
	if avail <= 0 {
		if len(r.pending) < TrailerSize {
			return 0, ErrMissingTrailer
		}
		return 0, io.EOF
	}

	n := copy(p, r.pending[:avail])
	r.digest.Write(p[:n])
	r.pending = append(r.pending[:0], r.pending[n:]...)
	return n, nil
}

// Verify drains any remaining logical bytes and compares the running
// digest against the withheld trailer.
func (r *Reader) Verify() error {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}
	if len(r.pending) < TrailerSize {
		return ErrMissingTrailer
	}
	sum := r.digest.Sum(nil)
	for i, b := range sum {
		if r.pending[i] != b {
			return ErrHashMismatch
		}
	}
	return nil
}

// Sum returns the running digest over the bytes released so far.
func (r *Reader) Sum() []byte {
	return r.digest.Sum(nil)
}

// Writer writes to an underlying stream while updating a running SHA-1
// digest over everything written.
type Writer struct {
	dst    io.Writer
	digest hash.Hash
}

// NewWriter wraps dst in a trailing-hash writer.
func NewWriter(dst io.Writer) *Writer {
	return &Writer{dst: dst, digest: sha1.New()}
}

func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.dst.Write(p)
	w.digest.Write(p[:n])
	return n, err
}

// Sum returns the running digest over the bytes written so far.
func (w *Writer) Sum() []byte {
	return w.digest.Sum(nil)
}

// Finish appends the digest of everything written as the trailing
// TrailerSize bytes. The digest keeps accumulating, so Finish must be the
// final write on the handle.
func (w *Writer) Finish() error {
	_, err := w.dst.Write(w.digest.Sum(nil))
	return err
}
