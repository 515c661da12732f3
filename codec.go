package dircache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/aweris/dircache/internal/hashio"
)

// HashReader and HashWriter are the trailing-hash stream handles the
// codec requires; Parse and Serialize refuse any other stream so the
// checksum at the end of the file is always accounted for.
type (
	HashReader = hashio.Reader
	HashWriter = hashio.Writer
)

// NewHashReader wraps r for use with Parse.
func NewHashReader(r io.Reader) *HashReader { return hashio.NewReader(r) }

// NewHashWriter wraps w for use with Serialize.
func NewHashWriter(w io.Writer) *HashWriter { return hashio.NewWriter(w) }

var log = logrus.WithField("component", "dircache")

const (
	indexSignature = "DIRC"

	// Fixed-size portion of a version 2 entry: ten uint32 stat fields,
	// the 20-byte object id, and the 16-bit flags word.
	entryFixedSize = 62

	flagAssumeValid = 0x8000
	flagExtended    = 0x4000
	stageMask       = 0x3000
	stageShift      = 12
	nameMask        = 0x0FFF
)

// entryPadding returns how many NUL bytes follow an entry's name. Each
// on-disk entry is padded to a multiple of 8 bytes and always ends with
// at least one NUL, matching the layout C git has written since the
// original dircache code.
func entryPadding(nameLen int) int {
	pad := 8 - (entryFixedSize+nameLen)%8
	// pad is already in 1..8: a perfectly aligned name still gets a
	// full 8 bytes of NULs so the name stays terminated.
	return pad
}

// Parse reads a version 2 index file from r, which must be a HashReader;
// the trailing 20-byte digest is checked against everything read before
// it. No partial cache is ever returned: any malformed byte, unknown
// required extension, or digest mismatch fails the whole parse.
func Parse(r io.Reader) (*DirCache, error) {
	hr, ok := r.(*HashReader)
	if !ok {
		return nil, ErrNotHashStream
	}

	var hdr [12]byte
	if _, err := io.ReadFull(hr, hdr[:]); err != nil {
		return nil, readErr("index header", err)
	}
	if string(hdr[:4]) != indexSignature {
		return nil, fmt.Errorf("index signature %q: %w", hdr[:4], ErrInvalidFormat)
	}
	if version := binary.BigEndian.Uint32(hdr[4:8]); version != Version {
		return nil, fmt.Errorf("index version %d: %w", version, ErrUnsupportedVersion)
	}
	count := binary.BigEndian.Uint32(hdr[8:12])
	if count > MaxEntries {
		return nil, fmt.Errorf("%d entries: %w", count, ErrTooManyEntries)
	}

	entries := make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		e, err := readEntry(hr)
		if err != nil {
			return nil, err
		}
		if n := len(entries); n > 0 && compareEntries(&entries[n-1], &e) >= 0 {
			return nil, fmt.Errorf("entry %q out of order: %w", e.Name, ErrInvalidFormat)
		}
		entries = append(entries, e)
	}

	if err := skipExtensions(hr); err != nil {
		return nil, err
	}
	if err := hr.Verify(); err != nil {
		return nil, err
	}
	return &DirCache{entries: entries}, nil
}

func readEntry(hr *HashReader) (Entry, error) {
	var fixed [entryFixedSize]byte
	if _, err := io.ReadFull(hr, fixed[:]); err != nil {
		return Entry{}, readErr("index entry", err)
	}

	e := Entry{
		Ctime:   binary.BigEndian.Uint32(fixed[0:4]),
		CtimeNs: binary.BigEndian.Uint32(fixed[4:8]),
		Mtime:   binary.BigEndian.Uint32(fixed[8:12]),
		MtimeNs: binary.BigEndian.Uint32(fixed[12:16]),
		Dev:     binary.BigEndian.Uint32(fixed[16:20]),
		Ino:     binary.BigEndian.Uint32(fixed[20:24]),
		Mode:    Mode(binary.BigEndian.Uint32(fixed[24:28])),
		UID:     binary.BigEndian.Uint32(fixed[28:32]),
		GID:     binary.BigEndian.Uint32(fixed[32:36]),
		Size:    binary.BigEndian.Uint32(fixed[36:40]),
	}
	if !e.Mode.Valid() {
		return Entry{}, fmt.Errorf("entry mode %o: %w", uint32(e.Mode), ErrInvalidFormat)
	}
	copy(e.ID[:], fixed[40:60])
	if e.ID.IsZero() {
		return Entry{}, fmt.Errorf("all-zero object id: %w", ErrInvalidFormat)
	}

	flags := binary.BigEndian.Uint16(fixed[60:62])
	e.AssumeValid = flags&flagAssumeValid != 0
	e.Extended = flags&flagExtended != 0
	e.Stage = Stage((flags & stageMask) >> stageShift)

	nameLen := int(flags & nameMask)
	if nameLen >= nameMask {
		return Entry{}, fmt.Errorf("entry name length overflow: %w", ErrInvalidFormat)
	}

	buf := make([]byte, nameLen+entryPadding(nameLen))
	if _, err := io.ReadFull(hr, buf); err != nil {
		return Entry{}, readErr("entry name", err)
	}
	for _, b := range buf[nameLen:] {
		if b != 0 {
			return Entry{}, fmt.Errorf("entry %q: non-NUL padding: %w", buf[:nameLen], ErrInvalidFormat)
		}
	}
	name := buf[:nameLen]
	for _, b := range name {
		if b == 0 {
			return Entry{}, fmt.Errorf("NUL byte in entry name: %w", ErrInvalidFormat)
		}
	}
	e.Name = string(name)
	return e, nil
}

// skipExtensions consumes the extension section. Extensions whose
// signature starts with an uppercase ASCII letter are optional and their
// payload is discarded; anything else is required, and since none are
// understood the parse fails.
func skipExtensions(hr *HashReader) error {
	for {
		var sig [4]byte
		if _, err := io.ReadFull(hr, sig[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			return readErr("extension signature", err)
		}
		if sig[0] < 'A' || sig[0] > 'Z' {
			return fmt.Errorf("required extension %q: %w", sig, ErrUnsupportedExtension)
		}
		var lenBuf [4]byte
		if _, err := io.ReadFull(hr, lenBuf[:]); err != nil {
			return readErr("extension length", err)
		}
		size := binary.BigEndian.Uint32(lenBuf[:])
		if _, err := io.CopyN(io.Discard, hr, int64(size)); err != nil {
			return readErr("extension payload", err)
		}
		log.WithFields(logrus.Fields{
			"signature": string(sig[:]),
			"size":      size,
		}).Debug("skipped optional index extension")
	}
}

// readErr maps short reads onto ErrInvalidFormat; stream-level failures
// (including a missing trailer) pass through untouched.
func readErr(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("short read in %s: %w", what, ErrInvalidFormat)
	}
	return fmt.Errorf("read %s: %w", what, err)
}

// Serialize writes dc as a version 2 index file to w, which must be a
// HashWriter; the digest of everything written is appended as the final
// 20 bytes. The byte layout mirrors Parse exactly.
func Serialize(dc *DirCache, w io.Writer) error {
	hw, ok := w.(*HashWriter)
	if !ok {
		return ErrNotHashStream
	}
	if len(dc.entries) > MaxEntries {
		return fmt.Errorf("%d entries: %w", len(dc.entries), ErrTooManyEntries)
	}

	hdr := make([]byte, 0, 12)
	hdr = append(hdr, indexSignature...)
	hdr = binary.BigEndian.AppendUint32(hdr, Version)
	hdr = binary.BigEndian.AppendUint32(hdr, uint32(len(dc.entries)))
	if _, err := hw.Write(hdr); err != nil {
		return fmt.Errorf("write index header: %w", err)
	}

	for i := range dc.entries {
		e := &dc.entries[i]
		if i > 0 && compareEntries(&dc.entries[i-1], e) >= 0 {
			return fmt.Errorf("entry %q out of order: %w", e.Name, ErrInvalidDirCache)
		}
		if err := writeEntry(hw, e); err != nil {
			return err
		}
	}

	if err := hw.Finish(); err != nil {
		return fmt.Errorf("write index trailer: %w", err)
	}
	return nil
}

func writeEntry(hw *HashWriter, e *Entry) error {
	if !e.Mode.Valid() || e.ID.IsZero() || !e.Stage.Valid() {
		return fmt.Errorf("entry %q: %w", e.Name, ErrInvalidEntries)
	}
	if len(e.Name) >= nameMask {
		return fmt.Errorf("entry name longer than %d bytes: %w", nameMask-1, ErrInvalidEntries)
	}
	if e.SkipWorktree || e.IntentToAdd {
		// These bits live in the version 3 extended flags word and have
		// no slot in a version 2 file.
		return fmt.Errorf("entry %q needs index version 3: %w", e.Name, ErrInvalidEntries)
	}

	buf := make([]byte, 0, entryFixedSize+len(e.Name)+8)
	buf = binary.BigEndian.AppendUint32(buf, e.Ctime)
	buf = binary.BigEndian.AppendUint32(buf, e.CtimeNs)
	buf = binary.BigEndian.AppendUint32(buf, e.Mtime)
	buf = binary.BigEndian.AppendUint32(buf, e.MtimeNs)
	buf = binary.BigEndian.AppendUint32(buf, e.Dev)
	buf = binary.BigEndian.AppendUint32(buf, e.Ino)
	buf = binary.BigEndian.AppendUint32(buf, uint32(e.Mode))
	buf = binary.BigEndian.AppendUint32(buf, e.UID)
	buf = binary.BigEndian.AppendUint32(buf, e.GID)
	buf = binary.BigEndian.AppendUint32(buf, e.Size)
	buf = append(buf, e.ID[:]...)

	flags := uint16(e.Stage)<<stageShift | uint16(len(e.Name))
	if e.AssumeValid {
		flags |= flagAssumeValid
	}
	if e.Extended {
		flags |= flagExtended
	}
	buf = binary.BigEndian.AppendUint16(buf, flags)

	buf = append(buf, e.Name...)
	buf = append(buf, make([]byte, entryPadding(len(e.Name)))...)

	if _, err := hw.Write(buf); err != nil {
		return fmt.Errorf("write entry %q: %w", e.Name, err)
	}
	return nil
}
