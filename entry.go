package dircache

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode is a git file mode. Only the five canonical values are legal;
// everything else is rejected at validation and parse time.
type Mode uint32

const (
	ModeRegular    Mode = 0o100644
	ModeExecutable Mode = 0o100755
	ModeSymlink    Mode = 0o120000
	ModeTree       Mode = 0o040000
	ModeGitlink    Mode = 0o160000
)

// Valid reports whether m is one of the five legal git modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeRegular, ModeExecutable, ModeSymlink, ModeTree, ModeGitlink:
		return true
	}
	return false
}

// String returns the unpadded octal form used in tree object content.
func (m Mode) String() string { return strconv.FormatUint(uint64(m), 8) }

// Stage is an entry's merge stage. Stage 0 is a merged entry; stages 1-3
// are the base/ours/theirs sides of an unresolved merge.
type Stage int8

const (
	StageMerged Stage = 0
	StageBase   Stage = 1
	StageOurs   Stage = 2
	StageTheirs Stage = 3

	// StageAll is only meaningful in a Removal, where it matches every
	// stage of a path.
	StageAll Stage = -1
)

// Valid reports whether s is a storable stage (StageAll is not).
func (s Stage) Valid() bool { return s >= StageMerged && s <= StageTheirs }

// Entry is a single staged path. Entries are immutable once added to a
// DirCache; the stat fields mirror the uint32 layout of the on-disk
// format (see stat(2)).
type Entry struct {
	Name  string
	ID    ObjectID
	Mode  Mode
	Stage Stage

	Size    uint32
	Ctime   uint32
	CtimeNs uint32
	Mtime   uint32
	MtimeNs uint32
	Dev     uint32
	Ino     uint32
	UID     uint32
	GID     uint32

	AssumeValid bool
	Extended    bool

	// SkipWorktree and IntentToAdd live in the version 3 extended flags
	// word and cannot be represented in a version 2 index file.
	SkipWorktree bool
	IntentToAdd  bool
}

// Valid reports whether the entry is individually well-formed: a clean
// relative name, a legal mode, a storable stage, and a non-zero id.
func (e *Entry) Valid() bool {
	return validName(e.Name) && e.Mode.Valid() && e.Stage.Valid() && !e.ID.IsZero()
}

// validName accepts relative slash-separated paths with no empty, "." or
// ".." segments and no NUL bytes.
func validName(name string) bool {
	if name == "" || name[0] == '/' || strings.IndexByte(name, 0) >= 0 {
		return false
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}

// compareEntries orders entries by (name, stage) using plain byte
// comparison on the full path. This is the staging-area order, not the
// tree object order.
func compareEntries(a, b *Entry) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return int(a.Stage) - int(b.Stage)
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s %s %d\t%s", e.Mode, e.ID, e.Stage, e.Name)
}
