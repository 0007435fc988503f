package dedup

import (
	"fmt"

	"github.com/fenilsonani/fskit/internal/walker"
)

// Kind tags which outcome a Result carries
type Kind int

const (
	// KindInvalid is the zero value; no scan produced it
	KindInvalid Kind = iota
	// KindGroups means at least one duplicate group was found
	KindGroups
	// KindEmpty means no file under the root passed the filters
	KindEmpty
	// KindNotFound means the root disappeared before it could be scanned
	KindNotFound
	// KindNoDuplicates means files were scanned but every digest was unique
	KindNoDuplicates
)

// Sentinel texts shown to the operator for non-group outcomes
const (
	MsgEmpty           = "Dir is empty"
	MsgNotFound        = "Dir doesn't exist"
	MsgNoDuplicates    = "Dir doesn't contain duplicates"
	MsgNothingToRemove = "Dir is empty, nothing to remove."
	MsgInvalidGroup    = "Invalid group index."
	MsgPermission      = "You do not have enough permissions to delete some files."
)

// String returns the kind name
func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindGroups:
		return "groups"
	case KindEmpty:
		return "empty"
	case KindNotFound:
		return "not_found"
	case KindNoDuplicates:
		return "no_duplicates"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Group is a set of two or more files with identical content
type Group struct {
	Digest string   `json:"digest" yaml:"digest"`
	Size   int64    `json:"size" yaml:"size"`   // size of each member
	Files  []string `json:"files" yaml:"files"` // sorted by path
}

// Reclaimable is the number of bytes freed by keeping a single member
func (g Group) Reclaimable() int64 {
	if len(g.Files) < 2 {
		return 0
	}
	return g.Size * int64(len(g.Files)-1)
}

// Stats summarizes the scan and fingerprint passes
type Stats struct {
	FilesScanned int   `json:"files_scanned" yaml:"files_scanned"`
	FilesHashed  int   `json:"files_hashed" yaml:"files_hashed"`
	BytesHashed  int64 `json:"bytes_hashed" yaml:"bytes_hashed"`
	Vanished     int   `json:"vanished" yaml:"vanished"`
	Unreadable   int   `json:"unreadable" yaml:"unreadable"`
}

// Result is the tagged outcome of a duplicate scan. Groups is only set
// when Kind is KindGroups.
type Result struct {
	Kind    Kind
	Root    string
	Groups  []Group
	Skipped []walker.SkippedDir
	Stats   Stats
}

// HasGroups reports whether the result carries duplicate groups
func (r *Result) HasGroups() bool {
	return r.Kind == KindGroups
}

// Message returns the sentinel text for non-group outcomes, or a one-line
// count for the groups outcome
func (r *Result) Message() string {
	switch r.Kind {
	case KindEmpty:
		return MsgEmpty
	case KindNotFound:
		return MsgNotFound
	case KindNoDuplicates:
		return MsgNoDuplicates
	default:
		return fmt.Sprintf("Found %d duplicate groups", len(r.Groups))
	}
}

// DuplicateCount is the number of files that could be removed while keeping one per group
func (r *Result) DuplicateCount() int {
	n := 0
	for _, g := range r.Groups {
		n += len(g.Files) - 1
	}
	return n
}

// Reclaimable sums Group.Reclaimable over all groups
func (r *Result) Reclaimable() int64 {
	var total int64
	for _, g := range r.Groups {
		total += g.Reclaimable()
	}
	return total
}
