// Package paths implements a validated, allocation-light model of POSIX-style
// relative paths used to address resources inside a Dandiset version or a
// Zarr manifest. Every exported type enforces its invariants at construction
// time so that later code never has to re-check them.
package paths

import (
	"errors"
	"sort"
	"strings"
)

// ErrEmpty is returned when a path component or pure path would otherwise be
// empty.
var ErrEmpty = errors.New("paths: empty component")

// ErrInvalidComponent is returned when a candidate path component is "." or
// ".." or otherwise cannot appear as a single segment of a path.
var ErrInvalidComponent = errors.New("paths: invalid component")

// Component is a single, non-empty path segment that does not contain a "/"
// and is not "." or "..".
type Component struct {
	s string
}

// NewComponent validates s and wraps it as a Component.
func NewComponent(s string) (Component, error) {
	if s == "" {
		return Component{}, ErrEmpty
	}
	if s == "." || s == ".." {
		return Component{}, ErrInvalidComponent
	}
	if strings.Contains(s, "/") {
		return Component{}, ErrInvalidComponent
	}
	return Component{s: s}, nil
}

// MustComponent is like NewComponent but panics on error. It exists for use
// with compile-time-known-valid literals only.
func MustComponent(s string) Component {
	c, err := NewComponent(s)
	if err != nil {
		panic("paths: MustComponent: " + err.Error())
	}
	return c
}

// String returns the component's text.
func (c Component) String() string { return c.s }

// Ext returns the filename extension of the component, including the dot,
// or "" if there is none. Matches the semantics of Python's
// PurePath.suffix: a leading dot with no further dot does not count as an
// extension.
func (c Component) Ext() string {
	name := c.s
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 {
		return ""
	}
	return name[idx:]
}

// Stem returns the component with its extension, if any, removed.
func (c Component) Stem() string {
	if ext := c.Ext(); ext != "" {
		return strings.TrimSuffix(c.s, ext)
	}
	return c.s
}

// HasSuffix reports whether the component ends in suffix, compared
// case-sensitively (Zarr/NGFF directory markers are matched exactly, not
// case-insensitively, per the archive's own naming convention).
func (c Component) HasSuffix(suffix string) bool {
	return strings.HasSuffix(c.s, suffix)
}

// fastNotExist lists component names that can never appear in a Dandiset
// version or Zarr manifest, sorted for binary search. Requests for a path
// containing one of these segments are rejected before any upstream call is
// made.
var fastNotExist = []string{".bzr", ".git", ".nols", ".svn"}

// IsFastNotExist reports whether c is one of a small set of well-known
// version-control/metadata directory names that never occur in Dandiset
// content, letting the resolver short-circuit without contacting the
// archive or object store.
func (c Component) IsFastNotExist() bool {
	i := sort.SearchStrings(fastNotExist, c.s)
	return i < len(fastNotExist) && fastNotExist[i] == c.s
}
