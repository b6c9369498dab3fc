package paths

import "strings"

// PureDirPath is a "/"-separated sequence of Components addressing a
// directory-like resource. Unlike PurePath it may be empty (the root
// directory of a version or manifest).
type PureDirPath struct {
	parts []Component
}

// RootDirPath is the empty directory path: the root of a Dandiset version or
// a Zarr manifest.
var RootDirPath = PureDirPath{}

// NewPureDirPath parses s, which must either be "" (the root) or end in "/".
func NewPureDirPath(s string) (PureDirPath, error) {
	if s == "" {
		return RootDirPath, nil
	}
	if !strings.HasSuffix(s, "/") {
		return PureDirPath{}, ErrInvalidComponent
	}
	s = strings.TrimSuffix(s, "/")
	if s == "" {
		return RootDirPath, nil
	}
	segs := strings.Split(s, "/")
	parts := make([]Component, 0, len(segs))
	for _, seg := range segs {
		c, err := NewComponent(seg)
		if err != nil {
			return PureDirPath{}, err
		}
		parts = append(parts, c)
	}
	return PureDirPath{parts: parts}, nil
}

// PureDirPathFromComponents builds a PureDirPath directly from a validated
// component slice, which may be empty.
func PureDirPathFromComponents(parts []Component) PureDirPath {
	cp := make([]Component, len(parts))
	copy(cp, parts)
	return PureDirPath{parts: cp}
}

// IsRoot reports whether d is the root directory.
func (d PureDirPath) IsRoot() bool { return len(d.parts) == 0 }

// Parts returns the directory's components. The caller must not mutate the
// returned slice.
func (d PureDirPath) Parts() []Component { return d.parts }

// Parent returns the parent directory and whether d had one (the root has
// none).
func (d PureDirPath) Parent() (PureDirPath, bool) {
	if d.IsRoot() {
		return PureDirPath{}, false
	}
	return PureDirPath{parts: d.parts[:len(d.parts)-1]}, true
}

// Join appends a single component, yielding a PurePath (a file-like
// resource nested under the directory).
func (d PureDirPath) Join(c Component) PurePath {
	parts := make([]Component, 0, len(d.parts)+1)
	parts = append(parts, d.parts...)
	parts = append(parts, c)
	return PurePath{parts: parts}
}

// JoinPath appends every component of p, yielding a PurePath nested under
// the directory.
func (d PureDirPath) JoinPath(p PurePath) PurePath {
	parts := make([]Component, 0, len(d.parts)+len(p.parts))
	parts = append(parts, d.parts...)
	parts = append(parts, p.parts...)
	return PurePath{parts: parts}
}

// JoinDir appends a single component, yielding a nested PureDirPath.
func (d PureDirPath) JoinDir(c Component) PureDirPath {
	parts := make([]Component, 0, len(d.parts)+1)
	parts = append(parts, d.parts...)
	parts = append(parts, c)
	return PureDirPath{parts: parts}
}

// IsStrictlyUnder reports whether other is a proper ancestor of d, i.e. d has
// every component of other as a prefix and at least one component beyond it.
func (d PureDirPath) IsStrictlyUnder(other PureDirPath) bool {
	return hasStrictPrefix(d.parts, other.parts)
}

// RelativeTo rebases d onto other, returning the remaining components and
// true if d.IsStrictlyUnder(other), or a zero PureDirPath and false
// otherwise.
func (d PureDirPath) RelativeTo(other PureDirPath) (PureDirPath, bool) {
	if !d.IsStrictlyUnder(other) {
		return PureDirPath{}, false
	}
	return PureDirPath{parts: d.parts[len(other.parts):]}, true
}

// String renders the directory path in "/"-joined form with a trailing
// slash, or "" for the root.
func (d PureDirPath) String() string {
	if d.IsRoot() {
		return ""
	}
	ss := make([]string, len(d.parts))
	for i, c := range d.parts {
		ss[i] = c.String()
	}
	return strings.Join(ss, "/") + "/"
}
