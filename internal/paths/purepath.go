package paths

import "strings"

// PurePath is a non-empty, "/"-separated sequence of Components addressing a
// file-like resource (no trailing slash). It carries no notion of an
// underlying filesystem; it is pure data, validated once at construction.
type PurePath struct {
	parts []Component
}

// NewPurePath parses s as a PurePath. Leading slashes are rejected: paths in
// this package are always relative to some root (a Dandiset version or a
// Zarr manifest), never absolute.
func NewPurePath(s string) (PurePath, error) {
	if s == "" {
		return PurePath{}, ErrEmpty
	}
	if strings.HasPrefix(s, "/") {
		return PurePath{}, ErrInvalidComponent
	}
	segs := strings.Split(s, "/")
	parts := make([]Component, 0, len(segs))
	for _, seg := range segs {
		c, err := NewComponent(seg)
		if err != nil {
			return PurePath{}, err
		}
		parts = append(parts, c)
	}
	return PurePath{parts: parts}, nil
}

// PurePathFromComponents builds a PurePath directly from an already-validated
// component slice. The slice must not be empty.
func PurePathFromComponents(parts []Component) (PurePath, error) {
	if len(parts) == 0 {
		return PurePath{}, ErrEmpty
	}
	cp := make([]Component, len(parts))
	copy(cp, parts)
	return PurePath{parts: cp}, nil
}

// Parts returns the path's components. The caller must not mutate the
// returned slice.
func (p PurePath) Parts() []Component { return p.parts }

// Name returns the final component of the path.
func (p PurePath) Name() Component { return p.parts[len(p.parts)-1] }

// Parent returns the path with its final component removed, and whether
// there was a parent to remove (a one-component path has no parent).
func (p PurePath) Parent() (PureDirPath, bool) {
	if len(p.parts) == 1 {
		return PureDirPath{}, false
	}
	return PureDirPath{parts: p.parts[:len(p.parts)-1]}, true
}

// String renders the path in "/"-joined form.
func (p PurePath) String() string {
	ss := make([]string, len(p.parts))
	for i, c := range p.parts {
		ss[i] = c.String()
	}
	return strings.Join(ss, "/")
}

// Join appends components to form a new PurePath.
func (p PurePath) Join(more ...Component) PurePath {
	parts := make([]Component, 0, len(p.parts)+len(more))
	parts = append(parts, p.parts...)
	parts = append(parts, more...)
	return PurePath{parts: parts}
}

// IsStrictlyUnder reports whether dir is a proper ancestor of p, i.e. p has
// every component of dir as a prefix and at least one component beyond it.
func (p PurePath) IsStrictlyUnder(dir PureDirPath) bool {
	return hasStrictPrefix(p.parts, dir.parts)
}

// RelativeTo rebases p onto dir, returning the remaining components and true
// if p.IsStrictlyUnder(dir), or a zero PurePath and false otherwise.
func (p PurePath) RelativeTo(dir PureDirPath) (PurePath, bool) {
	if !p.IsStrictlyUnder(dir) {
		return PurePath{}, false
	}
	return PurePath{parts: p.parts[len(dir.parts):]}, true
}

// hasStrictPrefix reports whether prefix is a proper, component-wise prefix
// of parts: every element of prefix matches, and parts has at least one
// component left over.
func hasStrictPrefix(parts, prefix []Component) bool {
	if len(parts) <= len(prefix) {
		return false
	}
	for i, c := range prefix {
		if parts[i] != c {
			return false
		}
	}
	return true
}
