// Package dandi models the DANDI Archive's own identifier and resource
// types: Dandiset and version identifiers, assets, and the REST client used
// to resolve them.
package dandi

import (
	"errors"
	"regexp"
)

// ErrInvalidDandisetID is returned when a string is not a valid six-digit
// Dandiset identifier.
var ErrInvalidDandisetID = errors.New("dandi: invalid Dandiset identifier")

var dandisetIDPattern = regexp.MustCompile(`^[0-9]{6}$`)

// DandisetID is a validated six-digit Dandiset identifier, e.g. "000027".
type DandisetID struct {
	s string
}

// NewDandisetID validates and wraps s.
func NewDandisetID(s string) (DandisetID, error) {
	if !dandisetIDPattern.MatchString(s) {
		return DandisetID{}, ErrInvalidDandisetID
	}
	return DandisetID{s: s}, nil
}

func (d DandisetID) String() string { return d.s }

// ErrInvalidVersionID is returned when a string is not a valid published
// version identifier.
var ErrInvalidVersionID = errors.New("dandi: invalid version identifier")

var versionIDPattern = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+$`)

// VersionID is a validated published Dandiset version identifier, e.g.
// "0.230405.1735". It is not used for "draft" or "latest", which are
// represented by VersionSpec instead.
type VersionID struct {
	s string
}

// NewVersionID validates and wraps s.
func NewVersionID(s string) (VersionID, error) {
	if !versionIDPattern.MatchString(s) {
		return VersionID{}, ErrInvalidVersionID
	}
	return VersionID{s: s}, nil
}

func (v VersionID) String() string { return v.s }

// VersionSpecKind discriminates the three ways a Dandiset version can be
// addressed.
type VersionSpecKind int

const (
	// VersionDraft addresses the mutable draft version.
	VersionDraft VersionSpecKind = iota
	// VersionPublished addresses a specific, immutable published version.
	VersionPublished
	// VersionLatest addresses whichever published version is most recent,
	// resolved dynamically at request time.
	VersionLatest
)

// VersionSpec identifies which version of a Dandiset to address: the draft,
// a specific published version, or "latest".
type VersionSpec struct {
	kind      VersionSpecKind
	published VersionID // valid only when kind == VersionPublished
}

// DraftVersion returns a VersionSpec addressing the draft.
func DraftVersion() VersionSpec { return VersionSpec{kind: VersionDraft} }

// LatestVersion returns a VersionSpec addressing the latest published
// version.
func LatestVersion() VersionSpec { return VersionSpec{kind: VersionLatest} }

// PublishedVersion returns a VersionSpec addressing a specific published
// version.
func PublishedVersion(v VersionID) VersionSpec {
	return VersionSpec{kind: VersionPublished, published: v}
}

// Kind reports which of the three forms v is.
func (v VersionSpec) Kind() VersionSpecKind { return v.kind }

// Published returns the published version ID. It must only be called when
// Kind() == VersionPublished.
func (v VersionSpec) Published() VersionID { return v.published }

// PathSegment returns the path segment dandidav uses under
// "/dandisets/{id}/" to address this version: "draft", "latest", or
// "releases/{version}".
func (v VersionSpec) PathSegment() string {
	switch v.kind {
	case VersionDraft:
		return "draft"
	case VersionLatest:
		return "latest"
	default:
		return "releases/" + v.published.String()
	}
}

// APIVersionSegment returns the segment used when querying the DANDI Archive
// API itself, where the draft and latest versions are both just "draft" /
// "latest" and published versions are addressed by their bare version
// string.
func (v VersionSpec) APIVersionSegment() string {
	switch v.kind {
	case VersionDraft:
		return "draft"
	case VersionLatest:
		return "latest"
	default:
		return v.published.String()
	}
}
