// Package webdav implements the WebDAV-facing half of the gateway: the
// virtual path model, PROPFIND/multistatus XML, the HTML view, the request
// dispatcher, and the chi router that ties them together.
package webdav

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/dandidav/dandidav-go/internal/dandi"
	"github.com/dandidav/dandidav-go/internal/paths"
)

// ErrNonUTF8 and ErrNulByte classify why a raw URI path could not be split
// into components.
var (
	ErrNonUTF8 = errors.New("webdav: path is not valid percent-encoded UTF-8")
	ErrNulByte = errors.New("webdav: path component contains a NUL byte")
)

// SplitURIPath percent-decodes rawPath and normalizes it into a sequence of
// Components: empty segments and "." are dropped, ".." pops the previous
// component (if any), so "/a//b/./c/../d" becomes [a, b, d].
func SplitURIPath(rawPath string) ([]paths.Component, error) {
	decoded, err := url.PathUnescape(rawPath)
	if err != nil || !utf8.ValidString(decoded) {
		return nil, ErrNonUTF8
	}
	if strings.ContainsRune(decoded, '\x00') {
		return nil, ErrNulByte
	}
	var out []paths.Component
	for _, seg := range strings.Split(decoded, "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			c, err := paths.NewComponent(seg)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
	}
	return out, nil
}

// ContainsFastNotExist reports whether any component in the slice is one of
// the reserved names that paths.Component.IsFastNotExist rejects, letting
// routing short-circuit a whole request path in one pass.
func ContainsFastNotExist(components []paths.Component) bool {
	for _, c := range components {
		if c.IsFastNotExist() {
			return true
		}
	}
	return false
}

// DavPathKind discriminates the virtual resource tree's node types.
type DavPathKind int

const (
	KindRoot DavPathKind = iota
	KindDandisetIndex
	KindDandiset
	KindDandisetReleases
	KindVersion
	KindDandisetYaml
	KindDandiResource
	KindZarrmanRoot
	KindZarrmanPath
)

// DavPath is the parsed form of a request path: one variant of the virtual
// resource tree described in the routing table of this gateway's external
// interface.
type DavPath struct {
	Kind DavPathKind

	DandisetID dandi.DandisetID
	Version    dandi.VersionSpec
	AssetPath  paths.PurePath // valid when Kind == KindDandiResource

	// ZarrmanParts holds the raw path components under /zarrs/, interpreted
	// progressively deeper by the zarrman subsystem (prefix1, prefix2,
	// zarr_id, checksum.zarr, entry...).
	ZarrmanParts []paths.Component
}

// ErrNotFound is returned by FromComponents when the components do not name
// any resource in the virtual tree (unknown top-level segment, malformed
// Dandiset/version identifier, and so on).
var ErrNotFound = errors.New("webdav: no such resource")

// FromComponents interprets a normalized, fast-not-exist-checked component
// sequence as a DavPath.
func FromComponents(components []paths.Component) (DavPath, error) {
	if len(components) == 0 {
		return DavPath{Kind: KindRoot}, nil
	}
	switch components[0].String() {
	case "dandisets":
		return dandisetsPath(components[1:])
	case "zarrs":
		return zarrsPath(components[1:])
	default:
		return DavPath{}, ErrNotFound
	}
}

func dandisetsPath(rest []paths.Component) (DavPath, error) {
	if len(rest) == 0 {
		return DavPath{Kind: KindDandisetIndex}, nil
	}
	id, err := dandi.NewDandisetID(rest[0].String())
	if err != nil {
		return DavPath{}, ErrNotFound
	}
	if len(rest) == 1 {
		return DavPath{Kind: KindDandiset, DandisetID: id}, nil
	}
	switch rest[1].String() {
	case "releases":
		if len(rest) == 2 {
			return DavPath{Kind: KindDandisetReleases, DandisetID: id}, nil
		}
		vid, err := dandi.NewVersionID(rest[2].String())
		if err != nil {
			return DavPath{}, ErrNotFound
		}
		return versionSubPath(id, dandi.PublishedVersion(vid), rest[3:])
	case "draft":
		return versionSubPath(id, dandi.DraftVersion(), rest[2:])
	case "latest":
		return versionSubPath(id, dandi.LatestVersion(), rest[2:])
	default:
		return DavPath{}, ErrNotFound
	}
}

func versionSubPath(id dandi.DandisetID, spec dandi.VersionSpec, rest []paths.Component) (DavPath, error) {
	if len(rest) == 0 {
		return DavPath{Kind: KindVersion, DandisetID: id, Version: spec}, nil
	}
	if len(rest) == 1 && rest[0].String() == "dandiset.yaml" {
		return DavPath{Kind: KindDandisetYaml, DandisetID: id, Version: spec}, nil
	}
	p, err := paths.PurePathFromComponents(rest)
	if err != nil {
		return DavPath{}, ErrNotFound
	}
	return DavPath{Kind: KindDandiResource, DandisetID: id, Version: spec, AssetPath: p}, nil
}

func zarrsPath(rest []paths.Component) (DavPath, error) {
	if len(rest) == 0 {
		return DavPath{Kind: KindZarrmanRoot}, nil
	}
	return DavPath{Kind: KindZarrmanPath, ZarrmanParts: rest}, nil
}

// Parent returns d's parent in the virtual tree and whether it has one (the
// root does not).
func (d DavPath) Parent() (DavPath, bool) {
	switch d.Kind {
	case KindRoot:
		return DavPath{}, false
	case KindDandisetIndex, KindZarrmanRoot:
		return DavPath{Kind: KindRoot}, true
	case KindDandiset:
		return DavPath{Kind: KindDandisetIndex}, true
	case KindDandisetReleases:
		return DavPath{Kind: KindDandiset, DandisetID: d.DandisetID}, true
	case KindVersion:
		if d.Version.Kind() == dandi.VersionPublished {
			return DavPath{Kind: KindDandisetReleases, DandisetID: d.DandisetID}, true
		}
		return DavPath{Kind: KindDandiset, DandisetID: d.DandisetID}, true
	case KindDandisetYaml:
		return DavPath{Kind: KindVersion, DandisetID: d.DandisetID, Version: d.Version}, true
	case KindDandiResource:
		parts := d.AssetPath.Parts()
		if len(parts) <= 1 {
			return DavPath{Kind: KindVersion, DandisetID: d.DandisetID, Version: d.Version}, true
		}
		parent, err := paths.PurePathFromComponents(parts[:len(parts)-1])
		if err != nil {
			return DavPath{Kind: KindVersion, DandisetID: d.DandisetID, Version: d.Version}, true
		}
		return DavPath{Kind: KindDandiResource, DandisetID: d.DandisetID, Version: d.Version, AssetPath: parent}, true
	case KindZarrmanPath:
		if len(d.ZarrmanParts) <= 1 {
			return DavPath{Kind: KindZarrmanRoot}, true
		}
		return DavPath{Kind: KindZarrmanPath, ZarrmanParts: d.ZarrmanParts[:len(d.ZarrmanParts)-1]}, true
	default:
		return DavPath{}, false
	}
}

// String renders the DavPath back into a "/"-joined request path, for use
// in breadcrumbs and hrefs.
func (d DavPath) String() string {
	switch d.Kind {
	case KindRoot:
		return "/"
	case KindDandisetIndex:
		return "/dandisets/"
	case KindDandiset:
		return fmt.Sprintf("/dandisets/%s/", d.DandisetID)
	case KindDandisetReleases:
		return fmt.Sprintf("/dandisets/%s/releases/", d.DandisetID)
	case KindVersion:
		return fmt.Sprintf("/dandisets/%s/%s/", d.DandisetID, d.Version.PathSegment())
	case KindDandisetYaml:
		return fmt.Sprintf("/dandisets/%s/%s/dandiset.yaml", d.DandisetID, d.Version.PathSegment())
	case KindDandiResource:
		return fmt.Sprintf("/dandisets/%s/%s/%s", d.DandisetID, d.Version.PathSegment(), d.AssetPath)
	case KindZarrmanRoot:
		return "/zarrs/"
	case KindZarrmanPath:
		segs := make([]string, len(d.ZarrmanParts))
		for i, c := range d.ZarrmanParts {
			segs[i] = c.String()
		}
		return "/zarrs/" + strings.Join(segs, "/")
	default:
		return "/"
	}
}
